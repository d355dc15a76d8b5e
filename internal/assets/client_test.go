package assets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arjeninventory/admin-gateway/internal/apperr"
)

func TestClient_Upload(t *testing.T) {
	var gotForm uploadForm
	var gotAuthUser string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuthUser, _, _ = r.BasicAuth()
		if err := json.NewDecoder(r.Body).Decode(&gotForm); err != nil {
			t.Errorf("decode upload form: %v", err)
		}
		json.NewEncoder(w).Encode(UploadResult{
			URL:          "https://ik.example.com/abc.jpg",
			FileID:       "file-123",
			Name:         "abc.jpg",
			ThumbnailURL: "https://ik.example.com/tr:n-thumb/abc.jpg",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.URL, "private_key")

	result, err := client.Upload(context.Background(), UploadRequest{
		File:     "aGVsbG8=",
		FileName: "abc.jpg",
		Folder:   "/wholesale-products",
	})
	if err != nil {
		t.Fatalf("Upload() unexpected error = %v", err)
	}

	if result.URL != "https://ik.example.com/abc.jpg" {
		t.Errorf("URL = %q", result.URL)
	}
	if result.FileID != "file-123" {
		t.Errorf("FileID = %q", result.FileID)
	}
	if gotAuthUser != "private_key" {
		t.Errorf("basic auth user = %q, want private key", gotAuthUser)
	}
	if !gotForm.UseUniqueFileName {
		t.Error("upload must request unique file names")
	}
	if gotForm.Folder != "/wholesale-products" {
		t.Errorf("folder = %q", gotForm.Folder)
	}
}

func TestClient_Upload_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		req        UploadRequest
		wantUpload bool
		wantValid  bool
	}{
		{
			name:      "missing file",
			req:       UploadRequest{FileName: "a.jpg"},
			wantValid: true,
		},
		{
			name:      "missing file name",
			req:       UploadRequest{File: "aGVsbG8="},
			wantValid: true,
		},
		{
			name:       "server error",
			status:     http.StatusInternalServerError,
			body:       `{"message":"boom"}`,
			req:        UploadRequest{File: "aGVsbG8=", FileName: "a.jpg"},
			wantUpload: true,
		},
		{
			name:       "missing url in response",
			status:     http.StatusOK,
			body:       `{"fileId":"x"}`,
			req:        UploadRequest{File: "aGVsbG8=", FileName: "a.jpg"},
			wantUpload: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, srv.URL, "key")
			_, err := client.Upload(context.Background(), tt.req)
			if err == nil {
				t.Fatal("Upload() expected error")
			}

			var uploadErr *UploadError
			if got := errors.As(err, &uploadErr); got != tt.wantUpload {
				t.Errorf("errors.As(UploadError) = %v, want %v (err: %v)", got, tt.wantUpload, err)
			}

			var validErr *apperr.ValidationError
			if got := errors.As(err, &validErr); got != tt.wantValid {
				t.Errorf("errors.As(ValidationError) = %v, want %v (err: %v)", got, tt.wantValid, err)
			}
		})
	}
}

func TestClient_Delete(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"deleted", http.StatusNoContent, false},
		{"already absent", http.StatusNotFound, false},
		{"server error", http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				if r.Method != http.MethodDelete {
					t.Errorf("method = %q, want DELETE", r.Method)
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client := NewClient(srv.URL, srv.URL, "key")
			err := client.Delete(context.Background(), "file-123")

			if tt.wantErr && err == nil {
				t.Error("Delete() expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Delete() unexpected error = %v", err)
			}
			if gotPath != "/files/file-123" {
				t.Errorf("path = %q, want /files/file-123", gotPath)
			}
		})
	}
}

func TestClient_Delete_RequiresFileID(t *testing.T) {
	client := NewClient("http://unused", "http://unused", "key")

	err := client.Delete(context.Background(), "")
	var validErr *apperr.ValidationError
	if !errors.As(err, &validErr) {
		t.Errorf("Delete(\"\") error = %v, want ValidationError", err)
	}
}
