// Package assets talks to the image-hosting service. Every successful
// upload allocates a billable remote asset, so callers that abandon an
// order are expected to delete what they uploaded.
package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/arjeninventory/admin-gateway/internal/apperr"
)

// UploadRequest is the payload accepted by the hosting service.
type UploadRequest struct {
	// File is base64-encoded image bytes with no data-URL prefix.
	File     string `json:"file"`
	FileName string `json:"fileName"`
	Folder   string `json:"folder"`
}

// UploadResult identifies a stored asset.
type UploadResult struct {
	URL          string `json:"url"`
	FileID       string `json:"fileId"`
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// UploadError reports a rejected upload. The orchestrator decides whether
// to abandon the batch; the client itself never retries.
type UploadError struct {
	Status  int
	Message string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("asset upload failed with status %d: %s", e.Status, e.Message)
}

// Client is an authenticated client for the hosting service's upload and
// management endpoints.
type Client struct {
	uploadURL  string
	apiURL     string
	privateKey string
	httpClient *http.Client
}

// NewClient creates an asset host client. uploadURL receives uploads,
// apiURL serves file management (deletion).
func NewClient(uploadURL, apiURL, privateKey string) *Client {
	return &Client{
		uploadURL:  uploadURL,
		apiURL:     apiURL,
		privateKey: privateKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type uploadForm struct {
	File              string   `json:"file"`
	FileName          string   `json:"fileName"`
	Folder            string   `json:"folder"`
	UseUniqueFileName bool     `json:"useUniqueFileName"`
	Tags              []string `json:"tags,omitempty"`
}

// Upload sends a prepared image to the hosting service and returns the
// stored asset's URL and identifier.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if req.File == "" || req.FileName == "" {
		return nil, &apperr.ValidationError{Message: "file and fileName are required"}
	}

	if req.Folder == "" {
		req.Folder = "/wholesale-products"
	}

	body, err := json.Marshal(uploadForm{
		File:              req.File,
		FileName:          req.FileName,
		Folder:            req.Folder,
		UseUniqueFileName: true,
		Tags:              []string{"wholesale", "product"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal upload request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.privateKey, "")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &apperr.NetworkError{Op: "upload asset", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UploadError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}

	if result.URL == "" {
		return nil, &UploadError{Status: resp.StatusCode, Message: "response body lacks a URL"}
	}

	return &result, nil
}

// Delete requests permanent removal of an asset. Callers treat failures
// as soft: cleanup paths log and continue.
func (c *Client) Delete(ctx context.Context, fileID string) error {
	if fileID == "" {
		return &apperr.ValidationError{Field: "fileId", Message: "is required"}
	}

	endpoint := fmt.Sprintf("%s/files/%s", c.apiURL, url.PathEscape(fileID))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create delete request: %w", err)
	}
	httpReq.SetBasicAuth(c.privateKey, "")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &apperr.NetworkError{Op: "delete asset", Err: err}
	}
	defer resp.Body.Close()

	// The asset being already absent counts as deleted.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apperr.UpstreamError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	return nil
}

// readErrorMessage pulls a message out of an error response body, falling
// back to the raw text.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return "no response body"
	}

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}

	return string(raw)
}
