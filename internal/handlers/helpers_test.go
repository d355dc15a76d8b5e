package handlers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/arjeninventory/admin-gateway/internal/assets"
)

// testPNG renders a solid image of the given size.
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

// fakeUploader records uploads and deletions.
type fakeUploader struct {
	uploads   []assets.UploadRequest
	deleted   []string
	uploadErr error
	deleteErr error
}

func (f *fakeUploader) Upload(ctx context.Context, req assets.UploadRequest) (*assets.UploadResult, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}

	f.uploads = append(f.uploads, req)
	n := len(f.uploads)
	return &assets.UploadResult{
		URL:          fmt.Sprintf("https://cdn.example.com/img-%d.jpg", n),
		FileID:       fmt.Sprintf("file-%d", n),
		Name:         req.FileName,
		ThumbnailURL: fmt.Sprintf("https://cdn.example.com/tr:n-thumb/img-%d.jpg", n),
	}, nil
}

func (f *fakeUploader) Delete(ctx context.Context, fileID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, fileID)
	return nil
}
