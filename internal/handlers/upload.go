package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/arjeninventory/admin-gateway/internal/apperr"
	"github.com/arjeninventory/admin-gateway/internal/assets"
)

// Uploader stores and deletes remote assets.
type Uploader interface {
	Upload(ctx context.Context, req assets.UploadRequest) (*assets.UploadResult, error)
	Delete(ctx context.Context, fileID string) error
}

// UploadHandler is the direct asset passthrough: callers that already
// hold prepared base64 image data can store and delete assets without
// going through a product or order flow.
type UploadHandler struct {
	uploader Uploader
	folder   string
	log      *slog.Logger
}

// NewUploadHandler creates an upload handler. folder is the default
// remote folder when the caller does not name one.
func NewUploadHandler(uploader Uploader, folder string, log *slog.Logger) *UploadHandler {
	return &UploadHandler{
		uploader: uploader,
		folder:   folder,
		log:      log,
	}
}

// Upload handles POST /api/upload
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var req assets.UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	if req.File == "" || req.FileName == "" {
		WriteError(w, http.StatusBadRequest, "file and fileName are required", h.log)
		return
	}

	if req.Folder == "" {
		req.Folder = h.folder
	}

	result, err := h.uploader.Upload(r.Context(), req)
	if err != nil {
		h.log.Error("direct asset upload failed", "file_name", req.FileName, "error", err)
		writeAssetError(w, err, "Failed to upload image", h.log)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"url":          result.URL,
		"fileId":       result.FileID,
		"name":         result.Name,
		"thumbnailUrl": result.ThumbnailURL,
	}, h.log)
}

// Delete handles DELETE /api/upload
func (h *UploadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileID string `json:"fileId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	if req.FileID == "" {
		WriteError(w, http.StatusBadRequest, "fileId is required", h.log)
		return
	}

	if err := h.uploader.Delete(r.Context(), req.FileID); err != nil {
		h.log.Error("direct asset delete failed", "file_id", req.FileID, "error", err)
		writeAssetError(w, err, "Failed to delete image", h.log)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"success": true}, h.log)
}

// writeAssetError maps asset client errors onto responses.
func writeAssetError(w http.ResponseWriter, err error, fallback string, log *slog.Logger) {
	var validation *apperr.ValidationError
	if errors.As(err, &validation) {
		WriteError(w, http.StatusBadRequest, validation.Error(), log)
		return
	}

	var upload *assets.UploadError
	if errors.As(err, &upload) {
		WriteError(w, upload.Status, apperr.Message(upload.Status, fallback), log)
		return
	}

	writeUpstreamError(w, err, fallback, log)
}
