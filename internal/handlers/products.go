package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/arjeninventory/admin-gateway/internal/apperr"
	"github.com/arjeninventory/admin-gateway/internal/assets"
	"github.com/arjeninventory/admin-gateway/internal/auth"
	"github.com/arjeninventory/admin-gateway/internal/backend"
	"github.com/arjeninventory/admin-gateway/internal/catalog"
	"github.com/arjeninventory/admin-gateway/internal/imaging"
	"github.com/arjeninventory/admin-gateway/internal/middleware"
	"github.com/arjeninventory/admin-gateway/internal/models"
)

// productMaxUploadBytes bounds the multipart form, matching the
// dashboard's 10MB per-image limit.
const productMaxUploadBytes = 10 << 20

// ProductCreator is the slice of the backend client the upload path uses.
type ProductCreator interface {
	CreateProduct(ctx context.Context, token string, product models.Product) (*models.Product, error)
}

// ProductsHandler serves the product routes: thin proxies to the products
// backend plus the multipart upload pipeline.
type ProductsHandler struct {
	backend    *backend.Client
	creator    ProductCreator
	uploader   Uploader
	codes      *catalog.Index
	imageOpts  imaging.Options
	cookieName string
	log        *slog.Logger
}

// NewProductsHandler creates a products handler.
func NewProductsHandler(
	client *backend.Client,
	uploader Uploader,
	codes *catalog.Index,
	imageOpts imaging.Options,
	cookieName string,
	log *slog.Logger,
) *ProductsHandler {
	return &ProductsHandler{
		backend:    client,
		creator:    client,
		uploader:   uploader,
		codes:      codes,
		imageOpts:  imageOpts,
		cookieName: cookieName,
		log:        log,
	}
}

func (h *ProductsHandler) token(r *http.Request) string {
	return auth.TokenFromRequest(r, h.cookieName)
}

// List handles GET /api/products
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	h.backend.Forward(w, r, h.backend.ProductsURL(), "/api/products", h.token(r), "Failed to fetch products")
}

// Create handles POST /api/products: a direct JSON create for callers
// whose image is already hosted. The multipart pipeline lives in Upload.
func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.backend.Forward(w, r, h.backend.ProductsURL(), "/api/products", h.token(r), "Failed to save product")
}

// ByCategory handles GET /api/products/category/{category}
func (h *ProductsHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	path := "/api/products/category/" + url.PathEscape(category)
	h.backend.Forward(w, r, h.backend.ProductsURL(), path, h.token(r), "Failed to fetch products")
}

// Update handles PUT and PATCH /api/products/{id}. The backend only
// speaks PATCH.
func (h *ProductsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.backend.ForwardAs(w, r, http.MethodPatch, h.backend.ProductsURL(), "/api/products/"+url.PathEscape(id), h.token(r), "Failed to update product")
}

// Delete handles DELETE /api/products/{id}
func (h *ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.backend.Forward(w, r, h.backend.ProductsURL(), "/api/products/"+url.PathEscape(id), h.token(r), "Failed to delete product")
}

// SaleRate handles PATCH /api/products/{id}/sale-rate
func (h *ProductsHandler) SaleRate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.backend.Forward(w, r, h.backend.ProductsURL(), "/api/products/"+url.PathEscape(id)+"/sale-rate", h.token(r), "Failed to update sale rate")
}

// Selected handles PATCH /api/products/{id}/selected
func (h *ProductsHandler) Selected(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.backend.Forward(w, r, h.backend.ProductsURL(), "/api/products/"+url.PathEscape(id)+"/selected", h.token(r), "Failed to update selection")
}

// CheckCode handles GET /api/products/check-code/{code}
func (h *ProductsHandler) CheckCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		WriteError(w, http.StatusBadRequest, "Product code is required", h.log)
		return
	}

	taken, err := h.codes.CheckCode(r.Context(), h.token(r), code)
	if err != nil {
		h.log.Error("failed to check product code", "code", code, "error", err)
		writeUpstreamError(w, err, "Failed to check product code", h.log)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"exists": taken}, h.log)
}

// Upload handles POST /api/products/upload: a multipart product create.
// The image is prepared and stored on the asset host before the product
// document is saved; a failed save deletes the uploaded asset again.
func (h *ProductsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "Unauthorized", h.log)
		return
	}

	if err := r.ParseMultipartForm(productMaxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid multipart form", h.log)
		return
	}

	category := r.FormValue("category")
	description := r.FormValue("description")
	price := r.FormValue("price")
	currency := r.FormValue("currency")
	weight := r.FormValue("weight")
	shipmentWay := r.FormValue("shippmentWay")

	if category == "" || description == "" || price == "" || currency == "" || weight == "" || shipmentWay == "" {
		WriteError(w, http.StatusBadRequest, "All fields are required", h.log)
		return
	}

	priceVal, err := strconv.ParseFloat(price, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid price", h.log)
		return
	}

	weightVal, err := strconv.Atoi(weight)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid weight", h.log)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Image is required", h.log)
		return
	}
	defer file.Close()

	payload, err := imaging.Prepare(file, h.imageOpts)
	if err != nil {
		h.log.Warn("product image preparation failed", "error", err)
		WriteError(w, http.StatusBadRequest, "Image upload failed: "+err.Error(), h.log)
		return
	}

	uploaded, err := h.uploader.Upload(r.Context(), assets.UploadRequest{
		File:     payload.Base64,
		FileName: uuid.New().String() + ".jpg",
		Folder:   "/products",
	})
	if err != nil {
		h.log.Error("product image upload failed", "error", err)
		WriteError(w, http.StatusBadRequest, "Image upload failed", h.log)
		return
	}

	product := models.Product{
		ID:           uuid.New().String(),
		Category:     category,
		Description:  description,
		Price:        priceVal,
		Currency:     currency,
		Weight:       weightVal,
		ImageURL:     uploaded.URL,
		ImageAssetID: uploaded.FileID,
		UserID:       user.ID,
		ShipmentWay:  shipmentWay,
	}

	saved, err := h.creator.CreateProduct(r.Context(), h.token(r), product)
	if err != nil {
		h.log.Error("backend save failed, cleaning up uploaded asset", "file_id", uploaded.FileID, "error", err)

		if delErr := h.uploader.Delete(r.Context(), uploaded.FileID); delErr != nil {
			h.log.Warn("asset cleanup failed", "file_id", uploaded.FileID, "error", delErr)
		}

		writeUpstreamError(w, err, "Failed to save product", h.log)
		return
	}

	if saved.Code != "" {
		h.codes.Add(saved.Code)
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"success": true, "product": saved}, h.log)
}

// writeUpstreamError maps backend client errors onto responses, relaying
// the upstream status where one exists. Upstream failures carry a
// severity so the dashboard can pick the toast level.
func writeUpstreamError(w http.ResponseWriter, err error, fallback string, log *slog.Logger) {
	var upstream *apperr.UpstreamError
	if errors.As(err, &upstream) {
		WriteJSON(w, upstream.Status, map[string]string{
			"error":    upstream.Message,
			"severity": string(upstream.Severity()),
		}, log)
		return
	}

	var network *apperr.NetworkError
	if errors.As(err, &network) {
		WriteError(w, http.StatusBadGateway, fallback, log)
		return
	}

	WriteError(w, http.StatusInternalServerError, fallback, log)
}
