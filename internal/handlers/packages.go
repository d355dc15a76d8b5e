package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/arjeninventory/admin-gateway/internal/auth"
	"github.com/arjeninventory/admin-gateway/internal/backend"
)

// PackagesHandler proxies the customer package routes to the products
// backend.
type PackagesHandler struct {
	backend    *backend.Client
	cookieName string
}

// NewPackagesHandler creates a packages handler.
func NewPackagesHandler(client *backend.Client, cookieName string) *PackagesHandler {
	return &PackagesHandler{backend: client, cookieName: cookieName}
}

func (h *PackagesHandler) token(r *http.Request) string {
	return auth.TokenFromRequest(r, h.cookieName)
}

// List handles GET and POST /api/packages
func (h *PackagesHandler) List(w http.ResponseWriter, r *http.Request) {
	h.backend.Forward(w, r, h.backend.ProductsURL(), "/api/packages", h.token(r), "Failed to fetch packages")
}

// ByID handles GET, PUT, and DELETE /api/packages/{id}
func (h *PackagesHandler) ByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.backend.Forward(w, r, h.backend.ProductsURL(), "/api/packages/"+url.PathEscape(id), h.token(r), "Failed to process package")
}
