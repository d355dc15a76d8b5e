package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/arjeninventory/admin-gateway/internal/auth"
	"github.com/arjeninventory/admin-gateway/internal/backend"
)

// RatesHandler proxies the currency rate, shipment cost, and stock routes
// to the products backend. Rate and cost reads are public; every write
// goes through auth and permission middleware.
type RatesHandler struct {
	backend    *backend.Client
	cookieName string
}

// NewRatesHandler creates a rates handler.
func NewRatesHandler(client *backend.Client, cookieName string) *RatesHandler {
	return &RatesHandler{backend: client, cookieName: cookieName}
}

func (h *RatesHandler) token(r *http.Request) string {
	return auth.TokenFromRequest(r, h.cookieName)
}

// CurrencyRates handles GET and POST /api/currency-rates
func (h *RatesHandler) CurrencyRates(w http.ResponseWriter, r *http.Request) {
	h.backend.Forward(w, r, h.backend.ProductsURL(), "/api/currency-rates", h.token(r), "Failed to process currency rates")
}

// CurrencyRate handles GET and PUT /api/currency-rates/{currency}
func (h *RatesHandler) CurrencyRate(w http.ResponseWriter, r *http.Request) {
	currency := chi.URLParam(r, "currency")
	h.backend.Forward(w, r, h.backend.ProductsURL(), "/api/currency-rates/"+url.PathEscape(currency), h.token(r), "Failed to process currency rate")
}

// ShipmentCosts handles GET and POST /api/shipment-costs
func (h *RatesHandler) ShipmentCosts(w http.ResponseWriter, r *http.Request) {
	h.backend.Forward(w, r, h.backend.ProductsURL(), "/api/shipment-costs", h.token(r), "Failed to process shipment costs")
}

// ShipmentCost handles GET and PUT /api/shipment-costs/{way}
func (h *RatesHandler) ShipmentCost(w http.ResponseWriter, r *http.Request) {
	way := chi.URLParam(r, "way")
	h.backend.Forward(w, r, h.backend.ProductsURL(), "/api/shipment-costs/"+url.PathEscape(way), h.token(r), "Failed to process shipment cost")
}

// Stocks handles GET and POST /api/stocks
func (h *RatesHandler) Stocks(w http.ResponseWriter, r *http.Request) {
	h.backend.Forward(w, r, h.backend.ProductsURL(), "/api/stocks", h.token(r), "Failed to process stocks")
}
