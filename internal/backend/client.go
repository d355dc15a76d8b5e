// Package backend is the authenticated client for the two upstream
// services that own all persistent state: the products backend and the
// wholesale backend. The gateway itself stores nothing.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/arjeninventory/admin-gateway/internal/apperr"
	"github.com/arjeninventory/admin-gateway/internal/models"
)

// Client calls the upstream backends with bearer-token auth.
type Client struct {
	productsURL  string
	wholesaleURL string
	httpClient   *http.Client
	log          *slog.Logger
}

// NewClient creates a backend client. timeout bounds every upstream call.
func NewClient(productsURL, wholesaleURL string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		productsURL:  productsURL,
		wholesaleURL: wholesaleURL,
		httpClient:   &http.Client{Timeout: timeout},
		log:          log,
	}
}

// ProductsURL returns the products backend base URL.
func (c *Client) ProductsURL() string { return c.productsURL }

// WholesaleURL returns the wholesale backend base URL.
func (c *Client) WholesaleURL() string { return c.wholesaleURL }

// VerifyToken asks the products backend whether a session token is valid
// and returns the user it belongs to.
func (c *Client) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.productsURL+"/api/auth/verify", nil)
	if err != nil {
		return nil, fmt.Errorf("create verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperr.NetworkError{Op: "verify token", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.ErrUnauthenticated
	}

	var body struct {
		User *models.User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}

	if body.User == nil {
		return nil, apperr.ErrUnauthenticated
	}

	return body.User, nil
}

// LoginRequest is the backend login payload for Google-authenticated users.
type LoginRequest struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	GoogleID string `json:"googleId"`
}

// Login exchanges a Google profile for a backend session token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal login request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.productsURL+"/api/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create login request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &apperr.NetworkError{Op: "backend login", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &apperr.UpstreamError{Status: resp.StatusCode, Message: string(raw)}
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}

	if body.Token == "" {
		return "", &apperr.UpstreamError{Status: resp.StatusCode, Message: "login response lacks a token"}
	}

	return body.Token, nil
}

// CreateWholesaleOrder submits one aggregated order document to the
// wholesale backend.
func (c *Client) CreateWholesaleOrder(ctx context.Context, token string, order models.WholesaleOrder) (*models.CreatedOrder, error) {
	payload, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.wholesaleURL+"/api/wholesale", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create order request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperr.NetworkError{Op: "create wholesale order", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &apperr.UpstreamError{Status: resp.StatusCode, Message: errorMessage(raw, "Failed to create wholesale order")}
	}

	var created models.CreatedOrder
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}

	return &created, nil
}

// CreateProduct stores a new product on the products backend.
func (c *Client) CreateProduct(ctx context.Context, token string, product models.Product) (*models.Product, error) {
	payload, err := json.Marshal(product)
	if err != nil {
		return nil, fmt.Errorf("marshal product: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.productsURL+"/api/products", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create product request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperr.NetworkError{Op: "create product", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &apperr.UpstreamError{Status: resp.StatusCode, Message: errorMessage(raw, "Failed to save product")}
	}

	var saved models.Product
	if err := json.NewDecoder(resp.Body).Decode(&saved); err != nil {
		return nil, fmt.Errorf("decode product response: %w", err)
	}

	return &saved, nil
}

// ListProducts fetches one page of products.
func (c *Client) ListProducts(ctx context.Context, token string, page, limit int) (*models.ProductPage, error) {
	endpoint := fmt.Sprintf("%s/api/products?page=%d&limit=%d&onlySelected=false", c.productsURL, page, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create list request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperr.NetworkError{Op: "list products", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &apperr.UpstreamError{Status: resp.StatusCode, Message: errorMessage(raw, "Failed to fetch products")}
	}

	var pageBody models.ProductPage
	if err := json.NewDecoder(resp.Body).Decode(&pageBody); err != nil {
		return nil, fmt.Errorf("decode products page: %w", err)
	}

	return &pageBody, nil
}

// CheckCode asks the products backend whether a product code is taken.
func (c *Client) CheckCode(ctx context.Context, token, code string) (bool, error) {
	endpoint := c.productsURL + "/api/products/check-code/" + url.PathEscape(code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("create check-code request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, &apperr.NetworkError{Op: "check product code", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return false, &apperr.UpstreamError{Status: resp.StatusCode, Message: errorMessage(raw, "Failed to check product code")}
	}

	var body struct {
		Exists bool `json:"exists"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decode check-code response: %w", err)
	}

	return body.Exists, nil
}

// Forward relays a request to an upstream backend, injecting the bearer
// token and preserving method, query string, and body. The upstream
// status and JSON body are relayed as-is; transport failures surface as
// 502 with the fallback message.
func (c *Client) Forward(w http.ResponseWriter, r *http.Request, baseURL, path, token, fallback string) {
	c.ForwardAs(w, r, r.Method, baseURL, path, token, fallback)
}

// ForwardAs is Forward with an overridden upstream method. The dashboard
// historically accepted PUT on some routes whose backend only speaks
// PATCH.
func (c *Client) ForwardAs(w http.ResponseWriter, r *http.Request, method, baseURL, path, token, fallback string) {
	endpoint := baseURL + path
	if r.URL.RawQuery != "" {
		endpoint += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), method, endpoint, r.Body)
	if err != nil {
		c.log.Error("failed to build upstream request", "path", path, "error", err)
		writeJSONError(w, http.StatusInternalServerError, fallback)
		return
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	} else {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("upstream request failed", "path", path, "error", err)
		writeJSONError(w, http.StatusBadGateway, fallback)
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		c.log.Error("failed to relay upstream response", "path", path, "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// errorMessage extracts the error field from an upstream body, falling
// back to the given message.
func errorMessage(raw []byte, fallback string) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body.Error
	}
	if len(raw) > 0 {
		return string(raw)
	}
	return fallback
}

// Page parses pagination query values with the dashboard's defaults.
func Page(r *http.Request) (page, limit int) {
	page, limit = 1, 10
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	return page, limit
}
