package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arjeninventory/admin-gateway/internal/apperr"
)

const (
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// GoogleProfile is the subset of the userinfo response the backend login
// needs.
type GoogleProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// GoogleClient exchanges OAuth authorization codes for user profiles.
type GoogleClient struct {
	clientID     string
	clientSecret string
	redirectURI  string
	tokenURL     string
	userInfoURL  string
	httpClient   *http.Client
}

// NewGoogleClient creates a Google OAuth client.
func NewGoogleClient(clientID, clientSecret, redirectURI string) *GoogleClient {
	return &GoogleClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		tokenURL:     googleTokenURL,
		userInfoURL:  googleUserInfoURL,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Exchange trades an authorization code for the user's Google profile.
func (g *GoogleClient) Exchange(ctx context.Context, code string) (*GoogleProfile, error) {
	form := url.Values{
		"code":          {code},
		"client_id":     {g.clientID},
		"client_secret": {g.clientSecret},
		"redirect_uri":  {g.redirectURI},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &apperr.NetworkError{Op: "google token exchange", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &apperr.UpstreamError{Status: resp.StatusCode, Message: "Google code exchange failed"}
	}

	var tokenBody struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenBody); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tokenBody.AccessToken == "" {
		return nil, &apperr.UpstreamError{Status: resp.StatusCode, Message: "Google returned no access token"}
	}

	return g.userInfo(ctx, tokenBody.AccessToken)
}

func (g *GoogleClient) userInfo(ctx context.Context, accessToken string) (*GoogleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &apperr.NetworkError{Op: "google userinfo", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &apperr.UpstreamError{Status: resp.StatusCode, Message: "Google userinfo failed"}
	}

	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode userinfo response: %w", err)
	}

	return &profile, nil
}
