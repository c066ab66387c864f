package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/outlook-bridge/internal/config"
)

// TokenEndpoint performs authorization-code exchange and refresh against
// the Microsoft identity platform token endpoint.
type TokenEndpoint struct {
	tokenURL     string
	clientID     string
	clientSecret string
	redirectURI  string
	scope        string
	httpClient   *http.Client
}

// NewTokenEndpoint creates a token endpoint client from configuration.
func NewTokenEndpoint(cfg *config.Config) *TokenEndpoint {
	return &TokenEndpoint{
		tokenURL:     cfg.TokenURL(),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		scope:        cfg.ScopeString(),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// tokenResponse is the token endpoint's success payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

// oauthError is the token endpoint's failure payload.
type oauthError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Exchange posts an authorization code and returns the issued token set.
func (e *TokenEndpoint) Exchange(ctx context.Context, code string) (*TokenSet, error) {
	if e.clientID == "" {
		return nil, fmt.Errorf("%w: client ID not configured", ErrExchangeFailed)
	}

	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("client_id", e.clientID)
	if e.clientSecret != "" {
		data.Set("client_secret", e.clientSecret)
	}
	data.Set("code", code)
	data.Set("redirect_uri", e.redirectURI)
	data.Set("scope", e.scope)

	ts, err := e.post(ctx, data, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	return ts, nil
}

// Refresh posts a refresh token and returns the updated token set. The
// prior refresh token is preserved when the provider omits a new one.
func (e *TokenEndpoint) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	if e.clientID == "" {
		return nil, fmt.Errorf("%w: client ID not configured", ErrRefreshFailed)
	}

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("client_id", e.clientID)
	if e.clientSecret != "" {
		data.Set("client_secret", e.clientSecret)
	}
	data.Set("refresh_token", refreshToken)
	data.Set("scope", e.scope)

	ts, err := e.post(ctx, data, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	return ts, nil
}

// post sends a form-encoded token request. priorRefreshToken fills in for
// a missing refresh_token in the response.
func (e *TokenEndpoint) post(
	ctx context.Context,
	data url.Values,
	priorRefreshToken string,
) (*TokenSet, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, e.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var oe oauthError
		if json.Unmarshal(body, &oe) == nil && oe.Error != "" {
			return nil, fmt.Errorf("status %d: %s: %s", resp.StatusCode, oe.Error, oe.ErrorDescription)
		}
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}

	refreshToken := tr.RefreshToken
	if refreshToken == "" {
		refreshToken = priorRefreshToken
	}

	// Expiry is computed at issuance; the relative expires_in is never
	// trusted after the fact.
	return &TokenSet{
		AccessToken:  tr.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
		Scopes:       strings.Fields(tr.Scope),
	}, nil
}
