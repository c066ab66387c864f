package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEndpoint(tokenURL string) *TokenEndpoint {
	return &TokenEndpoint{
		tokenURL:    tokenURL,
		clientID:    "client-id",
		redirectURI: "http://localhost:3333/auth/callback",
		scope:       "offline_access Mail.ReadWrite",
		httpClient:  &http.Client{Timeout: 5 * time.Second},
	}
}

func TestTokenEndpoint_Exchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "http://localhost:3333/auth/callback", r.PostForm.Get("redirect_uri"))

		_ = json.NewEncoder(w).Encode(tokenResponse{
			AccessToken:  "new-at",
			RefreshToken: "new-rt",
			ExpiresIn:    3600,
			Scope:        "offline_access Mail.ReadWrite",
		})
	}))
	defer srv.Close()

	e := newTestEndpoint(srv.URL)
	ts, err := e.Exchange(context.Background(), "the-code")

	require.NoError(t, err)
	assert.Equal(t, "new-at", ts.AccessToken)
	assert.Equal(t, "new-rt", ts.RefreshToken)
	assert.Equal(t, []string{"offline_access", "Mail.ReadWrite"}, ts.Scopes)

	// The relative expires_in becomes an absolute timestamp at issuance.
	assert.WithinDuration(t, time.Now().Add(time.Hour), ts.ExpiresAt, 5*time.Second)
}

func TestTokenEndpoint_Exchange_MissingClientID(t *testing.T) {
	e := &TokenEndpoint{httpClient: http.DefaultClient}

	_, err := e.Exchange(context.Background(), "code")

	assert.ErrorIs(t, err, ErrExchangeFailed)
}

func TestTokenEndpoint_Exchange_OAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(oauthError{
			Error:            "invalid_grant",
			ErrorDescription: "AADSTS70008: the code has expired",
		})
	}))
	defer srv.Close()

	e := newTestEndpoint(srv.URL)
	_, err := e.Exchange(context.Background(), "stale-code")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExchangeFailed)
	assert.Contains(t, err.Error(), "invalid_grant")
	assert.Contains(t, err.Error(), "AADSTS70008")
}

func TestTokenEndpoint_Refresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "old-rt", r.PostForm.Get("refresh_token"))

		_ = json.NewEncoder(w).Encode(tokenResponse{
			AccessToken:  "rotated-at",
			RefreshToken: "rotated-rt",
			ExpiresIn:    3600,
		})
	}))
	defer srv.Close()

	e := newTestEndpoint(srv.URL)
	ts, err := e.Refresh(context.Background(), "old-rt")

	require.NoError(t, err)
	assert.Equal(t, "rotated-at", ts.AccessToken)
	assert.Equal(t, "rotated-rt", ts.RefreshToken)
}

func TestTokenEndpoint_Refresh_PreservesPriorRefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Microsoft sometimes omits refresh_token on refresh responses.
		_ = json.NewEncoder(w).Encode(tokenResponse{
			AccessToken: "rotated-at",
			ExpiresIn:   3600,
		})
	}))
	defer srv.Close()

	e := newTestEndpoint(srv.URL)
	ts, err := e.Refresh(context.Background(), "old-rt")

	require.NoError(t, err)
	assert.Equal(t, "old-rt", ts.RefreshToken)
}

func TestTokenEndpoint_Refresh_ServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	e := newTestEndpoint(srv.URL)
	_, err := e.Refresh(context.Background(), "old-rt")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.Contains(t, err.Error(), "503")
}

func TestTokenEndpoint_MissingAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(tokenResponse{ExpiresIn: 3600})
	}))
	defer srv.Close()

	e := newTestEndpoint(srv.URL)
	_, err := e.Exchange(context.Background(), "code")

	assert.ErrorIs(t, err, ErrExchangeFailed)
}
