package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// CallbackTimeout is how long the login flow waits for the browser
// redirect before giving up.
const CallbackTimeout = 5 * time.Minute

// CallbackResult is the outcome of one authorization flow.
type CallbackResult struct {
	AccountID string
	Err       error
}

// StartCallbackServer starts a temporary HTTP server on the redirect URI's
// host and path to receive the OAuth callback. It verifies the state
// token, exchanges the code through the store, and reports exactly one
// result on the returned channel. cleanup shuts the server down and is
// safe to call more than once.
func StartCallbackServer(
	store *Store,
	redirectURI, state string,
	log zerolog.Logger,
) (<-chan CallbackResult, func(), error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redirect URI: %w", err)
	}

	listener, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, nil, fmt.Errorf("start callback server on %s: %w", u.Host, err)
	}

	resultChan := make(chan CallbackResult, 1)
	var once sync.Once
	deliver := func(res CallbackResult) {
		once.Do(func() { resultChan <- res })
	}

	mux := http.NewServeMux()
	srv := &http.Server{Handler: mux}

	mux.HandleFunc(u.Path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if q.Get("state") != state {
			renderPage(w, http.StatusBadRequest, "Sign-in failed", "State token mismatch. Please retry the login flow.")
			deliver(CallbackResult{Err: fmt.Errorf("state token mismatch")})
			return
		}
		if errCode := q.Get("error"); errCode != "" {
			desc := q.Get("error_description")
			renderPage(w, http.StatusBadRequest, "Sign-in failed", fmt.Sprintf("%s: %s", errCode, desc))
			deliver(CallbackResult{Err: fmt.Errorf("authorization denied: %s: %s", errCode, desc)})
			return
		}
		code := q.Get("code")
		if code == "" {
			renderPage(w, http.StatusBadRequest, "Sign-in failed", "No authorization code in callback.")
			deliver(CallbackResult{Err: fmt.Errorf("callback missing authorization code")})
			return
		}

		accountID, _, err := store.ExchangeCode(r.Context(), code)
		if err != nil {
			renderPage(w, http.StatusInternalServerError, "Sign-in failed", err.Error())
			deliver(CallbackResult{Err: err})
			return
		}

		renderPage(w, http.StatusOK, "Sign-in complete",
			fmt.Sprintf("Account %s is now connected. You can close this window.", accountID))
		deliver(CallbackResult{AccountID: accountID})
	})

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("callback server error")
		}
	}()

	var cleanupOnce sync.Once
	cleanup := func() {
		cleanupOnce.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Warn().Err(err).Msg("callback server shutdown")
			}
		})
	}

	// Give up if the browser never comes back.
	go func() {
		time.Sleep(CallbackTimeout)
		deliver(CallbackResult{Err: fmt.Errorf("timed out waiting for OAuth callback after %v", CallbackTimeout)})
		cleanup()
	}()

	return resultChan, cleanup, nil
}

// renderPage writes a minimal HTML status page to the browser.
func renderPage(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>%s</title>
<style>body { font-family: -apple-system, sans-serif; max-width: 600px; margin: 50px auto; text-align: center; }</style>
</head>
<body><h1>%s</h1><p>%s</p></body>
</html>`, title, title, detail)
}
