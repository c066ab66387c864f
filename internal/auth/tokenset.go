package auth

import "time"

// RefreshBuffer is the window before actual expiry during which a token is
// proactively refreshed rather than used until failure.
const RefreshBuffer = 5 * time.Minute

// TokenSet is one account's credential bundle.
type TokenSet struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// NeedsRefresh reports whether the access token is expired or expires
// within the buffer.
func (t *TokenSet) NeedsRefresh(buffer time.Duration) bool {
	return time.Until(t.ExpiresAt) <= buffer
}

// clone returns a copy so callers never hold a pointer into the registry.
func (t *TokenSet) clone() *TokenSet {
	if t == nil {
		return nil
	}
	c := *t
	c.Scopes = append([]string(nil), t.Scopes...)
	return &c
}
