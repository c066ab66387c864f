package auth

import (
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/outlook-bridge/internal/config"
)

// NewState returns a random state token for an authorization request.
func NewState() string {
	return uuid.New().String()
}

// BuildAuthURL constructs the Microsoft identity platform authorization
// URL. response_mode=query keeps code extraction simple on the callback.
func BuildAuthURL(cfg *config.Config, state string) string {
	oc := oauth2.Config{
		ClientID:    cfg.ClientID,
		RedirectURL: cfg.RedirectURI,
		Scopes:      cfg.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.AuthURL(),
			TokenURL: cfg.TokenURL(),
		},
	}
	return oc.AuthCodeURL(state, oauth2.SetAuthURLParam("response_mode", "query"))
}
