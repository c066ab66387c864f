package tools

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedAccounts writes a token store document with two accounts.
func seedAccounts(t *testing.T, path string) {
	t.Helper()
	doc := `{
		"accounts": {
			"ada@example.com": {"access_token": "at-a", "expires_at": "2099-01-01T00:00:00Z"},
			"bob@example.com": {"access_token": "at-b", "expires_at": "2099-01-01T00:00:00Z"}
		},
		"active_account": "ada@example.com"
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0600))
}

func TestListAccounts_Empty(t *testing.T) {
	s := newToolServer(t, "http://unused")

	result, _, err := s.listAccounts(context.Background(), nil, emptyInput{})

	require.NoError(t, err)
	assert.Contains(t, textOf(t, result), "No accounts connected")
}

func TestListAccounts_MarksActive(t *testing.T) {
	s := newToolServer(t, "http://unused")
	seedAccounts(t, s.cfg.TokenStorePath)

	result, _, err := s.listAccounts(context.Background(), nil, emptyInput{})

	require.NoError(t, err)
	text := textOf(t, result)
	assert.Contains(t, text, "2 account(s)")
	assert.Contains(t, text, "* ada@example.com")
	assert.Contains(t, text, "  bob@example.com")
}

func TestSetActiveAccount(t *testing.T) {
	s := newToolServer(t, "http://unused")
	seedAccounts(t, s.cfg.TokenStorePath)

	result, _, err := s.setActiveAccount(context.Background(), nil, setActiveAccountInput{Account: "bob@example.com"})

	require.NoError(t, err)
	assert.Contains(t, textOf(t, result), "bob@example.com")
}

func TestSetActiveAccount_Unknown(t *testing.T) {
	s := newToolServer(t, "http://unused")
	seedAccounts(t, s.cfg.TokenStorePath)

	_, _, err := s.setActiveAccount(context.Background(), nil, setActiveAccountInput{Account: "nobody@example.com"})

	assert.Error(t, err)
}

func TestAuthenticate_ReturnsSignInURL(t *testing.T) {
	s := newToolServer(t, "http://unused")

	result, _, err := s.authenticate(context.Background(), nil, emptyInput{})

	require.NoError(t, err)
	text := textOf(t, result)
	assert.Contains(t, text, "login.microsoftonline.com")
	assert.Contains(t, text, "outlook-bridge login")
}

func TestAuthenticate_NoClientConfigured(t *testing.T) {
	s := newToolServer(t, "http://unused")
	s.cfg.ClientID = ""

	_, _, err := s.authenticate(context.Background(), nil, emptyInput{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "OUTLOOK_CLIENT_ID")
}

func TestCheckAuthStatus(t *testing.T) {
	s := newToolServer(t, "http://unused")
	seedAccounts(t, s.cfg.TokenStorePath)

	result, _, err := s.checkAuthStatus(context.Background(), nil, emptyInput{})

	require.NoError(t, err)
	assert.Contains(t, textOf(t, result), "Authenticated as ada@example.com")
}
