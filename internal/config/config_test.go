package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearBridgeEnv keeps ambient environment out of Load tests.
func clearBridgeEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		EnvClientID, EnvClientSecret, EnvTenantID,
		EnvRedirectURI, EnvScopes, EnvTokenStorePath, EnvTestMode,
	} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearBridgeEnv(t)
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()

	require.NoError(t, err)
	assert.Empty(t, cfg.ClientID)
	assert.Equal(t, "common", cfg.TenantID)
	assert.Equal(t, DefaultRedirectURI, cfg.RedirectURI)
	assert.Contains(t, cfg.Scopes, "offline_access")
	assert.Contains(t, cfg.Scopes, "Mail.Send")
	assert.False(t, cfg.TestMode)
	assert.False(t, cfg.HasClientCredentials())

	assert.Equal(t, filepath.Join(os.Getenv("HOME"), ".outlook-bridge", "tokens.json"), cfg.TokenStorePath)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearBridgeEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvClientID, "env-client")
	t.Setenv(EnvTenantID, "contoso.onmicrosoft.com")
	t.Setenv(EnvScopes, "openid Mail.Read")
	t.Setenv(EnvTokenStorePath, "/tmp/custom-tokens.json")
	t.Setenv(EnvTestMode, "true")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "env-client", cfg.ClientID)
	assert.Equal(t, "contoso.onmicrosoft.com", cfg.TenantID)
	assert.Equal(t, []string{"openid", "Mail.Read"}, cfg.Scopes)
	assert.Equal(t, "/tmp/custom-tokens.json", cfg.TokenStorePath)
	assert.True(t, cfg.TestMode)
	assert.True(t, cfg.HasClientCredentials())
}

func TestLoad_ConfigFile(t *testing.T) {
	clearBridgeEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".outlook-bridge")
	require.NoError(t, os.MkdirAll(dir, 0700))
	doc := `
client_id = "file-client"
tenant_id = "file-tenant"
scopes = ["Mail.Read"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(doc), 0600))

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "file-client", cfg.ClientID)
	assert.Equal(t, "file-tenant", cfg.TenantID)
	assert.Equal(t, []string{"Mail.Read"}, cfg.Scopes)
}

func TestLoad_EnvironmentWinsOverFile(t *testing.T) {
	clearBridgeEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".outlook-bridge")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "config.toml"), []byte(`client_id = "file-client"`), 0600))

	t.Setenv(EnvClientID, "env-client")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "env-client", cfg.ClientID)
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	clearBridgeEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".outlook-bridge")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "config.toml"), []byte("not [valid toml"), 0600))

	_, err := Load()

	assert.Error(t, err)
}

func TestConfig_EndpointURLs(t *testing.T) {
	cfg := &Config{TenantID: "common"}

	assert.Equal(t,
		"https://login.microsoftonline.com/common/oauth2/v2.0/authorize", cfg.AuthURL())
	assert.Equal(t,
		"https://login.microsoftonline.com/common/oauth2/v2.0/token", cfg.TokenURL())
}

func TestConfig_ScopeString(t *testing.T) {
	cfg := &Config{Scopes: []string{"openid", "offline_access", "Mail.Read"}}

	assert.Equal(t, "openid offline_access Mail.Read", cfg.ScopeString())
}
