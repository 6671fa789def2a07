package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/clienthunt-admin/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CLIENTHUNT_API_URL", "")
	t.Setenv("ENV", "")

	c := config.New()
	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "http://localhost:8000", c.GetAPIBaseURL())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, "csrf_token", c.GetCSRFCookieName())
	require.Equal(t, "X-CSRF-Token", c.GetCSRFHeaderName())
	require.Equal(t, "/api/v1/csrf-token", c.GetCSRFTokenEndpoint())
	require.Equal(t, time.Duration(0), c.GetAPITimeout())
	require.Equal(t, 10*time.Second, c.GetE2EPollInterval())
	require.Equal(t, 30*time.Second, c.GetStatusPollInterval())
	require.False(t, c.GetSecureCookies())
}

func TestOverrides(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("CLIENTHUNT_API_URL", "https://api.clienthunt.io/")
	t.Setenv("CLIENTHUNT_API_TIMEOUT", "15s")
	t.Setenv("SESSION_MAX_AGE", "bogus")
	t.Setenv("ENV", "PROD")

	c := config.New()
	require.Equal(t, ":9090", c.GetPort())
	require.Equal(t, "https://api.clienthunt.io", c.GetAPIBaseURL())
	require.Equal(t, 15*time.Second, c.GetAPITimeout())
	require.Equal(t, 12*time.Hour, c.GetMaxSessionAge())
	require.True(t, c.GetSecureCookies())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("APP_NAME=From Dotenv\n"), 0o600))

	t.Setenv("APP_NAME", "")
	require.NoError(t, os.Unsetenv("APP_NAME"))
	require.NoError(t, config.LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	require.Equal(t, "From Dotenv", config.New().GetAppName())

	require.NoError(t, config.LoadDotEnv(filepath.Join(dir, "nothing-here.env")))
}
