package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mchmarny/navmenu/pkg/navigation"
)

var configVars = []string{
	"PORT", "LOG_LEVEL", "LOG_FORMAT", "API_URL", "API_TOKEN",
	"API_TIMEOUT", "MENU_ROLE", "MATCH_POLICY", "METRICS_PATH",
}

// unsetAll clears every config variable for the test and restores them afterwards.
func unsetAll(t *testing.T) {
	t.Helper()
	for _, k := range configVars {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetAll(t)

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, c.Port)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "json", c.LogFormat)
	assert.Equal(t, 10*time.Second, c.APITimeout)
	assert.Equal(t, "/metrics", c.MetricsPath)
	assert.Equal(t, navigation.MatchLongest, c.Policy())
}

func TestLoad_Environment(t *testing.T) {
	unsetAll(t)
	t.Setenv("PORT", "9090")
	t.Setenv("API_URL", "https://backend.example/api")
	t.Setenv("API_TIMEOUT", "2s")
	t.Setenv("MENU_ROLE", "3")
	t.Setenv("MATCH_POLICY", "first")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, c.Port)
	assert.Equal(t, "https://backend.example/api", c.APIURL)
	assert.Equal(t, 2*time.Second, c.APITimeout)
	assert.Equal(t, "3", c.MenuRole)
	assert.Equal(t, navigation.MatchFirst, c.Policy())
}

func TestLoad_EnvFileDoesNotOverride(t *testing.T) {
	unsetAll(t)
	t.Setenv("PORT", "7000")

	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte("PORT=7100\nMENU_ROLE=admin\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("MENU_ROLE") })

	n, err := LoadEnv([]string{file, filepath.Join(t.TempDir(), "missing.env")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7000, c.Port)
	assert.Equal(t, "admin", c.MenuRole)
}

func TestLoad_Invalid(t *testing.T) {
	unsetAll(t)
	t.Setenv("PORT", "0")
	t.Setenv("MATCH_POLICY", "shortest")
	t.Setenv("LOG_FORMAT", "xml")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "shortest")
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}

func TestLoad_Unparsable(t *testing.T) {
	unsetAll(t)
	t.Setenv("API_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}
