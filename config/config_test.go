package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allVars = []string{
	"FFLOGS_TOKEN",
	"FFLOGS_V2_OAUTH2_CLIENT_ID",
	"FFLOGS_V2_OAUTH2_CLIENT_SECRET",
	"FFLOGS_API_URL",
	"FFLOGS_TOKEN_URL",
	"FFXIV_DAMAGE_CACHE_DIR",
	"FFXIV_DAMAGE_CACHE_EXPIRES",
	"FFXIV_DAMAGE_PROXY",
	"FFXIV_DAMAGE_HTTP_TIMEOUT",
	"SENTRY_DSN",
	"GOOGLE_RECAPTCHA_V3_SECRET",
	"FFXIV_DAMAGE_LISTEN",
	"FFXIV_DAMAGE_WORKERS",
	"FFXIV_DAMAGE_DEBUG",
}

// clearEnv unsets every variable for the test, restoring them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range allVars {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestParseDefaults(t *testing.T) {
	clearEnv(t)

	c, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "https://www.fflogs.com/api/v2/client", c.APIURL)
	assert.Equal(t, "https://www.fflogs.com/oauth/token", c.TokenURL)
	assert.Equal(t, "./cached", c.CacheDir)
	assert.Equal(t, 24*time.Hour, c.CacheExpires)
	assert.Equal(t, 30*time.Second, c.HTTPTimeout)
	assert.Equal(t, "127.0.0.1:5555", c.Listen)
	assert.Equal(t, 2, c.Workers)
	assert.False(t, c.Debug)

	assert.Error(t, c.Validate(), "no credentials")
}

func TestLoadDotenv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(
		"FFLOGS_V2_OAUTH2_CLIENT_ID=id\n"+
			"FFLOGS_V2_OAUTH2_CLIENT_SECRET=secret\n"+
			"FFXIV_DAMAGE_WORKERS=4\n",
	), 0o600))

	// the environment wins over the file
	t.Setenv("FFXIV_DAMAGE_WORKERS", "3")

	c, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "id", c.ClientID)
	assert.Equal(t, "secret", c.ClientSecret)
	assert.Equal(t, 3, c.Workers)
	assert.NoError(t, c.Validate())

	opt := c.FFLogsOptions()
	assert.Equal(t, "id", opt.ClientID)
	assert.Equal(t, c.APIURL, opt.Endpoint)
}

func TestParseInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("FFXIV_DAMAGE_WORKERS", "many")

	_, err := Parse()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{Token: "t", APIURL: "http://x", Workers: 1}
	assert.NoError(t, valid.Validate())

	tests := map[string]func(c *Config){
		"secret only":      func(c *Config) { c.Token = ""; c.ClientSecret = "s" },
		"empty api url":    func(c *Config) { c.APIURL = "" },
		"no token url":     func(c *Config) { c.Token = ""; c.ClientID = "i"; c.ClientSecret = "s" },
		"zero workers":     func(c *Config) { c.Workers = 0 },
		"negative expires": func(c *Config) { c.CacheExpires = -time.Second },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
