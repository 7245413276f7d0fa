package config

import (
	"os"
	"time"

	"ffxiv_damage/fflogs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	Token        string `env:"FFLOGS_TOKEN"`
	ClientID     string `env:"FFLOGS_V2_OAUTH2_CLIENT_ID"`
	ClientSecret string `env:"FFLOGS_V2_OAUTH2_CLIENT_SECRET"`
	APIURL       string `env:"FFLOGS_API_URL" envDefault:"https://www.fflogs.com/api/v2/client"`
	TokenURL     string `env:"FFLOGS_TOKEN_URL" envDefault:"https://www.fflogs.com/oauth/token"`

	CacheDir     string        `env:"FFXIV_DAMAGE_CACHE_DIR" envDefault:"./cached"`
	CacheExpires time.Duration `env:"FFXIV_DAMAGE_CACHE_EXPIRES" envDefault:"24h"`

	HTTPProxy   string        `env:"FFXIV_DAMAGE_PROXY"`
	HTTPTimeout time.Duration `env:"FFXIV_DAMAGE_HTTP_TIMEOUT" envDefault:"30s"`

	SentryDSN       string `env:"SENTRY_DSN"`
	RecaptchaSecret string `env:"GOOGLE_RECAPTCHA_V3_SECRET"`

	Listen  string `env:"FFXIV_DAMAGE_LISTEN" envDefault:"127.0.0.1:5555"`
	Workers int    `env:"FFXIV_DAMAGE_WORKERS" envDefault:"2"`
	Debug   bool   `env:"FFXIV_DAMAGE_DEBUG"`
}

// Load reads the given dotenv files, then the environment. Missing files are skipped
// and variables already set in the environment win over the files.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrap(err, file)
		}
	}

	return Parse()
}

func Parse() (*Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return nil, errors.Wrap(err, "parse env")
	}
	return &c, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Token == "" && (c.ClientID == "" || c.ClientSecret == ""):
		return errors.New("FFLOGS_TOKEN or both FFLOGS_V2_OAUTH2_CLIENT_ID and FFLOGS_V2_OAUTH2_CLIENT_SECRET are required")
	case c.APIURL == "":
		return errors.New("FFLOGS_API_URL is empty")
	case c.Token == "" && c.TokenURL == "":
		return errors.New("FFLOGS_TOKEN_URL is empty")
	case c.Workers < 1:
		return errors.Errorf("FFXIV_DAMAGE_WORKERS must be positive, got %d", c.Workers)
	case c.CacheExpires < 0:
		return errors.New("FFXIV_DAMAGE_CACHE_EXPIRES must not be negative")
	}
	return nil
}

// FFLogsOptions maps the credentials onto the API client options.
func (c *Config) FFLogsOptions() fflogs.Options {
	return fflogs.Options{
		Endpoint:     c.APIURL,
		TokenURL:     c.TokenURL,
		Token:        c.Token,
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
	}
}
