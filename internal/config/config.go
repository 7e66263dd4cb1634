// Package config loads the client configuration from the environment.
// A .env file in the working directory is read first when present.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix of every environment variable, e.g. KARMAFEED_API_BASE_URL.
const Prefix = "KARMAFEED"

type Config struct {
	// --- Backend ---
	APIBaseURL        string        `envconfig:"API_BASE_URL" default:"http://localhost:8000/api"`
	HTTPTimeout       time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`
	CSRFCookie        string        `envconfig:"CSRF_COOKIE" default:"csrftoken"`
	CSRFHeader        string        `envconfig:"CSRF_HEADER" default:"X-CSRFToken"`
	CSRFBootstrapPath string        `envconfig:"CSRF_BOOTSTRAP_PATH" default:"/posts/"`
	AvatarBaseURL     string        `envconfig:"AVATAR_BASE_URL" default:"https://api.dicebear.com/7.x/avataaars/svg"`

	// --- Leaderboard ---
	LeaderboardSize     int           `envconfig:"LEADERBOARD_SIZE" default:"5"`
	LeaderboardInterval time.Duration `envconfig:"LEADERBOARD_INTERVAL" default:"5s"`
	SelfRefreshInterval time.Duration `envconfig:"SELF_REFRESH_INTERVAL" default:"1m"`

	// --- Threads ---
	ThreadCacheSize int           `envconfig:"THREAD_CACHE_SIZE" default:"500"`
	ThreadCacheTTL  time.Duration `envconfig:"THREAD_CACHE_TTL" default:"5m"`

	// --- Local UI ---
	ListenAddr      string `envconfig:"LISTEN_ADDR" default:"127.0.0.1:8080"`
	UISessionSecret string `envconfig:"UI_SESSION_SECRET" default:"change-me"`

	// --- Application ---
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Optional credentials; commands log in first when both are set.
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
}

// HasCredentials reports whether both username and password are configured.
func (c *Config) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%s_API_BASE_URL must be an absolute URL, got %q", Prefix, c.APIBaseURL)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("%s_HTTP_TIMEOUT must be > 0", Prefix)
	}
	if c.LeaderboardSize <= 0 {
		return fmt.Errorf("%s_LEADERBOARD_SIZE must be > 0", Prefix)
	}
	// cron.Every rounds anything shorter up to a second
	if c.LeaderboardInterval < time.Second || c.SelfRefreshInterval < time.Second {
		return fmt.Errorf("%s_LEADERBOARD_INTERVAL and %s_SELF_REFRESH_INTERVAL must be at least 1s", Prefix, Prefix)
	}
	if c.ThreadCacheSize <= 0 {
		return fmt.Errorf("%s_THREAD_CACHE_SIZE must be > 0", Prefix)
	}
	if c.CSRFCookie == "" || c.CSRFHeader == "" {
		return fmt.Errorf("%s_CSRF_COOKIE and %s_CSRF_HEADER must be set", Prefix, Prefix)
	}
	return nil
}

// Load reads .env (if any) and the environment into a validated Config.
func Load() (*Config, error) {
	// a missing .env is fine; the process environment is enough
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
