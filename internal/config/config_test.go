package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	// envconfig falls back to the unprefixed names
	t.Setenv("USERNAME", "")
	t.Setenv("PASSWORD", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api", cfg.APIBaseURL)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "csrftoken", cfg.CSRFCookie)
	assert.Equal(t, "X-CSRFToken", cfg.CSRFHeader)
	assert.Equal(t, "/posts/", cfg.CSRFBootstrapPath)
	assert.Equal(t, 5, cfg.LeaderboardSize)
	assert.Equal(t, 5*time.Second, cfg.LeaderboardInterval)
	assert.Equal(t, 500, cfg.ThreadCacheSize)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.False(t, cfg.HasCredentials())
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("KARMAFEED_API_BASE_URL", "https://feed.example.com/api")
	t.Setenv("KARMAFEED_LEADERBOARD_INTERVAL", "30s")
	t.Setenv("KARMAFEED_USERNAME", "alice")
	t.Setenv("KARMAFEED_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://feed.example.com/api", cfg.APIBaseURL)
	assert.Equal(t, 30*time.Second, cfg.LeaderboardInterval)
	assert.True(t, cfg.HasCredentials())
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("KARMAFEED_API_BASE_URL", "/relative")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("KARMAFEED_API_BASE_URL", "http://localhost:8000/api")
	t.Setenv("KARMAFEED_LEADERBOARD_SIZE", "0")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("KARMAFEED_LEADERBOARD_SIZE", "five")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadRejectsSubSecondIntervals(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("KARMAFEED_LEADERBOARD_INTERVAL", "500ms")
	_, err := Load()
	assert.ErrorContains(t, err, "at least 1s")

	t.Setenv("KARMAFEED_LEADERBOARD_INTERVAL", "1s")
	t.Setenv("KARMAFEED_SELF_REFRESH_INTERVAL", "0s")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("KARMAFEED_SELF_REFRESH_INTERVAL", "1s")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.LeaderboardInterval)
}
