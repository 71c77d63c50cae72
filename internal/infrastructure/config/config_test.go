package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	assert.Equal(t, "http://localhost:5005", cfg.NLU.URL)
	assert.Equal(t, 3, cfg.NLU.BreakerThreshold)

	assert.Equal(t, "af_heart", cfg.Speech.Voice)
	assert.Equal(t, 50*time.Millisecond, cfg.Speech.SimulatedPerChar)
	assert.Equal(t, 2*time.Second, cfg.Speech.FeedbackHide)

	assert.Equal(t, 24*time.Hour, cfg.Cart.Freshness)
	assert.Equal(t, 3*time.Second, cfg.Checkout.SettlementDelay)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Server.Port)
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kiosk.toml")
	require.NoError(t, os.WriteFile(path, []byte("this is not toml {{{"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kiosk.toml")
	content := `
[server]
port = "9100"

[nlu]
url = "http://nlu.internal:5005"

[checkout]
settlement_delay = "5s"

[redis]
enabled = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "http://nlu.internal:5005", cfg.NLU.URL)
	assert.Equal(t, 5*time.Second, cfg.Checkout.SettlementDelay)
	assert.False(t, cfg.Redis.Enabled)

	// Untouched values keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 24*time.Hour, cfg.Cart.Freshness)
}

func TestLoadEnvironmentWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kiosk.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = \"9100\"\n"), 0o644))

	t.Setenv("PORT", "9200")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CART_FRESHNESS", "12h")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9200", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 12*time.Hour, cfg.Cart.Freshness)
}

func TestLoadWithPartialEnvironment(t *testing.T) {
	t.Setenv("SPEECH_URL", "http://speech.internal:8001")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://speech.internal:8001", cfg.Speech.URL)
	assert.False(t, cfg.RateLimit.Enabled)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Checkout.SettlementDelay)
}

func TestLoadOrDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kiosk.toml")
	require.NoError(t, os.WriteFile(path, []byte("broken {{{"), 0o644))

	cfg := LoadOrDefault(path)
	require.NotNil(t, cfg)
	assert.Equal(t, "8000", cfg.Server.Port)
}
