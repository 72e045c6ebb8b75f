package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault_RequiresKey(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key is required")

	cfg.Provider.Kind = ProviderMock
	assert.NoError(t, cfg.Validate())
}

func TestDecode(t *testing.T) {
	cfg := Default()
	err := cfg.Decode(strings.NewReader(`
server:
  listen: ":9000"
provider:
  kind: anthropic
  model: claude-3-5-haiku-latest
  temperature: 0.2
  max_tokens: 512
  streaming: false
router:
  mode: keyword
  history_window: 3
  temperature: 0.3
dispatcher:
  turn_timeout: 15s
  max_concurrent_turns: 8
  event_buffer: 16
session:
  backend: badger
  dir: /tmp/sessions
  ttl: 24h
logging:
  level: debug
  format: text
`))
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Listen)
	assert.Equal(t, ProviderAnthropic, cfg.Provider.Kind)
	assert.False(t, cfg.Provider.Streaming)
	assert.Equal(t, "keyword", cfg.Router.Mode)
	assert.Equal(t, 15*time.Second, cfg.Dispatcher.TurnTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	// Unset sections keep defaults.
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.KeepAlive)
	assert.Equal(t, 16, cfg.Dispatcher.EventBuffer)
}

func TestDecode_UnknownField(t *testing.T) {
	err := Default().Decode(strings.NewReader("provider:\n  kidn: openai\n"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		"CHATROUTER_PROVIDER":             "gemini",
		"CHATROUTER_LISTEN":               ":7000",
		"CHATROUTER_TURN_TIMEOUT":         "5s",
		"CHATROUTER_MAX_CONCURRENT_TURNS": "3",
		"CHATROUTER_ALLOWED_ORIGINS":      "https://a.example, https://b.example",
		"CHATROUTER_STREAMING":            "false",
		"GOOGLE_API_KEY":                  "g-key",
	}))
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, cfg.Provider.Kind)
	assert.Equal(t, ":7000", cfg.Server.Listen)
	assert.Equal(t, 5*time.Second, cfg.Dispatcher.TurnTimeout)
	assert.Equal(t, 3, cfg.Dispatcher.MaxConcurrentTurns)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Provider.Streaming)
	assert.Equal(t, "g-key", cfg.Provider.APIKey)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv_ExplicitKeyWins(t *testing.T) {
	cfg := Default()
	cfg.Provider.APIKey = "from-file"
	require.NoError(t, cfg.ApplyEnv(env(map[string]string{"OPENAI_API_KEY": "from-env"})))
	assert.Equal(t, "from-file", cfg.Provider.APIKey)
}

func TestApplyEnv_Invalid(t *testing.T) {
	err := Default().ApplyEnv(env(map[string]string{
		"CHATROUTER_TURN_TIMEOUT":         "soon",
		"CHATROUTER_MAX_CONCURRENT_TURNS": "many",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHATROUTER_TURN_TIMEOUT")
	assert.Contains(t, err.Error(), "CHATROUTER_MAX_CONCURRENT_TURNS")
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Provider.Kind = "llama"
	cfg.Router.Mode = "magic"
	cfg.Session.Backend = SessionBadger
	cfg.Dispatcher.TurnTimeout = 0
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"llama", "magic", "dir is required", "turn_timeout", "xml"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatrouter.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider:\n  kind: mock\n"), 0o600))
	t.Setenv("CHATROUTER_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderMock, cfg.Provider.Kind)
	assert.Equal(t, "warn", cfg.Logging.Level)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
