// Package config loads the chatrouter configuration from YAML with
// environment overrides.
//
// Precedence is defaults, then the YAML file, then CHATROUTER_* variables.
// Provider API keys fall back to the vendor variables OPENAI_API_KEY,
// ANTHROPIC_API_KEY and GEMINI_API_KEY (or GOOGLE_API_KEY).
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/chatrouter/logging"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every override variable.
const EnvPrefix = "CHATROUTER_"

// Provider kinds.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)

// Session backends.
const (
	SessionMemory = "memory"
	SessionBadger = "badger"
)

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Provider   ProviderConfig   `yaml:"provider"`
	Router     RouterConfig     `yaml:"router"`
	Dispatcher DispatcherConfig `yaml:"dispatcher"`
	Session    SessionConfig    `yaml:"session"`
	Logging    LoggingConfig    `yaml:"logging"`
	// SpecialistsFile optionally replaces the built-in specialists, profile
	// and suggestions.
	SpecialistsFile string `yaml:"specialists_file,omitempty"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Listen         string        `yaml:"listen"`
	AllowedOrigins []string      `yaml:"allowed_origins,omitempty"`
	WriteTimeout   time.Duration `yaml:"ws_write_timeout,omitempty"`
	KeepAlive      time.Duration `yaml:"keep_alive,omitempty"`
}

// ProviderConfig selects and configures the generation backend.
type ProviderConfig struct {
	Kind        string  `yaml:"kind"`
	Model       string  `yaml:"model,omitempty"`
	APIKey      string  `yaml:"api_key,omitempty"`
	BaseURL     string  `yaml:"base_url,omitempty"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
	Streaming   bool    `yaml:"streaming"`
	// Backend, Project and Location configure the gemini provider for Vertex AI.
	Backend  string `yaml:"backend,omitempty"`
	Project  string `yaml:"project,omitempty"`
	Location string `yaml:"location,omitempty"`
}

// RouterConfig configures intent classification.
type RouterConfig struct {
	Mode          string  `yaml:"mode"`
	HistoryWindow int     `yaml:"history_window"`
	Temperature   float64 `yaml:"temperature"`
}

// DispatcherConfig configures turn execution.
type DispatcherConfig struct {
	TurnTimeout        time.Duration `yaml:"turn_timeout"`
	MaxConcurrentTurns int           `yaml:"max_concurrent_turns"`
	EventBuffer        int           `yaml:"event_buffer"`
}

// SessionConfig selects the session store.
type SessionConfig struct {
	Backend      string        `yaml:"backend"`
	Dir          string        `yaml:"dir,omitempty"`
	TTL          time.Duration `yaml:"ttl,omitempty"`
	MaxExchanges int           `yaml:"max_exchanges,omitempty"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Listen: ":8080", WriteTimeout: 10 * time.Second, KeepAlive: 15 * time.Second},
		Provider: ProviderConfig{
			Kind:        ProviderOpenAI,
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   1024,
			Streaming:   true,
		},
		Router:     RouterConfig{Mode: "llm", HistoryWindow: 5, Temperature: 0.3},
		Dispatcher: DispatcherConfig{TurnTimeout: 60 * time.Second, MaxConcurrentTurns: 64, EventBuffer: 1},
		Session:    SessionConfig{Backend: SessionMemory, MaxExchanges: 100},
		Logging:    LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load reads path (optional), applies environment overrides and validates.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := cfg.Decode(f); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode merges YAML from r into c. Unknown fields are rejected.
func (c *Config) Decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// ApplyEnv applies CHATROUTER_* overrides and vendor API key fallbacks
// using lookup (os.LookupEnv in production).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	integer := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	str("LISTEN", &c.Server.Listen)
	str("PROVIDER", &c.Provider.Kind)
	str("MODEL", &c.Provider.Model)
	str("API_KEY", &c.Provider.APIKey)
	str("BASE_URL", &c.Provider.BaseURL)
	str("ROUTER_MODE", &c.Router.Mode)
	integer("HISTORY_WINDOW", &c.Router.HistoryWindow)
	duration("TURN_TIMEOUT", &c.Dispatcher.TurnTimeout)
	integer("MAX_CONCURRENT_TURNS", &c.Dispatcher.MaxConcurrentTurns)
	str("SESSION_BACKEND", &c.Session.Backend)
	str("SESSION_DIR", &c.Session.Dir)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)
	str("SPECIALISTS_FILE", &c.SpecialistsFile)
	if v, ok := lookup(EnvPrefix + "ALLOWED_ORIGINS"); ok && v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup(EnvPrefix + "STREAMING"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSTREAMING: %w", EnvPrefix, err))
		} else {
			c.Provider.Streaming = b
		}
	}

	if c.Provider.APIKey == "" {
		for _, name := range apiKeyEnv(c.Provider.Kind) {
			if v, ok := lookup(name); ok && v != "" {
				c.Provider.APIKey = v
				break
			}
		}
	}
	return errors.Join(errs...)
}

func apiKeyEnv(kind string) []string {
	switch kind {
	case ProviderOpenAI:
		return []string{"OPENAI_API_KEY"}
	case ProviderAnthropic:
		return []string{"ANTHROPIC_API_KEY"}
	case ProviderGemini:
		return []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	default:
		return nil
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	switch c.Provider.Kind {
	case ProviderOpenAI, ProviderAnthropic:
		if c.Provider.APIKey == "" {
			errs = append(errs, fmt.Errorf("provider %s: api key is required", c.Provider.Kind))
		}
	case ProviderGemini:
		if c.Provider.APIKey == "" && c.Provider.Backend != "vertex" {
			errs = append(errs, errors.New("provider gemini: api key is required unless backend is vertex"))
		}
	case ProviderMock:
	default:
		errs = append(errs, fmt.Errorf("unknown provider kind %q", c.Provider.Kind))
	}
	if c.Provider.Temperature < 0 || c.Provider.Temperature > 2 {
		errs = append(errs, fmt.Errorf("provider temperature %.2f out of range [0,2]", c.Provider.Temperature))
	}
	if c.Provider.MaxTokens < 0 {
		errs = append(errs, errors.New("provider max_tokens must not be negative"))
	}
	if c.Server.KeepAlive < 0 {
		errs = append(errs, errors.New("server keep_alive must not be negative"))
	}
	switch c.Router.Mode {
	case "llm", "keyword":
	default:
		errs = append(errs, fmt.Errorf("unknown router mode %q", c.Router.Mode))
	}
	if c.Router.HistoryWindow < 0 {
		errs = append(errs, errors.New("router history_window must not be negative"))
	}
	if c.Dispatcher.TurnTimeout <= 0 {
		errs = append(errs, errors.New("dispatcher turn_timeout must be positive"))
	}
	if c.Dispatcher.MaxConcurrentTurns < 0 {
		errs = append(errs, errors.New("dispatcher max_concurrent_turns must not be negative"))
	}
	if c.Dispatcher.EventBuffer < 0 {
		errs = append(errs, errors.New("dispatcher event_buffer must not be negative"))
	}
	switch c.Session.Backend {
	case SessionMemory:
	case SessionBadger:
		if c.Session.Dir == "" {
			errs = append(errs, errors.New("session backend badger: dir is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session backend %q", c.Session.Backend))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// NewLogger builds the configured logger. Validate must have succeeded.
func (c *Config) NewLogger(w io.Writer) *logging.RouterLogger {
	level, _ := logging.ParseLevel(c.Logging.Level)
	cfg := logging.DefaultLoggerConfig()
	cfg.Level = level
	cfg.Format = c.Logging.Format
	if w != nil {
		cfg.Output = w
	}
	return logging.NewLogger(cfg)
}
