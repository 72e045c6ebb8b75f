package chatrouter

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/hupe1980/chatrouter/config"
	"github.com/hupe1980/chatrouter/core"
	"github.com/hupe1980/chatrouter/logging"
	"github.com/hupe1980/chatrouter/model"
	anthropicmodel "github.com/hupe1980/chatrouter/model/anthropic"
	"github.com/hupe1980/chatrouter/model/gemini"
	"github.com/hupe1980/chatrouter/model/openai"
	"github.com/hupe1980/chatrouter/session"
	"github.com/hupe1980/chatrouter/session/badger"
	"github.com/hupe1980/chatrouter/specialist"
)

// NewProvider builds the generation provider selected by cfg.
func NewProvider(ctx context.Context, cfg config.ProviderConfig) (model.Provider, error) {
	switch cfg.Kind {
	case config.ProviderOpenAI:
		return openai.New(func(o *openai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxCompletionTokens = cfg.MaxTokens
			}
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		}), nil
	case config.ProviderAnthropic:
		return anthropicmodel.New(func(o *anthropicmodel.Options) {
			if cfg.Model != "" {
				o.Model = anthropic.Model(cfg.Model)
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxTokens = cfg.MaxTokens
			}
			o.APIKey = cfg.APIKey
		}), nil
	case config.ProviderGemini:
		p, err := gemini.New(ctx, func(o *gemini.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.Temperature = float32(cfg.Temperature)
			if cfg.MaxTokens > 0 {
				o.MaxTokens = int32(cfg.MaxTokens)
			}
			o.APIKey = cfg.APIKey
			o.Backend = cfg.Backend
			o.Project = cfg.Project
			o.Location = cfg.Location
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.ProviderMock:
		return model.NewMockProvider("mock"), nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Kind)
	}
}

// NewSessionStore builds the session store selected by cfg. The returned
// close function releases durable stores and is never nil.
func NewSessionStore(cfg config.SessionConfig, logger logging.Logger) (core.SessionStore, func() error, error) {
	switch cfg.Backend {
	case "", config.SessionMemory:
		store := session.NewInMemoryStore(func(o *session.Options) {
			if cfg.MaxExchanges > 0 {
				o.MaxExchanges = cfg.MaxExchanges
			}
		})
		return store, func() error { return nil }, nil
	case config.SessionBadger:
		store, err := badger.Open(func(o *badger.Options) {
			o.Dir = cfg.Dir
			o.TTL = cfg.TTL
			o.Logger = logger
		})
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

// FromConfig wires a ChatRouter from a validated configuration.
func FromConfig(ctx context.Context, cfg *config.Config, logger logging.Logger) (*ChatRouter, error) {
	logger = logging.OrNoOp(logger)

	catalog := specialist.DefaultCatalog()
	if cfg.SpecialistsFile != "" {
		c, err := specialist.LoadFile(cfg.SpecialistsFile)
		if err != nil {
			return nil, err
		}
		catalog = c
	}

	provider, err := NewProvider(ctx, cfg.Provider)
	if err != nil {
		return nil, err
	}

	store, closeStore, err := NewSessionStore(cfg.Session, logger)
	if err != nil {
		return nil, err
	}

	cr := New(provider, func(o *Options) {
		o.Catalog = catalog
		o.RouterMode = cfg.Router.Mode
		o.RouterTemperature = cfg.Router.Temperature
		if cfg.Router.HistoryWindow > 0 {
			o.HistoryWindow = cfg.Router.HistoryWindow
		}
		o.TurnTimeout = cfg.Dispatcher.TurnTimeout
		o.MaxConcurrentTurns = cfg.Dispatcher.MaxConcurrentTurns
		o.EventBufferSize = cfg.Dispatcher.EventBuffer
		o.Streaming = cfg.Provider.Streaming
		o.SessionStore = store
		o.Logger = logger
	})
	cr.closers = append(cr.closers, closerFunc(closeStore))

	logger.Info("Chat router configured",
		"provider", cfg.Provider.Kind,
		"model", provider.Info().Name,
		"router_mode", cfg.Router.Mode,
		"specialists", catalog.Registry.Len(),
		"session_backend", cfg.Session.Backend,
	)
	return cr, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
