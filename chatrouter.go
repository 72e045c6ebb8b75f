// Package chatrouter provides a high-level façade over the intent router and
// the streaming dispatcher. Most applications interact with this package by:
//  1. Creating a ChatRouter via New() with a model.Provider, or FromConfig()
//  2. Dispatching turns asynchronously (Dispatch) or synchronously (Run)
//  3. Serving the HTTP/SSE/WebSocket transport via Handler()
//
// All defaults are safe for local development and testing: the portfolio
// specialists, an in-memory session store and a no-op logger.
package chatrouter

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/hupe1980/chatrouter/core"
	"github.com/hupe1980/chatrouter/dispatcher"
	"github.com/hupe1980/chatrouter/logging"
	"github.com/hupe1980/chatrouter/model"
	"github.com/hupe1980/chatrouter/router"
	"github.com/hupe1980/chatrouter/server"
	"github.com/hupe1980/chatrouter/session"
	"github.com/hupe1980/chatrouter/specialist"
)

// Options configures the ChatRouter instance.
type Options struct {
	// Catalog supplies specialists, profile data and suggestions.
	Catalog *specialist.Catalog

	// RouterMode selects LLM classification (router.ModeLLM) or the keyword
	// heuristic (router.ModeKeyword).
	RouterMode        string
	RouterTemperature float64
	// HistoryWindow bounds the exchanges used for routing and prompts.
	HistoryWindow int

	// TurnTimeout bounds routing plus generation of a turn.
	TurnTimeout time.Duration
	// MaxConcurrentTurns limits in-flight turns. Zero disables the limit.
	MaxConcurrentTurns int
	EventBufferSize    int
	// Streaming toggles token streaming for all specialists.
	Streaming bool

	SessionStore core.SessionStore
	Logger       logging.Logger
}

// ChatRouter aggregates the router, the dispatcher and their collaborators.
type ChatRouter struct {
	opts       Options
	provider   model.Provider
	router     *router.Router
	dispatcher *dispatcher.Dispatcher
	closers    []io.Closer
}

// New creates a ChatRouter on provider with optional overrides.
func New(provider model.Provider, optFns ...func(o *Options)) *ChatRouter {
	opts := Options{
		RouterMode:         router.ModeLLM,
		RouterTemperature:  0.3,
		HistoryWindow:      router.DefaultHistoryWindow,
		TurnTimeout:        60 * time.Second,
		MaxConcurrentTurns: 64,
		EventBufferSize:    1,
		Streaming:          true,
		Logger:             logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Catalog == nil {
		opts.Catalog = specialist.DefaultCatalog()
	}
	if opts.SessionStore == nil {
		opts.SessionStore = session.NewInMemoryStore()
	}

	rt := router.New(opts.Catalog.Registry, provider, func(o *router.Options) {
		o.Mode = opts.RouterMode
		o.HistoryWindow = opts.HistoryWindow
		o.Temperature = opts.RouterTemperature
		o.Logger = opts.Logger
	})

	d := dispatcher.New(opts.Catalog.Registry, provider, func(o *dispatcher.Options) {
		o.Router = rt
		o.SessionStore = opts.SessionStore
		o.Profile = opts.Catalog.Profile
		o.HistoryWindow = opts.HistoryWindow
		o.TurnTimeout = opts.TurnTimeout
		o.MaxConcurrentTurns = opts.MaxConcurrentTurns
		o.EventBufferSize = opts.EventBufferSize
		o.Streaming = opts.Streaming
		o.Logger = opts.Logger
	})

	return &ChatRouter{opts: opts, provider: provider, router: rt, dispatcher: d}
}

// Dispatch starts a turn and returns its event stream.
func (c *ChatRouter) Dispatch(ctx context.Context, sessionID, message string) (*dispatcher.TurnHandle, error) {
	return c.dispatcher.Dispatch(ctx, dispatcher.TurnRequest{SessionID: sessionID, Message: message})
}

// Run executes a turn synchronously.
func (c *ChatRouter) Run(ctx context.Context, sessionID, message string) (*dispatcher.Result, error) {
	return c.dispatcher.Run(ctx, dispatcher.TurnRequest{SessionID: sessionID, Message: message})
}

// Cancel cancels an in-flight turn.
func (c *ChatRouter) Cancel(turnID string) error { return c.dispatcher.Cancel(turnID) }

// Route classifies message in the context of the session history without
// generating a response.
func (c *ChatRouter) Route(ctx context.Context, sessionID, message string) (core.RoutingDecision, error) {
	var history []core.Exchange
	if sessionID != "" {
		h, err := c.opts.SessionStore.History(ctx, sessionID, c.router.HistoryWindow())
		if err != nil {
			return core.RoutingDecision{}, err
		}
		history = h
	}
	return c.router.Route(ctx, message, history)
}

// History returns the full history of a session.
func (c *ChatRouter) History(ctx context.Context, sessionID string) ([]core.Exchange, error) {
	return c.opts.SessionStore.History(ctx, sessionID, 0)
}

// Registry returns the specialist registry.
func (c *ChatRouter) Registry() *specialist.Registry { return c.opts.Catalog.Registry }

// Dispatcher exposes the underlying dispatcher.
func (c *ChatRouter) Dispatcher() *dispatcher.Dispatcher { return c.dispatcher }

// Handler returns the HTTP transport bound to this instance.
func (c *ChatRouter) Handler(optFns ...func(o *server.Options)) *server.Server {
	fns := append([]func(o *server.Options){func(o *server.Options) {
		o.Suggestions = c.opts.Catalog.Suggestions
		o.Logger = c.opts.Logger
	}}, optFns...)
	return server.New(c.dispatcher, fns...)
}

// Close stops in-flight turns and releases owned resources such as a
// durable session store.
func (c *ChatRouter) Close(ctx context.Context) error {
	err := c.dispatcher.Shutdown(ctx)
	for _, cl := range c.closers {
		err = errors.Join(err, cl.Close())
	}
	return err
}
