// Package logging provides a minimal logging interface and adapters for chatrouter.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the router, dispatcher and server use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - RouterLogger with component/session/turn context and provider call helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	d := dispatcher.New(registry, provider, func(o *dispatcher.Options) { o.Logger = logger })
package logging
