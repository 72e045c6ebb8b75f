package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hupe1980/chatrouter/core"
	"github.com/hupe1980/chatrouter/dispatcher"
	"github.com/hupe1980/chatrouter/logging"
	"github.com/hupe1980/chatrouter/specialist"
)

// ErrUnauthorized is returned by an Authenticator rejecting a request.
var ErrUnauthorized = errors.New("unauthorized")

// Authenticator validates the access token and company of a chat request.
type Authenticator interface {
	Authenticate(ctx context.Context, token, company string) error
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, token, company string) error

// Authenticate implements Authenticator.
func (f AuthenticatorFunc) Authenticate(ctx context.Context, token, company string) error {
	return f(ctx, token, company)
}

// AllowAll accepts every request.
var AllowAll Authenticator = AuthenticatorFunc(func(context.Context, string, string) error { return nil })

// Dispatcher is the turn execution surface used by the handlers;
// *dispatcher.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, req dispatcher.TurnRequest) (*dispatcher.TurnHandle, error)
	Run(ctx context.Context, req dispatcher.TurnRequest) (*dispatcher.Result, error)
	Cancel(turnID string) error
	Active() int
	SessionStore() core.SessionStore
}

var _ Dispatcher = (*dispatcher.Dispatcher)(nil)

// Options configures the HTTP server.
type Options struct {
	Authenticator Authenticator
	// AllowedOrigins restricts CORS and WebSocket origins. Empty allows all.
	AllowedOrigins []string
	Suggestions    []specialist.Suggestion
	// WSWriteTimeout bounds each WebSocket write.
	WSWriteTimeout time.Duration
	// ShutdownTimeout bounds graceful shutdown in ListenAndServe.
	ShutdownTimeout time.Duration
	// KeepAlive is the interval of SSE comment frames. Zero disables them.
	KeepAlive time.Duration
	Logger    logging.Logger
}

// Server exposes the dispatcher over HTTP:
//
//	POST   /api/chat/message/stream  -> Server-Sent Events of one turn
//	POST   /api/chat/message         -> synchronous JSON response
//	GET    /api/chat/ws              -> WebSocket, request frames in, event frames out
//	GET    /api/chat/history/{id}    -> session history
//	DELETE /api/chat/turns/{id}      -> cancel an in-flight turn
//	GET    /api/chat/suggestions     -> suggested questions
//	GET    /healthz                  -> liveness
type Server struct {
	d        Dispatcher
	opts     Options
	logger   logging.Logger
	upgrader websocket.Upgrader
	handler  http.Handler
}

// New creates a Server for d.
func New(d Dispatcher, optFns ...func(o *Options)) *Server {
	opts := Options{
		Authenticator:   AllowAll,
		Suggestions:     specialist.DefaultSuggestions(),
		WSWriteTimeout:  10 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		KeepAlive:       15 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Authenticator == nil {
		opts.Authenticator = AllowAll
	}

	s := &Server{
		d:      d,
		opts:   opts,
		logger: logging.OrNoOp(opts.Logger),
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat/message/stream", s.handleStream)
	mux.HandleFunc("POST /api/chat/message", s.handleMessage)
	mux.HandleFunc("GET /api/chat/ws", s.handleWS)
	mux.HandleFunc("GET /api/chat/history/{id}", s.handleHistory)
	mux.HandleFunc("DELETE /api/chat/turns/{id}", s.handleCancel)
	mux.HandleFunc("GET /api/chat/suggestions", s.handleSuggestions)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	s.handler = withCORS(mux, opts.AllowedOrigins)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server starting", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	s.logger.Info("HTTP server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || originAllowed(s.opts.AllowedOrigins, origin)
}
