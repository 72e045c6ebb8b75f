package session

import (
	"context"
	"sync"

	"github.com/hupe1980/chatrouter/core"
)

// Options configure the in-memory store.
type Options struct {
	// MaxExchanges caps the retained history per session; the oldest
	// exchanges are dropped first. Zero keeps everything.
	MaxExchanges int
}

// InMemoryStore is a volatile SessionStore implementation storing
// conversation history in a process local map. It is safe for concurrent
// access and best suited for tests or ephemeral demo servers. Returned
// history is copied to prevent external mutation of internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]core.Exchange
	opts     Options
}

var _ core.SessionStore = (*InMemoryStore)(nil)

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore(optFns ...func(o *Options)) *InMemoryStore {
	opts := Options{MaxExchanges: 100}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &InMemoryStore{sessions: make(map[string][]core.Exchange), opts: opts}
}

// History returns up to limit trailing exchanges, oldest first.
func (s *InMemoryStore) History(ctx context.Context, sessionID string, limit int) ([]core.Exchange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	tail := core.LastN(s.sessions[sessionID], limit)
	out := make([]core.Exchange, len(tail))
	copy(out, tail)
	return out, nil
}

// Append adds a completed exchange to a session, creating it lazily.
func (s *InMemoryStore) Append(ctx context.Context, sessionID string, ex core.Exchange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	h := append(s.sessions[sessionID], ex)
	if s.opts.MaxExchanges > 0 && len(h) > s.opts.MaxExchanges {
		h = append([]core.Exchange(nil), h[len(h)-s.opts.MaxExchanges:]...)
	}
	s.sessions[sessionID] = h
	return nil
}

// Len returns the number of sessions with at least one exchange.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
