package core

import (
	"context"
	"time"
)

// Exchange is one committed turn in a session's conversation history.
type Exchange struct {
	TurnID      string    `json:"turn_id" msgpack:"turn_id"`
	UserMessage string    `json:"user_message" msgpack:"user_message"`
	Response    string    `json:"response" msgpack:"response"`
	Agent       string    `json:"agent" msgpack:"agent"`
	Confidence  float64   `json:"confidence" msgpack:"confidence"`
	Timestamp   time.Time `json:"timestamp" msgpack:"timestamp"`
}

// SessionStore supplies bounded conversation history per session id and
// receives finished turns. Per-session consistency is the store's concern.
//
// Contract:
//   - History returns at most limit exchanges, oldest first; limit <= 0 means all
//   - History of an unknown session is empty, not an error
//   - Append is called only for completed turns (all-or-nothing commit)
type SessionStore interface {
	History(ctx context.Context, sessionID string, limit int) ([]Exchange, error)
	Append(ctx context.Context, sessionID string, ex Exchange) error
}

// LastN returns the trailing n exchanges of history (all when n <= 0).
func LastN(history []Exchange, n int) []Exchange {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
