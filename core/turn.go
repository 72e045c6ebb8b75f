package core

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// TurnStatus is the lifecycle state of a Turn.
type TurnStatus string

const (
	TurnPending    TurnStatus = "pending"
	TurnRouting    TurnStatus = "routing"
	TurnGenerating TurnStatus = "streaming"
	TurnCompleted  TurnStatus = "completed"
	TurnFailed     TurnStatus = "failed"
	TurnCancelled  TurnStatus = "cancelled"
)

// IsTerminal reports whether the status is final.
func (s TurnStatus) IsTerminal() bool {
	switch s {
	case TurnCompleted, TurnFailed, TurnCancelled:
		return true
	default:
		return false
	}
}

func isAllowedTransition(from, to TurnStatus) bool {
	switch from {
	case TurnPending:
		return to == TurnRouting || to == TurnCancelled
	case TurnRouting:
		return to == TurnGenerating || to == TurnFailed || to == TurnCancelled
	case TurnGenerating:
		return to == TurnCompleted || to == TurnFailed || to == TurnCancelled
	default:
		return false
	}
}

// Turn is one request/response cycle. It is owned by the dispatcher for the
// duration of the turn and discarded after the terminal event; persistence is
// the SessionStore's job.
type Turn struct {
	ID        string
	SessionID string
	Message   string
	Created   time.Time

	mu       sync.RWMutex
	status   TurnStatus
	decision *RoutingDecision
	output   strings.Builder
}

// NewTurn creates a pending turn.
func NewTurn(sessionID, message string) *Turn {
	return &Turn{
		ID:        NewID(),
		SessionID: sessionID,
		Message:   message,
		Created:   time.Now().UTC(),
		status:    TurnPending,
	}
}

// Status returns the current status.
func (t *Turn) Status() TurnStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Transition moves the turn to status to, enforcing monotonic progress.
func (t *Turn) Transition(to TurnStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !isAllowedTransition(t.status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, t.status, to)
	}
	t.status = to
	return nil
}

// SetDecision records the routing decision. A turn has exactly one decision.
func (t *Turn) SetDecision(d RoutingDecision) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.decision != nil {
		return fmt.Errorf("%w: routing decision already set", ErrIllegalTransition)
	}
	t.decision = &d
	return nil
}

// Decision returns the routing decision and whether routing has completed.
func (t *Turn) Decision() (RoutingDecision, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.decision == nil {
		return RoutingDecision{}, false
	}
	return *t.decision, true
}

// AppendOutput accumulates generated text.
func (t *Turn) AppendOutput(fragment string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.output.WriteString(fragment)
}

// Output returns the accumulated text.
func (t *Turn) Output() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.output.String()
}

// Exchange converts a completed turn into its history record.
func (t *Turn) Exchange() Exchange {
	d, _ := t.Decision()
	return Exchange{
		TurnID:      t.ID,
		UserMessage: t.Message,
		Response:    t.Output(),
		Agent:       d.Tag,
		Confidence:  d.Confidence,
		Timestamp:   time.Now().UTC(),
	}
}
