package dispatcher

import (
	"context"
	"errors"
	"strings"

	"github.com/hupe1980/chatrouter/core"
)

// ErrTurnFailed is returned by Run when the turn ended with an error event.
var ErrTurnFailed = errors.New("turn failed")

// Result is the aggregated outcome of a synchronously executed turn.
type Result struct {
	TurnID     string
	SessionID  string
	Agent      string
	Confidence float64
	Response   string
	Status     core.TurnStatus
	// Error is the user-visible message of a failed turn.
	Error  string
	Events []core.Event
}

// Run dispatches req and blocks until the turn terminates, collecting its
// events. Failed turns return the partial Result together with ErrTurnFailed.
func (d *Dispatcher) Run(ctx context.Context, req TurnRequest) (*Result, error) {
	h, err := d.Dispatch(ctx, req)
	if err != nil {
		return nil, err
	}

	res := &Result{TurnID: h.TurnID, SessionID: h.SessionID, Status: core.TurnCancelled}
	var tokens strings.Builder
	for {
		ev, ok := h.Next(ctx)
		if !ok {
			break
		}
		res.Events = append(res.Events, ev)
		switch ev.Type {
		case core.EventDomainChange:
			res.Agent = ev.Agent
			res.Confidence = ev.ConfidenceValue()
		case core.EventToken:
			tokens.WriteString(ev.Content)
		case core.EventResponse:
			res.Response = ev.Content
		case core.EventDone:
			res.Response = ev.Content
			res.Status = core.TurnCompleted
		case core.EventError:
			res.Error = ev.Message
			res.Status = core.TurnFailed
		}
	}
	if res.Response == "" {
		res.Response = tokens.String()
	}

	switch res.Status {
	case core.TurnFailed:
		return res, ErrTurnFailed
	case core.TurnCancelled:
		if err := ctx.Err(); err != nil {
			return res, err
		}
		return res, context.Canceled
	}
	return res, nil
}
