package core

import "time"

// EventType tags the variant carried by an Event.
type EventType string

const (
	// EventStatus is a human readable progress note (e.g. routing start).
	EventStatus EventType = "status"
	// EventDomainChange announces the resolved domain tag; emitted once per turn.
	EventDomainChange EventType = "domain_change"
	// EventToken carries one generated text fragment.
	EventToken EventType = "token"
	// EventResponse carries the full text when the provider is non-streaming.
	EventResponse EventType = "response"
	// EventDone terminates a successful turn.
	EventDone EventType = "done"
	// EventError terminates a failed turn.
	EventError EventType = "error"
)

// Event is one unit of the ordered output protocol of a turn. Each variant
// populates only the fields relevant to its Type:
//
//	status         Message
//	domain_change  Agent, Confidence
//	token          Content (fragment)
//	response       Content (full text), Agent
//	done           Content (full text), Agent, Confidence, SessionID
//	error          Message (generic, non-leaking)
//
// Seq increases by one for every event of a turn starting at 1. After emission
// an Event is treated as immutable.
type Event struct {
	Type       EventType `json:"type"`
	TurnID     string    `json:"turn_id,omitempty"`
	SessionID  string    `json:"session_id,omitempty"`
	Seq        int       `json:"seq"`
	Message    string    `json:"message,omitempty"`
	Agent      string    `json:"agent,omitempty"`
	Confidence *float64  `json:"confidence,omitempty"`
	Content    string    `json:"content,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func newEvent(t EventType) Event {
	return Event{Type: t, Timestamp: time.Now().UTC()}
}

// NewStatusEvent creates a status event.
func NewStatusEvent(message string) Event {
	e := newEvent(EventStatus)
	e.Message = message
	return e
}

// NewDomainChangeEvent creates the domain_change event for a routing decision.
func NewDomainChangeEvent(d RoutingDecision) Event {
	e := newEvent(EventDomainChange)
	e.Agent = d.Tag
	c := d.Confidence
	e.Confidence = &c
	return e
}

// NewTokenEvent creates a token event carrying one fragment.
func NewTokenEvent(fragment string) Event {
	e := newEvent(EventToken)
	e.Content = fragment
	return e
}

// NewResponseEvent creates a response event for non-streaming generation.
func NewResponseEvent(agent, content string) Event {
	e := newEvent(EventResponse)
	e.Agent = agent
	e.Content = content
	return e
}

// NewDoneEvent creates the terminal success event.
func NewDoneEvent(sessionID, agent string, confidence float64, content string) Event {
	e := newEvent(EventDone)
	e.SessionID = sessionID
	e.Agent = agent
	e.Confidence = &confidence
	e.Content = content
	return e
}

// NewErrorEvent creates the terminal failure event.
func NewErrorEvent(message string) Event {
	e := newEvent(EventError)
	e.Message = message
	return e
}

// IsTerminal reports whether no further event may follow this one.
func (e Event) IsTerminal() bool { return e.Type == EventDone || e.Type == EventError }

// ConfidenceValue returns the confidence or 0 when absent.
func (e Event) ConfidenceValue() float64 {
	if e.Confidence == nil {
		return 0
	}
	return *e.Confidence
}
