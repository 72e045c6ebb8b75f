package testutil

import (
	"time"

	"github.com/hupe1980/chatrouter/core"
)

// HistoryBuilder helps construct conversation history with fluent chaining.
// Example:
//
//	h := NewHistoryBuilder().Exchange("hi", "hello").Agent("help").Build()
type HistoryBuilder struct {
	exchanges []core.Exchange
	now       time.Time
}

// NewHistoryBuilder creates an empty builder.
func NewHistoryBuilder() *HistoryBuilder {
	return &HistoryBuilder{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Exchange appends a user message and its response (chainable).
func (b *HistoryBuilder) Exchange(user, response string) *HistoryBuilder {
	b.now = b.now.Add(time.Minute)
	b.exchanges = append(b.exchanges, core.Exchange{
		TurnID:      core.NewID(),
		UserMessage: user,
		Response:    response,
		Agent:       core.FallbackTag,
		Timestamp:   b.now,
	})
	return b
}

// Agent sets the agent and confidence 1 on the last exchange (chainable).
func (b *HistoryBuilder) Agent(tag string) *HistoryBuilder {
	if n := len(b.exchanges); n > 0 {
		b.exchanges[n-1].Agent = tag
		b.exchanges[n-1].Confidence = 1
	}
	return b
}

// Build returns a copy of the accumulated exchanges.
func (b *HistoryBuilder) Build() []core.Exchange {
	return append([]core.Exchange(nil), b.exchanges...)
}
