package model

import (
	"context"
	"strings"
)

// Role of a conversational message sent to a provider.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one prior conversational message or the current user input.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Request captures the normalized provider input produced by the router and
// the specialists.
type Request struct {
	// Name identifies the logical caller ("router" or a specialist tag).
	Name string `json:"name"`
	// Instructions is the system prompt.
	Instructions string `json:"instructions"`
	// Messages are sent in order; the last one is the current user input.
	Messages []Message `json:"messages"`
	// Stream requests lazy fragment production.
	Stream bool `json:"stream,omitempty"`
	// Temperature overrides the provider default when non-nil.
	Temperature *float64 `json:"temperature,omitempty"`
	// MaxTokens overrides the provider default when > 0.
	MaxTokens int64 `json:"max_tokens,omitempty"`
}

// LastUserText returns the text of the final user message.
func (r Request) LastUserText() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Text
		}
	}
	return ""
}

// Response is a (partial or final) chunk emitted by a provider. A streaming
// generation emits zero or more partial fragments followed by exactly one
// final response carrying the full text. A non-streaming generation emits
// only the final response.
type Response struct {
	Partial      bool   `json:"partial"`
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// Info contains metadata about a provider implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "gemini", "mock"
}

// Provider is the only point of contact with the external generation
// capability. Implementations must be safe for concurrent use by many turns.
//
// Generate returns a response channel and an error channel. The response
// channel is closed when generation ends; the error channel carries at most
// one error and is closed before the response channel. Cancelling ctx must
// stop fragment production promptly and release the underlying connection.
type Provider interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the provider implementation.
	Info() Info
}

// Complete runs a non-streaming generation and returns the full text.
func Complete(ctx context.Context, p Provider, req Request) (string, error) {
	req.Stream = false
	out, errCh := p.Generate(ctx, req)
	var sb strings.Builder
	var final string
	var gotFinal bool
	for r := range out {
		if r.Partial {
			sb.WriteString(r.Text)
			continue
		}
		final, gotFinal = r.Text, true
	}
	if err := <-errCh; err != nil {
		return "", err
	}
	if gotFinal {
		return final, nil
	}
	return sb.String(), nil
}

// Send delivers r on out unless ctx is done first. It reports whether the
// response was delivered.
func Send(ctx context.Context, out chan<- Response, r Response) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- r:
		return true
	}
}
