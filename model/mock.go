package model

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MockReply scripts the behaviour of a MockProvider for one caller.
type MockReply struct {
	// Text is the full completion. When Fragments is empty and the request
	// streams, Text is split into word fragments.
	Text string
	// Fragments overrides the streamed pieces.
	Fragments []string
	// Err fails the generation. When FailAfter > 0 the error is raised after
	// that many fragments were emitted.
	Err       error
	FailAfter int
	// BlockAfter > 0 stops after that many fragments and waits for ctx.
	BlockAfter int
	// Delay is applied before each fragment (or before the single response).
	Delay time.Duration
}

func (r MockReply) fragments() []string {
	if len(r.Fragments) > 0 {
		return r.Fragments
	}
	words := strings.SplitAfter(r.Text, " ")
	out := words[:0]
	for _, w := range words {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

func (r MockReply) full() string {
	if len(r.Fragments) > 0 && r.Text == "" {
		return strings.Join(r.Fragments, "")
	}
	return r.Text
}

// MockProvider is a lightweight in-memory Provider useful for tests & examples.
// Replies are selected by Request.Name; unknown callers get an echo reply.
type MockProvider struct {
	info Info

	mu       sync.Mutex
	replies  map[string]MockReply
	requests []Request
}

var _ Provider = (*MockProvider)(nil)

// NewMockProvider constructs a MockProvider.
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		info:    Info{Name: name, Provider: "mock"},
		replies: make(map[string]MockReply),
	}
}

// On registers the scripted reply for requests with the given Name.
func (m *MockProvider) On(name string, reply MockReply) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[name] = reply
	return m
}

// AddResponse registers a deterministic canned completion for a caller.
func (m *MockProvider) AddResponse(name, response string) {
	m.On(name, MockReply{Text: response})
}

// Requests returns a copy of every request received so far.
func (m *MockProvider) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// RequestsFor returns the recorded requests with the given Name.
func (m *MockProvider) RequestsFor(name string) []Request {
	var out []Request
	for _, r := range m.Requests() {
		if r.Name == name {
			out = append(out, r)
		}
	}
	return out
}

func (m *MockProvider) lookup(req Request) MockReply {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if r, ok := m.replies[req.Name]; ok {
		return r
	}
	return MockReply{Text: fmt.Sprintf("Mock response to: %s", req.LastUserText())}
}

// Generate implements Provider.
func (m *MockProvider) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)
	reply := m.lookup(req)

	go func() {
		defer close(respCh)
		defer close(errCh)

		wait := func() bool {
			if reply.Delay <= 0 {
				return ctx.Err() == nil
			}
			t := time.NewTimer(reply.Delay)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return false
			case <-t.C:
				return true
			}
		}

		if !req.Stream {
			if !wait() {
				errCh <- ctx.Err()
				return
			}
			if reply.Err != nil {
				errCh <- reply.Err
				return
			}
			respCh <- Response{Text: reply.full(), FinishReason: "stop"}
			return
		}

		if reply.Err != nil && reply.FailAfter <= 0 {
			errCh <- reply.Err
			return
		}
		for i, frag := range reply.fragments() {
			if reply.Err != nil && i == reply.FailAfter {
				errCh <- reply.Err
				return
			}
			if reply.BlockAfter > 0 && i == reply.BlockAfter {
				<-ctx.Done()
				errCh <- ctx.Err()
				return
			}
			if !wait() || !Send(ctx, respCh, Response{Partial: true, Text: frag}) {
				errCh <- ctx.Err()
				return
			}
		}
		if reply.Err != nil {
			errCh <- reply.Err
			return
		}
		if !Send(ctx, respCh, Response{Text: reply.full(), FinishReason: "stop"}) {
			errCh <- ctx.Err()
		}
	}()
	return respCh, errCh
}

// Info implements Provider.
func (m *MockProvider) Info() Info { return m.info }
