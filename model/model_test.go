package model

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(out <-chan Response, errCh <-chan error) ([]Response, error) {
	var rs []Response
	for r := range out {
		rs = append(rs, r)
	}
	return rs, <-errCh
}

func TestMockProvider_Echo(t *testing.T) {
	m := NewMockProvider("mock-1")
	text, err := Complete(context.Background(), m, Request{
		Name:     "general",
		Messages: []Message{{Role: RoleUser, Text: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: hello", text)
	assert.Equal(t, "mock", m.Info().Provider)
	require.Len(t, m.Requests(), 1)
	assert.False(t, m.Requests()[0].Stream)
}

func TestMockProvider_StreamFragments(t *testing.T) {
	m := NewMockProvider("mock").On("technical", MockReply{Fragments: []string{"I ", "use ", "Go."}})
	rs, err := drain(m.Generate(context.Background(), Request{Name: "technical", Stream: true}))
	require.NoError(t, err)
	require.Len(t, rs, 4)
	for _, r := range rs[:3] {
		assert.True(t, r.Partial)
	}
	assert.False(t, rs[3].Partial)
	assert.Equal(t, "I use Go.", rs[3].Text)
}

func TestMockProvider_SplitsTextIntoWords(t *testing.T) {
	m := NewMockProvider("mock").On("x", MockReply{Text: "a b c"})
	rs, err := drain(m.Generate(context.Background(), Request{Name: "x", Stream: true}))
	require.NoError(t, err)
	require.Len(t, rs, 4)
	assert.Equal(t, "a ", rs[0].Text)
	assert.Equal(t, "c", rs[2].Text)
}

func TestMockProvider_FailAfter(t *testing.T) {
	boom := errors.New("boom")
	m := NewMockProvider("mock").On("x", MockReply{Fragments: []string{"1", "2", "3"}, Err: boom, FailAfter: 2})
	rs, err := drain(m.Generate(context.Background(), Request{Name: "x", Stream: true}))
	assert.ErrorIs(t, err, boom)
	assert.Len(t, rs, 2)
}

func TestMockProvider_BlockAfterHonoursDeadline(t *testing.T) {
	m := NewMockProvider("mock").On("x", MockReply{Fragments: []string{"1", "2", "3"}, BlockAfter: 2})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	rs, err := drain(m.Generate(ctx, Request{Name: "x", Stream: true}))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, rs, 2)
}

func TestProviderError(t *testing.T) {
	cause := errors.New("rate limited")
	err := NewProviderError("openai", KindForStatus(429), cause)
	assert.True(t, IsTransient(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "openai provider error (transient)")

	fatal := NewProviderError("openai", KindForStatus(400), cause)
	assert.False(t, IsTransient(fatal))

	// Already wrapped errors are not double wrapped.
	assert.Same(t, err, NewProviderError("other", Fatal, err))

	// Cancellation passes through untouched.
	assert.Equal(t, context.Canceled, NewProviderError("openai", Fatal, context.Canceled))
	assert.Nil(t, NewProviderError("openai", Fatal, nil))
}

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		code int
		want ErrorKind
	}{
		{400, Fatal}, {401, Fatal}, {404, Fatal},
		{408, Transient}, {409, Transient}, {429, Transient},
		{500, Transient}, {503, Transient},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, KindForStatus(tt.code))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.True(t, IsTransient(Classify("gemini", fmt.Errorf("wrap: %w", context.DeadlineExceeded))))
	assert.False(t, IsTransient(Classify("gemini", errors.New("malformed"))))
}

func TestRequestLastUserText(t *testing.T) {
	req := Request{Messages: []Message{
		{Role: RoleUser, Text: "first"},
		{Role: RoleAssistant, Text: "reply"},
		{Role: RoleUser, Text: "second"},
	}}
	assert.Equal(t, "second", req.LastUserText())
	assert.Empty(t, Request{}.LastUserText())
}
