package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurn_HappyPath(t *testing.T) {
	turn := NewTurn("s1", "hello")
	assert.Equal(t, TurnPending, turn.Status())
	assert.NotEmpty(t, turn.ID)

	require.NoError(t, turn.Transition(TurnRouting))
	require.NoError(t, turn.SetDecision(RoutingDecision{Tag: "technical", Confidence: 1}))
	require.NoError(t, turn.Transition(TurnGenerating))
	turn.AppendOutput("Go ")
	turn.AppendOutput("and Python")
	require.NoError(t, turn.Transition(TurnCompleted))

	assert.True(t, turn.Status().IsTerminal())
	ex := turn.Exchange()
	assert.Equal(t, "hello", ex.UserMessage)
	assert.Equal(t, "Go and Python", ex.Response)
	assert.Equal(t, "technical", ex.Agent)
	assert.Equal(t, turn.ID, ex.TurnID)
}

func TestTurn_RejectsIllegalTransitions(t *testing.T) {
	cases := []struct {
		name string
		path []TurnStatus
		bad  TurnStatus
	}{
		{"skip routing", nil, TurnGenerating},
		{"fail from pending", nil, TurnFailed},
		{"back to routing", []TurnStatus{TurnRouting, TurnGenerating}, TurnRouting},
		{"after completed", []TurnStatus{TurnRouting, TurnGenerating, TurnCompleted}, TurnCancelled},
		{"after cancelled", []TurnStatus{TurnCancelled}, TurnRouting},
		{"after failed", []TurnStatus{TurnRouting, TurnFailed}, TurnCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			turn := NewTurn("s", "m")
			for _, s := range tc.path {
				require.NoError(t, turn.Transition(s))
			}
			err := turn.Transition(tc.bad)
			assert.True(t, errors.Is(err, ErrIllegalTransition), "got %v", err)
		})
	}
}

func TestTurn_SingleDecision(t *testing.T) {
	turn := NewTurn("s", "m")
	_, ok := turn.Decision()
	assert.False(t, ok)
	require.NoError(t, turn.SetDecision(FallbackDecision("no match", nil)))
	assert.ErrorIs(t, turn.SetDecision(RoutingDecision{Tag: "technical"}), ErrIllegalTransition)
	d, ok := turn.Decision()
	assert.True(t, ok)
	assert.True(t, d.IsFallback())
}
