package router

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/chatrouter/core"
	"github.com/hupe1980/chatrouter/model"
	"github.com/hupe1980/chatrouter/specialist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeTagRegistry(t *testing.T) *specialist.Registry {
	t.Helper()
	var ds []specialist.Descriptor
	for _, d := range specialist.DefaultDescriptors() {
		switch d.Tag {
		case "technical", "personal", "background":
			ds = append(ds, d)
		}
	}
	r, err := specialist.NewRegistry(specialist.DefaultFallback(), ds...)
	require.NoError(t, err)
	return r
}

func TestRoute_EmptyMessage(t *testing.T) {
	r := New(specialist.DefaultRegistry(), model.NewMockProvider("m"))
	_, err := r.Route(context.Background(), "   ", nil)
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))
	assert.ErrorIs(t, err, core.ErrEmptyMessage)
}

func TestRoute_LLM_Technical(t *testing.T) {
	reg := threeTagRegistry(t)
	p := model.NewMockProvider("m")
	p.AddResponse(RequestName, "TECHNICAL")
	r := New(reg, p)

	d, err := r.Route(context.Background(), "What languages do you know?", nil)
	require.NoError(t, err)
	assert.Equal(t, "technical", d.Tag)
	assert.Greater(t, d.Confidence, 0.5)
	assert.Nil(t, d.Degraded)

	reqs := p.RequestsFor(RequestName)
	require.Len(t, reqs, 1)
	assert.False(t, reqs[0].Stream)
	require.NotNil(t, reqs[0].Temperature)
	assert.Equal(t, 0.3, *reqs[0].Temperature)
	assert.Contains(t, reqs[0].Instructions, "TECHNICAL")
	assert.Contains(t, reqs[0].Instructions, "GENERAL")
	assert.NotContains(t, reqs[0].Instructions, "INTERVIEW")
	assert.Contains(t, reqs[0].LastUserText(), "User message: What languages do you know?")
	assert.Contains(t, reqs[0].LastUserText(), specialist.StartOfConversation)
}

func TestRoute_LLM_UnrecognizedFallsBack(t *testing.T) {
	p := model.NewMockProvider("m")
	p.AddResponse(RequestName, "xyz")
	r := New(threeTagRegistry(t), p)

	d, err := r.Route(context.Background(), "Hello?", nil)
	require.NoError(t, err)
	assert.Equal(t, core.FallbackTag, d.Tag)
	assert.Equal(t, 0.0, d.Confidence)
	assert.Nil(t, d.Degraded)
}

func TestRoute_LLM_ProviderFailureIsDegraded(t *testing.T) {
	boom := model.NewProviderError("mock", model.Transient, errors.New("quota"))
	p := model.NewMockProvider("m").On(RequestName, model.MockReply{Err: boom})
	r := New(threeTagRegistry(t), p)

	d, err := r.Route(context.Background(), "What languages do you know?", nil)
	require.NoError(t, err)
	assert.True(t, d.IsFallback())
	assert.Equal(t, core.ConfidenceNone, d.Confidence)
	assert.ErrorIs(t, d.Degraded, boom)
}

func TestRoute_HistoryWindow(t *testing.T) {
	p := model.NewMockProvider("m")
	p.AddResponse(RequestName, "PERSONAL")
	r := New(threeTagRegistry(t), p, func(o *Options) { o.HistoryWindow = 2 })

	history := []core.Exchange{
		{UserMessage: "one"}, {UserMessage: "two"}, {UserMessage: "three"},
	}
	_, err := r.Route(context.Background(), "and you?", history)
	require.NoError(t, err)
	prompt := p.Requests()[0].LastUserText()
	assert.NotContains(t, prompt, "User: one")
	assert.Contains(t, prompt, "User: two")
	assert.Contains(t, prompt, "User: three")
}

func TestRoute_Idempotent(t *testing.T) {
	p := model.NewMockProvider("m")
	p.AddResponse(RequestName, "I would say BACKGROUND")
	r := New(threeTagRegistry(t), p)
	history := []core.Exchange{{UserMessage: "hi", Response: "hello"}}

	a, err := r.Route(context.Background(), "Where did you study?", history)
	require.NoError(t, err)
	b, err := r.Route(context.Background(), "Where did you study?", history)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, "background", a.Tag)
}

func TestRoute_NilProviderUsesKeywords(t *testing.T) {
	r := New(threeTagRegistry(t), nil)
	assert.Equal(t, ModeKeyword, r.Mode())
	d, err := r.Route(context.Background(), "What languages do you know?", nil)
	require.NoError(t, err)
	assert.Equal(t, "technical", d.Tag)
	assert.Greater(t, d.Confidence, 0.5)
}

func TestParseDecision(t *testing.T) {
	reg := specialist.DefaultRegistry()
	tests := []struct {
		name string
		text string
		tag  string
		conf float64
	}{
		{"bare", "TECHNICAL", "technical", core.ConfidenceExact},
		{"bare with punctuation", "**Personal.**", "personal", core.ConfidenceExact},
		{"contained", "The best agent is HELP for this.", "help", core.ConfidenceContained},
		{"ambiguous priority winner", "BACKGROUND or INTERVIEW", "interview", core.ConfidenceAmbiguous},
		{"general explicit", "GENERAL", core.FallbackTag, core.ConfidenceExact},
		{"unknown", "xyz", core.FallbackTag, core.ConfidenceNone},
		{"empty", "", core.FallbackTag, core.ConfidenceNone},
		{"substring is not a tag", "technically helpful", core.FallbackTag, core.ConfidenceNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ParseDecision(reg, tt.text)
			assert.Equal(t, tt.tag, d.Tag)
			assert.Equal(t, tt.conf, d.Confidence)
			assert.True(t, reg.Has(d.Tag))
		})
	}
}

func TestMatchKeywords(t *testing.T) {
	reg := specialist.DefaultRegistry()
	tests := []struct {
		name string
		msg  string
		tag  string
		conf float64
	}{
		{"technical", "Which programming languages do you use?", "technical", core.ConfidenceKeyword},
		{"background", "Where did you get your degree?", "background", core.ConfidenceKeyword},
		{"personal", "What motivates you?", "personal", core.ConfidenceKeyword},
		{"tie goes to priority", "tell me about yourself and your education", "interview", core.ConfidenceKeywordTie},
		{"none", "banana", core.FallbackTag, core.ConfidenceNone},
		{"whole words only", "I feel good", core.FallbackTag, core.ConfidenceNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := MatchKeywords(reg, tt.msg)
			assert.Equal(t, tt.tag, d.Tag)
			assert.Equal(t, tt.conf, d.Confidence)
		})
	}
}

func TestClassificationPrompt(t *testing.T) {
	p := ClassificationPrompt(specialist.DefaultRegistry())
	assert.Contains(t, p, "1. INTERVIEW - Handles")
	assert.Contains(t, p, "6. GENERAL - Handles")
	assert.Contains(t, p, "(INTERVIEW, TECHNICAL, PERSONAL, BACKGROUND, HELP, or GENERAL)")
}
