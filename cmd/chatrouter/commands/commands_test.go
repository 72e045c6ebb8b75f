package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hupe1980/chatrouter/core"
	"github.com/hupe1980/chatrouter/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeStream(t *testing.T, events ...core.Event) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	enc := stream.NewSSEEncoder(&buf)
	for i, ev := range events {
		ev.Seq = i + 1
		require.NoError(t, enc.Encode(ev))
	}
	return &buf
}

func TestRenderStream(t *testing.T) {
	body := encodeStream(t,
		core.NewStatusEvent("classifying intent"),
		core.NewDomainChangeEvent(core.RoutingDecision{Tag: "technical", Confidence: 0.9}),
		core.NewTokenEvent("Hello"),
		core.NewTokenEvent(" there"),
		core.NewDoneEvent("s1", "technical", 0.9, "Hello there"),
	)

	var out bytes.Buffer
	require.NoError(t, renderStream(body, &renderer{w: &out, styles: newStyles()}))
	text := out.String()
	assert.Contains(t, text, "technical 0.90")
	assert.Contains(t, text, "Hello there")
	assert.Contains(t, text, "session s1")
}

func TestRenderStream_Error(t *testing.T) {
	body := encodeStream(t,
		core.NewDomainChangeEvent(core.RoutingDecision{Tag: "general"}),
		core.NewErrorEvent("Sorry"),
	)
	var out bytes.Buffer
	err := renderStream(body, &renderer{w: &out, styles: newStyles(), quiet: true})
	assert.EqualError(t, err, "turn failed")
	assert.Contains(t, out.String(), "Sorry")
}

func TestRenderStream_Truncated(t *testing.T) {
	body := encodeStream(t, core.NewTokenEvent("partial"))
	err := renderStream(body, &renderer{w: &bytes.Buffer{}, styles: newStyles()})
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "chatrouter "))
}

func TestRouteCommand_Keyword(t *testing.T) {
	t.Setenv("CHATROUTER_PROVIDER", "mock")
	t.Setenv("CHATROUTER_ROUTER_MODE", "keyword")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"route", "--json", "Which programming languages do you use?"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), `"agent": "technical"`)
}
