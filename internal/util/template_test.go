package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("Today is {{.today}}. {{upper .tag}} {{join \", \" .tags}}", map[string]any{
		"today": "2024-05-01",
		"tag":   "technical",
		"tags":  []string{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Today is 2024-05-01. TECHNICAL a, b", out)
}

func TestRenderTemplate_NoMarkers(t *testing.T) {
	out, err := RenderTemplate("plain <b>text</b>", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain <b>text</b>", out)
}

func TestRenderTemplate_NoEscaping(t *testing.T) {
	out, err := RenderTemplate("{{.v}}", map[string]any{"v": "a <b> & 'c'"})
	require.NoError(t, err)
	assert.Equal(t, "a <b> & 'c'", out)
}

func TestParseTemplate(t *testing.T) {
	assert.NoError(t, ParseTemplate("{{.ok}}"))
	assert.Error(t, ParseTemplate("{{.broken"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "he...", Truncate("hello world", 5))
	assert.Equal(t, "abc", Truncate("abcdef", 3))
}
