package specialist

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hupe1980/chatrouter/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_PriorityOrder(t *testing.T) {
	r, err := NewRegistry(Descriptor{},
		Descriptor{Tag: "b", Priority: 2},
		Descriptor{Tag: "A", Priority: 1},
		Descriptor{Tag: "c", Priority: 2},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, r.Tags())
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, core.FallbackTag, r.Fallback().Tag)
}

func TestNewRegistry_Rejects(t *testing.T) {
	tests := []struct {
		name string
		ds   []Descriptor
		want error
	}{
		{"empty", []Descriptor{{Tag: "  "}}, ErrEmptyTag},
		{"duplicate", []Descriptor{{Tag: "x"}, {Tag: "X "}}, ErrDuplicateTag},
		{"reserved", []Descriptor{{Tag: "general"}}, ErrReservedTag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(Descriptor{}, tt.ds...)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := NewRegistry(Descriptor{}, Descriptor{Tag: "x", SystemPrompt: "{{.Broken"})
	assert.Error(t, err)
}

func TestRegistry_Resolve(t *testing.T) {
	r := DefaultRegistry()

	d, err := r.Resolve("TECHNICAL")
	require.NoError(t, err)
	assert.Equal(t, "technical", d.Tag)

	d, err = r.Resolve(core.FallbackTag)
	require.NoError(t, err)
	assert.Equal(t, core.FallbackTag, d.Tag)

	_, err = r.Resolve("xyz")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, r.Has("general"))
	assert.False(t, r.Has("xyz"))
}

func TestRegistry_IsImmutable(t *testing.T) {
	r := DefaultRegistry()
	ds := r.Descriptors()
	ds[0].Keywords[0] = "mutated"
	ds[0].Tag = "mutated"

	d, err := r.Resolve("interview")
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", d.Keywords[0])
	assert.Equal(t, "interview", r.Tags()[0])
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"interview", "technical", "personal", "background", "help"}, r.Tags())
	for _, d := range r.Descriptors() {
		assert.NotNil(t, d.Temperature, d.Tag)
		assert.True(t, d.StreamingEnabled(), d.Tag)
	}
}

func TestProfileSection(t *testing.T) {
	p := DefaultProfile()

	out := p.Section(KeySkills, KeyName)
	assert.True(t, strings.HasPrefix(out, "skills:"), out)
	assert.Contains(t, out, "name: J M")
	assert.Contains(t, out, "- Go")

	out = p.Section(KeyExpertiseAreas, KeyNumberOfProjects, KeyEducationLevel, "unknown")
	assert.Contains(t, out, "- ai_ml")
	assert.Contains(t, out, "number_of_projects: 2")
	assert.Contains(t, out, "education_level: BS Computer Science")
	assert.NotContains(t, out, "unknown")

	out = p.Section(KeyLeadership)
	assert.Contains(t, out, "Led team of 4 engineers")

	var nilProfile *Profile
	assert.Empty(t, nilProfile.Section())
}

func TestBuildPrompt(t *testing.T) {
	r := DefaultRegistry()
	d, err := r.Resolve("background")
	require.NoError(t, err)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p, err := BuildPrompt(d, Input{
		Message: "  Where did you study?  ",
		Profile: DefaultProfile(),
		Now:     now,
	})
	require.NoError(t, err)
	assert.Contains(t, p.System, "Today's date is 2024-05-01.")
	assert.Contains(t, p.System, "RESPONSE FORMAT:")
	assert.Contains(t, p.System, "IMPORTANT: Only use information")
	assert.NotContains(t, p.System, "{{")

	assert.True(t, strings.HasPrefix(p.User, "My Professional Background:\n"))
	assert.Contains(t, p.User, "Conversation Context:\n"+StartOfConversation)
	assert.Contains(t, p.User, "Question: Where did you study?\n\n")
	assert.True(t, strings.HasSuffix(p.User, d.Instruction))
	assert.Contains(t, p.User, "UC Berkeley")
}

func TestFormatHistory(t *testing.T) {
	out := FormatHistory([]core.Exchange{
		{UserMessage: "hi", Response: "hello"},
		{UserMessage: "what now?"},
	})
	assert.Equal(t, "User: hi\nAssistant: hello\nUser: what now?", out)
	assert.Equal(t, StartOfConversation, FormatHistory(nil))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specialists.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
specialists:
  - tag: billing
    title: Billing
    description: invoices and payments
    keywords: [invoice*, payment]
    system_prompt: "You handle billing. {{.AntiHallucination}}"
    priority: 1
    streaming: false
profile:
  name: Ada
  title: Engineer
suggestions:
  - category: Billing
    questions: ["Where is my invoice?"]
`), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"billing"}, c.Registry.Tags())
	d, err := c.Registry.Resolve("billing")
	require.NoError(t, err)
	assert.False(t, d.StreamingEnabled())
	assert.Equal(t, "Ada", c.Profile.Name)
	require.Len(t, c.Suggestions, 1)
	assert.Equal(t, "Billing", c.Suggestions[0].Category)
}

func TestLoad_DefaultsAndErrors(t *testing.T) {
	c, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 5, c.Registry.Len())
	assert.Len(t, c.Suggestions, 4)

	_, err = Load(strings.NewReader("specialists:\n  - tag: a\n  - tag: a\n"))
	assert.ErrorIs(t, err, ErrDuplicateTag)

	_, err = Load(strings.NewReader("bogus: true\n"))
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
