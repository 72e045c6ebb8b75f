package specialist

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hupe1980/chatrouter/internal/util"
)

var (
	// ErrNotFound is returned by Resolve for unknown tags.
	ErrNotFound = errors.New("specialist not found")
	// ErrEmptyTag rejects descriptors without a tag.
	ErrEmptyTag = errors.New("specialist tag is empty")
	// ErrDuplicateTag rejects two descriptors sharing a tag.
	ErrDuplicateTag = errors.New("duplicate specialist tag")
	// ErrReservedTag rejects regular descriptors using the fallback tag.
	ErrReservedTag = errors.New("specialist tag is reserved")
)

// Descriptor is a specialist expressed as data: a domain tag plus the prompt
// material used to generate its answers. Descriptors are immutable once
// registered.
type Descriptor struct {
	Tag         string   `yaml:"tag" json:"tag"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	Keywords    []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`

	// SystemPrompt is a text/template. Available fields: ResponseFormat,
	// ContentRules, AntiHallucination, Today, Name, Tag.
	SystemPrompt string `yaml:"system_prompt" json:"-"`
	// Instruction closes the user prompt.
	Instruction string `yaml:"instruction" json:"-"`
	// DataTitle heads the background data section.
	DataTitle string `yaml:"data_title" json:"-"`
	// ContextKeys selects the profile sections passed to the provider. Empty
	// selects every section.
	ContextKeys []string `yaml:"context_keys,omitempty" json:"-"`

	Temperature *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	// Priority orders tie-breaks; lower values win.
	Priority int `yaml:"priority" json:"priority"`
	// Streaming disables token streaming when explicitly false.
	Streaming *bool `yaml:"streaming,omitempty" json:"streaming,omitempty"`
}

// StreamingEnabled reports whether the specialist streams tokens.
func (d Descriptor) StreamingEnabled() bool {
	return d.Streaming == nil || *d.Streaming
}

// NormalizeTag lowercases and trims a domain tag.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

func (d Descriptor) clone() Descriptor {
	d.Tag = NormalizeTag(d.Tag)
	d.Keywords = slices.Clone(d.Keywords)
	d.ContextKeys = slices.Clone(d.ContextKeys)
	if d.Temperature != nil {
		t := *d.Temperature
		d.Temperature = &t
	}
	if d.Streaming != nil {
		s := *d.Streaming
		d.Streaming = &s
	}
	return d
}

func (d Descriptor) validate() error {
	if d.Tag == "" {
		return ErrEmptyTag
	}
	if d.Temperature != nil && (*d.Temperature < 0 || *d.Temperature > 2) {
		return fmt.Errorf("specialist %q: temperature %.2f out of range", d.Tag, *d.Temperature)
	}
	if err := util.ParseTemplate(d.SystemPrompt); err != nil {
		return fmt.Errorf("specialist %q: system prompt: %w", d.Tag, err)
	}
	return nil
}
