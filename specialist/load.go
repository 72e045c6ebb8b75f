package specialist

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog bundles everything a specialists file can define.
type Catalog struct {
	Registry    *Registry
	Profile     *Profile
	Suggestions []Suggestion
}

type fileSpec struct {
	Fallback    *Descriptor  `yaml:"fallback"`
	Specialists []Descriptor `yaml:"specialists"`
	Profile     *Profile     `yaml:"profile"`
	Suggestions []Suggestion `yaml:"suggestions"`
}

// DefaultCatalog returns the built-in registry, profile and suggestions.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Registry:    DefaultRegistry(),
		Profile:     DefaultProfile(),
		Suggestions: DefaultSuggestions(),
	}
}

// LoadFile reads a YAML specialists file. Omitted sections keep the
// built-in defaults.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read specialists file: %w", err)
	}
	c, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Load decodes a YAML specialists document.
func Load(r io.Reader) (*Catalog, error) {
	var spec fileSpec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode specialists: %w", err)
	}

	fallback := DefaultFallback()
	if spec.Fallback != nil {
		fallback = *spec.Fallback
	}
	descriptors := spec.Specialists
	if len(descriptors) == 0 {
		descriptors = DefaultDescriptors()
	}
	reg, err := NewRegistry(fallback, descriptors...)
	if err != nil {
		return nil, err
	}

	c := &Catalog{Registry: reg, Profile: spec.Profile, Suggestions: cloneSuggestions(spec.Suggestions)}
	if c.Profile == nil {
		c.Profile = DefaultProfile()
	}
	if len(c.Suggestions) == 0 {
		c.Suggestions = DefaultSuggestions()
	}
	return c, nil
}
