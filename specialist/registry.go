package specialist

import (
	"fmt"
	"sort"

	"github.com/hupe1980/chatrouter/core"
)

// Registry maps domain tags to descriptors. It is immutable after
// construction and safe for unsynchronized concurrent reads.
type Registry struct {
	fallback Descriptor
	ordered  []Descriptor
	byTag    map[string]int
}

// NewRegistry validates and indexes descriptors. The result is ordered by
// Priority with ties kept in declaration order. The fallback descriptor is
// always registered under core.FallbackTag.
func NewRegistry(fallback Descriptor, descriptors ...Descriptor) (*Registry, error) {
	fallback = fallback.clone()
	fallback.Tag = core.FallbackTag
	if err := fallback.validate(); err != nil {
		return nil, err
	}

	r := &Registry{
		fallback: fallback,
		ordered:  make([]Descriptor, 0, len(descriptors)),
		byTag:    make(map[string]int, len(descriptors)),
	}
	seen := make(map[string]struct{}, len(descriptors))
	for i, d := range descriptors {
		d = d.clone()
		if err := d.validate(); err != nil {
			return nil, fmt.Errorf("descriptor %d: %w", i, err)
		}
		if d.Tag == core.FallbackTag {
			return nil, fmt.Errorf("descriptor %d: %w: %q", i, ErrReservedTag, d.Tag)
		}
		if _, dup := seen[d.Tag]; dup {
			return nil, fmt.Errorf("descriptor %d: %w: %q", i, ErrDuplicateTag, d.Tag)
		}
		seen[d.Tag] = struct{}{}
		r.ordered = append(r.ordered, d)
	}
	sort.SliceStable(r.ordered, func(i, j int) bool {
		return r.ordered[i].Priority < r.ordered[j].Priority
	})
	for i, d := range r.ordered {
		r.byTag[d.Tag] = i
	}
	return r, nil
}

// Resolve returns the descriptor registered for tag. The fallback tag always
// resolves.
func (r *Registry) Resolve(tag string) (Descriptor, error) {
	tag = NormalizeTag(tag)
	if tag == core.FallbackTag {
		return r.fallback.clone(), nil
	}
	i, ok := r.byTag[tag]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrNotFound, tag)
	}
	return r.ordered[i].clone(), nil
}

// Has reports whether tag is a registered or fallback tag.
func (r *Registry) Has(tag string) bool {
	tag = NormalizeTag(tag)
	if tag == core.FallbackTag {
		return true
	}
	_, ok := r.byTag[tag]
	return ok
}

// Tags returns the registered tags in priority order, excluding the fallback.
func (r *Registry) Tags() []string {
	tags := make([]string, len(r.ordered))
	for i, d := range r.ordered {
		tags[i] = d.Tag
	}
	return tags
}

// Descriptors returns the registered descriptors in priority order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.ordered))
	for i, d := range r.ordered {
		out[i] = d.clone()
	}
	return out
}

// Fallback returns the fallback descriptor.
func (r *Registry) Fallback() Descriptor { return r.fallback.clone() }

// Len returns the number of registered descriptors, excluding the fallback.
func (r *Registry) Len() int { return len(r.ordered) }
