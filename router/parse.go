package router

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/hupe1980/chatrouter/core"
	"github.com/hupe1980/chatrouter/internal/util"
	"github.com/hupe1980/chatrouter/specialist"
)

// candidates returns registered tags in priority order followed by the
// fallback tag.
func candidates(registry *specialist.Registry) []string {
	return append(registry.Tags(), core.FallbackTag)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool { return !isWordRune(r) })
}

// ParseDecision validates raw classifier output against the registry. Raw
// provider text is never used as a tag without a membership check.
//
//	bare single tag            -> ConfidenceExact
//	one tag inside free text   -> ConfidenceContained
//	several tags               -> priority winner, ConfidenceAmbiguous
//	no known tag               -> fallback, ConfidenceNone
func ParseDecision(registry *specialist.Registry, text string) core.RoutingDecision {
	bare := specialist.NormalizeTag(strings.TrimFunc(text, func(r rune) bool { return !isWordRune(r) }))
	if registry.Has(bare) {
		return core.RoutingDecision{Tag: bare, Confidence: core.ConfidenceExact, Rationale: "exact label"}
	}

	seen := make(map[string]struct{})
	for _, tok := range tokenize(text) {
		seen[tok] = struct{}{}
	}
	var found []string
	for _, tag := range candidates(registry) {
		if _, ok := seen[tag]; ok {
			found = append(found, tag)
		}
	}

	switch len(found) {
	case 0:
		return core.FallbackDecision(fmt.Sprintf("unrecognized label %q", util.Truncate(strings.TrimSpace(text), 40)), nil)
	case 1:
		return core.RoutingDecision{Tag: found[0], Confidence: core.ConfidenceContained, Rationale: "label found in free text"}
	default:
		return core.RoutingDecision{
			Tag:        found[0],
			Confidence: core.ConfidenceAmbiguous,
			Rationale:  fmt.Sprintf("ambiguous labels %s, priority winner", strings.Join(found, ",")),
		}
	}
}
