package router

import (
	"fmt"
	"strings"

	"github.com/hupe1980/chatrouter/core"
	"github.com/hupe1980/chatrouter/specialist"
)

// keywordHits counts descriptor keywords present in the padded, normalized
// message. A trailing "*" marks a prefix keyword.
func keywordHits(padded string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if stem, ok := strings.CutSuffix(kw, "*"); ok {
			if strings.Contains(padded, " "+stem) {
				hits++
			}
			continue
		}
		if strings.Contains(padded, " "+kw+" ") {
			hits++
		}
	}
	return hits
}

// MatchKeywords is the provider-free heuristic classifier. A unique best
// score yields ConfidenceKeyword, a tie yields the priority winner with
// ConfidenceKeywordTie and no hit yields the fallback.
func MatchKeywords(registry *specialist.Registry, message string) core.RoutingDecision {
	padded := " " + strings.Join(tokenize(message), " ") + " "

	best, bestTag, ties := 0, "", 0
	for _, d := range registry.Descriptors() {
		n := keywordHits(padded, d.Keywords)
		switch {
		case n == 0:
		case n > best:
			best, bestTag, ties = n, d.Tag, 1
		case n == best:
			ties++
		}
	}

	switch {
	case best == 0:
		return core.FallbackDecision("no keyword matched", nil)
	case ties > 1:
		return core.RoutingDecision{
			Tag:        bestTag,
			Confidence: core.ConfidenceKeywordTie,
			Rationale:  fmt.Sprintf("keyword tie (%d hits), priority winner", best),
		}
	default:
		return core.RoutingDecision{
			Tag:        bestTag,
			Confidence: core.ConfidenceKeyword,
			Rationale:  fmt.Sprintf("keyword match (%d hits)", best),
		}
	}
}
