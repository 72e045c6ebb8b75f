package core

// Confidence scale shared by classifiers. Values are monotonic with match
// quality; consumers display them next to the domain tag.
const (
	// ConfidenceExact is a bare response consisting of exactly one known tag.
	ConfidenceExact = 1.0
	// ConfidenceContained is a single known tag found inside free text.
	ConfidenceContained = 0.9
	// ConfidenceKeyword is a unique best keyword match (heuristic classifier).
	ConfidenceKeyword = 0.7
	// ConfidenceAmbiguous is several candidate tags resolved by priority order.
	ConfidenceAmbiguous = 0.5
	// ConfidenceKeywordTie is a keyword tie resolved by priority order.
	ConfidenceKeywordTie = 0.4
	// ConfidenceNone is a fallback because nothing matched or classification failed.
	ConfidenceNone = 0.0
)

// RoutingDecision is produced exactly once per turn before any generation.
// It is never mutated after creation.
type RoutingDecision struct {
	Tag        string  `json:"agent"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale,omitempty"`

	// Degraded is non-nil when classification failed and the decision is a
	// fallback. It is surfaced as a non-fatal status, never as a turn error.
	Degraded error `json:"-"`
}

// FallbackDecision returns the general decision with confidence 0.
func FallbackDecision(rationale string, cause error) RoutingDecision {
	return RoutingDecision{Tag: FallbackTag, Confidence: ConfidenceNone, Rationale: rationale, Degraded: cause}
}

// IsFallback reports whether the decision selected the reserved fallback tag.
func (d RoutingDecision) IsFallback() bool { return d.Tag == FallbackTag }
