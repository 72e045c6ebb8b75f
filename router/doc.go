// Package router classifies an incoming message into a specialist domain.
//
// The default mode asks the generation provider for a bare label and
// validates the answer against the specialist registry (ParseDecision). The
// keyword mode scores descriptor keywords locally (MatchKeywords). Either way
// routing never fails a turn: provider failures and unrecognized answers fall
// back to the reserved general tag with confidence 0.
//
// Confidence scale, monotonic with match quality:
//
//	1.0  bare single label
//	0.9  single label inside free text
//	0.7  unique best keyword match
//	0.5  several labels, priority winner
//	0.4  keyword tie, priority winner
//	0.0  fallback (no match or classification failure)
package router
