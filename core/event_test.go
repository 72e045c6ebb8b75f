package core

import (
	"encoding/json"
	"errors"
	"testing"
)

// Event constructor & helper method tests
func TestEvent_Constructors(t *testing.T) {
	st := NewStatusEvent("classifying intent")
	if st.Type != EventStatus || st.Message != "classifying intent" || st.Timestamp.IsZero() {
		t.Fatalf("NewStatusEvent malformed: %+v", st)
	}

	dc := NewDomainChangeEvent(RoutingDecision{Tag: "technical", Confidence: 0.9})
	if dc.Type != EventDomainChange || dc.Agent != "technical" || dc.ConfidenceValue() != 0.9 {
		t.Fatalf("NewDomainChangeEvent malformed: %+v", dc)
	}

	tok := NewTokenEvent("Go")
	if tok.Type != EventToken || tok.Content != "Go" || tok.Confidence != nil {
		t.Fatalf("NewTokenEvent malformed: %+v", tok)
	}

	done := NewDoneEvent("s1", "technical", 1, "full")
	if !done.IsTerminal() || done.SessionID != "s1" || done.Content != "full" {
		t.Fatalf("NewDoneEvent malformed: %+v", done)
	}

	if !NewErrorEvent("boom").IsTerminal() {
		t.Fatal("error event should be terminal")
	}
	if tok.IsTerminal() || st.IsTerminal() || dc.IsTerminal() {
		t.Fatal("non-terminal events reported terminal")
	}
}

func TestEvent_JSONOmitsIrrelevantFields(t *testing.T) {
	b, err := json.Marshal(NewTokenEvent("hi"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["type"] != "token" || m["content"] != "hi" {
		t.Fatalf("unexpected payload: %s", b)
	}
	for _, k := range []string{"agent", "confidence", "message"} {
		if _, ok := m[k]; ok {
			t.Fatalf("token event should not carry %q: %s", k, b)
		}
	}

	// Zero confidence must still be serialized on domain_change.
	b, _ = json.Marshal(NewDomainChangeEvent(FallbackDecision("", nil)))
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c, ok := m["confidence"]; !ok || c.(float64) != 0 {
		t.Fatalf("expected confidence 0, got %s", b)
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("message", ErrEmptyMessage)
	if !errors.Is(err, ErrEmptyMessage) {
		t.Fatal("expected ValidationError to wrap ErrEmptyMessage")
	}
	if !IsValidationError(err) {
		t.Fatal("expected IsValidationError")
	}
	if IsValidationError(errors.New("other")) {
		t.Fatal("plain error is not a validation error")
	}
}

func TestResolveSessionID(t *testing.T) {
	if got := ResolveSessionID("abc"); got != "abc" {
		t.Fatalf("expected abc, got %s", got)
	}
	a, b := ResolveSessionID(""), ResolveSessionID("  ")
	if a == "" || b == "" || a == b {
		t.Fatalf("expected distinct generated ids, got %q %q", a, b)
	}
}

func TestLastN(t *testing.T) {
	h := []Exchange{{TurnID: "1"}, {TurnID: "2"}, {TurnID: "3"}}
	if got := LastN(h, 2); len(got) != 2 || got[0].TurnID != "2" {
		t.Fatalf("unexpected window: %+v", got)
	}
	if got := LastN(h, 0); len(got) != 3 {
		t.Fatalf("limit 0 should return all, got %d", len(got))
	}
}
