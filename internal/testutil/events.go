package testutil

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/hupe1980/chatrouter/core"
)

// Collect drains events until the channel closes or timeout elapses.
func Collect(t testing.TB, events <-chan core.Event, timeout time.Duration) []core.Event {
	t.Helper()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	var out []core.Event
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-deadline.C:
			t.Fatalf("event stream not closed after %s (got %s)", timeout, Sequence(out))
			return out
		}
	}
}

// CollectUntil reads events until stop returns true for one of them, which
// is included in the result.
func CollectUntil(t testing.TB, events <-chan core.Event, timeout time.Duration, stop func(core.Event) bool) []core.Event {
	t.Helper()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	var out []core.Event
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("event stream closed before stop condition (got %s)", Sequence(out))
				return out
			}
			out = append(out, ev)
			if stop(ev) {
				return out
			}
		case <-deadline.C:
			t.Fatalf("stop condition not reached after %s (got %s)", timeout, Sequence(out))
			return out
		}
	}
}

// Types returns the event types in order.
func Types(events []core.Event) []core.EventType {
	out := make([]core.EventType, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}

// Sequence renders event types as a comma separated string.
func Sequence(events []core.Event) string {
	parts := make([]string, len(events))
	for i, ev := range events {
		parts[i] = string(ev.Type)
	}
	return strings.Join(parts, ",")
}

var letters = map[core.EventType]string{
	core.EventStatus:       "S",
	core.EventDomainChange: "D",
	core.EventToken:        "T",
	core.EventResponse:     "R",
	core.EventDone:         "F",
	core.EventError:        "E",
}

var (
	successGrammar = regexp.MustCompile(`^S*D(T*|R)F$`)
	failureGrammar = regexp.MustCompile(`^S*DT*E$`)
)

func encode(events []core.Event) string {
	var sb strings.Builder
	for _, ev := range events {
		l, ok := letters[ev.Type]
		if !ok {
			l = "?"
		}
		sb.WriteString(l)
	}
	return sb.String()
}

// AssertSuccess checks status*, domain_change, (token* | response), done.
func AssertSuccess(t testing.TB, events []core.Event) {
	t.Helper()
	if !successGrammar.MatchString(encode(events)) {
		t.Errorf("unexpected success sequence: %s", Sequence(events))
	}
	AssertSeq(t, events)
}

// AssertFailure checks status*, domain_change, token*, error.
func AssertFailure(t testing.TB, events []core.Event) {
	t.Helper()
	if !failureGrammar.MatchString(encode(events)) {
		t.Errorf("unexpected failure sequence: %s", Sequence(events))
	}
	AssertSeq(t, events)
}

// AssertSeq checks that sequence numbers start at 1 and increase by one.
func AssertSeq(t testing.TB, events []core.Event) {
	t.Helper()
	for i, ev := range events {
		if ev.Seq != i+1 {
			t.Errorf("event %d (%s) has seq %d, want %d", i, ev.Type, ev.Seq, i+1)
			return
		}
	}
}

// Tokens concatenates the content of token events.
func Tokens(events []core.Event) string {
	var sb strings.Builder
	for _, ev := range events {
		if ev.Type == core.EventToken {
			sb.WriteString(ev.Content)
		}
	}
	return sb.String()
}

// Find returns the first event of type typ.
func Find(events []core.Event, typ core.EventType) (core.Event, bool) {
	for _, ev := range events {
		if ev.Type == typ {
			return ev, true
		}
	}
	return core.Event{}, false
}
