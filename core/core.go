package core

import (
	"strings"

	"github.com/google/uuid"
)

// FallbackTag is the reserved domain tag selected whenever routing cannot
// resolve a registered specialist.
const FallbackTag = "general"

// NewID generates a new unique identifier for turns and events.
func NewID() string { return uuid.NewString() }

// ResolveSessionID returns id when it is non-blank, otherwise a fresh session id.
// An absent session id means "start a new session".
func ResolveSessionID(id string) string {
	if strings.TrimSpace(id) == "" {
		return NewID()
	}
	return id
}
