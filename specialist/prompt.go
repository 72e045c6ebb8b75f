package specialist

import (
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/chatrouter/core"
	"github.com/hupe1980/chatrouter/internal/util"
)

// StartOfConversation is rendered when a session has no history yet.
const StartOfConversation = "This is the start of the conversation."

// DateLayout formats the current date handed to time-aware prompts.
const DateLayout = "2006-01-02"

// Input is the per-turn material a specialist prompt is rendered from.
type Input struct {
	Message string
	History []core.Exchange
	Profile *Profile
	Now     time.Time
}

// Prompt is a rendered specialist prompt.
type Prompt struct {
	System string
	User   string
}

// FormatHistory renders exchanges as alternating "User:" / "Assistant:" lines.
func FormatHistory(history []core.Exchange) string {
	if len(history) == 0 {
		return StartOfConversation
	}
	var sb strings.Builder
	for i, ex := range history {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "User: %s", ex.UserMessage)
		if ex.Response != "" {
			fmt.Fprintf(&sb, "\nAssistant: %s", ex.Response)
		}
	}
	return sb.String()
}

// BuildPrompt renders the system prompt and the user prompt of d for in.
func BuildPrompt(d Descriptor, in Input) (Prompt, error) {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	name := ""
	if in.Profile != nil {
		name = in.Profile.Name
	}
	system, err := util.RenderTemplate(d.SystemPrompt, map[string]any{
		"ResponseFormat":    ResponseFormatRules,
		"ContentRules":      ContentRules,
		"AntiHallucination": AntiHallucinationNote,
		"Today":             now.Format(DateLayout),
		"Name":              name,
		"Tag":               d.Tag,
	})
	if err != nil {
		return Prompt{}, fmt.Errorf("specialist %q: %w", d.Tag, err)
	}

	title := d.DataTitle
	if title == "" {
		title = "My Information:"
	}
	instruction := d.Instruction
	if instruction == "" {
		instruction = "Respond as the candidate."
	}

	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteByte('\n')
	sb.WriteString(in.Profile.Section(d.ContextKeys...))
	sb.WriteString("\n\nConversation Context:\n")
	sb.WriteString(FormatHistory(in.History))
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(strings.TrimSpace(in.Message))
	sb.WriteString("\n\n")
	sb.WriteString(instruction)

	return Prompt{System: strings.TrimSpace(system), User: sb.String()}, nil
}
