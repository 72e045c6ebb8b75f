package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/chatrouter/core"
	"github.com/hupe1980/chatrouter/logging"
	"github.com/hupe1980/chatrouter/model"
	"github.com/hupe1980/chatrouter/specialist"
)

// Classification modes.
const (
	// ModeLLM asks the generation provider for a bare domain label.
	ModeLLM = "llm"
	// ModeKeyword scores descriptor keywords without any provider call.
	ModeKeyword = "keyword"
)

// RequestName is the model.Request name used for classification calls.
const RequestName = "router"

// DefaultHistoryWindow bounds the exchanges included in the classification prompt.
const DefaultHistoryWindow = 5

// Options configures a Router.
type Options struct {
	Mode          string
	HistoryWindow int
	Temperature   float64
	// SystemPrompt overrides the generated classification prompt.
	SystemPrompt string
	Logger       logging.Logger
}

// Router maps a message plus bounded history onto a RoutingDecision whose
// tag is always a registered tag or the fallback tag.
type Router struct {
	registry *specialist.Registry
	provider model.Provider
	opts     Options
	system   string
	logger   logging.Logger
}

// New creates a Router. A nil provider forces keyword mode.
func New(registry *specialist.Registry, provider model.Provider, optFns ...func(o *Options)) *Router {
	opts := Options{
		Mode:          ModeLLM,
		HistoryWindow: DefaultHistoryWindow,
		Temperature:   0.3,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if provider == nil {
		opts.Mode = ModeKeyword
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = DefaultHistoryWindow
	}
	system := opts.SystemPrompt
	if system == "" {
		system = ClassificationPrompt(registry)
	}
	return &Router{
		registry: registry,
		provider: provider,
		opts:     opts,
		system:   system,
		logger:   logging.OrNoOp(opts.Logger),
	}
}

// Mode returns the active classification mode.
func (r *Router) Mode() string { return r.opts.Mode }

// HistoryWindow returns the number of exchanges passed to classification.
func (r *Router) HistoryWindow() int { return r.opts.HistoryWindow }

// Route classifies message. The only error is a ValidationError for an empty
// message; classification failures yield a fallback decision with Degraded set.
func (r *Router) Route(ctx context.Context, message string, history []core.Exchange) (core.RoutingDecision, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return core.RoutingDecision{}, core.NewValidationError("message", core.ErrEmptyMessage)
	}
	history = core.LastN(history, r.opts.HistoryWindow)

	start := time.Now()
	var decision core.RoutingDecision
	if r.opts.Mode == ModeKeyword {
		decision = MatchKeywords(r.registry, message)
	} else {
		decision = r.classify(ctx, message, history)
	}
	r.logger.Debug("Routing decision",
		"mode", r.opts.Mode,
		"agent", decision.Tag,
		"confidence", decision.Confidence,
		"degraded", decision.Degraded != nil,
		"duration", time.Since(start),
	)
	return decision, nil
}

func (r *Router) classify(ctx context.Context, message string, history []core.Exchange) core.RoutingDecision {
	temp := r.opts.Temperature
	req := model.Request{
		Name:         RequestName,
		Instructions: r.system,
		Messages:     []model.Message{{Role: model.RoleUser, Text: classificationInput(message, history)}},
		Temperature:  &temp,
		MaxTokens:    16,
	}
	text, err := model.Complete(ctx, r.provider, req)
	if err != nil {
		r.logger.Warn("Intent classification failed, using fallback", "error", err, "transient", model.IsTransient(err))
		return core.FallbackDecision("classification failed", err)
	}
	return ParseDecision(r.registry, text)
}

func classificationInput(message string, history []core.Exchange) string {
	return fmt.Sprintf("Previous conversation context:\n%s\n\nUser message: %s\n\nWhich agent should handle this message? Respond with only the agent name.",
		specialist.FormatHistory(history), message)
}

// ClassificationPrompt enumerates every registered tag plus the fallback tag.
func ClassificationPrompt(registry *specialist.Registry) string {
	var sb strings.Builder
	sb.WriteString("You are a routing agent for a chatbot system. Your job is to analyze incoming messages and determine which specialist agent should handle them.\n\nAvailable agents:\n")
	names := make([]string, 0, registry.Len()+1)
	i := 1
	for _, d := range registry.Descriptors() {
		name := strings.ToUpper(d.Tag)
		names = append(names, name)
		fmt.Fprintf(&sb, "%d. %s - Handles %s\n", i, name, d.Description)
		i++
	}
	fb := registry.Fallback()
	fbName := strings.ToUpper(fb.Tag)
	names = append(names, fbName)
	fmt.Fprintf(&sb, "%d. %s - Handles %s\n", i, fbName, fb.Description)

	list := strings.Join(names[:len(names)-1], ", ") + ", or " + names[len(names)-1]
	fmt.Fprintf(&sb, "\nRespond with ONLY the agent name (%s) that should handle the message.", list)
	return sb.String()
}
