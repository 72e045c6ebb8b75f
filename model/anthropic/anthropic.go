// Package anthropic provides a model.Provider wrapper for the Anthropic Claude API.
package anthropic

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/chatrouter/model"
)

const providerName = "anthropic"

// Options configures the Anthropic provider adapter (temperature, model id,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Provider wraps the Anthropic Messages API behind model.Provider.
type Provider struct {
	client *anthropic.Client
	opts   Options
}

var _ model.Provider = (*Provider)(nil)

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   1024,
	}
}

// New creates a new Anthropic provider using the official client.
func New(optFns ...func(o *Options)) *Provider {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Provider{client: &client, opts: opts}
}

// NewFromClient creates a new Anthropic provider from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Provider {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{client: client, opts: opts}
}

// Generate implements unified streaming / non-streaming generation.
func (p *Provider) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := p.buildParams(req)
		if req.Stream {
			p.handleStreaming(ctx, params, out, errCh)
			return
		}

		resp, err := p.client.Messages.New(ctx, params)
		if err != nil {
			errCh <- classify(err)
			return
		}

		sendFinal(ctx, resp, out, errCh)
	}()

	return out, errCh
}

func (p *Provider) buildParams(req model.Request) anthropic.MessageNewParams {
	temp := p.opts.Temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	maxTokens := p.opts.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:       p.opts.Model,
		Messages:    buildMessages(req.Messages),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(temp),
	}
	if req.Instructions != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.Instructions}}
	}
	return params
}

// buildMessages converts normalized messages to Anthropic message format.
func buildMessages(msgs []model.Message) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		if m.Text == "" {
			continue
		}
		block := anthropic.NewTextBlock(m.Text)
		if m.Role == model.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
			continue
		}
		messages = append(messages, anthropic.NewUserMessage(block))
	}
	return messages
}

// handleStreaming consumes the Messages SSE stream, forwarding text deltas
// and accumulating the message for the final response.
func (p *Provider) handleStreaming(
	ctx context.Context,
	params anthropic.MessageNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	stream := p.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			errCh <- model.NewProviderError(providerName, model.Fatal, err)
			return
		}
		ev, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		delta, ok := ev.Delta.AsAny().(anthropic.TextDelta)
		if !ok || delta.Text == "" {
			continue
		}
		if !model.Send(ctx, out, model.Response{Partial: true, Text: delta.Text}) {
			errCh <- ctx.Err()
			return
		}
	}
	if err := stream.Err(); err != nil {
		errCh <- classify(err)
		return
	}
	sendFinal(ctx, &message, out, errCh)
}

// messageText joins the text blocks of msg and maps its stop reason.
func messageText(msg *anthropic.Message) (string, string) {
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	finishReason := "stop"
	if msg.StopReason != "" {
		finishReason = string(msg.StopReason)
	}
	return sb.String(), finishReason
}

func sendFinal(ctx context.Context, msg *anthropic.Message, out chan<- model.Response, errCh chan<- error) {
	text, finishReason := messageText(msg)
	if text == "" {
		errCh <- model.NewProviderError(providerName, model.Fatal, model.ErrEmptyResponse)
		return
	}
	if !model.Send(ctx, out, model.Response{Text: text, FinishReason: finishReason}) {
		errCh <- ctx.Err()
	}
}

func classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return model.NewProviderError(providerName, model.KindForStatus(apiErr.StatusCode), err)
	}
	return model.NewProviderError(providerName, model.Transient, err)
}

// Info returns metadata describing this Anthropic provider implementation.
func (p *Provider) Info() model.Info {
	return model.Info{Name: string(p.opts.Model), Provider: providerName}
}
