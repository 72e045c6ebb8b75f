// Package openai provides an implementation of model.Provider using the OpenAI
// Chat Completions API (including streaming). It adapts the normalized
// model.Request into the SDK's message format and back.
package openai

import (
	"context"
	"errors"
	"strings"

	"github.com/hupe1980/chatrouter/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const providerName = "openai"

// Options configure the OpenAI provider adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
	BaseURL             string
}

// Provider wraps the OpenAI Chat Completions API behind model.Provider.
type Provider struct {
	client *openai.Client
	opts   Options
}

var _ model.Provider = (*Provider)(nil)

func defaultOptions() Options {
	return Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 1024,
	}
}

// New creates a new OpenAI provider using the official client. The API key
// falls back to the OPENAI_API_KEY environment variable.
func New(optFns ...func(o *Options)) *Provider {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := openai.NewClient(clientOpts...)
	return &Provider{client: &client, opts: opts}
}

// NewFromClient creates a new OpenAI provider from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Provider {
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
		p.handleNonStreaming(ctx, params, out, errCh)
	}()
	return out, errCh
}

// buildMessages converts normalized messages into OpenAI chat messages.
func buildMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case model.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Text))
		default:
			messages = append(messages, openai.UserMessage(m.Text))
		}
	}
	return messages
}

func (p *Provider) buildParams(req model.Request) openai.ChatCompletionNewParams {
	temp := p.opts.Temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	maxTokens := p.opts.MaxCompletionTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	return openai.ChatCompletionNewParams{
		Messages:            buildMessages(req),
		Model:               p.opts.Model,
		Temperature:         openai.Float(temp),
		MaxCompletionTokens: openai.Int(maxTokens),
	}
}

// handleStreaming forwards content deltas as partial responses followed by
// the aggregated final response.
func (p *Provider) handleStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	var textBuilder strings.Builder
	finish := ""
	for stream.Next() {
		ck := stream.Current()
		for _, ch := range ck.Choices {
			if ch.Delta.Content != "" {
				textBuilder.WriteString(ch.Delta.Content)
				if !model.Send(ctx, out, model.Response{Partial: true, Text: ch.Delta.Content}) {
					errCh <- ctx.Err()
					return
				}
			}
			if ch.FinishReason != "" {
				finish = ch.FinishReason
			}
		}
	}
	if err := stream.Err(); err != nil {
		errCh <- classify(err)
		return
	}
	if textBuilder.Len() == 0 {
		errCh <- model.NewProviderError(providerName, model.Fatal, model.ErrEmptyResponse)
		return
	}
	if !model.Send(ctx, out, model.Response{Text: textBuilder.String(), FinishReason: finish}) {
		errCh <- ctx.Err()
	}
}

// handleNonStreaming processes a normal (non-streaming) completion.
func (p *Provider) handleNonStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		errCh <- classify(err)
		return
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		errCh <- model.NewProviderError(providerName, model.Fatal, model.ErrEmptyResponse)
		return
	}
	ch0 := resp.Choices[0]
	if !model.Send(ctx, out, model.Response{Text: ch0.Message.Content, FinishReason: ch0.FinishReason}) {
		errCh <- ctx.Err()
	}
}

func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return model.NewProviderError(providerName, model.KindForStatus(apiErr.StatusCode), err)
	}
	return model.NewProviderError(providerName, model.Transient, err)
}

// Info returns metadata describing this OpenAI provider implementation.
func (p *Provider) Info() model.Info {
	return model.Info{Name: p.opts.Model, Provider: providerName}
}
