// Package gemini provides a model.Provider backed by the Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"strings"

	"github.com/hupe1980/chatrouter/model"
	"google.golang.org/genai"
)

const providerName = "gemini"

// Options configures the Gemini provider adapter.
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int32
	APIKey      string
	Backend     string // "gemini" or "vertex"; empty selects the SDK default
	Project     string
	Location    string
}

// Provider wraps genai Models.GenerateContent behind model.Provider.
type Provider struct {
	client *genai.Client
	opts   Options
}

var _ model.Provider = (*Provider)(nil)

func defaultOptions() Options {
	return Options{
		Model:       "gemini-2.5-flash",
		Temperature: 0.7,
		MaxTokens:   1024,
	}
}

// New creates a Gemini provider. The API key falls back to GEMINI_API_KEY
// when empty.
func New(ctx context.Context, optFns ...func(o *Options)) (*Provider, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	backend := genai.BackendUnspecified
	switch opts.Backend {
	case "gemini":
		backend = genai.BackendGeminiAPI
	case "vertex":
		backend = genai.BackendVertexAI
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:   opts.APIKey,
		Backend:  backend,
		Project:  opts.Project,
		Location: opts.Location,
	})
	if err != nil {
		return nil, err
	}
	return &Provider{client: client, opts: opts}, nil
}

// NewFromClient creates a Gemini provider from an existing client.
func NewFromClient(client *genai.Client, optFns ...func(o *Options)) *Provider {
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

		cfg, contents := p.convRequest(req)
		if !req.Stream {
			resp, err := p.client.Models.GenerateContent(ctx, p.opts.Model, contents, cfg)
			if err != nil {
				errCh <- classify(err)
				return
			}
			text, finish := candidateText(resp)
			if text == "" {
				errCh <- model.NewProviderError(providerName, model.Fatal, model.ErrEmptyResponse)
				return
			}
			if !model.Send(ctx, out, model.Response{Text: text, FinishReason: finish}) {
				errCh <- ctx.Err()
			}
			return
		}

		var sb strings.Builder
		finish := ""
		for chunk, err := range p.client.Models.GenerateContentStream(ctx, p.opts.Model, contents, cfg) {
			if err != nil {
				errCh <- classify(err)
				return
			}
			text, fr := candidateText(chunk)
			if fr != "" {
				finish = fr
			}
			if text == "" {
				continue
			}
			sb.WriteString(text)
			if !model.Send(ctx, out, model.Response{Partial: true, Text: text}) {
				errCh <- ctx.Err()
				return
			}
		}
		if sb.Len() == 0 {
			errCh <- model.NewProviderError(providerName, model.Fatal, model.ErrEmptyResponse)
			return
		}
		if !model.Send(ctx, out, model.Response{Text: sb.String(), FinishReason: finish}) {
			errCh <- ctx.Err()
		}
	}()

	return out, errCh
}

func (p *Provider) convRequest(req model.Request) (*genai.GenerateContentConfig, []*genai.Content) {
	temp := p.opts.Temperature
	if req.Temperature != nil {
		temp = float32(*req.Temperature)
	}
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: p.opts.MaxTokens,
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Instructions != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(req.Instructions)}}
	}
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == model.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}
	return cfg, contents
}

func candidateText(resp *genai.GenerateContentResponse) (string, string) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ""
	}
	c := resp.Candidates[0]
	var sb strings.Builder
	if c.Content != nil {
		for _, part := range c.Content.Parts {
			if part.Text != "" && !part.Thought {
				sb.WriteString(part.Text)
			}
		}
	}
	return sb.String(), string(c.FinishReason)
}

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return model.NewProviderError(providerName, model.KindForStatus(apiErr.Code), err)
	}
	return model.NewProviderError(providerName, model.Transient, err)
}

// Info returns metadata describing this Gemini provider implementation.
func (p *Provider) Info() model.Info {
	return model.Info{Name: p.opts.Model, Provider: providerName}
}
