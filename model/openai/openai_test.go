package openai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hupe1980/chatrouter/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, h http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	client := openai.NewClient(
		option.WithAPIKey("test"),
		option.WithBaseURL(srv.URL),
		option.WithMaxRetries(0),
	)
	return NewFromClient(&client)
}

func TestProvider_NonStreaming(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"TECHNICAL"}}]}`)
	})
	text, err := model.Complete(context.Background(), p, model.Request{
		Instructions: "classify",
		Messages:     []model.Message{{Role: model.RoleUser, Text: "What is Go?"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "TECHNICAL", text)
}

func TestProvider_Streaming(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, frag := range []string{"Hel", "lo"} {
			fmt.Fprintf(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"m\","+
				"\"choices\":[{\"index\":0,\"delta\":{\"content\":%q},\"finish_reason\":null}]}\n\n", frag)
		}
		fmt.Fprint(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"m\","+
			"\"choices\":[{\"index\":0,\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})
	out, errCh := p.Generate(context.Background(), model.Request{
		Stream:   true,
		Messages: []model.Message{{Role: model.RoleUser, Text: "hi"}},
	})
	var partials []string
	var final model.Response
	for r := range out {
		if r.Partial {
			partials = append(partials, r.Text)
			continue
		}
		final = r
	}
	require.NoError(t, <-errCh)
	assert.Equal(t, []string{"Hel", "lo"}, partials)
	assert.Equal(t, "Hello", final.Text)
	assert.Equal(t, "stop", final.FinishReason)
}

func TestProvider_ErrorClassification(t *testing.T) {
	tests := []struct {
		status    int
		transient bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, `{"error":{"message":"nope","type":"x"}}`)
			})
			_, err := model.Complete(context.Background(), p, model.Request{
				Messages: []model.Message{{Role: model.RoleUser, Text: "hi"}},
			})
			require.Error(t, err)
			var pe *model.ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, "openai", pe.Provider)
			assert.Equal(t, tt.transient, model.IsTransient(err))
		})
	}
}

func TestBuildParams_Overrides(t *testing.T) {
	p := NewFromClient(nil, func(o *Options) { o.Model = "gpt-test" })
	temp := 0.2
	params := p.buildParams(model.Request{
		Instructions: "sys",
		Messages: []model.Message{
			{Role: model.RoleUser, Text: "a"},
			{Role: model.RoleAssistant, Text: "b"},
			{Role: model.RoleUser, Text: "c"},
		},
		Temperature: &temp,
		MaxTokens:   64,
	})
	assert.Len(t, params.Messages, 4)
	assert.Equal(t, 0.2, params.Temperature.Value)
	assert.Equal(t, int64(64), params.MaxCompletionTokens.Value)
	assert.Equal(t, "gpt-test", p.Info().Name)
}
