package chatrouter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/hupe1980/chatrouter/config"
	"github.com/hupe1980/chatrouter/core"
	"github.com/hupe1980/chatrouter/internal/testutil"
	"github.com/hupe1980/chatrouter/model"
	"github.com/hupe1980/chatrouter/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRouter_RunAndHistory(t *testing.T) {
	p := model.NewMockProvider("mock").
		On(router.RequestName, model.MockReply{Text: "TECHNICAL"}).
		On("technical", model.MockReply{Text: "I write Go."})
	cr := New(p)
	t.Cleanup(func() { _ = cr.Close(context.Background()) })

	res, err := cr.Run(context.Background(), "s1", "Which languages?")
	require.NoError(t, err)
	assert.Equal(t, "technical", res.Agent)
	assert.Equal(t, "I write Go.", res.Response)

	h, err := cr.History(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, h, 1)
	assert.Equal(t, "Which languages?", h[0].UserMessage)
}

func TestChatRouter_Dispatch(t *testing.T) {
	p := model.NewMockProvider("mock").On(router.RequestName, model.MockReply{Text: "HELP"})
	cr := New(p)

	h, err := cr.Dispatch(context.Background(), "", "How does this work?")
	require.NoError(t, err)
	events := testutil.Collect(t, h.Events, 3*time.Second)
	testutil.AssertSuccess(t, events)
	require.NoError(t, cr.Close(context.Background()))
}

func TestChatRouter_KeywordRoute(t *testing.T) {
	cr := New(nil, func(o *Options) { o.RouterMode = router.ModeKeyword })

	d, err := cr.Route(context.Background(), "", "What programming languages do you use?")
	require.NoError(t, err)
	assert.Equal(t, "technical", d.Tag)
	assert.Equal(t, core.ConfidenceKeyword, d.Confidence)

	_, err = cr.Route(context.Background(), "", "")
	assert.True(t, core.IsValidationError(err))
}

func TestChatRouter_Handler(t *testing.T) {
	cr := New(model.NewMockProvider("mock"))
	srv := httptest.NewServer(cr.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Provider.Kind = config.ProviderMock
	cfg.Router.Mode = router.ModeKeyword
	cfg.Session.Backend = config.SessionBadger
	cfg.Session.Dir = filepath.Join(t.TempDir(), "sessions")
	require.NoError(t, cfg.Validate())

	cr, err := FromConfig(context.Background(), cfg, nil)
	require.NoError(t, err)

	res, err := cr.Run(context.Background(), "s1", "Tell me about your education")
	require.NoError(t, err)
	assert.Equal(t, "background", res.Agent)

	h, err := cr.History(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, h, 1)
	require.NoError(t, cr.Close(context.Background()))
}

func TestNewProvider(t *testing.T) {
	for _, kind := range []string{config.ProviderOpenAI, config.ProviderAnthropic, config.ProviderMock} {
		p, err := NewProvider(context.Background(), config.ProviderConfig{Kind: kind, APIKey: "test"})
		require.NoError(t, err, kind)
		assert.NotEmpty(t, p.Info().Provider)
	}
	_, err := NewProvider(context.Background(), config.ProviderConfig{Kind: "llama"})
	assert.Error(t, err)
}
