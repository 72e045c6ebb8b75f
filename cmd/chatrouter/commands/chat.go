package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/chatrouter/core"
	"github.com/hupe1980/chatrouter/server"
	"github.com/hupe1980/chatrouter/stream"
)

var (
	chatURL     string
	chatSession string
	chatToken   string
	chatQuiet   bool
)

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Send a message and render the streamed answer",
	Long: `Send one message and render the event stream.

Without --url the turn runs in-process using the configuration. With --url
the message is posted to a running server's SSE endpoint.

Examples:
  CHATROUTER_PROVIDER=mock chatrouter chat "What do you do?"
  chatrouter chat --url http://localhost:8080 --session s1 "Tell me more"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := strings.Join(args, " ")
		r := &renderer{w: cmd.OutOrStdout(), styles: newStyles(), quiet: chatQuiet}
		if chatURL != "" {
			return chatRemote(cmd.Context(), chatURL, server.ChatRequest{
				Message:   message,
				SessionID: chatSession,
				Token:     chatToken,
			}, r)
		}
		return chatLocal(cmd.Context(), message, r)
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatURL, "url", "u", "", "server base URL (runs in-process when empty)")
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "session id to continue")
	chatCmd.Flags().StringVar(&chatToken, "token", "", "access token")
	chatCmd.Flags().BoolVarP(&chatQuiet, "quiet", "q", false, "hide status lines")
}

func chatLocal(ctx context.Context, message string, r *renderer) error {
	cr, _, _, err := newChatRouter(ctx)
	if err != nil {
		return err
	}
	defer cr.Close(context.WithoutCancel(ctx))

	h, err := cr.Dispatch(ctx, chatSession, message)
	if err != nil {
		return err
	}
	for {
		ev, ok := h.Next(ctx)
		if !ok {
			break
		}
		r.Render(ev)
	}
	return nil
}

func chatRemote(ctx context.Context, baseURL string, req server.ChatRequest, r *renderer) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(baseURL, "/")+"/api/chat/message/stream", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	return renderStream(resp.Body, r)
}

// renderStream renders SSE frames until a terminal event or end of input.
func renderStream(body io.Reader, r *renderer) error {
	sc := stream.NewScanner(body)
	for {
		ev, err := sc.Next()
		if errors.Is(err, io.EOF) {
			return errors.New("stream ended without a terminal event")
		}
		if err != nil {
			return err
		}
		if r.Render(ev) {
			if ev.Type == core.EventError {
				return errors.New("turn failed")
			}
			return nil
		}
	}
}
