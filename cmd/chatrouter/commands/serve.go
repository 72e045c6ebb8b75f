package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/chatrouter/server"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat server",
	Long: `Run the HTTP server exposing the chat API.

Endpoints:
  POST   /api/chat/message/stream   Server-Sent Events
  POST   /api/chat/message          synchronous JSON
  GET    /api/chat/ws               WebSocket
  GET    /api/chat/history/{id}
  DELETE /api/chat/turns/{id}
  GET    /api/chat/suggestions
  GET    /healthz`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cr, cfg, logger, err := newChatRouter(ctx)
		if err != nil {
			return err
		}
		defer cr.Close(context.WithoutCancel(ctx))

		addr := cfg.Server.Listen
		if listenAddr != "" {
			addr = listenAddr
		}
		srv := cr.Handler(func(o *server.Options) {
			o.AllowedOrigins = cfg.Server.AllowedOrigins
			if cfg.Server.WriteTimeout > 0 {
				o.WSWriteTimeout = cfg.Server.WriteTimeout
			}
			o.KeepAlive = cfg.Server.KeepAlive
		})
		logger.Info("Serving chat API", "addr", addr)
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "listen address (overrides server.listen)")
}
