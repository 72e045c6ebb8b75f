package server

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/hupe1980/chatrouter/core"
	"github.com/hupe1980/chatrouter/stream"
)

// WebSocket client frame types.
const (
	FrameMessage = "message"
	FrameCancel  = "cancel"
)

// ClientFrame is a message sent by a WebSocket client. An empty type is
// treated as a chat message.
type ClientFrame struct {
	Type   string `json:"type,omitempty"`
	TurnID string `json:"turn_id,omitempty"`
	ChatRequest
}

// rejectFrame reports a request that never became a turn.
type rejectFrame struct {
	Type    core.EventType `json:"type"`
	Message string         `json:"message"`
	Code    int            `json:"code"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxBodySize)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	enc := stream.NewWSEncoder(conn, s.opts.WSWriteTimeout)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		var frame ClientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !errors.Is(err, context.Canceled) {
				s.logger.Debug("WebSocket read ended", "error", err)
			}
			// Cancels every turn of this connection.
			cancel()
			return
		}

		switch frame.Type {
		case FrameCancel:
			if err := s.d.Cancel(frame.TurnID); err != nil {
				_ = enc.WriteJSON(rejectFrame{Type: core.EventError, Message: err.Error(), Code: http.StatusNotFound})
			}
		case "", FrameMessage:
			if err := s.authenticate(r, frame.ChatRequest); err != nil {
				_ = enc.WriteJSON(rejectFrame{Type: core.EventError, Message: err.Error(), Code: statusFor(err)})
				continue
			}
			h, err := s.d.Dispatch(ctx, frame.turnRequest())
			if err != nil {
				_ = enc.WriteJSON(rejectFrame{Type: core.EventError, Message: err.Error(), Code: statusFor(err)})
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := stream.Pump(ctx, h.Events, h.Done, enc); err != nil {
					_ = s.d.Cancel(h.TurnID)
				}
			}()
		default:
			_ = enc.WriteJSON(rejectFrame{Type: core.EventError, Message: "unknown frame type " + frame.Type, Code: http.StatusBadRequest})
		}
	}
}
