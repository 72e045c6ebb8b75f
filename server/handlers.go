package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hupe1980/chatrouter/core"
	"github.com/hupe1980/chatrouter/dispatcher"
	"github.com/hupe1980/chatrouter/specialist"
	"github.com/hupe1980/chatrouter/stream"
)

const maxBodySize = 1 << 20

// ChatRequest is the inbound chat payload.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	Token     string `json:"token,omitempty"`
	Company   string `json:"company,omitempty"`
}

// ChatResponse is the body of the synchronous message endpoint.
type ChatResponse struct {
	Success    bool     `json:"success"`
	Response   string   `json:"response,omitempty"`
	Agent      string   `json:"agent,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	SessionID  string   `json:"session_id"`
	TurnID     string   `json:"turn_id,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// HistoryMessage is one message of a session history.
type HistoryMessage struct {
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Agent      string    `json:"agent,omitempty"`
	Confidence *float64  `json:"confidence,omitempty"`
	TurnID     string    `json:"turn_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// ChatHistory is the body of the history endpoint.
type ChatHistory struct {
	SessionID   string           `json:"session_id"`
	Messages    []HistoryMessage `json:"messages"`
	CreatedAt   time.Time        `json:"created_at"`
	LastUpdated time.Time        `json:"last_updated"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Detail: msg})
}

// statusFor maps admission errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case core.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrSessionBusy):
		return http.StatusConflict
	case errors.Is(err, core.ErrTooManyTurns):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeAdmissionError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "error", err)
		msg = "internal error"
	}
	writeError(w, status, msg)
}

// decodeRequest reads and authenticates a chat request.
func (s *Server) decodeRequest(r *http.Request) (ChatRequest, error) {
	var req ChatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		return req, core.NewValidationError("body", fmt.Errorf("invalid JSON: %w", err))
	}
	return req, s.authenticate(r, req)
}

func (s *Server) authenticate(r *http.Request, req ChatRequest) error {
	if err := s.opts.Authenticator.Authenticate(r.Context(), req.Token, req.Company); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return nil
}

func (req ChatRequest) turnRequest() dispatcher.TurnRequest {
	return dispatcher.TurnRequest{SessionID: req.SessionID, Message: req.Message}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRequest(r)
	if err != nil {
		s.writeAdmissionError(w, err)
		return
	}

	h, err := s.d.Dispatch(r.Context(), req.turnRequest())
	if err != nil {
		s.writeAdmissionError(w, err)
		return
	}
	w.Header().Set("X-Turn-ID", h.TurnID)
	w.Header().Set("X-Session-ID", h.SessionID)

	enc, err := stream.NewHTTPSSEEncoder(w)
	if err != nil {
		_ = s.d.Cancel(h.TurnID)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	err = stream.Pump(r.Context(), h.Events, h.Done, enc, func(o *stream.PumpOptions) {
		o.KeepAlive = s.opts.KeepAlive
	})
	if err != nil {
		s.logger.Debug("Event stream closed early", "turn_id", h.TurnID, "error", err)
		_ = s.d.Cancel(h.TurnID)
	}
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRequest(r)
	if err != nil {
		s.writeAdmissionError(w, err)
		return
	}

	res, err := s.d.Run(r.Context(), req.turnRequest())
	if res == nil {
		s.writeAdmissionError(w, err)
		return
	}
	w.Header().Set("X-Turn-ID", res.TurnID)

	body := ChatResponse{
		Success:   err == nil,
		SessionID: res.SessionID,
		TurnID:    res.TurnID,
		Agent:     res.Agent,
	}
	if err == nil {
		c := res.Confidence
		body.Response = res.Response
		body.Confidence = &c
	} else {
		body.Error = res.Error
		if body.Error == "" {
			body.Error = dispatcher.MessageGenerationError
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	hist, err := s.d.SessionStore().History(r.Context(), id, 0)
	if err != nil {
		s.logger.Error("Loading history failed", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if len(hist) == 0 {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	out := ChatHistory{
		SessionID:   id,
		Messages:    make([]HistoryMessage, 0, 2*len(hist)),
		CreatedAt:   hist[0].Timestamp,
		LastUpdated: hist[len(hist)-1].Timestamp,
	}
	for _, ex := range hist {
		c := ex.Confidence
		out.Messages = append(out.Messages,
			HistoryMessage{Role: "user", Content: ex.UserMessage, TurnID: ex.TurnID, Timestamp: ex.Timestamp},
			HistoryMessage{Role: "assistant", Content: ex.Response, Agent: ex.Agent, Confidence: &c, TurnID: ex.TurnID, Timestamp: ex.Timestamp},
		)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.d.Cancel(r.PathValue("id")); err != nil {
		if errors.Is(err, core.ErrTurnNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeAdmissionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Suggestions []specialist.Suggestion `json:"suggestions"`
	}{s.opts.Suggestions})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status      string `json:"status"`
		ActiveTurns int    `json:"active_turns"`
	}{"ok", s.d.Active()})
}
