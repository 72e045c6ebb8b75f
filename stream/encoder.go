package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hupe1980/chatrouter/core"
)

// ErrFlushUnsupported is returned when the response writer cannot flush.
var ErrFlushUnsupported = errors.New("streaming not supported by response writer")

// Encoder writes events in emission order.
type Encoder interface {
	Encode(ev core.Event) error
}

// SetSSEHeaders prepares h for an event stream.
func SetSSEHeaders(h http.Header) {
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// SSEEncoder writes Server-Sent Events frames and flushes after each one.
type SSEEncoder struct {
	w       io.Writer
	flusher http.Flusher
}

var _ Encoder = (*SSEEncoder)(nil)

// NewSSEEncoder creates an encoder on w. Writers implementing http.Flusher
// are flushed after every frame.
func NewSSEEncoder(w io.Writer) *SSEEncoder {
	f, _ := w.(http.Flusher)
	return &SSEEncoder{w: w, flusher: f}
}

// NewHTTPSSEEncoder sets the event stream headers on w and returns an
// encoder. It fails when w cannot flush.
func NewHTTPSSEEncoder(w http.ResponseWriter) (*SSEEncoder, error) {
	if _, ok := w.(http.Flusher); !ok {
		return nil, ErrFlushUnsupported
	}
	SetSSEHeaders(w.Header())
	w.WriteHeader(http.StatusOK)
	return NewSSEEncoder(w), nil
}

// Encode implements Encoder.
func (e *SSEEncoder) Encode(ev core.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Type, err)
	}
	if _, err := fmt.Fprintf(e.w, "event: %s\nid: %d\ndata: %s\n\n", ev.Type, ev.Seq, data); err != nil {
		return err
	}
	e.Flush()
	return nil
}

// Comment writes an SSE comment line, used as keep-alive.
func (e *SSEEncoder) Comment(text string) error {
	if _, err := fmt.Fprintf(e.w, ": %s\n\n", text); err != nil {
		return err
	}
	e.Flush()
	return nil
}

// Flush flushes the underlying writer if it supports it.
func (e *SSEEncoder) Flush() {
	if e.flusher != nil {
		e.flusher.Flush()
	}
}

// WSEncoder writes one JSON text message per event on a WebSocket
// connection. It is safe for concurrent use.
type WSEncoder struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
}

var _ Encoder = (*WSEncoder)(nil)

// NewWSEncoder creates an encoder on conn. writeTimeout <= 0 disables the
// per-message write deadline.
func NewWSEncoder(conn *websocket.Conn, writeTimeout time.Duration) *WSEncoder {
	return &WSEncoder{conn: conn, writeTimeout: writeTimeout}
}

// Encode implements Encoder.
func (e *WSEncoder) Encode(ev core.Event) error {
	return e.WriteJSON(ev)
}

// WriteJSON writes v as one text message.
func (e *WSEncoder) WriteJSON(v any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.writeTimeout > 0 {
		if err := e.conn.SetWriteDeadline(time.Now().Add(e.writeTimeout)); err != nil {
			return err
		}
	}
	return e.conn.WriteJSON(v)
}

// KeepAliveComment is the text of keep-alive comment frames.
const KeepAliveComment = "keep-alive"

// Commenter is implemented by encoders that can write a frame clients ignore.
type Commenter interface {
	Comment(text string) error
}

// PumpOptions configures Pump.
type PumpOptions struct {
	// KeepAlive writes a comment frame at this interval on encoders
	// implementing Commenter. Zero disables it.
	KeepAlive time.Duration
}

// Pump drains events through enc until the channel closes. Once done is
// closed it returns nil and drops whatever is still queued; a nil done never
// fires. It stops early when ctx is done or the encoder fails. The caller is
// expected to cancel the producing turn in that case.
func Pump(ctx context.Context, events <-chan core.Event, done <-chan struct{}, enc Encoder, optFns ...func(o *PumpOptions)) error {
	var opts PumpOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	var tick <-chan time.Time
	commenter, canComment := enc.(Commenter)
	if canComment && opts.KeepAlive > 0 {
		t := time.NewTicker(opts.KeepAlive)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			return nil
		case <-tick:
			if err := commenter.Comment(KeepAliveComment); err != nil {
				return err
			}
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			select {
			case <-done:
				return nil
			default:
			}
			if err := enc.Encode(ev); err != nil {
				return err
			}
		}
	}
}
