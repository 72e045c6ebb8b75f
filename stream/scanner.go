package stream

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hupe1980/chatrouter/core"
)

const maxFrameSize = 1 << 20

// Frame is one raw Server-Sent Events frame.
type Frame struct {
	Event string `json:"event"`
	Data  string `json:"data"`
	ID    string `json:"id"`
}

// Scanner reads SSE frames from an event stream.
type Scanner struct {
	scanner *bufio.Scanner
}

// NewScanner creates a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxFrameSize)
	return &Scanner{scanner: s}
}

// Scan reads the next frame. It returns io.EOF at the end of the input.
// Comment lines and unknown fields are skipped.
func (s *Scanner) Scan() (*Frame, error) {
	f := &Frame{}
	var err error
	var read bool
	for s.scanner.Scan() {
		l := s.scanner.Text()
		if l == "" {
			if !read {
				// Blank lines between frames, or a frame made only of comments.
				continue
			}
			break
		}
		colon := strings.Index(l, ":")
		if colon == 0 {
			continue
		}
		read = true
		if colon < 0 {
			err = errors.Join(err, fmt.Errorf("colon not found: %s", l))
			continue
		}
		value := strings.TrimPrefix(l[colon+1:], " ")
		switch l[:colon] {
		case "event":
			f.Event = value
		case "data":
			if f.Data != "" {
				f.Data += "\n" + value
			} else {
				f.Data = value
			}
		case "id":
			f.ID = value
		}
	}
	if serr := s.scanner.Err(); serr != nil {
		return nil, serr
	}
	if !read {
		return nil, io.EOF
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Next reads the next frame and decodes its data as a core.Event. The
// frame event name wins over a missing type in the payload.
func (s *Scanner) Next() (core.Event, error) {
	f, err := s.Scan()
	if err != nil {
		return core.Event{}, err
	}
	var ev core.Event
	if err := json.Unmarshal([]byte(f.Data), &ev); err != nil {
		return core.Event{}, fmt.Errorf("decode frame %q: %w", f.ID, err)
	}
	if ev.Type == "" {
		ev.Type = core.EventType(f.Event)
	}
	return ev, nil
}
