package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// ErrClosed is returned by Send after a terminal event was sent.
var ErrClosed = errors.New("stream closed")

const timestampLayout = "2006-01-02T15:04:05.000Z"

// Emitter writes events as newline-delimited JSON. It is safe for concurrent
// use, though the pipeline only sends from one goroutine.
type Emitter struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
	now     func() time.Time
	closed  bool
	broken  bool
	sent    int
}

// NewEmitter writes events to w, flushing after each when w is an http.Flusher.
func NewEmitter(w io.Writer) *Emitter {
	e := &Emitter{w: w, now: time.Now}
	if f, ok := w.(http.Flusher); ok {
		e.flusher = f
	}
	return e
}

// Send stamps and writes one event. A write failure marks the emitter broken;
// later events are dropped without error so the pipeline keeps going.
func (e *Emitter) Send(ev Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	h := ev.header()
	h.Type = ev.eventType()
	h.Timestamp = e.now().UTC().Format(timestampLayout)
	if isTerminal(ev) {
		e.closed = true
	}
	if e.broken {
		return nil
	}

	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", h.Type, err)
	}
	line = append(line, '\n')
	if _, err := e.w.Write(line); err != nil {
		e.broken = true
		slog.Debug("event stream write failed, dropping further events", "type", h.Type, "error", err)
		return nil
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	e.sent++
	return nil
}

// Closed reports whether a terminal event was sent.
func (e *Emitter) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Broken reports whether the caller stopped accepting events.
func (e *Emitter) Broken() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.broken
}

// Sent is the number of events actually written.
func (e *Emitter) Sent() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sent
}
