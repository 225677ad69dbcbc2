package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/user/planstream/internal/planner"
	"github.com/user/planstream/internal/stream"
)

const wsRequestTimeout = 30 * time.Second

func (h *handler) plan(w http.ResponseWriter, r *http.Request) {
	if h.planner == nil {
		jsonError(w, http.StatusServiceUnavailable, h.unavailable)
		return
	}
	var req planner.Request
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	streamHeaders(w)
	w.WriteHeader(http.StatusOK)
	if err := h.planner.Run(r.Context(), req, stream.NewEmitter(w)); err != nil {
		slog.Warn("plan request ended with error", "error", err)
	}
}

// planWebSocket reads one request message, then streams each event as a text
// message and closes normally after the terminal event.
func (h *handler) planWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.planner == nil {
		jsonError(w, http.StatusServiceUnavailable, h.unavailable)
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	readCtx, cancel := context.WithTimeout(r.Context(), wsRequestTimeout)
	typ, data, err := conn.Read(readCtx)
	cancel()
	if err != nil {
		slog.Debug("websocket request read failed", "error", err)
		return
	}

	var req planner.Request
	err = errors.New("expected a text message")
	if typ == websocket.MessageText {
		err = decodeStrict(bytes.NewReader(data), &req)
		if err == nil {
			err = req.Validate()
		}
	}
	if err != nil {
		msg, _ := json.Marshal(errorBody{Error: err.Error()})
		_ = conn.Write(r.Context(), websocket.MessageText, msg)
		conn.Close(websocket.StatusInvalidFramePayloadData, "invalid request")
		return
	}

	// CloseRead cancels ctx once the client goes away.
	ctx := conn.CloseRead(r.Context())
	em := stream.NewEmitter(&messageWriter{ctx: ctx, conn: conn})
	if err := h.planner.Run(ctx, req, em); err != nil {
		slog.Warn("websocket plan request ended with error", "error", err)
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

// messageWriter sends each emitter line as one text message.
type messageWriter struct {
	ctx  context.Context
	conn *websocket.Conn
}

func (m *messageWriter) Write(p []byte) (int, error) {
	if err := m.conn.Write(m.ctx, websocket.MessageText, bytes.TrimRight(p, "\n")); err != nil {
		return 0, err
	}
	return len(p), nil
}
