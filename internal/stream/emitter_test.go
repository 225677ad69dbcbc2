package stream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/planstream/internal/planner"
)

func decodeLines(t *testing.T, raw []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m), "line=%s", sc.Text())
		out = append(out, m)
	}
	return out
}

func TestEmitterWritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf)
	e.now = func() time.Time { return time.Date(2026, 10, 19, 8, 30, 0, 123456789, time.FixedZone("X", 3600)) }

	require.NoError(t, e.Send(&Status{Stage: "metadata", Message: "loading projects"}))
	require.NoError(t, e.Send(&Task{Index: 0, Status: TaskPending, Task: planner.NormalizedTask{Title: "a"}}))
	require.NoError(t, e.Send(&Debug{Name: "tools", Payload: []string{"add-tasks"}}))
	require.NoError(t, e.Send(&Final{Created: 1, Tasks: []planner.SyncResult{}}))

	lines := decodeLines(t, buf.Bytes())
	require.Len(t, lines, 4)
	assert.Equal(t, "status", lines[0]["type"])
	assert.Equal(t, "2026-10-19T07:30:00.123Z", lines[0]["timestamp"])
	assert.Equal(t, "todoist.task", lines[1]["type"])
	assert.Equal(t, "pending", lines[1]["status"])
	assert.Equal(t, "debug.tools", lines[2]["type"])
	assert.NotContains(t, lines[2], "Name")
	assert.Equal(t, "final", lines[3]["type"])
	assert.Equal(t, 4, e.Sent())
}

func TestEmitterTerminalExclusive(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf)
	require.NoError(t, e.Send(&Error{Message: "generation failed"}))
	assert.True(t, e.Closed())
	assert.ErrorIs(t, e.Send(&Final{}), ErrClosed)
	assert.ErrorIs(t, e.Send(&Status{Stage: "late"}), ErrClosed)
	assert.Len(t, decodeLines(t, buf.Bytes()), 1)
}

type failingWriter struct{ writes int }

func (f *failingWriter) Write(p []byte) (int, error) {
	f.writes++
	return 0, errors.New("broken pipe")
}

func TestEmitterBrokenWriterDropsEvents(t *testing.T) {
	w := &failingWriter{}
	e := NewEmitter(w)
	assert.NoError(t, e.Send(&Status{Stage: "a"}))
	assert.True(t, e.Broken())
	assert.NoError(t, e.Send(&Status{Stage: "b"}))
	assert.NoError(t, e.Send(&Final{}))
	assert.Equal(t, 1, w.writes)
	assert.True(t, e.Closed())
	assert.Zero(t, e.Sent())
}

func TestEmitterFlushesHTTPResponses(t *testing.T) {
	rec := httptest.NewRecorder()
	e := NewEmitter(rec)
	require.NoError(t, e.Send(&Status{Stage: "start"}))
	assert.True(t, rec.Flushed)
}
