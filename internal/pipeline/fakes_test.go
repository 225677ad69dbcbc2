package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/user/planstream/internal/journal"
	"github.com/user/planstream/internal/llm"
	"github.com/user/planstream/internal/tools"
)

type toolCall struct {
	Name string
	Args map[string]any
}

type fakeSession struct {
	mu       sync.Mutex
	catalog  []tools.Descriptor
	listErr  error
	handlers map[string]func(args map[string]any) (tools.Result, error)
	calls    []toolCall
	closed   int
}

func (s *fakeSession) ListTools(context.Context) ([]tools.Descriptor, error) {
	return s.catalog, s.listErr
}

func (s *fakeSession) CallTool(_ context.Context, name string, args map[string]any) (tools.Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, toolCall{Name: name, Args: args})
	h := s.handlers[name]
	s.mu.Unlock()
	if h == nil {
		return tools.Result{}, errors.New("unknown tool " + name)
	}
	return h(args)
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *fakeSession) callsTo(name string) []toolCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []toolCall
	for _, c := range s.calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

type fakeConnector struct {
	session *fakeSession
	err     error
}

func (c *fakeConnector) Connect(context.Context) (Session, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.session, nil
}

type fakeGenerator struct {
	mu        sync.Mutex
	responses map[string]string
	panicOn   string
	requests  []llm.Request
}

func (g *fakeGenerator) GenerateJSON(_ context.Context, req llm.Request) (json.RawMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if req.Name == g.panicOn {
		panic("generator exploded")
	}
	resp, ok := g.responses[req.Name]
	if !ok {
		return nil, errors.New("no response for " + req.Name)
	}
	return json.RawMessage(resp), nil
}

func (g *fakeGenerator) request(name string) (llm.Request, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range g.requests {
		if r.Name == name {
			return r, true
		}
	}
	return llm.Request{}, false
}

type fakeRecorder struct {
	mu   sync.Mutex
	runs []journal.Run
}

func (r *fakeRecorder) Record(_ context.Context, run journal.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

func textResult(text string) tools.Result {
	return tools.Result{Content: []tools.Content{{Type: "text", Text: text}}}
}

func decodeEvents(t *testing.T, raw []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	return out
}

func eventsOfType(events []map[string]any, typ string) []map[string]any {
	var out []map[string]any
	for _, e := range events {
		if e["type"] == typ {
			out = append(out, e)
		}
	}
	return out
}
