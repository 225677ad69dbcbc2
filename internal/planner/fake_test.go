package planner

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/user/planstream/internal/llm"
)

// fakeGenerator answers by request name.
type fakeGenerator struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	calls     []llm.Request
}

func (f *fakeGenerator) GenerateJSON(_ context.Context, req llm.Request) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if err := f.errs[req.Name]; err != nil {
		return nil, err
	}
	resp, ok := f.responses[req.Name]
	if !ok {
		return nil, errors.New("no response for " + req.Name)
	}
	return json.RawMessage(resp), nil
}
