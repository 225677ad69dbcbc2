package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/user/planstream/internal/journal"
	"github.com/user/planstream/internal/llm"
	"github.com/user/planstream/internal/metadata"
	"github.com/user/planstream/internal/planner"
	"github.com/user/planstream/internal/stream"
	"github.com/user/planstream/internal/tools"
)

const recordTimeout = 5 * time.Second

// Session is one connection to the external task service.
type Session interface {
	metadata.Caller
	ListTools(ctx context.Context) ([]tools.Descriptor, error)
	Close() error
}

// Connector opens a Session per request.
type Connector interface {
	Connect(ctx context.Context) (Session, error)
}

// Recorder persists finished runs.
type Recorder interface {
	Record(ctx context.Context, run journal.Run) error
}

// Options configures a Pipeline. Connector and Generator are required.
type Options struct {
	Connector Connector
	Generator llm.Generator
	Recorder  Recorder
	// RateLimit caps task creation calls per second. Zero disables pacing.
	RateLimit   float64
	DebugEvents bool
}

// Pipeline runs planning requests. It holds no per-request state and is
// safe for concurrent use.
type Pipeline struct {
	connector   Connector
	generator   llm.Generator
	recorder    Recorder
	rateLimit   float64
	debugEvents bool
	now         func() time.Time
}

// New validates opts and returns a Pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Connector == nil {
		return nil, &planner.ConfigurationError{Message: "task service connection is not configured"}
	}
	if opts.Generator == nil {
		return nil, &planner.ConfigurationError{Message: "language model is not configured"}
	}
	return &Pipeline{
		connector:   opts.Connector,
		generator:   opts.Generator,
		recorder:    opts.Recorder,
		rateLimit:   opts.RateLimit,
		debugEvents: opts.DebugEvents,
		now:         time.Now,
	}, nil
}

// planContext accumulates stage outputs. Stages take it by value and return
// an updated copy.
type planContext struct {
	requestID string
	started   time.Time
	req       planner.Request
	catalog   []tools.Descriptor
	snapshot  metadata.Snapshot
	hints     planner.Hints
	decision  planner.IntentDecision
	scenario  planner.Scenario
	plan      planner.Plan
	tasks     []planner.NormalizedTask
	results   []planner.SyncResult
}

// Run plans and syncs one request, streaming events to em. A validation error
// is returned before any event is written. Every other failure ends the stream
// with a single error event and is also returned.
func (p *Pipeline) Run(ctx context.Context, req planner.Request, em *stream.Emitter) (err error) {
	if err := req.Validate(); err != nil {
		return err
	}
	pc := planContext{
		requestID: uuid.NewString(),
		started:   p.now(),
		req:       req.WithDefaults(),
	}
	log := slog.With("request_id", pc.requestID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panic", "panic", r)
			err = p.abort(em, fmt.Errorf("internal error: %v", r))
		}
		p.record(ctx, log, pc, err)
	}()

	send(em, &stream.Status{Stage: "start", Message: "request " + pc.requestID})

	sess, err := p.connector.Connect(ctx)
	if err != nil {
		return p.abort(em, &planner.ConfigurationError{Message: "connect to task service", Err: err})
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Warn("close task service session", "error", cerr)
		}
	}()

	if pc, err = p.loadCatalog(ctx, pc, sess, em); err != nil {
		return p.abort(em, err)
	}
	pc = p.discover(ctx, pc, sess, em)
	pc = p.classify(ctx, pc, em)
	if pc, err = p.generate(ctx, pc, em); err != nil {
		return p.abort(em, err)
	}
	if pc, err = p.sync(ctx, pc, sess, em); err != nil {
		return p.abort(em, err)
	}

	created, failed := planner.CountResults(pc.results)
	send(em, &stream.Final{
		Created:   created,
		Failed:    failed,
		Tasks:     pc.results,
		ElapsedMs: p.now().Sub(pc.started).Milliseconds(),
	})
	log.Info("plan synced", "intent", pc.scenario.Intent, "created", created, "failed", failed)
	return nil
}

func (p *Pipeline) loadCatalog(ctx context.Context, pc planContext, sess Session, em *stream.Emitter) (planContext, error) {
	catalog, err := sess.ListTools(ctx)
	if err != nil {
		return pc, &planner.ExternalCallError{Tool: "tools/list", Err: err}
	}
	pc.catalog = catalog
	if p.debugEvents {
		send(em, &stream.Debug{Name: "tools", Payload: tools.Names(catalog)})
	}
	return pc, nil
}

func (p *Pipeline) discover(ctx context.Context, pc planContext, sess Session, em *stream.Emitter) planContext {
	send(em, &stream.Status{Stage: "metadata", Message: "loading projects and labels"})
	pc.snapshot = metadata.Discover(ctx, sess, pc.catalog)
	pc.hints = planner.DeriveHints(pc.req.Prompt, pc.snapshot)
	if p.debugEvents {
		send(em, &stream.Debug{Name: "metadata", Payload: pc.snapshot})
		send(em, &stream.Debug{Name: "hints", Payload: pc.hints})
	}
	return pc
}

func (p *Pipeline) classify(ctx context.Context, pc planContext, em *stream.Emitter) planContext {
	send(em, &stream.Status{Stage: "intent", Message: "classifying request"})
	pc.decision = planner.Classify(ctx, p.generator, pc.req)
	pc.scenario = planner.SelectScenario(pc.decision, pc.req)
	return pc
}

func (p *Pipeline) generate(ctx context.Context, pc planContext, em *stream.Emitter) (planContext, error) {
	send(em, &stream.Status{Stage: "plan", Message: fmt.Sprintf("generating %s with up to %d task(s)", pc.scenario.Intent, pc.scenario.MaxTasks)})
	plan, err := planner.Generate(ctx, p.generator, planner.GenerateInput{
		Request:  pc.req,
		Scenario: pc.scenario,
		Intent:   pc.decision,
		Metadata: pc.snapshot,
		Hints:    pc.hints,
	})
	if err != nil {
		return pc, err
	}
	pc.plan = plan
	pc.tasks = planner.NormalizeAll(plan, pc.req, pc.snapshot, pc.hints)
	send(em, &stream.Plan{Summary: plan.Summary, Tasks: pc.tasks, Intent: pc.scenario.Intent})
	return pc, nil
}

func (p *Pipeline) sync(ctx context.Context, pc planContext, sess Session, em *stream.Emitter) (planContext, error) {
	send(em, &stream.Status{Stage: "sync", Message: fmt.Sprintf("creating %d task(s)", len(pc.tasks))})
	var limiter *rate.Limiter
	if p.rateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(p.rateLimit), 1)
	}
	results, err := Sync(ctx, sess, pc.catalog, pc.tasks, em, limiter)
	if err != nil {
		return pc, err
	}
	pc.results = results
	return pc, nil
}

func (p *Pipeline) abort(em *stream.Emitter, err error) error {
	ev := &stream.Error{Message: err.Error()}
	var genErr *planner.GenerationError
	var cfgErr *planner.ConfigurationError
	var callErr *planner.ExternalCallError
	switch {
	case errors.As(err, &genErr):
		ev.Detail = "generation"
	case errors.As(err, &cfgErr):
		ev.Detail = "configuration"
	case errors.As(err, &callErr):
		ev.Detail = "external_call"
	}
	send(em, ev)
	return err
}

func (p *Pipeline) record(ctx context.Context, log *slog.Logger, pc planContext, runErr error) {
	if p.recorder == nil {
		return
	}
	created, failed := planner.CountResults(pc.results)
	run := journal.Run{
		ID:        pc.requestID,
		Prompt:    pc.req.Prompt,
		Intent:    string(pc.scenario.Intent),
		Status:    journal.StatusCompleted,
		Created:   created,
		Failed:    failed,
		StartedAt: pc.started,
		ElapsedMs: p.now().Sub(pc.started).Milliseconds(),
	}
	if runErr != nil {
		run.Status = journal.StatusFailed
		run.Error = runErr.Error()
	}
	for i, r := range pc.results {
		run.Tasks = append(run.Tasks, journal.Task{
			Position:  i,
			Title:     r.Planned.Title,
			Status:    string(r.Status),
			TodoistID: r.TodoistID,
			Error:     r.Error,
		})
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := p.recorder.Record(rctx, run); err != nil {
		log.Warn("record run", "error", err)
	}
}
