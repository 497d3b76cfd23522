package engine

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/specialistvlad/portflow/internal/ctxlog"
	"github.com/specialistvlad/portflow/internal/graph"
	"github.com/specialistvlad/portflow/internal/inmemorystore"
	"github.com/specialistvlad/portflow/internal/nodeconfig"
	"github.com/specialistvlad/portflow/internal/nodestore"
	"github.com/specialistvlad/portflow/internal/registry"
)

// Engine evaluates graphs against a frozen handler registry.
type Engine struct {
	reg         *registry.Registry
	observers   []Observer
	now         func() time.Time
	lenient     bool
	redactLimit int
	newStore    func() nodestore.Store
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver adds an instrumentation sink. The built-in log observer is
// always installed first.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLenientConfig enables JSON repair for malformed node configs.
func WithLenientConfig(lenient bool) Option {
	return func(e *Engine) {
		e.lenient = lenient
	}
}

// WithRedactLimit sets the longest string recorded verbatim. Zero or less
// disables the length check; binary values are always redacted.
func WithRedactLimit(limit int) Option {
	return func(e *Engine) {
		e.redactLimit = limit
	}
}

// WithStoreFactory replaces the per-run execution cache constructor.
func WithStoreFactory(fn func() nodestore.Store) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newStore = fn
		}
	}
}

// New creates an Engine and freezes reg.
func New(reg *registry.Registry, opts ...Option) *Engine {
	reg.Freeze()
	e := &Engine{
		reg:         reg,
		observers:   []Observer{logObserver{}},
		now:         time.Now,
		redactLimit: DefaultRedactLimit,
		newStore:    func() nodestore.Store { return inmemorystore.New() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type runIDKey struct{}

// ContextWithRunID makes the next Run on ctx use id instead of a fresh ULID.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFromContext returns the run id attached to ctx, if any.
func RunIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok && id != ""
}

// NewRunID returns a fresh, lexically sortable run id.
func NewRunID() string {
	return ulid.Make().String()
}

// Run evaluates g starting from its start node, which receives input, and
// returns the outputs of the end node.
func (e *Engine) Run(ctx context.Context, g *graph.Graph, input registry.Ports) (registry.Ports, error) {
	if g == nil {
		return nil, errors.New("engine: nil graph")
	}

	runID, ok := RunIDFromContext(ctx)
	if !ok {
		runID = NewRunID()
	}
	ctx = ctxlog.With(ctx, "run_id", runID)
	ctx = ContextWithRunID(ctx, runID)
	logger := ctxlog.FromContext(ctx)

	r := &run{
		engine: e,
		graph:  g,
		store:  e.newStore(),
		input:  input.Clone(),
		id:     runID,
	}

	logger.Info("🚀 Starting run.", "nodes", g.Len(), "start", g.StartID(), "end", g.EndID())
	started := e.now()

	out, err := r.evaluate(ctx)

	summary := RunRecord{
		RunID:    runID,
		Started:  started,
		Elapsed:  e.now().Sub(started),
		Executed: len(r.store.Finished()),
		Err:      err,
	}
	for _, o := range e.observers {
		if ro, ok := o.(RunObserver); ok {
			notifyRun(ctx, ro, summary)
		}
	}

	if err != nil {
		logger.Error("❌ Run failed.", "error", err, "executed", summary.Executed, "elapsed", summary.Elapsed)
		return nil, err
	}
	logger.Info("🏁 Finished run.", "executed", summary.Executed, "elapsed", summary.Elapsed)
	return out, nil
}

func (r *run) evaluate(ctx context.Context) (registry.Ports, error) {
	if err := r.execute(ctx, r.graph.StartID()); err != nil {
		return nil, err
	}

	end := r.graph.EndID()
	if !r.store.IsFinished(end) {
		// Some predecessor of the end node is unreachable from start.
		ctxlog.FromContext(ctx).Debug("End node not reached from start, evaluating on demand.", "node_id", end)
		if err := r.execute(ctx, end); err != nil {
			return nil, err
		}
	}

	out, err := r.store.OutputsOf(end)
	if err != nil {
		n, _ := r.graph.Node(end)
		return nil, r.fail(n, StageCache, err)
	}
	return out, nil
}

func (e *Engine) parseConfig(raw string) (nodeconfig.Config, error) {
	if e.lenient {
		return nodeconfig.ParseLenient(raw)
	}
	return nodeconfig.Parse(raw)
}
