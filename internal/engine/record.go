package engine

import (
	"context"
	"time"

	"github.com/specialistvlad/portflow/internal/ctxlog"
	"github.com/specialistvlad/portflow/internal/graph"
)

// Record describes one finished node execution. Inputs and Outputs are
// already redacted.
type Record struct {
	RunID    string
	NodeID   string
	NodeType graph.NodeType
	Started  time.Time
	Elapsed  time.Duration
	Inputs   map[string]any
	Config   string
	Outputs  map[string]any
}

// RunRecord summarises a finished run, successful or not.
type RunRecord struct {
	RunID    string
	Started  time.Time
	Elapsed  time.Duration
	Executed int
	Err      error
}

// Observer receives a Record after every successful node execution.
//
// Observers are best-effort sinks: a panic inside one is recovered and logged
// and never affects the run.
type Observer interface {
	NodeFinished(ctx context.Context, rec Record)
}

// RunObserver is implemented by observers that also want run summaries.
type RunObserver interface {
	RunFinished(ctx context.Context, rec RunRecord)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, rec Record)

// NodeFinished calls f.
func (f ObserverFunc) NodeFinished(ctx context.Context, rec Record) {
	f(ctx, rec)
}

// logObserver writes every record to the run logger.
type logObserver struct{}

func (logObserver) NodeFinished(ctx context.Context, rec Record) {
	// The context logger already carries node_id and node_type.
	ctxlog.FromContext(ctx).Info("✅ Node finished.",
		"elapsed", rec.Elapsed,
		"inputs", rec.Inputs,
		"config", rec.Config,
		"outputs", rec.Outputs,
	)
}

func notifyNode(ctx context.Context, o Observer, rec Record) {
	defer func() {
		if p := recover(); p != nil {
			ctxlog.FromContext(ctx).Warn("Observer panicked, record dropped.", "node_id", rec.NodeID, "panic", p)
		}
	}()
	o.NodeFinished(ctx, rec)
}

func notifyRun(ctx context.Context, o RunObserver, rec RunRecord) {
	defer func() {
		if p := recover(); p != nil {
			ctxlog.FromContext(ctx).Warn("Run observer panicked, summary dropped.", "panic", p)
		}
	}()
	o.RunFinished(ctx, rec)
}
