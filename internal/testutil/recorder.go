package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/specialistvlad/portflow/internal/graph"
	"github.com/specialistvlad/portflow/internal/nodeconfig"
	"github.com/specialistvlad/portflow/internal/registry"
)

// Call is one recorded handler invocation.
type Call struct {
	NodeID   string
	NodeType graph.NodeType
	Inputs   graph.Ports
	Config   string
	// Finished holds the ids of the node's predecessors that had already
	// been recorded when the handler started.
	Finished []string
}

// Recorder wraps handlers and records every invocation in order.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
	done  map[string]bool
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{done: make(map[string]bool)}
}

// Wrap returns a handler that records the call and then delegates to h.
func (r *Recorder) Wrap(h registry.HandlerFunc) registry.HandlerFunc {
	return func(ctx context.Context, svc registry.Services, inputs registry.Ports, cfg nodeconfig.Config) (registry.Ports, error) {
		node := svc.Node()

		r.mu.Lock()
		var finished []string
		for _, rel := range svc.Predecessors() {
			if r.done[rel.From] {
				finished = append(finished, rel.From)
			}
		}
		r.calls = append(r.calls, Call{
			NodeID:   node.ID,
			NodeType: node.Type,
			Inputs:   inputs.Clone(),
			Config:   cfg.Raw(),
			Finished: finished,
		})
		r.mu.Unlock()

		out, err := h(ctx, svc, inputs, cfg)

		if err == nil {
			r.mu.Lock()
			r.done[node.ID] = true
			r.mu.Unlock()
		}
		return out, err
	}
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Order returns the node ids in invocation order.
func (r *Recorder) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c.NodeID)
	}
	return out
}

// Count returns how many times the node's handler was invoked.
func (r *Recorder) Count(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.NodeID == id {
			n++
		}
	}
	return n
}

// CallOf returns the first recorded call of a node.
func (r *Recorder) CallOf(id string) (Call, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c.NodeID == id {
			return c, true
		}
	}
	return Call{}, false
}

// Passthrough returns its inputs as outputs.
func Passthrough(_ context.Context, _ registry.Services, inputs registry.Ports, _ nodeconfig.Config) (registry.Ports, error) {
	return inputs.Clone(), nil
}

// Emit returns a handler producing fixed outputs.
func Emit(outputs registry.Ports) registry.HandlerFunc {
	return func(context.Context, registry.Services, registry.Ports, nodeconfig.Config) (registry.Ports, error) {
		return outputs.Clone(), nil
	}
}

// SimpleModule registers a fixed set of handlers, in sorted type order.
type SimpleModule struct {
	Handlers map[graph.NodeType]registry.Handler
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	types := make([]graph.NodeType, 0, len(m.Handlers))
	for t := range m.Handlers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, t := range types {
		r.Register(t, m.Handlers[t])
	}
}
