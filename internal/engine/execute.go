package engine

import (
	"context"
	"fmt"

	"github.com/specialistvlad/portflow/internal/ctxlog"
	"github.com/specialistvlad/portflow/internal/graph"
	"github.com/specialistvlad/portflow/internal/nodeconfig"
	"github.com/specialistvlad/portflow/internal/nodestore"
	"github.com/specialistvlad/portflow/internal/registry"
)

// run holds the state of a single evaluation.
type run struct {
	engine *Engine
	graph  *graph.Graph
	store  nodestore.Store
	input  registry.Ports
	id     string
}

// execute runs the node with the given id, pulling unfinished predecessors
// first and pushing to successors afterwards. It is a no-op for finished
// nodes.
func (r *run) execute(ctx context.Context, id string) error {
	if r.store.IsFinished(id) {
		return nil
	}

	node, ok := r.graph.Node(id)
	if !ok {
		return r.fail(graph.Node{ID: id}, StageResolve, fmt.Errorf("node %q is not part of the graph", id))
	}

	var inputs registry.Ports
	if id == r.graph.StartID() {
		inputs = r.input.Clone()
	} else {
		inputs = make(registry.Ports)
		for _, rel := range r.graph.PredecessorsOf(id) {
			if err := r.execute(ctx, rel.From); err != nil {
				return err
			}
			v, err := r.store.OutputOf(rel.From, rel.FromPort)
			if err != nil {
				return r.fail(node, StageInputs, err)
			}
			inputs[rel.ToPort] = v
		}
	}

	// A predecessor's push may have executed this node while its inputs
	// were being collected.
	if r.store.IsFinished(id) {
		return nil
	}

	if err := r.invoke(ctx, node, inputs); err != nil {
		return err
	}

	for _, rel := range r.graph.SuccessorsOf(id) {
		if err := r.execute(ctx, rel.To); err != nil {
			return err
		}
	}
	return nil
}

// invoke resolves, configures and calls the node's handler, then caches the
// outputs and notifies observers.
func (r *run) invoke(ctx context.Context, node graph.Node, inputs registry.Ports) error {
	ctx = ctxlog.With(ctx, "node_id", node.ID, "node_type", node.Type)
	logger := ctxlog.FromContext(ctx)

	h, err := r.engine.reg.Resolve(node.Type)
	if err != nil {
		return r.fail(node, StageResolve, err)
	}

	cfg, err := r.engine.parseConfig(node.Config)
	if err != nil {
		return r.fail(node, StageConfig, err)
	}

	svc := &services{
		runID:  r.id,
		node:   node,
		preds:  r.graph.PredecessorsOf(node.ID),
		succs:  r.graph.SuccessorsOf(node.ID),
		logger: logger,
	}

	logger.Debug("▶️ Executing node.", "inputs", len(inputs))
	started := r.engine.now()
	outputs, err := callHandler(ctx, h, svc, inputs, cfg)
	elapsed := r.engine.now().Sub(started)
	if err != nil {
		return r.fail(node, StageHandler, err)
	}

	if err := r.store.RecordOutputs(node.ID, outputs); err != nil {
		return r.fail(node, StageCache, err)
	}

	rec := Record{
		RunID:    r.id,
		NodeID:   node.ID,
		NodeType: node.Type,
		Started:  started,
		Elapsed:  elapsed,
		Inputs:   RedactPorts(inputs, r.engine.redactLimit),
		Config:   node.Config,
		Outputs:  RedactPorts(outputs, r.engine.redactLimit),
	}
	for _, o := range r.engine.observers {
		notifyNode(ctx, o, rec)
	}
	return nil
}

// callHandler invokes h, turning a panic into an error.
func callHandler(ctx context.Context, h registry.Handler, svc registry.Services, inputs registry.Ports, cfg nodeconfig.Config) (out registry.Ports, err error) {
	defer func() {
		if p := recover(); p != nil {
			out = nil
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, p)
		}
	}()
	return h.Handle(ctx, svc, inputs.Clone(), cfg)
}

func (r *run) fail(node graph.Node, stage Stage, err error) error {
	return &NodeError{NodeID: node.ID, NodeType: node.Type, Stage: stage, Err: err}
}
