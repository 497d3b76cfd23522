package engine

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/portflow/internal/graph"
)

// ErrHandlerPanic is wrapped when a handler panics.
var ErrHandlerPanic = errors.New("handler panicked")

// Stage names the step of node execution that failed.
type Stage string

const (
	StageResolve Stage = "resolve"
	StageInputs  Stage = "inputs"
	StageConfig  Stage = "config"
	StageHandler Stage = "handler"
	StageCache   Stage = "cache"
)

// NodeError is the error returned by Run when a node fails.
type NodeError struct {
	NodeID   string
	NodeType graph.NodeType
	Stage    Stage
	Err      error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q (type %q) failed at %s: %v", e.NodeID, e.NodeType, e.Stage, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}
