package registry

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/portflow/internal/graph"
)

// ErrUnknownNodeType is matched by every *UnknownNodeTypeError.
var ErrUnknownNodeType = errors.New("unknown node type")

// UnknownNodeTypeError reports a node type with no registered handler.
type UnknownNodeTypeError struct {
	NodeType graph.NodeType
}

func (e *UnknownNodeTypeError) Error() string {
	return fmt.Sprintf("%s %q", ErrUnknownNodeType, e.NodeType)
}

func (e *UnknownNodeTypeError) Unwrap() error {
	return ErrUnknownNodeType
}
