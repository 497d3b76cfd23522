package nodestore

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingOutput is matched by every *MissingOutputError.
	ErrMissingOutput = errors.New("missing output")
	// ErrDuplicateExecution is matched by every *DuplicateExecutionError.
	ErrDuplicateExecution = errors.New("duplicate execution")
)

// MissingOutputError reports a read of an output that does not exist. Port
// is empty when the whole node has not finished.
type MissingOutputError struct {
	NodeID string
	Port   string
}

func (e *MissingOutputError) Error() string {
	if e.Port == "" {
		return fmt.Sprintf("%s: node %q has not finished", ErrMissingOutput, e.NodeID)
	}
	return fmt.Sprintf("%s: node %q has no output port %q", ErrMissingOutput, e.NodeID, e.Port)
}

func (e *MissingOutputError) Unwrap() error { return ErrMissingOutput }

// DuplicateExecutionError reports a second attempt to record a node.
type DuplicateExecutionError struct {
	NodeID string
}

func (e *DuplicateExecutionError) Error() string {
	return fmt.Sprintf("%s: node %q already finished", ErrDuplicateExecution, e.NodeID)
}

func (e *DuplicateExecutionError) Unwrap() error { return ErrDuplicateExecution }
