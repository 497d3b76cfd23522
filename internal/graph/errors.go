package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is the sentinel matched by every *ValidationError.
var ErrValidation = errors.New("invalid graph definition")

// ValidationError lists every problem found while building a graph.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
