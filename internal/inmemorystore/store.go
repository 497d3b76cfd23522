package inmemorystore

import (
	"sync"

	"github.com/specialistvlad/portflow/internal/graph"
	"github.com/specialistvlad/portflow/internal/nodestore"
)

// Store is an in-memory implementation of nodestore.Store.
type Store struct {
	mu      sync.RWMutex
	outputs map[string]graph.Ports // Key: node ID, present once finished.
	order   []string
}

var _ nodestore.Store = (*Store)(nil)

// New creates a new, empty in-memory store.
func New() *Store {
	return &Store{outputs: make(map[string]graph.Ports)}
}

// IsFinished reports whether the node has recorded outputs.
func (s *Store) IsFinished(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.outputs[id]
	return ok
}

// RecordOutputs stores a copy of the node's outputs.
func (s *Store) RecordOutputs(id string, outputs graph.Ports) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.outputs[id]; ok {
		return &nodestore.DuplicateExecutionError{NodeID: id}
	}
	s.outputs[id] = outputs.Clone()
	s.order = append(s.order, id)
	return nil
}

// OutputOf returns a single output value.
func (s *Store) OutputOf(id, port string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out, ok := s.outputs[id]
	if !ok {
		return nil, &nodestore.MissingOutputError{NodeID: id, Port: port}
	}
	v, ok := out[port]
	if !ok {
		return nil, &nodestore.MissingOutputError{NodeID: id, Port: port}
	}
	return v, nil
}

// OutputsOf returns a copy of every output of a finished node.
func (s *Store) OutputsOf(id string) (graph.Ports, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out, ok := s.outputs[id]
	if !ok {
		return nil, &nodestore.MissingOutputError{NodeID: id}
	}
	return out.Clone(), nil
}

// Finished returns the finished node ids in completion order.
func (s *Store) Finished() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}
