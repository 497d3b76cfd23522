package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/specialistvlad/portflow/internal/graph"
)

// Registry holds the handlers known to a single application instance.
type Registry struct {
	mu       sync.RWMutex
	handlers map[graph.NodeType]Handler
	frozen   bool
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		handlers: make(map[graph.NodeType]Handler),
	}
}

// Register adds a handler for a node type. It panics if the type is already
// registered or the registry has been frozen.
func (r *Registry) Register(nodeType graph.NodeType, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		panic(fmt.Sprintf("registry is frozen, cannot register handler for node type '%s'", nodeType))
	}
	if h == nil {
		panic(fmt.Sprintf("nil handler for node type '%s'", nodeType))
	}
	if _, exists := r.handlers[nodeType]; exists {
		panic(fmt.Sprintf("handler for node type '%s' already registered", nodeType))
	}
	slog.Debug("Registering handler.", "node_type", nodeType)
	r.handlers[nodeType] = h
}

// RegisterFunc is a shorthand for Register(nodeType, HandlerFunc(fn)).
func (r *Registry) RegisterFunc(nodeType graph.NodeType, fn HandlerFunc) {
	r.Register(nodeType, fn)
}

// Use registers every given module.
func (r *Registry) Use(mods ...Module) *Registry {
	for _, m := range mods {
		m.Register(r)
	}
	return r
}

// Freeze makes the registry read-only. It is safe to call more than once.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Resolve returns the handler registered for nodeType.
func (r *Registry) Resolve(nodeType graph.NodeType) (Handler, error) {
	r.mu.RLock()
	h, ok := r.handlers[nodeType]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownNodeTypeError{NodeType: nodeType}
	}
	return h, nil
}

// Types returns the registered node types, sorted.
func (r *Registry) Types() []graph.NodeType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]graph.NodeType, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
