// Package print provides a node that writes its inputs to an output stream
// and passes them through.
package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/specialistvlad/portflow/internal/engine"
	"github.com/specialistvlad/portflow/internal/nodeconfig"
	"github.com/specialistvlad/portflow/internal/registry"
)

// Type is the node type handled by this module.
const Type = "print"

// Module implements the registry.Module interface for this package.
type Module struct {
	// Out receives the printed lines. Defaults to os.Stdout.
	Out io.Writer

	mu sync.Mutex
}

// Config is the optional node configuration.
type Config struct {
	// Label is printed above the values; defaults to the node id.
	Label string `json:"label"`
}

// Handle prints one `port = value` line per input, sorted by port name.
func (m *Module) Handle(_ context.Context, svc registry.Services, inputs registry.Ports, cfg nodeconfig.Config) (registry.Ports, error) {
	var c Config
	if err := cfg.Decode(&c); err != nil {
		return nil, err
	}
	if c.Label == "" {
		c.Label = svc.Node().ID
	}
	svc.Logger().Info("Printing input.", "label", c.Label, "ports", len(inputs))

	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := m.Out
	if out == nil {
		out = os.Stdout
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	fmt.Fprintf(out, "%s:\n", c.Label)
	if len(keys) == 0 {
		fmt.Fprintln(out, "      (null)")
	}
	for _, k := range keys {
		v := engine.Redact(inputs[k], engine.DefaultRedactLimit)
		if s, ok := v.(string); ok {
			fmt.Fprintf(out, "      %s = %q\n", k, s)
			continue
		}
		fmt.Fprintf(out, "      %s = %v\n", k, v)
	}

	return inputs.Clone(), nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(Type, m)
}
