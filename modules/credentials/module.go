// Package credentials provides a node that reads secrets from the process
// environment or a dotenv file and exposes each one as an output port.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/specialistvlad/portflow/internal/nodeconfig"
	"github.com/specialistvlad/portflow/internal/registry"
)

// Type is the node type handled by this module.
const Type = "credentials"

// ErrMissingCredential is returned when a required key is not set.
var ErrMissingCredential = errors.New("missing credential")

// Module implements the registry.Module interface for this package.
type Module struct {
	// Lookup reads a variable from the environment. Defaults to os.LookupEnv.
	Lookup func(key string) (string, bool)
}

// Config is the node configuration.
type Config struct {
	Keys     []string `json:"keys"`
	Prefix   string   `json:"prefix"`
	EnvFile  string   `json:"env_file"`
	Optional bool     `json:"optional"`
}

// Handle resolves every configured key. The variable looked up is
// Prefix+key and the output port is key. The environment wins over the file.
// Values are emitted as registry.Secret so they stay out of logs and run
// history.
func (m *Module) Handle(_ context.Context, svc registry.Services, _ registry.Ports, cfg nodeconfig.Config) (registry.Ports, error) {
	var c Config
	if err := cfg.Decode(&c); err != nil {
		return nil, err
	}
	if len(c.Keys) == 0 {
		return nil, fmt.Errorf("credentials: config.keys must list at least one key")
	}

	lookup := m.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var file map[string]string
	if c.EnvFile != "" {
		var err error
		file, err = godotenv.Read(c.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("credentials: reading env file %q: %w", c.EnvFile, err)
		}
	}

	out := make(registry.Ports, len(c.Keys))
	for _, key := range c.Keys {
		name := c.Prefix + key
		if v, ok := lookup(name); ok {
			out[key] = registry.Secret(v)
			continue
		}
		if v, ok := file[name]; ok {
			out[key] = registry.Secret(v)
			continue
		}
		if c.Optional {
			svc.Logger().Warn("Credential not set, skipping.", "key", name)
			continue
		}
		return nil, fmt.Errorf("%w: %s", ErrMissingCredential, name)
	}

	svc.Logger().Info("Resolved credentials.", "count", len(out))
	return out, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(Type, m)
}
