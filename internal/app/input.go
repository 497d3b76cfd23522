package app

import (
	"bytes"
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/specialistvlad/portflow/internal/registry"
)

// readInput returns the initial input configured for a one-shot run.
func readInput(cfg *Config) (registry.Ports, error) {
	switch {
	case cfg.InputJSON != "":
		return decodeInput([]byte(cfg.InputJSON))
	case cfg.InputFile != "":
		data, err := os.ReadFile(cfg.InputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
		return decodeInput(data)
	default:
		return nil, nil
	}
}

// decodeInput parses a JSON object into ports. Empty input and null are
// treated as no input.
func decodeInput(data []byte) (registry.Ports, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var in map[string]any
	if err := sonic.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("input must be a JSON object: %w", err)
	}
	return registry.Ports(in), nil
}
