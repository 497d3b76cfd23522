package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/portflow/internal/ctxlog"
	"github.com/specialistvlad/portflow/internal/fsutil"
	"github.com/specialistvlad/portflow/internal/graph"
)

// Format identifies a definition file syntax.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// Extensions lists every file extension the loader understands.
var Extensions = []string{".json", ".yaml", ".yml", ".hcl"}

// FormatOf returns the format implied by a file name.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return "", fmt.Errorf("unsupported definition file %s", path)
	}
}

// Load reads a definition file, or every definition file under a directory,
// and merges the results.
func Load(ctx context.Context, path string) (graph.Definition, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolving graph path.", "path", path)

	files, err := fsutil.ResolvePath(path, Extensions...)
	if err != nil {
		return graph.Definition{}, fmt.Errorf("failed to resolve graph path '%s': %w", path, err)
	}
	if len(files) == 0 {
		return graph.Definition{}, fmt.Errorf("no graph definition files found in %s", path)
	}
	logger.Debug("Found definition files to process.", "count", len(files), "path", path)

	var def graph.Definition
	for _, file := range files {
		fileDef, err := LoadFile(ctx, file)
		if err != nil {
			return graph.Definition{}, err
		}
		def.Merge(fileDef)
	}

	logger.Debug("Finished loading and merging definition files.", "nodes", len(def.Nodes), "relations", len(def.Relations))
	return def, nil
}

// LoadFile reads a single definition file.
func LoadFile(ctx context.Context, path string) (graph.Definition, error) {
	format, err := FormatOf(path)
	if err != nil {
		return graph.Definition{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return graph.Definition{}, fmt.Errorf("failed to read definition file '%s': %w", path, err)
	}

	def, err := Parse(data, format, path)
	if err != nil {
		return graph.Definition{}, fmt.Errorf("failed to load definition file '%s': %w", path, err)
	}
	ctxlog.FromContext(ctx).Debug("Decoded definition file.", "path", path, "format", format, "nodes", len(def.Nodes), "relations", len(def.Relations))
	return def, nil
}

// Parse decodes a definition from memory. filename is only used in
// diagnostics.
func Parse(data []byte, format Format, filename string) (graph.Definition, error) {
	switch format {
	case FormatJSON:
		return parseJSON(data)
	case FormatYAML:
		return parseYAML(data)
	case FormatHCL:
		return parseHCL(data, filename)
	default:
		return graph.Definition{}, fmt.Errorf("unsupported definition format %q", format)
	}
}
