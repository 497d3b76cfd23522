package loader

import (
	"fmt"
	"math"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/specialistvlad/portflow/internal/graph"
	"gopkg.in/yaml.v3"
)

// canonicalJSON sorts map keys so that inline configs serialise identically
// whatever their source format.
var canonicalJSON = sonic.Config{SortMapKeys: true}.Froze()

// document is the shared shape of JSON and YAML definitions.
type document struct {
	Nodes     []documentNode     `json:"nodes" yaml:"nodes"`
	Relations []documentRelation `json:"relations" yaml:"relations"`
}

type documentNode struct {
	ID     string `json:"id" yaml:"id"`
	Type   any    `json:"type" yaml:"type"`
	Config any    `json:"config" yaml:"config"`
}

type documentRelation struct {
	From       string `json:"from" yaml:"from"`
	FromOutput string `json:"fromOutput" yaml:"fromOutput"`
	To         string `json:"to" yaml:"to"`
	ToInput    string `json:"toInput" yaml:"toInput"`
}

func parseJSON(data []byte) (graph.Definition, error) {
	var doc document
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return graph.Definition{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return doc.definition()
}

func parseYAML(data []byte) (graph.Definition, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return graph.Definition{}, fmt.Errorf("invalid YAML: %w", err)
	}
	return doc.definition()
}

func (d document) definition() (graph.Definition, error) {
	def := graph.Definition{
		Nodes:     make([]graph.Node, 0, len(d.Nodes)),
		Relations: make([]graph.Relation, 0, len(d.Relations)),
	}
	for i, n := range d.Nodes {
		typ, err := nodeType(n.Type)
		if err != nil {
			return graph.Definition{}, fmt.Errorf("node #%d (%q): %w", i, n.ID, err)
		}
		cfg, err := configBlob(n.Config)
		if err != nil {
			return graph.Definition{}, fmt.Errorf("node #%d (%q): %w", i, n.ID, err)
		}
		def.Nodes = append(def.Nodes, graph.Node{ID: n.ID, Type: typ, Config: cfg})
	}
	for _, r := range d.Relations {
		def.Relations = append(def.Relations, graph.Relation{
			From:     r.From,
			FromPort: r.FromOutput,
			To:       r.To,
			ToPort:   r.ToInput,
		})
	}
	return def, nil
}

// nodeType accepts the symbolic and the numeric spelling of a type tag.
func nodeType(v any) (graph.NodeType, error) {
	switch t := v.(type) {
	case string:
		if t == "" {
			return "", fmt.Errorf("empty node type")
		}
		return graph.NodeType(t), nil
	case int:
		return graph.NodeType(strconv.Itoa(t)), nil
	case int64:
		return graph.NodeType(strconv.FormatInt(t, 10)), nil
	case uint64:
		return graph.NodeType(strconv.FormatUint(t, 10)), nil
	case float64:
		if t != math.Trunc(t) {
			return "", fmt.Errorf("node type %v is not an integer", t)
		}
		return graph.NodeType(strconv.FormatFloat(t, 'f', -1, 64)), nil
	case nil:
		return "", fmt.Errorf("missing node type")
	default:
		return "", fmt.Errorf("node type must be a string or an integer, got %T", v)
	}
}

// configBlob keeps string configs verbatim and serialises anything else.
func configBlob(v any) (string, error) {
	switch c := v.(type) {
	case nil:
		return "", nil
	case string:
		return c, nil
	default:
		s, err := canonicalJSON.MarshalToString(c)
		if err != nil {
			return "", fmt.Errorf("cannot serialise inline config: %w", err)
		}
		return s, nil
	}
}
