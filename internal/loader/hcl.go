package loader

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/portflow/internal/graph"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// hclFile is used to decode all top-level blocks of a definition file.
type hclFile struct {
	Nodes     []*hclNode     `hcl:"node,block"`
	Relations []*hclRelation `hcl:"relation,block"`
}

type hclNode struct {
	ID     string         `hcl:"id,label"`
	Type   hcl.Expression `hcl:"type,attr"`
	Config hcl.Expression `hcl:"config,optional"`
}

type hclRelation struct {
	From       string `hcl:"from,attr"`
	FromOutput string `hcl:"from_output,attr"`
	To         string `hcl:"to,attr"`
	ToInput    string `hcl:"to_input,attr"`
}

func parseHCL(data []byte, filename string) (graph.Definition, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return graph.Definition{}, fmt.Errorf("failed to parse HCL: %w", diags)
	}

	var root hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return graph.Definition{}, fmt.Errorf("failed to decode HCL: %w", diags)
	}

	evalCtx := evalContext()
	def := graph.Definition{
		Nodes:     make([]graph.Node, 0, len(root.Nodes)),
		Relations: make([]graph.Relation, 0, len(root.Relations)),
	}

	for _, n := range root.Nodes {
		typ, err := hclNodeType(n.Type, evalCtx)
		if err != nil {
			return graph.Definition{}, fmt.Errorf("node %q: %w", n.ID, err)
		}
		cfg, err := hclConfig(n.Config, evalCtx)
		if err != nil {
			return graph.Definition{}, fmt.Errorf("node %q: %w", n.ID, err)
		}
		def.Nodes = append(def.Nodes, graph.Node{ID: n.ID, Type: typ, Config: cfg})
	}
	for _, r := range root.Relations {
		def.Relations = append(def.Relations, graph.Relation{
			From:     r.From,
			FromPort: r.FromOutput,
			To:       r.To,
			ToPort:   r.ToInput,
		})
	}
	return def, nil
}

func hclNodeType(expr hcl.Expression, evalCtx *hcl.EvalContext) (graph.NodeType, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return "", diags
	}
	if val.IsNull() || !val.IsKnown() {
		return "", fmt.Errorf("missing node type")
	}

	switch val.Type() {
	case cty.String:
		if val.AsString() == "" {
			return "", fmt.Errorf("empty node type")
		}
		return graph.NodeType(val.AsString()), nil
	case cty.Number:
		bf := val.AsBigFloat()
		if !bf.IsInt() {
			return "", fmt.Errorf("node type %s is not an integer", bf.Text('f', -1))
		}
		return graph.NodeType(bf.Text('f', -1)), nil
	default:
		return "", fmt.Errorf("node type must be a string or a number, got %s", val.Type().FriendlyName())
	}
}

// hclConfig turns the optional config attribute into a blob. Strings are
// kept verbatim; any other value is encoded as JSON.
func hclConfig(expr hcl.Expression, evalCtx *hcl.EvalContext) (string, error) {
	if expr == nil {
		return "", nil
	}
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return "", diags
	}
	if val.IsNull() {
		return "", nil
	}
	if !val.IsWhollyKnown() {
		return "", fmt.Errorf("config must be a known value")
	}
	if val.Type() == cty.String {
		return val.AsString(), nil
	}

	b, err := ctyjson.Marshal(val, val.Type())
	if err != nil {
		return "", fmt.Errorf("cannot encode config: %w", err)
	}
	return string(b), nil
}

// evalContext exposes a small function library to definition files, so
// configs can be assembled from the environment.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"env":        envFunc,
			"format":     stdlib.FormatFunc,
			"jsonencode": stdlib.JSONEncodeFunc,
			"lower":      stdlib.LowerFunc,
			"upper":      stdlib.UpperFunc,
		},
	}
}

// envFunc reads an environment variable, returning "" when unset.
var envFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return cty.StringVal(os.Getenv(args[0].AsString())), nil
	},
})
