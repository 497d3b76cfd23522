package print

import (
	"bytes"
	"context"
	"testing"

	"github.com/specialistvlad/portflow/internal/engine"
	"github.com/specialistvlad/portflow/internal/graph"
	"github.com/specialistvlad/portflow/internal/registry"
	"github.com/specialistvlad/portflow/internal/testutil"
	"github.com/specialistvlad/portflow/modules/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, m *Module, config string, input registry.Ports) registry.Ports {
	t.Helper()
	reg := registry.New().Use(&flow.Module{}, m)
	g := testutil.MustBuild(t,
		[]graph.Node{
			testutil.N("s", graph.TypeStart),
			testutil.NC("p", Type, config),
			testutil.N("e", graph.TypeEnd),
		},
		testutil.R("s", "name", "p", "name"),
		testutil.R("s", "blob", "p", "blob"),
		testutil.R("s", "n", "p", "n"),
		testutil.R("p", "name", "e", "name"),
		testutil.R("p", "blob", "e", "blob"),
	)
	out, err := engine.New(reg).Run(context.Background(), g, input)
	require.NoError(t, err)
	return out
}

func TestPrint(t *testing.T) {
	buf := &bytes.Buffer{}
	out := run(t, &Module{Out: buf}, `{"label":"Result"}`, registry.Ports{"name": "portflow", "blob": []byte{1, 2, 3}, "n": 7})

	assert.Equal(t, "Result:\n"+
		"      blob = \"binary(3 bytes)\"\n"+
		"      n = 7\n"+
		"      name = \"portflow\"\n", buf.String())
	assert.Equal(t, []byte{1, 2, 3}, out["blob"], "values pass through unredacted")
	assert.Equal(t, "portflow", out["name"])
}

func TestPrint_DefaultLabel(t *testing.T) {
	buf := &bytes.Buffer{}
	run(t, &Module{Out: buf}, "", registry.Ports{"name": "x", "blob": "y", "n": 1})
	assert.Contains(t, buf.String(), "p:\n")
}
