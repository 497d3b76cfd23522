package integrationtests

import (
	"testing"

	"github.com/specialistvlad/portflow/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoader_MergesFormats splits one graph over HCL, YAML and JSON files in
// a directory tree.
func TestLoader_MergesFormats(t *testing.T) {
	files := map[string]string{
		"a_nodes.hcl": `
node "s" { type = "start" }
node "up" {
  type   = "transcode"
  config = { to = upper("hex") == "HEX" ? "hex" : "raw" }
}
relation {
  from        = "s"
  from_output = "word"
  to          = "up"
  to_input    = "data"
}
`,
		"b_end.yaml": `
nodes:
  - id: e
    type: end
relations:
  - from: up
    fromOutput: data
    to: e
    toInput: result
`,
		"nested/c_extra.json": `{
  "relations": [{"from": "s", "fromOutput": "word", "to": "e", "toInput": "original"}]
}`,
		"README.md": "ignored",
	}

	result := runIntegrationTest(t, files, app.Config{InputJSON: `{"word":"hi"}`})
	require.NoError(t, result.Err)
	assert.JSONEq(t, `{"result":"6869","original":"hi"}`, result.Output)
}

func TestLoader_InvalidDefinitionIsRejected(t *testing.T) {
	files := map[string]string{
		"main.hcl": `node "s" { type = "start" `,
	}
	result := runIntegrationTest(t, files, app.Config{})
	require.Error(t, result.Err)
	assert.ErrorContains(t, result.Err, "failed to parse HCL")
}

func TestLoader_CycleIsRejected(t *testing.T) {
	files := map[string]string{
		"graph.yaml": `
nodes:
  - {id: s, type: start}
  - {id: a, type: transcode}
  - {id: b, type: transcode}
  - {id: e, type: end}
relations:
  - {from: s, fromOutput: x, to: a, toInput: data}
  - {from: a, fromOutput: data, to: b, toInput: data}
  - {from: b, fromOutput: data, to: a, toInput: back}
  - {from: b, fromOutput: data, to: e, toInput: out}
`,
	}
	result := runIntegrationTest(t, files, app.Config{})
	require.Error(t, result.Err)
	assert.ErrorContains(t, result.Err, "cycle detected: a -> b -> a")
}
