package app

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/specialistvlad/portflow/internal/graph"
	"github.com/specialistvlad/portflow/internal/registry"
	"github.com/specialistvlad/portflow/internal/runstore"
	"github.com/specialistvlad/portflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeGraph is start -> transcode(base64) -> end.
const encodeGraph = `{
  "nodes": [
    {"id": "s", "type": "start"},
    {"id": "t", "type": "transcode", "config": {"to": "base64"}},
    {"id": "e", "type": "end"}
  ],
  "relations": [
    {"from": "s", "fromOutput": "text", "to": "t", "toInput": "data"},
    {"from": "t", "fromOutput": "data", "to": "e", "toInput": "encoded"}
  ]
}`

func writeGraph(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// setupApp creates an App over the given graph, capturing output and logs.
func setupApp(t *testing.T, cfg Config, modules ...registry.Module) (*App, *bytes.Buffer, *testutil.SafeBuffer) {
	t.Helper()
	if cfg.GraphPath == "" {
		cfg.GraphPath = writeGraph(t, encodeGraph)
	}
	cfg.LogLevel = "debug"
	c, err := NewConfig(cfg)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	logs := &testutil.SafeBuffer{}
	a, err := NewApp(out, logs, c, modules...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = a.Close()
		if os.Getenv("PORTFLOW_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return a, out, logs
}

func TestNewConfig(t *testing.T) {
	_, err := NewConfig(Config{})
	assert.ErrorContains(t, err, "GraphPath is a required")

	_, err = NewConfig(Config{GraphPath: "g.json", InputJSON: "{}", InputFile: "in.json"})
	assert.ErrorContains(t, err, "mutually exclusive")

	c, err := NewConfig(Config{GraphPath: "g.json"})
	require.NoError(t, err)
	assert.Equal(t, ":memory:", c.DBPath)
}

func TestNewApp_Errors(t *testing.T) {
	logs := &testutil.SafeBuffer{}

	t.Run("missing graph", func(t *testing.T) {
		_, err := NewApp(io.Discard, logs, &Config{GraphPath: filepath.Join(t.TempDir(), "none.json")})
		assert.ErrorContains(t, err, "failed to load graph definition")
	})

	t.Run("invalid graph", func(t *testing.T) {
		path := writeGraph(t, `{"nodes":[{"id":"s","type":"start"}]}`)
		_, err := NewApp(io.Discard, logs, &Config{GraphPath: path})
		assert.ErrorContains(t, err, "graph has no end node")
	})

	t.Run("unknown node type", func(t *testing.T) {
		path := writeGraph(t, `{"nodes":[{"id":"s","type":"start"},{"id":"x","type":"teleport"},{"id":"e","type":"end"}]}`)
		_, err := NewApp(io.Discard, logs, &Config{GraphPath: path})
		assert.ErrorContains(t, err, `node "x"`)
		assert.ErrorContains(t, err, `unknown node type "teleport"`)
	})

	t.Run("bad log level", func(t *testing.T) {
		_, err := NewApp(io.Discard, logs, &Config{GraphPath: writeGraph(t, encodeGraph), LogLevel: "trace"})
		assert.ErrorContains(t, err, "invalid logging configuration")
	})

	t.Run("missing env file", func(t *testing.T) {
		_, err := NewApp(io.Discard, logs, &Config{GraphPath: writeGraph(t, encodeGraph), EnvFile: "/no/such/.env"})
		assert.ErrorContains(t, err, "failed to load env file")
	})
}

func TestNewApp_RegistersCoreModules(t *testing.T) {
	a, _, _ := setupApp(t, Config{})
	types := a.Registry().Types()
	for _, want := range []graph.NodeType{"start", "end", "print", "credentials", "http_request", "transfer", "transcode", "socketio"} {
		assert.Contains(t, types, want)
	}
	assert.True(t, a.Registry().Frozen())
}

func TestRun_PrintsEndOutputs(t *testing.T) {
	a, out, logs := setupApp(t, Config{InputJSON: `{"text":"hi"}`})

	require.NoError(t, a.Run(context.Background()))
	assert.JSONEq(t, `{"encoded":"aGk="}`, out.String())
	assert.Contains(t, logs.String(), "Finished run.")
}

func TestRun_InputFile(t *testing.T) {
	in := filepath.Join(t.TempDir(), "in.json")
	require.NoError(t, os.WriteFile(in, []byte(`{"text":"portflow"}`), 0o600))
	a, out, _ := setupApp(t, Config{InputFile: in})

	require.NoError(t, a.Run(context.Background()))
	assert.JSONEq(t, `{"encoded":"cG9ydGZsb3c="}`, out.String())
}

func TestRun_RedactsBinaryOutputs(t *testing.T) {
	path := writeGraph(t, `{
	  "nodes": [{"id":"s","type":"start"},{"id":"z","type":"transcode","config":{"to":"gzip"}},{"id":"e","type":"end"}],
	  "relations": [
	    {"from":"s","fromOutput":"text","to":"z","toInput":"data"},
	    {"from":"z","fromOutput":"data","to":"e","toInput":"zipped"},
	    {"from":"z","fromOutput":"size","to":"e","toInput":"size"}
	  ]
	}`)
	a, out, _ := setupApp(t, Config{GraphPath: path, InputJSON: `{"text":"hello"}`})

	require.NoError(t, a.Run(context.Background()))
	var got map[string]any
	require.NoError(t, sonic.Unmarshal(out.Bytes(), &got))
	assert.True(t, strings.HasPrefix(got["zipped"].(string), "binary("), "got %v", got["zipped"])
}

func TestRun_Failure(t *testing.T) {
	a, out, logs := setupApp(t, Config{InputJSON: `{"other":"x"}`})

	err := a.Run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "execution failed")
	assert.ErrorContains(t, err, `no output port "text"`)
	assert.Empty(t, out.String())
	assert.Contains(t, logs.String(), "Run failed.")
}

func TestRun_BadInput(t *testing.T) {
	a, _, _ := setupApp(t, Config{InputJSON: `[1,2]`})
	assert.ErrorContains(t, a.Run(context.Background()), "input must be a JSON object")
}

func TestRun_EnvFileFeedsCredentials(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PORTFLOW_TEST_SECRET=opensesame\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("PORTFLOW_TEST_SECRET") })

	path := writeGraph(t, `{
	  "nodes": [
	    {"id":"s","type":"start"},
	    {"id":"c","type":"credentials","config":{"keys":["SECRET"],"prefix":"PORTFLOW_TEST_"}},
	    {"id":"t","type":"transcode","config":{"to":"hex"}},
	    {"id":"e","type":"end"}
	  ],
	  "relations": [
	    {"from":"c","fromOutput":"SECRET","to":"e","toInput":"secret"},
	    {"from":"c","fromOutput":"SECRET","to":"t","toInput":"data"},
	    {"from":"t","fromOutput":"data","to":"e","toInput":"hex"}
	  ]
	}`)
	a, out, logs := setupApp(t, Config{GraphPath: path, EnvFile: envFile})

	require.NoError(t, a.Run(context.Background()))
	// The transcode node sees the real value; printed results and logs do not.
	assert.JSONEq(t, `{"secret":"***","hex":"6f70656e736573616d65"}`, out.String())
	assert.NotContains(t, logs.String(), "opensesame")
}

func TestDecodeInput(t *testing.T) {
	for _, empty := range []string{"", "  \n", "null"} {
		in, err := decodeInput([]byte(empty))
		require.NoError(t, err)
		assert.Empty(t, in)
	}

	in, err := decodeInput([]byte(`{"n":1,"s":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, registry.Ports{"n": float64(1), "s": "x"}, in)

	_, err = decodeInput([]byte(`"str"`))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := newLogger("warn", "json", buf)
	require.NoError(t, err)
	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown", "k", 1)
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.NotContains(t, buf.String(), `"source"`)

	buf.Reset()
	logger, err = newLogger("", "", buf)
	require.NoError(t, err)
	logger.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")

	buf.Reset()
	logger, err = newLogger("DEBUG", "text", buf)
	require.NoError(t, err)
	logger.Debug("traced")
	assert.Contains(t, buf.String(), "source=app_test.go:")

	_, err = newLogger("bogus", "text", buf)
	assert.ErrorContains(t, err, `unknown log level "bogus"`)

	_, err = newLogger("info", "xml", buf)
	assert.ErrorContains(t, err, `unknown log format "xml"`)
}

// --- HTTP API ---

func newTestServer(t *testing.T, cfg Config) (*httptest.Server, *App) {
	t.Helper()
	a, _, _ := setupApp(t, cfg)
	runs, err := runstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { runs.Close() })

	ts := httptest.NewServer(a.Router(runs))
	t.Cleanup(ts.Close)
	return ts, a
}

func doJSON(t *testing.T, method, url, body string, into any) int {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if into != nil {
		require.NoError(t, sonic.Unmarshal(data, into), "body: %s", data)
	}
	return resp.StatusCode
}

func TestServer_Health(t *testing.T) {
	ts, _ := newTestServer(t, Config{})

	var got map[string]string
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/health", "", &got))
	assert.Equal(t, "ok", got["status"])
}

func TestServer_Graph(t *testing.T) {
	ts, _ := newTestServer(t, Config{})

	var got graphResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/v1/graph", "", &got))
	assert.Equal(t, "s", got.Start)
	assert.Equal(t, "e", got.End)
	assert.Equal(t, []nodeView{{"s", "start"}, {"t", "transcode"}, {"e", "end"}}, got.Nodes)
	assert.Equal(t, relationView{From: "s", FromOutput: "text", To: "t", ToInput: "data"}, got.Relations[0])
}

func TestServer_RunLifecycle(t *testing.T) {
	ts, _ := newTestServer(t, Config{})

	var created runResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, ts.URL+"/v1/runs", `{"text":"hi"}`, &created))
	assert.Equal(t, runstore.StatusSucceeded, created.Status)
	assert.Equal(t, map[string]any{"encoded": "aGk="}, created.Outputs)
	require.NotEmpty(t, created.RunID)

	var failed runResponse
	require.Equal(t, http.StatusUnprocessableEntity, doJSON(t, http.MethodPost, ts.URL+"/v1/runs", `{}`, &failed))
	assert.Equal(t, runstore.StatusFailed, failed.Status)
	assert.Contains(t, failed.Error, `node "s"`)

	var got map[string]any
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/v1/runs/"+created.RunID, "", &got))
	assert.Equal(t, created.RunID, got["id"])
	assert.Equal(t, runstore.StatusSucceeded, got["status"])
	assert.Equal(t, map[string]any{"encoded": "aGk="}, got["outputs"])

	var list struct {
		Runs  []map[string]any `json:"runs"`
		Total int              `json:"total"`
	}
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/v1/runs?limit=500", "", &list))
	assert.Equal(t, 2, list.Total)
	assert.Len(t, list.Runs, 2)
}

func TestServer_Errors(t *testing.T) {
	ts, _ := newTestServer(t, Config{})

	var e map[string]string
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodGet, ts.URL+"/v1/runs/nope", "", &e))
	assert.Equal(t, "run not found", e["error"])

	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, ts.URL+"/v1/runs", `[1]`, &e))
	assert.Contains(t, e["error"], "input must be a JSON object")
}

func TestServer_Metrics(t *testing.T) {
	ts, _ := newTestServer(t, Config{})
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, ts.URL+"/v1/runs", `{"text":"hi"}`, nil))

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `portflow_runs_total{status="succeeded"} 1`)
	assert.Contains(t, text, `portflow_node_executions_total{node_type="transcode"} 1`)
	assert.Contains(t, text, `portflow_http_requests_total{method="POST"`)
}

func TestServer_RunIDsAreUnique(t *testing.T) {
	ts, _ := newTestServer(t, Config{})
	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		var r runResponse
		require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, ts.URL+"/v1/runs", `{"text":"x"}`, &r))
		assert.False(t, seen[r.RunID])
		seen[r.RunID] = true
	}
}
