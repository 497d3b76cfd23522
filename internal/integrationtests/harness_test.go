package integrationtests

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/portflow/internal/app"
	"github.com/specialistvlad/portflow/internal/registry"
	"github.com/specialistvlad/portflow/internal/testutil"
	"github.com/stretchr/testify/require"
)

// harnessResult holds the outcomes of an integration test run.
type harnessResult struct {
	Output    string
	LogOutput string
	Err       error
}

// runIntegrationTest writes files under a temporary directory, loads every
// definition in it and runs the graph once. cfg.GraphPath is filled in.
func runIntegrationTest(t *testing.T, files map[string]string, cfg app.Config, modules ...registry.Module) *harnessResult {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cfg.GraphPath = dir
	cfg.LogLevel = "debug"
	if cfg.RedactLimit == 0 {
		cfg.RedactLimit = 4096
	}
	c, err := app.NewConfig(cfg)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	logs := &testutil.SafeBuffer{}
	t.Cleanup(func() {
		if os.Getenv("PORTFLOW_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})

	a, err := app.NewApp(out, logs, c, modules...)
	if err != nil {
		return &harnessResult{LogOutput: logs.String(), Err: err}
	}
	defer a.Close()

	err = a.Run(context.Background())
	return &harnessResult{Output: out.String(), LogOutput: logs.String(), Err: err}
}
