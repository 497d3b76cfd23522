package socketio

import (
	"context"
	"fmt"
	"net"
	"testing"

	"github.com/specialistvlad/portflow/internal/engine"
	"github.com/specialistvlad/portflow/internal/graph"
	"github.com/specialistvlad/portflow/internal/registry"
	"github.com/specialistvlad/portflow/internal/testutil"
	"github.com/specialistvlad/portflow/modules/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, config string) error {
	t.Helper()
	g := testutil.MustBuild(t,
		[]graph.Node{
			testutil.N("s", graph.TypeStart),
			testutil.NC("io", Type, config),
			testutil.N("e", graph.TypeEnd),
		},
		testutil.R("io", "response", "e", "response"),
	)
	_, err := engine.New(registry.New().Use(&flow.Module{}, &Module{})).Run(context.Background(), g, nil)
	return err
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"missing url", Config{EmitEvent: "a", OnEvent: "b"}, "url is required"},
		{"missing events", Config{URL: "http://x", EmitEvent: "a"}, "emit_event and on_event are required"},
		{"bad timeout", Config{URL: "http://x", EmitEvent: "a", OnEvent: "b", Timeout: "later"}, "failed to parse timeout"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.cfg.validate()
			assert.ErrorContains(t, err, tc.want)
		})
	}

	c := Config{URL: "http://x", EmitEvent: "ping", OnEvent: "pong"}
	d, err := c.validate()
	require.NoError(t, err)
	assert.Equal(t, defaultTimeout, d)
	assert.Equal(t, "/", c.Namespace)
}

func TestHandle_InvalidConfigFailsTheNode(t *testing.T) {
	err := run(t, `{"url":"http://127.0.0.1:1"}`)
	require.Error(t, err)
	assert.ErrorContains(t, err, `node "io"`)
	assert.ErrorContains(t, err, "emit_event and on_event are required")
}

func TestHandle_UnreachableServer(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	err = run(t, fmt.Sprintf(`{"url":"http://%s","emit_event":"ping","on_event":"pong","timeout":"2s"}`, addr))
	require.Error(t, err)
	assert.ErrorContains(t, err, "socket.io connection")
}
