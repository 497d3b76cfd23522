package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/specialistvlad/portflow/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserver_NodeFinished(t *testing.T) {
	o := New()
	ctx := context.Background()

	o.NodeFinished(ctx, engine.Record{NodeID: "a", NodeType: "print", Elapsed: 20 * time.Millisecond})
	o.NodeFinished(ctx, engine.Record{NodeID: "b", NodeType: "print", Elapsed: 30 * time.Millisecond})
	o.NodeFinished(ctx, engine.Record{NodeID: "c", NodeType: "http_request", Elapsed: time.Second})

	assert.Equal(t, 2.0, testutil.ToFloat64(o.nodesTotal.WithLabelValues("print")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.nodesTotal.WithLabelValues("http_request")))
	assert.Equal(t, 2, testutil.CollectAndCount(o.nodeDuration))
}

func TestObserver_RunFinished(t *testing.T) {
	o := New()
	ctx := context.Background()

	o.RunFinished(ctx, engine.RunRecord{RunID: "1", Elapsed: time.Second})
	o.RunFinished(ctx, engine.RunRecord{RunID: "2", Elapsed: time.Second, Err: errors.New("x")})
	o.RunFinished(ctx, engine.RunRecord{RunID: "3", Elapsed: time.Second})

	assert.Equal(t, 2.0, testutil.ToFloat64(o.runsTotal.WithLabelValues(StatusSucceeded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.runsTotal.WithLabelValues(StatusFailed)))
}

func TestObserver_HandlerAndMiddleware(t *testing.T) {
	o := New()
	o.NodeFinished(context.Background(), engine.Record{NodeType: "print"})

	r := chi.NewRouter()
	r.Use(o.Middleware)
	r.Get("/v1/runs/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Method(http.MethodGet, "/metrics", o.Handler())

	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/runs/abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 1.0, testutil.ToFloat64(o.httpRequestsTotal.WithLabelValues("GET", "/v1/runs/{id}", "404")))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `portflow_node_executions_total{node_type="print"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.NodeFinished(context.Background(), engine.Record{NodeType: "x"})
	assert.Equal(t, 1.0, testutil.ToFloat64(a.nodesTotal.WithLabelValues("x")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.nodesTotal.WithLabelValues("x")))
}
