package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/specialistvlad/portflow/internal/ctxlog"
	"github.com/specialistvlad/portflow/internal/engine"
	"github.com/specialistvlad/portflow/internal/runstore"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
	defaultListLimit  = 20
	maxListLimit      = 100
	maxBodySize       = 1 << 20
)

type runResponse struct {
	RunID   string         `json:"run_id"`
	Status  string         `json:"status"`
	Outputs map[string]any `json:"outputs,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// runView is a stored run with its outputs inlined.
type runView struct {
	*runstore.Run
	Outputs json.RawMessage `json:"outputs,omitempty"`
}

type listRunsResponse struct {
	Runs   []runView `json:"runs"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

type nodeView struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type relationView struct {
	From       string `json:"from"`
	FromOutput string `json:"fromOutput"`
	To         string `json:"to"`
	ToInput    string `json:"toInput"`
}

type graphResponse struct {
	Start     string         `json:"start"`
	End       string         `json:"end"`
	Nodes     []nodeView     `json:"nodes"`
	Relations []relationView `json:"relations"`
}

// Serve opens the run history and serves the HTTP API until ctx is done or
// the process is interrupted.
func (a *App) Serve(ctx context.Context) error {
	runs, err := runstore.NewSQLiteStore(a.config.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	defer runs.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              a.config.ServeAddr,
		Handler:           a.Router(runs),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("🌐 Server starting.", "address", a.config.ServeAddr, "db", a.config.DBPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.logger.Info("🌐 Shutting down server.")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Server shutdown failed.", "error", err)
		return err
	}
	a.logger.Debug("Server shut down gracefully.")
	return nil
}

// Router builds the HTTP API. Runs are recorded in runs.
func (a *App) Router(runs runstore.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.loggingMiddleware)
	r.Use(a.metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	h := &handlers{app: a, runs: runs}
	r.Get("/health", h.health)
	r.Handle("/metrics", a.metrics.Handler())
	r.Get("/v1/graph", h.graph)
	r.Route("/v1/runs", func(r chi.Router) {
		r.Post("/", h.createRun)
		r.Get("/", h.listRuns)
		r.Get("/{id}", h.getRun)
	})
	return r
}

func (a *App) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctxlog.WithLogger(r.Context(), a.logger)))

		a.logger.Debug("Request served.",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type handlers struct {
	app  *App
	runs runstore.Store
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) graph(w http.ResponseWriter, r *http.Request) {
	g := h.app.graph
	resp := graphResponse{Start: g.StartID(), End: g.EndID()}
	for _, n := range g.Nodes() {
		resp.Nodes = append(resp.Nodes, nodeView{ID: n.ID, Type: string(n.Type)})
	}
	for _, rel := range g.Relations() {
		resp.Relations = append(resp.Relations, relationView{
			From: rel.From, FromOutput: rel.FromPort, To: rel.To, ToInput: rel.ToPort,
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// createRun runs the graph synchronously with the request body as input.
// A failed run is recorded and answered with 422.
func (h *handlers) createRun(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	input, err := decodeInput(body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	logger := ctxlog.FromContext(ctx)
	runID := engine.NewRunID()
	now := time.Now().UTC()
	if err := h.runs.Create(ctx, runID, now); err != nil {
		logger.Error("Failed to record run.", "run_id", runID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to record run")
		return
	}

	out, runErr := h.app.engine.Run(engine.ContextWithRunID(ctx, runID), h.app.graph, input)

	resp := runResponse{RunID: runID, Status: runstore.StatusSucceeded}
	status := http.StatusOK
	var stored []byte
	if runErr != nil {
		resp.Status = runstore.StatusFailed
		resp.Error = runErr.Error()
		status = http.StatusUnprocessableEntity
	} else {
		resp.Outputs = engine.RedactPorts(out, h.app.config.RedactLimit)
		if stored, err = sonic.ConfigStd.Marshal(resp.Outputs); err != nil {
			logger.Warn("Failed to encode run outputs.", "run_id", runID, "error", err)
			stored = nil
		}
	}

	if err := h.runs.Finish(ctx, runID, resp.Status, time.Now().UTC(), resp.Error, stored); err != nil {
		logger.Error("Failed to finish run record.", "run_id", runID, "error", err)
	}
	h.writeJSON(w, status, resp)
}

func (h *handlers) getRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.runs.Get(r.Context(), id)
	if errors.Is(err, runstore.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		ctxlog.FromContext(r.Context()).Error("Failed to get run.", "run_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}
	h.writeJSON(w, http.StatusOK, viewOf(run))
}

func (h *handlers) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", defaultListLimit)
	offset := parseIntQuery(r, "offset", 0)
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	runs, total, err := h.runs.List(r.Context(), limit, offset)
	if err != nil {
		ctxlog.FromContext(r.Context()).Error("Failed to list runs.", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	views := make([]runView, 0, len(runs))
	for _, run := range runs {
		views = append(views, viewOf(run))
	}
	h.writeJSON(w, http.StatusOK, listRunsResponse{Runs: views, Total: total, Limit: limit, Offset: offset})
}

func viewOf(run *runstore.Run) runView {
	v := runView{Run: run}
	if len(run.Outputs) > 0 {
		v.Outputs = json.RawMessage(run.Outputs)
	}
	return v
}

func parseIntQuery(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func (h *handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := sonic.ConfigStd.NewEncoder(w).Encode(v); err != nil {
		h.app.logger.Error("Failed to encode response.", "error", err)
	}
}

func (h *handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
