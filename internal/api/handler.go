package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/metroreach/internal/engine"
	"github.com/gyaneshwarpardhi/metroreach/internal/graph"
	"github.com/gyaneshwarpardhi/metroreach/internal/metrics"
	"github.com/gyaneshwarpardhi/metroreach/internal/topology"
)

const maxBatchSize = 100

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng    *engine.Engine
	loader *topology.Loader // nil when serving a stored index only
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
// loader may be nil, in which case rebuilds are refused.
func New(eng *engine.Engine, loader *topology.Loader) http.Handler {
	h := &Handler{eng: eng, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/reach", h.reach)
	h.mux.HandleFunc("POST /v1/reach/batch", h.reachBatch)
	h.mux.HandleFunc("GET /v1/lines", h.listLines)
	h.mux.HandleFunc("GET /v1/lines/{line}", h.getLine)
	h.mux.HandleFunc("GET /v1/stations/{name}", h.getStation)
	h.mux.HandleFunc("POST /v1/index/rebuild", h.rebuild)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// reachRequest is the wire form of a query. max_changes may be a number,
// null/absent (server default) or the string "unlimited".
type reachRequest struct {
	ID             string          `json:"id,omitempty"`
	Origin         string          `json:"origin"`
	MaxHops        *int            `json:"max_hops"`
	MaxChanges     json.RawMessage `json:"max_changes,omitempty"`
	BannedStations []string        `json:"banned_stations,omitempty"`
	BannedLines    []string        `json:"banned_lines,omitempty"`
	HideLines      []string        `json:"hide_lines,omitempty"`
}

func (r *reachRequest) toEngine() (engine.Request, error) {
	if r.MaxHops == nil {
		return engine.Request{}, fmt.Errorf("%w: max_hops is required", graph.ErrInvalidQuery)
	}
	req := engine.Request{
		ID: r.ID,
		Query: graph.Query{
			Origin:         r.Origin,
			MaxHops:        *r.MaxHops,
			BannedStations: r.BannedStations,
			BannedLines:    r.BannedLines,
		},
		HideLines: r.HideLines,
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	raw := string(r.MaxChanges)
	switch raw {
	case "", "null":
	case `"unlimited"`:
		req.Unlimited = true
	default:
		var n int
		if err := json.Unmarshal(r.MaxChanges, &n); err != nil {
			return engine.Request{}, fmt.Errorf("%w: max_changes must be an integer, null or \"unlimited\"", graph.ErrInvalidQuery)
		}
		req.Query.MaxChanges = graph.Changes(n)
	}
	return req, nil
}

// POST /v1/reach — synchronous single query.
func (h *Handler) reach(w http.ResponseWriter, r *http.Request) {
	var body reachRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	req, err := body.toEngine()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := h.eng.Reach(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /v1/reach/batch — up to 100 queries answered in parallel.
func (h *Handler) reachBatch(w http.ResponseWriter, r *http.Request) {
	var bodies []reachRequest
	if err := json.NewDecoder(r.Body).Decode(&bodies); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(bodies) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one query")
		return
	}
	if len(bodies) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(bodies), maxBatchSize))
		return
	}
	if _, err := h.eng.Index(); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	reqs := make([]engine.Request, 0, len(bodies))
	bad := make(map[int]*engine.Outcome)
	for i := range bodies {
		req, err := bodies[i].toEngine()
		if err != nil {
			bad[i] = &engine.Outcome{QueryID: bodies[i].ID, Origin: bodies[i].Origin, Lines: graph.Groups{}, Error: err.Error()}
			continue
		}
		reqs = append(reqs, req)
	}
	outs := h.eng.ReachBatch(r.Context(), reqs)

	merged := make([]*engine.Outcome, 0, len(bodies))
	next := 0
	for i := range bodies {
		if o, ok := bad[i]; ok {
			merged = append(merged, o)
			continue
		}
		merged = append(merged, outs[next])
		next++
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"batch_id": uuid.New().String(),
		"total":    len(merged),
		"results":  merged,
	})
}

type lineSummary struct {
	Line     string   `json:"line"`
	Stations []string `json:"stations"`
}

// GET /v1/lines — every line with its stations in travel order.
func (h *Handler) listLines(w http.ResponseWriter, r *http.Request) {
	idx, err := h.eng.Index()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	lines := idx.Lines()
	out := make([]lineSummary, 0, len(lines))
	for _, l := range lines {
		out = append(out, lineSummary{Line: l, Stations: idx.LineStations(l)})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(out),
		"lines": out,
	})
}

// GET /v1/lines/{line} — one line, matched by normalized id.
func (h *Handler) getLine(w http.ResponseWriter, r *http.Request) {
	idx, err := h.eng.Index()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	want := graph.NewLineSet(r.PathValue("line"))
	for _, l := range idx.Lines() {
		if want.Has(l) {
			writeJSON(w, http.StatusOK, lineSummary{Line: l, Stations: idx.LineStations(l)})
			return
		}
	}
	writeError(w, http.StatusNotFound, fmt.Sprintf("line %q not found", r.PathValue("line")))
}

// GET /v1/stations/{name} — the station's record on every line serving it.
func (h *Handler) getStation(w http.ResponseWriter, r *http.Request) {
	idx, err := h.eng.Index()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	name := r.PathValue("name")
	recs := idx.Records(name)
	if len(recs) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("station %q not found", name))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"station": name,
		"records": recs,
	})
}

// POST /v1/index/rebuild — re-read the topology file; the loader's change
// hook rebuilds, persists and swaps the index. 422 for a malformed file,
// 500 when the rebuild or save fails.
func (h *Handler) rebuild(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		writeError(w, http.StatusServiceUnavailable, "no topology source configured")
		return
	}
	if _, err := h.loader.Reload(); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, topology.ErrMalformedTopology) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}
	idx, err := h.eng.Index()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rebuilt":  true,
		"lines":    len(idx.Lines()),
		"stations": idx.StationCount(),
		"records":  idx.RecordCount(),
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 without an index or when the query queue is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if _, err := h.eng.Index(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "no_index",
		})
		return
	}
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, graph.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, graph.ErrIndexUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, engine.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
