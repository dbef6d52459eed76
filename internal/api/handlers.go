package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"bikewatching/internal/snapshot"
	"bikewatching/internal/traffic"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type TrafficSource interface {
	Ready() bool
	Traffic(w traffic.Window) traffic.Report
	StationTraffic(id string, w traffic.Window) (traffic.StationTraffic, bool)
}

type SnapshotReader interface {
	Latest(ctx context.Context, window string) (traffic.Report, error)
}

type RequestMetrics interface {
	HTTPRequest(route string, code int)
}

type Handler struct {
	source    TrafficSource
	snapshots SnapshotReader
	metrics   RequestMetrics
	started   time.Time
}

// NewHandler builds the HTTP handlers. snapshots and metrics may be nil.
func NewHandler(source TrafficSource, snapshots SnapshotReader, metrics RequestMetrics) *Handler {
	return &Handler{source: source, snapshots: snapshots, metrics: metrics, started: time.Now()}
}

// GetTraffic serves every station's counts for ?minute=N, or all day when
// minute is absent or -1.
func (h *Handler) GetTraffic(w http.ResponseWriter, r *http.Request) {
	win, err := windowParam(r)
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	sendJSONResponse(w, h.source.Traffic(win))
}

// GetStationTraffic serves a single station's counts.
func (h *Handler) GetStationTraffic(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	win, err := windowParam(r)
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	st, ok := h.source.StationTraffic(id, win)
	if !ok {
		sendErrorResponse(w, fmt.Sprintf("Unknown station: %s", id), http.StatusNotFound)
		return
	}
	sendJSONResponse(w, map[string]interface{}{
		"window":  win.Token(),
		"label":   win.Label(),
		"station": st,
	})
}

// GetSnapshot serves the last report published for a window token ("all" or a minute).
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("window")
	if h.snapshots == nil {
		sendErrorResponse(w, "Snapshots are disabled", http.StatusNotFound)
		return
	}
	rep, err := h.snapshots.Latest(r.Context(), token)
	switch {
	case errors.Is(err, snapshot.ErrNotFound):
		sendErrorResponse(w, fmt.Sprintf("No snapshot for window %s", token), http.StatusNotFound)
	case errors.Is(err, snapshot.ErrUnavailable):
		sendErrorResponse(w, "Snapshot store unavailable", http.StatusServiceUnavailable)
	case err != nil:
		log.Errorf("snapshot read for window %s: %v", token, err)
		sendErrorResponse(w, "Failed to read snapshot", http.StatusInternalServerError)
	default:
		sendJSONResponse(w, rep)
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if !h.source.Ready() {
		status, code = "loading", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// Setup registers the routes and returns a server listening on addr.
func (h *Handler) Setup(addr string) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /traffic", h.instrument("/traffic", h.GetTraffic))
	mux.HandleFunc("GET /stations/{id}/traffic", h.instrument("/stations/{id}/traffic", h.GetStationTraffic))
	mux.HandleFunc("GET /snapshots/{window}", h.instrument("/snapshots/{window}", h.GetSnapshot))

	mux.HandleFunc("GET /healthz", h.instrument("/healthz", h.HealthCheck))

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func (h *Handler) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next(rec, r)
		if h.metrics != nil {
			h.metrics.HTTPRequest(route, rec.code)
		}
		log.Debugf("%s %s -> %d", r.Method, r.URL.RequestURI(), rec.code)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

func windowParam(r *http.Request) (traffic.Window, error) {
	raw := r.URL.Query().Get("minute")
	if raw == "" {
		return traffic.Unbounded, nil
	}
	minute, err := strconv.Atoi(raw)
	if err != nil {
		return traffic.Window{}, fmt.Errorf("invalid minute %q", raw)
	}
	return traffic.ParseWindow(minute)
}

func sendJSONResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func sendErrorResponse(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
