// Package api exposes the console's local status surface: supervisor
// state, the live feed view, bridge logs, and Prometheus metrics. The
// server binds loopback only; it is a diagnostic surface for the CLI
// and local tooling, not part of the backend's own API.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/syurodev/ztkapp-sub000/pkg/bridge"
	"github.com/syurodev/ztkapp-sub000/pkg/live"
	"github.com/syurodev/ztkapp-sub000/pkg/metrics"
	"github.com/syurodev/ztkapp-sub000/pkg/supervisor"
	"github.com/syurodev/ztkapp-sub000/pkg/types"
)

// StatusServer provides the local HTTP status endpoints
type StatusServer struct {
	supervisor *supervisor.ConnectionSupervisor
	feed       *live.Feed
	bridge     bridge.Bridge
	mux        *http.ServeMux
	server     *http.Server
}

// NewStatusServer creates a status server over the console components.
// Feed and bridge are optional; their endpoints return 404 when absent.
func NewStatusServer(sup *supervisor.ConnectionSupervisor, feed *live.Feed, b bridge.Bridge) *StatusServer {
	mux := http.NewServeMux()
	ss := &StatusServer{
		supervisor: sup,
		feed:       feed,
		bridge:     b,
		mux:        mux,
	}

	mux.HandleFunc("/healthz", ss.healthzHandler)
	mux.HandleFunc("/status", ss.statusHandler)
	mux.HandleFunc("/feed", ss.feedHandler)
	mux.HandleFunc("/logs", ss.logsHandler)
	mux.Handle("/metrics", metrics.Handler())

	return ss
}

// Start starts the status server on addr. Blocks until the listener fails.
func (ss *StatusServer) Start(addr string) error {
	ss.server = &http.Server{
		Addr:         addr,
		Handler:      ss.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return ss.server.ListenAndServe()
}

// Shutdown gracefully stops the status server
func (ss *StatusServer) Shutdown() error {
	if ss.server == nil {
		return nil
	}
	return ss.server.Close()
}

// Handler exposes the mux for tests
func (ss *StatusServer) Handler() http.Handler {
	return ss.mux
}

// healthzResponse is the liveness check body
type healthzResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// logsResponse is the /logs body
type logsResponse struct {
	Logs []types.LogEntry `json:"logs"`
}

// healthzHandler reports console process liveness only. Backend
// reachability lives under /status.
func (ss *StatusServer) healthzHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, healthzResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	})
}

// statusHandler returns the supervisor's current state snapshot
func (ss *StatusServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, ss.supervisor.Snapshot())
}

// feedHandler returns the reconciled live attendance view
func (ss *StatusServer) feedHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if ss.feed == nil {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, ss.feed.Snapshot())
}

// logsHandler returns captured backend process output. ?errors=true
// narrows to error-level entries.
func (ss *StatusServer) logsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if ss.bridge == nil {
		http.NotFound(w, r)
		return
	}

	var logs []types.LogEntry
	if r.URL.Query().Get("errors") == "true" {
		logs = ss.bridge.BackendErrorLogs()
	} else {
		logs = ss.bridge.BackendLogs()
	}

	writeJSON(w, http.StatusOK, logsResponse{Logs: logs})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
