package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/OrlandoBitencourt/flagx/internal/logging"
)

// AdminServer provides admin HTTP endpoints
type AdminServer struct {
	cache  CacheInterface
	logger logging.Logger
	router *mux.Router
	ln     *listener
}

// NewAdminServer creates a new admin server listening on addr (e.g. ":9090").
func NewAdminServer(cache CacheInterface, addr string, logger logging.Logger) *AdminServer {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	a := &AdminServer{
		cache:  cache,
		logger: logger,
		router: mux.NewRouter(),
	}

	a.router.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	a.router.HandleFunc("/admin/stats", a.handleStats).Methods(http.MethodGet)
	a.router.HandleFunc("/admin/invalidate", a.handleInvalidate).Methods(http.MethodPost)
	a.router.HandleFunc("/admin/invalidate-all", a.handleInvalidateAll).Methods(http.MethodPost)

	a.ln = &listener{name: "admin", addr: addr, logger: logger, handler: a.router}
	return a
}

// Handler returns the admin routes.
func (a *AdminServer) Handler() http.Handler {
	return a.router
}

// Start starts the admin HTTP server in the background
func (a *AdminServer) Start() error {
	return a.ln.start()
}

// Addr returns the bound address, or "" before Start.
func (a *AdminServer) Addr() string {
	return a.ln.address()
}

// Shutdown gracefully stops the server
func (a *AdminServer) Shutdown(ctx context.Context) error {
	return a.ln.shutdown(ctx)
}

func (a *AdminServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (a *AdminServer) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.cache.GetMetrics())
}

func (a *AdminServer) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FlagKey  string `json:"flag_key"`
		TargetID string `json:"target_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.FlagKey == "" {
		http.Error(w, "flag_key is required", http.StatusBadRequest)
		return
	}

	a.cache.Invalidate(req.FlagKey, req.TargetID)

	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"flag":      req.FlagKey,
		"target_id": req.TargetID,
	})
}

func (a *AdminServer) handleInvalidateAll(w http.ResponseWriter, r *http.Request) {
	a.cache.InvalidateAll()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
