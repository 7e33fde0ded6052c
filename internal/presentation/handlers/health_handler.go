package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthChecker defines the interface for health checking components
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler handles health check requests.
// Chain nodes are required; the database and cache are optional.
type HealthHandler struct {
	chains HealthChecker
	db     HealthChecker
	cache  HealthChecker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(chains, db, cache HealthChecker) *HealthHandler {
	return &HealthHandler{
		chains: chains,
		db:     db,
		cache:  cache,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  make(map[string]string),
	}

	// Chain nodes are required for every assessment
	if err := h.chains.HealthCheck(ctx); err != nil {
		response.Status = "unhealthy"
		response.Services["chains"] = "unhealthy: " + err.Error()
	} else {
		response.Services["chains"] = "healthy"
	}

	h.checkOptional(ctx, &response, "database", h.db)
	h.checkOptional(ctx, &response, "cache", h.cache)

	status := http.StatusOK
	if response.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

func (h *HealthHandler) checkOptional(ctx context.Context, response *HealthResponse, name string, checker HealthChecker) {
	if checker == nil {
		return
	}
	if err := checker.HealthCheck(ctx); err != nil {
		if response.Status == "healthy" {
			response.Status = "degraded"
		}
		response.Services[name] = "unhealthy: " + err.Error()
		return
	}
	response.Services[name] = "healthy"
}

// Ready handles GET /ready (Kubernetes readiness check)
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.chains.HealthCheck(ctx); err != nil {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

// Live handles GET /live (Kubernetes liveness check)
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("alive"))
}
