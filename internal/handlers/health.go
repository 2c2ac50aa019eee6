package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskflow/taskflow-api/internal/database"
	"github.com/taskflow/taskflow-api/internal/queue"
)

// HealthChecker handles health check requests
type HealthChecker struct {
	db       *database.DB
	redis    *redis.Client
	jobQueue queue.JobQueue
}

// NewHealthChecker creates a new health checker. Redis and queue are
// optional; nil dependencies are skipped in extended mode.
func NewHealthChecker(db *database.DB, redisClient *redis.Client, jobQueue queue.JobQueue) *HealthChecker {
	return &HealthChecker{db: db, redis: redisClient, jobQueue: jobQueue}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if mode == "extended" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := make(map[string]string)

		if err := h.db.PingContext(ctx); err != nil {
			response.Status = "unhealthy"
			checks["database"] = "unhealthy: " + err.Error()
		} else {
			checks["database"] = "healthy"
		}

		if h.redis != nil {
			if err := h.redis.Ping(ctx).Err(); err != nil {
				response.Status = "unhealthy"
				checks["cache"] = "unhealthy: " + err.Error()
			} else {
				checks["cache"] = "healthy"
			}
		}

		if h.jobQueue != nil {
			if err := h.jobQueue.HealthCheck(ctx); err != nil {
				response.Status = "unhealthy"
				checks["queue"] = "unhealthy: " + err.Error()
			} else {
				checks["queue"] = "healthy"
			}
		}

		response.Checks = checks

		statusCode := http.StatusOK
		if response.Status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(response)
		return
	}

	// Basic mode - just return that the server is running
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
