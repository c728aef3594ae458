// Package handlers provides HTTP request handlers for the API endpoints.
// Handlers coordinate between the HTTP layer and service layer, handling
// request parsing, validation, and response formatting.
//
// This package includes handlers for:
//   - Health checks and readiness probes
//   - Signup, login, and Google federated login
//   - The chat surface (sessions, turns, history)
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nick-ui911/Nova-AI/pkg/utils"
)

// Pinger checks connectivity to a dependency. Both *database.PostgresDB
// and *database.RedisDB satisfy it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints for monitoring and orchestration.
// Provides both simple liveness checks and detailed readiness checks that verify
// connectivity to dependent services (PostgreSQL and Redis).
type HealthHandler struct {
	postgres Pinger
	redis    Pinger
}

// NewHealthHandler creates a new health handler with database dependencies.
//
// Example:
//
//	healthHandler := handlers.NewHealthHandler(postgresDB, redisDB)
//	r.Get("/health", healthHandler.Health)
//	r.Get("/ready", healthHandler.Ready)
func NewHealthHandler(postgres, redis Pinger) *HealthHandler {
	return &HealthHandler{
		postgres: postgres,
		redis:    redis,
	}
}

// HealthResponse represents the health check response structure.
// Used by both the basic health check and detailed readiness check.
//
// JSON example:
//
//	{
//	  "status": "ok",
//	  "timestamp": "2024-01-20T14:30:00Z",
//	  "services": {
//	    "postgres": "healthy",
//	    "redis": "healthy"
//	  }
//	}
type HealthResponse struct {
	Status    string            `json:"status"`             // Overall status: "ok" or "degraded"
	Timestamp time.Time         `json:"timestamp"`          // Current server time
	Services  map[string]string `json:"services,omitempty"` // Individual service health (readiness only)
}

// Health returns a simple health check indicating the service is running.
// This is a liveness probe: it only checks if the application is alive,
// not if it's ready to serve traffic. Use Ready() for readiness checks.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	}

	utils.RespondWithJSON(w, r, http.StatusOK, response)
}

// Ready checks if the service is ready to accept traffic by verifying
// connectivity to PostgreSQL and Redis. Returns 200 OK if all
// dependencies are healthy, or 503 Service Unavailable if any are down.
//
// Used by load balancers and orchestrators to decide whether to route
// traffic to this instance. Checks have a 5-second timeout to prevent
// hanging probes.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	services := make(map[string]string)
	allHealthy := true

	if err := h.postgres.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("PostgreSQL health check failed")
		services["postgres"] = "unhealthy"
		allHealthy = false
	} else {
		services["postgres"] = "healthy"
	}

	if err := h.redis.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("Redis health check failed")
		services["redis"] = "unhealthy"
		allHealthy = false
	} else {
		services["redis"] = "healthy"
	}

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Services:  services,
	}

	statusCode := http.StatusOK
	if !allHealthy {
		response.Status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	utils.RespondWithJSON(w, r, statusCode, response)
}
