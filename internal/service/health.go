package service

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is implemented by stores that can check their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthService reports whether the store is reachable.
type HealthService struct {
	store Pinger
}

// NewHealthService creates a HealthService for store.
func NewHealthService(store Pinger) *HealthService {
	return &HealthService{store: store}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
func (s *HealthService) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		slog.Error("health-check: store ping failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:   "error",
			Database: "disconnected",
			Error:    err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "connected"})
}
