package api

import (
	"net/http"
	"time"

	"github.com/avclabs/faxdesk/internal/api/respond"
	"github.com/avclabs/faxdesk/internal/health"
)

// HealthHandler reports cached service health. The endpoint always
// answers 200; degraded state is carried in the body so load balancers
// can keep polling while operators see the flag.
type HealthHandler struct {
	checker *health.ServiceHealthChecker
}

func NewHealthHandler(checker *health.ServiceHealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// CheckHealth GET /health
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if h.checker != nil && !h.checker.IsHealthy() {
		status = "degraded"
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
