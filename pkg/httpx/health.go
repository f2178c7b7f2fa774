package httpx

import (
	"net/http"

	"github.com/ghuser/pharmacy/pkg/health"
)

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// HealthHandler returns an http.HandlerFunc that probes the given checkers
// and answers 503 if any of them fail.
func HealthHandler(checks map[string]health.Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := health.Probe(r.Context(), checks)

		status := http.StatusOK
		if report.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		JSON(w, status, healthResponse{Status: report.Status, Components: report.Components})
	}
}
