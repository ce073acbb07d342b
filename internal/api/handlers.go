package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/agroland/agroland-sync/internal/status"
	"github.com/agroland/agroland-sync/pkg/versions"
)

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, HealthResponse{Status: "healthy"}, http.StatusOK)
}

func readinessHandler(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := checker.CheckReadiness(r.Context()); err != nil {
			slog.WarnContext(r.Context(), "Readiness check failed", "error", err)
			writeJSONResponse(w, ErrorResponse{Error: "not ready: " + err.Error()}, http.StatusServiceUnavailable)
			return
		}
		writeJSONResponse(w, ReadinessResponse{Status: "ready"}, http.StatusOK)
	}
}

// statusHandler reports the scheduler phase and the last run summary
func statusHandler(tracker *status.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSONResponse(w, tracker.Snapshot(), http.StatusOK)
	}
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}

func writeJSONResponse(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
