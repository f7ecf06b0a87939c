package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ServiceStatus handles GET /event/health_check, the service-level
// liveness probe exposed to API clients.
func ServiceStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "active",
			"message": "Event Management Service is up and running",
		})
	}
}

// Healthz is the process liveness probe.
func Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Readyz reports readiness by pinging the database. It returns 503 until
// the pool can execute a query.
func Readyz(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pool == nil {
			writeReadiness(w, http.StatusServiceUnavailable, "database pool not initialized")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		var one int
		if err := pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
			writeReadiness(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
		writeReadiness(w, http.StatusOK, "")
	}
}

func writeReadiness(w http.ResponseWriter, status int, reason string) {
	payload := map[string]string{"status": "ready"}
	if status != http.StatusOK {
		payload["status"] = "not_ready"
		payload["reason"] = reason
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
