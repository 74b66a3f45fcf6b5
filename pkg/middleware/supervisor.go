package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"cyclecount/pkg/logger"
)

const SupervisorTokenHeader = "X-Supervisor-Token"

// SupervisorAuth gates the supervisor-only surface: creating and
// deleting assignments, importing inventory and editing the mapping.
// Counters performing counts never need the token. An empty configured
// token never matches, so a deployment without one keeps the
// supervisor surface closed rather than open.
func SupervisorAuth(token string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requiresSupervisor(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			presented := r.Header.Get(SupervisorTokenHeader)
			if token == "" || presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				log.Warn("Supervisor token missing or invalid",
					"request_id", RequestID(r.Context()),
					"path", r.URL.Path,
					"method", r.Method,
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"Supervisor token required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func requiresSupervisor(method, path string) bool {
	switch {
	case strings.HasPrefix(path, "/api/v1/assignments"):
		return method == http.MethodPost || method == http.MethodDelete
	case strings.HasPrefix(path, "/api/v1/inventory/import"),
		strings.HasPrefix(path, "/api/v1/inventory/sheets"):
		return method == http.MethodPost
	case strings.HasPrefix(path, "/api/v1/inventory/mapping"):
		return method == http.MethodPut
	default:
		return false
	}
}
