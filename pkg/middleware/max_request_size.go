package middleware

import (
	"net/http"
	"strings"
)

// MaxRequestSize caps request bodies. The import route gets its own,
// larger cap since xlsx workbooks dwarf JSON payloads.
func MaxRequestSize(limit int64, importLimit int64, importPathPrefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			effective := limit
			if importPathPrefix != "" && strings.HasPrefix(r.URL.Path, importPathPrefix) {
				effective = importLimit
			}

			if r.ContentLength > effective {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				_, _ = w.Write([]byte(`{"error":"Request body too large"}`))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, effective)
			next.ServeHTTP(w, r)
		})
	}
}
