package api

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/match-predictor/internal/metrics"
)

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// authMiddleware requires "Authorization: Bearer <key>". An empty key
// disables the check. Preflight requests carry no credentials and pass.
func authMiddleware(key string) mux.MiddlewareFunc {
	expected := []byte("Bearer " + key)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			header := r.Header.Get("Authorization")
			if header == "" {
				respondWithError(w, http.StatusUnauthorized, "Authorization header missing")
				return
			}
			if subtle.ConstantTimeCompare([]byte(header), expected) != 1 {
				respondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// instrumentMiddleware logs each request and records it by route template
func instrumentMiddleware(log *logrus.Entry) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tmpl, err := current.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}
			elapsed := time.Since(start)
			metrics.RecordAPIRequest(route, strconv.Itoa(rec.status), elapsed.Seconds())

			entry := log.WithFields(logrus.Fields{
				"method":   r.Method,
				"route":    route,
				"status":   rec.status,
				"duration": elapsed.String(),
			})
			if rec.status >= http.StatusInternalServerError {
				entry.Error("Request failed")
			} else {
				entry.Debug("Request served")
			}
		})
	}
}

// corsMiddleware allows GET requests from the configured origins and answers
// OPTIONS preflights itself with 204.
func corsMiddleware(origins []string) mux.MiddlewareFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowed["*"] || allowed[origin]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				if w.Header().Get("Access-Control-Allow-Methods") == "" {
					w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
				}
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				w.Header().Set("Access-Control-Max-Age", "3600")
				w.Header().Add("Vary", "Origin")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
