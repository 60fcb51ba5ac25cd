package router

import (
	"DataTablesAPI/internal/auth"
	"DataTablesAPI/internal/config"
	"DataTablesAPI/internal/logger"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// NewRouter wires the table endpoint with request ids, logging, CORS and,
// when enabled, JWT auth.
func NewRouter(cfg *config.Config, tables http.Handler) (http.Handler, error) {
	var h http.Handler = tables
	if cfg.Auth.Enabled {
		v, err := auth.NewJWTValidator(cfg.Auth.JWT)
		if err != nil {
			return nil, err
		}
		h = v.Middleware(h)
	}
	h = withCORS(cfg.CORS.AllowOrigin, cfg.CORS.AllowCredentials, h)

	mux := http.NewServeMux()
	mux.Handle("GET /api/tables/{name}", h)
	mux.Handle("POST /api/tables/{name}", h)
	mux.Handle("OPTIONS /api/tables/{name}", h)
	return withRequestID(withLogging(mux)), nil
}

const requestIDHeader = "X-Request-ID"

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		fields := map[string]any{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     sw.status,
			"request_id": r.Header.Get(requestIDHeader),
			"latency_ms": time.Since(start).Milliseconds(),
		}
		switch {
		case sw.status >= 500:
			logger.Error("response", fields)
		case sw.status >= 400:
			logger.Warn("response", fields)
		default:
			logger.Info("response", fields)
		}
	})
}
