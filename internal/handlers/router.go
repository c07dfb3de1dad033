package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jaskrrish/qkd-otp/internal/logging"
	"github.com/jaskrrish/qkd-otp/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RequestIDHeader carries the per-request correlation id
const RequestIDHeader = "X-Request-ID"

// RouterConfig controls optional routes
type RouterConfig struct {
	MetricsEnabled bool
	MetricsPath    string
}

// NewRouter wires all routes and middleware
func NewRouter(otp *OTPHandler, cfg RouterConfig, logger *logging.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(middleware.Recoverer)

	r.Get("/", HomeHandler)
	r.Get("/health", HealthHandler)

	r.Route("/api/v1/otp", func(r chi.Router) {
		r.Get("/health", otp.HealthCheckHandler)
		r.Post("/encrypt", otp.EncryptHandler)
		r.Post("/decrypt", otp.DecryptHandler)
	})

	if cfg.MetricsEnabled {
		r.Handle(cfg.MetricsPath, promhttp.Handler())
	}

	return r
}

// requestIDMiddleware propagates or assigns an X-Request-ID
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs all incoming requests and counts them
func loggingMiddleware(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
			logger.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration", time.Since(start),
				"request_id", w.Header().Get(RequestIDHeader))
		})
	}
}
