package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"

	"github.com/Tih000/quest/shared/dto"
	sharederrors "github.com/Tih000/quest/shared/errors"
)

const version = "v1.0.0"

// Options tunes the default middleware stack.
type Options struct {
	// CORSOrigins lists allowed origins; empty disables the CORS middleware.
	CORSOrigins []string
	// RateLimit is the per-IP request budget per RateWindow; zero disables limiting.
	RateLimit  int
	RateWindow time.Duration
	// Mode is reported by /healthz.
	Mode string
	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler
	// RequestTimeout bounds every request; defaults to 60s.
	RequestTimeout time.Duration
}

// NewRouter returns a chi router pre-configured with default middleware and a health endpoint.
// Routes added by register are rate limited; /healthz and /metrics are not.
func NewRouter(service string, opts Options, register func(r chi.Router)) *chi.Mux {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(middleware.Timeout(timeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, dto.HealthResponse{Status: "ok", Service: service, Version: version, Mode: opts.Mode})
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	if register != nil {
		r.Group(func(r chi.Router) {
			if opts.RateLimit > 0 {
				window := opts.RateWindow
				if window <= 0 {
					window = time.Minute
				}
				r.Use(httprate.Limit(opts.RateLimit, window,
					httprate.WithKeyFuncs(httprate.KeyByIP),
					httprate.WithLimitHandler(tooManyRequests),
				))
			}
			register(r)
		})
	}

	return r
}

func tooManyRequests(w http.ResponseWriter, r *http.Request) {
	sharederrors.Write(w, sharederrors.CodeTooManyRequests, "too many requests from this address, try again later", middleware.GetReqID(r.Context()))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
