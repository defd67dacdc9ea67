package httpapi

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Tih000/quest/internal/quest"
	"github.com/Tih000/quest/internal/user"
	"github.com/Tih000/quest/shared/auth"
)

const (
	defaultServiceTimeout = 8 * time.Second
	maxBodyBytes          = 64 * 1024
)

// Config carries the services behind the REST API.
type Config struct {
	Users    user.Service
	Quests   quest.Service
	Verifier auth.Verifier
	Logger   *slog.Logger
	// ServiceTimeout bounds every service call except quest generation, which
	// the generator bounds itself.
	ServiceTimeout time.Duration
}

// RegisterRoutes registers the /v1 API. Auth routes are public, everything else
// requires a bearer token.
func RegisterRoutes(r chi.Router, cfg Config) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ServiceTimeout <= 0 {
		cfg.ServiceTimeout = defaultServiceTimeout
	}
	h := &handlers{
		users:   cfg.Users,
		quests:  cfg.Quests,
		logger:  cfg.Logger,
		timeout: cfg.ServiceTimeout,
	}

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/verify", h.verify)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Verifier))

		r.Route("/v1/users", func(r chi.Router) {
			r.Get("/me", h.getProfile)
			r.Put("/me", h.updateProfile)
			r.Get("/stats", h.getStats)
		})

		r.Route("/v1/quests", func(r chi.Router) {
			r.Post("/generate", h.generateQuest)
			r.Get("/history", h.questHistory)
			r.Get("/categories", h.questCategories)
			r.Get("/{id}", h.getQuest)
			r.Post("/{id}/complete", h.completeQuest)
			r.Post("/{id}/skip", h.skipQuest)
		})
	})
}

type handlers struct {
	users   user.Service
	quests  quest.Service
	logger  *slog.Logger
	timeout time.Duration
}
