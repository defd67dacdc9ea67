package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Tih000/quest/internal/achievement"
	"github.com/Tih000/quest/internal/config"
	"github.com/Tih000/quest/internal/docstore"
	"github.com/Tih000/quest/internal/httpapi"
	"github.com/Tih000/quest/internal/quest"
	"github.com/Tih000/quest/internal/revenuecat"
	"github.com/Tih000/quest/internal/user"
	sharedauth "github.com/Tih000/quest/shared/auth"
	"github.com/Tih000/quest/shared/logging"
	sharedserver "github.com/Tih000/quest/shared/server"
)

const serviceName = "questgo"

type stores struct {
	users        user.Repository
	quests       quest.Repository
	achievements achievement.Repository
	close        func() error
}

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.NewLogger(serviceName, cfg.LogLevel)

	st, err := newStores(ctx, cfg, logger)
	if err != nil {
		panic(fmt.Errorf("data store: %w", err))
	}
	defer func() {
		if err := st.close(); err != nil {
			logger.Error("failed to close data store", "error", err)
		}
	}()

	verifier, issuer, err := sharedauth.New(sharedauth.Config{
		Mode:   cfg.Auth.Mode,
		Secret: cfg.Auth.Secret,
		Issuer: cfg.Auth.Issuer,
		TTL:    cfg.Auth.TTL,
	})
	if err != nil {
		panic(fmt.Errorf("auth error: %w", err))
	}

	evaluator := achievement.NewEvaluator(st.achievements, st.quests, logger)
	seedCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = evaluator.Seed(seedCtx)
	cancel()
	if err != nil {
		panic(fmt.Errorf("seed achievements: %w", err))
	}

	userDeps := user.Deps{
		Repo:         st.users,
		Quests:       st.quests,
		Achievements: evaluator,
		Tokens:       issuer,
		Logger:       logger,
	}
	if rc := revenuecat.NewClient(cfg.RevenueCat.SecretKey, cfg.RevenueCat.EntitlementID); rc.Enabled() {
		userDeps.Entitlements = rc
		logger.Info("revenuecat entitlements enabled", "entitlement", cfg.RevenueCat.EntitlementID)
	}
	userService, err := user.NewService(userDeps)
	if err != nil {
		panic(fmt.Errorf("user service: %w", err))
	}

	generator := quest.NewGenerator(newBackend(ctx, cfg, logger), quest.GeneratorConfig{
		MaxAttempts: cfg.Generator.MaxAttempts,
		Deadline:    cfg.Generator.Deadline,
		Backoff:     cfg.Generator.Backoff,
		Params: quest.Params{
			Temperature:      cfg.Generator.Temperature,
			MaxOutputTokens:  cfg.Generator.MaxOutputTokens,
			ResponseMIMEType: "application/json",
		},
	}, logger)
	questService, err := quest.NewService(st.quests, generator, userService, evaluator, logger)
	if err != nil {
		panic(fmt.Errorf("quest service: %w", err))
	}

	mode := "fallback"
	if generator.Configured() {
		mode = "gemini"
	}

	router := sharedserver.NewRouter(serviceName, sharedserver.Options{
		CORSOrigins: cfg.HTTP.CORSOrigins,
		RateLimit:   cfg.HTTP.RateLimit,
		RateWindow:  cfg.HTTP.RateWindow,
		Mode:        mode,
		Metrics:     promhttp.Handler(),
	}, func(r chi.Router) {
		httpapi.RegisterRoutes(r, httpapi.Config{
			Users:          userService,
			Quests:         questService,
			Verifier:       verifier,
			Logger:         logger,
			ServiceTimeout: cfg.HTTP.ServiceTimeout,
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("questgo configured", "datastore", cfg.DataStore, "mode", mode, "auth", string(cfg.Auth.Mode))
	if err := sharedserver.Run(ctx, srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}

func newStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (*stores, error) {
	switch cfg.DataStore {
	case config.DataStoreFirestore:
		var (
			client *firestore.Client
			err    error
		)
		if cfg.Firestore.DatabaseID != "" {
			client, err = firestore.NewClientWithDatabase(ctx, cfg.Firestore.ProjectID, cfg.Firestore.DatabaseID)
		} else {
			client, err = firestore.NewClient(ctx, cfg.Firestore.ProjectID)
		}
		if err != nil {
			return nil, fmt.Errorf("firestore client: %w", err)
		}
		logger.Info("using firestore", "project", cfg.Firestore.ProjectID, "emulator", cfg.Firestore.EmulatorHost)
		return &stores{
			users:        user.NewFirestoreRepository(client),
			quests:       quest.NewFirestoreRepository(client),
			achievements: achievement.NewFirestoreRepository(client),
			close:        client.Close,
		}, nil

	case config.DataStoreFile, config.DataStoreMemory:
		store := docstore.NewMemory()
		if cfg.DataStore == config.DataStoreFile {
			var err error
			if store, err = docstore.Open(cfg.Database.Path); err != nil {
				return nil, err
			}
			logger.Info("using document store", "path", store.Path())
		} else {
			logger.Warn("using in-memory store, data is lost on restart")
		}
		return &stores{
			users:        user.NewDocumentRepository(store),
			quests:       quest.NewDocumentRepository(store),
			achievements: achievement.NewDocumentRepository(store),
			close:        func() error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported datastore %q", cfg.DataStore)
	}
}

// newBackend returns nil when no generation backend is configured or it cannot
// be created; the generator then serves fallback quests only.
func newBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) quest.Backend {
	if !cfg.Gemini.Enabled() {
		logger.Warn("gemini not configured, serving fallback quests")
		return nil
	}
	gemini, err := quest.NewGeminiBackend(ctx, quest.GeminiConfig{
		APIKey:    cfg.Gemini.APIKey,
		Model:     cfg.Gemini.Model,
		UseVertex: cfg.Gemini.UseVertex,
		Project:   cfg.Gemini.ProjectID,
		Location:  cfg.Gemini.Location,
	})
	if err != nil {
		logger.Error("failed to create gemini client, serving fallback quests", "error", err)
		return nil
	}
	logger.Info("gemini backend enabled", "model", cfg.Gemini.Model)
	return quest.NewBreakerBackend(gemini, quest.BreakerConfig{}, logger)
}
