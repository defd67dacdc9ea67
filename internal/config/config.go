package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Tih000/quest/shared/auth"
	"github.com/Tih000/quest/shared/envconfig"
)

const (
	DataStoreMemory    = "memory"
	DataStoreFile      = "file"
	DataStoreFirestore = "firestore"
)

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://localhost:8081",
	"http://localhost:19006",
}

type Config struct {
	Port       string `validate:"required"`
	LogLevel   string
	DataStore  string `validate:"required,oneof=memory file firestore"`
	Database   DatabaseConfig
	Firestore  FirestoreConfig
	Auth       AuthConfig
	Gemini     GeminiConfig
	Generator  GeneratorConfig
	HTTP       HTTPConfig
	RevenueCat RevenueCatConfig
}

type DatabaseConfig struct {
	Path string
}

type FirestoreConfig struct {
	ProjectID    string
	DatabaseID   string
	EmulatorHost string
}

type AuthConfig struct {
	Mode   auth.Mode `validate:"required,oneof=hmac noop"`
	Secret string
	Issuer string
	TTL    time.Duration `validate:"gt=0"`
}

type GeminiConfig struct {
	APIKey    string
	Model     string `validate:"required"`
	UseVertex bool
	ProjectID string
	Location  string
}

// Enabled reports whether a generation backend can be built.
func (g GeminiConfig) Enabled() bool {
	if g.UseVertex {
		return g.ProjectID != "" && g.Location != ""
	}
	return g.APIKey != ""
}

type GeneratorConfig struct {
	MaxAttempts     int           `validate:"gte=1"`
	Deadline        time.Duration `validate:"gt=0"`
	Backoff         time.Duration `validate:"gte=0"`
	Temperature     float64       `validate:"gte=0,lte=2"`
	MaxOutputTokens int           `validate:"gt=0"`
}

type HTTPConfig struct {
	CORSOrigins    []string
	RateLimit      int
	RateWindow     time.Duration
	ServiceTimeout time.Duration
}

type RevenueCatConfig struct {
	SecretKey     string
	EntitlementID string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	projectID := envconfig.Get("GCP_PROJECT_ID", envconfig.Get("GOOGLE_CLOUD_PROJECT", ""))
	cfg := Config{
		Port:      envconfig.Get("PORT", "8080"),
		LogLevel:  envconfig.Get("LOG_LEVEL", "info"),
		DataStore: strings.ToLower(envconfig.Get("DATASTORE", DataStoreFile)),
		Database: DatabaseConfig{
			Path: envconfig.Get("DATABASE_PATH", "data/questgo.json"),
		},
		Firestore: FirestoreConfig{
			ProjectID:    projectID,
			DatabaseID:   envconfig.Get("FIRESTORE_DATABASE", ""),
			EmulatorHost: envconfig.Get("FIRESTORE_EMULATOR_HOST", ""),
		},
		Auth: AuthConfig{
			Mode:   auth.Mode(strings.ToLower(envconfig.Get("AUTH_MODE", string(auth.ModeHMAC)))),
			Secret: envconfig.Get("JWT_SECRET", ""),
			Issuer: envconfig.Get("JWT_ISSUER", "questgo"),
			TTL:    envconfig.Duration("JWT_TTL", 7*24*time.Hour),
		},
		Gemini: GeminiConfig{
			APIKey:    envconfig.Get("GEMINI_API_KEY", envconfig.Get("GOOGLE_API_KEY", "")),
			Model:     envconfig.Get("GEMINI_MODEL", "gemini-2.0-flash-exp"),
			UseVertex: envconfig.Bool("GOOGLE_GENAI_USE_VERTEXAI", false),
			ProjectID: projectID,
			Location:  envconfig.Get("GOOGLE_CLOUD_LOCATION", ""),
		},
		Generator: GeneratorConfig{
			MaxAttempts:     envconfig.Int("QUEST_MAX_ATTEMPTS", 4),
			Deadline:        envconfig.Duration("QUEST_DEADLINE", 20*time.Second),
			Backoff:         envconfig.Duration("QUEST_BACKOFF", time.Second),
			Temperature:     envconfig.Float("QUEST_TEMPERATURE", 0.9),
			MaxOutputTokens: envconfig.Int("QUEST_MAX_OUTPUT_TOKENS", 500),
		},
		HTTP: HTTPConfig{
			CORSOrigins:    envconfig.List("CORS_ORIGIN", defaultOrigins),
			RateLimit:      envconfig.Int("RATE_LIMIT_MAX_REQUESTS", 100),
			RateWindow:     envconfig.Duration("RATE_LIMIT_WINDOW", time.Minute),
			ServiceTimeout: envconfig.Duration("SERVICE_TIMEOUT", 30*time.Second),
		},
		RevenueCat: RevenueCatConfig{
			SecretKey:     envconfig.Get("REVENUECAT_SECRET_KEY", ""),
			EntitlementID: envconfig.Get("REVENUECAT_ENTITLEMENT_ID", "pro"),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, envconfig.Validate(cfg)
}

func (c Config) validate() error {
	switch c.DataStore {
	case DataStoreFile:
		if strings.TrimSpace(c.Database.Path) == "" {
			return errors.New("DATABASE_PATH is required when DATASTORE=file")
		}
	case DataStoreFirestore:
		if c.Firestore.ProjectID == "" {
			return errors.New("GCP_PROJECT_ID is required when DATASTORE=firestore")
		}
	}
	if c.Auth.Mode == auth.ModeHMAC && c.Auth.Secret == "" {
		return errors.New("JWT_SECRET is required when AUTH_MODE=hmac")
	}
	if c.Generator.Backoff >= c.Generator.Deadline {
		return fmt.Errorf("QUEST_BACKOFF (%s) must be shorter than QUEST_DEADLINE (%s)", c.Generator.Backoff, c.Generator.Deadline)
	}
	return nil
}
