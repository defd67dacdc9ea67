package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.DataStore != DataStoreFile || cfg.Database.Path != "data/questgo.json" {
		t.Fatalf("unexpected datastore defaults: %+v", cfg.Database)
	}
	if cfg.Generator.MaxAttempts != 4 || cfg.Generator.Deadline != 20*time.Second || cfg.Generator.Backoff != time.Second {
		t.Fatalf("unexpected generator defaults: %+v", cfg.Generator)
	}
	if cfg.Generator.MaxOutputTokens != 500 || cfg.Generator.Temperature != 0.9 {
		t.Fatalf("unexpected generation params: %+v", cfg.Generator)
	}
	if cfg.HTTP.RateLimit != 100 || cfg.HTTP.RateWindow != time.Minute {
		t.Fatalf("unexpected rate limit defaults: %+v", cfg.HTTP)
	}
	if cfg.Auth.TTL != 7*24*time.Hour {
		t.Fatalf("expected 7 day token ttl, got %s", cfg.Auth.TTL)
	}
	if cfg.Gemini.Enabled() {
		t.Fatalf("expected gemini to be disabled without a key")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"hmac without secret", map[string]string{}},
		{"unknown datastore", map[string]string{"JWT_SECRET": "x", "DATASTORE": "postgres"}},
		{"firestore without project", map[string]string{"JWT_SECRET": "x", "DATASTORE": "firestore"}},
		{"backoff beyond deadline", map[string]string{"JWT_SECRET": "x", "QUEST_BACKOFF": "30s"}},
		{"unknown auth mode", map[string]string{"AUTH_MODE": "clerk"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected Load to fail")
			}
		})
	}
}

func TestGeminiEnabled(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("GOOGLE_API_KEY", "key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.Gemini.Enabled() || cfg.Gemini.APIKey != "key" {
		t.Fatalf("expected GOOGLE_API_KEY to enable gemini, got %+v", cfg.Gemini)
	}
}
