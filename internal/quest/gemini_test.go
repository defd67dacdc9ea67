package quest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"google.golang.org/genai"
)

type generateRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature      float64 `json:"temperature"`
		MaxOutputTokens  int     `json:"maxOutputTokens"`
		ResponseMIMEType string  `json:"responseMimeType"`
	} `json:"generationConfig"`
}

func newFakeGemini(t *testing.T, reply string, seen *generateRequest) *GeminiBackend {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "models/test-model:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		if err := json.Unmarshal(raw, seen); err != nil {
			t.Errorf("decode body %s: %v", raw, err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)

	backend, err := NewGeminiBackend(context.Background(), GeminiConfig{
		APIKey:  "test-key",
		Model:   "test-model",
		BaseURL: srv.URL,
	})
	if err != nil {
		t.Fatalf("NewGeminiBackend returned error: %v", err)
	}
	return backend
}

func TestGeminiGenerateSendsParams(t *testing.T) {
	var seen generateRequest
	reply := `{"candidates":[{"content":{"role":"model","parts":[{"text":"  {\"title\":\"x\"}  "}]}}]}`
	backend := newFakeGemini(t, reply, &seen)

	text, err := backend.Generate(context.Background(), "make a quest", DefaultParams())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if text != `{"title":"x"}` {
		t.Fatalf("expected trimmed reply text, got %q", text)
	}

	if len(seen.Contents) != 1 || len(seen.Contents[0].Parts) != 1 || seen.Contents[0].Parts[0].Text != "make a quest" {
		t.Fatalf("expected prompt as single user turn, got %+v", seen.Contents)
	}
	gc := seen.GenerationConfig
	if gc.Temperature < 0.899 || gc.Temperature > 0.901 {
		t.Fatalf("expected temperature 0.9, got %v", gc.Temperature)
	}
	if gc.MaxOutputTokens != 500 || gc.ResponseMIMEType != "application/json" {
		t.Fatalf("unexpected generation config %+v", gc)
	}
}

func TestGeminiGenerateEmptyReplyIsMalformed(t *testing.T) {
	var seen generateRequest
	backend := newFakeGemini(t, `{"candidates":[{"content":{"role":"model","parts":[{"text":"   "}]}}]}`, &seen)

	if _, err := backend.Generate(context.Background(), "make a quest", DefaultParams()); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestNewGeminiBackendValidatesConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  GeminiConfig
		want string
	}{
		{"vertex without project", GeminiConfig{UseVertex: true, Location: "us-central1"}, "vertex project id missing"},
		{"vertex without location", GeminiConfig{UseVertex: true, Project: "p"}, "vertex location missing"},
		{"api without key", GeminiConfig{}, "gemini api key missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGeminiBackend(context.Background(), tt.cfg)
			if err == nil || err.Error() != tt.want {
				t.Fatalf("expected %q, got %v", tt.want, err)
			}
		})
	}
}

func TestClassifyGeminiError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		unavailable bool
	}{
		{"api 503", genai.APIError{Code: 503, Message: "model overloaded"}, true},
		{"api 429 pointer", &genai.APIError{Code: 429, Message: "quota"}, true},
		{"api 500 wrapped", fmt.Errorf("call: %w", genai.APIError{Code: 500}), true},
		{"api 400", genai.APIError{Code: 400, Message: "bad request"}, false},
		{"deadline", context.DeadlineExceeded, true},
		{"overloaded text", errors.New("The model is overloaded. Please try again later."), true},
		{"other", errors.New("invalid argument"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyGeminiError(tt.err)
			if errors.Is(got, ErrUnavailable) != tt.unavailable {
				t.Fatalf("expected unavailable=%v, got %v", tt.unavailable, got)
			}
		})
	}
}
