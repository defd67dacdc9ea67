package quest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// GeminiConfig wires Gemini access.
type GeminiConfig struct {
	APIKey    string
	Model     string
	UseVertex bool
	Project   string
	Location  string
	// BaseURL overrides the API endpoint, e.g. for a proxy.
	BaseURL string
}

// GeminiBackend generates quests with Gemini.
type GeminiBackend struct {
	client *genai.Client
	model  string
}

// NewGeminiBackend returns a Backend backed by the Gemini API or Vertex AI.
func NewGeminiBackend(ctx context.Context, cfg GeminiConfig) (*GeminiBackend, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.0-flash-exp"
	}

	clientCfg := &genai.ClientConfig{}
	if cfg.UseVertex {
		if strings.TrimSpace(cfg.Project) == "" {
			return nil, errors.New("vertex project id missing")
		}
		if strings.TrimSpace(cfg.Location) == "" {
			return nil, errors.New("vertex location missing")
		}
		clientCfg.Project = cfg.Project
		clientCfg.Location = cfg.Location
		clientCfg.Backend = genai.BackendVertexAI
	} else {
		apiKey := strings.TrimSpace(cfg.APIKey)
		if apiKey == "" {
			return nil, errors.New("gemini api key missing")
		}
		clientCfg.APIKey = apiKey
		clientCfg.Backend = genai.BackendGeminiAPI
	}

	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.HTTPOptions.BaseURL = base
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &GeminiBackend{client: client, model: model}, nil
}

// Generate sends prompt as a single user turn and returns the reply text.
func (g *GeminiBackend) Generate(ctx context.Context, prompt string, params Params) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(params.Temperature)),
		MaxOutputTokens:  int32(params.MaxOutputTokens),
		ResponseMIMEType: params.ResponseMIMEType,
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", classifyGeminiError(err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: gemini returned empty response", ErrMalformedResponse)
	}
	return text, nil
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && retryableStatus(apiErr.Code) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && retryableStatus(apiErrPtr.Code) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"503", "429", "service unavailable", "overloaded", "resource_exhausted", "unavailable"} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return fmt.Errorf("gemini generate: %w", err)
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable:
		return true
	}
	return false
}
