package quest

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable marks a transport failure or an overloaded backend.
	ErrUnavailable = errors.New("generation backend unavailable")
	// ErrMalformedResponse marks a reply that does not satisfy the quest schema.
	ErrMalformedResponse = errors.New("malformed generation response")
)

// Params are the generation knobs passed with every prompt.
type Params struct {
	Temperature      float64
	MaxOutputTokens  int
	ResponseMIMEType string
}

// DefaultParams favours varied output in a compact JSON reply.
func DefaultParams() Params {
	return Params{
		Temperature:      0.9,
		MaxOutputTokens:  500,
		ResponseMIMEType: "application/json",
	}
}

// Backend produces raw quest text for a prompt.
type Backend interface {
	Generate(ctx context.Context, prompt string, params Params) (string, error)
}
