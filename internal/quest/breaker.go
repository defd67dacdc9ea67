package quest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerConfig tunes the circuit around the generation backend.
type BreakerConfig struct {
	// ConsecutiveFailures opens the circuit.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the circuit stays open before probing again.
	OpenTimeout time.Duration
}

// BreakerBackend rejects calls with ErrUnavailable while its circuit is open.
type BreakerBackend struct {
	next Backend
	cb   *gobreaker.CircuitBreaker[string]
}

// NewBreakerBackend wraps next in a circuit breaker.
func NewBreakerBackend(next Backend, cfg BreakerConfig, logger *slog.Logger) *BreakerBackend {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	const name = "quest-generation"
	BreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			// A malformed reply still proves the backend is reachable.
			return err == nil || errors.Is(err, ErrMalformedResponse)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("generation circuit state changed", "breaker", name, "from", from.String(), "to", to.String())
			BreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return &BreakerBackend{next: next, cb: cb}
}

// Generate delegates to the wrapped backend unless the circuit is open.
func (b *BreakerBackend) Generate(ctx context.Context, prompt string, params Params) (string, error) {
	text, err := b.cb.Execute(func() (string, error) {
		return b.next.Generate(ctx, prompt, params)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return text, err
}

// State reports the current circuit state.
func (b *BreakerBackend) State() gobreaker.State {
	return b.cb.State()
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
