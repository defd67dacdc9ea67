package quest

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Source tells where a generated quest came from.
type Source string

const (
	SourceBackend  Source = "backend"
	SourceFallback Source = "fallback"
)

// Generation is the outcome of a Generate call.
type Generation struct {
	Spec     QuestSpec
	Source   Source
	Attempts int
}

// GeneratorConfig bounds the retry loop.
type GeneratorConfig struct {
	MaxAttempts int
	Deadline    time.Duration
	Backoff     time.Duration
	Params      Params
}

// DefaultGeneratorConfig allows 4 attempts within 20 seconds, 1 second apart.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		MaxAttempts: 4,
		Deadline:    20 * time.Second,
		Backoff:     time.Second,
		Params:      DefaultParams(),
	}
}

// Generator produces quests from a backend with a static fallback pool.
type Generator struct {
	backend Backend
	cfg     GeneratorConfig
	logger  *slog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
	pick  func(n int) int
}

// NewGenerator returns a Generator. A nil backend means every call uses the fallback pool.
func NewGenerator(backend Backend, cfg GeneratorConfig, logger *slog.Logger) *Generator {
	def := DefaultGeneratorConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Deadline <= 0 {
		cfg.Deadline = def.Deadline
	}
	if cfg.Backoff < 0 {
		cfg.Backoff = def.Backoff
	}
	if cfg.Params == (Params{}) {
		cfg.Params = def.Params
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		backend: backend,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		sleep:   sleepContext,
		pick:    rand.IntN,
	}
}

// Configured reports whether a backend is wired.
func (g *Generator) Configured() bool {
	return g.backend != nil
}

// Generate always returns a usable quest. Backend failures are retried while
// attempts and the deadline allow; after that a fallback quest is chosen.
func (g *Generator) Generate(ctx context.Context, profile RequesterProfile) Generation {
	start := g.now()
	if g.backend == nil {
		return g.fallback(profile, 0, start, "backend not configured")
	}

	prompt := BuildPrompt(profile)
	attempts := 0
	reason := "attempts exhausted"
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		elapsed := g.now().Sub(start)
		if attempt > 1 && elapsed >= g.cfg.Deadline {
			reason = "deadline exceeded"
			break
		}

		attempts++
		spec, err := g.attempt(ctx, prompt, g.cfg.Deadline-elapsed)
		if err == nil {
			recordAttempt("success")
			recordGeneration(SourceBackend, g.now().Sub(start))
			g.logger.Info("quest generated", "attempt", attempt, "title", spec.Title)
			return Generation{Spec: spec, Source: SourceBackend, Attempts: attempts}
		}
		g.logAttemptFailure(attempt, err)

		if ctx.Err() != nil {
			reason = "request canceled"
			break
		}
		if attempt == g.cfg.MaxAttempts {
			break
		}
		if g.now().Sub(start)+g.cfg.Backoff > g.cfg.Deadline {
			reason = "deadline exceeded"
			break
		}
		if err := g.sleep(ctx, g.cfg.Backoff); err != nil {
			reason = "request canceled"
			break
		}
	}
	return g.fallback(profile, attempts, start, reason)
}

func (g *Generator) attempt(ctx context.Context, prompt string, remaining time.Duration) (QuestSpec, error) {
	callCtx, cancel := context.WithTimeout(ctx, remaining)
	defer cancel()

	raw, err := g.backend.Generate(callCtx, prompt, g.cfg.Params)
	if err != nil {
		return QuestSpec{}, err
	}
	return DecodeSpec(raw)
}

func (g *Generator) logAttemptFailure(attempt int, err error) {
	switch {
	case errors.Is(err, ErrUnavailable):
		recordAttempt("unavailable")
		g.logger.Warn("generation backend unavailable", "attempt", attempt, "maxAttempts", g.cfg.MaxAttempts, "error", err)
	case errors.Is(err, ErrMalformedResponse):
		recordAttempt("malformed")
		g.logger.Error("generation response rejected", "attempt", attempt, "error", err)
	default:
		recordAttempt("error")
		g.logger.Error("generation attempt failed", "attempt", attempt, "error", err)
	}
}

func (g *Generator) fallback(profile RequesterProfile, attempts int, start time.Time, reason string) Generation {
	pool := fallbackPool(profile.IsElevatedTier)
	spec := localize(pool[g.pick(len(pool))], profile.Location)
	recordGeneration(SourceFallback, g.now().Sub(start))
	g.logger.Info("using fallback quest", "reason", reason, "attempts", attempts, "title", spec.Title)
	return Generation{Spec: spec, Source: SourceFallback, Attempts: attempts}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
