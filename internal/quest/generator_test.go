package quest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

const validReply = `{"title":"Park Run","description":"Run around the biggest park in town.","tasks":["Warm up","Run 3 km","Stretch"],"reward":"Feel the endorphins","category":"Sport","difficulty":"easy","estimated_minutes":45}`

type backendFunc func(ctx context.Context, prompt string, params Params) (string, error)

func (f backendFunc) Generate(ctx context.Context, prompt string, params Params) (string, error) {
	return f(ctx, prompt, params)
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type harness struct {
	gen    *Generator
	clock  *fakeClock
	sleeps []time.Duration
}

func newHarness(backend Backend) *harness {
	h := &harness{clock: &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}}
	h.gen = NewGenerator(backend, DefaultGeneratorConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.gen.now = h.clock.Now
	h.gen.sleep = func(_ context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		h.clock.Advance(d)
		return nil
	}
	return h
}

func titles(pool []QuestSpec) map[string]bool {
	out := make(map[string]bool, len(pool))
	for _, q := range pool {
		out[q.Title] = true
	}
	return out
}

func assertUsable(t *testing.T, spec QuestSpec) {
	t.Helper()
	if strings.TrimSpace(spec.Title) == "" || strings.TrimSpace(spec.Description) == "" {
		t.Fatalf("expected title and description, got %+v", spec)
	}
	if len(spec.Tasks) < 2 {
		t.Fatalf("expected at least 2 tasks, got %d", len(spec.Tasks))
	}
	if !spec.Difficulty.Valid() {
		t.Fatalf("unexpected difficulty %q", spec.Difficulty)
	}
}

func TestGenerateWithoutBackendNeverCallsOut(t *testing.T) {
	h := newHarness(nil)

	gen := h.gen.Generate(context.Background(), RequesterProfile{Location: "Berlin"})
	if gen.Source != SourceFallback || gen.Attempts != 0 {
		t.Fatalf("expected fallback with zero attempts, got %s/%d", gen.Source, gen.Attempts)
	}
	if len(h.sleeps) != 0 {
		t.Fatalf("expected no backoff without a backend, got %v", h.sleeps)
	}
	assertUsable(t, gen.Spec)
}

func TestFallbackSubstitutesLocation(t *testing.T) {
	standard := titles(standardPool)
	categories := map[Category]bool{}
	for _, q := range standardPool {
		categories[q.Category] = true
	}

	for i := range standardPool {
		h := newHarness(nil)
		h.gen.pick = func(int) int { return i }

		gen := h.gen.Generate(context.Background(), RequesterProfile{Location: "Berlin", Interests: nil})
		spec := gen.Spec
		if !standard[spec.Title] {
			t.Fatalf("expected a standard quest, got %q", spec.Title)
		}
		if !strings.Contains(spec.Description, "Berlin") || strings.Contains(spec.Description, DefaultLocation) {
			t.Fatalf("expected Berlin in description, got %q", spec.Description)
		}
		for _, task := range spec.Tasks {
			if strings.Contains(task, DefaultLocation) {
				t.Fatalf("placeholder left in task %q", task)
			}
		}
		if !categories[spec.Category] {
			t.Fatalf("unexpected category %q", spec.Category)
		}
	}

	for _, q := range standardPool {
		if !strings.Contains(q.Description, DefaultLocation) {
			t.Fatalf("pool entry %q lost its placeholder", q.Title)
		}
	}
}

func TestFallbackWithEmptyLocationKeepsDefault(t *testing.T) {
	spec := localize(standardPool[0], "")
	if !strings.Contains(spec.Description, DefaultLocation) {
		t.Fatalf("expected default location to remain, got %q", spec.Description)
	}
}

func TestFallbackPoolRespectsTier(t *testing.T) {
	elevated := titles(elevatedPool)

	h := newHarness(nil)
	for i := 0; i < 200; i++ {
		gen := h.gen.Generate(context.Background(), RequesterProfile{Location: "Oslo"})
		if elevated[gen.Spec.Title] {
			t.Fatalf("standard requester received elevated quest %q", gen.Spec.Title)
		}
	}

	h.gen.pick = func(n int) int { return n - 1 }
	gen := h.gen.Generate(context.Background(), RequesterProfile{Location: "Oslo", IsElevatedTier: true})
	if !elevated[gen.Spec.Title] {
		t.Fatalf("expected elevated requester to reach the elevated pool, got %q", gen.Spec.Title)
	}
	if got := len(fallbackPool(true)); got != len(standardPool)+len(elevatedPool) {
		t.Fatalf("expected union pool, got %d entries", got)
	}
}

func TestFallbackDoesNotMutatePool(t *testing.T) {
	before := standardPool[1].Tasks[0]
	h := newHarness(nil)
	h.gen.pick = func(int) int { return 1 }
	h.gen.Generate(context.Background(), RequesterProfile{Location: "Lisbon"})
	if standardPool[1].Tasks[0] != before {
		t.Fatalf("pool entry was modified: %q", standardPool[1].Tasks[0])
	}
}

func TestGenerateStopsAfterMaxAttempts(t *testing.T) {
	calls := 0
	h := newHarness(backendFunc(func(context.Context, string, Params) (string, error) {
		calls++
		return "", fmt.Errorf("%w: 503 Service Unavailable", ErrUnavailable)
	}))

	gen := h.gen.Generate(context.Background(), RequesterProfile{Location: "Rome"})
	if calls != 4 || gen.Attempts != 4 {
		t.Fatalf("expected 4 attempts, got calls=%d attempts=%d", calls, gen.Attempts)
	}
	if len(h.sleeps) != 3 {
		t.Fatalf("expected 3 backoffs between 4 attempts, got %d", len(h.sleeps))
	}
	for _, d := range h.sleeps {
		if d != time.Second {
			t.Fatalf("expected 1s backoff, got %s", d)
		}
	}
	if gen.Source != SourceFallback {
		t.Fatalf("expected fallback, got %s", gen.Source)
	}
	assertUsable(t, gen.Spec)
}

func TestGenerateRespectsDeadline(t *testing.T) {
	tests := []struct {
		name     string
		latency  time.Duration
		attempts int
	}{
		{"slow backend", 8 * time.Second, 3},
		{"backend slower than deadline", 25 * time.Second, 1},
		{"backoff would cross deadline", 19500 * time.Millisecond, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h *harness
			h = newHarness(backendFunc(func(context.Context, string, Params) (string, error) {
				h.clock.Advance(tt.latency)
				return "", errors.New("connection reset")
			}))

			gen := h.gen.Generate(context.Background(), RequesterProfile{Location: "Rome"})
			if gen.Attempts != tt.attempts {
				t.Fatalf("expected %d attempts, got %d", tt.attempts, gen.Attempts)
			}
			if gen.Source != SourceFallback {
				t.Fatalf("expected fallback, got %s", gen.Source)
			}
		})
	}
}

func TestGenerateBoundsBackendCallByRemainingDeadline(t *testing.T) {
	var deadlines []time.Duration
	var h *harness
	h = newHarness(backendFunc(func(ctx context.Context, _ string, _ Params) (string, error) {
		dl, ok := ctx.Deadline()
		if !ok {
			t.Fatalf("expected backend call to carry a deadline")
		}
		deadlines = append(deadlines, time.Until(dl))
		h.clock.Advance(5 * time.Second)
		return "", ErrUnavailable
	}))

	h.gen.Generate(context.Background(), RequesterProfile{})
	if len(deadlines) < 2 {
		t.Fatalf("expected several attempts, got %d", len(deadlines))
	}
	if deadlines[1] >= deadlines[0] {
		t.Fatalf("expected later attempts to get less time: %v", deadlines)
	}
}

func TestGenerateRetriesMalformedReply(t *testing.T) {
	replies := []string{
		"I'm sorry, here is a quest: Park Run",
		`{"title":"Half","description":"Missing tasks","reward":"x","category":"sport","difficulty":"easy","estimated_minutes":10}`,
		"```json\n" + validReply + "\n```",
	}
	calls := 0
	h := newHarness(backendFunc(func(_ context.Context, _ string, params Params) (string, error) {
		if params.ResponseMIMEType != "application/json" || params.MaxOutputTokens != 500 {
			t.Fatalf("unexpected params %+v", params)
		}
		reply := replies[calls]
		calls++
		return reply, nil
	}))

	gen := h.gen.Generate(context.Background(), RequesterProfile{Location: "Rome"})
	if gen.Source != SourceBackend || gen.Attempts != 3 {
		t.Fatalf("expected backend quest on third attempt, got %s/%d", gen.Source, gen.Attempts)
	}
	if gen.Spec.Title != "Park Run" || gen.Spec.Category != CategorySport {
		t.Fatalf("unexpected spec %+v", gen.Spec)
	}
}

func TestGenerateFallsBackWhenCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	h := newHarness(backendFunc(func(ctx context.Context, _ string, _ Params) (string, error) {
		calls++
		cancel()
		return "", ctx.Err()
	}))

	gen := h.gen.Generate(ctx, RequesterProfile{Location: "Rome"})
	if calls != 1 || gen.Source != SourceFallback {
		t.Fatalf("expected a single attempt then fallback, got calls=%d source=%s", calls, gen.Source)
	}
}

func TestGenerateAlwaysReturnsUsableQuest(t *testing.T) {
	backends := map[string]Backend{
		"none": nil,
		"ok": backendFunc(func(context.Context, string, Params) (string, error) {
			return validReply, nil
		}),
		"garbage": backendFunc(func(context.Context, string, Params) (string, error) {
			return "{}", nil
		}),
		"down": backendFunc(func(context.Context, string, Params) (string, error) {
			return "", ErrUnavailable
		}),
	}
	profiles := []RequesterProfile{
		{},
		{Location: "Berlin"},
		{Location: "Tokyo", Interests: []string{"food", "art"}},
		{Location: "Paris", IsElevatedTier: true},
	}

	for name, backend := range backends {
		t.Run(name, func(t *testing.T) {
			for _, profile := range profiles {
				for i := 0; i < 10; i++ {
					h := newHarness(backend)
					assertUsable(t, h.gen.Generate(context.Background(), profile).Spec)
				}
			}
		})
	}
}
