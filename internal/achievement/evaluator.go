package achievement

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Evaluator awards completed-quest achievements after a quest completion.
type Evaluator struct {
	repo    Repository
	counter CompletedCounter
	logger  *slog.Logger
	now     func() time.Time
}

// NewEvaluator wires the evaluator to its rule store and completion counter.
func NewEvaluator(repo Repository, counter CompletedCounter, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		repo:    repo,
		counter: counter,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Seed stores the default rules. Existing codes are left untouched.
func (e *Evaluator) Seed(ctx context.Context) error {
	return e.repo.SeedRules(ctx, DefaultRules())
}

// Evaluate unlocks every completed_quest_count rule the user now qualifies for
// and returns the rules unlocked by this call. Storage failures are logged and
// never returned; a rule that fails is simply not reported.
func (e *Evaluator) Evaluate(ctx context.Context, userID int64) []Rule {
	logger := e.logger.With("userId", userID)

	completed, err := e.counter.CompletedCount(ctx, userID)
	if err != nil {
		recordFailure("count")
		logger.Error("count completed quests", "error", err)
		return nil
	}

	rules, err := e.repo.ListRules(ctx)
	if err != nil {
		recordFailure("rules")
		logger.Error("list achievement rules", "error", err)
		return nil
	}

	var (
		unlocked []Rule
		skipped  int
	)
	for _, rule := range rules {
		if rule.Kind != KindCompletedQuests {
			skipped++
			continue
		}
		if completed < rule.Threshold {
			continue
		}

		has, err := e.repo.HasUnlock(ctx, userID, rule.Code)
		if err != nil {
			recordFailure("lookup")
			logger.Error("check existing unlock", "code", rule.Code, "error", err)
			continue
		}
		if has {
			continue
		}

		if _, err := e.repo.CreateUnlock(ctx, userID, rule.Code, e.now()); err != nil {
			if errors.Is(err, ErrAlreadyUnlocked) {
				continue
			}
			recordFailure("create")
			logger.Error("create unlock", "code", rule.Code, "error", err)
			continue
		}

		recordUnlock(rule.Code)
		logger.Info("achievement unlocked", "code", rule.Code, "completed", completed)
		unlocked = append(unlocked, rule)
	}

	if skipped > 0 {
		logger.Debug("rules without an evaluable counter skipped", "count", skipped)
	}
	return unlocked
}

// ListUnlocked returns the user's unlocks joined with their rules, oldest first.
func (e *Evaluator) ListUnlocked(ctx context.Context, userID int64) ([]Unlocked, error) {
	unlocks, err := e.repo.ListUnlocks(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(unlocks) == 0 {
		return []Unlocked{}, nil
	}

	rules, err := e.repo.ListRules(ctx)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]Rule, len(rules))
	for _, rule := range rules {
		byCode[rule.Code] = rule
	}

	out := make([]Unlocked, 0, len(unlocks))
	for _, u := range unlocks {
		rule, ok := byCode[u.Code]
		if !ok {
			continue
		}
		out = append(out, Unlocked{Rule: rule, UnlockedAt: u.UnlockedAt})
	}
	return out, nil
}
