package quest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Tih000/quest/internal/achievement"
)

type service struct {
	repo      Repository
	generator *Generator
	users     UserDirectory
	evaluator AchievementEvaluator
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the quest lifecycle.
func NewService(repo Repository, generator *Generator, users UserDirectory, evaluator AchievementEvaluator, logger *slog.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	if generator == nil {
		return nil, errors.New("generator is required")
	}
	if users == nil {
		return nil, errors.New("user directory is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		repo:      repo,
		generator: generator,
		users:     users,
		evaluator: evaluator,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Generate(ctx context.Context, userID int64) (*Generated, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	location := strings.TrimSpace(u.City)
	if location == "" {
		location = DefaultLocation
	}
	elevated := s.users.IsElevated(ctx, u)
	gen := s.generator.Generate(ctx, RequesterProfile{
		Location:       location,
		Interests:      u.Interests,
		IsElevatedTier: elevated,
	})

	now := s.now()
	q, a, err := s.repo.CreateAssigned(ctx, questFromSpec(gen.Spec, elevated, gen.Source == SourceBackend, now), userID, now)
	if err != nil {
		return nil, fmt.Errorf("store quest: %w", err)
	}
	return &Generated{View: newView(q, &a), Source: gen.Source, Attempts: gen.Attempts}, nil
}

func (s *service) History(ctx context.Context, userID int64) ([]View, error) {
	assignments, err := s.repo.ListAssignments(ctx, userID, HistoryLimit)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return []View{}, nil
	}

	ids := make([]int64, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.QuestID)
	}
	quests, err := s.repo.GetQuests(ctx, ids)
	if err != nil {
		return nil, err
	}

	history := make([]View, 0, len(assignments))
	for i := range assignments {
		q, ok := quests[assignments[i].QuestID]
		if !ok {
			s.logger.Warn("assignment references missing quest", "userId", userID, "questId", assignments[i].QuestID)
			q = Quest{ID: assignments[i].QuestID}
		}
		history = append(history, newView(q, &assignments[i]))
	}
	return history, nil
}

func (s *service) Get(ctx context.Context, userID, questID int64) (*View, error) {
	q, err := s.repo.GetQuest(ctx, questID)
	if err != nil {
		return nil, err
	}
	a, err := s.repo.LatestAssignment(ctx, userID, questID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	view := newView(*q, a)
	return &view, nil
}

// Complete marks the user's assignment completed and awards points, then runs
// achievement evaluation. Evaluation problems never fail the completion.
func (s *service) Complete(ctx context.Context, userID, questID int64) (*CompleteResult, error) {
	now := s.now()
	_, err := s.repo.TransitionAssignment(ctx, userID, questID, func(a *Assignment) error {
		if a.Status == StatusCompleted {
			return ErrNotFound
		}
		completedAt := now
		a.Status = StatusCompleted
		a.CompletedAt = &completedAt
		a.PointsEarned = CompletionPoints
		return nil
	})
	if err != nil {
		return nil, err
	}
	QuestsCompletedTotal.Inc()

	result := &CompleteResult{QuestID: questID, PointsEarned: CompletionPoints, NewAchievements: []achievement.Rule{}}
	if s.evaluator != nil {
		if unlocked := s.evaluator.Evaluate(ctx, userID); len(unlocked) > 0 {
			result.NewAchievements = unlocked
		}
	}
	return result, nil
}

func (s *service) Skip(ctx context.Context, userID, questID int64) error {
	now := s.now()
	_, err := s.repo.TransitionAssignment(ctx, userID, questID, func(a *Assignment) error {
		if a.Status != StatusAssigned {
			return ErrNotFound
		}
		skippedAt := now
		a.Status = StatusSkipped
		a.SkippedAt = &skippedAt
		return nil
	})
	return err
}

func (s *service) Categories() []CategoryInfo {
	return Categories()
}
