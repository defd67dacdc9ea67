package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Tih000/quest/internal/achievement"
	"github.com/Tih000/quest/shared/auth"
)

type service struct {
	repo         Repository
	quests       QuestStatsSource
	achievements AchievementLister
	entitlements EntitlementChecker
	tokens       auth.TokenIssuer
	logger       *slog.Logger
	now          func() time.Time
}

// Deps groups the collaborators of the user service.
type Deps struct {
	Repo         Repository
	Quests       QuestStatsSource
	Achievements AchievementLister
	// Entitlements is optional; without it only the stored pro flag counts.
	Entitlements EntitlementChecker
	Tokens       auth.TokenIssuer
	Logger       *slog.Logger
}

// NewService creates a new user service.
func NewService(deps Deps) (Service, error) {
	if deps.Repo == nil {
		return nil, errors.New("repository is required")
	}
	if deps.Quests == nil || deps.Achievements == nil {
		return nil, errors.New("quest stats and achievements sources are required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("token issuer is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		repo:         deps.Repo,
		quests:       deps.Quests,
		achievements: deps.Achievements,
		entitlements: deps.Entitlements,
		tokens:       deps.Tokens,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Phone = strings.TrimSpace(input.Phone)
	input.Username = strings.TrimSpace(input.Username)
	input.City = strings.TrimSpace(input.City)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	now := s.now()
	created, err := s.repo.Create(ctx, User{
		Phone:       input.Phone,
		Username:    input.Username,
		Age:         input.Age,
		Gender:      input.Gender,
		City:        input.City,
		Interests:   normalizeInterests(input.Interests),
		CreatedAt:   now,
		UpdatedAt:   now,
		LastLoginAt: &now,
	})
	if err != nil {
		return nil, err
	}
	return s.authResult(created)
}

func (s *service) Login(ctx context.Context, phone string) (*AuthResult, error) {
	phone = strings.TrimSpace(phone)
	if !ValidPhone(phone) {
		return nil, fmt.Errorf("%w: phone must contain 10-15 digits with an optional leading +", ErrInvalidInput)
	}

	existing, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	now := s.now()
	updated, err := s.repo.Update(ctx, existing.ID, func(u *User) {
		u.LastLoginAt = &now
	})
	if err != nil {
		return nil, err
	}
	return s.authResult(updated)
}

func (s *service) authResult(u *User) (*AuthResult, error) {
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{User: withInterests(u), Token: token}, nil
}

func (s *service) GetUser(ctx context.Context, userID int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return withInterests(u), nil
}

func (s *service) GetProfile(ctx context.Context, userID int64) (*ProfileResponse, error) {
	var (
		u        *User
		stats    QuestStats
		unlocked []achievement.Unlocked
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		found, err := s.repo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		u = found
		return nil
	})

	g.Go(func() error {
		st, err := s.quests.QuestStats(ctx, userID)
		if err != nil {
			return fmt.Errorf("quest stats: %w", err)
		}
		stats = st
		return nil
	})

	g.Go(func() error {
		list, err := s.achievements.ListUnlocked(ctx, userID)
		if err != nil {
			return fmt.Errorf("achievements: %w", err)
		}
		unlocked = list
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summaries := make([]AchievementSummary, 0, len(unlocked))
	for _, a := range unlocked {
		summaries = append(summaries, AchievementSummary{
			Code:       a.Code,
			Name:       a.Name,
			Icon:       a.Icon,
			UnlockedAt: a.UnlockedAt,
		})
	}

	return &ProfileResponse{
		User: withInterests(u),
		Stats: ProfileStats{
			TotalQuests:     stats.Total,
			CompletedQuests: stats.Completed,
			TotalPoints:     stats.TotalPoints,
		},
		Achievements: summaries,
	}, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID int64, input UpdateInput) (*User, error) {
	if input.Username != nil {
		trimmed := strings.TrimSpace(*input.Username)
		input.Username = &trimmed
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	now := s.now()
	updated, err := s.repo.Update(ctx, userID, func(u *User) {
		if input.Username != nil {
			u.Username = *input.Username
		}
		if input.Age != nil {
			age := *input.Age
			u.Age = &age
		}
		if input.Gender != nil {
			u.Gender = *input.Gender
		}
		if input.City != nil {
			u.City = strings.TrimSpace(*input.City)
		}
		if input.Interests != nil {
			u.Interests = normalizeInterests(*input.Interests)
		}
		u.UpdatedAt = now
	})
	if err != nil {
		return nil, err
	}
	return withInterests(updated), nil
}

func (s *service) Stats(ctx context.Context, userID int64) (*StatsResponse, error) {
	var (
		stats    QuestStats
		unlocked []achievement.Unlocked
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		st, err := s.quests.QuestStats(ctx, userID)
		stats = st
		return err
	})
	g.Go(func() error {
		list, err := s.achievements.ListUnlocked(ctx, userID)
		unlocked = list
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &StatsResponse{QuestStats: stats, AchievementsUnlocked: len(unlocked)}, nil
}

// IsElevated reports whether u gets the paid-tier quest pool: a stored pro flag
// that has not expired, or an active entitlement. Entitlement lookup failures
// are logged and count as not elevated.
func (s *service) IsElevated(ctx context.Context, u *User) bool {
	if u == nil {
		return false
	}
	if u.IsPro && (u.ProExpiresAt == nil || s.now().Before(*u.ProExpiresAt)) {
		return true
	}
	if s.entitlements == nil {
		return false
	}
	ok, err := s.entitlements.HasEntitlement(ctx, strconv.FormatInt(u.ID, 10))
	if err != nil {
		s.logger.Warn("entitlement lookup failed", "userId", u.ID, "error", err)
		return false
	}
	return ok
}

func withInterests(u *User) *User {
	if u != nil && u.Interests == nil {
		u.Interests = []string{}
	}
	return u
}
