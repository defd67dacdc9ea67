package user

import (
	"context"
	"errors"
	"time"

	"github.com/Tih000/quest/internal/achievement"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrConflict     = errors.New("user already exists")
	ErrInvalidInput = errors.New("invalid input")
)

// User is the persisted account record.
type User struct {
	ID           int64      `json:"id" firestore:"id"`
	Phone        string     `json:"phone" firestore:"phone"`
	Username     string     `json:"username" firestore:"username"`
	Age          *int       `json:"age,omitempty" firestore:"age"`
	Gender       string     `json:"gender,omitempty" firestore:"gender"`
	City         string     `json:"city,omitempty" firestore:"city"`
	Interests    []string   `json:"interests" firestore:"interests"`
	AvatarURL    string     `json:"avatar_url,omitempty" firestore:"avatar_url"`
	IsPro        bool       `json:"is_pro" firestore:"is_pro"`
	ProExpiresAt *time.Time `json:"pro_expires_at,omitempty" firestore:"pro_expires_at"`
	CreatedAt    time.Time  `json:"created_at" firestore:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" firestore:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" firestore:"last_login_at"`
}

// RegisterInput is the payload of POST /v1/auth/register.
type RegisterInput struct {
	Phone     string   `json:"phone" validate:"required,phone"`
	Username  string   `json:"username" validate:"required,handle"`
	Age       *int     `json:"age" validate:"omitnil,min=1,max=120"`
	Gender    string   `json:"gender" validate:"omitempty,oneof=M F"`
	City      string   `json:"city" validate:"max=100"`
	Interests []string `json:"interests" validate:"max=20,dive,max=50"`
}

// UpdateInput is a partial profile update; nil fields are left untouched.
type UpdateInput struct {
	Username  *string   `json:"username" validate:"omitnil,handle"`
	Age       *int      `json:"age" validate:"omitnil,min=1,max=120"`
	Gender    *string   `json:"gender" validate:"omitnil,oneof=M F"`
	City      *string   `json:"city" validate:"omitnil,max=100"`
	Interests *[]string `json:"interests" validate:"omitnil,max=20"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// QuestStats aggregates a user's quest assignments.
type QuestStats struct {
	Total       int `json:"total_quests"`
	Completed   int `json:"completed_quests"`
	Skipped     int `json:"skipped_quests"`
	InProgress  int `json:"in_progress_quests"`
	TotalPoints int `json:"total_points"`
}

// ProfileStats is the short stats block of GET /v1/users/me.
type ProfileStats struct {
	TotalQuests     int `json:"total_quests"`
	CompletedQuests int `json:"completed_quests"`
	TotalPoints     int `json:"total_points"`
}

// AchievementSummary is an unlocked achievement as shown on the profile.
type AchievementSummary struct {
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Icon       string    `json:"icon"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// ProfileResponse combines the user with derived quest and achievement data.
type ProfileResponse struct {
	User         *User                `json:"user"`
	Stats        ProfileStats         `json:"stats"`
	Achievements []AchievementSummary `json:"achievements"`
}

// StatsResponse is returned by GET /v1/users/stats.
type StatsResponse struct {
	QuestStats
	AchievementsUnlocked int `json:"achievements_unlocked"`
}

// Repository defines the interface for user data access.
type Repository interface {
	// Create stores u with a fresh id; a taken phone or username yields ErrConflict.
	Create(ctx context.Context, u User) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	// Update applies mutate to the stored user; a username taken by another user yields ErrConflict.
	Update(ctx context.Context, id int64, mutate func(u *User)) (*User, error)
}

// QuestStatsSource supplies per-user quest counters.
type QuestStatsSource interface {
	QuestStats(ctx context.Context, userID int64) (QuestStats, error)
}

// AchievementLister lists a user's unlocked achievements.
type AchievementLister interface {
	ListUnlocked(ctx context.Context, userID int64) ([]achievement.Unlocked, error)
}

// EntitlementChecker reports paid-tier entitlements held outside this service.
type EntitlementChecker interface {
	HasEntitlement(ctx context.Context, appUserID string) (bool, error)
}

// Service defines the user service interface.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, phone string) (*AuthResult, error)
	GetUser(ctx context.Context, userID int64) (*User, error)
	GetProfile(ctx context.Context, userID int64) (*ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID int64, input UpdateInput) (*User, error)
	Stats(ctx context.Context, userID int64) (*StatsResponse, error)
	IsElevated(ctx context.Context, u *User) bool
}
