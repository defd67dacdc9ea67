package achievement

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAlreadyUnlocked is returned when an unlock for the same user and code exists.
	ErrAlreadyUnlocked = errors.New("achievement already unlocked")
	// ErrNotFound is returned when a rule code is unknown.
	ErrNotFound = errors.New("achievement not found")
)

// ThresholdKind names the counter a rule is measured against.
type ThresholdKind string

const (
	KindCompletedQuests ThresholdKind = "completed_quest_count"
	KindSharedQuests    ThresholdKind = "shared_quest_count"
)

// Rule is a static achievement definition seeded at start-up.
type Rule struct {
	ID             int64         `json:"id" firestore:"id"`
	Code           string        `json:"code" firestore:"code"`
	Name           string        `json:"name" firestore:"name"`
	Description    string        `json:"description" firestore:"description"`
	Icon           string        `json:"icon" firestore:"icon"`
	Kind           ThresholdKind `json:"threshold_kind" firestore:"threshold_kind"`
	Threshold      int           `json:"threshold_value" firestore:"threshold_value"`
	TierRestricted bool          `json:"is_pro" firestore:"is_pro"`
	CreatedAt      time.Time     `json:"created_at" firestore:"created_at"`
}

// Unlock records that a user earned a rule. At most one exists per (UserID, Code).
type Unlock struct {
	ID         int64     `json:"id" firestore:"id"`
	UserID     int64     `json:"user_id" firestore:"user_id"`
	Code       string    `json:"achievement_code" firestore:"achievement_code"`
	UnlockedAt time.Time `json:"unlocked_at" firestore:"unlocked_at"`
}

// Unlocked is a rule joined with the time the user earned it.
type Unlocked struct {
	Rule
	UnlockedAt time.Time `json:"unlocked_at"`
}

// Repository persists rules and unlock events.
type Repository interface {
	// SeedRules stores every rule whose code is not yet present.
	SeedRules(ctx context.Context, rules []Rule) error
	ListRules(ctx context.Context) ([]Rule, error)
	HasUnlock(ctx context.Context, userID int64, code string) (bool, error)
	// CreateUnlock fails with ErrAlreadyUnlocked when the pair already exists.
	CreateUnlock(ctx context.Context, userID int64, code string, at time.Time) (Unlock, error)
	ListUnlocks(ctx context.Context, userID int64) ([]Unlock, error)
}

// CompletedCounter reports how many quests a user has completed.
type CompletedCounter interface {
	CompletedCount(ctx context.Context, userID int64) (int, error)
}
