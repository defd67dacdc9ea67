package quest

import (
	"context"
	"errors"
	"time"

	"github.com/Tih000/quest/internal/achievement"
	"github.com/Tih000/quest/internal/user"
)

var (
	ErrNotFound     = errors.New("quest not found")
	ErrInvalidInput = errors.New("invalid input")
)

const (
	// CompletionPoints are awarded for every completed quest.
	CompletionPoints = 100
	// HistoryLimit caps the number of entries returned by History.
	HistoryLimit = 50
)

// Status is the lifecycle state of an assignment.
type Status string

const (
	StatusAssigned  Status = "assigned"
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
)

// Quest is a persisted QuestSpec.
type Quest struct {
	ID               int64      `json:"id" firestore:"id"`
	Title            string     `json:"title" firestore:"title"`
	Description      string     `json:"description" firestore:"description"`
	Tasks            []string   `json:"tasks" firestore:"tasks"`
	Reward           string     `json:"reward" firestore:"reward"`
	Category         Category   `json:"category" firestore:"category"`
	Difficulty       Difficulty `json:"difficulty" firestore:"difficulty"`
	EstimatedMinutes int        `json:"estimated_minutes" firestore:"estimated_minutes"`
	IsPro            bool       `json:"is_pro" firestore:"is_pro"`
	CreatedByAI      bool       `json:"created_by_ai" firestore:"created_by_ai"`
	CreatedAt        time.Time  `json:"created_at" firestore:"created_at"`
}

// Assignment links a user to a quest and tracks its progress.
type Assignment struct {
	ID           int64      `json:"id" firestore:"id"`
	UserID       int64      `json:"user_id" firestore:"user_id"`
	QuestID      int64      `json:"quest_id" firestore:"quest_id"`
	Status       Status     `json:"status" firestore:"status"`
	StartedAt    time.Time  `json:"started_at" firestore:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" firestore:"completed_at"`
	SkippedAt    *time.Time `json:"skipped_at,omitempty" firestore:"skipped_at"`
	PointsEarned int        `json:"points_earned" firestore:"points_earned"`
}

// View is a quest together with one user's assignment state.
type View struct {
	Quest
	AssignmentID int64      `json:"user_quest_id,omitempty"`
	Status       Status     `json:"status,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	SkippedAt    *time.Time `json:"skipped_at,omitempty"`
	PointsEarned int        `json:"points_earned"`
}

// Generated is the result of generating and assigning a quest.
type Generated struct {
	View
	Source   Source `json:"source"`
	Attempts int    `json:"attempts"`
}

// CompleteResult is returned when a quest is completed.
type CompleteResult struct {
	QuestID         int64              `json:"quest_id"`
	PointsEarned    int                `json:"points_earned"`
	NewAchievements []achievement.Rule `json:"new_achievements"`
}

// Repository persists quests and assignments.
type Repository interface {
	// CreateAssigned stores q and an assigned Assignment for userID in one write.
	CreateAssigned(ctx context.Context, q Quest, userID int64, at time.Time) (Quest, Assignment, error)
	GetQuest(ctx context.Context, id int64) (*Quest, error)
	GetQuests(ctx context.Context, ids []int64) (map[int64]Quest, error)
	// LatestAssignment returns the newest assignment of questID to userID.
	LatestAssignment(ctx context.Context, userID, questID int64) (*Assignment, error)
	// TransitionAssignment loads the latest assignment and stores it after
	// mutate succeeds, atomically. mutate errors abort the write.
	TransitionAssignment(ctx context.Context, userID, questID int64, mutate func(a *Assignment) error) (Assignment, error)
	// ListAssignments returns at most limit assignments, newest first.
	ListAssignments(ctx context.Context, userID int64, limit int) ([]Assignment, error)
	QuestStats(ctx context.Context, userID int64) (user.QuestStats, error)
	CompletedCount(ctx context.Context, userID int64) (int, error)
}

// UserDirectory resolves requesters.
type UserDirectory interface {
	GetUser(ctx context.Context, userID int64) (*user.User, error)
	IsElevated(ctx context.Context, u *user.User) bool
}

// AchievementEvaluator awards achievements after a completion.
type AchievementEvaluator interface {
	Evaluate(ctx context.Context, userID int64) []achievement.Rule
}

// Service defines the quest lifecycle.
type Service interface {
	Generate(ctx context.Context, userID int64) (*Generated, error)
	History(ctx context.Context, userID int64) ([]View, error)
	Get(ctx context.Context, userID, questID int64) (*View, error)
	Complete(ctx context.Context, userID, questID int64) (*CompleteResult, error)
	Skip(ctx context.Context, userID, questID int64) error
	Categories() []CategoryInfo
}

func questFromSpec(spec QuestSpec, elevated, fromBackend bool, at time.Time) Quest {
	return Quest{
		Title:            spec.Title,
		Description:      spec.Description,
		Tasks:            spec.Tasks,
		Reward:           spec.Reward,
		Category:         spec.Category,
		Difficulty:       spec.Difficulty,
		EstimatedMinutes: spec.EstimatedMinutes,
		IsPro:            elevated,
		CreatedByAI:      fromBackend,
		CreatedAt:        at,
	}
}

func newView(q Quest, a *Assignment) View {
	v := View{Quest: q}
	if a == nil {
		return v
	}
	started := a.StartedAt
	v.AssignmentID = a.ID
	v.Status = a.Status
	v.StartedAt = &started
	v.CompletedAt = a.CompletedAt
	v.SkippedAt = a.SkippedAt
	v.PointsEarned = a.PointsEarned
	return v
}
