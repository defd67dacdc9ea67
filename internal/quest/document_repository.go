package quest

import (
	"context"
	"slices"
	"time"

	"github.com/Tih000/quest/internal/docstore"
	"github.com/Tih000/quest/internal/user"
)

const (
	questsTable      = "quests"
	assignmentsTable = "user_quests"
)

type documentRepository struct {
	store *docstore.Store
}

// NewDocumentRepository returns a Repository backed by the JSON document store.
func NewDocumentRepository(store *docstore.Store) Repository {
	return &documentRepository{store: store}
}

func (r *documentRepository) CreateAssigned(ctx context.Context, q Quest, userID int64, at time.Time) (Quest, Assignment, error) {
	var (
		createdQuest Quest
		assignment   Assignment
	)
	err := r.store.Update(ctx, func(tx *docstore.Tx) error {
		var err error
		createdQuest, err = docstore.Insert(tx, questsTable, func(id int64) Quest {
			q.ID = id
			return q
		})
		if err != nil {
			return err
		}
		assignment, err = docstore.Insert(tx, assignmentsTable, func(id int64) Assignment {
			return Assignment{
				ID:        id,
				UserID:    userID,
				QuestID:   createdQuest.ID,
				Status:    StatusAssigned,
				StartedAt: at,
			}
		})
		return err
	})
	return createdQuest, assignment, err
}

func (r *documentRepository) GetQuest(ctx context.Context, id int64) (*Quest, error) {
	var (
		q     Quest
		found bool
	)
	err := r.store.View(ctx, func(tx *docstore.Tx) error {
		var err error
		q, found, err = docstore.Get[Quest](tx, questsTable, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return &q, nil
}

func (r *documentRepository) GetQuests(ctx context.Context, ids []int64) (map[int64]Quest, error) {
	out := make(map[int64]Quest, len(ids))
	err := r.store.View(ctx, func(tx *docstore.Tx) error {
		for _, id := range ids {
			if _, ok := out[id]; ok {
				continue
			}
			q, found, err := docstore.Get[Quest](tx, questsTable, id)
			if err != nil {
				return err
			}
			if found {
				out[id] = q
			}
		}
		return nil
	})
	return out, err
}

func (r *documentRepository) LatestAssignment(ctx context.Context, userID, questID int64) (*Assignment, error) {
	var latest *Assignment
	err := r.store.View(ctx, func(tx *docstore.Tx) error {
		var err error
		latest, err = latestAssignment(tx, userID, questID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

func (r *documentRepository) TransitionAssignment(ctx context.Context, userID, questID int64, mutate func(a *Assignment) error) (Assignment, error) {
	var updated Assignment
	err := r.store.Update(ctx, func(tx *docstore.Tx) error {
		latest, err := latestAssignment(tx, userID, questID)
		if err != nil {
			return err
		}
		if latest == nil {
			return ErrNotFound
		}
		if err := mutate(latest); err != nil {
			return err
		}
		updated = *latest
		return docstore.Put(tx, assignmentsTable, latest.ID, *latest)
	})
	return updated, err
}

func latestAssignment(tx *docstore.Tx, userID, questID int64) (*Assignment, error) {
	matches, err := docstore.Filter(tx, assignmentsTable, func(a Assignment) bool {
		return a.UserID == userID && a.QuestID == questID
	})
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	// Filter returns rows in id order.
	latest := matches[len(matches)-1]
	return &latest, nil
}

func (r *documentRepository) ListAssignments(ctx context.Context, userID int64, limit int) ([]Assignment, error) {
	var assignments []Assignment
	err := r.store.View(ctx, func(tx *docstore.Tx) error {
		var err error
		assignments, err = docstore.Filter(tx, assignmentsTable, func(a Assignment) bool { return a.UserID == userID })
		return err
	})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(assignments)
	if limit > 0 && len(assignments) > limit {
		assignments = assignments[:limit]
	}
	return assignments, nil
}

func (r *documentRepository) QuestStats(ctx context.Context, userID int64) (user.QuestStats, error) {
	var assignments []Assignment
	err := r.store.View(ctx, func(tx *docstore.Tx) error {
		var err error
		assignments, err = docstore.Filter(tx, assignmentsTable, func(a Assignment) bool { return a.UserID == userID })
		return err
	})
	if err != nil {
		return user.QuestStats{}, err
	}
	return tally(assignments), nil
}

func (r *documentRepository) CompletedCount(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.store.View(ctx, func(tx *docstore.Tx) error {
		var err error
		n, err = docstore.Count(tx, assignmentsTable, func(a Assignment) bool {
			return a.UserID == userID && a.Status == StatusCompleted
		})
		return err
	})
	return n, err
}

func sortNewestFirst(assignments []Assignment) {
	slices.SortStableFunc(assignments, func(a, b Assignment) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
}

func tally(assignments []Assignment) user.QuestStats {
	stats := user.QuestStats{Total: len(assignments)}
	for _, a := range assignments {
		switch a.Status {
		case StatusCompleted:
			stats.Completed++
			stats.TotalPoints += a.PointsEarned
		case StatusSkipped:
			stats.Skipped++
		case StatusAssigned:
			stats.InProgress++
		}
	}
	return stats
}
