package achievement

import (
	"context"
	"time"

	"github.com/Tih000/quest/internal/docstore"
)

const (
	rulesTable   = "achievements"
	unlocksTable = "user_achievements"
)

type documentRepository struct {
	store *docstore.Store
}

// NewDocumentRepository returns a Repository backed by the JSON document store.
func NewDocumentRepository(store *docstore.Store) Repository {
	return &documentRepository{store: store}
}

func (r *documentRepository) SeedRules(ctx context.Context, rules []Rule) error {
	now := time.Now().UTC()
	return r.store.Update(ctx, func(tx *docstore.Tx) error {
		existing, err := docstore.Filter[Rule](tx, rulesTable, nil)
		if err != nil {
			return err
		}
		known := make(map[string]struct{}, len(existing))
		for _, rule := range existing {
			known[rule.Code] = struct{}{}
		}
		for _, rule := range rules {
			if _, ok := known[rule.Code]; ok {
				continue
			}
			if _, err := docstore.Insert(tx, rulesTable, func(id int64) Rule {
				rule.ID = id
				rule.CreatedAt = now
				return rule
			}); err != nil {
				return err
			}
			known[rule.Code] = struct{}{}
		}
		return nil
	})
}

func (r *documentRepository) ListRules(ctx context.Context) ([]Rule, error) {
	var rules []Rule
	err := r.store.View(ctx, func(tx *docstore.Tx) error {
		var err error
		rules, err = docstore.Filter[Rule](tx, rulesTable, nil)
		return err
	})
	return rules, err
}

func (r *documentRepository) HasUnlock(ctx context.Context, userID int64, code string) (bool, error) {
	var found bool
	err := r.store.View(ctx, func(tx *docstore.Tx) error {
		var err error
		_, found, err = docstore.First(tx, unlocksTable, matchUnlock(userID, code))
		return err
	})
	return found, err
}

// CreateUnlock checks and inserts under one write transaction, so concurrent
// evaluations for the same user cannot both succeed.
func (r *documentRepository) CreateUnlock(ctx context.Context, userID int64, code string, at time.Time) (Unlock, error) {
	var created Unlock
	err := r.store.Update(ctx, func(tx *docstore.Tx) error {
		_, exists, err := docstore.First(tx, unlocksTable, matchUnlock(userID, code))
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyUnlocked
		}
		created, err = docstore.Insert(tx, unlocksTable, func(id int64) Unlock {
			return Unlock{ID: id, UserID: userID, Code: code, UnlockedAt: at}
		})
		return err
	})
	return created, err
}

func (r *documentRepository) ListUnlocks(ctx context.Context, userID int64) ([]Unlock, error) {
	var unlocks []Unlock
	err := r.store.View(ctx, func(tx *docstore.Tx) error {
		var err error
		unlocks, err = docstore.Filter(tx, unlocksTable, func(u Unlock) bool { return u.UserID == userID })
		return err
	})
	return unlocks, err
}

func matchUnlock(userID int64, code string) func(Unlock) bool {
	return func(u Unlock) bool {
		return u.UserID == userID && u.Code == code
	}
}
