package achievement

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Tih000/quest/internal/fsutil"
)

const (
	rulesCollection   = "achievements"
	unlocksCollection = "user_achievements"
)

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository creates a Repository backed by Firestore. Rules are
// keyed by code and unlocks by "<userId>_<code>".
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) SeedRules(ctx context.Context, rules []Rule) error {
	now := time.Now().UTC()
	for i, rule := range rules {
		ref := r.client.Collection(rulesCollection).Doc(rule.Code)
		rule.ID = int64(i + 1)
		rule.CreatedAt = now
		if _, err := ref.Create(ctx, rule); err != nil {
			if status.Code(err) == codes.AlreadyExists {
				continue
			}
			return fmt.Errorf("seed rule %s: %w", rule.Code, err)
		}
	}
	return nil
}

func (r *firestoreRepository) ListRules(ctx context.Context) ([]Rule, error) {
	iter := r.client.Collection(rulesCollection).Documents(ctx)
	defer iter.Stop()

	var rules []Rule
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var rule Rule
		if err := doc.DataTo(&rule); err != nil {
			return nil, fmt.Errorf("unmarshal rule: %w", err)
		}
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules, nil
}

func (r *firestoreRepository) HasUnlock(ctx context.Context, userID int64, code string) (bool, error) {
	_, err := r.unlockRef(userID, code).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *firestoreRepository) CreateUnlock(ctx context.Context, userID int64, code string, at time.Time) (Unlock, error) {
	ref := r.unlockRef(userID, code)

	var created Unlock
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err == nil {
			return ErrAlreadyUnlocked
		} else if status.Code(err) != codes.NotFound {
			return err
		}

		id, err := fsutil.NextID(r.client, tx, unlocksCollection)
		if err != nil {
			return err
		}
		created = Unlock{ID: id, UserID: userID, Code: code, UnlockedAt: at}
		return tx.Create(ref, created)
	})
	if status.Code(err) == codes.AlreadyExists {
		return Unlock{}, ErrAlreadyUnlocked
	}
	return created, err
}

func (r *firestoreRepository) ListUnlocks(ctx context.Context, userID int64) ([]Unlock, error) {
	iter := r.client.Collection(unlocksCollection).
		Where("user_id", "==", userID).
		Documents(ctx)
	defer iter.Stop()

	var unlocks []Unlock
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var u Unlock
		if err := doc.DataTo(&u); err != nil {
			return nil, fmt.Errorf("unmarshal unlock: %w", err)
		}
		unlocks = append(unlocks, u)
	}
	sort.Slice(unlocks, func(i, j int) bool { return unlocks[i].ID < unlocks[j].ID })
	return unlocks, nil
}

func (r *firestoreRepository) unlockRef(userID int64, code string) *firestore.DocumentRef {
	return r.client.Collection(unlocksCollection).Doc(fmt.Sprintf("%d_%s", userID, code))
}
