package quest

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Tih000/quest/internal/fsutil"
	"github.com/Tih000/quest/internal/user"
)

const (
	questsCollection      = "quests"
	assignmentsCollection = "user_quests"
)

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository creates a Repository backed by Firestore.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func docID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (r *firestoreRepository) CreateAssigned(ctx context.Context, q Quest, userID int64, at time.Time) (Quest, Assignment, error) {
	var (
		createdQuest Quest
		assignment   Assignment
	)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ids, err := fsutil.NextIDs(r.client, tx, questsCollection, assignmentsCollection)
		if err != nil {
			return err
		}
		createdQuest = q
		createdQuest.ID = ids[0]
		assignment = Assignment{
			ID:        ids[1],
			UserID:    userID,
			QuestID:   ids[0],
			Status:    StatusAssigned,
			StartedAt: at,
		}
		if err := tx.Create(r.client.Collection(questsCollection).Doc(docID(createdQuest.ID)), createdQuest); err != nil {
			return err
		}
		return tx.Create(r.client.Collection(assignmentsCollection).Doc(docID(assignment.ID)), assignment)
	})
	if err != nil {
		return Quest{}, Assignment{}, err
	}
	return createdQuest, assignment, nil
}

func (r *firestoreRepository) GetQuest(ctx context.Context, id int64) (*Quest, error) {
	doc, err := r.client.Collection(questsCollection).Doc(docID(id)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var q Quest
	if err := doc.DataTo(&q); err != nil {
		return nil, fmt.Errorf("unmarshal quest: %w", err)
	}
	return &q, nil
}

func (r *firestoreRepository) GetQuests(ctx context.Context, ids []int64) (map[int64]Quest, error) {
	out := make(map[int64]Quest, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, r.client.Collection(questsCollection).Doc(docID(id)))
	}
	docs, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}
		var q Quest
		if err := doc.DataTo(&q); err != nil {
			return nil, fmt.Errorf("unmarshal quest: %w", err)
		}
		out[q.ID] = q
	}
	return out, nil
}

func (r *firestoreRepository) assignmentsFor(userID, questID int64) firestore.Query {
	return r.client.Collection(assignmentsCollection).
		Where("user_id", "==", userID).
		Where("quest_id", "==", questID)
}

func (r *firestoreRepository) LatestAssignment(ctx context.Context, userID, questID int64) (*Assignment, error) {
	docs, err := r.assignmentsFor(userID, questID).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	latest, _, err := pickLatest(docs)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

func (r *firestoreRepository) TransitionAssignment(ctx context.Context, userID, questID int64, mutate func(a *Assignment) error) (Assignment, error) {
	var updated Assignment
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docs, err := tx.Documents(r.assignmentsFor(userID, questID)).GetAll()
		if err != nil {
			return err
		}
		latest, ref, err := pickLatest(docs)
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
		return tx.Set(ref, updated)
	})
	return updated, err
}

func pickLatest(docs []*firestore.DocumentSnapshot) (*Assignment, *firestore.DocumentRef, error) {
	var (
		latest *Assignment
		ref    *firestore.DocumentRef
	)
	for _, doc := range docs {
		var a Assignment
		if err := doc.DataTo(&a); err != nil {
			return nil, nil, fmt.Errorf("unmarshal assignment: %w", err)
		}
		if latest == nil || a.ID > latest.ID {
			latest = &a
			ref = doc.Ref
		}
	}
	return latest, ref, nil
}

func (r *firestoreRepository) ListAssignments(ctx context.Context, userID int64, limit int) ([]Assignment, error) {
	query := r.client.Collection(assignmentsCollection).
		Where("user_id", "==", userID).
		OrderBy("started_at", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	assignments, err := collectAssignments(query.Documents(ctx))
	if err != nil {
		return nil, err
	}
	sortNewestFirst(assignments)
	return assignments, nil
}

func (r *firestoreRepository) QuestStats(ctx context.Context, userID int64) (user.QuestStats, error) {
	assignments, err := collectAssignments(r.client.Collection(assignmentsCollection).
		Where("user_id", "==", userID).
		Documents(ctx))
	if err != nil {
		return user.QuestStats{}, err
	}
	return tally(assignments), nil
}

func (r *firestoreRepository) CompletedCount(ctx context.Context, userID int64) (int, error) {
	iter := r.client.Collection(assignmentsCollection).
		Where("user_id", "==", userID).
		Where("status", "==", string(StatusCompleted)).
		Documents(ctx)
	defer iter.Stop()

	n := 0
	for {
		_, err := iter.Next()
		if err == iterator.Done {
			return n, nil
		}
		if err != nil {
			return 0, err
		}
		n++
	}
}

func collectAssignments(iter *firestore.DocumentIterator) ([]Assignment, error) {
	defer iter.Stop()

	var out []Assignment
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var a Assignment
		if err := doc.DataTo(&a); err != nil {
			return nil, fmt.Errorf("unmarshal assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, nil
}
