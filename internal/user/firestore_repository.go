package user

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Tih000/quest/internal/fsutil"
)

const (
	usersCollection     = "users"
	phonesCollection    = "user_phones"
	usernamesCollection = "user_usernames"
)

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository creates a Repository backed by Firestore. Phone and
// username uniqueness is kept with index documents written in the same
// transaction as the user.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

type indexDoc struct {
	UserID int64 `firestore:"user_id"`
}

func (r *firestoreRepository) userRef(id int64) *firestore.DocumentRef {
	return r.client.Collection(usersCollection).Doc(strconv.FormatInt(id, 10))
}

func (r *firestoreRepository) phoneRef(phone string) *firestore.DocumentRef {
	return r.client.Collection(phonesCollection).Doc(phone)
}

func (r *firestoreRepository) usernameRef(username string) *firestore.DocumentRef {
	return r.client.Collection(usernamesCollection).Doc(strings.ToLower(username))
}

func (r *firestoreRepository) Create(ctx context.Context, u User) (*User, error) {
	phoneRef := r.phoneRef(u.Phone)
	usernameRef := r.usernameRef(u.Username)

	var created User
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, ref := range []*firestore.DocumentRef{phoneRef, usernameRef} {
			if _, err := tx.Get(ref); err == nil {
				return ErrConflict
			} else if status.Code(err) != codes.NotFound {
				return err
			}
		}

		id, err := fsutil.NextID(r.client, tx, usersCollection)
		if err != nil {
			return err
		}
		created = u
		created.ID = id

		if err := tx.Create(r.userRef(id), created); err != nil {
			return err
		}
		if err := tx.Create(phoneRef, indexDoc{UserID: id}); err != nil {
			return err
		}
		return tx.Create(usernameRef, indexDoc{UserID: id})
	})
	if status.Code(err) == codes.AlreadyExists {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *firestoreRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	doc, err := r.userRef(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var u User
	if err := doc.DataTo(&u); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &u, nil
}

func (r *firestoreRepository) GetByPhone(ctx context.Context, phone string) (*User, error) {
	doc, err := r.phoneRef(phone).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var idx indexDoc
	if err := doc.DataTo(&idx); err != nil {
		return nil, fmt.Errorf("unmarshal phone index: %w", err)
	}
	return r.GetByID(ctx, idx.UserID)
}

func (r *firestoreRepository) Update(ctx context.Context, id int64, mutate func(u *User)) (*User, error) {
	ref := r.userRef(id)

	var updated User
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var current User
		if err := doc.DataTo(&current); err != nil {
			return fmt.Errorf("unmarshal user: %w", err)
		}
		previous := current.Username

		mutate(&current)
		current.ID = id

		renamed := !strings.EqualFold(previous, current.Username)
		if renamed {
			idxSnap, err := tx.Get(r.usernameRef(current.Username))
			switch {
			case status.Code(err) == codes.NotFound:
			case err != nil:
				return err
			default:
				var idx indexDoc
				if err := idxSnap.DataTo(&idx); err != nil {
					return fmt.Errorf("unmarshal username index: %w", err)
				}
				if idx.UserID != id {
					return ErrConflict
				}
			}
		}

		if err := tx.Set(ref, current); err != nil {
			return err
		}
		if renamed {
			if err := tx.Delete(r.usernameRef(previous)); err != nil {
				return err
			}
			if err := tx.Set(r.usernameRef(current.Username), indexDoc{UserID: id}); err != nil {
				return err
			}
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
