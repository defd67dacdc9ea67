package user

import (
	"context"
	"strings"

	"github.com/Tih000/quest/internal/docstore"
)

const usersTable = "users"

type documentRepository struct {
	store *docstore.Store
}

// NewDocumentRepository returns a Repository backed by the JSON document store.
func NewDocumentRepository(store *docstore.Store) Repository {
	return &documentRepository{store: store}
}

func (r *documentRepository) Create(ctx context.Context, u User) (*User, error) {
	var created User
	err := r.store.Update(ctx, func(tx *docstore.Tx) error {
		_, taken, err := docstore.First(tx, usersTable, func(existing User) bool {
			return existing.Phone == u.Phone || sameUsername(existing.Username, u.Username)
		})
		if err != nil {
			return err
		}
		if taken {
			return ErrConflict
		}
		created, err = docstore.Insert(tx, usersTable, func(id int64) User {
			u.ID = id
			return u
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *documentRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	var (
		u     User
		found bool
	)
	err := r.store.View(ctx, func(tx *docstore.Tx) error {
		var err error
		u, found, err = docstore.Get[User](tx, usersTable, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *documentRepository) GetByPhone(ctx context.Context, phone string) (*User, error) {
	var (
		u     User
		found bool
	)
	err := r.store.View(ctx, func(tx *docstore.Tx) error {
		var err error
		u, found, err = docstore.First(tx, usersTable, func(existing User) bool {
			return existing.Phone == phone
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *documentRepository) Update(ctx context.Context, id int64, mutate func(u *User)) (*User, error) {
	var updated User
	err := r.store.Update(ctx, func(tx *docstore.Tx) error {
		current, found, err := docstore.Get[User](tx, usersTable, id)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound
		}

		mutate(&current)
		current.ID = id

		_, taken, err := docstore.First(tx, usersTable, func(other User) bool {
			return other.ID != id && sameUsername(other.Username, current.Username)
		})
		if err != nil {
			return err
		}
		if taken {
			return ErrConflict
		}

		updated = current
		return docstore.Put(tx, usersTable, id, current)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func sameUsername(a, b string) bool {
	return strings.EqualFold(a, b)
}
