// Package dao stores user accounts.
package dao

import (
	"context"

	"github.com/Laisky/errors/v2"

	"github.com/Laisky/laisky-portfolio/internal/web/user/model"
	"github.com/Laisky/laisky-portfolio/library/docstore"
)

const colUsers = "users"

// User dao
type User struct {
	store docstore.Store
}

// New create dao
func New(store docstore.Store) *User {
	return &User{store: store}
}

// Get load user by uid
func (d *User) Get(ctx context.Context, uid string) (*model.User, error) {
	doc, err := d.store.Get(ctx, colUsers, uid)
	if err != nil {
		return nil, errors.Wrapf(err, "get user %q", uid)
	}

	return decodeUser(doc)
}

// FindByEmail load user by lower-cased email
func (d *User) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	docs, err := d.store.List(ctx, colUsers, docstore.Query{
		Filters: []docstore.Filter{{Field: "email", Value: email}},
		Limit:   1,
	})
	if err != nil {
		return nil, errors.Wrap(err, "find user by email")
	}
	if len(docs) == 0 {
		return nil, errors.Wrap(model.ErrNotFound, "user by email")
	}

	return decodeUser(docs[0])
}

// Create writes a new user document at users/{uid}
func (d *User) Create(ctx context.Context, uid string, data map[string]any) error {
	return errors.Wrapf(d.store.Set(ctx, colUsers, uid, data), "create user %q", uid)
}

// Update merges fields into users/{uid}
func (d *User) Update(ctx context.Context, uid string, data map[string]any) error {
	return errors.Wrapf(d.store.Update(ctx, colUsers, uid, data), "update user %q", uid)
}

func decodeUser(doc docstore.Document) (*model.User, error) {
	u := new(model.User)
	if err := doc.DataTo(u); err != nil {
		return nil, errors.Wrapf(err, "decode user %q", doc.ID())
	}
	u.UID = doc.ID()
	return u, nil
}
