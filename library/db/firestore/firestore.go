// Package firestore is the Cloud Firestore backend of docstore.Store.
package firestore

import (
	"context"

	fsSDK "cloud.google.com/go/firestore"
	"github.com/Laisky/errors/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Laisky/laisky-portfolio/library/docstore"
)

var _ docstore.Store = (*DB)(nil)

// DB firestore client
type DB struct {
	*fsSDK.Client
	projectID string
}

// NewDB create firestore client
func NewDB(ctx context.Context, projectID string, opts ...option.ClientOption) (db *DB, err error) {
	db = &DB{
		projectID: projectID,
	}
	var cli *fsSDK.Client
	if cli, err = fsSDK.NewClient(ctx, projectID, opts...); err != nil {
		return nil, errors.Wrap(err, "create firestore client")
	}

	db.Client = cli
	return db, nil
}

type document struct {
	snap *fsSDK.DocumentSnapshot
}

func (d document) ID() string {
	return d.snap.Ref.ID
}

func (d document) DataTo(dst any) error {
	return errors.Wrap(d.snap.DataTo(dst), "decode firestore document")
}

// Get implements docstore.Store
func (db *DB) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	snap, err := db.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, wrapErr(err, "get %s/%s", collection, id)
	}

	return document{snap: snap}, nil
}

// List implements docstore.Store
func (db *DB) List(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	col, err := db.col(collection)
	if err != nil {
		return nil, err
	}

	query := col.Query
	for _, f := range q.Filters {
		path := f.Field
		if path == docstore.DocumentID {
			path = fsSDK.DocumentID
		}
		query = query.Where(path, "==", f.Value)
	}
	for _, o := range q.Orders {
		path := o.Field
		if path == docstore.DocumentID {
			path = fsSDK.DocumentID
		}

		dir := fsSDK.Asc
		if o.Dir == docstore.Desc {
			dir = fsSDK.Desc
		}
		query = query.OrderBy(path, dir)
	}
	if len(q.StartAfter) > 0 {
		query = query.StartAfter(q.StartAfter...)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, wrapErr(err, "list %s", collection)
	}

	docs := make([]docstore.Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, document{snap: snap})
	}

	return docs, nil
}

// Create implements docstore.Store
func (db *DB) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	col, err := db.col(collection)
	if err != nil {
		return "", err
	}

	ref := col.NewDoc()
	if _, err := ref.Create(ctx, translate(data)); err != nil {
		return "", wrapErr(err, "create in %s", collection)
	}

	return ref.ID, nil
}

// Set implements docstore.Store
func (db *DB) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if _, err := db.Collection(collection).Doc(id).Set(ctx, translate(data)); err != nil {
		return wrapErr(err, "set %s/%s", collection, id)
	}

	return nil
}

// Update implements docstore.Store
func (db *DB) Update(ctx context.Context, collection, id string, data map[string]any) error {
	if len(data) == 0 {
		return nil
	}

	updates := make([]fsSDK.Update, 0, len(data))
	for k, v := range translate(data) {
		updates = append(updates, fsSDK.Update{Path: k, Value: v})
	}

	// Update carries an implicit Exists precondition
	if _, err := db.Collection(collection).Doc(id).Update(ctx, updates); err != nil {
		return wrapErr(err, "update %s/%s", collection, id)
	}

	return nil
}

// Delete implements docstore.Store
func (db *DB) Delete(ctx context.Context, collection, id string) error {
	if _, err := db.Collection(collection).Doc(id).Delete(ctx, fsSDK.Exists); err != nil {
		return wrapErr(err, "delete %s/%s", collection, id)
	}

	return nil
}

// Increment implements docstore.Store
func (db *DB) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	if _, err := db.Collection(collection).Doc(id).Update(ctx, []fsSDK.Update{
		{Path: field, Value: fsSDK.Increment(delta)},
	}); err != nil {
		return wrapErr(err, "increment %s/%s.%s", collection, id, field)
	}

	return nil
}

// Close implements docstore.Store
func (db *DB) Close(context.Context) error {
	return errors.Wrap(db.Client.Close(), "close firestore client")
}

func (db *DB) col(collection string) (*fsSDK.CollectionRef, error) {
	col := db.Collection(collection)
	if col == nil {
		return nil, errors.Wrapf(docstore.ErrInvalidPath, "%q", collection)
	}

	return col, nil
}

func translate(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if docstore.IsServerTimestamp(v) {
			out[k] = fsSDK.ServerTimestamp
			continue
		}
		out[k] = v
	}

	return out
}

func wrapErr(err error, format string, args ...any) error {
	if status.Code(err) == codes.NotFound {
		return errors.Wrapf(docstore.ErrNotFound, format, args...)
	}

	return errors.Wrapf(err, format, args...)
}
