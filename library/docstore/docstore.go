// Package docstore is a narrow document-store contract shared by the
// firestore, mongo and in-memory backends.
//
// Collections are slash separated paths, a subcollection is addressed as
// `posts/{id}/comments`. Writes take plain maps, reads decode through
// Document.DataTo into structs tagged with both `firestore` and `json`.
package docstore

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/Laisky/errors/v2"
)

var (
	// ErrNotFound the document does not exist
	ErrNotFound = errors.New("document not found")
	// ErrInvalidPath collection path is malformed
	ErrInvalidPath = errors.New("invalid collection path")
)

// DocumentID is the pseudo field used to order or page by document id
const DocumentID = "__name__"

type serverTimestamp struct{}

// ServerTimestamp is a sentinel value, the backend replaces it with
// the server's current time when the write is applied.
var ServerTimestamp = serverTimestamp{}

// IsServerTimestamp reports whether v is the ServerTimestamp sentinel
func IsServerTimestamp(v any) bool {
	_, ok := v.(serverTimestamp)
	return ok
}

// Direction of an ordering
type Direction int

const (
	// Asc ascending
	Asc Direction = iota
	// Desc descending
	Desc
)

// Filter is an equality predicate
type Filter struct {
	Field string
	Value any
}

// Order sorts results by Field
type Order struct {
	Field string
	Dir   Direction
}

// Query describes a List call.
//
// StartAfter holds one value per entry in Orders, the result starts
// right after the document carrying exactly those values.
type Query struct {
	Filters    []Filter
	Orders     []Order
	Limit      int
	StartAfter []any
}

// Document is a single read result
type Document interface {
	ID() string
	DataTo(dst any) error
}

// Store is implemented by every backend
type Store interface {
	// Get loads one document, returns ErrNotFound if absent
	Get(ctx context.Context, collection, id string) (Document, error)
	// List runs q against collection
	List(ctx context.Context, collection string, q Query) ([]Document, error)
	// Create inserts data under a generated id
	Create(ctx context.Context, collection string, data map[string]any) (id string, err error)
	// Set writes the whole document, creating it when absent
	Set(ctx context.Context, collection, id string, data map[string]any) error
	// Update merges data into an existing document, returns ErrNotFound if absent
	Update(ctx context.Context, collection, id string, data map[string]any) error
	// Delete removes one document, returns ErrNotFound if absent
	Delete(ctx context.Context, collection, id string) error
	// Increment atomically adds delta to an integer field
	Increment(ctx context.Context, collection, id, field string, delta int64) error
	Close(ctx context.Context) error
}

// IsNotFound reports whether err is ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Path joins path segments, Path("posts", id, "comments")
func Path(segments ...string) string {
	return strings.Join(segments, "/")
}

// SplitCollection splits a collection path into its parent document path
// and the collection name. A top level collection has an empty parent.
func SplitCollection(collection string) (parent, name string, err error) {
	segs := strings.Split(strings.Trim(collection, "/"), "/")
	if len(segs)%2 == 0 {
		return "", "", errors.Wrapf(ErrInvalidPath, "%q", collection)
	}
	for _, s := range segs {
		if s == "" {
			return "", "", errors.Wrapf(ErrInvalidPath, "%q", collection)
		}
	}

	name = segs[len(segs)-1]
	parent = strings.Join(segs[:len(segs)-1], "/")
	return parent, name, nil
}

// ToMap converts a json tagged struct into a write payload.
// Only for payloads without time fields, times would become strings.
func ToMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshal")
	}

	out := map[string]any{}
	if err = json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "unmarshal")
	}

	return out, nil
}

// DecodeJSON decodes a loosely typed map into dst via its json tags
func DecodeJSON(data map[string]any, dst any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "marshal document")
	}
	if err = json.Unmarshal(raw, dst); err != nil {
		return errors.Wrap(err, "decode document")
	}

	return nil
}
