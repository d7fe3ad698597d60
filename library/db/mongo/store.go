package mongo

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Laisky/laisky-portfolio/library/docstore"
)

var _ docstore.Store = (*DB)(nil)

const (
	fieldID     = "_id"
	fieldParent = "_parent"
)

type document struct {
	id   string
	data map[string]any
}

func (d *document) ID() string { return d.id }

func (d *document) DataTo(dst any) error {
	return docstore.DecodeJSON(d.data, dst)
}

// locate maps a docstore collection path onto a flat mongo collection,
// `posts/p1/comments` becomes collection `comments` with `_parent: posts/p1`
func (d *DB) locate(collection string) (*mongo.Collection, bson.D, error) {
	parent, name, err := docstore.SplitCollection(collection)
	if err != nil {
		return nil, nil, err
	}

	scope := bson.D{}
	if parent != "" {
		scope = append(scope, bson.E{Key: fieldParent, Value: parent})
	}

	return d.GetCol(name), scope, nil
}

func byID(scope bson.D, id string) bson.D {
	filter := bson.D{{Key: fieldID, Value: id}}
	return append(filter, scope...)
}

// Get implements docstore.Store
func (d *DB) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	col, scope, err := d.locate(collection)
	if err != nil {
		return nil, err
	}

	var raw bson.M
	if err = col.FindOne(ctx, byID(scope, id)).Decode(&raw); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.Wrapf(docstore.ErrNotFound, "%s/%s", collection, id)
		}
		return nil, errors.Wrapf(err, "get %s/%s", collection, id)
	}

	return toDocument(raw), nil
}

// List implements docstore.Store
func (d *DB) List(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	col, scope, err := d.locate(collection)
	if err != nil {
		return nil, err
	}

	filter, err := buildFilter(scope, q)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(buildSort(q.Orders))
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "find in %s", collection)
	}
	defer cur.Close(ctx) // nolint: errcheck

	var raws []bson.M
	if err = cur.All(ctx, &raws); err != nil {
		return nil, errors.Wrapf(err, "decode %s", collection)
	}

	docs := make([]docstore.Document, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, toDocument(raw))
	}

	return docs, nil
}

// Create implements docstore.Store
func (d *DB) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	col, scope, err := d.locate(collection)
	if err != nil {
		return "", err
	}

	id := gutils.UUID7()
	fields, stamps := splitTimestamps(data)
	for _, e := range scope {
		fields[e.Key] = e.Value
	}

	update := bson.M{}
	if len(fields) > 0 {
		update["$setOnInsert"] = fields
	}
	if len(stamps) > 0 {
		update["$currentDate"] = stamps
	}

	if _, err = col.UpdateOne(ctx, bson.D{{Key: fieldID, Value: id}}, update,
		options.Update().SetUpsert(true)); err != nil {
		return "", errors.Wrapf(err, "create in %s", collection)
	}

	return id, nil
}

// Set implements docstore.Store.
// The replacement runs as an update pipeline so server timestamps
// resolve to $$NOW on the server.
func (d *DB) Set(ctx context.Context, collection, id string, data map[string]any) error {
	col, scope, err := d.locate(collection)
	if err != nil {
		return err
	}

	replacement := bson.M{fieldID: bson.M{"$literal": id}}
	for _, e := range scope {
		replacement[e.Key] = bson.M{"$literal": e.Value}
	}
	for k, v := range data {
		if docstore.IsServerTimestamp(v) {
			replacement[k] = "$$NOW"
			continue
		}
		replacement[k] = bson.M{"$literal": v}
	}

	pipeline := mongo.Pipeline{{{Key: "$replaceWith", Value: replacement}}}
	if _, err = col.UpdateOne(ctx, byID(scope, id), pipeline,
		options.Update().SetUpsert(true)); err != nil {
		return errors.Wrapf(err, "set %s/%s", collection, id)
	}

	return nil
}

// Update implements docstore.Store
func (d *DB) Update(ctx context.Context, collection, id string, data map[string]any) error {
	col, scope, err := d.locate(collection)
	if err != nil {
		return err
	}

	fields, stamps := splitTimestamps(data)
	update := bson.M{}
	if len(fields) > 0 {
		update["$set"] = fields
	}
	if len(stamps) > 0 {
		update["$currentDate"] = stamps
	}
	if len(update) == 0 {
		return nil
	}

	ret, err := col.UpdateOne(ctx, byID(scope, id), update)
	if err != nil {
		return errors.Wrapf(err, "update %s/%s", collection, id)
	}
	if ret.MatchedCount == 0 {
		return errors.Wrapf(docstore.ErrNotFound, "%s/%s", collection, id)
	}

	return nil
}

// Delete implements docstore.Store
func (d *DB) Delete(ctx context.Context, collection, id string) error {
	col, scope, err := d.locate(collection)
	if err != nil {
		return err
	}

	ret, err := col.DeleteOne(ctx, byID(scope, id))
	if err != nil {
		return errors.Wrapf(err, "delete %s/%s", collection, id)
	}
	if ret.DeletedCount == 0 {
		return errors.Wrapf(docstore.ErrNotFound, "%s/%s", collection, id)
	}

	return nil
}

// Increment implements docstore.Store
func (d *DB) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	col, scope, err := d.locate(collection)
	if err != nil {
		return err
	}

	ret, err := col.UpdateOne(ctx, byID(scope, id), bson.M{"$inc": bson.M{field: delta}})
	if err != nil {
		return errors.Wrapf(err, "increment %s/%s.%s", collection, id, field)
	}
	if ret.MatchedCount == 0 {
		return errors.Wrapf(docstore.ErrNotFound, "%s/%s", collection, id)
	}

	return nil
}

func splitTimestamps(data map[string]any) (fields bson.M, stamps bson.M) {
	fields, stamps = bson.M{}, bson.M{}
	for k, v := range data {
		if docstore.IsServerTimestamp(v) {
			stamps[k] = true
			continue
		}
		fields[k] = v
	}

	return fields, stamps
}

func mongoField(field string) string {
	if field == docstore.DocumentID {
		return fieldID
	}
	return field
}

func buildSort(orders []docstore.Order) bson.D {
	sort := bson.D{}
	for _, o := range orders {
		dir := 1
		if o.Dir == docstore.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: mongoField(o.Field), Value: dir})
	}

	return sort
}

// buildFilter combines equality filters with a keyset condition for
// StartAfter. For orders (a desc, b asc) and cursor (x, y) the keyset is
// `a < x OR (a == x AND b > y)`.
func buildFilter(scope bson.D, q docstore.Query) (bson.D, error) {
	if len(q.StartAfter) > len(q.Orders) {
		return nil, errors.Errorf("start after got %d values for %d orders",
			len(q.StartAfter), len(q.Orders))
	}

	filter := append(bson.D{}, scope...)
	for _, f := range q.Filters {
		filter = append(filter, bson.E{Key: mongoField(f.Field), Value: f.Value})
	}

	if len(q.StartAfter) == 0 {
		return filter, nil
	}

	var branches bson.A
	for i := range q.StartAfter {
		branch := bson.D{}
		for j := 0; j < i; j++ {
			branch = append(branch, bson.E{Key: mongoField(q.Orders[j].Field), Value: q.StartAfter[j]})
		}

		op := "$gt"
		if q.Orders[i].Dir == docstore.Desc {
			op = "$lt"
		}
		branch = append(branch, bson.E{
			Key:   mongoField(q.Orders[i].Field),
			Value: bson.D{{Key: op, Value: q.StartAfter[i]}},
		})
		branches = append(branches, branch)
	}

	return append(filter, bson.E{Key: "$or", Value: branches}), nil
}

func toDocument(raw bson.M) *document {
	id, _ := raw[fieldID].(string)
	data := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == fieldID || k == fieldParent {
			continue
		}
		data[k] = normalize(v)
	}

	return &document{id: id, data: data}
}

// normalize turns driver specific types into plain values json understands
func normalize(v any) any {
	switch val := v.(type) {
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.D:
		return normalize(val.Map())
	case bson.M:
		return normalize(map[string]any(val))
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case primitive.A:
		out := make([]any, 0, len(val))
		for _, item := range val {
			out = append(out, normalize(item))
		}
		return out
	case time.Time:
		return val.UTC()
	default:
		return v
	}
}
