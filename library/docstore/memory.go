package docstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	"github.com/google/uuid"
)

// Memory is an in-process Store for tests and local development.
// It mirrors the firestore semantics the services rely on.
type Memory struct {
	mu    sync.RWMutex
	cols  map[string]map[string]map[string]any
	clock func() time.Time
}

// MemoryOption configures Memory
type MemoryOption func(*Memory)

// WithClock overrides the clock used to resolve ServerTimestamp
func WithClock(clock func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.clock = clock
	}
}

// NewMemory create an empty in-memory store
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		cols:  map[string]map[string]map[string]any{},
		clock: func() time.Time { return gutils.Clock.GetUTCNow() },
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

type memoryDoc struct {
	id   string
	data map[string]any
}

func (d *memoryDoc) ID() string { return d.id }

func (d *memoryDoc) DataTo(dst any) error {
	return DecodeJSON(d.data, dst)
}

// Get implements Store
func (m *Memory) Get(_ context.Context, collection, id string) (Document, error) {
	if _, _, err := SplitCollection(collection); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.cols[collection][id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%s/%s", collection, id)
	}

	return &memoryDoc{id: id, data: copyData(data)}, nil
}

// List implements Store
func (m *Memory) List(ctx context.Context, collection string, q Query) ([]Document, error) {
	if _, _, err := SplitCollection(collection); err != nil {
		return nil, err
	}
	if len(q.StartAfter) > len(q.Orders) {
		return nil, errors.Errorf("start after got %d values for %d orders",
			len(q.StartAfter), len(q.Orders))
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	m.mu.RLock()
	var docs []*memoryDoc
	for id, data := range m.cols[collection] {
		if matchFilters(id, data, q.Filters) {
			docs = append(docs, &memoryDoc{id: id, data: copyData(data)})
		}
	}
	m.mu.RUnlock()

	orders := q.Orders
	sort.SliceStable(docs, func(i, j int) bool {
		if c := compareByOrders(docs[i], docs[j], orders); c != 0 {
			return c < 0
		}
		return docs[i].id < docs[j].id
	})

	if len(q.StartAfter) > 0 {
		cut := len(docs)
		for i, d := range docs {
			if compareToCursor(d, orders[:len(q.StartAfter)], q.StartAfter) > 0 {
				cut = i
				break
			}
		}
		docs = docs[cut:]
	}

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}

	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, d)
	}

	return out, nil
}

// Create implements Store
func (m *Memory) Create(_ context.Context, collection string, data map[string]any) (string, error) {
	if _, _, err := SplitCollection(collection); err != nil {
		return "", err
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")

	m.mu.Lock()
	defer m.mu.Unlock()

	col := m.collection(collection)
	col[id] = m.resolve(data)
	return id, nil
}

// Set implements Store
func (m *Memory) Set(_ context.Context, collection, id string, data map[string]any) error {
	if _, _, err := SplitCollection(collection); err != nil {
		return err
	}
	if id == "" {
		return errors.New("empty document id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.collection(collection)[id] = m.resolve(data)
	return nil
}

// Update implements Store
func (m *Memory) Update(_ context.Context, collection, id string, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.cols[collection][id]
	if !ok {
		return errors.Wrapf(ErrNotFound, "%s/%s", collection, id)
	}

	for k, v := range m.resolve(data) {
		cur[k] = v
	}

	return nil
}

// Delete implements Store
func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cols[collection][id]; !ok {
		return errors.Wrapf(ErrNotFound, "%s/%s", collection, id)
	}

	delete(m.cols[collection], id)
	return nil
}

// Increment implements Store
func (m *Memory) Increment(_ context.Context, collection, id, field string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.cols[collection][id]
	if !ok {
		return errors.Wrapf(ErrNotFound, "%s/%s", collection, id)
	}

	switch v := normalizeValue(cur[field]).(type) {
	case nil:
		cur[field] = delta
	case int64:
		cur[field] = v + delta
	case float64:
		cur[field] = v + float64(delta)
	default:
		return errors.Errorf("field %q is %T, not a number", field, v)
	}

	return nil
}

// Close implements Store
func (m *Memory) Close(context.Context) error {
	return nil
}

func (m *Memory) collection(path string) map[string]map[string]any {
	col, ok := m.cols[path]
	if !ok {
		col = map[string]map[string]any{}
		m.cols[path] = col
	}

	return col
}

// resolve copies data, replacing sentinels and normalizing integers
func (m *Memory) resolve(data map[string]any) map[string]any {
	now := m.clock().UTC()
	out := make(map[string]any, len(data))
	for k, v := range data {
		if IsServerTimestamp(v) {
			out[k] = now
			continue
		}
		out[k] = normalizeValue(v)
	}

	return out
}

func copyData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func normalizeValue(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case uint32:
		return int64(n)
	case float32:
		return float64(n)
	case time.Time:
		return n.UTC()
	default:
		return v
	}
}

func fieldValue(id string, data map[string]any, field string) any {
	if field == DocumentID {
		return id
	}
	return data[field]
}

func matchFilters(id string, data map[string]any, filters []Filter) bool {
	for _, f := range filters {
		if compareValues(fieldValue(id, data, f.Field), normalizeValue(f.Value)) != 0 {
			return false
		}
	}
	return true
}

func compareByOrders(a, b *memoryDoc, orders []Order) int {
	for _, o := range orders {
		c := compareValues(fieldValue(a.id, a.data, o.Field), fieldValue(b.id, b.data, o.Field))
		if o.Dir == Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

func compareToCursor(d *memoryDoc, orders []Order, cursor []any) int {
	for i, o := range orders {
		c := compareValues(fieldValue(d.id, d.data, o.Field), normalizeValue(cursor[i]))
		if o.Dir == Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// compareValues orders values the way firestore does across types:
// null < bool < number < time < string
func compareValues(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return cmpInt(ra, rb)
	}

	switch av := a.(type) {
	case nil:
		return 0
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case int64, float64:
		af, bf := toFloat(a), toFloat(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	case time.Time:
		return av.Compare(b.(time.Time))
	case string:
		return strings.Compare(av, b.(string))
	default:
		return 0
	}
}

func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int64, float64:
		return 2
	case time.Time:
		return 3
	case string:
		return 4
	default:
		return 5
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
