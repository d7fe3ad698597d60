package mongo

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Laisky/laisky-portfolio/library/docstore"
)

func stubDriver(t *testing.T, pingErr error) (connects, disconnects *int32) {
	t.Helper()

	oldConnect, oldPing, oldDisconnect := connectMongo, pingMongo, disconnectMongo
	connects, disconnects = new(int32), new(int32)

	connectMongo = func(ctx context.Context, clientOpts *options.ClientOptions) (*mongo.Client, error) {
		atomic.AddInt32(connects, 1)
		cli, err := mongo.NewClient(options.Client().ApplyURI("mongodb://example.com"))
		if err != nil {
			return nil, errors.Wrap(err, "new client")
		}
		return cli, nil
	}
	pingMongo = func(ctx context.Context, cli *mongo.Client) error {
		return pingErr
	}
	disconnectMongo = func(ctx context.Context, cli *mongo.Client) error {
		atomic.AddInt32(disconnects, 1)
		return nil
	}

	t.Cleanup(func() {
		connectMongo, pingMongo, disconnectMongo = oldConnect, oldPing, oldDisconnect
	})

	return connects, disconnects
}

func TestNewDBAndClose(t *testing.T) {
	connects, disconnects := stubDriver(t, nil)
	ctx := context.Background()

	db, err := NewDB(ctx, DialInfo{Addr: "localhost:27017", DBName: "portfolio"})
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(connects))
	require.Equal(t, "portfolio", db.Database().Name())

	require.NoError(t, db.Close(ctx))
	require.NoError(t, db.Close(ctx))
	require.Equal(t, int32(1), atomic.LoadInt32(disconnects))
}

func TestNewDBPingFailure(t *testing.T) {
	_, disconnects := stubDriver(t, errors.New("unreachable"))

	_, err := NewDB(context.Background(), DialInfo{Addr: "localhost:27017", DBName: "portfolio"})
	require.ErrorContains(t, err, "ping db")
	require.Equal(t, int32(1), atomic.LoadInt32(disconnects))
}

func TestBuildMongoURI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		info DialInfo
		want string
	}{
		{
			name: "anonymous",
			info: DialInfo{Addr: "db:27017", DBName: "portfolio"},
			want: "mongodb://db:27017/portfolio",
		},
		{
			name: "with credentials and auth db",
			info: DialInfo{Addr: "db:27017", DBName: "portfolio", User: "u", Pwd: "p@ss", AuthDB: "admin"},
			want: "mongodb://u:p%40ss@db:27017/portfolio?authSource=admin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, buildMongoURI(tt.info))
		})
	}
}

func TestBuildFilterKeyset(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	scope := bson.D{{Key: fieldParent, Value: "posts/p1"}}
	filter, err := buildFilter(scope, docstore.Query{
		Filters: []docstore.Filter{{Field: "published", Value: true}},
		Orders: []docstore.Order{
			{Field: "createdAt", Dir: docstore.Desc},
			{Field: docstore.DocumentID, Dir: docstore.Asc},
		},
		StartAfter: []any{ts, "abc"},
	})
	require.NoError(t, err)

	want := bson.D{
		{Key: fieldParent, Value: "posts/p1"},
		{Key: "published", Value: true},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "createdAt", Value: bson.D{{Key: "$lt", Value: ts}}}},
			bson.D{
				{Key: "createdAt", Value: ts},
				{Key: fieldID, Value: bson.D{{Key: "$gt", Value: "abc"}}},
			},
		}},
	}
	require.Equal(t, want, filter)

	_, err = buildFilter(nil, docstore.Query{StartAfter: []any{1}})
	require.Error(t, err)
}

func TestBuildSort(t *testing.T) {
	t.Parallel()

	got := buildSort([]docstore.Order{
		{Field: "createdAt", Dir: docstore.Desc},
		{Field: docstore.DocumentID},
	})
	require.Equal(t, bson.D{{Key: "createdAt", Value: -1}, {Key: fieldID, Value: 1}}, got)
}

func TestToDocumentNormalizes(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	doc := toDocument(bson.M{
		fieldID:     "p1",
		fieldParent: "posts/x",
		"title":     "hello",
		"createdAt": primitive.NewDateTimeFromTime(ts),
		"tags":      primitive.A{"go", "gin"},
		"contact":   primitive.D{{Key: "email", Value: "a@b.c"}},
	})
	require.Equal(t, "p1", doc.ID())

	var got struct {
		Title     string    `json:"title"`
		CreatedAt time.Time `json:"createdAt"`
		Tags      []string  `json:"tags"`
		Contact   struct {
			Email string `json:"email"`
		} `json:"contact"`
	}
	require.NoError(t, doc.DataTo(&got))
	require.Equal(t, "hello", got.Title)
	require.True(t, got.CreatedAt.Equal(ts))
	require.Equal(t, []string{"go", "gin"}, got.Tags)
	require.Equal(t, "a@b.c", got.Contact.Email)
}

func TestSplitTimestamps(t *testing.T) {
	t.Parallel()

	fields, stamps := splitTimestamps(map[string]any{
		"title":     "x",
		"updatedAt": docstore.ServerTimestamp,
	})
	require.Equal(t, bson.M{"title": "x"}, fields)
	require.Equal(t, bson.M{"updatedAt": true}, stamps)
}
