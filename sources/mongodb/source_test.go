package mongodb

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"esmrebuild/models"
	"esmrebuild/sources"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// fakeCollection applies skip and limit to pre-sorted documents and serves
// them through a real driver cursor
type fakeCollection struct {
	docs  []any
	calls []*options.FindOptions
	err   error
}

func (f *fakeCollection) Find(_ context.Context, _ any, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	if f.err != nil {
		return nil, f.err
	}
	o := opts[0]
	f.calls = append(f.calls, o)

	start := min(int(*o.Skip), len(f.docs))
	end := min(start+int(*o.Limit), len(f.docs))
	return mongo.NewCursorFromDocuments(f.docs[start:end], nil, nil)
}

func newFakeSource(coll *fakeCollection) *Source {
	return newFakeSource(coll)
}

func oid(t *testing.T, hex string) primitive.ObjectID {
	t.Helper()
	id, err := primitive.ObjectIDFromHex(hex)
	require.NoError(t, err)
	return id
}

func TestConnectionURI(t *testing.T) {
	assert.Equal(t, "mongodb://localhost", ConnectionURI(""))
	assert.Equal(t, "mongodb://db.internal:27017", ConnectionURI("db.internal:27017"))
	assert.Equal(t, "mongodb://u:p@h/?replicaSet=rs0", ConnectionURI("mongodb://u:p@h/?replicaSet=rs0"))
	assert.Equal(t, "mongodb+srv://cluster.example.net", ConnectionURI("mongodb+srv://cluster.example.net"))
}

func TestFetchPage(t *testing.T) {
	coll := &fakeCollection{}
	for i := range 7 {
		coll.docs = append(coll.docs, bson.D{
			{Key: "_id", Value: oid(t, fmt.Sprintf("64b7f0c2a1b2c3d4e5f6000%d", i))},
			{Key: "n", Value: int32(i)},
		})
	}
	s := newFakeSource(coll)
	assert.Equal(t, "_id", s.PrimaryKey())

	docs, err := s.FetchPage(context.Background(), "events", 3, 3)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60003", docs[0]["_id"])
	assert.Equal(t, int32(5), docs[2]["n"])

	require.Len(t, coll.calls, 1)
	assert.Equal(t, int64(3), *coll.calls[0].Skip)
	assert.Equal(t, int64(3), *coll.calls[0].Limit)
	assert.Equal(t, bson.D{{Key: "_id", Value: 1}}, coll.calls[0].Sort)

	docs, err = s.FetchPage(context.Background(), "events", 7, 3)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestFetchPage_Error(t *testing.T) {
	s := newFakeSource(&fakeCollection{err: errors.New("server selection timeout")})

	_, err := s.FetchPage(context.Background(), "events", 0, 10)
	assert.ErrorContains(t, err, "server selection timeout")
}

func TestPagesOverMongo(t *testing.T) {
	coll := &fakeCollection{}
	for i := range 7 {
		coll.docs = append(coll.docs, bson.D{{Key: "_id", Value: fmt.Sprintf("k%d", i)}, {Key: "v", Value: "x"}})
	}

	actions, err := sources.FetchAllAsActions(context.Background(), newFakeSource(coll), "logs", "events", 3, false, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, actions, 7)
	assert.Len(t, coll.calls, 3)

	for i, action := range actions {
		assert.Equal(t, fmt.Sprintf("k%d", i), action.ID)
		assert.Equal(t, map[string]any{"v": "x"}, action.Source)
	}
}

func TestConvertValue(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	dec, err := primitive.ParseDecimal128("12.50")
	require.NoError(t, err)

	coll := &fakeCollection{docs: []any{bson.D{
		{Key: "_id", Value: oid(t, "64b7f0c2a1b2c3d4e5f60001")},
		{Key: "created", Value: primitive.NewDateTimeFromTime(at)},
		{Key: "price", Value: dec},
		{Key: "tags", Value: bson.A{"a", "b"}},
		{Key: "owner", Value: bson.D{
			{Key: "ref", Value: oid(t, "64b7f0c2a1b2c3d4e5f60002")},
			{Key: "name", Value: "alice"},
		}},
		{Key: "missing", Value: nil},
	}}}

	docs, err := newFakeSource(coll).FetchPage(context.Background(), "orders", 0, 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, models.SourceDocument{
		"_id":     "64b7f0c2a1b2c3d4e5f60001",
		"created": "2024-01-02T03:04:05Z",
		"price":   "12.50",
		"tags":    []any{"a", "b"},
		"owner":   map[string]any{"ref": "64b7f0c2a1b2c3d4e5f60002", "name": "alice"},
		"missing": nil,
	}, docs[0])

	action, err := models.NewIndexAction("shop", "orders", "_id", docs[0])
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60001", action.ID)
}

func TestConvertValue_Scalars(t *testing.T) {
	assert.Equal(t, "abc", convertValue(primitive.Regex{Pattern: "abc", Options: "i"}))
	assert.Equal(t, []byte{1, 2}, convertValue(primitive.Binary{Data: []byte{1, 2}}))
	assert.Nil(t, convertValue(primitive.Undefined{}))
	assert.Equal(t, "1970-01-01T00:00:10Z", convertValue(primitive.Timestamp{T: 10}))
	assert.Equal(t, int64(9), convertValue(int64(9)))
}

func TestOpen_PingFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := sources.Config{
		Type:     Type,
		Host:     "127.0.0.1:1/?serverSelectionTimeoutMS=200&connectTimeoutMS=200",
		Database: "app",
	}
	store, err := Open(ctx, cfg, zap.NewNop())
	require.Error(t, err)
	assert.Nil(t, store)
	assert.Contains(t, err.Error(), "failed to ping MongoDB")
}

func TestOpen_MissingDatabase(t *testing.T) {
	_, err := Open(context.Background(), sources.Config{Type: Type, Host: "localhost"}, zap.NewNop())
	assert.Error(t, err)
}

func TestDoubleKeyID(t *testing.T) {
	coll := &fakeCollection{docs: []any{bson.D{{Key: "_id", Value: 1.0}, {Key: "name", Value: "a"}}}}
	s := newFakeSource(coll)

	docs, err := s.FetchPage(context.Background(), "events", 0, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	action, err := models.NewIndexAction("logs", "events", DefaultPrimaryKey, docs[0])
	require.NoError(t, err)
	assert.Equal(t, "1", action.ID)
}
