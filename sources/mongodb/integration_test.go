//go:build integration

package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"

	"esmrebuild/sources"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Requires a MongoDB server at ESM_TEST_MONGO (default localhost:27017)
func TestOpenAndPage(t *testing.T) {
	ctx := context.Background()
	host := os.Getenv("ESM_TEST_MONGO")
	if host == "" {
		host = "localhost:27017"
	}
	db := fmt.Sprintf("esm_test_%d", os.Getpid())

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(ConnectionURI(host)))
	require.NoError(t, err)
	t.Cleanup(func() {
		client.Database(db).Drop(ctx)
		client.Disconnect(ctx)
	})

	var docs []any
	for i := range 7 {
		docs = append(docs, bson.D{{Key: "_id", Value: fmt.Sprintf("doc-%d", i)}, {Key: "n", Value: i}})
	}
	_, err = client.Database(db).Collection("events").InsertMany(ctx, docs)
	require.NoError(t, err)

	store, err := Open(ctx, sources.Config{Type: Type, Host: host, Database: db}, zap.NewNop())
	require.NoError(t, err)
	defer store.Close(ctx)

	var sizes []int
	for page, err := range sources.Pages(ctx, store, "events", 3) {
		require.NoError(t, err)
		sizes = append(sizes, len(page.Documents))
	}
	require.Equal(t, []int{3, 3, 1}, sizes)
}
