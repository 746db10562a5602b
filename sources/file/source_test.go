package file

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"esmrebuild/formats"
	"esmrebuild/sources"

	"github.com/hashicorp/go-msgpack/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0644))
}

func TestFetchPage_JSONLines(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "events.jsonl", []byte(
		`{"_id":"c","msg":"third"}`+"\n"+
			`{"_id":"a","msg":"first"}`+"\n"+
			`{"_id":"b","msg":"second"}`+"\n"))

	s, err := New(dir, "", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "_id", s.PrimaryKey())

	docs, err := s.FetchPage(context.Background(), "events", 0, 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0]["_id"])
	assert.Equal(t, "b", docs[1]["_id"])

	docs, err = s.FetchPage(context.Background(), "events", 2, 2)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "third", docs[0]["msg"])

	docs, err = s.FetchPage(context.Background(), "events", 3, 2)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestFetchPage_Msgpack(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	require.NoError(t, codec.NewEncoder(&buf, formats.Handle()).Encode([]map[string]any{
		{"id": "u2", "name": "bob"},
		{"id": "u1", "name": "alice"},
	}))
	writeFile(t, dir, "users.msgpack", buf.Bytes())

	store, err := Open(context.Background(), sources.Config{Type: Type, Host: dir, PrimaryKey: "id"}, zap.NewNop())
	require.NoError(t, err)

	actions, err := sources.FetchAllAsActions(context.Background(), store, "people", "users", 500, false, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "u1", actions[0].ID)
	assert.Equal(t, map[string]any{"name": "alice"}, actions[0].Source)
}

func TestFetchPage_PagesCoverCollection(t *testing.T) {
	dir := t.TempDir()
	var lines []byte
	for _, id := range []string{"g", "c", "e", "a", "f", "b", "d"} {
		lines = append(lines, []byte(`{"_id":"`+id+`"}`+"\n")...)
	}
	writeFile(t, dir, "events.ndjson", lines)

	s, err := New(dir, "", zap.NewNop())
	require.NoError(t, err)

	var ids []string
	var sizes []int
	for page, err := range sources.Pages(context.Background(), s, "events", 3) {
		require.NoError(t, err)
		sizes = append(sizes, len(page.Documents))
		for _, doc := range page.Documents {
			ids = append(ids, doc["_id"].(string))
		}
	}

	assert.Equal(t, []int{3, 3, 1}, sizes)
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g"}, ids)
}

func TestFetchPage_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.json", []byte("{not json\n"))

	s, err := New(dir, "", zap.NewNop())
	require.NoError(t, err)

	_, err = s.FetchPage(context.Background(), "missing", 0, 10)
	assert.ErrorIs(t, err, ErrCollectionNotFound)

	_, err = s.FetchPage(context.Background(), "broken", 0, 10)
	assert.Error(t, err)

	_, err = s.FetchPage(context.Background(), "../etc", 0, 10)
	assert.ErrorContains(t, err, "invalid collection name")

	_, err = New(filepath.Join(dir, "broken.json"), "", zap.NewNop())
	assert.ErrorContains(t, err, "not a directory")

	_, err = New(filepath.Join(dir, "nope"), "", zap.NewNop())
	assert.Error(t, err)
}
