package main

import (
	"context"
	"path/filepath"
	"testing"

	"esmrebuild/config"
	"esmrebuild/elastic"
	"esmrebuild/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenBackend_Local(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "indexes")

	backend, closeBackend, err := openBackend("file://"+dir, &config.Config{}, zap.NewNop())
	require.NoError(t, err)
	defer closeBackend()

	require.IsType(t, &store.IndexStore{}, backend)
	require.NoError(t, backend.CreateIndex(context.Background(), "logs"))
	exists, err := backend.IndexExists(context.Background(), "logs")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestOpenBackend_Elasticsearch(t *testing.T) {
	backend, closeBackend, err := openBackend("localhost", &config.Config{ESCompressionLevel: 1}, zap.NewNop())
	require.NoError(t, err)
	defer closeBackend()
	assert.IsType(t, &elastic.Backend{}, backend)

	_, _, err = openBackend("localhost", &config.Config{ESCompressionLevel: 42}, zap.NewNop())
	assert.Error(t, err)
}

func TestRunCmd_Options(t *testing.T) {
	cmd := RunCmd{
		Push:     true,
		Node:     "es01",
		Index:    "logs",
		DocTypes: []string{"events"},
		Source:   "postgres",
		Host:     "postgres://localhost/app",
		DB:       "public",
		Size:     100,
	}

	opts := cmd.options(&config.Config{PGMaxConns: 6})
	assert.Equal(t, "public", opts.Database)
	assert.Equal(t, 100, opts.PageSize)
	assert.Equal(t, int32(6), opts.MaxConns)
	assert.NoError(t, opts.Validate([]string{"postgres"}))
}
