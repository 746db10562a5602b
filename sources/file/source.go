// Package file reads collections from exported files in a directory.
// A collection named c is read from <dir>/c.jsonl, c.ndjson, c.json, c.msgpack or c.mpk.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"esmrebuild/formats"
	"esmrebuild/models"
	"esmrebuild/sources"

	"go.uber.org/zap"
)

const (
	// Type is the source type name this package registers under
	Type = "file"

	DefaultPrimaryKey = "_id"
)

// ErrCollectionNotFound is returned when no export file exists for a collection
var ErrCollectionNotFound = errors.New("collection export not found")

// Source serves pages out of export files, decoding each file once
type Source struct {
	dir        string
	primaryKey string
	logger     *zap.Logger

	mu          sync.Mutex
	collections map[string][]models.SourceDocument
}

var _ sources.Store = (*Source)(nil)

// Open checks that cfg.Host is a directory. It satisfies sources.Factory.
func Open(_ context.Context, cfg sources.Config, logger *zap.Logger) (sources.Store, error) {
	return New(cfg.Host, cfg.PrimaryKey, logger)
}

// New creates a Source reading from dir
func New(dir, primaryKey string, logger *zap.Logger) (*Source, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open export directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("export path %s is not a directory", dir)
	}

	if primaryKey == "" {
		primaryKey = DefaultPrimaryKey
	}

	return &Source{
		dir:         dir,
		primaryKey:  primaryKey,
		logger:      logger,
		collections: make(map[string][]models.SourceDocument),
	}, nil
}

// FetchPage returns a slice of the collection sorted by primary key
func (s *Source) FetchPage(ctx context.Context, collection string, offset, limit int) ([]models.SourceDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs, err := s.load(collection)
	if err != nil {
		return nil, err
	}

	if offset >= len(docs) {
		return nil, nil
	}
	return docs[offset:min(offset+limit, len(docs))], nil
}

// PrimaryKey returns the sort and ID field
func (s *Source) PrimaryKey() string {
	return s.primaryKey
}

// Close drops the decoded collections
func (s *Source) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.collections)
	return nil
}

func (s *Source) load(collection string) ([]models.SourceDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if docs, ok := s.collections[collection]; ok {
		return docs, nil
	}

	path, err := s.find(collection)
	if err != nil {
		return nil, err
	}

	parser, err := formats.ForFile(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	docs, err := parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	slices.SortStableFunc(docs, func(a, b models.SourceDocument) int {
		return strings.Compare(models.FormatID(a[s.primaryKey]), models.FormatID(b[s.primaryKey]))
	})

	s.logger.Debug("Collection loaded",
		zap.String("collection", collection),
		zap.String("path", path),
		zap.Int("count", len(docs)))

	s.collections[collection] = docs
	return docs, nil
}

// find returns the first existing export file for collection
func (s *Source) find(collection string) (string, error) {
	if collection == "" || strings.ContainsAny(collection, `/\`) {
		return "", fmt.Errorf("invalid collection name %q", collection)
	}

	for _, ext := range formats.Extensions {
		path := filepath.Join(s.dir, collection+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: %s in %s", ErrCollectionNotFound, collection, s.dir)
}
