package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"esmrebuild/indexer"
	"esmrebuild/models"

	"github.com/blevesearch/bleve/v2"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// newIndex is swapped in tests to fail index creation
var newIndex = bleve.New

// TypeField is the document field bleve reads to pick a type mapping
const TypeField = "_type"

// IndexStore keeps bleve indexes on local disk and implements indexer.Backend
type IndexStore struct {
	indexes    map[string]bleve.Index
	configs    map[string]*models.IndexConfig
	mu         sync.RWMutex
	dataDir    string
	configFile string
	logger     *zap.Logger
}

var _ indexer.Backend = (*IndexStore)(nil)

// Open opens the store rooted at dataDir, reopening every index listed in the catalog
func Open(dataDir string, logger *zap.Logger) (*IndexStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &IndexStore{
		indexes:    make(map[string]bleve.Index),
		configs:    make(map[string]*models.IndexConfig),
		dataDir:    dataDir,
		configFile: filepath.Join(dataDir, "configs.json"),
		logger:     logger,
	}
	if err := s.loadConfigs(); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// Close closes every open index
func (s *IndexStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for name, index := range s.indexes {
		if err := index.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close index %s: %w", name, err)
		}
	}
	s.indexes = make(map[string]bleve.Index)
	return firstErr
}

// IndexExists reports whether the catalog holds index
func (s *IndexStore) IndexExists(_ context.Context, index string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.indexes[index]
	return exists, nil
}

// CreateIndex creates an empty index with the default mapping
func (s *IndexStore) CreateIndex(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.indexes[name]; exists {
		return fmt.Errorf("index %s already exists", name)
	}

	config := &models.IndexConfig{Name: name}
	index, err := s.createNewIndex(config)
	if err != nil {
		return err
	}

	s.indexes[name] = index
	s.configs[name] = config
	return s.saveConfigs()
}

// DeleteIndex closes the index and removes it from disk
func (s *IndexStore) DeleteIndex(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, exists := s.indexes[name]
	if !exists {
		return fmt.Errorf("index %s not found", name)
	}

	if err := index.Close(); err != nil {
		return fmt.Errorf("failed to close index: %w", err)
	}
	if err := os.RemoveAll(s.indexPath(name)); err != nil {
		return fmt.Errorf("failed to delete index directory: %w", err)
	}

	delete(s.indexes, name)
	delete(s.configs, name)
	return s.saveConfigs()
}

// PutMapping adds the mapping of docType to the index. Bleve mappings are
// fixed at creation, so the index is rebuilt, which is only allowed while it is empty.
func (s *IndexStore) PutMapping(_ context.Context, name, docType string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, exists := s.indexes[name]
	if !exists {
		return fmt.Errorf("index %s not found", name)
	}

	count, err := index.DocCount()
	if err != nil {
		return fmt.Errorf("failed to count documents: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("index %s holds %d documents, mappings can only change on an empty index", name, count)
	}

	config := &models.IndexConfig{
		Name:     name,
		Mappings: make(map[string]json.RawMessage, len(s.configs[name].Mappings)+1),
	}
	for t, m := range s.configs[name].Mappings {
		config.Mappings[t] = m
	}
	config.Mappings[docType] = json.RawMessage(body)

	// validate before touching the existing index
	if _, err := buildIndexMapping(config.Mappings); err != nil {
		return fmt.Errorf("invalid mapping for %s: %w", docType, err)
	}

	if err := index.Close(); err != nil {
		return fmt.Errorf("failed to close index: %w", err)
	}
	delete(s.indexes, name)

	rebuilt, err := s.createNewIndex(config)
	if err != nil {
		// the old index is closed and possibly cleared, so it leaves the catalog
		delete(s.configs, name)
		if saveErr := s.saveConfigs(); saveErr != nil {
			s.logger.Warn("Failed to save index catalog", zap.String("index", name), zap.Error(saveErr))
		}
		return err
	}

	s.indexes[name] = rebuilt
	s.configs[name] = config
	s.logger.Debug("Index rebuilt with new mapping",
		zap.String("index", name),
		zap.String("type", docType))

	return s.saveConfigs()
}

// GetMapping returns the applied mappings keyed by document type
func (s *IndexStore) GetMapping(_ context.Context, name string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	config, exists := s.configs[name]
	if !exists || s.indexes[name] == nil {
		return nil, fmt.Errorf("index %s not found", name)
	}

	mappings := make(map[string]any, len(config.Mappings))
	for docType, raw := range config.Mappings {
		var body any
		if err := sonic.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("failed to decode mapping %s: %w", docType, err)
		}
		mappings[docType] = body
	}
	return mappings, nil
}

// Bulk indexes all actions, one bleve batch per target index
func (s *IndexStore) Bulk(ctx context.Context, actions []models.IndexAction) (indexer.BulkResult, error) {
	if err := ctx.Err(); err != nil {
		return indexer.BulkResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var result indexer.BulkResult
	batches := make(map[string]*bleve.Batch)
	pending := make(map[string]int)

	for _, action := range actions {
		index, exists := s.indexes[action.Index]
		if !exists {
			result.Failed = append(result.Failed, indexer.BulkFailure{
				Index:  action.Index,
				ID:     action.ID,
				Status: http.StatusNotFound,
				Type:   "index_not_found_exception",
				Reason: fmt.Sprintf("no such index [%s]", action.Index),
			})
			continue
		}

		batch, ok := batches[action.Index]
		if !ok {
			batch = index.NewBatch()
			batches[action.Index] = batch
		}

		doc := make(map[string]any, len(action.Source)+1)
		for k, v := range action.Source {
			doc[k] = v
		}
		if action.Type != "" {
			doc[TypeField] = action.Type
		}

		if err := batch.Index(action.ID, doc); err != nil {
			result.Failed = append(result.Failed, indexer.BulkFailure{
				Index:  action.Index,
				ID:     action.ID,
				Status: http.StatusBadRequest,
				Type:   "document_parsing_exception",
				Reason: err.Error(),
			})
			continue
		}
		pending[action.Index]++
	}

	// commit in a stable order
	names := make([]string, 0, len(batches))
	for name := range batches {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.indexes[name].Batch(batches[name]); err != nil {
			return result, fmt.Errorf("failed to commit batch to %s: %w", name, err)
		}
		result.Indexed += pending[name]
	}

	return result, nil
}

// Count returns the number of documents in an index
func (s *IndexStore) Count(name string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index, exists := s.indexes[name]
	if !exists {
		return 0, fmt.Errorf("index %s not found", name)
	}
	return index.DocCount()
}

func (s *IndexStore) indexPath(name string) string {
	return filepath.Join(s.dataDir, name)
}

// createNewIndex creates a fresh bleve index for config, replacing whatever is on disk
func (s *IndexStore) createNewIndex(config *models.IndexConfig) (bleve.Index, error) {
	indexMapping, err := buildIndexMapping(config.Mappings)
	if err != nil {
		return nil, err
	}

	indexPath := s.indexPath(config.Name)
	if err := os.RemoveAll(indexPath); err != nil {
		return nil, fmt.Errorf("failed to clear index directory: %w", err)
	}

	index, err := newIndex(indexPath, indexMapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	return index, nil
}

// loadConfigs loads the catalog and opens its indexes, recreating missing or unreadable ones
func (s *IndexStore) loadConfigs() error {
	data, err := os.ReadFile(s.configFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read index catalog: %w", err)
	}

	var configs map[string]*models.IndexConfig
	if err := sonic.Unmarshal(data, &configs); err != nil {
		return fmt.Errorf("failed to decode index catalog: %w", err)
	}

	for name, config := range configs {
		config.Name = name

		index, err := bleve.Open(s.indexPath(name))
		if err != nil {
			s.logger.Warn("Recreating unreadable index",
				zap.String("index", name),
				zap.Error(err))

			index, err = s.createNewIndex(config)
			if err != nil {
				return err
			}
		}

		s.indexes[name] = index
		s.configs[name] = config
	}

	return nil
}

// saveConfigs writes the catalog to disk
func (s *IndexStore) saveConfigs() error {
	data, err := sonic.ConfigDefault.MarshalIndent(s.configs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode index catalog: %w", err)
	}

	if err := os.WriteFile(s.configFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write index catalog: %w", err)
	}
	return nil
}
