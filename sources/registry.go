package sources

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Config holds what a factory needs to open a source
type Config struct {
	Type string
	// Host is a server address, a DSN or a directory depending on Type
	Host     string
	Database string
	// PrimaryKey overrides the default primary key of the source type
	PrimaryKey string
	MaxConns   int32
}

// Factory opens a Store from configuration
type Factory func(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error)

// ErrUnknownType is returned when no factory is registered for a source type
var ErrUnknownType = errors.New("unknown source type")

// Registry maps source types to their factories
type Registry struct {
	factories map[string]Factory
	logger    *zap.Logger
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		logger:    logger,
	}
}

// Register registers a factory for a given source type
func (r *Registry) Register(sourceType string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[sourceType] = factory
}

// Has reports whether sourceType has a factory
func (r *Registry) Has(sourceType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[sourceType]
	return ok
}

// Types returns the registered source types, sorted
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Open creates a Store with the factory registered for cfg.Type
func (r *Registry) Open(ctx context.Context, cfg Config) (Store, error) {
	r.mu.RLock()
	factory, ok := r.factories[cfg.Type]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, cfg.Type)
	}

	store, err := factory(ctx, cfg, r.logger.With(zap.String("source", cfg.Type)))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s source: %w", cfg.Type, err)
	}

	return store, nil
}
