package indexer

import (
	"context"
	"fmt"

	"esmrebuild/models"
)

// Backend is the set of remote calls a search engine has to answer.
// Implementations report what the engine said; postconditions are checked by Client.
type Backend interface {
	// IndexExists reports whether the named index exists
	IndexExists(ctx context.Context, index string) (bool, error)

	// CreateIndex issues the create call for the named index
	CreateIndex(ctx context.Context, index string) error

	// DeleteIndex issues the delete call for the named index
	DeleteIndex(ctx context.Context, index string) error

	// PutMapping sends body as the mapping of docType on index
	PutMapping(ctx context.Context, index, docType string, body []byte) error

	// GetMapping returns the mappings object currently held by index
	GetMapping(ctx context.Context, index string) (map[string]any, error)

	// Bulk writes all actions in a single request
	Bulk(ctx context.Context, actions []models.IndexAction) (BulkResult, error)
}

// BulkResult summarises a bulk request
type BulkResult struct {
	Indexed int
	Failed  []BulkFailure
}

// BulkFailure describes one rejected action
type BulkFailure struct {
	Index  string
	ID     string
	Status int
	Type   string
	Reason string
}

func (f BulkFailure) Error() string {
	return fmt.Sprintf("[%d] %s/%s: %s: %s", f.Status, f.Index, f.ID, f.Type, f.Reason)
}
