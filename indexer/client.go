package indexer

import (
	"context"
	"fmt"

	"esmrebuild/models"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// Client manages a single index on a Backend and verifies that every
// state change is visible before reporting success.
type Client struct {
	backend Backend
	index   string
	logger  *zap.Logger
}

// NewClient creates a Client bound to index
func NewClient(backend Backend, index string, logger *zap.Logger) *Client {
	return &Client{
		backend: backend,
		index:   index,
		logger:  logger.With(zap.String("index", index)),
	}
}

// Index returns the name of the managed index
func (c *Client) Index() string {
	return c.index
}

// CreateIndex creates the index and confirms it exists afterwards
func (c *Client) CreateIndex(ctx context.Context) error {
	if err := c.backend.CreateIndex(ctx, c.index); err != nil {
		return fmt.Errorf("creating index %s: %w", c.index, err)
	}

	exists, err := c.backend.IndexExists(ctx, c.index)
	if err != nil {
		return fmt.Errorf("checking index %s: %w", c.index, err)
	}
	if !exists {
		return fmt.Errorf("%s: %w", c.index, ErrIndexNotCreated)
	}

	c.logger.Debug("Index created")
	return nil
}

// DeleteIndex deletes the index and confirms it is gone afterwards.
// A missing index is an error and no delete call is made.
func (c *Client) DeleteIndex(ctx context.Context) error {
	exists, err := c.backend.IndexExists(ctx, c.index)
	if err != nil {
		return fmt.Errorf("checking index %s: %w", c.index, err)
	}
	if !exists {
		return fmt.Errorf("%s: %w", c.index, ErrIndexNotFound)
	}

	if err := c.backend.DeleteIndex(ctx, c.index); err != nil {
		return fmt.Errorf("deleting index %s: %w", c.index, err)
	}

	exists, err = c.backend.IndexExists(ctx, c.index)
	if err != nil {
		return fmt.Errorf("checking index %s: %w", c.index, err)
	}
	if exists {
		return fmt.Errorf("%s: %w", c.index, ErrIndexNotDeleted)
	}

	c.logger.Debug("Index deleted")
	return nil
}

// ApplyMapping loads the mapping file at path, sends it for docType and
// returns the mappings the engine reports afterwards.
// File errors and key mismatches are returned before any remote call.
func (c *Client) ApplyMapping(ctx context.Context, path, docType string) (map[string]any, error) {
	body, err := LoadMapping(path, docType)
	if err != nil {
		return nil, err
	}

	if err := c.backend.PutMapping(ctx, c.index, docType, body); err != nil {
		return nil, fmt.Errorf("adding mapping for %s: %w", docType, err)
	}

	mappings, err := c.backend.GetMapping(ctx, c.index)
	if err != nil {
		return nil, fmt.Errorf("reading mappings of %s: %w", c.index, err)
	}

	c.logger.Debug("Mapping applied",
		zap.String("doc_type", docType),
		zap.Int("mappings", len(mappings)))

	return mappings, nil
}

// BulkInsert writes all actions in one bulk request.
// Any rejected document makes the whole call fail.
func (c *Client) BulkInsert(ctx context.Context, actions []models.IndexAction) (BulkResult, error) {
	if len(actions) == 0 {
		return BulkResult{}, nil
	}

	result, err := c.backend.Bulk(ctx, actions)
	if err != nil {
		return result, fmt.Errorf("bulk inserting documents: %w", err)
	}

	if len(result.Failed) > 0 {
		var errs *multierror.Error
		for _, f := range result.Failed {
			errs = multierror.Append(errs, f)
		}
		return result, fmt.Errorf("bulk inserting documents: %d of %d failed: %w",
			len(result.Failed), len(actions), errs.ErrorOrNil())
	}

	c.logger.Debug("Bulk insert completed", zap.Int("indexed", result.Indexed))
	return result, nil
}
