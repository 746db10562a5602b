// Package sources reads documents out of a source database page by page.
package sources

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"esmrebuild/models"

	"go.uber.org/zap"
)

// Store is a paginated, read-only view over the collections of a source database
type Store interface {
	// FetchPage returns up to limit documents of collection ordered by
	// primary key ascending, skipping the first offset documents.
	FetchPage(ctx context.Context, collection string, offset, limit int) ([]models.SourceDocument, error)

	// PrimaryKey returns the name of the field holding the document ID
	PrimaryKey() string

	Close(ctx context.Context) error
}

// Page is one contiguous slice of a collection
type Page struct {
	Offset    int
	Documents []models.SourceDocument
}

// ErrInvalidPageSize is returned when the page size is not positive
var ErrInvalidPageSize = errors.New("page size must be positive")

// Pages returns a lazy sequence over the pages of collection. The sequence stops
// after the first short page; an empty page is never yielded. Each call of the
// returned function starts over from offset 0.
func Pages(ctx context.Context, store Store, collection string, pageSize int) iter.Seq2[Page, error] {
	return func(yield func(Page, error) bool) {
		if pageSize <= 0 {
			yield(Page{}, fmt.Errorf("%w, got %d", ErrInvalidPageSize, pageSize))
			return
		}

		offset := 0
		for {
			if err := ctx.Err(); err != nil {
				yield(Page{Offset: offset}, err)
				return
			}

			docs, err := store.FetchPage(ctx, collection, offset, pageSize)
			if err != nil {
				yield(Page{Offset: offset}, fmt.Errorf("fetching %s at offset %d: %w", collection, offset, err))
				return
			}
			if len(docs) == 0 {
				return
			}

			if !yield(Page{Offset: offset, Documents: docs}, nil) {
				return
			}
			if len(docs) < pageSize {
				return
			}
			offset += len(docs)
		}
	}
}

// FetchAllAsActions reads the whole collection and converts every document
// into an index action of type collection.
func FetchAllAsActions(
	ctx context.Context,
	store Store,
	index, collection string,
	pageSize int,
	verbose bool,
	logger *zap.Logger,
) ([]models.IndexAction, error) {
	logger = logger.With(zap.String("collection", collection))
	progress := logger.Debug
	if verbose {
		progress = logger.Info
	}

	primaryKey := store.PrimaryKey()
	var actions []models.IndexAction

	for page, err := range Pages(ctx, store, collection, pageSize) {
		if err != nil {
			return nil, err
		}

		progress(fmt.Sprintf("Fetching documents %d to %d", page.Offset, page.Offset+pageSize),
			zap.Int("offset", page.Offset),
			zap.Int("count", len(page.Documents)))

		for _, doc := range page.Documents {
			action, err := models.NewIndexAction(index, collection, primaryKey, doc)
			if err != nil {
				return nil, fmt.Errorf("collection %s: %w", collection, err)
			}
			actions = append(actions, action)
		}
	}

	logger.Debug("Collection fetched", zap.Int("count", len(actions)))
	return actions, nil
}
