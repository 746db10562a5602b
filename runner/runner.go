// Package runner executes the selected actions against an index and a source.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"esmrebuild/indexer"
	"esmrebuild/models"
	"esmrebuild/sources"

	"go.uber.org/zap"
)

// Report sums up a completed run
type Report struct {
	Rebuilt         bool
	MappingsApplied []string
	MappingsSkipped []string
	Fetched         int
	Indexed         int
}

// Runner runs the rebuild, mappings and push phases, always in that order
type Runner struct {
	client   *indexer.Client
	registry *sources.Registry
	opts     Options
	logger   *zap.Logger
}

// New creates a Runner. The source is opened from registry only when documents are pushed.
func New(client *indexer.Client, registry *sources.Registry, opts Options, logger *zap.Logger) *Runner {
	return &Runner{
		client:   client,
		registry: registry,
		opts:     opts,
		logger:   logger,
	}
}

// Run executes the selected phases. The first failure stops the run.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	var report Report

	if r.opts.Rebuild {
		if err := r.rebuild(ctx); err != nil {
			return report, err
		}
		report.Rebuilt = true
	}

	if r.opts.Mappings {
		if err := r.applyMappings(ctx, &report); err != nil {
			return report, err
		}
	}

	if r.opts.Push {
		if err := r.push(ctx, &report); err != nil {
			return report, err
		}
	}

	r.logger.Info("Complete",
		zap.Bool("rebuilt", report.Rebuilt),
		zap.Strings("mappings", report.MappingsApplied),
		zap.Int("indexed", report.Indexed))

	return report, nil
}

func (r *Runner) rebuild(ctx context.Context) error {
	r.logger.Info("Rebuilding index", zap.String("index", r.client.Index()))

	if err := r.client.DeleteIndex(ctx); err != nil {
		return classify("rebuild", fmt.Errorf("failed to delete index: %w", err))
	}
	r.logger.Info("Index deleted", zap.String("index", r.client.Index()))

	if err := r.client.CreateIndex(ctx); err != nil {
		return classify("rebuild", fmt.Errorf("failed to create index: %w", err))
	}
	r.logger.Info("Index created", zap.String("index", r.client.Index()))

	return nil
}

func (r *Runner) applyMappings(ctx context.Context, report *Report) error {
	r.logger.Info("Updating mappings", zap.Strings("doc_types", r.opts.DocTypes))

	for _, docType := range r.opts.DocTypes {
		path := filepath.Join(r.opts.MapPath, docType+".json")

		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			r.logger.Warn("No mapping found for doctype",
				zap.String("doc_type", docType),
				zap.String("path", path))
			report.MappingsSkipped = append(report.MappingsSkipped, docType)
			continue
		} else if err != nil {
			return Fail(KindFilesystem, "mappings", err)
		}

		r.logger.Info("Sending mapping", zap.String("doc_type", docType))

		mappings, err := r.client.ApplyMapping(ctx, path, docType)
		if err != nil {
			return classify("mappings", err)
		}
		if len(mappings) == 0 {
			return Fail(KindVerification, "mappings",
				fmt.Errorf("failed to add mapping for %s: %w", docType, indexer.ErrEmptyMapping))
		}

		r.logger.Info("Mapping accepted", zap.String("doc_type", docType))
		report.MappingsApplied = append(report.MappingsApplied, docType)
	}

	return nil
}

func (r *Runner) push(ctx context.Context, report *Report) error {
	store, err := r.registry.Open(ctx, r.opts.SourceConfig())
	if err != nil {
		return classify("push", err)
	}
	defer func() {
		if err := store.Close(ctx); err != nil {
			r.logger.Warn("Failed to close source", zap.Error(err))
		}
	}()

	var all []models.IndexAction
	for _, docType := range r.opts.DocTypes {
		r.logger.Info("Fetching documents from collection", zap.String("collection", docType))

		actions, err := sources.FetchAllAsActions(ctx, store, r.client.Index(), docType, r.opts.PageSize, r.opts.Verbose, r.logger)
		if err != nil {
			return classify("push", err)
		}

		r.logger.Info("Got documents",
			zap.String("collection", docType),
			zap.Int("count", len(actions)))
		all = append(all, actions...)
	}
	report.Fetched = len(all)

	r.logger.Info("Starting bulk index", zap.Int("count", len(all)))

	result, err := r.client.BulkInsert(ctx, all)
	report.Indexed = result.Indexed
	if err != nil {
		return classify("push", err)
	}

	r.logger.Info("Indexed all documents", zap.Int("indexed", result.Indexed))
	return nil
}
