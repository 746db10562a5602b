// Package postgres reads tables out of a PostgreSQL schema.
package postgres

import (
	"context"
	"fmt"

	"esmrebuild/models"
	"esmrebuild/sources"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	// Type is the source type name this package registers under
	Type = "postgres"

	DefaultPrimaryKey = "id"
	DefaultSchema     = "public"
)

// querier is the part of *pgxpool.Pool the source needs
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Source pages through the tables of one schema; a collection is a table
type Source struct {
	connector  *Connector
	db         querier
	schema     string
	primaryKey string
	logger     *zap.Logger
}

var _ sources.Store = (*Source)(nil)

// Open connects with cfg.Host as DSN; cfg.Database names the schema. It satisfies sources.Factory.
func Open(ctx context.Context, cfg sources.Config, logger *zap.Logger) (sources.Store, error) {
	connector := NewConnector(ConnectorConfig{
		DSN:      cfg.Host,
		MaxConns: cfg.MaxConns,
	}, logger)

	if err := connector.Connect(ctx); err != nil {
		return nil, err
	}

	s := newSource(connector.Pool(), cfg.Database, cfg.PrimaryKey, logger)
	s.connector = connector
	return s, nil
}

func newSource(db querier, schema, primaryKey string, logger *zap.Logger) *Source {
	if schema == "" {
		schema = DefaultSchema
	}
	if primaryKey == "" {
		primaryKey = DefaultPrimaryKey
	}
	return &Source{
		db:         db,
		schema:     schema,
		primaryKey: primaryKey,
		logger:     logger,
	}
}

// FullTableName returns the quoted schema.table
func (s *Source) FullTableName(table string) string {
	return pgx.Identifier{s.schema, table}.Sanitize()
}

// FetchPage selects one page of table ordered by primary key
func (s *Source) FetchPage(ctx context.Context, table string, offset, limit int) ([]models.SourceDocument, error) {
	query := fmt.Sprintf(
		"SELECT * FROM %s ORDER BY %s LIMIT $1 OFFSET $2",
		s.FullTableName(table),
		pgx.Identifier{s.primaryKey}.Sanitize(),
	)

	rows, err := s.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var docs []models.SourceDocument
	for rows.Next() {
		doc, err := RowToDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return docs, nil
}

// PrimaryKey returns the ordering and ID column
func (s *Source) PrimaryKey() string {
	return s.primaryKey
}

// Close closes the pool
func (s *Source) Close(_ context.Context) error {
	if s.connector != nil {
		s.connector.Close()
	}
	return nil
}
