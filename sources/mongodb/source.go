// Package mongodb reads collections out of a MongoDB database.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"esmrebuild/models"
	"esmrebuild/sources"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	// Type is the source type name this package registers under
	Type = "mongodb"

	DefaultPrimaryKey = "_id"
)

// finder is the part of *mongo.Collection the source needs
type finder interface {
	Find(ctx context.Context, filter any, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

// Source pages through the collections of one database
type Source struct {
	client     *mongo.Client
	collection func(name string) finder
	primaryKey string
	logger     *zap.Logger
}

var _ sources.Store = (*Source)(nil)

// Open connects to cfg.Host and selects cfg.Database. It satisfies sources.Factory.
func Open(ctx context.Context, cfg sources.Config, logger *zap.Logger) (sources.Store, error) {
	if cfg.Database == "" {
		return nil, errors.New("database is required")
	}

	uri := ConnectionURI(cfg.Host)
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		if derr := client.Disconnect(ctx); derr != nil {
			logger.Debug("Failed to disconnect from MongoDB", zap.Error(derr))
		}
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info("Connected to MongoDB", zap.String("database", cfg.Database))

	db := client.Database(cfg.Database)
	s := newSource(func(name string) finder { return db.Collection(name) }, cfg.PrimaryKey, logger)
	s.client = client
	return s, nil
}

func newSource(collection func(string) finder, primaryKey string, logger *zap.Logger) *Source {
	if primaryKey == "" {
		primaryKey = DefaultPrimaryKey
	}
	return &Source{
		collection: collection,
		primaryKey: primaryKey,
		logger:     logger,
	}
}

// ConnectionURI turns a bare host into a mongodb:// URI
func ConnectionURI(host string) string {
	host = strings.TrimSpace(host)
	if strings.HasPrefix(host, "mongodb://") || strings.HasPrefix(host, "mongodb+srv://") {
		return host
	}
	if host == "" {
		host = "localhost"
	}
	return "mongodb://" + host
}

// FetchPage runs find({}) sorted on the primary key with skip and limit
func (s *Source) FetchPage(ctx context.Context, collection string, offset, limit int) ([]models.SourceDocument, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: s.primaryKey, Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := s.collection(collection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find failed: %w", err)
	}

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("cursor iteration error: %w", err)
	}

	docs := make([]models.SourceDocument, 0, len(raw))
	for _, r := range raw {
		docs = append(docs, toDocument(r))
	}
	return docs, nil
}

// PrimaryKey returns the sort and ID field
func (s *Source) PrimaryKey() string {
	return s.primaryKey
}

// Close disconnects the client
func (s *Source) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	err := s.client.Disconnect(ctx)
	s.client = nil
	return err
}
