package storage

import (
	"fmt"
	"log/slog"

	"github.com/maplewav/newslens/internal/config"
	"github.com/maplewav/newslens/internal/types"
)

// Storage is the interface for all article sinks.
type Storage interface {
	// Store persists a batch of articles.
	Store(articles []types.Article) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// New creates the storage backend selected by the configuration.
func New(cfg *config.StorageConfig, logger *slog.Logger) (Storage, error) {
	switch cfg.Type {
	case "csv", "json", "jsonl":
		return NewFileStorage(cfg.Type, cfg.OutputPath, logger)
	case "mongodb":
		return NewMongoStorage(cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection, logger)
	default:
		return nil, fmt.Errorf("%w: unsupported storage type %q", types.ErrInvalidParameter, cfg.Type)
	}
}
