// ABOUTME: VectorStore abstraction over the knowledge base backends
// ABOUTME: Open picks SQLite, Qdrant, or Charm KV from configuration
package storage

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/harper/edurag/internal/charm"
	"github.com/harper/edurag/internal/config"
	"github.com/harper/edurag/internal/logging"
	"github.com/harper/edurag/internal/models"
	"github.com/harper/edurag/internal/storage/qdrant"
	"github.com/harper/edurag/internal/storage/sqlite"
)

// VectorStore persists embedded chunks and answers nearest-neighbour queries.
// Query returns matches ordered by ascending cosine distance.
type VectorStore interface {
	Upsert(ctx context.Context, chunks []models.Chunk) error
	Query(ctx context.Context, vector []float64, topK int, filter models.SearchFilter) ([]models.VectorMatch, error)
	DeleteBySource(ctx context.Context, sourceFile string) (int, error)
	Count(ctx context.Context) (int, error)
	Stats(ctx context.Context) (models.KnowledgeStats, error)
	Clear(ctx context.Context) error
	Close() error
}

// SourceReplacer is implemented by stores that can swap a source's chunks in one step
type SourceReplacer interface {
	ReplaceSource(ctx context.Context, sourceFile string, chunks []models.Chunk) error
}

var (
	_ VectorStore    = (*sqlite.ChunkStore)(nil)
	_ SourceReplacer = (*sqlite.ChunkStore)(nil)
	_ VectorStore    = (*qdrant.Store)(nil)
	_ VectorStore    = (*KVStore)(nil)
)

// Open connects to the backend named by cfg.Store. A nil logger discards.
func Open(ctx context.Context, cfg *config.Config, logger *log.Logger) (VectorStore, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		path := cfg.DBPath
		if path == "" {
			path = sqlite.DefaultDBPath()
		}
		db, err := sqlite.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return sqlite.NewChunkStore(db), nil

	case config.StoreQdrant:
		store, err := qdrant.Connect(ctx, qdrant.Config{
			Addr:       cfg.QdrantAddr(),
			Collection: cfg.QdrantCollection,
			Dimension:  cfg.VectorDimension,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to qdrant: %w", err)
		}
		return store, nil

	case config.StoreCharm:
		client, err := charm.NewClient(&charm.Config{
			Host:     cfg.CharmHost,
			DBName:   cfg.CharmDBName,
			AutoSync: cfg.AutoSync,
		})
		if err != nil {
			return nil, fmt.Errorf("opening charm store: %w", err)
		}
		return NewKVStore(client, logging.OrDiscard(logger).WithPrefix("kv")), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}
}
