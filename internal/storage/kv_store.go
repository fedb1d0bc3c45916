// ABOUTME: Vector store backed by Charm KV with brute-force cosine search
// ABOUTME: Chunks sync across machines through the charm cloud
package storage

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/harper/edurag/internal/charm"
	"github.com/harper/edurag/internal/logging"
	"github.com/harper/edurag/internal/models"
)

// kvBackend is the subset of the charm client the store needs
type kvBackend interface {
	SetJSONBatch(entries map[string]interface{}) error
	GetJSON(key string, dest interface{}) error
	DeleteKeys(keys []string) (int, error)
	ListKeys(prefix string) ([]string, error)
	Close() error
}

// KVStore keeps chunks as JSON values under charm.ChunkKey
type KVStore struct {
	kv     kvBackend
	logger *log.Logger
}

// NewKVStore creates a KVStore over a charm client
func NewKVStore(client *charm.Client, logger *log.Logger) *KVStore {
	return newKVStore(client, logger)
}

func newKVStore(kv kvBackend, logger *log.Logger) *KVStore {
	return &KVStore{kv: kv, logger: logging.OrDiscard(logger)}
}

// Upsert writes every chunk under its source-scoped key in one batch
func (s *KVStore) Upsert(ctx context.Context, chunks []models.Chunk) error {
	entries := make(map[string]interface{}, len(chunks))
	for _, c := range chunks {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid chunk %s: %w", c.ID, err)
		}
		entries[charm.ChunkKey(c.Metadata.SourceFile, c.ID)] = c
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.kv.SetJSONBatch(entries)
}

// Query scores every stored chunk that passes the filter
func (s *KVStore) Query(ctx context.Context, vector []float64, topK int, filter models.SearchFilter) ([]models.VectorMatch, error) {
	prefix := charm.ChunkPrefix
	if filter.SourceFile != "" {
		prefix = charm.SourcePrefix(filter.SourceFile)
	}

	chunks, err := s.load(ctx, prefix)
	if err != nil {
		return nil, err
	}

	matches := make([]models.VectorMatch, 0, len(chunks))
	for _, c := range chunks {
		if !filter.Matches(c) {
			continue
		}
		matches = append(matches, models.VectorMatch{
			Chunk:    c,
			Distance: 1 - cosineSimilarity(vector, c.Embedding),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	if topK >= 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// DeleteBySource removes every key under the source prefix
func (s *KVStore) DeleteBySource(ctx context.Context, sourceFile string) (int, error) {
	return s.deletePrefix(ctx, charm.SourcePrefix(sourceFile))
}

// Count returns the number of stored chunks
func (s *KVStore) Count(ctx context.Context) (int, error) {
	keys, err := s.kv.ListKeys(charm.ChunkPrefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list chunk keys: %w", err)
	}
	return len(keys), nil
}

// Stats counts chunks per source file
func (s *KVStore) Stats(ctx context.Context) (models.KnowledgeStats, error) {
	chunks, err := s.load(ctx, charm.ChunkPrefix)
	if err != nil {
		return models.KnowledgeStats{}, err
	}

	perSource := make(map[string]int)
	for _, c := range chunks {
		perSource[c.Metadata.SourceFile]++
	}
	return models.NewKnowledgeStats(perSource), nil
}

// Clear removes every chunk but leaves other keys alone
func (s *KVStore) Clear(ctx context.Context) error {
	_, err := s.deletePrefix(ctx, charm.ChunkPrefix)
	return err
}

// Close closes the underlying KV database
func (s *KVStore) Close() error {
	return s.kv.Close()
}

func (s *KVStore) load(ctx context.Context, prefix string) ([]models.Chunk, error) {
	keys, err := s.kv.ListKeys(prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunk keys: %w", err)
	}

	chunks := make([]models.Chunk, 0, len(keys))
	var lastErr error
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var c models.Chunk
		if err := s.kv.GetJSON(key, &c); err != nil {
			s.logger.Warn("skipping unreadable chunk", "key", key, "err", err)
			lastErr = err
			continue
		}
		chunks = append(chunks, c)
	}

	// Keys exist but nothing decodes: report it rather than look empty
	if len(chunks) == 0 && lastErr != nil {
		return nil, fmt.Errorf("none of %d chunks under %q could be read: %w", len(keys), prefix, lastErr)
	}
	return chunks, nil
}

func (s *KVStore) deletePrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := s.kv.ListKeys(prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list chunk keys: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.kv.DeleteKeys(keys)
}

// cosineSimilarity calculates cosine similarity between two vectors
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
