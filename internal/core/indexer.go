// ABOUTME: Indexer embeds chunks and writes them to the vector store
// ABOUTME: Embeds in parallel with retries, and serializes replace-by-source per file
package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/edurag/internal/logging"
	"github.com/harper/edurag/internal/models"
	"github.com/harper/edurag/internal/storage"
	"github.com/harper/edurag/internal/util"
	"golang.org/x/sync/errgroup"
)

const embedPrefix = "Educational content: "

// IndexerConfig tunes ingestion behavior
type IndexerConfig struct {
	Workers    int
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultIndexerConfig returns the defaults used when a field is zero
func DefaultIndexerConfig() IndexerConfig {
	return IndexerConfig{
		Workers:    4,
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
	}
}

// IngestionReport counts what happened to a batch of chunks
type IngestionReport struct {
	Stored []string
	Failed int
}

// Indexer owns the embedding service and the vector store for ingestion
type Indexer struct {
	embedder Embedder
	store    storage.VectorStore
	cfg      IndexerConfig
	logger   *log.Logger

	locksMu sync.Mutex
	locks   map[string]*sourceLock
}

// sourceLock serializes replaces of one file. refs counts holders and
// waiters so the entry can be dropped once nobody needs it.
type sourceLock struct {
	mu   sync.Mutex
	refs int
}

// NewIndexer creates an Indexer
func NewIndexer(embedder Embedder, store storage.VectorStore, cfg IndexerConfig, logger *log.Logger) *Indexer {
	def := DefaultIndexerConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Indexer{
		embedder: embedder,
		store:    store,
		cfg:      cfg,
		logger:   logging.OrDiscard(logger),
		locks:    make(map[string]*sourceLock),
	}
}

// Embed embeds text with the content prefix. The caller owns the timeout.
func (ix *Indexer) Embed(ctx context.Context, text string, task models.TaskType) ([]float64, error) {
	vector, err := ix.embedder.Embed(ctx, embedPrefix+text, task)
	if err != nil {
		return nil, serviceError("embedding", "embed", err)
	}
	if len(vector) == 0 {
		return nil, serviceError("embedding", "embed", fmt.Errorf("empty embedding returned"))
	}
	return vector, nil
}

// embedWithRetry embeds one chunk, retrying timeouts and failures with backoff
func (ix *Indexer) embedWithRetry(ctx context.Context, text string) ([]float64, error) {
	var vector []float64
	err := util.Retry(ctx, ix.cfg.MaxRetries, ix.cfg.RetryDelay, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, ix.cfg.Timeout)
		defer cancel()

		v, err := ix.Embed(attemptCtx, text, models.TaskDocument)
		if err != nil {
			return err
		}
		vector = v
		return nil
	})
	return vector, err
}

// embedAll embeds chunks in parallel. Failed chunks are logged and left out.
func (ix *Indexer) embedAll(ctx context.Context, chunks []models.Chunk) ([]models.Chunk, int) {
	embedded := make([]models.Chunk, len(chunks))
	ok := make([]bool, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.cfg.Workers)

	for i, chunk := range chunks {
		g.Go(func() error {
			vector, err := ix.embedWithRetry(gctx, chunk.Text)
			if err != nil {
				ix.logger.Warn("skipping chunk after embedding failure",
					"source", chunk.Metadata.SourceFile,
					"chunk_index", chunk.Metadata.ChunkIndex,
					"err", err)
				return nil
			}
			embedded[i] = chunk.WithEmbedding(vector)
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait()

	var out []models.Chunk
	for i, c := range embedded {
		if ok[i] {
			out = append(out, c)
		}
	}
	return out, len(chunks) - len(out)
}

// Store embeds and upserts chunks. Individual embedding failures are skipped
// and counted; only a store failure returns an error.
func (ix *Indexer) Store(ctx context.Context, chunks []models.Chunk) (IngestionReport, error) {
	embedded, failed := ix.embedAll(ctx, chunks)
	report := IngestionReport{Failed: failed}
	if len(embedded) == 0 {
		return report, nil
	}

	if err := ix.store.Upsert(ctx, embedded); err != nil {
		return IngestionReport{Failed: len(chunks)}, serviceError("vector store", "upsert", err)
	}

	report.Stored = ids(embedded)
	return report, nil
}

// DeleteBySource removes every chunk of a source file
func (ix *Indexer) DeleteBySource(ctx context.Context, sourceFile string) (int, error) {
	unlock := ix.lock(sourceFile)
	defer unlock()

	n, err := ix.store.DeleteBySource(ctx, sourceFile)
	if err != nil {
		return 0, serviceError("vector store", "delete", err)
	}
	return n, nil
}

// Replace swaps all chunks of sourceFile for the given ones. Embedding happens
// first, outside the lock; delete and insert run under a per-source lock.
func (ix *Indexer) Replace(ctx context.Context, sourceFile string, chunks []models.Chunk) (IngestionReport, error) {
	embedded, failed := ix.embedAll(ctx, chunks)
	report := IngestionReport{Failed: failed}
	if len(embedded) == 0 {
		if failed > 0 {
			ix.logger.Warn("no chunks embedded, keeping previous copy", "source", sourceFile, "failed", failed)
		}
		return report, nil
	}

	unlock := ix.lock(sourceFile)
	defer unlock()

	if r, ok := ix.store.(storage.SourceReplacer); ok {
		if err := r.ReplaceSource(ctx, sourceFile, embedded); err != nil {
			return IngestionReport{Failed: len(chunks)}, serviceError("vector store", "replace", err)
		}
	} else {
		if _, err := ix.store.DeleteBySource(ctx, sourceFile); err != nil {
			return IngestionReport{Failed: len(chunks)}, serviceError("vector store", "delete", err)
		}
		if err := ix.store.Upsert(ctx, embedded); err != nil {
			return IngestionReport{Failed: len(chunks)}, serviceError("vector store", "upsert", err)
		}
	}

	report.Stored = ids(embedded)
	ix.logger.Debug("replaced source", "source", sourceFile, "stored", len(embedded), "failed", failed)
	return report, nil
}

// lock acquires the mutex for one source file and returns its release func.
// The release drops the map entry when no other caller holds or waits on it.
func (ix *Indexer) lock(sourceFile string) func() {
	ix.locksMu.Lock()
	l, ok := ix.locks[sourceFile]
	if !ok {
		l = &sourceLock{}
		ix.locks[sourceFile] = l
	}
	l.refs++
	ix.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		ix.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(ix.locks, sourceFile)
		}
		ix.locksMu.Unlock()
	}
}


func ids(chunks []models.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.ID
	}
	return out
}
