// ABOUTME: Chunk storage for SQLite: text, typed metadata, and embedding BLOBs
// ABOUTME: Implements brute-force cosine search and atomic replace-by-source
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/harper/edurag/internal/models"
)

// ChunkStore handles chunk persistence and similarity search
type ChunkStore struct {
	db *DB
}

// NewChunkStore creates a new ChunkStore
func NewChunkStore(db *DB) *ChunkStore {
	return &ChunkStore{db: db}
}

const upsertChunkSQL = `
	INSERT INTO chunks (id, source_file, page, chunk_index, content_type, word_count, topic, text, vector, ingested_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		source_file = excluded.source_file,
		page = excluded.page,
		chunk_index = excluded.chunk_index,
		content_type = excluded.content_type,
		word_count = excluded.word_count,
		topic = excluded.topic,
		text = excluded.text,
		vector = excluded.vector,
		ingested_at = excluded.ingested_at
`

// Upsert saves chunks in one transaction
func (s *ChunkStore) Upsert(ctx context.Context, chunks []models.Chunk) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		return insertChunks(ctx, tx, chunks)
	})
}

// ReplaceSource deletes all chunks of a source and inserts the new ones in one transaction
func (s *ChunkStore) ReplaceSource(ctx context.Context, sourceFile string, chunks []models.Chunk) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE source_file = ?", sourceFile); err != nil {
			return fmt.Errorf("failed to delete chunks for %s: %w", sourceFile, err)
		}
		return insertChunks(ctx, tx, chunks)
	})
}

func insertChunks(ctx context.Context, tx *sql.Tx, chunks []models.Chunk) error {
	stmt, err := tx.PrepareContext(ctx, upsertChunkSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, c := range chunks {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid chunk %s: %w", c.ID, err)
		}
		m := c.Metadata
		if _, err := stmt.ExecContext(ctx,
			c.ID, m.SourceFile, m.Page, m.ChunkIndex, string(m.ContentType),
			m.WordCount, m.Topic, c.Text, vectorToBlob(c.Embedding), m.IngestedAt,
		); err != nil {
			return fmt.Errorf("failed to save chunk %s: %w", c.ID, err)
		}
	}
	return nil
}

// GetByID retrieves a chunk by ID, or nil if it does not exist
func (s *ChunkStore) GetByID(ctx context.Context, id string) (*models.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, selectChunkSQL+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	chunks, err := scanChunks(rows)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, nil
	}
	return &chunks[0], nil
}

// Query performs cosine similarity search, optionally restricted to one source
func (s *ChunkStore) Query(ctx context.Context, vector []float64, topK int, filter models.SearchFilter) ([]models.VectorMatch, error) {
	query := selectChunkSQL
	var args []interface{}
	if filter.SourceFile != "" {
		query += " WHERE source_file = ?"
		args = append(args, filter.SourceFile)
	}
	query += " ORDER BY source_file, chunk_index"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	chunks, err := scanChunks(rows)
	if err != nil {
		return nil, err
	}

	matches := make([]models.VectorMatch, len(chunks))
	for i, c := range chunks {
		matches[i] = models.VectorMatch{
			Chunk:    c,
			Distance: 1 - CosineSimilarity(vector, c.Embedding),
		}
	}

	// Sort by distance ascending
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	if topK >= 0 && len(matches) > topK {
		matches = matches[:topK]
	}

	return matches, nil
}

// DeleteBySource removes every chunk of a source file
func (s *ChunkStore) DeleteBySource(ctx context.Context, sourceFile string) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE source_file = ?", sourceFile)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Count returns the number of stored chunks
func (s *ChunkStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n)
	return n, err
}

// Stats counts chunks per source file
func (s *ChunkStore) Stats(ctx context.Context) (models.KnowledgeStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_file, COUNT(*)
		FROM chunks
		GROUP BY source_file
		ORDER BY source_file
	`)
	if err != nil {
		return models.KnowledgeStats{}, err
	}
	defer func() { _ = rows.Close() }()

	stats := models.KnowledgeStats{
		SourceFiles:     []string{},
		ChunksPerSource: make(map[string]int),
	}
	for rows.Next() {
		var (
			source string
			n      int
		)
		if err := rows.Scan(&source, &n); err != nil {
			return models.KnowledgeStats{}, err
		}
		stats.SourceFiles = append(stats.SourceFiles, source)
		stats.ChunksPerSource[source] = n
		stats.TotalChunks += n
	}

	return stats, rows.Err()
}

// Clear removes every chunk
func (s *ChunkStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM chunks")
	return err
}

// Close closes the database
func (s *ChunkStore) Close() error {
	return s.db.Close()
}

const selectChunkSQL = `
	SELECT id, source_file, page, chunk_index, content_type, word_count, topic, text, vector, ingested_at
	FROM chunks`

// scanChunks scans rows into chunks
func scanChunks(rows *sql.Rows) ([]models.Chunk, error) {
	var chunks []models.Chunk

	for rows.Next() {
		var (
			c           models.Chunk
			contentType string
			topic       sql.NullString
			blob        []byte
		)

		if err := rows.Scan(
			&c.ID, &c.Metadata.SourceFile, &c.Metadata.Page, &c.Metadata.ChunkIndex,
			&contentType, &c.Metadata.WordCount, &topic, &c.Text, &blob, &c.Metadata.IngestedAt,
		); err != nil {
			return nil, err
		}

		c.Metadata.ContentType = models.ContentType(contentType)
		if topic.Valid {
			c.Metadata.Topic = topic.String
		}
		c.Embedding = blobToVector(blob)

		chunks = append(chunks, c)
	}

	return chunks, rows.Err()
}

// vectorToBlob converts a float64 slice to binary blob
func vectorToBlob(vector []float64) []byte {
	blob := make([]byte, len(vector)*8)
	for i, v := range vector {
		binary.LittleEndian.PutUint64(blob[i*8:], math.Float64bits(v))
	}
	return blob
}

// blobToVector converts a binary blob to float64 slice
func blobToVector(blob []byte) []float64 {
	count := len(blob) / 8
	vector := make([]float64, count)
	for i := 0; i < count; i++ {
		bits := binary.LittleEndian.Uint64(blob[i*8:])
		vector[i] = math.Float64frombits(bits)
	}
	return vector
}

// CosineSimilarity calculates cosine similarity between two vectors
func CosineSimilarity(a, b []float64) float64 {
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
