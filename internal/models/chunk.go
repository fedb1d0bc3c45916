// ABOUTME: Chunk represents a bounded span of course material persisted with its embedding
// ABOUTME: Metadata is a typed record so stores and rankers never deal with loose maps
package models

import (
	"errors"
	"time"
)

// ContentType classifies what kind of material a chunk was cut from
type ContentType string

const (
	ContentTypeEducational ContentType = "educational"
)

// IsValid checks if the content type is one the engine produces
func (ct ContentType) IsValid() bool {
	switch ct {
	case ContentTypeEducational:
		return true
	default:
		return false
	}
}

// ChunkMetadata records where a chunk came from
type ChunkMetadata struct {
	SourceFile  string      `json:"source_file"`
	Page        int         `json:"page"`
	ChunkIndex  int         `json:"chunk_index"`
	ContentType ContentType `json:"content_type"`
	WordCount   int         `json:"word_count"`
	Topic       string      `json:"topic"`
	IngestedAt  time.Time   `json:"ingested_at"`
}

// Chunk is immutable once stored. Embedding is empty until the indexer fills it.
type Chunk struct {
	ID        string        `json:"id"`
	Text      string        `json:"text"`
	Embedding []float64     `json:"embedding,omitempty"`
	Metadata  ChunkMetadata `json:"metadata"`
}

// Validate checks the fields every store relies on
func (c Chunk) Validate() error {
	if c.ID == "" {
		return errors.New("chunk id is required")
	}
	if c.Text == "" {
		return errors.New("chunk text is required")
	}
	if c.Metadata.SourceFile == "" {
		return errors.New("chunk source file is required")
	}
	if len(c.Embedding) == 0 {
		return errors.New("chunk embedding is required")
	}
	return nil
}

// WithEmbedding returns a copy of the chunk carrying the given vector
func (c Chunk) WithEmbedding(vector []float64) Chunk {
	c.Embedding = vector
	return c
}
