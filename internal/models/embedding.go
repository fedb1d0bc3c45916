// ABOUTME: Embedding task types and vector search results
// ABOUTME: Shared between the LLM clients, the vector stores, and the ranker
package models

// TaskType tells the embedding service how the text will be used
type TaskType string

const (
	TaskDocument TaskType = "RETRIEVAL_DOCUMENT"
	TaskQuery    TaskType = "RETRIEVAL_QUERY"
)

// VectorMatch is a raw nearest-neighbour hit from a vector store.
// Distance is cosine distance (1 - cosine similarity).
type VectorMatch struct {
	Chunk    Chunk   `json:"chunk"`
	Distance float64 `json:"distance"`
}

// SearchFilter narrows a vector query. Zero value matches everything.
type SearchFilter struct {
	SourceFile string `json:"source_file,omitempty"`
}

// Matches reports whether a chunk passes the filter
func (f SearchFilter) Matches(c Chunk) bool {
	return f.SourceFile == "" || c.Metadata.SourceFile == f.SourceFile
}
