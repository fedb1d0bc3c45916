// ABOUTME: Retrieval results, citations, and the composed answer returned to users
// ABOUTME: Citations carry a short preview so callers can show where an answer came from
package models

import "strings"

// PreviewLength is the number of characters of chunk text shown in a citation
const PreviewLength = 300

// RetrievalResult is a ranked chunk
type RetrievalResult struct {
	Chunk      Chunk   `json:"chunk"`
	Similarity float64 `json:"similarity"`
	Relevance  float64 `json:"relevance"`
}

// Citation points at the chunk an answer drew from
type Citation struct {
	SourceFile string  `json:"source_file"`
	Page       int     `json:"page"`
	ChunkIndex int     `json:"chunk_index"`
	Similarity float64 `json:"similarity"`
	Relevance  float64 `json:"relevance"`
	WordCount  int     `json:"word_count"`
	Preview    string  `json:"preview"`
}

// NewCitation builds a citation from a ranked chunk
func NewCitation(r RetrievalResult) Citation {
	return Citation{
		SourceFile: r.Chunk.Metadata.SourceFile,
		Page:       r.Chunk.Metadata.Page,
		ChunkIndex: r.Chunk.Metadata.ChunkIndex,
		Similarity: r.Similarity,
		Relevance:  r.Relevance,
		WordCount:  len(strings.Fields(r.Chunk.Text)),
		Preview:    preview(r.Chunk.Text),
	}
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewLength {
		return text
	}
	return string(runes[:PreviewLength]) + "..."
}

// ComposedResponse is the user-facing result of answering a query
type ComposedResponse struct {
	Answer        string     `json:"answer"`
	Sources       []Citation `json:"sources"`
	Confidence    float64    `json:"confidence"`
	IsEducational bool       `json:"is_educational"`
	Reason        string     `json:"reason,omitempty"`
	State         QueryState `json:"state"`
}
