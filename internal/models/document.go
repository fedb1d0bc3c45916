// ABOUTME: Document-level models for ingestion and knowledge base bookkeeping
// ABOUTME: Pages come from extractors, IngestionResult and KnowledgeStats go back to callers
package models

import "sort"

// Page is the extracted text of one PDF page or slide (1-based)
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// IngestionResult reports what happened to one document
type IngestionResult struct {
	SourceFile   string `json:"source_file"`
	Success      bool   `json:"success"`
	ChunksAdded  int    `json:"chunks_added"`
	ChunksFailed int    `json:"chunks_failed"`
	Error        string `json:"error,omitempty"`
}

// KnowledgeStats summarizes the shared knowledge base
type KnowledgeStats struct {
	TotalChunks     int            `json:"total_chunks"`
	SourceFiles     []string       `json:"source_files"`
	ChunksPerSource map[string]int `json:"chunks_per_source"`
}

// UniqueSources returns the number of distinct source files
func (s KnowledgeStats) UniqueSources() int {
	return len(s.SourceFiles)
}

// NewKnowledgeStats builds stats from per-source chunk counts, sources sorted by name
func NewKnowledgeStats(perSource map[string]int) KnowledgeStats {
	stats := KnowledgeStats{
		SourceFiles:     make([]string, 0, len(perSource)),
		ChunksPerSource: perSource,
	}
	for source, n := range perSource {
		stats.SourceFiles = append(stats.SourceFiles, source)
		stats.TotalChunks += n
	}
	sort.Strings(stats.SourceFiles)
	return stats
}
