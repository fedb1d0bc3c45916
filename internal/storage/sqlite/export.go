// ABOUTME: Export functionality for the knowledge base
// ABOUTME: Supports YAML and Markdown export formats, grouped by source document
package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ExportData represents the complete exportable data structure
type ExportData struct {
	Version    string           `yaml:"version" json:"version"`
	ExportedAt string           `yaml:"exported_at" json:"exported_at"`
	Tool       string           `yaml:"tool" json:"tool"`
	Documents  []ExportDocument `yaml:"documents" json:"documents"`
}

// ExportDocument represents one source file and its chunks
type ExportDocument struct {
	SourceFile string        `yaml:"source_file" json:"source_file"`
	Chunks     []ExportChunk `yaml:"chunks" json:"chunks"`
}

// ExportChunk represents a chunk for export. Embeddings are not exported.
type ExportChunk struct {
	ID         string `yaml:"id" json:"id"`
	Page       int    `yaml:"page" json:"page"`
	ChunkIndex int    `yaml:"chunk_index" json:"chunk_index"`
	Topic      string `yaml:"topic,omitempty" json:"topic,omitempty"`
	WordCount  int    `yaml:"word_count" json:"word_count"`
	Text       string `yaml:"text" json:"text"`
	IngestedAt string `yaml:"ingested_at" json:"ingested_at"`
}

// Export exports every chunk, grouped by source file in chunk order
func (s *ChunkStore) Export(ctx context.Context) (*ExportData, error) {
	data := &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now().Format(time.RFC3339),
		Tool:       "edurag",
		Documents:  []ExportDocument{},
	}

	rows, err := s.db.QueryContext(ctx, selectChunkSQL+" ORDER BY source_file, chunk_index")
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	chunks, err := scanChunks(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan chunks: %w", err)
	}

	for _, c := range chunks {
		n := len(data.Documents)
		if n == 0 || data.Documents[n-1].SourceFile != c.Metadata.SourceFile {
			data.Documents = append(data.Documents, ExportDocument{SourceFile: c.Metadata.SourceFile})
			n++
		}
		doc := &data.Documents[n-1]
		doc.Chunks = append(doc.Chunks, ExportChunk{
			ID:         c.ID,
			Page:       c.Metadata.Page,
			ChunkIndex: c.Metadata.ChunkIndex,
			Topic:      c.Metadata.Topic,
			WordCount:  c.Metadata.WordCount,
			Text:       c.Text,
			IngestedAt: c.Metadata.IngestedAt.Format(time.RFC3339),
		})
	}

	return data, nil
}

// ExportToYAML exports data to a YAML file
func (s *ChunkStore) ExportToYAML(ctx context.Context, outputPath string) error {
	data, err := s.Export(ctx)
	if err != nil {
		return err
	}

	file, err := createOutput(outputPath)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return encoder.Close()
}

// ExportToMarkdown exports data to a Markdown file
func (s *ChunkStore) ExportToMarkdown(ctx context.Context, outputPath string) error {
	data, err := s.Export(ctx)
	if err != nil {
		return err
	}

	file, err := createOutput(outputPath)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	_, _ = fmt.Fprintf(file, "# Knowledge Base Export - %s\n\n", time.Now().Format("2006-01-02"))
	_, _ = fmt.Fprintf(file, "Generated: %s\n\n", data.ExportedAt)

	for _, doc := range data.Documents {
		_, _ = fmt.Fprintf(file, "## %s\n\n", doc.SourceFile)
		for _, c := range doc.Chunks {
			heading := c.Topic
			if heading == "" {
				heading = fmt.Sprintf("Chunk %d", c.ChunkIndex)
			}
			_, _ = fmt.Fprintf(file, "### %s (page %d)\n\n", heading, c.Page)
			_, _ = fmt.Fprintf(file, "%s\n\n", c.Text)
		}
		_, _ = fmt.Fprintln(file, "---")
		_, _ = fmt.Fprintln(file)
	}

	return nil
}

func createOutput(outputPath string) (*os.File, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, nil
}
