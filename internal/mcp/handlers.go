// ABOUTME: MCP tool handler implementations for the edurag server
// ABOUTME: Tool failures are returned as error results so the session stays alive
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/harper/edurag/internal/core"
	"github.com/harper/edurag/internal/extract"
	"github.com/harper/edurag/internal/logging"
	"github.com/harper/edurag/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// Engine is the subset of core.Pipeline the tools need
type Engine interface {
	AnswerQuery(ctx context.Context, query string) models.ComposedResponse
	ProcessDocument(ctx context.Context, pages []models.Page, sourceFile string) (models.IngestionResult, error)
	Search(ctx context.Context, query string, k int, sourceFile string) ([]models.RetrievalResult, error)
	DeleteDocument(ctx context.Context, sourceFile string) (int, error)
	ClearKnowledgeBase(ctx context.Context) error
	Stats(ctx context.Context) (models.KnowledgeStats, error)
	Summary(ctx context.Context) (string, error)
}

var _ Engine = (*core.Pipeline)(nil)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	engine Engine
	pages  func(path string) ([]models.Page, error)
	logger *log.Logger
}

// NewHandlers creates handlers backed by engine
func NewHandlers(engine Engine, logger *log.Logger) *Handlers {
	return &Handlers{
		engine: engine,
		pages:  extract.Pages,
		logger: logging.OrDiscard(logger),
	}
}

// AnswerQuestion handles the answer_question tool
func (h *Handlers) AnswerQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil || strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("question argument is required and must be a non-empty string"), nil
	}

	resp := h.engine.AnswerQuery(ctx, question)
	h.logger.Debug("answered via mcp", "state", resp.State, "confidence", resp.Confidence)
	return jsonResult(resp)
}

// IngestDocument handles the ingest_document tool
func (h *Handlers) IngestDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil || path == "" {
		return mcp.NewToolResultError("path argument is required and must be a string"), nil
	}
	source := request.GetString("source_name", filepath.Base(path))

	pages, err := h.pages(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read document: %v", err)), nil
	}

	result, err := h.engine.ProcessDocument(ctx, pages, source)
	if err != nil && !errors.Is(err, core.ErrIngestionPartialFailure) {
		return mcp.NewToolResultError(fmt.Sprintf("ingestion failed: %v", err)), nil
	}

	return jsonResult(result)
}

// SearchContent handles the search_content tool
func (h *Handlers) SearchContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}
	maxResults := request.GetInt("max_results", 5)
	source := request.GetString("source_file", "")

	results, err := h.engine.Search(ctx, query, maxResults, source)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	passages := make([]models.Citation, len(results))
	for i, r := range results {
		passages[i] = models.NewCitation(r)
	}

	return jsonResult(map[string]interface{}{
		"query":   query,
		"results": passages,
	})
}

// DeleteDocument handles the delete_document tool
func (h *Handlers) DeleteDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := request.RequireString("source_file")
	if err != nil || source == "" {
		return mcp.NewToolResultError("source_file argument is required and must be a string"), nil
	}

	deleted, err := h.engine.DeleteDocument(ctx, source)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"source_file":    source,
		"chunks_deleted": deleted,
	})
}

// ClearKnowledgeBase handles the clear_knowledge_base tool
func (h *Handlers) ClearKnowledgeBase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !request.GetBool("confirm", false) {
		return mcp.NewToolResultError("refusing to clear the knowledge base without confirm=true"), nil
	}

	if err := h.engine.ClearKnowledgeBase(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("clear failed: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{"success": true})
}

// KnowledgeStats handles the knowledge_stats tool
func (h *Handlers) KnowledgeStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.engine.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load stats: %v", err)), nil
	}
	summary, err := h.engine.Summary(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build summary: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"total_chunks":      stats.TotalChunks,
		"unique_sources":    stats.UniqueSources(),
		"source_files":      stats.SourceFiles,
		"chunks_per_source": stats.ChunksPerSource,
		"summary":           summary,
	})
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
