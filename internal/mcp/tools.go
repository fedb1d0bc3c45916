// ABOUTME: MCP tool definitions and registration for the edurag server
// ABOUTME: Defines JSON schemas for the six knowledge base tools
package mcp

import (
	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// ServerName and ServerVersion identify the server to MCP clients
const (
	ServerName    = "edurag"
	ServerVersion = "0.1.0"
)

// NewServer creates an MCP server with every tool registered against engine
func NewServer(engine Engine, logger *log.Logger) *mcpserver.MCPServer {
	server := mcpserver.NewMCPServer(ServerName, ServerVersion)
	RegisterTools(server, engine, logger)
	return server
}

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, engine Engine, logger *log.Logger) *Handlers {
	handlers := NewHandlers(engine, logger)

	// 1. answer_question - full classify, retrieve, compose, score flow
	server.AddTool(mcp.Tool{
		Name:        "answer_question",
		Description: "Answer an educational question using only the uploaded course materials. Non-educational questions are politely refused.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "The student's question",
				},
			},
			Required: []string{"question"},
		},
	}, handlers.AnswerQuestion)

	// 2. ingest_document - chunk, embed, and store a document
	server.AddTool(mcp.Tool{
		Name:        "ingest_document",
		Description: "Add a PDF, text, or markdown document to the knowledge base. Re-ingesting a file replaces its previous content.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the document on the server's filesystem",
				},
				"source_name": map[string]interface{}{
					"type":        "string",
					"description": "Optional source name (default: the file name)",
				},
			},
			Required: []string{"path"},
		},
	}, handlers.IngestDocument)

	// 3. search_content - ranked chunks without generation
	server.AddTool(mcp.Tool{
		Name:        "search_content",
		Description: "Search the knowledge base and return ranked passages with their source and page.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query",
				},
				"max_results": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of results to return (default: 5)",
					"default":     5,
				},
				"source_file": map[string]interface{}{
					"type":        "string",
					"description": "Optional source file to restrict results to",
				},
			},
			Required: []string{"query"},
		},
	}, handlers.SearchContent)

	// 4. delete_document - remove one source
	server.AddTool(mcp.Tool{
		Name:        "delete_document",
		Description: "Remove every chunk of a document from the knowledge base.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"source_file": map[string]interface{}{
					"type":        "string",
					"description": "Source file name as shown by knowledge_stats",
				},
			},
			Required: []string{"source_file"},
		},
	}, handlers.DeleteDocument)

	// 5. clear_knowledge_base - remove everything
	server.AddTool(mcp.Tool{
		Name:        "clear_knowledge_base",
		Description: "Remove all documents from the knowledge base. Requires confirm=true.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"confirm": map[string]interface{}{
					"type":        "boolean",
					"description": "Must be true to clear",
				},
			},
			Required: []string{"confirm"},
		},
	}, handlers.ClearKnowledgeBase)

	// 6. knowledge_stats - what the knowledge base holds
	server.AddTool(mcp.Tool{
		Name:        "knowledge_stats",
		Description: "Report chunk counts per source file and a summary of what can be asked.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.KnowledgeStats)

	return handlers
}
