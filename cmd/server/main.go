// ABOUTME: Main entry point for the edurag MCP server with stdio transport
// ABOUTME: Loads configuration, opens the knowledge base, and serves every pipeline tool
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/harper/edurag/internal/config"
	"github.com/harper/edurag/internal/core"
	"github.com/harper/edurag/internal/llm"
	"github.com/harper/edurag/internal/logging"
	"github.com/harper/edurag/internal/mcp"
	"github.com/harper/edurag/internal/storage"
	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

func main() {
	// Load .env file if it exists (for API keys)
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.New(nil, "error").Fatal("invalid configuration", "err", err)
	}
	logger := logging.New(nil, cfg.LogLevel)
	if envErr != nil {
		logger.Debug("no .env file found", "err", envErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	vocab := core.DefaultVocabulary()
	if cfg.VocabularyFile != "" {
		vocab, err = core.LoadVocabulary(cfg.VocabularyFile)
		if err != nil {
			logger.Fatal("failed to load vocabulary", "path", cfg.VocabularyFile, "err", err)
		}
	}

	client, err := llm.New(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize services", "provider", cfg.Provider, "err", err)
	}

	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open knowledge base", "store", cfg.Store, "err", err)
	}
	defer store.Close()

	pipeline := core.NewPipeline(vocab, client, client, store, core.PipelineConfigFrom(cfg), logger)
	server := mcp.NewServer(pipeline, logger.WithPrefix("mcp"))

	logger.Info("edurag MCP server starting on stdio", "provider", cfg.Provider, "store", cfg.Store)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			logger.Error("server error", "err", err)
			store.Close()
			os.Exit(1)
		}
	}
}
