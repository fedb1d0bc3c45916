// ABOUTME: Builds the pipeline a command runs against from configuration
// ABOUTME: Tests swap openEngine for a fake so commands run without services
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/harper/edurag/internal/config"
	"github.com/harper/edurag/internal/core"
	"github.com/harper/edurag/internal/llm"
	"github.com/harper/edurag/internal/logging"
	"github.com/harper/edurag/internal/mcp"
	"github.com/harper/edurag/internal/storage"
)

// openEngine returns the engine and a function that releases it.
// needsServices is false for commands that only touch the store.
var openEngine = defaultOpenEngine

func defaultOpenEngine(ctx context.Context, needsServices bool) (mcp.Engine, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logger := newLogger(cfg)

	vocab := core.DefaultVocabulary()
	if cfg.VocabularyFile != "" {
		vocab, err = core.LoadVocabulary(cfg.VocabularyFile)
		if err != nil {
			return nil, nil, err
		}
	}

	var services llm.Client
	if needsServices {
		services, err = llm.New(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing %s client: %w", cfg.Provider, err)
		}
	}

	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	pipeline := core.NewPipeline(vocab, services, services, store, core.PipelineConfigFrom(cfg), logger)
	return pipeline, store.Close, nil
}

func newLogger(cfg *config.Config) *log.Logger {
	level := cfg.LogLevel
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "error"
	}
	return logging.New(nil, level)
}

// withEngine opens the engine, runs fn, and closes the engine
func withEngine(ctx context.Context, needsServices bool, fn func(engine mcp.Engine) error) (err error) {
	engine, closeFn, err := openEngine(ctx, needsServices)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeFn(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("closing store: %w", closeErr))
		}
	}()
	return fn(engine)
}
