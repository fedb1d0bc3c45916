// ABOUTME: Interfaces for the external services the engine depends on
// ABOUTME: Implemented by internal/llm clients and replaced by fakes in tests
package core

import (
	"context"

	"github.com/harper/edurag/internal/models"
)

// Embedder turns text into a fixed-dimension vector
type Embedder interface {
	Embed(ctx context.Context, text string, task models.TaskType) ([]float64, error)
}

// Generator produces text from a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
