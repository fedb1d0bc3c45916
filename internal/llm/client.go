// ABOUTME: Provider selection for the embedding and generative services
// ABOUTME: New builds the OpenAI or Gemini client named in configuration
package llm

import (
	"context"
	"fmt"

	"github.com/harper/edurag/internal/config"
	"github.com/harper/edurag/internal/models"
)

// Client embeds text and generates answers
type Client interface {
	Embed(ctx context.Context, text string, task models.TaskType) ([]float64, error)
	Generate(ctx context.Context, prompt string) (string, error)
}

var (
	_ Client = (*OpenAIClient)(nil)
	_ Client = (*GeminiClient)(nil)
)

// New returns the client for cfg.Provider
func New(ctx context.Context, cfg *config.Config) (Client, error) {
	if err := cfg.RequireCredentials(); err != nil {
		return nil, err
	}

	cc := ClientConfig{
		ChatModel:      cfg.ChatModel,
		EmbeddingModel: cfg.EmbeddingModel,
		Timeout:        cfg.QueryTimeout,
		Temperature:    0.3,
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		cc.APIKey = cfg.GeminiKey
		return NewGeminiClient(ctx, cc)
	case config.ProviderOpenAI:
		cc.APIKey = cfg.OpenAIKey
		cc.BaseURL = cfg.OpenAIBaseURL
		return NewOpenAIClient(cc)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
