// ABOUTME: OpenAI client for embeddings and answer generation
// ABOUTME: Uses text-embedding-3-small and gpt-4o-mini by default; every call is a single attempt
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harper/edurag/internal/models"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultOpenAIChatModel is the default model for chat completions
	DefaultOpenAIChatModel = "gpt-4o-mini"
	// DefaultOpenAIEmbeddingModel is the default model for embeddings
	DefaultOpenAIEmbeddingModel = string(openai.SmallEmbedding3)
	// DefaultCallTimeout bounds a single service call
	DefaultCallTimeout = 30 * time.Second
)

// ErrEmptyResponse is returned when a service answers without content
var ErrEmptyResponse = errors.New("empty response from model")

// ClientConfig holds configuration shared by the service clients
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
	Temperature    float32
}

func (c ClientConfig) withDefaults(chat, embedding string) ClientConfig {
	if c.ChatModel == "" {
		c.ChatModel = chat
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = embedding
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultCallTimeout
	}
	return c
}

// OpenAIClient implements embedding and generation over the OpenAI API
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
	timeout        time.Duration
	temperature    float32
}

// NewOpenAIClient creates a client. BaseURL may point at any OpenAI-compatible endpoint.
func NewOpenAIClient(cfg ClientConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	cfg = cfg.withDefaults(DefaultOpenAIChatModel, DefaultOpenAIEmbeddingModel)

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(oc),
		chatModel:      cfg.ChatModel,
		embeddingModel: openai.EmbeddingModel(cfg.EmbeddingModel),
		timeout:        cfg.Timeout,
		temperature:    cfg.Temperature,
	}, nil
}

// Embed returns the embedding of text. OpenAI embeddings are symmetric, so task is unused.
func (c *OpenAIClient) Embed(ctx context.Context, text string, task models.TaskType) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: c.embeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("openai embeddings: %w", ErrEmptyResponse)
	}

	return toFloat64(resp.Data[0].Embedding), nil
}

// Generate sends prompt as a single user message and returns the reply text
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat completion: %w", ErrEmptyResponse)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("openai chat completion: %w", ErrEmptyResponse)
	}
	return content, nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
