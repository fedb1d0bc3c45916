// ABOUTME: Gemini client for task-typed embeddings and answer generation
// ABOUTME: Uses text-embedding-004 and gemini-2.0-flash by default through google.golang.org/genai
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/harper/edurag/internal/models"
	"google.golang.org/genai"
)

const (
	DefaultGeminiChatModel      = "gemini-2.0-flash"
	DefaultGeminiEmbeddingModel = "text-embedding-004"
)

// GeminiClient implements embedding and generation over the Gemini API
type GeminiClient struct {
	client         *genai.Client
	chatModel      string
	embeddingModel string
	cfg            ClientConfig
}

// NewGeminiClient creates a client for the Gemini developer API
func NewGeminiClient(ctx context.Context, cfg ClientConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	cfg = cfg.withDefaults(DefaultGeminiChatModel, DefaultGeminiEmbeddingModel)

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &GeminiClient{
		client:         client,
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
		cfg:            cfg,
	}, nil
}

// Embed returns the embedding of text, telling Gemini whether it is a document or a query
func (c *GeminiClient) Embed(ctx context.Context, text string, task models.TaskType) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.client.Models.EmbedContent(ctx, c.embeddingModel, genai.Text(text), &genai.EmbedContentConfig{
		TaskType: geminiTaskType(task),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embed content: %w", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("gemini embed content: %w", ErrEmptyResponse)
	}

	return toFloat64(resp.Embeddings[0].Values), nil
}

// Generate sends prompt as a single user turn and returns the reply text
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var gc *genai.GenerateContentConfig
	if c.cfg.Temperature > 0 {
		gc = &genai.GenerateContentConfig{Temperature: genai.Ptr(c.cfg.Temperature)}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.chatModel, genai.Text(prompt), gc)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini generate content: %w", ErrEmptyResponse)
	}
	return text, nil
}

func geminiTaskType(task models.TaskType) string {
	switch task {
	case models.TaskQuery:
		return "RETRIEVAL_QUERY"
	case models.TaskDocument:
		return "RETRIEVAL_DOCUMENT"
	default:
		return ""
	}
}

// responseText joins the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}
