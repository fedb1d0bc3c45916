// ABOUTME: Deterministic stand-ins for the embedding and generative services
// ABOUTME: Let the benchmarks exercise the full pipeline without network access or API keys

package ragas

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/harper/edurag/internal/models"
)

// DefaultHashDimension is the vector size of the offline embedder
const DefaultHashDimension = 512

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Words that carry no topic and the framing every embedded text shares
var ignoredWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "was": true,
	"what": true, "how": true, "does": true, "which": true, "with": true,
	"from": true, "into": true, "that": true, "this": true, "its": true,
	"educational": true, "content": true,
}

// HashEmbedder hashes words into a fixed number of buckets and L2-normalizes
// the counts. Texts sharing topic words get high cosine similarity.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder returns an embedder producing dim-length vectors
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultHashDimension
	}
	return &HashEmbedder{dim: dim}
}

// Embed implements core.Embedder
func (h *HashEmbedder) Embed(ctx context.Context, text string, task models.TaskType) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vector := make([]float64, h.dim)
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(word) < 3 || ignoredWords[word] {
			continue
		}
		vector[xxhash.Sum64String(word)%uint64(h.dim)]++
	}

	var norm float64
	for _, v := range vector {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vector {
			vector[i] /= norm
		}
	}
	return vector, nil
}

const primaryContextHeader = "PRIMARY CONTEXT (Most Relevant):\n"

// ExtractiveGenerator answers with the top-ranked passage of the prompt's
// primary context and approves every classification request.
type ExtractiveGenerator struct{}

// Generate implements core.Generator
func (ExtractiveGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	_, rest, found := strings.Cut(prompt, primaryContextHeader)
	if !found {
		return "YES", nil
	}

	block, _, _ := strings.Cut(rest, "\n\n")
	lines := strings.SplitN(block, "\n", 2)
	if len(lines) == 2 && strings.HasPrefix(lines[0], "[") {
		return strings.TrimSpace(lines[1]), nil
	}
	return strings.TrimSpace(block), nil
}
