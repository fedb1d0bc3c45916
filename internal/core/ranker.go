// ABOUTME: Ranker retrieves candidate chunks and re-scores them with a composite relevance
// ABOUTME: Relevance blends vector similarity, query keyword overlap, and educational density
package core

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/harper/edurag/internal/logging"
	"github.com/harper/edurag/internal/models"
	"github.com/harper/edurag/internal/storage"
)

const (
	// SimilarityWeight scales cosine similarity in the relevance score
	SimilarityWeight = 0.6
	// OverlapWeight scales the fraction of query tokens found in the chunk
	OverlapWeight = 0.3
	// DensityWeight scales the fraction of ranking indicators found in the chunk
	DensityWeight = 0.1
	// RelevanceThreshold is the score a candidate must exceed to be returned
	RelevanceThreshold = 0.15
	// MinCandidates is the over-fetch floor when the store has enough chunks
	MinCandidates = 10
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Ranker answers retrieval requests against the vector store
type Ranker struct {
	vocab    *Vocabulary
	expander *QueryExpander
	indexer  *Indexer
	store    storage.VectorStore
	logger   *log.Logger
}

// NewRanker creates a Ranker. Query embeddings go through the indexer so
// they carry the same framing prefix as stored chunks.
func NewRanker(vocab *Vocabulary, expander *QueryExpander, indexer *Indexer, store storage.VectorStore, logger *log.Logger) *Ranker {
	return &Ranker{
		vocab:    vocab,
		expander: expander,
		indexer:  indexer,
		store:    store,
		logger:   logging.OrDiscard(logger),
	}
}

// Retrieve returns up to k chunks ordered by descending relevance
func (r *Ranker) Retrieve(ctx context.Context, query string, k int) ([]models.RetrievalResult, error) {
	return r.Search(ctx, query, k, models.SearchFilter{})
}

// Search is Retrieve restricted by a filter
func (r *Ranker) Search(ctx context.Context, query string, k int, filter models.SearchFilter) ([]models.RetrievalResult, error) {
	if k <= 0 {
		return []models.RetrievalResult{}, nil
	}

	total, err := r.store.Count(ctx)
	if err != nil {
		return nil, serviceError("vector store", "count", err)
	}
	if total == 0 {
		return []models.RetrievalResult{}, nil
	}

	vector, err := r.indexer.Embed(ctx, r.expander.Expand(query), models.TaskQuery)
	if err != nil {
		return nil, err
	}

	fetch := min(max(2*k, min(MinCandidates, total)), total)
	matches, err := r.store.Query(ctx, vector, fetch, filter)
	if err != nil {
		return nil, serviceError("vector store", "query", err)
	}

	queryTokens := tokenSet(query)
	results := make([]models.RetrievalResult, 0, len(matches))
	for _, m := range matches {
		sim := clamp01(1 - m.Distance)
		content := strings.ToLower(m.Chunk.Text)
		rel := Relevance(sim, overlap(queryTokens, tokenSet(content)), r.density(content))
		if rel <= RelevanceThreshold {
			continue
		}
		results = append(results, models.RetrievalResult{
			Chunk:      m.Chunk,
			Similarity: sim,
			Relevance:  rel,
		})
	}

	// Stable keeps the store's similarity order among equal relevance
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
	if len(results) > k {
		results = results[:k]
	}

	r.logger.Debug("retrieved", "candidates", len(matches), "kept", len(results), "k", k)
	return results, nil
}

// Relevance combines the three ranking signals, clamped to [0,1]
func Relevance(similarity, keywordOverlap, eduDensity float64) float64 {
	return clamp01(SimilarityWeight*similarity + OverlapWeight*keywordOverlap + DensityWeight*eduDensity)
}

func (r *Ranker) density(lowerContent string) float64 {
	indicators := r.vocab.rankingIndicators
	return float64(countContained(lowerContent, indicators)) / float64(len(indicators))
}

// tokenSet returns the distinct lowercase word tokens of text
func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		set[tok] = struct{}{}
	}
	return set
}

// overlap is |q ∩ c| / |q|, or 0 when q is empty
func overlap(q, c map[string]struct{}) float64 {
	if len(q) == 0 {
		return 0
	}
	shared := 0
	for tok := range q {
		if _, ok := c[tok]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(q))
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
