// ABOUTME: Test doubles for the embedding service, generative service, and vector store
// ABOUTME: The fake embedder builds term-count vectors so similarity tracks shared vocabulary
package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/harper/edurag/internal/models"
	"github.com/harper/edurag/internal/storage"
	"github.com/harper/edurag/internal/storage/sqlite"
)

// embedTerms are the dimensions of the fake embedding space
var embedTerms = []string{
	"inheritance", "class", "programming", "object",
	"photosynthesis", "light", "energy", "plant",
	"mitosis", "cell", "stakeholder", "requirement",
}

type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	texts []string
	fail  func(text string) error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string, task models.TaskType) ([]float64, error) {
	f.mu.Lock()
	f.calls++
	f.texts = append(f.texts, text)
	fail := f.fail
	f.mu.Unlock()

	if fail != nil {
		if err := fail(text); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		counts[tok]++
	}
	vector := make([]float64, len(embedTerms))
	for i, term := range embedTerms {
		vector[i] = float64(counts[term])
	}
	return vector, nil
}

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	reply   string
	err     error
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// spyStore counts vector store calls and can inject query failures
type spyStore struct {
	storage.VectorStore

	mu       sync.Mutex
	queries  int
	lastTopK int
	queryErr error
}

func (s *spyStore) Query(ctx context.Context, vector []float64, topK int, filter models.SearchFilter) ([]models.VectorMatch, error) {
	s.mu.Lock()
	s.queries++
	s.lastTopK = topK
	err := s.queryErr
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return s.VectorStore.Query(ctx, vector, topK, filter)
}

func (s *spyStore) queryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries
}

var errServiceDown = errors.New("connection refused")

// newTestStore returns an in-memory SQLite chunk store wrapped in a spy
func newTestStore(t *testing.T) *spyStore {
	t.Helper()
	db, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	store := sqlite.NewChunkStore(db)
	t.Cleanup(func() { _ = store.Close() })
	return &spyStore{VectorStore: store}
}

// seedChunks embeds texts with the fake embedder and stores them under source
func seedChunks(t *testing.T, store storage.VectorStore, source string, texts ...string) {
	t.Helper()
	emb := &fakeEmbedder{}
	chunks := make([]models.Chunk, len(texts))
	for i, text := range texts {
		vector, err := emb.Embed(context.Background(), embedPrefix+text, models.TaskDocument)
		if err != nil {
			t.Fatalf("Embed() error = %v", err)
		}
		chunks[i] = models.Chunk{
			ID:        source + "-" + string(rune('a'+i)),
			Text:      text,
			Embedding: vector,
			Metadata: models.ChunkMetadata{
				SourceFile:  source,
				Page:        i + 1,
				ChunkIndex:  i,
				ContentType: models.ContentTypeEducational,
				WordCount:   wordCount(text),
			},
		}
	}
	if err := store.Upsert(context.Background(), chunks); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
}

const (
	inheritanceText = "Inheritance is a key concept in object-oriented programming. " +
		"Inheritance lets a class acquire properties of another class, for example a Dog class inherits from Animal."
	photosynthesisText = "Photosynthesis converts light energy into chemical energy within plant chloroplasts."
)
