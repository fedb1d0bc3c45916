// ABOUTME: End-to-end tests for the pipeline over an in-memory SQLite store and fake services
// ABOUTME: Covers every query state, refusal rotation, timeouts, and document ingestion outcomes
package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/harper/edurag/internal/models"
)

const inheritanceAnswer = "Inheritance is a key concept in object-oriented programming where a class acquires " +
	"properties of another class, for example a Dog class inheriting from Animal (oop.pdf, page 1)."

type pipelineFixture struct {
	pipeline *Pipeline
	store    *spyStore
	emb      *fakeEmbedder
	gen      *fakeGenerator
}

func newPipelineFixture(t *testing.T, cfg PipelineConfig) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		store: newTestStore(t),
		emb:   &fakeEmbedder{},
		gen:   &fakeGenerator{reply: inheritanceAnswer},
	}
	f.pipeline = NewPipeline(DefaultVocabulary(), f.emb, f.gen, f.store, cfg, nil)
	return f
}

func testPipelineConfig() PipelineConfig {
	return PipelineConfig{
		TopK:         5,
		QueryTimeout: time.Second,
		FailOpen:     true,
		Indexer:      IndexerConfig{Workers: 2, Timeout: time.Second, MaxRetries: 1, RetryDelay: time.Millisecond},
	}
}

func TestAnswerQuery_GroundedAnswer(t *testing.T) {
	f := newPipelineFixture(t, testPipelineConfig())
	seedChunks(t, f.store, "oop.pdf", inheritanceText)
	seedChunks(t, f.store, "bio.pdf", photosynthesisText)

	resp := f.pipeline.AnswerQuery(context.Background(), "What is inheritance in object-oriented programming?")

	if resp.State != models.StateScored {
		t.Fatalf("State = %v, want SCORED (answer %q)", resp.State, resp.Answer)
	}
	if !resp.IsEducational {
		t.Error("IsEducational = false, want true")
	}
	if resp.Answer != inheritanceAnswer {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if len(resp.Sources) != 1 {
		t.Fatalf("Sources = %d, want 1", len(resp.Sources))
	}
	src := resp.Sources[0]
	if src.SourceFile != "oop.pdf" || src.Page != 1 {
		t.Errorf("Source = %+v, want oop.pdf page 1", src)
	}
	if src.Relevance <= RelevanceThreshold || src.Preview == "" {
		t.Errorf("Source = %+v", src)
	}
	if resp.Confidence <= 0.5 || resp.Confidence > 1 {
		t.Errorf("Confidence = %v, want in (0.5, 1]", resp.Confidence)
	}

	prompt := f.gen.prompts[len(f.gen.prompts)-1]
	if !strings.Contains(prompt, "Inheritance lets a class acquire") {
		t.Error("prompt does not contain the retrieved chunk")
	}
	if strings.Contains(prompt, "Photosynthesis") {
		t.Error("prompt contains an irrelevant chunk")
	}
}

func TestAnswerQuery_RejectedQueryMakesNoServiceCalls(t *testing.T) {
	f := newPipelineFixture(t, testPipelineConfig())
	seedChunks(t, f.store, "oop.pdf", inheritanceText)

	resp := f.pipeline.AnswerQuery(context.Background(), "What's your favorite movie?")

	if resp.State != models.StateRejected {
		t.Errorf("State = %v, want REJECTED", resp.State)
	}
	if resp.IsEducational {
		t.Error("IsEducational = true, want false")
	}
	if resp.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", resp.Confidence)
	}
	if len(resp.Sources) != 0 {
		t.Errorf("Sources = %v, want none", resp.Sources)
	}
	if !isRefusal(resp.Answer) {
		t.Errorf("Answer = %q, want a refusal template", resp.Answer)
	}
	if f.store.queryCount() != 0 || f.emb.callCount() != 0 || f.gen.callCount() != 0 {
		t.Errorf("service calls: store=%d embed=%d generate=%d, want none",
			f.store.queryCount(), f.emb.callCount(), f.gen.callCount())
	}
}

func TestAnswerQuery_RefusalsRotate(t *testing.T) {
	f := newPipelineFixture(t, testPipelineConfig())

	var got []string
	for i := 0; i < len(refusalMessages)+1; i++ {
		got = append(got, f.pipeline.AnswerQuery(context.Background(), "Who won the election?").Answer)
	}

	for i := range refusalMessages {
		if got[i] != refusalMessages[i] {
			t.Errorf("refusal %d = %q, want %q", i, got[i], refusalMessages[i])
		}
	}
	if got[len(refusalMessages)] != refusalMessages[0] {
		t.Error("refusals should wrap around")
	}
}

func TestAnswerQuery_NoContent(t *testing.T) {
	tests := []struct {
		name string
		seed func(t *testing.T, f *pipelineFixture)
	}{
		{"empty store", func(t *testing.T, f *pipelineFixture) {}},
		{"nothing relevant", func(t *testing.T, f *pipelineFixture) {
			seedChunks(t, f.store, "bio.pdf", photosynthesisText)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPipelineFixture(t, testPipelineConfig())
			tt.seed(t, f)

			resp := f.pipeline.AnswerQuery(context.Background(), "What is inheritance in object-oriented programming?")
			if resp.State != models.StateNoContent {
				t.Errorf("State = %v, want NO_CONTENT", resp.State)
			}
			if resp.Answer != noContentMessage {
				t.Errorf("Answer = %q", resp.Answer)
			}
			if resp.Confidence != 0 {
				t.Errorf("Confidence = %v, want 0", resp.Confidence)
			}
			if !resp.IsEducational {
				t.Error("IsEducational = false, want true")
			}
			if f.gen.callCount() != 0 {
				t.Errorf("generator called %d times, want 0", f.gen.callCount())
			}
		})
	}
}

func TestAnswerQuery_RetrievalFailure(t *testing.T) {
	f := newPipelineFixture(t, testPipelineConfig())
	seedChunks(t, f.store, "oop.pdf", inheritanceText)
	f.store.queryErr = errServiceDown

	resp := f.pipeline.AnswerQuery(context.Background(), "What is inheritance?")

	if resp.State != models.StateError {
		t.Errorf("State = %v, want ERROR", resp.State)
	}
	if resp.Answer != errorMessage {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if strings.Contains(resp.Answer, "connection refused") || strings.Contains(resp.Reason, "connection refused") {
		t.Error("response leaks internal diagnostics")
	}
	if resp.Confidence != 0 || len(resp.Sources) != 0 {
		t.Errorf("Confidence = %v, Sources = %d, want 0 and none", resp.Confidence, len(resp.Sources))
	}
}

func TestAnswerQuery_GenerationFailureKeepsPartialSources(t *testing.T) {
	f := newPipelineFixture(t, testPipelineConfig())
	seedChunks(t, f.store, "oop.pdf", inheritanceText)
	f.gen.err = errServiceDown

	resp := f.pipeline.AnswerQuery(context.Background(), "What is inheritance in object-oriented programming?")

	if resp.State != models.StateError {
		t.Errorf("State = %v, want ERROR", resp.State)
	}
	if resp.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", resp.Confidence)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].SourceFile != "oop.pdf" {
		t.Errorf("Sources = %+v, want the retrieved chunk", resp.Sources)
	}
}

// slowGenerator blocks until its context ends
type slowGenerator struct{}

func (slowGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestAnswerQuery_TimeoutDegradesToError(t *testing.T) {
	store := newTestStore(t)
	seedChunks(t, store, "oop.pdf", inheritanceText)
	cfg := testPipelineConfig()
	cfg.QueryTimeout = 20 * time.Millisecond
	p := NewPipeline(DefaultVocabulary(), &fakeEmbedder{}, slowGenerator{}, store, cfg, nil)

	start := time.Now()
	resp := p.AnswerQuery(context.Background(), "What is inheritance in object-oriented programming?")

	if resp.State != models.StateError {
		t.Errorf("State = %v, want ERROR", resp.State)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("AnswerQuery took %v, timeout not applied", elapsed)
	}
}

func TestAnswerQuery_FailClosedRejectsOnClassifierError(t *testing.T) {
	cfg := testPipelineConfig()
	cfg.FailOpen = false
	f := newPipelineFixture(t, cfg)
	f.gen.err = errServiceDown

	resp := f.pipeline.AnswerQuery(context.Background(), "hello there")
	if resp.State != models.StateRejected {
		t.Errorf("State = %v, want REJECTED", resp.State)
	}
	if f.store.queryCount() != 0 {
		t.Error("store queried after rejection")
	}
}

func TestAnswerQuery_ConfidenceZeroOnlyWithoutResults(t *testing.T) {
	f := newPipelineFixture(t, testPipelineConfig())
	seedChunks(t, f.store, "oop.pdf", inheritanceText)
	seedChunks(t, f.store, "bio.pdf", photosynthesisText)

	queries := []string{
		"What is inheritance in object-oriented programming?",
		"Explain photosynthesis and light energy in a plant",
		"What is mitosis?",
		"Describe the object model",
	}
	for _, q := range queries {
		resp := f.pipeline.AnswerQuery(context.Background(), q)
		if resp.Confidence < 0 || resp.Confidence > 1 {
			t.Errorf("%q: Confidence = %v out of range", q, resp.Confidence)
		}
		hasResults := len(resp.Sources) > 0
		if hasResults != (resp.Confidence > 0) {
			t.Errorf("%q: sources = %d but confidence = %v", q, len(resp.Sources), resp.Confidence)
		}
	}
}

func isRefusal(answer string) bool {
	for _, m := range refusalMessages {
		if answer == m {
			return true
		}
	}
	return false
}

func TestProcessDocument_MalformedDocument(t *testing.T) {
	f := newPipelineFixture(t, testPipelineConfig())

	result, err := f.pipeline.ProcessDocument(context.Background(), []models.Page{
		{Number: 1, Text: "Page 1"},
		{Number: 2, Text: "tiny"},
	}, "empty.pdf")

	if !errors.Is(err, ErrMalformedDocument) {
		t.Errorf("ProcessDocument() error = %v, want ErrMalformedDocument", err)
	}
	if result.Success || result.ChunksAdded != 0 || result.Error == "" {
		t.Errorf("result = %+v", result)
	}
	if f.emb.callCount() != 0 {
		t.Error("embedder called for a malformed document")
	}
}

func TestProcessDocument_ReingestReplaces(t *testing.T) {
	f := newPipelineFixture(t, testPipelineConfig())
	ctx := context.Background()

	first := []models.Page{
		{Number: 1, Text: inheritanceText},
		{Number: 2, Text: longPage(20)},
	}
	second := []models.Page{{Number: 1, Text: inheritanceText}}

	r1, err := f.pipeline.ProcessDocument(ctx, first, "oop.pdf")
	if err != nil {
		t.Fatalf("ProcessDocument() error = %v", err)
	}
	if !r1.Success || r1.ChunksAdded < 2 {
		t.Fatalf("first result = %+v", r1)
	}

	r2, err := f.pipeline.ProcessDocument(ctx, second, "oop.pdf")
	if err != nil {
		t.Fatalf("ProcessDocument() error = %v", err)
	}

	stats, err := f.pipeline.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.ChunksPerSource["oop.pdf"] != r2.ChunksAdded {
		t.Errorf("oop.pdf chunks = %d, want %d from the latest pass", stats.ChunksPerSource["oop.pdf"], r2.ChunksAdded)
	}
}

func TestProcessDocument_PartialFailure(t *testing.T) {
	f := newPipelineFixture(t, testPipelineConfig())
	f.emb.fail = func(text string) error {
		if strings.Contains(text, "FAILME") {
			return errServiceDown
		}
		return nil
	}

	pages := []models.Page{
		{Number: 1, Text: inheritanceText},
		{Number: 2, Text: "FAILME: Photosynthesis is an important process in biology. Light energy becomes chemical energy inside the plant chloroplast."},
	}
	result, err := f.pipeline.ProcessDocument(context.Background(), pages, "mixed.pdf")

	var partial *PartialFailureError
	if !errors.As(err, &partial) {
		t.Fatalf("ProcessDocument() error = %v, want *PartialFailureError", err)
	}
	if !errors.Is(err, ErrIngestionPartialFailure) {
		t.Error("error should match ErrIngestionPartialFailure")
	}
	if !result.Success || result.ChunksAdded != 1 || result.ChunksFailed != 1 {
		t.Errorf("result = %+v, want 1 added and 1 failed", result)
	}
}

func TestProcessDocument_AllChunksFail(t *testing.T) {
	f := newPipelineFixture(t, testPipelineConfig())
	f.emb.fail = func(string) error { return errServiceDown }

	result, err := f.pipeline.ProcessDocument(context.Background(), []models.Page{{Number: 1, Text: inheritanceText}}, "oop.pdf")
	if err == nil {
		t.Fatal("ProcessDocument() should report the failure")
	}
	if result.Success || result.ChunksAdded != 0 || result.ChunksFailed != 1 {
		t.Errorf("result = %+v", result)
	}
}

func TestProcessDocument_RequiresSourceName(t *testing.T) {
	f := newPipelineFixture(t, testPipelineConfig())
	if _, err := f.pipeline.ProcessDocument(context.Background(), []models.Page{{Number: 1, Text: inheritanceText}}, " "); err == nil {
		t.Error("ProcessDocument() without a source name should fail")
	}
}

func TestPipeline_KnowledgeBaseOperations(t *testing.T) {
	f := newPipelineFixture(t, testPipelineConfig())
	ctx := context.Background()
	seedChunks(t, f.store, "oop.pdf", inheritanceText)
	seedChunks(t, f.store, "bio.pdf", photosynthesisText, "Every plant cell has a wall.")

	results, err := f.pipeline.Search(ctx, "plant cell", 0, "bio.pdf")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for _, r := range results {
		if r.Chunk.Metadata.SourceFile != "bio.pdf" {
			t.Errorf("Search() leaked %s", r.Chunk.Metadata.SourceFile)
		}
	}
	if _, err := f.pipeline.Search(ctx, "  ", 3, ""); err == nil {
		t.Error("Search() with empty query should fail")
	}

	summary, err := f.pipeline.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if !strings.Contains(summary, "3 content chunks") || !strings.Contains(summary, "bio.pdf, oop.pdf") {
		t.Errorf("Summary() = %q", summary)
	}

	n, err := f.pipeline.DeleteDocument(ctx, "bio.pdf")
	if err != nil {
		t.Fatalf("DeleteDocument() error = %v", err)
	}
	if n != 2 {
		t.Errorf("DeleteDocument() = %d, want 2", n)
	}

	if err := f.pipeline.ClearKnowledgeBase(ctx); err != nil {
		t.Fatalf("ClearKnowledgeBase() error = %v", err)
	}
	stats, err := f.pipeline.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalChunks != 0 || stats.UniqueSources() != 0 {
		t.Errorf("Stats() after clear = %+v", stats)
	}
}
