// ABOUTME: Tests for prompt building and answer composition
// ABOUTME: Verifies context partitioning, grounding instructions, and failure handling
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/harper/edurag/internal/models"
)

func rankedResults(n int) []models.RetrievalResult {
	results := make([]models.RetrievalResult, n)
	for i := range results {
		results[i] = models.RetrievalResult{
			Chunk: models.Chunk{
				ID:   fmt.Sprintf("r%d", i),
				Text: fmt.Sprintf("context block number %d", i),
				Metadata: models.ChunkMetadata{
					SourceFile: "notes.pdf",
					Page:       i + 10,
				},
			},
			Similarity: 0.9,
			Relevance:  0.8 - float64(i)*0.05,
		}
	}
	return results
}

func TestBuildPrompt_PartitionsContext(t *testing.T) {
	prompt := BuildPrompt("What is a block?", rankedResults(8))

	primaryAt := strings.Index(prompt, "PRIMARY CONTEXT")
	supportingAt := strings.Index(prompt, "SUPPORTING CONTEXT")
	questionAt := strings.Index(prompt, "Student Question: What is a block?")
	if primaryAt < 0 || supportingAt < primaryAt || questionAt < supportingAt {
		t.Fatalf("prompt sections out of order:\n%s", prompt)
	}

	primary := prompt[primaryAt:supportingAt]
	supporting := prompt[supportingAt:questionAt]
	for i := 0; i < 3; i++ {
		if !strings.Contains(primary, fmt.Sprintf("context block number %d", i)) {
			t.Errorf("primary context missing block %d", i)
		}
	}
	for i := 3; i < 6; i++ {
		if !strings.Contains(supporting, fmt.Sprintf("context block number %d", i)) {
			t.Errorf("supporting context missing block %d", i)
		}
	}
	for i := 6; i < 8; i++ {
		if strings.Contains(prompt, fmt.Sprintf("context block number %d", i)) {
			t.Errorf("prompt includes block %d beyond the supporting context", i)
		}
	}
	if !strings.Contains(prompt, "[notes.pdf, page 10]") {
		t.Error("prompt should label chunks with source and page")
	}
}

func TestBuildPrompt_GroundingInstructions(t *testing.T) {
	prompt := BuildPrompt("q", rankedResults(1))

	for _, want := range []string{
		"Answer ONLY based on the provided educational context",
		"clearly state this",
		"page references",
		"Do NOT add information not present in the context",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing instruction %q", want)
		}
	}
	if !strings.Contains(prompt, "SUPPORTING CONTEXT (Additional Information):\n(none)") {
		t.Error("empty supporting context should be marked")
	}
}

func TestCompose(t *testing.T) {
	gen := &fakeGenerator{reply: "  A block is a unit of storage (page 10).  "}
	c := NewComposer(gen)

	comp, err := c.Compose(context.Background(), "What is a block?", rankedResults(8))
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if comp.Answer != "A block is a unit of storage (page 10)." {
		t.Errorf("Answer = %q", comp.Answer)
	}
	if len(comp.Used) != 6 {
		t.Errorf("Used = %d chunks, want 6", len(comp.Used))
	}
	if gen.callCount() != 1 {
		t.Errorf("generator called %d times, want 1", gen.callCount())
	}
}

func TestCompose_GeneratorFailure(t *testing.T) {
	c := NewComposer(&fakeGenerator{err: errServiceDown})

	comp, err := c.Compose(context.Background(), "q", rankedResults(2))
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("Compose() error = %v, want ErrServiceUnavailable", err)
	}
	if len(comp.Used) != 2 {
		t.Errorf("Used = %d, want the supplied chunks on failure", len(comp.Used))
	}
}
