// ABOUTME: Composer builds a grounded prompt from ranked chunks and asks the generator for an answer
// ABOUTME: The prompt restricts the model to the supplied context and asks for page references
package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/harper/edurag/internal/models"
)

const (
	// PrimaryContextSize is how many top-ranked chunks form the primary context
	PrimaryContextSize = 3
	// SupportingContextSize is how many following chunks form the supporting context
	SupportingContextSize = 3
)

const answerInstructions = `INSTRUCTIONS FOR ACCURATE RESPONSE:
1. Answer ONLY based on the provided educational context above
2. If the context doesn't contain sufficient information, clearly state this
3. Use specific details and examples from the context when available
4. Structure your response clearly with bullet points or numbered lists when appropriate
5. Use educational language appropriate for academic learning
6. If you mention concepts, provide brief definitions from the context
7. Include relevant page references when discussing specific points
8. If the question asks for examples, provide them from the context
9. If the question asks for definitions, use exact wording from the materials when possible
10. Do NOT add information not present in the context`

// Composition is the generated answer and the chunks that were put in the prompt
type Composition struct {
	Answer string
	Used   []models.RetrievalResult
}

// Composer turns ranked chunks into an answer
type Composer struct {
	generator Generator
}

// NewComposer creates a Composer
func NewComposer(generator Generator) *Composer {
	return &Composer{generator: generator}
}

// Compose asks the generator to answer query from results, which must be
// ordered by descending relevance. On failure Used still lists the supplied chunks.
func (c *Composer) Compose(ctx context.Context, query string, results []models.RetrievalResult) (Composition, error) {
	used := results[:min(len(results), PrimaryContextSize+SupportingContextSize)]
	comp := Composition{Used: used}

	answer, err := c.generator.Generate(ctx, BuildPrompt(query, used))
	if err != nil {
		return comp, serviceError("generation", "compose", err)
	}

	comp.Answer = strings.TrimSpace(answer)
	return comp, nil
}

// BuildPrompt assembles the primary and supporting context blocks around the question
func BuildPrompt(query string, results []models.RetrievalResult) string {
	primary := results[:min(len(results), PrimaryContextSize)]
	supporting := results[len(primary):min(len(results), PrimaryContextSize+SupportingContextSize)]

	var sb strings.Builder
	sb.WriteString("You are an expert educational assistant helping students learn from their course materials.\n\n")

	sb.WriteString("PRIMARY CONTEXT (Most Relevant):\n")
	writeContext(&sb, primary)

	sb.WriteString("SUPPORTING CONTEXT (Additional Information):\n")
	writeContext(&sb, supporting)

	sb.WriteString(fmt.Sprintf("Student Question: %s\n\n", query))
	sb.WriteString(answerInstructions)
	sb.WriteString("\n\nEducational Response:\n")

	return sb.String()
}

func writeContext(sb *strings.Builder, results []models.RetrievalResult) {
	if len(results) == 0 {
		sb.WriteString("(none)\n\n")
		return
	}
	for _, r := range results {
		m := r.Chunk.Metadata
		sb.WriteString(fmt.Sprintf("[%s, page %d]\n%s\n\n", m.SourceFile, m.Page, r.Chunk.Text))
	}
}
