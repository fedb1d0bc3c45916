// ABOUTME: Classifier decides whether a query is educational before any retrieval happens
// ABOUTME: Rule-based scoring first, then a lenient AI check for queries the rules cannot place
package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/harper/edurag/internal/logging"
	"github.com/harper/edurag/internal/models"
)

const (
	// AcceptScoreThreshold is the total score at which a query is accepted outright
	AcceptScoreThreshold = 2.0
	// ContextWeight multiplies the count of academic context indicators
	ContextWeight = 1.5
	// QuestionPatternBonus is added when the query has a question form
	QuestionPatternBonus = 1.5
)

const aiValidationPrompt = `Analyze this query and determine if it's educational/academic in nature:

Query: %q

Educational queries include:
- Questions about concepts, theories, definitions, processes
- Academic subjects and learning topics (including technical topics)
- How-to questions related to study/learning/understanding
- Questions about course content, educational materials, or documents
- Questions about systems, methods, procedures, requirements
- Questions about stakeholders, actors, users, roles
- Questions starting with "discuss", "explain", "identify", "establish"
- Any question that seeks to learn or understand something

Be LENIENT - if there's any educational aspect, respond YES.

Respond with ONLY "YES" or "NO" followed by a brief reason.

Response format: YES/NO - reason`

// Classifier judges queries against a Vocabulary
type Classifier struct {
	vocab     *Vocabulary
	generator Generator
	failOpen  bool
	logger    *log.Logger
}

// NewClassifier creates a Classifier. failOpen decides the verdict when the
// scoring or AI check fails internally: true accepts, false rejects.
func NewClassifier(vocab *Vocabulary, generator Generator, failOpen bool, logger *log.Logger) *Classifier {
	return &Classifier{
		vocab:     vocab,
		generator: generator,
		failOpen:  failOpen,
		logger:    logging.OrDiscard(logger),
	}
}

// Classify returns the verdict for a query. It never returns an error; internal
// failures resolve according to the fail-open setting.
func (c *Classifier) Classify(ctx context.Context, query string) models.Verdict {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return models.Verdict{IsEducational: false, Reason: "Empty query"}
	}

	for _, re := range c.vocab.nonEducational {
		if re.MatchString(q) {
			return models.Verdict{IsEducational: false, Reason: "Non-educational pattern detected"}
		}
	}

	verdict, err := c.score(ctx, q)
	if err != nil {
		c.logger.Error("query validation failed", "err", err, "fail_open", c.failOpen)
		if c.failOpen {
			return models.Verdict{IsEducational: true, Reason: "Validation error - defaulting to educational"}
		}
		return models.Verdict{IsEducational: false, Reason: "Validation error - rejecting query"}
	}
	return verdict
}

// score runs the rule-based and AI steps, converting panics into errors
func (c *Classifier) score(ctx context.Context, q string) (verdict models.Verdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()

	educational := 0
	var matched []string
	for _, cat := range c.vocab.categories {
		hits := countContained(q, cat.Keywords)
		if hits > 0 {
			educational += hits
			matched = append(matched, cat.Name)
		}
	}

	contextScore := countContained(q, c.vocab.contextIndicators)

	hasQuestion := false
	for _, re := range c.vocab.questionPatterns {
		if re.MatchString(q) {
			hasQuestion = true
			break
		}
	}

	total := float64(educational) + ContextWeight*float64(contextScore)
	if hasQuestion {
		total += QuestionPatternBonus
	}

	if total >= AcceptScoreThreshold || len(matched) > 0 || contextScore > 0 || hasQuestion || educational > 0 {
		return models.Verdict{
			IsEducational: true,
			Reason:        fmt.Sprintf("Educational query detected (score: %.1f, categories: %s)", total, strings.Join(matched, ", ")),
			Score:         total,
			Categories:    matched,
		}, nil
	}

	return c.aiValidate(ctx, q, total)
}

func (c *Classifier) aiValidate(ctx context.Context, q string, total float64) (models.Verdict, error) {
	if c.generator == nil {
		return models.Verdict{}, fmt.Errorf("no generator configured for AI validation")
	}

	reply, err := c.generator.Generate(ctx, fmt.Sprintf(aiValidationPrompt, q))
	if err != nil {
		return models.Verdict{}, fmt.Errorf("AI validation: %w", err)
	}

	if strings.HasPrefix(strings.TrimSpace(reply), "YES") {
		return models.Verdict{IsEducational: true, Reason: "AI validated as educational", Score: total}, nil
	}
	if containsAny(q, c.vocab.questionWords) {
		return models.Verdict{IsEducational: true, Reason: "Lenient validation - contains educational question words", Score: total}, nil
	}
	return models.Verdict{IsEducational: false, Reason: "AI determined non-educational", Score: total}, nil
}
