// ABOUTME: Confidence scoring for composed answers
// ABOUTME: Weighs retrieval relevance, query coverage, completeness, and terminology use
package core

import (
	"strings"

	"github.com/harper/edurag/internal/models"
)

const (
	// RelevanceConfidenceWeight scales mean relevance of the chunks used
	RelevanceConfidenceWeight = 0.6
	// AlignmentWeight scales the fraction of query tokens present in the answer
	AlignmentWeight = 0.2
	// CompletenessWeight is added for a substantive, unhedged answer
	CompletenessWeight = 0.1
	// TerminologyWeight scales the fraction of terminology found in the answer
	TerminologyWeight = 0.1
	// CompleteAnswerLength is the length in characters an answer must exceed to count as complete
	CompleteAnswerLength = 100
)

// ConfidenceScorer rates how well an answer is supported
type ConfidenceScorer struct {
	vocab *Vocabulary
}

// NewConfidenceScorer creates a ConfidenceScorer
func NewConfidenceScorer(vocab *Vocabulary) *ConfidenceScorer {
	return &ConfidenceScorer{vocab: vocab}
}

// Score returns a value in [0,1]. It is 0 exactly when used is empty.
func (s *ConfidenceScorer) Score(query, answer string, used []models.RetrievalResult) float64 {
	if len(used) == 0 {
		return 0
	}

	var sum float64
	for _, r := range used {
		sum += r.Relevance
	}
	confidence := RelevanceConfidenceWeight * (sum / float64(len(used)))

	lower := strings.ToLower(answer)
	confidence += AlignmentWeight * overlap(tokenSet(query), tokenSet(lower))

	if charCount(answer) > CompleteAnswerLength && !containsAny(lower, s.vocab.hedgePhrases) {
		confidence += CompletenessWeight
	}

	terms := s.vocab.terminology
	confidence += TerminologyWeight * float64(countContained(lower, terms)) / float64(len(terms))

	return clamp01(confidence)
}
