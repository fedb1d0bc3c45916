// ABOUTME: QueryExpander appends educational synonyms to a query before it is embedded
// ABOUTME: The expanded text only feeds the embedding; lexical scoring uses the raw query
package core

import "strings"

// MaxSynonymsPerTerm is how many expansions each matched term contributes
const MaxSynonymsPerTerm = 2

const expansionPrefix = "Educational topic: "

// QueryExpander rewrites queries using the Vocabulary synonym table
type QueryExpander struct {
	vocab *Vocabulary
}

// NewQueryExpander creates a QueryExpander
func NewQueryExpander(vocab *Vocabulary) *QueryExpander {
	return &QueryExpander{vocab: vocab}
}

// Expand returns "Educational topic: <query> <synonyms...>"
func (e *QueryExpander) Expand(query string) string {
	lower := strings.ToLower(query)
	terms := []string{query}

	for _, syn := range e.vocab.synonyms {
		if !strings.Contains(lower, syn.Term) {
			continue
		}
		n := min(MaxSynonymsPerTerm, len(syn.Expansions))
		terms = append(terms, syn.Expansions[:n]...)
	}

	return expansionPrefix + strings.Join(terms, " ")
}
