// ABOUTME: Tests for vocabulary defaults and YAML overrides
// ABOUTME: Verifies sections layer over defaults and bad patterns are reported
package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultVocabulary(t *testing.T) {
	v := DefaultVocabulary()

	if len(v.rankingIndicators) != 15 {
		t.Errorf("ranking indicators = %d, want 15", len(v.rankingIndicators))
	}
	if len(v.terminology) != 10 {
		t.Errorf("terminology = %d, want 10", len(v.terminology))
	}
	if len(v.categories) != 10 {
		t.Errorf("categories = %d, want 10", len(v.categories))
	}
	if len(v.nonEducational) != 6 {
		t.Errorf("non-educational patterns = %d, want 6", len(v.nonEducational))
	}
}

func TestParseVocabulary_OverridesSections(t *testing.T) {
	v, err := ParseVocabulary([]byte(`
context_indicators: [bcs601, cloud]
hedge_phrases: ["not covered"]
`))
	if err != nil {
		t.Fatalf("ParseVocabulary() error = %v", err)
	}

	if len(v.contextIndicators) != 2 || v.contextIndicators[0] != "bcs601" {
		t.Errorf("contextIndicators = %v", v.contextIndicators)
	}
	if len(v.hedgePhrases) != 1 {
		t.Errorf("hedgePhrases = %v", v.hedgePhrases)
	}
	// untouched sections keep defaults
	if len(v.rankingIndicators) != 15 {
		t.Errorf("rankingIndicators = %d, want default 15", len(v.rankingIndicators))
	}
}

func TestParseVocabulary_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "categories: [unclosed"},
		{"bad regex", "non_educational_patterns: ['(unclosed']"},
		{"bad question regex", "question_patterns: ['[z-a]']"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseVocabulary([]byte(tt.data)); err == nil {
				t.Error("ParseVocabulary() should fail")
			}
		})
	}
}

func TestLoadVocabulary(t *testing.T) {
	v, err := LoadVocabulary("")
	if err != nil {
		t.Fatalf("LoadVocabulary(\"\") error = %v", err)
	}
	if v == nil {
		t.Fatal("LoadVocabulary(\"\") returned nil")
	}

	path := filepath.Join(t.TempDir(), "vocab.yaml")
	if err := os.WriteFile(path, []byte("question_words: [derive]\n"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	v, err = LoadVocabulary(path)
	if err != nil {
		t.Fatalf("LoadVocabulary() error = %v", err)
	}
	if len(v.questionWords) != 1 || v.questionWords[0] != "derive" {
		t.Errorf("questionWords = %v", v.questionWords)
	}

	if _, err := LoadVocabulary(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadVocabulary() on missing file should fail")
	}
}

func TestVocabularyIsolatedFromDefaults(t *testing.T) {
	a := DefaultVocabulary()
	a.terminology[0] = "mutated"

	b := DefaultVocabulary()
	if b.terminology[0] == "mutated" {
		t.Error("DefaultVocabulary() instances share backing arrays")
	}
}
