// ABOUTME: Vocabulary holds the keyword and pattern tables used to judge educational text
// ABOUTME: Built once (defaults or a YAML override file) and shared read-only by every component
package core

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category is a named group of educational keywords
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Synonym maps a query term to the expansions appended for embedding
type Synonym struct {
	Term       string   `yaml:"term"`
	Expansions []string `yaml:"expansions"`
}

// Vocabulary is immutable after construction. Components receive a pointer
// and only read from it, so one instance is safely shared across goroutines.
type Vocabulary struct {
	nonEducational        []*regexp.Regexp
	categories            []Category
	contextIndicators     []string
	questionPatterns      []*regexp.Regexp
	questionWords         []string
	pedagogicalIndicators []string
	advertisingTerms      []string
	synonyms              []Synonym
	rankingIndicators     []string
	terminology           []string
	hedgePhrases          []string
}

// vocabularyFile is the on-disk YAML shape. Omitted sections keep their defaults.
type vocabularyFile struct {
	NonEducationalPatterns []string   `yaml:"non_educational_patterns"`
	Categories             []Category `yaml:"categories"`
	ContextIndicators      []string   `yaml:"context_indicators"`
	QuestionPatterns       []string   `yaml:"question_patterns"`
	QuestionWords          []string   `yaml:"question_words"`
	PedagogicalIndicators  []string   `yaml:"pedagogical_indicators"`
	AdvertisingTerms       []string   `yaml:"advertising_terms"`
	Synonyms               []Synonym  `yaml:"synonyms"`
	RankingIndicators      []string   `yaml:"ranking_indicators"`
	Terminology            []string   `yaml:"terminology"`
	HedgePhrases           []string   `yaml:"hedge_phrases"`
}

func defaultVocabularyFile() vocabularyFile {
	return vocabularyFile{
		NonEducationalPatterns: []string{
			`\b(weather|movie|game|sports|celebrity|entertainment)\b`,
			`\b(shopping|buy|sell|price|money|financial)\b`,
			`\b(personal|private|relationship|dating)\b`,
			`\b(politics|political|government|election)\b`,
			`\b(religion|religious|spiritual)\b`,
			`\b(gossip|news|current events)\b`,
		},
		Categories: []Category{
			{"concepts", []string{"concept", "definition", "meaning", "what is", "explain", "describe", "theory", "principle", "idea", "notion"}},
			{"learning", []string{"learn", "study", "understand", "knowledge", "education", "teaching", "instruction", "training"}},
			{"academic", []string{"subject", "course", "module", "chapter", "lesson", "topic", "curriculum", "syllabus", "material", "content"}},
			{"questions", []string{"how", "why", "what", "when", "where", "which", "who", "can you", "tell me", "help me"}},
			{"analysis", []string{"analyze", "compare", "evaluate", "discuss", "examine", "assess", "review", "identify"}},
			{"processes", []string{"process", "method", "procedure", "approach", "technique", "way", "steps", "implementation"}},
			{"systems", []string{"system", "model", "framework", "structure", "design", "architecture", "pattern"}},
			{"requirements", []string{"requirement", "specification", "criteria", "standard", "guideline", "rule"}},
			{"development", []string{"development", "engineering", "analysis", "design", "implementation", "testing"}},
			{"stakeholders", []string{"stakeholder", "user", "client", "customer", "actor", "participant", "role"}},
		},
		ContextIndicators: []string{
			"course", "module", "chapter", "lesson", "syllabus", "curriculum",
			"assignment", "homework", "exam", "test", "quiz", "study",
			"lecture", "notes", "textbook", "material", "content", "document", "pdf",
			"bcs501", "establishing", "groundwork", "stakeholder", "requirement",
			"engineering", "software", "system", "analysis", "design", "model",
			"use case", "actor", "function", "deployment",
		},
		QuestionPatterns: []string{
			`\bwhat\s+(is|are|do|does|can|will|would|about)\b`,
			`\bhow\s+(to|do|does|can|will|would|is|are)\b`,
			`\bwhy\s+(is|are|do|does|did|would)\b`,
			`\bwhen\s+(is|are|do|does|did|will)\b`,
			`\bwhere\s+(is|are|do|does|can)\b`,
			`\bwhich\s+(is|are|do|does|would)\b`,
			`\bexplain\b`,
			`\bdescribe\b`,
			`\bdefine\b`,
			`\bdiscuss\b`,
			`\btell me about\b`,
			`\bcan you\b`,
			`\bhelp me\b`,
			`\bidentify\b`,
			`\bestablish\b`,
			`\blist\b`,
		},
		QuestionWords: []string{"what", "how", "why", "explain", "discuss", "identify", "establish", "stakeholder"},
		PedagogicalIndicators: []string{
			"definition", "concept", "theory", "principle", "method", "algorithm",
			"chapter", "section", "example", "figure", "table", "formula",
			"introduction", "conclusion", "summary", "objective", "learning",
		},
		AdvertisingTerms: []string{"advertisement", "commercial", "sale", "buy now"},
		Synonyms: []Synonym{
			{"definition", []string{"meaning", "explanation"}},
			{"explain", []string{"describe", "clarify"}},
			{"process", []string{"method", "procedure"}},
			{"types", []string{"kinds", "categories"}},
			{"examples", []string{"instances", "cases"}},
			{"principles", []string{"rules", "fundamentals"}},
			{"advantages", []string{"benefits", "pros"}},
			{"disadvantages", []string{"drawbacks", "cons"}},
		},
		RankingIndicators: []string{
			"definition", "concept", "principle", "method", "process",
			"example", "important", "key", "main", "primary", "essential",
			"fundamental", "basic", "advanced", "theory",
		},
		Terminology: []string{
			"concept", "definition", "principle", "method", "process",
			"example", "important", "theory", "practice", "analysis",
		},
		HedgePhrases: []string{"i don't know", "i'm not sure", "unclear", "insufficient information"},
	}
}

// DefaultVocabulary returns the built-in tables
func DefaultVocabulary() *Vocabulary {
	v, err := compileVocabulary(defaultVocabularyFile())
	if err != nil {
		// Built-in patterns always compile.
		panic(fmt.Sprintf("default vocabulary: %v", err))
	}
	return v
}

// LoadVocabulary reads a YAML file whose sections replace the matching defaults.
// An empty path returns DefaultVocabulary.
func LoadVocabulary(path string) (*Vocabulary, error) {
	if path == "" {
		return DefaultVocabulary(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file: %w", err)
	}
	return ParseVocabulary(data)
}

// ParseVocabulary builds a Vocabulary from YAML bytes layered over the defaults
func ParseVocabulary(data []byte) (*Vocabulary, error) {
	var override vocabularyFile
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary file: %w", err)
	}

	merged := defaultVocabularyFile()
	replaceIfSet(&merged.NonEducationalPatterns, override.NonEducationalPatterns)
	replaceIfSet(&merged.ContextIndicators, override.ContextIndicators)
	replaceIfSet(&merged.QuestionPatterns, override.QuestionPatterns)
	replaceIfSet(&merged.QuestionWords, override.QuestionWords)
	replaceIfSet(&merged.PedagogicalIndicators, override.PedagogicalIndicators)
	replaceIfSet(&merged.AdvertisingTerms, override.AdvertisingTerms)
	replaceIfSet(&merged.RankingIndicators, override.RankingIndicators)
	replaceIfSet(&merged.Terminology, override.Terminology)
	replaceIfSet(&merged.HedgePhrases, override.HedgePhrases)
	if len(override.Categories) > 0 {
		merged.Categories = override.Categories
	}
	if len(override.Synonyms) > 0 {
		merged.Synonyms = override.Synonyms
	}

	return compileVocabulary(merged)
}

func replaceIfSet(dst *[]string, src []string) {
	if len(src) > 0 {
		*dst = src
	}
}

func compileVocabulary(f vocabularyFile) (*Vocabulary, error) {
	nonEdu, err := compileAll(f.NonEducationalPatterns)
	if err != nil {
		return nil, fmt.Errorf("non-educational pattern: %w", err)
	}
	questions, err := compileAll(f.QuestionPatterns)
	if err != nil {
		return nil, fmt.Errorf("question pattern: %w", err)
	}
	if len(f.RankingIndicators) == 0 || len(f.Terminology) == 0 {
		return nil, fmt.Errorf("ranking indicators and terminology must not be empty")
	}

	return &Vocabulary{
		nonEducational:        nonEdu,
		categories:            cloneCategories(f.Categories),
		contextIndicators:     clone(f.ContextIndicators),
		questionPatterns:      questions,
		questionWords:         clone(f.QuestionWords),
		pedagogicalIndicators: clone(f.PedagogicalIndicators),
		advertisingTerms:      clone(f.AdvertisingTerms),
		synonyms:              cloneSynonyms(f.Synonyms),
		rankingIndicators:     clone(f.RankingIndicators),
		terminology:           clone(f.Terminology),
		hedgePhrases:          clone(f.HedgePhrases),
	}, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}

func cloneCategories(cs []Category) []Category {
	out := make([]Category, len(cs))
	for i, c := range cs {
		out[i] = Category{Name: c.Name, Keywords: clone(c.Keywords)}
	}
	return out
}

func cloneSynonyms(ss []Synonym) []Synonym {
	out := make([]Synonym, len(ss))
	for i, s := range ss {
		out[i] = Synonym{Term: s.Term, Expansions: clone(s.Expansions)}
	}
	return out
}

// containsAny reports whether text contains any of the terms as a substring
func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// countContained counts how many terms appear in text as substrings
func countContained(text string, terms []string) int {
	n := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			n++
		}
	}
	return n
}
