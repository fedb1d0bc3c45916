// ABOUTME: Test scenario data structures for RAGAS benchmarks
// ABOUTME: Each scenario ingests course documents, asks one question, and states the expected outcome

package ragas

import "github.com/harper/edurag/internal/models"

// TestScenario represents a complete RAGAS benchmark test
type TestScenario struct {
	ID          string
	Name        string
	Description string
	Documents   []Document
	Query       string
	GroundTruth GroundTruth
}

// Document is a course file ingested before the query runs
type Document struct {
	Source string
	Pages  []string
}

// pages numbers the document's page texts from 1
func (d Document) pages() []models.Page {
	out := make([]models.Page, len(d.Pages))
	for i, text := range d.Pages {
		out[i] = models.Page{Number: i + 1, Text: text}
	}
	return out
}

// GroundTruth defines expected outcomes for RAGAS evaluation
type GroundTruth struct {
	ExpectedState       models.QueryState
	ExpectedInResponse  []string // Strings that MUST appear in response
	ForbiddenInResponse []string // Strings that MUST NOT appear in response

	// Text that should show up in the cited chunk previews
	ExpectedContextItems []string
	// Source files the answer should cite
	ExpectedSources []string
}

// TestResult represents the outcome of a benchmark test
type TestResult struct {
	TestID             string                 `json:"test_id"`
	TestName           string                 `json:"test_name"`
	State              models.QueryState      `json:"state"`
	FaithfulnessScore  float64                `json:"faithfulness_score"`
	ContextRecallScore float64                `json:"context_recall_score"`
	SourceScore        float64                `json:"source_score"`
	OverallScore       float64                `json:"overall_score"`
	Status             string                 `json:"status"` // "PASS" or "FAIL"
	Details            map[string]interface{} `json:"details"`
	ErrorMessage       string                 `json:"error_message,omitempty"`
}

var (
	oopDocument = Document{
		Source: "oop_lecture.pdf",
		Pages: []string{
			"Inheritance is a fundamental concept in object-oriented programming. " +
				"A subclass inherits fields and methods from its superclass, for example a Dog class inherits from an Animal class. " +
				"Inheritance promotes code reuse and models an is-a relationship between types.",
			"Polymorphism is the principle that one interface can have many implementations. " +
				"A method call on a base class reference runs the override defined by the concrete subclass at runtime. " +
				"Polymorphism depends on inheritance or interface implementation.",
		},
	}

	biologyDocument = Document{
		Source: "biology_notes.pdf",
		Pages: []string{
			"Photosynthesis is the process by which green plants convert light energy into chemical energy. " +
				"It takes place in the chloroplasts, where chlorophyll absorbs sunlight and produces glucose and oxygen from carbon dioxide and water.",
		},
	}
)

// GetGroundedInheritance asks a question answered by one document among several
func GetGroundedInheritance() TestScenario {
	return TestScenario{
		ID:          "grounded",
		Name:        "Grounded answer from the relevant document",
		Description: "Answer must come from the OOP lecture and must not drift into the biology notes",
		Documents:   []Document{oopDocument, biologyDocument},
		Query:       "What is inheritance in object-oriented programming?",
		GroundTruth: GroundTruth{
			ExpectedState:        models.StateScored,
			ExpectedInResponse:   []string{"inheritance", "subclass"},
			ForbiddenInResponse:  []string{"photosynthesis", "chloroplast"},
			ExpectedContextItems: []string{"inherits from an Animal class"},
			ExpectedSources:      []string{"oop_lecture.pdf"},
		},
	}
}

// GetGroundedPhotosynthesis checks retrieval picks the second subject correctly
func GetGroundedPhotosynthesis() TestScenario {
	return TestScenario{
		ID:          "biology",
		Name:        "Grounded answer from a second subject",
		Description: "A biology question over a mixed knowledge base cites the biology notes",
		Documents:   []Document{oopDocument, biologyDocument},
		Query:       "How does photosynthesis convert light energy in plants?",
		GroundTruth: GroundTruth{
			ExpectedState:        models.StateScored,
			ExpectedInResponse:   []string{"photosynthesis", "chloroplasts"},
			ForbiddenInResponse:  []string{"subclass"},
			ExpectedContextItems: []string{"chlorophyll absorbs sunlight"},
			ExpectedSources:      []string{"biology_notes.pdf"},
		},
	}
}

// GetOffTopicRefusal asks a non-educational question that must be refused
func GetOffTopicRefusal() TestScenario {
	return TestScenario{
		ID:          "offtopic",
		Name:        "Off-topic query refused",
		Description: "Entertainment questions are rejected before retrieval and cite nothing",
		Documents:   []Document{oopDocument},
		Query:       "Which movie should I watch this weekend?",
		GroundTruth: GroundTruth{
			ExpectedState:       models.StateRejected,
			ExpectedInResponse:  []string{"educational"},
			ForbiddenInResponse: []string{"inheritance", "subclass"},
		},
	}
}

// GetEmptyKnowledgeBase asks a valid question before anything was ingested
func GetEmptyKnowledgeBase() TestScenario {
	return TestScenario{
		ID:          "empty",
		Name:        "No content in an empty knowledge base",
		Description: "An educational question with nothing ingested gets the no-content message",
		Query:       "What is polymorphism?",
		GroundTruth: GroundTruth{
			ExpectedState:       models.StateNoContent,
			ExpectedInResponse:  []string{"couldn't find relevant information"},
			ForbiddenInResponse: []string{"polymorphism is"},
		},
	}
}

// GetAllTests returns every benchmark scenario
func GetAllTests() []TestScenario {
	return []TestScenario{
		GetGroundedInheritance(),
		GetGroundedPhotosynthesis(),
		GetOffTopicRefusal(),
		GetEmptyKnowledgeBase(),
	}
}

// GetTest returns the scenario with the given ID
func GetTest(id string) (TestScenario, bool) {
	for _, s := range GetAllTests() {
		if s.ID == id {
			return s, true
		}
	}
	return TestScenario{}, false
}
