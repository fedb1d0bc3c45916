// ABOUTME: Query lifecycle models: classifier verdicts and pipeline states
// ABOUTME: Each answered query ends in exactly one terminal state
package models

// Verdict is the classifier's decision about a query
type Verdict struct {
	IsEducational bool     `json:"is_educational"`
	Reason        string   `json:"reason"`
	Score         float64  `json:"score"`
	Categories    []string `json:"categories,omitempty"`
}

// QueryState tracks a query through the answering pipeline
type QueryState string

const (
	StateReceived  QueryState = "RECEIVED"
	StateRejected  QueryState = "REJECTED"
	StateValidated QueryState = "VALIDATED"
	StateNoContent QueryState = "NO_CONTENT"
	StateRetrieved QueryState = "RETRIEVED"
	StateComposed  QueryState = "COMPOSED"
	StateScored    QueryState = "SCORED"
	StateError     QueryState = "ERROR"
)

// IsValid checks if the state is a known pipeline state
func (s QueryState) IsValid() bool {
	switch s {
	case StateReceived, StateRejected, StateValidated, StateNoContent,
		StateRetrieved, StateComposed, StateScored, StateError:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible
func (s QueryState) IsTerminal() bool {
	switch s {
	case StateRejected, StateNoContent, StateScored, StateError:
		return true
	default:
		return false
	}
}

var transitions = map[QueryState][]QueryState{
	StateReceived:  {StateRejected, StateValidated, StateError},
	StateValidated: {StateNoContent, StateRetrieved, StateError},
	StateRetrieved: {StateComposed, StateError},
	StateComposed:  {StateScored, StateError},
}

// CanTransition reports whether next may follow s
func (s QueryState) CanTransition(next QueryState) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
