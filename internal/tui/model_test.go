// ABOUTME: Tests for the chat model's update loop with a fake answerer
package tui

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harper/edurag/internal/models"
)

type fakeAnswerer struct {
	mu      sync.Mutex
	queries []string
}

func (f *fakeAnswerer) AnswerQuery(ctx context.Context, query string) models.ComposedResponse {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	return models.ComposedResponse{
		Answer:     "Mitosis produces two identical cells.",
		Sources:    []models.Citation{{SourceFile: "bio.pdf", Page: 7}},
		Confidence: 0.72,
		State:      models.StateScored,
	}
}

func readyModel(t *testing.T, answerer Answerer) Model {
	t.Helper()
	m := New(context.Background(), answerer, "2 documents")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return updated.(Model)
}

func TestModel_AskAndAnswer(t *testing.T) {
	answerer := &fakeAnswerer{}
	m := readyModel(t, answerer)
	m.input.SetValue("What is mitosis?")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("Enter should return a command")
	}
	if m.pending != "What is mitosis?" || m.input.Value() != "" {
		t.Errorf("pending = %q, input = %q", m.pending, m.input.Value())
	}

	msg := cmd()
	updated, _ = m.Update(msg)
	m = updated.(Model)

	if len(m.history) != 1 || m.pending != "" {
		t.Fatalf("history = %d, pending = %q", len(m.history), m.pending)
	}
	view := m.View()
	for _, want := range []string{"What is mitosis?", "Mitosis produces two identical cells.", "bio.pdf p.7", "Answered"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestModel_IgnoresEnterWhileBusyOrEmpty(t *testing.T) {
	m := readyModel(t, &fakeAnswerer{})

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("Enter on empty input should do nothing")
	}

	m.pending = "first"
	m.input.SetValue("second")
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("Enter while a question is pending should do nothing")
	}
}

func TestModel_Quit(t *testing.T) {
	m := readyModel(t, &fakeAnswerer{})
	for _, key := range []tea.KeyType{tea.KeyCtrlC, tea.KeyEsc} {
		_, cmd := m.Update(tea.KeyMsg{Type: key})
		if cmd == nil {
			t.Fatalf("key %v should quit", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("key %v did not quit", key)
		}
	}
}

func TestModel_ViewBeforeReady(t *testing.T) {
	m := New(context.Background(), &fakeAnswerer{}, "")
	if m.View() != "Loading..." {
		t.Errorf("View() = %q", m.View())
	}
}

func TestStateLabel(t *testing.T) {
	tests := map[models.QueryState]string{
		models.StateScored:    "Answered",
		models.StateRejected:  "Out of scope",
		models.StateNoContent: "Nothing relevant found",
		models.StateError:     "Something went wrong",
	}
	for state, want := range tests {
		if got := stateLabel(state); got != want {
			t.Errorf("stateLabel(%s) = %q, want %q", state, got, want)
		}
	}
}
