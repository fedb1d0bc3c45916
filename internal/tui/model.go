// ABOUTME: Bubble Tea chat model for asking questions about the knowledge base
// ABOUTME: Questions run asynchronously; each answer is shown with its sources and confidence
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harper/edurag/internal/models"
)

// Answerer is the TUI-facing subset of the pipeline
type Answerer interface {
	AnswerQuery(ctx context.Context, query string) models.ComposedResponse
}

type exchange struct {
	question string
	response models.ComposedResponse
}

type answerMsg exchange

// Model is the Bubble Tea model for the chat session
type Model struct {
	ctx      context.Context
	answerer Answerer
	input    textinput.Model
	viewport viewport.Model
	history  []exchange
	summary  string
	status   string
	pending  string
	ready    bool
}

// New creates a chat model. summary is shown under the header.
func New(ctx context.Context, answerer Answerer, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your course materials and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		ctx:      ctx,
		answerer: answerer,
		input:    ti,
		viewport: viewport.New(0, 0),
		summary:  summary,
		status:   "Ready. Esc or Ctrl+C to quit.",
	}
}

// Run starts the chat session on the terminal and blocks until the user quits
func Run(ctx context.Context, answerer Answerer, summary string) error {
	_, err := tea.NewProgram(New(ctx, answerer, summary), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// Init starts the cursor blink
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window, and answer events
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptStyle.GetFrameSize()
		_, ih := inputStyle.GetFrameSize()
		reserved := 2 + 1 + ih + 1 // header and summary, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-th)
		m.refresh()
		return m, nil

	case answerMsg:
		m.history = append(m.history, exchange(msg))
		m.pending = ""
		m.status = fmt.Sprintf("%s (confidence %.2f)", stateLabel(msg.response.State), msg.response.Confidence)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.pending != "" {
				return m, nil
			}
			m.pending = q
			m.input.Reset()
			m.status = "Thinking..."
			m.refresh()
			return m, m.ask(q)
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(q string) tea.Cmd {
	return func() tea.Msg {
		return answerMsg{question: q, response: m.answerer.AnswerQuery(m.ctx, q)}
	}
}

// View renders the header, transcript, input, and status line
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("edurag chat")
	summary := mutedStyle.Render(m.summary)
	transcript := transcriptStyle.Render(m.viewport.View())
	input := inputStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + summary + "\n" + transcript + "\n" + input + "\n" + status
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	if len(m.history) == 0 && m.pending == "" {
		return mutedStyle.Render("No questions yet.")
	}

	var sb strings.Builder
	for _, ex := range m.history {
		sb.WriteString(questionStyle.Render("You: " + ex.question))
		sb.WriteString("\n")
		sb.WriteString(ex.response.Answer)
		sb.WriteString("\n")
		if len(ex.response.Sources) > 0 {
			sb.WriteString(mutedStyle.Render("Sources: " + formatSources(ex.response.Sources)))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	if m.pending != "" {
		sb.WriteString(questionStyle.Render("You: " + m.pending))
		sb.WriteString("\n")
		sb.WriteString(mutedStyle.Render("..."))
	}
	return sb.String()
}

func formatSources(sources []models.Citation) string {
	parts := make([]string, len(sources))
	for i, s := range sources {
		parts[i] = fmt.Sprintf("%s p.%d", s.SourceFile, s.Page)
	}
	return strings.Join(parts, ", ")
}

func stateLabel(state models.QueryState) string {
	switch state {
	case models.StateScored:
		return "Answered"
	case models.StateRejected:
		return "Out of scope"
	case models.StateNoContent:
		return "Nothing relevant found"
	case models.StateError:
		return "Something went wrong"
	default:
		return string(state)
	}
}

var (
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	mutedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)
