package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"raglite/internal/service"
	"raglite/internal/watcher"
)

// previewLen is how many runes of a retrieved chunk the result list shows.
const previewLen = 100

// QueryPort is the TUI-facing subset of the engine.
type QueryPort interface {
	Query(ctx context.Context, query string, k int) (*service.QueryResponse, error)
}

// Model is the Bubble Tea model for the interactive query session.
type Model struct {
	engine   QueryPort
	input    textinput.Model
	viewport viewport.Model
	resp     *service.QueryResponse
	changes  <-chan watcher.Event
	entries  int
	topK     int
	status   string
	ready    bool
	stale    bool
}

type sourcesChangedMsg struct{ event watcher.Event }

type watchClosedMsg struct{}

// New creates a new TUI model. changes may be nil when watch mode is off.
func New(engine QueryPort, entries, topK int, changes <-chan watcher.Event) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Enter query (ctrl-d to quit)"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		engine:   engine,
		input:    ti,
		viewport: vp,
		changes:  changes,
		entries:  entries,
		topK:     topK,
		status:   "Index ready. Type a query.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.changes != nil {
		cmds = append(cmds, m.waitForChange())
	}
	return tea.Batch(cmds...)
}

// Update handles key, resize, and source-change events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + qh + 1 // header + summary, input frame, status
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderResponse())
		return m, nil
	case sourcesChangedMsg:
		m.stale = true
		m.status = "Sources changed (" + msg.event.Path + "): index may be stale, restart to rebuild."
		return m, m.waitForChange()
	case watchClosedMsg:
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" {
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			resp, err := m.engine.Query(context.Background(), q, m.topK)
			if err != nil {
				// One failed turn does not end the session.
				m.status = "Error: " + err.Error()
				return m, nil
			}
			m.resp = resp
			m.status = fmt.Sprintf("Answered %q (prompt tokens: %d)", q, resp.PromptTokens)
			m.input.SetValue("")
			m.viewport.SetContent(m.renderResponse())
			m.viewport.GotoTop()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the layout: header, summary, response viewport, input, status.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("raglite")
	summary := summaryStyle.Render(fmt.Sprintf("%d indexed chunks · top-%d retrieval", m.entries, m.topK))
	if m.stale {
		summary += staleStyle.Render("  [stale]")
	}
	body := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + " " + summary + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) renderResponse() string {
	if m.resp == nil {
		return "No queries yet."
	}
	var sb strings.Builder
	sb.WriteString("=== Search Results ===\n")
	if len(m.resp.Results) == 0 {
		sb.WriteString("No results found.\n")
	}
	for _, r := range m.resp.Results {
		sb.WriteString(fmt.Sprintf("%.4f - %q\n", r.Score, preview(r.Text)))
	}
	sb.WriteString("\n=== Prompt ===\n")
	sb.WriteString(m.resp.Prompt)
	sb.WriteString(fmt.Sprintf("\n(prompt tokens: %d)\n", m.resp.PromptTokens))
	sb.WriteString("\n=== Answer ===\n")
	sb.WriteString(m.resp.Answer)
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.changes
		if !ok {
			return watchClosedMsg{}
		}
		return sourcesChangedMsg{event: ev}
	}
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLen {
		return text
	}
	return string(runes[:previewLen])
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	staleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
