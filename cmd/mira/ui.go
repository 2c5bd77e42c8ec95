package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	orchestration "github.com/miralabs/mira-core/core"
	"github.com/miralabs/mira-core/core/events"
)

type sessionEventMsg struct {
	event events.Event
}

type transcriptEntry struct {
	speaker string
	text    string
}

var (
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	interimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	barStyle       = lipgloss.NewStyle().Background(lipgloss.Color("236")).Foreground(lipgloss.Color("252")).Padding(0, 1)
	flagStyle      = lipgloss.NewStyle().Background(lipgloss.Color("160")).Foreground(lipgloss.Color("231")).Padding(0, 1)
)

type model struct {
	orchestrator *orchestration.Orchestrator

	viewport  viewport.Model
	promptBox textinput.Model

	entries         []transcriptEntry
	interim         string
	currentResponse string

	typing bool
	paused bool

	width  int
	height int
	ready  bool
}

func newModel(orchestrator *orchestration.Orchestrator) model {
	promptBox := textinput.New()
	promptBox.Placeholder = "Type a prompt and press enter..."
	promptBox.CharLimit = 512

	return model{
		orchestrator: orchestrator,
		promptBox:    promptBox,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		contentHeight := msg.Height - 3
		if contentHeight < 1 {
			contentHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, contentHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = contentHeight
		}
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case sessionEventMsg:
		m.handleSessionEvent(msg.event)
		m.refreshViewport()
		return m, nil
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.typing {
		switch msg.String() {
		case "esc":
			m.typing = false
			m.promptBox.Blur()
			return m, nil
		case "enter":
			prompt := strings.TrimSpace(m.promptBox.Value())
			m.promptBox.Reset()
			m.typing = false
			m.promptBox.Blur()
			if prompt != "" {
				if err := m.orchestrator.SendPrompt(prompt); err != nil {
					m.appendStatus(fmt.Sprintf("prompt dropped: %v", err))
				}
			}
			return m, nil
		}

		var cmd tea.Cmd
		m.promptBox, cmd = m.promptBox.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.orchestrator.Close(context.Background())
		return m, tea.Quit
	case " ":
		if m.paused {
			m.orchestrator.UnpauseTurn()
		} else {
			m.orchestrator.PauseTurn()
		}
		m.paused = !m.paused
		return m, nil
	case "m":
		if m.orchestrator.IsMuted() {
			m.orchestrator.Unmute()
		} else {
			m.orchestrator.Mute()
		}
		return m, nil
	case "c":
		m.orchestrator.CancelTurn()
		return m, nil
	case "i":
		m.typing = true
		return m, m.promptBox.Focus()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *model) handleSessionEvent(event events.Event) {
	switch event := event.(type) {
	case events.UserTranscriptInterimUpdated:
		m.interim = event.Transcript
	case events.UserTranscriptFinal:
		m.interim = ""
		m.entries = append(m.entries, transcriptEntry{speaker: "you", text: event.Transcript})
	case events.UserPromptSubmitted:
		m.entries = append(m.entries, transcriptEntry{speaker: "you", text: event.Prompt})
	case events.AssistantResponseSegment:
		m.currentResponse += event.Segment
	case events.AssistantResponseFinal:
		if event.Response != "" {
			m.entries = append(m.entries, transcriptEntry{speaker: "mira", text: event.Response})
		}
		m.currentResponse = ""
	case events.TurnCancelled:
		m.currentResponse = ""
		m.paused = false
		if event.Spoken != "" {
			m.appendStatus(fmt.Sprintf("interrupted after: %q", event.Spoken))
		} else {
			m.appendStatus("interrupted")
		}
	case events.TurnCompleted:
		m.paused = false
	case events.TurnFailed:
		m.currentResponse = ""
		m.paused = false
		m.appendStatus(fmt.Sprintf("turn failed: %v", event.Cause))
	case events.LinkDegraded:
		m.appendStatus(fmt.Sprintf("transcription link degraded (%d consecutive errors), reconnecting", event.ConsecutiveErrors))
	case events.LinkReconnected:
		m.appendStatus(fmt.Sprintf("transcription link restored after %d attempts", event.Attempts))
	case events.SessionError:
		m.appendStatus(fmt.Sprintf("session error: %v", event.Cause))
	}
}

func (m *model) appendStatus(text string) {
	m.entries = append(m.entries, transcriptEntry{speaker: "status", text: text})
}

func (m *model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.viewport.Width
	if width < 10 {
		width = 10
	}

	lines := make([]string, 0, len(m.entries)+2)
	for _, entry := range m.entries {
		var label string
		switch entry.speaker {
		case "you":
			label = userStyle.Render("you ")
		case "mira":
			label = assistantStyle.Render("mira ")
		default:
			label = statusStyle.Render("· ")
		}
		lines = append(lines, label+wordwrap.String(entry.text, width-6))
	}
	if m.currentResponse != "" {
		lines = append(lines, assistantStyle.Render("mira ")+wordwrap.String(m.currentResponse, width-6))
	}
	if m.interim != "" {
		lines = append(lines, interimStyle.Render("you "+wordwrap.String(m.interim, width-6)))
	}

	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

func (m model) View() string {
	if !m.ready {
		return "starting..."
	}

	inputLine := statusStyle.Render("space pause · m mute · c cancel · i prompt · q quit")
	if m.typing {
		inputLine = m.promptBox.View()
	}

	return m.viewport.View() + "\n" + inputLine + "\n" + m.statusBar()
}

func (m model) statusBar() string {
	state := m.orchestrator.State().String()
	if m.orchestrator.IsSpeaking() {
		state = "speaking"
	}

	segments := []string{barStyle.Render("mira"), barStyle.Render(state)}
	if m.orchestrator.IsMuted() {
		segments = append(segments, flagStyle.Render("muted"))
	}
	if m.paused {
		segments = append(segments, flagStyle.Render("paused"))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, segments...)
}
