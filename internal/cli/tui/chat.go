package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"

	"github.com/Bluenyg/BuptManus/internal/cli/client"
	"github.com/Bluenyg/BuptManus/internal/cli/ui"
	"github.com/Bluenyg/BuptManus/internal/message"
	"github.com/Bluenyg/BuptManus/internal/session"
)

// UI configuration constants
const (
	defaultInputWidth      = 100
	defaultViewportWidth   = 100
	defaultViewportHeight  = 30
	defaultWindowWidth     = 100
	defaultWindowHeight    = 40
	inputCharLimit         = 4000
	inputHeightReserved    = 2
	statusHeightReserved   = 3
	minContentHeight       = 10
	sessionIDDisplayLength = 8
)

var (
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
)

// streamState represents the state of the in-flight turn
type streamState int

const (
	streamIdle streamState = iota
	streamStreaming
)

// ChatProgram encapsulates the chat TUI program
type ChatProgram struct {
	model chatModel
}

// NewChatProgram creates a new chat program instance. The store must already
// have a current session.
func NewChatProgram(store *session.Store, apiClient *client.APIClient, opts session.Options) *ChatProgram {
	return &ChatProgram{model: initialModel(store, apiClient, opts)}
}

// Run starts the chat TUI program
func (p *ChatProgram) Run() error {
	program := tea.NewProgram(p.model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

// chatModel is the Bubble Tea model containing all chat interface state
type chatModel struct {
	// Dependencies
	store     *session.Store
	apiClient *client.APIClient
	opts      session.Options

	// UI components
	input       textinput.Model
	contentView viewport.Model

	// Turn state
	state streamState
	turn  *session.Turn

	// Error state
	err error

	// Window dimensions
	width  int
	height int
}

// initialModel creates the initial chat model
func initialModel(store *session.Store, apiClient *client.APIClient, opts session.Options) chatModel {
	input := textinput.New()
	input.Placeholder = ""
	input.Focus()
	input.CharLimit = inputCharLimit
	input.Width = defaultInputWidth
	input.Prompt = ""
	input.TextStyle = lipgloss.NewStyle()
	input.PromptStyle = lipgloss.NewStyle()

	contentViewport := viewport.New(defaultViewportWidth, defaultViewportHeight)
	contentViewport.SetContent("")

	m := chatModel{
		store:       store,
		apiClient:   apiClient,
		opts:        opts,
		input:       input,
		contentView: contentViewport,
		state:       streamIdle,
		width:       defaultWindowWidth,
		height:      defaultWindowHeight,
	}
	m.refreshContent()
	return m
}

// Init initializes the model (Bubble Tea interface)
func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

// Message type definitions
type (
	turnStartedMsg struct{ turn *session.Turn }
	turnUpdateMsg  struct{ turn *session.Turn }
	turnDoneMsg    struct{ turn *session.Turn }
	sessionSwitchedMsg struct {
		id  string
		err error
	}
	turnErrMsg struct{ err error }
)

// Update processes messages and updates the model (Bubble Tea interface)
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		var quit bool
		cmds, quit = m.handleKeyPress(msg)
		if quit {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.handleWindowResize(msg)

	case turnStartedMsg:
		m.state = streamStreaming
		m.turn = msg.turn
		m.refreshContent()
		cmds = append(cmds, waitForTurn(msg.turn))

	case turnUpdateMsg:
		if msg.turn == m.turn {
			m.refreshContent()
			cmds = append(cmds, waitForTurn(msg.turn))
		}

	case turnDoneMsg:
		if msg.turn == m.turn {
			m.state = streamIdle
			m.turn = nil
			m.refreshContent()
		}

	case turnErrMsg:
		m.err = msg.err
		m.state = streamIdle
		m.turn = nil
		m.refreshContent()

	case sessionSwitchedMsg:
		m.err = msg.err
		m.state = streamIdle
		m.turn = nil
		m.refreshContent()
	}

	if m.state != streamStreaming {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKeyPress handles keyboard input. The second return value requests
// program exit.
func (m *chatModel) handleKeyPress(msg tea.KeyMsg) ([]tea.Cmd, bool) {
	var cmds []tea.Cmd

	switch msg.Type {
	case tea.KeyCtrlC:
		m.store.CancelActive()
		return nil, true

	case tea.KeyEsc:
		// Esc cancels a streaming turn; when idle it exits
		if m.state == streamStreaming {
			m.store.CancelActive()
			return nil, false
		}
		return nil, true

	case tea.KeyCtrlN:
		cmds = append(cmds, m.newSessionCmd())

	case tea.KeyCtrlS:
		cmds = append(cmds, m.cycleSessionCmd())

	case tea.KeyEnter:
		if m.state != streamStreaming {
			text := strings.TrimSpace(m.input.Value())
			if text != "" {
				m.input.Reset()
				m.err = nil
				cmds = append(cmds, m.sendCmd(text))
			}
		}

	case tea.KeyUp:
		m.contentView.LineUp(1)

	case tea.KeyDown:
		m.contentView.LineDown(1)

	case tea.KeyPgUp:
		m.contentView.ViewUp()

	case tea.KeyPgDown:
		m.contentView.ViewDown()
	}

	return cmds, false
}

// handleWindowResize handles window size changes
func (m *chatModel) handleWindowResize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height

	contentHeight := msg.Height - inputHeightReserved - statusHeightReserved
	if contentHeight < minContentHeight {
		contentHeight = minContentHeight
	}

	m.contentView.Width = msg.Width
	m.contentView.Height = contentHeight
	m.input.Width = msg.Width - 3

	m.refreshContent()
}

// sendCmd starts one streamed turn. The session id is captured here, at send
// time; the store rejects the turn if the user switched away before it fired.
func (m *chatModel) sendCmd(text string) tea.Cmd {
	sessionID := m.store.Current()
	opts := m.opts
	store := m.store
	return func() tea.Msg {
		userMsg := message.Message{
			ID:   uuid.New().String(),
			Role: message.RoleUser,
			Type: message.TypeText,
			Text: text,
		}
		turn, err := store.StartTurn(context.Background(), sessionID, userMsg, opts)
		if err != nil {
			return turnErrMsg{err: err}
		}
		return turnStartedMsg{turn: turn}
	}
}

// waitForTurn waits for the next live update of the in-flight turn
func waitForTurn(t *session.Turn) tea.Cmd {
	return func() tea.Msg {
		select {
		case _, ok := <-t.Updates():
			if !ok {
				return turnDoneMsg{turn: t}
			}
			return turnUpdateMsg{turn: t}
		case <-t.Done():
			return turnDoneMsg{turn: t}
		}
	}
}

// newSessionCmd creates a fresh backend session and switches to it.
func (m *chatModel) newSessionCmd() tea.Cmd {
	store, apiClient := m.store, m.apiClient
	return func() tea.Msg {
		ctx := context.Background()
		created, err := apiClient.CreateSession(ctx)
		if err != nil {
			return sessionSwitchedMsg{err: err}
		}
		if err := store.Switch(ctx, created.ID); err != nil {
			return sessionSwitchedMsg{id: created.ID, err: err}
		}
		return sessionSwitchedMsg{id: created.ID}
	}
}

// cycleSessionCmd switches to the next session after the current one, in
// backend list order, wrapping around.
func (m *chatModel) cycleSessionCmd() tea.Cmd {
	store, apiClient := m.store, m.apiClient
	current := m.store.Current()
	return func() tea.Msg {
		ctx := context.Background()
		sessions, err := apiClient.ListSessions(ctx)
		if err != nil {
			return sessionSwitchedMsg{err: err}
		}
		if len(sessions) == 0 {
			return sessionSwitchedMsg{err: fmt.Errorf("no sessions to switch to")}
		}

		next := sessions[0].ID
		for i, s := range sessions {
			if s.ID == current {
				next = sessions[(i+1)%len(sessions)].ID
				break
			}
		}
		if next == current {
			return sessionSwitchedMsg{id: current}
		}
		if err := store.Switch(ctx, next); err != nil {
			return sessionSwitchedMsg{id: next, err: err}
		}
		return sessionSwitchedMsg{id: next}
	}
}

// refreshContent rebuilds the transcript from committed messages plus the
// live partial result of the in-flight turn.
func (m *chatModel) refreshContent() {
	var b strings.Builder

	for _, msg := range m.store.Messages() {
		b.WriteString(ui.RenderMessage(msg))
		b.WriteString("\n")
	}

	if m.turn != nil {
		snap := m.turn.Snapshot()
		b.WriteString(accentStyle.Render("Agent"))
		b.WriteString("\n")
		if snap.Workflow != nil {
			b.WriteString(ui.RenderWorkflow(snap.Workflow))
		}
		if snap.Text != "" {
			b.WriteString(snap.Text)
			b.WriteString("\n")
		}
		if snap.Err != "" {
			b.WriteString(errorStyle.Render(snap.Err))
			b.WriteString("\n")
		}
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	display := b.String()
	if m.width > 0 {
		display = m.wrapText(display, m.width)
	}

	m.contentView.SetContent(display)
	m.contentView.GotoBottom()
}

// wrapText applies auto-wrapping to text, correctly handling wide character
// widths
func (m *chatModel) wrapText(text string, maxWidth int) string {
	if maxWidth <= 10 {
		return text
	}

	lines := strings.Split(text, "\n")
	var result strings.Builder

	for i, line := range lines {
		if i > 0 {
			result.WriteString("\n")
		}

		// Keep empty lines as-is
		if strings.TrimSpace(line) == "" {
			continue
		}

		result.WriteString(m.wrapLine(line, maxWidth))
	}

	return result.String()
}

// wrapLine wraps a single line of text by display width
func (m *chatModel) wrapLine(line string, maxWidth int) string {
	if runewidth.StringWidth(line) <= maxWidth {
		return line
	}

	var result strings.Builder
	var currentLine strings.Builder
	currentWidth := 0

	for _, r := range line {
		runeW := runewidth.RuneWidth(r)

		if currentWidth+runeW > maxWidth && currentWidth > 0 {
			result.WriteString(currentLine.String())
			result.WriteString("\n")
			currentLine.Reset()
			currentWidth = 0
		}

		currentLine.WriteRune(r)
		currentWidth += runeW
	}

	if currentLine.Len() > 0 {
		result.WriteString(currentLine.String())
	}

	return result.String()
}

// View renders the UI (Bubble Tea interface)
func (m chatModel) View() string {
	sessionID := m.store.Current()
	if len(sessionID) > sessionIDDisplayLength {
		sessionID = sessionID[:sessionIDDisplayLength]
	}
	status := dimStyle.Render(fmt.Sprintf("Session %s", sessionID))
	if m.state == streamStreaming {
		status += dimStyle.Render(" • streaming...")
	}

	content := m.contentView.View()

	var inputView string
	if m.state == streamStreaming {
		inputView = dimStyle.Render("> ") + dimStyle.Render("waiting for response... (Esc to cancel)")
	} else {
		inputView = promptStyle.Render("> ") + m.input.View()
	}

	help := ""
	if m.state != streamStreaming {
		help = dimStyle.Render("Enter send • Ctrl+N new session • Ctrl+S switch • ↑↓ scroll • Esc quit")
	}

	parts := []string{status, "", content, "", inputView}
	if help != "" {
		parts = append(parts, help)
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
