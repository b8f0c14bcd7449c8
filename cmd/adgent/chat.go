package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// runChat wires the agent and hands the terminal to the chat TUI.
func runChat(ctx context.Context) error {
	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.shutdown()

	p := tea.NewProgram(newChatModel(a), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

type chatMessage struct {
	role    string // "user", "assistant", "notice"
	content string
}

// replyMsg carries one agent response back into the update loop.
type replyMsg struct {
	text string
	err  error
}

type chatModel struct {
	app *app

	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	styles   styles

	history   []chatMessage
	isLoading bool
	err       error

	width  int
	height int
	ready  bool
}

func newChatModel(a *app) chatModel {
	st := newStyles()

	ta := textarea.New()
	ta.Placeholder = "Describe your campaign... (quit to exit, summary, reset)"
	ta.Focus()
	ta.SetHeight(1)
	ta.ShowLineNumbers = false
	ta.CharLimit = 2000
	// Enter sends; there is no multi-line input here.
	ta.KeyMap.InsertNewline.SetEnabled(false)

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(colorPrimary)),
	)

	return chatModel{
		app:      a,
		textarea: ta,
		spinner:  sp,
		styles:   st,
		// Init dispatches the opening turn; input stays gated until the
		// reply lands so turns never overlap on the agent.
		isLoading: true,
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, m.startConversation())
}

// startConversation asks the agent for its opening turn.
func (m chatModel) startConversation() tea.Cmd {
	ag := m.app.agent
	return func() tea.Msg {
		text, err := ag.Start(context.Background())
		return replyMsg{text: text, err: err}
	}
}

func (m chatModel) sendToAgent(input string) tea.Cmd {
	ag := m.app.agent
	return func() tea.Msg {
		text, err := ag.Process(context.Background(), input)
		return replyMsg{text: text, err: err}
	}
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		taCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)
	m.textarea, taCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 2
		inputHeight := 4
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-inputHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - inputHeight
		}
		m.textarea.SetWidth(msg.Width - 4)
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(min(msg.Width-4, 100)),
		)
		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.isLoading {
				break
			}
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				break
			}
			m.textarea.Reset()
			if cmd, handled := m.handleReserved(input); handled {
				return m, cmd
			}
			m.history = append(m.history, chatMessage{role: "user", content: input})
			m.isLoading = true
			m.err = nil
			m.refreshViewport()
			return m, tea.Batch(m.spinner.Tick, m.sendToAgent(input))
		}

	case replyMsg:
		m.isLoading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.history = append(m.history, chatMessage{role: "assistant", content: msg.text})
		}
		m.refreshViewport()

	case spinner.TickMsg:
		m.spinner, spCmd = m.spinner.Update(msg)
		return m, tea.Batch(taCmd, vpCmd, spCmd)
	}

	return m, tea.Batch(taCmd, vpCmd)
}

// handleReserved intercepts the control words that never reach the model.
func (m *chatModel) handleReserved(input string) (tea.Cmd, bool) {
	switch strings.ToLower(input) {
	case "quit", "exit":
		return tea.Quit, true
	case "summary":
		m.history = append(m.history, chatMessage{role: "notice", content: m.app.agent.Draft().Summary()})
		m.refreshViewport()
		return nil, true
	case "reset":
		m.app.agent.Reset()
		m.history = append(m.history, chatMessage{role: "notice", content: "Starting over with a fresh campaign."})
		m.isLoading = true
		m.refreshViewport()
		return tea.Batch(m.spinner.Tick, m.startConversation()), true
	}
	return nil, false
}

func (m *chatModel) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m chatModel) renderHistory() string {
	var sb strings.Builder
	for _, msg := range m.history {
		switch msg.role {
		case "user":
			sb.WriteString(m.styles.UserLabel.Render("You") + "\n")
			sb.WriteString(m.styles.UserText.Render(msg.content))
			sb.WriteString("\n\n")
		case "notice":
			sb.WriteString(m.styles.Muted.Render(msg.content))
			sb.WriteString("\n\n")
		default:
			sb.WriteString(m.styles.BotLabel.Render("adgent") + "\n")
			sb.WriteString(m.safeRenderMarkdown(msg.content))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// safeRenderMarkdown renders markdown, falling back to plain text if the
// renderer fails or panics.
func (m chatModel) safeRenderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content
		}
	}()
	if m.renderer != nil && content != "" {
		if rendered, err := m.renderer.Render(content); err == nil {
			return rendered
		}
	}
	return content
}

func (m chatModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	title := "adgent - TikTok Ads Campaign Assistant"
	if m.app.cfg.Sandbox {
		title += " (sandbox)"
	}
	header := m.styles.Header.Render(title)

	var status string
	switch {
	case m.isLoading:
		status = m.spinner.View() + " thinking..."
	case m.err != nil:
		status = m.styles.Error.Render("Error: " + m.err.Error())
	default:
		status = m.styles.Footer.Render("enter to send · ctrl+c to quit")
	}

	input := m.styles.InputBox.Width(m.width - 2).Render(m.textarea.View())

	return fmt.Sprintf("%s\n%s\n%s\n%s", header, m.viewport.View(), input, status)
}
