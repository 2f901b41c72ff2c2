// Package tui provides the Bubble Tea chat screen.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/fakeyudi/careerchat/internal/chat"
	"github.com/fakeyudi/careerchat/internal/debug"
	"github.com/fakeyudi/careerchat/internal/session"
	"github.com/fakeyudi/careerchat/internal/voice"
)

type mode int

const (
	modeChat mode = iota
	modeTitle
	modeSessions
	modeSearch
)

// Options wires the screen to its collaborators.
type Options struct {
	Conversation *chat.Conversation
	Store        *session.Store
	Voice        voice.Capability     // nil disables speech
	CopyText     func(string) error   // defaults to the system clipboard
	Endpoint     func() string        // optional; shown in the status bar
	ColorProfile termenv.Profile      // for markdown rendering
	UserName     string
}

// Model is the root Bubble Tea model for the chat screen.
type Model struct {
	conv     *chat.Conversation
	store    *session.Store
	voice    voice.Capability
	copyText func(string) error
	endpoint func() string
	userName string
	md       *markdownRenderer
	keys     chatKeys
	picker   pickerKeys

	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	width    int
	height   int
	ready    bool

	mode      mode
	sessions  []session.Session
	cursor    int
	query     string
	flash     string
	listening bool
	listenH   voice.Handle
	listenCh  chan tea.Msg
	speaking  bool
}

// New creates the chat screen.
func New(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about your career search…"
	ti.CharLimit = 4096
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	copyText := opts.CopyText
	if copyText == nil {
		copyText = clipboard.WriteAll
	}
	name := opts.UserName
	if name == "" {
		name = "You"
	}
	return Model{
		conv:     opts.Conversation,
		store:    opts.Store,
		voice:    opts.Voice,
		copyText: copyText,
		endpoint: opts.Endpoint,
		userName: name,
		md:       newMarkdownRenderer(opts.ColorProfile),
		keys:     newChatKeys(),
		picker:   newPickerKeys(),
		input:    ti,
		spinner:  sp,
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(m.width-8, 10)
		vpHeight := max(m.height-5, 1) // title + input(3) + status
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width, m.viewport.Height = m.width, vpHeight
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case replyMsg:
		if msg.err != nil {
			m.flash = msg.err.Error()
		} else if msg.result.Err != nil {
			m.flash = msg.result.Err.Error()
			debug.Error("tui", msg.result.Err, "send")
		} else {
			m.flash = ""
		}
		m.refresh()
		return m, nil

	case heardMsg:
		m.listening = false
		m.input.SetValue(msg.text)
		m.input.CursorEnd()
		return m, nil

	case listenErrMsg:
		m.listening = false
		m.flash = "voice: " + msg.err.Error()
		return m, nil

	case spokenMsg:
		m.speaking = false
		return m, nil

	case ReminderMsg:
		m.flash = "⏰ " + msg.Title + ": " + msg.Body
		return m, nil

	case HistoryChangedMsg:
		m.conv.Reload()
		if m.mode == modeSessions {
			m.loadSessions()
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.conv.Sending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.mode == modeSessions {
		return m.handleSessionKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		if m.mode == modeSearch {
			m.query = ""
		}
		m.mode = modeChat
		m.input.Placeholder = "Ask about your career search…"
		m.input.SetValue("")
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Send):
		return m.submit()

	case key.Matches(msg, m.keys.NewChat):
		if m.conv.Sending() {
			m.flash = chat.ErrBusy.Error()
			return m, nil
		}
		m.mode = modeTitle
		m.input.SetValue(chat.DefaultTitle(time.Now()))
		m.input.CursorEnd()
		m.input.Placeholder = "Chat title"
		return m, nil

	case key.Matches(msg, m.keys.Sessions):
		m.mode = modeSessions
		m.loadSessions()
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.input.SetValue(m.query)
		m.input.Placeholder = "Search messages"
		return m, nil

	case key.Matches(msg, m.keys.Recruiter):
		m.conv.SetRecruiterMode(!m.conv.RecruiterMode())
		return m, nil

	case key.Matches(msg, m.keys.Task):
		m.conv.CycleTask()
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		reply, ok := m.conv.LastReply()
		if !ok {
			m.flash = "nothing to copy yet"
			return m, nil
		}
		if err := m.copyText(reply); err != nil {
			m.flash = "copy failed: " + err.Error()
		} else {
			m.flash = "copied last reply"
		}
		return m, nil

	case key.Matches(msg, m.keys.Speak):
		return m.toggleSpeak()

	case key.Matches(msg, m.keys.Dictate):
		return m.toggleListen()

	case key.Matches(msg, m.keys.Scroll):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == modeSearch {
		m.query = m.input.Value()
		m.refresh()
	}
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	switch m.mode {
	case modeTitle:
		m.mode = modeChat
		m.input.Placeholder = "Ask about your career search…"
		m.input.SetValue("")
		m.flash = ""
		if _, err := m.conv.NewChat(text); err != nil {
			m.flash = err.Error()
		}
		m.refresh()
		return m, nil
	case modeSearch:
		m.mode = modeChat
		m.input.SetValue("")
		return m, nil
	}

	if strings.TrimSpace(text) == "" || m.conv.Sending() {
		return m, nil
	}
	m.input.SetValue("")
	m.flash = ""
	conv := m.conv
	send := func() tea.Msg {
		res, err := conv.Send(context.Background(), text)
		return replyMsg{result: res, err: err}
	}
	return m, tea.Batch(send, m.spinner.Tick)
}

func (m Model) handleSessionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.picker.Back):
		m.mode = modeChat
	case key.Matches(msg, m.picker.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.picker.Down):
		if m.cursor < len(m.sessions)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.picker.Open):
		if len(m.sessions) > 0 {
			if err := m.conv.Select(m.sessions[m.cursor].ID); err != nil {
				m.flash = err.Error()
			}
			m.mode = modeChat
			m.refresh()
		}
	case key.Matches(msg, m.picker.Delete):
		if m.conv.Sending() {
			m.flash = chat.ErrBusy.Error()
		} else if len(m.sessions) > 0 {
			m.store.DeleteSession(m.sessions[m.cursor].ID)
			m.loadSessions()
			if _, ok := m.store.ActiveSessionID(); !ok {
				m.conv.Reload()
			}
			m.refresh()
		}
	case key.Matches(msg, m.picker.New):
		if m.conv.Sending() {
			m.flash = chat.ErrBusy.Error()
			break
		}
		m.mode = modeTitle
		m.input.SetValue(chat.DefaultTitle(time.Now()))
		m.input.CursorEnd()
		m.input.Placeholder = "Chat title"
	}
	return m, nil
}

func (m *Model) loadSessions() {
	m.sessions = m.store.ListSessions()
	if m.cursor >= len(m.sessions) {
		m.cursor = max(len(m.sessions)-1, 0)
	}
}

func (m Model) toggleSpeak() (tea.Model, tea.Cmd) {
	if m.voice == nil {
		m.flash = "voice: " + voice.ErrUnsupported.Error()
		return m, nil
	}
	if m.speaking {
		m.voice.StopSpeaking()
		m.speaking = false
		return m, nil
	}
	reply, ok := m.conv.LastReply()
	if !ok {
		return m, nil
	}
	done := make(chan tea.Msg, 1)
	if err := m.voice.Speak(reply, func() { done <- spokenMsg{} }); err != nil {
		m.flash = "voice: " + err.Error()
		return m, nil
	}
	m.speaking = true
	return m, func() tea.Msg { return <-done }
}

func (m Model) toggleListen() (tea.Model, tea.Cmd) {
	if m.voice == nil {
		m.flash = "voice: " + voice.ErrUnsupported.Error()
		return m, nil
	}
	if m.listening {
		m.voice.StopListening(m.listenH)
		m.listening = false
		select {
		case m.listenCh <- listenErrMsg{err: errors.New("stopped")}:
		default:
		}
		return m, nil
	}
	ch := make(chan tea.Msg, 1)
	h, err := m.voice.StartListening(
		func(text string) {
			select {
			case ch <- heardMsg{text: text}:
			default:
			}
		},
		func(err error) {
			select {
			case ch <- listenErrMsg{err: err}:
			default:
			}
		},
	)
	if err != nil {
		m.flash = "voice: " + err.Error()
		return m, nil
	}
	m.listening, m.listenH, m.listenCh = true, h, ch
	m.flash = "listening…"
	return m, func() tea.Msg { return <-ch }
}

// refresh re-renders the transcript into the viewport.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m *Model) renderTranscript() string {
	msgs := m.conv.Messages()
	if m.query != "" {
		msgs = m.conv.Search(m.query)
	}
	if len(msgs) == 0 {
		if m.query != "" {
			return dimStyle.Render("\n  No messages match \"" + m.query + "\".")
		}
		return dimStyle.Render("\n  Start a conversation. ctrl+n new chat · ctrl+o sessions · ctrl+t task")
	}

	var sb strings.Builder
	width := max(m.width-4, 20)
	for _, msg := range msgs {
		switch {
		case msg.Role == session.RoleUser:
			sb.WriteString("\n" + userLabelStyle.Render("  "+m.userName) + "\n")
			sb.WriteString(lipgloss.NewStyle().Width(width).PaddingLeft(2).Render(msg.Content) + "\n")
		case msg.Failed:
			sb.WriteString("\n" + assistantLabelStyle.Render("  Assistant") + "\n")
			sb.WriteString(failedStyle.Render("  "+msg.Content) + "\n")
		default:
			sb.WriteString("\n" + assistantLabelStyle.Render("  Assistant") + "\n")
			sb.WriteString(m.md.render(msg.Content, width))
		}
	}
	if m.conv.Sending() {
		sb.WriteString("\n  " + m.spinner.View() + dimStyle.Render(" thinking…") + "\n")
	}
	return sb.String()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	sessionTitle := "no session"
	if s, ok := m.store.ActiveSession(); ok {
		sessionTitle = s.Title
	}
	recruiter := badgeOffStyle.Render("Recruiter OFF")
	if m.conv.RecruiterMode() {
		recruiter = badgeOnStyle.Render("Recruiter ON")
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("careerchat · "+sessionTitle),
		" ", recruiter,
		" ", taskStyle.Render(m.conv.Task().Label()),
	)

	var body string
	if m.mode == modeSessions {
		body = m.renderSessions()
	} else {
		body = m.viewport.View()
	}

	input := inputStyle.Width(max(m.width-4, 10)).Render(m.input.View())

	hint := m.keys.hint()
	if m.mode == modeSessions {
		hint = m.picker.hint()
	}
	status := dimStyle.Render(hint)
	if m.flash != "" {
		status = flashStyle.Render(m.flash)
	}
	if m.endpoint != nil {
		status += dimStyle.Render("  " + m.endpoint())
	}
	bar := statusBarStyle.Width(m.width).Render(status)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, input, bar)
}

func (m *Model) renderSessions() string {
	if len(m.sessions) == 0 {
		return dimStyle.Render("\n  No saved chats. Press n to start one.")
	}
	activeID, _ := m.store.ActiveSessionID()
	var sb strings.Builder
	sb.WriteString("\n")
	for i, s := range m.sessions {
		mark := "  "
		if s.ID == activeID {
			mark = activeMarkStyle.Render("● ")
		}
		line := fmt.Sprintf("%s%-30s %3d msgs  %s", mark, truncate(s.Title, 30), len(s.Messages), s.UpdatedAt.Local().Format("Jan 2 15:04"))
		if i == m.cursor {
			line = selectedRowStyle.Render(line)
		}
		sb.WriteString("  " + line + "\n")
	}
	return sb.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
