package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type chatKeys struct {
	Send      key.Binding
	Back      key.Binding
	NewChat   key.Binding
	Sessions  key.Binding
	Search    key.Binding
	Recruiter key.Binding
	Task      key.Binding
	Speak     key.Binding
	Dictate   key.Binding
	Copy      key.Binding
	Scroll    key.Binding
	Quit      key.Binding
}

type pickerKeys struct {
	Up     key.Binding
	Down   key.Binding
	Open   key.Binding
	Delete key.Binding
	New    key.Binding
	Back   key.Binding
}

func newChatKeys() chatKeys {
	return chatKeys{
		Send:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Back:      key.NewBinding(key.WithKeys("esc")),
		NewChat:   key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new")),
		Sessions:  key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "sessions")),
		Search:    key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("ctrl+f", "search")),
		Recruiter: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "recruiter")),
		Task:      key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "task")),
		Speak:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "speak")),
		Dictate:   key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "dictate")),
		Copy:      key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy")),
		Scroll:    key.NewBinding(key.WithKeys("pgup", "pgdown", "up", "down")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func newPickerKeys() pickerKeys {
	return pickerKeys{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/↓", "select")),
		Down:   key.NewBinding(key.WithKeys("down", "j")),
		Open:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Delete: key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		New:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Back:   key.NewBinding(key.WithKeys("esc", "ctrl+o", "q"), key.WithHelp("esc", "back")),
	}
}

func (k chatKeys) hint() string {
	return joinHelp(k.Send, k.NewChat, k.Sessions, k.Search, k.Recruiter, k.Task, k.Speak, k.Dictate, k.Copy, k.Quit)
}

func (k pickerKeys) hint() string {
	return joinHelp(k.Up, k.Open, k.Delete, k.New, k.Back)
}

func joinHelp(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}
