package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fakeyudi/careerchat/internal/chat"
	"github.com/fakeyudi/careerchat/internal/reminders"
)

// ReminderMsg asks the screen to show a due reminder.
type ReminderMsg struct {
	Title, Body string
}

// HistoryChangedMsg tells the screen the store reloaded external changes.
type HistoryChangedMsg struct{}

type replyMsg struct {
	result chat.Result
	err    error
}

type heardMsg struct{ text string }

type listenErrMsg struct{ err error }

type spokenMsg struct{}

// Sender is the part of *tea.Program the notifier needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Notifier shows reminders on the chat screen and forwards them to Next
// (usually the desktop notifier).
type Notifier struct {
	Program Sender
	Next    reminders.Notifier
}

func (n Notifier) Notify(title, body string) error {
	if n.Program != nil {
		n.Program.Send(ReminderMsg{Title: title, Body: body})
	}
	if n.Next != nil {
		return n.Next.Notify(title, body)
	}
	return nil
}
