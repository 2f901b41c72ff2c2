package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/careerchat/internal/chat"
	"github.com/fakeyudi/careerchat/internal/debug"
	"github.com/fakeyudi/careerchat/internal/reminders"
	"github.com/fakeyudi/careerchat/internal/session"
	"github.com/fakeyudi/careerchat/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat screen",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(os.Stdin.Fd()) || !term.IsTerminal(os.Stdout.Fd()) {
			return fmt.Errorf("chat needs an interactive terminal; use 'careerchat ask' instead")
		}
		task, err := resolveTask(cmd)
		if err != nil {
			return err
		}

		store, err := openStore(nil)
		if err != nil {
			return err
		}
		defer store.Close()

		gw := newGateway()
		conv := chat.New(store, gw, resolveRecruiter(cmd), task)
		if title, _ := cmd.Flags().GetString("new"); title != "" {
			if _, err := conv.NewChat(title); err != nil {
				return err
			}
		} else if ref, _ := cmd.Flags().GetString("session"); ref != "" {
			s, err := resolveSession(store, ref)
			if err != nil {
				return err
			}
			if err := conv.Select(s.ID); err != nil {
				return err
			}
		} else if _, ok := store.ActiveSessionID(); !ok {
			if _, err := conv.NewChat(""); err != nil {
				return err
			}
		}

		model := tui.New(tui.Options{
			Conversation: conv,
			Store:        store,
			Voice:        newVoice(nil),
			Endpoint:     gw.BaseURL,
			ColorProfile: termenv.NewOutput(os.Stdout).ColorProfile(),
			UserName:     userName(),
		})
		p := tea.NewProgram(model, tea.WithAltScreen())

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		if err := store.Watch(ctx, func() { p.Send(tui.HistoryChangedMsg{}) }); err != nil && !errors.Is(err, session.ErrNotWatchable) {
			debug.Error("cmd", err, "watching history")
		}

		poller := reminders.NewPoller(reminders.NewClient(gw), tui.Notifier{Program: p, Next: newVoice(nil)}, cfg.ReminderInterval())
		go poller.Run(ctx)

		_, err = p.Run()
		return err
	},
}

func init() {
	chatCmd.Flags().String("task", "", "task mode: cover-letter, resume-review, message-templates, mock-interview or none")
	chatCmd.Flags().Bool("recruiter", true, "enable recruiter mode")
	chatCmd.Flags().String("session", "", "open this session (id or id prefix)")
	chatCmd.Flags().String("new", "", "start a new session with this title")
	rootCmd.AddCommand(chatCmd)
}
