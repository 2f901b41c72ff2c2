package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/careerchat/internal/config"
	"github.com/fakeyudi/careerchat/internal/debug"
	"github.com/fakeyudi/careerchat/internal/gateway"
	"github.com/fakeyudi/careerchat/internal/reminders"
	"github.com/fakeyudi/careerchat/internal/session"
	"github.com/fakeyudi/careerchat/internal/slot"
	"github.com/fakeyudi/careerchat/internal/voice"
)

const sqliteSlotName = "chat-history"

// openSlot opens the durable slot the configuration names.
func openSlot() (slot.Slot, error) {
	path := cfg.HistoryFile()
	if cfg.Storage == config.StorageSQLite {
		return slot.OpenSQLite(path, sqliteSlotName)
	}
	return slot.NewFileSlot(path)
}

// openStore loads the session store. Recovered conditions are written to
// warn when it is non-nil, and always to the debug log.
func openStore(warn io.Writer) (*session.Store, error) {
	sl, err := openSlot()
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	report := func(err error) {
		debug.Error("session", err, "chat history")
		if warn != nil {
			fmt.Fprintf(warn, "⚠ %v\n", err)
		}
	}
	return session.Open(sl, session.Options{
		Strict:      cfg.Strict(),
		MaxSessions: cfg.SessionLimit(),
		Reporter:    report,
	}), nil
}

// credentials picks the bearer token source.
func credentials() gateway.CredentialSource {
	if cfg.Token != "" {
		return gateway.StaticToken(cfg.Token)
	}
	if cfg.TokenURL != "" {
		return &gateway.TokenEndpoint{URL: cfg.TokenURL}
	}
	return nil
}

func newGateway() *gateway.Gateway {
	return gateway.New(gateway.Options{
		BaseURL:     cfg.APIURL,
		Timeout:     cfg.Timeout(),
		Credentials: credentials(),
	})
}

func newReminders() *reminders.Client {
	return reminders.NewClient(newGateway())
}

// newVoice builds the exec-backed voice capability, filling unset commands
// with what the platform offers.
func newVoice(fallback io.Writer) *voice.Exec {
	detected := voice.DetectCommands()
	cmds := voice.Commands{
		Speak:  cfg.SpeakCommand,
		Listen: cfg.ListenCommand,
		Notify: cfg.NotifyCommand,
	}
	if cmds.Speak == "" {
		cmds.Speak = detected.Speak
	}
	if cmds.Notify == "" {
		cmds.Notify = detected.Notify
	}
	return voice.NewExec(cmds, fallback)
}

// resolveTask reads the --task flag, falling back to the profile.
func resolveTask(cmd *cobra.Command) (gateway.Task, error) {
	if !cmd.Flags().Changed("task") {
		return defaultTask(), nil
	}
	s, _ := cmd.Flags().GetString("task")
	return gateway.ParseTask(s)
}

// resolveRecruiter reads the --recruiter flag, falling back to config.
func resolveRecruiter(cmd *cobra.Command) bool {
	if !cmd.Flags().Changed("recruiter") {
		return cfg.Recruiter()
	}
	on, _ := cmd.Flags().GetBool("recruiter")
	return on
}

// resolveSession accepts a full session id or a unique prefix of one.
func resolveSession(store *session.Store, ref string) (session.Session, error) {
	if s, ok := store.GetSession(ref); ok {
		return s, nil
	}
	var matches []session.Session
	for _, s := range store.ListSessions() {
		if strings.HasPrefix(s.ID, ref) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return session.Session{}, fmt.Errorf("no session matches %q: %w", ref, session.ErrInvalidReference)
	case 1:
		return matches[0], nil
	}
	return session.Session{}, fmt.Errorf("%q matches %d sessions; use more of the id", ref, len(matches))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
