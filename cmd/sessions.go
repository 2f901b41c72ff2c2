package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/careerchat/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"history"},
	Short:   "List and manage saved chat sessions",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer store.Close()
		printSessions(cmd.OutOrStdout(), store)
		return nil
	},
}

func printSessions(out io.Writer, store *session.Store) {
	list := store.ListSessions()
	if len(list) == 0 {
		fmt.Fprintln(out, "no saved sessions")
		return
	}
	activeID, _ := store.ActiveSessionID()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tID\tTITLE\tMESSAGES\tUPDATED")
	for _, s := range list {
		mark := ""
		if s.ID == activeID {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", mark, shortID(s.ID), s.Title, len(s.Messages), s.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
}

var sessionsNewCmd = &cobra.Command{
	Use:   "new <title>",
	Short: "Start a new session and make it active",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer store.Close()
		id := store.CreateSession(strings.Join(args, " "))
		fmt.Fprintf(cmd.OutOrStdout(), "Created session %s.\n", shortID(id))
		return nil
	},
}

var sessionsUseCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Make a session active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer store.Close()
		s, err := resolveSession(store, args[0])
		if err != nil {
			return err
		}
		if err := store.SetActiveSession(s.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Now chatting in %q.\n", s.Title)
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a session",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer store.Close()
		s, err := resolveSession(store, args[0])
		if err != nil {
			return err
		}
		store.DeleteSession(s.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q.\n", s.Title)
		return nil
	},
}

var sessionsRenameCmd = &cobra.Command{
	Use:   "rename <id> <title>",
	Short: "Rename a session",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer store.Close()
		s, err := resolveSession(store, args[0])
		if err != nil {
			return err
		}
		title := strings.Join(args[1:], " ")
		if err := store.RenameSession(s.ID, title); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Renamed to %q.\n", title)
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a session's transcript (the active one by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer store.Close()
		s, err := pickSession(store, args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %s\n", s.Title)
		if len(s.Messages) == 0 {
			fmt.Fprintln(out, "\n  (no messages)")
		}
		for _, m := range s.Messages {
			fmt.Fprintf(out, "\n[%s]\n%s\n", strings.ToUpper(string(m.Role)), m.Content)
		}
		return nil
	},
}

// pickSession resolves args[0] if given, else the active session.
func pickSession(store *session.Store, args []string) (session.Session, error) {
	if len(args) > 0 {
		return resolveSession(store, args[0])
	}
	s, ok := store.ActiveSession()
	if !ok {
		return session.Session{}, fmt.Errorf("no active session; pass an id or run 'careerchat sessions use <id>'")
	}
	return s, nil
}

func init() {
	sessionsCmd.AddCommand(sessionsNewCmd, sessionsUseCmd, sessionsDeleteCmd, sessionsRenameCmd, sessionsShowCmd)
	rootCmd.AddCommand(sessionsCmd)
}
