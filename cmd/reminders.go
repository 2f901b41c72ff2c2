package cmd

import (
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/careerchat/internal/reminders"
)

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "List and manage reminders kept by the assistant",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := newReminders().List(cmd.Context())
		if err != nil {
			return err
		}
		printReminders(cmd.OutOrStdout(), list, "no upcoming reminders")
		return nil
	},
}

func printReminders(out io.Writer, list []reminders.Reminder, empty string) {
	if len(list) == 0 {
		fmt.Fprintln(out, empty)
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tTITLE\tDESCRIPTION")
	for _, r := range list {
		when := r.ReminderTime
		if t, err := r.Time(); err == nil {
			when = t.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.ID, when, r.Title, r.Description)
	}
	w.Flush()
}

var remindersDueCmd = &cobra.Command{
	Use:   "due",
	Short: "List reminders whose time has passed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := newReminders().Due(cmd.Context())
		if err != nil {
			return err
		}
		printReminders(cmd.OutOrStdout(), list, "nothing due")
		return nil
	},
}

// reminderTimeLayouts are accepted by --at, in local time.
var reminderTimeLayouts = []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"}

func parseReminderTime(s string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return now.Add(d), nil
	}
	for _, layout := range reminderTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q: use \"YYYY-MM-DD HH:MM\" or a duration like 2h", s)
}

var remindersAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a reminder",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		atFlag, _ := cmd.Flags().GetString("at")
		at, err := parseReminderTime(atFlag, time.Now())
		if err != nil {
			return err
		}
		desc, _ := cmd.Flags().GetString("desc")
		r, err := newReminders().Create(cmd.Context(), strings.Join(args, " "), desc, at)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Reminder #%d set for %s.\n", r.ID, at.Format("2006-01-02 15:04"))
		return nil
	},
}

func reminderID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
	if err != nil {
		return 0, fmt.Errorf("reminder id must be a number, got %q", arg)
	}
	return id, nil
}

var remindersCompleteCmd = &cobra.Command{
	Use:     "complete <id>",
	Aliases: []string{"done"},
	Short:   "Mark a reminder done",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := reminderID(args[0])
		if err != nil {
			return err
		}
		if err := newReminders().Complete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Reminder #%d completed.\n", id)
		return nil
	},
}

var remindersDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm", "dismiss"},
	Short:   "Delete a reminder",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := reminderID(args[0])
		if err != nil {
			return err
		}
		if err := newReminders().Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Reminder #%d deleted.\n", id)
		return nil
	},
}

var remindersWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll for due reminders and show a notification for each",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		interval := cfg.ReminderInterval()
		fmt.Fprintf(cmd.OutOrStdout(), "Watching for due reminders every %s (ctrl+c to stop).\n", interval)
		poller := reminders.NewPoller(newReminders(), newVoice(cmd.OutOrStdout()), interval)
		poller.Run(ctx)
		return nil
	},
}

func init() {
	remindersAddCmd.Flags().String("at", "1h", "when: \"YYYY-MM-DD HH:MM\", a date, or a duration from now")
	remindersAddCmd.Flags().String("desc", "", "description")
	remindersCmd.AddCommand(remindersDueCmd, remindersAddCmd, remindersCompleteCmd, remindersDeleteCmd, remindersWatchCmd)
	rootCmd.AddCommand(remindersCmd)
}
