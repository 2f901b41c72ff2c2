package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/careerchat/internal/chat"
)

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Send one message in the active session and print the reply",
	Long: `Send one message and print the reply. The exchange is saved to the active
session; when there is none, a new session is started for it.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		task, err := resolveTask(cmd)
		if err != nil {
			return err
		}

		store, err := openStore(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer store.Close()

		conv := chat.New(store, newGateway(), resolveRecruiter(cmd), task)
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

		res, err := conv.Send(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if res.Reply == nil {
			fmt.Fprintln(out, chat.Apology)
			return res.Err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res.Reply); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(out, res.Reply.Reply)
			if res.Reply.ReminderID != nil {
				fmt.Fprintf(out, "\n⏰ Reminder #%d created.\n", *res.Reply.ReminderID)
			}
		}
		if res.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %v\n", res.Err)
		}

		if speak, _ := cmd.Flags().GetBool("speak"); speak {
			done := make(chan struct{})
			if err := newVoice(nil).Speak(res.Reply.Reply, func() { close(done) }); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ voice: %v\n", err)
			} else {
				<-done
			}
		}
		return nil
	},
}

func init() {
	askCmd.Flags().String("task", "", "task mode: cover-letter, resume-review, message-templates, mock-interview or none")
	askCmd.Flags().Bool("recruiter", true, "enable recruiter mode")
	askCmd.Flags().String("session", "", "send in this session (id or id prefix) instead of the active one")
	askCmd.Flags().String("new", "", "start a new session with this title first")
	askCmd.Flags().Bool("json", false, "print the full reply as JSON")
	askCmd.Flags().Bool("speak", false, "read the reply aloud")
	rootCmd.AddCommand(askCmd)
}
