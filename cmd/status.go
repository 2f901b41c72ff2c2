package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/careerchat/internal/gateway"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the assistant connection, credentials and local history",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		store, err := openStore(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer store.Close()

		fmt.Fprintf(out, "History: %s (%s)\n", cfg.HistoryFile(), cfg.Storage)
		fmt.Fprintf(out, "Sessions: %d\n", len(store.ListSessions()))
		if s, ok := store.ActiveSession(); ok {
			fmt.Fprintf(out, "Active: %s (%s, %d messages)\n", s.Title, shortID(s.ID), len(s.Messages))
		} else {
			fmt.Fprintln(out, "Active: none")
		}
		mode := "off"
		if cfg.Recruiter() {
			mode = "on"
		}
		fmt.Fprintf(out, "Recruiter mode: %s\n", mode)
		fmt.Fprintf(out, "Task: %s\n", defaultTask().Label())

		gw := newGateway()
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout())
		defer cancel()
		h, err := gw.Health(ctx)
		if err != nil {
			fmt.Fprintf(out, "Assistant: %s unreachable (%v)\n", gw.BaseURL(), err)
		} else {
			llm := "fallback replies"
			if h.LLM {
				llm = "LLM " + h.Model
			}
			fmt.Fprintf(out, "Assistant: %s %s, %s\n", gw.BaseURL(), h.Status, llm)
		}

		printCredential(ctx, cmd)
		return nil
	},
}

func printCredential(ctx context.Context, cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	src := credentials()
	if src == nil {
		fmt.Fprintln(out, "Credential: none configured")
		return
	}
	token, err := src.Token(ctx)
	if err != nil {
		fmt.Fprintf(out, "Credential: unavailable (%v)\n", err)
		return
	}
	info, err := gateway.InspectToken(token)
	if err != nil {
		fmt.Fprintln(out, "Credential: opaque token")
		return
	}
	line := "Credential: token"
	if info.Subject != "" {
		line += " for " + info.Subject
	}
	if !info.Expires.IsZero() {
		if info.Expired(time.Now()) {
			line += ", expired " + info.Expires.Local().Format("2006-01-02 15:04")
		} else {
			line += ", expires " + info.Expires.Local().Format("2006-01-02 15:04")
		}
	}
	fmt.Fprintln(out, line)
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
