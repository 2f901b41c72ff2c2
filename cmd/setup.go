package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/careerchat/internal/profile"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure careerchat (re-run anytime to edit settings)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup(cmd)
	},
}

// runSetup runs the interactive setup wizard and saves the profile.
func runSetup(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	// Load existing profile as defaults if present.
	var existing *profile.Profile
	if profile.Exists() {
		p, err := profile.Load()
		if err == nil {
			existing = p
		}
	}

	prof, err := profile.RunSetup(cmd.InOrStdin(), out, existing)
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	if err := profile.Save(prof); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	fmt.Fprintln(out, "  ✓ Profile saved.")
	fmt.Fprintln(out, "  Setup complete. Run 'careerchat chat' to start talking.")
	fmt.Fprintln(out)
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
