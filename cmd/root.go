package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/careerchat/internal/config"
	"github.com/fakeyudi/careerchat/internal/debug"
	"github.com/fakeyudi/careerchat/internal/gateway"
	"github.com/fakeyudi/careerchat/internal/profile"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// activeProfile holds the loaded user profile.
var activeProfile *profile.Profile

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:   "careerchat",
	Short: "Chat with your career assistant from the terminal",
	Long: `careerchat talks to the career assistant service. Conversations are kept
locally as sessions you can switch between, export and re-import. Recruiter
mode and task modes (cover letters, resume review, message templates, mock
interviews) shape the assistant's answers.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if debugFlag {
			if err := debug.Enable(filepath.Join(config.DataDir(), "debug.log")); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ debug log unavailable: %v\n", err)
			}
		}

		// Skip setup check for the setup command itself.
		if cmd.Name() == "setup" {
			return nil
		}

		// First-run: profile missing → run setup wizard automatically.
		// Only do this when stdin is an interactive terminal.
		if !profile.Exists() && term.IsTerminal(os.Stdin.Fd()) {
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), "  Welcome to careerchat! Looks like this is your first time.")
			if err := runSetup(cmd); err != nil {
				return err
			}
		}

		// Load profile (optional; may not exist in non-interactive environments).
		activeProfile = nil
		if profile.Exists() {
			p, err := profile.Load()
			if err != nil {
				return fmt.Errorf("loading profile: %w", err)
			}
			activeProfile = p
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		// Profile values fill in config gaps.
		if activeProfile != nil {
			if cfg.Recruiter() && !activeProfile.RecruiterMode {
				off := false
				cfg.RecruiterMode = &off
			}
			if cfg.ExportFormat == "json" && activeProfile.ExportFormat != "" {
				cfg.ExportFormat = activeProfile.ExportFormat
			}
			if cfg.OutputDir == "." && activeProfile.OutputDir != "" && activeProfile.OutputDir != "." {
				cfg.OutputDir = activeProfile.OutputDir
			}
		}
		debug.Event("cmd", "start", cmd.CommandPath())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "write a debug log to the data directory")
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	defer debug.Disable()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

// GetProfile returns the active user profile.
func GetProfile() *profile.Profile {
	return activeProfile
}

// defaultTask is the profile's task, or general chat.
func defaultTask() gateway.Task {
	if activeProfile == nil {
		return gateway.TaskNone
	}
	return activeProfile.Task()
}

// userName is the profile name, or empty.
func userName() string {
	if activeProfile == nil {
		return ""
	}
	return activeProfile.Name
}
