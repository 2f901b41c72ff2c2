package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/careerchat/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Export a session transcript (the active one by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("format")
		if name == "" {
			name = cfg.ExportFormat
		}
		format, err := export.ParseFormat(name)
		if err != nil {
			return err
		}

		store, err := openStore(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer store.Close()
		s, err := pickSession(store, args)
		if err != nil {
			return err
		}

		now := time.Now()
		data, err := format.Renderer().Render(export.FromSession(s, now))
		if err != nil {
			return fmt.Errorf("rendering %s: %w", format, err)
		}

		if toClipboard, _ := cmd.Flags().GetBool("clipboard"); toClipboard {
			if err := clipboard.WriteAll(string(data)); err != nil {
				return fmt.Errorf("copying to clipboard: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Copied %q as %s.\n", s.Title, format)
			return nil
		}

		path, _ := cmd.Flags().GetString("output")
		if path == "-" {
			_, err := cmd.OutOrStdout().Write(data)
			return err
		}
		if path == "" {
			if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
				return err
			}
			path = filepath.Join(cfg.OutputDir, format.Filename(now))
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %q to %s\n", s.Title, path)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a JSON, Markdown or YAML export as a new session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", path)
			}
			return err
		}
		parser, err := export.ParserFor(path)
		if err != nil {
			return err
		}
		t, err := parser.Parse(data)
		if err != nil {
			return err
		}
		turns, err := t.Turns()
		if err != nil {
			return fmt.Errorf("importing %s: %w", path, err)
		}

		title, _ := cmd.Flags().GetString("title")
		if title == "" {
			title = t.Title
		}
		if title == "" {
			title = "Imported " + filepath.Base(path)
		}

		store, err := openStore(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer store.Close()
		id := store.CreateSession(title)
		if err := store.UpdateSession(id, turns); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d messages into %q (%s).\n", len(turns), title, shortID(id))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("format", "f", "", "json, txt, csv, html, md or yaml (default from config)")
	exportCmd.Flags().StringP("output", "o", "", "output file, or - for stdout (default: output_dir/chat-<time>.<ext>)")
	exportCmd.Flags().Bool("clipboard", false, "copy the export to the clipboard instead of writing a file")
	importCmd.Flags().String("title", "", "title for the imported session")
	rootCmd.AddCommand(exportCmd, importCmd)
}
