// Package profile manages the user's persistent careerchat profile.
// The profile lives next to the global config and is created once via the
// interactive setup flow, then supplies per-user defaults to every command.
package profile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/fakeyudi/careerchat/internal/export"
	"github.com/fakeyudi/careerchat/internal/gateway"
)

// Profile holds user-level preferences set during first-run setup.
type Profile struct {
	Name          string `json:"name"`
	RecruiterMode bool   `json:"recruiter_mode"`
	DefaultTask   string `json:"default_task"`  // gateway task label, "" for general chat
	ExportFormat  string `json:"export_format"` // json | txt | csv | html | md
	OutputDir     string `json:"output_dir"`
}

// Path returns the location of the profile file.
func Path() string {
	return filepath.Join(xdg.ConfigHome, "careerchat", "profile.json")
}

// Exists reports whether a profile file is present on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// Load reads the profile from disk. Returns an error if the file is missing or malformed.
func Load() (*Profile, error) {
	p := Path()
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("profile not found (run 'careerchat setup' to configure): %w", err)
	}
	var prof Profile
	if err := json.Unmarshal(data, &prof); err != nil {
		return nil, fmt.Errorf("malformed profile at %s: %w", p, err)
	}
	return &prof, nil
}

// Save writes the profile to disk, creating the config directory if needed.
func Save(prof *Profile) error {
	p := Path()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(prof, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// Task returns the profile's default task, or none if it is not recognised.
func (p *Profile) Task() gateway.Task {
	t, err := gateway.ParseTask(p.DefaultTask)
	if err != nil {
		return gateway.TaskNone
	}
	return t
}

// RunSetup runs the interactive setup wizard and returns the resulting profile.
// If existing is non-nil, it is used as the default for each prompt (edit mode).
func RunSetup(in io.Reader, out io.Writer, existing *Profile) (*Profile, error) {
	r := bufio.NewReader(in)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(out, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(out, "%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	askBool := func(prompt string, defaultVal bool) (bool, error) {
		def := "n"
		if defaultVal {
			def = "y"
		}
		ans, err := ask(prompt+" (y/n)", def)
		if err != nil {
			return false, err
		}
		return strings.ToLower(ans) == "y" || strings.ToLower(ans) == "yes", nil
	}

	prof := &Profile{
		RecruiterMode: true,
		ExportFormat:  string(export.FormatJSON),
		OutputDir:     ".",
	}
	if existing != nil {
		*prof = *existing
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(out, "  │  careerchat — first-time setup  │")
	fmt.Fprintln(out, "  └─────────────────────────────────┘")
	fmt.Fprintln(out)

	var err error

	prof.Name, err = ask("  Your name", prof.Name)
	if err != nil {
		return nil, err
	}

	prof.RecruiterMode, err = askBool("  Start chats in recruiter mode", prof.RecruiterMode)
	if err != nil {
		return nil, err
	}

	task, err := ask("  Default task (none/cover-letter/resume-review/message-templates/mock-interview)", taskLabel(prof.DefaultTask))
	if err != nil {
		return nil, err
	}
	if t, perr := gateway.ParseTask(task); perr == nil {
		prof.DefaultTask = string(t)
	} else {
		fmt.Fprintf(out, "  %v; using general chat\n", perr)
		prof.DefaultTask = ""
	}

	format, err := ask("  Default export format (json/txt/csv/html/md)", prof.ExportFormat)
	if err != nil {
		return nil, err
	}
	if f, perr := export.ParseFormat(format); perr == nil {
		prof.ExportFormat = string(f)
	} else {
		prof.ExportFormat = string(export.FormatJSON)
	}

	prof.OutputDir, err = ask("  Default export directory", prof.OutputDir)
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(out)
	return prof, nil
}

func taskLabel(task string) string {
	if task == "" {
		return "none"
	}
	return strings.ReplaceAll(task, "_", "-")
}
