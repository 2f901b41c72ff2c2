// Package config loads careerchat settings from the global config file, an
// optional per-directory .careerchatrc and the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

const (
	appName        = "careerchat"
	configFileName = "config.json"

	// ProjectFile is read from the working directory and overrides the
	// global file.
	ProjectFile = ".careerchatrc"

	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Config holds all configurable careerchat settings. Pointer fields
// distinguish "unset" from an explicit zero.
type Config struct {
	APIURL                  string `json:"api_url,omitempty"`
	TokenURL                string `json:"token_url,omitempty"`
	Token                   string `json:"token,omitempty"` // static bearer token; overrides token_url
	TimeoutSeconds          int    `json:"timeout_seconds,omitempty"`
	RecruiterMode           *bool  `json:"recruiter_mode,omitempty"`
	Storage                 string `json:"storage,omitempty"`      // "file" | "sqlite"
	HistoryPath             string `json:"history_path,omitempty"` // override the default slot location
	MaxSessions             *int   `json:"max_sessions,omitempty"`
	StrictActive            *bool  `json:"strict_active,omitempty"`
	ReminderIntervalSeconds int    `json:"reminder_interval_seconds,omitempty"`
	ExportFormat            string `json:"export_format,omitempty"`
	OutputDir               string `json:"output_dir,omitempty"`
	SpeakCommand            string `json:"speak_command,omitempty"`
	ListenCommand           string `json:"listen_command,omitempty"`
	NotifyCommand           string `json:"notify_command,omitempty"`
}

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		APIURL:                  "http://localhost:8000",
		TokenURL:                "http://localhost:3000/api/auth/token",
		TimeoutSeconds:          15,
		RecruiterMode:           boolPtr(true),
		Storage:                 StorageFile,
		MaxSessions:             intPtr(0),
		StrictActive:            boolPtr(true),
		ReminderIntervalSeconds: 60,
		ExportFormat:            "json",
		OutputDir:               ".",
	}
}

// Dir is the directory holding the global config file.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// DataDir is the directory holding history, the profile and the debug log.
func DataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// GlobalPath is the location of the global config file.
func GlobalPath() string {
	return filepath.Join(Dir(), configFileName)
}

// LoadGlobal reads the global config file.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	return loadFile(GlobalPath(), true)
}

// LoadProject reads .careerchatrc in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(ProjectFile, false)
}

// Load merges the global and project files and applies environment
// overrides.
func Load() (Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return Config{}, err
	}
	project, err := LoadProject()
	if err != nil {
		return Config{}, err
	}
	cfg := Merge(global, project)
	ApplyEnv(&cfg, os.Getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Save writes cfg to path atomically, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	overlay(&result, global)
	overlay(&result, project)
	return result
}

func overlay(dst, src *Config) {
	if src == nil {
		return
	}
	setString := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	setString(&dst.APIURL, src.APIURL)
	setString(&dst.TokenURL, src.TokenURL)
	setString(&dst.Token, src.Token)
	setString(&dst.Storage, src.Storage)
	setString(&dst.HistoryPath, src.HistoryPath)
	setString(&dst.ExportFormat, src.ExportFormat)
	setString(&dst.OutputDir, src.OutputDir)
	setString(&dst.SpeakCommand, src.SpeakCommand)
	setString(&dst.ListenCommand, src.ListenCommand)
	setString(&dst.NotifyCommand, src.NotifyCommand)
	if src.TimeoutSeconds > 0 {
		dst.TimeoutSeconds = src.TimeoutSeconds
	}
	if src.ReminderIntervalSeconds > 0 {
		dst.ReminderIntervalSeconds = src.ReminderIntervalSeconds
	}
	if src.RecruiterMode != nil {
		dst.RecruiterMode = boolPtr(*src.RecruiterMode)
	}
	if src.StrictActive != nil {
		dst.StrictActive = boolPtr(*src.StrictActive)
	}
	if src.MaxSessions != nil {
		dst.MaxSessions = intPtr(*src.MaxSessions)
	}
}

// Environment variables that override file settings.
const (
	EnvAPIURL = "CAREERCHAT_API_URL"
	EnvToken  = "CAREERCHAT_TOKEN"
)

// ApplyEnv overrides cfg from the environment.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv(EnvAPIURL); v != "" {
		cfg.APIURL = v
	}
	if v := getenv(EnvToken); v != "" {
		cfg.Token = v
	}
}

// Validate rejects settings no component can honour.
func (c Config) Validate() error {
	if c.Storage != StorageFile && c.Storage != StorageSQLite {
		return fmt.Errorf("storage must be %q or %q, got %q", StorageFile, StorageSQLite, c.Storage)
	}
	if c.MaxSessions != nil && *c.MaxSessions < 0 {
		return fmt.Errorf("max_sessions must not be negative")
	}
	if c.TimeoutSeconds < 0 || c.ReminderIntervalSeconds < 0 {
		return fmt.Errorf("timeout_seconds and reminder_interval_seconds must not be negative")
	}
	return nil
}

// Timeout is the per-attempt request timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ReminderInterval is the due-reminder polling period.
func (c Config) ReminderInterval() time.Duration {
	return time.Duration(c.ReminderIntervalSeconds) * time.Second
}

func (c Config) Recruiter() bool { return c.RecruiterMode == nil || *c.RecruiterMode }
func (c Config) Strict() bool    { return c.StrictActive == nil || *c.StrictActive }

func (c Config) SessionLimit() int {
	if c.MaxSessions == nil {
		return 0
	}
	return *c.MaxSessions
}

// HistoryFile is where the session slot lives for the configured storage.
func (c Config) HistoryFile() string {
	if c.HistoryPath != "" {
		return c.HistoryPath
	}
	if c.Storage == StorageSQLite {
		return filepath.Join(DataDir(), "history.db")
	}
	return filepath.Join(DataDir(), "history.json")
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
