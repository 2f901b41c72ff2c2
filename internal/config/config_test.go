package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"pgregory.net/rapid"
)

// isolate points the XDG directories at a temp dir and runs from another.
func isolate(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmp, "data"))
	xdg.Reload()
	t.Cleanup(xdg.Reload)
	work := filepath.Join(tmp, "work")
	if err := os.MkdirAll(work, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(work)
	return tmp
}

// Property: for every key, project beats global beats defaults.
func TestConfigMergePrecedence(t *testing.T) {
	nonEmptyString := rapid.StringMatching(`[a-zA-Z0-9/_.:-]{1,20}`)

	configGen := rapid.Custom(func(t *rapid.T) *Config {
		cfg := &Config{}
		if rapid.Bool().Draw(t, "hasAPIURL") {
			cfg.APIURL = nonEmptyString.Draw(t, "apiURL")
		}
		if rapid.Bool().Draw(t, "hasOutputDir") {
			cfg.OutputDir = nonEmptyString.Draw(t, "outputDir")
		}
		if rapid.Bool().Draw(t, "hasExportFormat") {
			cfg.ExportFormat = nonEmptyString.Draw(t, "exportFormat")
		}
		if rapid.Bool().Draw(t, "hasTimeout") {
			cfg.TimeoutSeconds = rapid.IntRange(1, 120).Draw(t, "timeout")
		}
		if rapid.Bool().Draw(t, "hasRecruiter") {
			cfg.RecruiterMode = boolPtr(rapid.Bool().Draw(t, "recruiter"))
		}
		if rapid.Bool().Draw(t, "hasMax") {
			cfg.MaxSessions = intPtr(rapid.IntRange(0, 50).Draw(t, "max"))
		}
		return cfg
	})

	rapid.Check(t, func(t *rapid.T) {
		global := configGen.Draw(t, "global")
		project := configGen.Draw(t, "project")

		merged := Merge(global, project)
		defaults := Defaults()

		checkStringField(t, "APIURL", global.APIURL, project.APIURL, defaults.APIURL, merged.APIURL)
		checkStringField(t, "OutputDir", global.OutputDir, project.OutputDir, defaults.OutputDir, merged.OutputDir)
		checkStringField(t, "ExportFormat", global.ExportFormat, project.ExportFormat, defaults.ExportFormat, merged.ExportFormat)

		wantTimeout := defaults.TimeoutSeconds
		if project.TimeoutSeconds > 0 {
			wantTimeout = project.TimeoutSeconds
		} else if global.TimeoutSeconds > 0 {
			wantTimeout = global.TimeoutSeconds
		}
		if merged.TimeoutSeconds != wantTimeout {
			t.Fatalf("TimeoutSeconds: want %d, got %d", wantTimeout, merged.TimeoutSeconds)
		}

		wantRecruiter := *defaults.RecruiterMode
		if project.RecruiterMode != nil {
			wantRecruiter = *project.RecruiterMode
		} else if global.RecruiterMode != nil {
			wantRecruiter = *global.RecruiterMode
		}
		if merged.Recruiter() != wantRecruiter {
			t.Fatalf("RecruiterMode: want %v, got %v", wantRecruiter, merged.Recruiter())
		}

		wantMax := 0
		if project.MaxSessions != nil {
			wantMax = *project.MaxSessions
		} else if global.MaxSessions != nil {
			wantMax = *global.MaxSessions
		}
		if merged.SessionLimit() != wantMax {
			t.Fatalf("MaxSessions: want %d, got %d", wantMax, merged.SessionLimit())
		}
	})
}

// checkStringField asserts the merge precedence rule for a single string field:
//   - project non-empty  → merged == project
//   - project empty, global non-empty → merged == global
//   - both empty → merged == defaultVal
func checkStringField(t *rapid.T, name, globalVal, projectVal, defaultVal, mergedVal string) {
	t.Helper()
	switch {
	case projectVal != "":
		if mergedVal != projectVal {
			t.Fatalf("%s: both set — expected project value %q, got %q", name, projectVal, mergedVal)
		}
	case globalVal != "":
		if mergedVal != globalVal {
			t.Fatalf("%s: only global set — expected global value %q, got %q", name, globalVal, mergedVal)
		}
	default:
		if mergedVal != defaultVal {
			t.Fatalf("%s: neither set — expected default %q, got %q", name, defaultVal, mergedVal)
		}
	}
}

func TestMergeDoesNotAliasPointers(t *testing.T) {
	global := &Config{RecruiterMode: boolPtr(false)}
	merged := Merge(global, nil)
	*global.RecruiterMode = true
	if merged.Recruiter() {
		t.Error("merged config shares the global's pointer")
	}
}

func TestDefaultsValues(t *testing.T) {
	d := Defaults()
	if d.APIURL != "http://localhost:8000" {
		t.Errorf("APIURL: got %q", d.APIURL)
	}
	if d.Timeout().Seconds() != 15 {
		t.Errorf("Timeout: got %v", d.Timeout())
	}
	if d.ReminderInterval().Seconds() != 60 {
		t.Errorf("ReminderInterval: got %v", d.ReminderInterval())
	}
	if !d.Recruiter() || !d.Strict() || d.SessionLimit() != 0 {
		t.Errorf("flags: recruiter=%v strict=%v max=%d", d.Recruiter(), d.Strict(), d.SessionLimit())
	}
	if d.Storage != StorageFile || d.ExportFormat != "json" || d.OutputDir != "." {
		t.Errorf("unexpected defaults %+v", d)
	}
	if err := d.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestLoadGlobalMissingFileReturnsDefaults(t *testing.T) {
	isolate(t)
	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil || cfg.APIURL != Defaults().APIURL {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadProjectMissingFileReturnsNil(t *testing.T) {
	isolate(t)
	cfg, err := LoadProject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config, got %+v", cfg)
	}
}

func TestLoadGlobalParseError(t *testing.T) {
	isolate(t)
	if err := os.MkdirAll(Dir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(GlobalPath(), []byte("{invalid json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadGlobal()
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	if parseErr.Path != GlobalPath() {
		t.Errorf("Path = %q", parseErr.Path)
	}
}

func TestLoadLayersProjectAndEnv(t *testing.T) {
	isolate(t)
	if err := Save(GlobalPath(), &Config{APIURL: "http://127.0.0.1:9000", TimeoutSeconds: 30, StrictActive: boolPtr(false)}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ProjectFile, []byte(`{"timeout_seconds": 5, "storage": "sqlite"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvToken, "tok")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "http://127.0.0.1:9000" || cfg.TimeoutSeconds != 5 || cfg.Storage != StorageSQLite {
		t.Errorf("layered config = %+v", cfg)
	}
	if cfg.Strict() {
		t.Error("strict_active=false from global file ignored")
	}
	if cfg.Token != "tok" {
		t.Errorf("Token = %q", cfg.Token)
	}
	if cfg.HistoryFile() != filepath.Join(DataDir(), "history.db") {
		t.Errorf("HistoryFile = %q", cfg.HistoryFile())
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Defaults()
	env := map[string]string{EnvAPIURL: "http://example.test"}
	ApplyEnv(&cfg, func(k string) string { return env[k] })
	if cfg.APIURL != "http://example.test" || cfg.Token != "" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	bad := Defaults()
	bad.Storage = "redis"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown storage")
	}
	bad = Defaults()
	bad.MaxSessions = intPtr(-1)
	if err := bad.Validate(); err == nil {
		t.Error("expected error for negative max_sessions")
	}
}

func TestHistoryFileOverride(t *testing.T) {
	cfg := Defaults()
	if filepath.Base(cfg.HistoryFile()) != "history.json" {
		t.Errorf("HistoryFile = %q", cfg.HistoryFile())
	}
	cfg.HistoryPath = "/tmp/h.json"
	if cfg.HistoryFile() != "/tmp/h.json" {
		t.Errorf("HistoryFile = %q", cfg.HistoryFile())
	}
}
