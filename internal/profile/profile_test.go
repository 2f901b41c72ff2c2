package profile

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"

	"github.com/fakeyudi/careerchat/internal/gateway"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(t.TempDir(), "config"))
	xdg.Reload()
	t.Cleanup(xdg.Reload)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	isolate(t)
	if Exists() {
		t.Fatal("profile exists before save")
	}
	want := &Profile{Name: "Ada", RecruiterMode: true, DefaultTask: "mock_interview", ExportFormat: "md", OutputDir: "exports"}
	if err := Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("profile missing after save")
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if got.Task() != gateway.TaskMockInterview {
		t.Errorf("Task = %q", got.Task())
	}
}

func TestLoadMissing(t *testing.T) {
	isolate(t)
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "careerchat setup") {
		t.Errorf("err = %v", err)
	}
}

func TestRunSetupAnswers(t *testing.T) {
	in := strings.NewReader("Grace\nn\ncover-letter\ncsv\nout\n")
	var out bytes.Buffer
	prof, err := RunSetup(in, &out, nil)
	if err != nil {
		t.Fatalf("RunSetup: %v", err)
	}
	want := Profile{Name: "Grace", RecruiterMode: false, DefaultTask: "cover_letter", ExportFormat: "csv", OutputDir: "out"}
	if *prof != want {
		t.Errorf("got %+v, want %+v", *prof, want)
	}
	if !strings.Contains(out.String(), "first-time setup") {
		t.Error("banner not printed")
	}
}

func TestRunSetupKeepsDefaults(t *testing.T) {
	existing := &Profile{Name: "Lin", RecruiterMode: true, DefaultTask: "resume_review", ExportFormat: "html", OutputDir: "."}
	prof, err := RunSetup(strings.NewReader("\n\n\n\n\n"), &bytes.Buffer{}, existing)
	if err != nil {
		t.Fatalf("RunSetup: %v", err)
	}
	if *prof != *existing {
		t.Errorf("got %+v, want %+v", *prof, *existing)
	}
}

func TestRunSetupUnknownTaskFallsBack(t *testing.T) {
	prof, err := RunSetup(strings.NewReader("Sam\ny\nsalsa\njson\n.\n"), &bytes.Buffer{}, nil)
	if err != nil {
		t.Fatalf("RunSetup: %v", err)
	}
	if prof.DefaultTask != "" || prof.Task() != gateway.TaskNone {
		t.Errorf("DefaultTask = %q", prof.DefaultTask)
	}
}

func TestRunSetupShortInput(t *testing.T) {
	prof, err := RunSetup(strings.NewReader("Kai"), &bytes.Buffer{}, nil)
	if err != nil {
		t.Fatalf("RunSetup: %v", err)
	}
	if prof.Name != "Kai" || !prof.RecruiterMode || prof.ExportFormat != "json" {
		t.Errorf("got %+v", prof)
	}
}
