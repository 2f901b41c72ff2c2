// Package export renders chat transcripts to files and reads exported
// transcripts back.
package export

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fakeyudi/careerchat/internal/session"
)

// Transcript is the exportable form of a conversation.
type Transcript struct {
	Title      string    `json:"title,omitempty" yaml:"title,omitempty"`
	ExportDate time.Time `json:"exportDate" yaml:"exportDate"`
	Messages   []Entry   `json:"messages" yaml:"messages"`
}

// Entry is one exported message. Timestamp is the export time; turns carry
// no time of their own.
type Entry struct {
	Role      string    `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// timeLayout matches JavaScript's Date.toISOString output.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

type transcriptJSON struct {
	Title      string  `json:"title,omitempty"`
	ExportDate string  `json:"exportDate"`
	Messages   []Entry `json:"messages"`
}

type entryJSON struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

func (t Transcript) MarshalJSON() ([]byte, error) {
	msgs := t.Messages
	if msgs == nil {
		msgs = []Entry{}
	}
	return json.Marshal(transcriptJSON{
		Title:      t.Title,
		ExportDate: t.ExportDate.UTC().Format(timeLayout),
		Messages:   msgs,
	})
}

func (t *Transcript) UnmarshalJSON(data []byte) error {
	var w transcriptJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	date, err := parseStamp(w.ExportDate)
	if err != nil {
		return fmt.Errorf("exportDate: %w", err)
	}
	*t = Transcript{Title: w.Title, ExportDate: date, Messages: w.Messages}
	return nil
}

func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{
		Role:      e.Role,
		Content:   e.Content,
		Timestamp: e.Timestamp.UTC().Format(timeLayout),
	})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var w entryJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	ts, err := parseStamp(w.Timestamp)
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	*e = Entry{Role: w.Role, Content: w.Content, Timestamp: ts}
	return nil
}

// parseStamp reads an ISO 8601 timestamp. A missing one is the zero time.
func parseStamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// FromTurns builds a transcript exported at now.
func FromTurns(title string, turns []session.Turn, now time.Time) *Transcript {
	now = now.UTC().Truncate(time.Millisecond)
	t := &Transcript{Title: title, ExportDate: now, Messages: make([]Entry, len(turns))}
	for i, turn := range turns {
		t.Messages[i] = Entry{Role: string(turn.Role), Content: turn.Content, Timestamp: now}
	}
	return t
}

// FromSession builds a transcript of s exported at now.
func FromSession(s session.Session, now time.Time) *Transcript {
	return FromTurns(s.Title, s.Messages, now)
}

// Turns converts the entries back to session turns, rejecting unknown roles.
func (t *Transcript) Turns() ([]session.Turn, error) {
	out := make([]session.Turn, len(t.Messages))
	for i, e := range t.Messages {
		role := session.Role(e.Role)
		if !role.Valid() {
			return nil, fmt.Errorf("message %d: unknown role %q", i, e.Role)
		}
		out[i] = session.Turn{Role: role, Content: e.Content}
	}
	return out, nil
}

// Format names an export format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatText     Format = "txt"
	FormatCSV      Format = "csv"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "md"
	FormatYAML     Format = "yaml"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatText, FormatCSV, FormatHTML, FormatMarkdown, FormatYAML}

// ParseFormat accepts a format name or a common alias.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "json":
		return FormatJSON, nil
	case "txt", "text":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "html", "htm", "pdf":
		return FormatHTML, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown export format %q (want json, txt, csv, html, md or yaml)", s)
}

// Renderer returns the renderer for f.
func (f Format) Renderer() Renderer {
	switch f {
	case FormatText:
		return &TextRenderer{}
	case FormatCSV:
		return &CSVRenderer{}
	case FormatHTML:
		return &HTMLRenderer{}
	case FormatMarkdown:
		return &MarkdownRenderer{}
	case FormatYAML:
		return &YAMLRenderer{}
	}
	return &JSONRenderer{}
}

// Filename is the default file name for an export taken at now.
func (f Format) Filename(now time.Time) string {
	stamp := now.UTC().Format("2006-01-02T15-04-05.000Z")
	return fmt.Sprintf("chat-%s.%s", stamp, f)
}

// ParserFor picks a parser from a file's extension. Only JSON, Markdown and
// YAML exports carry enough to be read back.
func ParserFor(path string) (Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return &JSONParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".yaml", ".yml":
		return &YAMLParser{}, nil
	}
	return nil, fmt.Errorf("cannot import %s: only .json, .md and .yaml exports can be imported", filepath.Base(path))
}
