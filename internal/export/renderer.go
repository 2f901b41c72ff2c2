package export

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"gopkg.in/yaml.v3"
)

// Renderer serializes a Transcript to bytes.
type Renderer interface {
	Render(t *Transcript) ([]byte, error)
}

// JSONRenderer renders a Transcript as indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(t *Transcript) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// YAMLRenderer renders a Transcript as a YAML document.
type YAMLRenderer struct{}

func (r *YAMLRenderer) Render(t *Transcript) ([]byte, error) {
	return yaml.Marshal(t)
}

// TextRenderer renders one block per message, separated by rules.
type TextRenderer struct{}

func (r *TextRenderer) Render(t *Transcript) ([]byte, error) {
	blocks := make([]string, len(t.Messages))
	for i, m := range t.Messages {
		blocks[i] = fmt.Sprintf("[%s]\n%s\n", strings.ToUpper(m.Role), m.Content)
	}
	return []byte(strings.Join(blocks, "\n---\n\n")), nil
}

// CSVRenderer renders a Role,Message table with every field quoted.
type CSVRenderer struct{}

func (r *CSVRenderer) Render(t *Transcript) ([]byte, error) {
	var sb strings.Builder
	sb.WriteString("Role,Message\n")
	for i, m := range t.Messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(quoteCSV(m.Role))
		sb.WriteString(",")
		sb.WriteString(quoteCSV(m.Content))
	}
	return []byte(sb.String()), nil
}

func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

var htmlTemplate = template.Must(template.New("chat").Funcs(template.FuncMap{
	"upper": strings.ToUpper,
}).Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{if .Title}}{{.Title}}{{else}}Chat Export{{end}}</title>
  <style>
    body { font-family: Arial, sans-serif; margin: 20px; }
    .message { margin: 15px 0; padding: 10px; border-radius: 5px; }
    .user { background: #e3f2fd; margin-left: 20px; }
    .assistant { background: #f5f5f5; }
    .role { font-weight: bold; color: #555; }
    .content { margin-top: 5px; white-space: pre-wrap; }
  </style>
</head>
<body>
  <h1>{{if .Title}}{{.Title}}{{else}}Chat Export{{end}}</h1>
  <p>Exported: {{.Exported}}</p>
{{- range .Messages}}
  <div class="message {{.Role}}">
    <div class="role">{{upper .Role}}</div>
    <div class="content">{{.Content}}</div>
  </div>
{{- end}}
</body>
</html>
`))

// HTMLRenderer renders a printable HTML page.
type HTMLRenderer struct{}

func (r *HTMLRenderer) Render(t *Transcript) ([]byte, error) {
	var buf bytes.Buffer
	err := htmlTemplate.Execute(&buf, struct {
		*Transcript
		Exported string
	}{t, t.ExportDate.Local().Format("1/2/2006, 3:04:05 PM")})
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

const (
	markdownVersion = "<!-- careerchat-export-version: 1 -->"
	markdownPrefix  = "<!-- careerchat-data: "
	markdownSuffix  = " -->"
)

// MarkdownRenderer renders readable Markdown with an embedded base64 JSON
// payload so the file can be imported again.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(t *Transcript) ([]byte, error) {
	jsonBytes, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshal transcript: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(jsonBytes)

	var sb strings.Builder
	sb.WriteString(markdownVersion + "\n")
	fmt.Fprintf(&sb, "%s%s%s\n\n", markdownPrefix, encoded, markdownSuffix)

	title := t.Title
	if title == "" {
		title = "Chat Export"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "_Exported %s_\n\n", t.ExportDate.Format("2006-01-02 15:04:05 MST"))

	if len(t.Messages) == 0 {
		sb.WriteString("_No messages._\n")
	}
	for _, m := range t.Messages {
		name := "You"
		if m.Role == "assistant" {
			name = "Assistant"
		}
		fmt.Fprintf(&sb, "### %s\n\n%s\n", name, m.Content)
		if !strings.HasSuffix(m.Content, "\n") {
			sb.WriteString("\n")
		}
	}
	return []byte(sb.String()), nil
}
