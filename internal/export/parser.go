package export

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parser reads an exported transcript back.
type Parser interface {
	Parse(data []byte) (*Transcript, error)
}

// JSONParser parses a JSON export.
type JSONParser struct{}

func (p *JSONParser) Parse(data []byte) (*Transcript, error) {
	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse JSON export: %w", err)
	}
	return &t, nil
}

// YAMLParser parses a YAML export.
type YAMLParser struct{}

func (p *YAMLParser) Parse(data []byte) (*Transcript, error) {
	var t Transcript
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse YAML export: %w", err)
	}
	if t.Messages == nil {
		return nil, fmt.Errorf("not a careerchat export: no messages")
	}
	return &t, nil
}

// MarkdownParser extracts the payload embedded by MarkdownRenderer.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(data []byte) (*Transcript, error) {
	content := string(data)
	if !strings.Contains(content, markdownVersion) {
		return nil, fmt.Errorf("not a careerchat export: missing version marker")
	}

	start := strings.Index(content, markdownPrefix)
	if start == -1 {
		return nil, fmt.Errorf("not a careerchat export: missing data payload")
	}
	start += len(markdownPrefix)
	end := strings.Index(content[start:], markdownSuffix)
	if end == -1 {
		return nil, fmt.Errorf("not a careerchat export: malformed data payload")
	}

	jsonBytes, err := base64.StdEncoding.DecodeString(content[start : start+end])
	if err != nil {
		return nil, fmt.Errorf("not a careerchat export: corrupted payload: %w", err)
	}
	var t Transcript
	if err := json.Unmarshal(jsonBytes, &t); err != nil {
		return nil, fmt.Errorf("not a careerchat export: failed to parse embedded JSON: %w", err)
	}
	return &t, nil
}
