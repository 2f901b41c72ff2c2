package gateway

import (
	"fmt"
	"strings"
)

// Task selects a specialised prompt mode on the assistant.
type Task string

const (
	TaskNone             Task = ""
	TaskCoverLetter      Task = "cover_letter"
	TaskResumeReview     Task = "resume_review"
	TaskMessageTemplates Task = "message_templates"
	TaskMockInterview    Task = "mock_interview"
)

// Tasks lists every task in display order, general chat first.
var Tasks = []Task{TaskNone, TaskCoverLetter, TaskResumeReview, TaskMessageTemplates, TaskMockInterview}

// ParseTask accepts a task label with either dashes or underscores.
func ParseTask(s string) (Task, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if norm == "" || norm == "none" || norm == "chat" {
		return TaskNone, nil
	}
	for _, t := range Tasks {
		if string(t) == norm {
			return t, nil
		}
	}
	return TaskNone, fmt.Errorf("unknown task %q (want cover-letter, resume-review, message-templates or mock-interview)", s)
}

// Label is a human-readable task name.
func (t Task) Label() string {
	switch t {
	case TaskCoverLetter:
		return "Cover letter"
	case TaskResumeReview:
		return "Resume review"
	case TaskMessageTemplates:
		return "Message templates"
	case TaskMockInterview:
		return "Mock interview"
	}
	return "Chat"
}

// Turn is one prior message sent as context.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the body of POST /api/respond.
type Request struct {
	Text          string `json:"text"`
	RecruiterMode bool   `json:"recruiter_mode"`
	Task          Task   `json:"task,omitempty"`
	History       []Turn `json:"history,omitempty"`
}

// Intent is the assistant's classification of the utterance.
type Intent struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Latency breaks down server-side time in milliseconds.
type Latency struct {
	NLU   int `json:"nlu"`
	LLM   int `json:"llm"`
	Total int `json:"total"`
}

// Reply is the body of a successful POST /api/respond.
type Reply struct {
	Reply      string            `json:"reply"`
	Intent     Intent            `json:"intent"`
	Entities   map[string]string `json:"entities"`
	ToolTrace  []string          `json:"tool_trace"`
	LatencyMS  Latency           `json:"latency_ms"`
	ReminderID *int              `json:"reminder_id,omitempty"` // set when the utterance created a reminder
}

// Health is the body of GET /health.
type Health struct {
	Status string `json:"status"`
	Model  string `json:"model"`
	LLM    bool   `json:"llm"`
}
