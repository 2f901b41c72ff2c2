// Package reminders reads and updates reminders kept by the assistant
// service and polls for ones that have come due.
package reminders

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Reminder mirrors the service's reminder record.
type Reminder struct {
	ID           int    `json:"id"`
	UserID       string `json:"user_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ReminderTime string `json:"reminder_time"`
	CreatedAt    string `json:"created_at"`
	Completed    int    `json:"completed"`
}

// timeLayouts covers Python's isoformat output with and without an offset.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Time parses ReminderTime. Timestamps without an offset are local time.
func (r Reminder) Time() (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, r.ReminderTime, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("reminder %d: unrecognised time %q", r.ID, r.ReminderTime)
}

// Done reports whether the reminder was completed.
func (r Reminder) Done() bool { return r.Completed != 0 }

// Caller performs JSON requests against the assistant service.
type Caller interface {
	Call(ctx context.Context, method, path string, body, out any) error
}

// Client wraps the reminder endpoints.
type Client struct {
	caller Caller
}

// NewClient returns a Client that issues requests through caller.
func NewClient(caller Caller) *Client {
	return &Client{caller: caller}
}

// List returns open reminders, soonest first.
func (c *Client) List(ctx context.Context) ([]Reminder, error) {
	var out []Reminder
	if err := c.caller.Call(ctx, http.MethodGet, "/api/reminders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Due returns open reminders whose time has passed.
func (c *Client) Due(ctx context.Context) ([]Reminder, error) {
	var out []Reminder
	if err := c.caller.Call(ctx, http.MethodGet, "/api/reminders/due", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create adds a reminder at the given time.
func (c *Client) Create(ctx context.Context, title, description string, at time.Time) (*Reminder, error) {
	body := map[string]string{
		"title":         title,
		"description":   description,
		"reminder_time": at.Format("2006-01-02T15:04:05"),
	}
	var out Reminder
	if err := c.caller.Call(ctx, http.MethodPost, "/api/reminders", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Complete marks a reminder done.
func (c *Client) Complete(ctx context.Context, id int) error {
	return c.caller.Call(ctx, http.MethodPatch, fmt.Sprintf("/api/reminders/%d/complete", id), nil, nil)
}

// Delete removes a reminder.
func (c *Client) Delete(ctx context.Context, id int) error {
	return c.caller.Call(ctx, http.MethodDelete, fmt.Sprintf("/api/reminders/%d", id), nil, nil)
}
