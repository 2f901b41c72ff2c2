package reminders

import (
	"context"
	"sync"
	"time"

	"github.com/fakeyudi/careerchat/internal/debug"
)

// DefaultInterval is how often the poller checks for due reminders.
const DefaultInterval = time.Minute

// Notifier shows a reminder to the user.
type Notifier interface {
	Notify(title, body string) error
}

// Poller periodically fetches due reminders and notifies each one once per
// process. It shares no state with the session store.
type Poller struct {
	client   *Client
	notifier Notifier
	interval time.Duration

	mu       sync.Mutex
	notified map[int]bool
}

// NewPoller returns a Poller. A non-positive interval uses DefaultInterval.
func NewPoller(client *Client, notifier Notifier, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		client:   client,
		notifier: notifier,
		interval: interval,
		notified: make(map[int]bool),
	}
}

// Run checks immediately and then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Check(ctx)
		}
	}
}

// Check fetches due reminders once and notifies the ones not seen before.
// It returns the reminders it notified. Fetch failures are logged.
func (p *Poller) Check(ctx context.Context) []Reminder {
	due, err := p.client.Due(ctx)
	if err != nil {
		debug.Error("reminders", err, "checking due reminders")
		return nil
	}

	var fresh []Reminder
	p.mu.Lock()
	for _, r := range due {
		if r.Done() || p.notified[r.ID] {
			continue
		}
		p.notified[r.ID] = true
		fresh = append(fresh, r)
	}
	p.mu.Unlock()

	for _, r := range fresh {
		if err := p.notifier.Notify("Reminder", r.Title); err != nil {
			debug.Error("reminders", err, "notifying reminder")
		}
	}
	return fresh
}
