package reminders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fakeyudi/careerchat/internal/gateway"
	"github.com/fakeyudi/careerchat/internal/voice"
)

type recorded struct {
	method, path string
	body         map[string]any
}

// fakeService serves the reminder endpoints from an in-memory list.
type fakeService struct {
	mu    sync.Mutex
	calls []recorded
	due   []Reminder
	fail  bool
}

func (s *fakeService) handler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := recorded{method: r.Method, path: r.URL.Path}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&rec.body)
	}
	s.calls = append(s.calls, rec)

	if s.fail {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"detail": "db locked"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/reminders":
		json.NewEncoder(w).Encode([]Reminder{{ID: 1, Title: "Call Ana", ReminderTime: "2026-10-20T09:00:00"}})
	case r.Method == http.MethodGet && r.URL.Path == "/api/reminders/due":
		json.NewEncoder(w).Encode(s.due)
	case r.Method == http.MethodPost && r.URL.Path == "/api/reminders":
		json.NewEncoder(w).Encode(Reminder{ID: 7, Title: rec.body["title"].(string), ReminderTime: rec.body["reminder_time"].(string)})
	default:
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (s *fakeService) set(f func(*fakeService)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s)
}

func (s *fakeService) last() recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

func newClient(t *testing.T) (*Client, *fakeService) {
	t.Helper()
	svc := &fakeService{}
	srv := httptest.NewServer(http.HandlerFunc(svc.handler))
	t.Cleanup(srv.Close)
	gw := gateway.New(gateway.Options{BaseURL: srv.URL, AlternateURL: srv.URL})
	return NewClient(gw), svc
}

func TestClientEndpoints(t *testing.T) {
	ctx := context.Background()
	c, svc := newClient(t)

	list, err := c.List(ctx)
	if err != nil || len(list) != 1 || list[0].Title != "Call Ana" {
		t.Fatalf("List = %v, %v", list, err)
	}

	at := time.Date(2026, 10, 21, 14, 30, 0, 0, time.Local)
	created, err := c.Create(ctx, "Send thank-you note", "after onsite", at)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != 7 || created.ReminderTime != "2026-10-21T14:30:00" {
		t.Errorf("created = %+v", created)
	}
	if got := svc.last().body["description"]; got != "after onsite" {
		t.Errorf("description sent = %v", got)
	}

	if err := c.Complete(ctx, 7); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if l := svc.last(); l.method != http.MethodPatch || l.path != "/api/reminders/7/complete" {
		t.Errorf("Complete sent %s %s", l.method, l.path)
	}

	if err := c.Delete(ctx, 7); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if l := svc.last(); l.method != http.MethodDelete || l.path != "/api/reminders/7" {
		t.Errorf("Delete sent %s %s", l.method, l.path)
	}
}

func TestClientError(t *testing.T) {
	c, svc := newClient(t)
	svc.set(func(s *fakeService) { s.fail = true })
	_, err := c.Due(context.Background())
	if err == nil || err.Error() != "API error: db locked" {
		t.Errorf("err = %v", err)
	}
}

func TestReminderTime(t *testing.T) {
	cases := []string{
		"2026-10-20T09:00:00",
		"2026-10-20T09:00:00.123456",
		"2026-10-20T09:00",
		"2026-10-20T09:00:00Z",
	}
	for _, in := range cases {
		r := Reminder{ReminderTime: in}
		got, err := r.Time()
		if err != nil {
			t.Errorf("Time(%q): %v", in, err)
			continue
		}
		if got.Year() != 2026 || got.Month() != time.October || got.Day() != 20 {
			t.Errorf("Time(%q) = %v", in, got)
		}
	}
	if _, err := (Reminder{ID: 3, ReminderTime: "tomorrow"}).Time(); err == nil {
		t.Error("expected error for unparseable time")
	}
}

func TestPollerNotifiesOnce(t *testing.T) {
	c, svc := newClient(t)
	svc.set(func(s *fakeService) {
		s.due = []Reminder{
			{ID: 1, Title: "Follow up with recruiter"},
			{ID: 2, Title: "Already done", Completed: 1},
		}
	})
	fake := voice.NewFake()
	p := NewPoller(c, fake, 0)
	if p.interval != DefaultInterval {
		t.Errorf("interval = %v", p.interval)
	}

	ctx := context.Background()
	if got := p.Check(ctx); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("first check = %v", got)
	}
	if got := p.Check(ctx); len(got) != 0 {
		t.Errorf("second check re-notified %v", got)
	}

	svc.set(func(s *fakeService) { s.due = append(s.due, Reminder{ID: 3, Title: "Prep STAR stories"}) })
	p.Check(ctx)

	want := []voice.Notification{
		{Title: "Reminder", Body: "Follow up with recruiter"},
		{Title: "Reminder", Body: "Prep STAR stories"},
	}
	got := fake.Notified()
	if len(got) != len(want) {
		t.Fatalf("notifications = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPollerFetchFailureIsQuiet(t *testing.T) {
	c, svc := newClient(t)
	svc.set(func(s *fakeService) { s.fail = true })
	fake := voice.NewFake()
	p := NewPoller(c, fake, time.Hour)
	if got := p.Check(context.Background()); got != nil {
		t.Errorf("Check = %v", got)
	}
	if len(fake.Notified()) != 0 {
		t.Error("notified on failure")
	}
}

func TestPollerRunStopsOnCancel(t *testing.T) {
	c, svc := newClient(t)
	svc.set(func(s *fakeService) { s.due = []Reminder{{ID: 9, Title: "Submit application"}} })
	fake := voice.NewFake()
	p := NewPoller(c, fake, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for len(fake.Notified()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if n := fake.Notified(); len(n) != 1 {
		t.Errorf("notifications = %v", n)
	}
}
