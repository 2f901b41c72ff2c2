package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"

	"github.com/fakeyudi/careerchat/internal/chat"
	"github.com/fakeyudi/careerchat/internal/gateway"
	"github.com/fakeyudi/careerchat/internal/session"
	"github.com/fakeyudi/careerchat/internal/slot"
	"github.com/fakeyudi/careerchat/internal/voice"
)

type stubSender struct {
	reply string
	err   error
}

func (s stubSender) Send(context.Context, string, []gateway.Turn, bool, gateway.Task) (*gateway.Reply, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &gateway.Reply{Reply: s.reply}, nil
}

type fixture struct {
	model  Model
	store  *session.Store
	conv   *chat.Conversation
	voice  *voice.Fake
	copied []string
}

func newFixture(t *testing.T, sender chat.Sender) *fixture {
	t.Helper()
	f := &fixture{voice: voice.NewFake()}
	f.store = session.NewStore(&slot.MemSlot{}, session.Options{Strict: true, Reporter: func(error) {}})
	f.conv = chat.New(f.store, sender, true, gateway.TaskNone)
	f.model = New(Options{
		Conversation: f.conv,
		Store:        f.store,
		Voice:        f.voice,
		CopyText:     func(s string) error { f.copied = append(f.copied, s); return nil },
		ColorProfile: termenv.Ascii,
	})
	f.update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return f
}

func (f *fixture) update(msg tea.Msg) tea.Cmd {
	m, cmd := f.model.Update(msg)
	f.model = m.(Model)
	return cmd
}

func (f *fixture) key(k tea.KeyType) tea.Cmd {
	return f.update(tea.KeyMsg{Type: k})
}

func (f *fixture) typeText(s string) {
	f.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// sendAndWait submits the input and feeds the reply back into the model.
func (f *fixture) sendAndWait(t *testing.T, text string) {
	t.Helper()
	f.typeText(text)
	cmd := f.key(tea.KeyEnter)
	if cmd == nil {
		t.Fatal("enter produced no command")
	}
	batch, ok := cmd().(tea.BatchMsg)
	if !ok || len(batch) == 0 {
		t.Fatalf("expected batch, got %T", cmd())
	}
	f.update(batch[0]())
}

func TestSendShowsReplyAndPersists(t *testing.T) {
	f := newFixture(t, stubSender{reply: "Lead with impact."})
	f.conv.NewChat("Resume")
	f.sendAndWait(t, "How should I start my resume?")

	s, _ := f.store.ActiveSession()
	if len(s.Messages) != 2 || s.Messages[1].Content != "Lead with impact." {
		t.Fatalf("persisted = %+v", s.Messages)
	}
	view := f.model.View()
	if !strings.Contains(view, "Resume") || !strings.Contains(view, "Recruiter ON") {
		t.Errorf("view missing header:\n%s", view)
	}
	if f.model.input.Value() != "" {
		t.Errorf("input not cleared: %q", f.model.input.Value())
	}
}

func TestFailedSendFlashesError(t *testing.T) {
	f := newFixture(t, stubSender{err: &gateway.RequestError{Message: "bad role"}})
	f.conv.NewChat("x")
	f.sendAndWait(t, "hi")
	if !strings.Contains(f.model.flash, "bad role") {
		t.Errorf("flash = %q", f.model.flash)
	}
	msgs := f.conv.Messages()
	if len(msgs) != 2 || msgs[1].Content != chat.Apology {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestNewChatPrompt(t *testing.T) {
	f := newFixture(t, stubSender{})
	f.key(tea.KeyCtrlN)
	if f.model.mode != modeTitle || f.model.input.Value() == "" {
		t.Fatalf("mode=%v input=%q", f.model.mode, f.model.input.Value())
	}
	f.model.input.SetValue("")
	f.typeText("Negotiation")
	f.key(tea.KeyEnter)
	s, ok := f.store.ActiveSession()
	if !ok || s.Title != "Negotiation" {
		t.Errorf("active = %+v, %v", s, ok)
	}
	if f.model.mode != modeChat {
		t.Errorf("mode = %v", f.model.mode)
	}
}

func TestSessionPicker(t *testing.T) {
	f := newFixture(t, stubSender{reply: "r"})
	first, _ := f.conv.NewChat("First")
	f.conv.NewChat("Second")

	f.key(tea.KeyCtrlO)
	if f.model.mode != modeSessions || len(f.model.sessions) != 2 {
		t.Fatalf("mode=%v sessions=%d", f.model.mode, len(f.model.sessions))
	}
	f.key(tea.KeyDown)
	f.key(tea.KeyEnter)
	if id, _ := f.store.ActiveSessionID(); id != first {
		t.Errorf("active = %q, want %q", id, first)
	}

	f.key(tea.KeyCtrlO)
	f.typeText("d")
	if len(f.store.ListSessions()) != 1 {
		t.Errorf("delete did not remove a session")
	}
}

func TestTogglesAndCopy(t *testing.T) {
	f := newFixture(t, stubSender{reply: "Here is a draft."})
	f.conv.NewChat("x")

	f.key(tea.KeyCtrlR)
	if f.conv.RecruiterMode() {
		t.Error("recruiter mode not toggled")
	}
	f.key(tea.KeyCtrlT)
	if f.conv.Task() != gateway.TaskCoverLetter {
		t.Errorf("task = %q", f.conv.Task())
	}

	f.key(tea.KeyCtrlY)
	if len(f.copied) != 0 || f.model.flash != "nothing to copy yet" {
		t.Errorf("copied=%v flash=%q", f.copied, f.model.flash)
	}
	f.sendAndWait(t, "draft")
	f.key(tea.KeyCtrlY)
	if len(f.copied) != 1 || f.copied[0] != "Here is a draft." {
		t.Errorf("copied = %v", f.copied)
	}
}

func TestSpeakAndListen(t *testing.T) {
	f := newFixture(t, stubSender{reply: "Practice the STAR method."})
	f.conv.NewChat("x")
	f.sendAndWait(t, "tips?")

	cmd := f.key(tea.KeyCtrlS)
	if len(f.voice.Spoken) != 1 || f.voice.Spoken[0] != "Practice the STAR method." {
		t.Fatalf("spoken = %v", f.voice.Spoken)
	}
	f.update(cmd())
	if f.model.speaking {
		t.Error("still speaking after done")
	}

	cmd = f.key(tea.KeyCtrlL)
	if !f.model.listening || f.voice.Listening() != 1 {
		t.Fatal("not listening")
	}
	f.voice.Hear("tell me about salary bands")
	f.update(cmd())
	if f.model.listening || f.model.input.Value() != "tell me about salary bands" {
		t.Errorf("listening=%v input=%q", f.model.listening, f.model.input.Value())
	}

	cmd = f.key(tea.KeyCtrlL)
	f.voice.Fail(errors.New("no microphone"))
	f.update(cmd())
	if !strings.Contains(f.model.flash, "no microphone") {
		t.Errorf("flash = %q", f.model.flash)
	}
}

func TestSearchFiltersTranscript(t *testing.T) {
	f := newFixture(t, stubSender{reply: "Negotiate the base salary first."})
	f.conv.NewChat("x")
	f.sendAndWait(t, "offer advice")

	f.key(tea.KeyCtrlF)
	f.typeText("zzz")
	if !strings.Contains(f.model.renderTranscript(), "No messages match") {
		t.Error("search did not filter")
	}
	f.key(tea.KeyEsc)
	if f.model.query != "" || f.model.mode != modeChat {
		t.Errorf("query=%q mode=%v", f.model.query, f.model.mode)
	}
}

func TestReminderAndHistoryMessages(t *testing.T) {
	f := newFixture(t, stubSender{})
	f.update(ReminderMsg{Title: "Reminder", Body: "Follow up with Acme"})
	if !strings.Contains(f.model.flash, "Follow up with Acme") {
		t.Errorf("flash = %q", f.model.flash)
	}

	id := f.store.CreateSession("external")
	f.store.UpdateSession(id, []session.Turn{{Role: session.RoleUser, Content: "written elsewhere"}})
	f.update(HistoryChangedMsg{})
	if msgs := f.conv.Messages(); len(msgs) != 1 {
		t.Errorf("messages = %+v", msgs)
	}
}

type recordingProgram struct{ msgs []tea.Msg }

func (p *recordingProgram) Send(msg tea.Msg) { p.msgs = append(p.msgs, msg) }

func TestNotifierForwards(t *testing.T) {
	prog := &recordingProgram{}
	next := voice.NewFake()
	n := Notifier{Program: prog, Next: next}
	if err := n.Notify("Reminder", "Call Ana"); err != nil {
		t.Fatal(err)
	}
	if len(prog.msgs) != 1 || prog.msgs[0] != (ReminderMsg{Title: "Reminder", Body: "Call Ana"}) {
		t.Errorf("program msgs = %v", prog.msgs)
	}
	if len(next.Notified()) != 1 {
		t.Error("not forwarded")
	}
}

func TestMarkdownRendererCachesByWidth(t *testing.T) {
	r := newMarkdownRenderer(termenv.Ascii)
	out := r.render("**bold** text", 40)
	if !strings.Contains(out, "bold") {
		t.Errorf("render = %q", out)
	}
	first := r.renderer
	r.render("again", 40)
	if r.renderer != first {
		t.Error("renderer rebuilt for same width")
	}
	r.render("again", 60)
	if r.renderer == first {
		t.Error("renderer not rebuilt for new width")
	}
	if r.render("", 40) != "" {
		t.Error("empty content should render empty")
	}
}

type heldSender struct {
	started chan struct{}
	release chan struct{}
}

func (h heldSender) Send(context.Context, string, []gateway.Turn, bool, gateway.Task) (*gateway.Reply, error) {
	close(h.started)
	<-h.release
	return &gateway.Reply{Reply: "late reply"}, nil
}

func TestSessionSwitchBlockedWhileSending(t *testing.T) {
	h := heldSender{started: make(chan struct{}), release: make(chan struct{})}
	f := newFixture(t, h)
	target, _ := f.conv.NewChat("A")
	other := f.store.CreateSession("B")
	f.store.SetActiveSession(target)

	f.typeText("A question")
	batch, ok := f.key(tea.KeyEnter)().(tea.BatchMsg)
	if !ok {
		t.Fatal("enter did not start a send")
	}
	reply := make(chan tea.Msg, 1)
	go func() { reply <- batch[0]() }()
	<-h.started

	f.key(tea.KeyCtrlN)
	if f.model.mode != modeChat || !strings.Contains(f.model.flash, chat.ErrBusy.Error()) {
		t.Errorf("ctrl+n mid-send: mode=%v flash=%q", f.model.mode, f.model.flash)
	}
	f.key(tea.KeyCtrlO)
	f.typeText("n")
	if f.model.mode == modeTitle {
		t.Error("picker allowed a new chat mid-send")
	}
	for i, s := range f.model.sessions {
		if s.ID == other {
			f.model.cursor = i
		}
	}
	f.key(tea.KeyEnter)

	close(h.release)
	f.update(<-reply)

	if id, _ := f.store.ActiveSessionID(); id != target {
		t.Errorf("active = %q, want %q", id, target)
	}
	if s, _ := f.store.GetSession(target); len(s.Messages) != 2 {
		t.Errorf("A messages = %+v", s.Messages)
	}
	if s, _ := f.store.GetSession(other); len(s.Messages) != 0 {
		t.Errorf("B messages = %+v", s.Messages)
	}
}
