// Package chat is the caller that composes the session store and the request
// gateway: it keeps the visible transcript, sends turns and writes completed
// exchanges back to the active session.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fakeyudi/careerchat/internal/gateway"
	"github.com/fakeyudi/careerchat/internal/session"
)

// Apology is shown in place of a reply when a send fails.
const Apology = "Sorry, something went wrong. Please try again."

var (
	// ErrEmpty is returned when the utterance is blank.
	ErrEmpty = errors.New("message is empty")
	// ErrBusy is returned when a send is already in flight.
	ErrBusy = errors.New("a message is already being sent")
)

// Sender delivers one utterance to the assistant. *gateway.Gateway
// implements it.
type Sender interface {
	Send(ctx context.Context, text string, prior []gateway.Turn, recruiterMode bool, task gateway.Task) (*gateway.Reply, error)
}

// Message is one visible line of the transcript. Failed marks the apology
// shown for a failed send; failed lines are neither sent as context nor
// persisted.
type Message struct {
	session.Turn
	Failed bool
}

// Result describes the outcome of a Send.
type Result struct {
	Reply *gateway.Reply // nil when the send failed
	Err   error
}

// Conversation holds the visible transcript for the active session.
type Conversation struct {
	store  *session.Store
	sender Sender

	mu            sync.Mutex
	messages      []Message
	recruiterMode bool
	task          gateway.Task
	sending       bool
}

// New returns a Conversation showing the store's active session, if any.
func New(store *session.Store, sender Sender, recruiterMode bool, task gateway.Task) *Conversation {
	c := &Conversation{
		store:         store,
		sender:        sender,
		recruiterMode: recruiterMode,
		task:          task,
	}
	if s, ok := store.ActiveSession(); ok {
		c.messages = fromTurns(s.Messages)
	}
	return c
}

// DefaultTitle is the title offered for a new chat.
func DefaultTitle(now time.Time) string {
	return "Chat " + now.Format("1/2/2006")
}

// NewChat clears the transcript and starts a new active session. It fails
// with ErrBusy while a send is in flight.
func (c *Conversation) NewChat(title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle(time.Now())
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sending {
		return "", ErrBusy
	}
	c.messages = nil
	return c.store.CreateSession(title), nil
}

// Select makes id the active session and shows its transcript. It fails
// with ErrBusy while a send is in flight.
func (c *Conversation) Select(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sending {
		return ErrBusy
	}
	s, ok := c.store.GetSession(id)
	if !ok {
		return fmt.Errorf("select %q: %w", id, session.ErrInvalidReference)
	}
	if err := c.store.SetActiveSession(id); err != nil {
		return err
	}
	c.messages = fromTurns(s.Messages)
	return nil
}

// Reload refreshes the transcript from the active session, clearing it when
// there is none. Use it after the store changed underneath the conversation.
// It does nothing mid-send.
func (c *Conversation) Reload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sending {
		return
	}
	c.messages = nil
	if s, ok := c.store.ActiveSession(); ok {
		c.messages = fromTurns(s.Messages)
	}
}

// Messages returns a copy of the visible transcript.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// Search returns visible messages containing query, ignoring case.
func (c *Conversation) Search(query string) []Message {
	q := strings.ToLower(query)
	var out []Message
	for _, m := range c.Messages() {
		if strings.Contains(strings.ToLower(m.Content), q) {
			out = append(out, m)
		}
	}
	return out
}

// LastReply returns the most recent successful assistant message.
func (c *Conversation) LastReply() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		m := c.messages[i]
		if m.Role == session.RoleAssistant && !m.Failed {
			return m.Content, true
		}
	}
	return "", false
}

func (c *Conversation) RecruiterMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recruiterMode
}

func (c *Conversation) SetRecruiterMode(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recruiterMode = on
}

func (c *Conversation) Task() gateway.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.task
}

func (c *Conversation) SetTask(t gateway.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.task = t
}

// CycleTask advances to the next task mode and returns it.
func (c *Conversation) CycleTask() gateway.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := 0
	for i, t := range gateway.Tasks {
		if t == c.task {
			next = (i + 1) % len(gateway.Tasks)
			break
		}
	}
	c.task = gateway.Tasks[next]
	return c.task
}

// Sending reports whether a send is in flight.
func (c *Conversation) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

// Send appends the user's turn, asks the assistant and appends the reply.
// On success the full transcript is written to the session that was active
// when the send started. On a
// request failure the apology is shown instead and nothing is persisted;
// the error is returned in the Result rather than as err, which is reserved
// for sends that never started.
func (c *Conversation) Send(ctx context.Context, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmpty
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return Result{}, ErrBusy
	}
	c.sending = true
	target, persist := c.store.ActiveSessionID()
	prior := history(c.messages)
	user := session.Turn{Role: session.RoleUser, Content: text}
	c.messages = append(c.messages, Message{Turn: user})
	recruiter, task := c.recruiterMode, c.task
	c.mu.Unlock()

	reply, err := c.sender.Send(ctx, text, toGateway(prior), recruiter, task)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sending = false
	if err != nil {
		c.messages = append(c.messages, Message{
			Turn:   session.Turn{Role: session.RoleAssistant, Content: Apology},
			Failed: true,
		})
		return Result{Err: err}, nil
	}

	c.messages = append(c.messages, Message{Turn: session.Turn{Role: session.RoleAssistant, Content: reply.Reply}})
	if persist {
		transcript := append(prior, user, session.Turn{Role: session.RoleAssistant, Content: reply.Reply})
		if uerr := c.store.UpdateSession(target, transcript); uerr != nil {
			return Result{Reply: reply, Err: uerr}, nil
		}
	}
	return Result{Reply: reply}, nil
}

// history returns the turns that count as conversation context.
func history(msgs []Message) []session.Turn {
	out := make([]session.Turn, 0, len(msgs))
	for _, m := range msgs {
		if !m.Failed {
			out = append(out, m.Turn)
		}
	}
	return out
}

func fromTurns(turns []session.Turn) []Message {
	out := make([]Message, len(turns))
	for i, t := range turns {
		out[i] = Message{Turn: t}
	}
	return out
}

func toGateway(turns []session.Turn) []gateway.Turn {
	if len(turns) == 0 {
		return nil
	}
	out := make([]gateway.Turn, len(turns))
	for i, t := range turns {
		out[i] = gateway.Turn{Role: string(t.Role), Content: t.Content}
	}
	return out
}
