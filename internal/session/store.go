// Package session owns the locally retained chat sessions and which one is
// active, and keeps them in a durable slot.
package session

import (
	"bytes"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fakeyudi/careerchat/internal/debug"
	"github.com/fakeyudi/careerchat/internal/slot"
)

// Reporter receives conditions the store recovers from on its own:
// *CorruptStateError and *PersistenceError.
type Reporter func(err error)

// Options tunes a Store.
type Options struct {
	// Strict makes SetActiveSession, UpdateSession and RenameSession reject
	// unknown ids with ErrInvalidReference. When false, SetActiveSession
	// accepts any id and the others silently do nothing.
	Strict bool

	// MaxSessions caps the number of retained sessions. Zero means unbounded.
	// When a create pushes the count over the cap, the least recently updated
	// sessions other than the active one are evicted.
	MaxSessions int

	Reporter Reporter
	Now      func() time.Time
	NewID    func() string
}

// Store is the single source of truth for local sessions. Every mutation is
// written through to the slot.
type Store struct {
	mu       sync.Mutex
	slot     slot.Slot
	opts     Options
	sessions []Session // newest first
	activeID string

	// lastSynced is the document most recently written or loaded; the file
	// watcher uses it to tell our own writes from another process's.
	lastSynced []byte
	stopWatch  func()
}

// NewStore returns an empty store backed by sl. Call Load to restore state.
func NewStore(sl slot.Slot, opts Options) *Store {
	if opts.Reporter == nil {
		opts.Reporter = func(err error) { debug.Error("session", err, "chat history") }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Store{slot: sl, opts: opts}
}

// Open returns a store backed by sl with persisted state already loaded.
func Open(sl slot.Slot, opts Options) *Store {
	s := NewStore(sl, opts)
	s.Load()
	return s
}

// Close stops any file watcher and closes the slot if it holds resources.
func (s *Store) Close() error {
	s.mu.Lock()
	stop := s.stopWatch
	s.stopWatch = nil
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
	if c, ok := s.slot.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Store) now() time.Time {
	return s.opts.Now().Truncate(time.Millisecond)
}

// CreateSession prepends a new empty session, makes it active and returns its id.
func (s *Store) CreateSession(title string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.opts.NewID()
	for s.indexOf(id) >= 0 {
		id = s.opts.NewID()
	}
	now := s.now()
	s.sessions = append([]Session{{
		ID:        id,
		Title:     title,
		Messages:  []Turn{},
		CreatedAt: now,
		UpdatedAt: now,
	}}, s.sessions...)
	s.activeID = id
	s.evict()
	s.save("create")
	return id
}

// DeleteSession removes the session if present. Deleting the active session
// clears the active reference. Unknown ids are ignored.
func (s *Store) DeleteSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i >= 0 {
		s.sessions = append(s.sessions[:i:i], s.sessions[i+1:]...)
	}
	if s.activeID == id {
		s.activeID = ""
	}
	s.save("delete")
}

// UpdateSession replaces the session's messages with a copy of messages and
// bumps UpdatedAt. Callers pass the complete transcript, not a delta.
func (s *Store) UpdateSession(id string, messages []Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return s.missing()
	}
	s.sessions[i].Messages = cloneTurns(messages)
	s.sessions[i].UpdatedAt = s.now()
	s.save("update")
	return nil
}

// RenameSession changes a session's title.
func (s *Store) RenameSession(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return s.missing()
	}
	s.sessions[i].Title = title
	s.save("rename")
	return nil
}

// SetActiveSession makes id the active session. In strict mode an unknown id
// is rejected with ErrInvalidReference and the active session is unchanged.
func (s *Store) SetActiveSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.Strict && s.indexOf(id) < 0 {
		return ErrInvalidReference
	}
	s.activeID = id
	s.save("select")
	return nil
}

// ActiveSessionID returns the active session id, if any.
func (s *Store) ActiveSessionID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID, s.activeID != ""
}

// ActiveSession returns a copy of the active session. It reports false when
// nothing is active or the active id does not resolve (permissive mode).
func (s *Store) ActiveSession() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(s.activeID)
	if s.activeID == "" || i < 0 {
		return Session{}, false
	}
	return s.sessions[i].clone(), true
}

// GetSession returns a copy of the session with the given id.
func (s *Store) GetSession(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return Session{}, false
	}
	return s.sessions[i].clone(), true
}

// ListSessions returns copies of all sessions, newest first.
func (s *Store) ListSessions() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess.clone()
	}
	return out
}

// Load replaces in-memory state with the slot's contents. An empty slot
// leaves the store empty. Unreadable or malformed data is reported as a
// *CorruptStateError and the store starts empty.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions, s.activeID = nil, ""
	data, err := s.slot.Read()
	if err != nil {
		if !errors.Is(err, slot.ErrEmpty) {
			s.opts.Reporter(&CorruptStateError{Err: err})
		}
		return
	}
	s.apply(data)
}

// apply installs a decoded document. Caller holds s.mu.
func (s *Store) apply(data []byte) bool {
	sessions, active, err := decodeState(data)
	if err != nil {
		s.opts.Reporter(&CorruptStateError{Err: err})
		return false
	}
	if s.opts.Strict && active != "" && indexIn(sessions, active) < 0 {
		active = ""
	}
	s.sessions, s.activeID = sessions, active
	s.lastSynced = data
	return true
}

// save writes the whole store to the slot. Caller holds s.mu. A failed write
// is reported; the in-memory change stands.
func (s *Store) save(op string) {
	data, err := encodeState(s.sessions, s.activeID)
	if err == nil {
		err = s.slot.Write(data)
	}
	if err != nil {
		s.opts.Reporter(&PersistenceError{Op: op, Err: err})
		return
	}
	s.lastSynced = data
}

// reload re-reads the slot after an external change. It returns true when the
// in-memory state was replaced. Corrupt external data is reported and ignored.
func (s *Store) reload() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.slot.Read()
	if err != nil {
		if errors.Is(err, slot.ErrEmpty) {
			if len(s.sessions) == 0 && s.activeID == "" {
				return false
			}
			s.sessions, s.activeID, s.lastSynced = nil, "", nil
			return true
		}
		s.opts.Reporter(&CorruptStateError{Err: err})
		return false
	}
	if bytes.Equal(data, s.lastSynced) {
		return false
	}
	return s.apply(data)
}

// evict enforces MaxSessions. Caller holds s.mu.
func (s *Store) evict() {
	limit := s.opts.MaxSessions
	if limit <= 0 || len(s.sessions) <= limit {
		return
	}

	candidates := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if sess.ID != s.activeID {
			candidates = append(candidates, sess)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].UpdatedAt.Before(candidates[j].UpdatedAt)
	})

	drop := make(map[string]bool)
	for _, c := range candidates[:len(s.sessions)-limit] {
		drop[c.ID] = true
	}
	kept := s.sessions[:0]
	for _, sess := range s.sessions {
		if !drop[sess.ID] {
			kept = append(kept, sess)
		}
	}
	s.sessions = kept
}

func (s *Store) missing() error {
	if s.opts.Strict {
		return ErrInvalidReference
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	return indexIn(s.sessions, id)
}

func indexIn(sessions []Session, id string) int {
	for i := range sessions {
		if sessions[i].ID == id {
			return i
		}
	}
	return -1
}
