package session

import (
	"encoding/json"
	"fmt"
	"time"
)

// timeLayout matches JavaScript's Date.toISOString output.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

type persistedSession struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Messages  []Turn `json:"messages"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type persistedState struct {
	Sessions        []persistedSession `json:"sessions"`
	ActiveSessionID *string            `json:"activeSessionId"`
}

func encodeState(sessions []Session, activeID string) ([]byte, error) {
	st := persistedState{Sessions: make([]persistedSession, 0, len(sessions))}
	for _, s := range sessions {
		msgs := s.Messages
		if msgs == nil {
			msgs = []Turn{}
		}
		st.Sessions = append(st.Sessions, persistedSession{
			ID:        s.ID,
			Title:     s.Title,
			Messages:  msgs,
			CreatedAt: s.CreatedAt.UTC().Format(timeLayout),
			UpdatedAt: s.UpdatedAt.UTC().Format(timeLayout),
		})
	}
	if activeID != "" {
		id := activeID
		st.ActiveSessionID = &id
	}
	return json.Marshal(st)
}

func decodeState(data []byte) ([]Session, string, error) {
	var st persistedState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, "", err
	}

	seen := make(map[string]bool, len(st.Sessions))
	sessions := make([]Session, 0, len(st.Sessions))
	for i, ps := range st.Sessions {
		if ps.ID == "" {
			return nil, "", fmt.Errorf("session %d has no id", i)
		}
		if seen[ps.ID] {
			return nil, "", fmt.Errorf("duplicate session id %q", ps.ID)
		}
		seen[ps.ID] = true

		created, err := time.Parse(time.RFC3339Nano, ps.CreatedAt)
		if err != nil {
			return nil, "", fmt.Errorf("session %q createdAt: %w", ps.ID, err)
		}
		updated, err := time.Parse(time.RFC3339Nano, ps.UpdatedAt)
		if err != nil {
			return nil, "", fmt.Errorf("session %q updatedAt: %w", ps.ID, err)
		}
		for j, m := range ps.Messages {
			if !m.Role.Valid() {
				return nil, "", fmt.Errorf("session %q message %d: unknown role %q", ps.ID, j, m.Role)
			}
		}

		msgs := ps.Messages
		if msgs == nil {
			msgs = []Turn{}
		}
		sessions = append(sessions, Session{
			ID:        ps.ID,
			Title:     ps.Title,
			Messages:  msgs,
			CreatedAt: created,
			UpdatedAt: updated,
		})
	}

	active := ""
	if st.ActiveSessionID != nil {
		active = *st.ActiveSessionID
	}
	return sessions, active, nil
}
