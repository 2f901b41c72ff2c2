package slot

import "sync"

// MemSlot keeps the document in memory. FailWrites makes every Write return
// the given error, which is how tests simulate a full disk.
type MemSlot struct {
	mu         sync.Mutex
	data       []byte
	set        bool
	FailWrites error
}

func (m *MemSlot) Read() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return nil, ErrEmpty
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemSlot) Write(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.data = append([]byte(nil), data...)
	m.set = true
	return nil
}

func (m *MemSlot) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data, m.set = nil, false
	return nil
}
