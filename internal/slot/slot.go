// Package slot provides the durable named slot the chat history is persisted
// into. A slot holds one opaque document and is replaced wholesale on write.
package slot

import "errors"

// ErrEmpty is returned by Read when nothing has been written to the slot yet.
var ErrEmpty = errors.New("slot is empty")

// Slot is a single durable document. Write must be atomic: a reader observes
// either the previous document or the new one, never a mix.
type Slot interface {
	Read() ([]byte, error) // returns ErrEmpty if the slot has never been written
	Write(data []byte) error
	Clear() error
}

// Watchable is implemented by slots backed by a file other processes may
// rewrite.
type Watchable interface {
	Path() string
}
