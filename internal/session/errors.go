package session

import (
	"errors"
	"fmt"
)

// ErrInvalidReference is returned when an operation names a session id that
// is not in the store.
var ErrInvalidReference = errors.New("no such session")

// CorruptStateError reports that the durable slot held data that could not be
// decoded. The store recovers by starting empty.
type CorruptStateError struct {
	Err error
}

func (e *CorruptStateError) Error() string {
	return "corrupt chat history: " + e.Err.Error()
}

func (e *CorruptStateError) Unwrap() error { return e.Err }

// PersistenceError reports that writing the durable slot failed. In-memory
// state stays authoritative.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist chat history after %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
