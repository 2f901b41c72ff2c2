// Package voice abstracts speech input, speech output and desktop
// notifications behind one capability so the chat can be driven and tested
// without the platform facilities.
package voice

import "errors"

// ErrUnsupported is returned when no facility is configured for an action.
var ErrUnsupported = errors.New("voice: not supported on this system")

// Handle identifies one listening session.
type Handle uint64

// Capability is the voice and notification surface the chat uses. Callbacks
// may run on another goroutine.
type Capability interface {
	StartListening(onResult func(text string), onError func(err error)) (Handle, error)
	StopListening(h Handle)
	Speak(text string, onDone func()) error
	StopSpeaking()
	Notify(title, body string) error
}
