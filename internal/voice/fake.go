package voice

import "sync"

// Fake records every call and lets tests drive listening callbacks.
type Fake struct {
	mu            sync.Mutex
	next          Handle
	listeners     map[Handle]fakeListener
	Spoken        []string
	Notifications []Notification
	Stopped       []Handle
	SpeechStopped int
}

// Notification is one recorded Notify call.
type Notification struct {
	Title, Body string
}

type fakeListener struct {
	onResult func(string)
	onError  func(error)
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{listeners: make(map[Handle]fakeListener)}
}

func (f *Fake) StartListening(onResult func(string), onError func(error)) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.listeners[f.next] = fakeListener{onResult: onResult, onError: onError}
	return f.next, nil
}

func (f *Fake) StopListening(h Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.listeners, h)
	f.Stopped = append(f.Stopped, h)
}

// Hear delivers text to every active listener and ends those sessions.
func (f *Fake) Hear(text string) {
	f.mu.Lock()
	ls := f.listeners
	f.listeners = make(map[Handle]fakeListener)
	f.mu.Unlock()
	for _, l := range ls {
		if l.onResult != nil {
			l.onResult(text)
		}
	}
}

// Fail delivers err to every active listener and ends those sessions.
func (f *Fake) Fail(err error) {
	f.mu.Lock()
	ls := f.listeners
	f.listeners = make(map[Handle]fakeListener)
	f.mu.Unlock()
	for _, l := range ls {
		if l.onError != nil {
			l.onError(err)
		}
	}
}

// Listening reports how many listening sessions are open.
func (f *Fake) Listening() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

func (f *Fake) Speak(text string, onDone func()) error {
	f.mu.Lock()
	f.Spoken = append(f.Spoken, text)
	f.mu.Unlock()
	if onDone != nil {
		onDone()
	}
	return nil
}

func (f *Fake) StopSpeaking() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SpeechStopped++
}

func (f *Fake) Notify(title, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Notifications = append(f.Notifications, Notification{Title: title, Body: body})
	return nil
}

// Notified returns a copy of the recorded notifications.
func (f *Fake) Notified() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Notification(nil), f.Notifications...)
}
