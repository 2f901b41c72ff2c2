package voice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/mattn/go-shellwords"
)

// Commands are argv templates for the platform tools, split with shell
// quoting rules. Placeholders {text}, {title} and {body} are substituted per
// argument after splitting, so a value is never re-parsed; a speak command
// without {text} gets the text appended. An empty command disables the
// action.
type Commands struct {
	Speak  string
	Listen string
	Notify string
}

// DetectCommands picks tools commonly installed on the current platform.
func DetectCommands() Commands {
	var c Commands
	switch runtime.GOOS {
	case "darwin":
		c.Speak = "say -- {text}"
		c.Notify = darwinNotify
	default:
		for _, speak := range []string{"espeak", "spd-say"} {
			if _, err := exec.LookPath(speak); err == nil {
				c.Speak = speak + " -- {text}"
				break
			}
		}
		if _, err := exec.LookPath("notify-send"); err == nil {
			c.Notify = "notify-send -- {title} {body}"
		}
	}
	return c
}

// darwinNotify hands title and body to the script as argv items so they are
// never part of the script source.
const darwinNotify = `osascript -e 'on run argv' -e 'display notification (item 1 of argv) with title (item 2 of argv)' -e 'end run' {body} {title}`

// Exec runs external commands for each capability. Notifications fall back
// to a terminal bell and a line on Fallback when no notify command is set.
type Exec struct {
	cmds     Commands
	Fallback io.Writer

	mu        sync.Mutex
	next      Handle
	listeners map[Handle]context.CancelFunc
	stopSpeak context.CancelFunc
}

// NewExec returns an Exec using cmds.
func NewExec(cmds Commands, fallback io.Writer) *Exec {
	return &Exec{
		cmds:      cmds,
		Fallback:  fallback,
		listeners: make(map[Handle]context.CancelFunc),
	}
}

// StartListening runs the listen command and delivers its trimmed stdout as
// the transcript.
func (e *Exec) StartListening(onResult func(string), onError func(error)) (Handle, error) {
	argv, err := splitArgs(e.cmds.Listen)
	if err != nil {
		return 0, fmt.Errorf("listen: %w", err)
	}
	if len(argv) == 0 {
		return 0, ErrUnsupported
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	e.next++
	h := e.next
	e.listeners[h] = cancel
	e.mu.Unlock()

	go func() {
		defer e.StopListening(h)
		var out, stderr bytes.Buffer
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Stdout = &out
		cmd.Stderr = &stderr
		err := cmd.Run()
		if ctx.Err() != nil {
			return // stopped by the caller
		}
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("listen: %w: %s", err, strings.TrimSpace(stderr.String())))
			}
			return
		}
		if onResult != nil {
			onResult(strings.TrimSpace(out.String()))
		}
	}()
	return h, nil
}

// StopListening cancels a listening session. Unknown handles are ignored.
func (e *Exec) StopListening(h Handle) {
	e.mu.Lock()
	cancel, ok := e.listeners[h]
	delete(e.listeners, h)
	e.mu.Unlock()
	if ok {
		cancel()
	}
}

// Speak reads text aloud, interrupting anything already being spoken.
func (e *Exec) Speak(text string, onDone func()) error {
	tmpl, err := splitArgs(e.cmds.Speak)
	if err != nil {
		return fmt.Errorf("speak: %w", err)
	}
	argv := expand(tmpl, map[string]string{"text": text}, "text")
	if len(argv) == 0 {
		return ErrUnsupported
	}
	e.StopSpeaking()

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("speak: %w", err)
	}
	e.mu.Lock()
	e.stopSpeak = cancel
	e.mu.Unlock()

	go func() {
		_ = cmd.Wait()
		cancel()
		if onDone != nil {
			onDone()
		}
	}()
	return nil
}

// StopSpeaking interrupts speech in progress.
func (e *Exec) StopSpeaking() {
	e.mu.Lock()
	cancel := e.stopSpeak
	e.stopSpeak = nil
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Notify shows a desktop notification.
func (e *Exec) Notify(title, body string) error {
	tmpl, err := splitArgs(e.cmds.Notify)
	if err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	argv := expand(tmpl, map[string]string{"title": title, "body": body}, "")
	if len(argv) == 0 {
		if e.Fallback == nil {
			return ErrUnsupported
		}
		_, err := fmt.Fprintf(e.Fallback, "\a%s: %s\n", title, body)
		return err
	}
	if out, err := exec.Command(argv[0], argv[1:]...).CombinedOutput(); err != nil {
		return fmt.Errorf("notify: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// expand substitutes placeholders in each argument in a single pass, so
// placeholder text inside a value is left alone. When appendKey is set and no
// argument mentions it, its value is appended as a final argument.
func expand(argv []string, vals map[string]string, appendKey string) []string {
	if len(argv) == 0 {
		return nil
	}
	pairs := make([]string, 0, 2*len(vals))
	for k, v := range vals {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)

	out := make([]string, len(argv))
	used := false
	for i, a := range argv {
		if appendKey != "" && strings.Contains(a, "{"+appendKey+"}") {
			used = true
		}
		out[i] = r.Replace(a)
	}
	if appendKey != "" && !used {
		out = append(out, vals[appendKey])
	}
	return out
}

// splitArgs splits a configured command line using shell quoting rules.
// Environment variables and backticks are not expanded.
func splitArgs(line string) ([]string, error) {
	if strings.TrimSpace(line) == "" {
		return nil, nil
	}
	return shellwords.Parse(line)
}
