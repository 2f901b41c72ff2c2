// Package debug provides the development log for careerchat.
package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	enabled bool
	logFile *os.File
	mu      sync.Mutex
	logPath string
)

// Enable turns on debug logging to the file at path.
func Enable(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	logFile = f
	logPath = path
	enabled = true

	// Written directly; Log would deadlock on mu.
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(logFile, "[%s] === careerchat debug session %s ===\n", ts, time.Now().Format(time.RFC3339))
	return nil
}

// Disable turns off debug logging and closes the file.
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if !enabled {
		return
	}
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	enabled = false
}

// IsEnabled reports whether debug logging is on.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// LogPath returns the path of the active log file.
func LogPath() string {
	mu.Lock()
	defer mu.Unlock()
	return logPath
}

// Log writes a line if logging is enabled.
func Log(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if !enabled || logFile == nil {
		return
	}
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(logFile, "[%s] %s\n", ts, fmt.Sprintf(format, args...))
	logFile.Sync()
}

// Event logs something that happened in component.
func Event(component, eventType, details string) {
	Log("[%s] %s: %s", component, eventType, details)
}

// Error logs err with context.
func Error(component string, err error, context string) {
	Log("[%s] ERROR: %s - %v", component, context, err)
}
