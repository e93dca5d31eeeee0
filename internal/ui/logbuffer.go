package ui

import (
	"strings"
	"sync"
)

// DefaultLogLines caps the activity log shown in the window.
const DefaultLogLines = 500

// LogBuffer is a thread-safe bounded buffer of log lines feeding the activity
// pane. Workers write from their own goroutines; the UI reads on refresh.
type LogBuffer struct {
	mu       sync.Mutex
	lines    []string
	maxLines int
}

// NewLogBuffer creates a buffer holding at most max lines.
func NewLogBuffer(max int) *LogBuffer {
	if max <= 0 {
		max = DefaultLogLines
	}
	return &LogBuffer{
		lines:    make([]string, 0, max),
		maxLines: max,
	}
}

// Append adds text to the buffer, splitting multi-line input. The oldest
// lines fall off once the cap is reached.
func (l *LogBuffer) Append(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, part := range strings.Split(text, "\n") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		if len(l.lines) >= l.maxLines {
			l.lines = l.lines[1:]
		}
		l.lines = append(l.lines, part)
	}
}

// String returns the buffered lines joined by newlines.
func (l *LogBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}

// Clear empties the buffer.
func (l *LogBuffer) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = l.lines[:0]
}
