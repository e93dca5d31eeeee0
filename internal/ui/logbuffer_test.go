package ui

import (
	"strings"
	"testing"
)

func TestLogBufferAppend(t *testing.T) {
	buf := NewLogBuffer(10)

	buf.Append("first")
	buf.Append("second\nthird")
	buf.Append("   \n")

	got := buf.String()
	if got != "first\nsecond\nthird" {
		t.Errorf("String() = %q", got)
	}
}

func TestLogBufferDropsOldestLines(t *testing.T) {
	buf := NewLogBuffer(3)

	for _, line := range []string{"a", "b", "c", "d"} {
		buf.Append(line)
	}

	got := buf.String()
	if got != "b\nc\nd" {
		t.Errorf("String() = %q, oldest line should be dropped", got)
	}
}

func TestLogBufferClear(t *testing.T) {
	buf := NewLogBuffer(10)
	buf.Append("line")
	buf.Clear()

	if buf.String() != "" {
		t.Error("Clear() should empty the buffer")
	}

	buf.Append("again")
	if !strings.Contains(buf.String(), "again") {
		t.Error("buffer should accept lines after Clear()")
	}
}
