package eventlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEventAppendsLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "motiond.log")
	l := New(path)

	if err := l.Event("Starting motiond..."); err != nil {
		t.Fatalf("Event: %v", err)
	}
	if err := l.Event("Stopping motiond..."); err != nil {
		t.Fatalf("Event: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("log has %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "Starting motiond...") {
		t.Errorf("first line missing message: %q", lines[0])
	}
}

func TestMotionEventFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "motiond.log")
	l := New(path)

	ts := fullTimestamp(time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC))
	if err := l.MotionEvent(ts, 120, 0.0512); err != nil {
		t.Fatalf("MotionEvent: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "2026.07.30-12:00:00 | Pixels Changed: 120 | Change Percentage: 5.12\n"
	if string(b) != want {
		t.Errorf("log content = %q, want %q", string(b), want)
	}
}

func TestDateAndTimeTimestamps(t *testing.T) {
	ts := time.Date(2026, 7, 30, 9, 5, 3, 0, time.UTC)
	if got := DateTimestamp(ts); got != "2026.07.30" {
		t.Errorf("DateTimestamp = %q, want 2026.07.30", got)
	}
	if got := TimeTimestamp(ts); got != "09:05:03" {
		t.Errorf("TimeTimestamp = %q, want 09:05:03", got)
	}
}
