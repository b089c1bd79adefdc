// Package eventlog appends timestamped lines to the pipeline's flat
// log file, matching motdec.c's log_event/log_error/log_motion_event.
// There is no structured logger in the source program and none is
// introduced here; every line is also echoed to stdout, as the
// original does with printf alongside fputs.
package eventlog

import (
	"fmt"
	"os"
	"time"
)

// Logger appends lines to a single log file.
type Logger struct {
	Path string
}

// New returns a Logger writing to path.
func New(path string) *Logger {
	return &Logger{Path: path}
}

// fullTimestamp formats t as yyyy.mm.dd-hh:mm:ss, matching
// get_full_timestamp in motdec.c.
func fullTimestamp(t time.Time) string {
	return t.Format("2006.01.02-15:04:05")
}

// DateTimestamp formats the date of t as yyyy.mm.dd, matching
// get_date_timestamp.
func DateTimestamp(t time.Time) string {
	return t.Format("2006.01.02")
}

// TimeTimestamp formats the time of day of t as hh:mm:ss, matching
// get_time_timestamp.
func TimeTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}

func (l *Logger) append(line string) error {
	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log %s: %w", l.Path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log %s: %w", l.Path, err)
	}
	fmt.Print(line)
	return nil
}

// Event logs a plain event string prefixed with the current timestamp.
func (l *Logger) Event(msg string) error {
	line := fmt.Sprintf("%s | %s\n", fullTimestamp(time.Now()), msg)
	return l.append(line)
}

// Error logs an error string through the same common log file,
// matching log_error's direct delegation to log_event.
func (l *Logger) Error(msg string) error {
	return l.Event(msg)
}

// MotionEvent logs a motion-detection hit: pixel change count and the
// change fraction expressed as a percentage to two decimal places.
func (l *Logger) MotionEvent(timestamp string, pixelChangeCount int, changePercent float64) error {
	line := fmt.Sprintf("%s | Pixels Changed: %d | Change Percentage: %.2f\n", timestamp, pixelChangeCount, changePercent*100)
	return l.append(line)
}
