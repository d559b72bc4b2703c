package terminal

import (
	"io"
	"log/slog"
	"strings"
	"sync"
)

// SlogLogger adapts a *slog.Logger to Logger for machine-readable output.
type SlogLogger struct {
	l *slog.Logger
}

// NewJSONLogger returns a Logger emitting one JSON object per line to w.
func NewJSONLogger(w io.Writer, attrs ...any) *SlogLogger {
	return &SlogLogger{l: slog.New(slog.NewJSONHandler(w, nil)).With(attrs...)}
}

func (s *SlogLogger) Info(msg string)    { s.l.Info(msg) }
func (s *SlogLogger) Success(msg string) { s.l.Info(msg, "outcome", "applied") }
func (s *SlogLogger) Warning(msg string) { s.l.Warn(msg) }
func (s *SlogLogger) Error(msg string)   { s.l.Error(msg) }

// Level is the severity of a recorded line.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Entry is one recorded log line.
type Entry struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Recorder keeps every line in memory. Used by the MCP server to return
// a run transcript, and by tests.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: msg})
}

func (r *Recorder) Info(msg string)    { r.add(LevelInfo, msg) }
func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }
func (r *Recorder) Warning(msg string) { r.add(LevelWarning, msg) }
func (r *Recorder) Error(msg string)   { r.add(LevelError, msg) }

// Entries returns a copy of the recorded lines.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns how many lines were recorded at level.
func (r *Recorder) Count(level Level) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

// Contains reports whether a line at level contains substr.
func (r *Recorder) Contains(level Level, substr string) bool {
	for _, e := range r.Entries() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// String renders the transcript one line per entry.
func (r *Recorder) String() string {
	var b strings.Builder
	for _, e := range r.Entries() {
		b.WriteString(string(e.Level))
		b.WriteString(": ")
		b.WriteString(e.Message)
		b.WriteString("\n")
	}
	return b.String()
}
