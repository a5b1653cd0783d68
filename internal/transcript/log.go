// Package transcript maintains the running meeting transcript: an
// append-only, timestamped log of who said what, fed by the live
// speech-to-text stream. It also provides trigger-word repair for noisy
// transcript lines and persistence to disk and Postgres.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Entry is a single transcript line.
type Entry struct {
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Log is the in-memory meeting transcript. Safe for concurrent use:
// the speech producer appends while handlers read.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewLog returns an empty transcript log.
func NewLog() *Log {
	return &Log{}
}

// Append adds a line to the transcript.
func (l *Log) Append(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
}

// Lines returns the number of captured lines.
func (l *Log) Lines() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Entries returns a copy of all captured lines in order.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Entry(nil), l.entries...)
}

// Render returns the transcript as display text, one line per entry in
// the form "[HH:MM:SS] Speaker: text". Entries without a speaker render
// as "[HH:MM:SS] text".
func (l *Log) Render() string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var b strings.Builder
	for i, e := range l.entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Render())
	}
	return b.String()
}

// Render formats a single entry for display.
func (e Entry) Render() string {
	ts := e.Timestamp.Format("15:04:05")
	if e.Speaker == "" {
		return fmt.Sprintf("[%s] %s", ts, e.Text)
	}
	return fmt.Sprintf("[%s] %s: %s", ts, e.Speaker, e.Text)
}

// SaveJSON writes the transcript to path as a JSON array, creating
// parent directories as needed. The file is written atomically via a
// temp file rename so a crash mid-write never leaves a torn transcript.
func (l *Log) SaveJSON(path string) error {
	entries := l.Entries()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("transcript: create dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("transcript: marshal: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("transcript: write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("transcript: rename: %w", err)
	}
	return nil
}
