package bridge

import (
	"strings"
	"sync"
	"time"

	"github.com/syurodev/ztkapp-sub000/pkg/types"
)

// maxLogEntries bounds the in-memory process log ring
const maxLogEntries = 100

// logRing keeps the most recent backend output lines in memory so the
// supervisor can surface the latest error when a start fails.
type logRing struct {
	mu      sync.Mutex
	entries []types.LogEntry
}

func newLogRing() *logRing {
	return &logRing{}
}

// Append records one entry, dropping the oldest when the ring is full
func (r *logRing) Append(entry types.LogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
	if len(r.entries) > maxLogEntries {
		r.entries = r.entries[len(r.entries)-maxLogEntries:]
	}
}

// All returns a copy of every entry, oldest first
func (r *logRing) All() []types.LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]types.LogEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Errors returns a copy of error-level entries, oldest first
func (r *logRing) Errors() []types.LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []types.LogEntry
	for _, entry := range r.entries {
		if entry.Level == types.LogLevelError {
			out = append(out, entry)
		}
	}
	return out
}

// Clear discards all entries
func (r *logRing) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}

// classifyStderr maps a stderr line to a log level using the same markers
// the backend emits in its log lines.
func classifyStderr(line string) types.LogLevel {
	switch {
	case strings.Contains(line, "ERROR"),
		strings.Contains(line, "Error"),
		strings.Contains(line, "ModuleNotFoundError"),
		strings.Contains(line, "Failed to execute"):
		return types.LogLevelError
	case strings.Contains(line, "WARNING"),
		strings.Contains(line, "Warning"):
		return types.LogLevelWarning
	default:
		return types.LogLevelInfo
	}
}

// systemEntry builds a system-sourced log entry
func systemEntry(level types.LogLevel, message string) types.LogEntry {
	return types.LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
		Source:    types.LogSourceSystem,
	}
}
