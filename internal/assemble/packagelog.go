package assemble

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// PackageLog is the append-only key:value record that persists with
// every package, completed or not.
type PackageLog struct {
	mu      sync.Mutex
	entries []string
}

// NewPackageLog starts a log stamped with the run start time.
func NewPackageLog() *PackageLog {
	log := &PackageLog{}
	log.Add("STARTED", time.Now().UTC().Format(time.RFC3339))
	return log
}

// Add appends one key:value entry.
func (l *PackageLog) Add(key, value string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, fmt.Sprintf("%s: %s", key, value))
}

// Flag appends a POSSIBLE_ERROR_REVIEW entry for curator triage.
func (l *PackageLog) Flag(message string) {
	l.Add("POSSIBLE_ERROR_REVIEW", message)
}

// FlagCount returns the number of review entries recorded so far.
func (l *PackageLog) FlagCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	count := 0
	for _, entry := range l.entries {
		if strings.HasPrefix(entry, "POSSIBLE_ERROR_REVIEW:") {
			count++
		}
	}
	return count
}

// Write appends the accumulated entries to the log file at path.
func (l *PackageLog) Write(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open package log: %w", err)
	}
	defer file.Close()

	for _, entry := range l.entries {
		if _, err := fmt.Fprintln(file, entry); err != nil {
			return fmt.Errorf("write package log: %w", err)
		}
	}
	l.entries = nil
	return file.Close()
}
