package ledger

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning indicates another packaging run holds the lock.
var ErrAlreadyRunning = errors.New("another campack run is already in progress")

// Lock serializes packaging runs on one host.
type Lock struct {
	lock *flock.Flock
	path string
}

// NewLock prepares the run lock file in dir without acquiring it.
func NewLock(dir string) *Lock {
	path := filepath.Join(dir, "campack.lock")
	return &Lock{lock: flock.New(path), path: path}
}

// Acquire takes the lock, failing immediately when another process
// holds it.
func (l *Lock) Acquire() error {
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	return nil
}

// Release drops the lock.
func (l *Lock) Release() error {
	return l.lock.Unlock()
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}
