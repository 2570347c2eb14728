// Package lock guards destination repositories against concurrent runs.
//
// Two svn2git processes feeding the same repository would interleave
// fast-import streams and corrupt each other's progress logs, so every
// repository directory holds an flock-based lock file for the duration of a
// run.
package lock

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// ErrLocked is returned by TryLock when another process holds the lock.
var ErrLocked = errors.New("already locked")

// FileLock provides exclusive file-based locking using flock.
type FileLock struct {
	path string
	file *os.File
}

// New creates a new file lock for the given path.
// The lock file will be created if it doesn't exist.
func New(path string) *FileLock {
	return &FileLock{path: path}
}

// Path returns the lock file path.
func (l *FileLock) Path() string {
	return l.path
}

// Lock acquires an exclusive lock on the file.
// Blocks until the lock is acquired.
func (l *FileLock) Lock() error {
	return l.acquire(syscall.LOCK_EX)
}

// TryLock acquires the lock without blocking. If another process holds it,
// the returned error wraps ErrLocked and names the holder's pid when known.
func (l *FileLock) TryLock() error {
	err := l.acquire(syscall.LOCK_EX | syscall.LOCK_NB)
	if errors.Is(err, syscall.EWOULDBLOCK) {
		if pid := holderPID(l.path); pid > 0 {
			return fmt.Errorf("%s: %w by pid %d", l.path, ErrLocked, pid)
		}
		return fmt.Errorf("%s: %w", l.path, ErrLocked)
	}
	return err
}

func (l *FileLock) acquire(how int) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return err
	}

	if err := syscall.Flock(int(f.Fd()), how); err != nil {
		f.Close()
		return err
	}
	l.file = f

	// Record the holder for diagnostics; the lock itself is the flock.
	if err := f.Truncate(0); err == nil {
		_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	}
	return nil
}

// Unlock releases the lock and closes the file.
func (l *FileLock) Unlock() error {
	if l.file == nil {
		return nil
	}

	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		l.file.Close()
		l.file = nil
		return err
	}

	err := l.file.Close()
	l.file = nil
	return err
}

func holderPID(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}
