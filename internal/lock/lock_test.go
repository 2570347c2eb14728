package lock

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Parallel()

	l := New("/tmp/svn2git.lock")
	if l.Path() != "/tmp/svn2git.lock" {
		t.Errorf("Path() = %q", l.Path())
	}
	if l.file != nil {
		t.Error("expected file to be nil initially")
	}
}

func TestFileLock_LockUnlock(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "svn2git.lock")
	l := New(lockPath)

	if err := l.Lock(); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if _, err := os.Stat(lockPath); os.IsNotExist(err) {
		t.Error("lock file should exist after locking")
	}

	data, err := os.ReadFile(lockPath)
	if err != nil {
		t.Fatalf("read lock file: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != strconv.Itoa(os.Getpid()) {
		t.Errorf("lock file content = %q, want own pid", got)
	}

	if err := l.Unlock(); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if l.file != nil {
		t.Error("expected file handle to be nil after unlocking")
	}
}

func TestFileLock_UnlockWithoutLock(t *testing.T) {
	t.Parallel()

	l := New("/tmp/never-locked.lock")
	if err := l.Unlock(); err != nil {
		t.Errorf("Unlock() without Lock() should not error, got %v", err)
	}
}

func TestFileLock_TryLockContended(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "svn2git.lock")
	first := New(lockPath)
	if err := first.TryLock(); err != nil {
		t.Fatalf("first TryLock() = %v", err)
	}

	second := New(lockPath)
	err := second.TryLock()
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("second TryLock() = %v, want ErrLocked", err)
	}
	if !strings.Contains(err.Error(), "pid "+strconv.Itoa(os.Getpid())) {
		t.Errorf("error %q should name the holder pid", err)
	}

	if err := first.Unlock(); err != nil {
		t.Fatalf("Unlock() = %v", err)
	}
	if err := second.TryLock(); err != nil {
		t.Fatalf("TryLock() after release = %v", err)
	}
	if err := second.Unlock(); err != nil {
		t.Fatalf("Unlock() = %v", err)
	}
}
