package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "marks", "log-project")

	steps := []string{
		"progress SVN r1 branch master = :1\nprogress SVN r2 branch master = :2\n",
		"progress SVN r1 branch master = :1\n",
		"",
	}
	for _, want := range steps {
		if err := WriteFileAtomic(path, []byte(want), 0o644); err != nil {
			t.Fatalf("WriteFileAtomic(%q) error = %v", want, err)
		}
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != want {
			t.Errorf("content = %q, want %q", got, want)
		}
	}

	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("temp file left behind: %v", err)
	}
}

func TestCopyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "log-project")
	content := "progress SVN r3 branch trunk = :2\n"
	if err := os.WriteFile(src, []byte(content), 0o640); err != nil {
		t.Fatal(err)
	}

	dst := src + ".old"
	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile() error = %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != content {
		t.Errorf("copy = %q, want %q", got, content)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Errorf("mode = %v, want 0640", info.Mode().Perm())
	}

	if err := CopyFile(filepath.Join(dir, "missing"), dst); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("CopyFile(missing) error = %v, want not-exist", err)
	}
}

func TestJSON(t *testing.T) {
	t.Parallel()

	type counts struct {
		Repository string `json:"repository"`
		Commits    int    `json:"commits"`
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "out", "stats.json")

	for _, want := range []counts{{"project", 3}, {"website", 9}} {
		if err := SaveJSON(path, want); err != nil {
			t.Fatalf("SaveJSON() error = %v", err)
		}
		var got counts
		if err := LoadJSON(path, &got); err != nil {
			t.Fatalf("LoadJSON() error = %v", err)
		}
		if got != want {
			t.Errorf("LoadJSON() = %+v, want %+v", got, want)
		}
	}

	tests := []struct {
		name  string
		setup func(path string) error
		check func(err error) bool
	}{
		{
			name:  "missing file",
			setup: func(string) error { return nil },
			check: func(err error) bool { return errors.Is(err, fs.ErrNotExist) },
		},
		{
			name:  "invalid json",
			setup: func(path string) error { return os.WriteFile(path, []byte("{from: 1"), 0o644) },
			check: func(err error) bool { return err != nil },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "stats.json")
			if err := tt.setup(path); err != nil {
				t.Fatal(err)
			}
			var got counts
			if err := LoadJSON(path, &got); !tt.check(err) {
				t.Errorf("LoadJSON() error = %v", err)
			}
		})
	}

	if err := SaveJSON(filepath.Join(dir, "bad.json"), make(chan int)); err == nil {
		t.Error("SaveJSON() of a channel should fail")
	}
}
