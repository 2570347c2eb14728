package revisions

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/raphi011/svn2git/internal/log"
)

func logCtx(buf *bytes.Buffer) context.Context {
	return log.WithLogger(context.Background(), log.New(buf, false, false))
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		input        string
		want         []int
		wantWarnings int
	}{
		{
			name:         "skips malformed line",
			input:        "5\n7\nabc\n9",
			want:         []int{5, 7, 9},
			wantWarnings: 1,
		},
		{
			name:  "duplicates collapse and order is irrelevant",
			input: "9\n5\n9\n5\n",
			want:  []int{5, 9},
		},
		{
			name:  "whitespace is trimmed and blank lines ignored",
			input: "  12 \n\n\t13\n\n",
			want:  []int{12, 13},
		},
		{
			name:         "every line malformed",
			input:        "r5\n1.5\n",
			want:         []int{},
			wantWarnings: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			f := Parse(logCtx(&buf), strings.NewReader(tt.input))

			if got := f.Sorted(); !slices.Equal(got, tt.want) {
				t.Errorf("Sorted() = %v, want %v", got, tt.want)
			}
			if got := strings.Count(buf.String(), "Warning:"); got != tt.wantWarnings {
				t.Errorf("warnings = %d, want %d (%q)", got, tt.wantWarnings, buf.String())
			}
		})
	}
}

func TestFilter(t *testing.T) {
	t.Parallel()

	var zero Filter
	if zero.Enabled() || zero.Contains(1) || zero.Len() != 0 {
		t.Error("zero Filter must be inactive and empty")
	}

	f := NewFilter(3, 1, 3)
	if !f.Enabled() {
		t.Error("Enabled() = false, want true")
	}
	if f.Len() != 2 {
		t.Errorf("Len() = %d, want 2", f.Len())
	}
	if !f.Contains(1) || !f.Contains(3) || f.Contains(2) {
		t.Errorf("Contains mismatch for %v", f.Sorted())
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("missing file degrades to inactive filter", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		f := Load(logCtx(&buf), filepath.Join(t.TempDir(), "revs.txt"))
		if f.Enabled() {
			t.Error("filter should be inactive")
		}
		if !strings.Contains(buf.String(), "Warning: could not open revisions file") {
			t.Errorf("diagnostic = %q", buf.String())
		}
	})

	t.Run("empty path is silent", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if Load(logCtx(&buf), "").Enabled() {
			t.Error("filter should be inactive")
		}
		if buf.Len() != 0 {
			t.Errorf("unexpected diagnostic %q", buf.String())
		}
	})

	t.Run("reads file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "revs.txt")
		if err := os.WriteFile(path, []byte("4\n2\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if got := Load(context.Background(), path).Sorted(); !slices.Equal(got, []int{2, 4}) {
			t.Errorf("Load() = %v", got)
		}
	})
}
