package identity

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raphi011/svn2git/internal/log"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  Map
	}{
		{
			name:  "native format",
			input: "alice Alice A <a@x>\n",
			want:  Map{"alice": "Alice A <a@x>"},
		},
		{
			name:  "git-svn format",
			input: "bob = Bob B <b@x>\n",
			want:  Map{"bob": "Bob B <b@x>"},
		},
		{
			name:  "line without space is dropped",
			input: "carol\nalice Alice A <a@x>\n",
			want:  Map{"alice": "Alice A <a@x>"},
		},
		{
			name:  "comments and surrounding whitespace",
			input: "# authors\n  dave   Dave D <d@x>   # contractor\n\n",
			want:  Map{"dave": "Dave D <d@x>"},
		},
		{
			name:  "comment hides the separator",
			input: "erin#Erin E\n",
			want:  Map{},
		},
		{
			name:  "equals without following space is kept",
			input: "frank =Frank\n",
			want:  Map{"frank": "=Frank"},
		},
		{
			name:  "later entry wins",
			input: "gus Old <o@x>\ngus New <n@x>\n",
			want:  Map{"gus": "New <n@x>"},
		},
		{
			name:  "no trailing newline",
			input: "hank Hank H <h@x>",
			want:  Map{"hank": "Hank H <h@x>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Parse() = %v, want %v", got, tt.want)
			}
			for login, want := range tt.want {
				if got[login] != want {
					t.Errorf("Parse()[%q] = %q, want %q", login, got[login], want)
				}
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		ctx := log.WithLogger(context.Background(), log.New(&buf, false, false))
		if m := Load(ctx, ""); len(m) != 0 {
			t.Errorf("Load(\"\") = %v, want empty", m)
		}
		if buf.Len() != 0 {
			t.Errorf("unexpected diagnostic %q", buf.String())
		}
	})

	t.Run("unreadable file degrades to empty map", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		ctx := log.WithLogger(context.Background(), log.New(&buf, false, false))
		m := Load(ctx, filepath.Join(t.TempDir(), "missing.txt"))
		if len(m) != 0 {
			t.Errorf("Load(missing) = %v, want empty", m)
		}
		if !strings.Contains(buf.String(), "Warning: could not open identity map") {
			t.Errorf("diagnostic = %q", buf.String())
		}
	})

	t.Run("reads file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "authors.txt")
		if err := os.WriteFile(path, []byte("alice Alice A <a@x>\nbob = Bob B <b@x>\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		m := Load(context.Background(), path)
		if m["alice"] != "Alice A <a@x>" || m["bob"] != "Bob B <b@x>" {
			t.Errorf("Load() = %v", m)
		}
	})

	t.Run("long lines", func(t *testing.T) {
		t.Parallel()
		long := "carol Carol " + strings.Repeat("C", 100*1024) + " <c@x>\n"
		overlong := "dave " + strings.Repeat("d", maxLine) + "\n"
		path := filepath.Join(t.TempDir(), "authors.txt")
		content := "alice Alice A <a@x>\n" + long + overlong + "bob Bob B <b@x>\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		var buf bytes.Buffer
		ctx := log.WithLogger(context.Background(), log.New(&buf, false, false))
		m := Load(ctx, path)
		if m["alice"] != "Alice A <a@x>" {
			t.Errorf("entries before the read error were dropped: %v", len(m))
		}
		if !strings.HasPrefix(m["carol"], "Carol CCC") {
			t.Error("line longer than 64 KiB was not parsed")
		}
		if _, ok := m["bob"]; ok {
			t.Error("entries after the read error should not be read")
		}
		if !strings.Contains(buf.String(), "could not read identity map") || !strings.Contains(buf.String(), "after 2 entries") {
			t.Errorf("diagnostic = %q", buf.String())
		}
	})
}

func TestLookup(t *testing.T) {
	t.Parallel()

	m := Map{"alice": "Alice A <a@x>"}
	tests := []struct {
		login string
		want  string
	}{
		{"alice", "Alice A <a@x>"},
		{"bob", "bob <bob@example.com>"},
		{"", "nobody <nobody@example.com>"},
	}
	for _, tt := range tests {
		if got := m.Lookup(tt.login, "example.com"); got != tt.want {
			t.Errorf("Lookup(%q) = %q, want %q", tt.login, got, tt.want)
		}
	}
}
