package static

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/raphi011/svn2git/internal/rules"
	"github.com/raphi011/svn2git/internal/stats"
)

func TestRenderTable(t *testing.T) {
	t.Parallel()

	if got := RenderTable([]string{"A"}, nil); got != "" {
		t.Errorf("RenderTable() without rows = %q, want empty", got)
	}

	out := RenderTable([]string{"REPOSITORY", "COMMITS"}, [][]string{{"kdelibs", "12"}, {"www", "3"}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header and 2 rows:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "REPOSITORY") || !strings.Contains(lines[2], "www") {
		t.Errorf("unexpected table:\n%s", out)
	}
	// columns are aligned
	if strings.Index(lines[1], "12") != strings.Index(lines[2], "3") {
		t.Errorf("columns not aligned:\n%s", out)
	}
}

func TestWriteReport(t *testing.T) {
	t.Parallel()

	table, err := rules.Parse("r.toml", `
[[repository]]
name = "project"

[[match]]
path = "/trunk/"
repository = "project"
branch = "master"

[[match]]
path = "/tags/([^/]+)/"
repository = "project"
branch = "refs/tags/$1"
`)
	if err != nil {
		t.Fatal(err)
	}

	c := stats.New(table)
	c.Begin(1, 5)
	for rev := 1; rev <= 4; rev++ {
		c.Exporting(rev)
		c.RuleMatched("r.toml:match[0]")
		c.Committed("project")
	}
	c.Skipped(5)
	for i := range maxListed + 2 {
		c.Unmatched(fmt.Sprintf("/junk/%02d", i))
	}
	c.Finished()

	var buf bytes.Buffer
	if err := WriteReport(&buf, []string{"TERM=dumb"}, c.Report()); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Revisions r1 to r5: 4 exported, 1 skipped",
		"r.toml:match[0]",
		"project",
		"Rules that never matched:\n  r.toml:match[1]",
		"Paths without a rule (22):",
		"/junk/00",
		"... and 2 more",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "/junk/21") {
		t.Error("report lists more than the capped number of paths")
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("colors must be stripped for a non-terminal writer")
	}
}

func TestRenderReport_Empty(t *testing.T) {
	t.Parallel()

	out := RenderReport(stats.Report{From: 9, To: 8})
	if out != "No revisions to export\n" {
		t.Errorf("RenderReport() = %q", out)
	}
}
