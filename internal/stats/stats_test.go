package stats

import (
	"path/filepath"
	"slices"
	"testing"

	"github.com/raphi011/svn2git/internal/rules"
)

const testRules = `
[[repository]]
name = "p"

[[match]]
path = "/trunk/"
repository = "p"
branch = "master"

[[match]]
path = "/tags/"
action = "ignore"
`

func TestCollectorReport(t *testing.T) {
	t.Parallel()

	table, err := rules.Parse("r.toml", testRules)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	c := New(table)
	c.Begin(1, 10)
	c.RuleMatched("r.toml:match[0]")
	c.RuleMatched("r.toml:match[0]")
	c.Unmatched("/branches/x/a")
	c.Unmatched("/branches/x/a")
	c.Unmatched("/attic/b")
	c.Committed("p")
	c.Exporting(1)
	c.Exporting(2)
	c.Skipped(3)

	r := c.Report()
	if r.From != 1 || r.To != 10 || r.Exported != 2 || r.Skipped != 1 {
		t.Errorf("Report() counts = %+v", r)
	}
	want := []RuleCount{{"r.toml:match[0]", 2}, {"r.toml:match[1]", 0}}
	if !slices.Equal(r.Rules, want) {
		t.Errorf("Rules = %v, want %v", r.Rules, want)
	}
	if !slices.Equal(r.UnusedRules, []string{"r.toml:match[1]"}) {
		t.Errorf("UnusedRules = %v", r.UnusedRules)
	}
	if !slices.Equal(r.Unmatched, []string{"/attic/b", "/branches/x/a"}) {
		t.Errorf("Unmatched = %v", r.Unmatched)
	}
	if got := r.CommitRows(); len(got) != 1 || got[0][0] != "p" || got[0][1] != "1" {
		t.Errorf("CommitRows() = %v", got)
	}
	if got := r.RuleRows(); len(got) != 2 || got[0][1] != "2" {
		t.Errorf("RuleRows() = %v", got)
	}
}

func TestCollectorUnmatchedCap(t *testing.T) {
	t.Parallel()

	c := New(nil)
	for i := range maxUnmatched + 5 {
		c.Unmatched(filepath.Join("/p", string(rune('a'+i%26)), string(rune('0'+i))))
	}
	r := c.Report()
	if len(r.Unmatched) > maxUnmatched {
		t.Errorf("kept %d unmatched paths, cap is %d", len(r.Unmatched), maxUnmatched)
	}
	if len(r.Unmatched)+r.UnmatchedDropped != maxUnmatched+5 {
		t.Errorf("kept %d + dropped %d, want %d", len(r.Unmatched), r.UnmatchedDropped, maxUnmatched+5)
	}
}

func TestReportSaveJSON(t *testing.T) {
	t.Parallel()

	c := New(nil)
	c.Committed("p")
	path := filepath.Join(t.TempDir(), "stats.json")
	if err := c.Report().SaveJSON(path); err != nil {
		t.Fatalf("SaveJSON() error = %v", err)
	}

	got, err := LoadReport(path)
	if err != nil {
		t.Fatalf("LoadReport() error = %v", err)
	}
	if got.Commits["p"] != 1 {
		t.Errorf("Commits = %v", got.Commits)
	}
}
