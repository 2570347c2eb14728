// Package stats collects per-run statistics: which rules matched, which
// paths no rule matched, and how many revisions and commits were written.
//
// A Collector is created by the caller and passed explicitly to the
// components that record into it. It also implements the export loop's
// progress hooks so revision counts need no extra wiring.
package stats

import (
	"maps"
	"slices"
	"strconv"
	"sync"

	"github.com/raphi011/svn2git/internal/rules"
	"github.com/raphi011/svn2git/internal/storage"
)

// maxUnmatched caps the number of distinct unmatched paths kept for the report.
const maxUnmatched = 1000

// Collector accumulates run statistics. It is safe for concurrent use.
type Collector struct {
	mu sync.Mutex

	rules     []string
	ruleHits  map[string]int
	unmatched map[string]int
	dropped   int
	commits   map[string]int
	exported  int
	skipped   int
	from, to  int
}

// New creates a collector that reports every rule of table, including
// rules that never matched.
func New(table *rules.Table) *Collector {
	c := &Collector{
		ruleHits:  make(map[string]int),
		unmatched: make(map[string]int),
		commits:   make(map[string]int),
	}
	if table != nil {
		for _, m := range table.AllMatchRules() {
			c.rules = append(c.rules, m.Info())
		}
	}
	return c
}

// RuleMatched records a rule decision.
func (c *Collector) RuleMatched(rule string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ruleHits[rule]++
}

// Unmatched records a path no rule matched.
func (c *Collector) Unmatched(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.unmatched[path]; !ok && len(c.unmatched) >= maxUnmatched {
		c.dropped++
		return
	}
	c.unmatched[path]++
}

// Committed records one commit written to repository.
func (c *Collector) Committed(repository string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commits[repository]++
}

// Begin records the replayed interval.
func (c *Collector) Begin(from, to int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.from, c.to = from, to
}

// Skipped counts a filtered-out revision.
func (c *Collector) Skipped(int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skipped++
}

// Exporting counts a revision handed to the source reader.
func (c *Collector) Exporting(int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exported++
}

// Finished is a no-op; it completes the progress hooks.
func (c *Collector) Finished() {}

// RuleCount is a rule and how often it matched.
type RuleCount struct {
	Rule string `json:"rule"`
	Hits int    `json:"hits"`
}

// Report is a point-in-time copy of the collected statistics.
type Report struct {
	From             int            `json:"from"`
	To               int            `json:"to"`
	Exported         int            `json:"exported"`
	Skipped          int            `json:"skipped"`
	Rules            []RuleCount    `json:"rules"`
	UnusedRules      []string       `json:"unused_rules"`
	Commits          map[string]int `json:"commits"`
	Unmatched        []string       `json:"unmatched"`
	UnmatchedDropped int            `json:"unmatched_dropped,omitempty"`
}

// Report returns a snapshot. Rules keep table order; rules that only
// appear in hits (not in the table) are appended in name order.
func (c *Collector) Report() Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := Report{
		From:             c.from,
		To:               c.to,
		Exported:         c.exported,
		Skipped:          c.skipped,
		Commits:          maps.Clone(c.commits),
		Unmatched:        slices.Sorted(maps.Keys(c.unmatched)),
		UnmatchedDropped: c.dropped,
	}

	seen := make(map[string]bool, len(c.rules))
	for _, name := range c.rules {
		seen[name] = true
		hits := c.ruleHits[name]
		r.Rules = append(r.Rules, RuleCount{Rule: name, Hits: hits})
		if hits == 0 {
			r.UnusedRules = append(r.UnusedRules, name)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(c.ruleHits)) {
		if !seen[name] {
			r.Rules = append(r.Rules, RuleCount{Rule: name, Hits: c.ruleHits[name]})
		}
	}
	return r
}

// RuleRows returns table rows (RULE, HITS) for the rule report.
func (r Report) RuleRows() [][]string {
	rows := make([][]string, 0, len(r.Rules))
	for _, rc := range r.Rules {
		rows = append(rows, []string{rc.Rule, strconv.Itoa(rc.Hits)})
	}
	return rows
}

// CommitRows returns table rows (REPOSITORY, COMMITS) sorted by name.
func (r Report) CommitRows() [][]string {
	rows := make([][]string, 0, len(r.Commits))
	for _, name := range slices.Sorted(maps.Keys(r.Commits)) {
		rows = append(rows, []string{name, strconv.Itoa(r.Commits[name])})
	}
	return rows
}

// SaveJSON writes the report to path atomically.
func (r Report) SaveJSON(path string) error {
	return storage.SaveJSON(path, r)
}

// LoadReport reads a report written by SaveJSON.
func LoadReport(path string) (Report, error) {
	var r Report
	if err := storage.LoadJSON(path, &r); err != nil {
		return Report{}, err
	}
	return r, nil
}
