package rules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sahilm/fuzzy"
)

// Match actions.
const (
	ActionExport  = "export"
	ActionIgnore  = "ignore"
	ActionRecurse = "recurse"
)

// ValidActions lists the accepted values for a rule's action.
var ValidActions = []string{ActionExport, ActionIgnore, ActionRecurse}

// Repository declares a destination repository.
type Repository struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`

	source string
}

// Source returns "file:index" of the declaration.
func (r Repository) Source() string {
	return r.source
}

// Match is a single match rule.
type Match struct {
	Path        string `toml:"path"`
	Repository  string `toml:"repository"`
	Branch      string `toml:"branch"`
	Prefix      string `toml:"prefix"`
	MinRevision int    `toml:"min_revision"` // 0 = unbounded
	MaxRevision int    `toml:"max_revision"` // 0 = unbounded
	Action      string `toml:"action"`
	Annotated   bool   `toml:"annotated"`

	re     *regexp.Regexp
	source string
}

// Info returns "file:index" identifying the rule in diagnostics and stats.
func (m *Match) Info() string {
	return m.source
}

func (m *Match) covers(rev int) bool {
	if m.MinRevision > 0 && rev < m.MinRevision {
		return false
	}
	if m.MaxRevision > 0 && rev > m.MaxRevision {
		return false
	}
	return true
}

// Result is the outcome of matching a path.
type Result struct {
	Rule       *Match
	Repository string // expanded repository name
	Branch     string // expanded branch name
	Path       string // prefix + unmatched remainder
	Remainder  string // unmatched remainder of the svn path
}

// Action returns the rule's action.
func (r Result) Action() string {
	return r.Rule.Action
}

// Table is the ordered set of repositories and match rules.
type Table struct {
	repositories []Repository
	matches      []*Match
}

// AllRepositories returns the declared repositories in declaration order.
func (t *Table) AllRepositories() []Repository {
	return t.repositories
}

// AllMatchRules returns the match rules in evaluation order.
func (t *Table) AllMatchRules() []*Match {
	return t.matches
}

// Match returns the first rule matching path at rev.
func (t *Table) Match(path string, rev int) (Result, bool) {
	for _, m := range t.matches {
		if !m.covers(rev) {
			continue
		}
		loc := m.re.FindStringSubmatchIndex(path)
		if loc == nil {
			continue
		}
		res := Result{
			Rule:      m,
			Remainder: path[loc[1]:],
		}
		if m.Action == ActionExport {
			res.Repository = string(m.re.ExpandString(nil, m.Repository, path, loc))
			res.Branch = string(m.re.ExpandString(nil, m.Branch, path, loc))
			res.Path = m.Prefix + res.Remainder
		}
		return res, true
	}
	return Result{}, false
}

type file struct {
	Repositories []Repository `toml:"repository"`
	Matches      []*Match     `toml:"match"`
}

// Load reads and validates the given rule files.
func Load(paths ...string) (*Table, error) {
	if len(paths) == 0 {
		return nil, errors.New("no rule files given")
	}

	t := &Table{}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
		if err := t.decode(filepath.Base(p), string(data)); err != nil {
			return nil, err
		}
	}

	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Parse builds a table from a single TOML document; name labels diagnostics.
func Parse(name, doc string) (*Table, error) {
	t := &Table{}
	if err := t.decode(name, doc); err != nil {
		return nil, err
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) decode(name, doc string) error {
	var f file
	md, err := toml.Decode(doc, &f)
	if err != nil {
		return fmt.Errorf("load rules %s: %w", name, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load rules %s: unknown key %q", name, undecoded[0].String())
	}
	return t.add(name, f)
}

func (t *Table) add(name string, f file) error {
	for i, r := range f.Repositories {
		r.source = fmt.Sprintf("%s:repository[%d]", name, i)
		t.repositories = append(t.repositories, r)
	}
	for i, m := range f.Matches {
		m.source = fmt.Sprintf("%s:match[%d]", name, i)
		if m.Action == "" {
			m.Action = ActionExport
		}
		re, err := regexp.Compile("^(?:" + m.Path + ")")
		if err != nil {
			return fmt.Errorf("%s: invalid path expression %q: %w", m.source, m.Path, err)
		}
		m.re = re
		t.matches = append(t.matches, m)
	}
	return nil
}

func (t *Table) validate() error {
	names := make([]string, 0, len(t.repositories))
	seen := make(map[string]string, len(t.repositories))
	for _, r := range t.repositories {
		if r.Name == "" {
			return fmt.Errorf("%s: repository without name", r.source)
		}
		if strings.ContainsAny(r.Name, "/\\") || r.Name == "." || r.Name == ".." {
			return fmt.Errorf("%s: invalid repository name %q", r.source, r.Name)
		}
		if prev, ok := seen[r.Name]; ok {
			return fmt.Errorf("%s: repository %q already declared at %s", r.source, r.Name, prev)
		}
		seen[r.Name] = r.source
		names = append(names, r.Name)
	}

	for _, m := range t.matches {
		if m.Path == "" {
			return fmt.Errorf("%s: match rule without path", m.source)
		}
		if !validAction(m.Action) {
			return fmt.Errorf("%s: invalid action %q: must be %q, %q, or %q", m.source, m.Action, ActionExport, ActionIgnore, ActionRecurse)
		}
		if m.MinRevision < 0 || m.MaxRevision < 0 {
			return fmt.Errorf("%s: revision bounds must not be negative", m.source)
		}
		if m.MaxRevision > 0 && m.MinRevision > m.MaxRevision {
			return fmt.Errorf("%s: min_revision %d is greater than max_revision %d", m.source, m.MinRevision, m.MaxRevision)
		}
		if m.Action != ActionExport {
			continue
		}
		if m.Repository == "" || m.Branch == "" {
			return fmt.Errorf("%s: export rule needs repository and branch", m.source)
		}
		// Names built from capture groups are only known at match time.
		if strings.Contains(m.Repository, "$") {
			continue
		}
		if _, ok := seen[m.Repository]; !ok {
			return fmt.Errorf("%s: unknown repository %q%s", m.source, m.Repository, suggest(m.Repository, names))
		}
	}
	return nil
}

// HasRepository reports whether name is declared.
func (t *Table) HasRepository(name string) bool {
	for _, r := range t.repositories {
		if r.Name == name {
			return true
		}
	}
	return false
}

func validAction(a string) bool {
	for _, v := range ValidActions {
		if a == v {
			return true
		}
	}
	return false
}

// suggest returns a "did you mean" hint for the closest declared name.
func suggest(name string, names []string) string {
	if matches := fuzzy.Find(name, names); len(matches) > 0 {
		return fmt.Sprintf(" (did you mean %q?)", matches[0].Str)
	}
	// fuzzy only finds candidates containing all characters of name in order,
	// so also try the other direction for typos that add characters.
	best := ""
	for _, n := range names {
		if len(fuzzy.Find(n, []string{name})) > 0 && (best == "" || len(n) > len(best)) {
			best = n
		}
	}
	if best != "" {
		return fmt.Sprintf(" (did you mean %q?)", best)
	}
	return ""
}
