// Package revisions loads an explicit allow-list of svn revisions.
//
// When a filter is active only the listed revisions are exported; every
// other revision in the resolved range is skipped without touching any
// destination repository.
package revisions

import (
	"bufio"
	"context"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/raphi011/svn2git/internal/log"
)

// Filter is a set of revision numbers. The zero value is an inactive filter.
type Filter struct {
	set map[int]struct{}
}

// NewFilter builds a filter from revs. Duplicates collapse.
func NewFilter(revs ...int) Filter {
	f := Filter{set: make(map[int]struct{}, len(revs))}
	for _, r := range revs {
		f.set[r] = struct{}{}
	}
	return f
}

// Enabled reports whether the filter restricts anything.
// An empty revisions file behaves like no file at all.
func (f Filter) Enabled() bool {
	return len(f.set) > 0
}

// Contains reports whether rev is listed.
func (f Filter) Contains(rev int) bool {
	_, ok := f.set[rev]
	return ok
}

// Len returns the number of distinct revisions.
func (f Filter) Len() int {
	return len(f.set)
}

// Sorted returns the revisions in ascending order.
func (f Filter) Sorted() []int {
	out := make([]int, 0, len(f.set))
	for r := range f.set {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// Load reads the revisions file at path. An empty path yields an inactive
// filter. An unreadable file is reported as a warning and also yields an
// inactive filter.
func Load(ctx context.Context, path string) Filter {
	if path == "" {
		return Filter{}
	}

	f, err := os.Open(path)
	if err != nil {
		log.FromContext(ctx).Warnf("could not open revisions file %s: %v", path, err)
		return Filter{}
	}
	defer f.Close()

	return Parse(ctx, f)
}

// Parse reads one revision number per line. Blank lines are ignored; any
// other line that is not an integer is skipped with a warning.
func Parse(ctx context.Context, r io.Reader) Filter {
	l := log.FromContext(ctx)
	f := NewFilter()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		rev, err := strconv.Atoi(line)
		if err != nil {
			l.Warnf("unable to convert %q to a revision number, skipping", line)
			continue
		}
		f.set[rev] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		l.Warnf("could not read revisions file: %v", err)
	}
	return f
}
