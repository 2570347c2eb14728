package export

import (
	"context"

	"github.com/raphi011/svn2git/internal/log"
	"github.com/raphi011/svn2git/internal/resume"
)

// Interval is a closed range of revisions. It is empty when From > To.
type Interval struct {
	From int
	To   int
}

// Empty reports whether the interval contains no revision.
func (iv Interval) Empty() bool {
	return iv.From > iv.To
}

// Len returns the number of revisions in the interval.
func (iv Interval) Len() int {
	if iv.Empty() {
		return 0
	}
	return iv.To - iv.From + 1
}

// Youngest reports the latest revision available in the source.
type Youngest interface {
	YoungestRevision() int
}

// BuildRange returns the interval to replay. The lower bound is the resume
// point if one was requested, the resolved minimum revision otherwise. The
// upper bound is maxRev, or the source's youngest revision when maxRev < 1.
// A maxRev beyond the youngest revision is clipped with a warning.
func BuildRange(ctx context.Context, r resume.Range, maxRev int, src Youngest) Interval {
	youngest := src.YoungestRevision()

	to := maxRev
	switch {
	case maxRev < 1:
		to = youngest
	case maxRev > youngest:
		log.FromContext(ctx).Warnf("--max-rev %d is beyond the youngest revision %d", maxRev, youngest)
		to = youngest
	}

	return Interval{From: r.Start(), To: to}
}
