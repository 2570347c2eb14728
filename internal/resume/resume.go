package resume

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/raphi011/svn2git/internal/log"
)

// Unbounded is the cutoff used when no resume point was requested.
const Unbounded = math.MaxInt

// MaxPasses caps the number of scan passes. Termination follows from the
// strictly decreasing cutoff; the cap turns a misbehaving writer into an
// error instead of a hang.
const MaxPasses = 10000

// ErrContract is returned when a writer violates the SetupIncremental contract.
var ErrContract = errors.New("repository broke the resume contract")

// ErrDiverged is returned when MaxPasses passes did not settle.
var ErrDiverged = errors.New("resume point did not settle")

// Writer is the part of a destination repository the resolver needs.
type Writer interface {
	// SetupIncremental reads the persisted progress log. It returns the
	// first revision the repository has not durably committed, and the
	// cutoff, lowered if the log shows an earlier run stopped mid-write
	// before the given cutoff. It truncates the log at the returned cutoff.
	SetupIncremental(ctx context.Context, cutoff int) (next, newCutoff int, err error)

	// RestoreLog rewinds the log to the copy saved before truncation.
	RestoreLog() error
}

// Entry is a named destination repository.
type Entry struct {
	Name   string
	Writer Writer
}

// Range is the outcome of a resolution.
type Range struct {
	// MinRev is the highest next revision reported in the final pass.
	MinRev int
	// Cutoff is the final, possibly lowered, safety bound.
	Cutoff int
	// ResumeFrom is the explicitly requested resume point (0 = none).
	ResumeFrom int
	// Next holds each repository's next revision from the final pass.
	Next map[string]int
	// Passes is the number of scan passes it took to settle.
	Passes int
}

// Start returns the first revision to export: the requested resume point
// if there is one, MinRev otherwise.
func (r Range) Start() int {
	if r.ResumeFrom > 0 {
		return r.ResumeFrom
	}
	return r.MinRev
}

// InconsistencyError reports that the requested resume point lies beyond
// the revision up to which every repository can be trusted.
type InconsistencyError struct {
	Requested int
	Cutoff    int
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("cannot resume from revision %d: there are errors in revision %d", e.Requested, e.Cutoff)
}

// Resolve scans repos in order and returns the range export may start from.
// resumeFrom is the requested resume point, 0 for none.
func Resolve(ctx context.Context, repos []Entry, resumeFrom int) (Range, error) {
	if resumeFrom < 0 {
		return Range{}, fmt.Errorf("invalid resume point %d", resumeFrom)
	}

	l := log.FromContext(ctx)

	cutoff := Unbounded
	if resumeFrom > 0 {
		cutoff = resumeFrom
	}

	for pass := 1; pass <= MaxPasses; pass++ {
		p, err := scan(ctx, repos, resumeFrom, cutoff)
		if err != nil {
			return Range{}, err
		}

		if p.restart {
			// A later repository rewound below what an earlier one already
			// claimed: every repository has to be rewound to the new cutoff.
			if p.cutoff >= cutoff {
				return Range{}, fmt.Errorf("%w: restart without lowering cutoff %d", ErrContract, cutoff)
			}
			l.Debug("restarting resume scan", "pass", pass, "repository", p.culprit, "cutoff", p.cutoff, "min_rev", p.minRev)
			cutoff = p.cutoff
			continue
		}

		if resumeFrom > p.cutoff {
			return Range{}, &InconsistencyError{Requested: resumeFrom, Cutoff: p.cutoff}
		}
		if p.minRev < resumeFrom {
			l.Printf("Skipping revisions %d to %d as requested\n", p.minRev, resumeFrom-1)
		}

		return Range{
			MinRev:     p.minRev,
			Cutoff:     p.cutoff,
			ResumeFrom: resumeFrom,
			Next:       p.next,
			Passes:     pass,
		}, nil
	}

	return Range{}, fmt.Errorf("%w after %d passes (cutoff %d)", ErrDiverged, MaxPasses, cutoff)
}

type passResult struct {
	minRev  int
	cutoff  int
	next    map[string]int
	restart bool
	culprit string
}

func scan(ctx context.Context, repos []Entry, resumeFrom, cutoff int) (passResult, error) {
	p := passResult{minRev: 1, cutoff: cutoff, next: make(map[string]int, len(repos))}

	for _, e := range repos {
		next, lowered, err := e.Writer.SetupIncremental(ctx, p.cutoff)
		if err != nil {
			return p, fmt.Errorf("repository %s: %w", e.Name, err)
		}
		if err := checkContract(p.cutoff, next, lowered); err != nil {
			return p, fmt.Errorf("repository %s: %w", e.Name, err)
		}
		p.cutoff = lowered
		p.next[e.Name] = next

		// The log most likely ends exactly at the failure boundary. Put the
		// original log back so the next run with the same arguments fails
		// the same way instead of silently resuming from a truncated log.
		if p.cutoff < resumeFrom && next == p.cutoff {
			if err := e.Writer.RestoreLog(); err != nil {
				return p, fmt.Errorf("repository %s: restore log: %w", e.Name, err)
			}
		}

		if p.cutoff < p.minRev {
			p.restart = true
			p.culprit = e.Name
			return p, nil
		}

		p.minRev = max(p.minRev, next)
	}

	return p, nil
}

func checkContract(cutoff, next, lowered int) error {
	switch {
	case lowered > cutoff:
		return fmt.Errorf("%w: cutoff raised from %d to %d", ErrContract, cutoff, lowered)
	case lowered < 1:
		return fmt.Errorf("%w: cutoff %d below 1", ErrContract, lowered)
	case next < 1:
		return fmt.Errorf("%w: next revision %d below 1", ErrContract, next)
	case next > lowered:
		return fmt.Errorf("%w: next revision %d beyond cutoff %d", ErrContract, next, lowered)
	}
	return nil
}
