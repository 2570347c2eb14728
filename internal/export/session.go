package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/raphi011/svn2git/internal/log"
	"github.com/raphi011/svn2git/internal/revisions"
)

// ErrInterrupted is returned when the context was cancelled mid-run.
var ErrInterrupted = errors.New("export interrupted")

// Source exports a single revision into every repository its rules reach.
type Source interface {
	ExportRevision(ctx context.Context, rev int) error
}

// Finalizer materializes deferred work once no more revisions will arrive.
type Finalizer interface {
	FinalizeTags(ctx context.Context) error
}

// Target is a destination repository taking part in the session.
type Target struct {
	Name      string
	Finalizer Finalizer
}

// Session replays an interval of revisions. Revisions are processed strictly
// one after another.
type Session struct {
	Source       Source
	Repositories []Target
	// Filter restricts export to the listed revisions when enabled.
	Filter   revisions.Filter
	Progress Progress
}

// Result summarizes a run.
type Result struct {
	Exported int
	Skipped  int
	// FailedRevision is the revision whose export failed, 0 if none did.
	FailedRevision int
	Interrupted    bool
}

// Run exports iv and then finalizes every repository. The loop stops at the
// first failing revision. Finalization runs regardless, also after the
// context was cancelled; its errors are joined with the loop's error.
func (s *Session) Run(ctx context.Context, iv Interval) (Result, error) {
	progress := s.Progress
	if progress == nil {
		progress = Nop{}
	}

	res, loopErr := s.replay(ctx, iv, progress)
	progress.Finished()

	finErr := s.finalize(context.WithoutCancel(ctx))

	return res, errors.Join(loopErr, finErr)
}

func (s *Session) replay(ctx context.Context, iv Interval, progress Progress) (Result, error) {
	var res Result
	filtered := s.Filter.Enabled()

	progress.Begin(iv.From, iv.To)

	for rev := iv.From; rev <= iv.To; rev++ {
		if ctx.Err() != nil {
			res.Interrupted = true
			return res, fmt.Errorf("%w before revision %d", ErrInterrupted, rev)
		}

		if filtered && !s.Filter.Contains(rev) {
			res.Skipped++
			progress.Skipped(rev)
			continue
		}

		progress.Exporting(rev)
		if err := s.Source.ExportRevision(ctx, rev); err != nil {
			res.FailedRevision = rev
			return res, fmt.Errorf("failed to export revision %d: %w", rev, err)
		}
		res.Exported++
	}

	return res, nil
}

func (s *Session) finalize(ctx context.Context) error {
	l := log.FromContext(ctx)

	var errs []error
	for _, t := range s.Repositories {
		l.Debug("finalizing", "repository", t.Name)
		if err := t.Finalizer.FinalizeTags(ctx); err != nil {
			errs = append(errs, fmt.Errorf("repository %s: finalize: %w", t.Name, err))
		}
	}
	return errors.Join(errs...)
}
