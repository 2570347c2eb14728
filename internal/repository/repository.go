package repository

import (
	"context"
	"fmt"
	"time"
)

// Mode is a git file mode as written in fast-import filemodify commands.
type Mode string

const (
	ModeFile       Mode = "100644"
	ModeExecutable Mode = "100755"
	ModeSymlink    Mode = "120000"
)

// Repository is a destination repository.
type Repository interface {
	Name() string

	// SetupIncremental reads the progress log and rebuilds branch state.
	// It returns the first revision not yet committed and the cutoff,
	// lowered when the log runs ahead of the saved marks.
	SetupIncremental(ctx context.Context, cutoff int) (next, newCutoff int, err error)
	// RestoreLog puts back the log saved before the last truncation.
	RestoreLog() error
	// FinalizeTags writes the annotated tags recorded during this run.
	FinalizeTags(ctx context.Context) error
	Close() error

	NewTransaction(branch, svnprefix string, rev int) Transaction
	CreateBranch(branch string, rev int, from string, fromRev int) error
	DeleteBranch(branch string, rev int) error
	CreateAnnotatedTag(ref, svnprefix string, rev int, author string, date time.Time, log string)
	// FlushBranches writes pending branch resets and deletions.
	FlushBranches(ctx context.Context) error
}

// Transaction collects the changes of one revision on one branch.
type Transaction interface {
	SetAuthor(author string)
	SetDate(date time.Time)
	SetLog(log string)
	// NoteCopyFromBranch records a merge parent when files were copied
	// from another branch.
	NoteCopyFromBranch(branch string, rev int)
	// DeleteFile removes path. An empty path removes the whole tree.
	DeleteFile(path string)
	AddFile(path string, mode Mode, data []byte)
	Commit(ctx context.Context) error
}

// ConfigError reports a repository that cannot be used as configured.
type ConfigError struct {
	Repository string
	Reason     string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("repository %s: %s", e.Repository, e.Reason)
}
