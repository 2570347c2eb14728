package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/raphi011/svn2git/internal/cmd"
	"github.com/raphi011/svn2git/internal/git"
	"github.com/raphi011/svn2git/internal/lock"
	"github.com/raphi011/svn2git/internal/log"
	"github.com/raphi011/svn2git/internal/rules"
	"github.com/raphi011/svn2git/internal/stats"
)

const zeroSHA = "0000000000000000000000000000000000000000"

// maxMergeParents is fast-import's limit on merge commands per commit.
const maxMergeParents = 15

// Options configures every FastImport of a run.
type Options struct {
	// OutputDir holds one bare repository per configured repository.
	OutputDir string
	// CommitInterval is the number of commits between checkpoints; 0 disables them.
	CommitInterval int
	AddMetadata    bool
	DryRun         bool
	Stats          *stats.Collector
}

type branch struct {
	created int // revision the branch was (re)created at, 0 = unknown
	commits []int
	marks   []int
}

type annotatedTag struct {
	ref       string
	svnprefix string
	rev       int
	author    string
	date      time.Time
	log       string
}

var _ Repository = (*FastImport)(nil)

// FastImport is a Repository backed by a git fast-import process.
type FastImport struct {
	name      string
	dir       string
	logPath   string
	marksPath string
	opts      Options
	lock      *lock.FileLock

	proc    *cmd.Process
	logFile *os.File
	stream  io.Writer

	branches map[string]*branch
	lastMark int
	commits  int
	resets   bytes.Buffer
	deletes  bytes.Buffer
	tags     map[string]annotatedTag

	backedUp bool
	closed   bool
}

// Open prepares the destination repository described by repo. Outside dry
// runs it creates the bare repository if needed and takes its lock; a
// repository locked by another process is a ConfigError.
func Open(ctx context.Context, repo rules.Repository, opts Options) (*FastImport, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	dir, err := filepath.Abs(filepath.Join(opts.OutputDir, repo.Name))
	if err != nil {
		return nil, err
	}

	r := &FastImport{
		name:      repo.Name,
		dir:       dir,
		logPath:   filepath.Join(dir, "log-"+repo.Name),
		marksPath: filepath.Join(dir, "marks-"+repo.Name),
		opts:      opts,
		tags:      make(map[string]annotatedTag),
	}
	r.resetState()

	if opts.DryRun {
		r.stream = io.Discard
		return r, nil
	}

	if err := git.InitBare(ctx, dir); err != nil {
		return nil, &ConfigError{Repository: repo.Name, Reason: err.Error()}
	}
	if repo.Description != "" {
		if err := git.SetDescription(dir, repo.Description); err != nil {
			return nil, err
		}
	}

	r.lock = lock.New(filepath.Join(dir, "svn2git.lock"))
	if err := r.lock.TryLock(); err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return nil, &ConfigError{Repository: repo.Name, Reason: "in use by another svn2git run: " + err.Error()}
		}
		return nil, err
	}
	return r, nil
}

// Name returns the repository name.
func (r *FastImport) Name() string {
	return r.name
}

// Dir returns the bare repository path.
func (r *FastImport) Dir() string {
	return r.dir
}

// resetState forgets all branch history. master exists from the start.
func (r *FastImport) resetState() {
	r.branches = make(map[string]*branch)
	r.branch("master").created = 1
	r.lastMark = 0
}

func (r *FastImport) branch(name string) *branch {
	br, ok := r.branches[name]
	if !ok {
		br = &branch{}
		r.branches[name] = br
	}
	return br
}

// markFrom returns the mark of branch as of rev: -1 if the branch does not
// exist, 0 if it has no commit at or before rev.
func (r *FastImport) markFrom(name string, rev int) int {
	br, ok := r.branches[name]
	if !ok || br.created == 0 || len(br.commits) == 0 {
		return -1
	}
	if rev == br.commits[len(br.commits)-1] {
		return br.marks[len(br.marks)-1]
	}
	i := sort.SearchInts(br.commits, rev+1)
	if i == 0 {
		return 0
	}
	return br.marks[i-1]
}

func refName(branch string) string {
	if strings.HasPrefix(branch, "refs/") {
		return branch
	}
	return "refs/heads/" + branch
}

func (r *FastImport) start(ctx context.Context) error {
	if r.stream != nil {
		return nil
	}

	f, err := os.OpenFile(r.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	proc, err := cmd.Start(ctx, r.dir, f, "git", "--git-dir="+r.dir, "fast-import",
		"--force", "--quiet",
		"--import-marks-if-exists="+r.marksPath,
		"--export-marks="+r.marksPath)
	if err != nil {
		f.Close()
		return fmt.Errorf("repository %s: start fast-import: %w", r.name, err)
	}

	r.logFile = f
	r.proc = proc
	r.stream = proc
	return nil
}

func (r *FastImport) write(ctx context.Context, b []byte) error {
	if err := r.start(ctx); err != nil {
		return err
	}
	if _, err := r.stream.Write(b); err != nil {
		return fmt.Errorf("repository %s: write to fast-import: %w", r.name, err)
	}
	return nil
}

// CreateBranch records that branch was copied from another branch at
// fromRev. It fails if the source branch never existed.
func (r *FastImport) CreateBranch(name string, rev int, from string, fromRev int) error {
	desc := fmt.Sprintf("from branch %s at r%d", from, fromRev)
	mark := r.markFrom(from, fromRev)
	if mark == -1 {
		return fmt.Errorf("branch %s in repository %s is branching from branch %s but the latter doesn't exist", name, r.name, from)
	}

	resetTo := fmt.Sprintf(":%d", mark)
	if mark == 0 {
		// no commit exported yet: let git resolve the source ref
		resetTo = refName(from)
	}
	r.resetBranch(name, rev, mark, resetTo, desc)
	return nil
}

// DeleteBranch removes branch at rev. The last commit stays reachable
// through a backup ref.
func (r *FastImport) DeleteBranch(name string, rev int) error {
	r.resetBranch(name, rev, 0, zeroSHA, "delete")
	return nil
}

func (r *FastImport) resetBranch(name string, rev, mark int, resetTo, comment string) {
	ref := refName(name)
	br := r.branch(name)

	buf := &r.resets
	if comment == "delete" {
		buf = &r.deletes
	}

	if br.created != 0 && br.created != rev && len(br.marks) > 0 && br.marks[len(br.marks)-1] != 0 {
		var backup string
		if comment == "delete" && strings.HasPrefix(ref, "refs/heads/") {
			backup = fmt.Sprintf("refs/tags/backups/%s@%d", strings.TrimPrefix(ref, "refs/heads/"), rev)
		} else {
			backup = fmt.Sprintf("refs/backups/r%d%s", rev, strings.TrimPrefix(ref, "refs"))
		}
		fmt.Fprintf(buf, "reset %s\nfrom %s\n\n", backup, ref)
	}

	br.created = rev
	br.commits = append(br.commits, rev)
	br.marks = append(br.marks, mark)

	fmt.Fprintf(buf, "reset %s\nfrom %s\n\nprogress SVN r%d branch %s = :%d # %s\n\n", ref, resetTo, rev, name, mark, comment)
}

// FlushBranches implements Repository.
func (r *FastImport) FlushBranches(ctx context.Context) error {
	if r.resets.Len() == 0 && r.deletes.Len() == 0 {
		return nil
	}
	var buf bytes.Buffer
	buf.Write(r.resets.Bytes())
	buf.Write(r.deletes.Bytes())
	r.resets.Reset()
	r.deletes.Reset()
	return r.write(ctx, buf.Bytes())
}

// CreateAnnotatedTag records an annotated tag for ref. The tag object is
// written by FinalizeTags, once the tag can no longer change in this run.
func (r *FastImport) CreateAnnotatedTag(ref, svnprefix string, rev int, author string, date time.Time, msg string) {
	name := strings.TrimPrefix(ref, "refs/tags/")
	r.tags[name] = annotatedTag{ref: ref, svnprefix: svnprefix, rev: rev, author: author, date: date, log: msg}
}

// FinalizeTags implements Repository.
func (r *FastImport) FinalizeTags(ctx context.Context) error {
	if len(r.tags) == 0 {
		return nil
	}

	l := log.FromContext(ctx)
	var buf bytes.Buffer
	for _, name := range slices.Sorted(maps.Keys(r.tags)) {
		tag := r.tags[name]
		msg := tag.log
		if !strings.HasSuffix(msg, "\n") {
			msg += "\n"
		}
		if r.opts.AddMetadata {
			msg += "\n" + metadata(tag.svnprefix, tag.rev, name)
		}

		l.Debug("creating annotated tag", "repository", r.name, "tag", name, "ref", refName(tag.ref))
		fmt.Fprintf(&buf, "progress Creating annotated tag %s from ref %s\n", name, refName(tag.ref))
		fmt.Fprintf(&buf, "tag %s\nfrom %s\ntagger %s %d +0000\ndata %d\n%s\n",
			name, refName(tag.ref), tag.author, tag.date.Unix(), len(msg), msg)
	}
	buf.WriteString("checkpoint\n")

	if err := r.write(ctx, buf.Bytes()); err != nil {
		return err
	}
	clear(r.tags)
	return nil
}

// Close stops fast-import, which flushes the marks file, and releases the lock.
func (r *FastImport) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	if r.proc != nil {
		if err := r.proc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("repository %s: fast-import: %w", r.name, err))
		}
	}
	if r.logFile != nil {
		errs = append(errs, r.logFile.Close())
	}
	if r.lock != nil {
		errs = append(errs, r.lock.Unlock())
	}
	return errors.Join(errs...)
}

func metadata(svnprefix string, rev int, tag string) string {
	s := fmt.Sprintf("svn path=%s; revision=%d", svnprefix, rev)
	if tag != "" {
		s += "; tag=" + tag
	}
	return s + "\n"
}
