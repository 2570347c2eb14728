package repository

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/raphi011/svn2git/internal/log"
)

type fileChange struct {
	path string
	mode Mode
	data []byte
}

type transaction struct {
	repo      *FastImport
	branch    string
	svnprefix string
	rev       int

	author string
	date   time.Time
	log    string

	merges  []int
	deletes []string
	files   []fileChange
}

// NewTransaction starts collecting changes for branch at rev.
func (r *FastImport) NewTransaction(branch, svnprefix string, rev int) Transaction {
	return &transaction{repo: r, branch: branch, svnprefix: svnprefix, rev: rev}
}

func (t *transaction) SetAuthor(author string) { t.author = author }
func (t *transaction) SetDate(date time.Time)  { t.date = date }
func (t *transaction) SetLog(log string)       { t.log = log }

func (t *transaction) NoteCopyFromBranch(from string, rev int) {
	if from == t.branch {
		return
	}
	mark := t.repo.markFrom(from, rev)
	if mark <= 0 {
		// unknown source: files are still copied, only the merge parent is lost
		return
	}
	if !slices.Contains(t.merges, mark) {
		t.merges = append(t.merges, mark)
	}
}

func (t *transaction) DeleteFile(path string) {
	t.deletes = append(t.deletes, path)
}

func (t *transaction) AddFile(path string, mode Mode, data []byte) {
	t.files = append(t.files, fileChange{path: path, mode: mode, data: data})
}

// Commit writes the commit to fast-import followed by its progress line.
func (t *transaction) Commit(ctx context.Context) error {
	r := t.repo
	l := log.FromContext(ctx)

	r.lastMark++
	mark := r.lastMark

	msg := t.log
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	if r.opts.AddMetadata {
		msg += "\n" + metadata(t.svnprefix, t.rev, "")
	}

	br := r.branch(t.branch)
	parent := 0
	if br.created != 0 {
		if len(br.marks) > 0 {
			parent = br.marks[len(br.marks)-1]
		}
	} else {
		l.Warnf("branch %s in repository %s doesn't exist at revision %d -- did you resume from the wrong revision?", t.branch, r.name, t.rev)
		br.created = t.rev
	}
	br.commits = append(br.commits, t.rev)
	br.marks = append(br.marks, mark)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "commit %s\nmark :%d\ncommitter %s %d +0000\ndata %d\n%s\n",
		refName(t.branch), mark, t.author, t.date.Unix(), len(msg), msg)
	if parent > 0 {
		fmt.Fprintf(&buf, "from :%d\n", parent)
	}

	var desc strings.Builder
	n := 0
	for _, m := range t.merges {
		if m == parent {
			continue
		}
		if n++; n > maxMergeParents {
			l.Warnf("%s@r%d: too many merge parents, dropping the rest", t.branch, t.rev)
			break
		}
		fmt.Fprintf(&buf, "merge :%d\n", m)
		fmt.Fprintf(&desc, " :%d", m)
	}

	if slices.Contains(t.deletes, "") {
		buf.WriteString("deleteall\n")
	} else {
		for _, p := range t.deletes {
			fmt.Fprintf(&buf, "D %s\n", quotePath(p))
		}
	}
	for _, f := range t.files {
		fmt.Fprintf(&buf, "M %s inline %s\ndata %d\n", f.mode, quotePath(f.path), len(f.data))
		buf.Write(f.data)
		buf.WriteByte('\n')
	}

	fmt.Fprintf(&buf, "\nprogress SVN r%d branch %s = :%d", t.rev, t.branch, mark)
	if desc.Len() > 0 {
		buf.WriteString(" # merge from" + desc.String())
	}
	buf.WriteString("\n\n")

	r.commits++
	if r.opts.CommitInterval > 0 && r.commits%r.opts.CommitInterval == 0 {
		buf.WriteString("checkpoint\n")
	}

	if err := r.write(ctx, buf.Bytes()); err != nil {
		return err
	}
	if r.opts.Stats != nil {
		r.opts.Stats.Committed(r.name)
	}
	l.Debug("committed", "repository", r.name, "branch", t.branch, "revision", t.rev, "mark", mark)
	return nil
}

// quotePath quotes a path for fast-import when it needs it.
func quotePath(p string) string {
	if !strings.ContainsAny(p, "\"\\\n") && !strings.HasPrefix(p, " ") {
		return p
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, c := range []byte(p) {
		switch c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
