package svn

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/raphi011/svn2git/internal/log"
	"github.com/raphi011/svn2git/internal/repository"
	"github.com/raphi011/svn2git/internal/rules"
)

// ExportError reports a revision that could not be exported.
type ExportError struct {
	Revision int
	Path     string
	Err      error
}

func (e *ExportError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("r%d: %v", e.Revision, e.Err)
	}
	return fmt.Sprintf("r%d %s: %v", e.Revision, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

type txnKey struct {
	repository string
	branch     string
}

// revisionExport routes the nodes of one revision.
type revisionExport struct {
	s   *Source
	ctx context.Context
	l   *log.Logger
	rev *Revision

	author string
	date   time.Time
	msg    string

	prev *entry // tree before the revision
	cur  *entry // tree after the revision

	txns map[txnKey]repository.Transaction
}

// ExportRevision routes every change of rev to the repositories whose rules
// match it and commits one transaction per touched branch.
func (s *Source) ExportRevision(ctx context.Context, rev int) error {
	if s.rules == nil {
		return &ExportError{Revision: rev, Err: errors.New("no match rules configured")}
	}
	if rev < 0 || rev >= len(s.revs) || s.revs[rev] == nil {
		return &ExportError{Revision: rev, Err: errors.New("revision not in dump")}
	}

	r := s.revs[rev]
	x := &revisionExport{
		s:      s,
		ctx:    ctx,
		l:      log.FromContext(ctx),
		rev:    r,
		author: s.identities.Lookup(r.Props["svn:author"], s.opts.UserDomain),
		msg:    r.Props["svn:log"],
		prev:   s.tree(rev - 1),
		cur:    s.tree(rev),
		txns:   make(map[txnKey]repository.Transaction),
	}
	if x.prev == nil {
		x.prev = newDir()
	}
	if d, ok := r.Props["svn:date"]; ok {
		t, err := time.Parse(time.RFC3339Nano, d)
		if err != nil {
			return &ExportError{Revision: rev, Err: fmt.Errorf("invalid svn:date %q", d)}
		}
		x.date = t
	}

	for i := range r.Nodes {
		n := &r.Nodes[i]
		if err := x.node(n); err != nil {
			return &ExportError{Revision: rev, Path: "/" + n.Path, Err: err}
		}
	}
	return x.commit()
}

func (x *revisionExport) node(n *Node) error {
	switch n.Action {
	case ActionDelete:
		return x.remove(n.Path, x.prev.lookup(n.Path))
	case ActionReplace:
		if err := x.remove(n.Path, x.prev.lookup(n.Path)); err != nil {
			return err
		}
	}
	return x.add(n)
}

// svnPath returns the rule-matching form of p: rooted, with a trailing
// slash for directories.
func svnPath(p string, dir bool) string {
	p = "/" + p
	if dir && p != "/" {
		p += "/"
	}
	return p
}

func (x *revisionExport) match(p string) (rules.Result, bool) {
	res, ok := x.s.rules.Match(p, x.rev.Number)
	if x.s.opts.DebugRules {
		if ok {
			x.l.Debug("rule", "rev", x.rev.Number, "path", p, "rule", res.Rule.Info(), "action", res.Action(),
				"repository", res.Repository, "branch", res.Branch)
		} else {
			x.l.Debug("no rule", "rev", x.rev.Number, "path", p)
		}
	}
	if st := x.s.opts.Stats; st != nil {
		if ok {
			st.RuleMatched(res.Rule.Info())
		} else {
			st.Unmatched(p)
		}
	}
	return res, ok
}

func (x *revisionExport) repository(res rules.Result) (repository.Repository, error) {
	repo, ok := x.s.repositories[res.Repository]
	if !ok {
		return nil, fmt.Errorf("rule %s names unknown repository %q", res.Rule.Info(), res.Repository)
	}
	return repo, nil
}

func (x *revisionExport) txn(repo repository.Repository, res rules.Result, svnprefix string) repository.Transaction {
	key := txnKey{repository: res.Repository, branch: res.Branch}
	t, ok := x.txns[key]
	if !ok {
		t = repo.NewTransaction(res.Branch, svnprefix, x.rev.Number)
		x.txns[key] = t
	}
	return t
}

// remove handles the deletion of p, whose previous state is e.
func (x *revisionExport) remove(p string, e *entry) error {
	dir := e != nil && e.dir
	sp := svnPath(p, dir)

	res, ok := x.match(sp)
	if !ok || res.Action() == rules.ActionRecurse {
		if !dir {
			return nil
		}
		for _, name := range slices.Sorted(maps.Keys(e.children)) {
			if err := x.remove(path.Join(p, name), e.children[name]); err != nil {
				return err
			}
		}
		return nil
	}
	if res.Action() == rules.ActionIgnore {
		return nil
	}

	repo, err := x.repository(res)
	if err != nil {
		return err
	}
	gitPath := strings.TrimSuffix(res.Path, "/")
	if gitPath == "" && res.Rule.Prefix == "" {
		return repo.DeleteBranch(res.Branch, x.rev.Number)
	}
	x.txn(repo, res, strings.TrimSuffix(sp, res.Remainder)).DeleteFile(gitPath)
	return nil
}

func (x *revisionExport) add(n *Node) error {
	e := x.cur.lookup(n.Path)
	if e == nil {
		// removed again later in the same revision
		return nil
	}
	sp := svnPath(n.Path, e.dir)

	res, ok := x.match(sp)
	if !ok {
		switch {
		case e.dir && n.IsCopy():
			return x.recurse(n, e)
		case e.dir:
			return nil
		}
		return errors.New("path did not match any rules")
	}

	switch res.Action() {
	case rules.ActionIgnore:
		return nil
	case rules.ActionRecurse:
		if e.dir && n.IsCopy() {
			return x.recurse(n, e)
		}
		return nil
	}

	repo, err := x.repository(res)
	if err != nil {
		return err
	}
	svnprefix := strings.TrimSuffix(sp, res.Remainder)
	gitPath := strings.TrimSuffix(res.Path, "/")

	if res.Rule.Annotated && strings.HasPrefix(res.Branch, "refs/tags/") {
		repo.CreateAnnotatedTag(res.Branch, svnprefix, x.rev.Number, x.author, x.date, x.msg)
	}

	// The branch the copy source belongs to, if it is in the same repository.
	var from rules.Result
	fromBranch := false
	if n.IsCopy() {
		if src, ok := x.s.rules.Match(svnPath(n.CopyFromPath, e.dir), n.CopyFromRev); ok &&
			src.Action() == rules.ActionExport && src.Repository == res.Repository {
			from, fromBranch = src, true
		}
	}

	if !e.dir {
		data, err := x.s.read(e.text)
		if err != nil {
			return err
		}
		t := x.txn(repo, res, svnprefix)
		if fromBranch {
			t.NoteCopyFromBranch(from.Branch, n.CopyFromRev)
		}
		addFile(t, gitPath, e, data)
		return nil
	}

	if !n.IsCopy() {
		// git does not track empty directories
		return nil
	}

	if gitPath == "" && res.Rule.Prefix == "" && fromBranch &&
		strings.TrimSuffix(from.Path, "/") == "" && from.Rule.Prefix == "" {
		x.l.Debug("branch copy", "repository", res.Repository, "branch", res.Branch, "from", from.Branch, "rev", n.CopyFromRev)
		return repo.CreateBranch(res.Branch, x.rev.Number, from.Branch, n.CopyFromRev)
	}

	t := x.txn(repo, res, svnprefix)
	t.DeleteFile(gitPath)
	if fromBranch {
		t.NoteCopyFromBranch(from.Branch, n.CopyFromRev)
	}
	return e.walk(func(rel string, f *entry) error {
		data, err := x.s.read(f.text)
		if err != nil {
			return err
		}
		addFile(t, path.Join(gitPath, rel), f, data)
		return nil
	})
}

// recurse routes the children of a copied directory one by one.
func (x *revisionExport) recurse(n *Node, e *entry) error {
	for _, name := range slices.Sorted(maps.Keys(e.children)) {
		child := &Node{
			Path:         path.Join(n.Path, name),
			Kind:         KindFile,
			Action:       ActionAdd,
			CopyFromRev:  n.CopyFromRev,
			CopyFromPath: path.Join(n.CopyFromPath, name),
		}
		if e.children[name].dir {
			child.Kind = KindDir
		}
		if err := x.add(child); err != nil {
			return err
		}
	}
	return nil
}

func addFile(t repository.Transaction, p string, f *entry, data []byte) {
	mode := repository.ModeFile
	switch {
	case f.special:
		mode = repository.ModeSymlink
		if target, ok := strings.CutPrefix(string(data), "link "); ok {
			data = []byte(target)
		}
	case f.executable:
		mode = repository.ModeExecutable
	}
	t.AddFile(p, mode, data)
}

func (x *revisionExport) commit() error {
	names := slices.Sorted(maps.Keys(x.s.repositories))
	for _, name := range names {
		if err := x.s.repositories[name].FlushBranches(x.ctx); err != nil {
			return &ExportError{Revision: x.rev.Number, Err: err}
		}
	}

	keys := slices.SortedFunc(maps.Keys(x.txns), func(a, b txnKey) int {
		return cmp.Or(cmp.Compare(a.repository, b.repository), cmp.Compare(a.branch, b.branch))
	})
	for _, key := range keys {
		t := x.txns[key]
		t.SetAuthor(x.author)
		t.SetDate(x.date)
		t.SetLog(x.msg)
		if err := t.Commit(x.ctx); err != nil {
			return &ExportError{Revision: x.rev.Number, Path: key.repository + ":" + key.branch, Err: err}
		}
	}
	return nil
}
