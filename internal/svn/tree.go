package svn

import (
	"maps"
	"slices"
	"strings"
)

// entry is a node of a revision tree. Published entries are never
// mutated; changes copy the path from the root down.
type entry struct {
	dir        bool
	children   map[string]*entry
	text       content
	executable bool
	special    bool
}

func newDir() *entry {
	return &entry{dir: true, children: map[string]*entry{}}
}

func (e *entry) clone() *entry {
	c := *e
	if e.dir {
		c.children = maps.Clone(e.children)
	}
	return &c
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// lookup returns the entry at p, nil if there is none.
func (e *entry) lookup(p string) *entry {
	cur := e
	for _, name := range splitPath(p) {
		if cur == nil || !cur.dir {
			return nil
		}
		cur = cur.children[name]
	}
	return cur
}

// with returns a new root where p is set to val, or removed when val is
// nil. Missing parent directories are created.
func (e *entry) with(p string, val *entry) *entry {
	parts := splitPath(p)
	if len(parts) == 0 {
		if val == nil {
			return newDir()
		}
		return val
	}

	root := e.clone()
	cur := root
	for _, name := range parts[:len(parts)-1] {
		child := cur.children[name]
		if child == nil || !child.dir {
			child = newDir()
		} else {
			child = child.clone()
		}
		cur.children[name] = child
		cur = child
	}

	last := parts[len(parts)-1]
	if val == nil {
		delete(cur.children, last)
	} else {
		cur.children[last] = val
	}
	return root
}

// walk calls fn for every file below e with its path relative to e, in
// path order.
func (e *entry) walk(fn func(rel string, f *entry) error) error {
	return e.walkPrefix("", fn)
}

func (e *entry) walkPrefix(prefix string, fn func(string, *entry) error) error {
	if !e.dir {
		return fn(prefix, e)
	}
	for _, name := range slices.Sorted(maps.Keys(e.children)) {
		rel := name
		if prefix != "" {
			rel = prefix + "/" + name
		}
		if err := e.children[name].walkPrefix(rel, fn); err != nil {
			return err
		}
	}
	return nil
}

// applyNode returns the tree after n. trees holds the trees of earlier
// revisions for copy sources.
func applyNode(root *entry, n *Node, trees func(rev int) *entry) *entry {
	switch n.Action {
	case ActionDelete:
		return root.with(n.Path, nil)
	case ActionReplace:
		root = root.with(n.Path, nil)
	}

	var e *entry
	if n.IsCopy() {
		if src := trees(n.CopyFromRev); src != nil {
			e = src.lookup(n.CopyFromPath)
		}
	}
	if e == nil {
		e = root.lookup(n.Path)
	}

	kind := n.Kind
	if kind == "" && e != nil {
		kind = KindFile
		if e.dir {
			kind = KindDir
		}
	}

	if kind == KindDir {
		if e == nil || !e.dir {
			e = newDir()
		}
		return root.with(n.Path, e)
	}

	f := &entry{}
	if e != nil && !e.dir {
		f = e.clone()
	}
	if n.text != nil {
		f.text = *n.text
	}
	if n.Props != nil {
		_, f.executable = n.Props["svn:executable"]
		_, f.special = n.Props["svn:special"]
	}
	return root.with(n.Path, f)
}
