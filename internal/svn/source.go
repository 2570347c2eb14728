package svn

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/raphi011/svn2git/internal/cmd"
	"github.com/raphi011/svn2git/internal/identity"
	"github.com/raphi011/svn2git/internal/log"
	"github.com/raphi011/svn2git/internal/repository"
	"github.com/raphi011/svn2git/internal/rules"
	"github.com/raphi011/svn2git/internal/stats"
)

// Matcher finds the rule for an svn path at a revision. *rules.Table
// implements it.
type Matcher interface {
	Match(path string, rev int) (rules.Result, bool)
}

// Options configures a Source.
type Options struct {
	// UserDomain completes unmapped logins into "login <login@domain>".
	UserDomain string
	// DebugRules logs every rule decision.
	DebugRules bool
	Stats      *stats.Collector
}

// Source is an indexed svn dump.
type Source struct {
	file    *os.File
	tempDir string
	opts    Options

	revs  []*Revision // indexed by revision number, nil for gaps
	trees []*entry    // tree after each revision

	rules        Matcher
	repositories map[string]repository.Repository
	identities   identity.Map
}

// Open indexes the dump at location. A directory is taken to be an svn
// repository and dumped with svnadmin into a temporary file first.
func Open(ctx context.Context, location string, opts Options) (*Source, error) {
	info, err := os.Stat(location)
	if err != nil {
		return nil, err
	}

	s := &Source{opts: opts, repositories: map[string]repository.Repository{}}
	if s.opts.UserDomain == "" {
		s.opts.UserDomain = "localhost"
	}

	path := location
	if info.IsDir() {
		if path, err = s.dumpRepository(ctx, location); err != nil {
			s.Close()
			return nil, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.file = f

	if err := parseDump(f, s.index); err != nil {
		s.Close()
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	log.FromContext(ctx).Debug("indexed svn dump", "location", location, "youngest", s.YoungestRevision())
	return s, nil
}

func (s *Source) dumpRepository(ctx context.Context, dir string) (string, error) {
	tmp, err := os.MkdirTemp("", "svn2git-dump-")
	if err != nil {
		return "", err
	}
	s.tempDir = tmp

	path := filepath.Join(tmp, "repository.dump")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := cmd.StreamContext(ctx, "", f, "svnadmin", "dump", "--quiet", dir); err != nil {
		return "", fmt.Errorf("svnadmin dump %s: %w", dir, err)
	}
	return path, f.Close()
}

func (s *Source) index(rev Revision) error {
	if rev.Number < len(s.revs) {
		return fmt.Errorf("revision %d is duplicated or out of order", rev.Number)
	}

	var prev *entry
	if len(s.trees) > 0 {
		prev = s.trees[len(s.trees)-1]
	}
	if prev == nil {
		prev = newDir()
	}
	for len(s.revs) < rev.Number {
		s.revs = append(s.revs, nil)
		s.trees = append(s.trees, prev)
	}

	root := prev
	for i := range rev.Nodes {
		root = applyNode(root, &rev.Nodes[i], s.tree)
	}
	s.revs = append(s.revs, &rev)
	s.trees = append(s.trees, root)
	return nil
}

// tree returns the tree after rev, nil if rev is unknown.
func (s *Source) tree(rev int) *entry {
	if rev < 0 || rev >= len(s.trees) {
		return nil
	}
	return s.trees[rev]
}

// Close releases the dump file and removes any temporary dump.
func (s *Source) Close() error {
	var err error
	if s.file != nil {
		err = s.file.Close()
		s.file = nil
	}
	if s.tempDir != "" {
		if rmErr := os.RemoveAll(s.tempDir); err == nil {
			err = rmErr
		}
		s.tempDir = ""
	}
	return err
}

// SetMatchRules sets the rules used to route paths.
func (s *Source) SetMatchRules(m Matcher) {
	s.rules = m
}

// SetRepositories sets the destination repositories by name.
func (s *Source) SetRepositories(repos map[string]repository.Repository) {
	s.repositories = repos
}

// SetIdentityMap sets the login to author identity map.
func (s *Source) SetIdentityMap(m identity.Map) {
	s.identities = m
}

// YoungestRevision returns the highest revision in the dump.
func (s *Source) YoungestRevision() int {
	return max(len(s.revs)-1, 0)
}

func (s *Source) read(c content) ([]byte, error) {
	buf := make([]byte, c.length)
	if _, err := s.file.ReadAt(buf, c.offset); err != nil {
		return nil, err
	}
	return buf, nil
}
