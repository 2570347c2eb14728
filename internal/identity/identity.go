// Package identity loads the table mapping svn logins to git identities.
//
// The file format accepts both the native form and the git-svn authors form:
//
//	jdoe John Doe <jdoe@example.com>
//	jdoe = John Doe <jdoe@example.com>
//
// Anything after a '#' is a comment. Lines without a space are ignored.
package identity

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/raphi011/svn2git/internal/log"
)

// Map maps an svn login to a git identity ("Name <email>").
type Map map[string]string

// maxLine is the longest identity map line Parse accepts.
const maxLine = 1 << 20

// Load reads the identity map at path. An empty path yields an empty map.
// Read errors are reported as warnings: an unopenable file yields an empty
// map, a read error midway keeps the entries read before it.
func Load(ctx context.Context, path string) Map {
	if path == "" {
		return Map{}
	}

	f, err := os.Open(path)
	if err != nil {
		log.FromContext(ctx).Warnf("could not open identity map %s: %v", path, err)
		return Map{}
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		log.FromContext(ctx).Warnf("could not read identity map %s after %d entries: %v", path, len(m), err)
	}
	return m
}

// Parse reads identity map entries from r. Later entries for the same login
// replace earlier ones. On a read error the entries parsed so far are
// returned with it.
func Parse(r io.Reader) (Map, error) {
	m := Map{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)

		login, rest, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		// git-svn authors files use "login = Name <email>"
		rest = strings.TrimPrefix(rest, "= ")
		m[login] = strings.TrimSpace(rest)
	}
	return m, sc.Err()
}

// Lookup returns the identity for login, or "login <login@domain>" when
// the login is not mapped.
func (m Map) Lookup(login, domain string) string {
	if id, ok := m[login]; ok && id != "" {
		return id
	}
	if login == "" {
		login = "nobody"
	}
	return login + " <" + login + "@" + domain + ">"
}
