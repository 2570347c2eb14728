package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InitBare creates a bare repository at dir. An existing repository is
// left untouched.
func InitBare(ctx context.Context, dir string) error {
	if IsBareRepo(ctx, dir) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return err
	}
	if err := runGit(ctx, "", "init", "--bare", "--quiet", dir); err != nil {
		return fmt.Errorf("git init %s: %w", dir, err)
	}
	return nil
}

// SetDescription writes the repository description shown by gitweb and cgit.
func SetDescription(dir, description string) error {
	return os.WriteFile(filepath.Join(dir, "description"), []byte(description+"\n"), 0o644)
}

// RevParse resolves ref to an object name.
func RevParse(ctx context.Context, dir, ref string) (string, error) {
	out, err := outputGit(ctx, dir, "rev-parse", "--verify", "--quiet", ref)
	if err != nil {
		return "", fmt.Errorf("ref %s not found: %w", ref, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Ref is a ref and the type of object it points to.
type Ref struct {
	Name string
	Type string // commit or tag
}

// ListRefs returns every ref in the repository, sorted by name.
func ListRefs(ctx context.Context, dir string) ([]Ref, error) {
	out, err := outputGit(ctx, dir, "for-each-ref", "--format=%(objecttype) %(refname)")
	if err != nil {
		return nil, err
	}

	var refs []Ref
	for line := range strings.Lines(string(out)) {
		typ, name, ok := strings.Cut(strings.TrimSpace(line), " ")
		if !ok {
			continue
		}
		refs = append(refs, Ref{Name: name, Type: typ})
	}
	return refs, nil
}

// CommitMessage returns the full message of the commit or tag at ref.
func CommitMessage(ctx context.Context, dir, ref string) (string, error) {
	out, err := outputGit(ctx, dir, "cat-file", "-p", ref)
	if err != nil {
		return "", err
	}
	_, msg, _ := strings.Cut(string(out), "\n\n")
	return msg, nil
}
