package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/raphi011/svn2git/internal/cmd"
)

// ErrGitNotFound indicates git is not installed or not in PATH
var ErrGitNotFound = errors.New("git not found: please install git (https://git-scm.com)")

// CheckGit verifies that git is available in PATH
func CheckGit() error {
	if _, err := exec.LookPath("git"); err != nil {
		return ErrGitNotFound
	}
	return nil
}

// Version returns the installed git version, e.g. "2.43.0".
func Version(ctx context.Context) (string, error) {
	out, err := outputGit(ctx, "", "version")
	if err != nil {
		return "", err
	}
	v, ok := strings.CutPrefix(strings.TrimSpace(string(out)), "git version ")
	if !ok {
		return "", fmt.Errorf("unexpected git version output %q", out)
	}
	return v, nil
}

// IsBareRepo returns true if dir is a bare git repository.
func IsBareRepo(ctx context.Context, dir string) bool {
	out, err := outputGit(ctx, dir, "rev-parse", "--is-bare-repository")
	return err == nil && strings.TrimSpace(string(out)) == "true"
}

// withGitDir points git at the bare repository dir; an empty dir leaves
// the arguments untouched.
func withGitDir(dir string, args []string) []string {
	if dir == "" {
		return args
	}
	return append([]string{"--git-dir=" + dir}, args...)
}

func runGit(ctx context.Context, dir string, args ...string) error {
	return cmd.RunContext(ctx, "", "git", withGitDir(dir, args)...)
}

func outputGit(ctx context.Context, dir string, args ...string) ([]byte, error) {
	return cmd.OutputContext(ctx, "", "git", withGitDir(dir, args)...)
}
