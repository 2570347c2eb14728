// Package repository writes svn history into bare git repositories through
// git fast-import.
//
// Every destination repository owns three files next to its objects:
//
//   - log-<name>: fast-import's stdout. Each commit and branch reset is
//     followed by a "progress SVN r<rev> branch <branch> = :<mark>" command,
//     so a line only appears once fast-import has processed the commit.
//   - marks-<name>: fast-import's exported marks, refreshed on every
//     checkpoint and when the process exits.
//   - svn2git.lock: held for the lifetime of a FastImport.
//
// SetupIncremental compares the two files to find the first revision that
// was not durably committed, which is what makes interrupted runs resumable.
package repository
