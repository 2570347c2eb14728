// Package git wraps the few git plumbing commands svn2git needs around
// git fast-import: creating bare destination repositories and reading refs
// back for verification.
//
// All operations shell out to the git CLI through internal/cmd so they are
// logged in verbose mode like every other external command.
package git
