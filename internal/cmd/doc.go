// Package cmd provides helpers for executing external commands with proper error handling.
//
// svn2git talks to Subversion and git through their command line tools:
// svnadmin and svnlook on the source side, git init and git fast-import on
// the destination side. This package wraps [os/exec.Cmd] so that stderr
// ends up in error messages and every command is traced in verbose mode.
//
// # Usage
//
//	out, err := cmd.OutputContext(ctx, "", "svnlook", "youngest", repoPath)
//
//	// Stream a large output to a file:
//	err := cmd.StreamContext(ctx, "", f, "svnadmin", "dump", "--quiet", repoPath)
//
//	// Feed a long-running process:
//	p, err := cmd.Start(ctx, gitDir, logFile, "git", "fast-import", "--quiet")
//	fmt.Fprintf(p, "checkpoint\n")
//	err = p.Close()
package cmd
