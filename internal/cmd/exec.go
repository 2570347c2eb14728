// Package cmd provides helpers for executing external commands with proper error handling.
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/raphi011/svn2git/internal/log"
)

// RunContext runs name with args in dir (empty = current directory).
// The trimmed stderr becomes the error message when the command fails.
// If ctx is done, ctx.Err() is returned instead.
func RunContext(ctx context.Context, dir, name string, args ...string) error {
	c := exec.CommandContext(ctx, name, args...)
	c.Dir = dir
	return run(ctx, c, func() error { return c.Run() })
}

// OutputContext is like RunContext but returns stdout.
func OutputContext(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	c := exec.CommandContext(ctx, name, args...)
	c.Dir = dir
	var out []byte
	err := run(ctx, c, func() error {
		var err error
		out, err = c.Output()
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// StreamContext is like RunContext but copies stdout to w as it is produced.
func StreamContext(ctx context.Context, dir string, w io.Writer, name string, args ...string) error {
	c := exec.CommandContext(ctx, name, args...)
	c.Dir = dir
	c.Stdout = w
	return run(ctx, c, func() error { return c.Run() })
}

func run(ctx context.Context, c *exec.Cmd, do func() error) error {
	var stderr bytes.Buffer
	c.Stderr = &stderr

	done := log.FromContext(ctx).Command(c.Dir, c.Path, c.Args[1:]...)
	start := time.Now()
	err := do()
	done(time.Since(start))

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s", msg)
		}
		return err
	}
	return nil
}

// Process is a long-running command fed through its stdin.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	done   func(time.Duration)
	start  time.Time
}

// Start launches name with args in dir, wiring stdout to the given writer.
//
// The process is deliberately not bound to ctx: a cancelled run must still
// be able to close stdin and let the process flush its state. ctx is only
// used for logging.
func Start(ctx context.Context, dir string, stdout io.Writer, name string, args ...string) (*Process, error) {
	c := exec.Command(name, args...)
	c.Dir = dir
	c.Stdout = stdout

	p := &Process{cmd: c}
	c.Stderr = &p.stderr

	stdin, err := c.StdinPipe()
	if err != nil {
		return nil, err
	}
	p.stdin = stdin

	p.done = log.FromContext(ctx).Command(dir, name, args...)
	p.start = time.Now()
	if err := c.Start(); err != nil {
		return nil, err
	}
	return p, nil
}

// Write sends data to the process stdin.
func (p *Process) Write(b []byte) (int, error) {
	return p.stdin.Write(b)
}

// Close closes stdin and waits for the process to exit.
func (p *Process) Close() error {
	closeErr := p.stdin.Close()
	err := p.cmd.Wait()
	p.done(time.Since(p.start))
	if err != nil {
		if msg := strings.TrimSpace(p.stderr.String()); msg != "" {
			return fmt.Errorf("%s", msg)
		}
		return err
	}
	return closeErr
}
