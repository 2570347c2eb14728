package repository

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/raphi011/svn2git/internal/log"
	"github.com/raphi011/svn2git/internal/storage"
)

var progressLine = regexp.MustCompile(`^progress SVN r(\d+) branch (.+) = :(\d+)$`)

// logEntry is one parsed progress line.
type logEntry struct {
	rev    int
	branch string
	mark   int
	offset int // byte offset of the line in the log
}

// parseLog extracts the progress lines of a log. Other lines are ignored.
func parseLog(data []byte) []logEntry {
	var entries []logEntry
	offset := 0
	for len(data) > 0 {
		line := data
		n := len(data)
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line = data[:i]
			n = i + 1
		}

		text := string(line)
		if hash := strings.IndexByte(text, '#'); hash >= 0 {
			text = text[:hash]
		}
		if m := progressLine.FindStringSubmatch(strings.TrimSpace(text)); m != nil {
			rev, errRev := strconv.Atoi(m[1])
			mark, errMark := strconv.Atoi(m[3])
			if errRev == nil && errMark == nil {
				entries = append(entries, logEntry{rev: rev, branch: m[2], mark: mark, offset: offset})
			}
		}

		offset += n
		data = data[n:]
	}
	return entries
}

// lastValidMark returns the highest mark of the leading run of consecutive
// marks in a fast-import marks file, 0 if the file is missing or corrupt.
func lastValidMark(ctx context.Context, path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	l := log.FromContext(ctx)
	prev := 0
	lineno := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if line == "" {
			continue
		}

		mark := 0
		if rest, ok := strings.CutPrefix(line, ":"); ok {
			if num, _, ok := strings.Cut(rest, " "); ok {
				mark, _ = strconv.Atoi(num)
			}
		}

		switch {
		case mark <= 0:
			l.Warnf("%s line %d: marks file corrupt", path, lineno)
			return 0
		case mark == prev:
			l.Warnf("%s line %d: duplicate mark :%d", path, lineno, mark)
			return 0
		case mark < prev:
			l.Warnf("%s line %d: marks file not sorted", path, lineno)
			return 0
		case mark > prev+1:
			return prev
		}
		prev = mark
	}
	if err := scanner.Err(); err != nil {
		l.Warnf("reading %s: %v", path, err)
		return 0
	}
	return prev
}

// SetupIncremental implements Repository.
func (r *FastImport) SetupIncremental(ctx context.Context, cutoff int) (int, int, error) {
	l := log.FromContext(ctx)

	r.resetState()

	data, err := os.ReadFile(r.logPath)
	if errors.Is(err, fs.ErrNotExist) {
		return 1, cutoff, nil
	}
	if err != nil {
		return 0, 0, err
	}

	entries := parseLog(data)
	valid := lastValidMark(ctx, r.marksPath)

	newCutoff := cutoff
	prevRev := 0
	for _, e := range entries {
		if e.rev >= newCutoff {
			break
		}
		if e.rev < prevRev {
			l.Warnf("%s: revision numbers are not monotonic: r%d after r%d", r.logPath, e.rev, prevRev)
		}
		if e.mark > valid {
			l.Warnf("%s: unknown commit mark :%d at r%d, rewinding (was a previous run interrupted?)", r.name, e.mark, e.rev)
			newCutoff = e.rev
			break
		}
		prevRev = e.rev
	}

	keep := len(entries)
	for i, e := range entries {
		if e.rev >= newCutoff {
			keep = i
			break
		}
	}

	lastRev := 0
	for _, e := range entries[:keep] {
		lastRev = e.rev
		r.lastMark = max(r.lastMark, e.mark)
		br := r.branch(e.branch)
		if br.created == 0 || e.mark == 0 || len(br.marks) == 0 || br.marks[len(br.marks)-1] == 0 {
			br.created = e.rev
		}
		br.commits = append(br.commits, e.rev)
		br.marks = append(br.marks, e.mark)
	}

	if keep == len(entries) {
		return lastRev + 1, newCutoff, nil
	}

	l.Debug("truncating progress log", "repository", r.name, "revision", entries[keep].rev, "offset", entries[keep].offset)
	if err := r.truncateLog(data, entries[keep].offset); err != nil {
		return 0, 0, err
	}
	return newCutoff, newCutoff, nil
}

func (r *FastImport) truncateLog(data []byte, offset int) error {
	if r.opts.DryRun {
		return nil
	}
	if !r.backedUp {
		if err := storage.CopyFile(r.logPath, r.logPath+".old"); err != nil {
			return err
		}
		r.backedUp = true
	}
	return storage.WriteFileAtomic(r.logPath, data[:offset], 0o644)
}

// RestoreLog implements Repository. It is a no-op unless this process
// truncated the log.
func (r *FastImport) RestoreLog() error {
	if r.opts.DryRun || !r.backedUp {
		return nil
	}
	if err := os.Rename(r.logPath+".old", r.logPath); err != nil {
		return err
	}
	r.backedUp = false
	return nil
}
