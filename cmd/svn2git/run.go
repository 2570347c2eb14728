package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/raphi011/svn2git/internal/config"
	"github.com/raphi011/svn2git/internal/export"
	"github.com/raphi011/svn2git/internal/git"
	"github.com/raphi011/svn2git/internal/identity"
	"github.com/raphi011/svn2git/internal/log"
	"github.com/raphi011/svn2git/internal/output"
	"github.com/raphi011/svn2git/internal/repository"
	"github.com/raphi011/svn2git/internal/resume"
	"github.com/raphi011/svn2git/internal/revisions"
	"github.com/raphi011/svn2git/internal/rules"
	"github.com/raphi011/svn2git/internal/stats"
	"github.com/raphi011/svn2git/internal/svn"
	"github.com/raphi011/svn2git/internal/ui/progress"
	"github.com/raphi011/svn2git/internal/ui/static"
)

// errNoRules is returned when neither flags, environment nor config name a
// rule file.
var errNoRules = errors.New("no rule files given (use --rules, SVN2GIT_RULES or the config file)")

// resolveConfig merges the config file, the environment and the flags.
func resolveConfig(base config.Config, o config.Overrides) (config.Config, error) {
	c := base.Apply(config.FromEnv(os.Getenv)).Apply(o)
	if len(c.Rules) == 0 {
		return c, &usageError{errNoRules}
	}
	if c.OutputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return c, fmt.Errorf("failed to get working directory: %w", err)
		}
		c.OutputDir = wd
	}
	dir, err := filepath.Abs(c.OutputDir)
	if err != nil {
		return c, err
	}
	c.OutputDir = dir
	return c, nil
}

// terminal reports whether f is attached to a terminal.
func terminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func runExport(ctx context.Context, f exportFlags, o config.Overrides, location string) (err error) {
	l := log.FromContext(ctx)
	out := output.FromContext(ctx)

	base := config.Default()
	if cfg != nil {
		base = *cfg
	}
	c, err := resolveConfig(base, o)
	if err != nil {
		return err
	}
	if c.IdentityMap == "" {
		l.Warnf("no identity map given, authors are written as \"login <login@%s>\"", c.UserDomain)
	}

	table, err := rules.Load(c.Rules...)
	if err != nil {
		return err
	}
	identities := identity.Load(ctx, c.IdentityMap)
	filter := revisions.Load(ctx, c.RevisionsFile)
	if filter.Enabled() {
		revs := filter.Sorted()
		l.Debug("revision filter", "file", c.RevisionsFile, "revisions", filter.Len(), "first", revs[0], "last", revs[len(revs)-1])
	}
	collector := stats.New(table)

	repos, err := openRepositories(ctx, table, repositoryOptions(c, f.dryRun, collector))
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, closeRepositories(repos))
		if err == nil && !f.dryRun && l.IsVerbose() {
			for _, r := range repos {
				summarize(ctx, r.Name(), filepath.Join(c.OutputDir, r.Name()))
			}
		}
	}()

	entries := make([]resume.Entry, len(repos))
	for i, r := range repos {
		entries[i] = resume.Entry{Name: r.Name(), Writer: r}
	}
	rng, err := resume.Resolve(ctx, entries, f.resumeFrom)
	if err != nil {
		return err
	}
	l.Debug("resume resolved", "min_rev", rng.MinRev, "cutoff", rng.Cutoff, "passes", rng.Passes)

	interactive := c.ShowProgress() && !quiet && terminal(os.Stderr)

	src, err := openSource(ctx, location, svn.Options{
		UserDomain: c.UserDomain,
		DebugRules: f.debugRules,
		Stats:      collector,
	}, interactive)
	if err != nil {
		return err
	}
	defer src.Close()

	byName := make(map[string]repository.Repository, len(repos))
	targets := make([]export.Target, len(repos))
	for i, r := range repos {
		byName[r.Name()] = r
		targets[i] = export.Target{Name: r.Name(), Finalizer: r}
	}
	src.SetMatchRules(table)
	src.SetRepositories(byName)
	src.SetIdentityMap(identities)

	iv := export.BuildRange(ctx, rng, f.maxRev, src)
	l.Debug("exporting", "from", iv.From, "to", iv.To)

	hooks := []export.Progress{export.DotProgress{Printer: out}, collector}
	// The bar would garble the dots when both streams share a terminal.
	if interactive && !terminal(os.Stdout) {
		hooks = append(hooks, progress.NewRevisions(os.Stderr))
	}
	session := &export.Session{
		Source:       src,
		Repositories: targets,
		Filter:       filter,
		Progress:     export.Multi(hooks...),
	}
	res, runErr := session.Run(ctx, iv)
	l.Debug("export finished", "exported", res.Exported, "skipped", res.Skipped, "failed", res.FailedRevision)

	report := collector.Report()
	if f.stats {
		if err := static.WriteReport(out.Writer(), os.Environ(), report); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}
	if f.statsJSON != "" {
		if err := report.SaveJSON(f.statsJSON); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("write statistics: %w", err))
		}
	}
	return runErr
}

// summarize logs the refs of a finished repository with their tip commits.
func summarize(ctx context.Context, name, dir string) {
	l := log.FromContext(ctx)
	refs, err := git.ListRefs(ctx, dir)
	if err != nil {
		l.Debug("cannot list refs", "repository", name, "error", err)
		return
	}
	for _, ref := range refs {
		id, err := git.RevParse(ctx, dir, ref.Name)
		if err != nil {
			continue
		}
		msg, _ := git.CommitMessage(ctx, dir, ref.Name)
		subject, _, _ := strings.Cut(msg, "\n")
		l.Debug(ref.Name, "repository", name, "type", ref.Type, "id", id[:min(len(id), 12)], "subject", strconv.Quote(subject))
	}
}

func repositoryOptions(c config.Config, dryRun bool, st *stats.Collector) repository.Options {
	return repository.Options{
		OutputDir:      c.OutputDir,
		CommitInterval: c.CommitInterval,
		AddMetadata:    c.AddMetadata,
		DryRun:         dryRun,
		Stats:          st,
	}
}

// openRepositories opens every declared repository in declaration order.
// On failure the ones already opened are closed again.
func openRepositories(ctx context.Context, table *rules.Table, opts repository.Options) ([]repository.Repository, error) {
	var repos []repository.Repository
	for _, decl := range table.AllRepositories() {
		r, err := repository.Open(ctx, decl, opts)
		if err != nil {
			return nil, errors.Join(err, closeRepositories(repos))
		}
		repos = append(repos, r)
	}
	if len(repos) == 0 {
		return nil, &usageError{errors.New("the rule files declare no repository")}
	}
	return repos, nil
}

func closeRepositories(repos []repository.Repository) error {
	var errs []error
	for _, r := range repos {
		if err := r.Close(); err != nil {
			errs = append(errs, fmt.Errorf("repository %s: %w", r.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// openSource indexes the svn history, showing a spinner on a terminal.
func openSource(ctx context.Context, location string, opts svn.Options, interactive bool) (*svn.Source, error) {
	if interactive {
		sp := progress.NewSpinner(os.Stderr, "Indexing "+location)
		sp.Start()
		defer sp.Stop()
	}
	return svn.Open(ctx, location, opts)
}
