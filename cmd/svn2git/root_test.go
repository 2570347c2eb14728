package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/raphi011/svn2git/internal/config"
	"github.com/raphi011/svn2git/internal/output"
	"github.com/raphi011/svn2git/internal/stats"
)

const testRules = `
[[repository]]
name = "project"
description = "test project"

[[match]]
path = "/trunk/"
repository = "project"
branch = "master"
`

// writeDump writes a three revision dump: r1 imports trunk, r2 adds a
// directory no rule matches, r3 edits trunk.
func writeDump(t *testing.T, path string) {
	t.Helper()

	props := func(kv ...string) string {
		var b strings.Builder
		for i := 0; i+1 < len(kv); i += 2 {
			fmt.Fprintf(&b, "K %d\n%s\nV %d\n%s\n", len(kv[i]), kv[i], len(kv[i+1]), kv[i+1])
		}
		return b.String() + "PROPS-END\n"
	}
	var b strings.Builder
	rev := func(n int, msg string) {
		p := props("svn:author", "jane", "svn:date", "2010-01-02T03:04:05.000000Z", "svn:log", msg)
		fmt.Fprintf(&b, "Revision-number: %d\nProp-content-length: %d\nContent-length: %d\n\n%s\n", n, len(p), len(p), p)
	}
	dir := func(path string) {
		fmt.Fprintf(&b, "Node-path: %s\nNode-kind: dir\nNode-action: add\n\n\n", path)
	}
	file := func(path, action, text string) {
		fmt.Fprintf(&b, "Node-path: %s\nNode-kind: file\nNode-action: %s\nText-content-length: %d\nContent-length: %d\n\n%s\n\n",
			path, action, len(text), len(text), text)
	}

	b.WriteString("SVN-fs-dump-format-version: 2\n\n")
	rev(0, "")
	rev(1, "import")
	dir("trunk")
	file("trunk/README", "add", "hello\n")
	rev(2, "junk")
	dir("junk")
	rev(3, "edit")
	file("trunk/README", "change", "hello world\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFlagOverrides(t *testing.T) {
	t.Parallel()

	var f exportFlags
	cmd := &cobra.Command{}
	cmd.Flags().StringSliceVar(&f.rules, "rules", nil, "")
	cmd.Flags().IntVar(&f.commitInterval, "commit-interval", config.DefaultCommitInterval, "")
	cmd.Flags().BoolVar(&f.addMetadata, "add-metadata", false, "")
	cmd.Flags().BoolVar(&f.noProgress, "no-progress", false, "")

	if err := cmd.ParseFlags([]string{"--rules", "a.toml,b.toml", "--rules", "c.toml", "--no-progress"}); err != nil {
		t.Fatal(err)
	}
	o := flagOverrides(cmd, f)

	if len(o.Rules) != 3 || o.Rules[2] != "c.toml" {
		t.Errorf("Rules = %v", o.Rules)
	}
	if o.CommitInterval != nil {
		t.Error("untouched --commit-interval must not override the config")
	}
	if o.AddMetadata != nil {
		t.Error("untouched --add-metadata must not override the config")
	}
	if o.Progress == nil || *o.Progress {
		t.Error("--no-progress must disable progress")
	}

	if err := cmd.ParseFlags([]string{"--commit-interval=0"}); err != nil {
		t.Fatal(err)
	}
	if o := flagOverrides(cmd, f); o.CommitInterval == nil || *o.CommitInterval != 0 {
		t.Error("explicit --commit-interval=0 must override the config")
	}
}

func TestResolveConfig(t *testing.T) {
	t.Setenv(config.EnvRules, "")
	t.Setenv(config.EnvOutputDir, "")

	_, err := resolveConfig(config.Default(), config.Overrides{})
	var usage *usageError
	if !errors.As(err, &usage) || !errors.Is(err, errNoRules) {
		t.Errorf("resolveConfig() error = %v, want usage error about rules", err)
	}

	c, err := resolveConfig(config.Default(), config.Overrides{Rules: []string{"r.toml"}, OutputDir: "out"})
	if err != nil {
		t.Fatalf("resolveConfig() error = %v", err)
	}
	if !filepath.IsAbs(c.OutputDir) || filepath.Base(c.OutputDir) != "out" {
		t.Errorf("OutputDir = %q, want absolute path ending in out", c.OutputDir)
	}
}

func TestRootCmd_RequiresSource(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	var usage *usageError
	if !errors.As(err, &usage) {
		t.Errorf("Execute() error = %v, want usage error", err)
	}
}

func TestRulesCheck(t *testing.T) {
	rulesPath := writeFile(t, filepath.Join(t.TempDir(), "project.toml"), testRules)

	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetContext(output.WithPrinter(context.Background(), &buf))
	cmd.SetArgs([]string{"rules", "check", rulesPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("rules check error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"project", "test project", "1 repositories, 1 match rules"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRulesMatch(t *testing.T) {
	doc := testRules + `
[[match]]
path = "/([^/]+)/trunk/"
repository = "$1"
branch = "master"
`
	rulesPath := writeFile(t, filepath.Join(t.TempDir(), "project.toml"), doc)

	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetContext(output.WithPrinter(context.Background(), &buf))
	cmd.SetArgs([]string{"rules", "match", "--rules", rulesPath, "/trunk/src/main.c", "/junk/", "/kdelibs/trunk/README"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("rules match error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"project.toml:match[0]", "src/main.c", "no match", "kdelibs (undeclared)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestReportCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	saved := stats.Report{From: 1, To: 3, Exported: 2, Skipped: 1, Commits: map[string]int{"project": 2}}
	if err := saved.SaveJSON(path); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetContext(output.WithPrinter(context.Background(), &buf))
	cmd.SetArgs([]string{"report", path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("report error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Revisions r1 to r3: 2 exported, 1 skipped", "REPOSITORY", "project"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	cmd = newRootCmd()
	cmd.SetContext(output.WithPrinter(context.Background(), &buf))
	cmd.SetArgs([]string{"report", filepath.Join(t.TempDir(), "missing.json")})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "no statistics file") {
		t.Errorf("report of missing file error = %v", err)
	}
}

func TestRootCmd_DebugRulesWithoutVerbose(t *testing.T) {
	dir := t.TempDir()
	rulesPath := writeFile(t, filepath.Join(dir, "project.toml"), testRules)
	dumpPath := filepath.Join(dir, "project.dump")
	writeDump(t, dumpPath)

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetContext(output.WithPrinter(context.Background(), &stdout))
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--rules", rulesPath, "--output-dir", filepath.Join(dir, "git"),
		"--dry-run", "--no-progress", "--debug-rules", dumpPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	logged := stderr.String()
	for _, want := range []string{
		"rule rev=1 path=/trunk/README rule=project.toml:match[0] action=export",
		"no rule rev=2 path=/junk/",
	} {
		if !strings.Contains(logged, want) {
			t.Errorf("stderr missing %q:\n%s", want, logged)
		}
	}

	stderr.Reset()
	cmd = newRootCmd()
	cmd.SetContext(output.WithPrinter(context.Background(), &stdout))
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--rules", rulesPath, "--output-dir", filepath.Join(dir, "git"),
		"--dry-run", "--no-progress", "--debug-rules", "-q", dumpPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if stderr.Len() != 0 {
		t.Errorf("-q still logged %q", stderr.String())
	}
}

func TestRunExport_DryRun(t *testing.T) {
	dir := t.TempDir()
	rulesPath := writeFile(t, filepath.Join(dir, "project.toml"), testRules)
	revsPath := writeFile(t, filepath.Join(dir, "revisions.txt"), "1\n3\n")
	authors := writeFile(t, filepath.Join(dir, "authors.txt"), "jane Jane Doe <jane@example.com>\n")
	dumpPath := filepath.Join(dir, "project.dump")
	writeDump(t, dumpPath)
	outDir := filepath.Join(dir, "git")

	var buf bytes.Buffer
	ctx := output.WithPrinter(context.Background(), &buf)

	noProgress := false
	f := exportFlags{dryRun: true, statsJSON: filepath.Join(dir, "stats.json")}
	o := config.Overrides{
		Rules:         []string{rulesPath},
		IdentityMap:   authors,
		RevisionsFile: revsPath,
		OutputDir:     outDir,
		Progress:      &noProgress,
	}

	if err := runExport(ctx, f, o, dumpPath); err != nil {
		t.Fatalf("runExport() error = %v", err)
	}

	// r2 is filtered out: one dot, ended by the export of r3
	if buf.String() != ".\n" {
		t.Errorf("progress output = %q, want %q", buf.String(), ".\n")
	}

	report, err := stats.LoadReport(f.statsJSON)
	if err != nil {
		t.Fatalf("LoadReport() error = %v", err)
	}
	if report.From != 1 || report.To != 3 || report.Exported != 2 || report.Skipped != 1 {
		t.Errorf("report = %+v", report)
	}
	if report.Commits["project"] != 2 {
		t.Errorf("commits = %v, want 2 for project", report.Commits)
	}

	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Errorf("dry run created %s", outDir)
	}
}

func TestRunExport_MissingRuleFile(t *testing.T) {
	dir := t.TempDir()
	dumpPath := filepath.Join(dir, "project.dump")
	writeDump(t, dumpPath)

	o := config.Overrides{Rules: []string{filepath.Join(dir, "missing.toml")}, OutputDir: dir}
	err := runExport(context.Background(), exportFlags{dryRun: true}, o, dumpPath)
	if err == nil {
		t.Fatal("runExport() with a missing rule file should fail")
	}
}
