package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raphi011/svn2git/internal/config"
	"github.com/raphi011/svn2git/internal/git"
	"github.com/raphi011/svn2git/internal/log"
	"github.com/raphi011/svn2git/internal/output"
)

var (
	// Global flags
	verbose bool
	quiet   bool

	// Loaded before any command runs
	cfg *config.Config
)

// Command group IDs for organizing help output
const (
	GroupRules  = "rules"
	GroupConfig = "config"
)

// exportFlags holds the flags of the root command.
type exportFlags struct {
	rules          []string
	identityMap    string
	revisionsFile  string
	outputDir      string
	resumeFrom     int
	maxRev         int
	commitInterval int
	dryRun         bool
	addMetadata    bool
	debugRules     bool
	stats          bool
	statsJSON      string
	noProgress     bool
}

func newRootCmd() *cobra.Command {
	var f exportFlags

	cmd := &cobra.Command{
		Use:   "svn2git [flags] <svn dump or repository>",
		Short: "Migrate Subversion history into git repositories",
		Long: `svn2git replays the history of a Subversion repository into one or more
git repositories. Rule files decide which svn path lands in which
repository and branch.

The source is either a dump file created with "svnadmin dump" or a
repository directory, which is dumped on the fly.

Runs can be interrupted and resumed: every destination repository keeps a
progress log, and the next run continues after the last revision that all
repositories committed durably.`,
		Example: `  svn2git --rules project.toml --identity-map authors.txt project.dump
  svn2git --rules repos.toml,matches.toml --output-dir /srv/git /var/svn/project
  svn2git --rules project.toml --resume-from 1200 --max-rev 1500 project.dump
  svn2git --rules project.toml --dry-run --stats project.dump`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return &usageError{err}
			}
			return nil
		},
		SilenceUsage:               true,
		SilenceErrors:              true,
		SuggestionsMinimumDistance: 2, // Enable typo suggestions
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate mutually exclusive flags
			if verbose && quiet {
				return fmt.Errorf("--verbose and --quiet are mutually exclusive")
			}

			// Flags are parsed now, so the logger can honour -v and -q.
			// Rule decisions are debug lines, so --debug-rules implies -v.
			l := log.New(cmd.ErrOrStderr(), verbose || f.debugRules, quiet)
			ctx := log.WithLogger(cmd.Context(), l)
			cmd.SetContext(ctx)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			if f.dryRun {
				l.Println("Dry run: no repository will be written")
			} else {
				if err := git.CheckGit(); err != nil {
					return err
				}
				if v, err := git.Version(ctx); err == nil {
					l.Debug("using git", "version", v)
				}
			}
			return runExport(ctx, f, flagOverrides(cmd, f), args[0])
		},
	}

	fl := cmd.Flags()
	fl.StringSliceVar(&f.rules, "rules", nil, "Rule files, comma separated or repeated (overrides config)")
	fl.StringVar(&f.identityMap, "identity-map", "", "File mapping svn logins to git identities")
	fl.StringVar(&f.revisionsFile, "revisions-file", "", "Only export the revisions listed in this file")
	fl.StringVar(&f.outputDir, "output-dir", "", "Directory holding the destination repositories (default: current directory)")
	fl.IntVar(&f.resumeFrom, "resume-from", 0, "Start exporting at this revision")
	fl.IntVar(&f.maxRev, "max-rev", 0, "Stop exporting after this revision (default: youngest)")
	fl.IntVar(&f.commitInterval, "commit-interval", config.DefaultCommitInterval, "Checkpoint fast-import every N commits")
	fl.BoolVar(&f.dryRun, "dry-run", false, "Route every revision without writing any repository")
	fl.BoolVar(&f.addMetadata, "add-metadata", false, "Append svn path and revision to commit messages")
	fl.BoolVar(&f.debugRules, "debug-rules", false, "Log the rule chosen for every path (implies -v)")
	fl.BoolVar(&f.stats, "stats", false, "Print rule and commit statistics after the run")
	fl.StringVar(&f.statsJSON, "stats-json", "", "Write the statistics as JSON to this file")
	fl.BoolVar(&f.noProgress, "no-progress", false, "Do not show a progress bar")

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug output and external commands")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all log output")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	// Version flag
	cmd.Version = versionString()
	cmd.SetVersionTemplate("{{.Version}}\n")

	// Add command groups for organized help output
	cmd.AddGroup(
		&cobra.Group{ID: GroupRules, Title: "Rule Commands:"},
		&cobra.Group{ID: GroupConfig, Title: "Configuration Commands:"},
	)

	cmd.AddCommand(newRulesCmd())
	cmd.AddCommand(newReportCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newCompletionCmd())

	return cmd
}

// flagOverrides returns the settings given on the command line. Flags the
// user did not touch leave the config value alone.
func flagOverrides(cmd *cobra.Command, f exportFlags) config.Overrides {
	o := config.Overrides{
		Rules:         f.rules,
		IdentityMap:   f.identityMap,
		RevisionsFile: f.revisionsFile,
		OutputDir:     f.outputDir,
	}
	if cmd.Flags().Changed("commit-interval") {
		o.CommitInterval = &f.commitInterval
	}
	if cmd.Flags().Changed("add-metadata") {
		o.AddMetadata = &f.addMetadata
	}
	if f.noProgress {
		show := false
		o.Progress = &show
	}
	return o
}

// Execute builds the command tree and runs it.
func Execute() {
	// Load config
	loadedCfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	cfg = &loadedCfg

	// Create context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// Add output printer (stdout for primary data)
	ctx = output.WithPrinter(ctx, os.Stdout)

	rootCmd := newRootCmd()
	rootCmd.SetContext(ctx)

	err = rootCmd.Execute()
	cancel()
	if err != nil {
		output.FromContext(ctx).EndLine()
		fmt.Fprintf(os.Stderr, "svn2git: %v\n", err)
		var usage *usageError
		if errors.As(err, &usage) {
			fmt.Fprintln(os.Stderr)
			fmt.Fprintln(os.Stderr, "Run 'svn2git -h' for help")
		}
		os.Exit(1)
	}
}

// usageError marks errors caused by how the command was invoked.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }
