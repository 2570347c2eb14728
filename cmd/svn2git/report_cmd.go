package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphi011/svn2git/internal/output"
	"github.com/raphi011/svn2git/internal/stats"
	"github.com/raphi011/svn2git/internal/ui/static"
)

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "report <stats.json>",
		Short:   "Show statistics saved by an earlier run",
		GroupID: GroupRules,
		Long: `Render a statistics file written with --stats-json as tables.

Useful to review rule coverage of a long run after the fact.`,
		Example: `  svn2git /srv/svn/project --stats-json stats.json
  svn2git report stats.json`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return &usageError{err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := stats.LoadReport(args[0])
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("no statistics file at %s", args[0])
			}
			if err != nil {
				return fmt.Errorf("read statistics: %w", err)
			}
			out := output.FromContext(cmd.Context())
			return static.WriteReport(out.Writer(), os.Environ(), report)
		},
	}
}
