package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/raphi011/svn2git/internal/config"
	"github.com/raphi011/svn2git/internal/output"
	"github.com/raphi011/svn2git/internal/rules"
	"github.com/raphi011/svn2git/internal/ui/static"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rules",
		Short:   "Inspect rule files",
		GroupID: GroupRules,
	}

	cmd.AddCommand(newRulesCheckCmd())
	cmd.AddCommand(newRulesMatchCmd())

	return cmd
}

// ruleFiles returns args, or the configured rule files when args is empty.
func ruleFiles(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	base := config.Default()
	if cfg != nil {
		base = *cfg
	}
	c := base.Apply(config.FromEnv(os.Getenv))
	if len(c.Rules) == 0 {
		return nil, &usageError{errNoRules}
	}
	return c.Rules, nil
}

func newRulesCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [rule files...]",
		Short: "Validate rule files",
		Long: `Validate rule files and list the repositories they declare.

Without arguments the rule files from SVN2GIT_RULES or the config file are
checked.`,
		Example: `  svn2git rules check project.toml
  svn2git rules check repos.toml matches.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			files, err := ruleFiles(args)
			if err != nil {
				return err
			}
			table, err := rules.Load(files...)
			if err != nil {
				return err
			}

			var rows [][]string
			for _, r := range table.AllRepositories() {
				rows = append(rows, []string{r.Name, r.Source(), r.Description})
			}
			out.Print(static.RenderTable([]string{"REPOSITORY", "DECLARED", "DESCRIPTION"}, rows))
			out.Printf("%d repositories, %d match rules\n", len(table.AllRepositories()), len(table.AllMatchRules()))
			return nil
		},
	}

	return cmd
}

func newRulesMatchCmd() *cobra.Command {
	var (
		rev      int
		ruleArgs []string
	)

	cmd := &cobra.Command{
		Use:   "match <svn path>...",
		Short: "Show which rule matches a path",
		Long: `Show the rule that decides a path, and where it would be exported.

Directories must be given with a trailing slash, as the exporter matches
them that way.`,
		Example: `  svn2git rules match --rules project.toml /trunk/src/main.c
  svn2git rules match --rev 1200 /branches/stable/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			files, err := ruleFiles(ruleArgs)
			if err != nil {
				return err
			}
			table, err := rules.Load(files...)
			if err != nil {
				return err
			}

			var rows [][]string
			for _, p := range args {
				res, ok := table.Match(p, rev)
				if !ok {
					rows = append(rows, []string{p, "-", "no match", "", "", ""})
					continue
				}
				repo := res.Repository
				if res.Action() == rules.ActionExport && !table.HasRepository(repo) {
					repo += " (undeclared)"
				}
				rows = append(rows, []string{p, res.Rule.Info(), res.Action(), repo, res.Branch, res.Path})
			}
			out.Print(static.RenderTable([]string{"PATH", "RULE", "ACTION", "REPOSITORY", "BRANCH", "GIT PATH"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVar(&rev, "rev", 1, "Revision to match at")
	cmd.Flags().StringSliceVar(&ruleArgs, "rules", nil, "Rule files (default: configured rules)")

	return cmd
}
