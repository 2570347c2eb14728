package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/raphi011/svn2git/internal/config"
	"github.com/raphi011/svn2git/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Manage configuration",
		Aliases: []string{"cfg"},
		GroupID: GroupConfig,
		Long: `Manage svn2git configuration.

Config file: ~/.config/svn2git/config.toml`,
		Example: `  svn2git config init     # Create default config
  svn2git config show     # Show effective config`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force  bool
		stdout bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default config file",
		Args:  cobra.NoArgs,
		Example: `  svn2git config init      # Create config
  svn2git config init -f   # Overwrite existing config
  svn2git config init -s   # Print config to stdout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			if stdout {
				out.Print(config.DefaultConfig())
				return nil
			}

			path, err := config.Init(force)
			if err != nil {
				return fmt.Errorf("%w (use -f to overwrite)", err)
			}
			out.Printf("Created config file: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config")
	cmd.Flags().BoolVarP(&stdout, "stdout", "s", false, "Print config to stdout")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		Long: `Show effective configuration.

The config file merged with SVN2GIT_* environment variables. Command line
flags of an export run are applied on top of this.`,
		Example: `  svn2git config show          # Show config as TOML
  svn2git config show --json   # Output as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			base := config.Default()
			if cfg != nil {
				base = *cfg
			}
			eff := base.Apply(config.FromEnv(os.Getenv))

			if jsonOutput {
				enc := json.NewEncoder(out.Writer())
				enc.SetIndent("", "  ")
				return enc.Encode(eff)
			}

			if path, err := config.Path(); err == nil {
				out.Printf("# %s\n", path)
			}
			return toml.NewEncoder(out.Writer()).Encode(eff)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
