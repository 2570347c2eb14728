package main

import (
	"github.com/spf13/cobra"

	"github.com/raphi011/svn2git/internal/output"
)

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "completion <shell>",
		Short:     "Generate shell completion script",
		GroupID:   GroupConfig,
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		Example: `  svn2git completion fish > ~/.config/fish/completions/svn2git.fish
  svn2git completion bash > ~/.local/share/bash-completion/completions/svn2git
  svn2git completion zsh > ~/.zfunc/_svn2git`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := output.FromContext(cmd.Context()).Writer()
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(w, true)
			case "zsh":
				return root.GenZshCompletion(w)
			case "fish":
				return root.GenFishCompletion(w, true)
			default:
				return root.GenPowerShellCompletionWithDesc(w)
			}
		},
	}
}
