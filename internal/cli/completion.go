package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for critlens.

To load completions:

Bash:
  $ source <(critlens completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ critlens completion bash > /etc/bash_completion.d/critlens
  # macOS:
  $ critlens completion bash > $(brew --prefix)/etc/bash_completion.d/critlens

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ critlens completion zsh > "${fpath[1]}/_critlens"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ critlens completion fish | source

  # To load completions for each session, execute once:
  $ critlens completion fish > ~/.config/fish/completions/critlens.fish

PowerShell:
  PS> critlens completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> critlens completion powershell > critlens.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}
