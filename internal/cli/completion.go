package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/binvis/pkg/brightness"
	"github.com/matzehuels/binvis/pkg/ngram"
	"github.com/matzehuels/binvis/pkg/render"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for binvis.

To load completions:

Bash:
  $ source <(binvis completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ binvis completion bash > /etc/bash_completion.d/binvis
  # macOS:
  $ binvis completion bash > $(brew --prefix)/etc/bash_completion.d/binvis

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ binvis completion zsh > "${fpath[1]}/_binvis"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ binvis completion fish | source

  # To load completions for each session, execute once:
  $ binvis completion fish > ~/.config/fish/completions/binvis.fish

PowerShell:
  PS> binvis completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> binvis completion powershell > binvis.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// registerRenderCompletions completes the values of the render flags that
// take a fixed set of names.
func registerRenderCompletions(cmd *cobra.Command) {
	formats := make([]string, 0, len(render.Formats()))
	for _, f := range render.Formats() {
		formats = append(formats, string(f))
	}
	dims := []string{
		strconv.Itoa(int(ngram.Dims2)) + "\tbyte pairs",
		strconv.Itoa(int(ngram.Dims3)) + "\tbyte triples",
	}

	fixed := map[string][]string{
		"format":    formats,
		"transform": brightness.Names(),
		"palette":   render.PaletteNames(),
		"dims":      dims,
	}
	for flag, values := range fixed {
		_ = cmd.RegisterFlagCompletionFunc(flag, cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp))
	}
}
