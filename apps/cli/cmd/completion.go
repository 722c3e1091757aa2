package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for hitblock.

File arguments of run, list and validate complete to request documents
(.http, .rest, .hitblock); --output completes to console and json.

Bash:
  $ source <(hitblock completion bash)
  $ hitblock completion bash > /etc/bash_completion.d/hitblock

Zsh:
  $ hitblock completion zsh > "${fpath[1]}/_hitblock"

Fish:
  $ hitblock completion fish > ~/.config/fish/completions/hitblock.fish

PowerShell:
  PS> hitblock completion powershell | Out-String | Invoke-Expression
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

// completeDocuments limits file completion to request documents. run takes
// a single document; list and validate take any number.
func completeDocuments(single bool) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	exts := make([]string, len(DocumentExtensions))
	for i, ext := range DocumentExtensions {
		exts[i] = strings.TrimPrefix(ext, ".")
	}
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if single && len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return exts, cobra.ShellCompDirectiveFilterFileExt
	}
}

func completeOutputFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"console", "json"}, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	rootCmd.AddCommand(completionCmd)

	runCmd.ValidArgsFunction = completeDocuments(true)
	listCmd.ValidArgsFunction = completeDocuments(false)
	validateCmd.ValidArgsFunction = completeDocuments(false)
	_ = runCmd.RegisterFlagCompletionFunc("output", completeOutputFormats)
}
