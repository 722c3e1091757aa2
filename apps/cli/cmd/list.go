package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/hitblock/packages/core/parser"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <file|directory>",
	Short: "List the request blocks of documents",
	Long: `List the request blocks in .http, .rest or .hitblock files with the line
each starts on, ready for run --line.

Examples:
  hitblock list api.http
  hitblock list ./requests/`,
	Args: cobra.MinimumNArgs(1),
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no .http, .rest or .hitblock files found")
	}

	for _, file := range files {
		lines, err := readLines(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error reading %s: %v\n", file, err)
			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n%s:\n", file)
		for _, block := range parser.Blocks(lines) {
			marker := ""
			if block.Heredoc {
				marker = " (heredoc)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %4d  %s%s\n", block.Start+1, block.RequestLine, marker)
		}
	}

	return nil
}
