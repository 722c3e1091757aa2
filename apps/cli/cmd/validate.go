package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/abdul-hamid-achik/hitblock/packages/core/compiler"
	"github.com/abdul-hamid-achik/hitblock/packages/core/parser"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>",
	Short: "Compile every request block without executing it",
	Long: `Compile every request block of the given documents without sending
anything. Malformed request lines and unreadable body or upload files are
reported with their line. Prompts (__input__, __pwd__) are not asked.

Examples:
  hitblock validate api.http
  hitblock validate ./requests/`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no .http, .rest or .hitblock files found")
	}

	hasErrors := false
	for _, file := range files {
		problems, err := validateFile(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
			continue
		}
		if len(problems) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
			continue
		}
		hasErrors = true
		for _, p := range problems {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, p)
		}
	}

	if hasErrors {
		return reported(fmt.Errorf("validation failed"))
	}

	return nil
}

// validateFile compiles each block of file and returns one error per
// failing block.
func validateFile(file string) ([]error, error) {
	lines, err := readLines(file)
	if err != nil {
		return nil, err
	}

	var problems []error
	for _, block := range parser.Blocks(lines) {
		_, err := compiler.Compile(lines, block.Start, compiler.Options{
			BaseDir: filepath.Dir(file),
		})
		if err != nil {
			problems = append(problems, fmt.Errorf("line %d: %w", block.Start+1, err))
		}
	}
	return problems, nil
}
