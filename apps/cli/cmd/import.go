package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/hitblock/packages/import/curl"
	"github.com/spf13/cobra"
)

var (
	importOutputFlag  string
	importFileFlag    string
	importNoNamesFlag bool
)

var importCmd = &cobra.Command{
	Use:   "import <format>",
	Short: "Convert requests from other tools into request blocks",
	Long: `Convert requests from other tools into hitblock request blocks.

Supported formats:
  curl - curl command lines`,
}

var importCurlCmd = &cobra.Command{
	Use:   "curl [command]",
	Short: "Convert curl commands",
	Long: `Convert a curl command, or a file of them, into request blocks.

Headers become request-line assignments, -d bodies become heredocs, -F fields
become multipart assignments, and -L, -m, --connect-timeout, --cert, --key
and --connect-to become control headers.

Examples:
  hitblock import curl 'curl -H "Accept: application/json" https://api.example.com/users'
  hitblock import curl -f commands.sh -o api.http
  pbpaste | hitblock import curl`,
	RunE: importCurlCommand,
}

func init() {
	importCurlCmd.Flags().StringVarP(&importFileFlag, "file", "f", "", "Read curl commands from a file")
	importCurlCmd.Flags().StringVarP(&importOutputFlag, "output", "o", "", "Append the blocks to a file instead of printing them")
	importCurlCmd.Flags().BoolVar(&importNoNamesFlag, "no-names", false, "Omit the name comment above each block")

	importCmd.AddCommand(importCurlCmd)
	rootCmd.AddCommand(importCmd)
}

func importCurlCommand(cmd *cobra.Command, args []string) error {
	converter := curl.NewConverter(curl.WithNames(!importNoNamesFlag))

	var (
		converted string
		err       error
	)
	switch {
	case importFileFlag != "":
		converted, err = converter.ConvertFile(importFileFlag)
	case len(args) > 0:
		converted, err = converter.ConvertCommand(strings.Join(args, " "))
	default:
		data, readErr := io.ReadAll(cmd.InOrStdin())
		if readErr != nil {
			return readErr
		}
		converted, err = converter.ConvertCommand(string(data))
	}
	if err != nil {
		return usageError(err)
	}

	if importOutputFlag == "" {
		fmt.Fprint(cmd.OutOrStdout(), converted)
		return nil
	}

	f, err := os.OpenFile(importOutputFlag, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("cannot open output file: %w", err)
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Size() > 0 {
		converted = "\n" + converted
	}
	if _, err := f.WriteString(converted); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Appended to %s\n", importOutputFlag)
	return nil
}
