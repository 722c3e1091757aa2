package cmd

import (
	"fmt"
	"os"

	"github.com/abdul-hamid-achik/hitblock/packages/builtin"
	"github.com/abdul-hamid-achik/hitblock/packages/core/env"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Generate authentication header lines",
}

var authBasicCmd = &cobra.Command{
	Use:   "basic [user]",
	Short: "Print an Authorization: Basic header line",
	Long: `Print an "Authorization: Basic ..." header line ready to paste above a
request. The user is asked for when not given; the password is always read
without echo.

Examples:
  hitblock auth basic admin >> api.http`,
	Args: cobra.MaximumNArgs(1),
	RunE: authBasicCommand,
}

func init() {
	authCmd.AddCommand(authBasicCmd)
}

func authBasicCommand(cmd *cobra.Command, args []string) error {
	prompter := env.NewPrompter(nil, os.Stdin, cmd.ErrOrStderr())

	var user string
	if len(args) > 0 {
		user = args[0]
	} else {
		user = prompter.Value("Username")
	}
	if user == "" {
		return usageError(fmt.Errorf("a user name is required"))
	}

	password := prompter.Secret("Password")
	fmt.Fprintln(cmd.OutOrStdout(), builtin.BasicAuth(user, password))
	return nil
}
