package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/hitblock/packages/core/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new hitblock project",
	Long: `Initialize a new hitblock project in the current directory.

This creates:
  - .hitblock.yaml - Configuration file
  - example.http   - Example request document

Examples:
  hitblock init
  hitblock init --force`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

const exampleDocument = `# Headers apply to every request below them.
Accept: application/json

TEMPLATE summary
url=${json["url"]} via ${headers["Content-Type"]}

# Run with: hitblock run example.http --line 8
GET https://httpbin.org/get page=1 X-Trace:demo | summary

# A heredoc body keeps blank lines.
POST https://httpbin.org/post << BODY
{
  "name": "hitblock"
}
BODY

# Form fields and an upload become multipart/form-data.
POST https://httpbin.org/post title:=notes file@=example.http
`

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, ".hitblock.yaml")
	exampleFile := filepath.Join(cwd, "example.http")

	if !forceInit {
		for _, f := range []string{configFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return fmt.Errorf("file already exists: %s (use --force to overwrite)", f)
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.FollowRedirects = config.BoolPtr(true)
	cfg.Headers = map[string]string{
		"Accept-Language": "en",
	}

	configYAML, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(configFile, configYAML, 0644); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.WriteFile(exampleFile, []byte(exampleDocument), 0644); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nhitblock project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'hitblock run example.http --line 8' to execute the first request.\n")

	return nil
}
