package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/hitblock/packages/history"
	"github.com/abdul-hamid-achik/hitblock/packages/output"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	historyLimitFlag int
	historyClearFlag bool
	historyPathFlag  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded executions",
	Long: `Show the most recent executions recorded by run, newest first.

Examples:
  hitblock history
  hitblock history -n 50
  hitblock history --clear`,
	Args: cobra.NoArgs,
	RunE: historyCommand,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "n", getEnvInt("HITBLOCK_HISTORY_LIMIT", 20), "Number of entries to show (env: HITBLOCK_HISTORY_LIMIT)")
	historyCmd.Flags().BoolVar(&historyClearFlag, "clear", false, "Delete every recorded execution")
	historyCmd.Flags().StringVar(&historyPathFlag, "history-file", getEnvString("HITBLOCK_HISTORY_FILE", ""), "History database path (env: HITBLOCK_HISTORY_FILE)")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	store, err := openHistory(historyPathFlag)
	if err != nil {
		return err
	}
	defer store.Close()

	if historyClearFlag {
		if err := store.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
		return nil
	}

	entries, err := store.Recent(cmd.Context(), historyLimitFlag)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No executions recorded")
		return nil
	}

	for _, e := range entries {
		fmt.Fprintln(cmd.OutOrStdout(), formatEntry(e))
	}
	return nil
}

func formatEntry(e history.Entry) string {
	faint := color.New(color.Faint).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	when := e.RanAt.Local().Format("2006-01-02 15:04:05")
	where := fmt.Sprintf("%s:%d", e.File, e.Line)

	if e.Error != "" {
		return fmt.Sprintf("%s  %s  %s %s", faint(when), where, red("error:"), e.Error)
	}

	line := fmt.Sprintf("%s  %s  %s %s -> %d %s %dms %s",
		faint(when), where, e.Method, e.URL, e.Status, e.Reason,
		e.Duration.Milliseconds(), output.FormatSize(int64(e.Size)))
	if e.Attempts > 1 {
		line += fmt.Sprintf(" (%d attempts)", e.Attempts)
	}
	return line
}
