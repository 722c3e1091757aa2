package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/hitblock/packages/core/config"
	"github.com/abdul-hamid-achik/hitblock/packages/core/env"
	"github.com/abdul-hamid-achik/hitblock/packages/core/runner"
	"github.com/abdul-hamid-achik/hitblock/packages/history"
	"github.com/abdul-hamid-achik/hitblock/packages/output"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Execute the request block at a line",
	Long: `Execute the request block found at --line of a document.

Headers and TEMPLATE blocks declared above the request apply to it. Rendered
templates are printed, and written back below the block with --write.

Examples:
  hitblock run api.http --line 12
  hitblock run api.http -l 12 --write
  hitblock run api.http -l 12 -o json --pretty
  hitblock run api.http -l 12 --watch`,
	Args: cobra.ExactArgs(1),
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	lineFlag            int
	writeFlag           bool
	watchFlag           bool
	outputFlag          string
	prettyFlag          bool
	noColorFlag         bool
	verboseFlag         bool
	configFlag          string
	envFileFlag         string
	connectTimeoutFlag  string
	timeoutFlag         string
	followRedirectsFlag bool
	noHistoryFlag       bool
	historyFileFlag     string
)

func init() {
	runCmd.Flags().IntVarP(&lineFlag, "line", "l", 1, "One-based line inside the request block")
	runCmd.Flags().BoolVar(&writeFlag, "write", false, "Insert rendered templates into the file")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch the file for changes and re-run the request")

	// Output flags
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("HITBLOCK_OUTPUT", ""), "Output format: console, json (env: HITBLOCK_OUTPUT)")
	runCmd.Flags().BoolVar(&prettyFlag, "pretty", getEnvBool("HITBLOCK_PRETTY", false), "Indent JSON output (env: HITBLOCK_PRETTY)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("HITBLOCK_NO_COLOR", false), "Disable colored output (env: HITBLOCK_NO_COLOR)")
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", getEnvBool("HITBLOCK_VERBOSE", false), "Show the raw request, redirects and per-hop timings (env: HITBLOCK_VERBOSE)")

	// Configuration flags
	runCmd.Flags().StringVar(&configFlag, "config", getEnvString("HITBLOCK_CONFIG", ""), "Path to config file (env: HITBLOCK_CONFIG)")
	runCmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("HITBLOCK_ENV_FILE", ""), "Path to .env file answering __input__ and __pwd__ prompts (env: HITBLOCK_ENV_FILE)")

	// Network flags
	runCmd.Flags().StringVar(&connectTimeoutFlag, "connect-timeout", getEnvString("HITBLOCK_CONNECT_TIMEOUT", ""), "Connect timeout (e.g., 5s) (env: HITBLOCK_CONNECT_TIMEOUT)")
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("HITBLOCK_TIMEOUT", ""), "Read timeout (e.g., 30s, 1m) (env: HITBLOCK_TIMEOUT)")
	runCmd.Flags().BoolVar(&followRedirectsFlag, "follow-redirects", getEnvBool("HITBLOCK_FOLLOW_REDIRECTS", false), "Follow 301/302/303 redirects (env: HITBLOCK_FOLLOW_REDIRECTS)")

	// History flags
	runCmd.Flags().BoolVar(&noHistoryFlag, "no-history", getEnvBool("HITBLOCK_NO_HISTORY", false), "Do not record the execution (env: HITBLOCK_NO_HISTORY)")
	runCmd.Flags().StringVar(&historyFileFlag, "history-file", getEnvString("HITBLOCK_HISTORY_FILE", ""), "History database path (env: HITBLOCK_HISTORY_FILE)")
}

// Formatter interface for all output formatters
type Formatter interface {
	FormatResult(result *runner.RunResult)
	FormatError(err error)
	FormatHeader(version string)
}

func runCommand(cmd *cobra.Command, args []string) error {
	file := args[0]

	if writeFlag && watchFlag {
		return usageError(fmt.Errorf("--write and --watch cannot be combined"))
	}

	cfg, err := resolveConfig(cmd, filepath.Dir(file))
	if err != nil {
		return configError(err)
	}

	formatter, err := newFormatter(cmd, cfg)
	if err != nil {
		return usageError(err)
	}

	vars, err := loadVars(filepath.Dir(file))
	if err != nil {
		return configError(err)
	}
	prompter := env.NewPrompter(vars, os.Stdin, os.Stderr)

	r := runner.NewRunner(&runner.Config{
		UserAgent:       cfg.UserAgent,
		Headers:         cfg.Headers,
		ConnectTimeout:  cfg.ConnectTimeoutDuration(),
		ReadTimeout:     cfg.ReadTimeoutDuration(),
		FollowRedirects: cfg.GetFollowRedirects(),
		Prompts:         prompter.Prompts(),
		Verbose:         cfg.GetVerbose(),
		Logger:          log.New(os.Stderr, "", 0),
	})

	var store *history.Store
	if !cfg.GetNoHistory() {
		store, err = openHistory(cfg.HistoryFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: history disabled: %v\n", err)
		} else {
			defer store.Close()
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	execute := func() error {
		result, doc, err := r.RunFile(ctx, file, lineFlag)
		recordRun(ctx, store, file, lineFlag, result, err)
		if err != nil {
			formatter.FormatError(err)
			return reported(err)
		}

		formatter.FormatResult(result)

		if writeFlag && len(result.Insertions) > 0 {
			if err := doc.Save(result.Apply(doc.Lines)); err != nil {
				formatter.FormatError(err)
				return reported(err)
			}
		}
		return nil
	}

	err = execute()
	if !watchFlag {
		return err
	}

	return watch(ctx, cmd, file, formatter, func() {
		_ = execute()
	})
}

// resolveConfig layers the config file, then flags the user set.
func resolveConfig(cmd *cobra.Command, dir string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFlag != "" {
		cfg, err = config.LoadConfig(configFlag)
	} else {
		cfg, err = config.FindAndLoadConfig(dir)
	}
	if err != nil {
		return nil, err
	}

	flags := &config.Config{
		Output:      outputFlag,
		HistoryFile: historyFileFlag,
	}
	if connectTimeoutFlag != "" {
		d, err := time.ParseDuration(connectTimeoutFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid connect timeout value %q: %w (use format like 5s, 500ms)", connectTimeoutFlag, err)
		}
		flags.ConnectTimeout = int(d.Milliseconds())
	}
	if timeoutFlag != "" {
		d, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutFlag, err)
		}
		flags.ReadTimeout = int(d.Milliseconds())
	}
	if flagSet(cmd, "follow-redirects", "HITBLOCK_FOLLOW_REDIRECTS") {
		flags.FollowRedirects = config.BoolPtr(followRedirectsFlag)
	}
	if flagSet(cmd, "pretty", "HITBLOCK_PRETTY") {
		flags.Pretty = config.BoolPtr(prettyFlag)
	}
	if flagSet(cmd, "no-history", "HITBLOCK_NO_HISTORY") {
		flags.NoHistory = config.BoolPtr(noHistoryFlag)
	}
	if flagSet(cmd, "verbose", "HITBLOCK_VERBOSE") {
		flags.Verbose = config.BoolPtr(verboseFlag)
	}
	if flagSet(cmd, "no-color", "HITBLOCK_NO_COLOR") {
		flags.NoColor = config.BoolPtr(noColorFlag)
	}

	cfg = cfg.Merge(flags)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// flagSet reports whether a boolean came from the command line or its
// environment variable rather than the built-in default.
func flagSet(cmd *cobra.Command, name, envKey string) bool {
	return cmd.Flags().Changed(name) || os.Getenv(envKey) != ""
}

func newFormatter(cmd *cobra.Command, cfg *config.Config) (Formatter, error) {
	switch strings.ToLower(cfg.Output) {
	case "json":
		return output.NewJSONFormatter(
			output.JSONWithWriter(cmd.OutOrStdout()),
			output.JSONWithPretty(cfg.GetPretty()),
		), nil
	case "", "console":
		return output.NewConsoleFormatter(
			output.WithWriter(cmd.OutOrStdout()),
			output.WithVerbose(cfg.GetVerbose()),
			output.WithNoColor(cfg.GetNoColor()),
		), nil
	}
	return nil, fmt.Errorf("unknown output format %q", cfg.Output)
}

// loadVars reads .env files next to the document, then --env-file.
func loadVars(dir string) (map[string]string, error) {
	vars, err := env.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	if envFileFlag == "" {
		return vars, nil
	}

	extra, err := env.LoadDotEnv(envFileFlag)
	if err != nil {
		return nil, err
	}
	for k, v := range extra {
		vars[k] = v
	}
	return vars, nil
}

func watch(ctx context.Context, cmd *cobra.Command, file string, formatter Formatter, rerun func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace files on save, so the directory is watched.
	abs, err := filepath.Abs(file)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "\nWatching %s for changes... (press Ctrl+C to stop)\n\n", file)

	// Debounce timer for rapid file changes
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				fmt.Fprintf(cmd.ErrOrStderr(), "\nFile changed: %s\n\n", file)
				rerun()
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			formatter.FormatError(fmt.Errorf("watcher error: %w", err))
		}
	}
}

func openHistory(path string) (*history.Store, error) {
	if path == "" {
		var err error
		path, err = history.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return history.Open(path)
}

// recordRun appends one execution to the history store. Failures only warn.
func recordRun(ctx context.Context, store *history.Store, file string, line int, result *runner.RunResult, runErr error) {
	if store == nil {
		return
	}

	entry := &history.Entry{
		File: file,
		Line: line,
	}
	if abs, err := filepath.Abs(file); err == nil {
		entry.File = abs
	}

	if result != nil {
		entry.Method = result.Request.Method
		entry.URL = result.Request.URL
		entry.Duration = result.Duration
		if res := result.Result; res != nil {
			entry.URL = res.URL
			entry.Status = res.StatusCode
			entry.Reason = res.Reason
			entry.Size = res.Size()
			entry.Attempts = res.Attempts()
		}
	}
	if runErr != nil {
		entry.Error = runErr.Error()
	}

	if err := store.Record(ctx, entry); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "warning: failed to record history: %v\n", err)
	}
}
