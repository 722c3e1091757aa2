package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/hitblock/packages/core/runner"
	"github.com/abdul-hamid-achik/hitblock/packages/http"
	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/tidwall/pretty"
)

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

// WithVerbose adds the raw request and the redirect chain.
func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// StatusLine summarizes a response: status, reason, connect and header
// times, and body size.
func StatusLine(resp *http.Response) string {
	return fmt.Sprintf("Response: %d %s %dms %dms %s",
		resp.StatusCode,
		resp.Reason,
		resp.Timings.Connect.Milliseconds(),
		resp.Timings.Headers.Milliseconds(),
		FormatSize(int64(resp.Size())),
	)
}

func (f *ConsoleFormatter) FormatResult(result *runner.RunResult) {
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	res := result.Result

	if f.verbose {
		fmt.Fprintf(f.writer, "%s\n", bold("Request:"))
		for _, line := range runner.SplitLines(strings.ReplaceAll(string(res.Raw), "\r\n", "\n")) {
			fmt.Fprintf(f.writer, "  %s\n", line)
		}
		fmt.Fprintf(f.writer, "\n")

		for _, hop := range res.History {
			location := hop.Header("Location")
			fmt.Fprintf(f.writer, "%s %d %s -> %s\n", faint("Redirect:"), hop.StatusCode, hop.URL, location)
		}
	}

	fmt.Fprintf(f.writer, "%s\n", statusColor(res.StatusCode).Sprint(StatusLine(res.Response)))
	for _, line := range res.Headers.Lines() {
		fmt.Fprintf(f.writer, "%s\n", line)
	}
	fmt.Fprintf(f.writer, "\n")

	body, kind := FormatBody(res.MediaType(), res.Body)
	if kind == KindJSON && !color.NoColor {
		body = string(pretty.Color([]byte(body), nil))
	}
	if body != "" {
		fmt.Fprintf(f.writer, "%s\n", body)
	}

	for _, ins := range result.Insertions {
		fmt.Fprintf(f.writer, "\n%s %s\n", cyan("Template "+ins.Template), faint(fmt.Sprintf("(after line %d)", ins.After+1)))
		for _, line := range ins.Lines {
			fmt.Fprintf(f.writer, "%s\n", line)
		}
	}

	if result.TemplateErrors != nil {
		fmt.Fprintf(f.writer, "\n")
		for _, err := range templateErrors(result.TemplateErrors) {
			fmt.Fprintf(f.writer, "%s %v\n", red("!"), err)
		}
	}

	if f.verbose {
		fmt.Fprintf(f.writer, "\nTime:  %dms\n", result.Duration.Milliseconds())
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("hitblock"), version)
}

func statusColor(status int) *color.Color {
	switch {
	case status >= 500:
		return color.New(color.FgRed, color.Bold)
	case status >= 400:
		return color.New(color.FgRed)
	case status >= 300:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

func templateErrors(err error) []error {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		return merr.Errors
	}
	return []error{err}
}
