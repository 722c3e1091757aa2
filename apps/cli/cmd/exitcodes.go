package cmd

import (
	"errors"
	"io/fs"

	"github.com/abdul-hamid-achik/hitblock/packages/core/compiler"
	"github.com/abdul-hamid-achik/hitblock/packages/core/parser"
	"github.com/abdul-hamid-achik/hitblock/packages/http"
)

// Exit codes for hitblock CLI
const (
	// ExitSuccess indicates the request ran
	ExitSuccess = 0

	// ExitFailure covers anything without a more specific code
	ExitFailure = 1

	// ExitParseError indicates a malformed request block or an unreadable file
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// cliError pins an exit code on err. reported is set once the error has
// already been shown to the user.
type cliError struct {
	code     int
	err      error
	reported bool
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

func configError(err error) error {
	return &cliError{code: ExitConfigError, err: err}
}

func usageError(err error) error {
	return &cliError{code: ExitUsageError, err: err}
}

// reported marks err as already printed, keeping its exit code.
func reported(err error) error {
	return &cliError{code: exitCode(err), err: err, reported: true}
}

func isReported(err error) bool {
	var ce *cliError
	return errors.As(err, &ce) && ce.reported
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ce *cliError
	if errors.As(err, &ce) && ce.code != ExitFailure {
		return ce.code
	}

	var (
		grammarErr   *parser.GrammarError
		fileErr      *compiler.FileError
		controlErr   *http.ControlHeaderError
		transportErr *http.TransportError
		pathErr      *fs.PathError
	)
	switch {
	case errors.As(err, &grammarErr), errors.As(err, &fileErr), errors.As(err, &controlErr):
		return ExitParseError
	case errors.As(err, &transportErr):
		return ExitNetworkError
	case errors.As(err, &pathErr):
		return ExitParseError
	}
	return ExitFailure
}
