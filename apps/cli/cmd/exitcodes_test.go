package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"testing"

	"github.com/abdul-hamid-achik/hitblock/packages/core/compiler"
	"github.com/abdul-hamid-achik/hitblock/packages/core/parser"
	"github.com/abdul-hamid-achik/hitblock/packages/http"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	transportErr := &http.TransportError{Op: "GET", URL: "http://localhost:1/", Err: errors.New("connection refused")}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", errors.New("boom"), ExitFailure},
		{"grammar", &parser.GrammarError{Line: 3, Text: "GET"}, ExitParseError},
		{"body file", &compiler.FileError{Path: "body.json", Err: os.ErrNotExist}, ExitParseError},
		{"control header", &http.ControlHeaderError{Header: "Hitblock-Timeout", Value: "x", Err: errors.New("bad")}, ExitParseError},
		{"missing document", fmt.Errorf("reading document: %w", &fs.PathError{Op: "open", Path: "a.http", Err: fs.ErrNotExist}), ExitParseError},
		{"transport", fmt.Errorf("run: %w", transportErr), ExitNetworkError},
		{"config", configError(errors.New("bad timeout")), ExitConfigError},
		{"usage", usageError(errors.New("bad flags")), ExitUsageError},
		{"reported keeps code", reported(transportErr), ExitNetworkError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestReported(t *testing.T) {
	err := errors.New("shown")
	assert.False(t, isReported(err))
	assert.True(t, isReported(reported(err)))
	assert.Equal(t, "shown", reported(err).Error())
	assert.True(t, errors.Is(reported(err), err))
}
