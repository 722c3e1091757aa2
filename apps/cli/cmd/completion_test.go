package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteDocuments(t *testing.T) {
	exts, directive := completeDocuments(true)(runCmd, nil, "")
	assert.Equal(t, []string{"http", "rest", "hitblock"}, exts)
	assert.Equal(t, cobra.ShellCompDirectiveFilterFileExt, directive)

	exts, directive = completeDocuments(true)(runCmd, []string{"api.http"}, "")
	assert.Empty(t, exts)
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)

	_, directive = completeDocuments(false)(listCmd, []string{"a.http"}, "")
	assert.Equal(t, cobra.ShellCompDirectiveFilterFileExt, directive)
}

func TestCompletionCommand(t *testing.T) {
	var buf bytes.Buffer
	completionCmd.SetOut(&buf)
	defer completionCmd.SetOut(nil)

	require.NoError(t, completionCmd.RunE(completionCmd, []string{"bash"}))
	assert.Contains(t, buf.String(), "hitblock")
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	defer versionCmd.SetOut(nil)

	version = "1.2.3"
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, buf.String(), "hitblock version 1.2.3\n")
	assert.Contains(t, buf.String(), "Go: ")

	buf.Reset()
	versionShort = true
	defer func() { versionShort = false }()
	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "1.2.3\n", buf.String())
}
