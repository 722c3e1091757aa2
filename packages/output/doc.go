// Package output renders run results.
//
// Supported output formats:
//   - Console: the status line, response headers, formatted body and
//     rendered templates, colored for a terminal
//   - JSON: one machine-readable object per run
package output
