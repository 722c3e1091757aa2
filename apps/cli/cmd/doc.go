// Package cmd implements the hitblock CLI commands using Cobra.
//
// Available commands:
//   - run: Execute the request block at a line of a document
//   - list: Display the request blocks of documents
//   - validate: Check request lines and body files without executing
//   - history: Show or clear recorded executions
//   - auth: Print an Authorization header line
//   - init: Create a config file and an example document
//   - version: Show hitblock version information
//
// run can write rendered templates back into the document and watch it
// for changes.
package cmd
