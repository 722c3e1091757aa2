// Package runner executes the request block under a cursor.
//
// One Run locates, compiles and executes the block, then renders the
// templates it names against the response. The outcome is returned as a
// RunResult that the caller owns; nothing is kept between runs.
//
// Template failures never fail a run. Each one becomes an "ERROR: ..."
// insertion and is collected in RunResult.TemplateErrors.
package runner
