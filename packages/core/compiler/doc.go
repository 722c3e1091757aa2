// Package compiler merges the located block, the scanned preamble and the
// parsed request line into a CompiledRequest ready for the executor.
//
// Body precedence is: inline or heredoc body, then "< file", then a multipart
// body built from file and form assignments, then a urlencoded form body.
// Files are read eagerly; a read failure is a FileError and nothing is sent.
package compiler
