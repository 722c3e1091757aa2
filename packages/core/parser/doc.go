// Package parser turns the text around a cursor into a structured request.
//
// It is made of three small scanners:
//   - Locate finds the request block (request line plus inline or heredoc body)
//   - ScanPreamble collects header declarations and TEMPLATE blocks above it
//   - ParseRequestLine splits "METHOD url name=value ... [< file] [| tpl]"
//
// Blocks enumerates every request block of a document for listing and
// validation.
package parser
