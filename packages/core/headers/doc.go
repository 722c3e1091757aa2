// Package headers provides the ordered, case-insensitive header list shared by
// the scanner, the compiler, the executor and the template renderer.
//
// A HeaderSet keeps declaration order and supports two write modes:
//   - Set: removes every entry with the same name (case-insensitive) and appends
//   - Add: appends without removing, so duplicates may coexist
package headers
