// Package builtin provides the whitelisted functions that templates may call.
//
// Available functions:
//   - uuid(): Generate a random UUID v4
//   - now(), timestamp(), timestampMs(): Current time
//   - randomAlphanumeric(length): Random alphanumeric string
//   - base64(value), base64Decode(value): Base64 encoding
//   - urlEncode(value), urlDecode(value): Query escaping
//   - md5(value), sha256(value): Hex digests
//   - lower(value), upper(value): Case conversion
//   - basic_auth(user, password): An "Authorization: Basic ..." header line
//
// Functions are invoked as ${name(args)} inside TEMPLATE blocks.
package builtin
