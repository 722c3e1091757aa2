// Package multipart encodes multipart/form-data bodies deterministically:
// fields first, then files, with an explicit or random boundary and an exact
// Content-Length.
package multipart
