// Package http executes compiled requests.
//
// It drives net/http's Transport one hop at a time instead of using
// http.Client so it can:
//   - Honor the Hitblock-* control headers (timeouts, client certificates,
//     connect-to override, redirect switch) and strip them before sending
//   - Capture the raw bytes written to the wire, capped per hop
//   - Keep response headers in wire order
//   - Follow 301/302/303 redirects up to a fixed number of attempts,
//     scrubbing headers when the redirect leaves the host
//   - Accumulate Set-Cookie values from every hop in a CookieJar
//
// Certificate verification is disabled on purpose: the client talks to
// development servers, often with self-signed certificates.
package http
