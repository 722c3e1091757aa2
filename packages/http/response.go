package http

import (
	"mime"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitblock/packages/core/headers"
)

// Timings are measured from the start of a hop.
type Timings struct {
	Connect time.Duration
	Headers time.Duration
	Total   time.Duration
}

// Response is one hop's response.
type Response struct {
	Method     string
	URL        string
	StatusCode int
	Reason     string
	Headers    *headers.HeaderSet
	Body       []byte
	// Raw is the request as written to the wire, capped at MaxCapture.
	Raw     []byte
	Timings Timings
}

// Result is the outcome of executing a compiled request: the final response,
// the intermediate redirect responses in order, and the cookie jar.
type Result struct {
	*Response
	History []*Response
	Cookies *CookieJar
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

func (r *Response) Header(key string) string {
	return r.Headers.Value(key)
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

// MediaType is the lowercased Content-Type without parameters. A missing or
// malformed header reads as text/plain.
func (r *Response) MediaType() string {
	mt, _, err := mime.ParseMediaType(r.ContentType())
	if err != nil || mt == "" {
		return "text/plain"
	}
	return mt
}

func (r *Response) IsJSON() bool {
	return strings.Contains(r.ContentType(), "json")
}

func (r *Response) Size() int {
	return len(r.Body)
}

// Attempts is the number of hops made, the final one included.
func (r *Result) Attempts() int {
	return len(r.History) + 1
}
