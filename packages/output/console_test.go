package output

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/hitblock/packages/core/compiler"
	"github.com/abdul-hamid-achik/hitblock/packages/core/headers"
	"github.com/abdul-hamid-achik/hitblock/packages/core/parser"
	"github.com/abdul-hamid-achik/hitblock/packages/core/runner"
	"github.com/abdul-hamid-achik/hitblock/packages/http"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
)

func sampleResult() *runner.RunResult {
	respHeaders := headers.New(
		headers.Entry{Name: "Content-Type", Value: "application/json"},
		headers.Entry{Name: "Set-Cookie", Value: "sid=abc"},
	)
	jar := http.NewCookieJar()
	jar.Load(respHeaders)

	redirect := &http.Response{
		Method:     "GET",
		URL:        "http://api.test/old",
		StatusCode: 302,
		Reason:     "Found",
		Headers:    headers.New(headers.Entry{Name: "Location", Value: "/new"}),
	}

	return &runner.RunResult{
		File:  "api.http",
		Block: &parser.Block{RequestLine: "GET http://api.test/old", Start: 2, End: 2},
		Request: &compiler.CompiledRequest{
			Method:  "GET",
			URL:     "http://api.test/old",
			Headers: headers.New(headers.Entry{Name: "User-Agent", Value: "hitblock"}),
		},
		Result: &http.Result{
			Response: &http.Response{
				Method:     "GET",
				URL:        "http://api.test/new",
				StatusCode: 200,
				Reason:     "OK",
				Headers:    respHeaders,
				Body:       []byte(`{"id":1}`),
				Raw:        []byte("GET /new HTTP/1.1\r\nHost: api.test\r\n\r\n"),
				Timings: http.Timings{
					Connect: 3 * time.Millisecond,
					Headers: 12 * time.Millisecond,
					Total:   15 * time.Millisecond,
				},
			},
			History: []*http.Response{redirect},
			Cookies: jar,
		},
		Insertions: []runner.Insertion{
			{After: 4, Template: "out", Lines: []string{"id=1"}},
		},
		Duration: 20 * time.Millisecond,
	}
}

func TestStatusLine(t *testing.T) {
	res := sampleResult()
	assert.Equal(t, "Response: 200 OK 3ms 12ms 8b", StatusLine(res.Result.Response))
}

func TestConsoleFormatResult(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	f.FormatResult(sampleResult())

	out := buf.String()
	assert.Contains(t, out, "Response: 200 OK 3ms 12ms 8b\n")
	assert.Contains(t, out, "Content-Type: application/json\nSet-Cookie: sid=abc\n")
	assert.Contains(t, out, "{\n  \"id\": 1\n}\n")
	assert.Contains(t, out, "Template out (after line 5)\nid=1\n")
	assert.NotContains(t, out, "Request:")
	assert.NotContains(t, out, "Redirect:")
}

func TestConsoleFormatResultVerbose(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))

	f.FormatResult(sampleResult())

	out := buf.String()
	assert.Contains(t, out, "Request:\n  GET /new HTTP/1.1\n  Host: api.test\n")
	assert.Contains(t, out, "Redirect: 302 http://api.test/old -> /new\n")
	assert.Contains(t, out, "Time:  20ms\n")
}

func TestConsoleFormatTemplateErrors(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	res := sampleResult()
	var errs *multierror.Error
	errs = multierror.Append(errs, errors.New("template a not found"), errors.New("template b: boom"))
	res.TemplateErrors = errs.ErrorOrNil()

	f.FormatResult(res)

	out := buf.String()
	assert.Contains(t, out, "! template a not found\n")
	assert.Contains(t, out, "! template b: boom\n")
}

func TestConsoleFormatError(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	f.FormatError(errors.New("connection refused"))
	f.FormatHeader("1.0.0")

	assert.Equal(t, "Error: connection refused\nhitblock 1.0.0\n", buf.String())
}
