package compiler

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/hitblock/packages/core/headers"
	"github.com/abdul-hamid-achik/hitblock/packages/core/parser"
	"github.com/abdul-hamid-achik/hitblock/packages/multipart"
	"github.com/tidwall/gjson"
)

const (
	// sniffLimit bounds how far the JSON sniff looks for a leading { or [.
	sniffLimit = 1000

	contentTypeJSON      = "application/json"
	contentTypeForm      = "application/x-www-form-urlencoded"
	contentTypeMultipart = "multipart/form-data"
)

// CompiledRequest is immutable once Compile returns it.
type CompiledRequest struct {
	Method    string
	URL       string
	Query     []parser.Assignment
	Body      []byte
	HasBody   bool
	Headers   *headers.HeaderSet
	Templates []string
	// InsertAfter is the index of the line after which rendered templates go.
	InsertAfter int
}

// Compilation is the result of compiling the block under a cursor.
type Compilation struct {
	Request   *CompiledRequest
	Block     *parser.Block
	Templates map[string]string
}

type Options struct {
	Prompts parser.Prompts
	// Headers seeds the preamble scan. Nil means only the default User-Agent.
	Headers *headers.HeaderSet
	// BaseDir resolves relative body and upload paths.
	BaseDir string
	// Boundary fixes the multipart boundary; empty generates one.
	Boundary string
}

// FileError reports a body or upload file that could not be read.
type FileError struct {
	Path   string
	Upload bool
	Err    error
}

func (e *FileError) Error() string {
	if e.Upload {
		return fmt.Sprintf("error opening file param %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("can't open body file %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Compile locates the block under cursor, scans the lines above it and
// builds the request.
func Compile(lines []string, cursor int, opts Options) (*Compilation, error) {
	block, err := parser.Locate(lines, cursor)
	if err != nil {
		return nil, err
	}

	preamble := parser.ScanPreamble(lines[:block.Start], opts.Headers)

	req, err := CompileBlock(block, preamble, opts)
	if err != nil {
		return nil, err
	}

	return &Compilation{
		Request:   req,
		Block:     block,
		Templates: preamble.Templates,
	}, nil
}

// CompileBlock builds a request from an already located block and preamble.
// The preamble's HeaderSet is not modified.
func CompileBlock(block *parser.Block, preamble *parser.Preamble, opts Options) (*CompiledRequest, error) {
	line, err := parser.ParseRequestLine(block.RequestLine, opts.Prompts)
	if err != nil {
		if gerr, ok := err.(*parser.GrammarError); ok {
			gerr.Line = block.Start
		}
		return nil, err
	}

	h := preamble.Headers.Clone()
	for _, a := range line.Headers {
		h.Set(a.Name, a.Value)
	}

	body, hasBody := []byte(block.Body), block.HasBody

	if !hasBody && line.HasBodyFile() {
		data, err := os.ReadFile(resolvePath(opts.BaseDir, line.BodyFile))
		if err != nil {
			return nil, &FileError{Path: line.BodyFile, Err: err}
		}
		body, hasBody = data, true
	}

	if hasBody && len(body) > 0 && !h.Has("Content-Type") && looksLikeJSON(body) {
		h.Set("Content-Type", contentTypeJSON)
	}

	if !hasBody && (len(line.Files) > 0 || h.Value("Content-Type") == contentTypeMultipart) {
		files := make([]multipart.File, 0, len(line.Files))
		for _, f := range line.Files {
			content, err := os.ReadFile(resolvePath(opts.BaseDir, f.Value))
			if err != nil {
				return nil, &FileError{Path: f.Value, Upload: true, Err: err}
			}
			files = append(files, multipart.File{
				Name:     f.Name,
				Filename: filepath.Base(f.Value),
				Content:  content,
			})
		}

		fields := make([]multipart.Field, 0, len(line.Form))
		for _, f := range line.Form {
			fields = append(fields, multipart.Field{Name: f.Name, Value: f.Value})
		}

		encoded, mh := multipart.Encode(fields, files, opts.Boundary)
		for _, e := range mh.Entries() {
			h.Set(e.Name, e.Value)
		}
		body, hasBody = encoded, true
	}

	if !hasBody && len(line.Form) > 0 {
		body, hasBody = []byte(EncodeAssignments(line.Form)), true
		h.Set("Content-Type", contentTypeForm)
	}

	if !hasBody {
		body = nil
	}

	return &CompiledRequest{
		Method:      line.Method,
		URL:         line.URL,
		Query:       line.Query,
		Body:        body,
		HasBody:     hasBody,
		Headers:     h,
		Templates:   line.Templates,
		InsertAfter: block.End,
	}, nil
}

// looksLikeJSON reports whether body starts with { or [ within the sniff
// window and parses as JSON.
func looksLikeJSON(body []byte) bool {
	head := body
	if len(head) > sniffLimit {
		head = head[:sniffLimit]
	}
	head = bytes.TrimLeft(head, " \t\r\n\f\v")
	if len(head) == 0 || (head[0] != '{' && head[0] != '[') {
		return false
	}
	return gjson.ValidBytes(body)
}

// EncodeAssignments urlencodes pairs keeping their order.
func EncodeAssignments(pairs []parser.Assignment) string {
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

func resolvePath(baseDir, path string) string {
	if baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
