package parser

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/hitblock/packages/core/headers"
)

// Usage is the request grammar reported with grammar errors.
const Usage = "METHOD uri [qs_param=value] [form_param:=value] [file_param@=value] " +
	"[Header:value] [< /filename-with-body] [| tpl1,tpl2] [<< HEREDOC]"

// Block is the request block located around a cursor.
type Block struct {
	// RequestLine is the verb/url/assignment line, without any heredoc marker.
	RequestLine string
	// Body is the inline or heredoc body; HasBody is false when there is none.
	Body    string
	HasBody bool
	// Start is the index of the request line, End the index of the block's last line.
	Start int
	End   int
	// Heredoc is set when the body came from a << TOKEN span.
	Heredoc bool
}

// Assignment is a name/value pair taken from the request line.
type Assignment struct {
	Name  string
	Value string
}

// RequestLine is the structured form of a request line. Headers keep line
// order so a later name wins over an earlier one.
type RequestLine struct {
	Method    string
	URL       string
	Query     []Assignment
	Headers   []Assignment
	Form      []Assignment
	Files     []Assignment
	BodyFile  string
	Templates []string
}

// HasBodyFile reports whether a "< path" directive was given.
func (r *RequestLine) HasBodyFile() bool {
	return r.BodyFile != ""
}

// Preamble is what the scanner collects from the lines before a block.
type Preamble struct {
	Headers   *headers.HeaderSet
	Templates map[string]string
}

// GrammarError is returned when a request line cannot be tokenized into at
// least a method and a url.
type GrammarError struct {
	Line    int
	Text    string
	Message string
}

func (e *GrammarError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "Invalid format: " + Usage
	}
	if strings.TrimSpace(e.Text) == "" {
		return fmt.Sprintf("line %d: %s", e.Line+1, msg)
	}
	return fmt.Sprintf("line %d: %s (got %s)", e.Line+1, msg, strings.TrimSpace(e.Text))
}

