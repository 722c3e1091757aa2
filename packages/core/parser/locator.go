package parser

import (
	"fmt"
	"regexp"
	"strings"
)

const templateKeyword = "TEMPLATE "

var heredocMarker = regexp.MustCompile(`^(.*?)\s+<<\s+(\w+)\s*$`)

type heredocSpan struct {
	start       int
	end         int
	requestLine string
	body        string
}

type heredocState int

const (
	seekOpener heredocState = iota
	inHeredoc
	inTemplate
)

// findHeredocs records every "... << TOKEN" span closed by a line equal to
// TOKEN. TEMPLATE blocks are skipped over so their bodies never open a span.
func findHeredocs(lines []string) []heredocSpan {
	var (
		spans []heredocSpan
		cur   heredocSpan
		token string
		body  []string
		state = seekOpener
	)

	for i, line := range lines {
		switch state {
		case seekOpener:
			m := heredocMarker.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			token = m[2]
			if strings.HasPrefix(line, templateKeyword) {
				state = inTemplate
				continue
			}
			cur = heredocSpan{start: i, requestLine: m[1]}
			body = body[:0]
			state = inHeredoc
		case inHeredoc:
			if strings.TrimSpace(line) != token {
				body = append(body, line)
				continue
			}
			cur.end = i
			cur.body = strings.Join(body, "\n")
			spans = append(spans, cur)
			state = seekOpener
		case inTemplate:
			if strings.Contains(line, token) {
				state = seekOpener
			}
		}
	}

	return spans
}

func isBoundary(line string) bool {
	return strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#")
}

// Locate returns the request block that contains cursor. The result is the
// same for any cursor position inside a block.
func Locate(lines []string, cursor int) (*Block, error) {
	if cursor < 0 || cursor >= len(lines) {
		return nil, fmt.Errorf("cursor line %d is outside the document (%d lines)", cursor, len(lines))
	}

	for _, span := range findHeredocs(lines) {
		if span.start <= cursor && cursor <= span.end {
			return &Block{
				RequestLine: span.requestLine,
				Body:        span.body,
				HasBody:     true,
				Start:       span.start,
				End:         span.end,
				Heredoc:     true,
			}, nil
		}
	}

	return locateParagraph(lines, cursor), nil
}

// locateParagraph walks up to the nearest boundary, then down collecting body
// lines until the first blank line.
func locateParagraph(lines []string, cursor int) *Block {
	start := cursor
	for start > 0 && !isBoundary(lines[start-1]) {
		start--
	}

	var body []string
	for _, line := range lines[start+1:] {
		if strings.TrimSpace(line) == "" {
			break
		}
		body = append(body, line)
	}

	return &Block{
		RequestLine: lines[start],
		Body:        strings.Join(body, "\n"),
		HasBody:     len(body) > 0,
		Start:       start,
		End:         start + len(body),
	}
}
