package parser

import (
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/hitblock/packages/core/headers"
)

// DefaultUserAgent seeds every scanned HeaderSet.
const DefaultUserAgent = "hitblock"

var headerName = regexp.MustCompile(`^\+?[-\w]+$`)

type scanState int

const (
	scanLine scanState = iota
	inTemplateBlock
)

// templateBlock tracks the TEMPLATE block being collected.
type templateBlock struct {
	name  string
	token string
	here  bool
	lines []string
}

// ScanPreamble walks lines in order collecting header declarations and
// TEMPLATE blocks. base seeds the HeaderSet; when nil a set holding only
// the default User-Agent is used. base is never modified.
func ScanPreamble(lines []string, base *headers.HeaderSet) *Preamble {
	h := base.Clone()
	if base == nil {
		h.Set("User-Agent", DefaultUserAgent)
	}

	p := &Preamble{
		Headers:   h,
		Templates: make(map[string]string),
	}

	state := scanLine
	var tpl templateBlock

	finish := func() {
		p.Templates[tpl.name] = strings.Join(tpl.lines, "\n")
		state = scanLine
	}

	for _, line := range lines {
		switch state {
		case scanLine:
			if strings.HasPrefix(line, templateKeyword) {
				tpl = openTemplate(line)
				state = inTemplateBlock
				continue
			}
			declareHeader(h, line)
		case inTemplateBlock:
			if tpl.here {
				pos := strings.Index(line, tpl.token)
				if pos == 0 {
					finish()
					continue
				}
				if pos > 0 {
					tpl.lines = append(tpl.lines, line[:pos])
					finish()
					continue
				}
			} else if strings.TrimSpace(line) == "" {
				finish()
				continue
			}
			tpl.lines = append(tpl.lines, line)
		}
	}

	if state == inTemplateBlock {
		finish()
	}

	return p
}

func openTemplate(line string) templateBlock {
	rest := strings.TrimSpace(line[len(templateKeyword):])
	name, token, here := strings.Cut(rest, "<<")
	return templateBlock{
		name:  strings.TrimSpace(name),
		token: strings.TrimSpace(token),
		here:  here,
	}
}

// declareHeader applies a "[+]Name: Value" line. Anything else is a comment.
func declareHeader(h *headers.HeaderSet, line string) {
	name, value, ok := strings.Cut(line, ":")
	if !ok || !headerName.MatchString(name) {
		return
	}
	value = strings.TrimSpace(value)
	if strings.HasPrefix(name, "+") {
		h.Add(name[1:], value)
		return
	}
	h.Set(name, value)
}
