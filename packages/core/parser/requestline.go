package parser

import (
	"regexp"
	"strings"

	"github.com/google/shlex"
)

const (
	// SecretSentinel asks the secret prompt for the parameter value.
	SecretSentinel = "__pwd__"
	// InputSentinel asks the value prompt for the parameter value.
	InputSentinel = "__input__"
)

var assignment = regexp.MustCompile(`^([-\w]+)(:=|@=|=|:)(.+)$`)

// PromptFunc returns a value for the named parameter.
type PromptFunc func(name string) string

// Prompts carries the optional secret and value callbacks.
type Prompts struct {
	Secret PromptFunc
	Value  PromptFunc
}

// ParseRequestLine splits a request line into method, url and assignments.
// A line with fewer than two whitespace separated tokens is a GrammarError.
func ParseRequestLine(line string, prompts Prompts) (*RequestLine, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil, &GrammarError{Text: line}
	}

	r := &RequestLine{
		Method: fields[0],
		URL:    fields[1],
	}

	tail := strings.TrimSpace(line)
	tail = strings.TrimSpace(strings.TrimPrefix(tail, fields[0]))
	tail = strings.TrimSpace(strings.TrimPrefix(tail, fields[1]))
	if tail == "" {
		return r, nil
	}

	parts, err := shlex.Split(tail)
	if err != nil {
		return nil, &GrammarError{Text: line, Message: "cannot tokenize request line: " + err.Error()}
	}

	for i, p := range parts {
		if p == "|" {
			r.Templates = splitTemplateNames(strings.Join(parts[i+1:], ""))
			parts = parts[:i]
			break
		}
	}

	if n := len(parts); n >= 2 && parts[n-2] == "<" {
		r.BodyFile = parts[n-1]
		parts = parts[:n-2]
	}

	for _, p := range parts {
		m := assignment.FindStringSubmatch(p)
		if m == nil {
			continue
		}
		name, op, value := m[1], m[2], m[3]
		value = prompts.resolve(name, value)

		switch op {
		case "=":
			r.Query = append(r.Query, Assignment{Name: name, Value: value})
		case ":":
			r.Headers = append(r.Headers, Assignment{Name: name, Value: value})
		case ":=":
			r.Form = append(r.Form, Assignment{Name: name, Value: value})
		case "@=":
			r.Files = append(r.Files, Assignment{Name: name, Value: value})
		}
	}

	return r, nil
}

func (p Prompts) resolve(name, value string) string {
	if value == SecretSentinel && p.Secret != nil {
		value = p.Secret(name)
	}
	if value == InputSentinel && p.Value != nil {
		value = p.Value(name)
	}
	return value
}

func splitTemplateNames(s string) []string {
	var names []string
	for _, n := range strings.Split(s, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}
