package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Document is a text buffer with a zero-based cursor line.
type Document struct {
	// Path locates relative body and upload files. It may be empty.
	Path   string
	Lines  []string
	Cursor int
}

// LoadDocument reads path and places the cursor on line, which is
// one-based like an editor's line number.
func LoadDocument(path string, line int) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	lines := SplitLines(string(data))
	if line < 1 || line > len(lines) {
		return nil, fmt.Errorf("line %d is outside %s (%d lines)", line, path, len(lines))
	}

	return &Document{Path: path, Lines: lines, Cursor: line - 1}, nil
}

// BaseDir is the directory relative file references resolve against.
func (d *Document) BaseDir() string {
	if d.Path == "" {
		return ""
	}
	return filepath.Dir(d.Path)
}

// Save writes lines back to the document's path.
func (d *Document) Save(lines []string) error {
	if d.Path == "" {
		return fmt.Errorf("document has no path")
	}
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(d.Path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}

// SplitLines splits text into lines. A trailing newline does not produce a
// final empty line and CRLF endings are accepted.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{}
	}
	return strings.Split(text, "\n")
}
