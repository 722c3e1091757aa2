package parser

import (
	"regexp"
	"strings"
)

var methodToken = regexp.MustCompile(`^[A-Z]+$`)

// Blocks returns every request block of a document in order. Paragraphs made
// only of header declarations or comments, and TEMPLATE blocks, are skipped.
func Blocks(lines []string) []*Block {
	var blocks []*Block

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if isBoundary(line) {
			continue
		}
		if strings.HasPrefix(line, templateKeyword) {
			i = skipTemplate(lines, i)
			continue
		}

		block, err := Locate(lines, i)
		if err != nil {
			break
		}
		if looksLikeRequest(block.RequestLine) {
			blocks = append(blocks, block)
		}
		if block.End > i {
			i = block.End
		}
	}

	return blocks
}

func looksLikeRequest(line string) bool {
	fields := strings.Fields(line)
	return len(fields) > 0 && methodToken.MatchString(fields[0])
}

// skipTemplate returns the index of the last line of the TEMPLATE block
// opened at start.
func skipTemplate(lines []string, start int) int {
	tpl := openTemplate(lines[start])
	for i := start + 1; i < len(lines); i++ {
		if tpl.here {
			if strings.Contains(lines[i], tpl.token) {
				return i
			}
			continue
		}
		if strings.TrimSpace(lines[i]) == "" {
			return i
		}
	}
	return len(lines) - 1
}
