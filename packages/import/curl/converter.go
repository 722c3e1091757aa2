// Package curl converts curl commands into hitblock request blocks.
package curl

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/hitblock/packages/builtin"
	"github.com/abdul-hamid-achik/hitblock/packages/core/headers"
	"github.com/abdul-hamid-achik/hitblock/packages/core/parser"
	"github.com/google/shlex"
)

// Converter converts curl commands to request blocks.
type Converter struct {
	names bool
}

// Option is a functional option for Converter.
type Option func(*Converter)

// WithNames configures whether each block is preceded by a "# name" comment.
func WithNames(names bool) Option {
	return func(c *Converter) {
		c.names = names
	}
}

// NewConverter creates a new curl converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		names: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParsedCurl represents a parsed curl command.
type ParsedCurl struct {
	Method  string
	URL     string
	Headers *headers.HeaderSet
	Body    string
	// BodyFile is set by -d @path; the file is read when the block runs.
	BodyFile string
	// Form and Files come from -F; they become multipart assignments.
	Form  []parser.Assignment
	Files []parser.Assignment
	Name  string
}

// ConvertCommand converts a single curl command to a request block.
func (c *Converter) ConvertCommand(curlCmd string) (string, error) {
	parsed, err := c.Parse(curlCmd)
	if err != nil {
		return "", err
	}
	return c.ToBlock(parsed), nil
}

// ConvertFile converts a file containing curl commands, one per line or
// continued with a trailing backslash, into a document.
func (c *Converter) ConvertFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var commands []string
	var currentCmd strings.Builder
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Handle line continuations
		if strings.HasSuffix(line, "\\") {
			currentCmd.WriteString(strings.TrimSuffix(line, "\\"))
			currentCmd.WriteString(" ")
			continue
		}

		currentCmd.WriteString(line)
		commands = append(commands, currentCmd.String())
		currentCmd.Reset()
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	// Handle any remaining command
	if currentCmd.Len() > 0 {
		commands = append(commands, currentCmd.String())
	}

	blocks := make([]string, 0, len(commands))
	for i, cmd := range commands {
		converted, err := c.ConvertCommand(cmd)
		if err != nil {
			return "", fmt.Errorf("failed to convert command %d: %w", i+1, err)
		}
		blocks = append(blocks, converted)
	}

	return strings.Join(blocks, "\n"), nil
}

// Parse parses a curl command string into a ParsedCurl struct.
func (c *Converter) Parse(curlCmd string) (*ParsedCurl, error) {
	parsed := &ParsedCurl{
		Headers: headers.New(),
	}

	tokens, err := tokenize(curlCmd)
	if err != nil {
		return nil, err
	}
	if len(tokens) > 0 && tokens[0] == "curl" {
		tokens = tokens[1:]
	}

	var (
		method string
		data   []string
		asGet  bool
	)

	value := func(i int) (string, error) {
		if i+1 >= len(tokens) {
			return "", fmt.Errorf("missing value for %s", tokens[i])
		}
		return tokens[i+1], nil
	}

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]

		switch token {
		case "-X", "--request":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			method = strings.ToUpper(v)
			i++

		case "-H", "--header":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			if name, val, ok := strings.Cut(v, ":"); ok {
				parsed.Headers.Set(strings.TrimSpace(name), strings.TrimSpace(val))
			}
			i++

		case "-d", "--data", "--data-raw", "--data-binary", "--data-ascii":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			data = append(data, v)
			i++

		case "--data-urlencode":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			data = append(data, urlencodeData(v))
			i++

		case "-F", "--form":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			name, val, ok := strings.Cut(v, "=")
			if !ok {
				return nil, fmt.Errorf("malformed form field %q", v)
			}
			if path, isFile := strings.CutPrefix(val, "@"); isFile {
				path, _, _ = strings.Cut(path, ";")
				parsed.Files = append(parsed.Files, parser.Assignment{Name: name, Value: path})
			} else {
				parsed.Form = append(parsed.Form, parser.Assignment{Name: name, Value: val})
			}
			i++

		case "-u", "--user":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			user, password, _ := strings.Cut(v, ":")
			line := builtin.BasicAuth(user, password)
			parsed.Headers.Set("Authorization", strings.TrimPrefix(line, "Authorization: "))
			i++

		case "-A", "--user-agent":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Headers.Set("User-Agent", v)
			i++

		case "-e", "--referer":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Headers.Set("Referer", v)
			i++

		case "-b", "--cookie":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Headers.Set("Cookie", v)
			i++

		case "--connect-timeout":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Headers.Set("Hitblock-Connect-Timeout", v)
			i++

		case "-m", "--max-time":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Headers.Set("Hitblock-Timeout", v)
			i++

		case "-E", "--cert":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Headers.Set("Hitblock-Client-Cert", v)
			i++

		case "--key":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Headers.Set("Hitblock-Client-Key", v)
			i++

		case "--connect-to":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			// HOST1:PORT1:HOST2:PORT2
			if parts := strings.SplitN(v, ":", 4); len(parts) == 4 && parts[2] != "" {
				target := parts[2]
				if parts[3] != "" {
					target += ":" + parts[3]
				}
				parsed.Headers.Set("Hitblock-Connect", target)
			}
			i++

		case "-L", "--location":
			parsed.Headers.Set("Hitblock-Follow-Redirects", "1")

		case "-I", "--head":
			method = "HEAD"

		case "-G", "--get":
			asGet = true

		case "--url":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.URL = v
			i++

		default:
			if strings.HasPrefix(token, "-") {
				// Skip unknown flags with potential values
				if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "-") && !isURL(tokens[i+1]) {
					i++
				}
				continue
			}
			if parsed.URL == "" {
				parsed.URL = token
			}
		}
	}

	if parsed.URL == "" {
		return nil, fmt.Errorf("no URL found in curl command")
	}
	if !isURL(parsed.URL) {
		parsed.URL = "http://" + parsed.URL
	}

	if len(data) == 1 && strings.HasPrefix(data[0], "@") && !asGet {
		parsed.BodyFile = strings.TrimPrefix(data[0], "@")
		data = nil
		if !parsed.Headers.Has("Content-Type") {
			parsed.Headers.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}

	body := strings.Join(data, "&")
	switch {
	case asGet && body != "":
		sep := "?"
		if strings.Contains(parsed.URL, "?") {
			sep = "&"
		}
		parsed.URL += sep + body
	case body != "":
		parsed.Body = body
		if !parsed.Headers.Has("Content-Type") {
			parsed.Headers.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}

	parsed.Method = method
	if parsed.Method == "" {
		parsed.Method = "GET"
		if parsed.Body != "" || parsed.BodyFile != "" || len(parsed.Form) > 0 || len(parsed.Files) > 0 {
			parsed.Method = "POST"
		}
	}

	// Generate a name from the URL
	parsed.Name = generateName(parsed.URL, parsed.Method)

	return parsed, nil
}

// ToBlock renders a ParsedCurl as a request block. Headers and form fields
// become request-line assignments, so the block does not leak headers into
// the blocks below it. A body is written as a heredoc.
func (c *Converter) ToBlock(parsed *ParsedCurl) string {
	var sb strings.Builder

	if c.names {
		sb.WriteString("# ")
		sb.WriteString(parsed.Name)
		sb.WriteString("\n")
	}

	sb.WriteString(parsed.Method)
	sb.WriteString(" ")
	sb.WriteString(parsed.URL)

	for _, e := range parsed.Headers.Entries() {
		sb.WriteString(" ")
		sb.WriteString(quoteArg(e.Name + ":" + e.Value))
	}
	for _, f := range parsed.Form {
		sb.WriteString(" ")
		sb.WriteString(quoteArg(f.Name + ":=" + f.Value))
	}
	for _, f := range parsed.Files {
		sb.WriteString(" ")
		sb.WriteString(quoteArg(f.Name + "@=" + f.Value))
	}

	if parsed.BodyFile != "" {
		sb.WriteString(" < ")
		sb.WriteString(quoteArg(parsed.BodyFile))
	} else if parsed.Body != "" {
		token := heredocToken(parsed.Body)
		sb.WriteString(" << ")
		sb.WriteString(token)
		sb.WriteString("\n")
		sb.WriteString(strings.TrimSuffix(parsed.Body, "\n"))
		sb.WriteString("\n")
		sb.WriteString(token)
	}
	sb.WriteString("\n")

	return sb.String()
}

func tokenize(cmd string) ([]string, error) {
	cmd = strings.ReplaceAll(cmd, "\\\r\n", " ")
	cmd = strings.ReplaceAll(cmd, "\\\n", " ")
	tokens, err := shlex.Split(cmd)
	if err != nil {
		return nil, fmt.Errorf("cannot tokenize curl command: %w", err)
	}
	return tokens, nil
}

// quoteArg quotes a request-line token when the tokenizer would otherwise
// split it or read part of it as syntax.
func quoteArg(s string) string {
	if !strings.ContainsAny(s, " \t\"'\\#|<") {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// heredocToken picks a terminator that no body line equals.
func heredocToken(body string) string {
	lines := strings.Split(body, "\n")
	for n := 0; ; n++ {
		token := "BODY"
		if n > 0 {
			token = fmt.Sprintf("BODY%d", n)
		}
		clash := false
		for _, line := range lines {
			if strings.TrimSpace(line) == token {
				clash = true
				break
			}
		}
		if !clash {
			return token
		}
	}
}

func urlencodeData(v string) string {
	if name, val, ok := strings.Cut(v, "="); ok {
		return name + "=" + url.QueryEscape(val)
	}
	return url.QueryEscape(strings.TrimPrefix(v, "="))
}

// isURL checks if a string looks like a URL.
func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

var urlPattern = regexp.MustCompile(`https?://[^/]+(/[^?#]*)?`)

// generateName generates a request name from the URL and method.
func generateName(rawURL, method string) string {
	// Extract the path from the URL
	matches := urlPattern.FindStringSubmatch(rawURL)

	path := "/"
	if len(matches) > 1 && matches[1] != "" {
		path = matches[1]
	}

	// Clean up the path for a name
	path = strings.Trim(path, "/")
	if path == "" {
		path = "root"
	}

	// Replace path separators and other characters
	path = strings.ReplaceAll(path, "/", "_")
	path = strings.ReplaceAll(path, "-", "_")

	return strings.ToLower(method) + "_" + path
}
