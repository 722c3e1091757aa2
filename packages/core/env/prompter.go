package env

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/hitblock/packages/core/parser"
	"golang.org/x/term"
)

// Prompter answers request-line prompts. A loaded variable with the
// parameter's name wins; otherwise the user is asked.
type Prompter struct {
	vars   map[string]string
	reader *bufio.Reader
	out    io.Writer
	// fd is the terminal used for secrets, or -1 when input is not one.
	fd int
}

func NewPrompter(vars map[string]string, in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{
		vars:   vars,
		reader: bufio.NewReader(in),
		out:    out,
		fd:     -1,
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
	}
	return p
}

// Secret asks for name without echoing when input is a terminal.
func (p *Prompter) Secret(name string) string {
	if v, ok := p.vars[name]; ok {
		return v
	}

	fmt.Fprintf(p.out, "%s: ", name)
	if p.fd >= 0 {
		data, err := term.ReadPassword(p.fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return ""
		}
		return string(data)
	}
	return p.readLine()
}

// Value asks for name.
func (p *Prompter) Value(name string) string {
	if v, ok := p.vars[name]; ok {
		return v
	}

	fmt.Fprintf(p.out, "%s: ", name)
	return p.readLine()
}

func (p *Prompter) readLine() string {
	line, err := p.reader.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimRight(line, "\r\n")
}

// Prompts adapts the prompter to the request-line parser.
func (p *Prompter) Prompts() parser.Prompts {
	return parser.Prompts{
		Secret: p.Secret,
		Value:  p.Value,
	}
}
