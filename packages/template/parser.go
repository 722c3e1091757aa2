package template

import (
	"fmt"
	"strconv"
	"strings"
)

// Node is a parsed expression.
type Node interface {
	node()
}

type Identifier struct {
	Name string
}

type Literal struct {
	Value any
}

type Member struct {
	Target Node
	Name   string
}

type Index struct {
	Target Node
	Key    Node
}

type Call struct {
	Func Node
	Args []Node
}

func (*Identifier) node() {}
func (*Literal) node()    {}
func (*Member) node()     {}
func (*Index) node()      {}
func (*Call) node()       {}

// keywords map literal names to their values. Both spellings are accepted.
var keywords = map[string]any{
	"None":  nil,
	"null":  nil,
	"True":  true,
	"true":  true,
	"False": false,
	"false": false,
}

type Parser struct {
	lexer *Lexer
	cur   Token
}

// Parse parses a complete expression. Syntax problems are reported as
// *EvalError.
func Parse(expr string) (Node, error) {
	p := &Parser{lexer: NewLexer(expr)}
	p.next()

	n, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != TokenEOF {
		return nil, p.unexpected()
	}
	return n, nil
}

func (p *Parser) next() {
	p.cur = p.lexer.NextToken()
}

func (p *Parser) unexpected() error {
	if p.cur.Type == TokenEOF {
		return &EvalError{Message: "invalid syntax: unexpected end of expression"}
	}
	return &EvalError{Message: fmt.Sprintf("invalid syntax: unexpected %q at %d", p.cur.Value, p.cur.Pos)}
}

func (p *Parser) expect(t TokenType) error {
	if p.cur.Type != t {
		return p.unexpected()
	}
	p.next()
	return nil
}

func (p *Parser) parseExpression() (Node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.cur.Type {
		case TokenDot:
			p.next()
			if p.cur.Type != TokenIdentifier {
				return nil, p.unexpected()
			}
			n = &Member{Target: n, Name: p.cur.Value}
			p.next()
		case TokenLeftBracket:
			p.next()
			key, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if err := p.expect(TokenRightBracket); err != nil {
				return nil, err
			}
			n = &Index{Target: n, Key: key}
		case TokenLeftParen:
			p.next()
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			n = &Call{Func: n, Args: args}
		default:
			return n, nil
		}
	}
}

func (p *Parser) parseArguments() ([]Node, error) {
	var args []Node
	if p.cur.Type == TokenRightParen {
		p.next()
		return args, nil
	}

	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		switch p.cur.Type {
		case TokenComma:
			p.next()
		case TokenRightParen:
			p.next()
			return args, nil
		default:
			return nil, p.unexpected()
		}
	}
}

func (p *Parser) parsePrimary() (Node, error) {
	tok := p.cur

	switch tok.Type {
	case TokenIdentifier:
		p.next()
		if v, ok := keywords[tok.Value]; ok {
			return &Literal{Value: v}, nil
		}
		return &Identifier{Name: tok.Value}, nil
	case TokenString:
		p.next()
		return &Literal{Value: tok.Value}, nil
	case TokenNumber:
		p.next()
		return parseNumber(tok.Value)
	case TokenLeftParen:
		p.next()
		n, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
		return n, nil
	case TokenIllegal:
		return nil, &EvalError{Message: "invalid syntax: " + tok.Value}
	}

	return nil, p.unexpected()
}

func parseNumber(s string) (Node, error) {
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return &Literal{Value: i}, nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, &EvalError{Message: "invalid number " + s}
	}
	return &Literal{Value: f}, nil
}
