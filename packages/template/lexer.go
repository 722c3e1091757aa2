package template

import (
	"strings"
)

type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIllegal
	TokenIdentifier
	TokenString
	TokenNumber
	TokenDot
	TokenComma
	TokenLeftBracket
	TokenRightBracket
	TokenLeftParen
	TokenRightParen
)

type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

type Lexer struct {
	input   string
	pos     int
	readPos int
	ch      byte
}

func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	tok := Token{Pos: l.pos}

	switch l.ch {
	case 0:
		tok.Type = TokenEOF
		return tok
	case '.':
		tok.Type, tok.Value = TokenDot, "."
	case ',':
		tok.Type, tok.Value = TokenComma, ","
	case '[':
		tok.Type, tok.Value = TokenLeftBracket, "["
	case ']':
		tok.Type, tok.Value = TokenRightBracket, "]"
	case '(':
		tok.Type, tok.Value = TokenLeftParen, "("
	case ')':
		tok.Type, tok.Value = TokenRightParen, ")"
	case '"', '\'':
		value, ok := l.readString(l.ch)
		if !ok {
			tok.Type, tok.Value = TokenIllegal, "unterminated string"
			return tok
		}
		tok.Type, tok.Value = TokenString, value
		return tok
	default:
		if isDigit(l.ch) || (l.ch == '-' && isDigit(l.peekChar())) {
			tok.Type, tok.Value = TokenNumber, l.readNumber()
			return tok
		}
		if isIdentStart(l.ch) {
			tok.Type, tok.Value = TokenIdentifier, l.readIdentifier()
			return tok
		}
		tok.Type, tok.Value = TokenIllegal, string(l.ch)
	}

	l.readChar()
	return tok
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isIdentStart(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func (l *Lexer) readNumber() string {
	start := l.pos
	if l.ch == '-' {
		l.readChar()
	}
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '-' || next == '+' {
			l.readChar()
			l.readChar()
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	return l.input[start:l.pos]
}

// readString consumes a quoted literal, resolving backslash escapes.
func (l *Lexer) readString(quote byte) (string, bool) {
	var sb strings.Builder
	l.readChar()

	for l.ch != quote {
		if l.ch == 0 {
			return "", false
		}
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case 0:
				return "", false
			default:
				sb.WriteByte(l.ch)
			}
			l.readChar()
			continue
		}
		sb.WriteByte(l.ch)
		l.readChar()
	}

	l.readChar()
	return sb.String(), true
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
