package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer(t *testing.T) {
	l := NewLexer(`json["a b"][0].name(x, -1.5)`)

	var types []TokenType
	var values []string
	for {
		tok := l.NextToken()
		if tok.Type == TokenEOF {
			break
		}
		types = append(types, tok.Type)
		values = append(values, tok.Value)
	}

	assert.Equal(t, []TokenType{
		TokenIdentifier, TokenLeftBracket, TokenString, TokenRightBracket,
		TokenLeftBracket, TokenNumber, TokenRightBracket, TokenDot, TokenIdentifier,
		TokenLeftParen, TokenIdentifier, TokenComma, TokenNumber, TokenRightParen,
	}, types)
	assert.Equal(t, "a b", values[2])
	assert.Equal(t, "-1.5", values[12])
}

func TestParse(t *testing.T) {
	n, err := Parse(`set_cookies("a", b)[0]`)
	require.NoError(t, err)

	idx, ok := n.(*Index)
	require.True(t, ok)
	assert.Equal(t, &Literal{Value: int64(0)}, idx.Key)

	call, ok := idx.Target.(*Call)
	require.True(t, ok)
	assert.Equal(t, &Identifier{Name: "set_cookies"}, call.Func)
	assert.Equal(t, []Node{&Literal{Value: "a"}, &Identifier{Name: "b"}}, call.Args)
}

func TestParse_Literals(t *testing.T) {
	tests := []struct {
		expr string
		want any
	}{
		{"None", nil},
		{"null", nil},
		{"True", true},
		{"false", false},
		{"12", int64(12)},
		{"-3", int64(-3)},
		{"1.25", 1.25},
		{"1e3", 1000.0},
		{`'it\'s'`, "it's"},
		{`"tab\there"`, "tab\there"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			n, err := Parse(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, &Literal{Value: tt.want}, n)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, expr := range []string{"", "a +", "a[1", "f(a b)", "a..b", "a.1", "=", "(a"} {
		t.Run(expr, func(t *testing.T) {
			_, err := Parse(expr)
			var evalErr *EvalError
			assert.ErrorAs(t, err, &evalErr)
		})
	}
}
