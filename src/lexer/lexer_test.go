package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kolga/src/token"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	lx := New(src)
	var toks []token.Token
	for {
		tok, err := lx.Next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func TestLexerTokenStream(t *testing.T) {
	src := `let x ~ num = 5;`
	toks := scanAll(t, src)
	want := []token.Kind{
		token.Let, token.Ident, token.Tilde, token.Num, token.Eq, token.Val, token.Semicolon, token.EOF,
	}
	require.Len(t, toks, len(want))
	for i, k := range want {
		require.Equalf(t, k, toks[i].Kind, "token %d", i)
	}
	require.Equal(t, "x", toks[1].Lexeme)
	require.Equal(t, 5.0, toks[5].Num)
}

func TestLexerTwoCharOperators(t *testing.T) {
	toks := scanAll(t, `== != <= >= && ||`)
	want := []token.Kind{token.EqEq, token.BangEq, token.LtEq, token.GtEq, token.AmpAmp, token.PipePipe, token.EOF}
	for i, k := range want {
		require.Equalf(t, k, toks[i].Kind, "token %d", i)
	}
}

func TestLexerSingleCharFallback(t *testing.T) {
	toks := scanAll(t, `= ! < >`)
	want := []token.Kind{token.Eq, token.Bang, token.Lt, token.Gt, token.EOF}
	for i, k := range want {
		require.Equalf(t, k, toks[i].Kind, "token %d", i)
	}
}

func TestLexerStringEscapes(t *testing.T) {
	toks := scanAll(t, `"hi\n\t\"there\""`)
	require.Equal(t, token.Str, toks[0].Kind)
	require.Equal(t, "hi\n\t\"there\"", toks[0].Lexeme)
}

func TestLexerUnterminatedString(t *testing.T) {
	lx := New(`"unterminated`)
	_, err := lx.Next()
	require.Error(t, err)
}

func TestLexerNumberLiteral(t *testing.T) {
	toks := scanAll(t, `3.5 10`)
	require.Equal(t, 3.5, toks[0].Num)
	require.Equal(t, 10.0, toks[1].Num)
}

func TestLexerKeywordsVsIdents(t *testing.T) {
	toks := scanAll(t, `class classy`)
	require.Equal(t, token.Class, toks[0].Kind)
	require.Equal(t, token.Ident, toks[1].Kind)
	require.Equal(t, "classy", toks[1].Lexeme)
}

func TestLexerLineComment(t *testing.T) {
	toks := scanAll(t, "let x // a comment\n~ num;")
	want := []token.Kind{token.Let, token.Ident, token.Tilde, token.Num, token.Semicolon, token.EOF}
	for i, k := range want {
		require.Equalf(t, k, toks[i].Kind, "token %d", i)
	}
	// The token after the comment is on the following line.
	require.Equal(t, 2, toks[2].Line)
}

func TestLexerLineColumnTracking(t *testing.T) {
	toks := scanAll(t, "let\nx")
	require.Equal(t, 1, toks[0].Line)
	require.Equal(t, 1, toks[0].Column)
	require.Equal(t, 2, toks[1].Line)
	require.Equal(t, 1, toks[1].Column)
}

func TestLexerPeekDoesNotConsume(t *testing.T) {
	lx := New(`let x`)
	p1, err := lx.Peek()
	require.NoError(t, err)
	p2, err := lx.Peek()
	require.NoError(t, err)
	require.Equal(t, p1, p2)

	n, err := lx.Next()
	require.NoError(t, err)
	require.Equal(t, p1, n)

	n2, err := lx.Next()
	require.NoError(t, err)
	require.Equal(t, token.Ident, n2.Kind)
}

func TestLexerUnexpectedCharacter(t *testing.T) {
	lx := New(`@`)
	_, err := lx.Next()
	require.Error(t, err)
}

func TestLexerReScanIsStable(t *testing.T) {
	src := `fn f ( n ~ num ) ~ num { return n; }`
	first := scanAll(t, src)
	second := scanAll(t, src)
	require.Equal(t, first, second)
}
