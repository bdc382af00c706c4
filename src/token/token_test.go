package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "+", Plus.String())
	assert.Equal(t, "fn", Fn.String())
	assert.Equal(t, "Kind(9999)", Kind(9999).String())
}

func TestKindClassification(t *testing.T) {
	assert.True(t, Num.IsType())
	assert.True(t, String.IsType())
	assert.False(t, Ident.IsType())

	assert.True(t, Plus.IsBinOp())
	assert.True(t, EqEq.IsBinOp())
	assert.False(t, AmpAmp.IsBinOp())

	assert.True(t, AmpAmp.IsLogicalOp())
	assert.True(t, Or.IsLogicalOp())
	assert.False(t, Plus.IsLogicalOp())
}

func TestKeywordsRoundTrip(t *testing.T) {
	for word, kind := range Keywords {
		require.Equal(t, word, kindNames[kind])
	}
}

func TestTokenName(t *testing.T) {
	ident := Token{Kind: Ident, Lexeme: "x"}
	assert.Equal(t, "x", ident.Name())

	num := Token{Kind: Val, Num: 5}
	assert.Equal(t, "", num.Name())
}

func TestTokenString(t *testing.T) {
	assert.Equal(t, `identifier("x")`, Token{Kind: Ident, Lexeme: "x"}.String())
	assert.Equal(t, `Val(5)`, Token{Kind: Val, Num: 5}.String())
	assert.Equal(t, "+", Token{Kind: Plus}.String())
}
