package symtab

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kolga/src/token"
)

func TestScopeBalance(t *testing.T) {
	st := New()
	require.True(t, st.IsGlobal())

	st.InitScope()
	require.False(t, st.IsGlobal())
	id := st.FinalizeScope()
	require.True(t, st.IsGlobal())

	names, ok := st.RetrieveScope(id)
	require.True(t, ok)
	require.Empty(t, names)
}

func TestFinalizeScopePanicsOnGlobal(t *testing.T) {
	st := New()
	require.Panics(t, func() { st.FinalizeScope() })
}

func TestStoreAndRetrieveShadowing(t *testing.T) {
	st := New()
	outer := &Symbol{Kind: KindVar, Ty: Ty{Kind: TyNum}, NameTkn: token.Token{Kind: token.Ident, Lexeme: "x"}}
	st.Store("x", outer)

	st.InitScope()
	inner := &Symbol{Kind: KindVar, Ty: Ty{Kind: TyBool}, NameTkn: token.Token{Kind: token.Ident, Lexeme: "x"}}
	st.Store("x", inner)

	require.Same(t, inner, st.Retrieve("x"))
	require.True(t, st.ExistsInCurrentScope("x"))

	st.FinalizeScope()
	require.Same(t, outer, st.Retrieve("x"))
}

func TestRetrieveUndeclared(t *testing.T) {
	st := New()
	require.Nil(t, st.Retrieve("nope"))
}

func TestRetrieveScopeUnknownID(t *testing.T) {
	st := New()
	_, ok := st.RetrieveScope(999)
	require.False(t, ok)
}

func TestFinalizeGlobalIdempotent(t *testing.T) {
	st := New()
	require.False(t, st.IsGlobalSealed())
	st.FinalizeGlobal()
	st.FinalizeGlobal()
	require.True(t, st.IsGlobalSealed())
}

func TestTyString(t *testing.T) {
	require.Equal(t, "num", Ty{Kind: TyNum}.String())
	require.Equal(t, "string", Ty{Kind: TyString}.String())
	require.Equal(t, "bool", Ty{Kind: TyBool}.String())
	require.Equal(t, "void", Ty{Kind: TyVoid}.String())
	require.Equal(t, "Widget", Ty{Kind: TyClass, ClassName: "Widget"}.String())
}
