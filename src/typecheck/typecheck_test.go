package typecheck

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kolga/src/ast"
	"kolga/src/lexer"
	"kolga/src/parser"
	"kolga/src/symtab"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	lx := lexer.New(src)
	st := symtab.New()
	p := parser.New(lx, st)
	prog, errs := p.Parse()
	require.Empty(t, errs, "unexpected parse errors: %v", errs)
	return prog
}

func firstKind(t *testing.T, errs []error) ErrKind {
	t.Helper()
	require.NotEmpty(t, errs)
	ce, ok := errs[0].(*CheckError)
	require.True(t, ok, "expected *CheckError, got %T", errs[0])
	return ce.Kind
}

func TestCheckReturnTypeMismatchWrongValue(t *testing.T) {
	prog := mustParse(t, `fn f() ~ num { return true; }`)
	errs := Check(prog)
	require.Equal(t, ReturnTypeMismatch, firstKind(t, errs))
}

func TestCheckReturnTypeMismatchBareReturn(t *testing.T) {
	prog := mustParse(t, `fn f() ~ num { return; }`)
	errs := Check(prog)
	require.Equal(t, ReturnTypeMismatch, firstKind(t, errs))
}

func TestCheckReturnTypeMismatchVoidWithValue(t *testing.T) {
	prog := mustParse(t, `fn f() ~ void { return 1; }`)
	errs := Check(prog)
	require.Equal(t, ReturnTypeMismatch, firstKind(t, errs))
}

func TestCheckReturnTypeOk(t *testing.T) {
	prog := mustParse(t, `fn f() ~ num { return 1; }`)
	require.Empty(t, Check(prog))
}

func TestCheckRecursiveFnReturnOk(t *testing.T) {
	prog := mustParse(t, `fn f() ~ num { return f(); }`)
	require.Empty(t, Check(prog))
}

func TestCheckStringCmpRejected(t *testing.T) {
	prog := mustParse(t, `fn f() ~ void { let ok ~ bool = "a" == "b"; }`)
	errs := Check(prog)
	require.Equal(t, StringCmpUnsupported, firstKind(t, errs))
}

func TestCheckNumCmpAllowed(t *testing.T) {
	prog := mustParse(t, `fn f() ~ void { let ok ~ bool = 1 == 2; }`)
	require.Empty(t, Check(prog))
}

func TestCheckNonConstGlobalInit(t *testing.T) {
	prog := mustParse(t, `fn f() ~ num { return 1; } let x ~ num = f();`)
	errs := Check(prog)
	require.Equal(t, NonConstGlobalInit, firstKind(t, errs))
}

func TestCheckConstGlobalInitsAllowed(t *testing.T) {
	prog := mustParse(t, `let a ~ num = 5; let b ~ num = -5; let c ~ string = "hi"; let d ~ bool = true;`)
	require.Empty(t, Check(prog))
}

func TestCheckGlobalReassignNotFlagged(t *testing.T) {
	// Reassigning an already-declared global (expression position) is not
	// subject to the compile-time-constant restriction, only its original
	// declaration is.
	prog := mustParse(t, `let x ~ num = 1; fn f() ~ void { x = 2; }`)
	require.Empty(t, Check(prog))
}
