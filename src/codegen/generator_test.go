package codegen

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"kolga/src/ast"
	"kolga/src/lexer"
	"kolga/src/parser"
	"kolga/src/symtab"
	"kolga/src/token"
	"kolga/src/typecheck"
)

// genIR runs the full lex/parse/typecheck/codegen pipeline and returns the
// resulting module's textual IR. It fails the test outright on any stage
// error, since every fixture here is expected to be well-formed.
func genIR(t *testing.T, src string) string {
	t.Helper()
	lx := lexer.New(src)
	st := symtab.New()
	p := parser.New(lx, st)
	prog, errs := p.Parse()
	require.Empty(t, errs, "parse errors: %v", errs)
	require.Empty(t, typecheck.Check(prog), "type-check errors")

	gen := New("test")
	defer gen.Dispose()
	require.NoError(t, gen.Gen(prog))
	return gen.IR()
}

// Scenario 3: a function calling itself generates without error and its
// body contains a call to itself.
func TestGenRecursiveCall(t *testing.T) {
	ir := genIR(t, `fn f() ~ num { return f(); }`)
	require.Contains(t, ir, "define double @f()")
	require.Contains(t, ir, "call double @f()")
}

// Scenario 4: a class becomes a named struct, its method's first parameter
// is a pointer to that struct, and the body loads the property through a
// getelementptr against the self pointer.
func TestGenClassStructAndSelfGEP(t *testing.T) {
	ir := genIR(t, `class C { let n ~ num; fn g() ~ num { return n; } } let c ~ C; c.g();`)
	require.Contains(t, ir, "%C = type { double }")
	require.Contains(t, ir, "define double @C.g(%C* %self)")
	require.Contains(t, ir, "getelementptr")
	require.Regexp(t, regexp.MustCompile(`getelementptr[^\n]*%C`), ir)
	require.Contains(t, ir, "call double @C.g(%C* @c)")
}

// Scenario 5: the if-chain produces a PHI in merge with 3 incoming edges,
// one per arm (then/elif/else), since every arm falls through (none
// contains a return).
func TestGenIfChainPHIHasThreeIncoming(t *testing.T) {
	ir := genIR(t, `fn f() ~ num {
		if 1 < 2 { let a ~ num = 1; a; } elif 2 < 3 { let a ~ num = 2; a; } else { let a ~ num = 3; a; }
		return 0;
	}`)
	phiLine := findLine(t, ir, "phi double")
	require.Equal(t, 3, strings.Count(phiLine, "["))
}

// If every arm of an if-chain terminates via return, the merge block's PHI
// carries no incoming edges (nothing ever branches there) and the block
// ends in an unreachable terminator instead of a value-producing one.
func TestGenIfAllArmsReturnMergeIsUnreachable(t *testing.T) {
	ir := genIR(t, `fn f() ~ num {
		if 1 < 2 { return 1; } else { return 2; }
	}`)
	phiLine := findLine(t, ir, "phi double")
	require.Equal(t, 0, strings.Count(phiLine, "["))
	require.Contains(t, ir, "unreachable")
}

// Scenario 6: a for loop lowers to entry/for/merge blocks with a PHI in
// merge and an unordered-less-than comparison driving the back edge.
func TestGenForLoopBlocksAndCondition(t *testing.T) {
	ir := genIR(t, `fn f() ~ num {
		for let i ~ num = 0; i < 3; i = i + 1; { i; }
		return 0;
	}`)
	require.Contains(t, ir, "fcmp ult double")
	require.Contains(t, ir, "phi double")
	require.Contains(t, ir, "entry:")
	require.Contains(t, ir, "for:")
	require.Contains(t, ir, "merge:")
}

// A while loop produces no PHI and no dedicated entry block — just
// while/merge.
func TestGenWhileLoopHasNoPHI(t *testing.T) {
	ir := genIR(t, `fn f() ~ void {
		while 1 < 2 { }
	}`)
	require.NotContains(t, ir, "phi")
	require.Contains(t, ir, "while:")
	require.Contains(t, ir, "merge:")
}

// Alloca placement: every alloca in a generated function's entry block
// precedes every non-alloca instruction.
func TestGenAllocaPlacement(t *testing.T) {
	ir := genIR(t, `fn f(a ~ num, b ~ num) ~ num {
		let c ~ num = a + b;
		return c;
	}`)
	entry := functionEntryBlockText(t, ir, "f")
	sawNonAlloca := false
	for _, line := range strings.Split(entry, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasSuffix(line, ":") {
			continue
		}
		isAlloca := strings.Contains(line, "= alloca")
		if isAlloca {
			require.Falsef(t, sawNonAlloca, "alloca %q follows a non-alloca instruction in the entry block", line)
		} else {
			sawNonAlloca = true
		}
	}
}

func TestGenGlobalVarDecl(t *testing.T) {
	ir := genIR(t, `let x ~ num;`)
	require.Contains(t, ir, "@x = external global double")
}

func TestGenGlobalVarAssignConstant(t *testing.T) {
	ir := genIR(t, `let x ~ num = 5;`)
	require.Contains(t, ir, "@x = global double 5")
}

// Generator must reject a non-constant global initializer on its own,
// without relying on typecheck having already run first: it is the only
// thing standing between a function-call initializer and SetInitializer
// being handed a non-constant llvm.Value.
func TestGenGlobalVarAssignRejectsNonConstInitializer(t *testing.T) {
	nameTkn := token.Token{Kind: token.Ident, Lexeme: "x"}
	prog := &ast.Program{
		Stmts: []ast.Node{
			&ast.VarAssign{
				Ty:      ast.TypeRecord{Ty: symtab.Ty{Kind: symtab.TyNum}},
				NameTkn: nameTkn,
				Global:  true,
				Value:   &ast.FnCall{FnTkn: token.Token{Kind: token.Ident, Lexeme: "f"}},
			},
		},
	}

	gen := New("test")
	defer gen.Dispose()
	err := gen.Gen(prog)
	require.Error(t, err)
}

func TestGenStringLiteral(t *testing.T) {
	ir := genIR(t, `fn f() ~ string { return "hi"; }`)
	require.Contains(t, ir, `c"hi\00"`)
}

func TestGenBoolLiterals(t *testing.T) {
	ir := genIR(t, `fn f() ~ bool { return true; }`)
	require.Contains(t, ir, "ret i8 1")
}

// findLine returns the first line of ir containing substr, failing the
// test if none is found.
func findLine(t *testing.T, ir, substr string) string {
	t.Helper()
	for _, line := range strings.Split(ir, "\n") {
		if strings.Contains(line, substr) {
			return line
		}
	}
	t.Fatalf("no line containing %q found in:\n%s", substr, ir)
	return ""
}

// functionEntryBlockText extracts the "entry:" block's text out of the
// named function's definition, up to (not including) the next block label.
func functionEntryBlockText(t *testing.T, ir, fnName string) string {
	t.Helper()
	defIdx := strings.Index(ir, "define")
	require.NotEqual(t, -1, defIdx)
	rest := ir[defIdx:]
	entryIdx := strings.Index(rest, "entry:")
	require.NotEqual(t, -1, entryIdx, "no entry block found for %q", fnName)
	rest = rest[entryIdx+len("entry:"):]
	nextLabel := regexp.MustCompile(`(?m)^\S+:`).FindStringIndex(rest)
	if nextLabel == nil {
		return rest
	}
	return rest[:nextLabel[0]]
}
