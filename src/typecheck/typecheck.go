// Package typecheck implements the read-only validation pass that runs
// after parsing and before code generation. It never rewrites the tree: it
// only walks the already-typed AST the parser produced and reports
// diagnostics the parser itself cannot see locally (a `return` deep inside
// a function body, a global initializer that isn't a compile-time
// constant).
package typecheck

import (
	"fmt"

	"kolga/src/ast"
	"kolga/src/symtab"
	"kolga/src/token"
)

// ErrKind tags the shape of a type-check diagnostic.
type ErrKind int

const (
	ReturnTypeMismatch ErrKind = iota
	StringCmpUnsupported
	NonConstGlobalInit
)

func (k ErrKind) String() string {
	switch k {
	case ReturnTypeMismatch:
		return "ReturnTypeMismatch"
	case StringCmpUnsupported:
		return "StringCmpUnsupported"
	case NonConstGlobalInit:
		return "NonConstGlobalInit"
	default:
		return "UnknownErr"
	}
}

// CheckError is a single type-check diagnostic.
type CheckError struct {
	Kind   ErrKind
	Line   int
	Column int
	Msg    string
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("%d:%d: %s: %s", e.Line, e.Column, e.Kind, e.Msg)
}

func newErr(tkn token.Token, kind ErrKind, format string, args ...interface{}) *CheckError {
	return &CheckError{Kind: kind, Line: tkn.Line, Column: tkn.Column, Msg: fmt.Sprintf(format, args...)}
}

// Checker walks a parsed *ast.Program and collects diagnostics. It holds no
// reference back to the symtab.SymbolTable used during parsing: every type
// it needs is already attached to the node (TypeRecord, Symbol.Ty copies),
// which is what makes the pass read-only.
type Checker struct {
	errs []error

	// fnRetTy is the return type of the function (or method) currently
	// being walked, and fnTkn the token to blame a mismatch on if there is
	// no explicit return expression to point at.
	fnRetTy *symtab.Ty
	fnTkn   token.Token
}

// Check walks prog and returns every diagnostic found.
func Check(prog *ast.Program) []error {
	c := &Checker{}
	for _, n := range prog.Stmts {
		c.walkStmt(n, true)
	}
	return c.errs
}

func (c *Checker) walkStmt(n ast.Node, isGlobal bool) {
	switch s := n.(type) {
	case *ast.VarDecl:
		// No initializer to check.
	case *ast.VarAssign:
		if isGlobal && !isConstExpr(s.Value) {
			c.errs = append(c.errs, newErr(s.NameTkn, NonConstGlobalInit, "global %q must be initialized with a compile-time constant", s.NameTkn.Name()))
		}
		c.walkExpr(s.Value)
	case *ast.FnDecl:
		prevRet, prevTkn := c.fnRetTy, c.fnTkn
		ret := s.RetTy
		c.fnRetTy, c.fnTkn = &ret, s.NameTkn
		c.walkStmt(s.Body, false)
		c.fnRetTy, c.fnTkn = prevRet, prevTkn
	case *ast.ClassDecl:
		for _, m := range s.Methods {
			c.walkStmt(m, false)
		}
	case *ast.Block:
		for _, st := range s.Stmts {
			c.walkStmt(st, false)
		}
	case *ast.If:
		c.walkExpr(s.Cond)
		c.walkStmt(s.Then, false)
		for _, arm := range s.Elifs {
			c.walkExpr(arm.Cond)
			c.walkStmt(arm.Then, false)
		}
		if s.Else != nil {
			c.walkStmt(s.Else, false)
		}
	case *ast.While:
		c.walkExpr(s.Cond)
		c.walkStmt(s.Body, false)
	case *ast.For:
		c.walkStmt(s.Init, false)
		c.walkExpr(s.Cond)
		c.walkExpr(s.Step)
		c.walkStmt(s.Body, false)
	case *ast.Return:
		c.checkReturn(s)
		if s.Expr != nil {
			c.walkExpr(s.Expr)
		}
	case *ast.ExprStmt:
		c.walkExpr(s.Expr)
	}
}

func (c *Checker) checkReturn(ret *ast.Return) {
	if c.fnRetTy == nil {
		return // a bare top-level return has no enclosing function to check against; the parser's grammar shouldn't allow it, but a read-only pass stays permissive about structure it didn't produce.
	}
	want := *c.fnRetTy
	if ret.Expr == nil {
		if want.Kind != symtab.TyVoid {
			c.errs = append(c.errs, newErr(ret.Tkn, ReturnTypeMismatch, "function %q must return a value of type %s", c.fnTkn.Name(), want))
		}
		return
	}
	got := exprTy(ret.Expr)
	if want.Kind == symtab.TyVoid {
		c.errs = append(c.errs, newErr(ret.Tkn, ReturnTypeMismatch, "function %q is void and must not return a value", c.fnTkn.Name()))
		return
	}
	switch ret.Expr.(type) {
	case *ast.FnCall, *ast.ClassFnCall, *ast.ClassPropAccess, *ast.ClassPropSet:
		// These nodes carry no attached type, so their type is not compared
		// against the function's return type.
		return
	}
	if !tyEq(want, got) {
		c.errs = append(c.errs, newErr(ret.Tkn, ReturnTypeMismatch, "function %q returns %s, found %s", c.fnTkn.Name(), want, got))
	}
}

func (c *Checker) walkExpr(n ast.Node) {
	switch e := n.(type) {
	case nil:
	case *ast.Primary:
	case *ast.Unary:
		c.walkExpr(e.Rhs)
	case *ast.Binary:
		c.walkExpr(e.Lhs)
		c.walkExpr(e.Rhs)
		if (e.Op.Kind == token.EqEq || e.Op.Kind == token.BangEq) && (exprTy(e.Lhs).Kind == symtab.TyString || exprTy(e.Rhs).Kind == symtab.TyString) {
			c.errs = append(c.errs, newErr(e.Op, StringCmpUnsupported, "string equality comparison is not supported"))
		}
	case *ast.Logical:
		c.walkExpr(e.Lhs)
		c.walkExpr(e.Rhs)
	case *ast.FnCall:
		for _, a := range e.Args {
			c.walkExpr(a)
		}
	case *ast.ClassFnCall:
		for _, a := range e.Args {
			c.walkExpr(a)
		}
	case *ast.ClassPropAccess:
	case *ast.ClassPropSet:
		c.walkExpr(e.Value)
	case *ast.ClassConstruct:
	case *ast.VarAssign:
		// A reassignment appearing in expression position (not caught by
		// walkStmt's global-init check, which only applies to declaration
		// sites); reassigning a global after its declaration is legal.
		c.walkExpr(e.Value)
	}
}

// isConstExpr reports whether n is a literal, or a literal negated by unary
// minus, the only initializers a global var is allowed to carry.
func isConstExpr(n ast.Node) bool {
	switch e := n.(type) {
	case *ast.Primary:
		switch e.Tkn.Kind {
		case token.Val, token.Str, token.True, token.False, token.Null:
			return true
		}
		return false
	case *ast.Unary:
		if e.Op.Kind == token.Minus {
			return isConstExpr(e.Rhs)
		}
		return false
	case *ast.ClassConstruct:
		return true
	default:
		return false
	}
}

// exprTy recovers the static type of an already-parsed expression node. It
// never re-infers anything; it only reads the type the parser attached to
// literals, identifiers, operators, assignments and class constructions.
// Calls and class member accesses carry no type, and exprTy reports them
// (like any other node) as void.
func exprTy(n ast.Node) symtab.Ty {
	switch e := n.(type) {
	case *ast.Primary:
		return e.Ty.Ty
	case *ast.Unary:
		return e.Ty
	case *ast.Binary:
		return e.Ty
	case *ast.Logical:
		return e.Ty
	case *ast.VarAssign:
		return e.Ty.Ty
	case *ast.ClassConstruct:
		return symtab.Ty{Kind: symtab.TyClass, ClassName: e.ClassName}
	default:
		return symtab.Ty{Kind: symtab.TyVoid}
	}
}

func tyEq(a, b symtab.Ty) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == symtab.TyClass {
		return a.ClassName == b.ClassName
	}
	return true
}
