package parser

import (
	"kolga/src/ast"
	"kolga/src/symtab"
	"kolga/src/token"
)

// maxFnParams bounds a function's declared parameter count. Exceeding it is
// diagnosed as FnParamCntExceeded rather than silently accepted.
const maxFnParams = 64

type lexer interface {
	Next() (token.Token, error)
	Peek() (token.Token, error)
}

// classContext tracks the class a method body is being parsed inside of, so
// a bare identifier that isn't a local/param can still resolve against the
// class's own properties, when that identifier isn't a local or parameter.
// The code generator performs the matching GEP-through-self fallback; the
// parser only needs to avoid raising UndeclaredSym or UnassignedVar for the
// case.
type classContext struct {
	name      string
	propTypes map[string]symtab.Ty
}

// Parser builds an *ast.Program from a token stream, resolving identifiers
// and declarations against a symtab.SymbolTable as it goes.
type Parser struct {
	lex      lexer
	symtab   *symtab.SymbolTable
	curr     token.Token
	errs     []error
	classCtx *classContext
}

// New returns a Parser reading from lex and populating st.
func New(lex lexer, st *symtab.SymbolTable) *Parser {
	p := &Parser{lex: lex, symtab: st}
	p.advance()
	return p
}

// Parse consumes the whole token stream and returns the resulting program
// together with every diagnostic collected along the way. A non-empty error
// slice does not necessarily mean the returned program is nil: continuable
// errors let parsing carry on past the failing declaration.
func (p *Parser) Parse() (*ast.Program, []error) {
	prog := &ast.Program{}
	for p.curr.Kind != token.EOF {
		stmt, err := p.decl()
		if err != nil {
			p.errs = append(p.errs, err)
			if pe, ok := err.(*ParseError); ok && !pe.Continuable {
				break
			}
			p.resync()
			if p.curr.Kind == token.RightBrace {
				p.advance() // a stray `}` cannot start a top-level declaration.
			}
			continue
		}
		if stmt != nil {
			prog.Stmts = append(prog.Stmts, stmt)
		}
	}
	p.symtab.FinalizeGlobal()
	return prog, p.errs
}

// resync discards tokens up to and including the next `;`, or up to (but not
// including) the next `}`, so parsing can keep collecting diagnostics after a
// continuable error while the enclosing block still sees its closing brace.
func (p *Parser) resync() {
	for p.curr.Kind != token.EOF {
		if p.curr.Kind == token.Semicolon {
			p.advance()
			return
		}
		if p.curr.Kind == token.RightBrace {
			return
		}
		p.advance()
	}
}

func (p *Parser) advance() {
	t, err := p.lex.Next()
	if err != nil {
		// A lexer error surfaces as an EOF token plus a recorded diagnostic;
		// the parser treats it as end of input and stops requesting more.
		p.errs = append(p.errs, err)
		p.curr = token.Token{Kind: token.EOF}
		return
	}
	p.curr = t
}

func (p *Parser) peek() token.Token {
	t, err := p.lex.Peek()
	if err != nil {
		return token.Token{Kind: token.EOF}
	}
	return t
}

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	if p.curr.Kind != k {
		return token.Token{}, newErr(p.curr, TknMismatch, true, "expected %s, found %s", k, p.curr.Kind)
	}
	t := p.curr
	p.advance()
	return t, nil
}

func (p *Parser) match(k token.Kind) bool {
	if p.curr.Kind == k {
		p.advance()
		return true
	}
	return false
}

// declareSym stores sym under nameTkn's name in the current scope, or
// diagnoses DuplicateSym instead of storing if that name is already bound
// there. Storing is forbidden within one scope: two `let`/`fn`/`class`
// declarations sharing a name in the same scope must never both succeed
// silently.
func (p *Parser) declareSym(nameTkn token.Token, sym *symtab.Symbol) error {
	name := nameTkn.Name()
	if p.symtab.ExistsInCurrentScope(name) {
		return newErr(nameTkn, DuplicateSym, true, "%q is already declared in this scope", name)
	}
	p.symtab.Store(name, sym)
	return nil
}

// ---- declarations ----

func (p *Parser) decl() (ast.Node, error) {
	switch p.curr.Kind {
	case token.Let:
		return p.varDecl()
	case token.Fn:
		return p.fnDecl(nil)
	case token.Class:
		return p.classDecl()
	default:
		return p.stmt()
	}
}

// varDecl parses `let [imm] name ~ type [= expr] ;`. The result is a
// *ast.VarDecl for a bare declaration or a *ast.VarAssign when an
// initializer is present; both store the symbol immediately so later
// statements in the same declaration list can refer to it.
func (p *Parser) varDecl() (ast.Node, error) {
	letTkn := p.curr
	if _, err := p.expect(token.Let); err != nil {
		return nil, err
	}
	isImm := p.match(token.Imm)

	nameTkn, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Tilde); err != nil {
		return nil, err
	}

	ty, tyTkn, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if ty.Kind == symtab.TyVoid {
		return nil, newErr(tyTkn, InvalidTy, true, "variable %q cannot be declared void", nameTkn.Name())
	}

	switch p.curr.Kind {
	case token.Eq:
		p.advance()
		val, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		sym := &symtab.Symbol{Kind: symtab.KindVar, Immutable: isImm, Ty: ty, NameTkn: nameTkn, Value: val}
		if err := p.declareSym(nameTkn, sym); err != nil {
			return nil, err
		}
		return &ast.VarAssign{
			Ty:        ast.TypeRecord{Ty: ty, Tkn: tyTkn},
			NameTkn:   nameTkn,
			Immutable: isImm,
			Global:    p.symtab.IsGlobal(),
			Value:     val,
		}, nil

	case token.Semicolon:
		p.advance()
		if isImm {
			return nil, newErr(letTkn, ImmDecl, true, "immutable variable %q must be initialized", nameTkn.Name())
		}
		if ty.Kind == symtab.TyClass {
			construct := &ast.ClassConstruct{Tkn: tyTkn, ClassName: ty.ClassName}
			sym := &symtab.Symbol{Kind: symtab.KindVar, Ty: ty, NameTkn: nameTkn, Value: construct}
			if err := p.declareSym(nameTkn, sym); err != nil {
				return nil, err
			}
			return &ast.VarAssign{
				Ty:      ast.TypeRecord{Ty: ty, Tkn: tyTkn},
				NameTkn: nameTkn,
				Global:  p.symtab.IsGlobal(),
				Value:   construct,
			}, nil
		}
		sym := &symtab.Symbol{Kind: symtab.KindVar, Ty: ty, NameTkn: nameTkn}
		if err := p.declareSym(nameTkn, sym); err != nil {
			return nil, err
		}
		return &ast.VarDecl{
			Ty:      ast.TypeRecord{Ty: ty, Tkn: tyTkn},
			NameTkn: nameTkn,
			Global:  p.symtab.IsGlobal(),
		}, nil

	default:
		return nil, newErr(p.curr, TknMismatch, true, "expected '=' or ';' after variable type, found %s", p.curr.Kind)
	}
}

// parseType consumes a built-in type keyword or a previously declared class
// name, returning the resolved type and the token it was spelled with.
func (p *Parser) parseType() (symtab.Ty, token.Token, error) {
	tkn := p.curr
	if tkn.Kind.IsType() {
		p.advance()
		switch tkn.Kind {
		case token.Num:
			return symtab.Ty{Kind: symtab.TyNum}, tkn, nil
		case token.String:
			return symtab.Ty{Kind: symtab.TyString}, tkn, nil
		case token.Bool:
			return symtab.Ty{Kind: symtab.TyBool}, tkn, nil
		default: // token.Void
			return symtab.Ty{Kind: symtab.TyVoid}, tkn, nil
		}
	}
	if tkn.Kind == token.Ident {
		sym := p.symtab.Retrieve(tkn.Name())
		if sym == nil || sym.Kind != symtab.KindClass {
			return symtab.Ty{}, tkn, newErr(tkn, InvalidTy, true, "%q is not a declared type", tkn.Name())
		}
		p.advance()
		return symtab.Ty{Kind: symtab.TyClass, ClassName: tkn.Name()}, tkn, nil
	}
	return symtab.Ty{}, tkn, newErr(tkn, InvalidTy, true, "expected a type, found %s", tkn.Kind)
}

// fnDecl parses `fn name ( params ) ~ retTy { body }`. The Fn symbol is
// stored before the body is parsed so recursive calls resolve, then its
// Value is rewritten to the finished *ast.FnDecl once the body is known.
// When cc is non-nil, the function is a class method parsed inside the
// class's member scope.
func (p *Parser) fnDecl(cc *classContext) (*ast.FnDecl, error) {
	if _, err := p.expect(token.Fn); err != nil {
		return nil, err
	}
	nameTkn, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LeftParen); err != nil {
		return nil, err
	}

	var params []ast.Param
	for p.curr.Kind != token.RightParen {
		if len(params) >= maxFnParams {
			return nil, newErr(nameTkn, FnParamCntExceeded, false, "function %q declares more than %d parameters", nameTkn.Name(), maxFnParams)
		}
		pname, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Tilde); err != nil {
			return nil, err
		}
		pty, _, err := p.parseType()
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{NameTkn: pname, Ty: pty})
		if !p.match(token.Comma) {
			break
		}
	}
	if _, err := p.expect(token.RightParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Tilde); err != nil {
		return nil, err
	}
	retTy, _, err := p.parseType()
	if err != nil {
		return nil, err
	}

	paramTys := make([]symtab.Ty, len(params))
	for i, pr := range params {
		paramTys[i] = pr.Ty
	}
	sym := &symtab.Symbol{Kind: symtab.KindFn, Ty: retTy, NameTkn: nameTkn, FnParams: paramTys}
	if err := p.declareSym(nameTkn, sym); err != nil {
		return nil, err
	}

	p.symtab.InitScope()
	for _, pr := range params {
		if err := p.declareSym(pr.NameTkn, &symtab.Symbol{Kind: symtab.KindParam, Ty: pr.Ty, NameTkn: pr.NameTkn}); err != nil {
			p.symtab.FinalizeScope()
			return nil, err
		}
	}

	prevCtx := p.classCtx
	p.classCtx = cc

	openTkn, err := p.expect(token.LeftBrace)
	if err != nil {
		p.classCtx = prevCtx
		p.symtab.FinalizeScope()
		return nil, err
	}
	stmts, err := p.stmtsUntil(token.RightBrace)
	p.classCtx = prevCtx
	if err != nil {
		p.symtab.FinalizeScope()
		return nil, err
	}
	if _, err := p.expect(token.RightBrace); err != nil {
		p.symtab.FinalizeScope()
		return nil, err
	}
	scopeID := p.symtab.FinalizeScope()

	fn := &ast.FnDecl{
		NameTkn: nameTkn,
		Params:  params,
		RetTy:   retTy,
		Body:    &ast.Block{Tkn: openTkn, Stmts: stmts, ScopeID: scopeID},
		ScopeID: scopeID,
	}
	sym.Value = fn
	return fn, nil
}

// classDecl parses `class name { members }`. Properties (`let` with no
// initializer) and methods are collected in the class's own member scope,
// which is finalized before the class symbol is stored in the enclosing
// scope — a method body can therefore never forward-reference the class
// itself.
func (p *Parser) classDecl() (*ast.ClassDecl, error) {
	if _, err := p.expect(token.Class); err != nil {
		return nil, err
	}
	nameTkn, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LeftBrace); err != nil {
		return nil, err
	}

	p.symtab.InitScope()

	var methods []*ast.FnDecl
	var props []*ast.VarDecl
	propTypes := make(map[string]symtab.Ty)
	cc := &classContext{name: nameTkn.Name(), propTypes: propTypes}

	for p.curr.Kind != token.RightBrace && p.curr.Kind != token.EOF {
		switch p.curr.Kind {
		case token.Let:
			n, err := p.varDecl()
			if err != nil {
				p.errs = append(p.errs, err)
				p.resync()
				continue
			}
			vd, ok := n.(*ast.VarDecl)
			if !ok {
				p.errs = append(p.errs, newErr(n.Pos(), InvalidClassProp, true, "class properties cannot be initialized"))
				continue
			}
			props = append(props, vd)
			propTypes[vd.NameTkn.Name()] = vd.Ty.Ty
		case token.Fn:
			m, err := p.fnDecl(cc)
			if err != nil {
				p.errs = append(p.errs, err)
				p.resync()
				continue
			}
			methods = append(methods, m)
		default:
			p.errs = append(p.errs, newErr(p.curr, InvalidTkn, true, "expected a property or method declaration inside class %q, found %s", nameTkn.Name(), p.curr.Kind))
			p.advance()
		}
	}
	if _, err := p.expect(token.RightBrace); err != nil {
		p.symtab.FinalizeScope()
		return nil, err
	}
	scopeID := p.symtab.FinalizeScope()

	propIndex := make(map[string]uint32, len(props))
	for i, pr := range props {
		propIndex[pr.NameTkn.Name()] = uint32(i)
	}
	methodRet := make(map[string]symtab.Ty, len(methods))
	methodParams := make(map[string][]symtab.Ty, len(methods))
	methodScope := make(map[string]int, len(methods))
	for _, m := range methods {
		paramTys := make([]symtab.Ty, len(m.Params))
		for i, pr := range m.Params {
			paramTys[i] = pr.Ty
		}
		methodRet[m.NameTkn.Name()] = m.RetTy
		methodParams[m.NameTkn.Name()] = paramTys
		methodScope[m.NameTkn.Name()] = m.ScopeID
	}

	class := &ast.ClassDecl{NameTkn: nameTkn, Methods: methods, Props: props, PropIndex: propIndex, ScopeID: scopeID}
	sym := &symtab.Symbol{
		Kind:          symtab.KindClass,
		Ty:            symtab.Ty{Kind: symtab.TyClass, ClassName: nameTkn.Name()},
		NameTkn:       nameTkn,
		Value:         class,
		PropIndex:     propIndex,
		PropTypes:     propTypes,
		MethodRet:     methodRet,
		MethodParams:  methodParams,
		MethodScopeID: methodScope,
	}
	if err := p.declareSym(nameTkn, sym); err != nil {
		return nil, err
	}
	return class, nil
}

// ---- statements ----

// stmtsUntil parses statements until the current token is end or EOF,
// accumulating continuable errors and resynchronizing at `;`/`}`.
func (p *Parser) stmtsUntil(end token.Kind) ([]ast.Node, error) {
	var stmts []ast.Node
	for p.curr.Kind != end && p.curr.Kind != token.EOF {
		s, err := p.decl()
		if err != nil {
			p.errs = append(p.errs, err)
			if pe, ok := err.(*ParseError); ok && !pe.Continuable {
				return stmts, err
			}
			p.resync()
			continue
		}
		if s != nil {
			stmts = append(stmts, s)
		}
	}
	return stmts, nil
}

func (p *Parser) block() (*ast.Block, error) {
	openTkn, err := p.expect(token.LeftBrace)
	if err != nil {
		return nil, err
	}
	p.symtab.InitScope()
	stmts, err := p.stmtsUntil(token.RightBrace)
	if err != nil {
		p.symtab.FinalizeScope()
		return nil, err
	}
	if _, err := p.expect(token.RightBrace); err != nil {
		p.symtab.FinalizeScope()
		return nil, err
	}
	scopeID := p.symtab.FinalizeScope()
	return &ast.Block{Tkn: openTkn, Stmts: stmts, ScopeID: scopeID}, nil
}

func (p *Parser) stmt() (ast.Node, error) {
	switch p.curr.Kind {
	case token.LeftBrace:
		return p.block()
	case token.If:
		return p.ifStmt()
	case token.While:
		return p.whileStmt()
	case token.For:
		return p.forStmt()
	case token.Return:
		return p.returnStmt()
	default:
		return p.exprStmt()
	}
}

func (p *Parser) ifStmt() (ast.Node, error) {
	tkn := p.curr
	if _, err := p.expect(token.If); err != nil {
		return nil, err
	}
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	thenBlk, err := p.block()
	if err != nil {
		return nil, err
	}
	node := &ast.If{Tkn: tkn, Cond: cond, Then: thenBlk}
	for p.curr.Kind == token.Elif {
		p.advance()
		c, err := p.expr()
		if err != nil {
			return nil, err
		}
		b, err := p.block()
		if err != nil {
			return nil, err
		}
		node.Elifs = append(node.Elifs, ast.ElifArm{Cond: c, Then: b})
	}
	if p.curr.Kind == token.Else {
		p.advance()
		b, err := p.block()
		if err != nil {
			return nil, err
		}
		node.Else = b
	}
	return node, nil
}

func (p *Parser) whileStmt() (ast.Node, error) {
	tkn := p.curr
	if _, err := p.expect(token.While); err != nil {
		return nil, err
	}
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.While{Tkn: tkn, Cond: cond, Body: body}, nil
}

// forStmt parses `for var_decl expr ; expr ; block`. The loop variable is
// declared in the surrounding scope (it is not its own scope, only the
// body is): only the body gets its own scope, not the init declaration.
func (p *Parser) forStmt() (ast.Node, error) {
	tkn := p.curr
	if _, err := p.expect(token.For); err != nil {
		return nil, err
	}
	if p.curr.Kind != token.Let {
		return nil, newErr(p.curr, InvalidForStmt, true, "for loop requires a variable declaration clause")
	}
	init, err := p.varDecl()
	if err != nil {
		return nil, err
	}
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	step, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.For{Tkn: tkn, Init: init, Cond: cond, Step: step, Body: body}, nil
}

func (p *Parser) returnStmt() (ast.Node, error) {
	tkn := p.curr
	if _, err := p.expect(token.Return); err != nil {
		return nil, err
	}
	if p.curr.Kind == token.Semicolon {
		p.advance()
		return &ast.Return{Tkn: tkn}, nil
	}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return &ast.Return{Tkn: tkn, Expr: e}, nil
}

func (p *Parser) exprStmt() (ast.Node, error) {
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Expr: e}, nil
}

// ---- expressions (precedence climbing) ----

func (p *Parser) expr() (ast.Node, error) {
	return p.assignment()
}

// assignment is right-associative; its left-hand side must resolve to a
// plain identifier (rewritten into a reassigning *ast.VarAssign) or a class
// property access (rewritten into *ast.ClassPropSet). Anything else on the
// left of `=` is an InvalidAssign diagnostic.
func (p *Parser) assignment() (ast.Node, error) {
	lhs, err := p.logicalOr()
	if err != nil {
		return nil, err
	}
	if p.curr.Kind != token.Eq {
		return lhs, nil
	}
	eqTkn := p.curr
	p.advance()
	rhs, err := p.assignment()
	if err != nil {
		return nil, err
	}
	switch l := lhs.(type) {
	case *ast.Primary:
		if l.Tkn.Kind != token.Ident {
			return nil, newErr(eqTkn, InvalidAssign, true, "invalid assignment target")
		}
		name := l.Tkn.Name()
		sym := p.symtab.Retrieve(name)
		if sym == nil {
			return nil, newErr(l.Tkn, UndeclaredSym, true, "undeclared symbol %q", name)
		}
		if sym.Immutable {
			return nil, newErr(l.Tkn, InvalidImmAssign, true, "cannot assign to immutable variable %q", name)
		}
		return &ast.VarAssign{
			Ty:      ast.TypeRecord{Ty: sym.Ty, Tkn: sym.NameTkn},
			NameTkn: l.Tkn,
			Global:  p.symtab.IsGlobal(),
			Value:   rhs,
		}, nil
	case *ast.ClassPropAccess:
		return &ast.ClassPropSet{RecvTkn: l.RecvTkn, PropName: l.PropName, Idx: l.Idx, Owner: l.Owner, Value: rhs}, nil
	default:
		return nil, newErr(eqTkn, InvalidAssign, true, "invalid assignment target")
	}
}

func (p *Parser) logicalOr() (ast.Node, error) {
	lhs, err := p.logicalAnd()
	if err != nil {
		return nil, err
	}
	for p.curr.Kind == token.PipePipe || p.curr.Kind == token.Or {
		op := p.curr
		p.advance()
		rhs, err := p.logicalAnd()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Logical{Ty: symtab.Ty{Kind: symtab.TyBool}, Op: op, Lhs: lhs, Rhs: rhs}
	}
	return lhs, nil
}

func (p *Parser) logicalAnd() (ast.Node, error) {
	lhs, err := p.equality()
	if err != nil {
		return nil, err
	}
	for p.curr.Kind == token.AmpAmp || p.curr.Kind == token.And {
		op := p.curr
		p.advance()
		rhs, err := p.equality()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Logical{Ty: symtab.Ty{Kind: symtab.TyBool}, Op: op, Lhs: lhs, Rhs: rhs}
	}
	return lhs, nil
}

func (p *Parser) equality() (ast.Node, error) {
	lhs, err := p.comparison()
	if err != nil {
		return nil, err
	}
	for p.curr.Kind == token.EqEq || p.curr.Kind == token.BangEq {
		op := p.curr
		p.advance()
		rhs, err := p.comparison()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Binary{Ty: symtab.Ty{Kind: symtab.TyBool}, Op: op, Lhs: lhs, Rhs: rhs}
	}
	return lhs, nil
}

func (p *Parser) comparison() (ast.Node, error) {
	lhs, err := p.additive()
	if err != nil {
		return nil, err
	}
	for p.curr.Kind == token.Lt || p.curr.Kind == token.LtEq || p.curr.Kind == token.Gt || p.curr.Kind == token.GtEq {
		op := p.curr
		p.advance()
		rhs, err := p.additive()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Binary{Ty: symtab.Ty{Kind: symtab.TyBool}, Op: op, Lhs: lhs, Rhs: rhs}
	}
	return lhs, nil
}

func (p *Parser) additive() (ast.Node, error) {
	lhs, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for p.curr.Kind == token.Plus || p.curr.Kind == token.Minus {
		op := p.curr
		p.advance()
		rhs, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Binary{Ty: symtab.Ty{Kind: symtab.TyNum}, Op: op, Lhs: lhs, Rhs: rhs}
	}
	return lhs, nil
}

func (p *Parser) multiplicative() (ast.Node, error) {
	lhs, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.curr.Kind == token.Star || p.curr.Kind == token.Slash {
		op := p.curr
		p.advance()
		rhs, err := p.unary()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Binary{Ty: symtab.Ty{Kind: symtab.TyNum}, Op: op, Lhs: lhs, Rhs: rhs}
	}
	return lhs, nil
}

func (p *Parser) unary() (ast.Node, error) {
	if p.curr.Kind == token.Bang {
		op := p.curr
		p.advance()
		rhs, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Ty: symtab.Ty{Kind: symtab.TyBool}, Op: op, Rhs: rhs}, nil
	}
	if p.curr.Kind == token.Minus {
		op := p.curr
		p.advance()
		rhs, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Ty: symtab.Ty{Kind: symtab.TyNum}, Op: op, Rhs: rhs}, nil
	}
	return p.primary()
}

// primary parses a literal or identifier and then any trailing call/member
// chain (`(args)` and `.member`).
func (p *Parser) primary() (ast.Node, error) {
	node, err := p.basePrimary()
	if err != nil {
		return nil, err
	}
	recv := node.Pos()
	for {
		switch p.curr.Kind {
		case token.LeftParen:
			prim, ok := node.(*ast.Primary)
			if !ok || prim.Tkn.Kind != token.Ident {
				return nil, newErr(p.curr, InvalidIdent, true, "cannot call a non-function expression")
			}
			name := prim.Tkn.Name()
			sym := p.symtab.Retrieve(name)
			if sym == nil || sym.Kind != symtab.KindFn {
				return nil, newErr(prim.Tkn, UndeclaredSym, false, "call to undeclared function %q", name)
			}
			p.advance()
			args, err := p.argList()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RightParen); err != nil {
				return nil, err
			}
			if len(args) != len(sym.FnParams) {
				return nil, newErr(prim.Tkn, WrongFnParamCnt, true, "function %q expects %d arguments, found %d", name, len(sym.FnParams), len(args))
			}
			node = &ast.FnCall{FnTkn: prim.Tkn, Args: args}

		case token.Period:
			p.advance()
			memberTkn, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}
			className, ok := p.classNameOf(node)
			if !ok {
				return nil, newErr(memberTkn, InvalidClassProp, true, "%q is not a class-typed value", memberTkn.Name())
			}
			classSym := p.symtab.Retrieve(className)
			if classSym == nil {
				return nil, newErr(memberTkn, UndeclaredSym, false, "undeclared class %q", className)
			}
			memberName := memberTkn.Name()

			if p.curr.Kind == token.LeftParen {
				paramTys, ok := classSym.MethodParams[memberName]
				if !ok {
					return nil, newErr(memberTkn, UndeclaredSym, true, "class %q has no method %q", className, memberName)
				}
				p.advance()
				args, err := p.argList()
				if err != nil {
					return nil, err
				}
				if _, err := p.expect(token.RightParen); err != nil {
					return nil, err
				}
				if len(args) != len(paramTys) {
					return nil, newErr(memberTkn, WrongFnParamCnt, true, "method %s.%s expects %d arguments, found %d", className, memberName, len(paramTys), len(args))
				}
				node = &ast.ClassFnCall{
					RecvTkn:   recv,
					ClassName: className,
					FnTkn:     memberTkn,
					Args:      args,
					ScopeID:   classSym.MethodScopeID[memberName],
				}
			} else {
				idx, ok := classSym.PropIndex[memberName]
				if !ok {
					return nil, newErr(memberTkn, UndeclaredSym, true, "class %q has no property %q", className, memberName)
				}
				node = &ast.ClassPropAccess{RecvTkn: recv, PropName: memberName, Idx: idx, Owner: className}
			}

		default:
			return node, nil
		}
	}
}

// classNameOf reports the class name of an already-built node's static
// type, if it has one, so a following `.member` can resolve against that
// class's symbol.
func (p *Parser) classNameOf(node ast.Node) (string, bool) {
	switch n := node.(type) {
	case *ast.Primary:
		if n.Ty.Ty.Kind == symtab.TyClass {
			return n.Ty.Ty.ClassName, true
		}
	case *ast.ClassConstruct:
		return n.ClassName, true
	case *ast.ClassPropAccess:
		if owner := p.symtab.Retrieve(n.Owner); owner != nil {
			if ty, ok := owner.PropTypes[n.PropName]; ok && ty.Kind == symtab.TyClass {
				return ty.ClassName, true
			}
		}
	case *ast.ClassFnCall:
		if owner := p.symtab.Retrieve(n.ClassName); owner != nil {
			if ty, ok := owner.MethodRet[n.FnTkn.Name()]; ok && ty.Kind == symtab.TyClass {
				return ty.ClassName, true
			}
		}
	}
	return "", false
}

func (p *Parser) argList() ([]ast.Node, error) {
	var args []ast.Node
	if p.curr.Kind == token.RightParen {
		return args, nil
	}
	for {
		a, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if !p.match(token.Comma) {
			break
		}
	}
	return args, nil
}

// basePrimary parses a single literal or identifier, with no trailing call
// or member access.
func (p *Parser) basePrimary() (ast.Node, error) {
	tkn := p.curr
	switch tkn.Kind {
	case token.Val:
		p.advance()
		return &ast.Primary{Ty: ast.TypeRecord{Ty: symtab.Ty{Kind: symtab.TyNum}, Tkn: tkn}, Tkn: tkn}, nil
	case token.Str:
		p.advance()
		return &ast.Primary{Ty: ast.TypeRecord{Ty: symtab.Ty{Kind: symtab.TyString}, Tkn: tkn}, Tkn: tkn}, nil
	case token.True, token.False:
		p.advance()
		return &ast.Primary{Ty: ast.TypeRecord{Ty: symtab.Ty{Kind: symtab.TyBool}, Tkn: tkn}, Tkn: tkn}, nil
	case token.Null:
		p.advance()
		return &ast.Primary{Ty: ast.TypeRecord{Ty: symtab.Ty{Kind: symtab.TyVoid}, Tkn: tkn}, Tkn: tkn}, nil
	case token.LeftParen:
		p.advance()
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RightParen); err != nil {
			return nil, err
		}
		return e, nil
	case token.Ident:
		return p.identPrimary(tkn)
	default:
		return nil, newErr(tkn, InvalidTkn, true, "unexpected token %s in expression", tkn.Kind)
	}
}

// identPrimary resolves an identifier reference, applying the unassigned-
// variable check and the class-property fallback described above.
func (p *Parser) identPrimary(tkn token.Token) (ast.Node, error) {
	name := tkn.Name()
	sym := p.symtab.Retrieve(name)
	if sym == nil {
		if p.classCtx != nil {
			if propTy, ok := p.classCtx.propTypes[name]; ok {
				p.advance()
				return &ast.Primary{Ty: ast.TypeRecord{Ty: propTy, Tkn: tkn}, Tkn: tkn}, nil
			}
		}
		return nil, newErr(tkn, UndeclaredSym, true, "undeclared symbol %q", name)
	}
	if sym.Kind == symtab.KindVar && sym.Value == nil {
		isProp := false
		if p.classCtx != nil {
			_, isProp = p.classCtx.propTypes[name]
		}
		if !isProp && p.peek().Kind != token.Eq {
			return nil, newErr(tkn, UnassignedVar, true, "use of unassigned variable %q", name)
		}
	}
	p.advance()
	return &ast.Primary{Ty: ast.TypeRecord{Ty: sym.Ty, Tkn: sym.NameTkn}, Tkn: tkn}, nil
}
