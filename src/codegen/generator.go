// Package codegen walks a type-checked kolga AST and emits LLVM IR through
// tinygo.org/x/go-llvm's cgo bindings to the system LLVM C API. It is a
// single forward pass: statements and expressions are lowered in tree
// order, with no separate optimization or validation pass.
//
// The instruction-building patterns — entry-block alloca via a throwaway
// sub-builder, PHI stitching for if/elif/else, named structs for classes —
// are the standard idioms for a tree-walking LLVM frontend; the
// class/self-pointer lowering has no analogue in a language without
// classes and is original to this generator.
package codegen

import (
	"kolga/src/ast"
	"kolga/src/symtab"
	"kolga/src/token"

	"tinygo.org/x/go-llvm"
)

// Generator lowers an *ast.Program to an LLVM module.
type Generator struct {
	ctx     llvm.Context
	builder llvm.Builder
	mod     llvm.Module
	vals    *ValueTable
	classes *ClassTable

	// selfPtr/selfClass are set while generating a method body: selfPtr is
	// the raw LLVM pointer-to-struct value for the synthetic self
	// parameter (no alloca indirection, see genFnDecl), and selfClass is
	// its declaration, consulted when a bare identifier inside the body
	// isn't a local or parameter but is one of the class's own
	// properties.
	selfPtr   llvm.Value
	selfClass *ast.ClassDecl
}

// New returns a Generator ready to lower a program into a module named
// moduleName.
func New(moduleName string) *Generator {
	ctx := llvm.NewContext()
	b := ctx.NewBuilder()
	m := ctx.NewModule(moduleName)
	return &Generator{
		ctx:     ctx,
		builder: b,
		mod:     m,
		vals:    NewValueTable(),
		classes: NewClassTable(),
	}
}

// Dispose releases the underlying LLVM context, builder, and module. Call
// it once the generated IR (via IR) has been consumed.
func (g *Generator) Dispose() {
	g.builder.Dispose()
	g.mod.Dispose()
	g.ctx.Dispose()
}

// IR returns the generated module's textual LLVM IR.
func (g *Generator) IR() string {
	return g.mod.String()
}

// Gen lowers every top-level declaration in prog. It keeps going after a
// failing declaration, so later independent declarations are still lowered,
// and returns only the first error; the later ones are not kept.
func (g *Generator) Gen(prog *ast.Program) error {
	var first error
	for _, n := range prog.Stmts {
		if err := g.genTop(n); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (g *Generator) genTop(n ast.Node) error {
	switch s := n.(type) {
	case *ast.VarDecl:
		return g.genGlobalVarDecl(s)
	case *ast.VarAssign:
		return g.genGlobalVarAssign(s)
	case *ast.FnDecl:
		_, err := g.genFnDecl(s, nil)
		return err
	case *ast.ClassDecl:
		return g.genClassDecl(s)
	default:
		return errf("unexpected top-level node %T", n)
	}
}

func (g *Generator) genGlobalVarDecl(n *ast.VarDecl) error {
	llTy := g.llvmType(n.Ty.Ty)
	global := llvm.AddGlobal(g.mod, llTy, n.NameTkn.Name())
	g.vals.Store(n.NameTkn.Name(), global)
	return nil
}

func (g *Generator) genGlobalVarAssign(n *ast.VarAssign) error {
	name := n.NameTkn.Name()
	if cc, ok := n.Value.(*ast.ClassConstruct); ok {
		structTy, ok := g.classes.Lookup(cc.ClassName)
		if !ok {
			return errf("unknown class %q", cc.ClassName)
		}
		global := llvm.AddGlobal(g.mod, structTy, name)
		g.vals.Store(name, global)
		return nil
	}
	if !isConstExpr(n.Value) {
		return errf("global %q initializer is not a constant expression", name)
	}
	llTy := g.llvmType(n.Ty.Ty)
	global := llvm.AddGlobal(g.mod, llTy, name)
	val, err := g.genExpr(n.Value)
	if err != nil {
		return err
	}
	global.SetInitializer(val)
	g.vals.Store(name, global)
	return nil
}

// isConstExpr reports whether n is a literal, or a literal negated by unary
// minus — the only shapes genGlobalVarAssign may fold into a global
// initializer without a valid insertion point to run ordinary instruction
// builders against.
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
	default:
		return false
	}
}

// genClassDecl lowers a class to a named LLVM struct type and then
// generates each of its methods as an ordinary top-level function, name-
// mangled to "Class.method" with a synthetic pointer-to-struct "self"
// parameter prepended — methods don't belong to the class in the emitted
// IR, they just share its name prefix.
func (g *Generator) genClassDecl(cd *ast.ClassDecl) error {
	propTys := make([]llvm.Type, len(cd.Props))
	for i, pr := range cd.Props {
		propTys[i] = g.llvmType(pr.Ty.Ty)
	}
	structTy := g.ctx.StructCreateNamed(cd.NameTkn.Name())
	structTy.StructSetBody(propTys, false)
	g.classes.Store(cd.NameTkn.Name(), structTy, propTys)

	for _, m := range cd.Methods {
		if _, err := g.genFnDecl(m, cd); err != nil {
			return err
		}
	}
	return nil
}

// genFnDecl lowers a function or method declaration. selfClass is non-nil
// for a method, triggering self-pointer injection and name mangling.
func (g *Generator) genFnDecl(fn *ast.FnDecl, selfClass *ast.ClassDecl) (llvm.Value, error) {
	mangled := fn.NameTkn.Name()
	if selfClass != nil {
		mangled = selfClass.NameTkn.Name() + "." + mangled
	}

	type paramSpec struct {
		name   string
		ty     symtab.Ty
		isSelf bool
	}
	var specs []paramSpec
	if selfClass != nil {
		specs = append(specs, paramSpec{
			name:   "self",
			ty:     symtab.Ty{Kind: symtab.TyClass, ClassName: selfClass.NameTkn.Name()},
			isSelf: true,
		})
	}
	for _, p := range fn.Params {
		specs = append(specs, paramSpec{name: p.NameTkn.Name(), ty: p.Ty})
	}

	llParamTys := make([]llvm.Type, len(specs))
	for i, s := range specs {
		llParamTys[i] = g.llvmType(s.ty)
	}
	llvmFn := llvm.AddFunction(g.mod, mangled, llvm.FunctionType(g.llvmType(fn.RetTy), llParamTys, false))
	g.vals.Store(mangled, llvmFn) // stored before the body so recursive calls resolve.

	entry := llvm.AddBasicBlock(llvmFn, "entry")
	g.builder.SetInsertPointAtEnd(entry)
	g.vals.InitScope()

	prevSelfPtr, prevSelfClass := g.selfPtr, g.selfClass
	g.selfPtr, g.selfClass = llvm.Value{}, nil

	llParams := llvmFn.Params()
	for i, s := range specs {
		pv := llParams[i]
		pv.SetName(s.name)
		if s.ty.Kind == symtab.TyClass {
			// Class-typed bindings are always stored as a ready-to-GEP
			// pointer, never behind an extra alloca indirection, so a
			// parameter and a local `let x ~ Class;` read the same way.
			g.vals.Store(s.name, pv)
			if s.isSelf {
				g.selfPtr = pv
				g.selfClass = selfClass
			}
			continue
		}
		alloca := g.buildEntryAlloca(llvmFn, llParamTys[i], s.name)
		g.builder.CreateStore(pv, alloca)
		g.vals.Store(s.name, alloca)
	}

	_, _, terminated, err := g.genBlockStmts(fn.Body.Stmts)
	if err == nil && !terminated {
		if fn.RetTy.Kind == symtab.TyVoid {
			g.builder.CreateRetVoid()
		} else {
			g.builder.CreateRet(g.zeroValue(fn.RetTy))
		}
	}

	g.vals.CloseScope()
	g.selfPtr, g.selfClass = prevSelfPtr, prevSelfClass
	return llvmFn, err
}

// buildEntryAlloca allocates ty at the top of fn's entry block, using a
// throwaway builder so the caller's own insert point is untouched. Placing
// every alloca at the entry block (rather than wherever the declaration
// textually sits) is what lets LLVM's mem2reg promote them to registers.
func (g *Generator) buildEntryAlloca(fn llvm.Value, ty llvm.Type, name string) llvm.Value {
	tmp := g.ctx.NewBuilder()
	defer tmp.Dispose()
	entry := fn.EntryBasicBlock()
	if first := entry.FirstInstruction(); !first.IsNil() {
		tmp.SetInsertPointBefore(first)
	} else {
		tmp.SetInsertPointAtEnd(entry)
	}
	return tmp.CreateAlloca(ty, name)
}

// ---- statements ----

// genBlockStmts lowers a statement list and reports the value of its last
// expression-statement (if any) together with whether control flow already
// terminated via an explicit return, the two pieces of information the
// if/while/for merge-block PHI stitching needs from a predecessor block.
func (g *Generator) genBlockStmts(stmts []ast.Node) (val llvm.Value, hasVal bool, terminated bool, err error) {
	for _, s := range stmts {
		switch st := s.(type) {
		case *ast.Return:
			if st.Expr != nil {
				v, rerr := g.genExpr(st.Expr)
				if rerr != nil {
					return llvm.Value{}, false, false, rerr
				}
				g.builder.CreateRet(v)
			} else {
				g.builder.CreateRetVoid()
			}
			return llvm.Value{}, false, true, nil
		case *ast.ExprStmt:
			v, rerr := g.genExpr(st.Expr)
			if rerr != nil {
				return llvm.Value{}, false, false, rerr
			}
			val, hasVal = v, true
		default:
			term, rerr := g.genNonValueStmt(s)
			if rerr != nil {
				return llvm.Value{}, false, false, rerr
			}
			if term {
				return llvm.Value{}, false, true, nil
			}
		}
	}
	return val, hasVal, false, nil
}

func (g *Generator) genNonValueStmt(n ast.Node) (terminated bool, err error) {
	switch s := n.(type) {
	case *ast.VarDecl:
		return false, g.genLocalVarDecl(s)
	case *ast.VarAssign:
		return false, g.genLocalVarAssignDecl(s)
	case *ast.Block:
		g.vals.InitScope()
		_, _, term, err := g.genBlockStmts(s.Stmts)
		g.vals.CloseScope()
		return term, err
	case *ast.If:
		return g.genIf(s)
	case *ast.While:
		return g.genWhile(s)
	case *ast.For:
		return g.genFor(s)
	default:
		return false, errf("unexpected statement node %T", n)
	}
}

func (g *Generator) genLocalVarDecl(n *ast.VarDecl) error {
	fn := g.builder.GetInsertBlock().Parent()
	alloca := g.buildEntryAlloca(fn, g.llvmType(n.Ty.Ty), n.NameTkn.Name())
	g.vals.Store(n.NameTkn.Name(), alloca)
	return nil
}

func (g *Generator) genLocalVarAssignDecl(n *ast.VarAssign) error {
	fn := g.builder.GetInsertBlock().Parent()
	name := n.NameTkn.Name()
	if cc, ok := n.Value.(*ast.ClassConstruct); ok {
		structTy, ok := g.classes.Lookup(cc.ClassName)
		if !ok {
			return errf("unknown class %q", cc.ClassName)
		}
		alloca := g.buildEntryAlloca(fn, structTy, name)
		g.vals.Store(name, alloca)
		return nil
	}
	alloca := g.buildEntryAlloca(fn, g.llvmType(n.Ty.Ty), name)
	val, err := g.genExpr(n.Value)
	if err != nil {
		return err
	}
	g.builder.CreateStore(val, alloca)
	g.vals.Store(name, alloca)
	return nil
}

// armResult is what generating one if/elif/else or loop-body block leaves
// behind for its caller to stitch into a PHI.
type armResult struct {
	val        llvm.Value
	hasVal     bool
	terminated bool
	endBB      llvm.BasicBlock
}

func (g *Generator) genArm(blk *ast.Block) (armResult, error) {
	g.vals.InitScope()
	val, hasVal, term, err := g.genBlockStmts(blk.Stmts)
	g.vals.CloseScope()
	if err != nil {
		return armResult{}, err
	}
	return armResult{val: val, hasVal: hasVal, terminated: term, endBB: g.builder.GetInsertBlock()}, nil
}

// genIf lowers if/elif*/else. Every arm branches to a shared merge block
// carrying a PHI of the arm's last expression value, so an if-chain can
// itself be used as an expression; an arm that already returned
// contributes no incoming edge. Blocks are reordered
// then/elifcond/elifblck/.../el/merge regardless of generation order, to
// keep the emitted layout predictable.
func (g *Generator) genIf(n *ast.If) (bool, error) {
	fn := g.builder.GetInsertBlock().Parent()
	thenBB := llvm.AddBasicBlock(fn, "then")

	elifCondBBs := make([]llvm.BasicBlock, len(n.Elifs))
	elifBodyBBs := make([]llvm.BasicBlock, len(n.Elifs))
	for i := range n.Elifs {
		elifCondBBs[i] = llvm.AddBasicBlock(fn, "elifcond")
		elifBodyBBs[i] = llvm.AddBasicBlock(fn, "elifblck")
	}
	hasElse := n.Else != nil
	var elseBB llvm.BasicBlock
	if hasElse {
		elseBB = llvm.AddBasicBlock(fn, "el")
	}
	mergeBB := llvm.AddBasicBlock(fn, "merge")

	prev := thenBB
	for i := range n.Elifs {
		elifCondBBs[i].MoveAfter(prev)
		elifBodyBBs[i].MoveAfter(elifCondBBs[i])
		prev = elifBodyBBs[i]
	}
	if hasElse {
		elseBB.MoveAfter(prev)
		prev = elseBB
	}
	mergeBB.MoveAfter(prev)

	insertBB := g.builder.GetInsertBlock()
	g.builder.SetInsertPointAtEnd(mergeBB)
	phi := g.builder.CreatePHI(g.ctx.DoubleType(), "phi")
	g.builder.SetInsertPointAtEnd(insertBB)

	condVal, err := g.genExpr(n.Cond)
	if err != nil {
		return false, err
	}
	falseDest := mergeBB
	switch {
	case len(n.Elifs) > 0:
		falseDest = elifCondBBs[0]
	case hasElse:
		falseDest = elseBB
	}
	g.builder.CreateCondBr(condVal, thenBB, falseDest)

	contributed := false
	allTerminate := true

	g.builder.SetInsertPointAtEnd(thenBB)
	thenRes, err := g.genArm(n.Then)
	if err != nil {
		return false, err
	}
	if !thenRes.terminated {
		g.builder.CreateBr(mergeBB)
		phi.AddIncoming([]llvm.Value{g.armValue(thenRes)}, []llvm.BasicBlock{thenRes.endBB})
		contributed = true
		allTerminate = false
	}

	for i, arm := range n.Elifs {
		g.builder.SetInsertPointAtEnd(elifCondBBs[i])
		cv, err := g.genExpr(arm.Cond)
		if err != nil {
			return false, err
		}
		dest := mergeBB
		switch {
		case i < len(n.Elifs)-1:
			dest = elifCondBBs[i+1]
		case hasElse:
			dest = elseBB
		}
		g.builder.CreateCondBr(cv, elifBodyBBs[i], dest)

		g.builder.SetInsertPointAtEnd(elifBodyBBs[i])
		res, err := g.genArm(arm.Then)
		if err != nil {
			return false, err
		}
		if !res.terminated {
			g.builder.CreateBr(mergeBB)
			phi.AddIncoming([]llvm.Value{g.armValue(res)}, []llvm.BasicBlock{res.endBB})
			contributed = true
			allTerminate = false
		}
	}

	if hasElse {
		g.builder.SetInsertPointAtEnd(elseBB)
		res, err := g.genArm(n.Else)
		if err != nil {
			return false, err
		}
		if !res.terminated {
			g.builder.CreateBr(mergeBB)
			phi.AddIncoming([]llvm.Value{g.armValue(res)}, []llvm.BasicBlock{res.endBB})
			contributed = true
			allTerminate = false
		}
	} else {
		allTerminate = false // no else means the condition's false edge always reaches merge directly.
	}

	g.builder.SetInsertPointAtEnd(mergeBB)
	if !contributed && hasElse {
		g.builder.CreateUnreachable()
		return true, nil
	}
	return allTerminate, nil
}

func (g *Generator) armValue(r armResult) llvm.Value {
	if r.hasVal {
		return r.val
	}
	return llvm.ConstFloat(g.ctx.DoubleType(), 0)
}

// genWhile lowers a while loop. It needs no PHI: the loop produces no
// value, only `while` and `merge` blocks, and the condition is evaluated in
// the caller's current block rather than a dedicated entry block (contrast
// with genFor).
func (g *Generator) genWhile(n *ast.While) (bool, error) {
	fn := g.builder.GetInsertBlock().Parent()
	whileBB := llvm.AddBasicBlock(fn, "while")
	mergeBB := llvm.AddBasicBlock(fn, "merge")

	cond, err := g.genExpr(n.Cond)
	if err != nil {
		return false, err
	}
	g.builder.CreateCondBr(cond, whileBB, mergeBB)

	g.builder.SetInsertPointAtEnd(whileBB)
	res, err := g.genArm(n.Body)
	if err != nil {
		return false, err
	}
	if !res.terminated {
		cond2, err := g.genExpr(n.Cond)
		if err != nil {
			return false, err
		}
		g.builder.CreateCondBr(cond2, whileBB, mergeBB)
	}

	g.builder.SetInsertPointAtEnd(mergeBB)
	return false, nil
}

// genFor lowers a for loop: `entry` declares the loop variable and
// branches unconditionally into `for`, which evaluates the body, the step
// expression, and the condition before branching back to `for` or out to
// `merge`. A PHI in merge collects the body's last value, so a for loop,
// like an if-chain, can be used as an expression.
func (g *Generator) genFor(n *ast.For) (bool, error) {
	fn := g.builder.GetInsertBlock().Parent()
	entryBB := llvm.AddBasicBlock(fn, "entry")
	forBB := llvm.AddBasicBlock(fn, "for")
	mergeBB := llvm.AddBasicBlock(fn, "merge")

	g.builder.CreateBr(entryBB)
	g.builder.SetInsertPointAtEnd(entryBB)
	if _, err := g.genNonValueStmt(n.Init); err != nil {
		return false, err
	}
	g.builder.CreateBr(forBB)

	insertBB := g.builder.GetInsertBlock()
	g.builder.SetInsertPointAtEnd(mergeBB)
	phi := g.builder.CreatePHI(g.ctx.DoubleType(), "phi")
	g.builder.SetInsertPointAtEnd(insertBB)

	g.builder.SetInsertPointAtEnd(forBB)
	res, err := g.genArm(n.Body)
	if err != nil {
		return false, err
	}
	if !res.terminated {
		if _, err := g.genExpr(n.Step); err != nil {
			return false, err
		}
		cond, err := g.genExpr(n.Cond)
		if err != nil {
			return false, err
		}
		endBB := g.builder.GetInsertBlock()
		g.builder.CreateCondBr(cond, forBB, mergeBB)
		g.builder.SetInsertPointAtEnd(mergeBB)
		phi.AddIncoming([]llvm.Value{g.armValue(res)}, []llvm.BasicBlock{endBB})
		return false, nil
	}

	g.builder.SetInsertPointAtEnd(mergeBB)
	g.builder.CreateUnreachable()
	return true, nil
}

// ---- expressions ----

func (g *Generator) genExpr(n ast.Node) (llvm.Value, error) {
	switch e := n.(type) {
	case *ast.Primary:
		return g.genPrimary(e)
	case *ast.Unary:
		return g.genUnary(e)
	case *ast.Binary:
		return g.genOp(e.Op, e.Lhs, e.Rhs)
	case *ast.Logical:
		return g.genOp(e.Op, e.Lhs, e.Rhs)
	case *ast.FnCall:
		return g.genFnCall(e)
	case *ast.ClassFnCall:
		return g.genClassFnCall(e)
	case *ast.ClassPropAccess:
		return g.genPropAccess(e)
	case *ast.ClassPropSet:
		return g.genPropSet(e)
	case *ast.ClassConstruct:
		structTy, ok := g.classes.Lookup(e.ClassName)
		if !ok {
			return llvm.Value{}, errf("unknown class %q", e.ClassName)
		}
		return g.builder.CreateAlloca(structTy, "x"), nil
	case *ast.VarAssign:
		return g.genReassign(e)
	default:
		return llvm.Value{}, errf("unexpected expression node %T", n)
	}
}

func (g *Generator) genPrimary(e *ast.Primary) (llvm.Value, error) {
	switch e.Tkn.Kind {
	case token.Val:
		return llvm.ConstFloat(g.ctx.DoubleType(), e.Tkn.Num), nil
	case token.Str:
		return g.builder.CreateGlobalStringPtr(e.Tkn.Lexeme, ""), nil
	case token.True:
		return llvm.ConstInt(g.ctx.Int8Type(), 1, false), nil
	case token.False:
		return llvm.ConstInt(g.ctx.Int8Type(), 0, false), nil
	case token.Null:
		return g.zeroValue(e.Ty.Ty), nil
	case token.Ident:
		name := e.Tkn.Name()
		if v, ok := g.vals.Retrieve(name); ok {
			if e.Ty.Ty.Kind == symtab.TyClass {
				return v, nil // already a ready-to-GEP pointer, see genFnDecl.
			}
			return g.builder.CreateLoad(v, ""), nil
		}
		if g.selfClass != nil {
			if idx, ok := g.selfClass.PropIndex[name]; ok {
				return g.loadSelfProp(idx, name)
			}
		}
		return llvm.Value{}, errf("undeclared identifier %q", name)
	default:
		return llvm.Value{}, errf("unexpected primary token %s", e.Tkn.Kind)
	}
}

func (g *Generator) loadSelfProp(idx uint32, name string) (llvm.Value, error) {
	gep := g.builder.CreateStructGEP(g.selfPtr, int(idx), "")
	return g.builder.CreateLoad(gep, name), nil
}

func (g *Generator) genUnary(e *ast.Unary) (llvm.Value, error) {
	rhs, err := g.genExpr(e.Rhs)
	if err != nil {
		return llvm.Value{}, err
	}
	switch e.Op.Kind {
	case token.Minus:
		return g.builder.CreateFNeg(rhs, "tmpneg"), nil
	case token.Bang:
		one := llvm.ConstInt(g.ctx.Int8Type(), 1, false)
		return g.builder.CreateXor(rhs, one, "tmpnot"), nil
	default:
		return llvm.Value{}, errf("unsupported unary operator %s", e.Op.Kind)
	}
}

// genOp lowers a binary arithmetic, comparison, or logical expression.
// Comparisons use the unordered float predicates, so a comparison against
// NaN evaluates true rather than trapping the program into undefined
// territory; `&&`/`||` lower to plain bitwise and/or over the i8 bool
// representation, not short-circuit branches, since kolga has no
// side-effecting boolean operands worth short-circuiting.
func (g *Generator) genOp(op token.Token, lhsN, rhsN ast.Node) (llvm.Value, error) {
	lhs, err := g.genExpr(lhsN)
	if err != nil {
		return llvm.Value{}, err
	}
	rhs, err := g.genExpr(rhsN)
	if err != nil {
		return llvm.Value{}, err
	}
	switch op.Kind {
	case token.Plus:
		return g.builder.CreateFAdd(lhs, rhs, "addtmp"), nil
	case token.Minus:
		return g.builder.CreateFSub(lhs, rhs, "subtmp"), nil
	case token.Star:
		return g.builder.CreateFMul(lhs, rhs, "multmp"), nil
	case token.Slash:
		return g.builder.CreateFDiv(lhs, rhs, "divtmp"), nil
	case token.AmpAmp, token.And:
		return g.builder.CreateAnd(lhs, rhs, "andtmp"), nil
	case token.PipePipe, token.Or:
		return g.builder.CreateOr(lhs, rhs, "ortmp"), nil
	case token.Lt:
		return g.builder.CreateFCmp(llvm.FloatULT, lhs, rhs, "lttmp"), nil
	case token.Gt:
		return g.builder.CreateFCmp(llvm.FloatUGT, lhs, rhs, "gttmp"), nil
	case token.LtEq:
		return g.builder.CreateFCmp(llvm.FloatULE, lhs, rhs, "ltetmp"), nil
	case token.GtEq:
		return g.builder.CreateFCmp(llvm.FloatUGE, lhs, rhs, "gtetmp"), nil
	case token.EqEq:
		return g.builder.CreateFCmp(llvm.FloatUEQ, lhs, rhs, "eqtmp"), nil
	case token.BangEq:
		return g.builder.CreateFCmp(llvm.FloatUNE, lhs, rhs, "neqtmp"), nil
	default:
		return llvm.Value{}, errf("unsupported binary operator %s", op.Kind)
	}
}

func (g *Generator) genFnCall(e *ast.FnCall) (llvm.Value, error) {
	fnVal, ok := g.vals.Retrieve(e.FnTkn.Name())
	if !ok {
		return llvm.Value{}, errf("undeclared function %q", e.FnTkn.Name())
	}
	args := make([]llvm.Value, len(e.Args))
	for i, a := range e.Args {
		v, err := g.genExpr(a)
		if err != nil {
			return llvm.Value{}, err
		}
		args[i] = v
	}
	return g.builder.CreateCall(fnVal, args, ""), nil
}

func (g *Generator) genClassFnCall(e *ast.ClassFnCall) (llvm.Value, error) {
	recv, ok := g.vals.Retrieve(e.RecvTkn.Name())
	if !ok {
		return llvm.Value{}, errf("undeclared receiver %q", e.RecvTkn.Name())
	}
	mangled := e.ClassName + "." + e.FnTkn.Name()
	fnVal, ok := g.vals.Retrieve(mangled)
	if !ok {
		return llvm.Value{}, errf("undeclared method %q", mangled)
	}
	args := make([]llvm.Value, 0, len(e.Args)+1)
	args = append(args, recv)
	for _, a := range e.Args {
		v, err := g.genExpr(a)
		if err != nil {
			return llvm.Value{}, err
		}
		args = append(args, v)
	}
	return g.builder.CreateCall(fnVal, args, ""), nil
}

func (g *Generator) genPropAccess(e *ast.ClassPropAccess) (llvm.Value, error) {
	recv, ok := g.vals.Retrieve(e.RecvTkn.Name())
	if !ok {
		return llvm.Value{}, errf("undeclared receiver %q", e.RecvTkn.Name())
	}
	gep := g.builder.CreateStructGEP(recv, int(e.Idx), "")
	return g.builder.CreateLoad(gep, e.PropName), nil
}

func (g *Generator) genPropSet(e *ast.ClassPropSet) (llvm.Value, error) {
	recv, ok := g.vals.Retrieve(e.RecvTkn.Name())
	if !ok {
		return llvm.Value{}, errf("undeclared receiver %q", e.RecvTkn.Name())
	}
	val, err := g.genExpr(e.Value)
	if err != nil {
		return llvm.Value{}, err
	}
	gep := g.builder.CreateStructGEP(recv, int(e.Idx), "")
	g.builder.CreateStore(val, gep)
	return val, nil
}

// genReassign stores into an already-declared variable's existing alloca
// or global; unlike genLocalVarAssignDecl it never creates a new binding.
func (g *Generator) genReassign(e *ast.VarAssign) (llvm.Value, error) {
	ptr, ok := g.vals.Retrieve(e.NameTkn.Name())
	if !ok {
		return llvm.Value{}, errf("undeclared symbol %q", e.NameTkn.Name())
	}
	val, err := g.genExpr(e.Value)
	if err != nil {
		return llvm.Value{}, err
	}
	g.builder.CreateStore(val, ptr)
	return val, nil
}

// ---- type lowering ----

func (g *Generator) llvmType(ty symtab.Ty) llvm.Type {
	switch ty.Kind {
	case symtab.TyNum:
		return g.ctx.DoubleType()
	case symtab.TyBool:
		return g.ctx.Int8Type()
	case symtab.TyString:
		return llvm.PointerType(g.ctx.Int8Type(), 0)
	case symtab.TyClass:
		if structTy, ok := g.classes.Lookup(ty.ClassName); ok {
			return llvm.PointerType(structTy, 0)
		}
		return g.ctx.VoidType()
	default: // symtab.TyVoid
		return g.ctx.VoidType()
	}
}

func (g *Generator) zeroValue(ty symtab.Ty) llvm.Value {
	switch ty.Kind {
	case symtab.TyNum:
		return llvm.ConstFloat(g.ctx.DoubleType(), 0)
	case symtab.TyBool:
		return llvm.ConstInt(g.ctx.Int8Type(), 0, false)
	case symtab.TyString:
		return llvm.ConstPointerNull(llvm.PointerType(g.ctx.Int8Type(), 0))
	case symtab.TyClass:
		return llvm.ConstPointerNull(g.llvmType(ty))
	default:
		return llvm.Value{}
	}
}
