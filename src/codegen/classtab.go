package codegen

import "tinygo.org/x/go-llvm"

// classInfo is what the generator records about a class after its
// declaration has been lowered: the named LLVM struct type backing
// instances and the lowered types of its properties, in declaration order.
// Property indices come from the AST nodes themselves, not from here.
type classInfo struct {
	structTy llvm.Type
	propTys  []llvm.Type
}

// ClassTable maps a class name to its lowered struct type. Classes are
// declared once at the scope they're written in and never shadowed the way
// local variables can be, so a single flat map (not a scope stack) is
// enough.
type ClassTable struct {
	classes map[string]classInfo
}

func NewClassTable() *ClassTable {
	return &ClassTable{classes: make(map[string]classInfo)}
}

func (ct *ClassTable) Store(name string, structTy llvm.Type, propTys []llvm.Type) {
	ct.classes[name] = classInfo{structTy: structTy, propTys: propTys}
}

func (ct *ClassTable) Lookup(name string) (llvm.Type, bool) {
	info, ok := ct.classes[name]
	if !ok {
		return llvm.Type{}, false
	}
	return info.structTy, true
}
