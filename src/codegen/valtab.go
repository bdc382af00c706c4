package codegen

import "tinygo.org/x/go-llvm"

// ValueTable mirrors symtab.SymbolTable's scoping discipline, but maps
// names to the llvm.Value (almost always an alloca or global) the code
// generator already built for them, rather than to a Symbol. Codegen is a
// single forward pass over an already-resolved tree, so unlike symtab it
// never needs to archive a closed scope for later retrieval: CloseScope
// just discards it.
type ValueTable struct {
	scopes []map[string]llvm.Value
}

// NewValueTable returns a ValueTable with only the global scope active.
func NewValueTable() *ValueTable {
	return &ValueTable{scopes: []map[string]llvm.Value{{}}}
}

// InitScope pushes a new, empty scope.
func (vt *ValueTable) InitScope() {
	vt.scopes = append(vt.scopes, map[string]llvm.Value{})
}

// CloseScope pops the top scope.
func (vt *ValueTable) CloseScope() {
	vt.scopes = vt.scopes[:len(vt.scopes)-1]
}

// Store binds name to val in the current top scope.
func (vt *ValueTable) Store(name string, val llvm.Value) {
	vt.scopes[len(vt.scopes)-1][name] = val
}

// Retrieve searches from the top of the stack down, returning the nearest
// binding. ok is false if name is unbound anywhere.
func (vt *ValueTable) Retrieve(name string) (llvm.Value, bool) {
	for i := len(vt.scopes) - 1; i >= 0; i-- {
		if v, ok := vt.scopes[i][name]; ok {
			return v, true
		}
	}
	return llvm.Value{}, false
}
