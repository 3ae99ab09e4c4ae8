package transform

import "go/ast"

// CoerceFieldType implements spec §4.7's coerce-type(τ, mode, Γ): adjust the
// declared type expression of a struct field or parameter that references a
// datatype/interface being transformed this run, so surviving untouched
// declarations keep compiling against the new shape of τ.
//
// Under SPEC_FULL.md §0's realization, this is the identity function. An OO
// interface and its FP sealed-interface dual are both rendered as the same
// named Go interface type, and a polymorphic field or parameter is always a
// bare interface value in both encodings (never unwrapped to a concrete
// struct type) — so the textual type expression referencing it is
// unchanged by the direction of the transform. Only usage sites (method
// calls vs free calls) differ, and those are rewritten by
// rewrite.PatchCallSites and the declaration transformer's own body
// rewriting, not by touching the type expression itself.
func CoerceFieldType(t ast.Expr) ast.Expr { return t }
