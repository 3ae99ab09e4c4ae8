package rewrite

import (
	"go/ast"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/martianoff/exprdual/internal/duality/build"
)

// RenameIdent renames every bare occurrence of identifier from to to within
// body, without touching the Sel half of a selector expression (so a field
// access `x.from` is left alone unless `from` is itself the receiver being
// renamed, e.g. `from.field` -> `to.field`). This is the transform
// underlying both directions of the declaration transformer: a generator's
// receiver name becomes the type-switch binding variable in the matching
// consumer arm (spec §4.4), and a consumer's self parameter name becomes
// the literal `self` in the matching destructor method (spec §4.5).
func RenameIdent(body *ast.BlockStmt, from, to string) *ast.BlockStmt {
	if from == "" || from == to {
		return body
	}
	astutil.Apply(body, func(c *astutil.Cursor) bool {
		id, ok := c.Node().(*ast.Ident)
		if !ok || id.Name != from {
			return true
		}
		if sel, ok := c.Parent().(*ast.SelectorExpr); ok && sel.Sel == id {
			return true // never rename the Sel half of x.Sel
		}
		c.Replace(build.Ident(to))
		return true
	}, nil)
	return body
}

// RewriteFreeConsumerCalls replaces free calls `cI(expr, rest…)` to a
// sibling consumer cI of the same datatype with the method-call form
// `expr.cI(rest…)` (spec §4.5's consumer-to-destructor transform list).
func RewriteFreeConsumerCalls(body *ast.BlockStmt, consumerNames map[string]bool) *ast.BlockStmt {
	astutil.Apply(body, func(c *astutil.Cursor) bool {
		call, ok := c.Node().(*ast.CallExpr)
		if !ok {
			return true
		}
		id, ok := call.Fun.(*ast.Ident)
		if !ok || !consumerNames[id.Name] || len(call.Args) == 0 {
			return true
		}
		recv := call.Args[0]
		rest := append([]ast.Expr{}, call.Args[1:]...)
		c.Replace(build.MethodCall(recv, id.Name, rest...))
		return true
	}, nil)
	return body
}

// CloneBlock copies a block statement's top-level statement list into a
// new BlockStmt. It is a shallow clone: the statements themselves and every
// node beneath them are shared with the original, so RenameIdent and
// RewriteFreeConsumerCalls, which mutate nodes in place, also change the
// original block's nested nodes. Only appending, removing or replacing
// whole top-level statements of the copy leaves the original untouched.
func CloneBlock(body *ast.BlockStmt) *ast.BlockStmt {
	if body == nil {
		return nil
	}
	clone := &ast.BlockStmt{List: make([]ast.Stmt, len(body.List))}
	copy(clone.List, body.List)
	return clone
}
