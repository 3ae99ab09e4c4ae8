package rewrite

import (
	"go/ast"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/martianoff/exprdual/internal/duality/build"
)

// PatchCallSites implements spec §4.3's closing requirement that Stage 2
// also touches "every surviving item that was not itself transformed": a
// lighter pass over every declaration left untouched by the declaration
// transformer, rewriting only call-sites that reach into a transformed
// interface/datatype, using astutil.Apply instead of the full shape-aware
// Expr/Stmt recursion (these bodies were never re-typed, so there is no Δ
// to thread through them).
func PatchCallSites(ctx *Context, decl ast.Decl) {
	astutil.Apply(decl, func(c *astutil.Cursor) bool {
		call, ok := c.Node().(*ast.CallExpr)
		if !ok {
			return true
		}
		switch ctx.Mode {
		case OOtoFP:
			if sel, ok := call.Fun.(*ast.SelectorExpr); ok {
				if patched, ok := patchDestructorCallSite(ctx, sel, call.Args); ok {
					c.Replace(patched)
				}
			}
		case FPtoOO:
			if id, ok := call.Fun.(*ast.Ident); ok {
				if patched, ok := patchConsumerCallSite(ctx, id, call.Args); ok {
					c.Replace(patched)
				}
			}
		}
		return true
	}, nil)
}

func patchDestructorCallSite(ctx *Context, sel *ast.SelectorExpr, args []ast.Expr) (ast.Expr, bool) {
	recvIdent, ok := sel.X.(*ast.Ident)
	if !ok {
		return nil, false
	}
	// Without a typed Δ, call-site patching can only recognize a receiver
	// whose static type is directly a known generator struct name — the
	// common case for a surviving top-level helper that happens to hold a
	// concrete, not interface-typed, local variable.
	g, err := ctx.Index.GeneratorByName(recvIdent.Name)
	if err != nil {
		return nil, false
	}
	if !ctx.TransformedIfaces[g.Interface] {
		return nil, false
	}
	if _, ok := ctx.Index.Interfaces[g.Interface].Destructor(sel.Sel.Name); !ok {
		return nil, false
	}
	newArgs := append([]ast.Expr{sel.X}, args...)
	return build.Call(build.Ident(sel.Sel.Name), newArgs...), true
}

func patchConsumerCallSite(ctx *Context, fn *ast.Ident, args []ast.Expr) (ast.Expr, bool) {
	c, err := ctx.Index.ConsumerByName(fn.Name)
	if err != nil || !ctx.TransformedTypes[c.Datatype] {
		return nil, false
	}
	if len(args) == 0 {
		return nil, false
	}
	recv := args[0]
	rest := args[1:]
	return build.MethodCall(recv, fn.Name, rest...), true
}
