package rewrite

import (
	"go/ast"

	"github.com/martianoff/exprdual/internal/duality/build"
	"github.com/martianoff/exprdual/internal/duality/diag"
	"github.com/martianoff/exprdual/internal/duality/index"
	"github.com/martianoff/exprdual/internal/duality/shape"
	"github.com/martianoff/exprdual/internal/duality/typecheck"
)

// Block rewrites every statement of a function or arm body. Go realizes
// the spec's "block is an expression whose value is its final statement"
// rule (spec §4.6) as explicit `return` statements rather than tail
// position, so `expected` here means "the enclosing function's declared
// result shape" and is threaded unchanged to every statement; only a
// ReturnStmt actually consumes it (spec §4.6's "return expression: recurse
// with the enclosing function's return shape").
func Block(ctx *Context, b *ast.BlockStmt, d *typecheck.Delta, expected shape.Expected) (*ast.BlockStmt, error) {
	if b == nil {
		return nil, nil
	}
	out := &ast.BlockStmt{}
	for _, stmt := range b.List {
		rs, err := Stmt(ctx, stmt, d, expected)
		if err != nil {
			return nil, err
		}
		out.List = append(out.List, rs...)
	}
	return out, nil
}

// Stmt rewrites a single statement into its replacement statements (a
// destructor call on a mutable receiver becomes the single reassignment
// `recv = m(recv, …)`, spec §4.4 point 4).
func Stmt(ctx *Context, s ast.Stmt, d *typecheck.Delta, expected shape.Expected) ([]ast.Stmt, error) {
	switch n := s.(type) {
	case *ast.ExprStmt:
		return rewriteExprStmt(ctx, n, d)

	case *ast.ReturnStmt:
		return rewriteReturn(ctx, n, d, expected)

	case *ast.IfStmt:
		return rewriteIf(ctx, n, d, expected)

	case *ast.AssignStmt:
		return rewriteAssign(ctx, n, d)

	case *ast.DeclStmt:
		return rewriteDeclStmt(ctx, n, d)

	case *ast.BlockStmt:
		inner, err := Block(ctx, n, d, expected)
		if err != nil {
			return nil, err
		}
		return []ast.Stmt{inner}, nil

	case *ast.SwitchStmt, *ast.TypeSwitchStmt:
		return rewriteMatch(ctx, s, d, expected)

	default:
		return nil, &diag.UnsupportedError{Message: "rewrite: unsupported statement node"}
	}
}

// rewriteExprStmt handles an expression used for effect, specifically
// detecting the OOtoFP destructor-call-on-mutable-receiver case: the
// free-function call replacing it must be reassigned back onto the
// receiver (spec §4.4 point 4: "self.field = value" pure-update pattern
// becomes "self = destructor(self, ...)").
func rewriteExprStmt(ctx *Context, n *ast.ExprStmt, d *typecheck.Delta) ([]ast.Stmt, error) {
	call, ok := n.X.(*ast.CallExpr)
	if !ok {
		e, err := Expr(ctx, n.X, d, shape.NoConstraint)
		if err != nil {
			return nil, err
		}
		return []ast.Stmt{&ast.ExprStmt{X: e}}, nil
	}

	if ctx.Mode == OOtoFP {
		if sel, ok := call.Fun.(*ast.SelectorExpr); ok {
			if mutated, recv, rewritten, handled, err := mutableDestructorCall(ctx, sel, call.Args, d); handled {
				if err != nil {
					return nil, err
				}
				if mutated {
					return []ast.Stmt{build.Assign(recv, rewritten)}, nil
				}
				return []ast.Stmt{&ast.ExprStmt{X: rewritten}}, nil
			}
		}
	}

	e, err := Expr(ctx, n.X, d, shape.NoConstraint)
	if err != nil {
		return nil, err
	}
	return []ast.Stmt{&ast.ExprStmt{X: e}}, nil
}

func mutableDestructorCall(ctx *Context, sel *ast.SelectorExpr, args []ast.Expr, d *typecheck.Delta) (mutated bool, recv ast.Expr, rewritten ast.Expr, handled bool, err error) {
	recvShape, terr := typecheck.TypeOf(sel.X, d, ctx.Index)
	if terr != nil {
		return false, nil, nil, false, nil
	}
	iface := recvShape.Name
	if owner, oerr := ctx.Index.InterfaceOf(iface); oerr == nil {
		iface = owner
	}
	if !ctx.TransformedIfaces[iface] {
		return false, nil, nil, false, nil
	}
	ifaceInfo, ok := ctx.Index.Interfaces[iface]
	if !ok {
		return false, nil, nil, false, nil
	}
	dst, ok := ifaceInfo.Destructor(sel.Sel.Name)
	if !ok {
		return false, nil, nil, false, nil
	}
	call, _, cerr := rewriteDestructorCall(ctx, sel, args, d)
	if cerr != nil {
		return false, nil, nil, true, cerr
	}
	if dst.Receiver == index.RecvMutable {
		recvExpr, rerr := Expr(ctx, sel.X, d, shape.AnyConstraint)
		if rerr != nil {
			return false, nil, nil, true, rerr
		}
		return true, recvExpr, call, true, nil
	}
	return false, nil, call, true, nil
}

func rewriteReturn(ctx *Context, n *ast.ReturnStmt, d *typecheck.Delta, expected shape.Expected) ([]ast.Stmt, error) {
	var results []ast.Expr
	for _, r := range n.Results {
		re, err := Expr(ctx, r, d, expected)
		if err != nil {
			return nil, err
		}
		results = append(results, re)
	}
	return []ast.Stmt{&ast.ReturnStmt{Results: results}}, nil
}

func rewriteIf(ctx *Context, n *ast.IfStmt, d *typecheck.Delta, expected shape.Expected) ([]ast.Stmt, error) {
	cond, err := Expr(ctx, n.Cond, d, shape.ExactConstraint(boolShape))
	if err != nil {
		return nil, err
	}
	body, err := Block(ctx, n.Body, d.Clone(), expected)
	if err != nil {
		return nil, err
	}
	out := &ast.IfStmt{Cond: cond, Body: body}
	if n.Else != nil {
		switch e := n.Else.(type) {
		case *ast.BlockStmt:
			eb, err := Block(ctx, e, d.Clone(), expected)
			if err != nil {
				return nil, err
			}
			out.Else = eb
		case *ast.IfStmt:
			ei, err := rewriteIf(ctx, e, d, expected)
			if err != nil {
				return nil, err
			}
			out.Else = ei[0]
		}
	}
	return []ast.Stmt{out}, nil
}

var boolShape = shape.Named("bool")

func rewriteAssign(ctx *Context, n *ast.AssignStmt, d *typecheck.Delta) ([]ast.Stmt, error) {
	var lhs []ast.Expr
	for _, l := range n.Lhs {
		rl, err := Expr(ctx, l, d, shape.AnyConstraint)
		if err != nil {
			return nil, err
		}
		lhs = append(lhs, rl)
	}
	var rhs []ast.Expr
	for i, r := range n.Rhs {
		var ex shape.Expected = shape.AnyConstraint
		if i < len(lhs) {
			if ls, terr := typecheck.TypeOf(lhs[i], d, ctx.Index); terr == nil {
				ex = shape.ExactConstraint(ls)
			}
		}
		rr, err := Expr(ctx, r, d, ex)
		if err != nil {
			return nil, err
		}
		rhs = append(rhs, rr)
	}
	if n.Tok.String() == ":=" {
		for i, l := range lhs {
			if id, ok := l.(*ast.Ident); ok && i < len(rhs) {
				typecheck.ExtendLet(d, id.Name, nil, rhs[i], ctx.Index)
			}
		}
	}
	return []ast.Stmt{&ast.AssignStmt{Lhs: lhs, Tok: n.Tok, Rhs: rhs}}, nil
}

func rewriteDeclStmt(ctx *Context, n *ast.DeclStmt, d *typecheck.Delta) ([]ast.Stmt, error) {
	gd, ok := n.Decl.(*ast.GenDecl)
	if !ok {
		return []ast.Stmt{n}, nil
	}
	for _, spec := range gd.Specs {
		vs, ok := spec.(*ast.ValueSpec)
		if !ok {
			continue
		}
		for i, name := range vs.Names {
			var init ast.Expr
			if i < len(vs.Values) {
				init = vs.Values[i]
				rewritten, err := Expr(ctx, init, d, shape.AnyConstraint)
				if err != nil {
					return nil, err
				}
				vs.Values[i] = rewritten
				init = rewritten
			}
			typecheck.ExtendLet(d, name.Name, nil, init, ctx.Index)
		}
	}
	return []ast.Stmt{n}, nil
}

// rewriteMatch implements spec §4.6's match rule: the scrutinee is recursed
// with expected shape RefOf(None) (match borrows its scrutinee), Δ is
// extended per arm per typecheck.ExtendMatchArm, and each arm's body is
// recursed with the match's own expected shape.
func rewriteMatch(ctx *Context, s ast.Stmt, d *typecheck.Delta, expected shape.Expected) ([]ast.Stmt, error) {
	sw, ok := s.(*ast.TypeSwitchStmt)
	if !ok {
		return nil, &diag.UnsupportedError{Message: "rewrite: only type-switch match is supported"}
	}
	var scrutineeExpr ast.Expr
	var bindName string
	switch a := sw.Assign.(type) {
	case *ast.AssignStmt:
		if len(a.Lhs) == 1 {
			if id, ok := a.Lhs[0].(*ast.Ident); ok {
				bindName = id.Name
			}
		}
		if len(a.Rhs) == 1 {
			if ta, ok := a.Rhs[0].(*ast.TypeAssertExpr); ok {
				scrutineeExpr = ta.X
			}
		}
	case *ast.ExprStmt:
		if ta, ok := a.X.(*ast.TypeAssertExpr); ok {
			scrutineeExpr = ta.X
		}
	}
	if scrutineeExpr == nil {
		return nil, &diag.UnsupportedError{Message: "rewrite: malformed type switch"}
	}
	rewrittenScrutinee, err := Expr(ctx, scrutineeExpr, d, shape.RefConstraint(shape.RefOf(shape.NoneForm)))
	if err != nil {
		return nil, err
	}

	out := &ast.TypeSwitchStmt{Assign: sw.Assign, Body: &ast.BlockStmt{}}
	if a, ok := sw.Assign.(*ast.AssignStmt); ok {
		na := *a
		if ta, ok := a.Rhs[0].(*ast.TypeAssertExpr); ok {
			nta := *ta
			nta.X = rewrittenScrutinee
			na.Rhs = []ast.Expr{&nta}
		}
		out.Assign = &na
	}

	for _, stmt := range sw.Body.List {
		cc, ok := stmt.(*ast.CaseClause)
		if !ok {
			continue
		}
		armDelta := d.Clone()
		variant := variantCaseExprName(cc.List)
		if variant != "" && bindName != "" {
			bound := boundFieldNames(ctx, variant)
			typecheck.ExtendMatchArm(armDelta, variant, bound, ctx.Index)
			armDelta.Bind(bindName, shape.Named(variant).RefOf())
		}
		body := &ast.BlockStmt{List: cc.Body}
		rb, err := Block(ctx, body, armDelta, expected)
		if err != nil {
			return nil, err
		}
		out.Body.List = append(out.Body.List, &ast.CaseClause{List: cc.List, Body: rb.List})
	}
	return []ast.Stmt{out}, nil
}

func variantCaseExprName(list []ast.Expr) string {
	if len(list) != 1 {
		return ""
	}
	switch t := list[0].(type) {
	case *ast.StarExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			return id.Name
		}
	case *ast.Ident:
		return t.Name
	}
	return ""
}

func boundFieldNames(ctx *Context, variant string) []string {
	st, ok := ctx.Index.Structs[variant]
	if !ok {
		return nil
	}
	var names []string
	for _, f := range st.Fields {
		names = append(names, f.Name)
	}
	return names
}
