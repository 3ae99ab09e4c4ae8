package rewrite

import (
	"go/ast"
	"go/token"

	"github.com/martianoff/exprdual/internal/duality/build"
	"github.com/martianoff/exprdual/internal/duality/diag"
	"github.com/martianoff/exprdual/internal/duality/index"
	"github.com/martianoff/exprdual/internal/duality/shape"
	"github.com/martianoff/exprdual/internal/duality/typecheck"
)

// Expr rewrites expression e under ctx, threading Δ and recursing with the
// expected shape. It implements the per-node rules of spec §4.6.
func Expr(ctx *Context, e ast.Expr, d *typecheck.Delta, expected shape.Expected) (ast.Expr, error) {
	out, err := rewriteNode(ctx, e, d, expected)
	if err != nil {
		return e, err
	}
	current, terr := typecheck.TypeOf(out, d, ctx.Index)
	if terr != nil {
		// Inference failure is never fatal (spec §7): leave the shape
		// unchanged, skip the adjustment step.
		return out, nil
	}
	adjusted, aerr := Adjust(ctx.Index, out, current, expected)
	if aerr != nil {
		return nil, aerr
	}
	return adjusted, nil
}

func rewriteNode(ctx *Context, e ast.Expr, d *typecheck.Delta, expected shape.Expected) (ast.Expr, error) {
	switch n := e.(type) {
	case *ast.Ident, *ast.BasicLit:
		return e, nil

	case *ast.ParenExpr:
		inner, err := Expr(ctx, n.X, d, expected)
		if err != nil {
			return nil, err
		}
		return &ast.ParenExpr{X: inner}, nil

	case *ast.UnaryExpr:
		return rewriteUnary(ctx, n, d, expected)

	case *ast.StarExpr:
		return rewriteStar(ctx, n, d, expected)

	case *ast.BinaryExpr:
		return rewriteBinary(ctx, n, d, expected)

	case *ast.CallExpr:
		return rewriteCall(ctx, n, d, expected)

	case *ast.SelectorExpr:
		inner, err := Expr(ctx, n.X, d, shape.AnyConstraint)
		if err != nil {
			return nil, err
		}
		return &ast.SelectorExpr{X: inner, Sel: n.Sel}, nil

	case *ast.CompositeLit:
		return rewriteCompositeLit(ctx, n, d)

	default:
		return nil, &diag.UnsupportedError{Message: "rewrite: unsupported expression node"}
	}
}

func rewriteUnary(ctx *Context, n *ast.UnaryExpr, d *typecheck.Delta, expected shape.Expected) (ast.Expr, error) {
	switch n.Op {
	case token.AND:
		want, hasWant := shape.WantForm(expected)
		if hasWant && want.Kind == shape.None {
			// Expected shape is unwrapped: strip the outer reference (spec
			// §4.6: "if the expected shape is None, strip the outer
			// reference").
			return Expr(ctx, n.X, d, expected)
		}
		var innerExpected shape.Expected
		if hasWant {
			if inner, ok := want.Peel(); ok {
				innerExpected = shape.RefConstraint(inner)
			} else {
				innerExpected = shape.AnyConstraint
			}
		} else {
			innerExpected = shape.AnyConstraint
		}
		inner, err := Expr(ctx, n.X, d, innerExpected)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: token.AND, X: inner}, nil
	default:
		inner, err := Expr(ctx, n.X, d, shape.AnyConstraint)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: n.Op, X: inner}, nil
	}
}

func rewriteStar(ctx *Context, n *ast.StarExpr, d *typecheck.Delta, expected shape.Expected) (ast.Expr, error) {
	want, hasWant := shape.WantForm(expected)
	if hasWant && want.Kind == shape.None {
		return Expr(ctx, n.X, d, expected)
	}
	var innerExpected shape.Expected
	if hasWant {
		innerExpected = shape.RefConstraint(want)
	} else {
		innerExpected = shape.AnyConstraint
	}
	inner, err := Expr(ctx, n.X, d, innerExpected)
	if err != nil {
		return nil, err
	}
	return &ast.StarExpr{X: inner}, nil
}

func rewriteBinary(ctx *Context, n *ast.BinaryExpr, d *typecheck.Delta, expected shape.Expected) (ast.Expr, error) {
	left, err := Expr(ctx, n.X, d, shape.AnyConstraint)
	if err != nil {
		return nil, err
	}
	var rightExpected shape.Expected
	if leftShape, terr := typecheck.TypeOf(left, d, ctx.Index); terr == nil {
		rightExpected = shape.ExactConstraint(leftShape)
	} else {
		rightExpected = shape.AnyConstraint
	}
	right, err := Expr(ctx, n.Y, d, rightExpected)
	if err != nil {
		return nil, err
	}
	return &ast.BinaryExpr{X: left, Op: n.Op, Y: right}, nil
}

// rewriteCompositeLit handles both "structure construction of a variant of
// a transformed datatype" and "structure construction of a record of a
// transformed interface" (spec §4.6), recursing into each field expression
// with the field's declared shape.
func rewriteCompositeLit(ctx *Context, n *ast.CompositeLit, d *typecheck.Delta) (ast.Expr, error) {
	name := compositeTypeName(n.Type)

	newType := n.Type
	if ctx.Mode == OOtoFP {
		if iface, err := ctx.Index.InterfaceOf(name); err == nil && ctx.TransformedIfaces[iface] {
			newType = &ast.SelectorExpr{X: build.Ident(iface), Sel: build.Ident(name)}
		}
	}
	if ctx.Mode == FPtoOO {
		if sel, ok := n.Type.(*ast.SelectorExpr); ok {
			if outer, ok := sel.X.(*ast.Ident); ok && ctx.TransformedTypes[outer.Name] {
				newType = build.Ident(sel.Sel.Name)
			}
		}
	}

	out := &ast.CompositeLit{Type: newType}
	for _, elt := range n.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			out.Elts = append(out.Elts, elt)
			continue
		}
		fieldName, _ := kv.Key.(*ast.Ident)
		var fieldExpected shape.Expected
		if fieldName != nil {
			if sh, err := ctx.Index.FieldType(name, fieldName.Name); err == nil {
				fieldExpected = shape.ExactConstraint(sh)
			} else {
				fieldExpected = shape.AnyConstraint
			}
		} else {
			fieldExpected = shape.AnyConstraint
		}
		val, err := Expr(ctx, kv.Value, d, fieldExpected)
		if err != nil {
			return nil, err
		}
		out.Elts = append(out.Elts, &ast.KeyValueExpr{Key: kv.Key, Value: val})
	}
	return out, nil
}

func compositeTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		return t.Sel.Name
	default:
		return ""
	}
}

// rewriteCall dispatches on the three call shapes spec §4.6 distinguishes:
// a destructor method call on a transformed interface, a free call to a
// consumer of a transformed datatype, and every other call.
func rewriteCall(ctx *Context, n *ast.CallExpr, d *typecheck.Delta, expected shape.Expected) (ast.Expr, error) {
	if isHeapAllocCall(n) {
		return rewriteHeapAlloc(ctx, n, d, expected)
	}

	if ctx.Mode == OOtoFP {
		if sel, ok := n.Fun.(*ast.SelectorExpr); ok {
			if call, handled, err := rewriteDestructorCall(ctx, sel, n.Args, d); handled {
				return call, err
			}
		}
	}

	if ctx.Mode == FPtoOO {
		if id, ok := n.Fun.(*ast.Ident); ok {
			if call, handled, err := rewriteConsumerCall(ctx, id, n.Args, d); handled {
				return call, err
			}
		}
	}

	return rewriteOtherCall(ctx, n, d)
}

func isHeapAllocCall(call *ast.CallExpr) bool {
	id, ok := call.Fun.(*ast.Ident)
	return ok && id.Name == "new"
}

// rewriteHeapAlloc implements spec §4.6's heap-allocation-call rule:
// recurse into the inner with the same expected shape minus one box; if
// the expected shape is not boxed, or the inner is already boxed, return
// the inner directly; otherwise re-wrap.
func rewriteHeapAlloc(ctx *Context, n *ast.CallExpr, d *typecheck.Delta, expected shape.Expected) (ast.Expr, error) {
	if len(n.Args) != 1 {
		return nil, &diag.UnsupportedError{Message: "new() takes exactly one argument"}
	}
	want, hasWant := shape.WantForm(expected)
	var innerExpected shape.Expected
	if hasWant && want.Kind == shape.Box {
		if inner, ok := want.Peel(); ok {
			innerExpected = shape.RefConstraint(inner)
		}
	} else {
		innerExpected = shape.AnyConstraint
	}
	inner, err := Expr(ctx, n.Args[0], d, innerExpected)
	if err != nil {
		return nil, err
	}
	innerShape, terr := typecheck.TypeOf(n.Args[0], d, ctx.Index)
	alreadyBoxed := terr == nil && innerShape.Form.Kind == shape.Box
	if !hasWant || want.Kind != shape.Box || alreadyBoxed {
		return inner, nil
	}
	return build.Call(build.Ident("new"), inner), nil
}

// rewriteDestructorCall implements "Method call on a destructor of a
// transformed interface (OO→FP mode): transform to a free-function call
// m(receiver, args…). If the original destructor was mutably receiving,
// wrap the result in an assignment back to the receiver" — the wrap is
// produced by the statement-level rewriter (statements.go) since an
// assignment is a statement, not an expression; here we produce the bare
// call and let the caller decide whether to wrap it.
func rewriteDestructorCall(ctx *Context, sel *ast.SelectorExpr, args []ast.Expr, d *typecheck.Delta) (ast.Expr, bool, error) {
	recvShape, err := typecheck.TypeOf(sel.X, d, ctx.Index)
	if err != nil {
		return nil, false, nil
	}
	iface := recvShape.Name
	if g, gerr := ctx.Index.InterfaceOf(iface); gerr == nil {
		iface = g
	}
	if !ctx.TransformedIfaces[iface] {
		return nil, false, nil
	}
	ifaceInfo, ok := ctx.Index.Interfaces[iface]
	if !ok {
		return nil, false, nil
	}
	if _, ok := ifaceInfo.Destructor(sel.Sel.Name); !ok {
		return nil, false, nil
	}

	recv, err := Expr(ctx, sel.X, d, shape.AnyConstraint)
	if err != nil {
		return nil, true, err
	}
	newArgs := []ast.Expr{recv}
	for _, a := range args {
		ra, err := Expr(ctx, a, d, shape.AnyConstraint)
		if err != nil {
			return nil, true, err
		}
		newArgs = append(newArgs, ra)
	}
	return build.Call(build.Ident(sel.Sel.Name), newArgs...), true, nil
}

// rewriteConsumerCall implements "Free call to a consumer of a transformed
// datatype (FP→OO mode): transform to a method call first-arg.c(rest…)".
func rewriteConsumerCall(ctx *Context, fn *ast.Ident, args []ast.Expr, d *typecheck.Delta) (ast.Expr, bool, error) {
	c, cerr := ctx.Index.ConsumerByName(fn.Name)
	if cerr != nil || !ctx.TransformedTypes[c.Datatype] {
		return nil, false, nil
	}
	if len(args) == 0 {
		return nil, false, nil
	}
	recv, err := Expr(ctx, args[0], d, shape.AnyConstraint)
	if err != nil {
		return nil, true, err
	}
	var rest []ast.Expr
	for _, a := range args[1:] {
		ra, err := Expr(ctx, a, d, shape.AnyConstraint)
		if err != nil {
			return nil, true, err
		}
		rest = append(rest, ra)
	}
	return build.MethodCall(recv, fn.Name, rest...), true, nil
}

// rewriteOtherCall implements "recurse into the receiver and into each
// argument with the expected shape being the corresponding formal
// parameter's shape as taken from Γ".
func rewriteOtherCall(ctx *Context, n *ast.CallExpr, d *typecheck.Delta) (ast.Expr, error) {
	var params []index.Field
	var fnName string
	switch f := n.Fun.(type) {
	case *ast.Ident:
		fnName = f.Name
		params, _, _, _ = ctx.Index.SignatureOf(f.Name)
	case *ast.SelectorExpr:
		fnName = f.Sel.Name
		if recvShape, err := typecheck.TypeOf(f.X, d, ctx.Index); err == nil {
			iface := recvShape.Name
			if owner, oerr := ctx.Index.InterfaceOf(iface); oerr == nil {
				iface = owner
			}
			if ifaceInfo, ok := ctx.Index.Interfaces[iface]; ok {
				if dst, ok := ifaceInfo.Destructor(f.Sel.Name); ok {
					params = dst.Params
				}
			}
		}
	}
	_ = fnName

	fn, err := Expr(ctx, n.Fun, d, shape.AnyConstraint)
	if err != nil {
		return nil, err
	}
	var newArgs []ast.Expr
	for i, a := range n.Args {
		var ex shape.Expected = shape.AnyConstraint
		if i < len(params) {
			ex = shape.ExactConstraint(params[i].Shape)
		}
		ra, err := Expr(ctx, a, d, ex)
		if err != nil {
			return nil, err
		}
		newArgs = append(newArgs, ra)
	}
	return &ast.CallExpr{Fun: fn, Args: newArgs}, nil
}
