package typecheck

import (
	"go/ast"
	"go/token"

	"github.com/martianoff/exprdual/internal/duality/diag"
	"github.com/martianoff/exprdual/internal/duality/index"
	"github.com/martianoff/exprdual/internal/duality/shape"
)

// TypeOf implements spec §4.2's `typeof(e)` against `Δ ⊢ Γ`. Any
// unsupported node yields an *diag.InferenceFailedError, which the rewriter
// treats as non-fatal: it leaves the expression's final type unchanged
// (spec §7).
func TypeOf(e ast.Expr, d *Delta, ix *index.Index) (shape.Shape, error) {
	switch n := e.(type) {
	case *ast.BasicLit:
		return shape.Named(basicLitType(n)), nil

	case *ast.Ident:
		if n.Name == "nil" {
			return shape.Named("nil"), nil
		}
		if sh, ok := d.Lookup(n.Name); ok {
			return sh, nil
		}
		return shape.Shape{}, &diag.InferenceFailedError{Reason: "unbound identifier " + n.Name}

	case *ast.SelectorExpr:
		recv, err := TypeOf(n.X, d, ix)
		if err != nil {
			return shape.Shape{}, err
		}
		base := recv.Name
		sh, ferr := ix.FieldType(base, n.Sel.Name)
		if ferr == nil {
			return sh, nil
		}
		// Fields are bound as borrowed references to the pattern's
		// underlying value (spec §4.2's match-arm rule), so a field
		// access through a Ref receiver still resolves.
		return shape.Shape{}, &diag.InferenceFailedError{Reason: "field " + base + "." + n.Sel.Name + " not found"}

	case *ast.StarExpr:
		inner, err := TypeOf(n.X, d, ix)
		if err != nil {
			return shape.Shape{}, err
		}
		out, derefErr := inner.Deref()
		if derefErr != nil {
			return shape.Shape{}, &diag.InferenceFailedError{Reason: derefErr.Error()}
		}
		return out, nil

	case *ast.UnaryExpr:
		switch n.Op {
		case token.AND:
			inner, err := TypeOf(n.X, d, ix)
			if err != nil {
				return shape.Shape{}, err
			}
			return inner.RefOf(), nil
		case token.MUL:
			inner, err := TypeOf(n.X, d, ix)
			if err != nil {
				return shape.Shape{}, err
			}
			out, derefErr := inner.Deref()
			if derefErr != nil {
				return shape.Shape{}, &diag.InferenceFailedError{Reason: derefErr.Error()}
			}
			return out, nil
		}
		return shape.Shape{}, &diag.InferenceFailedError{Reason: "unsupported unary operator"}

	case *ast.CallExpr:
		return typeOfCall(n, d, ix)

	case *ast.CompositeLit:
		name := compositeName(n.Type)
		return shape.Named(name), nil

	case *ast.BinaryExpr:
		switch n.Op {
		case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ,
			token.LAND, token.LOR:
			return shape.Named("bool"), nil
		default:
			return TypeOf(n.X, d, ix)
		}

	case *ast.ParenExpr:
		return TypeOf(n.X, d, ix)

	default:
		return shape.Shape{}, &diag.InferenceFailedError{Reason: "unsupported expression node"}
	}
}

func basicLitType(lit *ast.BasicLit) string {
	switch lit.Kind {
	case token.INT:
		return "int"
	case token.FLOAT:
		return "float64"
	case token.STRING:
		return "string"
	case token.CHAR:
		return "rune"
	default:
		return "any"
	}
}

func compositeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		return t.Sel.Name
	default:
		return ""
	}
}

// typeOfCall implements both the "heap-allocation call" rule (the
// universal new-box wrapper) and the general direct/method-call rules of
// spec §4.2.
func typeOfCall(call *ast.CallExpr, d *Delta, ix *index.Index) (shape.Shape, error) {
	if isHeapAllocCall(call) {
		if len(call.Args) != 1 {
			return shape.Shape{}, &diag.InferenceFailedError{Reason: "new() takes exactly one argument"}
		}
		inner, err := TypeOf(call.Args[0], d, ix)
		if err != nil {
			return shape.Shape{}, err
		}
		return inner.BoxOf(), nil
	}

	switch fn := call.Fun.(type) {
	case *ast.Ident:
		_, result, _, err := ix.SignatureOf(fn.Name)
		if err != nil {
			return shape.Shape{}, &diag.InferenceFailedError{Reason: err.Error()}
		}
		return result, nil

	case *ast.SelectorExpr:
		recv, err := TypeOf(fn.X, d, ix)
		if err != nil {
			return shape.Shape{}, err
		}
		iface := recv.Name
		if ifaceInfo, ok := ix.Interfaces[iface]; ok {
			if dst, ok := ifaceInfo.Destructor(fn.Sel.Name); ok {
				return dst.Result, nil
			}
		}
		if gIface, gerr := ix.InterfaceOf(iface); gerr == nil {
			if ifaceInfo, ok := ix.Interfaces[gIface]; ok {
				if dst, ok := ifaceInfo.Destructor(fn.Sel.Name); ok {
					return dst.Result, nil
				}
			}
		}
		return shape.Shape{}, &diag.InferenceFailedError{Reason: "method " + fn.Sel.Name + " not found on " + iface}
	}
	return shape.Shape{}, &diag.InferenceFailedError{Reason: "unsupported call form"}
}

// isHeapAllocCall reports whether call is the universal "new-box wrapper"
// (Go's built-in `new`).
func isHeapAllocCall(call *ast.CallExpr) bool {
	id, ok := call.Fun.(*ast.Ident)
	return ok && id.Name == "new"
}
