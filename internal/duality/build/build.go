// Package build provides pure constructor functions for every synthesized
// syntax fragment the declaration transformer and expression rewriter
// produce: sealed interfaces, variant structs, destructor methods,
// consumer functions, match/type-switch statements, calls, and reference/
// dereference/heap-allocation expressions (spec §2: "AST Builders ... Pure
// functions; no state").
package build

import (
	"go/ast"
	"go/token"

	"github.com/martianoff/exprdual/internal/duality/index"
	"github.com/martianoff/exprdual/internal/duality/shape"
)

// TypeExpr renders a shape back into a Go type expression.
func TypeExpr(sh shape.Shape) ast.Expr {
	var base ast.Expr = ast.NewIdent(sh.Name)
	return wrapForm(base, sh.Form)
}

func wrapForm(base ast.Expr, f shape.Form) ast.Expr {
	switch f.Kind {
	case shape.None:
		return base
	case shape.Ref, shape.Box:
		return &ast.StarExpr{X: wrapForm(base, *f.Inner)}
	default:
		return base
	}
}

// Ident builds a fresh identifier.
func Ident(name string) *ast.Ident { return ast.NewIdent(name) }

// Field builds a single named field (struct field, parameter, or result).
func Field(name string, sh shape.Shape) *ast.Field {
	var names []*ast.Ident
	if name != "" {
		names = []*ast.Ident{Ident(name)}
	}
	return &ast.Field{Names: names, Type: TypeExpr(sh)}
}

// FieldList builds a field list from a slice of index.Field.
func FieldList(fields []index.Field) *ast.FieldList {
	fl := &ast.FieldList{}
	for _, f := range fields {
		fl.List = append(fl.List, Field(f.Name, f.Shape))
	}
	return fl
}

// MarkerMethodName is the unexported marker method name a datatype's
// sealed interface carries (SPEC_FULL.md §0).
func MarkerMethodName(datatype string) string { return "is" + datatype }

// SealedInterface builds the sealed-interface declaration for datatype
// name with the given destructor method fields (spec §4.5 point 1: "Emit
// interface D with one destructor per consumer").
func SealedInterface(name string, destructors []*ast.Field) *ast.GenDecl {
	marker := &ast.Field{
		Names: []*ast.Ident{Ident(MarkerMethodName(name))},
		Type:  &ast.FuncType{Params: &ast.FieldList{}},
	}
	methods := append([]*ast.Field{marker}, destructors...)
	return &ast.GenDecl{
		Tok: token.TYPE,
		Specs: []ast.Spec{
			&ast.TypeSpec{
				Name: Ident(name),
				Type: &ast.InterfaceType{Methods: &ast.FieldList{List: methods}},
			},
		},
	}
}

// Interface builds a plain (non-sealed) interface declaration, used by
// fp2oo when emitting the dual of a datatype.
func Interface(name string, methods []*ast.Field) *ast.GenDecl {
	return &ast.GenDecl{
		Tok: token.TYPE,
		Specs: []ast.Spec{
			&ast.TypeSpec{
				Name: Ident(name),
				Type: &ast.InterfaceType{Methods: &ast.FieldList{List: methods}},
			},
		},
	}
}

// DestructorMethodField builds one interface method field, annotating its
// receiver mode via the trailing-comment convention SPEC_FULL.md §0
// documents.
func DestructorMethodField(name string, params []index.Field, result shape.Shape, hasResult bool, mode index.ReceiverMode) *ast.Field {
	ft := &ast.FuncType{Params: FieldList(params)}
	if hasResult {
		ft.Results = &ast.FieldList{List: []*ast.Field{{Type: TypeExpr(result)}}}
	}
	f := &ast.Field{Names: []*ast.Ident{Ident(name)}, Type: ft}
	if mode != index.RecvBorrowed {
		f.Comment = &ast.CommentGroup{List: []*ast.Comment{{Text: "// " + receiverModeComment(mode)}}}
	}
	return f
}

func receiverModeComment(mode index.ReceiverMode) string {
	switch mode {
	case index.RecvOwned:
		return "self:owned"
	case index.RecvMutable:
		return "self:mut"
	default:
		return "self:ref"
	}
}

// Struct builds a struct type declaration with the given fields.
func Struct(name string, fields []index.Field) *ast.GenDecl {
	return &ast.GenDecl{
		Tok: token.TYPE,
		Specs: []ast.Spec{
			&ast.TypeSpec{Name: Ident(name), Type: &ast.StructType{Fields: FieldList(fields)}},
		},
	}
}

// MarkerMethod builds the `func (v *Variant) isD() {}` marker implementation
// pairing a variant struct with its sealed datatype interface.
func MarkerMethod(variant, datatype string) *ast.FuncDecl {
	return &ast.FuncDecl{
		Recv: &ast.FieldList{List: []*ast.Field{{
			Names: []*ast.Ident{Ident("v")},
			Type:  &ast.StarExpr{X: Ident(variant)},
		}}},
		Name: Ident(MarkerMethodName(datatype)),
		Type: &ast.FuncType{Params: &ast.FieldList{}},
		Body: &ast.BlockStmt{},
	}
}

// Method builds a method declaration: `func (recvName RecvType) name(params) result { body }`.
func Method(recvName, recvType string, pointerRecv bool, name string, params []index.Field, result shape.Shape, hasResult bool, body *ast.BlockStmt) *ast.FuncDecl {
	var recvTypeExpr ast.Expr = Ident(recvType)
	if pointerRecv {
		recvTypeExpr = &ast.StarExpr{X: Ident(recvType)}
	}
	ft := &ast.FuncType{Params: FieldList(params)}
	if hasResult {
		ft.Results = &ast.FieldList{List: []*ast.Field{{Type: TypeExpr(result)}}}
	}
	return &ast.FuncDecl{
		Recv: &ast.FieldList{List: []*ast.Field{{Names: []*ast.Ident{Ident(recvName)}, Type: recvTypeExpr}}},
		Name: Ident(name),
		Type: ft,
		Body: body,
	}
}

// Func builds a free function declaration.
func Func(name string, params []index.Field, result shape.Shape, hasResult bool, body *ast.BlockStmt) *ast.FuncDecl {
	ft := &ast.FuncType{Params: FieldList(params)}
	if hasResult {
		ft.Results = &ast.FieldList{List: []*ast.Field{{Type: TypeExpr(result)}}}
	}
	return &ast.FuncDecl{Name: Ident(name), Type: ft, Body: body}
}

// Call builds `fn(args...)`.
func Call(fn ast.Expr, args ...ast.Expr) *ast.CallExpr {
	return &ast.CallExpr{Fun: fn, Args: args}
}

// MethodCall builds `recv.name(args...)`.
func MethodCall(recv ast.Expr, name string, args ...ast.Expr) *ast.CallExpr {
	return Call(&ast.SelectorExpr{X: recv, Sel: Ident(name)}, args...)
}

// AddrOf builds `&e`.
func AddrOf(e ast.Expr) ast.Expr { return &ast.UnaryExpr{Op: token.AND, X: e} }

// Deref builds `*e`.
func Deref(e ast.Expr) ast.Expr { return &ast.StarExpr{X: e} }

// HeapAlloc builds the universal "new-box wrapper" as `&e` (the same node
// AddrOf builds; no call to Go's built-in `new` is emitted): for a
// constructing composite literal that is `&T{...}`, the idiomatic Go heap
// allocation for this shape of "Box::new(value)" call (spec §4.2's
// "heap-allocation call" rule).
func HeapAlloc(e ast.Expr) ast.Expr { return AddrOf(e) }

// CompositeLit builds `Type{Field: Value, ...}`.
func CompositeLit(typeName string, fields map[string]ast.Expr, order []string) *ast.CompositeLit {
	lit := &ast.CompositeLit{Type: Ident(typeName)}
	for _, name := range order {
		lit.Elts = append(lit.Elts, &ast.KeyValueExpr{Key: Ident(name), Value: fields[name]})
	}
	return lit
}

// QualifiedCompositeLit builds `Outer.Inner{...}` (spec §4.6: "rewrite the
// path to Datatype::Variant{…}").
func QualifiedCompositeLit(outer, inner string, fields map[string]ast.Expr, order []string) *ast.CompositeLit {
	lit := &ast.CompositeLit{Type: &ast.SelectorExpr{X: Ident(outer), Sel: Ident(inner)}}
	for _, name := range order {
		lit.Elts = append(lit.Elts, &ast.KeyValueExpr{Key: Ident(name), Value: fields[name]})
	}
	return lit
}

// Assign builds `lhs = rhs`.
func Assign(lhs, rhs ast.Expr) *ast.AssignStmt {
	return &ast.AssignStmt{Lhs: []ast.Expr{lhs}, Tok: token.ASSIGN, Rhs: []ast.Expr{rhs}}
}

// Return builds a return statement.
func Return(results ...ast.Expr) *ast.ReturnStmt { return &ast.ReturnStmt{Results: results} }

// TypeSwitch builds `switch name := scrutinee.(type) { body }`.
func TypeSwitch(name string, scrutinee ast.Expr, clauses []ast.Stmt) *ast.TypeSwitchStmt {
	return &ast.TypeSwitchStmt{
		Assign: &ast.AssignStmt{
			Lhs: []ast.Expr{Ident(name)},
			Tok: token.DEFINE,
			Rhs: []ast.Expr{&ast.TypeAssertExpr{X: scrutinee}},
		},
		Body: &ast.BlockStmt{List: clauses},
	}
}

// CaseClause builds one `case *Variant:` (or `default:` when variant=="")
// arm of a type switch.
func CaseClause(variant string, body []ast.Stmt) *ast.CaseClause {
	if variant == "" {
		return &ast.CaseClause{Body: body}
	}
	return &ast.CaseClause{List: []ast.Expr{&ast.StarExpr{X: Ident(variant)}}, Body: body}
}
