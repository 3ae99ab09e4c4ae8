package transform

import (
	"go/ast"
	"go/token"
	"go/types"
	"sort"

	"github.com/martianoff/exprdual/internal/duality/build"
	"github.com/martianoff/exprdual/internal/duality/diag"
	"github.com/martianoff/exprdual/internal/duality/index"
	"github.com/martianoff/exprdual/internal/duality/rewrite"
	"github.com/martianoff/exprdual/internal/duality/shape"
	"github.com/martianoff/exprdual/internal/duality/typecheck"
)

// oo2fpResult carries the declarations the interface-to-datatype transform
// adds, and the names of the declarations it supersedes (spec §4.4).
type oo2fpResult struct {
	Add     []ast.Decl
	Removed map[string]bool // struct/interface/method/func names removed from the residual tree
}

// TransformInterface implements the Declaration Transformer's OO-to-FP
// direction (spec §4.4): interface iface becomes a sealed datatype with one
// variant per generator and one consumer function per destructor.
func TransformInterface(ix *index.Index, ctx *rewrite.Context, iface string) (*oo2fpResult, error) {
	ifaceInfo, ok := ix.Interfaces[iface]
	if !ok {
		return nil, diag.NewNotFound("interface", iface)
	}
	gens, err := ix.GeneratorsOf(iface)
	if err != nil {
		return nil, err
	}
	if len(gens) == 0 {
		return nil, diag.NewUnsupported("interface %q has no generators to form datatype variants", iface)
	}
	sort.Slice(gens, func(i, j int) bool { return gens[i].Name < gens[j].Name })

	res := &oo2fpResult{Removed: map[string]bool{iface: true}}

	// Emit the sealed datatype interface (marker method only) and one
	// variant struct plus marker-method implementation per generator
	// (SPEC_FULL.md §0: a generator's own struct already models its
	// variant's fields, so it is kept and given a marker method in place
	// of its destructor methods).
	res.Add = append(res.Add, build.SealedInterface(iface, nil))
	dt := &index.Datatype{Name: iface, MarkerName: build.MarkerMethodName(iface)}
	for _, g := range gens {
		res.Add = append(res.Add, g.StructDec)
		res.Removed[g.Name] = true
		res.Add = append(res.Add, build.MarkerMethod(g.Name, iface))
		dt.Variants = append(dt.Variants, &index.Variant{Name: g.Name, Fields: g.Fields})
		for _, m := range g.Methods {
			res.Removed[g.Name+"."+m.Name.Name] = true
		}
	}
	ix.AddDatatype(dt)

	for _, d := range ifaceInfo.Destructors {
		fn, err := buildConsumer(ix, ctx, iface, gens, d)
		if err != nil {
			return nil, err
		}
		res.Add = append(res.Add, fn)
		ix.AddConsumer(iface, &index.Consumer{
			Name: d.Name, Datatype: iface, Decl: fn, SelfName: "self",
			Receiver: d.Receiver, Params: d.Params, Result: d.Result, HasResult: d.HasResult,
		})
		if d.Default != nil {
			// The default-body sibling function is folded into the
			// consumer's wildcard arm; it does not survive as its own
			// residual declaration.
			res.Removed[d.Default.Name.Name] = true
		}
	}

	return res, nil
}

// buildConsumer builds the free function for destructor d: a type switch
// over every generator implementing d, each case body a renamed, fully
// rewritten copy of that generator's method body. A generator lacking an
// implementation falls into a default arm (spec §4.1's "wildcard arm"
// path) rather than failing the whole transform. Two generators whose
// implementations of d declare different result types are rejected with an
// UnsupportedError naming d and both generators.
func buildConsumer(ix *index.Index, ctx *rewrite.Context, iface string, gens []*index.Generator, d *index.Destructor) (*ast.FuncDecl, error) {
	const selfName = "self"
	const scrutinee = "v"

	var clauses []ast.Stmt
	missing := false
	var firstGen, firstResult string
	for _, g := range gens {
		impl, err := ix.DestructorImpl(g, d.Name)
		if err != nil {
			missing = true
			continue
		}
		results := &ast.FieldList{}
		if impl.Type.Results != nil {
			for _, f := range impl.Type.Results.List {
				for i := 0; i < len(f.Names) || i == 0; i++ {
					results.List = append(results.List, &ast.Field{Type: f.Type})
				}
			}
		}
		result := types.ExprString(&ast.FuncType{Params: &ast.FieldList{}, Results: results})
		if firstGen == "" {
			firstGen, firstResult = g.Name, result
		} else if result != firstResult {
			return nil, diag.NewUnsupported("destructor %q: generators %q and %q declare different results (%s vs %s); mixed return shapes are unsupported", d.Name, firstGen, g.Name, firstResult, result)
		}
		recvName, _ := implReceiverName(impl)
		body := rewrite.CloneBlock(impl.Body)
		rewrite.RenameIdent(body, recvName, scrutinee)

		paramNames := implParamNames(impl)
		armDelta := typecheck.SeedFromSignature(scrutinee, shape.Named(g.Name).RefOf(), d.Params, paramNames)

		expected := shape.NoConstraint
		if d.HasResult {
			expected = shape.ExactConstraint(d.Result)
		}
		rewritten, rerr := rewrite.Block(ctx, body, armDelta, expected)
		if rerr != nil {
			return nil, rerr
		}
		clauses = append(clauses, build.CaseClause(g.Name, rewritten.List))
	}
	if missing {
		armBody := defaultArmBody(d)
		if d.Default != nil {
			fromDefault, derr := buildDefaultArm(ctx, iface, d, selfName)
			if derr != nil {
				return nil, derr
			}
			armBody = fromDefault
		}
		clauses = append(clauses, build.CaseClause("", armBody))
	}

	sw := build.TypeSwitch(scrutinee, build.Ident(selfName), clauses)
	params := append([]index.Field{{Name: selfName, Shape: shape.Named(iface)}}, d.Params...)
	return build.Func(d.Name, params, d.Result, d.HasResult, &ast.BlockStmt{List: []ast.Stmt{sw}}), nil
}

// buildDefaultArm derives the wildcard arm's body from the interface's
// declared default destructor body (spec §4.4 point 2): the default
// function's own self parameter is renamed to the consumer's self
// parameter, so references to it resolve against the same, still-abstract
// interface-typed value the switch discriminates on (spec §8.4's Shape
// internal_angle scenario: a default body calling another destructor of
// self, e.g. `180*(side_count(self)-2)`).
func buildDefaultArm(ctx *rewrite.Context, iface string, d *index.Destructor, selfName string) ([]ast.Stmt, error) {
	recvName, ok := defaultFuncSelfName(d.Default)
	if !ok {
		return defaultArmBody(d), nil
	}
	body := rewrite.CloneBlock(d.Default.Body)
	rewrite.RenameIdent(body, recvName, selfName)

	paramNames := defaultFuncParamNames(d.Default)
	armDelta := typecheck.SeedFromSignature(selfName, shape.Named(iface), d.Params, paramNames)

	expected := shape.NoConstraint
	if d.HasResult {
		expected = shape.ExactConstraint(d.Result)
	}
	rewritten, err := rewrite.Block(ctx, body, armDelta, expected)
	if err != nil {
		return nil, err
	}
	return rewritten.List, nil
}

func defaultArmBody(d *index.Destructor) []ast.Stmt {
	msg := &ast.BasicLit{Kind: token.STRING, Value: "\"unreachable: unimplemented destructor " + d.Name + "\""}
	return []ast.Stmt{&ast.ExprStmt{X: build.Call(build.Ident("panic"), msg)}}
}

// defaultFuncSelfName returns the name of a default-body free function's
// first parameter, the binding its body uses for the abstract self value.
func defaultFuncSelfName(fn *ast.FuncDecl) (string, bool) {
	if fn.Type.Params == nil || len(fn.Type.Params.List) == 0 {
		return "", false
	}
	first := fn.Type.Params.List[0]
	if len(first.Names) != 1 {
		return "", false
	}
	return first.Names[0].Name, true
}

// defaultFuncParamNames returns a default-body function's parameter names
// excluding the leading self parameter, aligned against the destructor's
// own Params.
func defaultFuncParamNames(fn *ast.FuncDecl) []string {
	names := implParamNames(fn)
	if len(names) == 0 {
		return names
	}
	return names[1:]
}

func implReceiverName(fn *ast.FuncDecl) (string, bool) {
	if fn.Recv == nil || len(fn.Recv.List) != 1 || len(fn.Recv.List[0].Names) != 1 {
		return "", false
	}
	return fn.Recv.List[0].Names[0].Name, true
}

func implParamNames(fn *ast.FuncDecl) []string {
	var names []string
	if fn.Type.Params == nil {
		return names
	}
	for _, f := range fn.Type.Params.List {
		if len(f.Names) == 0 {
			names = append(names, "")
			continue
		}
		for _, n := range f.Names {
			names = append(names, n.Name)
		}
	}
	return names
}
