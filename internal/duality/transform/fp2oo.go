package transform

import (
	"go/ast"
	"sort"

	"github.com/martianoff/exprdual/internal/duality/build"
	"github.com/martianoff/exprdual/internal/duality/diag"
	"github.com/martianoff/exprdual/internal/duality/index"
	"github.com/martianoff/exprdual/internal/duality/rewrite"
	"github.com/martianoff/exprdual/internal/duality/shape"
	"github.com/martianoff/exprdual/internal/duality/typecheck"
)

type fp2ooResult struct {
	Add     []ast.Decl
	Removed map[string]bool
}

// TransformDatatype implements the Declaration Transformer's FP-to-OO
// direction (spec §4.5): datatype dtName becomes an interface with one
// destructor per consumer, and each variant becomes a generator record
// implementing every destructor.
func TransformDatatype(ix *index.Index, ctx *rewrite.Context, dtName string) (*fp2ooResult, error) {
	dt, ok := ix.Datatypes[dtName]
	if !ok {
		return nil, diag.NewNotFound("datatype", dtName)
	}
	if len(dt.Variants) == 0 {
		return nil, diag.NewUnsupported("datatype %q has no variants to form generator records", dtName)
	}
	consumers, err := ix.ConsumersOf(dtName)
	if err != nil {
		return nil, err
	}

	var names []string
	for name := range consumers {
		names = append(names, name)
	}
	sort.Strings(names)

	res := &fp2ooResult{Removed: map[string]bool{dtName: true}}
	res.Add = append(res.Add, build.Interface(dtName, nil))
	ifaceDecl := res.Add[0].(*ast.GenDecl)
	ifaceType := ifaceDecl.Specs[0].(*ast.TypeSpec).Type.(*ast.InterfaceType)

	iface := &index.Interface{Name: dtName}
	consumerNames := map[string]bool{}
	for _, name := range names {
		consumerNames[name] = true
	}

	for _, name := range names {
		c := consumers[name]
		ifaceType.Methods.List = append(ifaceType.Methods.List,
			build.DestructorMethodField(c.Name, c.Params, c.Result, c.HasResult, c.Receiver))
		iface.Destructors = append(iface.Destructors, &index.Destructor{
			Name: c.Name, Params: c.Params, Result: c.Result, HasResult: c.HasResult, Receiver: c.Receiver,
		})
		res.Removed[c.Name] = true
	}
	ix.AddInterface(iface)

	for _, v := range dt.Variants {
		st, ok := ix.Structs[v.Name]
		if ok {
			res.Add = append(res.Add, st.Decl)
			res.Removed[v.Name] = true
		}
		g := &index.Generator{Name: v.Name, Interface: dtName, Fields: v.Fields, Methods: map[string]*ast.FuncDecl{}}
		for _, name := range names {
			c := consumers[name]
			method, err := buildDestructorMethod(ix, ctx, dtName, v, c, consumerNames)
			if err != nil {
				return nil, err
			}
			res.Add = append(res.Add, method)
			g.Methods[c.Name] = method
		}
		ix.AddGenerator(dtName, g)
		res.Removed[v.Name+".marker"] = true
	}

	return res, nil
}

// buildDestructorMethod extracts variant v's case-clause body out of
// consumer c (or falls back to c's whole body when the match doesn't
// distinguish per variant, spec §4.5's default-body rule), renames the
// consumer's self parameter to the literal `self`, rewrites sibling
// free-consumer calls into method calls, and runs the full expression
// rewriter over the result.
func buildDestructorMethod(ix *index.Index, ctx *rewrite.Context, dtName string, v *index.Variant, c *index.Consumer, consumerNames map[string]bool) (*ast.FuncDecl, error) {
	perVariant := c.Switch != nil && (c.Total || (c.HasResult && c.Result.Name == dtName))

	var body *ast.BlockStmt
	if perVariant {
		body = findCaseBody(c.Switch, v.Name)
		if body == nil {
			body = defaultCaseBody(c.Switch)
		}
		if body == nil {
			body = identityReturnBody(c)
		}
	} else {
		body = rewrite.CloneBlock(c.Decl.Body)
	}
	body = rewrite.CloneBlock(body)

	if perVariant {
		if bindName, ok := switchBindName(c.Switch); ok {
			rewrite.RenameIdent(body, bindName, "self")
		}
	}
	rewrite.RenameIdent(body, c.SelfName, "self")
	rewrite.RewriteFreeConsumerCalls(body, consumerNames)

	d := typecheck.SeedFromSignature("self", shape.Named(v.Name).RefOf(), c.Params, implParamNames(c.Decl))
	expected := shape.NoConstraint
	if c.HasResult {
		expected = shape.ExactConstraint(c.Result)
	}
	rewritten, err := rewrite.Block(ctx, body, d, expected)
	if err != nil {
		return nil, err
	}

	pointerRecv := true
	return build.Method("self", v.Name, pointerRecv, c.Name, c.Params, c.Result, c.HasResult, rewritten), nil
}

func findCaseBody(sw *ast.TypeSwitchStmt, variant string) *ast.BlockStmt {
	for _, stmt := range sw.Body.List {
		cc, ok := stmt.(*ast.CaseClause)
		if !ok || len(cc.List) != 1 {
			continue
		}
		name := variantExprName(cc.List[0])
		if name == variant {
			return &ast.BlockStmt{List: cc.Body}
		}
	}
	return nil
}

func defaultCaseBody(sw *ast.TypeSwitchStmt) *ast.BlockStmt {
	for _, stmt := range sw.Body.List {
		cc, ok := stmt.(*ast.CaseClause)
		if ok && len(cc.List) == 0 {
			return &ast.BlockStmt{List: cc.Body}
		}
	}
	return nil
}

// identityReturnBody produces `return self` for a mutable-self destructor
// whose match left a variant uncovered (spec §4.4 point 4's pure-update
// pattern: an unmatched variant is unchanged by the operation).
func identityReturnBody(c *index.Consumer) *ast.BlockStmt {
	if !c.HasResult {
		return &ast.BlockStmt{}
	}
	return &ast.BlockStmt{List: []ast.Stmt{build.Return(build.Ident(c.SelfName))}}
}

func switchBindName(sw *ast.TypeSwitchStmt) (string, bool) {
	a, ok := sw.Assign.(*ast.AssignStmt)
	if !ok || len(a.Lhs) != 1 {
		return "", false
	}
	id, ok := a.Lhs[0].(*ast.Ident)
	if !ok {
		return "", false
	}
	return id.Name, true
}

func variantExprName(e ast.Expr) string {
	switch t := e.(type) {
	case *ast.StarExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			return id.Name
		}
	case *ast.Ident:
		return t.Name
	}
	return ""
}
