package index

import (
	"go/ast"

	"github.com/martianoff/exprdual/internal/duality/shape"
)

// classifyFunction decides whether fn is a consumer of a known datatype
// (spec §4.1: "Functions whose first parameter's declared type is an
// in-scope datatype are additionally filed as consumers of that
// datatype") or a plain free function.
func classifyFunction(fn *ast.FuncDecl, ix *Index) (*Consumer, bool, error) {
	if fn.Type.Params == nil || len(fn.Type.Params.List) == 0 {
		return nil, false, nil
	}
	first := fn.Type.Params.List[0]
	if len(first.Names) == 0 {
		return nil, false, nil
	}
	selfName := first.Names[0].Name
	selfShape := ix.shapeOfExpr(first.Type, false)

	dtName := baseDatatypeName(selfShape)
	dt, ok := ix.Datatypes[dtName]
	if !ok {
		return nil, false, nil
	}

	recv := RecvOwned
	if selfShape.Form.Kind == shape.Ref {
		recv = RecvBorrowed
	}

	var params []Field
	for _, f := range fn.Type.Params.List[1:] {
		sh := ix.shapeOfExpr(f.Type, false)
		for _, n := range f.Names {
			params = append(params, Field{Name: n.Name, Shape: sh})
		}
	}

	c := &Consumer{
		Name:      fn.Name.Name,
		Datatype:  dtName,
		Decl:      fn,
		SelfName:  selfName,
		Receiver:  recv,
		Params:    params,
		Result:    ix.resultShapeOf(fn.Type.Results),
		HasResult: fn.Type.Results != nil && len(fn.Type.Results.List) > 0,
	}

	sw, ok := finalTypeSwitch(fn)
	if !ok {
		c.DefaultOnly = true
		return c, true, nil
	}
	c.Switch = sw
	c.Total = switchCoversVariants(sw, dt)
	// A consumer returning the datatype itself, updating fields in place,
	// is the pure-functional rendering of a `&mut self` destructor
	// (spec §4.4 point 4 / SPEC_FULL.md §0); mark it RecvMutable. fp2oo
	// carries the mark only as the `// self:mut` annotation on the emitted
	// destructor: the destructor keeps the consumer's datatype result and
	// still returns the updated value.
	if c.HasResult && c.Result.Name == dtName && recv == RecvBorrowed {
		c.Receiver = RecvMutable
	}
	return c, true, nil
}

// baseDatatypeName strips one layer of Ref so both `D` and `*D` resolve to
// the same datatype name.
func baseDatatypeName(sh shape.Shape) string {
	if sh.Form.Kind == shape.Ref {
		return sh.Name
	}
	return sh.Name
}

// finalTypeSwitch returns the type-switch statement that is the last
// statement of fn's body, if any (spec §3: "whose body's last expression is
// a match on that parameter").
func finalTypeSwitch(fn *ast.FuncDecl) (*ast.TypeSwitchStmt, bool) {
	if fn.Body == nil || len(fn.Body.List) == 0 {
		return nil, false
	}
	last := fn.Body.List[len(fn.Body.List)-1]
	sw, ok := last.(*ast.TypeSwitchStmt)
	return sw, ok
}

// switchCoversVariants reports whether sw has a case for every variant of
// dt (spec §8: "Every synthesised match is total with respect to the
// datatype").
func switchCoversVariants(sw *ast.TypeSwitchStmt, dt *Datatype) bool {
	covered := make(map[string]bool)
	for _, clause := range sw.Body.List {
		cc, ok := clause.(*ast.CaseClause)
		if !ok {
			continue
		}
		if cc.List == nil {
			return false // has a wildcard arm; not "total by enumeration"
		}
		for _, expr := range cc.List {
			if name, ok := variantCaseName(expr); ok {
				covered[name] = true
			}
		}
	}
	for _, v := range dt.Variants {
		if !covered[v.Name] {
			return false
		}
	}
	return true
}

func variantCaseName(expr ast.Expr) (string, bool) {
	switch t := expr.(type) {
	case *ast.StarExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			return id.Name, true
		}
	case *ast.Ident:
		return t.Name, true
	}
	return "", false
}
