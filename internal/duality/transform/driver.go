// Package transform implements the Direction Driver and Declaration
// Transformer of spec §4.3/§4.4/§4.5: the two-stage pipeline that builds Γ,
// rewrites every interface/datatype declaration to its dual, then
// re-walks the whole residual tree so bodies stay coherent with the new
// dispatch form.
package transform

import (
	"go/ast"
	"go/token"
	"sort"

	"github.com/martianoff/exprdual/internal/duality/diag"
	"github.com/martianoff/exprdual/internal/duality/index"
	"github.com/martianoff/exprdual/internal/duality/rewrite"
)

// Direction selects which half of the expression-problem duality a run
// converts towards (spec §4: "Direction Driver").
type Direction int

const (
	// OOToFP converts interface+generator declarations to datatype+consumer
	// declarations.
	OOToFP Direction = iota
	// FPToOO converts datatype+consumer declarations to interface+generator
	// declarations.
	FPToOO
)

// ParseDirection parses a CLI direction argument (spec §6).
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "oo-to-fp", "oo2fp":
		return OOToFP, nil
	case "fp-to-oo", "fp2oo":
		return FPToOO, nil
	default:
		return 0, diag.NewUnsupported("unknown direction %q (want oo-to-fp or fp-to-oo)", s)
	}
}

func (d Direction) String() string {
	if d == OOToFP {
		return "oo-to-fp"
	}
	return "fp-to-oo"
}

// Run executes the full two-stage pipeline over file and returns the
// transformed file. It builds Γ once up front, dispatches Stage 1 against
// every interface (OOToFP) or datatype (FPToOO) declared at the top level,
// then re-walks the residual, untransformed declarations in Stage 2 so
// their call sites stay coherent with the new dispatch form (spec §4.3).
func Run(file *ast.File, dir Direction) (*ast.File, error) {
	ix, err := index.Build(file)
	if err != nil {
		// Every error Build returns is a structural-invariant violation
		// (spec §3), aggregated via multierror; none of them is the kind of
		// expected not-found outcome a caller branches on, so any non-nil
		// result here aborts the run.
		return nil, err
	}

	ctx := &rewrite.Context{
		Index:             ix,
		TransformedIfaces: map[string]bool{},
		TransformedTypes:  map[string]bool{},
	}

	var added []ast.Decl
	removed := map[string]bool{}

	switch dir {
	case OOToFP:
		ctx.Mode = rewrite.OOtoFP
		var targets []string
		for name := range ix.Interfaces {
			targets = append(targets, name)
		}
		sort.Strings(targets)
		for _, name := range targets {
			ctx.TransformedIfaces[name] = true
		}
		for _, name := range targets {
			res, err := TransformInterface(ix, ctx, name)
			if err != nil {
				return nil, err
			}
			added = append(added, res.Add...)
			for k := range res.Removed {
				removed[k] = true
			}
		}

	case FPToOO:
		ctx.Mode = rewrite.FPtoOO
		var targets []string
		for name := range ix.Datatypes {
			targets = append(targets, name)
		}
		sort.Strings(targets)
		for _, name := range targets {
			ctx.TransformedTypes[name] = true
		}
		for _, name := range targets {
			res, err := TransformDatatype(ix, ctx, name)
			if err != nil {
				return nil, err
			}
			added = append(added, res.Add...)
			for k := range res.Removed {
				removed[k] = true
			}
		}

	default:
		return nil, diag.NewUnsupported("unknown direction %v", dir)
	}

	residual := residualDecls(file.Decls, removed)

	// Stage 2: every surviving declaration that was not itself emitted by
	// Stage 1 still needs its call sites patched against the transformed
	// names (spec §4.3's closing requirement).
	for _, decl := range residual {
		rewrite.PatchCallSites(ctx, decl)
	}

	out := &ast.File{
		Doc:     file.Doc,
		Name:    file.Name,
		Decls:   append(append([]ast.Decl{}, residual...), added...),
		Imports: file.Imports,
	}
	return out, nil
}

// residualDecls returns the top-level declarations of decls that Stage 1
// did not supersede, keyed by the declared name(s) each GenDecl/FuncDecl
// carries.
func residualDecls(decls []ast.Decl, removed map[string]bool) []ast.Decl {
	var out []ast.Decl
	for _, decl := range decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				out = append(out, d)
				continue
			}
			var keep []ast.Spec
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok || !removed[ts.Name.Name] {
					keep = append(keep, spec)
				}
			}
			if len(keep) > 0 {
				nd := *d
				nd.Specs = keep
				out = append(out, &nd)
			}
		case *ast.FuncDecl:
			if removedFunc(d, removed) {
				continue
			}
			out = append(out, d)
		default:
			out = append(out, decl)
		}
	}
	return out
}

func removedFunc(fn *ast.FuncDecl, removed map[string]bool) bool {
	if fn.Recv == nil {
		return removed[fn.Name.Name]
	}
	recvName, _ := implReceiverTypeName(fn.Recv)
	if removed[recvName+"."+fn.Name.Name] {
		return true
	}
	return removed[recvName+".marker"] && isMarkerFuncName(fn.Name.Name)
}

func implReceiverTypeName(recv *ast.FieldList) (string, bool) {
	if recv == nil || len(recv.List) != 1 {
		return "", false
	}
	switch t := recv.List[0].Type.(type) {
	case *ast.Ident:
		return t.Name, false
	case *ast.StarExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			return id.Name, true
		}
	}
	return "", false
}

func isMarkerFuncName(name string) bool {
	return len(name) > 2 && name[:2] == "is"
}
