package typecheck

import (
	"go/ast"

	"github.com/martianoff/exprdual/internal/duality/index"
	"github.com/martianoff/exprdual/internal/duality/shape"
)

// SeedFromSignature builds Δ for a function body: each parameter
// contributes a binding, and a receiver (if recvName/recvShape are
// non-empty) binds self (spec §4.2).
func SeedFromSignature(recvName string, recvShape shape.Shape, params []index.Field, paramNames []string) *Delta {
	d := New()
	if recvName != "" {
		d.Bind(recvName, recvShape)
		d.SetSelf(recvShape)
	}
	for i, p := range params {
		name := p.Name
		if name == "" && i < len(paramNames) {
			name = paramNames[i]
		}
		if name != "" {
			d.Bind(name, p.Shape)
		}
	}
	return d
}

// ExtendLet extends Δ at a `let`-shaped binding (spec §4.2): from the
// declared annotation when present, otherwise by inferring the
// initializer's shape against Δ and Γ.
func ExtendLet(d *Delta, name string, declared *shape.Shape, init ast.Expr, ix *index.Index) {
	if declared != nil {
		d.Bind(name, *declared)
		return
	}
	if init == nil {
		return
	}
	if sh, err := TypeOf(init, d, ix); err == nil {
		d.Bind(name, sh)
	}
}

// ExtendMatchArm extends Δ with a pattern's bound sub-fields, each bound as
// a borrowed reference to the pattern's underlying values (spec §4.2: "For
// match arms, Δ is extended with each bound sub-pattern, with fields
// treated as borrowed references").
func ExtendMatchArm(d *Delta, variant string, bound []string, ix *index.Index) {
	for _, name := range bound {
		sh, err := ix.FieldType(variant, name)
		if err != nil {
			continue
		}
		d.Bind(name, sh.RefOf())
	}
}
