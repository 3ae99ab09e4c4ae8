// Package typecheck implements Δ, the per-scope typing context spec §4.2
// describes, and the `typeof` inference rules it drives. Δ is created per
// function and mutated locally during traversal; it never outlives its
// function (spec §3 "Lifecycle").
package typecheck

import (
	"github.com/martianoff/exprdual/internal/duality/shape"
)

// Delta is Δ: an ordered mapping from in-scope binders to typed shapes,
// plus the current Self target if any.
type Delta struct {
	scopes []map[string]shape.Shape
	self   *shape.Shape
}

// New creates an empty Δ with one root scope.
func New() *Delta {
	return &Delta{scopes: []map[string]shape.Shape{make(map[string]shape.Shape)}}
}

// Push opens a nested scope (spec §5: "Δ is strictly scope-local and
// cloned when entering a nested scope that needs an independent view").
func (d *Delta) Push() { d.scopes = append(d.scopes, make(map[string]shape.Shape)) }

// Pop closes the innermost scope.
func (d *Delta) Pop() {
	if len(d.scopes) > 1 {
		d.scopes = d.scopes[:len(d.scopes)-1]
	}
}

// Clone returns an independent copy of d, for branches that must not see
// each other's bindings (e.g. sibling match arms).
func (d *Delta) Clone() *Delta {
	clone := &Delta{self: d.self}
	for _, scope := range d.scopes {
		copied := make(map[string]shape.Shape, len(scope))
		for k, v := range scope {
			copied[k] = v
		}
		clone.scopes = append(clone.scopes, copied)
	}
	return clone
}

// Bind associates name with sh in the innermost scope.
func (d *Delta) Bind(name string, sh shape.Shape) {
	d.scopes[len(d.scopes)-1][name] = sh
}

// SetSelf records the current Self target (the type `self`/receiver names
// resolve to), used by the consumer-to-destructor and destructor-to-
// consumer rewrites to substitute self uniformly.
func (d *Delta) SetSelf(sh shape.Shape) { d.self = &sh }

// Self returns the current Self target, if any.
func (d *Delta) Self() (shape.Shape, bool) {
	if d.self == nil {
		return shape.Shape{}, false
	}
	return *d.self, true
}

// Lookup resolves name against every open scope, innermost first.
func (d *Delta) Lookup(name string) (shape.Shape, bool) {
	for i := len(d.scopes) - 1; i >= 0; i-- {
		if sh, ok := d.scopes[i][name]; ok {
			return sh, true
		}
	}
	return shape.Shape{}, false
}
