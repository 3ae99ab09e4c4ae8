// Package rewrite implements the expression rewriter of spec §4.6: a
// recursive tree-to-tree function that rewrites expressions to the
// opposite dispatch form, converts constructions, and inserts box/deref/
// reference adjustments to keep types coherent with an expected shape.
package rewrite

import "github.com/martianoff/exprdual/internal/duality/index"

// Mode selects which dispatch direction the rewriter converts expressions
// to (spec §4.3: the Direction Driver's two modes).
type Mode int

const (
	// OOtoFP rewrites destructor method calls on a transformed interface
	// into free-function (consumer) calls.
	OOtoFP Mode = iota
	// FPtoOO rewrites free calls to a transformed datatype's consumer into
	// method calls.
	FPtoOO
)

// Context carries the read-only data every rewrite rule needs: Γ (for
// signatures and subtype queries) plus which interfaces/datatypes are
// actually being transformed in this run (untransformed items keep their
// original dispatch form even under the active mode).
type Context struct {
	Index             *index.Index
	Mode              Mode
	TransformedIfaces map[string]bool // interfaces being turned into datatypes this run
	TransformedTypes  map[string]bool // datatypes being turned into interfaces this run
}
