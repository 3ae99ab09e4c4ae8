// Package shape models the typed-shape algebra the rewriter threads through
// every expression: a type name paired with a ref-form describing whether a
// value is owned, borrowed, or held behind a heap indirection.
package shape

import "fmt"

// Kind distinguishes the three ref-forms a type can carry. Kinds compose:
// RefOf(BoxOf(None)) is a borrowed reference to a heap-owned value.
type Kind int

const (
	// None is an owned value with no indirection.
	None Kind = iota
	// Ref is a borrowed reference; never retained past the call that took it.
	Ref
	// Box is an owning heap indirection.
	Box
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Ref:
		return "ref"
	case Box:
		return "box"
	default:
		return "unknown"
	}
}

// Form is a ref-form: a Kind plus, for Ref and Box, the inner form it wraps.
// A bare Kind value of None has no inner form.
type Form struct {
	Kind  Kind
	Inner *Form
}

// NoneForm is the owned, unwrapped form.
var NoneForm = Form{Kind: None}

// RefOf wraps f in one layer of borrowed reference.
func RefOf(f Form) Form { return Form{Kind: Ref, Inner: &f} }

// BoxOf wraps f in one layer of owning heap indirection.
func BoxOf(f Form) Form { return Form{Kind: Box, Inner: &f} }

// Peel removes one outer Ref or Box layer, returning the inner form. It
// reports false if f is already None (nothing to peel).
func (f Form) Peel() (Form, bool) {
	if f.Kind == None || f.Inner == nil {
		return NoneForm, false
	}
	return *f.Inner, true
}

// IsNone reports whether f is the owned, unwrapped form.
func (f Form) IsNone() bool { return f.Kind == None }

func (f Form) String() string {
	switch f.Kind {
	case None:
		return ""
	case Ref:
		return "&" + f.Inner.String()
	case Box:
		return "box<" + f.Inner.String() + ">"
	default:
		return "?"
	}
}

// Shape is a typed shape: a type name paired with its ref-form. It is the
// unit Δ associates with every binder and the unit `typeof` infers for every
// expression.
type Shape struct {
	Name string
	Form Form
}

// Named builds the owned (None ref-form) shape for a type name.
func Named(name string) Shape { return Shape{Name: name, Form: NoneForm} }

// WithForm returns a copy of s with its ref-form replaced.
func (s Shape) WithForm(f Form) Shape { return Shape{Name: s.Name, Form: f} }

// RefOf returns the shape borrowing s by one reference layer.
func (s Shape) RefOf() Shape { return s.WithForm(RefOf(s.Form)) }

// BoxOf returns the shape owning s behind one heap indirection.
func (s Shape) BoxOf() Shape { return s.WithForm(BoxOf(s.Form)) }

// Deref returns the shape with one outer Ref/Box layer peeled, and an error
// if s is already unwrapped (spec §4.2: "error if inner is None").
func (s Shape) Deref() (Shape, error) {
	inner, ok := s.Form.Peel()
	if !ok {
		return Shape{}, fmt.Errorf("cannot dereference %s: already unwrapped", s)
	}
	return s.WithForm(inner), nil
}

func (s Shape) String() string {
	switch s.Form.Kind {
	case None:
		return s.Name
	case Ref:
		return "&" + s.WithForm(*s.Form.Inner).String()
	case Box:
		return "box<" + s.WithForm(*s.Form.Inner).String() + ">"
	default:
		return s.Form.String() + s.Name
	}
}

// Equal reports whether two shapes describe the same name and ref-form.
func (s Shape) Equal(other Shape) bool {
	return s.Name == other.Name && formsEqual(s.Form, other.Form)
}

func formsEqual(a, b Form) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == None {
		return true
	}
	return formsEqual(*a.Inner, *b.Inner)
}

// Expected is the constraint the rewriter carries down into a subexpression.
// It is one of: no constraint at all (Unconstrained), no constraint but
// still inherited through position (Any), only the ref-form matters
// (RefOnly), or the full name-and-form must match (Exact) — spec §4.6.
type ExpectedKind int

const (
	Unconstrained ExpectedKind = iota
	Any
	RefOnly
	Exact
)

// Expected pairs an ExpectedKind with the data it carries (a Form for
// RefOnly, a full Shape for Exact).
type Expected struct {
	Kind  ExpectedKind
	Form  Form
	Shape Shape
}

// NoConstraint is the expected-shape value meaning "no constraint".
var NoConstraint = Expected{Kind: Unconstrained}

// AnyConstraint means "no constraint but inherited through position".
var AnyConstraint = Expected{Kind: Any}

// RefConstraint constrains only the ref-form of the result.
func RefConstraint(f Form) Expected { return Expected{Kind: RefOnly, Form: f} }

// ExactConstraint constrains both the name and the ref-form of the result.
func ExactConstraint(s Shape) Expected { return Expected{Kind: Exact, Shape: s} }

// form returns the ref-form this expectation constrains, if any.
func (e Expected) form() (Form, bool) {
	switch e.Kind {
	case RefOnly:
		return e.Form, true
	case Exact:
		return e.Shape.Form, true
	default:
		return Form{}, false
	}
}

// Satisfied reports whether an actual shape already matches this
// expectation; Unconstrained and Any are always satisfied.
func (e Expected) Satisfied(actual Shape) bool {
	switch e.Kind {
	case Unconstrained, Any:
		return true
	case RefOnly:
		return formsEqual(actual.Form, e.Form)
	case Exact:
		return actual.Equal(e.Shape)
	default:
		return true
	}
}

// WantForm reports the ref-form a constraint demands, for use by Adjust.
func WantForm(e Expected) (Form, bool) { return e.form() }
