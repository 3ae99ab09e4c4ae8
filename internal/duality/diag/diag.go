// Package diag implements the error taxonomy of spec §7: a handful of
// typed diagnostics distinguished by Go type rather than by sentinel string
// matching, split into the ones callers are expected to recover from
// locally (NotFoundError, NotABoxError, InferenceFailedError) and the ones
// that abort the run (UnsupportedError, AdjustError).
package diag

import "fmt"

// NotFoundError reports that a named item of an expected kind is absent
// from the global index. Some lookups (destructor-impl) expect this outcome
// and branch on it rather than treating it as exceptional.
type NotFoundError struct {
	Name string
	Kind string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// NewNotFound builds a NotFoundError for item name of the given kind
// ("interface", "datatype", "generator", "variant", "destructor",
// "signature", "field", ...).
func NewNotFound(kind, name string) *NotFoundError {
	return &NotFoundError{Name: name, Kind: kind}
}

// NotABoxError reports that an unwrap was attempted on a shape whose
// outermost ref-form is not the expected wrapper.
type NotABoxError struct {
	TypeName string
	Want     string
}

func (e *NotABoxError) Error() string {
	return fmt.Sprintf("%s is not a %s", e.TypeName, e.Want)
}

// InferenceFailedError reports that typeof could not compute a shape for an
// expression. The rewriter treats this as non-fatal: it leaves the
// expression's shape unchanged and continues.
type InferenceFailedError struct {
	Reason string
}

func (e *InferenceFailedError) Error() string {
	return fmt.Sprintf("type inference failed: %s", e.Reason)
}

// UnsupportedError reports a fatal structural condition: a construct the
// current transform does not know how to rewrite, or an input shape the
// spec explicitly leaves unsupported (multi-interface generators, mixed
// return shapes across generators of one destructor). Aborts the run.
type UnsupportedError struct {
	Message string
}

func (e *UnsupportedError) Error() string { return e.Message }

// NewUnsupported builds an UnsupportedError with a formatted message.
func NewUnsupported(format string, args ...any) *UnsupportedError {
	return &UnsupportedError{Message: fmt.Sprintf(format, args...)}
}

// AdjustError reports a shape pair with no defined coercion between them.
// Fatal.
type AdjustError struct {
	Current  string
	Expected string
}

func (e *AdjustError) Error() string {
	return fmt.Sprintf("no coercion from %s to %s", e.Current, e.Expected)
}

// Fatal reports whether err is one of the taxonomy's fatal kinds
// (UnsupportedError, AdjustError). Structural not-found, not-a-box, and
// inference-failed are always recoverable by the caller.
func Fatal(err error) bool {
	switch err.(type) {
	case *UnsupportedError, *AdjustError:
		return true
	default:
		return false
	}
}
