package rewrite_test

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martianoff/exprdual/internal/duality/fixtures"
	"github.com/martianoff/exprdual/internal/duality/index"
	"github.com/martianoff/exprdual/internal/duality/rewrite"
	"github.com/martianoff/exprdual/internal/duality/shape"
)

func render(t *testing.T, e ast.Expr) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, format.Node(&buf, token.NewFileSet(), e))
	return buf.String()
}

func TestAdjustNoneToRef(t *testing.T) {
	x := ast.NewIdent("x")
	current := shape.Named("Shape")
	expected := shape.ExactConstraint(current.RefOf())
	out, err := rewrite.Adjust(nil, x, current, expected)
	require.NoError(t, err)
	assert.Equal(t, "&x", render(t, out))
}

func TestAdjustRefToNone(t *testing.T) {
	x := &ast.UnaryExpr{Op: token.AND, X: ast.NewIdent("x")}
	current := shape.Named("Shape").RefOf()
	expected := shape.ExactConstraint(shape.Named("Shape"))
	out, err := rewrite.Adjust(nil, x, current, expected)
	require.NoError(t, err)
	assert.Equal(t, "x", render(t, out))
}

func TestAdjustNoneToBox(t *testing.T) {
	x := ast.NewIdent("x")
	current := shape.Named("Shape")
	expected := shape.ExactConstraint(current.BoxOf())
	out, err := rewrite.Adjust(nil, x, current, expected)
	require.NoError(t, err)
	assert.Equal(t, "&x", render(t, out))
}

func TestAdjustIsIdempotent(t *testing.T) {
	x := ast.NewIdent("x")
	current := shape.Named("Shape")
	expected := shape.ExactConstraint(current.RefOf())
	once, err := rewrite.Adjust(nil, x, current, expected)
	require.NoError(t, err)
	onceShape := current.RefOf()
	twice, err := rewrite.Adjust(nil, once, onceShape, expected)
	require.NoError(t, err)
	assert.Equal(t, render(t, once), render(t, twice))
}

func TestAdjustUnconstrainedIsNoop(t *testing.T) {
	x := ast.NewIdent("x")
	out, err := rewrite.Adjust(nil, x, shape.Named("Shape"), shape.NoConstraint)
	require.NoError(t, err)
	assert.Same(t, x, out)
}

func TestAdjustRefToBoxGoesThroughNone(t *testing.T) {
	x := &ast.UnaryExpr{Op: token.AND, X: ast.NewIdent("x")}
	current := shape.Named("Shape").RefOf()
	expected := shape.ExactConstraint(shape.Named("Shape").BoxOf())
	out, err := rewrite.Adjust(nil, x, current, expected)
	require.NoError(t, err)
	assert.Equal(t, "&x", render(t, out))
}

// TestAdjustSkipsDerefWhenCurrentSatisfiesExpectedThroughPointer covers the
// Light/Toggle scenario (spec §4.4 point 4): Bulb is a generator of Light,
// whose sealed marker method is only declared on *Bulb, so a Bulb/Ref value
// already satisfies a Light/None expectation and must not be dereferenced.
func TestAdjustSkipsDerefWhenCurrentSatisfiesExpectedThroughPointer(t *testing.T) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "fixture.go", fixtures.Light, 0)
	require.NoError(t, err)
	ix, err := index.Build(file)
	require.NoError(t, err)

	x := ast.NewIdent("v")
	current := shape.Named("Bulb").RefOf()
	expected := shape.ExactConstraint(shape.Named("Light"))
	out, err := rewrite.Adjust(ix, x, current, expected)
	require.NoError(t, err)
	assert.Equal(t, "v", render(t, out))
}

// TestAdjustStillDerefsWhenNamesMatch ensures the pointer-satisfies-interface
// skip only fires across distinct names: a Shape/Ref value coerced to a
// Shape/None expectation is a plain narrowing, not a generator-to-interface
// coercion, so it must still dereference as before.
func TestAdjustStillDerefsWhenNamesMatch(t *testing.T) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "fixture.go", fixtures.Light, 0)
	require.NoError(t, err)
	ix, err := index.Build(file)
	require.NoError(t, err)

	x := &ast.UnaryExpr{Op: token.AND, X: ast.NewIdent("x")}
	current := shape.Named("Bulb").RefOf()
	expected := shape.ExactConstraint(shape.Named("Bulb"))
	out, err := rewrite.Adjust(ix, x, current, expected)
	require.NoError(t, err)
	assert.Equal(t, "x", render(t, out))
}
