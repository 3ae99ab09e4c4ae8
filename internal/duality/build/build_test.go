package build_test

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martianoff/exprdual/internal/duality/build"
	"github.com/martianoff/exprdual/internal/duality/index"
	"github.com/martianoff/exprdual/internal/duality/shape"
)

func render(t *testing.T, node any) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, format.Node(&buf, token.NewFileSet(), node))
	return buf.String()
}

func TestSealedInterfaceHasMarkerMethod(t *testing.T) {
	decl := build.SealedInterface("Shape", nil)
	out := render(t, decl)
	assert.Contains(t, out, "isShape()")
}

func TestDestructorMethodFieldAnnotatesMutableReceiver(t *testing.T) {
	field := build.DestructorMethodField("Toggle", nil, shape.Named("Light"), true, index.RecvMutable)
	assert.NotNil(t, field.Comment)
	assert.Contains(t, field.Comment.Text(), "self:mut")
}

func TestDestructorMethodFieldOmitsCommentForBorrowed(t *testing.T) {
	field := build.DestructorMethodField("Area", nil, shape.Named("float64"), true, index.RecvBorrowed)
	assert.Nil(t, field.Comment)
}

func TestTypeExprWrapsRefAndBox(t *testing.T) {
	ref := shape.Named("Shape").RefOf()
	out := render(t, build.TypeExpr(ref))
	assert.Equal(t, "*Shape", out)

	box := shape.Named("Shape").BoxOf()
	out = render(t, build.TypeExpr(box))
	assert.Equal(t, "*Shape", out)
}

func TestMarkerMethod(t *testing.T) {
	fn := build.MarkerMethod("Circle", "Shape")
	out := render(t, fn)
	assert.Contains(t, out, "func (v *Circle) isShape()")
}

func TestQualifiedCompositeLit(t *testing.T) {
	fields := map[string]ast.Expr{"Radius": &ast.BasicLit{Kind: token.FLOAT, Value: "1.0"}}
	lit := build.QualifiedCompositeLit("Shape", "Circle", fields, []string{"Radius"})
	out := render(t, lit)
	assert.Equal(t, "Shape.Circle{Radius: 1.0}", out)
}
