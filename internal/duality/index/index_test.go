package index_test

import (
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martianoff/exprdual/internal/duality/fixtures"
	"github.com/martianoff/exprdual/internal/duality/index"
	"github.com/martianoff/exprdual/internal/duality/shape"
)

func mustBuild(t *testing.T, src string) *index.Index {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "fixture.go", src, parser.ParseComments)
	require.NoError(t, err)
	ix, err := index.Build(file)
	require.NoError(t, err)
	return ix
}

func TestBuildExprInterface(t *testing.T) {
	ix := mustBuild(t, fixtures.Expr)

	require.True(t, ix.IsInterface("Expr"))
	gens, err := ix.GeneratorsOf("Expr")
	require.NoError(t, err)
	names := map[string]bool{}
	for _, g := range gens {
		names[g.Name] = true
	}
	assert.True(t, names["Lit"])
	assert.True(t, names["Add"])

	dst, err := ix.DestructorsOf("Expr")
	require.NoError(t, err)
	require.Len(t, dst, 1)
	assert.Equal(t, "Eval", dst[0].Name)
	assert.True(t, dst[0].HasResult)

	lit, err := ix.GeneratorByName("Lit")
	require.NoError(t, err)
	_, err = ix.DestructorImpl(lit, "Eval")
	assert.NoError(t, err)
}

func TestBuildSetFieldShapes(t *testing.T) {
	ix := mustBuild(t, fixtures.Set)

	sh, err := ix.FieldType("NonEmptySet", "Rest")
	require.NoError(t, err)
	assert.Equal(t, "Set", sh.Name)
	assert.Equal(t, shape.Box, sh.Form.Kind)
}

func TestBuildLightMutableDestructorNotYetClassified(t *testing.T) {
	// Light's Toggle is an interface destructor (index.Destructor), not a
	// free-function consumer, so its ReceiverMode comes from the absent
	// trailing comment (defaulting to borrowed) rather than from
	// classifyFunction's mutable-consumer inference; that inference only
	// runs when index.Build classifies a free-function consumer in
	// FP-encoded source.
	ix := mustBuild(t, fixtures.Light)
	dst, err := ix.DestructorsOf("Light")
	require.NoError(t, err)
	var toggle *index.Destructor
	for _, d := range dst {
		if d.Name == "Toggle" {
			toggle = d
		}
	}
	require.NotNil(t, toggle)
	assert.Equal(t, index.RecvBorrowed, toggle.Receiver)
}

func TestBuildShapesMissingGeneratorImpl(t *testing.T) {
	ix := mustBuild(t, fixtures.Shapes)
	square, err := ix.GeneratorByName("Square")
	require.NoError(t, err)
	_, err = ix.DestructorImpl(square, "Describe")
	assert.Error(t, err)

	dst, err := ix.DestructorsOf("Shape")
	require.NoError(t, err)
	var describe *index.Destructor
	for _, d := range dst {
		if d.Name == "Describe" {
			describe = d
		}
	}
	require.NotNil(t, describe)
	assert.Nil(t, describe.Default)
}

func TestBuildShapesWithDefaultBody(t *testing.T) {
	ix := mustBuild(t, fixtures.ShapesWithDefault)

	dst, err := ix.DestructorsOf("Shape")
	require.NoError(t, err)
	var describe *index.Destructor
	for _, d := range dst {
		if d.Name == "Describe" {
			describe = d
		}
	}
	require.NotNil(t, describe)
	require.NotNil(t, describe.Default)
	assert.Equal(t, "DescribeDefault", describe.Default.Name.Name)

	// DescribeDefault's first parameter is typed as the interface itself,
	// not a datatype, so it is filed as a plain function rather than a
	// consumer (index/classify.go's dtName lookup only matches datatypes).
	_, ok := ix.Functions["DescribeDefault"]
	assert.True(t, ok)
}
