package typecheck_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martianoff/exprdual/internal/duality/index"
	"github.com/martianoff/exprdual/internal/duality/shape"
	"github.com/martianoff/exprdual/internal/duality/typecheck"
)

func TestDeltaLookupAndScoping(t *testing.T) {
	d := typecheck.New()
	d.Bind("x", shape.Named("int"))
	d.Push()
	d.Bind("y", shape.Named("int"))
	_, ok := d.Lookup("x")
	assert.True(t, ok)
	_, ok = d.Lookup("y")
	assert.True(t, ok)
	d.Pop()
	_, ok = d.Lookup("y")
	assert.False(t, ok)
}

func TestDeltaClone(t *testing.T) {
	d := typecheck.New()
	d.Bind("x", shape.Named("int"))
	clone := d.Clone()
	clone.Bind("z", shape.Named("string"))
	_, ok := d.Lookup("z")
	assert.False(t, ok)
	_, ok = clone.Lookup("x")
	assert.True(t, ok)
}

func TestTypeOfBasicAndIdent(t *testing.T) {
	src := `package p
func f() {
	x := 1
	_ = x
}`
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "f.go", src, 0)
	require.NoError(t, err)
	ix, err := index.Build(file)
	require.NoError(t, err)

	lit := &ast.BasicLit{Kind: token.INT, Value: "1"}
	sh, err := typecheck.TypeOf(lit, typecheck.New(), ix)
	require.NoError(t, err)
	assert.Equal(t, "int", sh.Name)

	d := typecheck.New()
	d.Bind("x", shape.Named("int"))
	sh2, err := typecheck.TypeOf(ast.NewIdent("x"), d, ix)
	require.NoError(t, err)
	assert.Equal(t, "int", sh2.Name)
}

func TestExtendLetInfersFromInit(t *testing.T) {
	ix, _ := index.Build(mustParse(t, "package p\n"))
	d := typecheck.New()
	typecheck.ExtendLet(d, "n", nil, &ast.BasicLit{Kind: token.INT, Value: "1"}, ix)
	sh, ok := d.Lookup("n")
	require.True(t, ok)
	assert.Equal(t, "int", sh.Name)
}

func mustParse(t *testing.T, src string) *ast.File {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "f.go", src, 0)
	require.NoError(t, err)
	return file
}
