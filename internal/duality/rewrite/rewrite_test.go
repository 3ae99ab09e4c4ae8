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

	"github.com/martianoff/exprdual/internal/duality/build"
	"github.com/martianoff/exprdual/internal/duality/fixtures"
	"github.com/martianoff/exprdual/internal/duality/index"
	"github.com/martianoff/exprdual/internal/duality/rewrite"
	"github.com/martianoff/exprdual/internal/duality/shape"
	"github.com/martianoff/exprdual/internal/duality/typecheck"
)

func renderNode(t *testing.T, n ast.Node) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, format.Node(&buf, token.NewFileSet(), n))
	return buf.String()
}

func mustIndex(t *testing.T, src string) *index.Index {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "f.go", src, 0)
	require.NoError(t, err)
	ix, err := index.Build(file)
	require.NoError(t, err)
	return ix
}

func TestExprIdentIsIdentity(t *testing.T) {
	ctx := &rewrite.Context{Index: mustIndex(t, fixtures.Expr), Mode: rewrite.OOtoFP}
	d := typecheck.New()
	d.Bind("x", shape.Named("int"))
	out, err := rewrite.Expr(ctx, ast.NewIdent("x"), d, shape.NoConstraint)
	require.NoError(t, err)
	assert.Equal(t, "x", render(t, out))
}

func TestExprAddressOfInsertedForRefExpected(t *testing.T) {
	ctx := &rewrite.Context{Index: mustIndex(t, fixtures.Expr), Mode: rewrite.OOtoFP}
	d := typecheck.New()
	d.Bind("x", shape.Named("Expr"))
	out, err := rewrite.Expr(ctx, ast.NewIdent("x"), d, shape.ExactConstraint(shape.Named("Expr").RefOf()))
	require.NoError(t, err)
	assert.Equal(t, "&x", render(t, out))
}

func TestExprDestructorCallRewrittenToFreeCallOOtoFP(t *testing.T) {
	ix := mustIndex(t, fixtures.Expr)
	ctx := &rewrite.Context{
		Index:             ix,
		Mode:              rewrite.OOtoFP,
		TransformedIfaces: map[string]bool{"Expr": true},
	}
	d := typecheck.New()
	d.Bind("e", shape.Named("Expr"))
	call := build.MethodCall(ast.NewIdent("e"), "Eval")
	out, err := rewrite.Expr(ctx, call, d, shape.NoConstraint)
	require.NoError(t, err)
	assert.Equal(t, "Eval(e)", render(t, out))
}

func TestExprConsumerCallRewrittenToMethodCallFPtoOO(t *testing.T) {
	ix := mustIndex(t, fixtures.Expr)
	ctx := &rewrite.Context{
		Index:            ix,
		Mode:             rewrite.FPtoOO,
		TransformedTypes: map[string]bool{},
	}
	// Simulate a datatype+consumer already synthesized for Expr so the
	// FP->OO consumer-call rewrite rule has something to recognize.
	ix.AddDatatype(&index.Datatype{Name: "Expr"})
	ix.AddConsumer("Expr", &index.Consumer{Name: "Eval", Datatype: "Expr"})
	ctx.TransformedTypes["Expr"] = true

	d := typecheck.New()
	d.Bind("e", shape.Named("Expr"))
	call := build.Call(build.Ident("Eval"), ast.NewIdent("e"))
	out, err := rewrite.Expr(ctx, call, d, shape.NoConstraint)
	require.NoError(t, err)
	assert.Equal(t, "e.Eval()", render(t, out))
}

func TestBlockThreadsExpectedToEveryReturn(t *testing.T) {
	ctx := &rewrite.Context{Index: mustIndex(t, fixtures.Expr), Mode: rewrite.OOtoFP}
	d := typecheck.New()
	d.Bind("x", shape.Named("Expr"))
	d.Bind("cond", shape.Named("bool"))
	src := `if cond {
	return x
}
return x`
	block := mustBlock(t, src)
	expected := shape.ExactConstraint(shape.Named("Expr").RefOf())
	out, err := rewrite.Block(ctx, block, d, expected)
	require.NoError(t, err)
	rendered := renderNode(t, out)
	assert.Contains(t, rendered, "return &x")
	// Both the early return inside the if and the trailing return must be
	// coerced, not just the block's last statement.
	assert.Equal(t, 2, countOccurrences(rendered, "return &x"))
}

func TestRenameIdentSkipsSelectorFieldHalf(t *testing.T) {
	block := mustBlock(t, "self.Value = 1\nreturn self")
	rewrite.RenameIdent(block, "self", "v")
	out := renderNode(t, block)
	assert.Contains(t, out, "v.Value = 1")
	assert.Contains(t, out, "return v")
	assert.NotContains(t, out, "self")
}

func TestRewriteFreeConsumerCallsBecomesMethodCall(t *testing.T) {
	block := mustBlock(t, "return Eval(self)")
	rewrite.RewriteFreeConsumerCalls(block, map[string]bool{"Eval": true})
	out := renderNode(t, block)
	assert.Equal(t, "{\n\treturn self.Eval()\n}", out)
}

func mustBlock(t *testing.T, stmts string) *ast.BlockStmt {
	t.Helper()
	src := "package p\nfunc f() { " + stmts + " }"
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "f.go", src, 0)
	require.NoError(t, err)
	return file.Decls[0].(*ast.FuncDecl).Body
}

func countOccurrences(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
		}
	}
	return n
}
