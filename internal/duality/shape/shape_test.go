package shape_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/martianoff/exprdual/internal/duality/shape"
)

func TestShapeRefAndBoxOf(t *testing.T) {
	base := shape.Named("Shape")
	assert.True(t, base.Form.IsNone())

	ref := base.RefOf()
	assert.Equal(t, shape.Ref, ref.Form.Kind)
	assert.Equal(t, "&Shape", ref.String())

	box := base.BoxOf()
	assert.Equal(t, shape.Box, box.Form.Kind)
	assert.Equal(t, "box<Shape>", box.String())
}

func TestShapeDeref(t *testing.T) {
	ref := shape.Named("Shape").RefOf()
	inner, err := ref.Deref()
	assert.NoError(t, err)
	assert.True(t, inner.Form.IsNone())

	_, err = inner.Deref()
	assert.Error(t, err)
}

func TestShapeEqual(t *testing.T) {
	a := shape.Named("Shape").RefOf()
	b := shape.Named("Shape").RefOf()
	c := shape.Named("Shape").BoxOf()
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestExpectedSatisfied(t *testing.T) {
	assert.True(t, shape.NoConstraint.Satisfied(shape.Named("Shape")))
	assert.True(t, shape.AnyConstraint.Satisfied(shape.Named("Shape").RefOf()))

	exact := shape.ExactConstraint(shape.Named("Shape"))
	assert.True(t, exact.Satisfied(shape.Named("Shape")))
	assert.False(t, exact.Satisfied(shape.Named("Shape").RefOf()))

	refOnly := shape.RefConstraint(shape.RefOf(shape.NoneForm))
	assert.True(t, refOnly.Satisfied(shape.Named("Anything").RefOf()))
	assert.False(t, refOnly.Satisfied(shape.Named("Anything")))
}

func TestWantForm(t *testing.T) {
	_, ok := shape.WantForm(shape.NoConstraint)
	assert.False(t, ok)

	form, ok := shape.WantForm(shape.ExactConstraint(shape.Named("Shape").BoxOf()))
	assert.True(t, ok)
	assert.Equal(t, shape.Box, form.Kind)
}
