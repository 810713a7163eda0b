package tp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	assert.Nil(t, Name())
	assert.Equal(t, &Named{Name: "Int"}, Name("Int"))
	assert.Equal(t, &Named{Parent: &Named{Name: "Builtin"}, Name: "Int64"}, Name("Builtin", "Int64"))
}

func TestAttrs(t *testing.T) {
	assert.True(t, IsAttr(InGuaranteed))
	assert.True(t, IsAttr(YieldOnce))
	assert.False(t, IsAttr("bogus"))

	assert.True(t, IsThickness(Thick))
	assert.True(t, IsThickness(ObjCMetatype))
	assert.False(t, IsThickness(Inout))
}

func TestFunc(t *testing.T) {
	f := &Func{
		Attrs: []Attr{
			{Name: YieldOnce},
			{Name: ConventionAttr, Convention: &Convention{Name: "witness_method", Witness: "Comparable"}},
		},
		Generics: []Generics{
			{Params: []string{"τ_0_0"}},
			{Params: []string{"τ_1_0", "τ_1_1"}},
		},
		Result: Empty(),
	}

	assert.Equal(t, &Convention{Name: "witness_method", Witness: "Comparable"}, f.Convention())
	assert.Nil(t, (&Func{}).Convention())

	d, i := f.Param("τ_1_1")
	assert.Equal(t, [2]int{1, 1}, [2]int{d, i})

	d, i = f.Param("τ_2_0")
	assert.Equal(t, [2]int{-1, -1}, [2]int{d, i})
}
