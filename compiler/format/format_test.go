package format

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/silparse/compiler/ir"
	"github.com/slowlang/silparse/compiler/tp"
)

func lowered(t tp.Type) *tp.Lowered { return &tp.Lowered{Type: t} }

func TestInstructions(t *testing.T) {
	int1 := lowered(tp.Name("Builtin", "Int1"))

	for _, tc := range []struct {
		X    *ir.Instruction
		Want string
	}{{
		X: &ir.Instruction{
			Results: []ir.Value{"180"},
			Inst: &ir.Aggregate{
				Opcode: ir.OpStruct,
				Type:   lowered(tp.Name("Bool")),
				Elems:  []ir.Operand{{Value: "179", Type: int1}},
			},
		},
		Want: `%180 = struct $Bool (%179 : $Builtin.Int1)`,
	}, {
		X:    &ir.Instruction{Inst: &ir.Aggregate{Opcode: ir.OpTuple}},
		Want: `tuple ()`,
	}, {
		X: &ir.Instruction{Inst: &ir.Aggregate{
			Opcode: ir.OpTuple,
			Type:   lowered(&tp.Tuple{Elems: []tp.Type{tp.Name("A"), tp.Name("B")}}),
			Elems:  []ir.Operand{{Value: "a"}, {Value: "b"}},
		}},
		Want: `tuple $(A, B) (%a, %b)`,
	}, {
		X: &ir.Instruction{Inst: &ir.CondFail{
			Cond:    ir.Operand{Value: "141", Type: int1},
			Message: "",
		}},
		Want: `cond_fail %141 : $Builtin.Int1, ""`,
	}, {
		X:    &ir.Instruction{Inst: &ir.StringLiteral{Encoding: "utf8", Value: `say "hi" \o/`}},
		Want: `string_literal utf8 "say \"hi\" \\o/"`,
	}, {
		X: &ir.Instruction{Inst: &ir.Unary{
			Opcode:  ir.OpBeginAccess,
			Attrs:   []string{"modify", "static"},
			Operand: ir.Operand{Value: "0", Type: &tp.Lowered{Address: true, Type: &tp.Named{Name: "Array", Args: []tp.Type{tp.Name("Float")}}}},
		}},
		Want: `begin_access [modify] [static] %0 : $*Array<Float>`,
	}, {
		X:    &ir.Instruction{Inst: &ir.Unary{Opcode: ir.OpEndApply, Operand: ir.Operand{Value: "268"}}},
		Want: `end_apply %268`,
	}, {
		X: &ir.Instruction{Inst: &ir.DebugValue{
			Opcode:  ir.OpDebugValueAddr,
			Operand: ir.Operand{Value: "0", Type: &tp.Lowered{Address: true, Type: tp.Name("Int")}},
			Var:     ir.DebugVar{Mutability: "var", HasName: true, Name: "out", ArgNo: 1},
		}},
		Want: `debug_value_addr %0 : $*Int, var, name "out", argno 1`,
	}, {
		X: &ir.Instruction{Inst: &ir.CondBranch{
			Cond:  "12",
			True:  ir.Label{Name: "label", Bound: true, Args: []ir.Operand{{Value: "0", Type: lowered(tp.Name("A"))}}},
			False: ir.Label{Name: "bb2"},
		}},
		Want: `cond_br %12, label (%0 : $A), bb2`,
	}, {
		X: &ir.Instruction{Inst: &ir.SwitchEnum{
			Opcode:  ir.OpSwitchEnum,
			Operand: ir.Operand{Value: "122", Type: lowered(&tp.Named{Name: "Optional", Args: []tp.Type{tp.Name("Int")}})},
			Cases: []ir.Case{
				{Elem: ir.DeclRef{Path: []string{"Optional", "some"}, Kind: "enumelt", Level: "1"}, Dest: ir.Label{Name: "bb11"}},
			},
			Default: &ir.Label{Name: "bb18"},
		}},
		Want: `switch_enum %122 : $Optional<Int>, case #Optional.some!enumelt.1: bb11, default bb18`,
	}, {
		X: &ir.Instruction{Inst: &ir.Store{
			Src:  "88",
			Qual: "assign",
			Dst:  "89",
			Type: tp.Lowered{Address: true, Type: tp.Name("Int")},
		}},
		Want: `store %88 to [assign] %89 : $*Int`,
	}, {
		X: &ir.Instruction{
			Results: []ir.Value{"1", "2"},
			Tuple:   true,
			Inst: &ir.Apply{
				Opcode: ir.OpBeginApply,
				Callee: "0",
				Args:   []ir.Value{},
				Type: tp.Lowered{Type: &tp.Func{
					Attrs:  []tp.Attr{{Name: tp.YieldOnce}},
					Result: &tp.Attributed{Attrs: []tp.Attr{{Name: tp.Yields}}, Type: tp.Name("Int")},
				}},
			},
		},
		Want: `(%1, %2) = begin_apply %0() : $@yield_once () -> @yields Int`,
	}, {
		X:    &ir.Instruction{Inst: &ir.Unreachable{}},
		Want: `unreachable`,
	}} {
		s, err := Instruction(tc.X)
		require.NoError(t, err, tc.Want)
		assert.Equal(t, tc.Want, s)
	}
}

func TestTypes(t *testing.T) {
	ctx := context.Background()

	f := &tp.Func{
		Attrs: []tp.Attr{{Name: tp.ConventionAttr, Convention: &tp.Convention{Name: "method"}}},
		Generics: []tp.Generics{
			{Params: []string{"τ_0_0"}},
			{
				Params: []string{"τ_1_0", "τ_1_1"},
				Reqs: []tp.Requirement{
					{Left: tp.Name("τ_0_0"), Kind: tp.SameType, Right: &tp.Named{Name: "Array", Args: []tp.Type{tp.Name("τ_1_0")}}},
					{Left: tp.Name("τ_1_1"), Kind: tp.Conforms, Right: tp.Name("Strideable")},
				},
			},
		},
		Params: []tp.Type{
			&tp.Attributed{Attrs: []tp.Attr{{Name: tp.InGuaranteed}}, Type: tp.Name("τ_1_0")},
			&tp.Metatype{Thickness: tp.Thick, Instance: tp.Name("τ_1_1")},
		},
		Result: tp.Empty(),
	}

	b, err := Format(ctx, nil, f)
	require.NoError(t, err)
	assert.Equal(t, `@convention(method) <τ_0_0><τ_1_0, τ_1_1 where τ_0_0 == Array<τ_1_0>, τ_1_1 : Strideable> (@in_guaranteed τ_1_0, @thick τ_1_1.Type) -> ()`, string(b))

	b, err = Format(ctx, []byte("x: "), tp.Lowered{Address: true, Type: &tp.Existential{Protocols: []tp.Type{tp.Name("P"), &tp.Optional{Wrapped: tp.Name("Q")}}}})
	require.NoError(t, err)
	assert.Equal(t, `x: $*P & Q?`, string(b))

	b, err = Format(ctx, nil, &tp.Func{
		Attrs:  []tp.Attr{{Name: tp.ConventionAttr, Convention: &tp.Convention{Name: "witness_method", Witness: "Comparable"}}},
		Params: []tp.Type{tp.Name("Self")},
		Result: tp.Name("Bool"),
	})
	require.NoError(t, err)
	assert.Equal(t, `@convention(witness_method: Comparable) (Self) -> Bool`, string(b))
}

func TestErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Format(ctx, nil, 42)
	assert.Error(t, err)

	_, err = Instruction(&ir.Instruction{})
	assert.Error(t, err)

	_, err = Instruction(&ir.Instruction{Inst: &ir.Metatype{}})
	assert.Error(t, err)

	_, err = Instruction(&ir.Instruction{Results: []ir.Value{"1", "2"}, Inst: &ir.Unreachable{}})
	assert.Error(t, err)

	_, err = Instruction(&ir.Instruction{Inst: &ir.Apply{Opcode: ir.OpTryApply, Callee: "0", Type: tp.Lowered{Type: tp.Name("F")}}})
	assert.Error(t, err)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `""`, quote(""))
	assert.Equal(t, `"Fatal error"`, quote("Fatal error"))
	assert.Equal(t, `"\\\""`, quote(`\"`))
}
