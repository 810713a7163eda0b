package compiler

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

// Instructions as the compiler prints them.
var fixtures = []string{
	`%103 = builtin "ptrtoint_Word"(%101 : $Builtin.RawPointer) : $Builtin.Word`,
	`%139 = builtin "smul_with_overflow_Int64"(%136 : $Builtin.Int64, %137 : $Builtin.Int64, %138 : $Builtin.Int1) : $(Builtin.Int64, Builtin.Int1)`,
	`cond_fail %141 : $Builtin.Int1, ""`,
	`%112 = integer_literal $Builtin.Int32, 1`,
	`return %1 : $Int`,
	`return %280 : $()`,
	`%180 = struct $Bool (%179 : $Builtin.Int1)`,
	`%211 = struct $StaticString (%210 : $Builtin.Word, %209 : $Builtin.Word, %168 : $Builtin.Int8)`,
	`%21 = struct_extract %20 : $Int, #Int._value`,
	`%64 = tuple_extract %63 : $(Builtin.Int64, Builtin.Int1), 0`,
	`alloc_stack $Float`,
	`alloc_stack $IndexingIterator<Range<Int>>, var, name "$inputIndex$generator"`,
	`apply %10(%1) : $@convention(method) (@guaranteed Array<Float>) -> Int`,
	`apply %17<Self>(%1, %2, %16) : $@convention(witness_method: Comparable) <τ_0_0 where τ_0_0 : Comparable> (@in_guaranteed τ_0_0, @in_guaranteed τ_0_0, @thick τ_0_0.Type) -> Bool`,
	`apply %8<Int, Int>(%2, %6) : $@convention(thin) <τ_0_0, τ_0_1 where τ_0_0 : Strideable, τ_0_1 : Strideable> (@in_guaranteed τ_0_0, @in_guaranteed τ_0_1) -> ()`,
	`begin_access [modify] [static] %0 : $*Array<Float>`,
	`begin_apply %266(%125, %265) : $@yield_once @convention(method) (Int, @inout Array<Float>) -> @yields @inout Float`,
	`br bb9`,
	`br label (%0 : $A, %1 : $B)`,
	`cond_br %11, bb3, bb2`,
	`cond_br %12, label (%0 : $A), label (%1 : $B)`,
	`copy_addr %1 to [initialization] %33 : $*Self`,
	`dealloc_stack %162 : $*IndexingIterator<Range<Int>>`,
	`debug_value %1 : $Array<Float>, let, name "input", argno 2`,
	`debug_value %11 : $Int, let, name "n"`,
	`debug_value_addr %0 : $*Array<Float>, var, name "out", argno 1`,
	`end_access %265 : $*Array<Float>`,
	`end_access [abort] %42 : $T`,
	`end_apply %268`,
	`float_literal $Builtin.FPIEEE32, 0x0`,
	`float_literal $Builtin.FPIEEE64, 0x3F800000`,
	`function_ref @$s4main11threadCountSiyF : $@convention(thin) () -> Int`,
	`function_ref @$ss6stride4from2to2bys8StrideToVyxGx_x0E0QztSxRzlF : $@convention(thin) <τ_0_0 where τ_0_0 : Strideable> (@in_guaranteed τ_0_0, @in_guaranteed τ_0_0, @in_guaranteed τ_0_0.Stride) -> @out StrideTo<τ_0_0>`,
	`function_ref @$s4main1CV3fooyyqd___qd_0_tSayqd__GRszSxRd_0_r0_lF : $@convention(method) <τ_0_0><τ_1_0, τ_1_1 where τ_0_0 == Array<τ_1_0>, τ_1_1 : Strideable> (@in_guaranteed τ_1_0, @in_guaranteed τ_1_1, C<Array<τ_1_0>>) -> ()`,
	`function_ref @$ss8StrideToV12makeIterators0abD0VyxGyF : $@convention(method) <τ_0_0 where τ_0_0 : Strideable> (@in StrideTo<τ_0_0>) -> @out StrideToIterator<τ_0_0>`,
	`load %117 : $*Optional<Int>`,
	`metatype $@thick Self.Type`,
	`metatype $@thin Int.Type`,
	`store %88 to %89 : $*StrideTo<Int>`,
	`string_literal utf8 "Fatal error"`,
	`struct_element_addr %235 : $*Float, #Float._value`,
	`switch_enum %122 : $Optional<Int>, case #Optional.some!enumelt.1: bb11, case #Optional.none!enumelt: bb18`,
	`tuple ()`,
	`tuple (%a : $A, %b : $B)`,
	`unreachable`,
	`witness_method $Self, #Comparable."<="!1 : <Self where Self : Comparable> (Self.Type) -> (Self, Self) -> Bool : $@convention(witness_method: Comparable) <τ_0_0 where τ_0_0 : Comparable> (@in_guaranteed τ_0_0, @in_guaranteed τ_0_0, @thick τ_0_0.Type) -> Bool`,

	`(%1, %2) = begin_apply %0() : $@yield_once @convention(thin) () -> @yields Int`,
	`%5 = tuple $(A, B) (%a, %b)`,
	`%7 = load [take] %3 : $*Int`,
	`store %1 to [init] %2 : $*Int`,
	`copy_addr [take] %1 to [initialization] %2 : $*T`,
	`switch_enum %1 : $E, case #E.a!enumelt: bb1, default bb2`,
	`try_apply %3(%1) : $@convention(thin) (Int) -> @error Error, normal bb1, error bb2`,
	`%9 = enum $Optional<Int>, #Optional.some!enumelt, %8 : $Int`,
	`br bb1 ()`,
}

func TestRoundtrip(t *testing.T) {
	ctx := context.Background()

	var out []string

	for _, text := range fixtures {
		_, printed, err := Roundtrip(ctx, text)
		require.NoError(t, err, "%s\nprinted: %s", text, printed)

		assert.Equal(t, text, printed)

		out = append(out, printed)
	}

	g := goldie.New(t)
	g.Assert(t, "roundtrip", []byte(strings.Join(out, "\n")+"\n"))
}

func TestRoundtripTraced(t *testing.T) {
	ctx := tlog.ContextWithSpan(context.Background(), tlog.Root())

	x, err := ParseInstruction(ctx, fixtures[0])
	require.NoError(t, err)

	s, err := Print(x)
	require.NoError(t, err)
	assert.Equal(t, fixtures[0], s)
}

func TestRoundtripMismatch(t *testing.T) {
	ctx := context.Background()

	x, printed, err := Roundtrip(ctx, `%1 = struct $Bool(%0 : $Builtin.Int1)`)
	assert.Equal(t, ErrMismatch, err)
	assert.NotNil(t, x)
	assert.Equal(t, `%1 = struct $Bool (%0 : $Builtin.Int1)`, printed)
}

func TestRoundtripTrailingSpace(t *testing.T) {
	x, printed, err := Roundtrip(context.Background(), "br bb1\n")
	assert.Equal(t, ErrMismatch, err)
	assert.Equal(t, "br bb1", printed)
	assert.NotNil(t, x)
}

func TestRoundtripConcurrent(t *testing.T) {
	ctx := context.Background()

	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		for _, text := range fixtures {
			wg.Add(1)

			go func(text string) {
				defer wg.Done()

				_, printed, err := Roundtrip(ctx, text)
				if assert.NoError(t, err, text) {
					assert.Equal(t, text, printed)
				}
			}(text)
		}
	}

	wg.Wait()
}

func TestCheckLines(t *testing.T) {
	const dump = `// function main
sil @main : $@convention(c) () -> Int32 {
bb0:
  %0 = integer_literal $Builtin.Int32, 0 // user: %1
  %1 = struct $Int32 (%0 : $Builtin.Int32)

  // comment line
  %2 = string_literal utf8 "a // not a comment"
  return  %1 : $Int32
}
`

	rep, err := CheckLines(context.Background(), strings.NewReader(dump), "//")
	require.NoError(t, err)

	assert.Equal(t, 7, rep.Lines)
	assert.Equal(t, 3, rep.Passed)
	assert.False(t, rep.OK())

	var lines []int

	for _, f := range rep.Failures {
		lines = append(lines, f.Line)
	}

	assert.Equal(t, []int{2, 3, 9, 10}, lines)

	assert.Equal(t, "return  %1 : $Int32", rep.Failures[2].Text)
	assert.Equal(t, "return %1 : $Int32", rep.Failures[2].Printed)
	assert.Equal(t, ErrMismatch, rep.Failures[2].Err)
}

func TestLines(t *testing.T) {
	const text = "# header\n\n\t%0 = integer_literal $Builtin.Int32, 0 # user: %1  \r\n  string_literal utf8 \"#1\"\nbr bb1\n"

	type line struct {
		N    int
		Text string
	}

	var got []line

	err := Lines(strings.NewReader(text), "#", func(lnum int, text string) error {
		got = append(got, line{lnum, text})
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []line{
		{3, "%0 = integer_literal $Builtin.Int32, 0"},
		{4, `string_literal utf8 "#1"`},
		{5, "br bb1"},
	}, got)

	stop := errors.New("stop")
	calls := 0

	err = Lines(strings.NewReader(text), "#", func(lnum int, text string) error {
		calls++
		return stop
	})
	assert.Equal(t, stop, err)
	assert.Equal(t, 1, calls)
}

func TestStripComment(t *testing.T) {
	assert.Equal(t, `%1 = x `, string(stripComment([]byte(`%1 = x // y`), []byte("//"))))
	assert.Equal(t, `"\"//"`, string(stripComment([]byte(`"\"//"`), []byte("//"))))
	assert.Equal(t, `a // b`, string(stripComment([]byte(`a // b`), nil)))
}

func TestDump(t *testing.T) {
	x, err := ParseInstruction(context.Background(), `%21 = struct_extract %20 : $Int, #Int._value`)
	require.NoError(t, err)

	b, err := Dump(x)
	require.NoError(t, err)

	var m map[string]any

	err = yaml.Unmarshal(b, &m)
	require.NoError(t, err)

	assert.Equal(t, "struct_extract", m["op"])
	assert.Equal(t, []any{"21"}, m["results"])

	inst, ok := m["inst"].(map[string]any)
	require.True(t, ok, "%s", b)

	assert.Equal(t, map[string]any{"path": []any{"Int", "_value"}}, inst["field"])
}
