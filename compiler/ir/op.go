package ir

import "fmt"

type (
	// Op is an instruction mnemonic. The set is closed: adding one means adding
	// a constant here, a parse rule and a print rule.
	Op int

	opInfo struct {
		name   string
		result bool
		term   bool
	}
)

const (
	OpInvalid Op = iota

	OpBuiltin
	OpCondFail

	OpIntegerLiteral
	OpFloatLiteral
	OpStringLiteral

	OpAllocStack
	OpDeallocStack
	OpMetatype

	OpLoad
	OpStore
	OpCopyAddr
	OpDestroyAddr

	OpRetainValue
	OpReleaseValue
	OpStrongRetain
	OpStrongRelease
	OpCopyValue
	OpDestroyValue
	OpBeginBorrow
	OpEndBorrow

	OpBeginAccess
	OpEndAccess

	OpStruct
	OpTuple
	OpEnum
	OpStructExtract
	OpStructElementAddr
	OpUncheckedEnumData
	OpTupleExtract
	OpTupleElementAddr

	OpFunctionRef
	OpGlobalAddr
	OpWitnessMethod

	OpApply
	OpBeginApply
	OpEndApply
	OpAbortApply

	OpDebugValue
	OpDebugValueAddr

	OpReturn
	OpThrow
	OpUnreachable
	OpBr
	OpCondBr
	OpSwitchEnum
	OpSwitchEnumAddr
	OpTryApply

	numOps
)

var ops = [numOps]opInfo{
	OpBuiltin:  {name: "builtin", result: true},
	OpCondFail: {name: "cond_fail"},

	OpIntegerLiteral: {name: "integer_literal", result: true},
	OpFloatLiteral:   {name: "float_literal", result: true},
	OpStringLiteral:  {name: "string_literal", result: true},

	OpAllocStack:   {name: "alloc_stack", result: true},
	OpDeallocStack: {name: "dealloc_stack"},
	OpMetatype:     {name: "metatype", result: true},

	OpLoad:        {name: "load", result: true},
	OpStore:       {name: "store"},
	OpCopyAddr:    {name: "copy_addr"},
	OpDestroyAddr: {name: "destroy_addr"},

	OpRetainValue:   {name: "retain_value"},
	OpReleaseValue:  {name: "release_value"},
	OpStrongRetain:  {name: "strong_retain"},
	OpStrongRelease: {name: "strong_release"},
	OpCopyValue:     {name: "copy_value", result: true},
	OpDestroyValue:  {name: "destroy_value"},
	OpBeginBorrow:   {name: "begin_borrow", result: true},
	OpEndBorrow:     {name: "end_borrow"},

	OpBeginAccess: {name: "begin_access", result: true},
	OpEndAccess:   {name: "end_access"},

	OpStruct:            {name: "struct", result: true},
	OpTuple:             {name: "tuple", result: true},
	OpEnum:              {name: "enum", result: true},
	OpStructExtract:     {name: "struct_extract", result: true},
	OpStructElementAddr: {name: "struct_element_addr", result: true},
	OpUncheckedEnumData: {name: "unchecked_enum_data", result: true},
	OpTupleExtract:      {name: "tuple_extract", result: true},
	OpTupleElementAddr:  {name: "tuple_element_addr", result: true},

	OpFunctionRef:   {name: "function_ref", result: true},
	OpGlobalAddr:    {name: "global_addr", result: true},
	OpWitnessMethod: {name: "witness_method", result: true},

	OpApply:      {name: "apply", result: true},
	OpBeginApply: {name: "begin_apply", result: true},
	OpEndApply:   {name: "end_apply"},
	OpAbortApply: {name: "abort_apply"},

	OpDebugValue:     {name: "debug_value"},
	OpDebugValueAddr: {name: "debug_value_addr"},

	OpReturn:         {name: "return", term: true},
	OpThrow:          {name: "throw", term: true},
	OpUnreachable:    {name: "unreachable", term: true},
	OpBr:             {name: "br", term: true},
	OpCondBr:         {name: "cond_br", term: true},
	OpSwitchEnum:     {name: "switch_enum", term: true},
	OpSwitchEnumAddr: {name: "switch_enum_addr", term: true},
	OpTryApply:       {name: "try_apply", term: true},
}

var byName = func() map[string]Op {
	m := make(map[string]Op, len(ops))

	for op := OpInvalid + 1; op < numOps; op++ {
		m[ops[op].name] = op
	}

	return m
}()

// LookupOp finds an opcode by its mnemonic.
func LookupOp(name string) (Op, bool) {
	op, ok := byName[name]
	return op, ok
}

// Ops lists all known opcodes in declaration order.
func Ops() []Op {
	l := make([]Op, 0, numOps-1)

	for op := OpInvalid + 1; op < numOps; op++ {
		l = append(l, op)
	}

	return l
}

func (op Op) valid() bool { return op > OpInvalid && op < numOps }

// HasResult reports whether the instruction may be bound to result values.
func (op Op) HasResult() bool { return op.valid() && ops[op].result }

func (op Op) IsTerminator() bool { return op.valid() && ops[op].term }

func (op Op) String() string {
	if !op.valid() {
		return fmt.Sprintf("Op(%d)", int(op))
	}

	return ops[op].name
}

func (op Op) MarshalYAML() (any, error) {
	return op.String(), nil
}
