package ir

import (
	"github.com/slowlang/silparse/compiler/tp"
)

type (
	// Instruction is one parsed instruction line: optional result binding and body.
	Instruction struct {
		Results []Value `yaml:"results,omitempty"`
		Tuple   bool    `yaml:"tuple,omitempty"` // results written as (%a, %b)

		Inst Inst `yaml:"inst"`
	}

	// Inst is implemented by every instruction shape.
	Inst interface {
		Op() Op
	}

	// Value is an SSA value name without the leading '%'.
	Value string

	Operand struct {
		Value Value       `yaml:"value"`
		Type  *tp.Lowered `yaml:"type,omitempty"`
	}

	// Label is a branch target. Bound labels carry arguments: bb1 (%0 : $A).
	Label struct {
		Name  string    `yaml:"name"`
		Bound bool      `yaml:"bound,omitempty"`
		Args  []Operand `yaml:"args,omitempty"`
	}

	// DeclRef is #Path.To.decl!kind.level. Quoted path components keep their quotes.
	DeclRef struct {
		Path  []string `yaml:"path"`
		Kind  string   `yaml:"kind,omitempty"`
		Level string   `yaml:"level,omitempty"`
	}

	DebugVar struct {
		Mutability string `yaml:"mutability,omitempty"` // let or var
		HasName    bool   `yaml:"has_name,omitempty"`
		Name       string `yaml:"name,omitempty"`
		ArgNo      int    `yaml:"argno,omitempty"`
	}

	Case struct {
		Elem DeclRef `yaml:"elem"`
		Dest Label   `yaml:"dest"`
	}
)

// Instruction shapes.
type (
	Builtin struct {
		Name string     `yaml:"name"`
		Args []Operand  `yaml:"args"`
		Type tp.Lowered `yaml:"type"`
	}

	CondFail struct {
		Cond    Operand `yaml:"cond"`
		Message string  `yaml:"message"`
	}

	// NumberLiteral is integer_literal or float_literal.
	NumberLiteral struct {
		Opcode Op         `yaml:"op"`
		Type   tp.Lowered `yaml:"type"`
		Value  Literal    `yaml:"value"`
	}

	StringLiteral struct {
		Encoding string `yaml:"encoding"`
		Value    string `yaml:"value"`
	}

	// Unary is an instruction with a single operand and optional [attr] modifiers.
	Unary struct {
		Opcode  Op       `yaml:"op"`
		Attrs   []string `yaml:"attrs,omitempty"`
		Operand Operand  `yaml:"operand"`
	}

	AllocStack struct {
		Type tp.Lowered `yaml:"type"`
		Var  DebugVar   `yaml:"var,omitempty"`
	}

	Metatype struct {
		Type tp.Lowered `yaml:"type"`
	}

	// Aggregate is struct or tuple. Type is nil for tuple with typed elements.
	Aggregate struct {
		Opcode Op          `yaml:"op"`
		Type   *tp.Lowered `yaml:"type,omitempty"`
		Elems  []Operand   `yaml:"elems"`
	}

	Enum struct {
		Type    tp.Lowered `yaml:"type"`
		Case    DeclRef    `yaml:"case"`
		Payload *Operand   `yaml:"payload,omitempty"`
	}

	FieldAccess struct {
		Opcode  Op      `yaml:"op"`
		Operand Operand `yaml:"operand"`
		Field   DeclRef `yaml:"field"`
	}

	TupleAccess struct {
		Opcode  Op      `yaml:"op"`
		Operand Operand `yaml:"operand"`
		Index   int     `yaml:"index"`
	}

	// SymbolRef is function_ref or global_addr. Name has no '@'.
	SymbolRef struct {
		Opcode Op         `yaml:"op"`
		Name   string     `yaml:"name"`
		Type   tp.Lowered `yaml:"type"`
	}

	WitnessMethod struct {
		Lookup     tp.Lowered `yaml:"lookup"`
		Member     DeclRef    `yaml:"member"`
		MemberType tp.Type    `yaml:"member_type"`
		Type       tp.Lowered `yaml:"type"`
	}

	// Apply is apply, begin_apply or try_apply. Normal and Error are set for try_apply only.
	Apply struct {
		Opcode Op         `yaml:"op"`
		Callee Value      `yaml:"callee"`
		Subs   []tp.Type  `yaml:"subs,omitempty"`
		Args   []Value    `yaml:"args"`
		Type   tp.Lowered `yaml:"type"`

		Normal *Label `yaml:"normal,omitempty"`
		Error  *Label `yaml:"error,omitempty"`
	}

	Branch struct {
		Dest Label `yaml:"dest"`
	}

	CondBranch struct {
		Cond  Value `yaml:"cond"`
		True  Label `yaml:"true"`
		False Label `yaml:"false"`
	}

	SwitchEnum struct {
		Opcode  Op      `yaml:"op"`
		Operand Operand `yaml:"operand"`
		Cases   []Case  `yaml:"cases"`
		Default *Label  `yaml:"default,omitempty"`
	}

	Unreachable struct{}

	CopyAddr struct {
		SrcAttrs []string   `yaml:"src_attrs,omitempty"`
		Src      Value      `yaml:"src"`
		DstAttrs []string   `yaml:"dst_attrs,omitempty"`
		Dst      Value      `yaml:"dst"`
		Type     tp.Lowered `yaml:"type"`
	}

	Store struct {
		Src  Value      `yaml:"src"`
		Qual string     `yaml:"qual,omitempty"`
		Dst  Value      `yaml:"dst"`
		Type tp.Lowered `yaml:"type"`
	}

	DebugValue struct {
		Opcode  Op       `yaml:"op"`
		Operand Operand  `yaml:"operand"`
		Var     DebugVar `yaml:"var"`
	}
)

func (*Builtin) Op() Op         { return OpBuiltin }
func (*CondFail) Op() Op        { return OpCondFail }
func (x *NumberLiteral) Op() Op { return x.Opcode }
func (*StringLiteral) Op() Op   { return OpStringLiteral }
func (x *Unary) Op() Op         { return x.Opcode }
func (*AllocStack) Op() Op      { return OpAllocStack }
func (*Metatype) Op() Op        { return OpMetatype }
func (x *Aggregate) Op() Op     { return x.Opcode }
func (*Enum) Op() Op            { return OpEnum }
func (x *FieldAccess) Op() Op   { return x.Opcode }
func (x *TupleAccess) Op() Op   { return x.Opcode }
func (x *SymbolRef) Op() Op     { return x.Opcode }
func (*WitnessMethod) Op() Op   { return OpWitnessMethod }
func (x *Apply) Op() Op         { return x.Opcode }
func (*Branch) Op() Op          { return OpBr }
func (*CondBranch) Op() Op      { return OpCondBr }
func (x *SwitchEnum) Op() Op    { return x.Opcode }
func (*Unreachable) Op() Op     { return OpUnreachable }
func (*CopyAddr) Op() Op        { return OpCopyAddr }
func (*Store) Op() Op           { return OpStore }
func (x *DebugValue) Op() Op    { return x.Opcode }

func (x *Instruction) Op() Op {
	if x.Inst == nil {
		return OpInvalid
	}

	return x.Inst.Op()
}

// Successors lists branch targets of a terminator in written order.
func (x *Instruction) Successors() []Label {
	switch x := x.Inst.(type) {
	case *Branch:
		return []Label{x.Dest}
	case *CondBranch:
		return []Label{x.True, x.False}
	case *SwitchEnum:
		l := make([]Label, 0, len(x.Cases)+1)

		for _, c := range x.Cases {
			l = append(l, c.Dest)
		}

		if x.Default != nil {
			l = append(l, *x.Default)
		}

		return l
	case *Apply:
		if x.Normal == nil {
			return nil
		}

		return []Label{*x.Normal, *x.Error}
	}

	return nil
}

func (v Value) String() string { return "%" + string(v) }
