package format

import (
	"context"
	"strings"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/silparse/compiler/ir"
	"github.com/slowlang/silparse/compiler/tp"
)

// Format appends the text of x to b. x is an instruction, an instruction body,
// a type or a type annotation.
func Format(ctx context.Context, b []byte, x any) ([]byte, error) {
	switch x := x.(type) {
	case *ir.Instruction:
		return formatInstruction(ctx, b, x)
	case ir.Inst:
		return formatInst(ctx, b, x)
	case tp.Lowered:
		return appendLowered(b, x)
	case *tp.Lowered:
		return appendLowered(b, *x)
	case tp.Type:
		return appendType(b, x)
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

// Instruction returns the text of x.
func Instruction(x *ir.Instruction) (string, error) {
	b, err := formatInstruction(context.Background(), nil, x)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

func formatInstruction(ctx context.Context, b []byte, x *ir.Instruction) (_ []byte, err error) {
	if len(x.Results) != 0 {
		if x.Tuple {
			b = append(b, '(')
			b = appendValues(b, x.Results)
			b = append(b, ')')
		} else {
			if len(x.Results) != 1 {
				return nil, errors.New("%d results without tuple binding", len(x.Results))
			}

			b = appendValue(b, x.Results[0])
		}

		b = append(b, " = "...)
	}

	b, err = formatInst(ctx, b, x.Inst)
	if err != nil {
		return nil, errors.Wrap(err, "%v", x.Op())
	}

	return b, nil
}

func formatInst(ctx context.Context, b []byte, x ir.Inst) (_ []byte, err error) {
	if x == nil {
		return nil, errors.New("no instruction")
	}

	b = append(b, x.Op().String()...)

	switch x := x.(type) {
	case *ir.Builtin:
		b = hfmt.Appendf(b, " %s", quote(x.Name))

		b, err = appendOperands(b, x.Args, true)
		if err != nil {
			return nil, errors.Wrap(err, "args")
		}

		b = append(b, " : "...)

		return appendLowered(b, x.Type)
	case *ir.CondFail:
		b = append(b, ' ')

		b, err = appendOperand(b, x.Cond)
		if err != nil {
			return nil, err
		}

		return hfmt.Appendf(b, ", %s", quote(x.Message)), nil
	case *ir.NumberLiteral:
		b = append(b, ' ')

		b, err = appendLowered(b, x.Type)
		if err != nil {
			return nil, err
		}

		return hfmt.Appendf(b, ", %s", x.Value.Raw), nil
	case *ir.StringLiteral:
		return hfmt.Appendf(b, " %s %s", x.Encoding, quote(x.Value)), nil
	case *ir.Unary:
		b = append(b, ' ')
		b = appendModifiers(b, x.Attrs)

		return appendOperand(b, x.Operand)
	case *ir.AllocStack:
		b = append(b, ' ')

		b, err = appendLowered(b, x.Type)
		if err != nil {
			return nil, err
		}

		return appendDebugVar(b, x.Var), nil
	case *ir.Metatype:
		b = append(b, ' ')

		return appendLowered(b, x.Type)
	case *ir.Aggregate:
		if x.Type != nil {
			b = append(b, ' ')

			b, err = appendLowered(b, *x.Type)
			if err != nil {
				return nil, err
			}
		}

		b = append(b, ' ')

		return appendOperands(b, x.Elems, x.Opcode == ir.OpStruct || x.Type == nil)
	case *ir.Enum:
		b = append(b, ' ')

		b, err = appendLowered(b, x.Type)
		if err != nil {
			return nil, err
		}

		b = append(b, ", "...)
		b = appendDeclRef(b, x.Case)

		if x.Payload == nil {
			return b, nil
		}

		b = append(b, ", "...)

		return appendOperand(b, *x.Payload)
	case *ir.FieldAccess:
		b = append(b, ' ')

		b, err = appendOperand(b, x.Operand)
		if err != nil {
			return nil, err
		}

		b = append(b, ", "...)

		return appendDeclRef(b, x.Field), nil
	case *ir.TupleAccess:
		b = append(b, ' ')

		b, err = appendOperand(b, x.Operand)
		if err != nil {
			return nil, err
		}

		return hfmt.Appendf(b, ", %d", x.Index), nil
	case *ir.SymbolRef:
		b = hfmt.Appendf(b, " @%s : ", x.Name)

		return appendLowered(b, x.Type)
	case *ir.WitnessMethod:
		return formatWitnessMethod(b, x)
	case *ir.Apply:
		return formatApply(b, x)
	case *ir.DebugValue:
		b = append(b, ' ')

		b, err = appendOperand(b, x.Operand)
		if err != nil {
			return nil, err
		}

		return appendDebugVar(b, x.Var), nil
	case *ir.Unreachable:
		return b, nil
	case *ir.Branch:
		b = append(b, ' ')

		return appendLabel(b, x.Dest)
	case *ir.CondBranch:
		b = append(b, ' ')
		b = appendValue(b, x.Cond)
		b = append(b, ", "...)

		b, err = appendLabel(b, x.True)
		if err != nil {
			return nil, errors.Wrap(err, "true")
		}

		b = append(b, ", "...)

		return appendLabel(b, x.False)
	case *ir.SwitchEnum:
		return formatSwitchEnum(b, x)
	case *ir.CopyAddr:
		b = append(b, ' ')
		b = appendModifiers(b, x.SrcAttrs)
		b = appendValue(b, x.Src)
		b = append(b, " to "...)
		b = appendModifiers(b, x.DstAttrs)
		b = appendValue(b, x.Dst)
		b = append(b, " : "...)

		return appendLowered(b, x.Type)
	case *ir.Store:
		b = append(b, ' ')
		b = appendValue(b, x.Src)
		b = append(b, " to "...)

		if x.Qual != "" {
			b = hfmt.Appendf(b, "[%s] ", x.Qual)
		}

		b = appendValue(b, x.Dst)
		b = append(b, " : "...)

		return appendLowered(b, x.Type)
	default:
		return nil, errors.New("unsupported instruction: %T", x)
	}
}

func formatWitnessMethod(b []byte, x *ir.WitnessMethod) (_ []byte, err error) {
	b = append(b, ' ')

	b, err = appendLowered(b, x.Lookup)
	if err != nil {
		return nil, errors.Wrap(err, "lookup type")
	}

	b = append(b, ", "...)
	b = appendDeclRef(b, x.Member)
	b = append(b, " : "...)

	b, err = appendType(b, x.MemberType)
	if err != nil {
		return nil, errors.Wrap(err, "member type")
	}

	b = append(b, " : "...)

	return appendLowered(b, x.Type)
}

func formatApply(b []byte, x *ir.Apply) (_ []byte, err error) {
	b = append(b, ' ')
	b = appendValue(b, x.Callee)

	if len(x.Subs) != 0 {
		b = append(b, '<')

		b, err = appendTypes(b, x.Subs)
		if err != nil {
			return nil, errors.Wrap(err, "substitutions")
		}

		b = append(b, '>')
	}

	b = append(b, '(')
	b = appendValues(b, x.Args)
	b = append(b, ") : "...)

	b, err = appendLowered(b, x.Type)
	if err != nil {
		return nil, err
	}

	if x.Opcode != ir.OpTryApply {
		return b, nil
	}

	if x.Normal == nil || x.Error == nil {
		return nil, errors.New("try_apply without normal and error labels")
	}

	b = append(b, ", normal "...)

	b, err = appendLabel(b, *x.Normal)
	if err != nil {
		return nil, errors.Wrap(err, "normal")
	}

	b = append(b, ", error "...)

	return appendLabel(b, *x.Error)
}

func formatSwitchEnum(b []byte, x *ir.SwitchEnum) (_ []byte, err error) {
	b = append(b, ' ')

	b, err = appendOperand(b, x.Operand)
	if err != nil {
		return nil, err
	}

	for j, c := range x.Cases {
		b = append(b, ", case "...)
		b = appendDeclRef(b, c.Elem)
		b = append(b, ": "...)

		b, err = appendLabel(b, c.Dest)
		if err != nil {
			return nil, errors.Wrap(err, "case %d", j)
		}
	}

	if x.Default == nil {
		return b, nil
	}

	b = append(b, ", default "...)

	return appendLabel(b, *x.Default)
}

func appendValue(b []byte, v ir.Value) []byte {
	b = append(b, '%')
	return append(b, v...)
}

func appendValues(b []byte, l []ir.Value) []byte {
	for j, v := range l {
		if j != 0 {
			b = append(b, ", "...)
		}

		b = appendValue(b, v)
	}

	return b
}

func appendOperand(b []byte, x ir.Operand) (_ []byte, err error) {
	b = appendValue(b, x.Value)

	if x.Type == nil {
		return b, nil
	}

	b = append(b, " : "...)

	return appendLowered(b, *x.Type)
}

// appendOperands appends "(%a : $A, %b : $B)". Types are omitted if typed is false.
func appendOperands(b []byte, l []ir.Operand, typed bool) (_ []byte, err error) {
	b = append(b, '(')

	for j, x := range l {
		if j != 0 {
			b = append(b, ", "...)
		}

		if !typed {
			b = appendValue(b, x.Value)
			continue
		}

		if x.Type == nil {
			return nil, errors.New("operand %v: no type", x.Value)
		}

		b, err = appendOperand(b, x)
		if err != nil {
			return nil, errors.Wrap(err, "operand %d", j)
		}
	}

	return append(b, ')'), nil
}

func appendLabel(b []byte, l ir.Label) (_ []byte, err error) {
	b = append(b, l.Name...)

	if !l.Bound {
		return b, nil
	}

	b = append(b, ' ')

	return appendOperands(b, l.Args, true)
}

func appendModifiers(b []byte, l []string) []byte {
	for _, m := range l {
		b = hfmt.Appendf(b, "[%s] ", m)
	}

	return b
}

func appendDeclRef(b []byte, d ir.DeclRef) []byte {
	b = append(b, '#')
	b = append(b, strings.Join(d.Path, ".")...)

	if d.Kind == "" && d.Level == "" {
		return b
	}

	b = append(b, '!')
	b = append(b, d.Kind...)

	if d.Kind != "" && d.Level != "" {
		b = append(b, '.')
	}

	return append(b, d.Level...)
}

func appendDebugVar(b []byte, v ir.DebugVar) []byte {
	if v.Mutability != "" {
		b = hfmt.Appendf(b, ", %s", v.Mutability)
	}

	if v.HasName {
		b = hfmt.Appendf(b, ", name %s", quote(v.Name))
	}

	if v.ArgNo != 0 {
		b = hfmt.Appendf(b, ", argno %d", v.ArgNo)
	}

	return b
}

// quote escapes only \ and ", the two escapes the parser accepts.
func quote(s string) string {
	if !strings.ContainsAny(s, `\"`) {
		return `"` + s + `"`
	}

	var b strings.Builder

	b.WriteByte('"')

	for i := 0; i < len(s); i++ {
		if s[i] == '\\' || s[i] == '"' {
			b.WriteByte('\\')
		}

		b.WriteByte(s[i])
	}

	b.WriteByte('"')

	return b.String()
}
