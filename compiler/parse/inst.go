package parse

import (
	"context"

	"tlog.app/go/errors"

	"github.com/slowlang/silparse/compiler/ir"
	"github.com/slowlang/silparse/compiler/lex"
	"github.com/slowlang/silparse/compiler/tp"
)

// Bracketed modifiers accepted per opcode: begin_access [modify] [static] %0.
var modifiers = map[ir.Op]map[string]struct{}{
	ir.OpLoad:        set("take", "copy", "trivial"),
	ir.OpBeginAccess: set("read", "modify", "init", "deinit", "static", "dynamic", "unknown", "no_nested_conflict", "builtin"),
	ir.OpEndAccess:   set("abort"),
}

var (
	copySrcMods = set("take")
	copyDstMods = set("initialization")
	storeQuals  = set("init", "assign", "trivial")
	encodings   = set("utf8", "utf16", "objc_selector", "bytes")
)

func set(l ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(l))

	for _, s := range l {
		m[s] = struct{}{}
	}

	return m
}

func (p *Parser) parseInstruction(ctx context.Context, st int) (x *ir.Instruction, i int, err error) {
	x = &ir.Instruction{}

	x.Results, x.Tuple, i, err = p.parseResults(ctx, st)
	if err != nil {
		return nil, i, errors.Wrap(err, "results")
	}

	tk, i, err := p.expectKind(ctx, i, lex.Ident)
	if err != nil {
		return nil, i, errors.Wrap(err, "opcode")
	}

	op, ok := ir.LookupOp(tk.Text)
	if !ok {
		return nil, i, &UnknownOpcodeError{Name: tk.Text, Pos: tk.Pos}
	}

	if len(x.Results) != 0 && !op.HasResult() {
		return nil, i - 1, newUnexpected(tk, "instruction with a result")
	}

	x.Inst, i, err = p.parseInst(ctx, i, op)
	if err != nil {
		return nil, i, errors.Wrap(err, "%v", op)
	}

	return x, i, nil
}

// parseResults parses an optional %N = or (%a, %b) = binding.
func (p *Parser) parseResults(ctx context.Context, st int) (res []ir.Value, tuple bool, i int, err error) {
	i = st

	switch {
	case p.peek(i).Kind == lex.Value && p.peek(i+1).Is("="):
		v, _, _ := p.parseValue(ctx, i)

		return []ir.Value{v}, false, i + 2, nil
	case p.peek(i).Is("(") && p.peek(i+1).Kind == lex.Value:
		res, i, err = p.parseValues(ctx, i)
		if err != nil {
			return nil, false, i, err
		}

		i, err = p.expect(ctx, i, "=")
		if err != nil {
			return nil, false, i, err
		}

		return res, true, i, nil
	}

	return nil, false, st, nil
}

func (p *Parser) parseInst(ctx context.Context, st int, op ir.Op) (x ir.Inst, i int, err error) {
	switch op {
	case ir.OpBuiltin:
		return p.parseBuiltin(ctx, st)
	case ir.OpCondFail:
		return p.parseCondFail(ctx, st)
	case ir.OpIntegerLiteral:
		return p.parseNumberLiteral(ctx, st, op, ir.IntLit)
	case ir.OpFloatLiteral:
		return p.parseNumberLiteral(ctx, st, op, ir.FloatLit)
	case ir.OpStringLiteral:
		return p.parseStringLiteral(ctx, st)
	case ir.OpReturn, ir.OpThrow,
		ir.OpDeallocStack, ir.OpDestroyAddr,
		ir.OpRetainValue, ir.OpReleaseValue, ir.OpStrongRetain, ir.OpStrongRelease,
		ir.OpCopyValue, ir.OpDestroyValue, ir.OpBeginBorrow, ir.OpEndBorrow,
		ir.OpLoad, ir.OpBeginAccess, ir.OpEndAccess:
		return p.parseUnary(ctx, st, op, true)
	case ir.OpEndApply, ir.OpAbortApply:
		return p.parseUnary(ctx, st, op, false)
	case ir.OpAllocStack:
		return p.parseAllocStack(ctx, st)
	case ir.OpMetatype:
		return p.parseMetatype(ctx, st)
	case ir.OpStruct, ir.OpTuple:
		return p.parseAggregate(ctx, st, op)
	case ir.OpEnum:
		return p.parseEnum(ctx, st)
	case ir.OpStructExtract, ir.OpStructElementAddr, ir.OpUncheckedEnumData:
		return p.parseFieldAccess(ctx, st, op)
	case ir.OpTupleExtract, ir.OpTupleElementAddr:
		return p.parseTupleAccess(ctx, st, op)
	case ir.OpFunctionRef, ir.OpGlobalAddr:
		return p.parseSymbolRef(ctx, st, op)
	case ir.OpWitnessMethod:
		return p.parseWitnessMethod(ctx, st)
	case ir.OpApply, ir.OpBeginApply, ir.OpTryApply:
		return p.parseApply(ctx, st, op)
	case ir.OpDebugValue, ir.OpDebugValueAddr:
		return p.parseDebugValue(ctx, st, op)
	case ir.OpUnreachable:
		return &ir.Unreachable{}, st, nil
	case ir.OpBr:
		return p.parseBranch(ctx, st)
	case ir.OpCondBr:
		return p.parseCondBranch(ctx, st)
	case ir.OpSwitchEnum, ir.OpSwitchEnumAddr:
		return p.parseSwitchEnum(ctx, st, op)
	case ir.OpCopyAddr:
		return p.parseCopyAddr(ctx, st)
	case ir.OpStore:
		return p.parseStore(ctx, st)
	default:
		return nil, st, errors.New("no rule for %v", op)
	}
}

func (p *Parser) parseBuiltin(ctx context.Context, st int) (_ ir.Inst, i int, err error) {
	x := &ir.Builtin{}

	tk, i, err := p.expectKind(ctx, st, lex.String)
	if err != nil {
		return nil, i, err
	}

	x.Name, err = unquote(tk)
	if err != nil {
		return nil, i, err
	}

	x.Args, i, err = p.parseOperands(ctx, i, true)
	if err != nil {
		return nil, i, errors.Wrap(err, "args")
	}

	i, err = p.expect(ctx, i, ":")
	if err != nil {
		return nil, i, err
	}

	x.Type, i, err = p.parseLowered(ctx, i)
	if err != nil {
		return nil, i, errors.Wrap(err, "result type")
	}

	return x, i, nil
}

func (p *Parser) parseCondFail(ctx context.Context, st int) (_ ir.Inst, i int, err error) {
	x := &ir.CondFail{}

	x.Cond, i, err = p.parseOperand(ctx, st)
	if err != nil {
		return nil, i, err
	}

	i, err = p.expect(ctx, i, ",")
	if err != nil {
		return nil, i, err
	}

	tk, i, err := p.expectKind(ctx, i, lex.String)
	if err != nil {
		return nil, i, err
	}

	x.Message, err = unquote(tk)
	if err != nil {
		return nil, i, err
	}

	return x, i, nil
}

func (p *Parser) parseNumberLiteral(ctx context.Context, st int, op ir.Op, k ir.LitKind) (_ ir.Inst, i int, err error) {
	x := &ir.NumberLiteral{Opcode: op}

	x.Type, i, err = p.parseLowered(ctx, st)
	if err != nil {
		return nil, i, err
	}

	i, err = p.expect(ctx, i, ",")
	if err != nil {
		return nil, i, err
	}

	x.Value, i, err = p.parseLiteral(ctx, i, k)
	if err != nil {
		return nil, i, err
	}

	return x, i, nil
}

func (p *Parser) parseStringLiteral(ctx context.Context, st int) (_ ir.Inst, i int, err error) {
	x := &ir.StringLiteral{}

	tk, i, err := p.expectKind(ctx, st, lex.Ident)
	if err != nil {
		return nil, i, errors.Wrap(err, "encoding")
	}

	if _, ok := encodings[tk.Text]; !ok {
		return nil, st, newUnexpected(tk, "utf8", "utf16", "objc_selector", "bytes")
	}

	x.Encoding = tk.Text

	tk, i, err = p.expectKind(ctx, i, lex.String)
	if err != nil {
		return nil, i, err
	}

	x.Value, err = unquote(tk)
	if err != nil {
		return nil, i, err
	}

	return x, i, nil
}

func (p *Parser) parseModifiers(ctx context.Context, st int, allowed map[string]struct{}) (mods []string, i int, err error) {
	i = st

	for p.peek(i).Is("[") {
		tk, j, err := p.expectKind(ctx, i+1, lex.Ident)
		if err != nil {
			return nil, j, err
		}

		if _, ok := allowed[tk.Text]; !ok {
			return nil, i + 1, newUnexpected(tk, "known modifier")
		}

		i, err = p.expect(ctx, j, "]")
		if err != nil {
			return nil, i, err
		}

		mods = append(mods, tk.Text)
	}

	return mods, i, nil
}

func (p *Parser) parseUnary(ctx context.Context, st int, op ir.Op, typed bool) (_ ir.Inst, i int, err error) {
	x := &ir.Unary{Opcode: op}

	x.Attrs, i, err = p.parseModifiers(ctx, st, modifiers[op])
	if err != nil {
		return nil, i, err
	}

	if typed {
		x.Operand, i, err = p.parseOperand(ctx, i)
	} else {
		x.Operand.Value, i, err = p.parseValue(ctx, i)
	}
	if err != nil {
		return nil, i, err
	}

	return x, i, nil
}

func (p *Parser) parseAllocStack(ctx context.Context, st int) (_ ir.Inst, i int, err error) {
	x := &ir.AllocStack{}

	x.Type, i, err = p.parseLowered(ctx, st)
	if err != nil {
		return nil, i, err
	}

	x.Var, i, err = p.parseDebugVar(ctx, i)
	if err != nil {
		return nil, i, errors.Wrap(err, "debug var")
	}

	return x, i, nil
}

func (p *Parser) parseMetatype(ctx context.Context, st int) (_ ir.Inst, i int, err error) {
	x := &ir.Metatype{}

	x.Type, i, err = p.parseLowered(ctx, st)
	if err != nil {
		return nil, i, err
	}

	return x, i, nil
}

// parseAggregate parses struct $T (%a : $A) and both tuple spellings:
// tuple (%a : $A, %b : $B) and tuple $(A, B) (%a, %b).
func (p *Parser) parseAggregate(ctx context.Context, st int, op ir.Op) (_ ir.Inst, i int, err error) {
	x := &ir.Aggregate{Opcode: op}
	i = st

	if op == ir.OpStruct || p.peek(i).Is("$") {
		var t tp.Lowered

		t, i, err = p.parseLowered(ctx, i)
		if err != nil {
			return nil, i, err
		}

		x.Type = &t
	}

	typed := op == ir.OpStruct || x.Type == nil

	x.Elems, i, err = p.parseOperands(ctx, i, typed)
	if err != nil {
		return nil, i, errors.Wrap(err, "elements")
	}

	return x, i, nil
}

func (p *Parser) parseEnum(ctx context.Context, st int) (_ ir.Inst, i int, err error) {
	x := &ir.Enum{}

	x.Type, i, err = p.parseLowered(ctx, st)
	if err != nil {
		return nil, i, err
	}

	i, err = p.expect(ctx, i, ",")
	if err != nil {
		return nil, i, err
	}

	x.Case, i, err = p.parseDeclRef(ctx, i)
	if err != nil {
		return nil, i, err
	}

	if !p.peek(i).Is(",") {
		return x, i, nil
	}

	payload, i, err := p.parseOperand(ctx, i+1)
	if err != nil {
		return nil, i, errors.Wrap(err, "payload")
	}

	x.Payload = &payload

	return x, i, nil
}

func (p *Parser) parseFieldAccess(ctx context.Context, st int, op ir.Op) (_ ir.Inst, i int, err error) {
	x := &ir.FieldAccess{Opcode: op}

	x.Operand, i, err = p.parseOperand(ctx, st)
	if err != nil {
		return nil, i, err
	}

	i, err = p.expect(ctx, i, ",")
	if err != nil {
		return nil, i, err
	}

	x.Field, i, err = p.parseDeclRef(ctx, i)
	if err != nil {
		return nil, i, errors.Wrap(err, "field")
	}

	return x, i, nil
}

func (p *Parser) parseTupleAccess(ctx context.Context, st int, op ir.Op) (_ ir.Inst, i int, err error) {
	x := &ir.TupleAccess{Opcode: op}

	x.Operand, i, err = p.parseOperand(ctx, st)
	if err != nil {
		return nil, i, err
	}

	i, err = p.expect(ctx, i, ",")
	if err != nil {
		return nil, i, err
	}

	tk, i := p.next(ctx, i)

	x.Index, err = index(tk)
	if err != nil {
		return nil, i - 1, err
	}

	return x, i, nil
}

func (p *Parser) parseSymbolRef(ctx context.Context, st int, op ir.Op) (_ ir.Inst, i int, err error) {
	x := &ir.SymbolRef{Opcode: op}

	tk, i, err := p.expectKind(ctx, st, lex.Global)
	if err != nil {
		return nil, i, errors.Wrap(err, "symbol")
	}

	x.Name = tk.Text[1:]

	i, err = p.expect(ctx, i, ":")
	if err != nil {
		return nil, i, err
	}

	x.Type, i, err = p.parseLowered(ctx, i)
	if err != nil {
		return nil, i, err
	}

	return x, i, nil
}

// parseWitnessMethod parses witness_method $Self, #P.member!1 : <formal type> : $<lowered type>.
func (p *Parser) parseWitnessMethod(ctx context.Context, st int) (_ ir.Inst, i int, err error) {
	x := &ir.WitnessMethod{}

	x.Lookup, i, err = p.parseLowered(ctx, st)
	if err != nil {
		return nil, i, errors.Wrap(err, "lookup type")
	}

	i, err = p.expect(ctx, i, ",")
	if err != nil {
		return nil, i, err
	}

	x.Member, i, err = p.parseDeclRef(ctx, i)
	if err != nil {
		return nil, i, errors.Wrap(err, "member")
	}

	i, err = p.expect(ctx, i, ":")
	if err != nil {
		return nil, i, err
	}

	x.MemberType, i, err = p.parseType(ctx, i)
	if err != nil {
		return nil, i, errors.Wrap(err, "member type")
	}

	i, err = p.expect(ctx, i, ":")
	if err != nil {
		return nil, i, err
	}

	x.Type, i, err = p.parseLowered(ctx, i)
	if err != nil {
		return nil, i, err
	}

	return x, i, nil
}

func (p *Parser) parseApply(ctx context.Context, st int, op ir.Op) (_ ir.Inst, i int, err error) {
	x := &ir.Apply{Opcode: op}

	x.Callee, i, err = p.parseValue(ctx, st)
	if err != nil {
		return nil, i, errors.Wrap(err, "callee")
	}

	if p.peek(i).Is("<") {
		_, x.Subs, i, err = p.parseAngle(ctx, i, false)
		if err != nil {
			return nil, i, errors.Wrap(err, "substitutions")
		}
	}

	x.Args, i, err = p.parseValues(ctx, i)
	if err != nil {
		return nil, i, errors.Wrap(err, "args")
	}

	i, err = p.expect(ctx, i, ":")
	if err != nil {
		return nil, i, err
	}

	x.Type, i, err = p.parseLowered(ctx, i)
	if err != nil {
		return nil, i, err
	}

	if op != ir.OpTryApply {
		return x, i, nil
	}

	x.Normal, i, err = p.parseNamedLabel(ctx, i, "normal")
	if err != nil {
		return nil, i, err
	}

	x.Error, i, err = p.parseNamedLabel(ctx, i, "error")
	if err != nil {
		return nil, i, err
	}

	return x, i, nil
}

// parseNamedLabel parses , <kw> label.
func (p *Parser) parseNamedLabel(ctx context.Context, st int, kw string) (l *ir.Label, i int, err error) {
	i, err = p.expect(ctx, st, ",")
	if err != nil {
		return nil, i, err
	}

	i, err = p.expect(ctx, i, kw)
	if err != nil {
		return nil, i, err
	}

	dest, i, err := p.parseLabel(ctx, i)
	if err != nil {
		return nil, i, errors.Wrap(err, "%v", kw)
	}

	return &dest, i, nil
}

func (p *Parser) parseDebugValue(ctx context.Context, st int, op ir.Op) (_ ir.Inst, i int, err error) {
	x := &ir.DebugValue{Opcode: op}

	x.Operand, i, err = p.parseOperand(ctx, st)
	if err != nil {
		return nil, i, err
	}

	x.Var, i, err = p.parseDebugVar(ctx, i)
	if err != nil {
		return nil, i, errors.Wrap(err, "debug var")
	}

	return x, i, nil
}

func (p *Parser) parseBranch(ctx context.Context, st int) (_ ir.Inst, i int, err error) {
	x := &ir.Branch{}

	x.Dest, i, err = p.parseLabel(ctx, st)
	if err != nil {
		return nil, i, err
	}

	return x, i, nil
}

func (p *Parser) parseCondBranch(ctx context.Context, st int) (_ ir.Inst, i int, err error) {
	x := &ir.CondBranch{}

	x.Cond, i, err = p.parseValue(ctx, st)
	if err != nil {
		return nil, i, errors.Wrap(err, "condition")
	}

	i, err = p.expect(ctx, i, ",")
	if err != nil {
		return nil, i, err
	}

	x.True, i, err = p.parseLabel(ctx, i)
	if err != nil {
		return nil, i, errors.Wrap(err, "true")
	}

	i, err = p.expect(ctx, i, ",")
	if err != nil {
		return nil, i, err
	}

	x.False, i, err = p.parseLabel(ctx, i)
	if err != nil {
		return nil, i, errors.Wrap(err, "false")
	}

	return x, i, nil
}

// parseSwitchEnum parses the operand followed by , case #E.c!enumelt: bbN ... [, default bbM].
func (p *Parser) parseSwitchEnum(ctx context.Context, st int, op ir.Op) (_ ir.Inst, i int, err error) {
	x := &ir.SwitchEnum{Opcode: op}

	x.Operand, i, err = p.parseOperand(ctx, st)
	if err != nil {
		return nil, i, err
	}

	for p.peek(i).Is(",") {
		if x.Default != nil {
			return nil, i, newUnexpected(p.peek(i), "end of instruction after default")
		}

		tk, j := p.next(ctx, i+1)

		switch {
		case tk.Is("case"):
			var c ir.Case

			c.Elem, j, err = p.parseDeclRef(ctx, j)
			if err != nil {
				return nil, j, errors.Wrap(err, "case %d", len(x.Cases))
			}

			j, err = p.expect(ctx, j, ":")
			if err != nil {
				return nil, j, err
			}

			c.Dest, j, err = p.parseLabel(ctx, j)
			if err != nil {
				return nil, j, errors.Wrap(err, "case %d", len(x.Cases))
			}

			x.Cases = append(x.Cases, c)
		case tk.Is("default"):
			var dest ir.Label

			dest, j, err = p.parseLabel(ctx, j)
			if err != nil {
				return nil, j, errors.Wrap(err, "default")
			}

			x.Default = &dest
		default:
			return nil, i + 1, newUnexpected(tk, "case", "default")
		}

		i = j
	}

	if len(x.Cases) == 0 && x.Default == nil {
		return nil, i, newUnexpected(p.peek(i), ", case")
	}

	return x, i, nil
}

// parseCopyAddr parses copy_addr [take] %src to [initialization] %dst : $*T.
func (p *Parser) parseCopyAddr(ctx context.Context, st int) (_ ir.Inst, i int, err error) {
	x := &ir.CopyAddr{}

	x.SrcAttrs, i, err = p.parseModifiers(ctx, st, copySrcMods)
	if err != nil {
		return nil, i, err
	}

	x.Src, i, err = p.parseValue(ctx, i)
	if err != nil {
		return nil, i, errors.Wrap(err, "source")
	}

	i, err = p.expect(ctx, i, "to")
	if err != nil {
		return nil, i, err
	}

	x.DstAttrs, i, err = p.parseModifiers(ctx, i, copyDstMods)
	if err != nil {
		return nil, i, err
	}

	x.Dst, i, err = p.parseValue(ctx, i)
	if err != nil {
		return nil, i, errors.Wrap(err, "destination")
	}

	i, err = p.expect(ctx, i, ":")
	if err != nil {
		return nil, i, err
	}

	x.Type, i, err = p.parseLowered(ctx, i)
	if err != nil {
		return nil, i, err
	}

	return x, i, nil
}

// parseStore parses store %src to [qual] %dst : $*T.
func (p *Parser) parseStore(ctx context.Context, st int) (_ ir.Inst, i int, err error) {
	x := &ir.Store{}

	x.Src, i, err = p.parseValue(ctx, st)
	if err != nil {
		return nil, i, errors.Wrap(err, "source")
	}

	i, err = p.expect(ctx, i, "to")
	if err != nil {
		return nil, i, err
	}

	quals, i, err := p.parseModifiers(ctx, i, storeQuals)
	if err != nil {
		return nil, i, err
	}

	if len(quals) > 1 {
		return nil, i, newUnexpected(p.peek(i), "single store qualifier")
	}

	if len(quals) == 1 {
		x.Qual = quals[0]
	}

	x.Dst, i, err = p.parseValue(ctx, i)
	if err != nil {
		return nil, i, errors.Wrap(err, "destination")
	}

	i, err = p.expect(ctx, i, ":")
	if err != nil {
		return nil, i, err
	}

	x.Type, i, err = p.parseLowered(ctx, i)
	if err != nil {
		return nil, i, err
	}

	return x, i, nil
}
