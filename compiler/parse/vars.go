package parse

import (
	"context"

	"tlog.app/go/errors"

	"github.com/slowlang/silparse/compiler/ir"
	"github.com/slowlang/silparse/compiler/lex"
)

// Values and labels are taken as written. Whether they are defined, and where,
// is checked by whoever assembles instructions into functions.

func (p *Parser) parseValue(ctx context.Context, st int) (v ir.Value, i int, err error) {
	tk, i, err := p.expectKind(ctx, st, lex.Value)
	if err != nil {
		return "", i, err
	}

	return ir.Value(tk.Text[1:]), i, nil
}

// parseOperand parses %v : $T.
func (p *Parser) parseOperand(ctx context.Context, st int) (x ir.Operand, i int, err error) {
	x.Value, i, err = p.parseValue(ctx, st)
	if err != nil {
		return x, i, err
	}

	i, err = p.expect(ctx, i, ":")
	if err != nil {
		return x, i, err
	}

	t, i, err := p.parseLowered(ctx, i)
	if err != nil {
		return x, i, errors.Wrap(err, "operand %v", x.Value)
	}

	x.Type = &t

	return x, i, nil
}

// parseOperands parses (%a : $A, %b : $B) or, if typed is false, (%a, %b).
func (p *Parser) parseOperands(ctx context.Context, st int, typed bool) (l []ir.Operand, i int, err error) {
	i, err = p.expect(ctx, st, "(")
	if err != nil {
		return nil, i, err
	}

	for !p.peek(i).Is(")") {
		if len(l) != 0 {
			i, err = p.expect(ctx, i, ",")
			if err != nil {
				return nil, i, err
			}
		}

		var x ir.Operand

		if typed {
			x, i, err = p.parseOperand(ctx, i)
		} else {
			x.Value, i, err = p.parseValue(ctx, i)
		}
		if err != nil {
			return nil, i, err
		}

		l = append(l, x)
	}

	return l, i + 1, nil
}

func (p *Parser) parseValues(ctx context.Context, st int) (l []ir.Value, i int, err error) {
	ops, i, err := p.parseOperands(ctx, st, false)
	if err != nil {
		return nil, i, err
	}

	l = make([]ir.Value, len(ops))

	for j, x := range ops {
		l[j] = x.Value
	}

	return l, i, nil
}

// parseLabel parses bb3 or label (%0 : $A, %1 : $B).
func (p *Parser) parseLabel(ctx context.Context, st int) (l ir.Label, i int, err error) {
	tk, i, err := p.expectKind(ctx, st, lex.Ident)
	if err != nil {
		return l, i, errors.Wrap(err, "label")
	}

	l.Name = tk.Text

	if !p.peek(i).Is("(") {
		return l, i, nil
	}

	l.Bound = true

	l.Args, i, err = p.parseOperands(ctx, i, true)
	if err != nil {
		return l, i, errors.Wrap(err, "label %v args", l.Name)
	}

	return l, i, nil
}

// parseDeclRef parses #Type.member!kind.level. Operator names are quoted: #Comparable."<="!1.
func (p *Parser) parseDeclRef(ctx context.Context, st int) (d ir.DeclRef, i int, err error) {
	i, err = p.expect(ctx, st, "#")
	if err != nil {
		return d, i, err
	}

	for {
		tk, j := p.next(ctx, i)

		switch tk.Kind {
		case lex.Ident:
		case lex.String:
			if _, err = unquote(tk); err != nil {
				return d, i, err
			}
		default:
			return d, i, newUnexpected(tk, "decl name")
		}

		d.Path = append(d.Path, tk.Text)
		i = j

		if !p.peek(i).Is(".") {
			break
		}

		i++
	}

	if !p.peek(i).Is("!") {
		return d, i, nil
	}

	tk, i := p.next(ctx, i+1)

	switch tk.Kind {
	case lex.Ident:
		d.Kind = tk.Text

		if !p.peek(i).Is(".") {
			return d, i, nil
		}

		tk, i, err = p.expectKind(ctx, i+1, lex.Int)
		if err != nil {
			return d, i, err
		}

		d.Level = tk.Text
	case lex.Int:
		d.Level = tk.Text
	default:
		return d, i - 1, newUnexpected(tk, "decl kind", "uncurry level")
	}

	if _, err = index(tk); err != nil {
		return d, i - 1, err
	}

	return d, i, nil
}

// parseDebugVar parses the trailing , let|var , name "x" , argno N clauses.
// Each is optional but they come in this order.
func (p *Parser) parseDebugVar(ctx context.Context, st int) (v ir.DebugVar, i int, err error) {
	i = st
	stage := 0

	for p.peek(i).Is(",") {
		tk, j := p.next(ctx, i+1)

		switch {
		case stage < 1 && (tk.Is("let") || tk.Is("var")):
			v.Mutability = tk.Text
			stage = 1
		case stage < 2 && tk.Is("name"):
			var s lex.Token

			s, j, err = p.expectKind(ctx, j, lex.String)
			if err != nil {
				return v, j, err
			}

			v.Name, err = unquote(s)
			if err != nil {
				return v, j, err
			}

			v.HasName = true
			stage = 2
		case stage < 3 && tk.Is("argno"):
			var n lex.Token

			n, j, err = p.expectKind(ctx, j, lex.Int)
			if err != nil {
				return v, j, err
			}

			v.ArgNo, err = index(n)
			if err != nil {
				return v, j, err
			}

			if v.ArgNo == 0 {
				return v, j, newUnexpected(n, "argument number from 1")
			}

			stage = 3
		default:
			return v, i + 1, newUnexpected(tk, "let", "var", "name", "argno")
		}

		i = j
	}

	return v, i, nil
}
