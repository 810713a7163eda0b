package parse

import (
	"context"

	"tlog.app/go/errors"

	"github.com/slowlang/silparse/compiler/lex"
	"github.com/slowlang/silparse/compiler/tp"
)

func (p *Parser) parseLowered(ctx context.Context, st int) (t tp.Lowered, i int, err error) {
	i, err = p.expect(ctx, st, "$")
	if err != nil {
		return t, st, err
	}

	if p.peek(i).Is("*") {
		t.Address = true
		i++
	}

	t.Type, i, err = p.parseType(ctx, i)
	if err != nil {
		return t, i, err
	}

	return t, i, nil
}

func (p *Parser) parseType(ctx context.Context, st int) (t tp.Type, i int, err error) {
	attrs, i, err := p.parseAttrs(ctx, st)
	if err != nil {
		return nil, i, err
	}

	t, i, err = p.parseBaseType(ctx, i)
	if err != nil {
		return nil, i, err
	}

	return attach(attrs, t), i, nil
}

// attach binds attributes written before a base type.
func attach(attrs []tp.Attr, t tp.Type) tp.Type {
	if len(attrs) == 0 {
		return t
	}

	switch t := t.(type) {
	case *tp.Func:
		if len(t.Attrs) == 0 {
			t.Attrs = attrs
			return t
		}
	case *tp.Metatype:
		if len(attrs) == 1 && attrs[0].Convention == nil && tp.IsThickness(attrs[0].Name) && t.Thickness == "" {
			t.Thickness = attrs[0].Name
			return t
		}
	}

	return &tp.Attributed{Attrs: attrs, Type: t}
}

func (p *Parser) parseAttrs(ctx context.Context, st int) (attrs []tp.Attr, i int, err error) {
	i = st

	for p.peek(i).Kind == lex.Global {
		var tk lex.Token
		tk, i = p.next(ctx, i)

		a := tp.Attr{Name: tk.Text[1:]}

		if !tp.IsAttr(a.Name) {
			return nil, i - 1, &TypeError{Got: tk, Msg: "unknown attribute"}
		}

		if a.Name == tp.ConventionAttr {
			a.Convention, i, err = p.parseConvention(ctx, i)
			if err != nil {
				return nil, i, errors.Wrap(err, "convention")
			}
		}

		attrs = append(attrs, a)
	}

	return attrs, i, nil
}

func (p *Parser) parseConvention(ctx context.Context, st int) (c *tp.Convention, i int, err error) {
	i, err = p.expect(ctx, st, "(")
	if err != nil {
		return nil, i, err
	}

	tk, i, err := p.expectKind(ctx, i, lex.Ident)
	if err != nil {
		return nil, i, err
	}

	c = &tp.Convention{Name: tk.Text}

	if p.peek(i).Is(":") {
		tk, i, err = p.expectKind(ctx, i+1, lex.Ident)
		if err != nil {
			return nil, i, err
		}

		c.Witness = tk.Text
	}

	i, err = p.expect(ctx, i, ")")
	if err != nil {
		return nil, i, err
	}

	return c, i, nil
}

func (p *Parser) parseBaseType(ctx context.Context, st int) (t tp.Type, i int, err error) {
	if p.peek(st).Is("<") {
		return p.parseGenericFunc(ctx, st)
	}

	t, i, err = p.parsePostfix(ctx, st)
	if err != nil {
		return nil, i, err
	}

	if !p.peek(i).Is("&") {
		return t, i, nil
	}

	x := &tp.Existential{Protocols: []tp.Type{t}}

	for p.peek(i).Is("&") {
		t, i, err = p.parsePostfix(ctx, i+1)
		if err != nil {
			return nil, i, errors.Wrap(err, "composition")
		}

		x.Protocols = append(x.Protocols, t)
	}

	return x, i, nil
}

func (p *Parser) parseGenericFunc(ctx context.Context, st int) (t tp.Type, i int, err error) {
	var gens []tp.Generics

	i = st

	for p.peek(i).Is("<") {
		var g tp.Generics

		g, _, i, err = p.parseAngle(ctx, i, true)
		if err != nil {
			return nil, i, errors.Wrap(err, "generic signature")
		}

		gens = append(gens, g)
	}

	tk := p.peek(i)

	t, i, err = p.parsePrimary(ctx, i)
	if err != nil {
		return nil, i, err
	}

	f, ok := t.(*tp.Func)
	if !ok {
		return nil, i, &TypeError{Got: tk, Msg: "function type expected after generic signature"}
	}

	f.Generics = gens

	return f, i, nil
}

// parseAngle parses <...>. In declaration context it is a generic signature
// with parameter names and a where clause. At use sites it is a substitution list.
func (p *Parser) parseAngle(ctx context.Context, st int, decl bool) (g tp.Generics, subs []tp.Type, i int, err error) {
	i, err = p.expect(ctx, st, "<")
	if err != nil {
		return g, nil, i, err
	}

	for {
		if decl {
			var tk lex.Token

			tk, i, err = p.expectKind(ctx, i, lex.Ident)
			if err != nil {
				return g, nil, i, err
			}

			g.Params = append(g.Params, tk.Text)
		} else {
			var t tp.Type

			t, i, err = p.parseType(ctx, i)
			if err != nil {
				return g, nil, i, err
			}

			subs = append(subs, t)
		}

		if !p.peek(i).Is(",") {
			break
		}

		i++
	}

	if decl && p.peek(i).Is("where") {
		i++

		for {
			var r tp.Requirement

			r, i, err = p.parseRequirement(ctx, i)
			if err != nil {
				return g, nil, i, errors.Wrap(err, "requirement")
			}

			g.Reqs = append(g.Reqs, r)

			if !p.peek(i).Is(",") {
				break
			}

			i++
		}
	}

	i, err = p.expect(ctx, i, ">")
	if err != nil {
		return g, nil, i, err
	}

	return g, subs, i, nil
}

func (p *Parser) parseRequirement(ctx context.Context, st int) (r tp.Requirement, i int, err error) {
	r.Left, i, err = p.parseType(ctx, st)
	if err != nil {
		return r, i, err
	}

	tk, i := p.next(ctx, i)

	switch {
	case tk.Is(":"):
		r.Kind = tp.Conforms
	case tk.Kind == lex.SameType:
		r.Kind = tp.SameType
	default:
		return r, i - 1, &TypeError{Got: tk, Msg: "requirement kind expected"}
	}

	r.Right, i, err = p.parseType(ctx, i)
	if err != nil {
		return r, i, err
	}

	return r, i, nil
}

func (p *Parser) parsePostfix(ctx context.Context, st int) (t tp.Type, i int, err error) {
	t, i, err = p.parsePrimary(ctx, st)
	if err != nil {
		return nil, i, err
	}

	for p.peek(i).Is("?") {
		t = &tp.Optional{Wrapped: t}
		i++
	}

	return t, i, nil
}

func (p *Parser) parsePrimary(ctx context.Context, st int) (t tp.Type, i int, err error) {
	tk := p.peek(st)

	switch {
	case tk.Is("("):
		return p.parseParen(ctx, st)
	case tk.Kind == lex.Ident:
		return p.parseNamed(ctx, st)
	default:
		return nil, st, &TypeError{Got: tk, Msg: "type expected"}
	}
}

// parseParen parses a tuple or, if followed by an arrow, a function type.
func (p *Parser) parseParen(ctx context.Context, st int) (t tp.Type, i int, err error) {
	i, err = p.expect(ctx, st, "(")
	if err != nil {
		return nil, i, err
	}

	var elems []tp.Type

	for !p.peek(i).Is(")") {
		if len(elems) != 0 {
			i, err = p.expect(ctx, i, ",")
			if err != nil {
				return nil, i, err
			}
		}

		if tk := p.peek(i); tk.Kind == lex.Ident && p.peek(i+1).Is(":") {
			return nil, i, &UnsupportedError{What: "labeled tuple type", Text: tk.Text + ":", Pos: tk.Pos}
		}

		var e tp.Type

		e, i, err = p.parseType(ctx, i)
		if err != nil {
			return nil, i, err
		}

		elems = append(elems, e)
	}

	i++ // )

	if p.peek(i).Kind != lex.Arrow {
		return &tp.Tuple{Elems: elems}, i, nil
	}

	res, i, err := p.parseType(ctx, i+1)
	if err != nil {
		return nil, i, errors.Wrap(err, "result")
	}

	return &tp.Func{Params: elems, Result: res}, i, nil
}

func (p *Parser) parseNamed(ctx context.Context, st int) (t tp.Type, i int, err error) {
	i = st

	for {
		var tk lex.Token

		tk, _, err = p.expectKind(ctx, i, lex.Ident)
		if err != nil {
			return nil, i, err
		}

		i++

		if t != nil && tk.Text == "Type" {
			t = &tp.Metatype{Instance: t}
		} else {
			n := &tp.Named{Parent: t, Name: tk.Text}

			if p.peek(i).Is("<") {
				_, n.Args, i, err = p.parseAngle(ctx, i, false)
				if err != nil {
					return nil, i, errors.Wrap(err, "generic arguments")
				}
			}

			t = n
		}

		if !p.peek(i).Is(".") || p.peek(i+1).Kind != lex.Ident {
			return t, i, nil
		}

		i++
	}
}
