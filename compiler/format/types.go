package format

import (
	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/silparse/compiler/tp"
)

func appendLowered(b []byte, t tp.Lowered) ([]byte, error) {
	b = append(b, '$')

	if t.Address {
		b = append(b, '*')
	}

	return appendType(b, t.Type)
}

func appendType(b []byte, t tp.Type) (_ []byte, err error) {
	switch t := t.(type) {
	case *tp.Named:
		if t.Parent != nil {
			b, err = appendType(b, t.Parent)
			if err != nil {
				return nil, err
			}

			b = append(b, '.')
		}

		b = append(b, t.Name...)

		if len(t.Args) == 0 {
			return b, nil
		}

		b = append(b, '<')

		b, err = appendTypes(b, t.Args)
		if err != nil {
			return nil, errors.Wrap(err, "%v args", t.Name)
		}

		return append(b, '>'), nil
	case *tp.Tuple:
		b = append(b, '(')

		b, err = appendTypes(b, t.Elems)
		if err != nil {
			return nil, err
		}

		return append(b, ')'), nil
	case *tp.Func:
		return appendFunc(b, t)
	case *tp.Metatype:
		if t.Thickness != "" {
			b = hfmt.Appendf(b, "@%s ", t.Thickness)
		}

		b, err = appendType(b, t.Instance)
		if err != nil {
			return nil, err
		}

		return append(b, ".Type"...), nil
	case *tp.Optional:
		b, err = appendType(b, t.Wrapped)
		if err != nil {
			return nil, err
		}

		return append(b, '?'), nil
	case *tp.Existential:
		for j, p := range t.Protocols {
			if j != 0 {
				b = append(b, " & "...)
			}

			b, err = appendType(b, p)
			if err != nil {
				return nil, err
			}
		}

		return b, nil
	case *tp.Attributed:
		b = appendAttrs(b, t.Attrs)

		return appendType(b, t.Type)
	case nil:
		return nil, errors.New("missing type")
	default:
		return nil, errors.New("unsupported type: %T", t)
	}
}

func appendTypes(b []byte, l []tp.Type) (_ []byte, err error) {
	for j, t := range l {
		if j != 0 {
			b = append(b, ", "...)
		}

		b, err = appendType(b, t)
		if err != nil {
			return nil, err
		}
	}

	return b, nil
}

func appendFunc(b []byte, f *tp.Func) (_ []byte, err error) {
	b = appendAttrs(b, f.Attrs)

	for _, g := range f.Generics {
		b, err = appendGenerics(b, g)
		if err != nil {
			return nil, errors.Wrap(err, "generic signature")
		}
	}

	if len(f.Generics) != 0 {
		b = append(b, ' ')
	}

	b = append(b, '(')

	b, err = appendTypes(b, f.Params)
	if err != nil {
		return nil, errors.Wrap(err, "params")
	}

	b = append(b, ") -> "...)

	b, err = appendType(b, f.Result)
	if err != nil {
		return nil, errors.Wrap(err, "result")
	}

	return b, nil
}

// appendAttrs appends each attribute followed by a space.
func appendAttrs(b []byte, l []tp.Attr) []byte {
	for _, a := range l {
		b = append(b, '@')
		b = append(b, a.Name...)

		if c := a.Convention; c != nil {
			if c.Witness != "" {
				b = hfmt.Appendf(b, "(%s: %s)", c.Name, c.Witness)
			} else {
				b = hfmt.Appendf(b, "(%s)", c.Name)
			}
		}

		b = append(b, ' ')
	}

	return b
}

func appendGenerics(b []byte, g tp.Generics) (_ []byte, err error) {
	b = append(b, '<')

	for j, p := range g.Params {
		if j != 0 {
			b = append(b, ", "...)
		}

		b = append(b, p...)
	}

	for j, r := range g.Reqs {
		if j == 0 {
			b = append(b, " where "...)
		} else {
			b = append(b, ", "...)
		}

		b, err = appendType(b, r.Left)
		if err != nil {
			return nil, errors.Wrap(err, "requirement %d", j)
		}

		b = hfmt.Appendf(b, " %s ", r.Kind)

		b, err = appendType(b, r.Right)
		if err != nil {
			return nil, errors.Wrap(err, "requirement %d", j)
		}
	}

	return append(b, '>'), nil
}
