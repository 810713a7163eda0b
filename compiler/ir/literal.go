package ir

import (
	"strconv"
	"strings"

	"tlog.app/go/errors"
)

type (
	LitKind int

	// Literal keeps the number exactly as written. 0x0 and 0x00000000 are different literals.
	Literal struct {
		Kind LitKind `yaml:"kind"`
		Raw  string  `yaml:"raw"`
	}
)

const (
	IntLit LitKind = iota
	FloatLit
)

func (k LitKind) String() string {
	if k == FloatLit {
		return "float"
	}

	return "int"
}

func (k LitKind) MarshalYAML() (any, error) {
	return k.String(), nil
}

// Radix is 16, 8, 2 or 10 depending on the prefix.
func (l Literal) Radix() int {
	s := strings.TrimPrefix(l.Raw, "-")

	if len(s) < 2 || s[0] != '0' {
		return 10
	}

	switch s[1] {
	case 'x', 'X':
		return 16
	case 'o', 'O':
		return 8
	case 'b', 'B':
		return 2
	}

	return 10
}

// Uint64 decodes an integer literal or the bit pattern of a hex float literal.
// Negative values come back in two's complement.
func (l Literal) Uint64() (uint64, error) {
	s := strings.ReplaceAll(l.Raw, "_", "")

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	r := l.Radix()
	if r != 10 {
		s = s[2:]
	}

	if l.Kind == FloatLit && r != 16 {
		return 0, errors.New("not a bit pattern: %v", l.Raw)
	}

	v, err := strconv.ParseUint(s, r, 64)
	if err != nil {
		return 0, errors.Wrap(err, "literal %v", l.Raw)
	}

	if neg {
		v = -v
	}

	return v, nil
}
