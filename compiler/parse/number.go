package parse

import (
	"context"
	"strconv"
	"strings"

	"github.com/slowlang/silparse/compiler/ir"
	"github.com/slowlang/silparse/compiler/lex"
)

// parseLiteral takes a number token as is. Float literals are usually written
// as the hex bit pattern (0x3F800000) which lexes as an integer.
func (p *Parser) parseLiteral(ctx context.Context, st int, k ir.LitKind) (l ir.Literal, i int, err error) {
	tk, i := p.next(ctx, st)

	switch {
	case tk.Kind == lex.Int && wellFormed(tk.Text, false):
	case tk.Kind == lex.Float && k == ir.FloatLit && wellFormed(tk.Text, true):
	default:
		want := "integer literal"
		if k == ir.FloatLit {
			want = "float literal"
		}

		return l, st, newUnexpected(tk, want)
	}

	return ir.Literal{Kind: k, Raw: tk.Text}, i, nil
}

// wellFormed checks what the lexer lets through: a radix prefix must be
// followed by a digit, '_' may only stand between digits,
// and integers use the digits of their radix only.
func wellFormed(s string, float bool) bool {
	s = strings.TrimPrefix(s, "-")
	digit := isDec

	if len(s) > 1 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			digit, s = isHex, s[2:]
		case 'o', 'O':
			digit, s = isOct, s[2:]
		case 'b', 'B':
			digit, s = isBin, s[2:]
		}
	}

	if s == "" || !digit(s[0]) {
		return false
	}

	for i := 1; i < len(s); i++ {
		switch {
		case s[i] == '_':
			if !digit(s[i-1]) || i+1 == len(s) || !digit(s[i+1]) {
				return false
			}
		case !float && !digit(s[i]):
			return false
		}
	}

	return true
}

func isDec(c byte) bool { return c >= '0' && c <= '9' }
func isOct(c byte) bool { return c >= '0' && c <= '7' }
func isBin(c byte) bool { return c == '0' || c == '1' }

func isHex(c byte) bool {
	return isDec(c) || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

// index parses a small decimal number written canonically: no sign, prefix or leading zeros.
func index(tk lex.Token) (int, error) {
	if tk.Kind != lex.Int {
		return 0, newUnexpected(tk, "index")
	}

	n, err := strconv.Atoi(tk.Text)
	if err != nil || n < 0 || strconv.Itoa(n) != tk.Text {
		return 0, newUnexpected(tk, "decimal index")
	}

	return n, nil
}
