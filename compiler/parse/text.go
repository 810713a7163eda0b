package parse

import (
	"strings"

	"github.com/slowlang/silparse/compiler/lex"
)

// unquote decodes a string token. Only \\ and \" escapes are understood.
// Other escapes and raw control or non-ASCII bytes are UnsupportedError.
func unquote(tk lex.Token) (string, error) {
	s := tk.Text
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", newUnexpected(tk, "string")
	}

	s = s[1 : len(s)-1]

	if strings.IndexByte(s, '\\') < 0 && unprintable(s) < 0 {
		return s, nil
	}

	var b strings.Builder

	for i := 0; i < len(s); i++ {
		c := s[i]

		if c != '\\' {
			if c < 0x20 || c >= 0x7f {
				return "", &UnsupportedError{What: "character in string literal", Text: tk.Text, Pos: tk.Pos + 1 + i}
			}

			b.WriteByte(c)

			continue
		}

		if i+1 == len(s) {
			return "", newUnexpected(tk, "escape sequence")
		}

		i++

		switch s[i] {
		case '\\', '"':
			b.WriteByte(s[i])
		default:
			return "", &UnsupportedError{What: "escape sequence in string literal", Text: tk.Text, Pos: tk.Pos + i}
		}
	}

	return b.String(), nil
}

func unprintable(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] >= 0x7f {
			return i
		}
	}

	return -1
}
