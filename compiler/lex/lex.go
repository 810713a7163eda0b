package lex

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"tlog.app/go/tlog/tlwire"
)

type (
	Kind int

	Token struct {
		Kind Kind
		Text string
		Pos  int
	}

	// Lexer produces tokens one at a time. It never modifies the input.
	Lexer struct {
		b []byte
		i int
	}

	Error struct {
		Char rune
		Pos  int
		Msg  string
	}
)

const (
	EOF Kind = iota
	Ident
	Keyword
	Value
	Global
	Int
	Float
	String
	Punct
	Arrow
	SameType
)

var kindNames = [...]string{
	EOF:      "EOF",
	Ident:    "Ident",
	Keyword:  "Keyword",
	Value:    "Value",
	Global:   "Global",
	Int:      "Int",
	Float:    "Float",
	String:   "String",
	Punct:    "Punct",
	Arrow:    "Arrow",
	SameType: "SameType",
}

var keywords = map[string]struct{}{
	"where": {},
}

func New(text []byte) *Lexer {
	return &Lexer{b: text}
}

// Tokenize runs the lexer to the end. The last token is always EOF.
func Tokenize(text []byte) (toks []Token, err error) {
	l := New(text)

	for {
		t, err := l.Next()
		if err != nil {
			return nil, err
		}

		toks = append(toks, t)

		if t.Kind == EOF {
			return toks, nil
		}
	}
}

func (l *Lexer) Reset() { l.i = 0 }

func (l *Lexer) Next() (t Token, err error) {
	b := l.b
	st := skipSpaces(b, l.i)
	i := st

	defer func() {
		if err == nil {
			l.i = i
		}
	}()

	if i == len(b) {
		return Token{Kind: EOF, Pos: i}, nil
	}

	c := b[i]

	switch c {
	case '(', ')', '<', '>', '[', ']', ',', ':', '.', '!', '*', '$', '#', '&', '?':
		i++
		return Token{Kind: Punct, Text: string(b[st:i]), Pos: st}, nil
	case '=':
		if i+1 < len(b) && b[i+1] == '=' {
			i += 2
			return Token{Kind: SameType, Text: "==", Pos: st}, nil
		}

		i++
		return Token{Kind: Punct, Text: "=", Pos: st}, nil
	case '-':
		if i+1 < len(b) && b[i+1] == '>' {
			i += 2
			return Token{Kind: Arrow, Text: "->", Pos: st}, nil
		}

		if i+1 < len(b) && isDigit(b[i+1]) {
			var k Kind
			k, i = skipNum(b, i+1)

			return Token{Kind: k, Text: string(b[st:i]), Pos: st}, nil
		}
	case '"':
		i, err = skipString(b, i)
		if err != nil {
			return
		}

		return Token{Kind: String, Text: string(b[st:i]), Pos: st}, nil
	case '%':
		i = skipWord(b, i+1, false)
		if i == st+1 {
			return Token{}, &Error{Char: '%', Pos: st, Msg: "value name expected"}
		}

		return Token{Kind: Value, Text: string(b[st:i]), Pos: st}, nil
	case '@':
		i = skipWord(b, i+1, true)
		if i == st+1 {
			return Token{}, &Error{Char: '@', Pos: st, Msg: "name expected"}
		}

		return Token{Kind: Global, Text: string(b[st:i]), Pos: st}, nil
	}

	if isDigit(c) {
		var k Kind
		k, i = skipNum(b, i)

		return Token{Kind: k, Text: string(b[st:i]), Pos: st}, nil
	}

	if r, _ := utf8.DecodeRune(b[i:]); isIdentStart(r) {
		i = skipWord(b, i, false)

		t = Token{Kind: Ident, Text: string(b[st:i]), Pos: st}

		if _, ok := keywords[t.Text]; ok {
			t.Kind = Keyword
		}

		return t, nil
	}

	r, _ := utf8.DecodeRune(b[i:])

	return Token{}, &Error{Char: r, Pos: st}
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

func (t Token) Is(text string) bool {
	return (t.Kind == Punct || t.Kind == Ident || t.Kind == Keyword) && t.Text == text
}

func (t Token) String() string {
	if t.Kind == EOF {
		return "EOF"
	}

	return t.Text
}

func (t Token) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	if t.Kind == EOF {
		return e.AppendFormat(b, "EOF@%d", t.Pos)
	}

	return e.AppendFormat(b, "%v(%q)@%d", t.Kind, t.Text, t.Pos)
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("lex: %s at offset %d (%q)", e.Msg, e.Pos, e.Char)
	}

	return fmt.Sprintf("lex: unexpected character %q at offset %d", e.Char, e.Pos)
}

func skipSpaces(b []byte, i int) int {
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\r' || b[i] == '\n') {
		i++
	}

	return i
}

// skipWord skips identifier characters. Symbol names may also contain '$'.
func skipWord(b []byte, i int, symbol bool) int {
	for i < len(b) {
		c := b[i]

		switch {
		case c == '_' || isDigit(c) || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
			i++
		case symbol && c == '$':
			i++
		case c >= utf8.RuneSelf:
			r, w := utf8.DecodeRune(b[i:])
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return i
			}

			i += w
		default:
			return i
		}
	}

	return i
}

func skipNum(b []byte, i int) (k Kind, _ int) {
	k = Int

	if b[i] == '0' && i+1 < len(b) {
		switch b[i+1] {
		case 'x', 'X':
			return skipHex(b, i+2)
		case 'o', 'O', 'b', 'B':
			i += 2

			for i < len(b) && (isDigit(b[i]) || b[i] == '_') {
				i++
			}

			return Int, i
		}
	}

	for i < len(b) && (isDigit(b[i]) || b[i] == '_') {
		i++
	}

	if i+1 < len(b) && b[i] == '.' && isDigit(b[i+1]) {
		k = Float
		i++

		for i < len(b) && isDigit(b[i]) {
			i++
		}
	}

	if i < len(b) && (b[i] == 'e' || b[i] == 'E') {
		if j := skipExp(b, i+1); j != i+1 {
			k = Float
			i = j
		}
	}

	return k, i
}

func skipHex(b []byte, i int) (k Kind, _ int) {
	k = Int

	for i < len(b) && (isHex(b[i]) || b[i] == '_') {
		i++
	}

	if i+1 < len(b) && b[i] == '.' && isHex(b[i+1]) {
		k = Float
		i++

		for i < len(b) && isHex(b[i]) {
			i++
		}
	}

	if i < len(b) && (b[i] == 'p' || b[i] == 'P') {
		if j := skipExp(b, i+1); j != i+1 {
			k = Float
			i = j
		}
	}

	return k, i
}

func skipExp(b []byte, st int) int {
	i := st

	if i < len(b) && (b[i] == '+' || b[i] == '-') {
		i++
	}

	dst := i

	for i < len(b) && isDigit(b[i]) {
		i++
	}

	if i == dst {
		return st
	}

	return i
}

func skipString(b []byte, st int) (int, error) {
	i := st + 1

	for i < len(b) {
		switch b[i] {
		case '\\':
			i += 2
			continue
		case '"':
			return i + 1, nil
		}

		i++
	}

	return st, &Error{Char: '"', Pos: st, Msg: "unterminated string"}
}

func isIdentStart(r rune) bool {
	return r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= utf8.RuneSelf && unicode.IsLetter(r)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool {
	return isDigit(c) || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}
