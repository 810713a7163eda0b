package parse

import (
	"context"
	"fmt"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/slowlang/silparse/compiler/ir"
	"github.com/slowlang/silparse/compiler/lex"
	"github.com/slowlang/silparse/compiler/tp"
)

type (
	// Parser holds the tokens of a single instruction or type span.
	// It is owned by one parse call at a time.
	Parser struct {
		text []byte
		toks []lex.Token
	}

	SyntaxError struct {
		Got  lex.Token
		Want []string
	}

	UnknownOpcodeError struct {
		Name string
		Pos  int
	}

	TypeError struct {
		Got lex.Token
		Msg string
	}

	// UnsupportedError reports input the grammar deliberately does not handle,
	// like control characters in string literals or labeled tuple types.
	UnsupportedError struct {
		What string
		Text string
		Pos  int
	}
)

func New(text []byte) (*Parser, error) {
	toks, err := lex.Tokenize(text)
	if err != nil {
		return nil, err
	}

	return &Parser{
		text: text,
		toks: toks,
	}, nil
}

// ParseInstruction parses one instruction. Either the whole text is consumed
// or an error is returned.
func ParseInstruction(ctx context.Context, text []byte) (*ir.Instruction, error) {
	p, err := New(text)
	if err != nil {
		return nil, err
	}

	return p.Instruction(ctx)
}

// ParseType parses a $-prefixed type annotation.
func ParseType(ctx context.Context, text []byte) (t tp.Lowered, err error) {
	p, err := New(text)
	if err != nil {
		return t, err
	}

	t, i, err := p.parseLowered(ctx, 0)
	if err != nil {
		return t, err
	}

	if err = p.end(i); err != nil {
		return t, err
	}

	return t, nil
}

func (p *Parser) Instruction(ctx context.Context) (x *ir.Instruction, err error) {
	tr := tlog.SpanFromContext(ctx)

	if tr.If("parse_tokens") {
		tr.Printw("tokens", "text", p.text, "tokens", p.toks)
	}

	x, i, err := p.parseInstruction(ctx, 0)
	if err != nil {
		return nil, err
	}

	if err = p.end(i); err != nil {
		return nil, errors.Wrap(err, "%v", x.Op())
	}

	if tr.If("parse_inst") {
		tr.Printw("instruction", "op", x.Op(), "results", x.Results, "inst", x.Inst)
	}

	return x, nil
}

func (p *Parser) end(i int) error {
	if tk := p.peek(i); tk.Kind != lex.EOF {
		return newUnexpected(tk, "end of instruction")
	}

	return nil
}

func (p *Parser) peek(i int) lex.Token {
	if i < len(p.toks) {
		return p.toks[i]
	}

	return p.toks[len(p.toks)-1]
}

// next returns the token at st and the index after it. EOF is sticky.
func (p *Parser) next(ctx context.Context, st int) (tk lex.Token, i int) {
	if tr := tlog.SpanFromContext(ctx); tr.If("next_token") {
		defer func(st int) {
			tr.Printw("next token", "st", st, "tk", tk, "i", i, "from", loc.Callers(1, 3))
		}(st)
	}

	tk = p.peek(st)
	if tk.Kind == lex.EOF {
		return tk, st
	}

	return tk, st + 1
}

func (p *Parser) expect(ctx context.Context, st int, text string) (i int, err error) {
	tk, i := p.next(ctx, st)
	if !tk.Is(text) {
		return st, newUnexpected(tk, text)
	}

	return i, nil
}

func (p *Parser) expectKind(ctx context.Context, st int, k lex.Kind) (tk lex.Token, i int, err error) {
	tk, i = p.next(ctx, st)
	if tk.Kind != k {
		return tk, st, newUnexpected(tk, k.String())
	}

	return tk, i, nil
}

func newUnexpected(got lex.Token, want ...string) error {
	return &SyntaxError{
		Got:  got,
		Want: want,
	}
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("unexpected %q (%v) at offset %d, want: %v", e.Got.String(), e.Got.Kind, e.Got.Pos, strings.Join(e.Want, ", "))
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("unknown opcode %q at offset %d", e.Name, e.Pos)
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type: %s: %q at offset %d", e.Msg, e.Got.String(), e.Got.Pos)
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported %s: %s at offset %d", e.What, e.Text, e.Pos)
}
