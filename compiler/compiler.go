package compiler

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"

	"gopkg.in/yaml.v3"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/silparse/compiler/format"
	"github.com/slowlang/silparse/compiler/ir"
	"github.com/slowlang/silparse/compiler/parse"
)

type (
	// Report is the result of checking a dump line by line.
	Report struct {
		Lines    int       `yaml:"lines"`
		Passed   int       `yaml:"passed"`
		Failures []Failure `yaml:"failures,omitempty"`
	}

	// Failure is a line that failed to parse or printed back differently.
	Failure struct {
		Line    int    `yaml:"line"`
		Text    string `yaml:"text"`
		Printed string `yaml:"printed,omitempty"`
		Err     error  `yaml:"-"`
	}

	dump struct {
		Op      ir.Op      `yaml:"op"`
		Results []ir.Value `yaml:"results,omitempty"`
		Tuple   bool       `yaml:"tuple,omitempty"`
		Inst    ir.Inst    `yaml:"inst"`
	}
)

var ErrMismatch = errors.New("printed text differs")

func ParseInstruction(ctx context.Context, text string) (x *ir.Instruction, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "parse instruction", "text", text)
	defer tr.Finish("err", &err)

	return parse.ParseInstruction(ctx, []byte(text))
}

func Print(x *ir.Instruction) (string, error) {
	return format.Instruction(x)
}

// Roundtrip parses text and prints it back. ErrMismatch is returned along with
// the printed text if they differ.
func Roundtrip(ctx context.Context, text string) (x *ir.Instruction, printed string, err error) {
	x, err = parse.ParseInstruction(ctx, []byte(text))
	if err != nil {
		return nil, "", errors.Wrap(err, "parse")
	}

	printed, err = format.Instruction(x)
	if err != nil {
		return x, "", errors.Wrap(err, "print")
	}

	if printed != text {
		return x, printed, ErrMismatch
	}

	return x, printed, nil
}

func CheckFile(ctx context.Context, name, comment string) (r Report, err error) {
	f, err := os.Open(name)
	if err != nil {
		return r, errors.Wrap(err, "open")
	}

	defer func() {
		e := f.Close()
		if err == nil && e != nil {
			err = errors.Wrap(e, "close")
		}
	}()

	return CheckLines(ctx, f, comment)
}

// CheckLines round-trips every instruction line read from r.
func CheckLines(ctx context.Context, r io.Reader, comment string) (rep Report, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "check lines")
	defer tr.Finish("err", &err)

	err = Lines(r, comment, func(lnum int, text string) error {
		rep.Lines++

		_, printed, err := Roundtrip(ctx, text)
		if err != nil {
			rep.Failures = append(rep.Failures, Failure{Line: lnum, Text: text, Printed: printed, Err: err})

			if tr.If("check_failure") {
				tr.Printw("line failed", "line", lnum, "text", text, "printed", printed, "err", err)
			}

			return nil
		}

		rep.Passed++

		return nil
	})
	if err != nil {
		return rep, err
	}

	tr.Printw("checked", "lines", rep.Lines, "passed", rep.Passed, "failed", len(rep.Failures))

	return rep, nil
}

// Lines calls f for every instruction line read from r. lnum is 1-based.
// Blank lines and lines starting with the comment prefix are skipped.
// Trailing comments and indentation are not part of the instruction.
// An error returned by f stops the iteration and is returned as is.
func Lines(r io.Reader, comment string, f func(lnum int, text string) error) error {
	s := bufio.NewScanner(r)
	s.Buffer(nil, 1<<20)

	lnum := 0
	for s.Scan() {
		lnum++

		line := s.Bytes()
		line = line[skipSpaces(line, 0):]
		line = stripComment(line, []byte(comment))
		line = bytes.TrimRight(line, " \t\r")

		if len(line) == 0 {
			continue
		}

		err := f(lnum, string(line))
		if err != nil {
			return err
		}
	}

	if err := s.Err(); err != nil {
		return errors.Wrap(err, "scanner")
	}

	return nil
}

// Dump renders x as YAML. Instructions are tagged with their opcode.
func Dump(x any) ([]byte, error) {
	if in, ok := x.(*ir.Instruction); ok {
		x = dump{
			Op:      in.Op(),
			Results: in.Results,
			Tuple:   in.Tuple,
			Inst:    in.Inst,
		}
	}

	b, err := yaml.Marshal(x)
	if err != nil {
		return nil, errors.Wrap(err, "yaml")
	}

	return b, nil
}

func (r Report) OK() bool { return len(r.Failures) == 0 }

func skipSpaces(b []byte, i int) int {
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}

	return i
}

// stripComment cuts b at the first comment prefix outside of a string literal.
func stripComment(b, prefix []byte) []byte {
	if len(prefix) == 0 {
		return b
	}

	quoted := false

	for i := 0; i < len(b); i++ {
		switch {
		case quoted && b[i] == '\\':
			i++
		case b[i] == '"':
			quoted = !quoted
		case !quoted && bytes.HasPrefix(b[i:], prefix):
			return b[:i]
		}
	}

	return b
}
