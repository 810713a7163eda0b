package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/silparse/compiler"
	"github.com/slowlang/silparse/compiler/lex"
)

func main() {
	commentsFlag := cli.NewFlag("comments", "//", "comment prefix, lines starting with it are skipped")

	parseCmd := &cli.Command{
		Name:        "parse",
		Description: "parse instructions and print them back",
		Action:      parseAct,
		Args:        cli.Args{},
		Flags:       []*cli.Flag{commentsFlag},
	}

	checkCmd := &cli.Command{
		Name:        "check",
		Description: "round-trip every instruction line and report mismatches",
		Action:      checkAct,
		Args:        cli.Args{},
		Flags:       []*cli.Flag{commentsFlag},
	}

	dumpCmd := &cli.Command{
		Name:        "dump",
		Description: "print parsed instructions as yaml",
		Action:      dumpAct,
		Args:        cli.Args{},
		Flags:       []*cli.Flag{commentsFlag},
	}

	tokensCmd := &cli.Command{
		Name:        "tokens",
		Description: "print lexer output",
		Action:      tokensAct,
		Args:        cli.Args{},
		Flags:       []*cli.Flag{commentsFlag},
	}

	app := &cli.Command{
		Name:        "sil",
		Description: "sil parses and prints SIL instructions",
		Commands: []*cli.Command{
			parseCmd,
			checkCmd,
			dumpCmd,
			tokensCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func parseAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	return eachLine(c, func(name string, lnum int, text string) error {
		x, err := compiler.ParseInstruction(ctx, text)
		if err != nil {
			return errors.Wrap(err, "%v:%d", name, lnum)
		}

		s, err := compiler.Print(x)
		if err != nil {
			return errors.Wrap(err, "%v:%d: print", name, lnum)
		}

		fmt.Printf("%s\n", s)

		return nil
	})
}

func checkAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	failed := 0

	for _, a := range args(c) {
		var rep compiler.Report

		if a == "-" {
			rep, err = compiler.CheckLines(ctx, os.Stdin, c.String("comments"))
		} else {
			rep, err = compiler.CheckFile(ctx, a, c.String("comments"))
		}
		if err != nil {
			return errors.Wrap(err, "check %v", a)
		}

		for _, f := range rep.Failures {
			fmt.Printf("%v:%d: %v\n\tinput:   %s\n", a, f.Line, f.Err, f.Text)

			if f.Printed != "" {
				fmt.Printf("\tprinted: %s\n", f.Printed)
			}
		}

		fmt.Printf("%v: %d/%d lines round-trip\n", a, rep.Passed, rep.Lines)

		failed += len(rep.Failures)
	}

	if failed != 0 {
		return errors.New("%d lines failed", failed)
	}

	return nil
}

func dumpAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	return eachLine(c, func(name string, lnum int, text string) error {
		x, err := compiler.ParseInstruction(ctx, text)
		if err != nil {
			return errors.Wrap(err, "%v:%d", name, lnum)
		}

		b, err := compiler.Dump(x)
		if err != nil {
			return errors.Wrap(err, "%v:%d: dump", name, lnum)
		}

		fmt.Printf("# %s\n%s---\n", text, b)

		return nil
	})
}

func tokensAct(c *cli.Command) (err error) {
	return eachLine(c, func(name string, lnum int, text string) error {
		toks, err := lex.Tokenize([]byte(text))
		if err != nil {
			return errors.Wrap(err, "%v:%d", name, lnum)
		}

		for _, t := range toks {
			fmt.Printf("%d:%-4d %-8v %s\n", lnum, t.Pos, t.Kind, t)
		}

		return nil
	})
}

// eachLine calls f for every instruction line of every input.
func eachLine(c *cli.Command, f func(name string, lnum int, text string) error) (err error) {
	for _, a := range args(c) {
		err = eachFileLine(a, c.String("comments"), f)
		if err != nil {
			return err
		}
	}

	return nil
}

func eachFileLine(name, comment string, f func(name string, lnum int, text string) error) (err error) {
	var r io.Reader = os.Stdin

	if name != "-" {
		fl, err := os.Open(name)
		if err != nil {
			return errors.Wrap(err, "open")
		}

		defer func() {
			e := fl.Close()
			if err == nil && e != nil {
				err = errors.Wrap(e, "close %v", name)
			}
		}()

		r = fl
	}

	return compiler.Lines(r, comment, func(lnum int, text string) error {
		return f(name, lnum, text)
	})
}

func args(c *cli.Command) []string {
	if len(c.Args) == 0 {
		return []string{"-"}
	}

	return c.Args
}
