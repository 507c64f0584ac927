package maincmd

import (
	"context"
	"encoding/json"
	"fmt"
	"go/token"

	"github.com/mna/mainer"

	"github.com/livepack-go/scopetrace/lang/ast"
	"github.com/livepack-go/scopetrace/lang/instrument"
)

// Instrument is the `instrument` subcommand: it runs lang/instrument over
// the registered fixture named by its argument or, when no argument is
// given, the "counter" fixture (see fixture.go), then prints the resulting
// tracker comments, the metadata JSON, and a debug dump of the mutated tree.
//
// This repository carries no parser (the AST producer is an external
// collaborator), so the subcommand cannot read arbitrary JavaScript source
// text; <path>, if given, must name one of the registered fixtures, not an
// arbitrary file. That keeps the demo honest about the instrumentor's
// actual input: a programmatically built AST.
func (c *Cmd) Instrument(ctx context.Context, stdio mainer.Stdio, args []string) error {
	name := "counter"
	if len(args) > 0 {
		name = args[0]
	}

	build, ok := fixtures[name]
	if !ok {
		err := fmt.Errorf("instrument: unknown fixture %q (known: %s)", name, fixtureNames())
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	fset := token.NewFileSet()
	program := build(fset)

	opts := instrument.Options{
		Prefix:          c.Prefix,
		Filename:        name + ".js",
		TrackerInitPath: c.TrackerInit,
		TrackerEvalPath: c.TrackerEval,
	}

	result, err := instrument.Instrument(program, fset, opts)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	fmt.Fprintln(stdio.Stdout, "-- tracker comments --")
	for _, cm := range result.Program.Comments {
		fmt.Fprintf(stdio.Stdout, "/*%s*/\n", cm.Val)
	}

	fmt.Fprintln(stdio.Stdout, "-- metadata --")
	blob, err := json.MarshalIndent(result.Metadata, "", "  ")
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	fmt.Fprintln(stdio.Stdout, string(blob))

	fmt.Fprintln(stdio.Stdout, "-- tree --")
	printer := ast.Printer{Output: stdio.Stdout, Fset: fset}
	return printer.Print(result.Program)
}

func fixtureNames() string {
	s := ""
	for name := range fixtures {
		if s != "" {
			s += ", "
		}
		s += name
	}
	return s
}
