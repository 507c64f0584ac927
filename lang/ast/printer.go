package ast

import (
	"fmt"
	"go/token"
	"io"
	"strings"
)

// Printer controls debug pretty-printing of AST nodes. It is not a source
// printer (emitting the instrumented tree back as source text belongs to an
// external collaborator); this is a diagnostic dump used by the CLI and by
// tests to inspect tree shape.
type Printer struct {
	// Output is the io.Writer to print to.
	Output io.Writer

	// Fset resolves node positions to line:col. If nil, positions are
	// omitted.
	Fset *token.FileSet

	// NodeFmt is the format string to use for each node. The verb must be
	// `s` or `v`; defaults to `%v`.
	NodeFmt string
}

// Print pretty-prints n, walking its children with indentation reflecting
// tree depth.
func (p *Printer) Print(n Node) error {
	pp := &printer{
		w:       p.Output,
		fset:    p.Fset,
		nodeFmt: p.NodeFmt,
	}
	if pp.nodeFmt == "" {
		pp.nodeFmt = "%v"
	}
	Walk(pp, n)
	return pp.err
}

type printer struct {
	w       io.Writer
	fset    *token.FileSet
	nodeFmt string
	depth   int
	err     error
}

func (p *printer) Visit(n Node, dir VisitDirection) Visitor {
	if dir == VisitExit || p.err != nil {
		p.depth--
		return nil
	}

	p.depth++
	p.printNode(n, p.depth-1)
	return p
}

func (p *printer) printNode(n Node, indent int) {
	if p.err != nil {
		return
	}

	format := "%s"
	args := []interface{}{strings.Repeat(". ", indent)}
	if p.fset != nil {
		format += "[%s:%s] "
		start, end := n.Span()
		args = append(args, p.fset.Position(start).String(), p.fset.Position(end).String())
	}
	format += p.nodeFmt + "\n"
	args = append(args, n)

	_, p.err = fmt.Fprintf(p.w, format, args...)
}
