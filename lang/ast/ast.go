// Package ast defines the types used to represent the abstract syntax tree
// (AST) of an ECMAScript-family source module.
//
// It is not a parser: nodes are built programmatically by an AST producer
// external to this module (or, in tests, by hand) and handed to the
// instrumentor for traversal and mutation. The parser and pretty-printer
// are adjacent modules; this package only defines the shape they must agree
// on.
//
// Positions are plain go/token.Pos offsets resolved through a caller-supplied
// go/token.FileSet.
package ast

import (
	"fmt"
	"go/token"
	"sort"
	"strings"
)

// Node represents any node in the AST.
type Node interface {
	// Every Node implements the fmt.Formatter interface so it can print a
	// description of itself for debugging. Only the 'v' and 's' verbs are
	// supported; the '#' flag additionally prints child-count information.
	fmt.Formatter

	// Span reports the start and end position of the node.
	Span() (start, end token.Pos)

	// Walk visits each child node in source order, implementing the Visitor
	// pattern together with the package-level Walk function.
	Walk(v Visitor)
}

// Expr represents an expression node.
type Expr interface {
	Node
	expr()
}

// Stmt represents a statement node.
type Stmt interface {
	Node
	stmt()
}

// Pattern represents a binding pattern target: an Identifier, ArrayPattern,
// ObjectPattern, optionally wrapped in an AssignmentPattern (default value)
// or a RestElement.
type Pattern interface {
	Node
	pattern()
}

// Program is the root of a module's AST.
type Program struct {
	Filename string
	Body     []Stmt
	Start    token.Pos
	End      token.Pos

	// Strict is true if the module has a top-level "use strict" directive.
	// ECMAScript modules (as opposed to scripts) are always strict; the AST
	// producer is responsible for setting this faithfully, since strictness
	// cannot always be re-derived once directives are stripped.
	Strict bool

	// Comments lists every comment the instrumentor attaches to the tree,
	// ordered by insertion (not necessarily by position): the tracker
	// comment on each function, and the transformed-module marker comment
	// on the program itself. Comment.Node names what it decorates; the
	// pretty-printer places it relative to that node's own position.
	Comments []*Comment
}

// Comment is an instrumentor-injected comment, associated with the node it
// decorates rather than anchored to a position of its own, so no node needs
// an optional comment slot.
type Comment struct {
	Node Node
	Val  string
	// Block is true for a /* ... */ comment (every comment the instrumentor
	// injects is one, since a tracker or marker comment must survive
	// wherever the printer happens to place it on the line).
	Block bool
}

func (n *Comment) Format(f fmt.State, verb rune) { format(f, verb, n, "comment "+n.Val, nil) }
func (n *Comment) Span() (start, end token.Pos)  { return token.NoPos, token.NoPos }
func (n *Comment) Walk(v Visitor)                {}

func (n *Program) Format(f fmt.State, verb rune) {
	format(f, verb, n, "program", map[string]int{"body": len(n.Body)})
}
func (n *Program) Span() (start, end token.Pos) { return n.Start, n.End }
func (n *Program) Walk(v Visitor) {
	for _, s := range n.Body {
		Walk(v, s)
	}
}

// BlockStatement represents a `{ ... }` statement block.
type BlockStatement struct {
	Lbrace token.Pos
	Body   []Stmt
	Rbrace token.Pos

	// Internal marks a block synthesized by the instrumentor itself (e.g.
	// wrapping a bare loop body so a scope-id prologue has somewhere to
	// live). Visitors skip re-analyzing internal nodes.
	Internal bool
}

func (n *BlockStatement) Format(f fmt.State, verb rune) {
	format(f, verb, n, "block", map[string]int{"body": len(n.Body)})
}
func (n *BlockStatement) Span() (start, end token.Pos) { return n.Lbrace, n.Rbrace }
func (n *BlockStatement) Walk(v Visitor) {
	for _, s := range n.Body {
		Walk(v, s)
	}
}
func (n *BlockStatement) stmt() {}

// Directive represents a directive prologue entry, e.g. "use strict". It is
// syntactically an ExpressionStatement whose expression is a bare string
// Literal, but the instrumentor needs to recognize it without re-deriving
// strictness, so the AST producer tags it explicitly.
type Directive struct {
	Expr  *Literal
	Value string
	Start token.Pos
	End   token.Pos
}

func (n *Directive) Format(f fmt.State, verb rune) { format(f, verb, n, "directive "+n.Value, nil) }
func (n *Directive) Span() (start, end token.Pos)  { return n.Start, n.End }
func (n *Directive) Walk(v Visitor)                { Walk(v, n.Expr) }
func (n *Directive) stmt()                         {}

func format(f fmt.State, verb rune, n Node, label string, counts map[string]int) {
	if verb != 'v' && verb != 's' {
		fmt.Fprintf(f, "%%!%c(%T)", verb, n)
		return
	}

	label = strings.ReplaceAll(label, "\r\n", "⏎")
	label = strings.ReplaceAll(label, "\n", "⏎")
	label = strings.ReplaceAll(label, "\t", "⭾")

	fmt.Fprint(f, label)
	if f.Flag('#') && len(counts) > 0 {
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprint(f, " {")
		for i, k := range keys {
			if i > 0 {
				fmt.Fprint(f, ", ")
			}
			fmt.Fprintf(f, "%s=%d", k, counts[k])
		}
		fmt.Fprint(f, "}")
	}
}
