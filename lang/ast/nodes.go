package ast

import (
	"fmt"
	"go/token"
)

// IdentBinding classifies what an Identifier is known to refer to once the
// instrumentor has resolved it. No node field has this type: lang/instrument
// records its resolution in Identifier.Binding, and the AST producer's
// coarser hint goes in BindingHint.
type IdentBinding uint8

// BindingHint is the classification an AST producer may supply per
// identifier occurrence, narrowing what the resolver needs to (re)derive.
type BindingHint uint8

const (
	HintNone BindingHint = iota
	HintParam
	HintVar
	HintLet
	HintConst
	HintHoisted
	HintLocal
	HintModuleLocal
	HintUnresolved
)

// Identifier represents a bare identifier occurrence, either a use or a
// binding declaration (distinguished by where it appears in the tree, not by
// a flag on the node itself).
type Identifier struct {
	Name  string
	Start token.Pos

	// Hint is an optional producer-supplied classification of this
	// occurrence; HintNone means "resolve it from scratch".
	Hint BindingHint

	// Internal marks identifiers injected by the instrumentor. Visitors
	// short-circuit on this flag instead of comparing names, so a rename
	// pass can never confuse injected and user identifiers.
	Internal bool

	// Binding is filled in by lang/instrument once the occurrence has been
	// resolved; it holds a *instrument.Binding but is typed any here to avoid an
	// import cycle between ast and instrument.
	Binding any
}

func (n *Identifier) Format(f fmt.State, verb rune) { format(f, verb, n, n.Name, nil) }
func (n *Identifier) Span() (start, end token.Pos) {
	return n.Start, n.Start + token.Pos(len(n.Name))
}
func (n *Identifier) Walk(v Visitor) {}
func (n *Identifier) expr()          {}
func (n *Identifier) pattern()       {}

// ThisExpression represents a `this` reference.
type ThisExpression struct {
	Start token.Pos
}

func (n *ThisExpression) Format(f fmt.State, verb rune) { format(f, verb, n, "this", nil) }
func (n *ThisExpression) Span() (start, end token.Pos)  { return n.Start, n.Start + 4 }
func (n *ThisExpression) Walk(v Visitor)                {}
func (n *ThisExpression) expr()                         {}

// Super represents the `super` keyword, valid only as the callee of a
// CallExpression (super(...)) or the object of a MemberExpression
// (super.prop).
type Super struct {
	Start token.Pos
}

func (n *Super) Format(f fmt.State, verb rune) { format(f, verb, n, "super", nil) }
func (n *Super) Span() (start, end token.Pos)  { return n.Start, n.Start + 5 }
func (n *Super) Walk(v Visitor)                {}
func (n *Super) expr()                         {}

// LiteralKind identifies the kind of value a Literal carries.
type LiteralKind uint8

const (
	LiteralNull LiteralKind = iota
	LiteralBool
	LiteralNumber
	LiteralString
	LiteralRegExp
)

// Literal represents a string, number, boolean, null or regexp literal.
type Literal struct {
	Kind  LiteralKind
	Raw   string
	Value any // string | float64 | bool | nil
	Start token.Pos
}

func (n *Literal) Format(f fmt.State, verb rune) { format(f, verb, n, "literal "+n.Raw, nil) }
func (n *Literal) Span() (start, end token.Pos) {
	return n.Start, n.Start + token.Pos(len(n.Raw))
}
func (n *Literal) Walk(v Visitor) {}
func (n *Literal) expr()          {}

// TemplateLiteral represents a template string with interpolated
// expressions. Quasis has len(Exprs)+1 entries.
type TemplateLiteral struct {
	Quasis []string
	Exprs  []Expr
	Start  token.Pos
	End    token.Pos
}

func (n *TemplateLiteral) Format(f fmt.State, verb rune) {
	format(f, verb, n, "template", map[string]int{"exprs": len(n.Exprs)})
}
func (n *TemplateLiteral) Span() (start, end token.Pos) { return n.Start, n.End }
func (n *TemplateLiteral) Walk(v Visitor) {
	for _, e := range n.Exprs {
		Walk(v, e)
	}
}
func (n *TemplateLiteral) expr() {}
