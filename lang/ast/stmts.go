package ast

import (
	"fmt"
	"go/token"
)

// DeclKind identifies the binding form of a VariableDeclaration.
type DeclKind uint8

const (
	DeclVar DeclKind = iota
	DeclLet
	DeclConst
)

func (k DeclKind) String() string {
	switch k {
	case DeclLet:
		return "let"
	case DeclConst:
		return "const"
	default:
		return "var"
	}
}

type (
	// VariableDeclarator is one `name = init` (or pattern = init) entry of a
	// VariableDeclaration.
	VariableDeclarator struct {
		Target Pattern // *Identifier, *ArrayPattern or *ObjectPattern
		Init   Expr    // may be nil
	}

	// VariableDeclaration represents `var/let/const x = 1, y;`.
	VariableDeclaration struct {
		Kind  DeclKind
		Start token.Pos
		Decls []*VariableDeclarator
		End   token.Pos
	}

	// ExpressionStatement represents an expression used as a statement.
	ExpressionStatement struct {
		Expr Expr
		End  token.Pos
	}

	// EmptyStatement represents a bare `;`.
	EmptyStatement struct {
		Start token.Pos
	}

	// ReturnStatement represents `return expr;`.
	ReturnStatement struct {
		Start token.Pos
		Arg   Expr // may be nil
		End   token.Pos
	}

	// ThrowStatement represents `throw expr;`.
	ThrowStatement struct {
		Start token.Pos
		Arg   Expr
		End   token.Pos
	}

	// BreakStatement represents `break;` or `break label;`.
	BreakStatement struct {
		Start token.Pos
		Label *Identifier // may be nil
		End   token.Pos
	}

	// ContinueStatement represents `continue;` or `continue label;`.
	ContinueStatement struct {
		Start token.Pos
		Label *Identifier // may be nil
		End   token.Pos
	}

	// LabeledStatement represents `label: stmt`.
	LabeledStatement struct {
		Label *Identifier
		Colon token.Pos
		Body  Stmt
	}

	// IfStatement represents `if (test) cons else alt`.
	IfStatement struct {
		Start      token.Pos
		Test       Expr
		Consequent Stmt
		Alternate  Stmt // may be nil
	}

	// WhileStatement represents `while (test) body`.
	WhileStatement struct {
		Start token.Pos
		Test  Expr
		Body  Stmt
	}

	// DoWhileStatement represents `do body while (test);`.
	DoWhileStatement struct {
		Start token.Pos
		Body  Stmt
		Test  Expr
		End   token.Pos
	}

	// ForStatement represents a classic 3-clause for loop. Init may be a
	// *VariableDeclaration or an Expr wrapped as an ExpressionStatement's
	// Expr, or nil.
	ForStatement struct {
		Start token.Pos
		Init  Node // *VariableDeclaration, Expr or nil
		Test  Expr // may be nil
		Post  Expr // may be nil
		Body  Stmt
	}

	// ForInStatement represents `for (x in obj) body` (and, with IsOf=true,
	// `for (x of iterable) body`). Left is a *VariableDeclaration when the
	// loop variable is freshly declared, or an assignable Expr otherwise.
	ForInStatement struct {
		Start token.Pos
		Left  Node // *VariableDeclaration or Expr
		Right Expr
		Body  Stmt
		IsOf  bool
	}

	// CatchClause represents the `catch (param) body` part of a try
	// statement. Param may be nil (optional catch binding).
	CatchClause struct {
		Start token.Pos
		Param Pattern // may be nil
		Body  *BlockStatement
	}

	// TryStatement represents `try block catch(e) handler finally final`.
	TryStatement struct {
		Start   token.Pos
		Block   *BlockStatement
		Handler *CatchClause     // may be nil
		Finally *BlockStatement  // may be nil
	}

	// SwitchCase represents one `case expr:` or `default:` arm. Test is nil
	// for the default case.
	SwitchCase struct {
		Test Expr // nil for default
		Body []Stmt
	}

	// SwitchStatement represents `switch (disc) { case ...: ... }`.
	SwitchStatement struct {
		Start        token.Pos
		Discriminant Expr
		Cases        []*SwitchCase
		End          token.Pos
	}
)

func (n *VariableDeclaration) Format(f fmt.State, verb rune) {
	format(f, verb, n, n.Kind.String()+" declaration", map[string]int{"decls": len(n.Decls)})
}
func (n *VariableDeclaration) Span() (start, end token.Pos) { return n.Start, n.End }
func (n *VariableDeclaration) Walk(v Visitor) {
	for _, d := range n.Decls {
		Walk(v, d.Target)
		if d.Init != nil {
			Walk(v, d.Init)
		}
	}
}
func (n *VariableDeclaration) stmt() {}

func (n *ExpressionStatement) Format(f fmt.State, verb rune) { format(f, verb, n, "expr stmt", nil) }
func (n *ExpressionStatement) Span() (start, end token.Pos) {
	start, _ = n.Expr.Span()
	return start, n.End
}
func (n *ExpressionStatement) Walk(v Visitor) { Walk(v, n.Expr) }
func (n *ExpressionStatement) stmt()          {}

func (n *EmptyStatement) Format(f fmt.State, verb rune) { format(f, verb, n, "empty stmt", nil) }
func (n *EmptyStatement) Span() (start, end token.Pos)  { return n.Start, n.Start + 1 }
func (n *EmptyStatement) Walk(v Visitor)                {}
func (n *EmptyStatement) stmt()                         {}

func (n *ReturnStatement) Format(f fmt.State, verb rune) { format(f, verb, n, "return", nil) }
func (n *ReturnStatement) Span() (start, end token.Pos)  { return n.Start, n.End }
func (n *ReturnStatement) Walk(v Visitor) {
	if n.Arg != nil {
		Walk(v, n.Arg)
	}
}
func (n *ReturnStatement) stmt() {}

func (n *ThrowStatement) Format(f fmt.State, verb rune) { format(f, verb, n, "throw", nil) }
func (n *ThrowStatement) Span() (start, end token.Pos)  { return n.Start, n.End }
func (n *ThrowStatement) Walk(v Visitor)                { Walk(v, n.Arg) }
func (n *ThrowStatement) stmt()                         {}

func (n *BreakStatement) Format(f fmt.State, verb rune) { format(f, verb, n, "break", nil) }
func (n *BreakStatement) Span() (start, end token.Pos)  { return n.Start, n.End }
func (n *BreakStatement) Walk(v Visitor) {
	if n.Label != nil {
		Walk(v, n.Label)
	}
}
func (n *BreakStatement) stmt() {}

func (n *ContinueStatement) Format(f fmt.State, verb rune) { format(f, verb, n, "continue", nil) }
func (n *ContinueStatement) Span() (start, end token.Pos)  { return n.Start, n.End }
func (n *ContinueStatement) Walk(v Visitor) {
	if n.Label != nil {
		Walk(v, n.Label)
	}
}
func (n *ContinueStatement) stmt() {}

func (n *LabeledStatement) Format(f fmt.State, verb rune) { format(f, verb, n, "label", nil) }
func (n *LabeledStatement) Span() (start, end token.Pos) {
	start, _ = n.Label.Span()
	_, end = n.Body.Span()
	return start, end
}
func (n *LabeledStatement) Walk(v Visitor) {
	Walk(v, n.Label)
	Walk(v, n.Body)
}
func (n *LabeledStatement) stmt() {}

func (n *IfStatement) Format(f fmt.State, verb rune) {
	hasElse := 0
	if n.Alternate != nil {
		hasElse = 1
	}
	format(f, verb, n, "if", map[string]int{"else": hasElse})
}
func (n *IfStatement) Span() (start, end token.Pos) {
	if n.Alternate != nil {
		_, end = n.Alternate.Span()
	} else {
		_, end = n.Consequent.Span()
	}
	return n.Start, end
}
func (n *IfStatement) Walk(v Visitor) {
	Walk(v, n.Test)
	Walk(v, n.Consequent)
	if n.Alternate != nil {
		Walk(v, n.Alternate)
	}
}
func (n *IfStatement) stmt() {}

func (n *WhileStatement) Format(f fmt.State, verb rune) { format(f, verb, n, "while", nil) }
func (n *WhileStatement) Span() (start, end token.Pos) {
	_, end = n.Body.Span()
	return n.Start, end
}
func (n *WhileStatement) Walk(v Visitor) {
	Walk(v, n.Test)
	Walk(v, n.Body)
}
func (n *WhileStatement) stmt() {}

func (n *DoWhileStatement) Format(f fmt.State, verb rune) { format(f, verb, n, "do-while", nil) }
func (n *DoWhileStatement) Span() (start, end token.Pos)  { return n.Start, n.End }
func (n *DoWhileStatement) Walk(v Visitor) {
	Walk(v, n.Body)
	Walk(v, n.Test)
}
func (n *DoWhileStatement) stmt() {}

func (n *ForStatement) Format(f fmt.State, verb rune) { format(f, verb, n, "for", nil) }
func (n *ForStatement) Span() (start, end token.Pos) {
	_, end = n.Body.Span()
	return n.Start, end
}
func (n *ForStatement) Walk(v Visitor) {
	if n.Init != nil {
		Walk(v, n.Init)
	}
	if n.Test != nil {
		Walk(v, n.Test)
	}
	if n.Post != nil {
		Walk(v, n.Post)
	}
	Walk(v, n.Body)
}
func (n *ForStatement) stmt() {}

func (n *ForInStatement) Format(f fmt.State, verb rune) {
	lbl := "for-in"
	if n.IsOf {
		lbl = "for-of"
	}
	format(f, verb, n, lbl, nil)
}
func (n *ForInStatement) Span() (start, end token.Pos) {
	_, end = n.Body.Span()
	return n.Start, end
}
func (n *ForInStatement) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
	Walk(v, n.Body)
}
func (n *ForInStatement) stmt() {}

func (n *CatchClause) Format(f fmt.State, verb rune) { format(f, verb, n, "catch", nil) }
func (n *CatchClause) Span() (start, end token.Pos) {
	_, end = n.Body.Span()
	return n.Start, end
}
func (n *CatchClause) Walk(v Visitor) {
	if n.Param != nil {
		Walk(v, n.Param)
	}
	Walk(v, n.Body)
}
func (n *TryStatement) Format(f fmt.State, verb rune) { format(f, verb, n, "try", nil) }
func (n *TryStatement) Span() (start, end token.Pos) {
	if n.Finally != nil {
		_, end = n.Finally.Span()
	} else if n.Handler != nil {
		_, end = n.Handler.Span()
	} else {
		_, end = n.Block.Span()
	}
	return n.Start, end
}
func (n *TryStatement) Walk(v Visitor) {
	Walk(v, n.Block)
	if n.Handler != nil {
		Walk(v, n.Handler)
	}
	if n.Finally != nil {
		Walk(v, n.Finally)
	}
}
func (n *TryStatement) stmt() {}

func (n *SwitchStatement) Format(f fmt.State, verb rune) {
	format(f, verb, n, "switch", map[string]int{"cases": len(n.Cases)})
}
func (n *SwitchStatement) Span() (start, end token.Pos) { return n.Start, n.End }
func (n *SwitchStatement) Walk(v Visitor) {
	Walk(v, n.Discriminant)
	for _, c := range n.Cases {
		if c.Test != nil {
			Walk(v, c.Test)
		}
		for _, s := range c.Body {
			Walk(v, s)
		}
	}
}
func (n *SwitchStatement) stmt() {}
