package ast

import (
	"fmt"
	"go/token"
)

// Unwrap removes any nesting that does not affect the expression's
// evaluated value; currently a no-op — this AST has no parenthesized
// expression node since parenthesization does not affect instrumentation.
func Unwrap(e Expr) Expr { return e }

// IsAssignable returns true if e can appear on the left of an assignment or
// as a pattern target: an Identifier, or a MemberExpression.
func IsAssignable(e Expr) bool {
	switch e.(type) {
	case *Identifier, *MemberExpression:
		return true
	default:
		return false
	}
}

type (
	// ArrayExpression represents an array literal, e.g. [1, 2, ...rest].
	ArrayExpression struct {
		Lbrack token.Pos
		Items  []Expr // may contain *SpreadElement; nil entries are elisions
		Rbrack token.Pos
	}

	// BinaryExpression represents a binary expression, e.g. x + y.
	BinaryExpression struct {
		Left  Expr
		Op    string
		OpPos token.Pos
		Right Expr
	}

	// LogicalExpression represents &&, || or ??.
	LogicalExpression struct {
		Left  Expr
		Op    string
		OpPos token.Pos
		Right Expr
	}

	// UnaryExpression represents a prefix unary operator, e.g. -x, !x,
	// typeof x, void x, delete x.
	UnaryExpression struct {
		Op    string
		OpPos token.Pos
		Arg   Expr
	}

	// UpdateExpression represents ++x, x++, --x or x--.
	UpdateExpression struct {
		Op     string
		OpPos  token.Pos
		Arg    Expr
		Prefix bool
		EndPos token.Pos
	}

	// AssignmentExpression represents x = y, including compound assignment
	// (x += y) and destructuring assignment where Left is a pattern.
	AssignmentExpression struct {
		Left  Expr // Identifier, MemberExpression, ArrayPattern or ObjectPattern
		Op    string
		OpPos token.Pos
		Right Expr
	}

	// ConditionalExpression represents c ? a : b.
	ConditionalExpression struct {
		Test       Expr
		Consequent Expr
		Alternate  Expr
	}

	// SequenceExpression represents a comma expression (a, b, c).
	SequenceExpression struct {
		Exprs []Expr
	}

	// CallExpression represents a function call, e.g. f(x, y) or, when
	// Callee is *Super, a super(...) call. May contain *SpreadElement args.
	CallExpression struct {
		Callee   Expr
		Lparen   token.Pos
		Args     []Expr
		Rparen   token.Pos
		Optional bool // true for f?.(x)
	}

	// NewExpression represents `new Ctor(...)`.
	NewExpression struct {
		New    token.Pos
		Callee Expr
		Args   []Expr
		Rparen token.Pos // zero if no argument list was present
	}

	// ImportExpression represents a dynamic `import(specifier)` call.
	ImportExpression struct {
		Import token.Pos
		Arg    Expr
		End    token.Pos
	}

	// MemberExpression represents a member access: obj.prop, obj[expr], or
	// super.prop / super[expr] when Object is *Super.
	MemberExpression struct {
		Object   Expr // may be *Super
		Property Expr // *Identifier if !Computed, else any Expr
		Computed bool
		Optional bool // true for obj?.prop
		Start    token.Pos
		End      token.Pos
	}

	// SpreadElement represents `...expr` inside an array/object literal or a
	// call's argument list.
	SpreadElement struct {
		Dots token.Pos
		Arg  Expr
	}

	// KeyVal is one entry of an ObjectExpression literal.
	KeyVal struct {
		Key       Expr // *Identifier (non-computed) or any Expr (computed)
		Value     Expr
		Computed  bool
		Shorthand bool
		Method    bool
	}

	// ObjectExpression represents an object literal, e.g. {a: 1, [k]: v,
	// m() {...}, ...rest}. Methods using `super` trigger the super-target
	// rewrite once the walk is complete (see lang/instrument's super-target
	// rewriter).
	ObjectExpression struct {
		Lbrace token.Pos
		Items  []*KeyVal
		Spread []*SpreadElement // spread properties, modeled separately from Items
		Rbrace token.Pos

		// SuperTarget is filled by the instrumentor if any method here used
		// `super`: the slot (an *Identifier) materializing the home object.
		SuperTarget *Identifier
	}
)

func (n *ArrayExpression) Format(f fmt.State, verb rune) {
	format(f, verb, n, "array", map[string]int{"items": len(n.Items)})
}
func (n *ArrayExpression) Span() (start, end token.Pos) { return n.Lbrack, n.Rbrack + 1 }
func (n *ArrayExpression) Walk(v Visitor) {
	for _, e := range n.Items {
		if e != nil {
			Walk(v, e)
		}
	}
}
func (n *ArrayExpression) expr() {}

func (n *BinaryExpression) Format(f fmt.State, verb rune) { format(f, verb, n, "binary "+n.Op, nil) }
func (n *BinaryExpression) Span() (start, end token.Pos) {
	start, _ = n.Left.Span()
	_, end = n.Right.Span()
	return start, end
}
func (n *BinaryExpression) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}
func (n *BinaryExpression) expr() {}

func (n *LogicalExpression) Format(f fmt.State, verb rune) { format(f, verb, n, "logical "+n.Op, nil) }
func (n *LogicalExpression) Span() (start, end token.Pos) {
	start, _ = n.Left.Span()
	_, end = n.Right.Span()
	return start, end
}
func (n *LogicalExpression) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}
func (n *LogicalExpression) expr() {}

func (n *UnaryExpression) Format(f fmt.State, verb rune) { format(f, verb, n, "unary "+n.Op, nil) }
func (n *UnaryExpression) Span() (start, end token.Pos) {
	_, end = n.Arg.Span()
	return n.OpPos, end
}
func (n *UnaryExpression) Walk(v Visitor) { Walk(v, n.Arg) }
func (n *UnaryExpression) expr()          {}

func (n *UpdateExpression) Format(f fmt.State, verb rune) { format(f, verb, n, "update "+n.Op, nil) }
func (n *UpdateExpression) Span() (start, end token.Pos) {
	if n.Prefix {
		_, end = n.Arg.Span()
		return n.OpPos, end
	}
	start, _ = n.Arg.Span()
	return start, n.EndPos
}
func (n *UpdateExpression) Walk(v Visitor) { Walk(v, n.Arg) }
func (n *UpdateExpression) expr()          {}

func (n *AssignmentExpression) Format(f fmt.State, verb rune) {
	format(f, verb, n, "assign "+n.Op, nil)
}
func (n *AssignmentExpression) Span() (start, end token.Pos) {
	start, _ = n.Left.Span()
	_, end = n.Right.Span()
	return start, end
}
func (n *AssignmentExpression) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}
func (n *AssignmentExpression) expr() {}

func (n *ConditionalExpression) Format(f fmt.State, verb rune) { format(f, verb, n, "conditional", nil) }
func (n *ConditionalExpression) Span() (start, end token.Pos) {
	start, _ = n.Test.Span()
	_, end = n.Alternate.Span()
	return start, end
}
func (n *ConditionalExpression) Walk(v Visitor) {
	Walk(v, n.Test)
	Walk(v, n.Consequent)
	Walk(v, n.Alternate)
}
func (n *ConditionalExpression) expr() {}

func (n *SequenceExpression) Format(f fmt.State, verb rune) {
	format(f, verb, n, "sequence", map[string]int{"exprs": len(n.Exprs)})
}
func (n *SequenceExpression) Span() (start, end token.Pos) {
	start, _ = n.Exprs[0].Span()
	_, end = n.Exprs[len(n.Exprs)-1].Span()
	return start, end
}
func (n *SequenceExpression) Walk(v Visitor) {
	for _, e := range n.Exprs {
		Walk(v, e)
	}
}
func (n *SequenceExpression) expr() {}

func (n *CallExpression) Format(f fmt.State, verb rune) {
	format(f, verb, n, "call", map[string]int{"args": len(n.Args)})
}
func (n *CallExpression) Span() (start, end token.Pos) {
	start, _ = n.Callee.Span()
	return start, n.Rparen + 1
}
func (n *CallExpression) Walk(v Visitor) {
	Walk(v, n.Callee)
	for _, e := range n.Args {
		Walk(v, e)
	}
}
func (n *CallExpression) expr() {}

func (n *NewExpression) Format(f fmt.State, verb rune) {
	format(f, verb, n, "new", map[string]int{"args": len(n.Args)})
}
func (n *NewExpression) Span() (start, end token.Pos) {
	if n.Rparen.IsValid() {
		return n.New, n.Rparen + 1
	}
	_, end = n.Callee.Span()
	return n.New, end
}
func (n *NewExpression) Walk(v Visitor) {
	Walk(v, n.Callee)
	for _, e := range n.Args {
		Walk(v, e)
	}
}
func (n *NewExpression) expr() {}

func (n *ImportExpression) Format(f fmt.State, verb rune) { format(f, verb, n, "import()", nil) }
func (n *ImportExpression) Span() (start, end token.Pos)  { return n.Import, n.End }
func (n *ImportExpression) Walk(v Visitor)                { Walk(v, n.Arg) }
func (n *ImportExpression) expr()                         {}

func (n *MemberExpression) Format(f fmt.State, verb rune) {
	lbl := "member"
	if n.Computed {
		lbl = "member[computed]"
	}
	format(f, verb, n, lbl, nil)
}
func (n *MemberExpression) Span() (start, end token.Pos) { return n.Start, n.End }
func (n *MemberExpression) Walk(v Visitor) {
	Walk(v, n.Object)
	if n.Computed {
		Walk(v, n.Property)
	}
	// non-computed properties are not free-variable identifier occurrences;
	// lang/instrument's member-expression handling visits n.Object only and
	// never descends into n.Property itself.
}
func (n *MemberExpression) expr()    {}
func (n *MemberExpression) pattern() {}

func (n *SpreadElement) Format(f fmt.State, verb rune) { format(f, verb, n, "...spread", nil) }
func (n *SpreadElement) Span() (start, end token.Pos) {
	_, end = n.Arg.Span()
	return n.Dots, end
}
func (n *SpreadElement) Walk(v Visitor) { Walk(v, n.Arg) }
func (n *SpreadElement) expr() {}

func (n *ObjectExpression) Format(f fmt.State, verb rune) {
	format(f, verb, n, "object", map[string]int{"items": len(n.Items)})
}
func (n *ObjectExpression) Span() (start, end token.Pos) { return n.Lbrace, n.Rbrace + 1 }
func (n *ObjectExpression) Walk(v Visitor) {
	for _, it := range n.Items {
		if it.Computed {
			Walk(v, it.Key)
		}
		Walk(v, it.Value)
	}
	for _, s := range n.Spread {
		Walk(v, s)
	}
}
func (n *ObjectExpression) expr() {}
