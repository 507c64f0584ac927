package ast

import (
	"fmt"
	"go/token"
)

// FuncKind identifies the flavor of a function-like node. Arrow functions,
// methods and constructors are not separate kinds: they are plain/async/
// generator/async-generator functions with the orthogonal IsArrow/IsMethod/
// IsConstructor flags set on the function record.
type FuncKind uint8

const (
	FuncPlain FuncKind = iota
	FuncAsync
	FuncGenerator
	FuncAsyncGenerator
	// FuncClass is the kind of the function record standing in for a class
	// declaration or expression (its constructor is bound to this record,
	// not given a record of its own).
	FuncClass
)

// KindCode returns the single-character code for k used in the tracker
// comment grammar.
func (k FuncKind) KindCode() string {
	switch k {
	case FuncAsync:
		return "a"
	case FuncGenerator:
		return "g"
	case FuncAsyncGenerator:
		return "G"
	case FuncClass:
		return "c"
	default:
		return "p"
	}
}

// KindFromFlags derives the plain/async/generator/async-generator kind from
// the two orthogonal syntactic flags every function-like node carries.
func KindFromFlags(async, gen bool) FuncKind {
	switch {
	case async && gen:
		return FuncAsyncGenerator
	case async:
		return FuncAsync
	case gen:
		return FuncGenerator
	default:
		return FuncPlain
	}
}

type (
	// AssignmentPattern represents a pattern with a default value, e.g. the
	// `x = 1` in `function f(x = 1) {}` or `{a = 1} = obj`.
	AssignmentPattern struct {
		Target  Pattern
		Default Expr
	}

	// RestElement represents `...x` in a parameter list or destructuring
	// pattern. Always last among its siblings.
	RestElement struct {
		Dots token.Pos
		Arg  Pattern
	}

	// ArrayPattern represents a destructuring array pattern, e.g.
	// `[a, , b = 1, ...rest]`. A nil entry is an elision.
	ArrayPattern struct {
		Lbrack token.Pos
		Elems  []Pattern
		Rbrack token.Pos
	}

	// ObjectPatternProperty is one `key: pattern` or shorthand `key` entry
	// of an ObjectPattern.
	ObjectPatternProperty struct {
		Key       Expr // *Identifier, or any Expr if Computed
		Value     Pattern
		Computed  bool
		Shorthand bool
	}

	// ObjectPattern represents a destructuring object pattern, e.g.
	// `{a, b: {c} = {}, ...rest}`.
	ObjectPattern struct {
		Lbrace token.Pos
		Props  []*ObjectPatternProperty
		Rest   *RestElement // may be nil
		Rbrace token.Pos
	}

	// FuncSignature is the parameter list and metadata shared by every
	// function-like node.
	FuncSignature struct {
		Lparen token.Pos
		Params []Pattern // each is *Identifier, *AssignmentPattern, *ArrayPattern, *ObjectPattern or, if last, *RestElement
		Rparen token.Pos
	}

	// FunctionDeclaration represents `function name(...) { ... }`, optionally
	// async and/or a generator.
	FunctionDeclaration struct {
		Fn     token.Pos
		Name   *Identifier // may be nil only for `export default function () {}`, not modeled here
		Async  bool
		Gen    bool
		Sig    *FuncSignature
		Body   *BlockStatement
		End    token.Pos

		// Function is filled in by lang/instrument; typed any to avoid an
		// import cycle (it holds an *instrument.FunctionRecord).
		Function any
	}

	// FunctionExpression represents a function literal, e.g.
	// `const f = function name(...) {...}`. Name may be nil (anonymous).
	FunctionExpression struct {
		Fn    token.Pos
		Name  *Identifier // may be nil
		Async bool
		Gen   bool
		Sig   *FuncSignature
		Body  *BlockStatement
		End   token.Pos

		Function any
	}

	// ArrowFunctionExpression represents `(...) => expr` or `(...) => { ... }`.
	ArrowFunctionExpression struct {
		Start     token.Pos
		Async     bool
		Sig       *FuncSignature
		Body      Node // *BlockStatement, or an Expr for a concise body
		ExprBody  bool
		End       token.Pos

		Function any
	}

	// MethodDefinition represents one method, getter, setter or constructor
	// inside a ClassBody, or a shorthand method inside an ObjectExpression is
	// instead modeled via KeyVal.Method (see exprs.go).
	MethodDefinition struct {
		Key          Expr // *Identifier, or any Expr if Computed
		Computed     bool
		IsConstructor bool
		Static       bool
		Async        bool
		Gen          bool
		Sig          *FuncSignature
		Body         *BlockStatement
		Start        token.Pos
		End          token.Pos

		// Function holds the method's own *instrument.FunctionRecord, except
		// for IsConstructor methods: their scope belongs to the enclosing
		// class's record instead, so Function is left nil and the class
		// node's Function is used.
		Function any
	}

	// PropertyDefinition represents a class field, e.g. `x = 1;` or
	// `static #y;`.
	PropertyDefinition struct {
		Key      Expr
		Computed bool
		Static   bool
		Value    Expr // may be nil
		Start    token.Pos
		End      token.Pos
	}

	// ClassBody holds the members of a class.
	ClassBody struct {
		Lbrace  token.Pos
		Methods []*MethodDefinition
		Fields  []*PropertyDefinition
		Rbrace  token.Pos
	}

	// ClassDeclaration represents `class Name extends Super { ... }`.
	ClassDeclaration struct {
		Class     token.Pos
		Name      *Identifier // may be nil only for `export default class {}`, not modeled here
		SuperExpr Expr        // may be nil
		Body      *ClassBody

		Function any // the class's own per-class record, holding its constructor
	}

	// ClassExpression represents a class literal, e.g.
	// `const C = class Name extends Super { ... }`. Name may be nil.
	ClassExpression struct {
		Class     token.Pos
		Name      *Identifier // may be nil
		SuperExpr Expr        // may be nil
		Body      *ClassBody

		Function any

		// SuperTarget is filled by the instrumentor if any method here used
		// `super` and the class has no name of its own: the enclosing
		// const's name when a `const x = class ...` declarator supplies one,
		// otherwise the temp slot materializing the home object.
		SuperTarget *Identifier
	}
)

func (n *AssignmentPattern) Format(f fmt.State, verb rune) { format(f, verb, n, "pattern=default", nil) }
func (n *AssignmentPattern) Span() (start, end token.Pos) {
	start, _ = n.Target.Span()
	_, end = n.Default.Span()
	return start, end
}
func (n *AssignmentPattern) Walk(v Visitor) {
	Walk(v, n.Target)
	Walk(v, n.Default)
}
func (n *AssignmentPattern) pattern() {}

func (n *RestElement) Format(f fmt.State, verb rune) { format(f, verb, n, "...rest", nil) }
func (n *RestElement) Span() (start, end token.Pos) {
	_, end = n.Arg.Span()
	return n.Dots, end
}
func (n *RestElement) Walk(v Visitor) { Walk(v, n.Arg) }
func (n *RestElement) pattern()       {}

func (n *ArrayPattern) Format(f fmt.State, verb rune) {
	format(f, verb, n, "array pattern", map[string]int{"elems": len(n.Elems)})
}
func (n *ArrayPattern) Span() (start, end token.Pos) { return n.Lbrack, n.Rbrack + 1 }
func (n *ArrayPattern) Walk(v Visitor) {
	for _, e := range n.Elems {
		if e != nil {
			Walk(v, e)
		}
	}
}
func (n *ArrayPattern) pattern() {}

// expr lets an ArrayPattern stand in expression position: the left side of a
// destructuring assignment (`[a, b] = pair`), as opposed to a declaration.
func (n *ArrayPattern) expr() {}

func (n *ObjectPattern) Format(f fmt.State, verb rune) {
	format(f, verb, n, "object pattern", map[string]int{"props": len(n.Props)})
}
func (n *ObjectPattern) Span() (start, end token.Pos) { return n.Lbrace, n.Rbrace + 1 }
func (n *ObjectPattern) Walk(v Visitor) {
	for _, p := range n.Props {
		if p.Computed {
			Walk(v, p.Key)
		}
		Walk(v, p.Value)
	}
	if n.Rest != nil {
		Walk(v, n.Rest)
	}
}
func (n *ObjectPattern) pattern() {}

// expr lets an ObjectPattern stand in expression position, mirroring
// ArrayPattern.
func (n *ObjectPattern) expr() {}

func (n *FunctionDeclaration) Format(f fmt.State, verb rune) {
	format(f, verb, n, "function decl", map[string]int{"params": len(n.Sig.Params)})
}
func (n *FunctionDeclaration) Span() (start, end token.Pos) { return n.Fn, n.End }
func (n *FunctionDeclaration) Walk(v Visitor) {
	if n.Name != nil {
		Walk(v, n.Name)
	}
	for _, p := range n.Sig.Params {
		Walk(v, p)
	}
	Walk(v, n.Body)
}
func (n *FunctionDeclaration) stmt() {}

func (n *FunctionExpression) Format(f fmt.State, verb rune) {
	format(f, verb, n, "function expr", map[string]int{"params": len(n.Sig.Params)})
}
func (n *FunctionExpression) Span() (start, end token.Pos) { return n.Fn, n.End }
func (n *FunctionExpression) Walk(v Visitor) {
	if n.Name != nil {
		Walk(v, n.Name)
	}
	for _, p := range n.Sig.Params {
		Walk(v, p)
	}
	Walk(v, n.Body)
}
func (n *FunctionExpression) expr() {}

func (n *ArrowFunctionExpression) Format(f fmt.State, verb rune) {
	format(f, verb, n, "arrow", map[string]int{"params": len(n.Sig.Params)})
}
func (n *ArrowFunctionExpression) Span() (start, end token.Pos) { return n.Start, n.End }
func (n *ArrowFunctionExpression) Walk(v Visitor) {
	for _, p := range n.Sig.Params {
		Walk(v, p)
	}
	Walk(v, n.Body)
}
func (n *ArrowFunctionExpression) expr() {}

func (n *MethodDefinition) Format(f fmt.State, verb rune) {
	format(f, verb, n, "method", map[string]int{"params": len(n.Sig.Params)})
}
func (n *MethodDefinition) Span() (start, end token.Pos) { return n.Start, n.End }
func (n *MethodDefinition) Walk(v Visitor) {
	if n.Computed {
		Walk(v, n.Key)
	}
	for _, p := range n.Sig.Params {
		Walk(v, p)
	}
	Walk(v, n.Body)
}

func (n *PropertyDefinition) Format(f fmt.State, verb rune) { format(f, verb, n, "field", nil) }
func (n *PropertyDefinition) Span() (start, end token.Pos)  { return n.Start, n.End }
func (n *PropertyDefinition) Walk(v Visitor) {
	if n.Computed {
		Walk(v, n.Key)
	}
	if n.Value != nil {
		Walk(v, n.Value)
	}
}

func (n *ClassDeclaration) Format(f fmt.State, verb rune) {
	format(f, verb, n, "class decl", map[string]int{
		"methods": len(n.Body.Methods),
		"fields":  len(n.Body.Fields),
	})
}
func (n *ClassDeclaration) Span() (start, end token.Pos) { return n.Class, n.Body.Rbrace + 1 }
func (n *ClassDeclaration) Walk(v Visitor) {
	if n.Name != nil {
		Walk(v, n.Name)
	}
	if n.SuperExpr != nil {
		Walk(v, n.SuperExpr)
	}
	for _, m := range n.Body.Fields {
		Walk(v, m)
	}
	for _, m := range n.Body.Methods {
		Walk(v, m)
	}
}
func (n *ClassDeclaration) stmt() {}

func (n *ClassExpression) Format(f fmt.State, verb rune) {
	format(f, verb, n, "class expr", map[string]int{
		"methods": len(n.Body.Methods),
		"fields":  len(n.Body.Fields),
	})
}
func (n *ClassExpression) Span() (start, end token.Pos) { return n.Class, n.Body.Rbrace + 1 }
func (n *ClassExpression) Walk(v Visitor) {
	if n.Name != nil {
		Walk(v, n.Name)
	}
	if n.SuperExpr != nil {
		Walk(v, n.SuperExpr)
	}
	for _, m := range n.Body.Fields {
		Walk(v, m)
	}
	for _, m := range n.Body.Methods {
		Walk(v, m)
	}
}
func (n *ClassExpression) expr() {}
