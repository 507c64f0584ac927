package maincmd

import (
	"go/token"

	"github.com/livepack-go/scopetrace/lang/ast"
)

// fixtures maps a demo name to a builder producing a small, hand-built
// program exercising one corner of lang/instrument. They stand in for the
// external AST producer: there is no lexer or parser in this repository,
// so the CLI's only way to demonstrate the pipeline on real shapes is to
// build those shapes directly with the ast package's constructors, the
// same way lang/instrument's own tests do.
var fixtures = map[string]func(*token.FileSet) *ast.Program{
	"counter": counterFixture,
	"class":   classFixture,
	"eval":    evalFixture,
	"params":  paramsFixture,
}

// counterFixture builds:
//
//	function makeCounter(start) {
//	  let count = start;
//	  function increment() {
//	    count = count + 1;
//	    return count;
//	  }
//	  return increment;
//	}
//
// exercising closure capture: increment reads and writes count from
// makeCounter's body block.
func counterFixture(fset *token.FileSet) *ast.Program {
	count := &ast.Identifier{Name: "count"}
	increment := &ast.FunctionDeclaration{
		Name: &ast.Identifier{Name: "increment"},
		Sig:  &ast.FuncSignature{},
		Body: &ast.BlockStatement{Body: []ast.Stmt{
			&ast.ExpressionStatement{Expr: &ast.AssignmentExpression{
				Left: count,
				Op:   "=",
				Right: &ast.BinaryExpression{
					Left:  &ast.Identifier{Name: "count"},
					Op:    "+",
					Right: &ast.Literal{Kind: ast.LiteralNumber, Raw: "1", Value: 1.0},
				},
			}},
			&ast.ReturnStatement{Arg: &ast.Identifier{Name: "count"}},
		}},
	}

	makeCounter := &ast.FunctionDeclaration{
		Name: &ast.Identifier{Name: "makeCounter"},
		Sig:  &ast.FuncSignature{Params: []ast.Pattern{&ast.Identifier{Name: "start"}}},
		Body: &ast.BlockStatement{Body: []ast.Stmt{
			&ast.VariableDeclaration{
				Kind: ast.DeclLet,
				Decls: []*ast.VariableDeclarator{{
					Target: &ast.Identifier{Name: "count"},
					Init:   &ast.Identifier{Name: "start"},
				}},
			},
			increment,
			&ast.ReturnStatement{Arg: &ast.Identifier{Name: "increment"}},
		}},
	}

	return &ast.Program{
		Filename: "counter.js",
		Body:     []ast.Stmt{makeCounter},
		Strict:   true,
	}
}

// classFixture builds:
//
//	class Base {
//	  greet() { return "hi"; }
//	}
//	class Derived extends Base {
//	  constructor(name) {
//	    super();
//	    this.name = name;
//	  }
//	  greet() {
//	    return super.greet() + " " + this.name;
//	  }
//	}
//
// exercising the super-call and super-member rewrites.
func classFixture(fset *token.FileSet) *ast.Program {
	base := &ast.ClassDeclaration{
		Name: &ast.Identifier{Name: "Base"},
		Body: &ast.ClassBody{Methods: []*ast.MethodDefinition{{
			Key: &ast.Identifier{Name: "greet"},
			Sig: &ast.FuncSignature{},
			Body: &ast.BlockStatement{Body: []ast.Stmt{
				&ast.ReturnStatement{Arg: &ast.Literal{Kind: ast.LiteralString, Raw: `"hi"`, Value: "hi"}},
			}},
		}}},
	}

	constructor := &ast.MethodDefinition{
		Key:           &ast.Identifier{Name: "constructor"},
		IsConstructor: true,
		Sig:           &ast.FuncSignature{Params: []ast.Pattern{&ast.Identifier{Name: "name"}}},
		Body: &ast.BlockStatement{Body: []ast.Stmt{
			&ast.ExpressionStatement{Expr: &ast.CallExpression{Callee: &ast.Super{}}},
			&ast.ExpressionStatement{Expr: &ast.AssignmentExpression{
				Left: &ast.MemberExpression{
					Object:   &ast.ThisExpression{},
					Property: &ast.Identifier{Name: "name"},
				},
				Op:    "=",
				Right: &ast.Identifier{Name: "name"},
			}},
		}},
	}

	greet := &ast.MethodDefinition{
		Key: &ast.Identifier{Name: "greet"},
		Sig: &ast.FuncSignature{},
		Body: &ast.BlockStatement{Body: []ast.Stmt{
			&ast.ReturnStatement{Arg: &ast.BinaryExpression{
				Left: &ast.BinaryExpression{
					Left: &ast.CallExpression{Callee: &ast.MemberExpression{
						Object:   &ast.Super{},
						Property: &ast.Identifier{Name: "greet"},
					}},
					Op:    "+",
					Right: &ast.Literal{Kind: ast.LiteralString, Raw: `" "`, Value: " "},
				},
				Op: "+",
				Right: &ast.MemberExpression{
					Object:   &ast.ThisExpression{},
					Property: &ast.Identifier{Name: "name"},
				},
			}},
		}},
	}

	derived := &ast.ClassDeclaration{
		Name:      &ast.Identifier{Name: "Derived"},
		SuperExpr: &ast.Identifier{Name: "Base"},
		Body:      &ast.ClassBody{Methods: []*ast.MethodDefinition{constructor, greet}},
	}

	return &ast.Program{
		Filename: "class.js",
		Body:     []ast.Stmt{base, derived},
		Strict:   true,
	}
}

// evalFixture builds:
//
//	function probe() {
//	  var secret = 42;
//	  return eval("secret");
//	}
//
// exercising the direct-eval escalation: every visible binding becomes a
// mandatory capture and the eval argument is wrapped in the preval helper.
func evalFixture(fset *token.FileSet) *ast.Program {
	probe := &ast.FunctionDeclaration{
		Name: &ast.Identifier{Name: "probe"},
		Sig:  &ast.FuncSignature{},
		Body: &ast.BlockStatement{Body: []ast.Stmt{
			&ast.VariableDeclaration{
				Kind: ast.DeclVar,
				Decls: []*ast.VariableDeclarator{{
					Target: &ast.Identifier{Name: "secret"},
					Init:   &ast.Literal{Kind: ast.LiteralNumber, Raw: "42", Value: 42.0},
				}},
			},
			&ast.ReturnStatement{Arg: &ast.CallExpression{
				Callee: &ast.Identifier{Name: "eval"},
				Args:   []ast.Expr{&ast.Literal{Kind: ast.LiteralString, Raw: `"secret"`, Value: "secret"}},
			}},
		}},
	}

	return &ast.Program{
		Filename: "eval.js",
		Body:     []ast.Stmt{probe},
	}
}

// paramsFixture builds:
//
//	function greet(name, greeting = "hello") {
//	  return greeting + " " + name;
//	}
//
// exercising the parameter rewrite: both parameters move to temporaries and
// the body prologue reconstructs them, the default behind its conditional.
func paramsFixture(fset *token.FileSet) *ast.Program {
	greet := &ast.FunctionDeclaration{
		Name: &ast.Identifier{Name: "greet"},
		Sig: &ast.FuncSignature{Params: []ast.Pattern{
			&ast.Identifier{Name: "name"},
			&ast.AssignmentPattern{
				Target:  &ast.Identifier{Name: "greeting"},
				Default: &ast.Literal{Kind: ast.LiteralString, Raw: `"hello"`, Value: "hello"},
			},
		}},
		Body: &ast.BlockStatement{Body: []ast.Stmt{
			&ast.ReturnStatement{Arg: &ast.BinaryExpression{
				Left: &ast.BinaryExpression{
					Left:  &ast.Identifier{Name: "greeting"},
					Op:    "+",
					Right: &ast.Literal{Kind: ast.LiteralString, Raw: `" "`, Value: " "},
				},
				Op:    "+",
				Right: &ast.Identifier{Name: "name"},
			}},
		}},
	}

	return &ast.Program{
		Filename: "params.js",
		Body:     []ast.Stmt{greet},
	}
}
