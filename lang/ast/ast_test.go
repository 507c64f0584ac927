package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livepack-go/scopetrace/lang/ast"
)

func TestWalkVisitsEveryChild(t *testing.T) {
	prog := &ast.Program{
		Body: []ast.Stmt{
			&ast.ExpressionStatement{Expr: &ast.BinaryExpression{
				Left:  &ast.Identifier{Name: "a"},
				Op:    "+",
				Right: &ast.Identifier{Name: "b"},
			}},
			&ast.ReturnStatement{Arg: &ast.Identifier{Name: "a"}},
		},
	}

	var names []string
	var visit ast.VisitorFunc
	visit = func(n ast.Node, dir ast.VisitDirection) ast.Visitor {
		if dir != ast.VisitEnter {
			return nil
		}
		if ident, ok := n.(*ast.Identifier); ok {
			names = append(names, ident.Name)
		}
		return visit
	}
	ast.Walk(visit, prog)

	assert.Equal(t, []string{"a", "b", "a"}, names)
}

func TestWalkStopsWhenVisitorReturnsNil(t *testing.T) {
	prog := &ast.Program{
		Body: []ast.Stmt{
			&ast.ExpressionStatement{Expr: &ast.BinaryExpression{
				Left:  &ast.Identifier{Name: "a"},
				Op:    "+",
				Right: &ast.Identifier{Name: "b"},
			}},
		},
	}

	visited := 0
	var visit ast.VisitorFunc
	visit = func(n ast.Node, dir ast.VisitDirection) ast.Visitor {
		if dir != ast.VisitEnter {
			return nil
		}
		visited++
		if _, ok := n.(*ast.BinaryExpression); ok {
			return nil // prune: never descend into the operands
		}
		return visit
	}
	ast.Walk(visit, prog)

	// Program, ExpressionStatement, BinaryExpression: the two Identifier
	// operands are never reached because BinaryExpression pruned its subtree.
	assert.Equal(t, 3, visited)
}

func TestWalkEnterExitOrder(t *testing.T) {
	ident := &ast.Identifier{Name: "x"}
	ret := &ast.ReturnStatement{Arg: ident}

	var order []string
	var visit ast.VisitorFunc
	visit = func(n ast.Node, dir ast.VisitDirection) ast.Visitor {
		tag := "enter"
		if dir == ast.VisitExit {
			tag = "exit"
		}
		if id, ok := n.(*ast.Identifier); ok {
			order = append(order, tag+":"+id.Name)
		} else {
			order = append(order, tag+":return")
		}
		return visit
	}
	ast.Walk(visit, ret)

	require.Len(t, order, 4)
	assert.Equal(t, []string{"enter:return", "enter:x", "exit:x", "exit:return"}, order)
}

func TestCommentAttachesToItsNode(t *testing.T) {
	fn := &ast.FunctionDeclaration{Name: &ast.Identifier{Name: "f"}, Sig: &ast.FuncSignature{}, Body: &ast.BlockStatement{}}
	prog := &ast.Program{Body: []ast.Stmt{fn}}
	prog.Comments = append(prog.Comments, &ast.Comment{Node: fn, Val: "livepack_track:0;p;\"f.js\"", Block: true})

	require.Len(t, prog.Comments, 1)
	assert.Same(t, ast.Node(fn), prog.Comments[0].Node)
	assert.True(t, prog.Comments[0].Block)
}

func TestKindFromFlags(t *testing.T) {
	assert.Equal(t, ast.FuncPlain, ast.KindFromFlags(false, false))
	assert.Equal(t, ast.FuncAsync, ast.KindFromFlags(true, false))
	assert.Equal(t, ast.FuncGenerator, ast.KindFromFlags(false, true))
	assert.Equal(t, ast.FuncAsyncGenerator, ast.KindFromFlags(true, true))
}

func TestIsAssignable(t *testing.T) {
	assert.True(t, ast.IsAssignable(&ast.Identifier{Name: "x"}))
	assert.True(t, ast.IsAssignable(&ast.MemberExpression{Object: &ast.ThisExpression{}, Property: &ast.Identifier{Name: "x"}}))
	assert.False(t, ast.IsAssignable(&ast.Literal{Kind: ast.LiteralNumber, Raw: "1", Value: 1.0}))
}
