package instrument

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livepack-go/scopetrace/lang/ast"
)

func newParamRewriter() *ParamRewriter {
	return NewParamRewriter(NewIdentifierTable(""))
}

func TestRewriteLeavesSimpleSignaturesAlone(t *testing.T) {
	sig := &ast.FuncSignature{Params: []ast.Pattern{
		&ast.Identifier{Name: "a"},
		&ast.Identifier{Name: "b"},
	}}
	prologue := newParamRewriter().Rewrite(sig, false, token.NoPos)
	assert.Nil(t, prologue)
	assert.Equal(t, "a", sig.Params[0].(*ast.Identifier).Name)
}

func TestRewriteLeavesTrailingBareRestAlone(t *testing.T) {
	sig := &ast.FuncSignature{Params: []ast.Pattern{
		&ast.Identifier{Name: "a"},
		&ast.RestElement{Arg: &ast.Identifier{Name: "rest"}},
	}}
	prologue := newParamRewriter().Rewrite(sig, false, token.NoPos)
	assert.Nil(t, prologue)
}

func TestRewritePatternedRest(t *testing.T) {
	sig := &ast.FuncSignature{Params: []ast.Pattern{
		&ast.RestElement{Arg: &ast.ArrayPattern{Elems: []ast.Pattern{
			&ast.Identifier{Name: "a"},
			&ast.Identifier{Name: "b"},
		}}},
	}}
	prologue := newParamRewriter().Rewrite(sig, true, token.NoPos)
	require.Len(t, prologue, 1)

	rest, ok := sig.Params[0].(*ast.RestElement)
	require.True(t, ok, "rest stays rest so arity semantics survive")
	_, ok = rest.Arg.(*ast.Identifier)
	assert.True(t, ok)

	let := prologue[0].(*ast.VariableDeclaration)
	require.Len(t, let.Decls, 1)
	_, ok = let.Decls[0].Target.(*ast.ArrayPattern)
	assert.True(t, ok)
}

func TestRewriteArityPreserved(t *testing.T) {
	// (a, {b}, c = 1, ...rest) reports length 2 before and after.
	sig := &ast.FuncSignature{Params: []ast.Pattern{
		&ast.Identifier{Name: "a"},
		&ast.ObjectPattern{Props: []*ast.ObjectPatternProperty{{
			Key:       &ast.Identifier{Name: "b"},
			Value:     &ast.Identifier{Name: "b"},
			Shorthand: true,
		}}},
		&ast.AssignmentPattern{Target: &ast.Identifier{Name: "c"}, Default: &ast.Literal{Kind: ast.LiteralNumber, Raw: "1", Value: 1.0}},
		&ast.RestElement{Arg: &ast.Identifier{Name: "rest"}},
	}}
	before := OriginalLength(sig)
	prologue := newParamRewriter().Rewrite(sig, true, token.NoPos)
	require.NotNil(t, prologue)
	assert.Equal(t, before, OriginalLength(sig))
	assert.Equal(t, 2, before)
}

func TestRewriteAppendsSloppyPadWhenAllPlain(t *testing.T) {
	// ([x]) in sloppy mode: the lone destructuring pattern rewrites to a
	// plain temp, which would re-link the arguments object; a trailing
	// defaulted pad keeps it unlinked.
	sig := &ast.FuncSignature{Params: []ast.Pattern{
		&ast.ArrayPattern{Elems: []ast.Pattern{&ast.Identifier{Name: "x"}}},
	}}
	prologue := newParamRewriter().Rewrite(sig, false, token.NoPos)
	require.NotNil(t, prologue)
	require.Len(t, sig.Params, 2)
	pad, ok := sig.Params[1].(*ast.AssignmentPattern)
	require.True(t, ok)
	undef, ok := pad.Default.(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "undefined", undef.Name)
}

func TestRewriteNoPadInStrictMode(t *testing.T) {
	sig := &ast.FuncSignature{Params: []ast.Pattern{
		&ast.ArrayPattern{Elems: []ast.Pattern{&ast.Identifier{Name: "x"}}},
	}}
	prologue := newParamRewriter().Rewrite(sig, true, token.NoPos)
	require.NotNil(t, prologue)
	assert.Len(t, sig.Params, 1)
}

func TestResolveBodyClashesConvertsVar(t *testing.T) {
	r := newParamRewriter()
	sig := &ast.FuncSignature{Params: []ast.Pattern{
		&ast.AssignmentPattern{Target: &ast.Identifier{Name: "x"}, Default: &ast.Literal{Kind: ast.LiteralNumber, Raw: "1", Value: 1.0}},
	}}
	body := &ast.BlockStatement{Body: []ast.Stmt{
		&ast.VariableDeclaration{
			Kind: ast.DeclVar,
			Decls: []*ast.VariableDeclarator{{
				Target: &ast.Identifier{Name: "x"},
				Init:   &ast.Literal{Kind: ast.LiteralNumber, Raw: "2", Value: 2.0},
			}},
		},
	}}
	prologue := r.Rewrite(sig, true, token.NoPos)
	require.NotNil(t, prologue)
	head := r.ResolveBodyClashes(body, prologue, token.NoPos)
	assert.Empty(t, head)

	// `var x = 2` became the assignment `x = 2`: the prologue's let already
	// owns the binding.
	es, ok := body.Body[0].(*ast.ExpressionStatement)
	require.True(t, ok)
	assign, ok := es.Expr.(*ast.AssignmentExpression)
	require.True(t, ok)
	assert.Equal(t, "x", assign.Left.(*ast.Identifier).Name)
}

func TestResolveBodyClashesHoistsNonClashingSiblings(t *testing.T) {
	r := newParamRewriter()
	sig := &ast.FuncSignature{Params: []ast.Pattern{
		&ast.AssignmentPattern{Target: &ast.Identifier{Name: "x"}, Default: &ast.Literal{Kind: ast.LiteralNumber, Raw: "1", Value: 1.0}},
	}}
	body := &ast.BlockStatement{Body: []ast.Stmt{
		&ast.VariableDeclaration{
			Kind: ast.DeclVar,
			Decls: []*ast.VariableDeclarator{
				{Target: &ast.Identifier{Name: "keep"}, Init: &ast.Literal{Kind: ast.LiteralNumber, Raw: "1", Value: 1.0}},
				{Target: &ast.Identifier{Name: "x"}, Init: &ast.Literal{Kind: ast.LiteralNumber, Raw: "2", Value: 2.0}},
			},
		},
	}}
	prologue := r.Rewrite(sig, true, token.NoPos)
	head := r.ResolveBodyClashes(body, prologue, token.NoPos)

	// The whole declaration became ordered assignments, with the untouched
	// sibling's binding re-established by a hoisted var at body head.
	es, ok := body.Body[0].(*ast.ExpressionStatement)
	require.True(t, ok)
	seq, ok := es.Expr.(*ast.SequenceExpression)
	require.True(t, ok)
	require.Len(t, seq.Exprs, 2)
	assert.Equal(t, "keep", seq.Exprs[0].(*ast.AssignmentExpression).Left.(*ast.Identifier).Name)
	assert.Equal(t, "x", seq.Exprs[1].(*ast.AssignmentExpression).Left.(*ast.Identifier).Name)

	require.Len(t, head, 1)
	hoist, ok := head[0].(*ast.VariableDeclaration)
	require.True(t, ok)
	assert.Equal(t, ast.DeclVar, hoist.Kind)
	assert.Equal(t, "keep", hoist.Decls[0].Target.(*ast.Identifier).Name)
}

func TestResolveBodyClashesConvertsForStatementInit(t *testing.T) {
	r := newParamRewriter()
	sig := &ast.FuncSignature{Params: []ast.Pattern{
		&ast.AssignmentPattern{Target: &ast.Identifier{Name: "i"}, Default: &ast.Literal{Kind: ast.LiteralNumber, Raw: "0", Value: 0.0}},
	}}
	loop := &ast.ForStatement{
		Init: &ast.VariableDeclaration{
			Kind: ast.DeclVar,
			Decls: []*ast.VariableDeclarator{{
				Target: &ast.Identifier{Name: "i"},
				Init:   &ast.Literal{Kind: ast.LiteralNumber, Raw: "0", Value: 0.0},
			}},
		},
		Test: &ast.BinaryExpression{
			Left:  &ast.Identifier{Name: "i"},
			Op:    "<",
			Right: &ast.Literal{Kind: ast.LiteralNumber, Raw: "3", Value: 3.0},
		},
		Post: &ast.UpdateExpression{Op: "++", Arg: &ast.Identifier{Name: "i"}},
		Body: &ast.BlockStatement{},
	}
	body := &ast.BlockStatement{Body: []ast.Stmt{loop}}

	prologue := r.Rewrite(sig, true, token.NoPos)
	require.NotNil(t, prologue)
	head := r.ResolveBodyClashes(body, prologue, token.NoPos)
	assert.Empty(t, head)

	// `var i = 0` in the loop head became the bare assignment `i = 0`.
	assign, ok := loop.Init.(*ast.AssignmentExpression)
	require.True(t, ok, "the clashing init declaration must become an assignment")
	assert.Equal(t, "i", assign.Left.(*ast.Identifier).Name)
}

func TestResolveBodyClashesStripsForInHeadVar(t *testing.T) {
	r := newParamRewriter()
	sig := &ast.FuncSignature{Params: []ast.Pattern{
		&ast.AssignmentPattern{Target: &ast.Identifier{Name: "a"}, Default: &ast.Literal{Kind: ast.LiteralNull, Raw: "null"}},
	}}
	loop := &ast.ForInStatement{
		Left: &ast.VariableDeclaration{
			Kind:  ast.DeclVar,
			Decls: []*ast.VariableDeclarator{{Target: &ast.Identifier{Name: "a"}}},
		},
		Right: &ast.Identifier{Name: "obj"},
		Body:  &ast.BlockStatement{},
	}
	body := &ast.BlockStatement{Body: []ast.Stmt{loop}}

	prologue := r.Rewrite(sig, true, token.NoPos)
	require.NotNil(t, prologue)
	head := r.ResolveBodyClashes(body, prologue, token.NoPos)
	assert.Empty(t, head)

	// `for (var a in obj)` shed its var: the loop now assigns the binding
	// the prologue's let owns, so the two never redeclare each other.
	ident, ok := loop.Left.(*ast.Identifier)
	require.True(t, ok, "the clashing for-in head must lose its declaration")
	assert.Equal(t, "a", ident.Name)
}

func TestResolveBodyClashesForOfPatternHoistsNonClashingLeaf(t *testing.T) {
	r := newParamRewriter()
	sig := &ast.FuncSignature{Params: []ast.Pattern{
		&ast.AssignmentPattern{Target: &ast.Identifier{Name: "a"}, Default: &ast.Literal{Kind: ast.LiteralNull, Raw: "null"}},
	}}
	pattern := &ast.ArrayPattern{Elems: []ast.Pattern{
		&ast.Identifier{Name: "a"},
		&ast.Identifier{Name: "b"},
	}}
	loop := &ast.ForInStatement{
		IsOf: true,
		Left: &ast.VariableDeclaration{
			Kind:  ast.DeclVar,
			Decls: []*ast.VariableDeclarator{{Target: pattern}},
		},
		Right: &ast.Identifier{Name: "pairs"},
		Body:  &ast.BlockStatement{},
	}
	// Nest the loop so the conversion also proves the recursive descent
	// through an if statement's consequent.
	body := &ast.BlockStatement{Body: []ast.Stmt{
		&ast.IfStatement{
			Test:       &ast.Literal{Kind: ast.LiteralBool, Raw: "true", Value: true},
			Consequent: loop,
		},
	}}

	prologue := r.Rewrite(sig, true, token.NoPos)
	require.NotNil(t, prologue)
	head := r.ResolveBodyClashes(body, prologue, token.NoPos)

	// The whole pattern moved to assignment position; b, which the stripped
	// declaration alone bound, is re-declared by the hoisted var.
	assert.Same(t, ast.Node(pattern), loop.Left)
	require.Len(t, head, 1)
	hoist, ok := head[0].(*ast.VariableDeclaration)
	require.True(t, ok)
	assert.Equal(t, ast.DeclVar, hoist.Kind)
	require.Len(t, hoist.Decls, 1)
	assert.Equal(t, "b", hoist.Decls[0].Target.(*ast.Identifier).Name)
}

func TestResolveBodyClashesRenamesFunctionDeclaration(t *testing.T) {
	r := newParamRewriter()
	sig := &ast.FuncSignature{Params: []ast.Pattern{
		&ast.AssignmentPattern{Target: &ast.Identifier{Name: "f"}, Default: &ast.Literal{Kind: ast.LiteralNull, Raw: "null"}},
	}}
	fn := &ast.FunctionDeclaration{
		Name: &ast.Identifier{Name: "f"},
		Sig:  &ast.FuncSignature{},
		Body: &ast.BlockStatement{},
	}
	body := &ast.BlockStatement{Body: []ast.Stmt{fn}}

	prologue := r.Rewrite(sig, true, token.NoPos)
	head := r.ResolveBodyClashes(body, prologue, token.NoPos)

	assert.Contains(t, fn.Name.Name, "temp_")
	require.Len(t, head, 1)
	es, ok := head[0].(*ast.ExpressionStatement)
	require.True(t, ok)
	assign, ok := es.Expr.(*ast.AssignmentExpression)
	require.True(t, ok)
	assert.Equal(t, "f", assign.Left.(*ast.Identifier).Name)
	assert.Equal(t, fn.Name.Name, assign.Right.(*ast.Identifier).Name)
}
