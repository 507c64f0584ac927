package instrument_test

import (
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livepack-go/scopetrace/lang/ast"
	"github.com/livepack-go/scopetrace/lang/instrument"
)

func run(t *testing.T, prog *ast.Program, filename string) *instrument.Result {
	t.Helper()
	result, err := instrument.Instrument(prog, token.NewFileSet(), instrument.Options{Filename: filename})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func fnMeta(t *testing.T, md *instrument.Metadata, id int) *instrument.FunctionMeta {
	t.Helper()
	for i, fm := range md.Functions {
		if fm.ID == id {
			return &md.Functions[i]
		}
	}
	t.Fatalf("no function record with id %d", id)
	return nil
}

// counterProgram builds:
//
//	function makeCounter(start) {
//	  let count = start;
//	  function increment() {
//	    count = count + 1;
//	    return count;
//	  }
//	  return increment;
//	}
func counterProgram() *ast.Program {
	increment := &ast.FunctionDeclaration{
		Name: &ast.Identifier{Name: "increment"},
		Sig:  &ast.FuncSignature{},
		Body: &ast.BlockStatement{Body: []ast.Stmt{
			&ast.ExpressionStatement{Expr: &ast.AssignmentExpression{
				Left: &ast.Identifier{Name: "count"},
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

	return &ast.Program{Filename: "counter.js", Body: []ast.Stmt{makeCounter}, Strict: true}
}

func TestInstrumentCapturesClosedOverBinding(t *testing.T) {
	result := run(t, counterProgram(), "counter.js")

	// module=0, makeCounter=1, increment=2
	incrementMeta := fnMeta(t, result.Metadata, 2)
	require.Len(t, incrementMeta.CapturedScopes, 1)
	scope := incrementMeta.CapturedScopes[0]
	require.Len(t, scope.Vars, 1)
	assert.Equal(t, "count", scope.Vars[0].Name)
	assert.Equal(t, 2, scope.Vars[0].ReadsFrom) // count + 1, return count
	assert.Equal(t, 1, scope.Vars[0].WritesTo)  // count = ...
}

func TestInstrumentEmitsOneTrackerCommentPerFunction(t *testing.T) {
	result := run(t, counterProgram(), "counter.js")

	trackerComments := 0
	markerComments := 0
	for _, c := range result.Program.Comments {
		if c.Val == "livepack_transformed" {
			markerComments++
			continue
		}
		assert.True(t, strings.HasPrefix(c.Val, "livepack_track:"), "unexpected comment %q", c.Val)
		trackerComments++
	}
	// makeCounter and increment each get one tracker comment; the module
	// function itself (id 0) never does.
	assert.Equal(t, 2, trackerComments)
	assert.Equal(t, 1, markerComments)
}

func TestInstrumentInjectsModulePrelude(t *testing.T) {
	result := run(t, counterProgram(), "counter.js")

	require.NotEmpty(t, result.Program.Body)
	decl, ok := result.Program.Body[0].(*ast.VariableDeclaration)
	require.True(t, ok, "expected the tracker prelude to be the first statement")
	assert.Equal(t, ast.DeclConst, decl.Kind)

	pat, ok := decl.Decls[0].Target.(*ast.ArrayPattern)
	require.True(t, ok)
	require.Len(t, pat.Elems, 2)
	tracker, ok := pat.Elems[0].(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "livepack_tracker", tracker.Name)
	getScopeID, ok := pat.Elems[1].(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "livepack_getScopeId", getScopeID.Name)
}

func TestInstrumentAppendsFnInfoGetters(t *testing.T) {
	result := run(t, counterProgram(), "counter.js")

	var getters []string
	for _, s := range result.Program.Body {
		fd, ok := s.(*ast.FunctionDeclaration)
		if ok && strings.Contains(fd.Name.Name, "getFnInfo_") {
			getters = append(getters, fd.Name.Name)
		}
	}
	assert.Equal(t, []string{"livepack_getFnInfo_1", "livepack_getFnInfo_2"}, getters)

	// The getters trail the user code rather than leading it.
	last, ok := result.Program.Body[len(result.Program.Body)-1].(*ast.FunctionDeclaration)
	require.True(t, ok)
	assert.Contains(t, last.Name.Name, "getFnInfo_")
}

func TestInstrumentInjectsScopeIDInitializer(t *testing.T) {
	prog := counterProgram()
	// Taken before run: the module prelude is prepended to prog.Body.
	makeCounter := prog.Body[0].(*ast.FunctionDeclaration)
	run(t, prog, "counter.js")

	// makeCounter's body block was captured by increment's `count` use, so
	// its own body must open with a `const scopeId_n = getScopeId(...)`
	// declaration ahead of everything else, naming the slot increment's
	// tracker call later reads.
	decl, ok := makeCounter.Body.Body[0].(*ast.VariableDeclaration)
	require.True(t, ok, "expected a scope-id declaration prepended to makeCounter's body")
	assert.Equal(t, ast.DeclConst, decl.Kind)

	ident, ok := decl.Decls[0].Target.(*ast.Identifier)
	require.True(t, ok)
	assert.Contains(t, ident.Name, "scopeId_")

	call, ok := decl.Decls[0].Init.(*ast.CallExpression)
	require.True(t, ok)
	callee, ok := call.Callee.(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "livepack_getScopeId", callee.Name)
}

func TestInstrumentCapturedScopesSortedByBlockID(t *testing.T) {
	result := run(t, counterProgram(), "counter.js")

	for _, fm := range result.Metadata.Functions {
		last := -1
		for _, cs := range fm.CapturedScopes {
			assert.Greater(t, cs.BlockID, last, "captured scopes must ascend by block id")
			last = cs.BlockID
		}
	}
}

func TestInstrumentRejectsNothingOnPlainModule(t *testing.T) {
	prog := &ast.Program{Body: []ast.Stmt{
		&ast.ExpressionStatement{Expr: &ast.Literal{Kind: ast.LiteralNumber, Raw: "1", Value: 1.0}},
	}}
	result := run(t, prog, "empty.js")
	require.Len(t, result.Metadata.Functions, 1) // just the synthetic module record
	assert.Equal(t, "module", result.Metadata.Functions[0].Kind)
}

// arrowProgram builds `function f(x) { return () => x; }`.
func arrowProgram() *ast.Program {
	f := &ast.FunctionDeclaration{
		Name: &ast.Identifier{Name: "f"},
		Sig:  &ast.FuncSignature{Params: []ast.Pattern{&ast.Identifier{Name: "x"}}},
		Body: &ast.BlockStatement{Body: []ast.Stmt{
			&ast.ReturnStatement{Arg: &ast.ArrowFunctionExpression{
				Sig:      &ast.FuncSignature{},
				Body:     &ast.Identifier{Name: "x"},
				ExprBody: true,
			}},
		}},
	}
	return &ast.Program{Filename: "arrow.js", Body: []ast.Stmt{f}, Strict: true}
}

func TestInstrumentArrowCapturesParameter(t *testing.T) {
	result := run(t, arrowProgram(), "arrow.js")

	arrowMeta := fnMeta(t, result.Metadata, 2)
	assert.True(t, arrowMeta.IsArrow)
	require.Len(t, arrowMeta.CapturedScopes, 1)
	require.Len(t, arrowMeta.CapturedScopes[0].Vars, 1)
	assert.Equal(t, "x", arrowMeta.CapturedScopes[0].Vars[0].Name)

	// f itself captures nothing: x is its own parameter.
	fMeta := fnMeta(t, result.Metadata, 1)
	assert.Empty(t, fMeta.CapturedScopes)
}

func TestInstrumentConvertsConciseArrowBodyForTracker(t *testing.T) {
	prog := arrowProgram()
	// Taken before run: the module prelude is prepended to prog.Body.
	f := prog.Body[0].(*ast.FunctionDeclaration)
	run(t, prog, "arrow.js")

	var arrow *ast.ArrowFunctionExpression
	for _, s := range f.Body.Body {
		if ret, ok := s.(*ast.ReturnStatement); ok {
			arrow = ret.Arg.(*ast.ArrowFunctionExpression)
		}
	}
	require.NotNil(t, arrow)

	// The zero-parameter arrow had nowhere in its signature to carry the
	// tracker, so its concise body became a block: tracker call first,
	// original expression as the return.
	assert.False(t, arrow.ExprBody)
	bs, ok := arrow.Body.(*ast.BlockStatement)
	require.True(t, ok)
	require.GreaterOrEqual(t, len(bs.Body), 2)

	es, ok := bs.Body[0].(*ast.ExpressionStatement)
	require.True(t, ok)
	call, ok := es.Expr.(*ast.CallExpression)
	require.True(t, ok)
	callee, ok := call.Callee.(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "livepack_tracker", callee.Name)

	_, ok = bs.Body[len(bs.Body)-1].(*ast.ReturnStatement)
	assert.True(t, ok)
}

func TestInstrumentThisInArrowIsCaptured(t *testing.T) {
	f := &ast.FunctionDeclaration{
		Name: &ast.Identifier{Name: "f"},
		Sig:  &ast.FuncSignature{},
		Body: &ast.BlockStatement{Body: []ast.Stmt{
			&ast.ReturnStatement{Arg: &ast.ArrowFunctionExpression{
				Sig:      &ast.FuncSignature{},
				Body:     &ast.ThisExpression{},
				ExprBody: true,
			}},
		}},
	}
	prog := &ast.Program{Filename: "this.js", Body: []ast.Stmt{f}, Strict: true}
	result := run(t, prog, "this.js")

	arrowMeta := fnMeta(t, result.Metadata, 2)
	require.Len(t, arrowMeta.CapturedScopes, 1)
	require.Len(t, arrowMeta.CapturedScopes[0].Vars, 1)
	assert.Equal(t, "this", arrowMeta.CapturedScopes[0].Vars[0].Name)
}

// argumentsProgram builds a sloppy-mode `function g(a, b) { return arguments; }`.
func argumentsProgram() *ast.Program {
	g := &ast.FunctionDeclaration{
		Name: &ast.Identifier{Name: "g"},
		Sig: &ast.FuncSignature{Params: []ast.Pattern{
			&ast.Identifier{Name: "a"},
			&ast.Identifier{Name: "b"},
		}},
		Body: &ast.BlockStatement{Body: []ast.Stmt{
			&ast.ReturnStatement{Arg: &ast.Identifier{Name: "arguments"}},
		}},
	}
	return &ast.Program{Filename: "args.js", Body: []ast.Stmt{g}}
}

func TestInstrumentArgumentsObject(t *testing.T) {
	result := run(t, argumentsProgram(), "args.js")

	gMeta := fnMeta(t, result.Metadata, 1)
	assert.Empty(t, gMeta.CapturedScopes, "arguments is the function's own, not a capture")
	assert.Equal(t, []string{"a", "b"}, gMeta.ArgNames)
	assert.NotContains(t, gMeta.GlobalNames, "arguments")
}

func TestInstrumentArgNamesEmptyInStrictMode(t *testing.T) {
	prog := argumentsProgram()
	prog.Strict = true
	result := run(t, prog, "args.js")
	assert.Empty(t, fnMeta(t, result.Metadata, 1).ArgNames)
}

// derivedClassProgram builds:
//
//	class Base { greet() { return "hi"; } }
//	class Derived extends Base {
//	  constructor() { super(); }
//	  greet() { return super.greet(); }
//	}
func derivedClassProgram() *ast.Program {
	base := &ast.ClassDeclaration{
		Name: &ast.Identifier{Name: "Base"},
		Body: &ast.ClassBody{Methods: []*ast.MethodDefinition{{
			Key:  &ast.Identifier{Name: "greet"},
			Sig:  &ast.FuncSignature{},
			Body: &ast.BlockStatement{Body: []ast.Stmt{&ast.ReturnStatement{Arg: &ast.Literal{Kind: ast.LiteralString, Raw: `"hi"`, Value: "hi"}}}},
		}}},
	}

	constructor := &ast.MethodDefinition{
		Key:           &ast.Identifier{Name: "constructor"},
		IsConstructor: true,
		Sig:           &ast.FuncSignature{},
		Body:          &ast.BlockStatement{Body: []ast.Stmt{&ast.ExpressionStatement{Expr: &ast.CallExpression{Callee: &ast.Super{}}}}},
	}
	greet := &ast.MethodDefinition{
		Key: &ast.Identifier{Name: "greet"},
		Sig: &ast.FuncSignature{},
		Body: &ast.BlockStatement{Body: []ast.Stmt{&ast.ReturnStatement{Arg: &ast.CallExpression{
			Callee: &ast.MemberExpression{Object: &ast.Super{}, Property: &ast.Identifier{Name: "greet"}},
		}}}},
	}
	derived := &ast.ClassDeclaration{
		Name:      &ast.Identifier{Name: "Derived"},
		SuperExpr: &ast.Identifier{Name: "Base"},
		Body:      &ast.ClassBody{Methods: []*ast.MethodDefinition{constructor, greet}},
	}

	return &ast.Program{Filename: "class.js", Body: []ast.Stmt{base, derived}, Strict: true}
}

func TestInstrumentRewritesSuperCall(t *testing.T) {
	prog := derivedClassProgram()
	// Taken before run: the prelude and scope-id declarations are prepended
	// to prog.Body.
	derived := prog.Body[1].(*ast.ClassDeclaration)
	run(t, prog, "class.js")

	var ctor *ast.MethodDefinition
	for _, m := range derived.Body.Methods {
		if m.IsConstructor {
			ctor = m
		}
	}
	require.NotNil(t, ctor)

	// super() rewrites to Object.getPrototypeOf(Derived).call(this, ...);
	// the callee is now a .call member access, no longer bare Super. The
	// tracker prologue shifts the original statement down, so scan for it.
	var call *ast.CallExpression
	for _, s := range ctor.Body.Body {
		es, ok := s.(*ast.ExpressionStatement)
		if !ok {
			continue
		}
		if c, ok := es.Expr.(*ast.CallExpression); ok {
			if m, ok := c.Callee.(*ast.MemberExpression); ok {
				if p, ok := m.Property.(*ast.Identifier); ok && p.Name == "call" {
					call = c
				}
			}
		}
	}
	require.NotNil(t, call, "expected a rewritten super() call in the constructor body")
	require.NotEmpty(t, call.Args)
	_, ok := call.Args[0].(*ast.ThisExpression)
	assert.True(t, ok, "the rewritten super() call must re-bind this")
}

func TestInstrumentRewritesSuperMember(t *testing.T) {
	prog := derivedClassProgram()
	// Taken before run: the prelude and scope-id declarations are prepended
	// to prog.Body.
	derived := prog.Body[1].(*ast.ClassDeclaration)
	result := run(t, prog, "class.js")

	var greet *ast.MethodDefinition
	for _, m := range derived.Body.Methods {
		if id, ok := m.Key.(*ast.Identifier); ok && id.Name == "greet" && !m.IsConstructor {
			greet = m
		}
	}
	require.NotNil(t, greet)

	var ret *ast.ReturnStatement
	for _, s := range greet.Body.Body {
		if r, ok := s.(*ast.ReturnStatement); ok {
			ret = r
		}
	}
	require.NotNil(t, ret)
	call, ok := ret.Arg.(*ast.CallExpression)
	require.True(t, ok)
	// super.greet() in an instance method rewrites to
	// Object.getPrototypeOf(Derived.prototype).greet.call(this): the outer
	// callee is a .call member, and Super is gone from the tree.
	outer, ok := call.Callee.(*ast.MemberExpression)
	require.True(t, ok)
	_, stillSuper := outer.Object.(*ast.Super)
	assert.False(t, stillSuper, "Super must not survive the rewrite")

	// The super target resolved to the class's own name: no temp slot.
	greetMeta := fnMeta(t, result.Metadata, 4)
	assert.Equal(t, "Derived", greetMeta.SuperTarget)
	require.NotEmpty(t, greetMeta.Amendments)
	assert.Equal(t, "super-expression", greetMeta.Amendments[0].Kind)
}

func TestInstrumentAstSnapshotElidesNestedFunctions(t *testing.T) {
	result := run(t, counterProgram(), "counter.js")

	// makeCounter's snapshot nulls out the nested increment declaration;
	// increment's own snapshot carries its full body.
	mk, ok := fnMeta(t, result.Metadata, 1).AST.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "FunctionDeclaration", mk["type"])
	body := mk["body"].(map[string]any)["body"].([]any)
	require.Len(t, body, 3)
	assert.Nil(t, body[1], "the nested function declaration must be elided")

	inc, ok := fnMeta(t, result.Metadata, 2).AST.(map[string]any)
	require.True(t, ok)
	incBody := inc["body"].(map[string]any)["body"].([]any)
	assert.Len(t, incBody, 2)

	assert.Nil(t, fnMeta(t, result.Metadata, 0).AST, "the module record carries no snapshot")
}

func TestInstrumentAstSnapshotInlinesConstructor(t *testing.T) {
	result := run(t, derivedClassProgram(), "class.js")

	derived, ok := fnMeta(t, result.Metadata, 3).AST.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ClassDeclaration", derived["type"])
	members := derived["body"].(map[string]any)["body"].([]any)
	require.Len(t, members, 2)

	ctor, ok := members[0].(map[string]any)
	require.True(t, ok, "the constructor inlines into the class snapshot")
	assert.Equal(t, true, ctor["constructor"])
	// The snapshot was taken before the super rewrite: the super() call is
	// still a bare Super callee.
	ctorBody := ctor["body"].(map[string]any)["body"].([]any)
	superCall := ctorBody[0].(map[string]any)["expression"].(map[string]any)
	assert.Equal(t, "Super", superCall["callee"].(map[string]any)["type"])

	assert.Nil(t, members[1], "the non-constructor method is elided; it has its own record")

	greet, ok := fnMeta(t, result.Metadata, 4).AST.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "MethodDefinition", greet["type"])
}

func TestInstrumentRecordsFirstSuperStatement(t *testing.T) {
	result := run(t, derivedClassProgram(), "class.js")

	derivedMeta := fnMeta(t, result.Metadata, 3)
	assert.True(t, derivedMeta.HasSuperClass)
	require.NotNil(t, derivedMeta.FirstSuperStatementIndex)
	assert.Equal(t, 0, *derivedMeta.FirstSuperStatementIndex)
	assert.True(t, derivedMeta.ReturnsSuper, "super() is also the last statement")
	require.NotEmpty(t, derivedMeta.Amendments)
	assert.Equal(t, "super-call", derivedMeta.Amendments[0].Kind)
}

// objectSuperProgram builds `const o = { m() { return super.m(); } };`.
func objectSuperProgram() *ast.Program {
	obj := &ast.ObjectExpression{Items: []*ast.KeyVal{{
		Key:    &ast.Identifier{Name: "m"},
		Method: true,
		Value: &ast.FunctionExpression{
			Sig: &ast.FuncSignature{},
			Body: &ast.BlockStatement{Body: []ast.Stmt{
				&ast.ReturnStatement{Arg: &ast.CallExpression{
					Callee: &ast.MemberExpression{Object: &ast.Super{}, Property: &ast.Identifier{Name: "m"}},
				}},
			}},
		},
	}}}
	decl := &ast.VariableDeclaration{
		Kind:  ast.DeclConst,
		Decls: []*ast.VariableDeclarator{{Target: &ast.Identifier{Name: "o"}, Init: obj}},
	}
	return &ast.Program{Filename: "objsuper.js", Body: []ast.Stmt{decl}, Strict: true}
}

func TestInstrumentObjectSuperGetsTempSlot(t *testing.T) {
	prog := objectSuperProgram()
	result := run(t, prog, "objsuper.js")

	// The declaration's initializer became `livepack_temp_1 = { m() ... }`,
	// with the temp declared as an uninitialized let at module level.
	var objDecl *ast.VariableDeclaration
	var tempLet bool
	for _, s := range prog.Body {
		decl, ok := s.(*ast.VariableDeclaration)
		if !ok {
			continue
		}
		if id, ok := decl.Decls[0].Target.(*ast.Identifier); ok {
			switch {
			case id.Name == "o":
				objDecl = decl
			case decl.Kind == ast.DeclLet && strings.Contains(id.Name, "temp_") && decl.Decls[0].Init == nil:
				tempLet = true
			}
		}
	}
	require.NotNil(t, objDecl)
	assert.True(t, tempLet, "expected an uninitialized let declaration for the temp slot")

	assign, ok := objDecl.Decls[0].Init.(*ast.AssignmentExpression)
	require.True(t, ok, "the object literal must be wrapped into a temp assignment")
	temp, ok := assign.Left.(*ast.Identifier)
	require.True(t, ok)
	assert.Contains(t, temp.Name, "temp_")
	_, ok = assign.Right.(*ast.ObjectExpression)
	assert.True(t, ok)

	// The method's record references the temp as its super target, and the
	// rewrite dispatches through the object itself (no .prototype hop).
	mMeta := fnMeta(t, result.Metadata, 1)
	assert.Contains(t, mMeta.SuperTarget, "temp_")
}

// evalProgram builds a sloppy-mode
// `function f() { var x = 1; eval("x"); return x; }`.
func evalProgram() *ast.Program {
	f := &ast.FunctionDeclaration{
		Name: &ast.Identifier{Name: "f"},
		Sig:  &ast.FuncSignature{},
		Body: &ast.BlockStatement{Body: []ast.Stmt{
			&ast.VariableDeclaration{
				Kind: ast.DeclVar,
				Decls: []*ast.VariableDeclarator{{
					Target: &ast.Identifier{Name: "x"},
					Init:   &ast.Literal{Kind: ast.LiteralNumber, Raw: "1", Value: 1.0},
				}},
			},
			&ast.ExpressionStatement{Expr: &ast.CallExpression{
				Callee: &ast.Identifier{Name: "eval"},
				Args:   []ast.Expr{&ast.Literal{Kind: ast.LiteralString, Raw: `"x"`, Value: "x"}},
			}},
			&ast.ReturnStatement{Arg: &ast.Identifier{Name: "x"}},
		}},
	}
	return &ast.Program{Filename: "eval.js", Body: []ast.Stmt{f}}
}

func TestInstrumentEvalEscalation(t *testing.T) {
	prog := evalProgram()
	result := run(t, prog, "eval.js")

	fMeta := fnMeta(t, result.Metadata, 1)
	assert.True(t, fMeta.ContainsEval)
	assert.True(t, fnMeta(t, result.Metadata, 0).ContainsEval, "containsEval propagates to every ancestor")

	// The prelude gained the eval helper destructure as its second entry.
	second, ok := result.Program.Body[1].(*ast.VariableDeclaration)
	require.True(t, ok)
	pat, ok := second.Decls[0].Target.(*ast.ArrayPattern)
	require.True(t, ok)
	require.Len(t, pat.Elems, 3)
	assert.Equal(t, "livepack_eval", pat.Elems[0].(*ast.Identifier).Name)
	assert.Equal(t, "livepack_preval", pat.Elems[1].(*ast.Identifier).Name)
	assert.Equal(t, "livepack_getEval", pat.Elems[2].(*ast.Identifier).Name)
}

func TestInstrumentEvalArgumentWrappedInPreval(t *testing.T) {
	prog := evalProgram()
	run(t, prog, "eval.js")

	var evalCall *ast.CallExpression
	var find ast.VisitorFunc
	find = func(n ast.Node, dir ast.VisitDirection) ast.Visitor {
		if dir != ast.VisitEnter {
			return nil
		}
		if c, ok := n.(*ast.CallExpression); ok {
			if id, ok := c.Callee.(*ast.Identifier); ok && id.Name == "eval" {
				evalCall = c
			}
		}
		return find
	}
	ast.Walk(find, prog)
	require.NotNil(t, evalCall)

	wrap, ok := evalCall.Args[0].(*ast.CallExpression)
	require.True(t, ok, "the eval argument must be wrapped")
	callee, ok := wrap.Callee.(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "livepack_preval", callee.Name)
	require.Len(t, wrap.Args, 4) // code, bindings, strictness, argNames

	// The bindings list carries every statically-visible binding; x (f's
	// own var) leads it, with its block id, scope-id slot and flags.
	bindings, ok := wrap.Args[1].(*ast.ArrayExpression)
	require.True(t, ok)
	require.NotEmpty(t, bindings.Items)
	first, ok := bindings.Items[0].(*ast.ArrayExpression)
	require.True(t, ok)
	require.Len(t, first.Items, 6)
	name, ok := first.Items[0].(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, "x", name.Value)
	slotRef, ok := first.Items[2].(*ast.Identifier)
	require.True(t, ok)
	assert.Contains(t, slotRef.Name, "scopeId_")
	isConst, ok := first.Items[4].(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, false, isConst.Value)

	strict, ok := wrap.Args[2].(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, false, strict.Value)
}

// paramsProgram builds a sloppy-mode `function h(a, b = a) { return a + b; }`.
func paramsProgram() *ast.Program {
	h := &ast.FunctionDeclaration{
		Name: &ast.Identifier{Name: "h"},
		Sig: &ast.FuncSignature{Params: []ast.Pattern{
			&ast.Identifier{Name: "a"},
			&ast.AssignmentPattern{Target: &ast.Identifier{Name: "b"}, Default: &ast.Identifier{Name: "a"}},
		}},
		Body: &ast.BlockStatement{Body: []ast.Stmt{
			&ast.ReturnStatement{Arg: &ast.BinaryExpression{
				Left:  &ast.Identifier{Name: "a"},
				Op:    "+",
				Right: &ast.Identifier{Name: "b"},
			}},
		}},
	}
	return &ast.Program{Filename: "params.js", Body: []ast.Stmt{h}}
}

func TestInstrumentRewritesComplexParameters(t *testing.T) {
	prog := paramsProgram()
	// Taken before run: the module prelude is prepended to prog.Body.
	h := prog.Body[0].(*ast.FunctionDeclaration)
	run(t, prog, "params.js")

	require.Len(t, h.Sig.Params, 2)

	// First parameter became a plain temp, the defaulted one a
	// `temp = <tracker-amended undefined>` so arity still reports 1.
	first, ok := h.Sig.Params[0].(*ast.Identifier)
	require.True(t, ok)
	assert.Contains(t, first.Name, "temp_")
	second, ok := h.Sig.Params[1].(*ast.AssignmentPattern)
	require.True(t, ok)
	target, ok := second.Target.(*ast.Identifier)
	require.True(t, ok)
	assert.Contains(t, target.Name, "temp_")
	assert.Equal(t, 1, instrument.OriginalLength(h.Sig))

	// The tracker rode into the rewritten default.
	lg, ok := second.Default.(*ast.LogicalExpression)
	require.True(t, ok)
	trackerCall, ok := lg.Left.(*ast.CallExpression)
	require.True(t, ok)
	assert.Equal(t, "livepack_tracker", trackerCall.Callee.(*ast.Identifier).Name)

	// The body prologue reconstructs a and b, the default only evaluated
	// when the temp came in undefined.
	let, ok := h.Body.Body[0].(*ast.VariableDeclaration)
	require.True(t, ok)
	assert.Equal(t, ast.DeclLet, let.Kind)
	require.Len(t, let.Decls, 2)
	assert.Equal(t, "a", let.Decls[0].Target.(*ast.Identifier).Name)
	assert.Equal(t, "b", let.Decls[1].Target.(*ast.Identifier).Name)
	cond, ok := let.Decls[1].Init.(*ast.ConditionalExpression)
	require.True(t, ok)
	test, ok := cond.Test.(*ast.BinaryExpression)
	require.True(t, ok)
	assert.Equal(t, "!==", test.Op)
	alt, ok := cond.Alternate.(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "a", alt.Name)
}

func TestInstrumentLeavesSimpleParametersAlone(t *testing.T) {
	prog := counterProgram()
	// Taken before run: the module prelude is prepended to prog.Body.
	makeCounter := prog.Body[0].(*ast.FunctionDeclaration)
	run(t, prog, "counter.js")

	require.Len(t, makeCounter.Sig.Params, 1)
	id, ok := makeCounter.Sig.Params[0].(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "start", id.Name)
}

// constViolationProgram builds a strict-mode
// `const c = 1; function f() { c = 2; }`.
func constViolationProgram(update bool) *ast.Program {
	var write ast.Expr = &ast.AssignmentExpression{
		Left:  &ast.Identifier{Name: "c"},
		Op:    "=",
		Right: &ast.Literal{Kind: ast.LiteralNumber, Raw: "2", Value: 2.0},
	}
	if update {
		write = &ast.UpdateExpression{Op: "++", Arg: &ast.Identifier{Name: "c"}}
	}
	return &ast.Program{
		Filename: "const.js",
		Strict:   true,
		Body: []ast.Stmt{
			&ast.VariableDeclaration{
				Kind: ast.DeclConst,
				Decls: []*ast.VariableDeclarator{{
					Target: &ast.Identifier{Name: "c"},
					Init:   &ast.Literal{Kind: ast.LiteralNumber, Raw: "1", Value: 1.0},
				}},
			},
			&ast.FunctionDeclaration{
				Name: &ast.Identifier{Name: "f"},
				Sig:  &ast.FuncSignature{},
				Body: &ast.BlockStatement{Body: []ast.Stmt{&ast.ExpressionStatement{Expr: write}}},
			},
		},
	}
}

func TestInstrumentConstViolationThrows(t *testing.T) {
	prog := constViolationProgram(false)
	// Taken before run: the module prelude is prepended to prog.Body.
	f := prog.Body[1].(*ast.FunctionDeclaration)
	result := run(t, prog, "const.js")

	fMeta := fnMeta(t, result.Metadata, 1)
	require.NotEmpty(t, fMeta.Amendments)
	assert.Equal(t, "const-violation-const", fMeta.Amendments[0].Kind)

	var assign *ast.AssignmentExpression
	for _, s := range f.Body.Body {
		if es, ok := s.(*ast.ExpressionStatement); ok {
			if a, ok := es.Expr.(*ast.AssignmentExpression); ok {
				assign = a
			}
		}
	}
	require.NotNil(t, assign)
	seq, ok := assign.Right.(*ast.SequenceExpression)
	require.True(t, ok, "the write must be sequenced after a throwing expression")
	require.Len(t, seq.Exprs, 2)
	_, ok = seq.Exprs[0].(*ast.CallExpression)
	assert.True(t, ok)
}

func TestInstrumentConstViolationOnUpdateExpression(t *testing.T) {
	prog := constViolationProgram(true)
	// Taken before run: the module prelude is prepended to prog.Body.
	f := prog.Body[1].(*ast.FunctionDeclaration)
	run(t, prog, "const.js")

	var seq *ast.SequenceExpression
	for _, s := range f.Body.Body {
		if es, ok := s.(*ast.ExpressionStatement); ok {
			if sq, ok := es.Expr.(*ast.SequenceExpression); ok {
				seq = sq
			}
		}
	}
	require.NotNil(t, seq, "c++ must be replaced by a throw-then-update sequence")
	require.Len(t, seq.Exprs, 2)
	_, ok := seq.Exprs[1].(*ast.UpdateExpression)
	assert.True(t, ok)
}

func TestInstrumentSilentConstWriteLeftAlone(t *testing.T) {
	// Sloppy mode: a function expression writing its own name fails
	// silently at runtime, so the assignment stays untouched and the
	// amendment records the silent flavor.
	write := &ast.AssignmentExpression{
		Left:  &ast.Identifier{Name: "foo"},
		Op:    "=",
		Right: &ast.Literal{Kind: ast.LiteralNumber, Raw: "1", Value: 1.0},
	}
	fn := &ast.FunctionExpression{
		Name: &ast.Identifier{Name: "foo"},
		Sig:  &ast.FuncSignature{},
		Body: &ast.BlockStatement{Body: []ast.Stmt{&ast.ExpressionStatement{Expr: write}}},
	}
	prog := &ast.Program{Filename: "silent.js", Body: []ast.Stmt{
		&ast.ExpressionStatement{Expr: fn},
	}}
	result := run(t, prog, "silent.js")

	fooMeta := fnMeta(t, result.Metadata, 1)
	require.NotEmpty(t, fooMeta.Amendments)
	assert.Equal(t, "const-violation-fn-silent", fooMeta.Amendments[0].Kind)

	_, stillLiteral := write.Right.(*ast.Literal)
	assert.True(t, stillLiteral, "a silent const write needs no rewrite")
}

func TestInstrumentSwitchBodyScopeID(t *testing.T) {
	// function f(sel) { switch (sel) { case 1: let y = 1; return () => y; } }
	sw := &ast.SwitchStatement{
		Discriminant: &ast.Identifier{Name: "sel"},
		Cases: []*ast.SwitchCase{{
			Test: &ast.Literal{Kind: ast.LiteralNumber, Raw: "1", Value: 1.0},
			Body: []ast.Stmt{
				&ast.VariableDeclaration{
					Kind: ast.DeclLet,
					Decls: []*ast.VariableDeclarator{{
						Target: &ast.Identifier{Name: "y"},
						Init:   &ast.Literal{Kind: ast.LiteralNumber, Raw: "1", Value: 1.0},
					}},
				},
				&ast.ReturnStatement{Arg: &ast.ArrowFunctionExpression{
					Sig:      &ast.FuncSignature{},
					Body:     &ast.Identifier{Name: "y"},
					ExprBody: true,
				}},
			},
		}},
	}
	f := &ast.FunctionDeclaration{
		Name: &ast.Identifier{Name: "f"},
		Sig:  &ast.FuncSignature{Params: []ast.Pattern{&ast.Identifier{Name: "sel"}}},
		Body: &ast.BlockStatement{Body: []ast.Stmt{sw}},
	}
	prog := &ast.Program{Filename: "switch.js", Body: []ast.Stmt{f}, Strict: true}
	run(t, prog, "switch.js")

	// The switch body owns no statement list, so the slot is hoisted as an
	// uninitialized let in f's body and assigned along with the
	// discriminant's evaluation.
	let, ok := f.Body.Body[0].(*ast.VariableDeclaration)
	require.True(t, ok)
	assert.Equal(t, ast.DeclLet, let.Kind)
	target, ok := let.Decls[0].Target.(*ast.Identifier)
	require.True(t, ok)
	assert.Contains(t, target.Name, "scopeId_")
	assert.Nil(t, let.Decls[0].Init)

	seq, ok := sw.Discriminant.(*ast.SequenceExpression)
	require.True(t, ok, "the discriminant must carry the scope-id assignment")
	require.Len(t, seq.Exprs, 2)
	assign, ok := seq.Exprs[0].(*ast.AssignmentExpression)
	require.True(t, ok)
	assert.Contains(t, assign.Left.(*ast.Identifier).Name, "scopeId_")
	sel, ok := seq.Exprs[1].(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "sel", sel.Name)
}

func TestInstrumentWrapsBracelessLoopBody(t *testing.T) {
	// function f() { const fns = []; for (let i = 0; i < 3; i++) fns.push(() => i); return fns; }
	loop := &ast.ForStatement{
		Init: &ast.VariableDeclaration{
			Kind: ast.DeclLet,
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
		Body: &ast.ExpressionStatement{Expr: &ast.CallExpression{
			Callee: &ast.MemberExpression{Object: &ast.Identifier{Name: "fns"}, Property: &ast.Identifier{Name: "push"}},
			Args: []ast.Expr{&ast.ArrowFunctionExpression{
				Sig:      &ast.FuncSignature{},
				Body:     &ast.Identifier{Name: "i"},
				ExprBody: true,
			}},
		}},
	}
	f := &ast.FunctionDeclaration{
		Name: &ast.Identifier{Name: "f"},
		Sig:  &ast.FuncSignature{},
		Body: &ast.BlockStatement{Body: []ast.Stmt{
			&ast.VariableDeclaration{
				Kind: ast.DeclConst,
				Decls: []*ast.VariableDeclarator{{
					Target: &ast.Identifier{Name: "fns"},
					Init:   &ast.ArrayExpression{},
				}},
			},
			loop,
			&ast.ReturnStatement{Arg: &ast.Identifier{Name: "fns"}},
		}},
	}
	prog := &ast.Program{Filename: "loop.js", Body: []ast.Stmt{f}, Strict: true}
	run(t, prog, "loop.js")

	// The loop body was not a block, but the arrow captured i from the
	// loop's own scope, so the body gets wrapped and the scope-id
	// initializer runs once per iteration.
	bs, ok := loop.Body.(*ast.BlockStatement)
	require.True(t, ok, "braceless loop body must be wrapped once a scope id is needed")
	assert.True(t, bs.Internal)
	require.Len(t, bs.Body, 2)
	decl, ok := bs.Body[0].(*ast.VariableDeclaration)
	require.True(t, ok)
	assert.Equal(t, ast.DeclConst, decl.Kind)
	assert.Contains(t, decl.Decls[0].Target.(*ast.Identifier).Name, "scopeId_")
	_, ok = bs.Body[1].(*ast.ExpressionStatement)
	assert.True(t, ok)
}

func TestInstrumentCatchBindingScopeID(t *testing.T) {
	// function f() { try {} catch (e) { return () => e; } }
	catch := &ast.CatchClause{
		Param: &ast.Identifier{Name: "e"},
		Body: &ast.BlockStatement{Body: []ast.Stmt{
			&ast.ReturnStatement{Arg: &ast.ArrowFunctionExpression{
				Sig:      &ast.FuncSignature{},
				Body:     &ast.Identifier{Name: "e"},
				ExprBody: true,
			}},
		}},
	}
	f := &ast.FunctionDeclaration{
		Name: &ast.Identifier{Name: "f"},
		Sig:  &ast.FuncSignature{},
		Body: &ast.BlockStatement{Body: []ast.Stmt{
			&ast.TryStatement{Block: &ast.BlockStatement{}, Handler: catch},
		}},
	}
	prog := &ast.Program{Filename: "catch.js", Body: []ast.Stmt{f}, Strict: true}
	run(t, prog, "catch.js")

	decl, ok := catch.Body.Body[0].(*ast.VariableDeclaration)
	require.True(t, ok, "the caught binding's scope id must open the catch body")
	assert.Equal(t, ast.DeclConst, decl.Kind)
	assert.Contains(t, decl.Decls[0].Target.(*ast.Identifier).Name, "scopeId_")
}

func TestInstrumentLabelsAreNotReferences(t *testing.T) {
	prog := &ast.Program{
		Filename: "label.js",
		Strict:   true,
		Body: []ast.Stmt{
			&ast.LabeledStatement{
				Label: &ast.Identifier{Name: "outer"},
				Body: &ast.ForStatement{
					Body: &ast.BlockStatement{Body: []ast.Stmt{
						&ast.BreakStatement{Label: &ast.Identifier{Name: "outer"}},
					}},
				},
			},
		},
	}
	result := run(t, prog, "label.js")
	assert.NotContains(t, fnMeta(t, result.Metadata, 0).GlobalNames, "outer")
}

func TestInstrumentPrefixEscalationOnCollision(t *testing.T) {
	// A user identifier already shaped like an injected name forces every
	// injected name onto the next numeric prefix.
	prog := &ast.Program{
		Filename: "collide.js",
		Strict:   true,
		Body: []ast.Stmt{
			&ast.VariableDeclaration{
				Kind: ast.DeclVar,
				Decls: []*ast.VariableDeclarator{{
					Target: &ast.Identifier{Name: "livepack_x"},
					Init:   &ast.Literal{Kind: ast.LiteralNumber, Raw: "1", Value: 1.0},
				}},
			},
			&ast.FunctionDeclaration{
				Name: &ast.Identifier{Name: "f"},
				Sig:  &ast.FuncSignature{},
				Body: &ast.BlockStatement{Body: []ast.Stmt{
					&ast.ReturnStatement{Arg: &ast.Identifier{Name: "livepack_x"}},
				}},
			},
		},
	}
	result := run(t, prog, "collide.js")

	decl, ok := result.Program.Body[0].(*ast.VariableDeclaration)
	require.True(t, ok)
	pat, ok := decl.Decls[0].Target.(*ast.ArrayPattern)
	require.True(t, ok)
	tracker, ok := pat.Elems[0].(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "livepack1_tracker", tracker.Name)

	// No injected name in the whole tree collides with the user's.
	var check ast.VisitorFunc
	check = func(n ast.Node, dir ast.VisitDirection) ast.Visitor {
		if dir != ast.VisitEnter {
			return nil
		}
		if id, ok := n.(*ast.Identifier); ok && id.Internal {
			assert.NotEqual(t, "livepack_x", id.Name)
			assert.False(t, strings.HasPrefix(id.Name, "livepack_"),
				"injected name %q kept the colliding prefix", id.Name)
		}
		return check
	}
	ast.Walk(check, result.Program)
}

func TestInstrumentRejectsSuperInArrowWithRedefinedArguments(t *testing.T) {
	// Sloppy mode: { m() { var arguments; return () => super.x; } } is
	// the one super shape the rewriter refuses.
	obj := &ast.ObjectExpression{Items: []*ast.KeyVal{{
		Key:    &ast.Identifier{Name: "m"},
		Method: true,
		Value: &ast.FunctionExpression{
			Sig: &ast.FuncSignature{},
			Body: &ast.BlockStatement{Body: []ast.Stmt{
				&ast.VariableDeclaration{
					Kind:  ast.DeclVar,
					Decls: []*ast.VariableDeclarator{{Target: &ast.Identifier{Name: "arguments"}}},
				},
				&ast.ReturnStatement{Arg: &ast.ArrowFunctionExpression{
					Sig: &ast.FuncSignature{},
					Body: &ast.MemberExpression{
						Object:   &ast.Super{},
						Property: &ast.Identifier{Name: "x"},
					},
					ExprBody: true,
				}},
			}},
		},
	}}}
	prog := &ast.Program{Filename: "badsuper.js", Body: []ast.Stmt{
		&ast.ExpressionStatement{Expr: obj},
	}}

	_, err := instrument.Instrument(prog, token.NewFileSet(), instrument.Options{Filename: "badsuper.js"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "super-in-arrow-redefined-arguments")
}

func TestInstrumentImportExpressionFlags(t *testing.T) {
	prog := &ast.Program{
		Filename: "import.js",
		Strict:   true,
		Body: []ast.Stmt{
			&ast.FunctionDeclaration{
				Name: &ast.Identifier{Name: "load"},
				Sig:  &ast.FuncSignature{},
				Body: &ast.BlockStatement{Body: []ast.Stmt{
					&ast.ReturnStatement{Arg: &ast.ImportExpression{
						Arg: &ast.Literal{Kind: ast.LiteralString, Raw: `"./x"`, Value: "./x"},
					}},
				}},
			},
		},
	}
	result := run(t, prog, "import.js")
	assert.True(t, fnMeta(t, result.Metadata, 1).ContainsImport)
	assert.True(t, fnMeta(t, result.Metadata, 0).ContainsImport)
}

func TestInstrumentDestructuringAssignmentRecordsWrites(t *testing.T) {
	// function f() { let a = 1, b = 2; return () => { [a, b] = [b, a]; }; }
	// The arrow writes both captured bindings through the pattern, and reads
	// them on the right-hand side.
	arrow := &ast.ArrowFunctionExpression{
		Sig: &ast.FuncSignature{},
		Body: &ast.BlockStatement{Body: []ast.Stmt{
			&ast.ExpressionStatement{Expr: &ast.AssignmentExpression{
				Left: &ast.ArrayPattern{Elems: []ast.Pattern{
					&ast.Identifier{Name: "a"},
					&ast.Identifier{Name: "b"},
				}},
				Op: "=",
				Right: &ast.ArrayExpression{Items: []ast.Expr{
					&ast.Identifier{Name: "b"},
					&ast.Identifier{Name: "a"},
				}},
			}},
		}},
	}
	f := &ast.FunctionDeclaration{
		Name: &ast.Identifier{Name: "f"},
		Sig:  &ast.FuncSignature{},
		Body: &ast.BlockStatement{Body: []ast.Stmt{
			&ast.VariableDeclaration{
				Kind: ast.DeclLet,
				Decls: []*ast.VariableDeclarator{
					{Target: &ast.Identifier{Name: "a"}, Init: &ast.Literal{Kind: ast.LiteralNumber, Raw: "1", Value: 1.0}},
					{Target: &ast.Identifier{Name: "b"}, Init: &ast.Literal{Kind: ast.LiteralNumber, Raw: "2", Value: 2.0}},
				},
			},
			&ast.ReturnStatement{Arg: arrow},
		}},
	}
	prog := &ast.Program{Filename: "swap.js", Body: []ast.Stmt{f}, Strict: true}
	result := run(t, prog, "swap.js")

	arrowMeta := fnMeta(t, result.Metadata, 2)
	require.Len(t, arrowMeta.CapturedScopes, 1)
	vars := arrowMeta.CapturedScopes[0].Vars
	require.Len(t, vars, 2)
	for _, v := range vars {
		assert.Equal(t, 1, v.WritesTo, "%s is written through the pattern", v.Name)
		assert.Equal(t, 1, v.ReadsFrom, "%s is read on the right-hand side", v.Name)
	}
}

func TestInstrumentRejectsStraySuper(t *testing.T) {
	// `return super;` from a method body: super is only valid as a call
	// target or member object, anything else has no visitor-table entry.
	obj := &ast.ObjectExpression{Items: []*ast.KeyVal{{
		Key:    &ast.Identifier{Name: "m"},
		Method: true,
		Value: &ast.FunctionExpression{
			Sig: &ast.FuncSignature{},
			Body: &ast.BlockStatement{Body: []ast.Stmt{
				&ast.ReturnStatement{Arg: &ast.Super{}},
			}},
		},
	}}}
	prog := &ast.Program{Filename: "stray.js", Strict: true, Body: []ast.Stmt{
		&ast.ExpressionStatement{Expr: obj},
	}}

	_, err := instrument.Instrument(prog, token.NewFileSet(), instrument.Options{Filename: "stray.js"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected-node")
}

func TestInstrumentRejectsHintWithoutDeclaration(t *testing.T) {
	// The producer tagged the occurrence as a let binding but nothing in the
	// tree declares it: the hint and the tree disagree.
	prog := &ast.Program{Filename: "hint.js", Strict: true, Body: []ast.Stmt{
		&ast.ExpressionStatement{Expr: &ast.Identifier{Name: "ghost", Hint: ast.HintLet}},
	}}

	_, err := instrument.Instrument(prog, token.NewFileSet(), instrument.Options{Filename: "hint.js"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "binding-unresolvable")
}

func TestInstrumentModuleInternalAndGlobalClassification(t *testing.T) {
	// let shared = 1; function f() { shared; missing; }
	prog := &ast.Program{
		Filename: "names.js",
		Strict:   true,
		Body: []ast.Stmt{
			&ast.VariableDeclaration{
				Kind: ast.DeclLet,
				Decls: []*ast.VariableDeclarator{{
					Target: &ast.Identifier{Name: "shared"},
					Init:   &ast.Literal{Kind: ast.LiteralNumber, Raw: "1", Value: 1.0},
				}},
			},
			&ast.FunctionDeclaration{
				Name: &ast.Identifier{Name: "f"},
				Sig:  &ast.FuncSignature{},
				Body: &ast.BlockStatement{Body: []ast.Stmt{
					&ast.ExpressionStatement{Expr: &ast.Identifier{Name: "shared"}},
					&ast.ExpressionStatement{Expr: &ast.Identifier{Name: "missing"}},
				}},
			},
		},
	}
	result := run(t, prog, "names.js")

	fMeta := fnMeta(t, result.Metadata, 1)
	assert.Contains(t, fMeta.InternalVars, "shared")
	assert.Contains(t, fMeta.GlobalNames, "missing")
	assert.Empty(t, fMeta.CapturedScopes, "module-level bindings are internal, not captured")
}
