package instrument

import "github.com/livepack-go/scopetrace/lang/ast"

// hasUseStrictDirective reports whether body opens with a "use strict"
// directive prologue entry.
func hasUseStrictDirective(body *ast.BlockStatement) bool {
	for _, stmt := range body.Body {
		d, ok := stmt.(*ast.Directive)
		if !ok {
			return false // directives only ever lead the prologue
		}
		if d.Value == "use strict" {
			return true
		}
	}
	return false
}

func (d *Driver) enterProgram(node *ast.Program) {
	root := d.Blocks.New(BlockProgram, NoBlock, ModuleFunc)
	root.Prepend = func(s ast.Stmt) { node.Body = append([]ast.Stmt{s}, node.Body...) }
	moduleFr := d.Funcs.Get(ModuleFunc)
	moduleFr.Node = node
	moduleFr.ParamBlock = root.ID
	moduleFr.BodyBlock = root.ID
	moduleFr.IsStrict = node.Strict

	d.pushFunc(ModuleFunc)
	d.pushBlock(root)

	for _, name := range CommonModuleNames {
		d.registerBinding(&ast.Identifier{Name: name, Internal: true}, ast.HintModuleLocal, root, false)
	}
}

func (d *Driver) exitProgram(node *ast.Program) {
	d.Funcs.Get(ModuleFunc).FinalizeCaptures()
	d.popBlock()
	d.popFunc()
}

// bindParamsAndOpen is shared by every function-like node: it allocates the
// param and body blocks, binds every parameter pattern into the param
// block, and pushes both blocks so the rest of the walk (default-value
// expressions, then the body itself) resolves names against them. bodyNode
// is either a *ast.BlockStatement (the common case) or an Expr (an arrow
// function's concise body).
func (d *Driver) bindParamsAndOpen(name string, sig *ast.FuncSignature, bodyNode ast.Node, fr *FunctionRecord) {
	fr.IsStrict = d.Funcs.Get(fr.Parent).IsStrict || fr.IsStrict

	paramBlock := d.Blocks.New(BlockParam, d.currentBlock(), fr.ID)
	bodyBlock := d.Blocks.New(BlockBody, paramBlock.ID, fr.ID)
	paramBlock.VarsBlock = bodyBlock.ID
	paramBlock.Name = name
	bodyBlock.Name = name
	fr.ParamBlock = paramBlock.ID
	fr.BodyBlock = bodyBlock.ID

	// The caller is responsible for having already pushed fr.ID onto the
	// function stack: a class's constructor needs the class's own record
	// current before its MethodDefinition is even reached, so that push
	// can't happen here uniformly for every caller.
	d.pushBlock(paramBlock)
	for _, p := range sig.Params {
		d.bindPattern(p, ast.HintParam, paramBlock)
	}
	d.pushBlock(bodyBlock)

	if bs, ok := bodyNode.(*ast.BlockStatement); ok {
		if hasUseStrictDirective(bs) {
			fr.IsStrict = true
		}
		d.noOwnBlock[bs] = true
		prepend := func(s ast.Stmt) { bs.Body = append([]ast.Stmt{s}, bs.Body...) }
		bodyBlock.Prepend = prepend
		paramBlock.Prepend = prepend
	}

	// The arguments object aliases named parameters only in a sloppy-mode
	// function whose parameter list is all plain identifiers; in every
	// other shape the alias list is empty.
	if !fr.IsArrow && !fr.IsStrict {
		names := make([]string, 0, len(sig.Params))
		for _, p := range sig.Params {
			id, ok := p.(*ast.Identifier)
			if !ok {
				names = nil
				break
			}
			names = append(names, id.Name)
		}
		fr.ArgNames = names
	}
}

// exitFunction is the common teardown for every function-like node:
// finalize its captures, pop the body/param blocks (and, for a named
// function expression, its name block), and pop the function stack.
func (d *Driver) exitFunction() {
	fr := d.Funcs.Get(d.currentFunc())
	fr.FinalizeCaptures()

	d.popBlock() // bodyBlock
	d.popBlock() // paramBlock

	named := false
	if n := len(d.nameBlockStack); n > 0 {
		named = d.nameBlockStack[n-1]
		d.nameBlockStack = d.nameBlockStack[:n-1]
	}
	if named {
		d.popBlock() // nameBlock
	}

	d.popFunc()
}

func (d *Driver) enterFunctionDeclaration(node *ast.FunctionDeclaration) {
	if node.Name != nil {
		d.registerBinding(node.Name, ast.HintHoisted, d.Blocks.Get(d.currentBlock()), false)
	}
	fr := d.Funcs.New(d.currentFunc())
	fr.Node = node
	fr.Trail = d.trail.Clone()
	fr.Kind = ast.KindFromFlags(node.Async, node.Gen)
	node.Function = fr

	d.nameBlockStack = append(d.nameBlockStack, false)
	d.pushFunc(fr.ID)
	name := ""
	if node.Name != nil {
		name = node.Name.Name
	}
	d.bindParamsAndOpen(name, node.Sig, node.Body, fr)
}

func (d *Driver) enterFunctionExpression(node *ast.FunctionExpression) {
	fr := d.Funcs.New(d.currentFunc())
	fr.Node = node
	fr.Trail = d.trail.Clone()
	fr.Kind = ast.KindFromFlags(node.Async, node.Gen)
	node.Function = fr

	name := ""
	if node.Name != nil {
		name = node.Name.Name
		nameBlock := d.Blocks.New(BlockFuncExprName, d.currentBlock(), fr.ID)
		nameBlock.Name = name
		fr.NameBlock = nameBlock.ID
		d.registerBinding(node.Name, ast.HintConst, nameBlock, true)
		d.pushBlock(nameBlock)
		d.nameBlockStack = append(d.nameBlockStack, true)
	} else {
		d.nameBlockStack = append(d.nameBlockStack, false)
	}
	d.pushFunc(fr.ID)
	d.bindParamsAndOpen(name, node.Sig, node.Body, fr)

	// A named function expression's self-reference scope is instantiated
	// per evaluation of the expression, but its one binding is immutable,
	// so the body's own prologue is a sound place to materialize it.
	if fr.NameBlock != NoBlock {
		d.Blocks.Get(fr.NameBlock).Prepend = d.Blocks.Get(fr.BodyBlock).Prepend
	}
}

func (d *Driver) enterArrow(node *ast.ArrowFunctionExpression) {
	fr := d.Funcs.New(d.currentFunc())
	fr.Node = node
	fr.Trail = d.trail.Clone()
	fr.IsArrow = true
	if node.Async {
		fr.Kind = ast.FuncAsync
	} else {
		fr.Kind = ast.FuncPlain
	}
	node.Function = fr

	d.nameBlockStack = append(d.nameBlockStack, false)
	d.pushFunc(fr.ID)
	d.bindParamsAndOpen("", node.Sig, node.Body, fr)

	// A concise-body arrow has no statement list; give its blocks a hook
	// that converts the body to a block (preserving the returned value) the
	// first time a prologue statement actually needs a home.
	if node.ExprBody {
		prepend := func(s ast.Stmt) {
			bs, ok := node.Body.(*ast.BlockStatement)
			if !ok {
				bs = &ast.BlockStatement{Internal: true, Body: []ast.Stmt{
					&ast.ReturnStatement{Arg: node.Body.(ast.Expr)},
				}}
				node.Body = bs
				node.ExprBody = false
			}
			bs.Body = append([]ast.Stmt{s}, bs.Body...)
		}
		d.Blocks.Get(fr.ParamBlock).Prepend = prepend
		d.Blocks.Get(fr.BodyBlock).Prepend = prepend
	}
}

func (d *Driver) enterMethod(node *ast.MethodDefinition) {
	keyName := ""
	if id, ok := node.Key.(*ast.Identifier); ok && !node.Computed {
		keyName = id.Name
	}

	if node.IsConstructor {
		// The constructor is not given its own function record; its
		// param/body scope belongs to the enclosing class's record,
		// already current on the function stack since enterClass pushed it
		// before visiting any member.
		classFr := d.Funcs.Get(d.currentFunc())
		classFr.IsConstructor = true
		d.nameBlockStack = append(d.nameBlockStack, false)
		d.bindParamsAndOpen(keyName, node.Sig, node.Body, classFr)
		return
	}

	fr := d.Funcs.New(d.currentFunc())
	fr.Node = node
	fr.Trail = d.trail.Clone()
	fr.Kind = ast.KindFromFlags(node.Async, node.Gen)
	fr.IsMethod = true
	fr.IsStatic = node.Static
	fr.IsStrict = true // class bodies are always strict
	node.Function = fr

	d.nameBlockStack = append(d.nameBlockStack, false)
	d.pushFunc(fr.ID)
	d.bindParamsAndOpen(keyName, node.Sig, node.Body, fr)
}

func (d *Driver) exitMethod(node *ast.MethodDefinition) {
	if node.IsConstructor {
		classFr := d.Funcs.Get(d.currentFunc())
		if classFr.IsDerived {
			recordFirstSuperStatement(classFr, node.Body)
		}
		// Pop the blocks, but not the function stack: enterClass owns that
		// frame and exitClass will tear it down once every member has been
		// visited.
		d.popBlock() // bodyBlock
		d.popBlock() // paramBlock
		if n := len(d.nameBlockStack); n > 0 {
			d.nameBlockStack = d.nameBlockStack[:n-1]
		}
		return
	}
	d.exitFunction()
}

// recordFirstSuperStatement finds the first top-level `super(...)` call in
// a derived constructor's body and records its statement index, noting
// whether it is also the last statement. The serializer uses both to
// decide how `this` must be re-routed; no rewrite happens here.
func recordFirstSuperStatement(fr *FunctionRecord, body *ast.BlockStatement) {
	for i, s := range body.Body {
		es, ok := s.(*ast.ExpressionStatement)
		if !ok {
			continue
		}
		call, ok := es.Expr.(*ast.CallExpression)
		if !ok {
			continue
		}
		if _, isSuper := call.Callee.(*ast.Super); isSuper {
			fr.FirstSuperStmtIndex = i
			fr.ReturnsSuper = i == len(body.Body)-1
			return
		}
	}
}

// enterClass is shared by ClassDeclaration and ClassExpression. name binds
// in the enclosing scope (declaration) or in a private name-block visible
// only inside the class body (expression); superExpr, if present, is an
// ordinary expression resolved in the *enclosing* scope, evaluated once
// before the class's own scope opens.
func (d *Driver) enterClass(node ast.Node, name *ast.Identifier, superExpr ast.Expr, body *ast.ClassBody, functionField *any) {
	d.superOwnerBlocks[node] = d.currentBlock()

	fr := d.Funcs.New(d.currentFunc())
	fr.Node = node
	fr.Trail = d.trail.Clone()
	fr.Kind = ast.FuncClass
	fr.IsDerived = superExpr != nil
	*functionField = fr

	if _, isDecl := node.(*ast.ClassDeclaration); isDecl && name != nil {
		d.registerBinding(name, ast.HintConst, d.Blocks.Get(d.currentBlock()), false)
		d.nameBlockStack = append(d.nameBlockStack, false)
	} else if name != nil {
		nameBlock := d.Blocks.New(BlockClassName, d.currentBlock(), fr.ID)
		nameBlock.Name = name.Name
		fr.NameBlock = nameBlock.ID
		d.registerBinding(name, ast.HintConst, nameBlock, true)
		d.pushBlock(nameBlock)
		d.nameBlockStack = append(d.nameBlockStack, true)
	} else {
		d.nameBlockStack = append(d.nameBlockStack, false)
	}

	fr.IsStrict = true // class bodies are always strict
	d.superOwners = append(d.superOwners, node)

	superBlock := d.Blocks.New(BlockClassSuper, d.currentBlock(), fr.ID)
	fr.SuperBlock = superBlock.ID
	d.pushBlock(superBlock)

	d.pushFunc(fr.ID)

	// A class with no explicit constructor still has param/body blocks
	// (an implicit constructor), so capture/const bookkeeping during field
	// initializers has somewhere to live.
	if !classHasConstructor(body) {
		className := ""
		if name != nil {
			className = name.Name
		}
		d.bindParamsAndOpen(className, &ast.FuncSignature{}, nil, fr)
	}
}

func classHasConstructor(body *ast.ClassBody) bool {
	for _, m := range body.Methods {
		if m.IsConstructor {
			return true
		}
	}
	return false
}

func (d *Driver) exitClass(body *ast.ClassBody) {
	if !classHasConstructor(body) {
		d.popBlock() // bodyBlock
		d.popBlock() // paramBlock
	}

	fr := d.Funcs.Get(d.currentFunc())
	fr.FinalizeCaptures()
	d.popFunc()

	d.superOwners = d.superOwners[:len(d.superOwners)-1]
	d.popBlock() // superBlock

	named := false
	if n := len(d.nameBlockStack); n > 0 {
		named = d.nameBlockStack[n-1]
		d.nameBlockStack = d.nameBlockStack[:n-1]
	}
	if named {
		d.popBlock() // nameBlock

		// A named class expression's self-reference binding materializes
		// with the class itself; its prologue home is the constructor's
		// body when one exists.
		if fr.NameBlock != NoBlock && fr.BodyBlock != NoBlock {
			if bb := d.Blocks.Get(fr.BodyBlock); bb != nil {
				d.Blocks.Get(fr.NameBlock).Prepend = bb.Prepend
			}
		}
	}
}
