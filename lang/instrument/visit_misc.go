package instrument

import (
	"github.com/livepack-go/scopetrace/lang/ast"
	"github.com/livepack-go/scopetrace/lang/ierr"
)

// enterVariableDeclaration binds every declarator's pattern into the right
// block: `let`/`const` stay block-scoped in the current block, `var` hoists
// past nested blocks to the nearest enclosing function body (or the
// program's root block).
func (d *Driver) enterVariableDeclaration(node *ast.VariableDeclaration) {
	hint := ast.HintVar
	switch node.Kind {
	case ast.DeclLet:
		hint = ast.HintLet
	case ast.DeclConst:
		hint = ast.HintConst
	}

	block := d.Blocks.Get(d.currentBlock())
	target := block
	if node.Kind == ast.DeclVar {
		for target.Kind != BlockBody && target.Kind != BlockProgram && target.Parent != NoBlock {
			target = d.Blocks.Get(target.Parent)
		}
		target = d.Blocks.Get(target.VarsBlock)
	}
	for _, decl := range node.Decls {
		d.bindPattern(decl.Target, hint, target)
	}
}

// enterCatch opens the caught binding's own scope; the catch body's braces
// open their second, inner scope through the generic BlockStatement case.
func (d *Driver) enterCatch(node *ast.CatchClause) {
	b := d.newBlock(BlockCatchParam)
	b.Prepend = func(s ast.Stmt) { node.Body.Body = append([]ast.Stmt{s}, node.Body.Body...) }
	d.pushBlock(b)
	if node.Param != nil {
		d.bindPattern(node.Param, ast.HintLet, b)
	}
}

func (d *Driver) enterForHead(node *ast.ForStatement) {
	b := d.newBlock(BlockForHead)
	b.Prepend = bodyPrepender(func() ast.Stmt { return node.Body }, func(s ast.Stmt) { node.Body = s })
	d.pushBlock(b)
	// node.Init, if a *ast.VariableDeclaration, is visited generically by
	// ForStatement.Walk and bound through the normal enterVariableDeclaration
	// path, which targets `b` as the current block (a `var` climbs on to the
	// enclosing function body).
}

func (d *Driver) enterForInHead(node *ast.ForInStatement) {
	b := d.newBlock(BlockForHead)
	b.Prepend = bodyPrepender(func() ast.Stmt { return node.Body }, func(s ast.Stmt) { node.Body = s })
	d.pushBlock(b)
	if decl, ok := node.Left.(*ast.VariableDeclaration); ok {
		hint := ast.HintVar
		switch decl.Kind {
		case ast.DeclLet:
			hint = ast.HintLet
		case ast.DeclConst:
			hint = ast.HintConst
		}
		for _, dd := range decl.Decls {
			d.bindPattern(dd.Target, hint, b)
		}
	} else if ident, ok := node.Left.(*ast.Identifier); ok {
		d.resolveRef(ident, false, true)
		d.handled[ident] = true
	} else if pat, ok := node.Left.(ast.Pattern); ok {
		d.resolvePatternWrites(pat)
	}
}

// visitThis resolves a `this` reference. Inside a non-arrow function `this`
// is the function's own and needs no bookkeeping, except in a derived
// class's constructor, where the serializer must re-route it through a
// temporary (it is unreadable before super() has run). Inside an arrow,
// `this` belongs to the nearest enclosing non-arrow function and is
// threaded through every arrow in between as a captured synthetic binding.
func (d *Driver) visitThis(node *ast.ThisExpression) {
	fr := d.Funcs.Get(d.currentFunc())
	if !fr.IsArrow {
		if fr.Kind == ast.FuncClass && fr.IsDerived {
			fr.InternalVars["this"] = struct{}{}
		}
		return
	}
	d.captureImplicit("this", true, false)
	if owner := d.nearestNonArrow(); owner != nil && owner.Kind == ast.FuncClass && owner.IsDerived {
		owner.InternalVars["this"] = struct{}{}
	}
}

// visitArguments handles an unshadowed `arguments` reference. It reports
// true when the reference was claimed as the implicit arguments object of
// an enclosing function (so the caller must not record it as a global).
func (d *Driver) visitArguments(read, write bool) bool {
	if d.currentFunc() == ModuleFunc {
		return false
	}
	owner := d.nearestNonArrow()
	if owner == nil || owner.ID == ModuleFunc {
		return false
	}
	owner.UsesArguments = true
	if owner.ID != d.currentFunc() {
		d.captureImplicit("arguments", read, write)
	}
	return true
}

// nearestNonArrow returns the record of the closest enclosing function that
// is not an arrow (possibly the current one), or nil from module scope.
func (d *Driver) nearestNonArrow() *FunctionRecord {
	fn := d.currentFunc()
	for fr := d.Funcs.Get(fn); fr != nil; fr = d.Funcs.Get(fn) {
		if !fr.IsArrow {
			return fr
		}
		fn = fr.Parent
	}
	return nil
}

// enterCall detects the two call shapes that escalate instrumentation:
// `super(...)` in a derived constructor, and a direct `eval(...)` call
// (the escalation only fires for a bare, unqualified reference to the
// global `eval`, never `obj.eval(...)` and never a shadowing user binding).
func (d *Driver) enterCall(node *ast.CallExpression) {
	if _, ok := node.Callee.(*ast.Super); ok {
		d.recordSuperUse(AmendSuperCall, node)
		return
	}

	ident, ok := node.Callee.(*ast.Identifier)
	if !ok || ident.Name != "eval" {
		return
	}
	cls := d.Resolver.Resolve(d.currentBlock(), d.currentFunc(), "eval")
	if cls.Kind != BindGlobal {
		return // shadowed by a user binding named `eval`: an ordinary call
	}
	fr := d.Funcs.Get(d.currentFunc())
	fr.ContainsEval = true
	if len(node.Args) > 0 {
		fr.Amendments = append(fr.Amendments, &Amendment{
			Kind:  AmendEvalCall,
			Block: d.currentBlock(),
			Trail: d.trail.Clone(),
		})
	}
	d.handled[ident] = true
	for fn := fr; fn.Parent != NoFunc; fn = d.Funcs.Get(fn.Parent) {
		d.Funcs.Get(fn.Parent).ContainsEval = true
	}
	d.escalateEvalCaptures(fr)
}

// escalateEvalCaptures makes every statically-visible binding at a direct
// eval call site a mandatory capture: the dynamically-compiled code may
// reference any of them, so static escape analysis is void and each
// visible block gets a scope-id slot whether or not anything else captured
// from it.
func (d *Driver) escalateEvalCaptures(fr *FunctionRecord) {
	seen := make(map[string]bool)
	for b := d.Blocks.Get(d.currentBlock()); b != nil; b = d.Blocks.Get(b.Parent) {
		names := b.Names()
		if len(names) == 0 {
			continue
		}
		slot := d.IDs.AllocScopeID(b.ID)
		b.ScopeIDSlot = slot
		for _, name := range names {
			if seen[name] {
				continue
			}
			seen[name] = true
			if b.Func == fr.ID || b.Func == ModuleFunc {
				continue
			}
			bdg, _ := b.Lookup(name)
			for fn := fr.ID; fn != b.Func && fn != NoFunc; fn = d.Funcs.Get(fn).Parent {
				d.Funcs.Get(fn).Capture(b.ID, slot, name, true, false, bdg.IsFunctionName)
			}
		}
	}
}

func (d *Driver) enterImport(node *ast.ImportExpression) {
	for fn := d.currentFunc(); fn != NoFunc; fn = d.Funcs.Get(fn).Parent {
		d.Funcs.Get(fn).ContainsImport = true
	}
}

// enterMember records a deferred rewrite for `super.prop`/`super[expr]`,
// attributing it to the innermost super-target owner (a class record or an
// object literal) so the super-target rewriter knows which node needs a
// home-object slot.
func (d *Driver) enterMember(node *ast.MemberExpression) {
	if _, ok := node.Object.(*ast.Super); !ok {
		return
	}
	d.recordSuperUse(AmendSuperMember, node)
}

// recordSuperUse is shared by the super-call and super-member paths: it
// records the amendment, threads the synthetic `super` binding through the
// capture chain, and handles the `this` bookkeeping a super reference
// implies.
func (d *Driver) recordSuperUse(kind AmendmentKind, site ast.Node) {
	owner := d.currentSuperOwner()
	if owner == nil {
		start, _ := site.Span()
		d.fail(ierr.InternalInvariant, start, "super reference outside a method or constructor")
		return
	}
	fr := d.Funcs.Get(d.currentFunc())
	fr.PrependAmendment(&Amendment{
		Kind:       kind,
		Block:      d.superBlockOf(owner),
		Trail:      d.trail.Clone(),
		Owner:      owner,
		OwnerBlock: d.superOwnerBlocks[owner],
		IsStatic:   fr.IsStatic,
	})

	// Thread the synthetic `super` binding: the home object lives (as the
	// class's name or a minted temp) in the block enclosing the owner, so
	// every function from the use site out to that block's owner captures
	// it from there.
	ob := d.Blocks.Get(d.superOwnerBlocks[owner])
	if ob != nil {
		slot := d.IDs.AllocScopeID(ob.ID)
		ob.ScopeIDSlot = slot
		for fn := d.currentFunc(); fn != ob.Func && fn != NoFunc; fn = d.Funcs.Get(fn).Parent {
			rec := d.Funcs.Get(fn)
			rec.Capture(ob.ID, slot, "super", true, false, false)
			rec.UsesSuper = true
		}
	}
	fr.UsesSuper = true

	switch {
	case fr.Kind == ast.FuncClass && fr.IsDerived:
		// Inside a derived constructor `this` is re-routed through a
		// temporary by the serializer once super() has run.
		fr.InternalVars["this"] = struct{}{}
	case fr.IsArrow:
		d.checkSuperInArrow(site)
		d.captureImplicit("this", true, false)
	}
}

// checkSuperInArrow rejects the one super shape the rewriter cannot
// support: an arrow using super nested inside a sloppy-mode function that
// redefines `arguments` (the rewrite would need the implicit arguments
// object and the user binding at once).
func (d *Driver) checkSuperInArrow(site ast.Node) {
	owner := d.nearestNonArrow()
	if owner == nil || owner.IsStrict {
		return
	}
	for _, blk := range []BlockID{owner.ParamBlock, owner.BodyBlock} {
		b := d.Blocks.Get(blk)
		if b == nil {
			continue
		}
		if bdg, ok := b.Lookup("arguments"); ok && bdg.Node != nil {
			start, _ := site.Span()
			d.fail(ierr.SuperInArrowRedefinedArguments, start,
				"super used in an arrow function inside a sloppy-mode function that redefines arguments")
			return
		}
	}
}

// superBlockOf returns the super-resolution block for owner, creating the
// object-literal one lazily (classes allocate theirs on entry).
func (d *Driver) superBlockOf(owner ast.Node) BlockID {
	switch n := owner.(type) {
	case *ast.ClassDeclaration:
		if fr, ok := n.Function.(*FunctionRecord); ok {
			return fr.SuperBlock
		}
	case *ast.ClassExpression:
		if fr, ok := n.Function.(*FunctionRecord); ok {
			return fr.SuperBlock
		}
	case *ast.ObjectExpression:
		if id, ok := d.superBlocks[owner]; ok {
			return id
		}
		parent := d.superOwnerBlocks[owner]
		b := d.Blocks.New(BlockClassSuper, parent, d.Blocks.Get(parent).Func)
		d.superBlocks[owner] = b.ID
		return b.ID
	}
	return NoBlock
}

func (d *Driver) enterAssignment(node *ast.AssignmentExpression) {
	read := node.Op != "="
	switch left := node.Left.(type) {
	case *ast.Identifier:
		d.resolveRef(left, read, true)
		d.handled[left] = true
	case *ast.ArrayPattern, *ast.ObjectPattern:
		// Destructuring assignment declares no fresh bindings, but each leaf
		// is a write to an existing one, same as a sequence of `x = y`.
		d.resolvePatternWrites(left.(ast.Pattern))
	}
}

// resolvePatternWrites resolves the identifier leaves of a destructuring
// assignment target as writes. Default-value expressions inside the pattern
// are reads and stay on the generic path; a member-expression leaf writes a
// property, so its object is likewise an ordinary read.
func (d *Driver) resolvePatternWrites(pat ast.Pattern) {
	switch p := pat.(type) {
	case nil:
		return
	case *ast.Identifier:
		d.resolveRef(p, false, true)
		d.handled[p] = true
	case *ast.AssignmentPattern:
		d.resolvePatternWrites(p.Target)
	case *ast.RestElement:
		d.resolvePatternWrites(p.Arg)
	case *ast.ArrayPattern:
		for _, e := range p.Elems {
			if e != nil {
				d.resolvePatternWrites(e)
			}
		}
	case *ast.ObjectPattern:
		for _, prop := range p.Props {
			d.resolvePatternWrites(prop.Value)
		}
		if p.Rest != nil {
			d.resolvePatternWrites(p.Rest)
		}
	case *ast.MemberExpression:
	}
}

func (d *Driver) enterUpdate(node *ast.UpdateExpression) {
	if ident, ok := node.Arg.(*ast.Identifier); ok {
		d.resolveRef(ident, true, true)
		d.handled[ident] = true
	}
}

// currentSuperOwner returns the innermost class or object-literal node that
// a `super` reference seen right now would resolve against, or nil if
// `super` would be invalid here.
func (d *Driver) currentSuperOwner() ast.Node {
	if n := len(d.superOwners); n > 0 {
		return d.superOwners[n-1]
	}
	return nil
}
