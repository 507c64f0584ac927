package instrument

import (
	"go/token"

	"github.com/livepack-go/scopetrace/lang/ast"
)

// Result is everything Instrument returns for one module: the mutated AST
// (ready to be handed to an unrelated pretty-printer) and the sidecar
// metadata bundle.
type Result struct {
	Program  *ast.Program
	Metadata *Metadata
}

// Instrument runs the full pipeline over program and returns the mutated
// tree plus its metadata, or a non-nil error if any visitor raised a fatal
// diagnostic. There are no retries and no partial output: a failed module
// produces no emission, so a non-nil error means the caller must discard
// program rather than trust its current, partially-mutated state.
func Instrument(program *ast.Program, fset *token.FileSet, opts Options) (*Result, error) {
	d := NewDriver(fset, opts.prefix())
	seedUserNames(d.IDs, program)

	ast.Walk(d, program)
	if err := d.Err(); err != nil {
		return nil, err
	}

	// Snapshot every function's AST while the tree is still exactly as
	// authored: everything below mutates it in place.
	for _, fr := range d.Funcs.All() {
		if fr.ID != ModuleFunc {
			fr.AstSnapshot = snapshotFunctionAST(fr.Node)
		}
	}

	params := NewParamRewriter(d.IDs)
	supers := NewSuperRewriter(d.IDs, d.Blocks, d.Funcs)
	tracker := NewTrackerInjector(d.IDs, opts.Filename, opts.paths())

	evalUsed := false
	for _, fr := range d.Funcs.All() {
		applyAmendments(d, fr, supers)
		if fr.ID != ModuleFunc {
			rewriteParams(fr, params)
		}
		if fr.ContainsEval {
			evalUsed = true
		}
	}

	for _, fr := range d.Funcs.All() {
		if fr.ID == ModuleFunc {
			continue
		}
		injectTracker(tracker, fr, program)
	}

	tracker.InjectScopeIDs(d.Blocks)

	nextBlockID := d.Blocks.Len()
	tracker.InjectModule(program, evalUsed, nextBlockID, d.IDs.counter)

	// Every injected name must exist before the finalize rename runs; the
	// getter names for functions with no tracker call site (classes with no
	// explicit constructor) are the only ones not already minted above.
	for _, fr := range d.Funcs.All() {
		if fr.ID != ModuleFunc {
			d.IDs.AllocFnInfo(fr.ID)
		}
	}
	d.IDs.Finalize()

	// Metadata and the getter blobs embed injected names, so both are built
	// only after the rename settles them.
	md := BuildMetadata(opts.Filename, d.Funcs)
	program.Body = append(program.Body, tracker.FnInfoGetters(d.Funcs, md)...)

	return &Result{Program: program, Metadata: md}, nil
}

// seedUserNames walks the program once up front purely to collect every
// identifier name the source already uses, so the identifier table's
// collision counter is correct before any injected name is minted — it
// must see every user name, not just the ones bound in scopes the main
// pass happens to visit before the first allocation.
func seedUserNames(ids *IdentifierTable, program *ast.Program) {
	var visit ast.VisitorFunc
	visit = func(n ast.Node, dir ast.VisitDirection) ast.Visitor {
		if dir != ast.VisitEnter {
			return nil
		}
		if ident, ok := n.(*ast.Identifier); ok && !ident.Internal {
			ids.NoteUserName(ident.Name)
		}
		return visit
	}
	ast.Walk(visit, program)
}

// applyAmendments processes one function's deferred edits in order,
// dispatching each to the rewriter that owns its kind.
func applyAmendments(d *Driver, fr *FunctionRecord, supers *SuperRewriter) {
	for _, amend := range fr.Amendments {
		switch amend.Kind {
		case AmendSuperCall, AmendSuperMember:
			supers.Apply(fr, amend)
		case AmendEvalCall:
			applyEvalAmendment(d, fr, amend)
		case AmendConstViolation:
			applyConstViolation(amend)
		}
	}
}

// rewriteParams applies the parameter rewrite to one function's signature,
// prepending the reconstruction prologue (and any body-collision fixups)
// to its body.
func rewriteParams(fr *FunctionRecord, params *ParamRewriter) {
	sig := signatureOf(fr.Node)
	if sig == nil {
		return
	}
	prologue := params.Rewrite(sig, fr.IsStrict, fr.posOf())
	if len(prologue) == 0 {
		return
	}
	bs := blockBodyOf(fr.Node)
	if bs == nil {
		return
	}
	head := params.ResolveBodyClashes(bs, prologue, fr.posOf())
	bs.Body = append(append(prologue, head...), bs.Body...)
}

// signatureOf locates the parameter signature a function record's
// rewriters operate on. For a class record this is its explicit
// constructor's signature, since the constructor is folded into the
// class's own record; a class with no explicit constructor has no
// user-authored parameter list to rewrite and no tracker call site to
// place (the synthesized implicit constructor is the serializer's concern,
// not the instrumentor's).
func signatureOf(node ast.Node) *ast.FuncSignature {
	switch n := node.(type) {
	case *ast.FunctionDeclaration:
		return n.Sig
	case *ast.FunctionExpression:
		return n.Sig
	case *ast.ArrowFunctionExpression:
		return n.Sig
	case *ast.MethodDefinition:
		return n.Sig
	case *ast.ClassDeclaration:
		if ctor := constructorOf(n.Body); ctor != nil {
			return ctor.Sig
		}
	case *ast.ClassExpression:
		if ctor := constructorOf(n.Body); ctor != nil {
			return ctor.Sig
		}
	}
	return nil
}

// blockBodyOf returns the statement-list body prologue statements go into,
// converting a concise arrow body into a block (preserving the returned
// value) on first demand.
func blockBodyOf(node ast.Node) *ast.BlockStatement {
	switch n := node.(type) {
	case *ast.FunctionDeclaration:
		return n.Body
	case *ast.FunctionExpression:
		return n.Body
	case *ast.MethodDefinition:
		return n.Body
	case *ast.ArrowFunctionExpression:
		if bs, ok := n.Body.(*ast.BlockStatement); ok {
			return bs
		}
		bs := &ast.BlockStatement{Internal: true, Body: []ast.Stmt{
			&ast.ReturnStatement{Arg: n.Body.(ast.Expr)},
		}}
		n.Body = bs
		n.ExprBody = false
		return bs
	case *ast.ClassDeclaration:
		if ctor := constructorOf(n.Body); ctor != nil {
			return ctor.Body
		}
	case *ast.ClassExpression:
		if ctor := constructorOf(n.Body); ctor != nil {
			return ctor.Body
		}
	}
	return nil
}

func constructorOf(body *ast.ClassBody) *ast.MethodDefinition {
	for _, m := range body.Methods {
		if m.IsConstructor {
			return m
		}
	}
	return nil
}

// posOf reports a representative position for fr's node, used to stamp
// synthesized identifiers.
func (fr *FunctionRecord) posOf() token.Pos {
	start, _ := fr.Node.Span()
	return start
}

// applyConstViolation rewrites a throwing const write so it throws at
// runtime instead of silently succeeding: the original expression is
// sequenced after a throwing IIFE, so its side effects still evaluate in
// order up to the point the throw aborts the statement. A silent violation
// (a function expression's own name written from sloppy-mode code) is left
// untouched — the write simply has no effect, which is already what
// happens without any rewrite.
func applyConstViolation(amend *Amendment) {
	if amend.Silent {
		return
	}
	switch site := amend.Trail.Leaf().(type) {
	case *ast.AssignmentExpression:
		site.Right = &ast.SequenceExpression{Exprs: []ast.Expr{throwConstViolation(), site.Right}}
	case *ast.UpdateExpression:
		if parent := amend.Trail.Parent(); parent != nil {
			replaceChild(parent, site, &ast.SequenceExpression{Exprs: []ast.Expr{throwConstViolation(), site}})
		}
	}
}

func throwConstViolation() ast.Expr {
	return &ast.CallExpression{
		Callee: &ast.ArrowFunctionExpression{
			Sig: &ast.FuncSignature{},
			Body: &ast.BlockStatement{Internal: true, Body: []ast.Stmt{&ast.ThrowStatement{
				Arg: &ast.NewExpression{
					Callee: &ast.Identifier{Name: "TypeError"},
					Args:   []ast.Expr{stringLit("Assignment to constant variable.")},
				},
			}}},
		},
	}
}

// applyEvalAmendment wraps a direct eval(...) call's first argument in the
// runtime preval helper, handing it everything the dynamically-compiled
// code needs to keep its enclosing bindings live: the full
// statically-visible bindings list ([name, blockId, scopeIdSlot,
// blockName, isConst, isSilentConst] per entry, innermost shadowing
// outermost), the call site's strictness, and the enclosing function's
// argument-name aliases.
func applyEvalAmendment(d *Driver, fr *FunctionRecord, amend *Amendment) {
	call, ok := amend.Trail.Leaf().(*ast.CallExpression)
	if !ok || len(call.Args) == 0 {
		return
	}
	preval := d.IDs.AllocPreval()

	bindings := &ast.ArrayExpression{}
	seen := make(map[string]bool)
	for b := d.Blocks.Get(amend.Block); b != nil; b = d.Blocks.Get(b.Parent) {
		for _, name := range b.Names() {
			if seen[name] {
				continue
			}
			seen[name] = true
			bdg, _ := b.Lookup(name)

			var slotRef ast.Expr = nullLit()
			if b.ScopeIDSlot != nil {
				slotRef = d.IDs.Ident(b.ScopeIDSlot, token.NoPos)
			}
			var blockName ast.Expr = nullLit()
			if b.Name != "" {
				blockName = stringLit(b.Name)
			}
			bindings.Items = append(bindings.Items, &ast.ArrayExpression{Items: []ast.Expr{
				stringLit(name),
				numberLit(int(b.ID)),
				slotRef,
				blockName,
				boolLit(IsImmutable(bdg)),
				boolLit(IsSilentConst(bdg, fr.IsStrict)),
			}})
		}
	}

	argNames := &ast.ArrayExpression{}
	for rec := fr; rec != nil; rec = d.Funcs.Get(rec.Parent) {
		if rec.IsArrow {
			continue
		}
		for _, n := range rec.ArgNames {
			argNames.Items = append(argNames.Items, stringLit(n))
		}
		break
	}

	call.Args[0] = &ast.CallExpression{
		Callee: d.IDs.Ident(preval, token.NoPos),
		Args: []ast.Expr{
			call.Args[0],
			bindings,
			boolLit(fr.IsStrict),
			argNames,
		},
	}
}

// injectTracker builds and places fr's tracker call/comment. Methods hang
// their comment off the Key; every other function-like node hangs it off
// itself.
func injectTracker(ti *TrackerInjector, fr *FunctionRecord, program *ast.Program) {
	sig := signatureOf(fr.Node)
	if sig == nil {
		return
	}
	commentTarget := fr.Node
	if m, ok := fr.Node.(*ast.MethodDefinition); ok {
		commentTarget = m.Key
	}
	ti.Inject(fr, sig, commentTarget, program)
}
