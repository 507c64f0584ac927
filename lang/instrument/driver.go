package instrument

import (
	"go/token"

	"github.com/livepack-go/scopetrace/lang/ast"
	"github.com/livepack-go/scopetrace/lang/ierr"
)

// Driver is the single depth-first pass over the program: it maintains the
// block/function stacks and the Trail, and dispatches to the specialized
// visitors as each node is entered and exited.
//
// Driver itself implements ast.Visitor; Instrument drives it with a single
// ast.Walk(driver, program) call.
type Driver struct {
	Fset     *token.FileSet
	IDs      *IdentifierTable
	Blocks   *BlockArena
	Funcs    *FunctionArena
	Resolver *Resolver

	trail      Trail
	blockStack []BlockID
	funcStack  []FuncID

	// handled marks an *ast.Identifier this pass has already resolved as
	// an assignment target or label (by the Assignment/Update/ForIn/Label
	// handler that ran before the generic recursion reached it), so the
	// generic Identifier case does not double-count it as a plain read.
	handled map[*ast.Identifier]bool

	// noOwnBlock marks a function-like node's Body BlockStatement as
	// already accounted for by the function handler's own param/body block
	// pair, so the generic BlockStatement case does not open a redundant
	// third block around the same braces.
	noOwnBlock map[*ast.BlockStatement]bool

	// nameBlockStack tracks, per open function-like node, whether it pushed
	// a name-block (a named function expression) that exitFunction must
	// pop in addition to the param block.
	nameBlockStack []bool

	// superOwners is the stack of class/object-literal nodes a `super`
	// reference seen right now would resolve against, innermost last.
	superOwners []ast.Node
	// superOwnerBlocks records, per open super owner, the block that
	// lexically encloses the owner's own expression position — the scope a
	// home-object temp slot gets parked in, and the scope the synthetic
	// `super` binding is captured from.
	superOwnerBlocks map[ast.Node]BlockID
	// superBlocks maps an object-literal owner to its lazily-created super
	// block (classes carry theirs on the function record instead).
	superBlocks map[ast.Node]BlockID

	errs ierr.ErrorList
}

// NewDriver builds a driver over fresh arenas. The program's root block,
// seeded with the CommonJS wrapper names, is created when the walk enters
// the Program node.
func NewDriver(fset *token.FileSet, prefix string) *Driver {
	d := &Driver{
		Fset:             fset,
		IDs:              NewIdentifierTable(prefix),
		Blocks:           NewBlockArena(),
		Funcs:            NewFunctionArena(),
		handled:          make(map[*ast.Identifier]bool),
		noOwnBlock:       make(map[*ast.BlockStatement]bool),
		superOwnerBlocks: make(map[ast.Node]BlockID),
		superBlocks:      make(map[ast.Node]BlockID),
	}
	d.Resolver = NewResolver(d.Blocks, d.Funcs)
	return d
}

// Err returns the accumulated diagnostics; nil if the pass found nothing
// fatal. The caller aborts the whole module on any non-nil result. A
// recorded error does not stop the walk: each handler that calls fail
// leaves partial state behind and returns, and the walk goes on, so one
// pass can collect several diagnostics.
func (d *Driver) Err() error {
	if len(d.errs) == 0 {
		return nil
	}
	return d.errs
}

func (d *Driver) fail(kind ierr.Kind, pos token.Pos, format string, args ...any) {
	err := ierr.Fatalf(kind, d.Fset, pos, format, args...)
	d.errs = append(d.errs, err.(*ierr.Diagnostic).Err)
}

func (d *Driver) currentBlock() BlockID {
	if len(d.blockStack) == 0 {
		return NoBlock
	}
	return d.blockStack[len(d.blockStack)-1]
}

func (d *Driver) currentFunc() FuncID {
	if len(d.funcStack) == 0 {
		return ModuleFunc
	}
	return d.funcStack[len(d.funcStack)-1]
}

func (d *Driver) pushBlock(b *Block) { d.blockStack = append(d.blockStack, b.ID) }
func (d *Driver) popBlock()          { d.blockStack = d.blockStack[:len(d.blockStack)-1] }
func (d *Driver) pushFunc(fn FuncID) { d.funcStack = append(d.funcStack, fn) }
func (d *Driver) popFunc()           { d.funcStack = d.funcStack[:len(d.funcStack)-1] }

func (d *Driver) newBlock(kind BlockKind) *Block {
	b := d.Blocks.New(kind, d.currentBlock(), d.currentFunc())
	return b
}

// registerBinding declares ident as a binding of kind in block, and marks
// the node so the generic Identifier visitor skips re-resolving it as a
// free reference once the walk naturally reaches it.
func (d *Driver) registerBinding(ident *ast.Identifier, hint ast.BindingHint, block *Block, isFuncName bool) *Binding {
	bdg := &Binding{Name: ident.Name, Kind: hint, Node: ident, IsFunctionName: isFuncName}
	block.Bind(ident.Name, bdg)
	ident.Hint = hint
	ident.Binding = bdg
	return bdg
}

// bindPattern declares every Identifier leaf of pat as a binding of kind in
// block, recursing through array/object destructuring, defaults and rest
// elements.
func (d *Driver) bindPattern(pat ast.Pattern, hint ast.BindingHint, block *Block) {
	switch p := pat.(type) {
	case nil:
		return
	case *ast.Identifier:
		d.registerBinding(p, hint, block, false)
	case *ast.AssignmentPattern:
		d.bindPattern(p.Target, hint, block)
	case *ast.RestElement:
		d.bindPattern(p.Arg, hint, block)
	case *ast.ArrayPattern:
		for _, e := range p.Elems {
			if e != nil {
				d.bindPattern(e, hint, block)
			}
		}
	case *ast.ObjectPattern:
		for _, prop := range p.Props {
			d.bindPattern(prop.Value, hint, block)
		}
		if p.Rest != nil {
			d.bindPattern(p.Rest, hint, block)
		}
	case *ast.MemberExpression:
		// assignment-pattern target rewriting an existing property, not a
		// new binding: nothing to declare.
	}
}

// resolveRef classifies a free-variable occurrence of ident and records it
// against the currently-open function record. read/write describe how
// ident is used at this occurrence (a compound assignment is both).
func (d *Driver) resolveRef(ident *ast.Identifier, read, write bool) {
	if ident.Internal || ident.Binding != nil || d.handled[ident] {
		return
	}
	fr := d.Funcs.Get(d.currentFunc())
	cls := d.Resolver.Resolve(d.currentBlock(), d.currentFunc(), ident.Name)

	if write && cls.Binding != nil && IsImmutable(cls.Binding) {
		d.recordConstViolation(cls)
		write = false
	}

	switch cls.Kind {
	case BindLocal:
		// Owned by the function itself: nothing to record at the function
		// record level, the binding's own block already has it.
	case BindModuleInternal:
		fr.InternalVars[ident.Name] = struct{}{}
	case BindCaptured:
		if read || write {
			d.captureChain(cls, ident.Name, read, write)
		}
	case BindGlobal:
		if ident.Name == "arguments" && d.visitArguments(read, write) {
			return
		}
		if ident.Hint != ast.HintNone && ident.Hint != ast.HintUnresolved {
			// The producer claimed this occurrence resolves to a binding, but
			// no ancestor block declares it: the hint and the tree disagree.
			d.fail(ierr.BindingUnresolvable, ident.Start,
				"no declaration found for %q despite its binding hint", ident.Name)
			return
		}
		fr.GlobalNames[ident.Name] = struct{}{}
	}
}

// captureChain records a captured-binding use on every function record
// between the current function and the function owning cls.Block,
// inclusive of the current function and exclusive of the owner: a function
// nested two or more levels below the declaration still needs the binding
// threaded through its own tracker, not just the innermost use site's.
func (d *Driver) captureChain(cls Classification, name string, read, write bool) {
	block := d.Blocks.Get(cls.Block)
	owner := block.Func
	slot := d.IDs.AllocScopeID(cls.Block)
	block.ScopeIDSlot = slot
	for fn := d.currentFunc(); fn != owner && fn != NoFunc; fn = d.Funcs.Get(fn).Parent {
		d.Funcs.Get(fn).Capture(cls.Block, slot, name, read, write, cls.Binding.IsFunctionName)
	}
}

func (d *Driver) recordConstViolation(cls Classification) {
	fr := d.Funcs.Get(d.currentFunc())
	fr.PrependAmendment(&Amendment{
		Kind:     AmendConstViolation,
		Block:    cls.Block,
		Trail:    d.trail.Clone(),
		Silent:   IsSilentConst(cls.Binding, fr.IsStrict),
		IsFnName: cls.Binding.IsFunctionName,
	})
}

// captureImplicit threads one of the synthetic bindings (`this`,
// `arguments`) from the nearest enclosing non-arrow function's parameter
// block through every arrow record between it and the current function.
func (d *Driver) captureImplicit(name string, read, write bool) {
	owner := d.currentFunc()
	for fr := d.Funcs.Get(owner); fr != nil && fr.IsArrow; fr = d.Funcs.Get(owner) {
		owner = fr.Parent
	}
	if owner == d.currentFunc() || owner == ModuleFunc || owner == NoFunc {
		return
	}
	pb := d.Blocks.Get(d.Funcs.Get(owner).ParamBlock)
	if _, ok := pb.Lookup(name); !ok {
		pb.Bind(name, &Binding{Name: name, Kind: ast.HintLet})
	}
	slot := d.IDs.AllocScopeID(pb.ID)
	pb.ScopeIDSlot = slot
	for fn := d.currentFunc(); fn != owner && fn != NoFunc; fn = d.Funcs.Get(fn).Parent {
		d.Funcs.Get(fn).Capture(pb.ID, slot, name, read, write, false)
	}
}

// bodyPrepender adapts a loop's (or arrow's) single-statement body slot
// into a statement-list Prepend hook, wrapping a braceless body in a
// synthetic block the first time something actually needs prepending.
func bodyPrepender(get func() ast.Stmt, set func(ast.Stmt)) func(ast.Stmt) {
	return func(s ast.Stmt) {
		bs, ok := get().(*ast.BlockStatement)
		if !ok {
			bs = &ast.BlockStatement{Internal: true, Body: []ast.Stmt{get()}}
			set(bs)
		}
		bs.Body = append([]ast.Stmt{s}, bs.Body...)
	}
}

// Visit implements ast.Visitor. The heavy lifting lives in the visit_*.go
// files; Visit itself is just the enter/exit dispatch table.
func (d *Driver) Visit(n ast.Node, dir ast.VisitDirection) ast.Visitor {
	if dir == ast.VisitEnter {
		d.trail = append(d.trail, n)
		d.enter(n)
	} else {
		d.exit(n)
		d.trail = d.trail[:len(d.trail)-1]
	}
	return d
}

func (d *Driver) enter(n ast.Node) {
	switch node := n.(type) {
	case *ast.Program:
		d.enterProgram(node)
	case *ast.BlockStatement:
		if !node.Internal && !d.noOwnBlock[node] {
			b := d.newBlock(BlockPlain)
			b.Prepend = func(s ast.Stmt) { node.Body = append([]ast.Stmt{s}, node.Body...) }
			d.pushBlock(b)
		}
	case *ast.VariableDeclaration:
		d.enterVariableDeclaration(node)
	case *ast.FunctionDeclaration:
		d.enterFunctionDeclaration(node)
	case *ast.FunctionExpression:
		d.enterFunctionExpression(node)
	case *ast.ArrowFunctionExpression:
		d.enterArrow(node)
	case *ast.MethodDefinition:
		d.enterMethod(node)
	case *ast.ClassDeclaration:
		d.enterClass(node, node.Name, node.SuperExpr, node.Body, &node.Function)
	case *ast.ClassExpression:
		d.enterClass(node, node.Name, node.SuperExpr, node.Body, &node.Function)
	case *ast.CatchClause:
		d.enterCatch(node)
	case *ast.ForStatement:
		d.enterForHead(node)
	case *ast.ForInStatement:
		d.enterForInHead(node)
	case *ast.WhileStatement:
		b := d.newBlock(BlockLoopBody)
		b.Prepend = bodyPrepender(func() ast.Stmt { return node.Body }, func(s ast.Stmt) { node.Body = s })
		d.pushBlock(b)
	case *ast.DoWhileStatement:
		b := d.newBlock(BlockLoopBody)
		b.Prepend = bodyPrepender(func() ast.Stmt { return node.Body }, func(s ast.Stmt) { node.Body = s })
		d.pushBlock(b)
	case *ast.SwitchStatement:
		b := d.newBlock(BlockSwitchBody)
		b.InlineInit = func(assign ast.Expr) {
			node.Discriminant = &ast.SequenceExpression{Exprs: []ast.Expr{assign, node.Discriminant}}
		}
		d.pushBlock(b)
	case *ast.LabeledStatement:
		d.handled[node.Label] = true
	case *ast.BreakStatement:
		if node.Label != nil {
			d.handled[node.Label] = true
		}
	case *ast.ContinueStatement:
		if node.Label != nil {
			d.handled[node.Label] = true
		}
	case *ast.ThisExpression:
		d.visitThis(node)
	case *ast.Super:
		// The CallExpression/MemberExpression that owns the keyword does all
		// the work; super reached in any other position is a construct the
		// visitor table has no entry for.
		switch parent := d.trail.Parent().(type) {
		case *ast.CallExpression:
			if parent.Callee == ast.Expr(node) {
				return
			}
		case *ast.MemberExpression:
			if parent.Object == ast.Expr(node) {
				return
			}
		}
		start, _ := node.Span()
		d.fail(ierr.UnexpectedNode, start, "super is valid only as a call target or member object")
	case *ast.CallExpression:
		d.enterCall(node)
	case *ast.ImportExpression:
		d.enterImport(node)
	case *ast.MemberExpression:
		d.enterMember(node)
	case *ast.AssignmentExpression:
		d.enterAssignment(node)
	case *ast.UpdateExpression:
		d.enterUpdate(node)
	case *ast.ObjectExpression:
		d.superOwnerBlocks[node] = d.currentBlock()
		d.superOwners = append(d.superOwners, node)
	case *ast.Identifier:
		d.resolveRef(node, true, false)
	}
}

func (d *Driver) exit(n ast.Node) {
	switch node := n.(type) {
	case *ast.Program:
		d.exitProgram(node)
	case *ast.BlockStatement:
		if !node.Internal && !d.noOwnBlock[node] {
			d.popBlock()
		}
	case *ast.FunctionDeclaration:
		d.exitFunction()
	case *ast.FunctionExpression:
		d.exitFunction()
	case *ast.ArrowFunctionExpression:
		d.exitFunction()
	case *ast.MethodDefinition:
		d.exitMethod(node)
	case *ast.ClassDeclaration:
		d.exitClass(node.Body)
	case *ast.ClassExpression:
		d.exitClass(node.Body)
	case *ast.CatchClause:
		d.popBlock()
	case *ast.ForStatement, *ast.ForInStatement:
		d.popBlock()
	case *ast.WhileStatement, *ast.DoWhileStatement:
		d.popBlock()
	case *ast.SwitchStatement:
		d.popBlock()
	case *ast.ObjectExpression:
		d.superOwners = d.superOwners[:len(d.superOwners)-1]
	}
}
