package instrument

import (
	"encoding/json"
	"fmt"
	"go/token"

	"github.com/livepack-go/scopetrace/lang/ast"
)

// TrackerInjector builds the per-function tracker call and comment (run
// once a function's parameter and super rewrites are settled) and the
// per-module prelude, scope-id initializers and function-info getters (run
// once at program exit).
type TrackerInjector struct {
	ids        *IdentifierTable
	filename   string
	initPath   string
	evalPath   string
	moduleMark string
}

// TrackerPaths names the two runtime module specifiers the emitted
// `require(...)` calls resolve against; their concrete values belong to
// the host embedding the instrumentor.
type TrackerPaths struct {
	Init string // tracker initializer module
	Eval string // eval helper module, only required if any function used eval
}

// NewTrackerInjector builds an injector for one module's pass.
func NewTrackerInjector(ids *IdentifierTable, filename string, paths TrackerPaths) *TrackerInjector {
	return &TrackerInjector{
		ids:        ids,
		filename:   filename,
		initPath:   paths.Init,
		evalPath:   paths.Eval,
		moduleMark: "livepack_transformed",
	}
}

func stringLit(s string) ast.Expr {
	raw, _ := json.Marshal(s)
	return &ast.Literal{Kind: ast.LiteralString, Raw: string(raw), Value: s}
}

func numberLit(n int) ast.Expr {
	return &ast.Literal{Kind: ast.LiteralNumber, Raw: fmt.Sprint(n), Value: float64(n)}
}

func boolLit(b bool) ast.Expr {
	return &ast.Literal{Kind: ast.LiteralBool, Raw: fmt.Sprint(b), Value: b}
}

func nullLit() ast.Expr {
	return &ast.Literal{Kind: ast.LiteralNull, Raw: "null"}
}

// scopeArrayLiteral builds the `() => [[scopeId, v1, v2, ...], ...]` getter
// passed as the tracker call's second argument, one inner array per
// CapturedScope in ascending block-id order. The synthetic `super` entry
// is substituted with the function's resolved home-object reference, since
// `super` itself is not a value the getter could close over.
func (ti *TrackerInjector) scopeArrayLiteral(fr *FunctionRecord) ast.Expr {
	outer := &ast.ArrayExpression{}
	for _, cs := range fr.CapturedScopes {
		inner := &ast.ArrayExpression{Items: []ast.Expr{ti.ids.Ident(cs.Slot, token.NoPos)}}
		for _, v := range cs.Vars {
			var ref ast.Expr
			switch {
			case v.Name != "super":
				ref = &ast.Identifier{Name: v.Name}
			case fr.SuperTargetSlot != nil:
				ref = ti.ids.Ident(fr.SuperTargetSlot, token.NoPos)
			case fr.SuperTarget != "":
				ref = &ast.Identifier{Name: fr.SuperTarget}
			default:
				ref = &ast.Identifier{Name: "undefined"}
			}
			inner.Items = append(inner.Items, ref)
		}
		outer.Items = append(outer.Items, inner)
	}
	return &ast.ArrowFunctionExpression{
		Sig:      &ast.FuncSignature{},
		Body:     outer,
		ExprBody: true,
	}
}

// trackerCall builds `tracker(getFnInfo_<id>, () => [...])`.
func (ti *TrackerInjector) trackerCall(fr *FunctionRecord) ast.Expr {
	tracker := ti.ids.AllocTracker()
	fnInfo := ti.ids.AllocFnInfo(fr.ID)
	return &ast.CallExpression{
		Callee: ti.ids.Ident(tracker, token.NoPos),
		Args: []ast.Expr{
			ti.ids.Ident(fnInfo, token.NoPos),
			ti.scopeArrayLiteral(fr),
		},
	}
}

// trackerComment builds the block comment body downstream tooling parses:
// `livepack_track:<id>;<kind>;<filenameEscaped>`, with */ further escaped
// to *\/ so the comment can never be terminated early by the filename.
func (ti *TrackerInjector) trackerComment(fr *FunctionRecord) string {
	raw, _ := json.Marshal(ti.filename)
	esc := string(raw)
	esc = escapeCommentClose(esc)
	return fmt.Sprintf("livepack_track:%d;%s;%s", int(fr.ID), fr.Kind.KindCode(), esc)
}

func escapeCommentClose(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '*' && i+1 < len(s) && s[i+1] == '/' {
			out = append(out, '*', '\\', '/')
			i++
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

// Inject places fr's tracker call as early as possible without perturbing
// Function.prototype.length — inside an existing parameter default, then
// inside a leading destructuring element, then as a body prologue
// statement — and records the tracker comment against the node the printer
// should hang it off (a method's key rather than the method node itself).
func (ti *TrackerInjector) Inject(fr *FunctionRecord, sig *ast.FuncSignature, commentTarget ast.Node, prog *ast.Program) {
	call := ti.trackerCall(fr)
	if !ti.placeInParams(call, sig) {
		if bs := blockBodyOf(fr.Node); bs != nil {
			bs.Body = append([]ast.Stmt{&ast.ExpressionStatement{Expr: call}}, bs.Body...)
		}
	}

	prog.Comments = append(prog.Comments, &ast.Comment{
		Node:  commentTarget,
		Val:   ti.trackerComment(fr),
		Block: true,
	})
}

// placeInParams implements the parameter placements, preferring an
// existing default (amended to `tracker() || <old default>`) anywhere in
// the list over a destructuring pattern's first sub-element; it returns
// false if sig has no parameter shape that can carry the tracker, leaving
// the caller to fall back to a body prologue.
func (ti *TrackerInjector) placeInParams(call ast.Expr, sig *ast.FuncSignature) bool {
	for _, p := range sig.Params {
		if ap, ok := p.(*ast.AssignmentPattern); ok {
			ap.Default = &ast.LogicalExpression{Left: call, Op: "||", Right: ap.Default}
			return true
		}
	}
	for _, p := range sig.Params {
		switch pat := p.(type) {
		case *ast.ArrayPattern:
			if len(pat.Elems) > 0 && pat.Elems[0] != nil {
				pat.Elems[0] = wrapWithTrackerDefault(pat.Elems[0], call)
				return true
			}
		case *ast.ObjectPattern:
			if len(pat.Props) > 0 {
				pat.Props[0].Value = wrapWithTrackerDefault(pat.Props[0].Value, call)
				return true
			}
		}
	}
	return false
}

// wrapWithTrackerDefault turns a bare pattern element into one defaulting
// to `tracker(...) || undefined`. The tracker call runs whenever the
// element's value is undefined (as when the function is called with no
// arguments); a supplied value skips the default and destructures as
// before.
func wrapWithTrackerDefault(p ast.Pattern, call ast.Expr) ast.Pattern {
	if ap, ok := p.(*ast.AssignmentPattern); ok {
		ap.Default = &ast.LogicalExpression{Left: call, Op: "||", Right: ap.Default}
		return ap
	}
	return &ast.AssignmentPattern{
		Target:  p,
		Default: &ast.LogicalExpression{Left: call, Op: "||", Right: &ast.Identifier{Name: "undefined"}},
	}
}

// InjectScopeIDs emits the runtime scope-id plumbing for every block that
// ended up with a ScopeIDSlot (something captured a binding from it): a
// `const <slot> = getScopeId(<parentSlot>, <blockID>)` declaration
// prepended to the block's statement list, plus one uninitialized `let`
// for any home-object temp slots parked on the block. A switch body, which
// owns no statement list, instead gets a hoisted `let <slot>;` in the
// nearest enclosing list and the assignment threaded into its
// discriminant.
//
// Blocks are processed in descending id order so that when an outer and an
// inner block share one statement list (a loop body holding a braced
// block, a catch clause and its body), the outer block's declaration ends
// up first and the inner one's parent reference never reads ahead of its
// declaration.
func (ti *TrackerInjector) InjectScopeIDs(blocks *BlockArena) {
	all := blocks.All()
	for i := len(all) - 1; i >= 0; i-- {
		b := all[i]
		if len(b.TempSlots) > 0 && b.Prepend != nil {
			decls := make([]*ast.VariableDeclarator, len(b.TempSlots))
			for j, slot := range b.TempSlots {
				decls[j] = &ast.VariableDeclarator{Target: ti.ids.Ident(slot, token.NoPos)}
			}
			b.Prepend(&ast.VariableDeclaration{Kind: ast.DeclLet, Decls: decls})
		}
		if b.ScopeIDSlot == nil {
			continue
		}
		switch {
		case b.Prepend != nil:
			b.Prepend(&ast.VariableDeclaration{
				Kind: ast.DeclConst,
				Decls: []*ast.VariableDeclarator{{
					Target: ti.ids.Ident(b.ScopeIDSlot, token.NoPos),
					Init:   ti.getScopeIDCall(b, blocks),
				}},
			})
		case b.InlineInit != nil:
			b.InlineInit(&ast.AssignmentExpression{
				Left:  ti.ids.Ident(b.ScopeIDSlot, token.NoPos),
				Op:    "=",
				Right: ti.getScopeIDCall(b, blocks),
			})
			if prepend := nearestPrepend(blocks, b); prepend != nil {
				prepend(&ast.VariableDeclaration{
					Kind:  ast.DeclLet,
					Decls: []*ast.VariableDeclarator{{Target: ti.ids.Ident(b.ScopeIDSlot, token.NoPos)}},
				})
			}
		}
	}
}

// nearestPrepend walks b's ancestors for the closest block that owns a
// statement list to hoist a declaration into.
func nearestPrepend(blocks *BlockArena, b *Block) func(ast.Stmt) {
	for p := blocks.Get(b.Parent); p != nil; p = blocks.Get(p.Parent) {
		if p.Prepend != nil {
			return p.Prepend
		}
	}
	return nil
}

// getScopeIDCall builds `getScopeId(<parentSlotOrNull>, <blockID>)`, the
// parent argument naming the nearest ancestor block's own slot so runtime
// scopes chain the way the lexical blocks do.
func (ti *TrackerInjector) getScopeIDCall(b *Block, blocks *BlockArena) ast.Expr {
	parentRef := nullLit()
	for p := blocks.Get(b.Parent); p != nil; p = blocks.Get(p.Parent) {
		if p.ScopeIDSlot != nil {
			parentRef = ti.ids.Ident(p.ScopeIDSlot, token.NoPos)
			break
		}
	}
	return &ast.CallExpression{
		Callee: ti.ids.Ident(ti.ids.AllocGetScopeID(), token.NoPos),
		Args:   []ast.Expr{parentRef, numberLit(int(b.ID))},
	}
}

// InjectModule prepends the module prelude to Program.Body: the tracker
// (and, conditionally, eval helper) destructuring declarations, plus the
// transformed-module marker comment recorded on the program node itself.
func (ti *TrackerInjector) InjectModule(prog *ast.Program, evalUsed bool, nextBlockID int, internalPrefixCounter int) {
	prog.Comments = append(prog.Comments, &ast.Comment{Node: prog, Val: ti.moduleMark, Block: true})

	tracker := ti.ids.AllocTracker()
	getScopeID := ti.ids.AllocGetScopeID()
	trackerInit := &ast.VariableDeclaration{
		Kind: ast.DeclConst,
		Decls: []*ast.VariableDeclarator{{
			Target: &ast.ArrayPattern{Elems: []ast.Pattern{
				ti.ids.Ident(tracker, token.NoPos),
				ti.ids.Ident(getScopeID, token.NoPos),
			}},
			Init: &ast.CallExpression{
				Callee: requireCall(ti.initPath),
				Args: []ast.Expr{
					stringLit(ti.filename),
					&ast.Identifier{Name: "module"},
					&ast.Identifier{Name: "require"},
				},
			},
		}},
	}

	prelude := []ast.Stmt{trackerInit}
	if evalUsed {
		evalInit := &ast.VariableDeclaration{
			Kind: ast.DeclConst,
			Decls: []*ast.VariableDeclarator{{
				Target: &ast.ArrayPattern{Elems: []ast.Pattern{
					ti.ids.Ident(ti.ids.AllocEval(), token.NoPos),
					ti.ids.Ident(ti.ids.AllocPreval(), token.NoPos),
					ti.ids.Ident(ti.ids.AllocGetEval(), token.NoPos),
				}},
				Init: &ast.CallExpression{
					Callee: requireCall(ti.evalPath),
					Args: []ast.Expr{
						stringLit(ti.filename),
						numberLit(nextBlockID),
						numberLit(internalPrefixCounter),
					},
				},
			}},
		}
		prelude = append(prelude, evalInit)
	}

	prog.Body = append(prelude, prog.Body...)
}

func requireCall(path string) ast.Expr {
	return &ast.CallExpression{
		Callee: &ast.Identifier{Name: "require"},
		Args:   []ast.Expr{stringLit(path)},
	}
}

// FnInfoGetters builds the per-function zero-arg getter declarations
// appended at the end of the program body: each returns the function's
// serialized metadata, followed by references to its children's own
// getters, so the consumer of the bundle can walk the tree lazily without
// eagerly parsing JSON for functions it never inspects.
func (ti *TrackerInjector) FnInfoGetters(funcs *FunctionArena, md *Metadata) []ast.Stmt {
	var out []ast.Stmt
	byID := make(map[int]FunctionMeta, len(md.Functions))
	for _, fm := range md.Functions {
		byID[fm.ID] = fm
	}
	for _, fr := range funcs.All() {
		if fr.ID == ModuleFunc {
			continue
		}
		getter := ti.ids.AllocFnInfo(fr.ID)
		blob, _ := json.Marshal(byID[int(fr.ID)])

		items := []ast.Expr{stringLit(string(blob))}
		for _, c := range fr.Children {
			items = append(items, ti.ids.Ident(ti.ids.AllocFnInfo(c), token.NoPos))
		}
		out = append(out, &ast.FunctionDeclaration{
			Name: ti.ids.Ident(getter, token.NoPos),
			Sig:  &ast.FuncSignature{},
			Body: &ast.BlockStatement{Internal: true, Body: []ast.Stmt{
				&ast.ReturnStatement{Arg: &ast.ArrayExpression{Items: items}},
			}},
		})
	}
	return out
}
