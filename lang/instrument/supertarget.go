package instrument

import (
	"go/token"

	"github.com/livepack-go/scopetrace/lang/ast"
)

// SuperRewriter materializes a home object for every class/object literal
// whose methods use `super`, then resolves each recorded super amendment
// against it. It runs once the whole tree has been walked, so every
// owner's set of amendments is complete.
//
// The home reference is, in preference order: the class's own declared
// name; the const binding a `const x = <expr>` declarator already gives
// the expression (class expressions only: an object literal always takes
// a temp); otherwise a minted temp slot, with the owner expression
// wrapped in-place into `t = <expr>` at its definition site (an anonymous
// class additionally keeps its inferred name via a `{N: class...}.N`
// wrapper when the surrounding declarator/assignment supplies one).
type SuperRewriter struct {
	ids    *IdentifierTable
	blocks *BlockArena
	funcs  *FunctionArena

	// slots remembers the temp minted per owner, so emitted home references
	// stay tied to the injected id (and follow the finalize rename) instead
	// of baking in a pre-rename name string.
	slots map[ast.Node]*InjectedID
}

// NewSuperRewriter builds a rewriter minting slots from ids and parking
// them in blocks.
func NewSuperRewriter(ids *IdentifierTable, blocks *BlockArena, funcs *FunctionArena) *SuperRewriter {
	return &SuperRewriter{ids: ids, blocks: blocks, funcs: funcs, slots: make(map[ast.Node]*InjectedID)}
}

// homeRef builds a fresh reference to the resolved home object, tracked
// through the identifier table when the home is a minted slot.
func (r *SuperRewriter) homeRef(name string, slot *InjectedID) ast.Expr {
	if slot != nil {
		return r.ids.Ident(slot, token.NoPos)
	}
	return &ast.Identifier{Name: name}
}

// homeName resolves the stable reference for amend's owner, wrapping the
// owner's definition site on first demand when only a temp will do.
func (r *SuperRewriter) homeName(amend *Amendment) string {
	switch n := amend.Owner.(type) {
	case *ast.ClassDeclaration:
		if n.Name != nil {
			return n.Name.Name
		}
	case *ast.ClassExpression:
		if n.Name != nil {
			return n.Name.Name
		}
		if n.SuperTarget == nil {
			if name := stableDeclName(amend, n); name != "" {
				n.SuperTarget = &ast.Identifier{Name: name}
			} else {
				n.SuperTarget = r.mintAndWrap(amend, n, inferredName(amend, n))
			}
		}
		return n.SuperTarget.Name
	case *ast.ObjectExpression:
		// An object literal always goes through a temp: unlike a class, its
		// binding (even a const) says nothing about what the methods' home
		// object is once the value is detached from the variable.
		if n.SuperTarget == nil {
			n.SuperTarget = r.mintAndWrap(amend, n, "")
		}
		return n.SuperTarget.Name
	}
	return "undefined"
}

// stableDeclName reports the name a `const x = <owner>` declarator already
// binds the owner expression to, or "".
func stableDeclName(amend *Amendment, owner ast.Expr) string {
	decl, ok := amend.Trail.ParentOf(owner).(*ast.VariableDeclaration)
	if !ok || decl.Kind != ast.DeclConst {
		return ""
	}
	dec := declaratorFor(decl, owner)
	if dec == nil {
		return ""
	}
	if id, ok := dec.Target.(*ast.Identifier); ok {
		return id.Name
	}
	return ""
}

// inferredName reports the name the language would have inferred for an
// anonymous class at this position (a `let c = class {}` declarator or a
// `c = class {}` assignment), or "".
func inferredName(amend *Amendment, owner ast.Expr) string {
	switch p := amend.Trail.ParentOf(owner).(type) {
	case *ast.VariableDeclaration:
		if dec := declaratorFor(p, owner); dec != nil {
			if id, ok := dec.Target.(*ast.Identifier); ok {
				return id.Name
			}
		}
	case *ast.AssignmentExpression:
		if id, ok := p.Left.(*ast.Identifier); ok && p.Right == owner {
			return id.Name
		}
	}
	return ""
}

// mintAndWrap allocates a temp slot in the block enclosing the owner's
// definition, parks it there for the uninitialized `let` the injector
// emits, and rewrites the owner expression into `t = <owner>` in its
// parent's slot (preserving an inferred class name via the keyed-object
// wrapper when one applies).
func (r *SuperRewriter) mintAndWrap(amend *Amendment, owner ast.Expr, inferred string) *ast.Identifier {
	slot := r.ids.AllocTemp()
	r.slots[amend.Owner] = slot
	if b := r.blocks.Get(amend.OwnerBlock); b != nil {
		vars := r.blocks.Get(b.VarsBlock)
		vars.TempSlots = append(vars.TempSlots, slot)
	}

	wrapped := owner
	if inferred != "" {
		wrapped = &ast.MemberExpression{
			Object: &ast.ObjectExpression{Items: []*ast.KeyVal{{
				Key:   &ast.Identifier{Name: inferred},
				Value: owner,
			}}},
			Property: &ast.Identifier{Name: inferred},
		}
	}
	repl := &ast.AssignmentExpression{
		Left:  r.ids.Ident(slot, token.NoPos),
		Op:    "=",
		Right: wrapped,
	}
	if parent := amend.Trail.ParentOf(owner); parent != nil {
		replaceChild(parent, owner, repl)
	}
	return r.ids.Ident(slot, token.NoPos)
}

func getPrototypeOf(arg ast.Expr) ast.Expr {
	return &ast.CallExpression{
		Callee: &ast.MemberExpression{
			Object:   &ast.Identifier{Name: "Object"},
			Property: &ast.Identifier{Name: "getPrototypeOf"},
		},
		Args: []ast.Expr{arg},
	}
}

func dotPrototype(e ast.Expr) ast.Expr {
	return &ast.MemberExpression{Object: e, Property: &ast.Identifier{Name: "prototype"}}
}

// Apply rewrites one amendment in place, using its Trail to reach both the
// site and (for call-binding correction) its parent, and records the
// resolved home reference on every function record between the use site
// and the owner's enclosing scope. Amendments of any other kind are
// ignored, so callers may pass a function's whole Amendments slice through
// unfiltered.
func (r *SuperRewriter) Apply(fr *FunctionRecord, amend *Amendment) {
	switch amend.Kind {
	case AmendSuperMember, AmendSuperCall:
	default:
		return
	}

	name := r.homeName(amend)
	slot := r.slots[amend.Owner]
	if b := r.blocks.Get(amend.Block); b != nil && b.HomeName == "" {
		b.HomeName = name
	}
	ownerFn := NoFunc
	if ob := r.blocks.Get(amend.OwnerBlock); ob != nil {
		ownerFn = ob.Func
	}
	for fn := fr.ID; fn != ownerFn && fn != NoFunc; fn = r.funcs.Get(fn).Parent {
		rec := r.funcs.Get(fn)
		if rec.SuperTarget == "" {
			rec.SuperTarget = name
			rec.SuperTargetSlot = slot
		}
	}

	switch amend.Kind {
	case AmendSuperMember:
		// An instance method's home is ClassRef.prototype; a static
		// method's is ClassRef itself — and so is an object literal's,
		// whose methods hang directly off the object.
		_, ownerIsObject := amend.Owner.(*ast.ObjectExpression)
		r.applyMember(name, slot, amend.IsStatic || ownerIsObject, amend.Trail)
	case AmendSuperCall:
		r.applyCall(name, slot, amend.Trail)
	}
}

func (r *SuperRewriter) applyMember(home string, slot *InjectedID, isStatic bool, trail Trail) {
	member, ok := trail.Leaf().(*ast.MemberExpression)
	if !ok {
		return
	}
	homeRef := r.homeRef(home, slot)
	if !isStatic {
		homeRef = dotPrototype(homeRef)
	}
	member.Object = getPrototypeOf(homeRef)

	// If this member access is itself the callee of a CallExpression, the
	// call must be rebound to the original `this`: super.method(...args)
	// means "call the inherited method with this instance as receiver",
	// not with the freshly-computed prototype object.
	if call, ok := trail.Parent().(*ast.CallExpression); ok && call.Callee == member {
		call.Callee = &ast.MemberExpression{Object: member, Property: &ast.Identifier{Name: "call"}}
		call.Args = append([]ast.Expr{&ast.ThisExpression{Start: token.NoPos}}, call.Args...)
	}
}

func (r *SuperRewriter) applyCall(home string, slot *InjectedID, trail Trail) {
	call, ok := trail.Leaf().(*ast.CallExpression)
	if !ok {
		return
	}
	proto := getPrototypeOf(r.homeRef(home, slot))
	call.Callee = &ast.MemberExpression{Object: proto, Property: &ast.Identifier{Name: "call"}}
	call.Args = append([]ast.Expr{&ast.ThisExpression{Start: token.NoPos}}, call.Args...)
}
