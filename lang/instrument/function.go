package instrument

import (
	"sort"

	"github.com/livepack-go/scopetrace/lang/ast"
)

// FuncID indexes into a FunctionArena. ModuleFunc is the synthetic record
// standing for top-level module scope, the root of the function tree every
// real function record descends from.
type FuncID int32

// ModuleFunc is the id of the synthetic function record representing the
// module's top-level scope.
const ModuleFunc FuncID = 0

// NoFunc marks "no enclosing function" for records that, unusually, have
// none (only ModuleFunc itself).
const NoFunc FuncID = -1

// AmendmentKind names one of the deferred, trail-addressed edits recorded
// while walking a function body, applied after the whole function (and, for
// super, its enclosing class) has been seen in full.
type AmendmentKind uint8

const (
	// AmendConstViolation flags a write to an immutable binding: a user
	// `const`, or a function/class expression's own name seen from inside
	// its body. The write throws in strict mode and is silently dropped in
	// sloppy mode for the function-name case.
	AmendConstViolation AmendmentKind = iota
	// AmendSuperCall flags a `super(...)` call inside a derived
	// constructor, rewritten once the class's super-target slot is known.
	AmendSuperCall
	// AmendSuperMember flags a `super.prop`/`super[expr]` reference inside
	// a method, rewritten once the enclosing class's/object's super-target
	// slot is known.
	AmendSuperMember
	// AmendEvalCall flags a direct, unshadowed `eval(...)` call: its first
	// argument is wrapped in the runtime preval helper so the evaluated
	// source can be instrumented too.
	AmendEvalCall
)

// Amendment is one deferred edit: where (Trail) and what kind it is. The
// rewriter that owns that kind looks up the concrete node via Trail.Leaf
// and performs the edit in place. Super and const-violation amendments are
// prepended to a function's list rather than appended, so nested records
// come first when the list is walked back out; eval amendments append.
type Amendment struct {
	Kind  AmendmentKind
	Block BlockID
	Trail Trail

	// Silent means the write fails without throwing: a function/class
	// expression's own name written to from sloppy-mode code.
	Silent bool
	// IsFnName means the violated binding is a function/class expression's
	// own name rather than a user-authored `const`.
	IsFnName bool

	// Owner is the class/object-literal node a super reference resolves
	// against (AmendSuperCall/AmendSuperMember only), captured at the point
	// the reference was seen since a function's own enclosing-class link
	// isn't always its direct Parent (an arrow nested in a method still
	// reads `this`'s and `super`'s home from the method's class, not from
	// any function record at all).
	Owner ast.Node
	// OwnerBlock is the block that lexically encloses Owner's expression
	// position, where a home-object temp slot gets parked if no stable
	// reference exists (AmendSuperCall/AmendSuperMember only).
	OwnerBlock BlockID
	// IsStatic records whether the method enclosing a super.member
	// reference was itself static (AmendSuperMember only), since that
	// decides whether the rewrite's home object is ClassRef or
	// ClassRef.prototype.
	IsStatic bool
}

// CapturedVar is one free-variable binding a function reads and/or writes
// from an ancestor scope.
type CapturedVar struct {
	Name      string
	ReadsFrom int
	WritesTo  int
	IsFnName  bool // bound by an ancestor function/class expression's own name scope
}

// CapturedScope groups the CapturedVars a function borrows from a single
// ancestor block, keyed by that block's id. The list is finalized sorted
// ascending by block id; that is the order the injected tracker call emits
// the scopes in.
type CapturedScope struct {
	Block BlockID
	Slot  *InjectedID
	Vars  []*CapturedVar
}

// FunctionRecord is everything the instrumentor has learned about one
// function, arrow function, method or class by the time its body has been
// fully visited. One record backs one entry in the emitted metadata, except
// a class's constructor, which is folded into its class's record rather
// than given one of its own.
type FunctionRecord struct {
	ID FuncID

	// Node is the *ast.FunctionDeclaration / *ast.FunctionExpression /
	// *ast.ArrowFunctionExpression / *ast.MethodDefinition /
	// *ast.ClassDeclaration / *ast.ClassExpression this record was built
	// for.
	Node ast.Node

	ParamBlock BlockID
	BodyBlock  BlockID
	// NameBlock is set only for a named function/class expression: the
	// scope holding just the `name -> self` binding, visible for recursive
	// self-reference but nowhere else.
	NameBlock BlockID
	// SuperBlock holds a class's/object literal's super-target slot once
	// materialized; NoBlock until then.
	SuperBlock BlockID

	IsStrict      bool
	Kind          ast.FuncKind
	IsArrow       bool
	IsMethod      bool
	IsStatic      bool // a static class method
	IsConstructor bool
	IsDerived     bool // class/constructor: `extends` present

	// ArgNames is the sequence of parameter names, recorded only when the
	// function is sloppy-mode and every parameter is a plain identifier
	// (the only case where the arguments object aliases named parameters);
	// empty otherwise.
	ArgNames []string
	// UsesArguments is set when the function's own arguments object is
	// referenced, directly or from a nested arrow.
	UsesArguments bool

	CapturedScopes []*CapturedScope

	// InternalVars are names the serializer must re-route through internal
	// bindings for this function: module-level bindings it references, and
	// the synthetic `this` of a derived-class constructor (which cannot be
	// read before super() has run).
	InternalVars map[string]struct{}
	// GlobalNames are free references this function makes that resolve to
	// neither a captured scope nor a module-internal binding.
	GlobalNames map[string]struct{}

	Amendments []*Amendment

	ContainsEval   bool
	ContainsImport bool

	// UsesSuper is true once this function (or, for a class record, any
	// method reachable from it) referenced `super`.
	UsesSuper bool
	// SuperTarget is the resolved home-object reference every super use in
	// this function dispatches through: the class's own name, a stable
	// const, or a minted temp slot. When the reference is a minted slot,
	// SuperTargetSlot carries the injected id so emitted references follow
	// the finalize rename.
	SuperTarget     string
	SuperTargetSlot *InjectedID

	// FirstSuperStmtIndex is the statement index of the first top-level
	// `super(...)` call in a derived class's constructor body, or -1.
	// ReturnsSuper is set when that call is also the constructor's last
	// statement. Both are recorded for the serializer; the instrumentor
	// itself never rewrites `this` around them.
	FirstSuperStmtIndex int
	ReturnsSuper        bool

	Parent   FuncID
	Children []FuncID

	// Trail addresses this function's own node from the program root.
	Trail Trail

	// AstSnapshot is the JSON-ready serialization of Node taken after the
	// walk but before any rewriter mutated the tree: nested functions elided
	// to null, a class's constructor inlined into the class. Nil only for
	// the ModuleFunc record.
	AstSnapshot any

	capturedIndex map[BlockID]*CapturedScope
}

// FunctionArena owns every FunctionRecord allocated while instrumenting one
// module, plus the synthetic ModuleFunc root.
type FunctionArena struct {
	funcs []*FunctionRecord
}

// NewFunctionArena returns an arena pre-seeded with the ModuleFunc record.
func NewFunctionArena() *FunctionArena {
	a := &FunctionArena{}
	root := a.alloc()
	root.Parent = NoFunc
	root.Kind = ast.FuncPlain
	return a
}

func (a *FunctionArena) alloc() *FunctionRecord {
	id := FuncID(len(a.funcs))
	fr := &FunctionRecord{
		ID:                  id,
		ParamBlock:          NoBlock,
		BodyBlock:           NoBlock,
		NameBlock:           NoBlock,
		SuperBlock:          NoBlock,
		FirstSuperStmtIndex: -1,
		InternalVars:        make(map[string]struct{}),
		GlobalNames:         make(map[string]struct{}),
		capturedIndex:       make(map[BlockID]*CapturedScope),
	}
	a.funcs = append(a.funcs, fr)
	return fr
}

// New allocates a fresh function record as a child of parent.
func (a *FunctionArena) New(parent FuncID) *FunctionRecord {
	fr := a.alloc()
	fr.Parent = parent
	if p := a.Get(parent); p != nil {
		p.Children = append(p.Children, fr.ID)
	}
	return fr
}

// Get returns the function record for id.
func (a *FunctionArena) Get(id FuncID) *FunctionRecord {
	if id == NoFunc {
		return nil
	}
	return a.funcs[id]
}

// Len reports how many records (including ModuleFunc) the arena holds.
func (a *FunctionArena) Len() int { return len(a.funcs) }

// All returns every function record in allocation order.
func (a *FunctionArena) All() []*FunctionRecord { return a.funcs }

// PrependAmendment pushes an amendment at the head of fr's list (super and
// const-violation records), so that when the list is applied, records from
// nested sites come before the enclosing ones that were seen first.
func (fr *FunctionRecord) PrependAmendment(a *Amendment) {
	fr.Amendments = append([]*Amendment{a}, fr.Amendments...)
}

// Capture records that fr reads (and, if write is true, writes) name from
// block, creating the CapturedScope/CapturedVar entries on first mention.
func (fr *FunctionRecord) Capture(block BlockID, slot *InjectedID, name string, read, write bool, isFnName bool) *CapturedVar {
	cs, ok := fr.capturedIndex[block]
	if !ok {
		cs = &CapturedScope{Block: block, Slot: slot}
		fr.capturedIndex[block] = cs
		fr.CapturedScopes = append(fr.CapturedScopes, cs)
	}
	for _, v := range cs.Vars {
		if v.Name == name {
			if read {
				v.ReadsFrom++
			}
			if write {
				v.WritesTo++
			}
			return v
		}
	}
	v := &CapturedVar{Name: name, IsFnName: isFnName}
	if read {
		v.ReadsFrom++
	}
	if write {
		v.WritesTo++
	}
	cs.Vars = append(cs.Vars, v)
	return v
}

// FinalizeCaptures sorts a function's captured scopes ascending by block id,
// the order the emitted tracker call and metadata both rely on.
func (fr *FunctionRecord) FinalizeCaptures() {
	sortCapturedScopes(fr.CapturedScopes)
}

func sortCapturedScopes(scopes []*CapturedScope) {
	sort.Slice(scopes, func(i, j int) bool { return scopes[i].Block < scopes[j].Block })
}
