package instrument

import (
	"github.com/dolthub/swiss"

	"github.com/livepack-go/scopetrace/lang/ast"
)

// BlockID indexes into a BlockArena. Blocks are allocated in a flat arena
// and referenced by this small integer rather than by pointer, so the tree
// of scopes the resolver builds never forms a reference cycle with the AST
// nodes that point back into it.
type BlockID int32

// NoBlock is the zero value meaning "no block" (a root's parent, an absent
// catch binding, ...).
const NoBlock BlockID = -1

// BlockKind distinguishes the handful of situations a Block gets created
// for; most matter only for diagnostics and for the parameter/super
// rewriters deciding where a synthesized declaration belongs.
type BlockKind uint8

const (
	BlockProgram BlockKind = iota
	BlockParam          // a function's parameter list scope
	BlockBody           // a function's top-level body scope (the vars block)
	BlockPlain          // an ordinary `{ ... }` statement block
	BlockForHead        // the per-iteration head/body of a for/for-in/for-of loop
	BlockLoopBody       // a while/do-while body scope
	BlockCatchParam     // a catch clause's binding scope
	BlockSwitchBody     // a switch statement's case-list scope
	BlockClassSuper     // scope holding a class's/object literal's super home-object slot
	BlockClassName      // a named class expression's self-reference scope
	BlockFuncExprName   // a named function expression's self-reference scope
)

// Binding records one name bound within a Block.
type Binding struct {
	Name           string
	Kind           ast.BindingHint
	IsFunctionName bool // bound by a function/class expression's own name scope
	Node           *ast.Identifier
}

// Block is one lexical scope. Blocks form a tree via Parent; VarsBlock
// names the block that `var` declarations inside this block actually
// target (function-scoped, not block-scoped).
type Block struct {
	ID        BlockID
	Kind      BlockKind
	Parent    BlockID
	VarsBlock BlockID
	Func      FuncID // nearest enclosing function (ModuleFunc for top-level blocks)

	// Name is an optional human-readable label (the enclosing function's
	// name for param/body blocks), carried into the eval helper's bindings
	// list so dynamically-compiled code can report where a binding lives.
	Name string

	// ScopeIDSlot is the shared scope-id binding materializing this block at
	// runtime, lazily allocated the first time a nested function captures a
	// binding from it.
	ScopeIDSlot *InjectedID

	// TempSlots are home-object temporaries the super-target rewriter parked
	// in this block; they are emitted as a single uninitialized `let`
	// declaration right after the scope-id initializer.
	TempSlots []*InjectedID

	// Prepend inserts a statement at the head of the statement list this
	// block instantiates with. The driver wires it for every block that has
	// (or can be given) such a list: the program, function bodies, `{...}`
	// blocks, loop bodies (wrapping a braceless body on demand) and catch
	// clauses.
	Prepend func(ast.Stmt)

	// InlineInit threads an expression into a position evaluated exactly
	// once at block entry, for the one block shape that owns no statement
	// list at all: a switch body, where the scope-id assignment rides along
	// with the discriminant.
	InlineInit func(ast.Expr)

	// HomeName is the resolved home-object reference for a super block (the
	// class's own name, a stable const, or a minted temp slot), filled in by
	// the super-target rewriter and read back by the tracker injector when
	// it emits the captured `super` value.
	HomeName string

	bindings *swiss.Map[string, *Binding]
	order    []string // insertion order, for deterministic capturedVars emission
}

// BlockArena owns every Block allocated while instrumenting one module.
type BlockArena struct {
	blocks []*Block
}

// NewBlockArena returns an empty arena.
func NewBlockArena() *BlockArena {
	return &BlockArena{}
}

// New allocates a fresh block of kind, parented under parent, belonging to
// fn. VarsBlock defaults to the block's own id; callers that need `var`
// hoisting to skip over this block (e.g. a function's param block forwards
// to its body block) overwrite it afterwards.
func (a *BlockArena) New(kind BlockKind, parent BlockID, fn FuncID) *Block {
	id := BlockID(len(a.blocks))
	b := &Block{
		ID:        id,
		Kind:      kind,
		Parent:    parent,
		VarsBlock: id,
		Func:      fn,
		bindings:  swiss.NewMap[string, *Binding](8),
	}
	a.blocks = append(a.blocks, b)
	return b
}

// Get returns the block for id. id must have come from this arena.
func (a *BlockArena) Get(id BlockID) *Block {
	if id == NoBlock {
		return nil
	}
	return a.blocks[id]
}

// Len reports how many blocks the arena has allocated.
func (a *BlockArena) Len() int { return len(a.blocks) }

// All returns every block in allocation (ascending id) order.
func (a *BlockArena) All() []*Block { return a.blocks }

// Bind declares name in b. It reports the prior binding and true if name was
// already bound directly in this block (legal for `var` re-declaration and
// for a parameter name re-declared as a body var, both of which share one
// runtime binding).
func (b *Block) Bind(name string, bdg *Binding) (prior *Binding, redeclared bool) {
	if existing, ok := b.bindings.Get(name); ok {
		b.bindings.Put(name, bdg)
		return existing, true
	}
	b.bindings.Put(name, bdg)
	b.order = append(b.order, name)
	return nil, false
}

// Lookup returns the binding for name directly in b, without walking
// ancestors.
func (b *Block) Lookup(name string) (*Binding, bool) {
	return b.bindings.Get(name)
}

// Names returns the names bound directly in b, in declaration order.
func (b *Block) Names() []string { return b.order }
