package instrument

import "github.com/livepack-go/scopetrace/lang/ast"

// BindKind classifies how a free identifier occurrence resolves, the
// classification the binding resolver performs for every Identifier the
// visitor driver hands it.
type BindKind uint8

const (
	// BindLocal: resolves to a binding owned by the function currently
	// being visited (no capture needed).
	BindLocal BindKind = iota
	// BindModuleInternal: resolves to a top-level module binding (a
	// module-scope var/let/const/function/class, or one of the implicit
	// CommonJS wrapper names seeded at the program root — module, exports,
	// require, __filename, __dirname) referenced from inside a nested
	// function. These never need a captured-scope entry: every function in
	// the module already closes over module scope simply by being defined
	// inside it.
	BindModuleInternal
	// BindCaptured: resolves to a binding owned by some other, non-module
	// ancestor function; the binding's block must be captured.
	BindCaptured
	// BindGlobal: resolves to neither a local/ancestor binding nor a
	// module-internal name — a genuine global reference.
	BindGlobal
)

// Classification is what the resolver hands back for one resolved
// occurrence.
type Classification struct {
	Kind    BindKind
	Block   BlockID
	Binding *Binding
}

// CommonModuleNames are the identifiers a CommonJS module receives without
// declaring them; the driver seeds these into the program's root block
// so they resolve like any other module-scope binding.
var CommonModuleNames = []string{"module", "exports", "require", "__filename", "__dirname"}

// Resolver walks a Block tree (via BlockArena.Parent chains) to classify
// name references. It holds no state of its own beyond the arenas it reads
// from: finding a binding and deciding what to do with it are kept as two
// separate steps, the second belonging to the driver.
type Resolver struct {
	blocks *BlockArena
	funcs  *FunctionArena
}

// NewResolver builds a resolver reading from the given arenas.
func NewResolver(blocks *BlockArena, funcs *FunctionArena) *Resolver {
	return &Resolver{blocks: blocks, funcs: funcs}
}

// Resolve classifies a reference to name, seen while visiting block
// `from`, itself owned by function `fromFunc`.
//
// The ancestor walk naturally handles the shadowing corners that matter
// here: a parameter name re-declared as a body var resolves to the body
// block first (the two share one runtime binding, the body block being the
// param block's VarsBlock); a function expression's own name coinciding
// with a body declaration resolves to the body binding, since the name
// block sits above the param block; and a `let`/`const` inside a switch
// body resolves to the dedicated switch block, never the enclosing one.
func (r *Resolver) Resolve(from BlockID, fromFunc FuncID, name string) Classification {
	for b := r.blocks.Get(from); b != nil; b = r.blocks.Get(b.Parent) {
		bdg, ok := b.Lookup(name)
		if !ok {
			continue
		}
		switch {
		case b.Func == fromFunc:
			return Classification{Kind: BindLocal, Block: b.ID, Binding: bdg}
		case b.Func == ModuleFunc:
			return Classification{Kind: BindModuleInternal, Block: b.ID, Binding: bdg}
		default:
			return Classification{Kind: BindCaptured, Block: b.ID, Binding: bdg}
		}
	}
	return Classification{Kind: BindGlobal}
}

// IsImmutable reports whether a write to bdg can never take effect: a user
// `const`, or a function/class expression's own name seen from inside its
// body.
func IsImmutable(bdg *Binding) bool {
	if bdg == nil {
		return false
	}
	return bdg.Kind == ast.HintConst || bdg.IsFunctionName
}

// IsSilentConst reports whether a write to bdg fails silently rather than
// throwing, given the ambient strictness at the write site: only a
// function/class expression's own name written from sloppy-mode code
// behaves that way; every other immutable write throws.
func IsSilentConst(bdg *Binding, strict bool) bool {
	if bdg == nil {
		return false
	}
	return bdg.IsFunctionName && !strict
}
