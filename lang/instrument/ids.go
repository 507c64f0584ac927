package instrument

import (
	"fmt"
	"go/token"
	"regexp"
	"strconv"

	"github.com/dolthub/swiss"

	"github.com/livepack-go/scopetrace/lang/ast"
)

// InjectedKind names the family an injected identifier belongs to, one per
// allocator method on the identifier table.
type InjectedKind uint8

const (
	KindTracker InjectedKind = iota
	KindGetScopeID
	KindScopeID
	KindTemp
	KindFnInfo
	KindEval
	KindPreval
	KindGetEval
)

func (k InjectedKind) String() string {
	switch k {
	case KindTracker:
		return "tracker"
	case KindGetScopeID:
		return "getScopeId"
	case KindScopeID:
		return "scopeId"
	case KindTemp:
		return "temp"
	case KindFnInfo:
		return "fnInfo"
	case KindEval:
		return "eval"
	case KindPreval:
		return "preval"
	case KindGetEval:
		return "getEval"
	default:
		return "unknown"
	}
}

// InjectedID is one name the instrumentor has minted for itself: a tracker
// call, a scope-id parameter, a temp slot, and so on. Every *ast.Identifier
// node referencing this name is recorded in Refs so a later suffix rename
// (finalize) can rewrite them all in lockstep.
type InjectedID struct {
	Kind InjectedKind
	Name string
	Refs []*ast.Identifier
}

// IdentifierTable mints collision-free names for every identifier the
// instrumentor injects, tracks user-authored names so an injected name never
// shadows one, and performs the one deferred rename pass (finalize) once the
// full set of collisions is known.
//
// The "seen user names" set is a string-keyed dolthub/swiss map populated
// once per user identifier. Nothing reads it back: the escalation decision
// rests on the counter NoteUserName maintains.
type IdentifierTable struct {
	prefix  string
	counter int
	seen    *swiss.Map[string, struct{}]

	injected []*InjectedID

	tracker        *InjectedID
	getScopeID     *InjectedID
	scopeIDByBlock map[BlockID]*InjectedID
	tempN          int
	fnInfoByFunc   map[FuncID]*InjectedID
	eval           *InjectedID
	preval         *InjectedID
	getEval        *InjectedID
}

var prefixSuffixRe = regexp.MustCompile(`^(\d*)_`)

// NewIdentifierTable builds a table that mints names of the form
// "<prefix>_<body>", escalating to "<prefix><n>_<body>" once finalize
// detects that a plain <prefix>_ name collides with something the module
// already declares.
func NewIdentifierTable(prefix string) *IdentifierTable {
	if prefix == "" {
		prefix = "livepack"
	}
	return &IdentifierTable{
		prefix:         prefix,
		seen:           swiss.NewMap[string, struct{}](64),
		scopeIDByBlock: make(map[BlockID]*InjectedID),
		fnInfoByFunc:   make(map[FuncID]*InjectedID),
	}
}

// NoteUserName registers a name that already exists in the module, so
// finalize can detect a collision with an injected name and escalate the
// prefix. A user name of the form "<prefix><digits>_..." bumps the
// escalation counter past its digits directly, so the rename can never land
// on a suffix the source already occupies.
func (t *IdentifierTable) NoteUserName(name string) {
	t.seen.Put(name, struct{}{})

	if len(name) <= len(t.prefix) || name[:len(t.prefix)] != t.prefix {
		return
	}
	rest := name[len(t.prefix):]
	m := prefixSuffixRe.FindStringSubmatch(rest)
	if m == nil {
		return
	}
	n := 0
	if m[1] != "" {
		v, err := strconv.Atoi(m[1])
		if err == nil {
			n = v
		}
	}
	if n+1 > t.counter {
		t.counter = n + 1
	}
}

func (t *IdentifierTable) mint(kind InjectedKind, body string) *InjectedID {
	id := &InjectedID{Kind: kind, Name: t.prefix + "_" + body}
	t.injected = append(t.injected, id)
	return id
}

// Ident creates a new *ast.Identifier node referencing id's current name at
// pos, marked Internal so visitors re-entering the rewritten tree skip over
// it instead of trying to resolve it as a user reference.
func (t *IdentifierTable) Ident(id *InjectedID, pos token.Pos) *ast.Identifier {
	n := &ast.Identifier{Name: id.Name, Start: pos, Internal: true}
	id.Refs = append(id.Refs, n)
	return n
}

// AllocTracker returns the module's single shared tracker-call callee name,
// minting it on first use: every function's tracker call references the
// same identifier, imported once at the top of the module.
func (t *IdentifierTable) AllocTracker() *InjectedID {
	if t.tracker == nil {
		t.tracker = t.mint(KindTracker, "tracker")
	}
	return t.tracker
}

// AllocGetScopeID returns the module's shared scope-id provider name (the
// second half of the prelude destructure), minting it on first use.
func (t *IdentifierTable) AllocGetScopeID() *InjectedID {
	if t.getScopeID == nil {
		t.getScopeID = t.mint(KindGetScopeID, "getScopeId")
	}
	return t.getScopeID
}

// AllocScopeID returns the shared scope-id slot name for block, minting it
// on first use. Every function capturing the same block must reference the
// identical slot, so this is idempotent per BlockID.
func (t *IdentifierTable) AllocScopeID(block BlockID) *InjectedID {
	if id, ok := t.scopeIDByBlock[block]; ok {
		return id
	}
	id := t.mint(KindScopeID, fmt.Sprintf("scopeId_%d", int(block)))
	t.scopeIDByBlock[block] = id
	return id
}

// AllocTemp mints a fresh, function-scoped temp slot (used by the parameter
// rewriter and the super-target rewriter).
func (t *IdentifierTable) AllocTemp() *InjectedID {
	t.tempN++
	return t.mint(KindTemp, fmt.Sprintf("temp_%d", t.tempN))
}

// AllocFnInfo returns fn's function-info getter name, minting it on first
// use (idempotent per FuncID, same pattern as AllocScopeID).
func (t *IdentifierTable) AllocFnInfo(fn FuncID) *InjectedID {
	if id, ok := t.fnInfoByFunc[fn]; ok {
		return id
	}
	id := t.mint(KindFnInfo, fmt.Sprintf("getFnInfo_%d", int(fn)))
	t.fnInfoByFunc[fn] = id
	return id
}

// AllocEval, AllocPreval and AllocGetEval return the module's three
// singleton eval-escalation names, minting each on first use: the wrapped
// indirect-eval reference, the pre-evaluation snapshot hook and the
// live-scope accessor. Only ever needed once per module, when any function
// ContainsEval.
func (t *IdentifierTable) AllocEval() *InjectedID {
	if t.eval == nil {
		t.eval = t.mint(KindEval, "eval")
	}
	return t.eval
}

func (t *IdentifierTable) AllocPreval() *InjectedID {
	if t.preval == nil {
		t.preval = t.mint(KindPreval, "preval")
	}
	return t.preval
}

func (t *IdentifierTable) AllocGetEval() *InjectedID {
	if t.getEval == nil {
		t.getEval = t.mint(KindGetEval, "getEval")
	}
	return t.getEval
}

// MarkInternal tags an existing node as instrumentor-injected, for the rare
// cases where a node is built before it's known which InjectedID it belongs
// to (e.g. a synthetic Identifier cloned from a user one).
func (t *IdentifierTable) MarkInternal(n *ast.Identifier) { n.Internal = true }

// Finalize applies the deferred escalation rename: if any user name in the
// module had the form "<prefix><digits>_...", every injected name is
// rewritten to "<prefix><n>_" where n is one more than the largest such
// digit suffix NoteUserName observed (an empty suffix counting as 0). It
// must run after every AllocX call.
func (t *IdentifierTable) Finalize() {
	if t.counter == 0 {
		return
	}
	suffix := strconv.Itoa(t.counter)
	for _, id := range t.injected {
		rest := id.Name[len(t.prefix)+1:]
		id.Name = t.prefix + suffix + "_" + rest
		for _, ref := range id.Refs {
			ref.Name = id.Name
		}
	}
}
