package instrument

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Metadata is the JSON-serializable output of one Instrument call: one
// entry per function record, plus the module's filename (the key into the
// shared sources map the serializer maintains across modules).
type Metadata struct {
	Filename  string         `json:"filename"`
	Functions []FunctionMeta `json:"functions"`
}

// CapturedVarMeta is the serialized form of a CapturedVar.
type CapturedVarMeta struct {
	Name           string `json:"name"`
	ReadsFrom      int    `json:"readsFrom,omitempty"`
	WritesTo       int    `json:"writesTo,omitempty"`
	IsFunctionName bool   `json:"isFunctionName,omitempty"`
}

// CapturedScopeMeta is the serialized form of a CapturedScope. Entries are
// emitted ascending by block id, the same order the tracker call reports
// scopes in at runtime.
type CapturedScopeMeta struct {
	BlockID int               `json:"blockId"`
	Vars    []CapturedVarMeta `json:"vars"`
}

// AmendmentMeta is the serialized form of one deferred rewrite the
// serializer must still account for: a const violation or a super use.
type AmendmentMeta struct {
	Kind    string   `json:"kind"`
	BlockID int      `json:"blockId"`
	Trail   []string `json:"trail,omitempty"`
}

// FunctionMeta is the serialized form of a FunctionRecord.
type FunctionMeta struct {
	ID       int  `json:"id"`
	BlockID  int  `json:"blockId"`
	IsStrict bool `json:"isStrict"`

	Kind          string `json:"kind"`
	IsMethod      bool   `json:"isMethod,omitempty"`
	IsArrow       bool   `json:"isArrow,omitempty"`
	IsConstructor bool   `json:"isConstructor,omitempty"`
	HasSuperClass bool   `json:"hasSuperClass,omitempty"`

	ArgNames []string `json:"argNames,omitempty"`

	CapturedScopes []CapturedScopeMeta `json:"capturedScopes,omitempty"`
	InternalVars   []string            `json:"internalVars,omitempty"`
	GlobalNames    []string            `json:"globalNames,omitempty"`
	Amendments     []AmendmentMeta     `json:"amendments,omitempty"`

	ContainsEval   bool `json:"containsEval,omitempty"`
	ContainsImport bool `json:"containsImport,omitempty"`

	SuperTarget              string `json:"superTarget,omitempty"`
	FirstSuperStatementIndex *int   `json:"firstSuperStatementIndex,omitempty"`
	ReturnsSuper             bool   `json:"returnsSuper,omitempty"`

	Parent   *int  `json:"parent,omitempty"`
	Children []int `json:"children,omitempty"`

	// AST is the pre-instrumentation snapshot of the function's own tree,
	// nested functions elided to null (each child is reachable through
	// Children instead), a class's constructor inlined into the class.
	AST any `json:"ast,omitempty"`
}

func kindName(fr *FunctionRecord) string {
	switch fr.Kind.KindCode() {
	case "a":
		return "async"
	case "g":
		return "generator"
	case "G":
		return "async-generator"
	case "c":
		return "class"
	default:
		return "plain"
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func amendmentKindName(a *Amendment) string {
	switch a.Kind {
	case AmendSuperCall:
		return "super-call"
	case AmendSuperMember:
		return "super-expression"
	case AmendConstViolation:
		switch {
		case !a.IsFnName:
			return "const-violation-const"
		case a.Silent:
			return "const-violation-fn-silent"
		default:
			return "const-violation-fn-throwing"
		}
	}
	return ""
}

// superTargetName reports the home-object reference under its final name:
// a minted slot reads through its injected id (renamed by finalize when
// the prefix escalated), a user binding is already stable.
func superTargetName(fr *FunctionRecord) string {
	if fr.SuperTargetSlot != nil {
		return fr.SuperTargetSlot.Name
	}
	return fr.SuperTarget
}

// scopeBlockID reports the id a function is published under: its parameter
// block, unless the function contains a direct eval and carries its own
// name scope, in which case the name block takes over (code compiled
// inside the eval must see the self-reference as an internal binding so
// writes to it misbehave exactly as they would have uninstrumented).
func scopeBlockID(fr *FunctionRecord) int {
	if fr.ContainsEval && fr.NameBlock != NoBlock {
		return int(fr.NameBlock)
	}
	return int(fr.ParamBlock)
}

// BuildMetadata serializes every function record in funcs into the
// emitted-output shape, ModuleFunc included (its kind is reported as
// "module" so consumers never confuse it with a real function).
func BuildMetadata(filename string, funcs *FunctionArena) *Metadata {
	md := &Metadata{Filename: filename}
	for _, fr := range funcs.All() {
		fm := FunctionMeta{
			ID:             int(fr.ID),
			BlockID:        scopeBlockID(fr),
			IsStrict:       fr.IsStrict,
			Kind:           kindName(fr),
			IsMethod:       fr.IsMethod,
			IsArrow:        fr.IsArrow,
			IsConstructor:  fr.IsConstructor,
			HasSuperClass:  fr.IsDerived,
			ArgNames:       fr.ArgNames,
			ContainsEval:   fr.ContainsEval,
			ContainsImport: fr.ContainsImport,
			SuperTarget:    superTargetName(fr),
			ReturnsSuper:   fr.ReturnsSuper,
			InternalVars:   sortedKeys(fr.InternalVars),
			GlobalNames:    sortedKeys(fr.GlobalNames),
		}
		if fr.ID == ModuleFunc {
			fm.Kind = "module"
		}
		if fr.FirstSuperStmtIndex >= 0 {
			idx := fr.FirstSuperStmtIndex
			fm.FirstSuperStatementIndex = &idx
		}
		if fr.Parent != NoFunc {
			p := int(fr.Parent)
			fm.Parent = &p
		}
		for _, c := range fr.Children {
			fm.Children = append(fm.Children, int(c))
		}
		fm.AST = fr.AstSnapshot
		for _, cs := range fr.CapturedScopes {
			csm := CapturedScopeMeta{BlockID: int(cs.Block)}
			for _, v := range cs.Vars {
				csm.Vars = append(csm.Vars, CapturedVarMeta{
					Name:           v.Name,
					ReadsFrom:      v.ReadsFrom,
					WritesTo:       v.WritesTo,
					IsFunctionName: v.IsFnName,
				})
			}
			fm.CapturedScopes = append(fm.CapturedScopes, csm)
		}
		for _, a := range fr.Amendments {
			kind := amendmentKindName(a)
			if kind == "" {
				continue // eval wrapping is structural, not a serializer concern
			}
			am := AmendmentMeta{Kind: kind, BlockID: int(a.Block)}
			for _, n := range a.Trail {
				am.Trail = append(am.Trail, fmt.Sprintf("%v", n))
			}
			fm.Amendments = append(fm.Amendments, am)
		}
		md.Functions = append(md.Functions, fm)
	}
	return md
}
