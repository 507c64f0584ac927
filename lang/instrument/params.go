package instrument

import (
	"go/token"

	"github.com/livepack-go/scopetrace/lang/ast"
)

// ParamRewriter moves complex parameters (defaults, destructuring, rest)
// out of a function's signature and into an ordinary `let` declaration at
// the top of the body. Three things depend on it: the tracker call must
// not re-run default expressions when it probes the parameter list; one
// reconstructed parameter may reference another; and a body declaration
// reusing a parameter name must keep sharing one runtime binding.
//
// A signature that is already a flat list of plain identifiers — or whose
// only non-identifier is a trailing `...rest` of a bare name — is left
// untouched.
type ParamRewriter struct {
	ids *IdentifierTable
}

// NewParamRewriter builds a rewriter minting its temp slots from ids.
func NewParamRewriter(ids *IdentifierTable) *ParamRewriter {
	return &ParamRewriter{ids: ids}
}

// OriginalLength computes what Function.prototype.length reports for sig:
// the count of leading parameters up to the first default or rest
// parameter (a bare destructuring pattern counts; `x = 1` and `...r` end
// the count).
func OriginalLength(sig *ast.FuncSignature) int {
	n := 0
	for _, p := range sig.Params {
		switch p.(type) {
		case *ast.AssignmentPattern, *ast.RestElement:
			return n
		}
		n++
	}
	return n
}

// needsRewrite reports whether sig contains a parameter shape that forces
// the rewrite.
func needsRewrite(sig *ast.FuncSignature) bool {
	for i, p := range sig.Params {
		switch r := p.(type) {
		case *ast.Identifier:
			continue
		case *ast.RestElement:
			if _, bare := r.Arg.(*ast.Identifier); bare && i == len(sig.Params)-1 {
				continue
			}
			return true
		default:
			return true
		}
	}
	return false
}

// Rewrite replaces every parameter with a fresh temporary, returning the
// single `let` declaration (to prepend to the function body) that
// reconstructs the original bindings from the temporaries in order:
//
//   - a plain identifier p becomes `p = t`;
//   - a defaulted pattern `p = dflt` keeps its arity contribution via a
//     `t = undefined` parameter and reconstructs as
//     `p = t !== undefined ? t : dflt`, so the default expression runs
//     exactly when the language would have run it, and only once;
//   - a bare destructuring pattern becomes `pat = t`;
//   - a rest pattern becomes `...t` with `pat = t`.
//
// Because temporaries carry the same default/rest shape as the original
// list, the reported Function.prototype.length is unchanged. In a
// sloppy-mode function whose rewritten list would end up all plain
// identifiers, a trailing `t = undefined` parameter is appended to keep
// the arguments object unlinked from the parameter slots, as it was with
// the original complex list. Returns nil when no rewrite is needed.
func (r *ParamRewriter) Rewrite(sig *ast.FuncSignature, strict bool, pos token.Pos) []ast.Stmt {
	if !needsRewrite(sig) {
		return nil
	}

	var decls []*ast.VariableDeclarator
	allPlain := true
	for i, p := range sig.Params {
		temp := r.ids.AllocTemp()
		switch pat := p.(type) {
		case *ast.Identifier:
			sig.Params[i] = r.ids.Ident(temp, pos)
			decls = append(decls, &ast.VariableDeclarator{Target: pat, Init: r.ids.Ident(temp, pos)})
		case *ast.AssignmentPattern:
			sig.Params[i] = &ast.AssignmentPattern{
				Target:  r.ids.Ident(temp, pos),
				Default: &ast.Identifier{Name: "undefined"},
			}
			decls = append(decls, &ast.VariableDeclarator{
				Target: pat.Target,
				Init: &ast.ConditionalExpression{
					Test: &ast.BinaryExpression{
						Left:  r.ids.Ident(temp, pos),
						Op:    "!==",
						Right: &ast.Identifier{Name: "undefined"},
					},
					Consequent: r.ids.Ident(temp, pos),
					Alternate:  pat.Default,
				},
			})
			allPlain = false
		case *ast.RestElement:
			sig.Params[i] = &ast.RestElement{Dots: pat.Dots, Arg: r.ids.Ident(temp, pos)}
			decls = append(decls, &ast.VariableDeclarator{Target: pat.Arg, Init: r.ids.Ident(temp, pos)})
			allPlain = false
		default: // bare array/object pattern
			sig.Params[i] = r.ids.Ident(temp, pos)
			decls = append(decls, &ast.VariableDeclarator{Target: p, Init: r.ids.Ident(temp, pos)})
		}
	}

	if allPlain && !strict {
		pad := r.ids.AllocTemp()
		sig.Params = append(sig.Params, &ast.AssignmentPattern{
			Target:  r.ids.Ident(pad, pos),
			Default: &ast.Identifier{Name: "undefined"},
		})
	}

	return []ast.Stmt{&ast.VariableDeclaration{Kind: ast.DeclLet, Decls: decls}}
}

// paramNames collects the identifier leaves a prologue declaration binds,
// for the body-collision pass below.
func paramNames(decls []ast.Stmt) map[string]bool {
	names := make(map[string]bool)
	for _, s := range decls {
		decl, ok := s.(*ast.VariableDeclaration)
		if !ok {
			continue
		}
		for _, dec := range decl.Decls {
			collectPatternNames(dec.Target, func(name string) { names[name] = true })
		}
	}
	return names
}

// collectPatternNames calls add for every identifier leaf p binds, recursing
// through destructuring, defaults and rest elements.
func collectPatternNames(p ast.Pattern, add func(string)) {
	switch pat := p.(type) {
	case *ast.Identifier:
		add(pat.Name)
	case *ast.AssignmentPattern:
		collectPatternNames(pat.Target, add)
	case *ast.RestElement:
		collectPatternNames(pat.Arg, add)
	case *ast.ArrayPattern:
		for _, e := range pat.Elems {
			if e != nil {
				collectPatternNames(e, add)
			}
		}
	case *ast.ObjectPattern:
		for _, prop := range pat.Props {
			collectPatternNames(prop.Value, add)
		}
		if pat.Rest != nil {
			collectPatternNames(pat.Rest, add)
		}
	}
}

// ResolveBodyClashes reconciles the prologue's `let` bindings with body
// declarations that reuse the same names, which would otherwise make the
// rewritten function a redeclaration error:
//
//   - `var x = e` declarators whose name the prologue now owns become plain
//     `x = e` assignments (an uninitialized `var x;` just drops out) — the
//     shared runtime binding the original had between a parameter and its
//     body var is preserved by the single `let`;
//   - `function x() {...}` declarations are renamed to a fresh temporary in
//     place (keeping source positions for stack traces) and re-bound with
//     an `x = t` assignment at body head, mirroring where hoisting would
//     have bound them.
//
// Nested function bodies are not descended into: their vars are their own.
func (r *ParamRewriter) ResolveBodyClashes(body *ast.BlockStatement, prologue []ast.Stmt, pos token.Pos) []ast.Stmt {
	clash := paramNames(prologue)
	if len(clash) == 0 {
		return nil
	}
	var head []ast.Stmt
	var hoisted []string
	var fix func(stmts []ast.Stmt)
	var fixStmt func(sp *ast.Stmt)
	fixStmt = func(sp *ast.Stmt) {
		switch s := (*sp).(type) {
		case *ast.VariableDeclaration:
			if s.Kind != ast.DeclVar || !varClashes(s, clash) {
				return
			}
			stmt, hoist := varToAssignments(s, clash)
			*sp = stmt
			hoisted = append(hoisted, hoist...)
		case *ast.FunctionDeclaration:
			if s.Name == nil || !clash[s.Name.Name] {
				return
			}
			temp := r.ids.AllocTemp()
			orig := s.Name
			s.Name = r.ids.Ident(temp, orig.Start)
			head = append(head, &ast.ExpressionStatement{Expr: &ast.AssignmentExpression{
				Left:  &ast.Identifier{Name: orig.Name, Start: orig.Start},
				Op:    "=",
				Right: r.ids.Ident(temp, pos),
			}})
		case *ast.BlockStatement:
			fix(s.Body)
		case *ast.IfStatement:
			fixStmt(&s.Consequent)
			if s.Alternate != nil {
				fixStmt(&s.Alternate)
			}
		case *ast.WhileStatement:
			fixStmt(&s.Body)
		case *ast.DoWhileStatement:
			fixStmt(&s.Body)
		case *ast.ForStatement:
			if vd, ok := s.Init.(*ast.VariableDeclaration); ok && vd.Kind == ast.DeclVar && varClashes(vd, clash) {
				stmt, hoist := varToAssignments(vd, clash)
				hoisted = append(hoisted, hoist...)
				if es, ok := stmt.(*ast.ExpressionStatement); ok {
					s.Init = es.Expr
				} else {
					s.Init = nil
				}
			}
			fixStmt(&s.Body)
		case *ast.ForInStatement:
			// A `for (var a in obj)` / `for (var a of xs)` head whose
			// declarator reuses a prologue name sheds its `var`: the loop
			// then assigns the binding the prologue's let already owns.
			// Leaves of a stripped pattern that do not clash are re-declared
			// by the hoisted var at body head, same as a converted body
			// declaration's untouched siblings.
			if vd, ok := s.Left.(*ast.VariableDeclaration); ok && vd.Kind == ast.DeclVar && len(vd.Decls) == 1 {
				target := vd.Decls[0].Target
				clashes := false
				collectPatternNames(target, func(name string) {
					if clash[name] {
						clashes = true
					}
				})
				if clashes {
					s.Left = target
					collectPatternNames(target, func(name string) {
						if !clash[name] {
							hoisted = append(hoisted, name)
						}
					})
				}
			}
			fixStmt(&s.Body)
		case *ast.TryStatement:
			fix(s.Block.Body)
			if s.Handler != nil {
				fix(s.Handler.Body.Body)
			}
			if s.Finally != nil {
				fix(s.Finally.Body)
			}
		case *ast.SwitchStatement:
			for _, c := range s.Cases {
				fix(c.Body)
			}
		case *ast.LabeledStatement:
			fixStmt(&s.Body)
		}
	}
	fix = func(stmts []ast.Stmt) {
		for i := range stmts {
			fixStmt(&stmts[i])
		}
	}
	fix(body.Body)

	if len(hoisted) > 0 {
		decls := make([]*ast.VariableDeclarator, len(hoisted))
		for i, n := range hoisted {
			decls[i] = &ast.VariableDeclarator{Target: &ast.Identifier{Name: n}}
		}
		head = append(head, &ast.VariableDeclaration{Kind: ast.DeclVar, Decls: decls})
	}
	return head
}


func varClashes(decl *ast.VariableDeclaration, clash map[string]bool) bool {
	for _, dec := range decl.Decls {
		if id, ok := dec.Target.(*ast.Identifier); ok && clash[id.Name] {
			return true
		}
	}
	return false
}

// varToAssignments converts a clashing `var` declaration to an expression
// statement of in-order assignments (uninitialized declarators just drop
// out: their binding already exists). Non-clashing declarators become
// assignments too, so evaluation order is untouched; their names are
// returned for the caller to re-declare in a hoisted `var` at body head,
// where hoisting makes the position immaterial.
func varToAssignments(decl *ast.VariableDeclaration, clash map[string]bool) (ast.Stmt, []string) {
	var exprs []ast.Expr
	var hoist []string
	for _, dec := range decl.Decls {
		id, ok := dec.Target.(*ast.Identifier)
		if !ok {
			continue
		}
		if !clash[id.Name] {
			hoist = append(hoist, id.Name)
		}
		if dec.Init != nil {
			exprs = append(exprs, &ast.AssignmentExpression{Left: id, Op: "=", Right: dec.Init})
		}
	}
	switch len(exprs) {
	case 0:
		return &ast.EmptyStatement{}, hoist
	case 1:
		return &ast.ExpressionStatement{Expr: exprs[0]}, hoist
	default:
		return &ast.ExpressionStatement{Expr: &ast.SequenceExpression{Exprs: exprs}}, hoist
	}
}
