package instrument

import "github.com/livepack-go/scopetrace/lang/ast"

// snapshotFunctionAST serializes a function-like node into the JSON-ready
// tree carried in its record's metadata. It must run after the walk but
// before any rewriter mutates the tree, so the snapshot reflects the source
// as authored. Nested functions are elided to null — each has a record and
// snapshot of its own — except a class's constructor, which inlines into
// the class snapshot since it shares the class's record.
func snapshotFunctionAST(root ast.Node) any {
	return astJSON(root, root)
}

// astJSON converts one node to its serialized form, eliding any
// function-like node other than root itself. Keys marshal in alphabetical
// order (encoding/json sorts map keys), which keeps the emitted blobs
// byte-stable across runs.
func astJSON(n ast.Node, root ast.Node) any {
	if n == nil {
		return nil
	}
	if n != root {
		switch n.(type) {
		case *ast.FunctionDeclaration, *ast.FunctionExpression,
			*ast.ArrowFunctionExpression, *ast.ClassDeclaration, *ast.ClassExpression:
			return nil
		}
	}

	switch node := n.(type) {
	case *ast.Program:
		return map[string]any{
			"type": "Program",
			"body": stmtsJSON(node.Body, root),
		}
	case *ast.BlockStatement:
		return map[string]any{
			"type": "BlockStatement",
			"body": stmtsJSON(node.Body, root),
		}
	case *ast.Directive:
		return map[string]any{
			"type":       "ExpressionStatement",
			"expression": astJSON(node.Expr, root),
			"directive":  node.Value,
		}
	case *ast.VariableDeclaration:
		decls := make([]any, len(node.Decls))
		for i, d := range node.Decls {
			decls[i] = map[string]any{
				"type": "VariableDeclarator",
				"id":   astJSON(d.Target, root),
				"init": astJSON(d.Init, root),
			}
		}
		return map[string]any{
			"type":         "VariableDeclaration",
			"kind":         node.Kind.String(),
			"declarations": decls,
		}
	case *ast.ExpressionStatement:
		return map[string]any{
			"type":       "ExpressionStatement",
			"expression": astJSON(node.Expr, root),
		}
	case *ast.EmptyStatement:
		return map[string]any{"type": "EmptyStatement"}
	case *ast.ReturnStatement:
		return map[string]any{
			"type":     "ReturnStatement",
			"argument": astJSON(node.Arg, root),
		}
	case *ast.ThrowStatement:
		return map[string]any{
			"type":     "ThrowStatement",
			"argument": astJSON(node.Arg, root),
		}
	case *ast.BreakStatement:
		return map[string]any{
			"type":  "BreakStatement",
			"label": identJSON(node.Label),
		}
	case *ast.ContinueStatement:
		return map[string]any{
			"type":  "ContinueStatement",
			"label": identJSON(node.Label),
		}
	case *ast.LabeledStatement:
		return map[string]any{
			"type":  "LabeledStatement",
			"label": astJSON(node.Label, root),
			"body":  astJSON(node.Body, root),
		}
	case *ast.IfStatement:
		return map[string]any{
			"type":       "IfStatement",
			"test":       astJSON(node.Test, root),
			"consequent": astJSON(node.Consequent, root),
			"alternate":  astJSON(node.Alternate, root),
		}
	case *ast.WhileStatement:
		return map[string]any{
			"type": "WhileStatement",
			"test": astJSON(node.Test, root),
			"body": astJSON(node.Body, root),
		}
	case *ast.DoWhileStatement:
		return map[string]any{
			"type": "DoWhileStatement",
			"body": astJSON(node.Body, root),
			"test": astJSON(node.Test, root),
		}
	case *ast.ForStatement:
		return map[string]any{
			"type":   "ForStatement",
			"init":   astJSON(node.Init, root),
			"test":   astJSON(node.Test, root),
			"update": astJSON(node.Post, root),
			"body":   astJSON(node.Body, root),
		}
	case *ast.ForInStatement:
		typ := "ForInStatement"
		if node.IsOf {
			typ = "ForOfStatement"
		}
		return map[string]any{
			"type":  typ,
			"left":  astJSON(node.Left, root),
			"right": astJSON(node.Right, root),
			"body":  astJSON(node.Body, root),
		}
	case *ast.TryStatement:
		out := map[string]any{
			"type":      "TryStatement",
			"block":     astJSON(node.Block, root),
			"handler":   nil,
			"finalizer": nil,
		}
		if node.Handler != nil {
			out["handler"] = astJSON(node.Handler, root)
		}
		if node.Finally != nil {
			out["finalizer"] = astJSON(node.Finally, root)
		}
		return out
	case *ast.CatchClause:
		return map[string]any{
			"type":  "CatchClause",
			"param": astJSON(node.Param, root),
			"body":  astJSON(node.Body, root),
		}
	case *ast.SwitchStatement:
		cases := make([]any, len(node.Cases))
		for i, c := range node.Cases {
			cases[i] = map[string]any{
				"type":       "SwitchCase",
				"test":       astJSON(c.Test, root),
				"consequent": stmtsJSON(c.Body, root),
			}
		}
		return map[string]any{
			"type":         "SwitchStatement",
			"discriminant": astJSON(node.Discriminant, root),
			"cases":        cases,
		}
	case *ast.Identifier:
		return map[string]any{
			"type": "Identifier",
			"name": node.Name,
		}
	case *ast.ThisExpression:
		return map[string]any{"type": "ThisExpression"}
	case *ast.Super:
		return map[string]any{"type": "Super"}
	case *ast.Literal:
		return map[string]any{
			"type":  "Literal",
			"raw":   node.Raw,
			"value": node.Value,
		}
	case *ast.TemplateLiteral:
		return map[string]any{
			"type":        "TemplateLiteral",
			"quasis":      node.Quasis,
			"expressions": exprsJSON(node.Exprs, root),
		}
	case *ast.CallExpression:
		return map[string]any{
			"type":      "CallExpression",
			"callee":    astJSON(node.Callee, root),
			"arguments": exprsJSON(node.Args, root),
			"optional":  node.Optional,
		}
	case *ast.NewExpression:
		return map[string]any{
			"type":      "NewExpression",
			"callee":    astJSON(node.Callee, root),
			"arguments": exprsJSON(node.Args, root),
		}
	case *ast.ImportExpression:
		return map[string]any{
			"type":   "ImportExpression",
			"source": astJSON(node.Arg, root),
		}
	case *ast.MemberExpression:
		return map[string]any{
			"type":     "MemberExpression",
			"object":   astJSON(node.Object, root),
			"property": astJSON(node.Property, root),
			"computed": node.Computed,
			"optional": node.Optional,
		}
	case *ast.AssignmentExpression:
		return map[string]any{
			"type":     "AssignmentExpression",
			"operator": node.Op,
			"left":     astJSON(node.Left, root),
			"right":    astJSON(node.Right, root),
		}
	case *ast.BinaryExpression:
		return map[string]any{
			"type":     "BinaryExpression",
			"operator": node.Op,
			"left":     astJSON(node.Left, root),
			"right":    astJSON(node.Right, root),
		}
	case *ast.LogicalExpression:
		return map[string]any{
			"type":     "LogicalExpression",
			"operator": node.Op,
			"left":     astJSON(node.Left, root),
			"right":    astJSON(node.Right, root),
		}
	case *ast.UnaryExpression:
		return map[string]any{
			"type":     "UnaryExpression",
			"operator": node.Op,
			"argument": astJSON(node.Arg, root),
		}
	case *ast.UpdateExpression:
		return map[string]any{
			"type":     "UpdateExpression",
			"operator": node.Op,
			"argument": astJSON(node.Arg, root),
			"prefix":   node.Prefix,
		}
	case *ast.ConditionalExpression:
		return map[string]any{
			"type":       "ConditionalExpression",
			"test":       astJSON(node.Test, root),
			"consequent": astJSON(node.Consequent, root),
			"alternate":  astJSON(node.Alternate, root),
		}
	case *ast.SequenceExpression:
		return map[string]any{
			"type":        "SequenceExpression",
			"expressions": exprsJSON(node.Exprs, root),
		}
	case *ast.ArrayExpression:
		return map[string]any{
			"type":     "ArrayExpression",
			"elements": exprsJSON(node.Items, root),
		}
	case *ast.SpreadElement:
		return map[string]any{
			"type":     "SpreadElement",
			"argument": astJSON(node.Arg, root),
		}
	case *ast.ObjectExpression:
		props := make([]any, 0, len(node.Items)+len(node.Spread))
		for _, kv := range node.Items {
			props = append(props, map[string]any{
				"type":      "Property",
				"key":       astJSON(kv.Key, root),
				"value":     astJSON(kv.Value, root),
				"computed":  kv.Computed,
				"shorthand": kv.Shorthand,
				"method":    kv.Method,
			})
		}
		for _, s := range node.Spread {
			props = append(props, astJSON(s, root))
		}
		return map[string]any{
			"type":       "ObjectExpression",
			"properties": props,
		}
	case *ast.ArrayPattern:
		elems := make([]any, len(node.Elems))
		for i, e := range node.Elems {
			elems[i] = astJSON(e, root)
		}
		return map[string]any{
			"type":     "ArrayPattern",
			"elements": elems,
		}
	case *ast.ObjectPattern:
		props := make([]any, 0, len(node.Props)+1)
		for _, p := range node.Props {
			props = append(props, map[string]any{
				"type":      "Property",
				"key":       astJSON(p.Key, root),
				"value":     astJSON(p.Value, root),
				"computed":  p.Computed,
				"shorthand": p.Shorthand,
			})
		}
		if node.Rest != nil {
			props = append(props, astJSON(node.Rest, root))
		}
		return map[string]any{
			"type":       "ObjectPattern",
			"properties": props,
		}
	case *ast.AssignmentPattern:
		return map[string]any{
			"type":  "AssignmentPattern",
			"left":  astJSON(node.Target, root),
			"right": astJSON(node.Default, root),
		}
	case *ast.RestElement:
		return map[string]any{
			"type":     "RestElement",
			"argument": astJSON(node.Arg, root),
		}
	case *ast.FunctionDeclaration:
		return map[string]any{
			"type":      "FunctionDeclaration",
			"id":        identJSON(node.Name),
			"params":    patternsJSON(node.Sig.Params, root),
			"body":      astJSON(node.Body, root),
			"async":     node.Async,
			"generator": node.Gen,
		}
	case *ast.FunctionExpression:
		return map[string]any{
			"type":      "FunctionExpression",
			"id":        identJSON(node.Name),
			"params":    patternsJSON(node.Sig.Params, root),
			"body":      astJSON(node.Body, root),
			"async":     node.Async,
			"generator": node.Gen,
		}
	case *ast.ArrowFunctionExpression:
		return map[string]any{
			"type":       "ArrowFunctionExpression",
			"params":     patternsJSON(node.Sig.Params, root),
			"body":       astJSON(node.Body, root),
			"async":      node.Async,
			"expression": node.ExprBody,
		}
	case *ast.MethodDefinition:
		return map[string]any{
			"type":        "MethodDefinition",
			"key":         astJSON(node.Key, root),
			"computed":    node.Computed,
			"static":      node.Static,
			"constructor": node.IsConstructor,
			"async":       node.Async,
			"generator":   node.Gen,
			"params":      patternsJSON(node.Sig.Params, root),
			"body":        astJSON(node.Body, root),
		}
	case *ast.PropertyDefinition:
		return map[string]any{
			"type":     "PropertyDefinition",
			"key":      astJSON(node.Key, root),
			"computed": node.Computed,
			"static":   node.Static,
			"value":    astJSON(node.Value, root),
		}
	case *ast.ClassDeclaration:
		return map[string]any{
			"type":       "ClassDeclaration",
			"id":         identJSON(node.Name),
			"superClass": astJSON(node.SuperExpr, root),
			"body":       classBodyJSON(node.Body, root),
		}
	case *ast.ClassExpression:
		return map[string]any{
			"type":       "ClassExpression",
			"id":         identJSON(node.Name),
			"superClass": astJSON(node.SuperExpr, root),
			"body":       classBodyJSON(node.Body, root),
		}
	}
	return nil
}

// identJSON serializes an optional identifier slot, where the node pointer
// itself (not an interface) may be nil.
func identJSON(id *ast.Identifier) any {
	if id == nil {
		return nil
	}
	return map[string]any{
		"type": "Identifier",
		"name": id.Name,
	}
}

// classBodyJSON serializes a class body reached from its own class record:
// the constructor inlines (it has no record of its own), every other method
// elides to null exactly like any other nested function.
func classBodyJSON(body *ast.ClassBody, root ast.Node) any {
	members := make([]any, 0, len(body.Fields)+len(body.Methods))
	for _, f := range body.Fields {
		members = append(members, astJSON(f, root))
	}
	for _, m := range body.Methods {
		if m.IsConstructor {
			members = append(members, astJSON(m, m))
			continue
		}
		members = append(members, nil)
	}
	return map[string]any{
		"type": "ClassBody",
		"body": members,
	}
}

func stmtsJSON(stmts []ast.Stmt, root ast.Node) []any {
	out := make([]any, len(stmts))
	for i, s := range stmts {
		out[i] = astJSON(s, root)
	}
	return out
}

func exprsJSON(exprs []ast.Expr, root ast.Node) []any {
	out := make([]any, len(exprs))
	for i, e := range exprs {
		out[i] = astJSON(e, root)
	}
	return out
}

func patternsJSON(pats []ast.Pattern, root ast.Node) []any {
	out := make([]any, len(pats))
	for i, p := range pats {
		out[i] = astJSON(p, root)
	}
	return out
}
