package instrument

import "github.com/livepack-go/scopetrace/lang/ast"

// replaceChild swaps old for repl in whichever slot of parent holds it,
// reporting whether a slot was found. The rewriters use it together with a
// Trail to replace a whole node at its parent (a super-bearing class
// expression wrapped into an assignment, an update expression sequenced
// after a const-violation throw) without the driver having tracked field
// addresses during the walk.
func replaceChild(parent ast.Node, old, repl ast.Expr) bool {
	switch p := parent.(type) {
	case *ast.Program:
		// expressions hang off statements, never directly off the program
	case *ast.ExpressionStatement:
		if p.Expr == old {
			p.Expr = repl
			return true
		}
	case *ast.VariableDeclaration:
		for _, dec := range p.Decls {
			if dec.Init == old {
				dec.Init = repl
				return true
			}
		}
	case *ast.ReturnStatement:
		if p.Arg == old {
			p.Arg = repl
			return true
		}
	case *ast.ThrowStatement:
		if p.Arg == old {
			p.Arg = repl
			return true
		}
	case *ast.IfStatement:
		if p.Test == old {
			p.Test = repl
			return true
		}
	case *ast.WhileStatement:
		if p.Test == old {
			p.Test = repl
			return true
		}
	case *ast.DoWhileStatement:
		if p.Test == old {
			p.Test = repl
			return true
		}
	case *ast.ForStatement:
		switch {
		case p.Init == ast.Node(old):
			p.Init = repl
			return true
		case p.Test == old:
			p.Test = repl
			return true
		case p.Post == old:
			p.Post = repl
			return true
		}
	case *ast.ForInStatement:
		if p.Right == old {
			p.Right = repl
			return true
		}
	case *ast.SwitchStatement:
		if p.Discriminant == old {
			p.Discriminant = repl
			return true
		}
		for _, c := range p.Cases {
			if c.Test == old {
				c.Test = repl
				return true
			}
		}
	case *ast.AssignmentExpression:
		if p.Right == old {
			p.Right = repl
			return true
		}
	case *ast.BinaryExpression:
		if p.Left == old {
			p.Left = repl
			return true
		}
		if p.Right == old {
			p.Right = repl
			return true
		}
	case *ast.LogicalExpression:
		if p.Left == old {
			p.Left = repl
			return true
		}
		if p.Right == old {
			p.Right = repl
			return true
		}
	case *ast.UnaryExpression:
		if p.Arg == old {
			p.Arg = repl
			return true
		}
	case *ast.ConditionalExpression:
		switch old {
		case p.Test:
			p.Test = repl
			return true
		case p.Consequent:
			p.Consequent = repl
			return true
		case p.Alternate:
			p.Alternate = repl
			return true
		}
	case *ast.SequenceExpression:
		for i, e := range p.Exprs {
			if e == old {
				p.Exprs[i] = repl
				return true
			}
		}
	case *ast.CallExpression:
		if p.Callee == old {
			p.Callee = repl
			return true
		}
		for i, a := range p.Args {
			if a == old {
				p.Args[i] = repl
				return true
			}
		}
	case *ast.NewExpression:
		if p.Callee == old {
			p.Callee = repl
			return true
		}
		for i, a := range p.Args {
			if a == old {
				p.Args[i] = repl
				return true
			}
		}
	case *ast.MemberExpression:
		if p.Object == old {
			p.Object = repl
			return true
		}
		if p.Computed && p.Property == old {
			p.Property = repl
			return true
		}
	case *ast.ArrayExpression:
		for i, e := range p.Items {
			if e == old {
				p.Items[i] = repl
				return true
			}
		}
	case *ast.ObjectExpression:
		for _, kv := range p.Items {
			if kv.Value == old {
				kv.Value = repl
				return true
			}
			if kv.Computed && kv.Key == old {
				kv.Key = repl
				return true
			}
		}
		for _, s := range p.Spread {
			if s.Arg == old {
				s.Arg = repl
				return true
			}
		}
	case *ast.SpreadElement:
		if p.Arg == old {
			p.Arg = repl
			return true
		}
	case *ast.TemplateLiteral:
		for i, e := range p.Exprs {
			if e == old {
				p.Exprs[i] = repl
				return true
			}
		}
	case *ast.ImportExpression:
		if p.Arg == old {
			p.Arg = repl
			return true
		}
	case *ast.AssignmentPattern:
		if p.Default == old {
			p.Default = repl
			return true
		}
	case *ast.PropertyDefinition:
		if p.Value == old {
			p.Value = repl
			return true
		}
		if p.Computed && p.Key == old {
			p.Key = repl
			return true
		}
	}
	return false
}

// declaratorFor returns the declarator of decl whose initializer is init,
// or nil. The super-target rewriter uses it to spot the `const x = <expr>`
// shape that already gives a super-bearing expression a stable name.
func declaratorFor(decl *ast.VariableDeclaration, init ast.Expr) *ast.VariableDeclarator {
	for _, dec := range decl.Decls {
		if dec.Init == init {
			return dec
		}
	}
	return nil
}
