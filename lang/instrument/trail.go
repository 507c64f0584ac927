package instrument

import "github.com/livepack-go/scopetrace/lang/ast"

// Trail addresses a node's position in the tree, rooted at the module's
// Program node, so a later pass (the super-target rewriter, the
// const-violation and eval rewrites) can return to an exact site without
// re-traversing the tree to find it.
//
// The instrumentor runs a single depth-first pass to completion on one
// goroutine, so a trail can simply be the stack of ancestor node pointers
// from the root down to the site: the site stays a live value rather than
// something to re-resolve, and the parent at any depth is one index away —
// which is what the rewriters that replace a node within its parent's slot
// rely on.
type Trail []ast.Node

// Clone returns a copy of the trail safe to retain past the driver popping
// further frames off its own stack.
func (t Trail) Clone() Trail {
	if len(t) == 0 {
		return nil
	}
	out := make(Trail, len(t))
	copy(out, t)
	return out
}

// Leaf returns the last node on the trail, the site it addresses, or nil
// for an empty trail.
func (t Trail) Leaf() ast.Node {
	if len(t) == 0 {
		return nil
	}
	return t[len(t)-1]
}

// Parent returns the node one level above the leaf, or nil if the trail is
// too short to have one.
func (t Trail) Parent() ast.Node {
	if len(t) < 2 {
		return nil
	}
	return t[len(t)-2]
}

// ParentOf returns the node one level above the first occurrence of n on
// the trail, or nil if n is not on the trail or is the root.
func (t Trail) ParentOf(n ast.Node) ast.Node {
	for i, node := range t {
		if node == n {
			if i == 0 {
				return nil
			}
			return t[i-1]
		}
	}
	return nil
}
