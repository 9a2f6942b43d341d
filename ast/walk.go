package ast

// Visitor defines the interface for AST traversal. If Visit returns nil,
// children of the node are not visited. Otherwise, the returned Visitor
// is used to visit children.
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses an AST in depth-first order. It starts by calling
// v.Visit(node); if the returned visitor w is not nil, Walk is invoked
// recursively with visitor w for each of the non-nil children of node.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}
	for _, child := range Children(node) {
		Walk(v, child)
	}
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses an AST in depth-first order, calling f for each node.
// If f returns false, the children of that node are skipped.
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}

// Children returns the direct child nodes of n in source order.
func Children(n Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, c := range nodes {
			if c == nil || isNilNode(c) {
				continue
			}
			out = append(out, c)
		}
	}
	switch n := n.(type) {
	case *Program:
		for _, s := range n.Body {
			add(s)
		}

	// Statements
	case *VarDecl:
		for _, d := range n.Decls {
			add(d.Target)
			if d.Init != nil {
				add(d.Init)
			}
		}
	case *ExprStmt:
		add(n.X)
	case *Block:
		for _, s := range n.Body {
			add(s)
		}
	case *If:
		add(n.Cond, n.Then)
		if n.Else != nil {
			add(n.Else)
		}
	case *While:
		add(n.Cond, n.Body)
	case *DoWhile:
		add(n.Body, n.Cond)
	case *For:
		if n.Init != nil {
			add(n.Init)
		}
		if n.Test != nil {
			add(n.Test)
		}
		if n.Update != nil {
			add(n.Update)
		}
		add(n.Body)
	case *ForIn:
		add(n.Left, n.Right, n.Body)
	case *ForOf:
		add(n.Left, n.Right, n.Body)
	case *Return:
		if n.Value != nil {
			add(n.Value)
		}
	case *Throw:
		add(n.Value)
	case *Try:
		add(n.Block)
		if n.Param != nil {
			add(n.Param)
		}
		if n.Handler != nil {
			add(n.Handler)
		}
		if n.Finalizer != nil {
			add(n.Finalizer)
		}
	case *Switch:
		add(n.Discriminant)
		for _, c := range n.Cases {
			if c.Test != nil {
				add(c.Test)
			}
			for _, s := range c.Body {
				add(s)
			}
		}
	case *Labeled:
		add(n.Body)
	case *FuncDecl:
		add(n.Func)
	case *ClassDecl:
		add(n.Class)

	// Expressions
	case *Template:
		for _, e := range n.Exprs {
			add(e)
		}
	case *TaggedTemplate:
		add(n.Tag, n.Quasi)
	case *Array:
		for _, e := range n.Elements {
			if e != nil {
				add(e)
			}
		}
	case *Object:
		for _, p := range n.Props {
			if p.Key != nil {
				add(p.Key)
			}
			add(p.Value)
		}
	case *Function:
		for _, p := range n.Params {
			add(p)
		}
		add(n.Body)
	case *Arrow:
		for _, p := range n.Params {
			add(p)
		}
		if n.Body != nil {
			add(n.Body)
		} else {
			add(n.ExprBody)
		}
	case *Class:
		if n.SuperClass != nil {
			add(n.SuperClass)
		}
		for _, m := range n.Members {
			if m.Key != nil {
				add(m.Key)
			}
			if m.Value != nil {
				add(m.Value)
			}
			if m.Body != nil {
				add(m.Body)
			}
		}
	case *Unary:
		add(n.X)
	case *Update:
		add(n.X)
	case *Binary:
		add(n.X, n.Y)
	case *Logical:
		add(n.X, n.Y)
	case *Assign:
		add(n.Target, n.Value)
	case *Conditional:
		add(n.Test, n.Cons, n.Alt)
	case *Call:
		add(n.Callee)
		for _, a := range n.Args {
			add(a)
		}
	case *OptionalCall:
		add(n.Callee)
		for _, a := range n.Args {
			add(a)
		}
	case *New:
		add(n.Callee)
		for _, a := range n.Args {
			add(a)
		}
	case *Member:
		add(n.Object, n.Property)
	case *OptionalMember:
		add(n.Object, n.Property)
	case *Sequence:
		for _, e := range n.Exprs {
			add(e)
		}
	case *Spread:
		add(n.X)
	case *Yield:
		if n.X != nil {
			add(n.X)
		}
	case *Await:
		add(n.X)

	// Patterns
	case *AssignPattern:
		add(n.Target, n.Default)
	case *RestElement:
		add(n.Target)
	case *ArrayPattern:
		for _, e := range n.Elements {
			if e != nil {
				add(e)
			}
		}
	case *ObjectPattern:
		for _, p := range n.Props {
			add(p.Key, p.Value)
		}
		if n.Rest != nil {
			add(n.Rest)
		}
	}
	return out
}

// isNilNode reports whether n holds a typed nil pointer for the node types
// whose optional fields are pointers.
func isNilNode(n Node) bool {
	switch n := n.(type) {
	case *Block:
		return n == nil
	case *Template:
		return n == nil
	case *Function:
		return n == nil
	case *Class:
		return n == nil
	}
	return false
}
