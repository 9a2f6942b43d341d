package ast

import (
	"testing"

	"github.com/deepnoodle-ai/jsbox/internal/token"
	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	program := &Program{
		Body: []Stmt{
			&VarDecl{
				KindPos: token.Position{Line: 0, Column: 0},
				Kind:    "let",
				Decls: []*Declarator{{
					Target: &Ident{NamePos: token.Position{Column: 4}, Name: "myVar"},
					Init:   &Ident{NamePos: token.Position{Column: 12}, Name: "anotherVar"},
				}},
			},
		},
	}
	require.Equal(t, "let myVar = anotherVar", program.String())
	require.Equal(t, token.Position{}, program.Pos())
}

func TestExpressionStrings(t *testing.T) {
	one := &Number{Literal: "1", Value: 1}
	two := &Number{Value: 2}
	x := &Ident{Name: "x"}
	tests := []struct {
		node     Node
		expected string
	}{
		{&Binary{X: one, Op: "+", Y: &Binary{X: two, Op: "*", Y: x}}, "(1 + (2 * x))"},
		{&Unary{Op: "typeof", X: x}, "(typeof x)"},
		{&Unary{Op: "!", X: x}, "(!x)"},
		{&Update{Op: "++", X: x}, "(x++)"},
		{&Update{Op: "--", Prefix: true, X: x}, "(--x)"},
		{&Logical{X: x, Op: "??", Y: one}, "(x ?? 1)"},
		{&Assign{Target: x, Op: "+=", Value: one}, "x += 1"},
		{&Conditional{Test: x, Cons: one, Alt: two}, "(x ? 1 : 2)"},
		{&Call{Callee: x, Args: []Expr{one, &Spread{X: x}}}, "x(1, ...x)"},
		{&OptionalCall{Callee: x}, "x?.()"},
		{&New{Callee: x, Args: []Expr{one}}, "new x(1)"},
		{&Member{Object: x, Property: &Ident{Name: "y"}}, "x.y"},
		{&Member{Object: x, Property: one, Computed: true}, "x[1]"},
		{&OptionalMember{Object: x, Property: &Ident{Name: "y"}}, "x?.y"},
		{&Array{Elements: []Expr{one, nil, two}}, "[1, , 2]"},
		{&String{Value: "hi\n"}, `"hi\n"`},
		{&Regexp{Pattern: "a+", Flags: "g"}, "/a+/g"},
		{&Template{Quasis: []string{"a", "b"}, Raws: []string{"a", "b"}, Exprs: []Expr{x}}, "`a${x}b`"},
		{&Arrow{Params: []Pattern{x}, ExprBody: one}, "(x) => 1"},
		{&ArrayPattern{Elements: []Pattern{x, &RestElement{Target: &Ident{Name: "r"}}}}, "[x, ...r]"},
		{&ObjectPattern{Props: []*PatternProp{{Key: &Ident{Name: "x"}, Value: x}}}, "{x}"},
		{&AssignPattern{Target: x, Default: one}, "x = 1"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, tt.node.String())
	}
}

func TestObjectString(t *testing.T) {
	fn := &Function{Body: &Block{}}
	obj := &Object{Props: []*Property{
		{Key: &Ident{Name: "a"}, Value: &Number{Value: 1}},
		{Key: &Ident{Name: "b"}, Value: &Ident{Name: "b"}, Shorthand: true},
		{Kind: PropertyGet, Key: &Ident{Name: "c"}, Value: fn},
		{Kind: PropertySpread, Value: &Ident{Name: "rest"}},
	}}
	require.Equal(t, "{a: 1, b, get c() { }, ...rest}", obj.String())
}

func TestStatementStrings(t *testing.T) {
	x := &Ident{Name: "x"}
	tests := []struct {
		node     Node
		expected string
	}{
		{&If{Cond: x, Then: &Block{Body: []Stmt{&Return{Value: x}}}}, "if (x) { return x; }"},
		{&While{Cond: x, Body: &Block{Body: []Stmt{&Break{}}}}, "while (x) { break; }"},
		{&For{Body: &Empty{}}, "for (; ; ) "},
		{&Labeled{Label: "outer", Body: &Continue{Label: "outer"}}, "outer: continue outer"},
		{&Throw{Value: x}, "throw x"},
		{&Try{Block: &Block{}, Handler: &Block{}, Param: x}, "try { } catch (x) { }"},
		{&Switch{Discriminant: x, Cases: []*Case{{Test: x}, {}}}, "switch (x) { case x: default: }"},
		{&FuncDecl{Func: &Function{Name: "f", Params: []Pattern{x}, Body: &Block{}}}, "function f(x) { }"},
		{&ClassDecl{Class: &Class{Name: "A", Members: []*ClassMember{
			{Kind: MemberField, Key: x, Value: &Number{Value: 1}},
		}}}, "class A { x = 1; }"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, tt.node.String())
	}
}

func TestInspect(t *testing.T) {
	// let x = 1 + 2
	program := &Program{
		Body: []Stmt{
			&VarDecl{
				Kind: "let",
				Decls: []*Declarator{{
					Target: &Ident{Name: "x"},
					Init: &Binary{
						X:  &Number{Value: 1},
						Op: "+",
						Y:  &Number{Value: 2},
					},
				}},
			},
		},
	}
	var visited []string
	Inspect(program, func(n Node) bool {
		switch node := n.(type) {
		case *Program:
			visited = append(visited, "Program")
		case *VarDecl:
			visited = append(visited, "VarDecl")
		case *Ident:
			visited = append(visited, "Ident:"+node.Name)
		case *Binary:
			visited = append(visited, "Binary:"+node.Op)
		case *Number:
			visited = append(visited, "Number")
		}
		return true
	})
	require.Equal(t, []string{"Program", "VarDecl", "Ident:x", "Binary:+", "Number", "Number"}, visited)
}

func TestInspectSkipsChildren(t *testing.T) {
	fn := &Function{
		Name: "f",
		Body: &Block{Body: []Stmt{&Return{Value: &Ident{Name: "inner"}}}},
	}
	program := &Program{Body: []Stmt{&FuncDecl{Func: fn}, &ExprStmt{X: &Ident{Name: "outer"}}}}
	var idents []string
	Inspect(program, func(n Node) bool {
		if _, ok := n.(*Function); ok {
			return false
		}
		if id, ok := n.(*Ident); ok {
			idents = append(idents, id.Name)
		}
		return true
	})
	require.Equal(t, []string{"outer"}, idents)
}

func TestChildrenSkipsNilBlocks(t *testing.T) {
	try := &Try{Block: &Block{}, Finalizer: &Block{}}
	require.Len(t, Children(try), 2)
	require.Len(t, Children(&Return{}), 0)
}
