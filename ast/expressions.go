package ast

import (
	"bytes"
	"strings"

	"github.com/deepnoodle-ai/jsbox/internal/token"
)

// Unary is a prefix operator expression such as "!x", "-x", "typeof x",
// "void x" or "delete x.y".
type Unary struct {
	OpPos token.Position
	Op    string
	X     Expr
}

func (x *Unary) exprNode() {}

func (x *Unary) Pos() token.Position { return x.OpPos }

func (x *Unary) String() string {
	switch x.Op {
	case "typeof", "void", "delete":
		return "(" + x.Op + " " + x.X.String() + ")"
	}
	return "(" + x.Op + x.X.String() + ")"
}

// Update is an increment or decrement, in prefix or postfix form.
type Update struct {
	OpPos  token.Position
	Op     string // "++" or "--"
	Prefix bool
	X      Expr
}

func (x *Update) exprNode() {}

func (x *Update) Pos() token.Position {
	if x.Prefix {
		return x.OpPos
	}
	return x.X.Pos()
}

func (x *Update) String() string {
	if x.Prefix {
		return "(" + x.Op + x.X.String() + ")"
	}
	return "(" + x.X.String() + x.Op + ")"
}

// Binary is an arithmetic, comparison, bitwise or relational operator
// expression such as "x + y" or "k in o".
type Binary struct {
	X     Expr
	OpPos token.Position
	Op    string
	Y     Expr
}

func (x *Binary) exprNode() {}

func (x *Binary) Pos() token.Position { return x.X.Pos() }

func (x *Binary) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(x.X.String())
	out.WriteString(" " + x.Op + " ")
	out.WriteString(x.Y.String())
	out.WriteString(")")
	return out.String()
}

// Logical is a short-circuiting "&&", "||" or "??" expression.
type Logical struct {
	X     Expr
	OpPos token.Position
	Op    string
	Y     Expr
}

func (x *Logical) exprNode() {}

func (x *Logical) Pos() token.Position { return x.X.Pos() }

func (x *Logical) String() string {
	return "(" + x.X.String() + " " + x.Op + " " + x.Y.String() + ")"
}

// Assign is a plain or compound assignment. Op is the operator spelling,
// for example "=", "+=" or "??=".
type Assign struct {
	Target Expr
	OpPos  token.Position
	Op     string
	Value  Expr
}

func (x *Assign) exprNode() {}

func (x *Assign) Pos() token.Position { return x.Target.Pos() }

func (x *Assign) String() string {
	return x.Target.String() + " " + x.Op + " " + x.Value.String()
}

// Conditional is the ternary "test ? cons : alt" expression.
type Conditional struct {
	Test Expr
	Cons Expr
	Alt  Expr
}

func (x *Conditional) exprNode() {}

func (x *Conditional) Pos() token.Position { return x.Test.Pos() }

func (x *Conditional) String() string {
	return "(" + x.Test.String() + " ? " + x.Cons.String() + " : " + x.Alt.String() + ")"
}

func argsString(args []Expr) string {
	items := make([]string, 0, len(args))
	for _, a := range args {
		items = append(items, a.String())
	}
	return "(" + strings.Join(items, ", ") + ")"
}

// Call is a function call.
type Call struct {
	Callee Expr
	Lparen token.Position
	Args   []Expr
}

func (x *Call) exprNode() {}

func (x *Call) Pos() token.Position { return x.Callee.Pos() }
func (x *Call) String() string      { return x.Callee.String() + argsString(x.Args) }

// OptionalCall is "f?.(args)": the call evaluates to undefined when the
// callee is null or undefined.
type OptionalCall struct {
	Callee Expr
	Lparen token.Position
	Args   []Expr
}

func (x *OptionalCall) exprNode() {}

func (x *OptionalCall) Pos() token.Position { return x.Callee.Pos() }
func (x *OptionalCall) String() string      { return x.Callee.String() + "?." + argsString(x.Args) }

// New is a constructor call. Args is nil when the argument list was omitted.
type New struct {
	NewPos token.Position
	Callee Expr
	Args   []Expr
}

func (x *New) exprNode() {}

func (x *New) Pos() token.Position { return x.NewPos }
func (x *New) String() string      { return "new " + x.Callee.String() + argsString(x.Args) }

// Member is a property access. When Computed is false Property is an
// *Ident naming the property ("o.name"); otherwise it is the key
// expression ("o[key]").
type Member struct {
	Object   Expr
	Property Expr
	Computed bool
}

func (x *Member) exprNode() {}

func (x *Member) Pos() token.Position { return x.Object.Pos() }

func (x *Member) String() string {
	if x.Computed {
		return x.Object.String() + "[" + x.Property.String() + "]"
	}
	return x.Object.String() + "." + x.Property.String()
}

// OptionalMember is "o?.name" or "o?.[key]": the access evaluates to
// undefined when the object is null or undefined.
type OptionalMember struct {
	Object   Expr
	Property Expr
	Computed bool
}

func (x *OptionalMember) exprNode() {}

func (x *OptionalMember) Pos() token.Position { return x.Object.Pos() }

func (x *OptionalMember) String() string {
	if x.Computed {
		return x.Object.String() + "?.[" + x.Property.String() + "]"
	}
	return x.Object.String() + "?." + x.Property.String()
}

// Sequence is a comma-separated list of expressions evaluated in order.
type Sequence struct {
	Exprs []Expr
}

func (x *Sequence) exprNode() {}

func (x *Sequence) Pos() token.Position { return x.Exprs[0].Pos() }

func (x *Sequence) String() string {
	items := make([]string, 0, len(x.Exprs))
	for _, e := range x.Exprs {
		items = append(items, e.String())
	}
	return "(" + strings.Join(items, ", ") + ")"
}

// Spread is "...expr" inside an array literal, object literal or argument
// list.
type Spread struct {
	Ellipsis token.Position
	X        Expr
}

func (x *Spread) exprNode() {}

func (x *Spread) Pos() token.Position { return x.Ellipsis }
func (x *Spread) String() string      { return "..." + x.X.String() }

// Yield is a yield expression. X may be nil.
type Yield struct {
	YieldPos token.Position
	X        Expr
	Delegate bool
}

func (x *Yield) exprNode() {}

func (x *Yield) Pos() token.Position { return x.YieldPos }

func (x *Yield) String() string {
	s := "yield"
	if x.Delegate {
		s += "*"
	}
	if x.X != nil {
		s += " " + x.X.String()
	}
	return s
}

// Await is an await expression.
type Await struct {
	AwaitPos token.Position
	X        Expr
}

func (x *Await) exprNode() {}

func (x *Await) Pos() token.Position { return x.AwaitPos }
func (x *Await) String() string      { return "await " + x.X.String() }
