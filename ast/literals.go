package ast

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/deepnoodle-ai/jsbox/internal/token"
)

// Ident is a reference to a variable by name. It is both an expression and
// the simplest binding pattern.
type Ident struct {
	NamePos token.Position
	Name    string
}

func (x *Ident) exprNode()    {}
func (x *Ident) patternNode() {}

func (x *Ident) Pos() token.Position { return x.NamePos }
func (x *Ident) String() string      { return x.Name }

// Number is a numeric literal.
type Number struct {
	ValuePos token.Position
	Literal  string
	Value    float64
}

func (x *Number) exprNode() {}

func (x *Number) Pos() token.Position { return x.ValuePos }

func (x *Number) String() string {
	if x.Literal != "" {
		return x.Literal
	}
	return strconv.FormatFloat(x.Value, 'g', -1, 64)
}

// String is a string literal with its escapes already decoded.
type String struct {
	ValuePos token.Position
	Value    string
}

func (x *String) exprNode() {}

func (x *String) Pos() token.Position { return x.ValuePos }
func (x *String) String() string      { return strconv.Quote(x.Value) }

// Template is a template literal. Quasis holds the cooked text spans and
// always has exactly one more element than Exprs.
type Template struct {
	Backtick token.Position
	Quasis   []string
	Raws     []string
	Exprs    []Expr
}

func (x *Template) exprNode() {}

func (x *Template) Pos() token.Position { return x.Backtick }

func (x *Template) String() string {
	var out bytes.Buffer
	out.WriteString("`")
	for i, q := range x.Raws {
		out.WriteString(q)
		if i < len(x.Exprs) {
			out.WriteString("${")
			out.WriteString(x.Exprs[i].String())
			out.WriteString("}")
		}
	}
	out.WriteString("`")
	return out.String()
}

// TaggedTemplate is a tag function applied to a template: tag`...`.
type TaggedTemplate struct {
	Tag   Expr
	Quasi *Template
}

func (x *TaggedTemplate) exprNode() {}

func (x *TaggedTemplate) Pos() token.Position { return x.Tag.Pos() }
func (x *TaggedTemplate) String() string      { return x.Tag.String() + x.Quasi.String() }

// Regexp is a regular expression literal.
type Regexp struct {
	ValuePos token.Position
	Pattern  string
	Flags    string
}

func (x *Regexp) exprNode() {}

func (x *Regexp) Pos() token.Position { return x.ValuePos }
func (x *Regexp) String() string      { return "/" + x.Pattern + "/" + x.Flags }

// Bool is a true or false literal.
type Bool struct {
	ValuePos token.Position
	Value    bool
}

func (x *Bool) exprNode() {}

func (x *Bool) Pos() token.Position { return x.ValuePos }

func (x *Bool) String() string {
	if x.Value {
		return "true"
	}
	return "false"
}

// Null is the null literal.
type Null struct {
	ValuePos token.Position
}

func (x *Null) exprNode() {}

func (x *Null) Pos() token.Position { return x.ValuePos }
func (x *Null) String() string      { return "null" }

// This is the this keyword.
type This struct {
	ThisPos token.Position
}

func (x *This) exprNode() {}

func (x *This) Pos() token.Position { return x.ThisPos }
func (x *This) String() string      { return "this" }

// Array is an array literal. A nil element is a hole.
type Array struct {
	Lbrack   token.Position
	Elements []Expr
}

func (x *Array) exprNode() {}

func (x *Array) Pos() token.Position { return x.Lbrack }

func (x *Array) String() string {
	items := make([]string, 0, len(x.Elements))
	for _, el := range x.Elements {
		if el == nil {
			items = append(items, "")
			continue
		}
		items = append(items, el.String())
	}
	return "[" + strings.Join(items, ", ") + "]"
}

// PropertyKind distinguishes the entries of an object literal.
type PropertyKind int

const (
	PropertyInit PropertyKind = iota
	PropertyMethod
	PropertyGet
	PropertySet
	PropertySpread
)

// Property is one entry of an object literal. Key is an *Ident or *String
// for plain keys and an arbitrary expression when Computed is set. For
// PropertySpread only Value is set.
type Property struct {
	Kind      PropertyKind
	Key       Expr
	Computed  bool
	Shorthand bool
	Value     Expr
}

func (p *Property) keyString() string {
	if p.Computed {
		return "[" + p.Key.String() + "]"
	}
	return p.Key.String()
}

func (p *Property) String() string {
	switch p.Kind {
	case PropertySpread:
		return "..." + p.Value.String()
	case PropertyGet, PropertySet, PropertyMethod:
		prefix := ""
		if p.Kind == PropertyGet {
			prefix = "get "
		} else if p.Kind == PropertySet {
			prefix = "set "
		}
		if fn, ok := p.Value.(*Function); ok {
			return prefix + p.keyString() + fn.signature()
		}
		return prefix + p.keyString() + "()"
	}
	if p.Shorthand {
		return p.Value.String()
	}
	return p.keyString() + ": " + p.Value.String()
}

// Object is an object literal.
type Object struct {
	Lbrace token.Position
	Props  []*Property
}

func (x *Object) exprNode() {}

func (x *Object) Pos() token.Position { return x.Lbrace }

func (x *Object) String() string {
	items := make([]string, 0, len(x.Props))
	for _, p := range x.Props {
		items = append(items, p.String())
	}
	return "{" + strings.Join(items, ", ") + "}"
}

// Function is a function expression, declaration body or method.
type Function struct {
	Func        token.Position
	Name        string
	Params      []Pattern
	Body        *Block
	IsAsync     bool
	IsGenerator bool
}

func (x *Function) exprNode() {}

func (x *Function) Pos() token.Position { return x.Func }

func (x *Function) signature() string {
	params := make([]string, 0, len(x.Params))
	for _, p := range x.Params {
		params = append(params, p.String())
	}
	return "(" + strings.Join(params, ", ") + ") " + x.Body.String()
}

func (x *Function) String() string {
	var out bytes.Buffer
	if x.IsAsync {
		out.WriteString("async ")
	}
	out.WriteString("function")
	if x.IsGenerator {
		out.WriteString("*")
	}
	if x.Name != "" {
		out.WriteString(" ")
		out.WriteString(x.Name)
	}
	out.WriteString(x.signature())
	return out.String()
}

// Arrow is an arrow function. Exactly one of Body and ExprBody is set.
type Arrow struct {
	ArrowPos token.Position
	Params   []Pattern
	Body     *Block
	ExprBody Expr
	IsAsync  bool
}

func (x *Arrow) exprNode() {}

func (x *Arrow) Pos() token.Position { return x.ArrowPos }

func (x *Arrow) String() string {
	var out bytes.Buffer
	if x.IsAsync {
		out.WriteString("async ")
	}
	params := make([]string, 0, len(x.Params))
	for _, p := range x.Params {
		params = append(params, p.String())
	}
	out.WriteString("(" + strings.Join(params, ", ") + ") => ")
	if x.Body != nil {
		out.WriteString(x.Body.String())
	} else {
		out.WriteString(x.ExprBody.String())
	}
	return out.String()
}

// MemberKind distinguishes the members of a class body.
type MemberKind int

const (
	MemberConstructor MemberKind = iota
	MemberMethod
	MemberGet
	MemberSet
	MemberField
	MemberStaticBlock
)

// ClassMember is one element of a class body. Methods, accessors and the
// constructor carry a *Function in Value; fields carry their initializer
// (possibly nil); static blocks carry Body.
type ClassMember struct {
	Kind     MemberKind
	Static   bool
	Key      Expr
	Computed bool
	Value    Expr
	Body     *Block
}

func (m *ClassMember) String() string {
	var out bytes.Buffer
	if m.Static {
		out.WriteString("static ")
	}
	if m.Kind == MemberStaticBlock {
		out.WriteString(m.Body.String())
		return out.String()
	}
	switch m.Kind {
	case MemberGet:
		out.WriteString("get ")
	case MemberSet:
		out.WriteString("set ")
	}
	if m.Computed {
		out.WriteString("[" + m.Key.String() + "]")
	} else {
		out.WriteString(m.Key.String())
	}
	if fn, ok := m.Value.(*Function); ok && m.Kind != MemberField {
		out.WriteString(fn.signature())
		return out.String()
	}
	if m.Value != nil {
		out.WriteString(" = ")
		out.WriteString(m.Value.String())
	}
	out.WriteString(";")
	return out.String()
}

// Class is a class expression or the body of a class declaration.
type Class struct {
	ClassPos   token.Position
	Name       string
	SuperClass Expr
	Members    []*ClassMember
}

func (x *Class) exprNode() {}

func (x *Class) Pos() token.Position { return x.ClassPos }

// Constructor returns the explicit constructor member, if there is one.
func (x *Class) Constructor() *Function {
	for _, m := range x.Members {
		if m.Kind == MemberConstructor {
			if fn, ok := m.Value.(*Function); ok {
				return fn
			}
		}
	}
	return nil
}

func (x *Class) String() string {
	var out bytes.Buffer
	out.WriteString("class")
	if x.Name != "" {
		out.WriteString(" " + x.Name)
	}
	if x.SuperClass != nil {
		out.WriteString(" extends " + x.SuperClass.String())
	}
	out.WriteString(" {")
	for _, m := range x.Members {
		out.WriteString(" ")
		out.WriteString(m.String())
	}
	out.WriteString(" }")
	return out.String()
}
