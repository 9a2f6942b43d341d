package ast

import (
	"strings"

	"github.com/deepnoodle-ai/jsbox/internal/token"
)

// AssignPattern is a binding with a default value: "x = 1".
type AssignPattern struct {
	Target  Pattern
	Default Expr
}

func (x *AssignPattern) patternNode() {}

func (x *AssignPattern) Pos() token.Position { return x.Target.Pos() }
func (x *AssignPattern) String() string      { return x.Target.String() + " = " + x.Default.String() }

// RestElement collects the remaining elements or arguments: "...rest".
type RestElement struct {
	Ellipsis token.Position
	Target   Pattern
}

func (x *RestElement) patternNode() {}

func (x *RestElement) Pos() token.Position { return x.Ellipsis }
func (x *RestElement) String() string      { return "..." + x.Target.String() }

// ArrayPattern destructures by position. A nil element is a hole.
type ArrayPattern struct {
	Lbrack   token.Position
	Elements []Pattern
}

func (x *ArrayPattern) patternNode() {}

func (x *ArrayPattern) Pos() token.Position { return x.Lbrack }

func (x *ArrayPattern) String() string {
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

// PatternProp is one "key: target" entry of an object pattern.
type PatternProp struct {
	Key      Expr
	Computed bool
	Value    Pattern
}

// ObjectPattern destructures by property name.
type ObjectPattern struct {
	Lbrace token.Position
	Props  []*PatternProp
	Rest   Pattern
}

func (x *ObjectPattern) patternNode() {}

func (x *ObjectPattern) Pos() token.Position { return x.Lbrace }

func (x *ObjectPattern) String() string {
	items := make([]string, 0, len(x.Props)+1)
	for _, p := range x.Props {
		key := p.Key.String()
		if p.Computed {
			key = "[" + key + "]"
		}
		if id, ok := p.Value.(*Ident); ok && !p.Computed && id.Name == key {
			items = append(items, key)
			continue
		}
		items = append(items, key+": "+p.Value.String())
	}
	if x.Rest != nil {
		items = append(items, "..."+x.Rest.String())
	}
	return "{" + strings.Join(items, ", ") + "}"
}
