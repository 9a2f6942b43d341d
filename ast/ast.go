// Package ast defines the abstract syntax tree produced by the JavaScript
// parser and consumed by the compiler.
package ast

import (
	"bytes"

	"github.com/deepnoodle-ai/jsbox/internal/token"
)

// Node represents a portion of the syntax tree. All nodes have position
// information indicating where they appear in the source code.
type Node interface {
	// Pos returns the position of the first character belonging to the node.
	Pos() token.Position

	// String returns a human friendly representation of the Node. This should
	// be similar to the original source code, but not necessarily identical.
	String() string
}

// Stmt represents a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr represents an expression node. Expressions evaluate to a value
// and may be embedded within other expressions.
type Expr interface {
	Node
	exprNode()
}

// Pattern represents a binding target: an identifier or a destructuring
// shape with optional defaults and rest elements.
type Pattern interface {
	Node
	patternNode()
}

// Program is the root node of a parsed source file.
type Program struct {
	Body []Stmt
}

func (p *Program) Pos() token.Position {
	if len(p.Body) > 0 {
		return p.Body[0].Pos()
	}
	return token.NoPos
}

func (p *Program) String() string {
	var out bytes.Buffer
	for i, s := range p.Body {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(s.String())
	}
	return out.String()
}
