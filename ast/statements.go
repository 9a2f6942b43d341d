package ast

import (
	"bytes"
	"strings"

	"github.com/deepnoodle-ai/jsbox/internal/token"
)

// Declarator binds one target in a variable declaration. Init may be nil.
type Declarator struct {
	Target Pattern
	Init   Expr
}

func (d *Declarator) String() string {
	if d.Init == nil {
		return d.Target.String()
	}
	return d.Target.String() + " = " + d.Init.String()
}

// VarDecl is a var, let or const declaration with one or more declarators.
type VarDecl struct {
	KindPos token.Position
	Kind    string // "var", "let" or "const"
	Decls   []*Declarator
}

func (s *VarDecl) stmtNode() {}

func (s *VarDecl) Pos() token.Position { return s.KindPos }

func (s *VarDecl) String() string {
	items := make([]string, 0, len(s.Decls))
	for _, d := range s.Decls {
		items = append(items, d.String())
	}
	return s.Kind + " " + strings.Join(items, ", ")
}

// ExprStmt is an expression evaluated for its side effects.
type ExprStmt struct {
	X Expr
}

func (s *ExprStmt) stmtNode() {}

func (s *ExprStmt) Pos() token.Position { return s.X.Pos() }
func (s *ExprStmt) String() string      { return s.X.String() }

// Block is a braced list of statements.
type Block struct {
	Lbrace token.Position
	Body   []Stmt
}

func (s *Block) stmtNode() {}

func (s *Block) Pos() token.Position { return s.Lbrace }

func (s *Block) String() string {
	var out bytes.Buffer
	out.WriteString("{")
	for _, stmt := range s.Body {
		out.WriteString(" ")
		out.WriteString(stmt.String())
		out.WriteString(";")
	}
	out.WriteString(" }")
	return out.String()
}

// Empty is a lone semicolon.
type Empty struct {
	Semicolon token.Position
}

func (s *Empty) stmtNode() {}

func (s *Empty) Pos() token.Position { return s.Semicolon }
func (s *Empty) String() string      { return "" }

// If is an if statement. Else may be nil.
type If struct {
	IfPos token.Position
	Cond  Expr
	Then  Stmt
	Else  Stmt
}

func (s *If) stmtNode() {}

func (s *If) Pos() token.Position { return s.IfPos }

func (s *If) String() string {
	var out bytes.Buffer
	out.WriteString("if (")
	out.WriteString(s.Cond.String())
	out.WriteString(") ")
	out.WriteString(s.Then.String())
	if s.Else != nil {
		out.WriteString(" else ")
		out.WriteString(s.Else.String())
	}
	return out.String()
}

// While is a while loop.
type While struct {
	WhilePos token.Position
	Cond     Expr
	Body     Stmt
}

func (s *While) stmtNode() {}

func (s *While) Pos() token.Position { return s.WhilePos }
func (s *While) String() string      { return "while (" + s.Cond.String() + ") " + s.Body.String() }

// DoWhile is a do...while loop.
type DoWhile struct {
	DoPos token.Position
	Body  Stmt
	Cond  Expr
}

func (s *DoWhile) stmtNode() {}

func (s *DoWhile) Pos() token.Position { return s.DoPos }
func (s *DoWhile) String() string {
	return "do " + s.Body.String() + " while (" + s.Cond.String() + ")"
}

// For is a C-style for loop. Init is a *VarDecl, an *ExprStmt or nil;
// Test and Update may be nil.
type For struct {
	ForPos token.Position
	Init   Stmt
	Test   Expr
	Update Expr
	Body   Stmt
}

func (s *For) stmtNode() {}

func (s *For) Pos() token.Position { return s.ForPos }

func (s *For) String() string {
	var out bytes.Buffer
	out.WriteString("for (")
	if s.Init != nil {
		out.WriteString(s.Init.String())
	}
	out.WriteString("; ")
	if s.Test != nil {
		out.WriteString(s.Test.String())
	}
	out.WriteString("; ")
	if s.Update != nil {
		out.WriteString(s.Update.String())
	}
	out.WriteString(") ")
	out.WriteString(s.Body.String())
	return out.String()
}

// ForIn is "for (left in right)". Left is a *VarDecl with a single
// declarator and no initializer, or an assignment target expression
// wrapped in an *ExprStmt.
type ForIn struct {
	ForPos token.Position
	Left   Stmt
	Right  Expr
	Body   Stmt
}

func (s *ForIn) stmtNode() {}

func (s *ForIn) Pos() token.Position { return s.ForPos }
func (s *ForIn) String() string {
	return "for (" + s.Left.String() + " in " + s.Right.String() + ") " + s.Body.String()
}

// ForOf is "for (left of right)", with Left shaped as in ForIn.
type ForOf struct {
	ForPos token.Position
	Left   Stmt
	Right  Expr
	Body   Stmt
}

func (s *ForOf) stmtNode() {}

func (s *ForOf) Pos() token.Position { return s.ForPos }
func (s *ForOf) String() string {
	return "for (" + s.Left.String() + " of " + s.Right.String() + ") " + s.Body.String()
}

// Return is a return statement. Value may be nil.
type Return struct {
	ReturnPos token.Position
	Value     Expr
}

func (s *Return) stmtNode() {}

func (s *Return) Pos() token.Position { return s.ReturnPos }

func (s *Return) String() string {
	if s.Value == nil {
		return "return"
	}
	return "return " + s.Value.String()
}

// Break is a break statement with an optional label.
type Break struct {
	BreakPos token.Position
	Label    string
}

func (s *Break) stmtNode() {}

func (s *Break) Pos() token.Position { return s.BreakPos }

func (s *Break) String() string {
	if s.Label == "" {
		return "break"
	}
	return "break " + s.Label
}

// Continue is a continue statement with an optional label.
type Continue struct {
	ContinuePos token.Position
	Label       string
}

func (s *Continue) stmtNode() {}

func (s *Continue) Pos() token.Position { return s.ContinuePos }

func (s *Continue) String() string {
	if s.Label == "" {
		return "continue"
	}
	return "continue " + s.Label
}

// Throw is a throw statement.
type Throw struct {
	ThrowPos token.Position
	Value    Expr
}

func (s *Throw) stmtNode() {}

func (s *Throw) Pos() token.Position { return s.ThrowPos }
func (s *Throw) String() string      { return "throw " + s.Value.String() }

// Try is a try statement. At least one of Handler and Finalizer is set.
// Param is nil for "catch { ... }" without a binding.
type Try struct {
	TryPos    token.Position
	Block     *Block
	Param     Pattern
	Handler   *Block
	Finalizer *Block
}

func (s *Try) stmtNode() {}

func (s *Try) Pos() token.Position { return s.TryPos }

func (s *Try) String() string {
	var out bytes.Buffer
	out.WriteString("try ")
	out.WriteString(s.Block.String())
	if s.Handler != nil {
		out.WriteString(" catch ")
		if s.Param != nil {
			out.WriteString("(" + s.Param.String() + ") ")
		}
		out.WriteString(s.Handler.String())
	}
	if s.Finalizer != nil {
		out.WriteString(" finally ")
		out.WriteString(s.Finalizer.String())
	}
	return out.String()
}

// Case is one clause of a switch statement. Test is nil for default.
type Case struct {
	CasePos token.Position
	Test    Expr
	Body    []Stmt
}

func (c *Case) String() string {
	var out bytes.Buffer
	if c.Test == nil {
		out.WriteString("default:")
	} else {
		out.WriteString("case " + c.Test.String() + ":")
	}
	for _, stmt := range c.Body {
		out.WriteString(" ")
		out.WriteString(stmt.String())
		out.WriteString(";")
	}
	return out.String()
}

// Switch is a switch statement.
type Switch struct {
	SwitchPos    token.Position
	Discriminant Expr
	Cases        []*Case
}

func (s *Switch) stmtNode() {}

func (s *Switch) Pos() token.Position { return s.SwitchPos }

func (s *Switch) String() string {
	var out bytes.Buffer
	out.WriteString("switch (" + s.Discriminant.String() + ") {")
	for _, c := range s.Cases {
		out.WriteString(" ")
		out.WriteString(c.String())
	}
	out.WriteString(" }")
	return out.String()
}

// Labeled attaches a label to a statement.
type Labeled struct {
	LabelPos token.Position
	Label    string
	Body     Stmt
}

func (s *Labeled) stmtNode() {}

func (s *Labeled) Pos() token.Position { return s.LabelPos }
func (s *Labeled) String() string      { return s.Label + ": " + s.Body.String() }

// FuncDecl is a function declaration. Func.Name is never empty.
type FuncDecl struct {
	Func *Function
}

func (s *FuncDecl) stmtNode() {}

func (s *FuncDecl) Pos() token.Position { return s.Func.Pos() }
func (s *FuncDecl) String() string      { return s.Func.String() }

// ClassDecl is a class declaration. Class.Name is never empty.
type ClassDecl struct {
	Class *Class
}

func (s *ClassDecl) stmtNode() {}

func (s *ClassDecl) Pos() token.Position { return s.Class.Pos() }
func (s *ClassDecl) String() string      { return s.Class.String() }

// Debugger is the debugger statement. It compiles to nothing.
type Debugger struct {
	DebuggerPos token.Position
}

func (s *Debugger) stmtNode() {}

func (s *Debugger) Pos() token.Position { return s.DebuggerPos }
func (s *Debugger) String() string      { return "debugger" }
