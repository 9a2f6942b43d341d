package parser

import (
	"testing"

	"github.com/deepnoodle-ai/jsbox/ast"
	"github.com/stretchr/testify/require"
)

func parseStmt(t *testing.T, input string) ast.Stmt {
	t.Helper()
	program := parseProgram(t, input)
	require.Len(t, program.Body, 1)
	return program.Body[0]
}

func TestVarDeclarations(t *testing.T) {
	decl, ok := parseStmt(t, "let a = 1, b;").(*ast.VarDecl)
	require.True(t, ok)
	require.Equal(t, "let", decl.Kind)
	require.Len(t, decl.Decls, 2)
	require.Equal(t, "a", decl.Decls[0].Target.(*ast.Ident).Name)
	require.Equal(t, "1", decl.Decls[0].Init.String())
	require.Nil(t, decl.Decls[1].Init)

	for _, kind := range []string{"var", "let", "const"} {
		decl := parseStmt(t, kind+" x = 1").(*ast.VarDecl)
		require.Equal(t, kind, decl.Kind)
	}
}

func TestConstRequiresInitializer(t *testing.T) {
	pe := parseError(t, "const x;")
	require.Contains(t, pe.Message, "missing initializer in const declaration")
}

func TestDestructuringDeclarations(t *testing.T) {
	decl := parseStmt(t, "let [a, , b = 2, ...rest] = arr").(*ast.VarDecl)
	arr, ok := decl.Decls[0].Target.(*ast.ArrayPattern)
	require.True(t, ok)
	require.Len(t, arr.Elements, 4)
	require.Nil(t, arr.Elements[1])
	_, ok = arr.Elements[2].(*ast.AssignPattern)
	require.True(t, ok)
	_, ok = arr.Elements[3].(*ast.RestElement)
	require.True(t, ok)

	decl = parseStmt(t, "const {a, b: c, d = 1, [k]: e, ...rest} = o").(*ast.VarDecl)
	obj, ok := decl.Decls[0].Target.(*ast.ObjectPattern)
	require.True(t, ok)
	require.Len(t, obj.Props, 4)
	require.Equal(t, "c", obj.Props[1].Value.(*ast.Ident).Name)
	require.True(t, obj.Props[3].Computed)
	require.Equal(t, "rest", obj.Rest.(*ast.Ident).Name)
	require.Equal(t, "const {a, b: c, d: d = 1, [k]: e, ...rest} = o", decl.String())
}

func TestIfStatements(t *testing.T) {
	stmt, ok := parseStmt(t, "if (x > 1) { y(); } else if (z) w(); else { v(); }").(*ast.If)
	require.True(t, ok)
	require.Equal(t, "(x > 1)", stmt.Cond.String())
	_, ok = stmt.Then.(*ast.Block)
	require.True(t, ok)
	nested, ok := stmt.Else.(*ast.If)
	require.True(t, ok)
	_, ok = nested.Then.(*ast.ExprStmt)
	require.True(t, ok)
	require.NotNil(t, nested.Else)

	plain := parseStmt(t, "if (a) b").(*ast.If)
	require.Nil(t, plain.Else)
}

func TestLoops(t *testing.T) {
	while := parseStmt(t, "while (i < 10) i++;").(*ast.While)
	require.Equal(t, "(i < 10)", while.Cond.String())

	do := parseStmt(t, "do { i++; } while (i < 5)").(*ast.DoWhile)
	require.Equal(t, "(i < 5)", do.Cond.String())

	loop := parseStmt(t, "for (let i = 0; i < 10; i++) { sum += i; }").(*ast.For)
	require.IsType(t, &ast.VarDecl{}, loop.Init)
	require.Equal(t, "(i < 10)", loop.Test.String())
	require.Equal(t, "(i++)", loop.Update.String())

	forever := parseStmt(t, "for (;;) {}").(*ast.For)
	require.Nil(t, forever.Init)
	require.Nil(t, forever.Test)
	require.Nil(t, forever.Update)

	exprInit := parseStmt(t, "for (i = 0, n = 2; i < n; i++, n--) ;").(*ast.For)
	require.IsType(t, &ast.ExprStmt{}, exprInit.Init)
	require.IsType(t, &ast.Sequence{}, exprInit.Update)
	require.IsType(t, &ast.Empty{}, exprInit.Body)
}

func TestForInOf(t *testing.T) {
	forIn, ok := parseStmt(t, "for (const k in o) { f(k); }").(*ast.ForIn)
	require.True(t, ok)
	require.Equal(t, "const k", forIn.Left.String())
	require.Equal(t, "o", forIn.Right.String())

	forOf, ok := parseStmt(t, "for (let x of [1, 2]) sum += x;").(*ast.ForOf)
	require.True(t, ok)
	require.Equal(t, "[1, 2]", forOf.Right.String())

	bare, ok := parseStmt(t, "for (x of xs) {}").(*ast.ForOf)
	require.True(t, ok)
	require.Equal(t, "x", bare.Left.(*ast.ExprStmt).X.(*ast.Ident).Name)

	member, ok := parseStmt(t, "for (o.k in src) {}").(*ast.ForIn)
	require.True(t, ok)
	require.Equal(t, "o.k", member.Left.String())

	pattern, ok := parseStmt(t, "for (const [k, v] of entries) {}").(*ast.ForOf)
	require.True(t, ok)
	require.IsType(t, &ast.ArrayPattern{}, pattern.Left.(*ast.VarDecl).Decls[0].Target)
}

func TestForInOfErrors(t *testing.T) {
	pe := parseError(t, "for (var i = 0 in o) {}")
	require.Contains(t, pe.Message, "single declaration without initializer")
	pe = parseError(t, "for (let a, b of xs) {}")
	require.Contains(t, pe.Message, "single declaration without initializer")
	pe = parseError(t, "for (f() in o) {}")
	require.Contains(t, pe.Message, "invalid left-hand side")
}

func TestReturnStatements(t *testing.T) {
	fn := parseStmt(t, "function f() { return; }").(*ast.FuncDecl)
	ret := fn.Func.Body.Body[0].(*ast.Return)
	require.Nil(t, ret.Value)

	fn = parseStmt(t, "function f() { return }").(*ast.FuncDecl)
	require.Nil(t, fn.Func.Body.Body[0].(*ast.Return).Value)

	fn = parseStmt(t, "function f() { return a + b; }").(*ast.FuncDecl)
	require.Equal(t, "(a + b)", fn.Func.Body.Body[0].(*ast.Return).Value.String())

	// a line break ends a return statement
	fn = parseStmt(t, "function f() { return\n  x }").(*ast.FuncDecl)
	require.Len(t, fn.Func.Body.Body, 2)
	require.Nil(t, fn.Func.Body.Body[0].(*ast.Return).Value)
}

func TestThrowStatement(t *testing.T) {
	stmt := parseStmt(t, "throw new Error('bad');").(*ast.Throw)
	require.Equal(t, `new Error("bad")`, stmt.Value.String())

	pe := parseError(t, "throw;")
	require.Contains(t, pe.Message, "throw requires an expression")
}

func TestLabeledStatements(t *testing.T) {
	labeled, ok := parseStmt(t, "foo: while(1) break foo;").(*ast.Labeled)
	require.True(t, ok)
	require.Equal(t, "foo", labeled.Label)
	loop, ok := labeled.Body.(*ast.While)
	require.True(t, ok)
	brk, ok := loop.Body.(*ast.Break)
	require.True(t, ok)
	require.Equal(t, "foo", brk.Label)

	outer := parseStmt(t, "outer: for (;;) { for (;;) { continue outer; } }").(*ast.Labeled)
	inner := outer.Body.(*ast.For).Body.(*ast.Block).Body[0].(*ast.For)
	cont := inner.Body.(*ast.Block).Body[0].(*ast.Continue)
	require.Equal(t, "outer", cont.Label)
}

func TestBreakWithoutLabel(t *testing.T) {
	program := parseProgram(t, "while (1) { break\nfoo }")
	block := program.Body[0].(*ast.While).Body.(*ast.Block)
	require.Len(t, block.Body, 2)
	require.Empty(t, block.Body[0].(*ast.Break).Label)
}

func TestTryStatements(t *testing.T) {
	full := parseStmt(t, "try { a(); } catch (e) { b(e); } finally { c(); }").(*ast.Try)
	require.Equal(t, "e", full.Param.(*ast.Ident).Name)
	require.NotNil(t, full.Handler)
	require.NotNil(t, full.Finalizer)

	noParam := parseStmt(t, "try { a(); } catch { b(); }").(*ast.Try)
	require.Nil(t, noParam.Param)
	require.NotNil(t, noParam.Handler)
	require.Nil(t, noParam.Finalizer)

	finallyOnly := parseStmt(t, "try {} finally {}").(*ast.Try)
	require.Nil(t, finallyOnly.Handler)
	require.NotNil(t, finallyOnly.Finalizer)

	pe := parseError(t, "try {}")
	require.Contains(t, pe.Message, "missing catch or finally after try")
}

func TestSwitchStatement(t *testing.T) {
	stmt := parseStmt(t, `switch (x) {
case 1:
case 2:
  a();
  break;
default:
  b();
case 3: {
  c();
}
}`).(*ast.Switch)
	require.Equal(t, "x", stmt.Discriminant.String())
	require.Len(t, stmt.Cases, 4)
	require.Empty(t, stmt.Cases[0].Body)
	require.Len(t, stmt.Cases[1].Body, 2)
	require.Nil(t, stmt.Cases[2].Test)
	require.Len(t, stmt.Cases[3].Body, 1)

	empty := parseStmt(t, "switch (x) {}").(*ast.Switch)
	require.Empty(t, empty.Cases)

	pe := parseError(t, "switch (x) { default: default: }")
	require.Contains(t, pe.Message, "multiple default clauses")
}

func TestFunctionDeclarations(t *testing.T) {
	decl := parseStmt(t, "function add(a, b = 2, ...rest) { return a + b; }").(*ast.FuncDecl)
	require.Equal(t, "add", decl.Func.Name)
	require.Len(t, decl.Func.Params, 3)
	require.IsType(t, &ast.AssignPattern{}, decl.Func.Params[1])
	require.IsType(t, &ast.RestElement{}, decl.Func.Params[2])

	gen := parseStmt(t, "function* g() {}").(*ast.FuncDecl)
	require.True(t, gen.Func.IsGenerator)

	async := parseStmt(t, "async function load() {}").(*ast.FuncDecl)
	require.True(t, async.Func.IsAsync)
	require.Equal(t, "load", async.Func.Name)

	pe := parseError(t, "function () {}")
	require.Contains(t, pe.Message, "function declaration")
}

func TestClassDeclarations(t *testing.T) {
	decl := parseStmt(t, `class Point extends Base {
  static count = 0;
  x = 1
  y;
  constructor(x, y) { super(x); this.y = y; }
  get len() { return 1; }
  set len(v) {}
  static create() { return new Point(); }
  async load() {}
  *items() {}
  ['computed']() {}
  static { Point.count = 1; }
}`).(*ast.ClassDecl)
	class := decl.Class
	require.Equal(t, "Point", class.Name)
	require.Equal(t, "Base", class.SuperClass.String())

	kinds := make([]ast.MemberKind, 0, len(class.Members))
	for _, m := range class.Members {
		kinds = append(kinds, m.Kind)
	}
	require.Equal(t, []ast.MemberKind{
		ast.MemberField, ast.MemberField, ast.MemberField,
		ast.MemberConstructor, ast.MemberGet, ast.MemberSet,
		ast.MemberMethod, ast.MemberMethod, ast.MemberMethod, ast.MemberMethod,
		ast.MemberStaticBlock,
	}, kinds)
	require.True(t, class.Members[0].Static)
	require.Nil(t, class.Members[2].Value)
	require.True(t, class.Members[6].Static)
	require.True(t, class.Members[7].Value.(*ast.Function).IsAsync)
	require.True(t, class.Members[8].Value.(*ast.Function).IsGenerator)
	require.True(t, class.Members[9].Computed)
	require.True(t, class.Members[10].Static)

	ctor := class.Constructor()
	require.NotNil(t, ctor)
	require.Len(t, ctor.Params, 2)
	require.Equal(t, "constructor", ctor.Name)
}

func TestClassExpressions(t *testing.T) {
	expr := parseExpr(t, "(class { static() {} get() {} })")
	class, ok := expr.(*ast.Class)
	require.True(t, ok)
	require.Empty(t, class.Name)
	require.Len(t, class.Members, 2)
	require.Equal(t, "static", class.Members[0].Key.(*ast.Ident).Name)
	require.False(t, class.Members[0].Static)
	require.Equal(t, ast.MemberMethod, class.Members[1].Kind)

	named := parseStmt(t, "let A = class B extends mixin(C) {};").(*ast.VarDecl)
	require.Equal(t, "mixin(C)", named.Decls[0].Init.(*ast.Class).SuperClass.String())
}

func TestClassErrors(t *testing.T) {
	pe := parseError(t, "class { }")
	require.Contains(t, pe.Message, "class declaration")
	pe = parseError(t, "class A { constructor() {} constructor() {} }")
	require.Contains(t, pe.Message, "only have one constructor")
	pe = parseError(t, "class A { get x; }")
	require.Contains(t, pe.Message, "class method")
}

func TestBlocksAndEmptyStatements(t *testing.T) {
	program := parseProgram(t, "{ let a = 1; { a; } } ; ;")
	require.Len(t, program.Body, 3)
	block := program.Body[0].(*ast.Block)
	require.Len(t, block.Body, 2)
	require.IsType(t, &ast.Empty{}, program.Body[1])

	pe := parseError(t, "{ a;")
	require.Contains(t, pe.Message, "unterminated block")
}

func TestDebuggerStatement(t *testing.T) {
	require.IsType(t, &ast.Debugger{}, parseStmt(t, "debugger;"))
}

func TestAutomaticSemicolons(t *testing.T) {
	program := parseProgram(t, "a = 1\nb = 2\nc()")
	require.Len(t, program.Body, 3)

	// postfix operators do not cross a line break
	program = parseProgram(t, "x\n++y")
	require.Len(t, program.Body, 2)
	require.Equal(t, "x", program.Body[0].String())
	require.Equal(t, "(++y)", program.Body[1].String())

	program = parseProgram(t, "let a = 1 let b = 2")
	require.Len(t, program.Body, 2)
}
