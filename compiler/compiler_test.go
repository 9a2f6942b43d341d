package compiler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/jsbox/ast"
	"github.com/deepnoodle-ai/jsbox/bytecode"
	"github.com/deepnoodle-ai/jsbox/op"
	"github.com/deepnoodle-ai/jsbox/parser"
)

func compileSource(t *testing.T, src string) *bytecode.FunctionProto {
	t.Helper()
	program, err := parser.Parse(context.Background(), src)
	require.NoError(t, err)
	proto, err := Compile(program, WithFilename("t.js"))
	require.NoError(t, err)
	require.NoError(t, proto.Validate())
	return proto
}

func compileError(t *testing.T, src string) *CompileError {
	t.Helper()
	program, err := parser.Parse(context.Background(), src)
	require.NoError(t, err)
	_, err = Compile(program, WithFilename("t.js"))
	require.Error(t, err)
	var ce *CompileError
	require.True(t, errors.As(err, &ce), "expected *CompileError, got %T", err)
	return ce
}

func opcodes(proto *bytecode.FunctionProto) []op.Code {
	codes := make([]op.Code, len(proto.Code))
	for i, instr := range proto.Code {
		codes[i] = instr.Op
	}
	return codes
}

func findChild(t *testing.T, proto *bytecode.FunctionProto, name string) *bytecode.FunctionProto {
	t.Helper()
	var found *bytecode.FunctionProto
	proto.Walk(func(p *bytecode.FunctionProto) bool {
		if p != proto && p.Name == name {
			found = p
			return false
		}
		return true
	})
	require.NotNil(t, found, "no function named %q", name)
	return found
}

func TestNilProgram(t *testing.T) {
	_, err := Compile(nil)
	require.Error(t, err)
}

func TestEmptyProgram(t *testing.T) {
	proto := compileSource(t, "")
	require.Equal(t, MainName, proto.Name)
	require.Equal(t, []op.Code{op.LoadUndef, op.Return}, opcodes(proto))
}

func TestBinaryExpression(t *testing.T) {
	proto := compileSource(t, "1 + 2")
	require.Equal(t, []bytecode.Instruction{
		{Op: op.LoadConst, A: 1, K: 0},
		{Op: op.LoadConst, A: 2, K: 1},
		{Op: op.Add, A: 1, B: 1, C: 2},
		{Op: op.Return, A: 1},
	}, proto.Code)
	require.Equal(t, 3, proto.NumRegs)
	require.Equal(t, []bytecode.Constant{bytecode.Number(1), bytecode.Number(2)}, proto.Constants)
}

func TestConstantsAreDeduplicated(t *testing.T) {
	proto := compileSource(t, "let a = 1; let b = 1; let c = 'a';")
	require.Equal(t, []bytecode.Constant{
		bytecode.Number(1),
		bytecode.String("a"),
		bytecode.String("b"),
		bytecode.String("c"),
	}, proto.Constants)
}

func TestWithName(t *testing.T) {
	program, err := parser.Parse(context.Background(), "1")
	require.NoError(t, err)
	proto, err := Compile(program, WithName("script"))
	require.NoError(t, err)
	require.Equal(t, "script", proto.Name)
}

func TestTopLevelDeclarationsAreGlobals(t *testing.T) {
	proto := compileSource(t, "var a = 1; let b = 2; a + b")
	codes := opcodes(proto)
	require.Contains(t, codes, op.SetGlobal)
	require.Contains(t, codes, op.GetGlobal)
	require.NotContains(t, codes, op.Move)
}

func TestBlockDeclarationsAreLocal(t *testing.T) {
	proto := compileSource(t, "{ let a = 1; a + 1 }")
	codes := opcodes(proto)
	require.NotContains(t, codes, op.SetGlobal)
	require.NotContains(t, codes, op.GetGlobal)
	require.Contains(t, codes, op.Move)
}

func TestSourceLocations(t *testing.T) {
	proto := compileSource(t, "let a = 1;\n\n  a = a + 2;")
	require.Len(t, proto.Locations, len(proto.Code))
	var last bytecode.SourceLocation
	for ip, instr := range proto.Code {
		if instr.Op == op.Add {
			last = proto.LocationAt(ip)
		}
	}
	require.Equal(t, 3, last.Line)
}

func TestWhileLoopJumps(t *testing.T) {
	proto := compileSource(t, `
		let i = 0;
		while (true) {
			i++;
			if (i > 10) { break; }
			continue;
		}
	`)
	jumps := 0
	for _, instr := range proto.Code {
		if op.GetInfo(instr.Op).IsJump() {
			jumps++
			require.NotEqual(t, bytecode.NoTarget, instr.K)
			require.LessOrEqual(t, int(instr.K), len(proto.Code))
		}
	}
	require.GreaterOrEqual(t, jumps, 4)
}

func TestFunctionProto(t *testing.T) {
	proto := compileSource(t, "function add(a, b) { return a + b; }")
	add := findChild(t, proto, "add")
	require.Equal(t, 2, add.NumParams)
	require.False(t, add.HasRest)
	require.False(t, add.IsArrow)
	require.Empty(t, add.Upvalues)
	require.Equal(t, []bytecode.Instruction{
		{Op: op.Move, A: 3, B: 1},
		{Op: op.Move, A: 4, B: 2},
		{Op: op.Add, A: 3, B: 3, C: 4},
		{Op: op.Return, A: 3},
		{Op: op.LoadUndef, A: 3},
		{Op: op.Return, A: 3},
	}, add.Code)

	// Function declarations are created before the rest of the program.
	require.Equal(t, op.CreateClosure, proto.Code[0].Op)
}

func TestRestAndDefaultParameters(t *testing.T) {
	proto := compileSource(t, "function f(a, b = 2, ...rest) { return rest; }")
	f := findChild(t, proto, "f")
	require.Equal(t, 2, f.NumParams)
	require.True(t, f.HasRest)
	require.GreaterOrEqual(t, f.NumRegs, 4)
	require.Contains(t, opcodes(f), op.EqStrict)
}

func TestClosureCapturesLocal(t *testing.T) {
	proto := compileSource(t, `
		function outer() {
			let x = 1;
			return function inner() { return x; };
		}
	`)
	outer := findChild(t, proto, "outer")
	inner := findChild(t, outer, "inner")
	require.Equal(t, []bytecode.UpvalueDesc{
		{FromParentLocal: true, Index: 1, Name: "x"},
	}, inner.Upvalues)
	require.Contains(t, opcodes(inner), op.GetUpvalue)
}

func TestNestedUpvalues(t *testing.T) {
	proto := compileSource(t, `
		function a() {
			let x = 1;
			function b() {
				function c() { x = x + 1; return x; }
				return c;
			}
			return b;
		}
	`)
	b := findChild(t, proto, "b")
	c := findChild(t, proto, "c")
	require.Len(t, b.Upvalues, 1)
	require.True(t, b.Upvalues[0].FromParentLocal)
	require.Equal(t, []bytecode.UpvalueDesc{
		{FromParentLocal: false, Index: 0, Name: "x"},
	}, c.Upvalues)
	require.Contains(t, opcodes(c), op.SetUpvalue)
}

func TestArrowCapturesThis(t *testing.T) {
	proto := compileSource(t, "function f() { return () => this; }")
	f := findChild(t, proto, "f")
	var arrow *bytecode.FunctionProto
	for _, child := range f.Children() {
		arrow = child
	}
	require.NotNil(t, arrow)
	require.True(t, arrow.IsArrow)
	require.Equal(t, []bytecode.UpvalueDesc{
		{FromParentLocal: true, Index: 0, Name: "this"},
	}, arrow.Upvalues)
}

func TestAnonymousFunctionsTakeBindingName(t *testing.T) {
	proto := compileSource(t, "const double = (x) => x * 2; let obj = { greet: function() {} };")
	findChild(t, proto, "double")
	findChild(t, proto, "greet")
}

func TestLoopClosesCapturedBindings(t *testing.T) {
	proto := compileSource(t, `
		function f() {
			let fns = [];
			for (let i = 0; i < 3; i++) { fns.push(() => i); }
			return fns;
		}
	`)
	f := findChild(t, proto, "f")
	require.Contains(t, opcodes(f), op.CloseUpvalues)
}

func TestTryCatchFinally(t *testing.T) {
	proto := compileSource(t, `
		let log = [];
		try { throw 1; } catch (e) { log.push(e); } finally { log.push(2); }
	`)
	codes := opcodes(proto)
	require.Contains(t, codes, op.PushTry)
	require.Contains(t, codes, op.PopTry)
	require.Contains(t, codes, op.Throw)
}

func TestReturnInsideTryPopsHandler(t *testing.T) {
	proto := compileSource(t, "function f() { try { return 1; } finally { g(); } }")
	f := findChild(t, proto, "f")
	codes := opcodes(f)
	// The return pops the handler and runs the finally block first.
	ret := -1
	for i, code := range codes {
		if code == op.Return {
			ret = i
			break
		}
	}
	require.Greater(t, ret, 0)
	require.Contains(t, codes[:ret], op.PopTry)
	require.Contains(t, codes[:ret], op.Call)
}

func TestSwitch(t *testing.T) {
	proto := compileSource(t, `
		let r = 0;
		switch (r) {
		case 0: r = 1;
		case 1: r = 2; break;
		default: r = 3;
		}
	`)
	require.Contains(t, opcodes(proto), op.EqStrict)
}

func TestLabeledContinue(t *testing.T) {
	compileSource(t, `
		outer: for (let i = 0; i < 3; i++) {
			for (let j = 0; j < 3; j++) {
				if (j == 1) continue outer;
				if (i == 2) break outer;
			}
		}
		block: { break block; }
	`)
}

func TestForInAndForOf(t *testing.T) {
	proto := compileSource(t, `
		let o = {a: 1, b: 2};
		let keys = [];
		for (const k in o) { keys.push(k); }
		for (let v of [1, 2, 3]) { keys.push(v); }
	`)
	codes := opcodes(proto)
	require.Contains(t, codes, op.Keys)
	require.Contains(t, codes, op.Length)
	require.Contains(t, codes, op.GetElem)
}

func TestCalls(t *testing.T) {
	proto := compileSource(t, `
		f(1, 2);
		o.m(3);
		o["m"](4);
		o[k](5);
		f(...args);
		o?.m();
		f?.();
		new C(1);
	`)
	codes := opcodes(proto)
	require.Contains(t, codes, op.Call)
	require.Contains(t, codes, op.CallMethod)
	require.Contains(t, codes, op.CallSpread)
	require.Contains(t, codes, op.New)
	require.Contains(t, codes, op.JumpIfNullish)
}

func TestMethodCallLayout(t *testing.T) {
	proto := compileSource(t, "o.m(1, 2)")
	var call bytecode.Instruction
	for _, instr := range proto.Code {
		if instr.Op == op.CallMethod {
			call = instr
		}
	}
	require.Equal(t, uint16(2), call.C)
	require.Equal(t, call.A+1, call.D)
	require.Equal(t, bytecode.String("m"), proto.Constants[call.K])
}

func TestClass(t *testing.T) {
	proto := compileSource(t, `
		class Point {
			x = 0;
			constructor(x, y) { this.x = x; this.y = y; }
			norm() { return this.x * this.x + this.y * this.y; }
			static origin() { return new Point(0, 0); }
		}
	`)
	ctor := findChild(t, proto, "Point")
	require.Equal(t, 2, ctor.NumParams)
	findChild(t, ctor, "norm")
	findChild(t, proto, "origin")
	require.Contains(t, opcodes(ctor), op.SetProp)
}

func TestObjectAndArrayLiterals(t *testing.T) {
	proto := compileSource(t, "let o = {a: 1, ['b']: 2, ...p, m() {}}; let a = [1, , ...b];")
	codes := opcodes(proto)
	require.Contains(t, codes, op.CreateObject)
	require.Contains(t, codes, op.SetProp)
	require.Contains(t, codes, op.SetElem)
	require.Contains(t, codes, op.CopyProps)
	require.Contains(t, codes, op.CreateArray)
	require.Contains(t, codes, op.AppendElem)
	require.Contains(t, codes, op.ExtendArray)
}

func TestTemplateLiteral(t *testing.T) {
	proto := compileSource(t, "let n = 1; `a${n}b`")
	require.Contains(t, proto.Constants, bytecode.String("a"))
	require.Contains(t, proto.Constants, bytecode.String("b"))
	require.Contains(t, opcodes(proto), op.Add)
}

func TestBuiltinConstants(t *testing.T) {
	proto := compileSource(t, "undefined")
	require.Equal(t, []op.Code{op.LoadUndef, op.Return}, opcodes(proto))

	proto = compileSource(t, "let undefined = 1; undefined")
	require.Contains(t, opcodes(proto), op.GetGlobal)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{"let [a] = x;", "destructuring declarations are not supported"},
		{"const a = 1; a = 2;", `assignment to constant variable "a"`},
		{"const a = 1; a++;", `assignment to constant variable "a"`},
		{"break;", "illegal break statement"},
		{"continue;", "illegal continue statement: no surrounding iteration statement"},
		{"while (true) { break foo; }", `undefined label "foo"`},
		{"foo: { while (true) { continue foo; } }", `illegal continue statement: "foo" does not denote an iteration statement`},
		{"[a, b] = [1, 2];", "destructuring assignment is not supported"},
		{"x = {a = 1};", "invalid shorthand property initializer"},
		{"new F(...args);", "spread arguments in new expressions are not supported"},
		{"function f({...r}) {}", "rest properties in binding patterns are not supported"},
		{"try {} catch ({...e}) {}", "rest properties in binding patterns are not supported"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ce := compileError(t, tt.input)
			require.Equal(t, tt.msg, ce.Message)
			require.Equal(t, "t.js", ce.File)
			line, col := ce.Position()
			require.Equal(t, 1, line)
			require.Greater(t, col, 0)
		})
	}
}

func TestCompileErrorString(t *testing.T) {
	ce := compileError(t, "\n  break;")
	require.Equal(t, "compile error: illegal break statement\n\nlocation: t.js:2:3 (line 2, column 3)", ce.Error())

	err := &CompileError{Message: "boom"}
	require.Equal(t, "compile error: boom", err.Error())
}

func TestCompilerIsReusable(t *testing.T) {
	c := New()
	p1, err := c.Compile(&ast.Program{})
	require.NoError(t, err)
	p2, err := c.Compile(&ast.Program{})
	require.NoError(t, err)
	require.Equal(t, p1.Code, p2.Code)
}
