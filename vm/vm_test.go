package vm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/jsbox/bytecode"
	"github.com/deepnoodle-ai/jsbox/compiler"
	"github.com/deepnoodle-ai/jsbox/parser"
	"github.com/deepnoodle-ai/jsbox/value"
)

func compileSource(t *testing.T, src string) *bytecode.FunctionProto {
	t.Helper()
	program, err := parser.Parse(context.Background(), src)
	require.NoError(t, err)
	proto, err := compiler.Compile(program, compiler.WithFilename("t.js"))
	require.NoError(t, err)
	return proto
}

func run(t *testing.T, src string, opts ...Option) (value.Value, *VM) {
	t.Helper()
	machine := New(opts...)
	v, err := machine.Execute(context.Background(), compileSource(t, src))
	require.NoError(t, err)
	return v, machine
}

// display runs src and renders its result like console.log.
func display(t *testing.T, src string, opts ...Option) string {
	t.Helper()
	v, machine := run(t, src, opts...)
	return machine.ToDisplayString(v)
}

func runError(t *testing.T, src string, opts ...Option) error {
	t.Helper()
	machine := New(opts...)
	_, err := machine.Execute(context.Background(), compileSource(t, src))
	require.Error(t, err)
	return err
}

func TestArithmetic(t *testing.T) {
	v, _ := run(t, "1 + 2 * 3")
	require.Equal(t, 7.0, v.AsNumber())

	tests := []struct {
		src  string
		want string
	}{
		{"7 % 3", "1"},
		{"-7 % 3", "-1"},
		{"2 ** 10", "1024"},
		{"1 / 0", "Infinity"},
		{"0 / 0", "NaN"},
		{"5 & 3", "1"},
		{"5 | 3", "7"},
		{"5 ^ 3", "6"},
		{"~5", "-6"},
		{"1 << 31", "-2147483648"},
		{"-8 >> 1", "-4"},
		{"-1 >>> 28", "15"},
		{"'3' * '4'", "12"},
		{"+'0x10'", "16"},
		{"true + 1", "2"},
		{"null + 1", "1"},
		{"undefined + 1", "NaN"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			require.Equal(t, tt.want, display(t, tt.src))
		})
	}
}

func TestStringConcatenation(t *testing.T) {
	require.Equal(t, "a1", display(t, "'a' + 1"))
	require.Equal(t, "1a", display(t, "1 + 'a'"))
	require.Equal(t, "1,2x", display(t, "[1, 2] + 'x'"))
	require.Equal(t, "[object Object]", display(t, "({}) + ''"))
	require.Equal(t, "a2b", display(t, "`a${1 + 1}b`"))
}

func TestComparisonAndEquality(t *testing.T) {
	require.Equal(t, "true,true,false,false,true",
		display(t, "[1 == '1', null == undefined, null == 0, NaN === NaN, 0 === -0].join(',')"))
	require.Equal(t, "true,false,true,false",
		display(t, "['a' < 'b', 'b' < 'a', 2 < 10, '2' < '10'].join(',')"))
	require.Equal(t, "true,false", display(t, "let o = {}; [o === o, o === {}].join(',')"))
	require.Equal(t, "true", display(t, "'ab' === 'a' + 'b'"))
}

func TestTypeof(t *testing.T) {
	require.Equal(t, "number,string,object,object,undefined,function,boolean",
		display(t, "[typeof 1, typeof 'a', typeof {}, typeof null, typeof undefined, typeof function() {}, typeof true].join(',')"))
}

func TestTruthiness(t *testing.T) {
	require.Equal(t, "false,true,false,true,false",
		display(t, "[!!'', !!'x', !!0, !!{}, !!NaN].join(',')"))
}

func TestRecursion(t *testing.T) {
	v, _ := run(t, `
function fib(n) {
  return n < 2 ? n : fib(n - 1) + fib(n - 2)
}
fib(10)`)
	require.Equal(t, 55.0, v.AsNumber())
}

func TestClosureCounter(t *testing.T) {
	v, _ := run(t, `
function counter() {
  let n = 0
  return function() { n++; return n }
}
let a = counter()
let b = counter()
a(); a(); b()
a() * 10 + b()`)
	require.Equal(t, 32.0, v.AsNumber())
}

func TestSharedUpvalue(t *testing.T) {
	v, _ := run(t, `
function pair() {
  let x = 1
  const get = () => x
  const set = v => { x = v }
  return [get, set]
}
const p = pair()
p[1](42)
p[0]()`)
	require.Equal(t, 42.0, v.AsNumber())
}

func TestLoopClosuresCaptureEachIteration(t *testing.T) {
	v, _ := run(t, `
let fns = []
for (let i = 0; i < 3; i++) {
  fns.push(function() { return i })
}
fns[0]() * 100 + fns[1]() * 10 + fns[2]()`)
	require.Equal(t, 12.0, v.AsNumber())
}

func TestTryCatch(t *testing.T) {
	require.Equal(t, "boom", display(t, "let r; try { throw 'boom' } catch (e) { r = e } r"))
	require.Equal(t, "bad", display(t, `
function f() { throw { message: 'bad' } }
function g() { return f() }
let msg
try { g() } catch (e) { msg = e.message }
msg`))
}

func TestFinallyRunsOnReturn(t *testing.T) {
	require.Equal(t, "1,3:2", display(t, `
let log = []
function f() {
  try {
    log.push(1)
    return 2
  } finally {
    log.push(3)
  }
}
let v = f()
log.join(',') + ':' + v`))
}

func TestFinallyRethrows(t *testing.T) {
	require.Equal(t, "cleanup,inner", display(t, `
let log = []
try {
  try {
    throw 'inner'
  } finally {
    log.push('cleanup')
  }
} catch (e) {
  log.push(e)
}
log.join(',')`))
}

func TestUncaughtException(t *testing.T) {
	err := runError(t, "throw 'oops'")
	var vmErr *VmError
	require.True(t, errors.As(err, &vmErr))
	require.Contains(t, vmErr.Message, "uncaught exception: oops")
	require.Equal(t, "<main>", vmErr.Function)
	require.Equal(t, 1, vmErr.Location.Line)
}

func TestTypeErrors(t *testing.T) {
	err := runError(t, "let o\no.x")
	require.Contains(t, err.Error(), "TypeError: cannot read property 'x' of undefined")

	require.Equal(t, "TypeError", display(t, "let n; try { null.x } catch (e) { n = e.name } n"))
	require.Equal(t, "TypeError", display(t, "let n; try { 'a' in 'abc' } catch (e) { n = e.name } n"))
}

func TestNatives(t *testing.T) {
	machine := New()
	machine.RegisterNative("add", func(vm *VM, args []value.Value) (value.Value, error) {
		return value.Number(vm.ToNumber(args[0]) + vm.ToNumber(args[1])), nil
	})
	machine.RegisterNative("fail", func(vm *VM, args []value.Value) (value.Value, error) {
		return value.Undefined(), vm.ThrowError("Error", "nope")
	})
	machine.RegisterNative("crash", func(vm *VM, args []value.Value) (value.Value, error) {
		return value.Undefined(), errors.New("host down")
	})

	v, err := machine.Execute(context.Background(), compileSource(t, "add(2, 3)"))
	require.NoError(t, err)
	require.Equal(t, 5.0, v.AsNumber())

	v, err = machine.Execute(context.Background(), compileSource(t, "let m; try { fail() } catch (e) { m = e.message } m"))
	require.NoError(t, err)
	require.Equal(t, "nope", machine.ToDisplayString(v))

	_, err = machine.Execute(context.Background(), compileSource(t, "try { crash() } catch (e) {}"))
	require.EqualError(t, err, "host down")
}

func TestNativeRefUnderDottedName(t *testing.T) {
	machine := New()
	machine.RegisterNative("util.double", func(vm *VM, args []value.Value) (value.Value, error) {
		return value.Number(2 * vm.ToNumber(args[0])), nil
	})
	require.True(t, machine.GetGlobalValue("util.double").IsUndefined())

	util := machine.NewObject()
	require.NoError(t, machine.SetProperty(util, "double", machine.NativeRef("util.double")))
	machine.SetGlobal("util", util)

	v, err := machine.Execute(context.Background(), compileSource(t, "util.double(21)"))
	require.NoError(t, err)
	require.Equal(t, 42.0, v.AsNumber())
	require.True(t, machine.NativeRef("missing").IsUndefined())
}

func TestGlobalsPersistAcrossRuns(t *testing.T) {
	machine := New()
	_, err := machine.Execute(context.Background(), compileSource(t, "let x = 41"))
	require.NoError(t, err)
	v, err := machine.Execute(context.Background(), compileSource(t, "x + 1"))
	require.NoError(t, err)
	require.Equal(t, 42.0, v.AsNumber())
	require.Equal(t, 41.0, machine.GetGlobalValue("x").AsNumber())
	require.Contains(t, machine.GlobalNames(), "x")
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	machine := New()
	_, err := machine.Execute(ctx, compileSource(t, "while (true) {}"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestContextCheckDisabled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	machine := New(WithContextCheckInterval(0))
	_, err := machine.Execute(ctx, compileSource(t, "while (true) {}"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStackOverflow(t *testing.T) {
	err := runError(t, "function f() { return f() }\nf()", WithMaxFrameDepth(100))
	var vmErr *VmError
	require.True(t, errors.As(err, &vmErr))
	require.Equal(t, "stack overflow", vmErr.Message)
}

func TestSwitchFallthrough(t *testing.T) {
	require.Equal(t, "bc", display(t, `
let s = ''
switch (2) {
  case 1: s += 'a'
  case 2: s += 'b'
  case 3: s += 'c'; break
  default: s += 'd'
}
s`))
	require.Equal(t, "d", display(t, "let s = ''; switch (9) { case 1: s = 'a'; break; default: s = 'd' } s"))
}

func TestConstructors(t *testing.T) {
	require.Equal(t, "[ 4, true, false ]", display(t, `
function P(x) { this.x = x }
function Q() {}
const p = new P(4)
const r = [p.x, p instanceof P, p instanceof Q]
r`))

	require.Equal(t, "{ y: 1 }", display(t, "function R() { this.x = 1; return { y: 1 } }\nnew R()"))
}

func TestClasses(t *testing.T) {
	v, _ := run(t, `
class Point {
  constructor(x, y) { this.x = x; this.y = y }
  sum() { return this.x + this.y }
  static origin() { return new Point(0, 0) }
}
const p = new Point(2, 3)
p.sum() * 10 + Point.origin().sum() + (p instanceof Point ? 100 : 0)`)
	require.Equal(t, 150.0, v.AsNumber())
}

func TestRestAndSpread(t *testing.T) {
	v, _ := run(t, `
function sum(...xs) {
  let t = 0
  for (const x of xs) t += x
  return t
}
sum(...[1, 2, 3], 4)`)
	require.Equal(t, 10.0, v.AsNumber())
	require.Equal(t, "[ 0, 1, 2, 3 ]", display(t, "const a = [1, 2]; [0, ...a, 3]"))
	require.Equal(t, "{ a: 1, b: 3 }", display(t, "const o = { a: 1, b: 2 }; ({ ...o, b: 3 })"))
}

func TestDefaultParameters(t *testing.T) {
	require.Equal(t, "[ 3, 7 ]", display(t, "function f(a, b = 2) { return a + b }\n[f(1), f(3, 4)]"))
}

func TestDestructuredParameters(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"function f([a, b], {c, d: e}) { return [a, b, c, e] }\nf([1, 2], { c: 3, d: 4 })", "[ 1, 2, 3, 4 ]"},
		{
			"function g({x = 1, y} = {}, [p, , q = 9] = []) { return [x, y, p, q] }\n[g(), g({ x: 5, y: 6 }, [7, 8])]",
			"[ [ 1, undefined, undefined, 9 ], [ 5, 6, 7, 9 ] ]",
		},
		{"const h = ([first, ...others]) => others.length + first\nh([10, 20, 30])", "12"},
		{"function k({a: [m, n]}) { return () => m * n }\nk({ a: [3, 4] })()", "12"},
		{"function c({['a' + 'b']: v}) { return v }\nc({ ab: 5 })", "5"},
		{"function s(a, {b} = {b: a * 2}) { return b }\ns(4)", "8"},
		{"let n; function f({a}) {} try { f() } catch (e) { n = e.name } n", "TypeError"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			require.Equal(t, tt.want, display(t, tt.src))
		})
	}
}

func TestDestructuredCatchParameter(t *testing.T) {
	require.Equal(t, "x7", display(t, "let r; try { throw { code: 7, msg: 'x' } } catch ({ code, msg }) { r = msg + code } r"))
	require.Equal(t, "2", display(t, "let r; try { throw [1, 2] } catch ([, second]) { r = second } r"))
}

func TestForIn(t *testing.T) {
	require.Equal(t, "a,b", display(t, "let o = { a: 1, b: 2 }; let ks = []; for (let k in o) ks.push(k); ks.join()"))
	require.Equal(t, "0,1", display(t, "let ks = []; for (const k in ['x', 'y']) ks.push(k); ks.join()"))
}

func TestForOfString(t *testing.T) {
	require.Equal(t, "c-b-a-", display(t, "let s = ''; for (const ch of 'abc') s = ch + '-' + s; s"))
}

func TestNullishAndOptional(t *testing.T) {
	require.Equal(t, "[ undefined, 5, 0 ]", display(t, "let o = null; let z = 0; [o?.x, o ?? 5, z ?? 5]"))
	require.Equal(t, "[ 2, 'd' ]", display(t, "[0 || 2, '' || 'd']"))
}

func TestArrayAndStringMethods(t *testing.T) {
	require.Equal(t, "HELLObc2", display(t, "'Hello'.toUpperCase() + 'abc'.slice(-2) + 'a,b'.split(',').length"))
	require.Equal(t, "[ 1, 9 ]", display(t, "let a = [1, 2, 3]; a.length = 1; a.push(9); a"))
	require.Equal(t, "[ 2, 3 ]", display(t, "[1, 2, 3, 4].slice(1, -1)"))
	require.Equal(t, "true,1,-1,3", display(t, "let a = [1, 'x']; [a.includes('x'), a.indexOf('x'), a.indexOf(5), a.push(0)].join(',')"))
	require.Equal(t, "b", display(t, "'abc'.charAt(1)"))
	require.Equal(t, "3", display(t, "'abc'.length"))
}

func TestArrayIndexAssignment(t *testing.T) {
	require.Equal(t, "[ 1, undefined, 3 ]", display(t, "let a = [1]; a[2] = 3; a"))
	require.Equal(t, "[ undefined, 2 ]", display(t, "let a = [1, 2]; delete a[0]; a"))
}

func TestObjectProperties(t *testing.T) {
	require.Equal(t, "{ a: 1, b: 'x', c: [ 1, 2 ] }", display(t, "({ a: 1, b: 'x', c: [1, 2] })"))
	require.Equal(t, "{ 'my key': 1, k2: 2 }", display(t, "const k = 'k2'; ({ 'my key': 1, [k]: 2 })"))
	require.Equal(t, "true,false", display(t, "const o = { a: 1 }; const r = ['a' in o]; delete o.a; r.push('a' in o); r.join(',')"))
}

func TestDisplay(t *testing.T) {
	require.Equal(t, "[Function: f]", display(t, "function f() {}\nf"))
	require.Equal(t, "[Function (anonymous)]", display(t, "[function() {}][0]"))
	require.Equal(t, "{ self: [Circular] }", display(t, "const o = {}; o.self = o; o"))
	require.Equal(t, "[ 'a', [ 'b' ] ]", display(t, "['a', ['b']]"))
	require.Equal(t, "plain", display(t, "'plain'"))
}

type haltingObserver struct {
	NoOpObserver
	steps int
	limit int
}

func (o *haltingObserver) OnStep(StepEvent) bool {
	o.steps++
	return o.steps < o.limit
}

func TestObserverHalts(t *testing.T) {
	obs := &haltingObserver{limit: 10}
	machine := New(WithObserver(obs))
	_, err := machine.Execute(context.Background(), compileSource(t, "while (true) {}"))
	require.ErrorIs(t, err, ErrHalted)
	require.Equal(t, 10, obs.steps)
}

type callCounter struct {
	NoOpObserver
	calls   int
	returns int
}

func (o *callCounter) Config() ObserverConfig {
	return NewObserverConfig(StepNone)
}

func (o *callCounter) OnCall(CallEvent) bool {
	o.calls++
	return true
}

func (o *callCounter) OnReturn(ReturnEvent) bool {
	o.returns++
	return true
}

func TestObserverCalls(t *testing.T) {
	obs := &callCounter{}
	run(t, "function fib(n) { return n < 2 ? n : fib(n - 1) + fib(n - 2) }\nfib(5)", WithObserver(obs))
	require.Equal(t, 15, obs.calls)
	// every call returns, plus the program itself
	require.Equal(t, 16, obs.returns)
}

type stepCounter struct {
	NoOpObserver
	cfg   ObserverConfig
	steps int
}

func (o *stepCounter) Config() ObserverConfig { return o.cfg }

func (o *stepCounter) OnStep(StepEvent) bool {
	o.steps++
	return true
}

func TestObserverStepModes(t *testing.T) {
	source := "let a = 1\nlet b = 2\na + b"
	count := func(cfg ObserverConfig) int {
		obs := &stepCounter{cfg: cfg}
		run(t, source, WithObserver(obs))
		return obs.steps
	}
	all := count(NewObserverConfig(StepAll))
	require.Positive(t, all)

	// An interval below one is treated as one.
	sampled := NewObserverConfig(StepSampled)
	sampled.SampleInterval = 0
	require.Equal(t, all, count(sampled))

	onLine := count(NewObserverConfig(StepOnLine))
	require.GreaterOrEqual(t, onLine, 3)
	require.Less(t, onLine, all)

	require.Zero(t, count(NewObserverConfig(StepNone)))
}

func TestGarbageCollection(t *testing.T) {
	v, machine := run(t, `
let s = ''
let keep = { tag: 'kept' }
for (let i = 0; i < 2000; i++) {
  s = 'x' + i
}
s + keep.tag`, WithGCThreshold(1024))
	require.Equal(t, "x1999kept", machine.ToDisplayString(v))
	require.Greater(t, machine.Heap().Collections(), 0)
}

func TestMarshaledProtoRuns(t *testing.T) {
	proto := compileSource(t, `
function fib(n) { return n < 2 ? n : fib(n - 1) + fib(n - 2) }
const add = (a, b) => a + b
add(fib(10), 1)`)
	data, err := bytecode.Marshal(proto)
	require.NoError(t, err)
	loaded, err := bytecode.Unmarshal(data)
	require.NoError(t, err)

	result, err := Run(context.Background(), loaded)
	require.NoError(t, err)
	require.Equal(t, 56.0, result.Value.AsNumber())
	require.Equal(t, "56", result.String())
}

func TestExecuteNilProto(t *testing.T) {
	_, err := New().Execute(context.Background(), nil)
	require.Error(t, err)
}

func TestVMIsReusableAfterError(t *testing.T) {
	machine := New()
	_, err := machine.Execute(context.Background(), compileSource(t, "throw 1"))
	require.Error(t, err)
	v, err := machine.Execute(context.Background(), compileSource(t, "2"))
	require.NoError(t, err)
	require.Equal(t, 2.0, v.AsNumber())
}
