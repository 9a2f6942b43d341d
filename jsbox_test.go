package jsbox

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/jsbox/compiler"
	"github.com/deepnoodle-ai/jsbox/parser"
	"github.com/deepnoodle-ai/jsbox/value"
	"github.com/deepnoodle-ai/jsbox/vm"
)

func TestBasicUsage(t *testing.T) {
	v, machine, err := Eval(context.Background(), "[1, 2, 3].join('-')")
	require.NoError(t, err)
	require.Equal(t, "1-2-3", machine.ToString(v))
}

func TestCompileRun(t *testing.T) {
	ctx := context.Background()
	proto, err := Compile(ctx, "1 + 2")
	require.NoError(t, err)
	require.NoError(t, proto.Validate())

	v, _, err := Run(ctx, proto)
	require.NoError(t, err)
	require.Equal(t, 3.0, v.AsNumber())
}

func TestProgramReuse(t *testing.T) {
	ctx := context.Background()
	proto, err := Compile(ctx, "x + 1")
	require.NoError(t, err)

	for i := range 5 {
		machine := NewVM()
		machine.SetGlobal("x", value.Number(float64(i)))
		v, err := machine.Execute(ctx, proto)
		require.NoError(t, err)
		require.Equal(t, float64(i+1), v.AsNumber())
	}
}

func TestConcurrentExecution(t *testing.T) {
	proto, err := Compile(context.Background(), `
function fib(n) { return n < 2 ? n : fib(n - 1) + fib(n - 2) }
fib(x)`)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]float64, 8)
	errs := make([]error, 8)
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			machine := NewVM()
			machine.SetGlobal("x", value.Number(float64(i+10)))
			v, err := machine.Execute(context.Background(), proto)
			errs[i] = err
			results[i] = v.AsNumber()
		}()
	}
	wg.Wait()

	want := []float64{55, 89, 144, 233, 377, 610, 987, 1597}
	for i := range 8 {
		require.NoError(t, errs[i], "goroutine %d", i)
		require.Equal(t, want[i], results[i], "goroutine %d", i)
	}
}

func TestBuiltinsInstalledByDefault(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Eval(context.Background(), `console.log("hi", Math.max(1, 2))`,
		WithVMOptions(vm.WithOutput(&out)))
	require.NoError(t, err)
	require.Equal(t, "hi 2\n", out.String())
}

func TestWithoutBuiltins(t *testing.T) {
	v, machine, err := Eval(context.Background(), "typeof console", WithoutBuiltins())
	require.NoError(t, err)
	require.Equal(t, "undefined", machine.ToString(v))
}

func TestWithNative(t *testing.T) {
	double := func(machine *vm.VM, args []value.Value) (value.Value, error) {
		return value.Number(machine.ToNumber(args[0]) * 2), nil
	}
	v, _, err := Eval(context.Background(), "double(21)", WithNative("double", double))
	require.NoError(t, err)
	require.Equal(t, 42.0, v.AsNumber())
}

func TestErrorTypes(t *testing.T) {
	ctx := context.Background()

	_, _, err := Eval(ctx, "let x = ;", WithFilename("bad.js"))
	var parseErr *parser.ParseError
	require.True(t, errors.As(err, &parseErr))
	require.Equal(t, "bad.js", parseErr.File)

	_, _, err = Eval(ctx, "let [a] = [1]")
	var compileErr *compiler.CompileError
	require.True(t, errors.As(err, &compileErr))

	_, _, err = Eval(ctx, "throw new TypeError('nope')")
	var vmErr *vm.VmError
	require.True(t, errors.As(err, &vmErr))
	require.Contains(t, vmErr.Message, "TypeError: nope")
}

func TestResourceLimits(t *testing.T) {
	ctx := context.Background()

	t.Run("stack overflow", func(t *testing.T) {
		_, _, err := Eval(ctx, "function f() { return f() }\nf()",
			WithVMOptions(vm.WithMaxFrameDepth(10)))
		var vmErr *vm.VmError
		require.True(t, errors.As(err, &vmErr))
		require.Equal(t, "stack overflow", vmErr.Message)
	})

	t.Run("timeout exceeded", func(t *testing.T) {
		timeoutCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, _, err := Eval(timeoutCtx, "while (true) {}")
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("compile cancellation", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := Compile(cancelCtx, "1 + 2")
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("parser depth", func(t *testing.T) {
		_, err := Compile(ctx, "((((((((((1))))))))))", WithMaxDepth(3))
		require.ErrorContains(t, err, "maximum nesting depth exceeded")
	})
}
