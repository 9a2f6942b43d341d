package vm

import (
	"context"

	"github.com/deepnoodle-ai/jsbox/bytecode"
	"github.com/deepnoodle-ai/jsbox/value"
)

// Result is a value returned from a run together with the VM that owns
// it. Values are only meaningful on the VM whose heap holds them.
type Result struct {
	Value value.Value
	VM    *VM
}

// String renders the result the way console.log would.
func (r Result) String() string {
	return r.VM.ToDisplayString(r.Value)
}

// Run executes main on a new VM and returns its result.
func Run(ctx context.Context, main *bytecode.FunctionProto, options ...Option) (Result, error) {
	machine := New(options...)
	v, err := machine.Execute(ctx, main)
	if err != nil {
		return Result{Value: value.Undefined(), VM: machine}, err
	}
	return Result{Value: v, VM: machine}, nil
}
