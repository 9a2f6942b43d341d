// Package jsbox compiles and runs a practical subset of JavaScript on a
// register-based bytecode VM.
//
// The pipeline is lexer → parser → compiler → vm. This package wires the
// stages together for the common cases:
//
//	v, machine, err := jsbox.Eval(ctx, "[1, 2, 3].join('-')")
//	fmt.Println(machine.ToDisplayString(v)) // 1-2-3
//
// Compiled protos are immutable and may be executed by any number of VMs.
package jsbox

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/jsbox/builtins"
	"github.com/deepnoodle-ai/jsbox/bytecode"
	"github.com/deepnoodle-ai/jsbox/compiler"
	"github.com/deepnoodle-ai/jsbox/parser"
	"github.com/deepnoodle-ai/jsbox/value"
	"github.com/deepnoodle-ai/jsbox/vm"
)

// Option configures compilation or execution.
type Option func(*options)

type options struct {
	filename        string
	logger          zerolog.Logger
	vmOpts          []vm.Option
	natives         []native
	withoutBuiltins bool
	maxDepth        int
}

type native struct {
	name string
	fn   vm.NativeFunc
}

func collectOptions(opts ...Option) *options {
	o := &options{logger: zerolog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *options) parserOpts() []parser.Option {
	var opts []parser.Option
	if o.filename != "" {
		opts = append(opts, parser.WithFilename(o.filename))
	}
	if o.maxDepth > 0 {
		opts = append(opts, parser.WithMaxDepth(o.maxDepth))
	}
	return opts
}

func (o *options) compilerOpts() []compiler.Option {
	opts := []compiler.Option{compiler.WithLogger(o.logger)}
	if o.filename != "" {
		opts = append(opts, compiler.WithFilename(o.filename))
	}
	return opts
}

// WithFilename sets the name used in error messages and locations.
func WithFilename(filename string) Option {
	return func(o *options) {
		o.filename = filename
	}
}

// WithLogger sets the logger passed to the compiler and the VM.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithVMOptions adds options used when creating a VM.
func WithVMOptions(opts ...vm.Option) Option {
	return func(o *options) {
		o.vmOpts = append(o.vmOpts, opts...)
	}
}

// WithNative registers a host function before execution. Names containing a
// dot are registered but not bound to a global.
func WithNative(name string, fn vm.NativeFunc) Option {
	return func(o *options) {
		o.natives = append(o.natives, native{name: name, fn: fn})
	}
}

// WithoutBuiltins leaves the global scope empty apart from natives added
// with WithNative.
func WithoutBuiltins() Option {
	return func(o *options) {
		o.withoutBuiltins = true
	}
}

// WithMaxDepth limits parser nesting.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

// Compile parses and compiles source into a function proto.
func Compile(ctx context.Context, source string, opts ...Option) (*bytecode.FunctionProto, error) {
	return collectOptions(opts...).compile(ctx, source)
}

func (o *options) compile(ctx context.Context, source string) (*bytecode.FunctionProto, error) {
	program, err := parser.Parse(ctx, source, o.parserOpts()...)
	if err != nil {
		return nil, err
	}
	return compiler.Compile(program, o.compilerOpts()...)
}

// NewVM returns a VM configured by opts, with the builtins installed unless
// WithoutBuiltins is given.
func NewVM(opts ...Option) *vm.VM {
	return collectOptions(opts...).newVM()
}

func (o *options) newVM() *vm.VM {
	vmOpts := append([]vm.Option{vm.WithLogger(o.logger)}, o.vmOpts...)
	machine := vm.New(vmOpts...)
	if !o.withoutBuiltins {
		builtins.Install(machine)
	}
	for _, n := range o.natives {
		machine.RegisterNative(n.name, n.fn)
	}
	return machine
}

// Run executes a compiled proto on a new VM. The returned value belongs to
// the returned VM's heap.
func Run(ctx context.Context, proto *bytecode.FunctionProto, opts ...Option) (value.Value, *vm.VM, error) {
	machine := collectOptions(opts...).newVM()
	v, err := machine.Execute(ctx, proto)
	return v, machine, err
}

// Eval compiles and runs source. It is Compile followed by Run.
func Eval(ctx context.Context, source string, opts ...Option) (value.Value, *vm.VM, error) {
	o := collectOptions(opts...)
	proto, err := o.compile(ctx, source)
	if err != nil {
		return value.Undefined(), nil, err
	}
	machine := o.newVM()
	v, err := machine.Execute(ctx, proto)
	return v, machine, err
}
