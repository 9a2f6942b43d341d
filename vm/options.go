package vm

import (
	"io"

	"github.com/rs/zerolog"
)

// Option is a configuration function for a VM.
type Option func(*VM)

// WithContextCheckInterval sets how often the VM checks ctx.Done() during
// execution, in instructions. A value of 0 disables the deterministic check,
// relying only on the background goroutine that watches the context. The
// default is DefaultContextCheckInterval.
func WithContextCheckInterval(interval int) Option {
	return func(vm *VM) {
		vm.contextCheckInterval = interval
	}
}

// WithMaxFrameDepth limits the depth of the call stack. Exceeding it is a
// "stack overflow" error.
func WithMaxFrameDepth(depth int) Option {
	return func(vm *VM) {
		if depth > 0 {
			vm.maxFrameDepth = depth
		}
	}
}

// WithObserver sets an observer for VM execution events.
func WithObserver(observer Observer) Option {
	return func(vm *VM) {
		vm.observer = observer
	}
}

// WithLogger sets the logger for execution and garbage collection events.
func WithLogger(logger zerolog.Logger) Option {
	return func(vm *VM) {
		vm.logger = logger
	}
}

// WithGCThreshold sets the allocation volume, in bytes, that triggers the
// first garbage collection.
func WithGCThreshold(bytes int) Option {
	return func(vm *VM) {
		vm.gcThreshold = bytes
	}
}

// WithOutput sets the writer that console output goes to.
func WithOutput(w io.Writer) Option {
	return func(vm *VM) {
		vm.out = w
	}
}
