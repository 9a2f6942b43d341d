package vm

import (
	"github.com/deepnoodle-ai/jsbox/bytecode"
	"github.com/deepnoodle-ai/jsbox/heap"
	"github.com/deepnoodle-ai/jsbox/value"
)

// CallFrame is the activation record of one function call. Its registers
// are vm.regs[Base : Base+proto.NumRegs].
type CallFrame struct {
	ProtoIndex int
	IP         int
	Base       int

	// ReturnReg is the absolute register that receives the return value,
	// or -1 for the root frame.
	ReturnReg int

	// Closure is the function being run, NilRef for the root frame.
	Closure heap.Ref

	proto   *bytecode.FunctionProto
	closure *heap.Closure

	// Set for frames created by new. The constructed object replaces a
	// non-object return value.
	construct   bool
	constructed value.Value
}

// top is the first register above the frame's window.
func (f *CallFrame) top() int {
	return f.Base + f.proto.NumRegs
}

// tryFrame is a handler installed by PushTry.
type tryFrame struct {
	catchIP    int
	frameDepth int // len(vm.frames) when the handler was pushed
	reg        int // absolute register receiving the thrown value
}
