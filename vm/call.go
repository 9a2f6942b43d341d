package vm

import (
	"github.com/deepnoodle-ai/jsbox/heap"
	"github.com/deepnoodle-ai/jsbox/value"
)

// callValue calls fn with the given receiver. A compiled function gets a
// new frame whose result is written to retReg when it returns; a native
// runs to completion and its result is written immediately. Calling a
// value that is not a function yields undefined.
func (vm *VM) callValue(fn, this value.Value, args []value.Value, retReg int, caller *CallFrame) error {
	obj, ok := vm.heap.Get(fn.AsRef())
	if !fn.IsRef() || !ok {
		vm.regs[retReg] = value.Undefined()
		return nil
	}
	switch obj := obj.(type) {
	case *heap.Closure:
		return vm.pushFrame(fn.AsRef(), obj, this, args, retReg, caller)
	case *heap.Function:
		result, err := vm.callNative(obj, args, caller)
		if err != nil {
			return err
		}
		vm.regs[retReg] = result
		return nil
	}
	vm.regs[retReg] = value.Undefined()
	return nil
}

func (vm *VM) callNative(fn *heap.Function, args []value.Value, caller *CallFrame) (value.Value, error) {
	if fn.Native < 0 || fn.Native >= len(vm.natives) {
		return value.Undefined(), nil
	}
	if vm.observer != nil && vm.observerCfg.ObserveCalls {
		if !vm.observer.OnCall(CallEvent{
			FunctionName: fn.Name,
			ArgCount:     len(args),
			Native:       true,
			Location:     caller.proto.LocationAt(caller.IP - 1),
			FrameDepth:   len(vm.frames),
		}) {
			return value.Undefined(), ErrHalted
		}
	}
	return vm.natives[fn.Native].fn(vm, args)
}

// construct implements new. A compiled function runs as a constructor with
// a fresh object as this; a native is simply called.
func (vm *VM) construct(fn value.Value, args []value.Value, retReg int, caller *CallFrame) error {
	obj, ok := vm.heap.Get(fn.AsRef())
	if !fn.IsRef() || !ok {
		vm.regs[retReg] = value.Undefined()
		return nil
	}
	switch obj := obj.(type) {
	case *heap.Closure:
		if vm.protos[obj.ProtoIndex].IsArrow {
			return vm.typeError("%s is not a constructor", displayName(obj.Name))
		}
		this := value.FromRef(vm.heap.Allocate(&heap.Object{Constructor: fn.AsRef()}))
		if err := vm.pushFrame(fn.AsRef(), obj, this, args, retReg, caller); err != nil {
			return err
		}
		frame := vm.frames[len(vm.frames)-1]
		frame.construct = true
		frame.constructed = this
		return nil
	case *heap.Function:
		result, err := vm.callNative(obj, args, caller)
		if err != nil {
			return err
		}
		vm.regs[retReg] = result
		return nil
	}
	vm.regs[retReg] = value.Undefined()
	return nil
}

func (vm *VM) pushFrame(ref heap.Ref, cl *heap.Closure, this value.Value, args []value.Value, retReg int, caller *CallFrame) error {
	if len(vm.frames) >= vm.maxFrameDepth {
		return vm.fatal("stack overflow")
	}
	proto := vm.protos[cl.ProtoIndex]
	base := caller.top()
	vm.ensureRegs(base + proto.NumRegs)
	window := vm.regs[base : base+proto.NumRegs]
	for i := range window {
		window[i] = value.Undefined()
	}
	if len(window) > 0 {
		window[0] = this
	}
	n := min(len(args), proto.NumParams)
	copy(window[1:1+n], args[:n])
	if proto.HasRest {
		var rest []value.Value
		if len(args) > proto.NumParams {
			rest = append(rest, args[proto.NumParams:]...)
		}
		window[1+proto.NumParams] = vm.NewArray(rest)
	}
	vm.frames = append(vm.frames, &CallFrame{
		ProtoIndex: cl.ProtoIndex,
		Base:       base,
		ReturnReg:  retReg,
		Closure:    ref,
		proto:      proto,
		closure:    cl,
	})
	if vm.observer != nil && vm.observerCfg.ObserveCalls {
		if !vm.observer.OnCall(CallEvent{
			FunctionName: cl.Name,
			ArgCount:     len(args),
			Location:     caller.proto.LocationAt(caller.IP - 1),
			FrameDepth:   len(vm.frames),
		}) {
			return ErrHalted
		}
	}
	return nil
}

// returnFromFrame pops the current frame and delivers result to the
// caller. It reports true when the root frame returned.
func (vm *VM) returnFromFrame(result value.Value) (bool, error) {
	depth := len(vm.frames)
	frame := vm.frames[depth-1]
	vm.closeUpvalues(frame.Base)
	for n := len(vm.tries); n > 0 && vm.tries[n-1].frameDepth >= depth; n-- {
		vm.tries = vm.tries[:n-1]
	}
	if frame.construct && !vm.isObject(result) {
		result = frame.constructed
	}
	vm.frames = vm.frames[:depth-1]
	if vm.observer != nil && vm.observerCfg.ObserveReturns {
		if !vm.observer.OnReturn(ReturnEvent{
			FunctionName: frame.proto.Name,
			Location:     frame.proto.LocationAt(frame.IP - 1),
			FrameDepth:   len(vm.frames),
		}) {
			return false, ErrHalted
		}
	}
	if len(vm.frames) == 0 {
		vm.result = result
		return true, nil
	}
	vm.regs[frame.ReturnReg] = result
	return false, nil
}

// makeClosure instantiates the function constant k of frame's proto.
func (vm *VM) makeClosure(frame *CallFrame, k uint32) value.Value {
	proto := frame.proto.Constants[k].Function
	idx := vm.loadProto(proto)
	upvalues := make([]*heap.Upvalue, len(proto.Upvalues))
	for i, desc := range proto.Upvalues {
		if desc.FromParentLocal {
			upvalues[i] = vm.captureUpvalue(frame.Base + int(desc.Index))
		} else {
			upvalues[i] = frame.closure.Upvalues[desc.Index]
		}
	}
	return value.FromRef(vm.heap.Allocate(&heap.Closure{
		Name:       proto.Name,
		NumParams:  proto.NumParams,
		ProtoIndex: idx,
		Upvalues:   upvalues,
	}))
}

// captureUpvalue returns the open upvalue for the absolute register index,
// creating it if no closure has captured that register yet.
func (vm *VM) captureUpvalue(index int) *heap.Upvalue {
	for _, uv := range vm.openUpvalues {
		if uv.Index == index {
			return uv
		}
	}
	uv := &heap.Upvalue{Open: true, Index: index}
	vm.openUpvalues = append(vm.openUpvalues, uv)
	return uv
}

// closeUpvalues closes every open upvalue at or above the absolute
// register index from.
func (vm *VM) closeUpvalues(from int) {
	kept := vm.openUpvalues[:0]
	for _, uv := range vm.openUpvalues {
		if uv.Index >= from {
			uv.Closed = vm.regs[uv.Index]
			uv.Open = false
			continue
		}
		kept = append(kept, uv)
	}
	clear(vm.openUpvalues[len(kept):])
	vm.openUpvalues = kept
}

func displayName(name string) string {
	if name == "" {
		return "anonymous"
	}
	return name
}
