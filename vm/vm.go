// Package vm provides a virtual machine that executes compiled jsbox
// bytecode.
//
// The VM keeps one growable register array shared by all call frames. A
// frame owns the window vm.regs[Base : Base+NumRegs] and a callee's window
// starts right above its caller's. Values are NaN-boxed; strings, objects,
// arrays and functions live in the VM's heap and are reclaimed by a
// mark-sweep collector that runs between instructions.
package vm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/jsbox/bytecode"
	"github.com/deepnoodle-ai/jsbox/heap"
	"github.com/deepnoodle-ai/jsbox/op"
	"github.com/deepnoodle-ai/jsbox/value"
)

const (
	// DefaultContextCheckInterval is the number of instructions between
	// deterministic checks of ctx.Done(). Set to 0 to disable.
	DefaultContextCheckInterval = 1000

	// DefaultMaxFrameDepth is the default limit on nested calls.
	DefaultMaxFrameDepth = 1024

	// maxArrayGrowth bounds how far past its end an array may be extended
	// by a single index assignment.
	maxArrayGrowth = 1 << 24
)

// NativeFunc is a host function callable from scripts. Returning an error
// created by Throw raises a catchable exception; any other error ends
// execution.
type NativeFunc func(vm *VM, args []value.Value) (value.Value, error)

type native struct {
	name string
	fn   NativeFunc
}

// VM executes function protos. A VM runs one program at a time; globals,
// natives and the heap persist between Execute calls.
type VM struct {
	heap      *heap.Heap
	globals   heap.Ref
	globalObj *heap.Object

	protos     []*bytecode.FunctionProto
	protoIndex map[*bytecode.FunctionProto]int
	consts     [][]value.Value

	natives     []native
	nativeIndex map[string]int

	regs         []value.Value
	frames       []*CallFrame
	tries        []tryFrame
	openUpvalues []*heap.Upvalue
	result       value.Value
	steps        int64

	halt     int32
	running  bool
	runMutex sync.Mutex
	stopCh   chan struct{}

	contextCheckInterval int
	maxFrameDepth        int
	gcThreshold          int
	out                  io.Writer
	logger               zerolog.Logger

	observer    Observer
	observerCfg ObserverConfig
	lastLine    int
	lastProto   int
}

// New creates a VM with an empty global object.
func New(opts ...Option) *VM {
	vm := &VM{
		protoIndex:           map[*bytecode.FunctionProto]int{},
		nativeIndex:          map[string]int{},
		contextCheckInterval: DefaultContextCheckInterval,
		maxFrameDepth:        DefaultMaxFrameDepth,
		out:                  os.Stdout,
		logger:               zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(vm)
	}
	var heapOpts []heap.Option
	if vm.gcThreshold > 0 {
		heapOpts = append(heapOpts, heap.WithThreshold(vm.gcThreshold))
	}
	vm.heap = heap.New(heapOpts...)
	vm.globalObj = &heap.Object{Constructor: heap.NilRef}
	vm.globals = vm.heap.Allocate(vm.globalObj)
	return vm
}

// Heap returns the VM's heap.
func (vm *VM) Heap() *heap.Heap {
	return vm.heap
}

// Output returns the writer console output goes to.
func (vm *VM) Output() io.Writer {
	return vm.out
}

// Logger returns the VM's logger.
func (vm *VM) Logger() zerolog.Logger {
	return vm.logger
}

// Steps returns the number of instructions executed by the last run.
func (vm *VM) Steps() int64 {
	return vm.steps
}

// RegisterNative makes fn callable under name. Names without a dot are also
// bound as globals; dotted names such as "Math.floor" are only reachable
// through NativeRef.
func (vm *VM) RegisterNative(name string, fn NativeFunc) {
	if idx, ok := vm.nativeIndex[name]; ok {
		vm.natives[idx].fn = fn
	} else {
		vm.nativeIndex[name] = len(vm.natives)
		vm.natives = append(vm.natives, native{name: name, fn: fn})
	}
	if !strings.Contains(name, ".") {
		vm.SetGlobal(name, vm.NativeRef(name))
	}
}

// NativeRef returns a new function object that calls the registered native
// name, or undefined if there is no such native.
func (vm *VM) NativeRef(name string) value.Value {
	idx, ok := vm.nativeIndex[name]
	if !ok {
		return value.Undefined()
	}
	short := name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		short = name[i+1:]
	}
	return value.FromRef(vm.heap.Allocate(&heap.Function{
		Name:       short,
		ProtoIndex: -1,
		Native:     idx,
	}))
}

// SetGlobal sets a global variable.
func (vm *VM) SetGlobal(name string, v value.Value) {
	vm.globalObj.Props.Set(name, v)
}

// GetGlobalValue returns a global variable, or undefined if it is not set.
func (vm *VM) GetGlobalValue(name string) value.Value {
	if v, ok := vm.globalObj.Props.Get(name); ok {
		return v
	}
	return value.Undefined()
}

// GlobalNames returns the names of all globals in definition order.
func (vm *VM) GlobalNames() []string {
	return vm.globalObj.Props.Keys()
}

func (vm *VM) start(ctx context.Context) error {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	if vm.running {
		return fmt.Errorf("vm is already running")
	}
	vm.running = true
	atomic.StoreInt32(&vm.halt, 0)
	// Halt execution when the context is cancelled
	if doneChan := ctx.Done(); doneChan != nil {
		stopCh := make(chan struct{})
		vm.stopCh = stopCh
		go func() {
			select {
			case <-doneChan:
				atomic.StoreInt32(&vm.halt, 1)
			case <-stopCh:
			}
		}()
	}
	return nil
}

func (vm *VM) stop() {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	if vm.stopCh != nil {
		close(vm.stopCh)
		vm.stopCh = nil
	}
	vm.running = false
}

func (vm *VM) reset() {
	vm.regs = vm.regs[:0]
	vm.frames = vm.frames[:0]
	vm.tries = vm.tries[:0]
	vm.openUpvalues = vm.openUpvalues[:0]
	vm.result = value.Undefined()
	vm.steps = 0
	vm.lastLine = -1
	vm.lastProto = -1
	if vm.observer != nil {
		vm.observerCfg = vm.observer.Config().normalized()
	}
}

// Execute runs proto as a top-level program and returns the value it
// returns. An uncaught exception is reported as a *VmError.
func (vm *VM) Execute(ctx context.Context, proto *bytecode.FunctionProto) (result value.Value, err error) {
	if proto == nil {
		return value.Undefined(), errors.New("no function to execute")
	}
	if err := vm.start(ctx); err != nil {
		return value.Undefined(), err
	}
	runID := ""
	if id, idErr := uuid.NewV4(); idErr == nil {
		runID = id.String()
	}
	logger := vm.logger.With().Str("run_id", runID).Logger()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			result = value.Undefined()
		}
		vm.stop()
	}()

	vm.reset()
	idx := vm.loadProto(proto)
	vm.ensureRegs(proto.NumRegs)
	for i := range vm.regs {
		vm.regs[i] = value.Undefined()
	}
	vm.frames = append(vm.frames, &CallFrame{
		ProtoIndex: idx,
		ReturnReg:  -1,
		Closure:    heap.NilRef,
		proto:      proto,
	})
	logger.Debug().Str("function", proto.DisplayName()).Msg("execution started")

	result, err = vm.eval(ctx)
	if err != nil {
		var vmErr *VmError
		if errors.As(err, &vmErr) {
			logger.Error().Err(err).Int64("steps", vm.steps).Msg("execution failed")
		} else {
			logger.Debug().Err(err).Int64("steps", vm.steps).Msg("execution stopped")
		}
		return value.Undefined(), err
	}
	logger.Debug().
		Int64("steps", vm.steps).
		Int("live_objects", vm.heap.Live()).
		Msg("execution finished")
	return result, nil
}

// loadProto adds p to the table of live protos and materializes its
// constants.
func (vm *VM) loadProto(p *bytecode.FunctionProto) int {
	if idx, ok := vm.protoIndex[p]; ok {
		return idx
	}
	idx := len(vm.protos)
	vm.protos = append(vm.protos, p)
	vm.protoIndex[p] = idx
	consts := make([]value.Value, len(p.Constants))
	for i, k := range p.Constants {
		switch k.Kind {
		case bytecode.NumberConst:
			consts[i] = value.Number(k.Number)
		case bytecode.StringConst:
			consts[i] = vm.NewString(k.Str)
		case bytecode.NullConst:
			consts[i] = value.Null()
		case bytecode.TrueConst:
			consts[i] = value.Bool(true)
		case bytecode.FalseConst:
			consts[i] = value.Bool(false)
		default:
			consts[i] = value.Undefined()
		}
	}
	vm.consts = append(vm.consts, consts)
	return idx
}

func (vm *VM) ensureRegs(n int) {
	if n <= len(vm.regs) {
		return
	}
	if n <= cap(vm.regs) {
		vm.regs = vm.regs[:n]
		return
	}
	grown := make([]value.Value, n, max(n, 2*cap(vm.regs)))
	copy(grown, vm.regs)
	vm.regs = grown
}

// collect runs the garbage collector. Roots are the live registers, the
// global object, the closures and constructed objects of live frames and
// the constants of every loaded proto.
func (vm *VM) collect() {
	roots := []value.Value{value.FromRef(vm.globals)}
	if n := len(vm.frames); n > 0 {
		top := min(vm.frames[n-1].top(), len(vm.regs))
		roots = append(roots, vm.regs[:top]...)
	}
	for _, f := range vm.frames {
		if f.Closure != heap.NilRef {
			roots = append(roots, value.FromRef(f.Closure))
		}
		if f.construct {
			roots = append(roots, f.constructed)
		}
	}
	for _, consts := range vm.consts {
		roots = append(roots, consts...)
	}
	roots = append(roots, vm.result)
	stats := vm.heap.Collect(roots)
	vm.logger.Debug().
		Int("freed", stats.Freed).
		Int("live", stats.Live).
		Int("bytes_before", stats.BytesBefore).
		Int("bytes_after", stats.BytesAfter).
		Msg("garbage collection")
}

// eval runs the frame stack until the root frame returns.
func (vm *VM) eval(ctx context.Context) (value.Value, error) {
	var instructionCount int
	checkInterval := vm.contextCheckInterval
	doneChan := ctx.Done()

	for {
		if atomic.LoadInt32(&vm.halt) == 1 {
			return value.Undefined(), ctx.Err()
		}

		// Deterministic check of ctx.Done() every N instructions.
		if checkInterval > 0 && doneChan != nil {
			instructionCount++
			if instructionCount >= checkInterval {
				instructionCount = 0
				select {
				case <-doneChan:
					atomic.StoreInt32(&vm.halt, 1)
					return value.Undefined(), ctx.Err()
				default:
				}
			}
		}

		frame := vm.frames[len(vm.frames)-1]
		if frame.IP >= len(frame.proto.Code) {
			// Running off the end returns undefined.
			finished, err := vm.returnFromFrame(value.Undefined())
			if err != nil {
				return value.Undefined(), err
			}
			if finished {
				return vm.result, nil
			}
			continue
		}
		instr := frame.proto.Code[frame.IP]
		if vm.observer != nil && !vm.observeStep(frame, instr) {
			return value.Undefined(), ErrHalted
		}
		frame.IP++
		vm.steps++
		if vm.heap.ShouldCollect() {
			vm.collect()
		}

		finished, err := vm.exec(frame, instr)
		if err != nil {
			return value.Undefined(), err
		}
		if finished {
			return vm.result, nil
		}
	}
}

func (vm *VM) observeStep(frame *CallFrame, instr bytecode.Instruction) bool {
	cfg := vm.observerCfg
	switch cfg.StepMode {
	case StepNone:
		return true
	case StepSampled:
		if vm.steps%int64(cfg.SampleInterval) != 0 {
			return true
		}
	case StepOnLine:
		loc := frame.proto.LocationAt(frame.IP)
		if loc.Line == vm.lastLine && frame.ProtoIndex == vm.lastProto {
			return true
		}
		vm.lastLine = loc.Line
		vm.lastProto = frame.ProtoIndex
	}
	return vm.observer.OnStep(StepEvent{
		IP:         frame.IP,
		Opcode:     instr.Op,
		OpcodeName: instr.Op.String(),
		Function:   frame.proto.DisplayName(),
		Location:   frame.proto.LocationAt(frame.IP),
		FrameDepth: len(vm.frames),
	})
}

// exec executes one instruction of frame. It reports true once the root
// frame has returned.
func (vm *VM) exec(frame *CallFrame, instr bytecode.Instruction) (bool, error) {
	base := frame.Base
	a := base + int(instr.A)
	b := base + int(instr.B)
	c := base + int(instr.C)
	regs := vm.regs

	switch instr.Op {
	case op.Nop:
	case op.LoadConst:
		regs[a] = vm.consts[frame.ProtoIndex][instr.K]
	case op.LoadUndef:
		regs[a] = value.Undefined()
	case op.LoadTrue:
		regs[a] = value.Bool(true)
	case op.Move:
		regs[a] = regs[b]
	case op.GetGlobal:
		regs[a] = vm.GetGlobalValue(frame.proto.Constants[instr.K].Str)
	case op.SetGlobal:
		vm.SetGlobal(frame.proto.Constants[instr.K].Str, regs[a])
	case op.GetUpvalue:
		uv := frame.closure.Upvalues[instr.B]
		if uv.Open {
			regs[a] = regs[uv.Index]
		} else {
			regs[a] = uv.Closed
		}
	case op.SetUpvalue:
		uv := frame.closure.Upvalues[instr.B]
		if uv.Open {
			regs[uv.Index] = regs[a]
		} else {
			uv.Closed = regs[a]
		}
	case op.CloseUpvalues:
		vm.closeUpvalues(a)

	case op.Add, op.Sub, op.Mul, op.Div, op.Mod, op.Exp,
		op.BitAnd, op.BitOr, op.BitXor, op.Shl, op.Shr, op.UShr,
		op.Lt, op.LtEq, op.Gt, op.GtEq,
		op.EqStrict, op.NeqStrict, op.EqAbstract, op.NeqAbstract,
		op.In, op.InstanceOf:
		result, err := vm.binaryOp(instr.Op, regs[b], regs[c])
		if err != nil {
			return vm.raise(err)
		}
		regs[a] = result
	case op.Neg:
		regs[a] = value.Number(-vm.ToNumber(regs[b]))
	case op.Not:
		regs[a] = value.Bool(!vm.Truthy(regs[b]))
	case op.BitNot:
		regs[a] = value.Number(float64(^value.ToInt32(vm.ToNumber(regs[b]))))
	case op.ToNumber:
		regs[a] = value.Number(vm.ToNumber(regs[b]))
	case op.Typeof:
		regs[a] = vm.NewString(vm.TypeOf(regs[b]))

	case op.Jump:
		frame.IP = int(instr.K)
	case op.JumpIfTrue:
		if vm.Truthy(regs[a]) {
			frame.IP = int(instr.K)
		}
	case op.JumpIfFalse:
		if !vm.Truthy(regs[a]) {
			frame.IP = int(instr.K)
		}
	case op.JumpIfNullish:
		if regs[a].IsNullish() {
			frame.IP = int(instr.K)
		}
	case op.JumpIfNotNullish:
		if !regs[a].IsNullish() {
			frame.IP = int(instr.K)
		}

	case op.GetProp:
		v, err := vm.GetProperty(regs[b], frame.proto.Constants[instr.K].Str)
		if err != nil {
			return vm.raise(err)
		}
		regs[a] = v
	case op.SetProp:
		if err := vm.SetProperty(regs[a], frame.proto.Constants[instr.K].Str, regs[b]); err != nil {
			return vm.raise(err)
		}
	case op.GetElem:
		v, err := vm.getElem(regs[b], regs[c])
		if err != nil {
			return vm.raise(err)
		}
		regs[a] = v
	case op.SetElem:
		if err := vm.setElem(regs[a], regs[b], regs[c]); err != nil {
			return vm.raise(err)
		}
	case op.DeleteProp:
		ok, err := vm.deleteProperty(regs[b], frame.proto.Constants[instr.K].Str)
		if err != nil {
			return vm.raise(err)
		}
		regs[a] = value.Bool(ok)
	case op.DeleteElem:
		ok, err := vm.deleteProperty(regs[b], vm.propertyKey(regs[c]))
		if err != nil {
			return vm.raise(err)
		}
		regs[a] = value.Bool(ok)

	case op.CreateObject:
		regs[a] = vm.NewObject()
	case op.CreateArray:
		regs[a] = vm.NewArray(make([]value.Value, 0, instr.B))
	case op.AppendElem:
		if arr, ok := vm.array(regs[a]); ok {
			arr.Elements = append(arr.Elements, regs[b])
		}
	case op.ExtendArray:
		if err := vm.extendArray(regs[a], regs[b]); err != nil {
			return vm.raise(err)
		}
	case op.CopyProps:
		vm.copyProps(regs[a], regs[b])
	case op.CreateClosure:
		regs[a] = vm.makeClosure(frame, instr.K)

	case op.Call:
		args := vm.copyArgs(base+int(instr.D), int(instr.C))
		if err := vm.callValue(regs[b], value.Undefined(), args, a, frame); err != nil {
			return vm.raise(err)
		}
	case op.CallMethod:
		args := vm.copyArgs(base+int(instr.D), int(instr.C))
		name := frame.proto.Constants[instr.K].Str
		if err := vm.callMethod(regs[b], name, args, a, frame); err != nil {
			return vm.raise(err)
		}
	case op.CallSpread:
		var args []value.Value
		if arr, ok := vm.array(regs[c]); ok {
			args = append(args, arr.Elements...)
		}
		this := regs[base+int(instr.D)]
		if err := vm.callValue(regs[b], this, args, a, frame); err != nil {
			return vm.raise(err)
		}
	case op.New:
		args := vm.copyArgs(base+int(instr.D), int(instr.C))
		if err := vm.construct(regs[b], args, a, frame); err != nil {
			return vm.raise(err)
		}
	case op.Return:
		return vm.returnFromFrame(regs[a])

	case op.Throw:
		return false, vm.throw(regs[a])
	case op.PushTry:
		vm.tries = append(vm.tries, tryFrame{
			catchIP:    int(instr.K),
			frameDepth: len(vm.frames),
			reg:        a,
		})
	case op.PopTry:
		if n := len(vm.tries); n > 0 {
			vm.tries = vm.tries[:n-1]
		}

	case op.Keys:
		regs[a] = vm.Keys(regs[b])
	case op.Length:
		regs[a] = value.Number(float64(vm.length(regs[b])))

	default:
		return false, vm.fatal(fmt.Sprintf("unknown opcode %d", instr.Op))
	}
	return false, nil
}

func (vm *VM) copyArgs(start, n int) []value.Value {
	if n == 0 {
		return nil
	}
	args := make([]value.Value, n)
	copy(args, vm.regs[start:start+n])
	return args
}

// raise turns an error from an instruction into a script exception when it
// carries a thrown value.
func (vm *VM) raise(err error) (bool, error) {
	var exc *Exception
	if errors.As(err, &exc) {
		return false, vm.throw(exc.Value)
	}
	return false, err
}

// fatal returns a VmError located at the current instruction.
func (vm *VM) fatal(msg string) *VmError {
	err := &VmError{Message: msg, Value: value.Undefined()}
	if n := len(vm.frames); n > 0 {
		f := vm.frames[n-1]
		err.Function = f.proto.DisplayName()
		err.Location = f.proto.LocationAt(max(f.IP-1, 0))
	}
	return err
}

// throw transfers control to the innermost try handler, unwinding frames
// above it. Without a handler the exception is fatal.
func (vm *VM) throw(v value.Value) error {
	n := len(vm.tries)
	if n == 0 {
		err := vm.fatal("uncaught exception: " + vm.describeException(v))
		err.Value = v
		return err
	}
	t := vm.tries[n-1]
	vm.tries = vm.tries[:n-1]
	for len(vm.frames) > t.frameDepth {
		f := vm.frames[len(vm.frames)-1]
		vm.closeUpvalues(f.Base)
		vm.frames = vm.frames[:len(vm.frames)-1]
	}
	vm.regs[t.reg] = v
	vm.frames[len(vm.frames)-1].IP = t.catchIP
	return nil
}

// ThrowError returns an error that throws a new error object with the given
// name and message, for use by natives.
func (vm *VM) ThrowError(name, message string) error {
	return Throw(vm.NewError(name, message))
}

func (vm *VM) typeError(format string, args ...any) error {
	return vm.ThrowError("TypeError", fmt.Sprintf(format, args...))
}
