package bytecode

import (
	"fmt"

	"github.com/deepnoodle-ai/jsbox/op"
)

// ValidationError describes a malformed instruction or proto.
type ValidationError struct {
	Function string
	IP       int // -1 when the problem is not tied to one instruction
	Message  string
}

func (e *ValidationError) Error() string {
	if e.IP < 0 {
		return fmt.Sprintf("invalid bytecode in %s: %s", e.Function, e.Message)
	}
	return fmt.Sprintf("invalid bytecode in %s at %d: %s", e.Function, e.IP, e.Message)
}

// Validate checks that f and all nested protos are well formed: opcodes are
// known, register operands fall inside the register window, constant and
// upvalue indices are in range and every jump target is patched and lands
// inside the function.
func (f *FunctionProto) Validate() error {
	return f.validate(nil)
}

func (f *FunctionProto) validate(parent *FunctionProto) error {
	fail := func(ip int, format string, args ...any) error {
		return &ValidationError{
			Function: f.DisplayName(),
			IP:       ip,
			Message:  fmt.Sprintf(format, args...),
		}
	}
	if f.NumRegs > 1<<16 {
		return fail(-1, "register count %d exceeds the 16-bit operand range", f.NumRegs)
	}
	params := 1 + f.NumParams
	if f.HasRest {
		params++
	}
	if f.NumRegs < params {
		return fail(-1, "%d registers cannot hold this and %d parameters", f.NumRegs, params-1)
	}
	if len(f.Locations) != 0 && len(f.Locations) != len(f.Code) {
		return fail(-1, "%d locations for %d instructions", len(f.Locations), len(f.Code))
	}
	for i, uv := range f.Upvalues {
		if parent == nil {
			return fail(-1, "top-level function captures upvalue %d", i)
		}
		if uv.FromParentLocal && int(uv.Index) >= parent.NumRegs {
			return fail(-1, "upvalue %d refers to parent register r%d of %d", i, uv.Index, parent.NumRegs)
		}
		if !uv.FromParentLocal && int(uv.Index) >= len(parent.Upvalues) {
			return fail(-1, "upvalue %d refers to parent upvalue u%d of %d", i, uv.Index, len(parent.Upvalues))
		}
	}

	for ip, instr := range f.Code {
		info := op.GetInfo(instr.Op)
		if info.Name == "" {
			return fail(ip, "unknown opcode %d", instr.Op)
		}
		operands := []struct {
			name string
			kind op.OperandKind
			v    uint16
		}{{"A", info.A, instr.A}, {"B", info.B, instr.B}, {"C", info.C, instr.C}, {"D", info.D, instr.D}}
		for _, o := range operands {
			switch o.kind {
			case op.Reg:
				if int(o.v) >= f.NumRegs {
					return fail(ip, "%s: operand %s register r%d out of range (%d registers)",
						instr.Op, o.name, o.v, f.NumRegs)
				}
			case op.Span:
				if instr.C > 0 && int(o.v)+int(instr.C) > f.NumRegs {
					return fail(ip, "%s: argument registers r%d..r%d out of range (%d registers)",
						instr.Op, o.v, int(o.v)+int(instr.C)-1, f.NumRegs)
				}
			case op.Upvalue:
				if int(o.v) >= len(f.Upvalues) {
					return fail(ip, "%s: upvalue u%d out of range (%d upvalues)", instr.Op, o.v, len(f.Upvalues))
				}
			}
		}
		switch info.K {
		case op.Const:
			if int64(instr.K) >= int64(len(f.Constants)) {
				return fail(ip, "%s: constant k%d out of range (%d constants)", instr.Op, instr.K, len(f.Constants))
			}
			kind := f.Constants[instr.K].Kind
			switch instr.Op {
			case op.CreateClosure:
				if kind != FunctionConst || f.Constants[instr.K].Function == nil {
					return fail(ip, "%s: constant k%d is a %s, not a function", instr.Op, instr.K, kind)
				}
			case op.GetGlobal, op.SetGlobal, op.GetProp, op.SetProp, op.DeleteProp, op.CallMethod:
				if kind != StringConst {
					return fail(ip, "%s: constant k%d is a %s, not a name", instr.Op, instr.K, kind)
				}
			}
		case op.Target:
			if instr.K == NoTarget {
				return fail(ip, "%s: unpatched jump target", instr.Op)
			}
			if int64(instr.K) > int64(len(f.Code)) {
				return fail(ip, "%s: jump target %d out of range (%d instructions)", instr.Op, instr.K, len(f.Code))
			}
		}
	}

	for _, child := range f.Children() {
		if err := child.validate(f); err != nil {
			return err
		}
	}
	return nil
}
