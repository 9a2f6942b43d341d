package bytecode

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/jsbox/op"
)

// NoTarget is the placeholder jump target emitted before a jump is patched.
// It never appears in a validated proto.
const NoTarget uint32 = 0xFFFFFFFF

// Instruction is a single register machine instruction. Which operands are
// meaningful depends on the opcode; see op.GetInfo.
type Instruction struct {
	Op op.Code
	A  uint16
	B  uint16
	C  uint16
	D  uint16
	K  uint32
}

// String returns the instruction in a compact form, e.g. "ADD r2 r0 r1".
func (i Instruction) String() string {
	info := op.GetInfo(i.Op)
	var sb strings.Builder
	sb.WriteString(i.Op.String())
	operand := func(kind op.OperandKind, v uint32) {
		switch kind {
		case op.Reg, op.Span:
			fmt.Fprintf(&sb, " r%d", v)
		case op.Count:
			fmt.Fprintf(&sb, " %d", v)
		case op.Upvalue:
			fmt.Fprintf(&sb, " u%d", v)
		case op.Const:
			fmt.Fprintf(&sb, " k%d", v)
		case op.Target:
			if v == NoTarget {
				sb.WriteString(" @?")
			} else {
				fmt.Fprintf(&sb, " @%d", v)
			}
		}
	}
	operand(info.A, uint32(i.A))
	operand(info.B, uint32(i.B))
	operand(info.C, uint32(i.C))
	operand(info.D, uint32(i.D))
	operand(info.K, i.K)
	return sb.String()
}
