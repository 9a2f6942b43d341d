// Package dis renders compiled function prototypes as readable tables.
package dis

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/deepnoodle-ai/jsbox/bytecode"
	"github.com/deepnoodle-ai/jsbox/internal/table"
	"github.com/deepnoodle-ai/jsbox/op"
)

// Instruction is one decoded instruction ready for display.
type Instruction struct {
	Offset   int
	Opcode   op.Code
	Name     string
	Operands []string
	Info     string
	Line     int
}

// Disassemble decodes the instructions of a single function. Nested
// functions are not expanded; see Fprint.
func Disassemble(proto *bytecode.FunctionProto) ([]Instruction, error) {
	if proto == nil {
		return nil, fmt.Errorf("disassemble: nil function")
	}
	result := make([]Instruction, 0, len(proto.Code))
	for offset, instr := range proto.Code {
		info := op.GetInfo(instr.Op)
		if info.Name == "" {
			return nil, fmt.Errorf("disassemble %s: unknown opcode %d at offset %d",
				proto.DisplayName(), instr.Op, offset)
		}
		// The first field of the compact form is the opcode name.
		fields := strings.Fields(instr.String())
		d := Instruction{
			Offset:   offset,
			Opcode:   instr.Op,
			Name:     info.Name,
			Operands: fields[1:],
			Line:     proto.LocationAt(offset).Line,
		}
		if info.K == op.Const {
			if int(instr.K) >= len(proto.Constants) {
				return nil, fmt.Errorf("disassemble %s: constant %d out of range at offset %d",
					proto.DisplayName(), instr.K, offset)
			}
			d.Info = constantInfo(instr.Op, proto.Constants[instr.K])
		}
		result = append(result, d)
	}
	return result, nil
}

// constantInfo shows names unquoted where the constant is an identifier.
func constantInfo(code op.Code, c bytecode.Constant) string {
	switch code {
	case op.GetGlobal, op.SetGlobal, op.GetProp, op.SetProp, op.DeleteProp, op.CallMethod:
		if c.Kind == bytecode.StringConst {
			return c.Str
		}
	}
	return c.String()
}

// Print writes instructions as a table to w.
func Print(instructions []Instruction, w io.Writer) error {
	return render(instructions, w, nil)
}

func render(instructions []Instruction, w io.Writer, opcodeColor *color.Color) error {
	t := table.NewTable(w)
	t.WithHeader([]string{"OFFSET", "OPCODE", "OPERANDS", "INFO"})
	t.WithColumnAlignment([]table.Alignment{
		table.AlignRight,
		table.AlignLeft,
		table.AlignLeft,
		table.AlignLeft,
	})
	for _, instr := range instructions {
		name := instr.Name
		if opcodeColor != nil {
			name = opcodeColor.Sprint(name)
		}
		t.Append([]string{
			strconv.Itoa(instr.Offset),
			name,
			strings.Join(instr.Operands, " "),
			instr.Info,
		})
	}
	return t.Render()
}

// Fprint disassembles proto and every function nested in it, writing one
// titled table per function.
func Fprint(w io.Writer, proto *bytecode.FunctionProto, colorize bool) error {
	var titleColor, opcodeColor *color.Color
	if colorize {
		titleColor = color.New(color.FgYellow, color.Bold)
		titleColor.EnableColor()
		opcodeColor = color.New(color.FgCyan)
		opcodeColor.EnableColor()
	}
	var err error
	first := true
	proto.Walk(func(fn *bytecode.FunctionProto) bool {
		var instructions []Instruction
		if instructions, err = Disassemble(fn); err != nil {
			return false
		}
		if !first {
			if _, err = io.WriteString(w, "\n"); err != nil {
				return false
			}
		}
		first = false
		title := fmt.Sprintf("function %s (params: %d, registers: %d, constants: %d)",
			fn.DisplayName(), fn.NumParams, fn.NumRegs, len(fn.Constants))
		if titleColor != nil {
			title = titleColor.Sprint(title)
		}
		if _, err = fmt.Fprintln(w, title); err != nil {
			return false
		}
		err = render(instructions, w, opcodeColor)
		return err == nil
	})
	return err
}
