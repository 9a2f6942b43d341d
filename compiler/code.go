package compiler

import (
	"fmt"

	"fortio.org/safecast"

	"github.com/deepnoodle-ai/jsbox/ast"
	"github.com/deepnoodle-ai/jsbox/bytecode"
)

// loop is a break/continue target: a loop, a switch or a labeled
// statement.
type loop struct {
	labels      []string
	isLoop      bool // accepts continue
	isSwitch    bool // accepts an unlabeled break
	base        uint16
	tries       int // len(Code.tries) when the loop was entered
	breakPos    []int
	continuePos []int
}

func (l *loop) hasLabel(label string) bool {
	for _, name := range l.labels {
		if name == label {
			return true
		}
	}
	return false
}

// tryRegion is an enclosing try statement. While protected is set the
// region's handler is installed at run time and must be popped by any jump
// that leaves it.
type tryRegion struct {
	finalizer *ast.Block
	protected bool
}

// Code holds the state of the function currently being compiled.
type Code struct {
	parent *Code
	name   string

	instructions []bytecode.Instruction
	locations    []bytecode.SourceLocation
	constants    []bytecode.Constant
	upvalues     []bytecode.UpvalueDesc

	symbols *SymbolTable

	// top is the register stack height; maxRegs is its high-water mark.
	top     int
	maxRegs int

	// captured lists registers that nested functions captured by reference.
	captured []uint16

	numParams int
	hasRest   bool
	isArrow   bool

	loops []*loop
	tries []*tryRegion
}

func newCode(parent *Code, name string) *Code {
	return &Code{
		parent:  parent,
		name:    name,
		symbols: NewSymbolTable(),
	}
}

// alloc pushes a register onto the register stack.
func (c *Compiler) alloc() uint16 {
	code := c.current
	reg, err := safecast.Conv[uint16](code.top)
	if err != nil {
		c.fail(fmt.Sprintf("function %s needs more than 65535 registers", code.displayName()), c.pos)
		return 0
	}
	code.top++
	if code.top > code.maxRegs {
		code.maxRegs = code.top
	}
	return reg
}

// free pops reg, which must be the top of the register stack.
func (c *Compiler) free(reg uint16) {
	code := c.current
	if c.failure != nil {
		return
	}
	if int(reg) != code.top-1 {
		panic(fmt.Sprintf("compiler: freeing r%d but the register stack top is r%d", reg, code.top-1))
	}
	code.top--
}

// truncate pops registers until the stack height is base.
func (c *Compiler) truncate(base uint16) {
	c.current.top = int(base)
}

func (c *Compiler) height() uint16 {
	return uint16(c.current.top)
}

func (code *Code) displayName() string {
	if code.name == "" {
		return "<anonymous>"
	}
	return code.name
}

func (code *Code) markCaptured(reg uint16) {
	for _, r := range code.captured {
		if r == reg {
			return
		}
	}
	code.captured = append(code.captured, reg)
}

// needsClose reports whether any register at or above base was captured.
func (code *Code) needsClose(base uint16) bool {
	for _, r := range code.captured {
		if r >= base {
			return true
		}
	}
	return false
}

func (code *Code) addUpvalue(fromParentLocal bool, index uint16, name string) uint16 {
	for i, uv := range code.upvalues {
		if uv.FromParentLocal == fromParentLocal && uv.Index == index {
			return uint16(i)
		}
	}
	code.upvalues = append(code.upvalues, bytecode.UpvalueDesc{
		FromParentLocal: fromParentLocal,
		Index:           index,
		Name:            name,
	})
	return uint16(len(code.upvalues) - 1)
}

func (code *Code) proto(filename string) *bytecode.FunctionProto {
	numRegs := max(code.maxRegs, 1+code.numParams)
	if code.hasRest {
		numRegs = max(numRegs, 2+code.numParams)
	}
	return &bytecode.FunctionProto{
		Name:      code.name,
		Code:      code.instructions,
		Constants: code.constants,
		NumRegs:   numRegs,
		NumParams: code.numParams,
		HasRest:   code.hasRest,
		IsArrow:   code.isArrow,
		Upvalues:  code.upvalues,
		Locations: code.locations,
		Filename:  filename,
	}
}
