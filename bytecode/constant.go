package bytecode

import (
	"fmt"
	"math"
	"strconv"
)

// ConstantKind identifies the type of a constant pool entry.
type ConstantKind uint8

const (
	NumberConst ConstantKind = iota
	StringConst
	FunctionConst
	NullConst
	TrueConst
	FalseConst
)

func (k ConstantKind) String() string {
	switch k {
	case NumberConst:
		return "number"
	case StringConst:
		return "string"
	case FunctionConst:
		return "function"
	case NullConst:
		return "null"
	case TrueConst:
		return "true"
	case FalseConst:
		return "false"
	default:
		return fmt.Sprintf("ConstantKind(%d)", uint8(k))
	}
}

// Constant is an entry in a function's constant pool. Undefined has no
// constant form; it is loaded with LoadUndef.
type Constant struct {
	Kind     ConstantKind
	Number   float64
	Str      string
	Function *FunctionProto
}

// Number returns a number constant.
func Number(v float64) Constant {
	return Constant{Kind: NumberConst, Number: v}
}

// String returns a string constant.
func String(s string) Constant {
	return Constant{Kind: StringConst, Str: s}
}

// Function returns a constant holding a nested function prototype.
func Function(fn *FunctionProto) Constant {
	return Constant{Kind: FunctionConst, Function: fn}
}

// Null returns the null constant.
func Null() Constant { return Constant{Kind: NullConst} }

// Bool returns the true or false constant.
func Bool(b bool) Constant {
	if b {
		return Constant{Kind: TrueConst}
	}
	return Constant{Kind: FalseConst}
}

// Equal reports whether two constants are interchangeable in a pool. Numbers
// compare by their IEEE-754 bits, so 0 and -0 are different constants.
// Function constants are equal only if they share the same proto.
func (c Constant) Equal(other Constant) bool {
	if c.Kind != other.Kind {
		return false
	}
	switch c.Kind {
	case NumberConst:
		return math.Float64bits(c.Number) == math.Float64bits(other.Number)
	case StringConst:
		return c.Str == other.Str
	case FunctionConst:
		return c.Function == other.Function
	default:
		return true
	}
}

// String returns a readable form of the constant for disassembly.
func (c Constant) String() string {
	switch c.Kind {
	case NumberConst:
		return strconv.FormatFloat(c.Number, 'g', -1, 64)
	case StringConst:
		return strconv.Quote(c.Str)
	case FunctionConst:
		if c.Function == nil {
			return "<function>"
		}
		return fmt.Sprintf("<function %s>", c.Function.DisplayName())
	default:
		return c.Kind.String()
	}
}
