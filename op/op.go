// Package op defines opcodes used by the jsbox compiler and virtual machine.
package op

// Code is an integer opcode that indicates an operation to execute.
type Code uint8

const (
	Invalid Code = 0
	Nop     Code = 1

	// Load
	LoadConst Code = 10 // A = K[Kx]
	LoadUndef Code = 11 // A = undefined
	LoadTrue  Code = 12 // A = true
	Move      Code = 13 // A = B

	// Variables
	GetGlobal     Code = 20 // A = globals[K]
	SetGlobal     Code = 21 // globals[K] = A
	GetUpvalue    Code = 22 // A = upvalues[B]
	SetUpvalue    Code = 23 // upvalues[B] = A
	CloseUpvalues Code = 24 // close open upvalues at or above A

	// Binary operations: A = B op C
	Add         Code = 30
	Sub         Code = 31
	Mul         Code = 32
	Div         Code = 33
	Mod         Code = 34
	Exp         Code = 35
	BitAnd      Code = 36
	BitOr       Code = 37
	BitXor      Code = 38
	Shl         Code = 39
	Shr         Code = 40
	UShr        Code = 41
	Lt          Code = 42
	LtEq        Code = 43
	Gt          Code = 44
	GtEq        Code = 45
	EqStrict    Code = 46
	NeqStrict   Code = 47
	EqAbstract  Code = 48
	NeqAbstract Code = 49
	In          Code = 50
	InstanceOf  Code = 51

	// Unary operations: A = op B
	Neg      Code = 60
	Not      Code = 61
	BitNot   Code = 62
	ToNumber Code = 63
	Typeof   Code = 64

	// Jump
	Jump             Code = 70 // ip = K
	JumpIfTrue       Code = 71 // if A is truthy, ip = K
	JumpIfFalse      Code = 72 // if A is falsy, ip = K
	JumpIfNullish    Code = 73 // if A is null or undefined, ip = K
	JumpIfNotNullish Code = 74 // if A is neither, ip = K

	// Properties
	GetProp    Code = 80 // A = B[K]
	SetProp    Code = 81 // A[K] = B
	GetElem    Code = 82 // A = B[C]
	SetElem    Code = 83 // A[B] = C
	DeleteProp Code = 84 // A = delete B[K]
	DeleteElem Code = 85 // A = delete B[C]

	// Build
	CreateObject  Code = 90 // A = {}
	CreateArray   Code = 91 // A = [] with capacity B
	AppendElem    Code = 92 // A.push(B)
	ExtendArray   Code = 93 // A.push(...B)
	CopyProps     Code = 94 // copy the own properties of B onto A
	CreateClosure Code = 95 // A = closure over the function constant K

	// Calls
	Call       Code = 100 // A = B(D .. D+C-1)
	CallMethod Code = 101 // A = B[K](D .. D+C-1) with this = B
	CallSpread Code = 102 // A = B(...C) with this = D
	New        Code = 103 // A = new B(D .. D+C-1)
	Return     Code = 104 // return A

	// Exception handling
	Throw   Code = 110 // throw A
	PushTry Code = 111 // on throw, A = exception and ip = K
	PopTry  Code = 112 // discard the innermost try handler

	// Iteration
	Keys   Code = 120 // A = array of the enumerable keys of B
	Length Code = 121 // A = length of B
)

// OperandKind describes how an instruction operand is interpreted.
type OperandKind uint8

const (
	// Unused operands are ignored and should be zero.
	Unused OperandKind = iota
	// Reg is a register index relative to the frame base.
	Reg
	// Count is an unsigned count, such as an argument count.
	Count
	// Span is the first register of a run whose length is operand C.
	Span
	// Upvalue is an index into the closure's upvalues.
	Upvalue
	// Const is an index into the constant pool.
	Const
	// Target is an instruction index used as a jump target.
	Target
)

// Info contains information about an opcode.
type Info struct {
	Code Code
	Name string
	A    OperandKind
	B    OperandKind
	C    OperandKind
	D    OperandKind
	K    OperandKind
}

// IsJump returns true if the instruction's K operand is a jump target.
func (i Info) IsJump() bool {
	return i.K == Target
}

var infos = make([]Info, 256)

func init() {
	type opInfo struct {
		op         Code
		name       string
		a, b, c, d OperandKind
		k          OperandKind
	}
	binary := func(op Code, name string) opInfo {
		return opInfo{op, name, Reg, Reg, Reg, Unused, Unused}
	}
	unary := func(op Code, name string) opInfo {
		return opInfo{op, name, Reg, Reg, Unused, Unused, Unused}
	}
	ops := []opInfo{
		{Nop, "NOP", Unused, Unused, Unused, Unused, Unused},
		{LoadConst, "LOAD_CONST", Reg, Unused, Unused, Unused, Const},
		{LoadUndef, "LOAD_UNDEF", Reg, Unused, Unused, Unused, Unused},
		{LoadTrue, "LOAD_TRUE", Reg, Unused, Unused, Unused, Unused},
		unary(Move, "MOVE"),
		{GetGlobal, "GET_GLOBAL", Reg, Unused, Unused, Unused, Const},
		{SetGlobal, "SET_GLOBAL", Reg, Unused, Unused, Unused, Const},
		{GetUpvalue, "GET_UPVALUE", Reg, Upvalue, Unused, Unused, Unused},
		{SetUpvalue, "SET_UPVALUE", Reg, Upvalue, Unused, Unused, Unused},
		{CloseUpvalues, "CLOSE_UPVALUES", Count, Unused, Unused, Unused, Unused},
		binary(Add, "ADD"),
		binary(Sub, "SUB"),
		binary(Mul, "MUL"),
		binary(Div, "DIV"),
		binary(Mod, "MOD"),
		binary(Exp, "EXP"),
		binary(BitAnd, "BIT_AND"),
		binary(BitOr, "BIT_OR"),
		binary(BitXor, "BIT_XOR"),
		binary(Shl, "SHL"),
		binary(Shr, "SHR"),
		binary(UShr, "USHR"),
		binary(Lt, "LT"),
		binary(LtEq, "LT_EQ"),
		binary(Gt, "GT"),
		binary(GtEq, "GT_EQ"),
		binary(EqStrict, "EQ_STRICT"),
		binary(NeqStrict, "NEQ_STRICT"),
		binary(EqAbstract, "EQ_ABSTRACT"),
		binary(NeqAbstract, "NEQ_ABSTRACT"),
		binary(In, "IN"),
		binary(InstanceOf, "INSTANCE_OF"),
		unary(Neg, "NEG"),
		unary(Not, "NOT"),
		unary(BitNot, "BIT_NOT"),
		unary(ToNumber, "TO_NUMBER"),
		unary(Typeof, "TYPEOF"),
		{Jump, "JUMP", Unused, Unused, Unused, Unused, Target},
		{JumpIfTrue, "JUMP_IF_TRUE", Reg, Unused, Unused, Unused, Target},
		{JumpIfFalse, "JUMP_IF_FALSE", Reg, Unused, Unused, Unused, Target},
		{JumpIfNullish, "JUMP_IF_NULLISH", Reg, Unused, Unused, Unused, Target},
		{JumpIfNotNullish, "JUMP_IF_NOT_NULLISH", Reg, Unused, Unused, Unused, Target},
		{GetProp, "GET_PROP", Reg, Reg, Unused, Unused, Const},
		{SetProp, "SET_PROP", Reg, Reg, Unused, Unused, Const},
		binary(GetElem, "GET_ELEM"),
		binary(SetElem, "SET_ELEM"),
		{DeleteProp, "DELETE_PROP", Reg, Reg, Unused, Unused, Const},
		binary(DeleteElem, "DELETE_ELEM"),
		{CreateObject, "CREATE_OBJECT", Reg, Unused, Unused, Unused, Unused},
		{CreateArray, "CREATE_ARRAY", Reg, Count, Unused, Unused, Unused},
		unary(AppendElem, "APPEND_ELEM"),
		unary(ExtendArray, "EXTEND_ARRAY"),
		unary(CopyProps, "COPY_PROPS"),
		{CreateClosure, "CREATE_CLOSURE", Reg, Unused, Unused, Unused, Const},
		{Call, "CALL", Reg, Reg, Count, Span, Unused},
		{CallMethod, "CALL_METHOD", Reg, Reg, Count, Span, Const},
		{CallSpread, "CALL_SPREAD", Reg, Reg, Reg, Reg, Unused},
		{New, "NEW", Reg, Reg, Count, Span, Unused},
		{Return, "RETURN", Reg, Unused, Unused, Unused, Unused},
		{Throw, "THROW", Reg, Unused, Unused, Unused, Unused},
		{PushTry, "PUSH_TRY", Reg, Unused, Unused, Unused, Target},
		{PopTry, "POP_TRY", Unused, Unused, Unused, Unused, Unused},
		unary(Keys, "KEYS"),
		unary(Length, "LENGTH"),
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Code: o.op,
			Name: o.name,
			A:    o.a,
			B:    o.b,
			C:    o.c,
			D:    o.d,
			K:    o.k,
		}
	}
}

// GetInfo returns information about the given opcode. Unknown opcodes have
// an empty Name.
func GetInfo(op Code) Info {
	return infos[op]
}

// String returns the opcode name, for example "LOAD_CONST".
func (c Code) String() string {
	if name := infos[c].Name; name != "" {
		return name
	}
	return "INVALID"
}
