// Package bytecode provides the compiled representation of jsbox programs.
//
// The compiler produces a tree of [FunctionProto] values. Each proto owns a
// flat instruction stream, a deduplicated constant pool and the register and
// parameter counts the virtual machine needs to set up a call frame. Nested
// functions are stored as [Constant] values of kind [FunctionConst] and are
// only turned into closures at run time.
//
// # Key Types
//
//   - [Instruction]: one fixed-shape register instruction
//   - [Constant]: a number, string, nested function or singleton literal
//   - [FunctionProto]: a compiled function body
//   - [UpvalueDesc]: how a closure captures a variable of its parent
//   - [SourceLocation]: maps an instruction back to its source position
//
// # Operands
//
// Register operands (A, B, C, D) are 16-bit indices into the current frame's
// register window. K holds 32-bit constant indices and absolute jump targets
// within the same function. The meaning of each operand is described by
// [op.GetInfo].
//
// # Serialization
//
// [Marshal] and [Unmarshal] encode a proto tree with msgpack. The encoding
// carries a schema version and decoded protos are validated before they are
// returned, so a corrupt or stale file is rejected rather than executed.
//
//	proto, err := compiler.Compile(program)
//	if err != nil {
//	    return err
//	}
//	data, err := bytecode.Marshal(proto)
package bytecode
