package bytecode

// Stats contains statistics about compiled bytecode.
// This is useful for auditing scripts before execution.
type Stats struct {
	// InstructionCount is the total number of instructions in all functions.
	InstructionCount int

	// ConstantCount is the total number of constant pool entries.
	ConstantCount int

	// FunctionCount is the number of functions, including the root.
	FunctionCount int

	// MaxRegisters is the largest register window of any function.
	MaxRegisters int

	// UpvalueCount is the total number of captured variables.
	UpvalueCount int
}

// Stats returns statistics about f and all nested functions.
func (f *FunctionProto) Stats() Stats {
	var s Stats
	f.Walk(func(p *FunctionProto) bool {
		s.FunctionCount++
		s.InstructionCount += len(p.Code)
		s.ConstantCount += len(p.Constants)
		s.UpvalueCount += len(p.Upvalues)
		s.MaxRegisters = max(s.MaxRegisters, p.NumRegs)
		return true
	})
	return s
}
