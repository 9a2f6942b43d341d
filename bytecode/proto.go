package bytecode

// UpvalueDesc tells CreateClosure where to find a captured variable. When
// FromParentLocal is set, Index is a register of the enclosing frame;
// otherwise it is an index into the enclosing closure's own upvalues.
type UpvalueDesc struct {
	FromParentLocal bool
	Index           uint16
	Name            string
}

// FunctionProto is a compiled function body. It is not modified after the
// compiler returns it and may be shared by any number of closures and VMs.
type FunctionProto struct {
	// Name is the declared function name, empty for anonymous functions.
	Name string

	// Code is the instruction stream.
	Code []Instruction

	// Constants is the deduplicated constant pool referenced by K operands.
	Constants []Constant

	// NumRegs is the register high-water mark of the function.
	NumRegs int

	// NumParams counts declared parameters, excluding a rest parameter.
	NumParams int

	// HasRest is set when the last parameter collects remaining arguments
	// into an array.
	HasRest bool

	// IsArrow is set for arrow functions, which have no own this binding.
	IsArrow bool

	// Upvalues describes the variables captured from enclosing functions.
	Upvalues []UpvalueDesc

	// Locations holds one source location per instruction. It may be
	// empty for hand-built protos.
	Locations []SourceLocation

	// Filename is the source file the function was compiled from.
	Filename string
}

// DisplayName returns the function name, or "<anonymous>".
func (f *FunctionProto) DisplayName() string {
	if f.Name == "" {
		return "<anonymous>"
	}
	return f.Name
}

// LocationAt returns the source location of the instruction at ip, or a
// zero location if none was recorded.
func (f *FunctionProto) LocationAt(ip int) SourceLocation {
	if ip < 0 || ip >= len(f.Locations) {
		return SourceLocation{}
	}
	return f.Locations[ip]
}

// Children returns the nested function protos referenced from the constant
// pool, in pool order.
func (f *FunctionProto) Children() []*FunctionProto {
	var children []*FunctionProto
	for _, c := range f.Constants {
		if c.Kind == FunctionConst && c.Function != nil {
			children = append(children, c.Function)
		}
	}
	return children
}

// Walk calls fn for f and every nested proto, depth first. Walking stops
// early if fn returns false.
func (f *FunctionProto) Walk(fn func(*FunctionProto) bool) bool {
	if !fn(f) {
		return false
	}
	for _, child := range f.Children() {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}
