package heap

import (
	"github.com/deepnoodle-ai/jsbox/value"
)

// Kind identifies the type of a heap object.
type Kind uint8

const (
	StringKind Kind = iota
	ObjectKind
	ArrayKind
	FunctionKind
	ClosureKind
)

func (k Kind) String() string {
	switch k {
	case StringKind:
		return "string"
	case ObjectKind:
		return "object"
	case ArrayKind:
		return "array"
	case FunctionKind:
		return "function"
	case ClosureKind:
		return "closure"
	default:
		return "unknown"
	}
}

// GcObject is implemented by every object stored in the heap.
type GcObject interface {
	// Kind returns the type of the object.
	Kind() Kind

	// size estimates the memory held by the object in bytes.
	size() int

	// trace calls mark for every value the object refers to.
	trace(mark func(value.Value))
}

// String is an immutable heap string. Strings are interned, so two live
// strings with equal contents always share a Ref.
type String struct {
	Value string
}

func (s *String) Kind() Kind { return StringKind }

func (s *String) size() int { return 16 + len(s.Value) }

func (s *String) trace(func(value.Value)) {}

// Object is a plain object with insertion-ordered properties. Objects
// created by new record their constructor, which instanceof compares
// against; Constructor is NilRef otherwise.
type Object struct {
	Props       PropertyMap
	Constructor Ref
}

func (o *Object) Kind() Kind { return ObjectKind }

func (o *Object) size() int { return 32 + o.Props.size() }

func (o *Object) trace(mark func(value.Value)) {
	if o.Constructor != NilRef {
		mark(value.FromRef(o.Constructor))
	}
	o.Props.trace(mark)
}

// Array is a dense array of values.
type Array struct {
	Elements []value.Value
}

func (a *Array) Kind() Kind { return ArrayKind }

func (a *Array) size() int { return 24 + 8*cap(a.Elements) }

func (a *Array) trace(mark func(value.Value)) {
	for _, v := range a.Elements {
		mark(v)
	}
}

// Function is a callable implemented by the host. ProtoIndex is -1 for
// host functions; Native indexes the VM's native table.
type Function struct {
	Name       string
	NumParams  int
	ProtoIndex int
	Native     int
	Props      PropertyMap
}

func (f *Function) Kind() Kind { return FunctionKind }

func (f *Function) size() int { return 48 + len(f.Name) + f.Props.size() }

func (f *Function) trace(mark func(value.Value)) { f.Props.trace(mark) }

// Upvalue is a variable captured by a closure. While the defining frame is
// live the upvalue is open and refers to an absolute register index; when
// the frame returns or the scope ends the value is copied into Closed.
type Upvalue struct {
	Open   bool
	Index  int
	Closed value.Value
}

// Closure is a compiled function together with its captured variables.
// ProtoIndex indexes the VM's table of function protos.
type Closure struct {
	Name       string
	NumParams  int
	ProtoIndex int
	Upvalues   []*Upvalue
	Props      PropertyMap
}

func (c *Closure) Kind() Kind { return ClosureKind }

func (c *Closure) size() int { return 48 + len(c.Name) + 8*len(c.Upvalues) + c.Props.size() }

func (c *Closure) trace(mark func(value.Value)) {
	for _, uv := range c.Upvalues {
		if !uv.Open {
			mark(uv.Closed)
		}
	}
	c.Props.trace(mark)
}
