// Package value provides the NaN-boxed runtime value used by the jsbox VM.
//
// A Value is a single 64-bit word. Any bit pattern that is not one of the
// reserved quiet NaNs is an IEEE-754 double. The reserved patterns carry a
// two bit tag and a 32-bit payload:
//
//	0111 1111 1111 11tt  0000 0000 0000 0000  pppp ... pppp
//	        prefix       tag                  payload (32 bits)
//
// Tags are undefined, null, boolean and heap reference. Real NaN results are
// canonicalized to 0x7FF8000000000000, which sits outside the reserved range
// and is therefore still a number.
//
// For example:
//
//	switch {
//	case v.IsNumber():
//		// use v.AsNumber()
//	case v.IsRef():
//		// look up v.AsRef() in the heap
//	}
package value

import (
	"fmt"
	"math"
)

// Value is a NaN-boxed dynamic value. The zero Value is the number +0.
type Value uint64

// Ref is an index into the heap. The heap package defines the objects it
// refers to.
type Ref uint32

// NilRef is a reference that never points at a live object.
const NilRef Ref = 0xFFFFFFFF

const (
	boxPrefix    uint64 = 0x7FFC000000000000
	boxMask      uint64 = 0xFFFC000000000000
	tagShift            = 48
	tagBits      uint64 = 0x3 << tagShift
	payloadMask  uint64 = 0xFFFFFFFF
	canonicalNaN uint64 = 0x7FF8000000000000
)

const (
	tagUndefined uint64 = iota
	tagNull
	tagBool
	tagRef
)

var (
	undefinedValue = Value(boxPrefix | tagUndefined<<tagShift)
	nullValue      = Value(boxPrefix | tagNull<<tagShift)
	trueValue      = Value(boxPrefix | tagBool<<tagShift | 1)
	falseValue     = Value(boxPrefix | tagBool<<tagShift)
)

// Number returns a number value. Every NaN input produces the same
// canonical NaN.
func Number(f float64) Value {
	if f != f {
		return Value(canonicalNaN)
	}
	return Value(math.Float64bits(f))
}

// Undefined returns the undefined value.
func Undefined() Value { return undefinedValue }

// Null returns the null value.
func Null() Value { return nullValue }

// Bool returns a boolean value.
func Bool(b bool) Value {
	if b {
		return trueValue
	}
	return falseValue
}

// FromRef returns a value referring to a heap object.
func FromRef(r Ref) Value {
	return Value(boxPrefix | tagRef<<tagShift | uint64(r))
}

func (v Value) boxed() bool {
	return uint64(v)&boxMask == boxPrefix
}

func (v Value) tag() uint64 {
	return (uint64(v) & tagBits) >> tagShift
}

// IsNumber returns true if v is a double.
func (v Value) IsNumber() bool { return !v.boxed() }

// IsUndefined returns true if v is undefined.
func (v Value) IsUndefined() bool { return v.boxed() && v.tag() == tagUndefined }

// IsNull returns true if v is null.
func (v Value) IsNull() bool { return v.boxed() && v.tag() == tagNull }

// IsNullish returns true if v is null or undefined.
func (v Value) IsNullish() bool { return v.boxed() && v.tag() <= tagNull }

// IsBool returns true if v is true or false.
func (v Value) IsBool() bool { return v.boxed() && v.tag() == tagBool }

// IsRef returns true if v refers to a heap object.
func (v Value) IsRef() bool { return v.boxed() && v.tag() == tagRef }

// AsNumber returns the double held by v. It returns NaN if v is not a
// number.
func (v Value) AsNumber() float64 {
	if v.boxed() {
		return math.NaN()
	}
	return math.Float64frombits(uint64(v))
}

// AsBool returns the boolean held by v, or false if v is not a boolean.
func (v Value) AsBool() bool {
	return v.IsBool() && uint64(v)&1 == 1
}

// AsRef returns the heap reference held by v, or NilRef if v is not a
// reference.
func (v Value) AsRef() Ref {
	if !v.IsRef() {
		return NilRef
	}
	return Ref(uint64(v) & payloadMask)
}

// Bits returns the raw 64-bit encoding of v.
func (v Value) Bits() uint64 { return uint64(v) }

// Truthy reports the boolean conversion of v. Heap references are always
// truthy here; callers holding the heap must treat the empty string as
// falsy themselves.
func (v Value) Truthy() bool {
	switch {
	case v.IsNumber():
		f := v.AsNumber()
		return f != 0 && f == f
	case v.IsBool():
		return v.AsBool()
	case v.IsRef():
		return true
	default:
		return false
	}
}

// TypeName returns the typeof name of v for non-reference values, or "ref".
func (v Value) TypeName() string {
	switch {
	case v.IsNumber():
		return "number"
	case v.IsUndefined():
		return "undefined"
	case v.IsNull():
		return "object"
	case v.IsBool():
		return "boolean"
	default:
		return "ref"
	}
}

// String returns a debug representation of v.
func (v Value) String() string {
	switch {
	case v.IsNumber():
		return FormatNumber(v.AsNumber())
	case v.IsUndefined():
		return "undefined"
	case v.IsNull():
		return "null"
	case v.IsBool():
		if v.AsBool() {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("ref(%d)", v.AsRef())
	}
}
