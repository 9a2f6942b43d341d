package vm

import (
	"math"
	"strings"

	"github.com/deepnoodle-ai/jsbox/heap"
	"github.com/deepnoodle-ai/jsbox/op"
	"github.com/deepnoodle-ai/jsbox/value"
)

// NewString returns a string value, allocating it on the heap if needed.
func (vm *VM) NewString(s string) value.Value {
	return value.FromRef(vm.heap.AllocString(s))
}

// NewArray returns a new array owning elems.
func (vm *VM) NewArray(elems []value.Value) value.Value {
	return value.FromRef(vm.heap.AllocArray(elems))
}

// NewObject returns a new empty object.
func (vm *VM) NewObject() value.Value {
	return value.FromRef(vm.heap.AllocObject())
}

// NewError returns an error object with name and message properties. If a
// global function with the same name exists it becomes the object's
// constructor, so instanceof works for host-defined error types.
func (vm *VM) NewError(name, message string) value.Value {
	obj := &heap.Object{Constructor: heap.NilRef}
	if ctor := vm.GetGlobalValue(name); vm.IsCallable(ctor) {
		obj.Constructor = ctor.AsRef()
	}
	obj.Props.Set("name", vm.NewString(name))
	obj.Props.Set("message", vm.NewString(message))
	return value.FromRef(vm.heap.Allocate(obj))
}

// StringValue returns the contents of v if it is a string.
func (vm *VM) StringValue(v value.Value) (string, bool) {
	if !v.IsRef() {
		return "", false
	}
	return vm.heap.String(v.AsRef())
}

func (vm *VM) array(v value.Value) (*heap.Array, bool) {
	obj, ok := vm.heap.Get(v.AsRef())
	if !v.IsRef() || !ok {
		return nil, false
	}
	arr, ok := obj.(*heap.Array)
	return arr, ok
}

// isObject reports whether v is a reference to anything but a string.
func (vm *VM) isObject(v value.Value) bool {
	if !v.IsRef() {
		return false
	}
	obj, ok := vm.heap.Get(v.AsRef())
	if !ok {
		return false
	}
	return obj.Kind() != heap.StringKind
}

// IsCallable reports whether v is a function.
func (vm *VM) IsCallable(v value.Value) bool {
	if !v.IsRef() {
		return false
	}
	obj, ok := vm.heap.Get(v.AsRef())
	if !ok {
		return false
	}
	kind := obj.Kind()
	return kind == heap.FunctionKind || kind == heap.ClosureKind
}

// Truthy reports the boolean conversion of v.
func (vm *VM) Truthy(v value.Value) bool {
	if s, ok := vm.StringValue(v); ok {
		return s != ""
	}
	return v.Truthy()
}

// TypeOf returns the result of the typeof operator.
func (vm *VM) TypeOf(v value.Value) string {
	if !v.IsRef() {
		return v.TypeName()
	}
	obj, ok := vm.heap.Get(v.AsRef())
	if !ok {
		return "undefined"
	}
	switch obj.Kind() {
	case heap.StringKind:
		return "string"
	case heap.FunctionKind, heap.ClosureKind:
		return "function"
	default:
		return "object"
	}
}

// ToNumber converts v to a number.
func (vm *VM) ToNumber(v value.Value) float64 {
	switch {
	case v.IsNumber():
		return v.AsNumber()
	case v.IsBool():
		if v.AsBool() {
			return 1
		}
		return 0
	case v.IsNull():
		return 0
	case v.IsRef():
		if s, ok := vm.StringValue(v); ok {
			return value.ParseNumber(s)
		}
		if arr, ok := vm.array(v); ok {
			switch len(arr.Elements) {
			case 0:
				return 0
			case 1:
				return vm.ToNumber(arr.Elements[0])
			}
		}
		return math.NaN()
	default:
		return math.NaN()
	}
}

// ToString converts v to a string.
func (vm *VM) ToString(v value.Value) string {
	return vm.toString(v, nil)
}

func (vm *VM) toString(v value.Value, seen map[heap.Ref]bool) string {
	if !v.IsRef() {
		return v.String()
	}
	ref := v.AsRef()
	obj, ok := vm.heap.Get(ref)
	if !ok {
		return "undefined"
	}
	switch obj := obj.(type) {
	case *heap.String:
		return obj.Value
	case *heap.Array:
		if seen[ref] {
			return ""
		}
		if seen == nil {
			seen = map[heap.Ref]bool{}
		}
		seen[ref] = true
		defer delete(seen, ref)
		parts := make([]string, len(obj.Elements))
		for i, elem := range obj.Elements {
			if !elem.IsNullish() {
				parts[i] = vm.toString(elem, seen)
			}
		}
		return strings.Join(parts, ",")
	case *heap.Object:
		if name, msg, ok := vm.errorParts(obj); ok {
			if msg == "" {
				return name
			}
			return name + ": " + msg
		}
		return "[object Object]"
	case *heap.Function:
		return "function " + obj.Name + "() { [native code] }"
	case *heap.Closure:
		return "function " + obj.Name + "() { [code] }"
	}
	return ""
}

// errorParts returns the name and message of an error-like object.
func (vm *VM) errorParts(obj *heap.Object) (string, string, bool) {
	nameVal, ok := obj.Props.Get("name")
	if !ok {
		return "", "", false
	}
	msgVal, ok := obj.Props.Get("message")
	if !ok {
		return "", "", false
	}
	name, ok := vm.StringValue(nameVal)
	if !ok {
		return "", "", false
	}
	msg, ok := vm.StringValue(msgVal)
	if !ok {
		return "", "", false
	}
	return name, msg, true
}

// describeException renders a thrown value for an uncaught exception
// message.
func (vm *VM) describeException(v value.Value) string {
	if obj, ok := vm.heap.Get(v.AsRef()); ok && v.IsRef() {
		if o, ok := obj.(*heap.Object); ok {
			if name, msg, ok := vm.errorParts(o); ok {
				return name + ": " + msg
			}
		}
	}
	return vm.ToDisplayString(v)
}

// propertyKey converts v to a property name.
func (vm *VM) propertyKey(v value.Value) string {
	if s, ok := vm.StringValue(v); ok {
		return s
	}
	return vm.ToString(v)
}

func (vm *VM) binaryOp(code op.Code, a, b value.Value) (value.Value, error) {
	switch code {
	case op.Add:
		if a.IsRef() || b.IsRef() {
			return vm.NewString(vm.ToString(a) + vm.ToString(b)), nil
		}
		return value.Number(vm.ToNumber(a) + vm.ToNumber(b)), nil
	case op.Sub:
		return value.Number(vm.ToNumber(a) - vm.ToNumber(b)), nil
	case op.Mul:
		return value.Number(vm.ToNumber(a) * vm.ToNumber(b)), nil
	case op.Div:
		return value.Number(vm.ToNumber(a) / vm.ToNumber(b)), nil
	case op.Mod:
		return value.Number(math.Mod(vm.ToNumber(a), vm.ToNumber(b))), nil
	case op.Exp:
		return value.Number(pow(vm.ToNumber(a), vm.ToNumber(b))), nil
	case op.BitAnd:
		return value.Number(float64(vm.int32(a) & vm.int32(b))), nil
	case op.BitOr:
		return value.Number(float64(vm.int32(a) | vm.int32(b))), nil
	case op.BitXor:
		return value.Number(float64(vm.int32(a) ^ vm.int32(b))), nil
	case op.Shl:
		return value.Number(float64(vm.int32(a) << (vm.uint32(b) & 31))), nil
	case op.Shr:
		return value.Number(float64(vm.int32(a) >> (vm.uint32(b) & 31))), nil
	case op.UShr:
		return value.Number(float64(vm.uint32(a) >> (vm.uint32(b) & 31))), nil
	case op.Lt, op.LtEq, op.Gt, op.GtEq:
		return value.Bool(vm.compare(code, a, b)), nil
	case op.EqStrict:
		return value.Bool(vm.strictEquals(a, b)), nil
	case op.NeqStrict:
		return value.Bool(!vm.strictEquals(a, b)), nil
	case op.EqAbstract:
		return value.Bool(vm.looseEquals(a, b)), nil
	case op.NeqAbstract:
		return value.Bool(!vm.looseEquals(a, b)), nil
	case op.In:
		ok, err := vm.hasProperty(b, a)
		return value.Bool(ok), err
	case op.InstanceOf:
		ok, err := vm.instanceOf(a, b)
		return value.Bool(ok), err
	}
	return value.Undefined(), vm.fatal("invalid binary operator " + code.String())
}

func (vm *VM) int32(v value.Value) int32 {
	return value.ToInt32(vm.ToNumber(v))
}

func (vm *VM) uint32(v value.Value) uint32 {
	return value.ToUint32(vm.ToNumber(v))
}

// pow follows the exponent operator where it differs from math.Pow.
func pow(x, y float64) float64 {
	if math.IsNaN(y) || (math.Abs(x) == 1 && math.IsInf(y, 0)) {
		return math.NaN()
	}
	return math.Pow(x, y)
}

func (vm *VM) compare(code op.Code, a, b value.Value) bool {
	as, aok := vm.StringValue(a)
	bs, bok := vm.StringValue(b)
	if aok && bok {
		switch code {
		case op.Lt:
			return as < bs
		case op.LtEq:
			return as <= bs
		case op.Gt:
			return as > bs
		default:
			return as >= bs
		}
	}
	x, y := vm.ToNumber(a), vm.ToNumber(b)
	switch code {
	case op.Lt:
		return x < y
	case op.LtEq:
		return x <= y
	case op.Gt:
		return x > y
	default:
		return x >= y
	}
}

// strictEquals compares encodings. Interned strings make equal strings
// share a reference; NaN is canonical and so compares unequal only through
// the number check.
func (vm *VM) strictEquals(a, b value.Value) bool {
	if a.IsNumber() && b.IsNumber() {
		return a.AsNumber() == b.AsNumber()
	}
	return a.Bits() == b.Bits()
}

func (vm *VM) looseEquals(a, b value.Value) bool {
	if vm.strictEquals(a, b) {
		return true
	}
	if a.IsNullish() || b.IsNullish() {
		return a.IsNullish() && b.IsNullish()
	}
	aObj, bObj := vm.isObject(a), vm.isObject(b)
	if aObj && bObj {
		return false
	}
	if aObj {
		return vm.primitiveEquals(vm.ToString(a), b)
	}
	if bObj {
		return vm.primitiveEquals(vm.ToString(b), a)
	}
	_, aStr := vm.StringValue(a)
	_, bStr := vm.StringValue(b)
	if aStr && bStr {
		return false
	}
	return vm.ToNumber(a) == vm.ToNumber(b)
}

// primitiveEquals compares the string form of an object with a primitive.
func (vm *VM) primitiveEquals(s string, v value.Value) bool {
	if other, ok := vm.StringValue(v); ok {
		return s == other
	}
	return value.ParseNumber(s) == vm.ToNumber(v)
}

func (vm *VM) hasProperty(obj, key value.Value) (bool, error) {
	if !vm.isObject(obj) {
		return false, vm.typeError("cannot use 'in' operator to search for '%s' in %s",
			vm.propertyKey(key), vm.ToDisplayString(obj))
	}
	name := vm.propertyKey(key)
	switch o := vm.heap.MustGet(obj.AsRef()).(type) {
	case *heap.Array:
		if name == "length" {
			return true, nil
		}
		idx, ok := arrayIndex(name)
		return ok && idx < len(o.Elements), nil
	case *heap.Object:
		return o.Props.Has(name), nil
	case *heap.Function:
		return name == "name" || name == "length" || o.Props.Has(name), nil
	case *heap.Closure:
		return name == "name" || name == "length" || o.Props.Has(name), nil
	}
	return false, nil
}

func (vm *VM) instanceOf(v, ctor value.Value) (bool, error) {
	if !vm.IsCallable(ctor) {
		return false, vm.typeError("right-hand side of 'instanceof' is not callable")
	}
	if !v.IsRef() {
		return false, nil
	}
	obj, ok := vm.heap.Get(v.AsRef())
	if !ok {
		return false, nil
	}
	o, ok := obj.(*heap.Object)
	return ok && o.Constructor == ctor.AsRef(), nil
}
