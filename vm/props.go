package vm

import (
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/deepnoodle-ai/jsbox/heap"
	"github.com/deepnoodle-ai/jsbox/value"
)

// arrayIndex parses a canonical array index such as "0" or "42".
func arrayIndex(name string) (int, bool) {
	if name == "" || len(name) > 10 || (len(name) > 1 && name[0] == '0') {
		return 0, false
	}
	for i := 0; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(name)
	if err != nil {
		return 0, false
	}
	return n, true
}

// numberIndex returns f as an index if it is a non-negative integer.
func numberIndex(f float64) (int, bool) {
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func (vm *VM) describeTarget(v value.Value) string {
	if v.IsNull() {
		return "null"
	}
	return "undefined"
}

// GetProperty reads obj[name].
func (vm *VM) GetProperty(obj value.Value, name string) (value.Value, error) {
	if obj.IsNullish() {
		return value.Undefined(), vm.typeError("cannot read property '%s' of %s", name, vm.describeTarget(obj))
	}
	if !obj.IsRef() {
		return value.Undefined(), nil
	}
	target, ok := vm.heap.Get(obj.AsRef())
	if !ok {
		return value.Undefined(), nil
	}
	switch o := target.(type) {
	case *heap.String:
		if name == "length" {
			return value.Number(float64(utf8.RuneCountInString(o.Value))), nil
		}
		if idx, ok := arrayIndex(name); ok {
			return vm.charAt(o.Value, idx), nil
		}
	case *heap.Array:
		if name == "length" {
			return value.Number(float64(len(o.Elements))), nil
		}
		if idx, ok := arrayIndex(name); ok && idx < len(o.Elements) {
			return o.Elements[idx], nil
		}
	case *heap.Object:
		if v, ok := o.Props.Get(name); ok {
			return v, nil
		}
	case *heap.Function:
		if v, ok := o.Props.Get(name); ok {
			return v, nil
		}
		switch name {
		case "name":
			return vm.NewString(o.Name), nil
		case "length":
			return value.Number(float64(o.NumParams)), nil
		}
	case *heap.Closure:
		if v, ok := o.Props.Get(name); ok {
			return v, nil
		}
		switch name {
		case "name":
			return vm.NewString(o.Name), nil
		case "length":
			return value.Number(float64(o.NumParams)), nil
		}
	}
	return value.Undefined(), nil
}

// charAt returns the character at rune index idx, or undefined.
func (vm *VM) charAt(s string, idx int) value.Value {
	i := 0
	for _, r := range s {
		if i == idx {
			return vm.NewString(string(r))
		}
		i++
	}
	return value.Undefined()
}

func (vm *VM) getElem(obj, key value.Value) (value.Value, error) {
	if key.IsNumber() && obj.IsRef() {
		if idx, ok := numberIndex(key.AsNumber()); ok {
			if arr, ok := vm.array(obj); ok {
				if idx < len(arr.Elements) {
					return arr.Elements[idx], nil
				}
				return value.Undefined(), nil
			}
			if s, ok := vm.StringValue(obj); ok {
				return vm.charAt(s, idx), nil
			}
		}
	}
	return vm.GetProperty(obj, vm.propertyKey(key))
}

// SetProperty assigns obj[name] = v. Assignments to primitives are
// ignored.
func (vm *VM) SetProperty(obj value.Value, name string, v value.Value) error {
	if obj.IsNullish() {
		return vm.typeError("cannot set property '%s' of %s", name, vm.describeTarget(obj))
	}
	if !obj.IsRef() {
		return nil
	}
	if arr, ok := vm.array(obj); ok {
		if name == "length" {
			return vm.setLength(arr, v)
		}
		if idx, ok := arrayIndex(name); ok {
			return vm.setIndex(arr, idx, v)
		}
		return nil
	}
	if props, ok := vm.heap.Props(obj.AsRef()); ok {
		props.Set(name, v)
	}
	return nil
}

func (vm *VM) setElem(obj, key, v value.Value) error {
	if key.IsNumber() {
		if idx, ok := numberIndex(key.AsNumber()); ok {
			if arr, ok := vm.array(obj); ok {
				return vm.setIndex(arr, idx, v)
			}
		}
	}
	return vm.SetProperty(obj, vm.propertyKey(key), v)
}

func (vm *VM) setIndex(arr *heap.Array, idx int, v value.Value) error {
	if idx < len(arr.Elements) {
		arr.Elements[idx] = v
		return nil
	}
	if idx-len(arr.Elements) > maxArrayGrowth {
		return vm.ThrowError("RangeError", "invalid array index "+strconv.Itoa(idx))
	}
	for len(arr.Elements) < idx {
		arr.Elements = append(arr.Elements, value.Undefined())
	}
	arr.Elements = append(arr.Elements, v)
	return nil
}

func (vm *VM) setLength(arr *heap.Array, v value.Value) error {
	f := vm.ToNumber(v)
	n, ok := numberIndex(f)
	if !ok || n-len(arr.Elements) > maxArrayGrowth {
		return vm.ThrowError("RangeError", "invalid array length")
	}
	if n <= len(arr.Elements) {
		clear(arr.Elements[n:])
		arr.Elements = arr.Elements[:n]
		return nil
	}
	for len(arr.Elements) < n {
		arr.Elements = append(arr.Elements, value.Undefined())
	}
	return nil
}

func (vm *VM) deleteProperty(obj value.Value, name string) (bool, error) {
	if obj.IsNullish() {
		return false, vm.typeError("cannot delete property '%s' of %s", name, vm.describeTarget(obj))
	}
	if arr, ok := vm.array(obj); ok {
		if idx, ok := arrayIndex(name); ok && idx < len(arr.Elements) {
			arr.Elements[idx] = value.Undefined()
		}
		return true, nil
	}
	if obj.IsRef() {
		if props, ok := vm.heap.Props(obj.AsRef()); ok {
			props.Delete(name)
		}
	}
	return true, nil
}

// extendArray appends the elements of src, an array or string, to dst.
func (vm *VM) extendArray(dst, src value.Value) error {
	arr, ok := vm.array(dst)
	if !ok {
		return nil
	}
	if other, ok := vm.array(src); ok {
		elems := append([]value.Value(nil), other.Elements...)
		arr.Elements = append(arr.Elements, elems...)
		return nil
	}
	if s, ok := vm.StringValue(src); ok {
		for _, r := range s {
			arr.Elements = append(arr.Elements, vm.NewString(string(r)))
		}
		return nil
	}
	return vm.typeError("%s is not iterable", vm.ToDisplayString(src))
}

// copyProps copies the own enumerable properties of src onto dst.
func (vm *VM) copyProps(dst, src value.Value) {
	props, ok := vm.heap.Props(dst.AsRef())
	if !dst.IsRef() || !ok || !src.IsRef() {
		return
	}
	obj, ok := vm.heap.Get(src.AsRef())
	if !ok {
		return
	}
	switch o := obj.(type) {
	case *heap.String:
		i := 0
		for _, r := range o.Value {
			props.Set(strconv.Itoa(i), vm.NewString(string(r)))
			i++
		}
	case *heap.Array:
		for i, elem := range o.Elements {
			props.Set(strconv.Itoa(i), elem)
		}
	default:
		if srcProps, ok := vm.heap.Props(src.AsRef()); ok && srcProps != props {
			srcProps.Range(func(key string, v value.Value) bool {
				props.Set(key, v)
				return true
			})
		}
	}
}

// Keys returns an array of the enumerable keys of v, as used by for-in.
func (vm *VM) Keys(v value.Value) value.Value {
	var keys []value.Value
	if v.IsRef() {
		if obj, ok := vm.heap.Get(v.AsRef()); ok {
			switch o := obj.(type) {
			case *heap.String:
				for i := range utf8.RuneCountInString(o.Value) {
					keys = append(keys, vm.NewString(strconv.Itoa(i)))
				}
			case *heap.Array:
				for i := range o.Elements {
					keys = append(keys, vm.NewString(strconv.Itoa(i)))
				}
			default:
				if props, ok := vm.heap.Props(v.AsRef()); ok {
					for _, k := range props.Keys() {
						keys = append(keys, vm.NewString(k))
					}
				}
			}
		}
	}
	return vm.NewArray(keys)
}

func (vm *VM) length(v value.Value) int {
	if arr, ok := vm.array(v); ok {
		return len(arr.Elements)
	}
	if s, ok := vm.StringValue(v); ok {
		return utf8.RuneCountInString(s)
	}
	return 0
}
