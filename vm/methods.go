package vm

import (
	"strings"

	"github.com/deepnoodle-ai/jsbox/heap"
	"github.com/deepnoodle-ai/jsbox/value"
)

type arrayMethod func(vm *VM, arr *heap.Array, args []value.Value) (value.Value, error)

type stringMethod func(vm *VM, s string, args []value.Value) (value.Value, error)

var arrayMethods map[string]arrayMethod

var stringMethods map[string]stringMethod

func init() {
	arrayMethods = map[string]arrayMethod{
		"push":     arrayPush,
		"pop":      arrayPop,
		"shift":    arrayShift,
		"join":     arrayJoin,
		"indexOf":  arrayIndexOf,
		"includes": arrayIncludes,
		"slice":    arraySlice,
	}
	stringMethods = map[string]stringMethod{
		"charAt":      stringCharAt,
		"indexOf":     stringIndexOf,
		"includes":    stringIncludes,
		"slice":       stringSlice,
		"toUpperCase": stringToUpperCase,
		"toLowerCase": stringToLowerCase,
		"trim":        stringTrim,
		"split":       stringSplit,
		"startsWith":  stringStartsWith,
		"endsWith":    stringEndsWith,
	}
}

// callMethod implements recv.name(args...). Arrays and strings have a set
// of built-in methods; anything else is a property lookup followed by a
// call with recv as this.
func (vm *VM) callMethod(recv value.Value, name string, args []value.Value, retReg int, caller *CallFrame) error {
	if recv.IsRef() {
		if obj, ok := vm.heap.Get(recv.AsRef()); ok {
			switch o := obj.(type) {
			case *heap.Array:
				if m, ok := arrayMethods[name]; ok {
					result, err := m(vm, o, args)
					if err != nil {
						return err
					}
					vm.regs[retReg] = result
					return nil
				}
			case *heap.String:
				if m, ok := stringMethods[name]; ok {
					result, err := m(vm, o.Value, args)
					if err != nil {
						return err
					}
					vm.regs[retReg] = result
					return nil
				}
			}
		}
	}
	fn, err := vm.GetProperty(recv, name)
	if err != nil {
		return err
	}
	if !vm.IsCallable(fn) {
		return vm.typeError("%s is not a function", name)
	}
	return vm.callValue(fn, recv, args, retReg, caller)
}

func arg(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined()
}

// relativeIndex resolves a possibly negative slice bound against length n.
func (vm *VM) relativeIndex(v value.Value, n, dflt int) int {
	if v.IsUndefined() {
		return dflt
	}
	f := vm.ToNumber(v)
	if f != f {
		return 0
	}
	if f < 0 {
		f += float64(n)
		if f < 0 {
			return 0
		}
	}
	if f > float64(n) {
		return n
	}
	return int(f)
}

func arrayPush(vm *VM, arr *heap.Array, args []value.Value) (value.Value, error) {
	arr.Elements = append(arr.Elements, args...)
	return value.Number(float64(len(arr.Elements))), nil
}

func arrayPop(vm *VM, arr *heap.Array, args []value.Value) (value.Value, error) {
	n := len(arr.Elements)
	if n == 0 {
		return value.Undefined(), nil
	}
	last := arr.Elements[n-1]
	arr.Elements[n-1] = value.Undefined()
	arr.Elements = arr.Elements[:n-1]
	return last, nil
}

func arrayShift(vm *VM, arr *heap.Array, args []value.Value) (value.Value, error) {
	if len(arr.Elements) == 0 {
		return value.Undefined(), nil
	}
	first := arr.Elements[0]
	arr.Elements = append(arr.Elements[:0], arr.Elements[1:]...)
	return first, nil
}

func arrayJoin(vm *VM, arr *heap.Array, args []value.Value) (value.Value, error) {
	sep := ","
	if sepArg := arg(args, 0); !sepArg.IsUndefined() {
		sep = vm.ToString(sepArg)
	}
	parts := make([]string, len(arr.Elements))
	for i, elem := range arr.Elements {
		if !elem.IsNullish() {
			parts[i] = vm.ToString(elem)
		}
	}
	return vm.NewString(strings.Join(parts, sep)), nil
}

func arrayIndexOf(vm *VM, arr *heap.Array, args []value.Value) (value.Value, error) {
	target := arg(args, 0)
	for i, elem := range arr.Elements {
		if vm.strictEquals(elem, target) {
			return value.Number(float64(i)), nil
		}
	}
	return value.Number(-1), nil
}

func arrayIncludes(vm *VM, arr *heap.Array, args []value.Value) (value.Value, error) {
	target := arg(args, 0)
	for _, elem := range arr.Elements {
		// includes finds NaN, unlike indexOf
		if vm.strictEquals(elem, target) || elem.Bits() == target.Bits() {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

func arraySlice(vm *VM, arr *heap.Array, args []value.Value) (value.Value, error) {
	n := len(arr.Elements)
	start := vm.relativeIndex(arg(args, 0), n, 0)
	end := vm.relativeIndex(arg(args, 1), n, n)
	var elems []value.Value
	if start < end {
		elems = append(elems, arr.Elements[start:end]...)
	}
	return vm.NewArray(elems), nil
}

func stringCharAt(vm *VM, s string, args []value.Value) (value.Value, error) {
	idx, ok := numberIndex(vm.ToNumber(arg(args, 0)))
	if arg(args, 0).IsUndefined() {
		idx, ok = 0, true
	}
	if ok {
		if c := vm.charAt(s, idx); !c.IsUndefined() {
			return c, nil
		}
	}
	return vm.NewString(""), nil
}

// runeIndex converts a byte offset in s to a rune offset.
func runeIndex(s string, byteOffset int) int {
	return len([]rune(s[:byteOffset]))
}

func stringIndexOf(vm *VM, s string, args []value.Value) (value.Value, error) {
	i := strings.Index(s, vm.ToString(arg(args, 0)))
	if i < 0 {
		return value.Number(-1), nil
	}
	return value.Number(float64(runeIndex(s, i))), nil
}

func stringIncludes(vm *VM, s string, args []value.Value) (value.Value, error) {
	return value.Bool(strings.Contains(s, vm.ToString(arg(args, 0)))), nil
}

func stringSlice(vm *VM, s string, args []value.Value) (value.Value, error) {
	runes := []rune(s)
	n := len(runes)
	start := vm.relativeIndex(arg(args, 0), n, 0)
	end := vm.relativeIndex(arg(args, 1), n, n)
	if start >= end {
		return vm.NewString(""), nil
	}
	return vm.NewString(string(runes[start:end])), nil
}

func stringToUpperCase(vm *VM, s string, args []value.Value) (value.Value, error) {
	return vm.NewString(strings.ToUpper(s)), nil
}

func stringToLowerCase(vm *VM, s string, args []value.Value) (value.Value, error) {
	return vm.NewString(strings.ToLower(s)), nil
}

func stringTrim(vm *VM, s string, args []value.Value) (value.Value, error) {
	return vm.NewString(strings.TrimSpace(s)), nil
}

func stringSplit(vm *VM, s string, args []value.Value) (value.Value, error) {
	sepArg := arg(args, 0)
	if sepArg.IsUndefined() {
		return vm.NewArray([]value.Value{vm.NewString(s)}), nil
	}
	var elems []value.Value
	for _, part := range strings.Split(s, vm.ToString(sepArg)) {
		elems = append(elems, vm.NewString(part))
	}
	return vm.NewArray(elems), nil
}

func stringStartsWith(vm *VM, s string, args []value.Value) (value.Value, error) {
	return value.Bool(strings.HasPrefix(s, vm.ToString(arg(args, 0)))), nil
}

func stringEndsWith(vm *VM, s string, args []value.Value) (value.Value, error) {
	return value.Bool(strings.HasSuffix(s, vm.ToString(arg(args, 0)))), nil
}
