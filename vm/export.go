package vm

import (
	"github.com/deepnoodle-ai/jsbox/heap"
	"github.com/deepnoodle-ai/jsbox/value"
)

// Export converts v to a Go value: float64, bool, string, nil for null and
// undefined, []any for arrays and map[string]any for objects. Functions
// export as their display string. A value reached again through a cycle
// exports as nil.
func (vm *VM) Export(v value.Value) any {
	return vm.export(v, map[heap.Ref]bool{})
}

func (vm *VM) export(v value.Value, seen map[heap.Ref]bool) any {
	switch {
	case v.IsNumber():
		return v.AsNumber()
	case v.IsBool():
		return v.AsBool()
	case !v.IsRef():
		return nil
	}
	ref := v.AsRef()
	obj, ok := vm.heap.Get(ref)
	if !ok {
		return nil
	}
	if s, ok := obj.(*heap.String); ok {
		return s.Value
	}
	if seen[ref] {
		return nil
	}
	seen[ref] = true
	defer delete(seen, ref)
	switch o := obj.(type) {
	case *heap.Array:
		out := make([]any, len(o.Elements))
		for i, elem := range o.Elements {
			out[i] = vm.export(elem, seen)
		}
		return out
	case *heap.Object:
		out := make(map[string]any, o.Props.Len())
		o.Props.Range(func(key string, val value.Value) bool {
			out[key] = vm.export(val, seen)
			return true
		})
		return out
	}
	return vm.ToDisplayString(v)
}
