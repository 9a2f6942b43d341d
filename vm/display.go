package vm

import (
	"strings"

	"github.com/deepnoodle-ai/jsbox/heap"
	"github.com/deepnoodle-ai/jsbox/value"
)

const maxDisplayDepth = 4

// ToDisplayString renders v the way console.log prints it. Strings print
// raw at the top level and quoted inside containers.
func (vm *VM) ToDisplayString(v value.Value) string {
	if s, ok := vm.StringValue(v); ok {
		return s
	}
	var sb strings.Builder
	vm.display(&sb, v, map[heap.Ref]bool{}, 0)
	return sb.String()
}

func (vm *VM) display(sb *strings.Builder, v value.Value, seen map[heap.Ref]bool, depth int) {
	if !v.IsRef() {
		sb.WriteString(v.String())
		return
	}
	ref := v.AsRef()
	obj, ok := vm.heap.Get(ref)
	if !ok {
		sb.WriteString("undefined")
		return
	}
	switch o := obj.(type) {
	case *heap.String:
		sb.WriteString(quote(o.Value))
		return
	case *heap.Function:
		writeFunction(sb, o.Name)
		return
	case *heap.Closure:
		writeFunction(sb, o.Name)
		return
	}
	if seen[ref] {
		sb.WriteString("[Circular]")
		return
	}
	seen[ref] = true
	defer delete(seen, ref)

	switch o := obj.(type) {
	case *heap.Array:
		if depth >= maxDisplayDepth {
			sb.WriteString("[Array]")
			return
		}
		if len(o.Elements) == 0 {
			sb.WriteString("[]")
			return
		}
		sb.WriteString("[ ")
		for i, elem := range o.Elements {
			if i > 0 {
				sb.WriteString(", ")
			}
			vm.display(sb, elem, seen, depth+1)
		}
		sb.WriteString(" ]")
	case *heap.Object:
		if name, msg, ok := vm.errorParts(o); ok && o.Props.Len() == 2 {
			sb.WriteString(name + ": " + msg)
			return
		}
		if depth >= maxDisplayDepth {
			sb.WriteString("[Object]")
			return
		}
		if o.Props.Len() == 0 {
			sb.WriteString("{}")
			return
		}
		sb.WriteString("{ ")
		first := true
		o.Props.Range(func(key string, val value.Value) bool {
			if !first {
				sb.WriteString(", ")
			}
			first = false
			sb.WriteString(displayKey(key))
			sb.WriteString(": ")
			vm.display(sb, val, seen, depth+1)
			return true
		})
		sb.WriteString(" }")
	}
}

func writeFunction(sb *strings.Builder, name string) {
	if name == "" {
		sb.WriteString("[Function (anonymous)]")
		return
	}
	sb.WriteString("[Function: " + name + "]")
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), "'", `\'`) + "'"
}

// displayKey quotes keys that are not plain identifiers.
func displayKey(key string) string {
	if key == "" {
		return "''"
	}
	for i, r := range key {
		ident := r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(i > 0 && r >= '0' && r <= '9')
		if !ident {
			return quote(key)
		}
	}
	return key
}
