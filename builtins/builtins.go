// Package builtins defines the default set of host functions available to
// scripts: console output, Math, JSON, number parsing, conversions and
// error constructors.
package builtins

import (
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/deepnoodle-ai/jsbox/heap"
	"github.com/deepnoodle-ai/jsbox/value"
	"github.com/deepnoodle-ai/jsbox/vm"
)

type builtin struct {
	name string
	fn   vm.NativeFunc
}

type namespace struct {
	name      string
	funcs     []builtin
	constants map[string]float64
}

var globals = []builtin{
	{"print", Print},
	{"parseInt", ParseInt},
	{"parseFloat", ParseFloat},
	{"isNaN", IsNaN},
	{"isFinite", IsFinite},
	{"String", String},
	{"Number", Number},
	{"Boolean", Boolean},
	{"Error", errorConstructor("Error")},
	{"TypeError", errorConstructor("TypeError")},
	{"RangeError", errorConstructor("RangeError")},
	{"SyntaxError", errorConstructor("SyntaxError")},
}

var namespaces = []namespace{
	{
		name: "console",
		funcs: []builtin{
			{"log", Print},
			{"info", Print},
			{"warn", Print},
			{"error", Print},
		},
	},
	{
		name: "Math",
		funcs: []builtin{
			{"floor", mathFunc(math.Floor)},
			{"ceil", mathFunc(math.Ceil)},
			{"round", mathFunc(round)},
			{"abs", mathFunc(math.Abs)},
			{"sqrt", mathFunc(math.Sqrt)},
			{"sin", mathFunc(math.Sin)},
			{"cos", mathFunc(math.Cos)},
			{"tan", mathFunc(math.Tan)},
			{"log", mathFunc(math.Log)},
			{"exp", mathFunc(math.Exp)},
			{"trunc", mathFunc(math.Trunc)},
			{"sign", mathFunc(sign)},
			{"pow", MathPow},
			{"min", MathMin},
			{"max", MathMax},
			{"random", MathRandom},
		},
		constants: map[string]float64{
			"PI":     math.Pi,
			"E":      math.E,
			"LN2":    math.Ln2,
			"LN10":   math.Ln10,
			"LOG2E":  math.Log2E,
			"LOG10E": math.Log10E,
			"SQRT2":  math.Sqrt2,
		},
	},
	{
		name: "JSON",
		funcs: []builtin{
			{"stringify", JSONStringify},
			{"parse", JSONParse},
		},
	},
	{
		name: "Object",
		funcs: []builtin{
			{"keys", ObjectKeys},
		},
	},
	{
		name: "Array",
		funcs: []builtin{
			{"isArray", ArrayIsArray},
		},
	},
}

// constantOrder fixes the order Math constants are defined in.
var constantOrder = []string{"PI", "E", "LN2", "LN10", "LOG2E", "LOG10E", "SQRT2"}

// Install registers every builtin on machine.
func Install(machine *vm.VM) {
	for _, b := range globals {
		machine.RegisterNative(b.name, b.fn)
	}
	for _, ns := range namespaces {
		obj := machine.NewObject()
		props, _ := machine.Heap().Props(obj.AsRef())
		for _, b := range ns.funcs {
			qualified := ns.name + "." + b.name
			machine.RegisterNative(qualified, b.fn)
			props.Set(b.name, machine.NativeRef(qualified))
		}
		for _, name := range constantOrder {
			if c, ok := ns.constants[name]; ok {
				props.Set(name, value.Number(c))
			}
		}
		machine.SetGlobal(ns.name, obj)
	}
}

func arg(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined()
}

// Print writes its arguments to the VM's output, separated by spaces.
func Print(machine *vm.VM, args []value.Value) (value.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = machine.ToDisplayString(a)
	}
	if _, err := io.WriteString(machine.Output(), strings.Join(parts, " ")+"\n"); err != nil {
		return value.Undefined(), fmt.Errorf("console: %w", err)
	}
	return value.Undefined(), nil
}

// ParseInt parses the leading integer of a string in the given radix.
func ParseInt(machine *vm.VM, args []value.Value) (value.Value, error) {
	radix := 0
	if r := arg(args, 1); !r.IsUndefined() {
		radix = int(value.ToInt32(machine.ToNumber(r)))
	}
	return value.Number(parseInt(machine.ToString(arg(args, 0)), radix)), nil
}

// parseInt reads digits until the first character that is not a digit of
// radix. A radix of 0 means 10, or 16 with a 0x prefix.
func parseInt(s string, radix int) float64 {
	s = strings.TrimSpace(s)
	negative := false
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		negative, s = true, rest
	} else if rest, ok := strings.CutPrefix(s, "+"); ok {
		s = rest
	}
	if radix == 0 || radix == 16 {
		if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
			s, radix = s[2:], 16
		}
	}
	if radix == 0 {
		radix = 10
	}
	if radix < 2 || radix > 36 {
		return math.NaN()
	}
	result := 0.0
	found := false
	for _, ch := range s {
		var digit int
		switch {
		case ch >= '0' && ch <= '9':
			digit = int(ch - '0')
		case ch >= 'a' && ch <= 'z':
			digit = int(ch-'a') + 10
		case ch >= 'A' && ch <= 'Z':
			digit = int(ch-'A') + 10
		default:
			digit = radix
		}
		if digit >= radix {
			break
		}
		found = true
		result = result*float64(radix) + float64(digit)
	}
	if !found {
		return math.NaN()
	}
	if negative {
		return -result
	}
	return result
}

// ParseFloat parses the longest leading decimal number of a string.
func ParseFloat(machine *vm.VM, args []value.Value) (value.Value, error) {
	return value.Number(parseFloat(machine.ToString(arg(args, 0)))), nil
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "Infinity"), strings.HasPrefix(s, "+Infinity"):
		return math.Inf(1)
	case strings.HasPrefix(s, "-Infinity"):
		return math.Inf(-1)
	}
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := false
	for end < len(s) && isDigit(s[end]) {
		end++
		digits = true
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && isDigit(s[end]) {
			end++
			digits = true
		}
	}
	if !digits {
		return math.NaN()
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		mark := end
		end++
		if end < len(s) && (s[end] == '+' || s[end] == '-') {
			end++
		}
		expDigits := false
		for end < len(s) && isDigit(s[end]) {
			end++
			expDigits = true
		}
		if !expDigits {
			end = mark
		}
	}
	return value.ParseNumber(s[:end])
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// IsNaN reports whether its argument converts to NaN.
func IsNaN(machine *vm.VM, args []value.Value) (value.Value, error) {
	return value.Bool(math.IsNaN(machine.ToNumber(arg(args, 0)))), nil
}

// IsFinite reports whether its argument converts to a finite number.
func IsFinite(machine *vm.VM, args []value.Value) (value.Value, error) {
	f := machine.ToNumber(arg(args, 0))
	return value.Bool(!math.IsNaN(f) && !math.IsInf(f, 0)), nil
}

// String converts its argument to a string.
func String(machine *vm.VM, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return machine.NewString(""), nil
	}
	return machine.NewString(machine.ToString(args[0])), nil
}

// Number converts its argument to a number.
func Number(machine *vm.VM, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Number(0), nil
	}
	return value.Number(machine.ToNumber(args[0])), nil
}

// Boolean converts its argument to a boolean.
func Boolean(machine *vm.VM, args []value.Value) (value.Value, error) {
	return value.Bool(machine.Truthy(arg(args, 0))), nil
}

// errorConstructor returns a native that builds {name, message} objects.
// It behaves the same with or without new.
func errorConstructor(name string) vm.NativeFunc {
	return func(machine *vm.VM, args []value.Value) (value.Value, error) {
		message := ""
		if m := arg(args, 0); !m.IsUndefined() {
			message = machine.ToString(m)
		}
		return machine.NewError(name, message), nil
	}
}

func mathFunc(fn func(float64) float64) vm.NativeFunc {
	return func(machine *vm.VM, args []value.Value) (value.Value, error) {
		return value.Number(fn(machine.ToNumber(arg(args, 0)))), nil
	}
}

// round rounds half-way cases toward positive infinity.
func round(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	return math.Floor(f + 0.5)
}

func sign(f float64) float64 {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	default:
		return f
	}
}

// MathPow returns base raised to exp.
func MathPow(machine *vm.VM, args []value.Value) (value.Value, error) {
	x := machine.ToNumber(arg(args, 0))
	y := machine.ToNumber(arg(args, 1))
	if math.IsNaN(y) || (math.Abs(x) == 1 && math.IsInf(y, 0)) {
		return value.Number(math.NaN()), nil
	}
	return value.Number(math.Pow(x, y)), nil
}

// MathMin returns the smallest argument, Infinity if there are none.
func MathMin(machine *vm.VM, args []value.Value) (value.Value, error) {
	result := math.Inf(1)
	for _, a := range args {
		f := machine.ToNumber(a)
		if math.IsNaN(f) {
			return value.Number(math.NaN()), nil
		}
		result = min(result, f)
	}
	return value.Number(result), nil
}

// MathMax returns the largest argument, -Infinity if there are none.
func MathMax(machine *vm.VM, args []value.Value) (value.Value, error) {
	result := math.Inf(-1)
	for _, a := range args {
		f := machine.ToNumber(a)
		if math.IsNaN(f) {
			return value.Number(math.NaN()), nil
		}
		result = max(result, f)
	}
	return value.Number(result), nil
}

// MathRandom returns a pseudo-random number in [0, 1).
func MathRandom(machine *vm.VM, args []value.Value) (value.Value, error) {
	return value.Number(rand.Float64()), nil
}

// ObjectKeys returns the enumerable keys of an object or array.
func ObjectKeys(machine *vm.VM, args []value.Value) (value.Value, error) {
	return machine.Keys(arg(args, 0)), nil
}

// ArrayIsArray reports whether its argument is an array.
func ArrayIsArray(machine *vm.VM, args []value.Value) (value.Value, error) {
	v := arg(args, 0)
	if !v.IsRef() {
		return value.Bool(false), nil
	}
	obj, ok := machine.Heap().Get(v.AsRef())
	return value.Bool(ok && obj.Kind() == heap.ArrayKind), nil
}
