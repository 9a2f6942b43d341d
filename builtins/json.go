package builtins

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/deepnoodle-ai/jsbox/heap"
	"github.com/deepnoodle-ai/jsbox/value"
	"github.com/deepnoodle-ai/jsbox/vm"
)

const maxJSONDepth = 512

// JSONStringify serializes a value to JSON. Object keys keep insertion
// order. Undefined and functions are omitted from objects, become null in
// arrays and make the whole result undefined at the top level.
func JSONStringify(machine *vm.VM, args []value.Value) (value.Value, error) {
	indent := ""
	switch space := arg(args, 2); {
	case space.IsNumber():
		indent = strings.Repeat(" ", min(max(int(space.AsNumber()), 0), 10))
	case !space.IsUndefined():
		if s, ok := machine.StringValue(space); ok {
			indent = s[:min(len(s), 10)]
		}
	}
	enc := &jsonEncoder{machine: machine, indent: indent, seen: map[heap.Ref]bool{}}
	ok, err := enc.encode(arg(args, 0), 0)
	if err != nil {
		return value.Undefined(), err
	}
	if !ok {
		return value.Undefined(), nil
	}
	return machine.NewString(enc.buf.String()), nil
}

type jsonEncoder struct {
	machine *vm.VM
	buf     bytes.Buffer
	indent  string
	seen    map[heap.Ref]bool
}

func (e *jsonEncoder) newline(depth int) {
	if e.indent == "" {
		return
	}
	e.buf.WriteByte('\n')
	for range depth {
		e.buf.WriteString(e.indent)
	}
}

// encode writes v and reports false if v has no JSON form.
func (e *jsonEncoder) encode(v value.Value, depth int) (bool, error) {
	switch {
	case v.IsUndefined():
		return false, nil
	case v.IsNull():
		e.buf.WriteString("null")
		return true, nil
	case v.IsBool(), v.IsNumber():
		if v.IsNumber() && (math.IsNaN(v.AsNumber()) || math.IsInf(v.AsNumber(), 0)) {
			e.buf.WriteString("null")
			return true, nil
		}
		e.buf.WriteString(v.String())
		return true, nil
	}
	ref := v.AsRef()
	obj, ok := e.machine.Heap().Get(ref)
	if !ok {
		return false, nil
	}
	switch o := obj.(type) {
	case *heap.String:
		e.writeString(o.Value)
		return true, nil
	case *heap.Function, *heap.Closure:
		return false, nil
	}
	if e.seen[ref] || depth >= maxJSONDepth {
		return false, e.machine.ThrowError("TypeError", "converting circular structure to JSON")
	}
	e.seen[ref] = true
	defer delete(e.seen, ref)

	switch o := obj.(type) {
	case *heap.Array:
		e.buf.WriteByte('[')
		for i, elem := range o.Elements {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			e.newline(depth + 1)
			ok, err := e.encode(elem, depth+1)
			if err != nil {
				return false, err
			}
			if !ok {
				e.buf.WriteString("null")
			}
		}
		if len(o.Elements) > 0 {
			e.newline(depth)
		}
		e.buf.WriteByte(']')
	case *heap.Object:
		e.buf.WriteByte('{')
		first := true
		var err error
		o.Props.Range(func(key string, val value.Value) bool {
			if val.IsUndefined() || e.machine.IsCallable(val) {
				return true
			}
			if !first {
				e.buf.WriteByte(',')
			}
			first = false
			e.newline(depth + 1)
			e.writeString(key)
			e.buf.WriteByte(':')
			if e.indent != "" {
				e.buf.WriteByte(' ')
			}
			_, err = e.encode(val, depth+1)
			return err == nil
		})
		if err != nil {
			return false, err
		}
		if !first {
			e.newline(depth)
		}
		e.buf.WriteByte('}')
	}
	return true, nil
}

func (e *jsonEncoder) writeString(s string) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	e.buf.Write(bytes.TrimSuffix(b.Bytes(), []byte("\n")))
}

// JSONParse parses a JSON document into arrays, objects and primitives.
// Invalid input throws a SyntaxError.
func JSONParse(machine *vm.VM, args []value.Value) (value.Value, error) {
	text := machine.ToString(arg(args, 0))
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	p := &jsonParser{machine: machine, dec: dec}
	v, err := p.value(0)
	if err == nil {
		if _, tokErr := dec.Token(); !errors.Is(tokErr, io.EOF) {
			err = errors.New("unexpected data after JSON value")
		}
	}
	if err != nil {
		return value.Undefined(), machine.ThrowError("SyntaxError", "JSON.parse: "+err.Error())
	}
	return v, nil
}

type jsonParser struct {
	machine *vm.VM
	dec     *json.Decoder
}

func (p *jsonParser) value(depth int) (value.Value, error) {
	if depth > maxJSONDepth {
		return value.Undefined(), errors.New("nesting too deep")
	}
	tok, err := p.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return value.Undefined(), errors.New("unexpected end of input")
		}
		return value.Undefined(), err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			var elems []value.Value
			for p.dec.More() {
				v, err := p.value(depth + 1)
				if err != nil {
					return value.Undefined(), err
				}
				elems = append(elems, v)
			}
			if _, err := p.dec.Token(); err != nil {
				return value.Undefined(), err
			}
			return p.machine.NewArray(elems), nil
		case '{':
			obj := p.machine.NewObject()
			props, _ := p.machine.Heap().Props(obj.AsRef())
			for p.dec.More() {
				keyTok, err := p.dec.Token()
				if err != nil {
					return value.Undefined(), err
				}
				key, ok := keyTok.(string)
				if !ok {
					return value.Undefined(), fmt.Errorf("invalid object key %v", keyTok)
				}
				v, err := p.value(depth + 1)
				if err != nil {
					return value.Undefined(), err
				}
				props.Set(key, v)
			}
			if _, err := p.dec.Token(); err != nil {
				return value.Undefined(), err
			}
			return obj, nil
		}
		return value.Undefined(), fmt.Errorf("unexpected %q", rune(t))
	case string:
		return p.machine.NewString(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return value.Undefined(), err
		}
		return value.Number(f), nil
	case bool:
		return value.Bool(t), nil
	case nil:
		return value.Null(), nil
	}
	return value.Undefined(), fmt.Errorf("unexpected token %v", tok)
}
