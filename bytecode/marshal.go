package bytecode

import (
	"bytes"
	"fmt"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/deepnoodle-ai/jsbox/op"
)

// SchemaVersion is the version of the serialized bytecode format. Bump it
// whenever the encoding or the instruction set changes.
const SchemaVersion uint16 = 1

// VersionError is returned by Unmarshal for data written with a different
// schema version.
type VersionError struct {
	Got  uint16
	Want uint16
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("bytecode schema version %d is not supported (want %d)", e.Got, e.Want)
}

// Marshal encodes a proto tree with msgpack.
func Marshal(proto *FunctionProto) ([]byte, error) {
	if proto == nil {
		return nil, fmt.Errorf("marshal: nil proto")
	}
	state := fileState{
		Schema: SchemaVersion,
		Root:   stateFromProto(proto),
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.Encode(&state); err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a proto tree produced by Marshal and validates it.
func Unmarshal(data []byte) (*FunctionProto, error) {
	var state fileState
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&state); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if state.Schema != SchemaVersion {
		return nil, &VersionError{Got: state.Schema, Want: SchemaVersion}
	}
	if state.Root == nil {
		return nil, fmt.Errorf("unmarshal: missing root function")
	}
	proto, err := protoFromState(state.Root)
	if err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if err := proto.Validate(); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return proto, nil
}

// Serialization types

type fileState struct {
	Schema uint16      `msgpack:"schema"`
	Root   *protoState `msgpack:"root"`
}

type protoState struct {
	Name      string          `msgpack:"name,omitempty"`
	Filename  string          `msgpack:"file,omitempty"`
	Code      []uint64        `msgpack:"code"` // two words per instruction
	Constants []constantState `msgpack:"consts"`
	NumRegs   int             `msgpack:"regs"`
	NumParams int             `msgpack:"params"`
	HasRest   bool            `msgpack:"rest,omitempty"`
	IsArrow   bool            `msgpack:"arrow,omitempty"`
	Upvalues  []upvalueState  `msgpack:"upvalues,omitempty"`
	Locations []int           `msgpack:"lines,omitempty"` // line, column pairs
}

type constantState struct {
	Kind     uint8       `msgpack:"k"`
	Number   float64     `msgpack:"n,omitempty"`
	Str      string      `msgpack:"s,omitempty"`
	Function *protoState `msgpack:"f,omitempty"`
}

type upvalueState struct {
	Local bool   `msgpack:"local"`
	Index int    `msgpack:"index"`
	Name  string `msgpack:"name,omitempty"`
}

func packInstruction(i Instruction) (uint64, uint64) {
	w0 := uint64(i.Op)<<48 | uint64(i.A)<<32 | uint64(i.B)<<16 | uint64(i.C)
	w1 := uint64(i.D)<<32 | uint64(i.K)
	return w0, w1
}

func unpackInstruction(w0, w1 uint64) Instruction {
	return Instruction{
		Op: op.Code(w0 >> 48),
		A:  uint16(w0 >> 32),
		B:  uint16(w0 >> 16),
		C:  uint16(w0),
		D:  uint16(w1 >> 32),
		K:  uint32(w1),
	}
}

func stateFromProto(p *FunctionProto) *protoState {
	s := &protoState{
		Name:      p.Name,
		Filename:  p.Filename,
		Code:      make([]uint64, 0, 2*len(p.Code)),
		Constants: make([]constantState, len(p.Constants)),
		NumRegs:   p.NumRegs,
		NumParams: p.NumParams,
		HasRest:   p.HasRest,
		IsArrow:   p.IsArrow,
	}
	for _, instr := range p.Code {
		w0, w1 := packInstruction(instr)
		s.Code = append(s.Code, w0, w1)
	}
	for i, c := range p.Constants {
		cs := constantState{Kind: uint8(c.Kind), Number: c.Number, Str: c.Str}
		if c.Kind == FunctionConst && c.Function != nil {
			cs.Function = stateFromProto(c.Function)
		}
		s.Constants[i] = cs
	}
	for _, uv := range p.Upvalues {
		s.Upvalues = append(s.Upvalues, upvalueState{
			Local: uv.FromParentLocal,
			Index: int(uv.Index),
			Name:  uv.Name,
		})
	}
	for _, loc := range p.Locations {
		s.Locations = append(s.Locations, loc.Line, loc.Column)
	}
	return s
}

func protoFromState(s *protoState) (*FunctionProto, error) {
	if len(s.Code)%2 != 0 {
		return nil, fmt.Errorf("function %q: truncated instruction stream", s.Name)
	}
	if len(s.Locations)%2 != 0 {
		return nil, fmt.Errorf("function %q: truncated location table", s.Name)
	}
	p := &FunctionProto{
		Name:      s.Name,
		Filename:  s.Filename,
		Code:      make([]Instruction, 0, len(s.Code)/2),
		Constants: make([]Constant, len(s.Constants)),
		NumRegs:   s.NumRegs,
		NumParams: s.NumParams,
		HasRest:   s.HasRest,
		IsArrow:   s.IsArrow,
	}
	for i := 0; i < len(s.Code); i += 2 {
		p.Code = append(p.Code, unpackInstruction(s.Code[i], s.Code[i+1]))
	}
	for i, cs := range s.Constants {
		kind := ConstantKind(cs.Kind)
		c := Constant{Kind: kind, Number: cs.Number, Str: cs.Str}
		switch kind {
		case NumberConst, StringConst, NullConst, TrueConst, FalseConst:
		case FunctionConst:
			if cs.Function == nil {
				return nil, fmt.Errorf("function %q: constant %d has no function body", s.Name, i)
			}
			fn, err := protoFromState(cs.Function)
			if err != nil {
				return nil, err
			}
			c.Function = fn
		default:
			return nil, fmt.Errorf("function %q: constant %d has unknown kind %d", s.Name, i, cs.Kind)
		}
		p.Constants[i] = c
	}
	for i, us := range s.Upvalues {
		index, err := safecast.Conv[uint16](us.Index)
		if err != nil {
			return nil, fmt.Errorf("function %q: upvalue %d: %w", s.Name, i, err)
		}
		p.Upvalues = append(p.Upvalues, UpvalueDesc{
			FromParentLocal: us.Local,
			Index:           index,
			Name:            us.Name,
		})
	}
	for i := 0; i < len(s.Locations); i += 2 {
		p.Locations = append(p.Locations, SourceLocation{Line: s.Locations[i], Column: s.Locations[i+1]})
	}
	return p, nil
}
