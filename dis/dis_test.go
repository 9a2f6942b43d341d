package dis

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/jsbox/bytecode"
	"github.com/deepnoodle-ai/jsbox/compiler"
	"github.com/deepnoodle-ai/jsbox/op"
	"github.com/deepnoodle-ai/jsbox/parser"
)

func compile(t *testing.T, src string) *bytecode.FunctionProto {
	t.Helper()
	program, err := parser.Parse(context.Background(), src)
	require.NoError(t, err)
	proto, err := compiler.Compile(program)
	require.NoError(t, err)
	return proto
}

func find(instructions []Instruction, code op.Code) (Instruction, bool) {
	for _, instr := range instructions {
		if instr.Opcode == code {
			return instr, true
		}
	}
	return Instruction{}, false
}

func TestDisassembleGlobalCall(t *testing.T) {
	proto := compile(t, `print("kaboom")`)
	instructions, err := Disassemble(proto)
	require.NoError(t, err)
	require.Len(t, instructions, len(proto.Code))

	for i, instr := range instructions {
		require.Equal(t, i, instr.Offset)
		require.Equal(t, instr.Opcode.String(), instr.Name)
	}

	global, ok := find(instructions, op.GetGlobal)
	require.True(t, ok)
	require.Equal(t, "print", global.Info)
	require.Equal(t, 1, global.Line)

	load, ok := find(instructions, op.LoadConst)
	require.True(t, ok)
	require.Equal(t, `"kaboom"`, load.Info)

	_, ok = find(instructions, op.Call)
	require.True(t, ok)
}

func TestPrint(t *testing.T) {
	instructions := []Instruction{
		{Offset: 0, Name: "LOAD_CONST", Operands: []string{"r0", "k0"}, Info: "42"},
		{Offset: 1, Name: "GET_GLOBAL", Operands: []string{"r1", "k1"}, Info: "error"},
		{Offset: 2, Name: "RETURN", Operands: []string{"r0"}},
	}
	var buf bytes.Buffer
	require.NoError(t, Print(instructions, &buf))
	expected := strings.TrimSpace(`
+--------+------------+----------+-------+
| OFFSET |   OPCODE   | OPERANDS | INFO  |
+--------+------------+----------+-------+
|      0 | LOAD_CONST | r0 k0    | 42    |
|      1 | GET_GLOBAL | r1 k1    | error |
|      2 | RETURN     | r0       |       |
+--------+------------+----------+-------+
`)
	require.Equal(t, expected+"\n", buf.String())
}

func TestFprintNestedFunctions(t *testing.T) {
	proto := compile(t, `
function add(a, b) { return a + b }
add(1, 2)
`)
	var buf bytes.Buffer
	require.NoError(t, Fprint(&buf, proto, false))
	out := buf.String()
	require.Contains(t, out, "function "+proto.DisplayName()+" (params: 0")
	require.Contains(t, out, "function add (params: 2")
	require.Contains(t, out, "CREATE_CLOSURE")
	require.Contains(t, out, "<function add>")
	require.Contains(t, out, "ADD")
	require.NotContains(t, out, "\x1b[")
}

func TestFprintColor(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Fprint(&buf, compile(t, "1 + 2"), true))
	require.Contains(t, buf.String(), "\x1b[")
}

func TestDisassembleErrors(t *testing.T) {
	_, err := Disassemble(nil)
	require.Error(t, err)

	bad := &bytecode.FunctionProto{
		Name: "bad",
		Code: []bytecode.Instruction{{Op: op.LoadConst, A: 0, K: 3}},
	}
	_, err = Disassemble(bad)
	require.EqualError(t, err, "disassemble bad: constant 3 out of range at offset 0")

	unknown := &bytecode.FunctionProto{
		Name: "unknown",
		Code: []bytecode.Instruction{{Op: op.Code(250)}},
	}
	_, err = Disassemble(unknown)
	require.ErrorContains(t, err, "unknown opcode 250")
}
