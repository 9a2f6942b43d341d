package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExport(t *testing.T) {
	v, machine := run(t, `function g() {}
const o = { n: 1.5, s: "x", b: true, list: [1, null, undefined], f: g }
o`)
	got := machine.Export(v)
	require.Equal(t, map[string]any{
		"n":    1.5,
		"s":    "x",
		"b":    true,
		"list": []any{1.0, nil, nil},
		"f":    "[Function: g]",
	}, got)
}

func TestExportCycle(t *testing.T) {
	v, machine := run(t, "const a = [1]\na.push(a)\na")
	require.Equal(t, []any{1.0, nil}, machine.Export(v))
}
