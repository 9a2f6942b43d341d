package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/deepnoodle-ai/jsbox/bytecode"
	"github.com/deepnoodle-ai/jsbox/op"
)

func sampleProto() *bytecode.FunctionProto {
	return &bytecode.FunctionProto{
		Name:      "<main>",
		NumRegs:   1,
		Constants: []bytecode.Constant{bytecode.Number(42)},
		Code: []bytecode.Instruction{
			{Op: op.LoadConst, A: 0, K: 0},
			{Op: op.Return, A: 0},
		},
		Locations: []bytecode.SourceLocation{{Line: 1, Column: 1}, {Line: 1, Column: 1}},
		Filename:  "main.js",
	}
}

func openCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestKeyFor(t *testing.T) {
	a := KeyFor("a.js", "1 + 1")
	require.Equal(t, a, KeyFor("a.js", "1 + 1"))
	require.NotEqual(t, a, KeyFor("b.js", "1 + 1"))
	require.NotEqual(t, a, KeyFor("a.js", "1 + 2"))
	require.Len(t, a.String(), 64)
}

func TestPutGet(t *testing.T) {
	c := openCache(t)
	key := KeyFor("main.js", "42")

	_, ok, err := c.Get(key)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Put(key, "main.js", sampleProto()))
	proto, ok, err := c.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "<main>", proto.Name)
	require.Equal(t, sampleProto().Code, proto.Code)
	require.Equal(t, 42.0, proto.Constants[0].Number)
}

func TestCorruptEntryIsMiss(t *testing.T) {
	c := openCache(t)
	key := KeyFor("x.js", "x")
	path := c.pathFor(key)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not msgpack"), 0o644))

	_, ok, err := c.Get(key)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStaleSchemaIsMiss(t *testing.T) {
	c := openCache(t)
	key := KeyFor("x.js", "x")
	data, err := msgpack.Marshal(&entry{Schema: schemaVersion + 1, BytecodeSchema: bytecode.SchemaVersion})
	require.NoError(t, err)
	path := c.pathFor(key)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, ok, err := c.Get(key)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestClear(t *testing.T) {
	c := openCache(t)
	key := KeyFor("main.js", "42")
	require.NoError(t, c.Put(key, "main.js", sampleProto()))
	require.NoError(t, c.Clear())
	_, ok, err := c.Get(key)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNilCache(t *testing.T) {
	var c *Cache
	require.NoError(t, c.Put(KeyFor("a", "b"), "a", sampleProto()))
	_, ok, err := c.Get(KeyFor("a", "b"))
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, c.Clear())
}

func TestOpenRequiresDir(t *testing.T) {
	_, err := Open("", zerolog.Nop())
	require.Error(t, err)
}
