package heap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/jsbox/value"
)

func TestStringsAreInterned(t *testing.T) {
	h := New()
	a := h.AllocString("hello")
	b := h.AllocString("hello")
	c := h.AllocString("world")
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.Equal(t, a, h.Allocate(&String{Value: "hello"}))
	require.Equal(t, 2, h.Live())

	s, ok := h.String(c)
	require.True(t, ok)
	require.Equal(t, "world", s)
}

func TestGet(t *testing.T) {
	h := New()
	obj := h.AllocObject()
	arr := h.AllocArray([]value.Value{value.Number(1), value.Number(2)})

	got, ok := h.Get(obj)
	require.True(t, ok)
	require.Equal(t, ObjectKind, got.Kind())

	got, ok = h.Get(arr)
	require.True(t, ok)
	require.Len(t, got.(*Array).Elements, 2)

	_, ok = h.Get(NilRef)
	require.False(t, ok)
	_, ok = h.Get(99)
	require.False(t, ok)
	_, ok = h.String(obj)
	require.False(t, ok)

	require.Panics(t, func() { h.MustGet(99) })
	require.NotPanics(t, func() { h.MustGet(obj) })
}

func TestProps(t *testing.T) {
	h := New()
	obj := h.AllocObject()
	fn := h.Allocate(&Function{Name: "f", ProtoIndex: -1})
	cl := h.Allocate(&Closure{Name: "g"})
	str := h.AllocString("s")

	for _, ref := range []Ref{obj, fn, cl} {
		props, ok := h.Props(ref)
		require.True(t, ok)
		props.Set("x", value.Number(1))
		props2, _ := h.Props(ref)
		v, ok := props2.Get("x")
		require.True(t, ok)
		require.Equal(t, value.Number(1), v)
	}
	_, ok := h.Props(str)
	require.False(t, ok)
}

func TestCollectFreesUnreachable(t *testing.T) {
	h := New()
	keep := h.AllocObject()
	child := h.AllocString("child")
	props, _ := h.Props(keep)
	props.Set("c", value.FromRef(child))

	garbage := h.AllocArray(nil)
	garbageStr := h.AllocString("garbage")
	require.Equal(t, 4, h.Live())

	stats := h.Collect([]value.Value{value.FromRef(keep), value.Number(3), value.Undefined()})
	require.Equal(t, 2, stats.Freed)
	require.Equal(t, 2, stats.Live)
	require.Equal(t, 2, h.Live())
	require.Equal(t, 1, h.Collections())

	_, ok := h.Get(garbage)
	require.False(t, ok)
	_, ok = h.Get(garbageStr)
	require.False(t, ok)
	s, ok := h.String(child)
	require.True(t, ok)
	require.Equal(t, "child", s)

	// A freed string is no longer interned and its slot is reused.
	again := h.AllocString("garbage")
	require.Contains(t, []Ref{garbage, garbageStr}, again)
	s, _ = h.String(again)
	require.Equal(t, "garbage", s)
}

func TestCollectTracesNestedValues(t *testing.T) {
	h := New()
	inner := h.AllocString("deep")
	arr := h.AllocArray([]value.Value{value.FromRef(inner)})
	closed := h.AllocObject()
	cl := h.Allocate(&Closure{
		Name: "f",
		Upvalues: []*Upvalue{
			{Closed: value.FromRef(arr)},
			{Open: true, Index: 4, Closed: value.FromRef(closed)},
		},
	})

	h.Collect([]value.Value{value.FromRef(cl)})
	_, ok := h.Get(inner)
	require.True(t, ok)
	_, ok = h.Get(arr)
	require.True(t, ok)
	_, ok = h.Get(closed)
	require.False(t, ok, "open upvalues are traced through registers, not Closed")
}

func TestCollectKeepsConstructor(t *testing.T) {
	h := New()
	ctor := h.Allocate(&Closure{Name: "Point"})
	obj := h.Allocate(&Object{Constructor: ctor})

	h.Collect([]value.Value{value.FromRef(obj)})
	_, ok := h.Get(ctor)
	require.True(t, ok)

	plain := h.AllocObject()
	h.Collect([]value.Value{value.FromRef(plain)})
	require.Equal(t, 1, h.Live())
}

func TestCollectHandlesCycles(t *testing.T) {
	h := New()
	a := h.AllocObject()
	b := h.AllocObject()
	pa, _ := h.Props(a)
	pb, _ := h.Props(b)
	pa.Set("b", value.FromRef(b))
	pb.Set("a", value.FromRef(a))

	h.Collect([]value.Value{value.FromRef(a)})
	require.Equal(t, 2, h.Live())

	h.Collect(nil)
	require.Equal(t, 0, h.Live())
	require.Equal(t, 0, h.Bytes())
}

func TestShouldCollect(t *testing.T) {
	h := New(WithThreshold(100))
	require.False(t, h.ShouldCollect())
	for i := 0; i < 10; i++ {
		h.AllocObject()
	}
	require.True(t, h.ShouldCollect())
	h.Collect(nil)
	require.False(t, h.ShouldCollect())
}

func TestPropertyMapOrder(t *testing.T) {
	var m PropertyMap
	m.Set("b", value.Number(1))
	m.Set("a", value.Number(2))
	m.Set("c", value.Number(3))
	m.Set("b", value.Number(4))
	require.Equal(t, []string{"b", "a", "c"}, m.Keys())
	require.Equal(t, 3, m.Len())

	require.True(t, m.Delete("a"))
	require.False(t, m.Delete("a"))
	require.Equal(t, []string{"b", "c"}, m.Keys())
	v, ok := m.Get("c")
	require.True(t, ok)
	require.Equal(t, value.Number(3), v)
	v, _ = m.Get("b")
	require.Equal(t, value.Number(4), v)
	require.False(t, m.Has("a"))

	var seen []string
	m.Range(func(k string, _ value.Value) bool {
		seen = append(seen, k)
		return false
	})
	require.Equal(t, []string{"b"}, seen)

	_, ok = m.Get("missing")
	require.False(t, ok)
}

func TestKindString(t *testing.T) {
	require.Equal(t, "string", StringKind.String())
	require.Equal(t, "closure", ClosureKind.String())
	require.Equal(t, "unknown", Kind(42).String())
}
