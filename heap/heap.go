// Package heap stores the reference-typed values of the jsbox VM.
//
// Objects are addressed by a Ref, a 32-bit slot index that value.Value
// embeds. The heap interns strings, so string equality can be decided by
// comparing references. Memory is reclaimed by a mark-sweep collector that
// the VM runs between instructions; freed slots are reused through a free
// list.
package heap

import (
	"fmt"

	"github.com/deepnoodle-ai/jsbox/value"
)

// Ref is the slot index of a heap object.
type Ref = value.Ref

// NilRef never refers to a live object.
const NilRef = value.NilRef

// DefaultThreshold is the number of allocated bytes that triggers the first
// collection.
const DefaultThreshold = 4 << 20

// Option configures a Heap.
type Option func(*Heap)

// WithThreshold sets the allocation volume, in bytes, after which
// ShouldCollect reports true.
func WithThreshold(bytes int) Option {
	return func(h *Heap) {
		if bytes > 0 {
			h.baseThreshold = bytes
			h.threshold = bytes
		}
	}
}

// Stats describes the outcome of a collection.
type Stats struct {
	Freed       int
	Live        int
	BytesBefore int
	BytesAfter  int
}

// Heap owns every reference-typed value of one VM. It is not safe for
// concurrent use.
type Heap struct {
	objects       []GcObject
	marks         []bool
	free          []Ref
	strings       map[string]Ref
	live          int
	bytes         int
	threshold     int
	baseThreshold int
	collections   int
}

// New returns an empty heap.
func New(opts ...Option) *Heap {
	h := &Heap{
		strings:       make(map[string]Ref),
		threshold:     DefaultThreshold,
		baseThreshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// AllocString returns a reference to a string with the given contents,
// reusing the existing string if one is live.
func (h *Heap) AllocString(s string) Ref {
	if ref, ok := h.strings[s]; ok {
		return ref
	}
	ref := h.store(&String{Value: s})
	h.strings[s] = ref
	return ref
}

// AllocObject allocates an empty plain object.
func (h *Heap) AllocObject() Ref {
	return h.store(&Object{Constructor: NilRef})
}

// AllocArray allocates an array holding elems. The slice is owned by the
// heap afterwards.
func (h *Heap) AllocArray(elems []value.Value) Ref {
	return h.store(&Array{Elements: elems})
}

// Allocate stores obj and returns its reference. Strings are interned.
func (h *Heap) Allocate(obj GcObject) Ref {
	if s, ok := obj.(*String); ok {
		return h.AllocString(s.Value)
	}
	return h.store(obj)
}

func (h *Heap) store(obj GcObject) Ref {
	h.live++
	h.bytes += obj.size()
	if n := len(h.free); n > 0 {
		ref := h.free[n-1]
		h.free = h.free[:n-1]
		h.objects[ref] = obj
		return ref
	}
	if uint64(len(h.objects)) >= uint64(NilRef) {
		panic("heap: out of object slots")
	}
	ref := Ref(len(h.objects))
	h.objects = append(h.objects, obj)
	h.marks = append(h.marks, false)
	return ref
}

// Get returns the object for ref, or false if ref is not live.
func (h *Heap) Get(ref Ref) (GcObject, bool) {
	if uint64(ref) >= uint64(len(h.objects)) {
		return nil, false
	}
	obj := h.objects[ref]
	return obj, obj != nil
}

// MustGet returns the object for ref and panics if it is not live.
func (h *Heap) MustGet(ref Ref) GcObject {
	obj, ok := h.Get(ref)
	if !ok {
		panic(fmt.Sprintf("heap: dangling reference %d", ref))
	}
	return obj
}

// String returns the contents of the string at ref.
func (h *Heap) String(ref Ref) (string, bool) {
	obj, ok := h.Get(ref)
	if !ok {
		return "", false
	}
	s, ok := obj.(*String)
	if !ok {
		return "", false
	}
	return s.Value, true
}

// Props returns the property map of an object, function or closure.
func (h *Heap) Props(ref Ref) (*PropertyMap, bool) {
	obj, ok := h.Get(ref)
	if !ok {
		return nil, false
	}
	switch obj := obj.(type) {
	case *Object:
		return &obj.Props, true
	case *Function:
		return &obj.Props, true
	case *Closure:
		return &obj.Props, true
	default:
		return nil, false
	}
}

// Live returns the number of live objects.
func (h *Heap) Live() int {
	return h.live
}

// Bytes returns the estimated number of bytes allocated since the last
// collection plus the size of the objects that survived it.
func (h *Heap) Bytes() int {
	return h.bytes
}

// Collections returns the number of completed collections.
func (h *Heap) Collections() int {
	return h.collections
}

// ShouldCollect reports whether enough has been allocated since the last
// collection to make another worthwhile.
func (h *Heap) ShouldCollect() bool {
	return h.bytes >= h.threshold
}

// Collect frees every object not reachable from roots.
func (h *Heap) Collect(roots []value.Value) Stats {
	stats := Stats{BytesBefore: h.bytes}
	var work []Ref
	mark := func(v value.Value) {
		if !v.IsRef() {
			return
		}
		ref := v.AsRef()
		if uint64(ref) >= uint64(len(h.objects)) || h.objects[ref] == nil || h.marks[ref] {
			return
		}
		h.marks[ref] = true
		work = append(work, ref)
	}
	for _, v := range roots {
		mark(v)
	}
	for len(work) > 0 {
		ref := work[len(work)-1]
		work = work[:len(work)-1]
		h.objects[ref].trace(mark)
	}

	h.bytes = 0
	for i, obj := range h.objects {
		if obj == nil {
			continue
		}
		if h.marks[i] {
			h.marks[i] = false
			h.bytes += obj.size()
			continue
		}
		if s, ok := obj.(*String); ok {
			delete(h.strings, s.Value)
		}
		h.objects[i] = nil
		h.free = append(h.free, Ref(i))
		h.live--
		stats.Freed++
	}
	h.threshold = max(h.baseThreshold, 2*h.bytes)
	h.collections++
	stats.Live = h.live
	stats.BytesAfter = h.bytes
	return stats
}
