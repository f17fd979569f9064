// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package variant

import (
	"github.com/hostbind/hostbind/pkg/sys"
)

// refCountedBit marks instance IDs of reference-counted objects.
const refCountedBit = uint64(1) << 63

type objectRef struct {
	ptr sys.ObjectPtr
	id  uint64
}

func (r objectRef) refCounted() bool {
	return r.ptr != 0 && r.id&refCountedBit != 0
}

// initRef takes the first reference through init_ref, which absorbs the
// initial count of a freshly constructed object.
func (r objectRef) initRef() {
	if r.refCounted() {
		sys.Get().ObjectInitRef(r.ptr)
	}
}

func (r objectRef) acquire() {
	if r.refCounted() {
		sys.Get().ObjectReference(r.ptr)
	}
}

func (r objectRef) release() {
	if !r.refCounted() {
		return
	}
	host := sys.Get()
	if host.ObjectUnreference(r.ptr) {
		host.ObjectDestroy(r.ptr)
	}
}

// FromObjectPtr wraps a host object, taking a new reference when the object
// is reference-counted. A zero ptr yields an Object variant holding null.
func FromObjectPtr(ptr sys.ObjectPtr) Variant {
	if ptr == 0 {
		return Variant{typ: sys.VariantObject, val: objectRef{}}
	}
	ref := objectRef{ptr: ptr, id: sys.Get().ObjectGetInstanceID(ptr)}
	ref.initRef()
	return Variant{typ: sys.VariantObject, val: ref}
}

// ObjectPtr returns the held object and its instance ID. The variant keeps
// its reference; callers that retain the pointer must take their own.
func (v Variant) ObjectPtr() (sys.ObjectPtr, uint64, bool) {
	if v.typ != sys.VariantObject {
		return 0, 0, false
	}
	ref := v.val.(objectRef)
	return ref.ptr, ref.id, true
}

// ObjectIsAlive reports whether the held object still resolves through its
// instance ID. It is false for non-object variants and for null.
func (v Variant) ObjectIsAlive() bool {
	ptr, id, ok := v.ObjectPtr()
	if !ok || ptr == 0 {
		return false
	}
	return sys.Get().ObjectGetInstanceFromID(id) == ptr
}
