// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package obj

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/hostbind/hostbind/pkg/sys"
)

// ObjectRtti is the identity recorded when a handle is constructed. Class is
// the static type of the handle, which may be an ancestor of the dynamic type.
type ObjectRtti struct {
	id    InstanceID
	class ClassName
}

// InstanceID returns the recorded identity.
func (r *ObjectRtti) InstanceID() InstanceID { return r.id }

// Class returns the static class the handle was constructed as.
func (r *ObjectRtti) Class() ClassName { return r.class }

// RawGd is the untyped core of a handle. The pointer and identity never
// change after construction; only the instance handle of extension classes
// is filled in lazily, at most once.
type RawGd struct {
	ptr      sys.ObjectPtr
	rtti     *ObjectRtti
	info     staticInfo
	instance atomic.Uintptr
	dropped  atomic.Bool
}

func nullRaw(info staticInfo) *RawGd {
	return &RawGd{info: info}
}

// rawWeak wraps ptr without touching the reference count.
func rawWeak(ptr sys.ObjectPtr, info staticInfo) *RawGd {
	if ptr == 0 {
		return nullRaw(info)
	}
	id, ok := TryFromUint64(sys.Get().ObjectGetInstanceID(ptr))
	if !ok {
		return nullRaw(info)
	}
	return &RawGd{ptr: ptr, rtti: &ObjectRtti{id: id, class: info.name}, info: info}
}

// rawStrong wraps ptr and takes a reference for reference-counted objects.
func rawStrong(ptr sys.ObjectPtr, info staticInfo) *RawGd {
	r := rawWeak(ptr, info)
	if r.rtti != nil {
		info.mem.initRef(r.ptr, r.rtti.id)
		recordHandleOp("acquire")
	}
	return r
}

// IsNull reports whether the handle names no object.
func (r *RawGd) IsNull() bool {
	return r.rtti == nil
}

// IsAlive re-resolves the identity. A null handle is never alive; a non-null
// handle is alive only while its ID still resolves to the same object.
func (r *RawGd) IsAlive() bool {
	if r.rtti == nil {
		return false
	}
	return r.rtti.id.Lookup() == r.ptr
}

// Rtti returns the recorded identity, or nil for a null handle.
func (r *RawGd) Rtti() *ObjectRtti {
	return r.rtti
}

// StaticClass returns the class the handle was typed as.
func (r *RawGd) StaticClass() ClassName {
	return r.info.name
}

// Memory returns the ownership strategy of the static class.
func (r *RawGd) Memory() Memory {
	return r.info.mem
}

// Ptr returns the raw pointer without any validation.
func (r *RawGd) Ptr() sys.ObjectPtr {
	return r.ptr
}

// CheckedPtr returns the pointer for a call of method on class. It panics on
// a null or dropped handle, and in checked builds on a dead one.
func (r *RawGd) CheckedPtr(class, method string) sys.ObjectPtr {
	if r.dropped.Load() {
		panic(fmt.Sprintf("%s::%s: use of handle after it was dropped", class, method))
	}
	if r.rtti == nil {
		panic(&NullObjectError{Class: ClassName(class), Method: method})
	}
	if sys.Checked && !r.IsAlive() {
		panic(&DeadObjectError{Class: ClassName(class), Method: method, ID: r.rtti.id})
	}
	return r.ptr
}

// checkUsable validates the handle for a local operation. Null handles pass.
func (r *RawGd) checkUsable(op string) {
	if r.dropped.Load() {
		panic(fmt.Sprintf("Gd<%s>::%s: use of handle after it was dropped", r.info.name, op))
	}
	if r.rtti != nil && sys.Checked && !r.IsAlive() {
		panic(&DeadObjectError{Class: r.info.name, Method: op, ID: r.rtti.id})
	}
}

func (r *RawGd) clone() *RawGd {
	r.checkUsable("clone")
	out := &RawGd{ptr: r.ptr, rtti: r.rtti, info: r.info}
	out.instance.Store(r.instance.Load())
	if r.rtti != nil {
		r.info.mem.incRef(r.ptr, r.rtti.id)
		recordHandleOp("clone")
	}
	return out
}

func (r *RawGd) drop() {
	if !r.dropped.CompareAndSwap(false, true) {
		panic(fmt.Sprintf("Gd<%s>::drop: handle dropped twice", r.info.name))
	}
	if r.rtti == nil {
		return
	}
	recordHandleOp("drop")
	id := r.rtti.id
	if !r.info.mem.IsRefCounted(id) {
		return
	}
	if r.info.mem.decRef(r.ptr, id) {
		slog.Debug("last reference released, destroying object",
			"class", string(r.info.name), "instance_id", uint64(id))
		sys.Get().ObjectDestroy(r.ptr)
		recordHandleOp("destroy")
	}
}

func (r *RawGd) free() {
	if r.dropped.Load() {
		panic(fmt.Sprintf("Gd<%s>::free: use of handle after it was dropped", r.info.name))
	}
	if r.rtti == nil {
		panic(&NullObjectError{Class: r.info.name, Method: "free"})
	}
	id := r.rtti.id
	if r.info.mem.IsRefCounted(id) {
		dynamic := sys.Get().ObjectGetClassName
		name := "RefCounted"
		if dynamic != nil && r.IsAlive() {
			name = dynamic(r.ptr)
		}
		panic(fmt.Sprintf("called free() on Gd<%s> which points to a reference-counted dynamic type %s; "+
			"free() is only supported for manually managed types", r.info.name, name))
	}
	if !r.IsAlive() {
		panic(fmt.Sprintf("called free() on already destroyed object (instance ID %d)", uint64(id)))
	}
	r.dropped.Store(true)
	slog.Debug("freeing object", "class", string(r.info.name), "instance_id", uint64(id))
	sys.Get().ObjectDestroy(r.ptr)
	recordHandleOp("free")
}

// castTo performs the host type check against target. On success the new
// handle takes over this handle's reference and this handle is consumed.
func (r *RawGd) castTo(target staticInfo) (*RawGd, *CastError) {
	r.checkUsable("cast")
	if r.rtti == nil {
		r.dropped.Store(true)
		return nullRaw(target), nil
	}
	tag := ClassTag(target.name)
	casted := sys.ObjectPtr(0)
	if tag != 0 {
		casted = sys.Get().ObjectCastTo(r.ptr, tag)
	}
	if casted == 0 {
		dynamic := ClassName("")
		if fn := sys.Get().ObjectGetClassName; fn != nil {
			dynamic = ClassName(fn(r.ptr))
		}
		return nil, &CastError{ID: r.rtti.id, Dynamic: dynamic, Target: target.name}
	}
	out := &RawGd{ptr: casted, rtti: &ObjectRtti{id: r.rtti.id, class: target.name}, info: target}
	out.instance.Store(r.instance.Load())
	r.dropped.Store(true)
	recordHandleOp("cast")
	return out, nil
}

func (r *RawGd) String() string {
	if r.rtti == nil {
		return fmt.Sprintf("Gd<%s>(null)", r.info.name)
	}
	return fmt.Sprintf("Gd<%s>(#%d)", r.info.name, uint64(r.rtti.id))
}
