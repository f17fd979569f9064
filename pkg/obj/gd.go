// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

// Package obj implements handles to host objects.
//
// A Gd[T] is a reference to a host object statically typed as T. Handles of
// reference-counted classes own one reference each: Clone takes another and
// Drop gives it back, destroying the object on the last one. Handles of
// manually managed classes never touch a count; the object lives until Free,
// after which every other handle to it is dangling. Dangling handles are
// detected by re-resolving the instance ID before use in checked builds.
//
// Go has no destructors, so Drop is explicit. The zero Gd[T] is a null handle.
package obj

import (
	"github.com/hostbind/hostbind/pkg/sys"
)

// Gd is a handle to a host object of static class T.
type Gd[T Class] struct {
	raw *RawGd
}

func wrap[T Class](raw *RawGd) Gd[T] {
	return Gd[T]{raw: raw}
}

func (g Gd[T]) core() *RawGd {
	if g.raw == nil {
		return nullRaw(infoOf[T]())
	}
	return g.raw
}

// Null returns a null handle of type T.
func Null[T Class]() Gd[T] {
	return wrap[T](nullRaw(infoOf[T]()))
}

// FromObjPtrWeak wraps a pointer the caller already holds a reference for,
// such as a value the host returned with ownership transferred. No reference
// is taken. A zero pointer, or one whose ID lookup yields zero, gives a null
// handle.
func FromObjPtrWeak[T Class](ptr sys.ObjectPtr) Gd[T] {
	return wrap[T](rawWeak(ptr, infoOf[T]()))
}

// FromObjPtr wraps a pointer and takes a new reference for reference-counted
// objects. Use it for pointers the host merely lends, such as arguments of
// an inbound call.
func FromObjPtr[T Class](ptr sys.ObjectPtr) Gd[T] {
	return wrap[T](rawStrong(ptr, infoOf[T]()))
}

// New constructs a fresh object of class T through the host.
func New[T Class]() Gd[T] {
	info := infoOf[T]()
	ptr := sys.Get().ClassDBConstructObject(string(info.name))
	if ptr == 0 {
		panic("failed to construct object of class " + string(info.name))
	}
	return wrap[T](rawStrong(ptr, info))
}

// FromInstanceID resolves a live object by ID. It panics when the ID no
// longer resolves or the object is not a T.
func FromInstanceID[T Class](id InstanceID) Gd[T] {
	g, err := TryFromInstanceID[T](id)
	if err != nil {
		panic(err)
	}
	return g
}

// TryFromInstanceID resolves a live object by ID and casts it to T.
func TryFromInstanceID[T Class](id InstanceID) (Gd[T], error) {
	ptr := id.Lookup()
	if ptr == 0 {
		return Gd[T]{}, &DeadObjectError{Class: infoOf[T]().name, Method: "from_instance_id", ID: id}
	}
	g := FromObjPtr[anyObject](ptr)
	out, err := TryCast[T](g)
	if err != nil {
		g.Drop()
		return Gd[T]{}, err
	}
	return out, nil
}

// Raw exposes the untyped handle for binding code.
func (g Gd[T]) Raw() *RawGd {
	return g.core()
}

// IsNull reports whether the handle names no object.
func (g Gd[T]) IsNull() bool {
	return g.core().IsNull()
}

// IsAlive reports whether the object still exists. It is independent of
// IsNull: a non-null handle is dangling once the object has been freed.
func (g Gd[T]) IsAlive() bool {
	return g.core().IsAlive()
}

// InstanceID returns the object's ID. It panics on a null handle and, in
// checked builds, on a dead one.
func (g Gd[T]) InstanceID() InstanceID {
	raw := g.core()
	raw.CheckedPtr(string(raw.info.name), "instance_id")
	return raw.rtti.id
}

// InstanceIDUnchecked returns the cached ID without checking liveness.
func (g Gd[T]) InstanceIDUnchecked() (InstanceID, bool) {
	raw := g.core()
	if raw.rtti == nil {
		return 0, false
	}
	return raw.rtti.id, true
}

// Ptr returns the raw pointer without validation.
func (g Gd[T]) Ptr() sys.ObjectPtr {
	return g.core().ptr
}

// Clone returns a second handle to the same object. For reference-counted
// objects it takes a reference.
func (g Gd[T]) Clone() Gd[T] {
	return wrap[T](g.core().clone())
}

// Drop releases the handle. For reference-counted objects it gives back the
// reference and destroys the object when it was the last one; for manually
// managed objects it does nothing to the object. Dropping twice panics.
func (g Gd[T]) Drop() {
	if g.raw == nil {
		return
	}
	g.raw.drop()
}

// Free destroys a manually managed object. Every other handle to it becomes
// dangling. It panics for reference-counted objects and for objects that are
// already gone.
func (g Gd[T]) Free() {
	g.core().free()
}

// ReferenceCount returns the host reference count, or -1 for objects that
// are not reference-counted.
func (g Gd[T]) ReferenceCount() int32 {
	raw := g.core()
	raw.CheckedPtr(string(raw.info.name), "get_reference_count")
	if !raw.info.mem.IsRefCounted(raw.rtti.id) {
		return -1
	}
	fn := sys.Get().ObjectGetReferenceCount
	if fn == nil {
		return -1
	}
	return fn(raw.ptr)
}

// DynamicClass asks the host for the object's actual class.
func (g Gd[T]) DynamicClass() ClassName {
	raw := g.core()
	ptr := raw.CheckedPtr(string(raw.info.name), "get_class")
	fn := sys.Get().ObjectGetClassName
	if fn == nil {
		return raw.info.name
	}
	return ClassName(fn(ptr))
}

func (g Gd[T]) String() string {
	return g.core().String()
}

// Deref builds the method receiver of an engine class for a live handle.
// It panics on a null handle.
func Deref[T Engine[T]](g Gd[T]) T {
	raw := g.core()
	raw.checkUsable("deref")
	if raw.rtti == nil {
		panic(&NullObjectError{Class: raw.info.name, Method: "deref"})
	}
	var zero T
	return zero.FromRaw(raw)
}
