// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package obj

import (
	"github.com/hostbind/hostbind/pkg/sys"
)

// Memory is the ownership strategy of a class category. It is chosen per
// class and never changes at runtime; the implementations are MemManual,
// MemRefCounted and MemDynamic.
type Memory interface {
	// IsRefCounted reports whether the object behind id is reference-counted.
	IsRefCounted(id InstanceID) bool
	String() string

	initRef(ptr sys.ObjectPtr, id InstanceID)
	incRef(ptr sys.ObjectPtr, id InstanceID)
	// decRef returns true when the last reference was released.
	decRef(ptr sys.ObjectPtr, id InstanceID) bool
}

// MemManual is the strategy of manually managed classes: handles never touch
// a reference count and the object lives until it is freed.
type MemManual struct{}

// IsRefCounted is always false.
func (MemManual) IsRefCounted(InstanceID) bool { return false }

func (MemManual) String() string { return "manual" }

func (MemManual) initRef(sys.ObjectPtr, InstanceID) {}

func (MemManual) incRef(sys.ObjectPtr, InstanceID) {}

func (MemManual) decRef(sys.ObjectPtr, InstanceID) bool { return false }

// MemRefCounted is the strategy of reference-counted classes: clone
// increments, drop decrements and the last drop destroys.
type MemRefCounted struct{}

// IsRefCounted is always true.
func (MemRefCounted) IsRefCounted(InstanceID) bool { return true }

func (MemRefCounted) String() string { return "ref-counted" }

func (MemRefCounted) initRef(ptr sys.ObjectPtr, _ InstanceID) {
	if !sys.Get().ObjectInitRef(ptr) {
		panic("init_ref failed on reference-counted object")
	}
}

func (MemRefCounted) incRef(ptr sys.ObjectPtr, _ InstanceID) {
	if !sys.Get().ObjectReference(ptr) {
		panic("reference failed on reference-counted object")
	}
}

func (MemRefCounted) decRef(ptr sys.ObjectPtr, _ InstanceID) bool {
	return sys.Get().ObjectUnreference(ptr)
}

// MemDynamic is the strategy of the root Object class, whose handles may
// point at either category. The decision is taken per instance from the ID.
type MemDynamic struct{}

// IsRefCounted inspects the ID.
func (MemDynamic) IsRefCounted(id InstanceID) bool { return id.IsRefCounted() }

func (MemDynamic) String() string { return "dynamic" }

func (MemDynamic) initRef(ptr sys.ObjectPtr, id InstanceID) {
	if id.IsRefCounted() {
		MemRefCounted{}.initRef(ptr, id)
	}
}

func (MemDynamic) incRef(ptr sys.ObjectPtr, id InstanceID) {
	if id.IsRefCounted() {
		MemRefCounted{}.incRef(ptr, id)
	}
}

func (MemDynamic) decRef(ptr sys.ObjectPtr, id InstanceID) bool {
	if id.IsRefCounted() {
		return MemRefCounted{}.decRef(ptr, id)
	}
	return false
}
