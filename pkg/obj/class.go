// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package obj

import (
	"sync"

	"github.com/hostbind/hostbind/pkg/sys"
)

// ClassName is the name of a class in the host class database.
type ClassName string

// Class is implemented by every type a handle can be parameterized with.
// Methods must work on the zero value: they describe the type, not an object.
type Class interface {
	ClassName() ClassName
	// Inherits names the direct base class; empty for the root class.
	Inherits() ClassName
	Memory() Memory
}

// Engine is implemented by host classes whose methods operate on a handle.
// FromRaw builds the method receiver for a live handle.
type Engine[T any] interface {
	Class
	FromRaw(raw *RawGd) T
}

// staticInfo is the per-type information a handle needs.
type staticInfo struct {
	name ClassName
	base ClassName
	mem  Memory
}

func infoOf[T Class]() staticInfo {
	var zero T
	return staticInfo{name: zero.ClassName(), base: zero.Inherits(), mem: zero.Memory()}
}

type tagKey struct {
	host *sys.Interface
	name ClassName
}

var tagCache sync.Map

// ClassTag resolves the host tag of a class, caching it per loaded host.
func ClassTag(name ClassName) sys.ClassTag {
	host := sys.Get()
	key := tagKey{host: host, name: name}
	if tag, ok := tagCache.Load(key); ok {
		return tag.(sys.ClassTag)
	}
	tag := host.ClassDBGetClassTag(string(name))
	if tag != 0 {
		tagCache.Store(key, tag)
	}
	return tag
}

// InheritsFrom reports whether class derives from (or is) base according to
// the host class database. A host without the parent lookup proves only
// class == base.
func InheritsFrom(class, base ClassName) bool {
	if class == base {
		return true
	}
	host := sys.Get()
	if host.ClassDBGetParentClass == nil {
		return false
	}
	for c := class; c != ""; c = ClassName(host.ClassDBGetParentClass(string(c))) {
		if c == base {
			return true
		}
	}
	return false
}

// IsInstanceOf asks the host whether the object at ptr is a class. It uses
// the required cast entry point, so it never trusts a missing lookup.
func IsInstanceOf(ptr sys.ObjectPtr, class ClassName) bool {
	if ptr == 0 {
		return false
	}
	tag := ClassTag(class)
	return tag != 0 && sys.Get().ObjectCastTo(ptr, tag) != 0
}
