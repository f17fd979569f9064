// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package obj

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/samber/oops"

	"github.com/hostbind/hostbind/pkg/cell"
	"github.com/hostbind/hostbind/pkg/sys"
)

// InstanceStorage holds the extension-side state of one object of an
// extension class. The host refers to it by an opaque InstanceHandle.
type InstanceStorage[T any] struct {
	cell      *cell.Cell[T]
	base      sys.ObjectPtr
	class     ClassName
	handle    sys.InstanceHandle
	destroyed atomic.Bool
}

// Cell exposes the borrow cell guarding the instance.
func (s *InstanceStorage[T]) Cell() *cell.Cell[T] {
	return s.cell
}

// Base returns the host object the instance is attached to.
func (s *InstanceStorage[T]) Base() sys.ObjectPtr {
	return s.base
}

// Handle returns the token the host stores for this instance.
func (s *InstanceStorage[T]) Handle() sys.InstanceHandle {
	return s.handle
}

// handleTable maps instance handles to storages. Handles are never reused.
type handleTable struct {
	mu   sync.RWMutex
	m    map[sys.InstanceHandle]any
	next atomic.Uintptr
}

var storages = &handleTable{m: make(map[sys.InstanceHandle]any)}

func (t *handleTable) register(v any) sys.InstanceHandle {
	h := sys.InstanceHandle(t.next.Add(1))
	t.mu.Lock()
	t.m[h] = v
	t.mu.Unlock()
	return h
}

func (t *handleTable) lookup(h sys.InstanceHandle) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.m[h]
	return v, ok
}

func (t *handleTable) unregister(h sys.InstanceHandle) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.m[h]
	delete(t.m, h)
	return v, ok
}

// LiveInstances returns the number of attached extension instances.
func LiveInstances() int {
	storages.mu.RLock()
	defer storages.mu.RUnlock()
	return len(storages.m)
}

// AttachInstance stores value as the extension instance of the freshly
// constructed host object ptr and tells the host about it.
func AttachInstance[T Class](ptr sys.ObjectPtr, value T) *InstanceStorage[T] {
	info := infoOf[T]()
	st := &InstanceStorage[T]{cell: cell.New(value), base: ptr, class: info.name}
	st.handle = storages.register(st)

	host := sys.Get()
	if host.ObjectSetInstance != nil {
		host.ObjectSetInstance(ptr, string(info.name), st.handle)
	}
	if host.ObjectSetInstanceBinding != nil {
		host.ObjectSetInstanceBinding(ptr, sys.Library(), st.handle)
	}
	return st
}

// DetachInstance forgets the storage behind h. The host calls it through
// the class's free callback when the object is destroyed.
func DetachInstance(h sys.InstanceHandle) bool {
	v, ok := storages.unregister(h)
	if !ok {
		return false
	}
	if d, ok := v.(interface{ markDestroyed() }); ok {
		d.markDestroyed()
	}
	return true
}

func (s *InstanceStorage[T]) markDestroyed() {
	s.destroyed.Store(true)
}

// StorageOf resolves the storage behind an instance handle.
func StorageOf[T Class](h sys.InstanceHandle) (*InstanceStorage[T], error) {
	v, ok := storages.lookup(h)
	if !ok {
		return nil, oops.In("obj").Code("INSTANCE_MISSING").
			With("handle", uint64(h)).
			Errorf("no extension instance for handle %d", uint64(h))
	}
	st, ok := v.(*InstanceStorage[T])
	if !ok {
		return nil, oops.In("obj").Code("INSTANCE_TYPE").
			With("handle", uint64(h)).
			With("class", string(infoOf[T]().name)).
			Errorf("extension instance %d is not a %s", uint64(h), infoOf[T]().name)
	}
	return st, nil
}

// storage returns the instance storage of an extension object, caching the
// handle in the RawGd on first use.
func storageFor[T Class](raw *RawGd, op string) (*InstanceStorage[T], error) {
	ptr := raw.CheckedPtr(string(raw.info.name), op)
	h := sys.InstanceHandle(raw.instance.Load())
	if h == 0 {
		fn := sys.Get().ObjectGetInstanceBinding
		if fn != nil {
			h = fn(ptr, sys.Library())
		}
		if h == 0 {
			return nil, oops.In("obj").Code("NOT_EXTENSION_CLASS").
				With("class", string(raw.info.name)).
				Errorf("Gd<%s>::%s: object has no extension instance", raw.info.name, op)
		}
		raw.instance.CompareAndSwap(0, uintptr(h))
	}
	return StorageOf[T](h)
}

// TryBind takes a shared borrow of the extension instance behind g.
func (g Gd[T]) TryBind() (*cell.Ref[T], error) {
	st, err := storageFor[T](g.core(), "bind")
	if err != nil {
		return nil, err
	}
	return st.cell.Borrow()
}

// TryBindMut takes an exclusive borrow of the extension instance behind g.
func (g Gd[T]) TryBindMut() (*cell.MutRef[T], error) {
	st, err := storageFor[T](g.core(), "bind_mut")
	if err != nil {
		return nil, err
	}
	return st.cell.BorrowMut()
}

// Bind is TryBind that panics when the instance cannot be borrowed.
func (g Gd[T]) Bind() *cell.Ref[T] {
	ref, err := g.TryBind()
	if err != nil {
		panic(fmt.Sprintf("Gd<%s>::bind failed: %v", g.core().info.name, err))
	}
	return ref
}

// BindMut is TryBindMut that panics when the instance cannot be borrowed.
func (g Gd[T]) BindMut() *cell.MutRef[T] {
	ref, err := g.TryBindMut()
	if err != nil {
		panic(fmt.Sprintf("Gd<%s>::bind_mut failed: %v", g.core().info.name, err))
	}
	return ref
}

// Base is the non-owning view an extension instance keeps of the host object
// it extends. It is valid for as long as the instance exists.
type Base struct {
	raw *RawGd
}

// NewBase wraps the host object an extension instance is being attached to.
func NewBase(ptr sys.ObjectPtr, class ClassName, mem Memory) Base {
	return Base{raw: rawWeak(ptr, staticInfo{name: class, mem: mem})}
}

// Raw returns the underlying handle for engine method calls. It must not be dropped.
func (b Base) Raw() *RawGd {
	return b.raw
}

// Ptr returns the host object pointer.
func (b Base) Ptr() sys.ObjectPtr {
	return b.raw.ptr
}

// BaseAs views the base object through engine class B's methods.
func BaseAs[B Engine[B]](b Base) B {
	var zero B
	return zero.FromRaw(b.raw)
}

// BaseToGd returns an owning handle to the base object typed as T.
func BaseToGd[T Class](b Base) Gd[T] {
	return FromObjPtr[T](b.raw.ptr)
}
