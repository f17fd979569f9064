// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package enginesim

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hostbind/hostbind/pkg/sys"
	"github.com/hostbind/hostbind/pkg/variant"
)

type object struct {
	ptr        sys.ObjectPtr
	id         uint64
	refCounted bool

	// A fresh reference-counted object starts at one with its first
	// init_ref pending; that call takes over the initial reference.
	refCount    atomic.Int32
	initPending atomic.Bool

	mu       sync.Mutex
	class    *class
	instance sys.InstanceHandle
	bindings map[sys.LibraryToken]sys.InstanceHandle
	meta     *variant.Dictionary
	props    map[string]variant.Variant

	// Guarded by Engine.tree.
	parent   *object
	children []*object
}

func (o *object) cls() *class {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.class
}

func (o *object) className() string {
	return o.cls().name
}

func (o *object) prop(name string) (variant.Variant, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	v, ok := o.props[name]
	if !ok {
		return variant.Nil(), false
	}
	return v.Clone(), true
}

// setProp stores a copy of v.
func (o *object) setProp(name string, v variant.Variant) {
	o.mu.Lock()
	old, had := o.props[name]
	if o.props != nil {
		o.props[name] = v.Clone()
	}
	o.mu.Unlock()
	if had {
		old.Release()
	}
}

func (e *Engine) lookup(ptr sys.ObjectPtr) *object {
	if ptr == 0 {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.objects[ptr]
}

func (e *Engine) newObject(c *class) *object {
	e.mu.Lock()
	e.nextPtr += 0x10
	ptr := sys.ObjectPtr(e.nextPtr)
	id := e.forceID
	e.forceID = 0
	for id == 0 || e.issued[id] {
		e.nextID++
		id = e.nextID
	}
	e.issued[id] = true
	if c.refCounted {
		id |= refCountedBit
	}
	o := &object{
		ptr:        ptr,
		id:         id,
		refCounted: c.refCounted,
		class:      c,
		props:      make(map[string]variant.Variant),
	}
	if c.refCounted {
		o.refCount.Store(1)
		o.initPending.Store(true)
	}
	e.objects[ptr] = o
	e.byID[id] = o
	e.mu.Unlock()

	e.stats.constructed.Add(1)
	e.logger.Debug("object constructed", "component", "enginesim",
		"class", c.name, "instance_id", id, "ptr", fmt.Sprintf("%#x", uintptr(ptr)))
	return o
}

func (e *Engine) construct(name string) sys.ObjectPtr {
	c := e.classByName(name)
	if c == nil {
		e.logger.Error("cannot construct unknown class", "component", "enginesim", "class", name)
		return 0
	}
	if c.abstract {
		e.logger.Error("cannot construct abstract class", "component", "enginesim", "class", name)
		return 0
	}
	if c.ext != nil && c.ext.CreateInstance != nil {
		return c.ext.CreateInstance()
	}
	return e.newObject(c).ptr
}

func (e *Engine) instanceID(ptr sys.ObjectPtr) uint64 {
	if o := e.lookup(ptr); o != nil {
		return o.id
	}
	return 0
}

func (e *Engine) instanceFromID(id uint64) sys.ObjectPtr {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if o, ok := e.byID[id]; ok {
		return o.ptr
	}
	return 0
}

// destroy removes an object. Destroying something that does not exist is a
// use-after-free in a real host, so it panics.
func (e *Engine) destroy(ptr sys.ObjectPtr) {
	e.mu.Lock()
	o := e.objects[ptr]
	if o == nil {
		e.mu.Unlock()
		panic(fmt.Sprintf("enginesim: object_destroy on invalid object %#x", uintptr(ptr)))
	}
	delete(e.objects, ptr)
	delete(e.byID, o.id)
	e.mu.Unlock()

	e.tree.Lock()
	children := o.children
	o.children = nil
	if p := o.parent; p != nil {
		p.children = removeChild(p.children, o)
		o.parent = nil
	}
	for _, ch := range children {
		ch.parent = nil
	}
	e.tree.Unlock()
	for _, ch := range children {
		if e.lookup(ch.ptr) != nil {
			e.destroy(ch.ptr)
		}
	}

	o.mu.Lock()
	cls, inst := o.class, o.instance
	meta, props := o.meta, o.props
	o.meta, o.props = nil, nil
	o.mu.Unlock()

	if inst != 0 {
		for c := cls; c != nil; c = c.parent {
			if c.ext != nil && c.ext.FreeInstance != nil {
				c.ext.FreeInstance(inst)
				break
			}
		}
	}
	if meta != nil {
		v := variant.FromDictionary(meta)
		v.Release()
	}
	for _, v := range props {
		v.Release()
	}

	e.stats.destroyed.Add(1)
	e.logger.Debug("object destroyed", "component", "enginesim", "class", cls.name, "instance_id", o.id)
}

func removeChild(list []*object, o *object) []*object {
	for i, ch := range list {
		if ch == o {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func (e *Engine) castTo(ptr sys.ObjectPtr, tag sys.ClassTag) sys.ObjectPtr {
	e.stats.casts.Add(1)
	o := e.lookup(ptr)
	if o == nil {
		return 0
	}
	e.mu.RLock()
	target := e.byTag[tag]
	e.mu.RUnlock()
	if target == nil || !o.cls().inherits(target) {
		return 0
	}
	return ptr
}

func (e *Engine) initRef(ptr sys.ObjectPtr) bool {
	o := e.lookup(ptr)
	if o == nil || !o.refCounted {
		return false
	}
	e.stats.initRefs.Add(1)
	if o.initPending.CompareAndSwap(true, false) {
		return true
	}
	o.refCount.Add(1)
	return true
}

func (e *Engine) reference(ptr sys.ObjectPtr) bool {
	o := e.lookup(ptr)
	if o == nil || !o.refCounted {
		return false
	}
	e.stats.references.Add(1)
	o.refCount.Add(1)
	return true
}

func (e *Engine) unreference(ptr sys.ObjectPtr) bool {
	o := e.lookup(ptr)
	if o == nil || !o.refCounted {
		return false
	}
	e.stats.unreferences.Add(1)
	n := o.refCount.Add(-1)
	if n < 0 {
		panic(fmt.Sprintf("enginesim: reference count of instance %d dropped below zero", o.id))
	}
	return n == 0
}

func (e *Engine) setInstance(ptr sys.ObjectPtr, className string, instance sys.InstanceHandle) {
	o := e.lookup(ptr)
	c := e.classByName(className)
	if o == nil || c == nil {
		e.logger.Error("cannot attach instance", "component", "enginesim", "class", className)
		return
	}
	o.mu.Lock()
	o.class = c
	o.instance = instance
	o.mu.Unlock()
}

func (e *Engine) instanceBinding(ptr sys.ObjectPtr, token sys.LibraryToken) sys.InstanceHandle {
	o := e.lookup(ptr)
	if o == nil {
		return 0
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.bindings[token]
}

func (e *Engine) setInstanceBinding(ptr sys.ObjectPtr, token sys.LibraryToken, instance sys.InstanceHandle) {
	o := e.lookup(ptr)
	if o == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.bindings == nil {
		o.bindings = make(map[sys.LibraryToken]sys.InstanceHandle)
	}
	o.bindings[token] = instance
}
