// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

// Package sys describes the C-ABI shaped function table a host engine hands to
// an extension at load time, together with the scalar types that cross it.
//
// Everything above this package talks to the host exclusively through the
// table returned by Get. The table is installed once by Load and stays valid
// until Unload.
package sys

import (
	"strings"
	"sync/atomic"
	"unsafe"

	"github.com/samber/oops"
)

// ObjectPtr is the opaque address of a host object. Zero is the null object.
type ObjectPtr uintptr

// ClassTag identifies a class inside the host class database.
type ClassTag uintptr

// MethodBind identifies a bound method inside the host class database.
type MethodBind uintptr

// InstanceHandle is the opaque extension-side token the host stores for
// objects of extension classes.
type InstanceHandle uintptr

// LibraryToken identifies the extension library towards the host.
type LibraryToken uintptr

// TypePtr points at a value in its fixed FFI layout (direct convention).
type TypePtr = unsafe.Pointer

// VariantPtr points at a dynamic value (dynamic convention).
type VariantPtr = unsafe.Pointer

// Version is the host engine version reported at load time.
type Version struct {
	Major  uint32
	Minor  uint32
	Patch  uint32
	String string
}

// InitLevel is one of the host initialization phases, in ascending order.
type InitLevel int

// Host initialization phases.
const (
	InitLevelCore InitLevel = iota
	InitLevelServers
	InitLevelScene
	InitLevelEditor
)

func (l InitLevel) String() string {
	switch l {
	case InitLevelCore:
		return "core"
	case InitLevelServers:
		return "servers"
	case InitLevelScene:
		return "scene"
	case InitLevelEditor:
		return "editor"
	default:
		return "unknown"
	}
}

// ClassCreationInfo carries the callbacks the host uses to create and free
// instances of an extension class.
type ClassCreationInfo struct {
	// IsRefCounted reports whether the class derives from a reference-counted base.
	IsRefCounted bool
	// CreateInstance constructs the base object and attaches the extension instance.
	CreateInstance func() ObjectPtr
	// FreeInstance runs when the host destroys an object of the class.
	FreeInstance func(instance InstanceHandle)
}

// MethodInfo describes an extension class method exposed to the host.
type MethodInfo struct {
	Name       string
	ArgTypes   []VariantType
	ReturnType VariantType
	IsVararg   bool
	Call       func(instance InstanceHandle, args []VariantPtr, ret VariantPtr, err *CallError)
	PtrCall    func(instance InstanceHandle, args []TypePtr, ret TypePtr)
}

// Interface is the function table supplied by the host.
type Interface struct {
	GetVersion func() Version

	ObjectGetInstanceID     func(obj ObjectPtr) uint64
	ObjectGetInstanceFromID func(id uint64) ObjectPtr
	ObjectCastTo            func(obj ObjectPtr, tag ClassTag) ObjectPtr
	ObjectDestroy           func(obj ObjectPtr)
	ObjectGetClassName      func(obj ObjectPtr) string

	// Reference counting. ObjectUnreference reports whether the last
	// reference was released; the caller then destroys the object.
	ObjectInitRef           func(obj ObjectPtr) bool
	ObjectReference         func(obj ObjectPtr) bool
	ObjectUnreference       func(obj ObjectPtr) bool
	ObjectGetReferenceCount func(obj ObjectPtr) int32

	ObjectSetInstance        func(obj ObjectPtr, className string, instance InstanceHandle)
	ObjectGetInstanceBinding func(obj ObjectPtr, token LibraryToken) InstanceHandle
	ObjectSetInstanceBinding func(obj ObjectPtr, token LibraryToken, instance InstanceHandle)

	ObjectMethodBindCall    func(bind MethodBind, obj ObjectPtr, args []VariantPtr, ret VariantPtr, err *CallError)
	ObjectMethodBindPtrcall func(bind MethodBind, obj ObjectPtr, args []TypePtr, ret TypePtr)

	ClassDBGetClassTag     func(className string) ClassTag
	ClassDBConstructObject func(className string) ObjectPtr
	ClassDBGetMethodBind   func(className, methodName string, hash int64) MethodBind
	ClassDBGetParentClass  func(className string) string
	ClassDBRegisterClass   func(token LibraryToken, className, parentName string, info *ClassCreationInfo)
	ClassDBRegisterMethod  func(token LibraryToken, className string, info *MethodInfo)
	ClassDBUnregisterClass func(token LibraryToken, className string)
	ClassDBGetMethodList   func(className string) []string
	ClassDBGetClassList    func() []string
}

var loaded atomic.Pointer[Interface]

// Load installs the host function table for the rest of the process.
// All entries used by the object and call layers must be present.
func Load(iface *Interface) error {
	if iface == nil {
		return oops.In("sys").Code("HOST_INTERFACE_INVALID").Errorf("host interface is nil")
	}
	if missing := iface.missing(); len(missing) > 0 {
		return oops.In("sys").
			Code("HOST_INTERFACE_INVALID").
			With("missing", missing).
			Errorf("host interface is missing %d entries: %s", len(missing), strings.Join(missing, ", "))
	}
	if !loaded.CompareAndSwap(nil, iface) {
		return oops.In("sys").Code("HOST_INTERFACE_LOADED").Errorf("host interface already loaded")
	}
	return nil
}

// Unload removes the installed function table. Safe to call when nothing is loaded.
func Unload() {
	loaded.Store(nil)
}

// IsLoaded reports whether a function table is installed.
func IsLoaded() bool {
	return loaded.Load() != nil
}

// Get returns the installed function table. It panics when called before Load,
// since every caller is about to cross into the host.
func Get() *Interface {
	iface := loaded.Load()
	if iface == nil {
		panic("host interface accessed before it was loaded")
	}
	return iface
}

func (i *Interface) missing() []string {
	var out []string
	check := func(name string, present bool) {
		if !present {
			out = append(out, name)
		}
	}
	check("object_get_instance_id", i.ObjectGetInstanceID != nil)
	check("object_get_instance_from_id", i.ObjectGetInstanceFromID != nil)
	check("object_cast_to", i.ObjectCastTo != nil)
	check("object_destroy", i.ObjectDestroy != nil)
	check("object_init_ref", i.ObjectInitRef != nil)
	check("object_reference", i.ObjectReference != nil)
	check("object_unreference", i.ObjectUnreference != nil)
	check("object_method_bind_call", i.ObjectMethodBindCall != nil)
	check("object_method_bind_ptrcall", i.ObjectMethodBindPtrcall != nil)
	check("classdb_get_class_tag", i.ClassDBGetClassTag != nil)
	check("classdb_construct_object", i.ClassDBConstructObject != nil)
	check("classdb_get_method_bind", i.ClassDBGetMethodBind != nil)
	return out
}
