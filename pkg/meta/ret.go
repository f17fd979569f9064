// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package meta

import (
	"unsafe"

	"github.com/hostbind/hostbind/pkg/obj"
	"github.com/hostbind/hostbind/pkg/sys"
	"github.com/hostbind/hostbind/pkg/variant"
)

// Ret converts a call result to T.
type Ret[T any] interface {
	TypeName() string
	// FromVariant converts a dynamic result. v stays owned by the caller.
	FromVariant(v variant.Variant) (T, error)
	// Slot allocates a zeroed return slot in the fixed layout and a reader
	// for it, to be used once the host has written the slot.
	Slot() (sys.TypePtr, func() T)
}

// Void is the return type of methods without a result.
type Void struct{}

type voidRet struct{}

// RetVoid discards the result.
func RetVoid() Ret[Void] { return voidRet{} }

func (voidRet) TypeName() string                         { return "void" }
func (voidRet) FromVariant(variant.Variant) (Void, error) { return Void{}, nil }
func (voidRet) Slot() (sys.TypePtr, func() Void) {
	return nil, func() Void { return Void{} }
}

type primRet[T variant.Primitive] struct{}

// RetValue expects a T. No implicit conversion takes place.
func RetValue[T variant.Primitive]() Ret[T] {
	var zero T
	if _, ok := any(zero).(bool); ok {
		return any(boolRet{}).(Ret[T])
	}
	return primRet[T]{}
}

func (primRet[T]) TypeName() string { return variant.TypeOf[T]().String() }

func (primRet[T]) FromVariant(v variant.Variant) (T, error) {
	return variant.As[T](v)
}

func (primRet[T]) Slot() (sys.TypePtr, func() T) {
	p := new(T)
	return unsafe.Pointer(p), func() T { return *p }
}

type boolRet struct{}

// RetBool expects a bool, which the direct convention lays out as one byte.
func RetBool() Ret[bool] { return boolRet{} }

func (boolRet) TypeName() string { return sys.VariantBool.String() }

func (boolRet) FromVariant(v variant.Variant) (bool, error) {
	return variant.As[bool](v)
}

func (boolRet) Slot() (sys.TypePtr, func() bool) {
	p := new(uint8)
	return unsafe.Pointer(p), func() bool { return *p != 0 }
}

type variantRet struct{}

// RetVariant accepts any result. The caller owns the returned Variant.
func RetVariant() Ret[variant.Variant] { return variantRet{} }

func (variantRet) TypeName() string { return "Variant" }

func (variantRet) FromVariant(v variant.Variant) (variant.Variant, error) {
	return v.Clone(), nil
}

func (variantRet) Slot() (sys.TypePtr, func() variant.Variant) {
	p := new(variant.Variant)
	return variant.Ptr(p), func() variant.Variant { return *p }
}

type objectRet[T obj.Class] struct{}

// RetObject expects an object of class T, or null. The handle owns a
// reference and must be dropped.
func RetObject[T obj.Class]() Ret[obj.Gd[T]] { return objectRet[T]{} }

func (objectRet[T]) TypeName() string {
	var zero T
	return string(zero.ClassName())
}

func (objectRet[T]) FromVariant(v variant.Variant) (obj.Gd[T], error) {
	if v.IsNil() {
		return obj.Null[T](), nil
	}
	return obj.FromVariant[T](v)
}

// Slot reads a pointer whose reference the host transferred to the caller.
func (objectRet[T]) Slot() (sys.TypePtr, func() obj.Gd[T]) {
	p := new(sys.ObjectPtr)
	return unsafe.Pointer(p), func() obj.Gd[T] { return obj.FromObjPtrWeak[T](*p) }
}
