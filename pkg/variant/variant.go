// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

// Package variant implements the dynamic value used by the dynamic call
// convention: a tagged union that carries its own runtime type.
//
// A Variant holding a reference-counted object is an owning reference. It
// takes a reference when constructed and gives it back on Release. Containers
// own their elements the same way.
package variant

import (
	"bytes"
	"slices"
	"unsafe"

	"github.com/hostbind/hostbind/pkg/sys"
)

// StringName is an interned host string. It is distinct from String at the
// type-tag level even though both carry text.
type StringName string

// Vector2 is a 2D vector in host precision.
type Vector2 struct {
	X, Y float32
}

// Vector3 is a 3D vector in host precision.
type Vector3 struct {
	X, Y, Z float32
}

// Color is an RGBA color with float components.
type Color struct {
	R, G, B, A float32
}

// Variant is a self-describing value. The zero Variant is Nil.
type Variant struct {
	typ sys.VariantType
	val any
}

// Nil returns the nil variant.
func Nil() Variant {
	return Variant{}
}

// Bool wraps a bool.
func Bool(b bool) Variant {
	return Variant{typ: sys.VariantBool, val: b}
}

// Int wraps a host integer.
func Int(i int64) Variant {
	return Variant{typ: sys.VariantInt, val: i}
}

// Float wraps a host float.
func Float(f float64) Variant {
	return Variant{typ: sys.VariantFloat, val: f}
}

// String wraps a string.
func String(s string) Variant {
	return Variant{typ: sys.VariantString, val: s}
}

// Name wraps a StringName.
func Name(s StringName) Variant {
	return Variant{typ: sys.VariantStringName, val: s}
}

// Vec2 wraps a Vector2.
func Vec2(x, y float32) Variant {
	return Variant{typ: sys.VariantVector2, val: Vector2{X: x, Y: y}}
}

// Vec3 wraps a Vector3.
func Vec3(x, y, z float32) Variant {
	return Variant{typ: sys.VariantVector3, val: Vector3{X: x, Y: y, Z: z}}
}

// RGBA wraps a Color.
func RGBA(r, g, b, a float32) Variant {
	return Variant{typ: sys.VariantColor, val: Color{R: r, G: g, B: b, A: a}}
}

// Bytes wraps a copy of b as a PackedByteArray.
func Bytes(b []byte) Variant {
	return Variant{typ: sys.VariantPackedByteArray, val: bytes.Clone(nonNil(b))}
}

// Int64s wraps a copy of s as a PackedInt64Array.
func Int64s(s []int64) Variant {
	return Variant{typ: sys.VariantPackedInt64Array, val: slices.Clone(nonNil(s))}
}

// Float64s wraps a copy of s as a PackedFloat64Array.
func Float64s(s []float64) Variant {
	return Variant{typ: sys.VariantPackedFloat64Array, val: slices.Clone(nonNil(s))}
}

// Strings wraps a copy of s as a PackedStringArray.
func Strings(s []string) Variant {
	return Variant{typ: sys.VariantPackedStringArray, val: slices.Clone(nonNil(s))}
}

// FromArray wraps a, taking ownership of it. A nil array becomes an empty one.
func FromArray(a *Array) Variant {
	if a == nil {
		a = NewArray()
	}
	return Variant{typ: sys.VariantArray, val: a}
}

// FromDictionary wraps d, taking ownership of it. A nil dictionary becomes an empty one.
func FromDictionary(d *Dictionary) Variant {
	if d == nil {
		d = NewDictionary()
	}
	return Variant{typ: sys.VariantDictionary, val: d}
}

func nonNil[S ~[]E, E any](s S) S {
	if s == nil {
		return S{}
	}
	return s
}

// Type returns the runtime type tag.
func (v Variant) Type() sys.VariantType {
	return v.typ
}

// IsNil reports whether v is Nil. An Object variant holding the null object is not Nil.
func (v Variant) IsNil() bool {
	return v.typ == sys.VariantNil
}

// Ptr returns the address of v for the dynamic call convention.
func Ptr(v *Variant) sys.VariantPtr {
	return unsafe.Pointer(v)
}

// FromPtr reinterprets a pointer received through the dynamic call convention.
func FromPtr(p sys.VariantPtr) *Variant {
	return (*Variant)(p)
}

// Clone returns an independent copy. Object references are re-acquired and
// containers are copied element by element.
func (v Variant) Clone() Variant {
	switch v.typ {
	case sys.VariantObject:
		ref := v.val.(objectRef)
		ref.acquire()
		return v
	case sys.VariantArray:
		return Variant{typ: v.typ, val: v.val.(*Array).clone()}
	case sys.VariantDictionary:
		return Variant{typ: v.typ, val: v.val.(*Dictionary).clone()}
	case sys.VariantPackedByteArray:
		return Variant{typ: v.typ, val: bytes.Clone(v.val.([]byte))}
	case sys.VariantPackedInt64Array:
		return Variant{typ: v.typ, val: slices.Clone(v.val.([]int64))}
	case sys.VariantPackedFloat64Array:
		return Variant{typ: v.typ, val: slices.Clone(v.val.([]float64))}
	case sys.VariantPackedStringArray:
		return Variant{typ: v.typ, val: slices.Clone(v.val.([]string))}
	default:
		return v
	}
}

// Release gives back every reference v owns and resets it to Nil.
// Releasing a Nil variant is a no-op.
func (v *Variant) Release() {
	switch v.typ {
	case sys.VariantObject:
		v.val.(objectRef).release()
	case sys.VariantArray:
		v.val.(*Array).release()
	case sys.VariantDictionary:
		v.val.(*Dictionary).release()
	}
	*v = Variant{}
}

// Equal reports structural equality. Objects compare by instance ID and
// floats by value, so NaN is never equal to itself.
func (v Variant) Equal(o Variant) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case sys.VariantNil:
		return true
	case sys.VariantObject:
		return v.val.(objectRef).id == o.val.(objectRef).id
	case sys.VariantArray:
		return v.val.(*Array).equal(o.val.(*Array))
	case sys.VariantDictionary:
		return v.val.(*Dictionary).equal(o.val.(*Dictionary))
	case sys.VariantPackedByteArray:
		return bytes.Equal(v.val.([]byte), o.val.([]byte))
	case sys.VariantPackedInt64Array:
		return slices.Equal(v.val.([]int64), o.val.([]int64))
	case sys.VariantPackedFloat64Array:
		return slices.Equal(v.val.([]float64), o.val.([]float64))
	case sys.VariantPackedStringArray:
		return slices.Equal(v.val.([]string), o.val.([]string))
	default:
		return v.val == o.val
	}
}

// hashable reports whether v may be used as a dictionary key.
func (v Variant) hashable() bool {
	switch v.typ {
	case sys.VariantArray, sys.VariantDictionary,
		sys.VariantPackedByteArray, sys.VariantPackedInt64Array,
		sys.VariantPackedFloat64Array, sys.VariantPackedStringArray:
		return false
	default:
		return true
	}
}
