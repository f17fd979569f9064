// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package variant

import (
	"fmt"
	"unsafe"

	"github.com/hostbind/hostbind/pkg/sys"
)

// Fixed layouts of the direct calling convention:
//
//	bool                 uint8 (0 or 1)
//	int                  int64
//	float                float64
//	String, StringName   string
//	Vector2/Vector3/Color the Go struct
//	packed arrays        the Go slice
//	Object               sys.ObjectPtr
//	Variant              Variant (slot type Nil)

// HasLayout reports whether values of type t can travel in a fixed slot.
func HasLayout(t sys.VariantType) bool {
	switch t {
	case sys.VariantNil, sys.VariantBool, sys.VariantInt, sys.VariantFloat,
		sys.VariantString, sys.VariantStringName,
		sys.VariantVector2, sys.VariantVector3, sys.VariantColor,
		sys.VariantPackedByteArray, sys.VariantPackedInt64Array,
		sys.VariantPackedFloat64Array, sys.VariantPackedStringArray,
		sys.VariantObject:
		return true
	}
	return false
}

// NewSlot allocates zeroed storage in the fixed layout of t.
func NewSlot(t sys.VariantType) (sys.TypePtr, error) {
	switch t {
	case sys.VariantNil:
		return Ptr(new(Variant)), nil
	case sys.VariantBool:
		return unsafe.Pointer(new(uint8)), nil
	case sys.VariantInt:
		return unsafe.Pointer(new(int64)), nil
	case sys.VariantFloat:
		return unsafe.Pointer(new(float64)), nil
	case sys.VariantString:
		return unsafe.Pointer(new(string)), nil
	case sys.VariantStringName:
		return unsafe.Pointer(new(StringName)), nil
	case sys.VariantVector2:
		return unsafe.Pointer(new(Vector2)), nil
	case sys.VariantVector3:
		return unsafe.Pointer(new(Vector3)), nil
	case sys.VariantColor:
		return unsafe.Pointer(new(Color)), nil
	case sys.VariantPackedByteArray:
		return unsafe.Pointer(new([]byte)), nil
	case sys.VariantPackedInt64Array:
		return unsafe.Pointer(new([]int64)), nil
	case sys.VariantPackedFloat64Array:
		return unsafe.Pointer(new([]float64)), nil
	case sys.VariantPackedStringArray:
		return unsafe.Pointer(new([]string)), nil
	case sys.VariantObject:
		return unsafe.Pointer(new(sys.ObjectPtr)), nil
	}
	return nil, fmt.Errorf("no fixed layout for %s", t)
}

// ReadSlot reads a value of type t from its fixed layout at p. Object and
// Variant slots are borrowed: the result holds its own reference and must be
// released.
func ReadSlot(p sys.TypePtr, t sys.VariantType) (Variant, error) {
	switch t {
	case sys.VariantNil:
		return FromPtr(p).Clone(), nil
	case sys.VariantBool:
		return Bool(*(*uint8)(p) != 0), nil
	case sys.VariantInt:
		return Int(*(*int64)(p)), nil
	case sys.VariantFloat:
		return Float(*(*float64)(p)), nil
	case sys.VariantString:
		return String(*(*string)(p)), nil
	case sys.VariantStringName:
		return Name(*(*StringName)(p)), nil
	case sys.VariantVector2:
		return Of(*(*Vector2)(p)), nil
	case sys.VariantVector3:
		return Of(*(*Vector3)(p)), nil
	case sys.VariantColor:
		return Of(*(*Color)(p)), nil
	case sys.VariantPackedByteArray:
		return Bytes(*(*[]byte)(p)), nil
	case sys.VariantPackedInt64Array:
		return Int64s(*(*[]int64)(p)), nil
	case sys.VariantPackedFloat64Array:
		return Float64s(*(*[]float64)(p)), nil
	case sys.VariantPackedStringArray:
		return Strings(*(*[]string)(p)), nil
	case sys.VariantObject:
		return FromObjectPtr(*(*sys.ObjectPtr)(p)), nil
	}
	return Nil(), fmt.Errorf("no fixed layout for %s", t)
}

// WriteSlot stores v as type t at p. The String and StringName layouts
// accept either type. For Object and Variant slots the reference held by v
// moves into the slot; otherwise v is left untouched.
func WriteSlot(p sys.TypePtr, t sys.VariantType, v Variant) error {
	switch t {
	case sys.VariantNil:
		*FromPtr(p) = v
		return nil
	case sys.VariantBool:
		b, err := As[bool](v)
		if err != nil {
			return err
		}
		*(*uint8)(p) = 0
		if b {
			*(*uint8)(p) = 1
		}
		return nil
	case sys.VariantInt:
		return writeAs[int64](p, v)
	case sys.VariantFloat:
		return writeAs[float64](p, v)
	case sys.VariantString:
		s, err := v.ToString()
		if err != nil {
			return err
		}
		*(*string)(p) = s
		return nil
	case sys.VariantStringName:
		s, err := v.ToString()
		if err != nil {
			return err
		}
		*(*StringName)(p) = StringName(s)
		return nil
	case sys.VariantVector2:
		return writeAs[Vector2](p, v)
	case sys.VariantVector3:
		return writeAs[Vector3](p, v)
	case sys.VariantColor:
		return writeAs[Color](p, v)
	case sys.VariantPackedByteArray:
		return writeAs[[]byte](p, v)
	case sys.VariantPackedInt64Array:
		return writeAs[[]int64](p, v)
	case sys.VariantPackedFloat64Array:
		return writeAs[[]float64](p, v)
	case sys.VariantPackedStringArray:
		return writeAs[[]string](p, v)
	case sys.VariantObject:
		ptr, _, ok := v.ObjectPtr()
		if !ok && !v.IsNil() {
			return NewConvertError(v.Type().String(), t.String(), "")
		}
		*(*sys.ObjectPtr)(p) = ptr
		return nil
	}
	return fmt.Errorf("no fixed layout for %s", t)
}

func writeAs[T Primitive](p unsafe.Pointer, v Variant) error {
	x, err := As[T](v)
	if err != nil {
		return err
	}
	*(*T)(p) = x
	return nil
}
