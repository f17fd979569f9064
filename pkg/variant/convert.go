// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package variant

import (
	"fmt"
	"math"

	"github.com/hostbind/hostbind/pkg/sys"
)

// ConvertError reports a value that cannot be represented as the requested type.
type ConvertError struct {
	From   string
	To     string
	Detail string
}

func (e *ConvertError) Error() string {
	msg := fmt.Sprintf("cannot convert from %s to %s", e.From, e.To)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// NewConvertError builds a ConvertError between two type names.
func NewConvertError(from, to string, detail string) *ConvertError {
	return &ConvertError{From: from, To: to, Detail: detail}
}

// Primitive lists the Go types with a one-to-one Variant representation.
type Primitive interface {
	bool | int64 | float64 | string | StringName |
		Vector2 | Vector3 | Color |
		[]byte | []int64 | []float64 | []string
}

// TypeOf returns the tag a Primitive is stored under.
func TypeOf[T Primitive]() sys.VariantType {
	var zero T
	switch any(zero).(type) {
	case bool:
		return sys.VariantBool
	case int64:
		return sys.VariantInt
	case float64:
		return sys.VariantFloat
	case string:
		return sys.VariantString
	case StringName:
		return sys.VariantStringName
	case Vector2:
		return sys.VariantVector2
	case Vector3:
		return sys.VariantVector3
	case Color:
		return sys.VariantColor
	case []byte:
		return sys.VariantPackedByteArray
	case []int64:
		return sys.VariantPackedInt64Array
	case []float64:
		return sys.VariantPackedFloat64Array
	default:
		return sys.VariantPackedStringArray
	}
}

// Of wraps a Primitive. Slices are copied.
func Of[T Primitive](x T) Variant {
	switch x := any(x).(type) {
	case []byte:
		return Bytes(x)
	case []int64:
		return Int64s(x)
	case []float64:
		return Float64s(x)
	case []string:
		return Strings(x)
	default:
		return Variant{typ: TypeOf[T](), val: x}
	}
}

// As extracts a Primitive. The variant type must match exactly; no implicit
// numeric or string coercion takes place. Slices are copied.
func As[T Primitive](v Variant) (T, error) {
	var zero T
	want := TypeOf[T]()
	if v.typ != want {
		return zero, NewConvertError(v.typ.String(), want.String(), "")
	}
	out := v.Clone()
	return out.val.(T), nil
}

// ToInt64 extracts an int. Convenience over As for the common case.
func (v Variant) ToInt64() (int64, error) {
	return As[int64](v)
}

// ToFloat64 extracts a float.
func (v Variant) ToFloat64() (float64, error) {
	return As[float64](v)
}

// ToBool extracts a bool.
func (v Variant) ToBool() (bool, error) {
	return As[bool](v)
}

// ToString extracts a String or StringName as Go text.
func (v Variant) ToString() (string, error) {
	switch v.typ {
	case sys.VariantString:
		return v.val.(string), nil
	case sys.VariantStringName:
		return string(v.val.(StringName)), nil
	default:
		return "", NewConvertError(v.typ.String(), sys.VariantString.String(), "")
	}
}

// ToArray returns the held array without transferring ownership.
func (v Variant) ToArray() (*Array, error) {
	if v.typ != sys.VariantArray {
		return nil, NewConvertError(v.typ.String(), sys.VariantArray.String(), "")
	}
	return v.val.(*Array), nil
}

// ToDictionary returns the held dictionary without transferring ownership.
func (v Variant) ToDictionary() (*Dictionary, error) {
	if v.typ != sys.VariantDictionary {
		return nil, NewConvertError(v.typ.String(), sys.VariantDictionary.String(), "")
	}
	return v.val.(*Dictionary), nil
}

// Converter is implemented by Go values that know their Variant form, such as
// object handles.
type Converter interface {
	ToVariant() Variant
}

// FromAny converts an arbitrary Go value. Integer and float kinds are widened
// to the host's 64-bit representation; unsigned values above the int64 range
// are rejected.
func FromAny(x any) (Variant, error) {
	switch x := x.(type) {
	case nil:
		return Nil(), nil
	case Variant:
		return x.Clone(), nil
	case Converter:
		return x.ToVariant(), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint:
		return fromUint(uint64(x))
	case uint64:
		return fromUint(x)
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case string:
		return String(x), nil
	case StringName:
		return Name(x), nil
	case Vector2:
		return Variant{typ: sys.VariantVector2, val: x}, nil
	case Vector3:
		return Variant{typ: sys.VariantVector3, val: x}, nil
	case Color:
		return Variant{typ: sys.VariantColor, val: x}, nil
	case []byte:
		return Bytes(x), nil
	case []int64:
		return Int64s(x), nil
	case []float64:
		return Float64s(x), nil
	case []string:
		return Strings(x), nil
	case *Array:
		return FromArray(x.clone()), nil
	case *Dictionary:
		return FromDictionary(x.clone()), nil
	case []any:
		arr := NewArray()
		for _, e := range x {
			ev, err := FromAny(e)
			if err != nil {
				arr.release()
				return Variant{}, err
			}
			arr.Append(ev)
		}
		return FromArray(arr), nil
	case map[string]any:
		return fromStringMap(x)
	default:
		return Variant{}, NewConvertError(fmt.Sprintf("%T", x), "Variant", "unsupported Go type")
	}
}

func fromUint(u uint64) (Variant, error) {
	if u > math.MaxInt64 {
		return Variant{}, NewConvertError("uint64", sys.VariantInt.String(), fmt.Sprintf("value %d overflows int64", u))
	}
	return Int(int64(u)), nil
}

func fromStringMap(m map[string]any) (Variant, error) {
	dict := NewDictionary()
	for _, k := range sortedKeys(m) {
		ev, err := FromAny(m[k])
		if err != nil {
			dict.release()
			return Variant{}, err
		}
		// string keys are always hashable
		_ = dict.Set(String(k), ev)
	}
	return FromDictionary(dict), nil
}

// Interface returns v as a plain Go value: nil, bool, int64, float64, string,
// StringName, vectors, slices, []any for arrays and map[string]any for
// dictionaries whose keys are text. Objects are returned as their instance ID.
func (v Variant) Interface() any {
	switch v.typ {
	case sys.VariantNil:
		return nil
	case sys.VariantObject:
		return v.val.(objectRef).id
	case sys.VariantArray:
		arr := v.val.(*Array)
		out := make([]any, arr.Len())
		for i, e := range arr.elems {
			out[i] = e.Interface()
		}
		return out
	case sys.VariantDictionary:
		out := make(map[string]any, v.val.(*Dictionary).Len())
		v.val.(*Dictionary).Each(func(k, val Variant) bool {
			out[k.String()] = val.Interface()
			return true
		})
		return out
	default:
		return v.Clone().val
	}
}
