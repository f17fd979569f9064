// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package meta

import (
	"unsafe"

	"github.com/hostbind/hostbind/pkg/obj"
	"github.com/hostbind/hostbind/pkg/sys"
	"github.com/hostbind/hostbind/pkg/variant"
)

// Arg is an argument converted for either convention.
type Arg interface {
	// TypeName is the type the argument is passed as.
	TypeName() string
	// ToVariant boxes the argument. The caller owns the result.
	ToVariant() variant.Variant
	// FFIPtr points at the argument in its fixed layout. The pointer is
	// valid for as long as the Arg is reachable.
	FFIPtr() sys.TypePtr
}

// primArg carries a Primitive in its own layout.
type primArg[T variant.Primitive] struct {
	value T
}

// Value passes x as its variant type. Integers are int64 and floats float64
// on both sides of the boundary.
func Value[T variant.Primitive](x T) Arg {
	if b, ok := any(x).(bool); ok {
		return Bool(b)
	}
	return &primArg[T]{value: x}
}

func (a *primArg[T]) TypeName() string           { return variant.TypeOf[T]().String() }
func (a *primArg[T]) ToVariant() variant.Variant { return variant.Of(a.value) }
func (a *primArg[T]) FFIPtr() sys.TypePtr        { return unsafe.Pointer(&a.value) }

// boolArg passes a bool as a single byte.
type boolArg struct {
	value uint8
}

// Bool passes b.
func Bool(b bool) Arg {
	a := &boolArg{}
	if b {
		a.value = 1
	}
	return a
}

func (a *boolArg) TypeName() string           { return sys.VariantBool.String() }
func (a *boolArg) ToVariant() variant.Variant { return variant.Bool(a.value != 0) }
func (a *boolArg) FFIPtr() sys.TypePtr        { return unsafe.Pointer(&a.value) }

// Int passes a host integer.
func Int(i int64) Arg { return Value(i) }

// Int32 widens i to the host integer width.
func Int32(i int32) Arg { return Value(int64(i)) }

// Float passes a host float.
func Float(f float64) Arg { return Value(f) }

// Float32 widens f to the host float width.
func Float32(f float32) Arg { return Value(float64(f)) }

// Byte widens b to the host integer width.
func Byte(b uint8) Arg { return Value(int64(b)) }

// Vec2 passes a Vector2.
func Vec2(x, y float32) Arg { return Value(variant.Vector2{X: x, Y: y}) }

// Vec3 passes a Vector3.
func Vec3(x, y, z float32) Arg { return Value(variant.Vector3{X: x, Y: y, Z: z}) }

// RGBA passes a Color.
func RGBA(r, g, b, a float32) Arg { return Value(variant.Color{R: r, G: g, B: b, A: a}) }

// String passes s.
func String(s string) Arg { return Value(s) }

// Name passes s as a StringName.
func Name(s string) Arg { return Value(variant.StringName(s)) }

// variantArg passes an existing Variant. It is borrowed, not consumed.
type variantArg struct {
	value variant.Variant
}

// Variant passes v. v stays owned by the caller. For a parameter not
// declared as Variant the held type must match, and the direct convention
// unboxes v into the parameter's fixed layout.
func Variant(v variant.Variant) Arg {
	return &variantArg{value: v}
}

func (a *variantArg) TypeName() string           { return "Variant" }
func (a *variantArg) ToVariant() variant.Variant { return a.value.Clone() }
func (a *variantArg) FFIPtr() sys.TypePtr        { return variant.Ptr(&a.value) }

// objectArg passes a handle as a bare object pointer. A null handle passes
// the null pointer.
type objectArg struct {
	class obj.ClassName
	ptr   sys.ObjectPtr
}

// Object passes g. The handle is checked for liveness now; it must stay
// alive until the call returns.
func Object[T obj.Class](g obj.Gd[T]) Arg {
	raw := g.Raw()
	a := &objectArg{class: raw.StaticClass()}
	if !raw.IsNull() {
		a.ptr = raw.CheckedPtr(string(a.class), "pass_as_argument")
	}
	return a
}

// NullObject passes the null object for a parameter of class class.
func NullObject(class obj.ClassName) Arg {
	return &objectArg{class: class}
}

func (a *objectArg) TypeName() string           { return string(a.class) }
func (a *objectArg) ToVariant() variant.Variant { return variant.FromObjectPtr(a.ptr) }
func (a *objectArg) FFIPtr() sys.TypePtr        { return unsafe.Pointer(&a.ptr) }

// accepts reports whether a may be passed for a parameter declared as typ.
// Objects are checked by the host against the class of the live object.
func accepts(typ string, a Arg) bool {
	if typ == "Variant" || typ == a.TypeName() {
		return true
	}
	switch a := a.(type) {
	case *variantArg:
		return acceptsHeld(typ, a.value)
	case *objectArg:
		if vt, isValue := sys.VariantTypeByName(typ); isValue && vt != sys.VariantObject {
			return false
		}
		return a.ptr == 0 || obj.IsInstanceOf(a.ptr, obj.ClassName(typ))
	}
	return stringLike(typ) && stringLike(a.TypeName())
}

// acceptsHeld checks the type a Variant holds against typ.
func acceptsHeld(typ string, v variant.Variant) bool {
	held := v.Type()
	if vt, isValue := sys.VariantTypeByName(typ); isValue && vt != sys.VariantObject {
		return held == vt || stringLike(typ) && stringLike(held.String())
	}
	switch held {
	case sys.VariantNil:
		return true
	case sys.VariantObject:
		ptr, _, _ := v.ObjectPtr()
		return ptr == 0 || obj.IsInstanceOf(ptr, obj.ClassName(typ))
	}
	return false
}

// argTypeName names the type a is seen as in conversion errors.
func argTypeName(a Arg) string {
	if v, ok := a.(*variantArg); ok {
		return v.value.Type().String()
	}
	return a.TypeName()
}

// slotType is the fixed layout of a parameter declared as typ. Class names
// travel as object pointers.
func slotType(typ string) sys.VariantType {
	if vt, ok := sys.VariantTypeByName(typ); ok {
		return vt
	}
	return sys.VariantObject
}

// String and StringName share a layout and convert implicitly.
func stringLike(typ string) bool {
	return typ == sys.VariantString.String() || typ == sys.VariantStringName.String()
}
