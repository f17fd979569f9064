// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package sys

// VariantType is the runtime type tag of a dynamic value. The numbering
// follows the host ABI.
type VariantType int32

// Variant type tags.
const (
	VariantNil VariantType = iota
	VariantBool
	VariantInt
	VariantFloat
	VariantString
	VariantVector2
	VariantVector2i
	VariantRect2
	VariantRect2i
	VariantVector3
	VariantVector3i
	VariantTransform2D
	VariantVector4
	VariantVector4i
	VariantPlane
	VariantQuaternion
	VariantAABB
	VariantBasis
	VariantTransform3D
	VariantProjection
	VariantColor
	VariantStringName
	VariantNodePath
	VariantRID
	VariantObject
	VariantCallable
	VariantSignal
	VariantDictionary
	VariantArray
	VariantPackedByteArray
	VariantPackedInt32Array
	VariantPackedInt64Array
	VariantPackedFloat32Array
	VariantPackedFloat64Array
	VariantPackedStringArray
	VariantPackedVector2Array
	VariantPackedVector3Array
	VariantPackedColorArray

	variantTypeCount
)

var variantTypeNames = [variantTypeCount]string{
	"Nil",
	"bool",
	"int",
	"float",
	"String",
	"Vector2",
	"Vector2i",
	"Rect2",
	"Rect2i",
	"Vector3",
	"Vector3i",
	"Transform2D",
	"Vector4",
	"Vector4i",
	"Plane",
	"Quaternion",
	"AABB",
	"Basis",
	"Transform3D",
	"Projection",
	"Color",
	"StringName",
	"NodePath",
	"RID",
	"Object",
	"Callable",
	"Signal",
	"Dictionary",
	"Array",
	"PackedByteArray",
	"PackedInt32Array",
	"PackedInt64Array",
	"PackedFloat32Array",
	"PackedFloat64Array",
	"PackedStringArray",
	"PackedVector2Array",
	"PackedVector3Array",
	"PackedColorArray",
}

// String returns the host's name for the type.
func (t VariantType) String() string {
	if t < 0 || t >= variantTypeCount {
		return "<invalid>"
	}
	return variantTypeNames[t]
}

// Valid reports whether t is a known tag.
func (t VariantType) Valid() bool {
	return t >= 0 && t < variantTypeCount
}

// VariantTypeByName resolves a host type name such as "int" or "StringName".
func VariantTypeByName(name string) (VariantType, bool) {
	for i, n := range variantTypeNames {
		if n == name {
			return VariantType(i), true
		}
	}
	return VariantNil, false
}
