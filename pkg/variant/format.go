// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package variant

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/hostbind/hostbind/pkg/sys"
)

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

func formatReal(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

// String renders v the way the host prints values.
func (v Variant) String() string {
	switch v.typ {
	case sys.VariantNil:
		return "<null>"
	case sys.VariantBool:
		return strconv.FormatBool(v.val.(bool))
	case sys.VariantInt:
		return strconv.FormatInt(v.val.(int64), 10)
	case sys.VariantFloat:
		return strconv.FormatFloat(v.val.(float64), 'g', -1, 64)
	case sys.VariantString:
		return v.val.(string)
	case sys.VariantStringName:
		return string(v.val.(StringName))
	case sys.VariantVector2:
		vec := v.val.(Vector2)
		return "(" + formatReal(vec.X) + ", " + formatReal(vec.Y) + ")"
	case sys.VariantVector3:
		vec := v.val.(Vector3)
		return "(" + formatReal(vec.X) + ", " + formatReal(vec.Y) + ", " + formatReal(vec.Z) + ")"
	case sys.VariantColor:
		c := v.val.(Color)
		return "(" + formatReal(c.R) + ", " + formatReal(c.G) + ", " + formatReal(c.B) + ", " + formatReal(c.A) + ")"
	case sys.VariantObject:
		ref := v.val.(objectRef)
		if ref.ptr == 0 {
			return "<Object#null>"
		}
		return "<Object#" + strconv.FormatUint(ref.id, 10) + ">"
	case sys.VariantArray:
		return joinVariants(v.val.(*Array).elems)
	case sys.VariantDictionary:
		var b strings.Builder
		b.WriteByte('{')
		first := true
		v.val.(*Dictionary).Each(func(k, val Variant) bool {
			if !first {
				b.WriteString(", ")
			}
			first = false
			b.WriteString(k.quoted())
			b.WriteString(": ")
			b.WriteString(val.quoted())
			return true
		})
		b.WriteByte('}')
		return b.String()
	case sys.VariantPackedByteArray:
		return joinFormatted(v.val.([]byte), func(b byte) string { return strconv.Itoa(int(b)) })
	case sys.VariantPackedInt64Array:
		return joinFormatted(v.val.([]int64), func(i int64) string { return strconv.FormatInt(i, 10) })
	case sys.VariantPackedFloat64Array:
		return joinFormatted(v.val.([]float64), func(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) })
	case sys.VariantPackedStringArray:
		return joinFormatted(v.val.([]string), strconv.Quote)
	default:
		return "<" + v.typ.String() + ">"
	}
}

// quoted is String with text quoted, for use inside containers.
func (v Variant) quoted() string {
	switch v.typ {
	case sys.VariantString:
		return strconv.Quote(v.val.(string))
	case sys.VariantStringName:
		return "&" + strconv.Quote(string(v.val.(StringName)))
	default:
		return v.String()
	}
}

func joinVariants(elems []Variant) string {
	return joinFormatted(elems, Variant.quoted)
}

func joinFormatted[E any](elems []E, format func(E) string) string {
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = format(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
