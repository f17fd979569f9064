// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package obj

import (
	"github.com/hostbind/hostbind/pkg/sys"
	"github.com/hostbind/hostbind/pkg/variant"
)

// ToVariant wraps the handle in an Object variant. The variant takes its own
// reference; g stays valid and must still be dropped.
func (g Gd[T]) ToVariant() variant.Variant {
	raw := g.core()
	raw.checkUsable("to_variant")
	return variant.FromObjectPtr(raw.ptr)
}

// FromVariant extracts a handle of type T from an Object variant. The handle
// owns a new reference; the variant keeps its own. A variant holding null
// yields a null handle.
func FromVariant[T Class](v variant.Variant) (Gd[T], error) {
	info := infoOf[T]()
	ptr, id, ok := v.ObjectPtr()
	if !ok {
		return Gd[T]{}, variant.NewConvertError(v.Type().String(), string(info.name), "")
	}
	if ptr == 0 {
		return Null[T](), nil
	}
	if sys.Get().ObjectGetInstanceFromID(id) != ptr {
		return Gd[T]{}, variant.NewConvertError(sys.VariantObject.String(), string(info.name),
			"object has been freed")
	}
	tag := ClassTag(info.name)
	casted := sys.ObjectPtr(0)
	if tag != 0 {
		casted = sys.Get().ObjectCastTo(ptr, tag)
	}
	if casted == 0 {
		from := sys.VariantObject.String()
		if fn := sys.Get().ObjectGetClassName; fn != nil {
			from = fn(ptr)
		}
		return Gd[T]{}, variant.NewConvertError(from, string(info.name), "")
	}
	return wrap[T](rawStrong(casted, info)), nil
}
