// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package classes

import (
	"github.com/hostbind/hostbind/pkg/meta"
	"github.com/hostbind/hostbind/pkg/obj"
	"github.com/hostbind/hostbind/pkg/variant"
)

var (
	objectGetClass      = method("Object", "get_class", "String")
	objectIsClass       = method("Object", "is_class", "bool", param("class", "String"))
	objectGetInstanceID = method("Object", "get_instance_id", "int")
	objectHasMethod     = method("Object", "has_method", "bool", param("method", "StringName"))
	objectToString      = method("Object", "to_string", "String")
	objectSetMeta       = method("Object", "set_meta", "void", param("name", "StringName"), param("value", "Variant"))
	objectGetMeta       = method("Object", "get_meta", "Variant",
		param("name", "StringName"), optional("default", "Variant", meta.Variant(variant.Nil())))
	objectHasMeta     = method("Object", "has_meta", "bool", param("name", "StringName"))
	objectRemoveMeta  = method("Object", "remove_meta", "void", param("name", "StringName"))
	objectGetMetaList = method("Object", "get_meta_list", "PackedStringArray")
	_                 = vararg("Object", "call", "Variant", param("method", "StringName"))
)

// Object is the root class. Handles typed as Object may name either
// manually managed or reference-counted objects.
type Object struct {
	raw *obj.RawGd
}

func (Object) ClassName() obj.ClassName { return "Object" }
func (Object) Inherits() obj.ClassName  { return "" }
func (Object) Memory() obj.Memory       { return obj.MemDynamic{} }

func (Object) FromRaw(raw *obj.RawGd) Object { return Object{raw: raw} }

// Raw returns the handle the receiver operates on.
func (o Object) Raw() *obj.RawGd { return o.raw }

func (o Object) GetClass() string {
	return must(meta.PtrCall(o.raw, objectGetClass, meta.RetValue[string]()))
}

// IsClass reports whether the object is a class or inherits from it.
func (o Object) IsClass(class string) bool {
	return must(meta.PtrCall(o.raw, objectIsClass, meta.RetBool(), meta.String(class)))
}

func (o Object) GetInstanceID() obj.InstanceID {
	id := must(meta.PtrCall(o.raw, objectGetInstanceID, meta.RetValue[int64]()))
	return obj.FromInt64(id)
}

// HasMethod looks the method up on the object's dynamic class.
func (o Object) HasMethod(name string) bool {
	return must(meta.PtrCall(o.raw, objectHasMethod, meta.RetBool(), meta.Name(name)))
}

func (o Object) ToString() string {
	return must(meta.PtrCall(o.raw, objectToString, meta.RetValue[string]()))
}

// SetMeta stores a copy of value under name. A nil value removes the entry.
func (o Object) SetMeta(name string, value variant.Variant) {
	must(meta.VarCall(o.raw, objectSetMeta, meta.RetVoid(), []meta.Arg{meta.Name(name), meta.Variant(value)}))
}

// GetMeta returns the entry under name, or nil. The caller owns the result.
func (o Object) GetMeta(name string) variant.Variant {
	return must(meta.VarCall(o.raw, objectGetMeta, meta.RetVariant(), []meta.Arg{meta.Name(name)}))
}

// GetMetaOr returns the entry under name, or def when there is none.
func (o Object) GetMetaOr(name string, def variant.Variant) variant.Variant {
	return must(meta.VarCall(o.raw, objectGetMeta, meta.RetVariant(), []meta.Arg{meta.Name(name), meta.Variant(def)}))
}

func (o Object) HasMeta(name string) bool {
	return must(meta.PtrCall(o.raw, objectHasMeta, meta.RetBool(), meta.Name(name)))
}

func (o Object) RemoveMeta(name string) {
	must(meta.PtrCall(o.raw, objectRemoveMeta, meta.RetVoid(), meta.Name(name)))
}

func (o Object) GetMetaList() []string {
	return must(meta.PtrCall(o.raw, objectGetMetaList, meta.RetValue[[]string]()))
}

// Call invokes method by name on the object's dynamic class. Unlike the
// other methods it reports failures instead of panicking. The caller owns
// the result.
func (o Object) Call(method string, args ...variant.Variant) (variant.Variant, error) {
	return meta.CallByName(o.raw, method, args...)
}
