// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package classes

import (
	"github.com/hostbind/hostbind/pkg/meta"
	"github.com/hostbind/hostbind/pkg/obj"
)

var (
	refCountedGetReferenceCount = method("RefCounted", "get_reference_count", "int")

	resourceSetPath         = method("Resource", "set_path", "void", param("path", "String"))
	resourceGetPath         = method("Resource", "get_path", "String")
	resourceSetLocalToScene = method("Resource", "set_local_to_scene", "void", param("enable", "bool"))
	resourceIsLocalToScene  = method("Resource", "is_local_to_scene", "bool")
	resourceDuplicate       = method("Resource", "duplicate", "Resource",
		optional("subresources", "bool", meta.Bool(false)))
)

// RefCounted is the base of reference-counted classes. Its reference
// management methods are driven by handles and not exposed here.
type RefCounted struct {
	Object
}

func (RefCounted) ClassName() obj.ClassName { return "RefCounted" }
func (RefCounted) Inherits() obj.ClassName  { return "Object" }
func (RefCounted) Memory() obj.Memory       { return obj.MemRefCounted{} }

func (RefCounted) FromRaw(raw *obj.RawGd) RefCounted { return RefCounted{Object{raw: raw}} }

// GetReferenceCount asks the host. Handles report the same number through
// Gd.ReferenceCount without a method call.
func (r RefCounted) GetReferenceCount() int64 {
	return must(meta.PtrCall(r.raw, refCountedGetReferenceCount, meta.RetValue[int64]()))
}

// Resource is a reference-counted data object.
type Resource struct {
	RefCounted
}

func (Resource) ClassName() obj.ClassName { return "Resource" }
func (Resource) Inherits() obj.ClassName  { return "RefCounted" }
func (Resource) Memory() obj.Memory       { return obj.MemRefCounted{} }

func (Resource) FromRaw(raw *obj.RawGd) Resource {
	return Resource{RefCounted{Object{raw: raw}}}
}

func (r Resource) SetPath(path string) {
	must(meta.PtrCall(r.raw, resourceSetPath, meta.RetVoid(), meta.String(path)))
}

func (r Resource) GetPath() string {
	return must(meta.PtrCall(r.raw, resourceGetPath, meta.RetValue[string]()))
}

func (r Resource) SetLocalToScene(enable bool) {
	must(meta.PtrCall(r.raw, resourceSetLocalToScene, meta.RetVoid(), meta.Bool(enable)))
}

func (r Resource) IsLocalToScene() bool {
	return must(meta.PtrCall(r.raw, resourceIsLocalToScene, meta.RetBool()))
}

// Duplicate copies the resource. The returned handle holds the only
// reference to the copy.
func (r Resource) Duplicate() obj.Gd[Resource] {
	return must(meta.PtrCall(r.raw, resourceDuplicate, meta.RetObject[Resource]()))
}

// DuplicateDeep copies the resource and its sub-resources.
func (r Resource) DuplicateDeep() obj.Gd[Resource] {
	return must(meta.PtrCall(r.raw, resourceDuplicate, meta.RetObject[Resource](), meta.Bool(true)))
}
