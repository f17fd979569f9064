// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package classes

import (
	"github.com/hostbind/hostbind/pkg/meta"
	"github.com/hostbind/hostbind/pkg/obj"
	"github.com/hostbind/hostbind/pkg/variant"
)

var (
	nodeSetName  = method("Node", "set_name", "void", param("name", "String"))
	nodeGetName  = method("Node", "get_name", "StringName")
	nodeAddChild = method("Node", "add_child", "void",
		param("node", "Node"), optional("force_readable_name", "bool", meta.Bool(false)))
	nodeRemoveChild        = method("Node", "remove_child", "void", param("node", "Node"))
	nodeGetChildCount      = method("Node", "get_child_count", "int")
	nodeGetChild           = method("Node", "get_child", "Node", param("idx", "int"))
	nodeGetParent          = method("Node", "get_parent", "Node")
	nodeFindChild          = method("Node", "find_child", "Node", param("pattern", "String"))
	nodeSetProcessPriority = method("Node", "set_process_priority", "void", param("priority", "int"))
	nodeGetProcessPriority = method("Node", "get_process_priority", "int")
)

// Node is a manually managed scene tree element. Freeing a node frees its
// children.
type Node struct {
	Object
}

func (Node) ClassName() obj.ClassName { return "Node" }
func (Node) Inherits() obj.ClassName  { return "Object" }
func (Node) Memory() obj.Memory       { return obj.MemManual{} }

func (Node) FromRaw(raw *obj.RawGd) Node { return Node{Object{raw: raw}} }

func (n Node) SetName(name string) {
	must(meta.PtrCall(n.raw, nodeSetName, meta.RetVoid(), meta.String(name)))
}

func (n Node) GetName() string {
	return string(must(meta.PtrCall(n.raw, nodeGetName, meta.RetValue[variant.StringName]())))
}

// AddChild attaches child. The host refuses nodes that already have a
// parent and ancestors of n. Pass subclasses with obj.Upcast.
func (n Node) AddChild(child obj.Gd[Node]) {
	must(meta.PtrCall(n.raw, nodeAddChild, meta.RetVoid(), meta.Object(child)))
}

func (n Node) RemoveChild(child obj.Gd[Node]) {
	must(meta.PtrCall(n.raw, nodeRemoveChild, meta.RetVoid(), meta.Object(child)))
}

func (n Node) GetChildCount() int64 {
	return must(meta.PtrCall(n.raw, nodeGetChildCount, meta.RetValue[int64]()))
}

// GetChild returns the child at idx; negative indices count from the end.
// Out of range yields a null handle.
func (n Node) GetChild(idx int64) obj.Gd[Node] {
	return must(meta.PtrCall(n.raw, nodeGetChild, meta.RetObject[Node](), meta.Int(idx)))
}

func (n Node) GetParent() obj.Gd[Node] {
	return must(meta.PtrCall(n.raw, nodeGetParent, meta.RetObject[Node]()))
}

// FindChild searches descendants depth-first for a name matching the glob
// pattern.
func (n Node) FindChild(pattern string) obj.Gd[Node] {
	return must(meta.PtrCall(n.raw, nodeFindChild, meta.RetObject[Node](), meta.String(pattern)))
}

func (n Node) SetProcessPriority(priority int64) {
	must(meta.PtrCall(n.raw, nodeSetProcessPriority, meta.RetVoid(), meta.Int(priority)))
}

func (n Node) GetProcessPriority() int64 {
	return must(meta.PtrCall(n.raw, nodeGetProcessPriority, meta.RetValue[int64]()))
}
