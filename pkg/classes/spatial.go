// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package classes

import (
	"github.com/hostbind/hostbind/pkg/meta"
	"github.com/hostbind/hostbind/pkg/obj"
	"github.com/hostbind/hostbind/pkg/variant"
)

var (
	node3DSetPosition    = method("Node3D", "set_position", "void", param("position", "Vector3"))
	node3DGetPosition    = method("Node3D", "get_position", "Vector3")
	node3DTranslate      = method("Node3D", "translate", "void", param("offset", "Vector3"))
	node3DSetVisible     = method("Node3D", "set_visible", "void", param("visible", "bool"))
	node3DIsVisible      = method("Node3D", "is_visible", "bool")
	node3DSetScaleFactor = method("Node3D", "set_scale_factor", "void", param("factor", "float"))
	node3DGetScaleFactor = method("Node3D", "get_scale_factor", "float")

	canvasItemSetModulate = method("CanvasItem", "set_modulate", "void", param("modulate", "Color"))
	canvasItemGetModulate = method("CanvasItem", "get_modulate", "Color")

	node2DSetPosition = method("Node2D", "set_position", "void", param("position", "Vector2"))
	node2DGetPosition = method("Node2D", "get_position", "Vector2")
	node2DSetTags     = method("Node2D", "set_tags", "void", param("tags", "PackedStringArray"))
	node2DGetTags     = method("Node2D", "get_tags", "PackedStringArray")
)

type Node3D struct {
	Node
}

func (Node3D) ClassName() obj.ClassName { return "Node3D" }
func (Node3D) Inherits() obj.ClassName  { return "Node" }
func (Node3D) Memory() obj.Memory       { return obj.MemManual{} }

func (Node3D) FromRaw(raw *obj.RawGd) Node3D { return Node3D{Node{Object{raw: raw}}} }

func (n Node3D) SetPosition(p variant.Vector3) {
	must(meta.PtrCall(n.raw, node3DSetPosition, meta.RetVoid(), meta.Value(p)))
}

func (n Node3D) GetPosition() variant.Vector3 {
	return must(meta.PtrCall(n.raw, node3DGetPosition, meta.RetValue[variant.Vector3]()))
}

// Translate moves the node by offset.
func (n Node3D) Translate(offset variant.Vector3) {
	must(meta.PtrCall(n.raw, node3DTranslate, meta.RetVoid(), meta.Value(offset)))
}

func (n Node3D) SetVisible(visible bool) {
	must(meta.PtrCall(n.raw, node3DSetVisible, meta.RetVoid(), meta.Bool(visible)))
}

// IsVisible defaults to true.
func (n Node3D) IsVisible() bool {
	return must(meta.PtrCall(n.raw, node3DIsVisible, meta.RetBool()))
}

func (n Node3D) SetScaleFactor(f float64) {
	must(meta.PtrCall(n.raw, node3DSetScaleFactor, meta.RetVoid(), meta.Float(f)))
}

func (n Node3D) GetScaleFactor() float64 {
	return must(meta.PtrCall(n.raw, node3DGetScaleFactor, meta.RetValue[float64]()))
}

// CanvasItem is abstract; the host cannot construct it.
type CanvasItem struct {
	Node
}

func (CanvasItem) ClassName() obj.ClassName { return "CanvasItem" }
func (CanvasItem) Inherits() obj.ClassName  { return "Node" }
func (CanvasItem) Memory() obj.Memory       { return obj.MemManual{} }

func (CanvasItem) FromRaw(raw *obj.RawGd) CanvasItem { return CanvasItem{Node{Object{raw: raw}}} }

func (c CanvasItem) SetModulate(color variant.Color) {
	must(meta.PtrCall(c.raw, canvasItemSetModulate, meta.RetVoid(), meta.Value(color)))
}

func (c CanvasItem) GetModulate() variant.Color {
	return must(meta.PtrCall(c.raw, canvasItemGetModulate, meta.RetValue[variant.Color]()))
}

type Node2D struct {
	CanvasItem
}

func (Node2D) ClassName() obj.ClassName { return "Node2D" }
func (Node2D) Inherits() obj.ClassName  { return "CanvasItem" }
func (Node2D) Memory() obj.Memory       { return obj.MemManual{} }

func (Node2D) FromRaw(raw *obj.RawGd) Node2D {
	return Node2D{CanvasItem{Node{Object{raw: raw}}}}
}

func (n Node2D) SetPosition(p variant.Vector2) {
	must(meta.PtrCall(n.raw, node2DSetPosition, meta.RetVoid(), meta.Value(p)))
}

func (n Node2D) GetPosition() variant.Vector2 {
	return must(meta.PtrCall(n.raw, node2DGetPosition, meta.RetValue[variant.Vector2]()))
}

func (n Node2D) SetTags(tags []string) {
	must(meta.PtrCall(n.raw, node2DSetTags, meta.RetVoid(), meta.Value(tags)))
}

func (n Node2D) GetTags() []string {
	return must(meta.PtrCall(n.raw, node2DGetTags, meta.RetValue[[]string]()))
}
