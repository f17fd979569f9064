// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package enginesim

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/hostbind/hostbind/pkg/sys"
	"github.com/hostbind/hostbind/pkg/variant"
)

var builtins = map[string]builtin{
	"Object.get_class":       objectGetClass,
	"Object.is_class":        objectIsClass,
	"Object.get_instance_id": objectGetInstanceID,
	"Object.has_method":      objectHasMethod,
	"Object.to_string":       objectToString,
	"Object.set_meta":        objectSetMeta,
	"Object.get_meta":        objectGetMeta,
	"Object.has_meta":        objectHasMeta,
	"Object.remove_meta":     objectRemoveMeta,
	"Object.get_meta_list":   objectGetMetaList,
	"Object.call":            objectCall,

	"RefCounted.init_ref":            refInitRef,
	"RefCounted.reference":           refReference,
	"RefCounted.unreference":         refUnreference,
	"RefCounted.get_reference_count": refGetReferenceCount,

	"Resource.duplicate": resourceDuplicate,

	"Node.add_child":       nodeAddChild,
	"Node.remove_child":    nodeRemoveChild,
	"Node.get_child_count": nodeGetChildCount,
	"Node.get_child":       nodeGetChild,
	"Node.get_parent":      nodeGetParent,
	"Node.find_child":      nodeFindChild,

	"Node3D.translate": node3DTranslate,
}

// Property defaults that differ from the zero value of their type.
var propDefaults = map[string]variant.Variant{
	"visible":      variant.Bool(true),
	"scale_factor": variant.Float(1),
	"modulate":     variant.RGBA(1, 1, 1, 1),
}

func builtinFor(class, method string) builtin {
	return builtins[class+"."+method]
}

// accessorFor implements plain setters and getters over the object's
// property store, and anything else as a no-op returning the zero value.
func accessorFor(m *method) builtin {
	switch {
	case strings.HasPrefix(m.name, "set_") && len(m.params) == 1 && m.ret.void:
		prop := strings.TrimPrefix(m.name, "set_")
		return func(c *callCtx) variant.Variant {
			c.self.setProp(prop, c.args[0])
			return variant.Nil()
		}
	case (strings.HasPrefix(m.name, "get_") || strings.HasPrefix(m.name, "is_")) && len(m.params) == 0:
		prop := m.name[strings.IndexByte(m.name, '_')+1:]
		ret := m.ret
		return func(c *callCtx) variant.Variant {
			v, ok := c.self.prop(prop)
			if !ok {
				if def, ok := propDefaults[prop]; ok {
					return def.Clone()
				}
				return zeroOf(ret)
			}
			return convertTo(v, ret)
		}
	}
	ret := m.ret
	return func(*callCtx) variant.Variant {
		return zeroOf(ret)
	}
}

func zeroOf(t typeRef) variant.Variant {
	if t.any || t.void {
		return variant.Nil()
	}
	switch t.vt {
	case sys.VariantBool:
		return variant.Bool(false)
	case sys.VariantInt:
		return variant.Int(0)
	case sys.VariantFloat:
		return variant.Float(0)
	case sys.VariantString:
		return variant.String("")
	case sys.VariantStringName:
		return variant.Name("")
	case sys.VariantVector2:
		return variant.Vec2(0, 0)
	case sys.VariantVector3:
		return variant.Vec3(0, 0, 0)
	case sys.VariantColor:
		return variant.RGBA(0, 0, 0, 0)
	case sys.VariantPackedByteArray:
		return variant.Bytes(nil)
	case sys.VariantPackedInt64Array:
		return variant.Int64s(nil)
	case sys.VariantPackedFloat64Array:
		return variant.Float64s(nil)
	case sys.VariantPackedStringArray:
		return variant.Strings(nil)
	case sys.VariantArray:
		return variant.FromArray(nil)
	case sys.VariantDictionary:
		return variant.FromDictionary(nil)
	case sys.VariantObject:
		return variant.FromObjectPtr(0)
	}
	return variant.Nil()
}

// convertTo adjusts a stored property to a getter's declared type.
func convertTo(v variant.Variant, t typeRef) variant.Variant {
	switch {
	case t.vt == sys.VariantStringName && v.Type() == sys.VariantString:
		s, _ := v.ToString()
		return variant.Name(variant.StringName(s))
	case t.vt == sys.VariantString && v.Type() == sys.VariantStringName:
		s, _ := v.ToString()
		return variant.String(s)
	}
	return v
}

func (c *callCtx) str(i int) string {
	s, _ := c.args[i].ToString()
	return s
}

func (c *callCtx) object(i int) *object {
	ptr, _, ok := c.args[i].ObjectPtr()
	if !ok {
		return nil
	}
	return c.e.lookup(ptr)
}

func (c *callCtx) warn(msg string, args ...any) {
	c.e.logger.Warn(msg, append([]any{"component", "enginesim", "method", c.m.qualified()}, args...)...)
}

func objectGetClass(c *callCtx) variant.Variant {
	return variant.String(c.self.className())
}

func objectIsClass(c *callCtx) variant.Variant {
	target := c.e.classByName(c.str(0))
	return variant.Bool(target != nil && c.self.cls().inherits(target))
}

func objectGetInstanceID(c *callCtx) variant.Variant {
	return variant.Int(int64(c.self.id))
}

func objectHasMethod(c *callCtx) variant.Variant {
	c.e.mu.RLock()
	defer c.e.mu.RUnlock()
	return variant.Bool(c.self.cls().findMethod(c.str(0)) != nil)
}

func objectToString(c *callCtx) variant.Variant {
	return variant.String(fmt.Sprintf("<%s#%d>", c.self.className(), c.self.id))
}

func metaKey(name string) variant.Variant {
	return variant.Name(variant.StringName(name))
}

// objectSetMeta stores a copy of the value. Setting Nil removes the entry.
func objectSetMeta(c *callCtx) variant.Variant {
	key := metaKey(c.str(0))
	if c.args[1].IsNil() {
		return objectRemoveMeta(c)
	}
	value := c.args[1].Clone()
	c.self.mu.Lock()
	if c.self.meta == nil {
		c.self.meta = variant.NewDictionary()
	}
	old, had := c.self.meta.Get(key)
	err := c.self.meta.Set(key, value)
	c.self.mu.Unlock()
	if err != nil {
		value.Release()
		c.warn("cannot store meta", "error", err)
		return variant.Nil()
	}
	if had {
		old.Release()
	}
	return variant.Nil()
}

func objectGetMeta(c *callCtx) variant.Variant {
	key := metaKey(c.str(0))
	c.self.mu.Lock()
	var (
		v  variant.Variant
		ok bool
	)
	if c.self.meta != nil {
		v, ok = c.self.meta.Get(key)
	}
	if ok {
		v = v.Clone()
	}
	c.self.mu.Unlock()
	if ok {
		return v
	}
	return c.args[1].Clone()
}

func objectHasMeta(c *callCtx) variant.Variant {
	c.self.mu.Lock()
	defer c.self.mu.Unlock()
	if c.self.meta == nil {
		return variant.Bool(false)
	}
	_, ok := c.self.meta.Get(metaKey(c.str(0)))
	return variant.Bool(ok)
}

func objectRemoveMeta(c *callCtx) variant.Variant {
	key := metaKey(c.str(0))
	c.self.mu.Lock()
	var (
		old variant.Variant
		ok  bool
	)
	if c.self.meta != nil {
		old, ok = c.self.meta.Get(key)
		c.self.meta.Delete(key)
	}
	c.self.mu.Unlock()
	if ok {
		old.Release()
	}
	return variant.Nil()
}

func objectGetMetaList(c *callCtx) variant.Variant {
	c.self.mu.Lock()
	defer c.self.mu.Unlock()
	var names []string
	if c.self.meta != nil {
		for _, k := range c.self.meta.Keys() {
			s, _ := k.ToString()
			names = append(names, s)
		}
	}
	return variant.Strings(names)
}

// objectCall dispatches by name with the remaining arguments.
func objectCall(c *callCtx) variant.Variant {
	name := c.str(0)
	c.e.mu.RLock()
	m := c.self.cls().findMethod(name)
	c.e.mu.RUnlock()
	if m == nil {
		c.err.Type = sys.CallErrorInvalidMethod
		return variant.Nil()
	}
	res := c.e.varcall(m, c.self, c.args[1:], c.err)
	// Report positions relative to the outer call, which has the name first.
	switch c.err.Type {
	case sys.CallErrorInvalidArgument:
		c.err.Argument++
	case sys.CallErrorTooManyArguments, sys.CallErrorTooFewArguments:
		c.err.Expected++
	}
	return res
}

func refInitRef(c *callCtx) variant.Variant {
	return variant.Bool(c.e.initRef(c.self.ptr))
}

func refReference(c *callCtx) variant.Variant {
	return variant.Bool(c.e.reference(c.self.ptr))
}

func refUnreference(c *callCtx) variant.Variant {
	return variant.Bool(c.e.unreference(c.self.ptr))
}

func refGetReferenceCount(c *callCtx) variant.Variant {
	return variant.Int(int64(c.self.refCount.Load()))
}

// resourceDuplicate makes a new resource of the same class with a copy of
// the properties. The result holds the only reference.
func resourceDuplicate(c *callCtx) variant.Variant {
	ptr := c.e.construct(c.self.className())
	dup := c.e.lookup(ptr)
	if dup == nil {
		return variant.FromObjectPtr(0)
	}
	c.self.mu.Lock()
	props := make(map[string]variant.Variant, len(c.self.props))
	for k, v := range c.self.props {
		props[k] = v.Clone()
	}
	c.self.mu.Unlock()
	dup.mu.Lock()
	for k, v := range props {
		dup.props[k] = v
	}
	dup.mu.Unlock()
	return variant.FromObjectPtr(ptr)
}

func nodeAddChild(c *callCtx) variant.Variant {
	child := c.object(0)
	if child == nil {
		c.warn("cannot add a null child")
		return variant.Nil()
	}
	c.e.tree.Lock()
	defer c.e.tree.Unlock()
	if child.parent != nil {
		c.warn("child already has a parent", "child", child.id)
		return variant.Nil()
	}
	for p := c.self; p != nil; p = p.parent {
		if p == child {
			c.warn("cannot add an ancestor as a child", "child", child.id)
			return variant.Nil()
		}
	}
	child.parent = c.self
	c.self.children = append(c.self.children, child)
	return variant.Nil()
}

func nodeRemoveChild(c *callCtx) variant.Variant {
	child := c.object(0)
	if child == nil {
		return variant.Nil()
	}
	c.e.tree.Lock()
	defer c.e.tree.Unlock()
	if child.parent != c.self {
		c.warn("node is not a child", "child", child.id)
		return variant.Nil()
	}
	c.self.children = removeChild(c.self.children, child)
	child.parent = nil
	return variant.Nil()
}

func nodeGetChildCount(c *callCtx) variant.Variant {
	c.e.tree.Lock()
	defer c.e.tree.Unlock()
	return variant.Int(int64(len(c.self.children)))
}

// nodeGetChild accepts negative indices counting from the end.
func nodeGetChild(c *callCtx) variant.Variant {
	idx, _ := c.args[0].ToInt64()
	c.e.tree.Lock()
	n := int64(len(c.self.children))
	if idx < 0 {
		idx += n
	}
	var child *object
	if idx >= 0 && idx < n {
		child = c.self.children[idx]
	}
	c.e.tree.Unlock()
	if child == nil {
		c.warn("child index out of range", "index", idx, "count", n)
		return variant.FromObjectPtr(0)
	}
	return variant.FromObjectPtr(child.ptr)
}

func nodeGetParent(c *callCtx) variant.Variant {
	c.e.tree.Lock()
	p := c.self.parent
	c.e.tree.Unlock()
	if p == nil {
		return variant.FromObjectPtr(0)
	}
	return variant.FromObjectPtr(p.ptr)
}

// nodeFindChild searches descendants depth-first for a name matching a
// pattern with * and ? wildcards.
func nodeFindChild(c *callCtx) variant.Variant {
	g, err := glob.Compile(c.str(0))
	if err != nil {
		c.warn("invalid pattern", "pattern", c.str(0), "error", err)
		return variant.FromObjectPtr(0)
	}
	c.e.tree.Lock()
	found := findDescendant(c.self, g)
	c.e.tree.Unlock()
	if found == nil {
		return variant.FromObjectPtr(0)
	}
	return variant.FromObjectPtr(found.ptr)
}

func findDescendant(n *object, g glob.Glob) *object {
	for _, ch := range n.children {
		if v, ok := ch.prop("name"); ok {
			if name, err := v.ToString(); err == nil && g.Match(name) {
				return ch
			}
		}
		if found := findDescendant(ch, g); found != nil {
			return found
		}
	}
	return nil
}

func node3DTranslate(c *callCtx) variant.Variant {
	offset, _ := variant.As[variant.Vector3](c.args[0])
	var pos variant.Vector3
	if v, ok := c.self.prop("position"); ok {
		pos, _ = variant.As[variant.Vector3](v)
	}
	c.self.setProp("position", variant.Vec3(pos.X+offset.X, pos.Y+offset.Y, pos.Z+offset.Z))
	return variant.Nil()
}
