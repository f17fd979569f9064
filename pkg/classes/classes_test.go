// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package classes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostbind/hostbind/internal/apidesc"
	"github.com/hostbind/hostbind/internal/enginesim"
	"github.com/hostbind/hostbind/pkg/classes"
	"github.com/hostbind/hostbind/pkg/obj"
	"github.com/hostbind/hostbind/pkg/sys"
	"github.com/hostbind/hostbind/pkg/variant"
)

func loadEngine(t *testing.T) *enginesim.Engine {
	t.Helper()
	e, err := enginesim.New(nil)
	require.NoError(t, err)
	require.NoError(t, sys.Load(e.Interface()))
	t.Cleanup(sys.Unload)
	return e
}

func TestSignatures_MatchAPIDescription(t *testing.T) {
	api := apidesc.Default()
	sigs := classes.Signatures()
	require.NotEmpty(t, sigs)

	for _, sig := range sigs {
		t.Run(sig.Context().String(), func(t *testing.T) {
			c, ok := api.Class(sig.Class)
			require.True(t, ok, "class %s", sig.Class)
			decl, ok := c.Method(sig.Method)
			require.True(t, ok, "method %s", sig.Method)

			assert.Equal(t, decl.Return, sig.Return)
			assert.Equal(t, decl.Vararg, sig.Vararg)
			require.Len(t, sig.Params, len(decl.Params))
			for i, p := range sig.Params {
				assert.Equal(t, decl.Params[i].Name, p.Name)
				assert.Equal(t, decl.Params[i].Type, p.Type)
				assert.Equal(t, decl.Params[i].Default != nil, p.Default != nil, "default of %s", p.Name)
			}
			assert.Equal(t, decl.Required(), sig.Required())
		})
	}
}

func TestClassDescriptors_MatchAPIDescription(t *testing.T) {
	api := apidesc.Default()
	tests := []struct {
		class      obj.Class
		refCounted bool
	}{
		{classes.Object{}, false},
		{classes.RefCounted{}, true},
		{classes.Resource{}, true},
		{classes.Node{}, false},
		{classes.Node3D{}, false},
		{classes.CanvasItem{}, false},
		{classes.Node2D{}, false},
	}
	for _, tt := range tests {
		name := string(tt.class.ClassName())
		t.Run(name, func(t *testing.T) {
			c, ok := api.Class(name)
			require.True(t, ok)
			assert.Equal(t, c.Inherits, string(tt.class.Inherits()))
			assert.Equal(t, c.RefCounted, tt.class.Memory().IsRefCounted(0))
		})
	}
}

func TestObject_Methods(t *testing.T) {
	e := loadEngine(t)
	require.NoError(t, e.SetNextInstanceID(9))
	n := obj.New[classes.Node3D]()
	defer n.Free()
	o := obj.Deref(n)

	assert.Equal(t, "Node3D", o.GetClass())
	assert.True(t, o.IsClass("Node"))
	assert.False(t, o.IsClass("Resource"))
	assert.Equal(t, obj.InstanceID(9), o.GetInstanceID())
	assert.True(t, o.HasMethod("translate"))
	assert.True(t, o.HasMethod("get_meta"))
	assert.False(t, o.HasMethod("fly"))
	assert.Equal(t, "<Node3D#9>", o.ToString())
}

func TestObject_Meta(t *testing.T) {
	loadEngine(t)
	n := obj.New[classes.Node]()
	defer n.Free()
	o := obj.Deref(n)

	assert.False(t, o.HasMeta("hp"))
	assert.True(t, o.GetMeta("hp").IsNil())
	assert.Equal(t, variant.Int(3), o.GetMetaOr("hp", variant.Int(3)))

	o.SetMeta("hp", variant.Int(10))
	o.SetMeta("tag", variant.String("boss"))
	assert.True(t, o.HasMeta("hp"))
	assert.Equal(t, variant.Int(10), o.GetMeta("hp"))
	assert.ElementsMatch(t, []string{"hp", "tag"}, o.GetMetaList())

	o.RemoveMeta("hp")
	assert.False(t, o.HasMeta("hp"))
	o.SetMeta("tag", variant.Nil())
	assert.Empty(t, o.GetMetaList())
}

func TestObject_Call(t *testing.T) {
	loadEngine(t)
	n := obj.New[classes.Node]()
	defer n.Free()
	o := obj.Deref(n)

	_, err := o.Call("set_name", variant.String("Root"))
	require.NoError(t, err)
	got, err := o.Call("get_name")
	require.NoError(t, err)
	assert.Equal(t, variant.Name("Root"), got)
	assert.Equal(t, "Root", obj.Deref(n).GetName())

	_, err = o.Call("translate", variant.Vec3(1, 0, 0))
	require.Error(t, err, "Node has no translate")
}

func TestNode_Tree(t *testing.T) {
	e := loadEngine(t)
	root := obj.New[classes.Node]()
	r := obj.Deref(root)
	camera := obj.New[classes.Node3D]()
	obj.Deref(camera).SetName("Camera")
	light := obj.New[classes.Node]()
	obj.Deref(light).SetName("Light")

	r.AddChild(obj.Upcast[classes.Node](camera.Clone()))
	r.AddChild(light)
	assert.Equal(t, int64(2), r.GetChildCount())

	first := r.GetChild(0)
	assert.Equal(t, camera.InstanceID(), first.InstanceID())
	assert.Equal(t, obj.ClassName("Node3D"), first.DynamicClass())
	assert.Equal(t, light.InstanceID(), r.GetChild(-1).InstanceID())
	assert.True(t, r.GetChild(2).IsNull())
	assert.Equal(t, root.InstanceID(), obj.Deref(camera).GetParent().InstanceID())
	assert.True(t, r.GetParent().IsNull())

	found := r.FindChild("Cam*")
	require.False(t, found.IsNull())
	cam := obj.Cast[classes.Node3D](found)
	assert.Equal(t, camera.InstanceID(), cam.InstanceID())
	assert.True(t, r.FindChild("Sun").IsNull())

	r.RemoveChild(light)
	assert.Equal(t, int64(1), r.GetChildCount())
	assert.True(t, obj.Deref(light).GetParent().IsNull())

	root.Free()
	assert.False(t, camera.IsAlive(), "children go with the parent")
	assert.True(t, light.IsAlive())
	light.Free()
	assert.Zero(t, e.Stats().Live)
}

func TestNode3D_Properties(t *testing.T) {
	loadEngine(t)
	n := obj.New[classes.Node3D]()
	defer n.Free()
	s := obj.Deref(n)

	assert.True(t, s.IsVisible())
	assert.Equal(t, 1.0, s.GetScaleFactor())
	assert.Equal(t, variant.Vector3{}, s.GetPosition())

	s.SetPosition(variant.Vector3{X: 1, Y: 2, Z: 3})
	s.Translate(variant.Vector3{X: 1, Y: 1, Z: 1})
	assert.Equal(t, variant.Vector3{X: 2, Y: 3, Z: 4}, s.GetPosition())

	s.SetVisible(false)
	s.SetScaleFactor(2.5)
	assert.False(t, s.IsVisible())
	assert.Equal(t, 2.5, s.GetScaleFactor())

	s.SetProcessPriority(4)
	assert.Equal(t, int64(4), s.GetProcessPriority())
}

func TestNode2D_Properties(t *testing.T) {
	loadEngine(t)
	n := obj.New[classes.Node2D]()
	defer n.Free()
	s := obj.Deref(n)

	assert.Equal(t, variant.Color{R: 1, G: 1, B: 1, A: 1}, s.GetModulate())
	s.SetModulate(variant.Color{R: 0.5, A: 1})
	assert.Equal(t, variant.Color{R: 0.5, A: 1}, s.GetModulate())

	s.SetPosition(variant.Vector2{X: 3, Y: -1})
	assert.Equal(t, variant.Vector2{X: 3, Y: -1}, s.GetPosition())

	assert.Empty(t, s.GetTags())
	s.SetTags([]string{"enemy", "flying"})
	assert.Equal(t, []string{"enemy", "flying"}, s.GetTags())
}

func TestCanvasItem_IsAbstract(t *testing.T) {
	loadEngine(t)
	assert.PanicsWithValue(t, "failed to construct object of class CanvasItem", func() {
		obj.New[classes.CanvasItem]()
	})
}

func TestResource_Duplicate(t *testing.T) {
	e := loadEngine(t)
	res := obj.New[classes.Resource]()
	r := obj.Deref(res)
	r.SetPath("res://a.tres")
	r.SetLocalToScene(true)
	assert.Equal(t, int64(1), r.GetReferenceCount())

	dup := r.Duplicate()
	d := obj.Deref(dup)
	assert.NotEqual(t, res.InstanceID(), dup.InstanceID())
	assert.Equal(t, "res://a.tres", d.GetPath())
	assert.True(t, d.IsLocalToScene())
	assert.Equal(t, int32(1), dup.ReferenceCount())

	deep := d.DuplicateDeep()
	assert.Equal(t, "res://a.tres", obj.Deref(deep).GetPath())

	asObject := obj.Upcast[classes.Object](dup.Clone())
	assert.Equal(t, int32(2), dup.ReferenceCount())
	assert.Equal(t, "Resource", obj.Deref(asObject).GetClass())
	asObject.Drop()

	for _, h := range []obj.Gd[classes.Resource]{res, dup, deep} {
		h.Drop()
	}
	assert.Zero(t, e.Stats().Live)
}

func TestDeadReceiverPanics(t *testing.T) {
	if !sys.Checked {
		t.Skip("dead-object checks are compiled out of release builds")
	}
	e := loadEngine(t)
	require.NoError(t, e.SetNextInstanceID(5))
	n := obj.New[classes.Node]()
	stale := n.Clone()
	n.Free()

	assert.PanicsWithError(t, "Node::deref: access to instance with ID 5 after it has been freed", func() {
		obj.Deref(stale).SetName("x")
	})
}
