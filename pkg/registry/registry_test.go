// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package registry_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostbind/hostbind/internal/enginesim"
	"github.com/hostbind/hostbind/pkg/classes"
	"github.com/hostbind/hostbind/pkg/errutil"
	"github.com/hostbind/hostbind/pkg/meta"
	"github.com/hostbind/hostbind/pkg/obj"
	"github.com/hostbind/hostbind/pkg/registry"
	"github.com/hostbind/hostbind/pkg/sys"
	"github.com/hostbind/hostbind/pkg/variant"
)

type counter struct {
	base  obj.Base
	total int64
}

func (counter) ClassName() obj.ClassName { return "Counter" }
func (counter) Inherits() obj.ClassName  { return "Node" }
func (counter) Memory() obj.Memory       { return obj.MemManual{} }

type tally struct {
	base obj.Base
	n    int64
}

func (tally) ClassName() obj.ClassName { return "Tally" }
func (tally) Inherits() obj.ClassName  { return "Resource" }
func (tally) Memory() obj.Memory       { return obj.MemRefCounted{} }

var counterMethods = []registry.Method[counter]{
	{
		Name:   "add",
		Args:   []sys.VariantType{sys.VariantInt},
		Return: sys.VariantInt,
		Func: func(c *counter, args []variant.Variant) (variant.Variant, error) {
			n, err := args[0].ToInt64()
			if err != nil {
				return variant.Nil(), err
			}
			c.total += n
			return variant.Int(c.total), nil
		},
	},
	{
		Name:   "total",
		Return: sys.VariantInt,
		Const:  true,
		Func: func(c *counter, _ []variant.Variant) (variant.Variant, error) {
			return variant.Int(c.total), nil
		},
	},
	{
		Name:   "label",
		Args:   []sys.VariantType{sys.VariantNil},
		Return: sys.VariantString,
		Vararg: true,
		Func: func(c *counter, args []variant.Variant) (variant.Variant, error) {
			name := classes.Node{}.FromRaw(c.base.Raw()).GetName()
			return variant.String(name + ":" + args[0].String()), nil
		},
	},
	{
		Name: "fail",
		Func: func(*counter, []variant.Variant) (variant.Variant, error) {
			return variant.Nil(), errors.New("boom")
		},
	},
	{
		Name: "explode",
		Func: func(*counter, []variant.Variant) (variant.Variant, error) {
			panic("kaboom")
		},
	},
}

var (
	addSig   = &meta.Signature{Class: "Counter", Method: "add", Params: []meta.Param{{Name: "n", Type: "int"}}, Return: "int"}
	totalSig = &meta.Signature{Class: "Counter", Method: "total", Return: "int"}
	labelSig = &meta.Signature{Class: "Counter", Method: "label", Params: []meta.Param{{Name: "tag", Type: "Variant"}}, Return: "String", Vararg: true}
	failSig  = &meta.Signature{Class: "Counter", Method: "fail", Return: "Variant"}
	bumpSig  = &meta.Signature{Class: "Tally", Method: "bump", Return: "int"}
)

func loadEngine(t *testing.T) *enginesim.Engine {
	t.Helper()
	e, err := enginesim.New(nil)
	require.NoError(t, err)
	require.NoError(t, sys.Load(e.Interface()))
	t.Cleanup(sys.Unload)
	t.Cleanup(func() { sys.SetLibrary(0) })
	return e
}

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New(3)
	require.NoError(t, registry.Register(r, sys.InitLevelScene,
		func(base obj.Base) counter { return counter{base: base} }, counterMethods...))
	require.NoError(t, registry.Register(r, sys.InitLevelServers,
		func(base obj.Base) tally { return tally{base: base} },
		registry.Method[tally]{
			Name:   "bump",
			Return: sys.VariantInt,
			Func: func(t *tally, _ []variant.Variant) (variant.Variant, error) {
				t.n++
				return variant.Int(t.n), nil
			},
		}))
	return r
}

func TestInit_RegistersClassesPerLevel(t *testing.T) {
	e := loadEngine(t)
	r := newRegistry(t)
	assert.Equal(t, []obj.ClassName{"Counter", "Tally"}, r.Classes())

	require.NoError(t, r.Init(sys.InitLevelCore))
	assert.Equal(t, sys.LibraryToken(3), sys.Library())
	assert.NotContains(t, e.ClassNames(), "Tally")

	require.NoError(t, r.Init(sys.InitLevelServers))
	assert.Contains(t, e.ClassNames(), "Tally")
	assert.NotContains(t, e.ClassNames(), "Counter")

	require.NoError(t, r.Init(sys.InitLevelScene))
	assert.Contains(t, e.ClassNames(), "Counter")
	assert.ElementsMatch(t, []string{"add", "total", "label", "fail", "explode"},
		sys.Get().ClassDBGetMethodList("Counter"))

	err := r.Init(sys.InitLevelScene)
	errutil.AssertErrorCode(t, err, "LEVEL_INITIALIZED")

	require.NoError(t, r.Deinit(sys.InitLevelScene))
	assert.NotContains(t, e.ClassNames(), "Counter")
	require.NoError(t, r.Deinit(sys.InitLevelServers))
	require.NoError(t, r.Deinit(sys.InitLevelCore))
	assert.Zero(t, sys.Library())

	errutil.AssertErrorCode(t, r.Deinit(sys.InitLevelCore), "LEVEL_NOT_INITIALIZED")
}

func TestExtensionClass_CallsBothConventions(t *testing.T) {
	loadEngine(t)
	r := newRegistry(t)
	require.NoError(t, r.Init(sys.InitLevelScene))
	before := obj.LiveInstances()

	c := obj.New[counter]()
	assert.Equal(t, obj.ClassName("Counter"), c.DynamicClass())
	assert.Equal(t, before+1, obj.LiveInstances())

	got, err := meta.VarCall(c.Raw(), addSig, meta.RetValue[int64](), []meta.Arg{meta.Int(5)})
	require.NoError(t, err)
	assert.Equal(t, int64(5), got)

	got, err = meta.PtrCall(c.Raw(), addSig, meta.RetValue[int64](), meta.Int(3))
	require.NoError(t, err)
	assert.Equal(t, int64(8), got)

	got, err = meta.PtrCall(c.Raw(), totalSig, meta.RetValue[int64]())
	require.NoError(t, err)
	assert.Equal(t, int64(8), got)

	ref := c.Bind()
	assert.Equal(t, int64(8), ref.Get().total)
	ref.Release()

	v, err := meta.CallByName(c.Raw(), "total")
	require.NoError(t, err)
	assert.Equal(t, variant.Int(8), v)

	// Inherited engine methods work on the extension object.
	asNode := obj.Upcast[classes.Node](c.Clone())
	obj.Deref(asNode).SetName("Score")
	label, err := meta.VarCall(c.Raw(), labelSig, meta.RetValue[string](), []meta.Arg{meta.Int(1)}, variant.Int(2))
	require.NoError(t, err)
	assert.Equal(t, "Score:1", label)

	c.Free()
	assert.Equal(t, before, obj.LiveInstances())
}

func TestExtensionClass_MethodFailures(t *testing.T) {
	loadEngine(t)
	r := newRegistry(t)
	require.NoError(t, r.Init(sys.InitLevelScene))
	c := obj.New[counter]()
	defer c.Free()

	_, err := meta.VarCall(c.Raw(), failSig, meta.RetVariant(), nil)
	require.Error(t, err)
	var ce *meta.CallError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, sys.CallErrorInvalidMethod, ce.Host.Type)

	_, err = meta.CallByName(c.Raw(), "explode")
	require.Error(t, err)

	// A failed method leaves the instance usable.
	got, err := meta.PtrCall(c.Raw(), addSig, meta.RetValue[int64](), meta.Int(1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestExtensionClass_Reentrancy(t *testing.T) {
	loadEngine(t)
	r := registry.New(4)
	var inner error
	require.NoError(t, registry.Register(r, sys.InitLevelScene,
		func(base obj.Base) counter { return counter{base: base} },
		registry.Method[counter]{
			Name:   "total",
			Return: sys.VariantInt,
			Const:  true,
			Func: func(c *counter, _ []variant.Variant) (variant.Variant, error) {
				return variant.Int(c.total), nil
			},
		},
		registry.Method[counter]{
			Name:   "nested",
			Return: sys.VariantInt,
			Func: func(c *counter, _ []variant.Variant) (variant.Variant, error) {
				_, inner = meta.CallByName(c.base.Raw(), "total")
				return variant.Int(0), nil
			},
		},
	))
	require.NoError(t, r.Init(sys.InitLevelScene))
	c := obj.New[counter]()
	defer c.Free()

	_, err := meta.CallByName(c.Raw(), "nested")
	require.NoError(t, err)
	require.Error(t, inner, "a shared borrow cannot overlap the exclusive one")
}

func TestExtensionClass_RefCounted(t *testing.T) {
	e := loadEngine(t)
	r := newRegistry(t)
	require.NoError(t, r.Init(sys.InitLevelServers))
	before := obj.LiveInstances()

	tl := obj.New[tally]()
	assert.Equal(t, int32(1), tl.ReferenceCount())
	for range 3 {
		_, err := meta.PtrCall(tl.Raw(), bumpSig, meta.RetValue[int64]())
		require.NoError(t, err)
	}
	ref := tl.Bind()
	assert.Equal(t, int64(3), ref.Get().n)
	ref.Release()

	ptr := tl.Ptr()
	tl.Drop()
	assert.False(t, e.IsLive(ptr))
	assert.Equal(t, before, obj.LiveInstances())
}

func TestRegister_Validation(t *testing.T) {
	loadEngine(t)
	r := newRegistry(t)
	ctor := func(base obj.Base) counter { return counter{base: base} }

	err := registry.Register(r, sys.InitLevelScene, ctor)
	errutil.AssertErrorCode(t, err, "CLASS_DUPLICATE")

	err = registry.Register(registry.New(5), sys.InitLevelScene, ctor,
		registry.Method[counter]{Name: "x"})
	errutil.AssertErrorCode(t, err, "METHOD_INVALID")

	err = registry.Register(registry.New(5), sys.InitLevelScene, ctor,
		registry.Method[counter]{Name: "x", Args: []sys.VariantType{sys.VariantDictionary}, Func: counterMethods[1].Func})
	errutil.AssertErrorCode(t, err, "METHOD_INVALID")

	late := registry.New(6)
	require.NoError(t, late.Init(sys.InitLevelScene))
	err = registry.Register(late, sys.InitLevelScene, ctor)
	errutil.AssertErrorCode(t, err, "CLASS_LATE")
}

type orphan struct{}

func (orphan) ClassName() obj.ClassName { return "Orphan" }
func (orphan) Inherits() obj.ClassName  { return "Spaceship" }
func (orphan) Memory() obj.Memory       { return obj.MemManual{} }

func TestInit_UnknownBaseRollsBack(t *testing.T) {
	e := loadEngine(t)
	r := registry.New(7)
	require.NoError(t, registry.Register(r, sys.InitLevelScene,
		func(base obj.Base) counter { return counter{base: base} }))
	require.NoError(t, registry.Register(r, sys.InitLevelScene,
		func(obj.Base) orphan { return orphan{} }))

	err := r.Init(sys.InitLevelScene)
	errutil.AssertErrorCode(t, err, "CLASS_INVALID")
	assert.NotContains(t, e.ClassNames(), "Counter")
}

func TestInit_ChecksHostVersion(t *testing.T) {
	loadEngine(t)
	ok := registry.New(8, registry.WithHostConstraint(">= 4.1, < 5"))
	require.NoError(t, ok.Init(sys.InitLevelCore))

	tooNew := registry.New(9, registry.WithHostConstraint(">= 5"))
	err := tooNew.Init(sys.InitLevelCore)
	errutil.AssertErrorCode(t, err, "API_INCOMPATIBLE")
	assert.Equal(t, sys.LibraryToken(8), sys.Library(), "failed init leaves the token alone")
}
