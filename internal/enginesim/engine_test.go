// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package enginesim_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostbind/hostbind/internal/enginesim"
	"github.com/hostbind/hostbind/pkg/sys"
	"github.com/hostbind/hostbind/pkg/variant"
)

func newEngine(t *testing.T) (*enginesim.Engine, *sys.Interface) {
	t.Helper()
	e, err := enginesim.New(nil)
	require.NoError(t, err)
	require.NoError(t, sys.Load(e.Interface()))
	t.Cleanup(sys.Unload)
	return e, e.Interface()
}

func varcall(t *testing.T, host *sys.Interface, class, method string, self sys.ObjectPtr, args ...variant.Variant) (variant.Variant, sys.CallError) {
	t.Helper()
	bind := host.ClassDBGetMethodBind(class, method, 0)
	require.NotZero(t, bind, "%s::%s", class, method)
	ptrs := make([]sys.VariantPtr, len(args))
	for i := range args {
		ptrs[i] = variant.Ptr(&args[i])
	}
	var ret variant.Variant
	var cerr sys.CallError
	host.ObjectMethodBindCall(bind, self, ptrs, variant.Ptr(&ret), &cerr)
	return ret, cerr
}

func TestConstruct_AssignsDistinctIdentities(t *testing.T) {
	e, host := newEngine(t)

	a := host.ClassDBConstructObject("Node")
	b := host.ClassDBConstructObject("Node")
	require.NotZero(t, a)
	require.NotZero(t, b)
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, host.ObjectGetInstanceID(a), host.ObjectGetInstanceID(b))
	assert.Equal(t, "Node", host.ObjectGetClassName(a))
	assert.Zero(t, host.ObjectGetInstanceID(a)>>63, "manual objects have no ref-counted bit")

	r := host.ClassDBConstructObject("Resource")
	assert.NotZero(t, host.ObjectGetInstanceID(r)>>63)

	assert.Zero(t, host.ClassDBConstructObject("CanvasItem"), "abstract")
	assert.Zero(t, host.ClassDBConstructObject("Nope"))

	host.ObjectDestroy(a)
	assert.False(t, e.IsLive(a))
	assert.Zero(t, host.ObjectGetInstanceFromID(host.ObjectGetInstanceID(b)+1000))
	assert.Equal(t, int64(3), e.Stats().Constructed)
	assert.Equal(t, 2, e.Stats().Live)
}

func TestDestroy_TwiceCrashes(t *testing.T) {
	_, host := newEngine(t)
	n := host.ClassDBConstructObject("Node")
	host.ObjectDestroy(n)
	assert.Panics(t, func() { host.ObjectDestroy(n) })
}

func TestRefCount_InitRefAbsorbsInitialReference(t *testing.T) {
	e, host := newEngine(t)
	r := host.ClassDBConstructObject("Resource")
	assert.Equal(t, int32(1), e.RefCount(r))

	require.True(t, host.ObjectInitRef(r))
	assert.Equal(t, int32(1), e.RefCount(r))
	require.True(t, host.ObjectInitRef(r))
	assert.Equal(t, int32(2), e.RefCount(r))
	require.True(t, host.ObjectReference(r))
	assert.Equal(t, int32(3), e.RefCount(r))

	assert.False(t, host.ObjectUnreference(r))
	assert.False(t, host.ObjectUnreference(r))
	assert.True(t, host.ObjectUnreference(r))

	n := host.ClassDBConstructObject("Node")
	assert.False(t, host.ObjectReference(n))
	assert.Equal(t, int32(-1), e.RefCount(n))
}

func TestCast_FollowsInheritance(t *testing.T) {
	e, host := newEngine(t)
	n := host.ClassDBConstructObject("Node3D")

	assert.Equal(t, n, host.ObjectCastTo(n, host.ClassDBGetClassTag("Node")))
	assert.Equal(t, n, host.ObjectCastTo(n, host.ClassDBGetClassTag("Object")))
	assert.Zero(t, host.ObjectCastTo(n, host.ClassDBGetClassTag("Resource")))
	assert.Zero(t, host.ObjectCastTo(n, 0))
	assert.Equal(t, int64(4), e.Stats().Casts)

	assert.Equal(t, "Node", host.ClassDBGetParentClass("Node3D"))
	assert.Empty(t, host.ClassDBGetParentClass("Object"))
}

func TestSetNextInstanceID(t *testing.T) {
	e, host := newEngine(t)
	require.NoError(t, e.SetNextInstanceID(42))
	n := host.ClassDBConstructObject("Node")
	assert.Equal(t, uint64(42), host.ObjectGetInstanceID(n))

	host.ObjectDestroy(n)
	assert.Zero(t, host.ObjectGetInstanceFromID(42))
	assert.Error(t, e.SetNextInstanceID(42), "IDs are never reissued")

	require.NoError(t, e.SetNextInstanceID(43))
	r := host.ClassDBConstructObject("Resource")
	assert.Equal(t, uint64(43)|1<<63, host.ObjectGetInstanceID(r))
}

func TestVarcall_ChecksArgumentCount(t *testing.T) {
	_, host := newEngine(t)
	n := host.ClassDBConstructObject("Node")

	_, cerr := varcall(t, host, "Node", "set_name", n)
	assert.Equal(t, sys.CallErrorTooFewArguments, cerr.Type)
	assert.Equal(t, int32(1), cerr.Expected)

	_, cerr = varcall(t, host, "Node", "set_name", n, variant.String("a"), variant.String("b"))
	assert.Equal(t, sys.CallErrorTooManyArguments, cerr.Type)
	assert.Equal(t, int32(1), cerr.Expected)

	_, cerr = varcall(t, host, "Node", "set_name", n, variant.Int(3))
	assert.Equal(t, sys.CallErrorInvalidArgument, cerr.Type)
	assert.Equal(t, int32(0), cerr.Argument)
	assert.Equal(t, int32(sys.VariantString), cerr.Expected)

	_, cerr = varcall(t, host, "Node", "set_name", 0, variant.String("a"))
	assert.Equal(t, sys.CallErrorInstanceIsNull, cerr.Type)

	_, cerr = varcall(t, host, "Node3D", "set_visible", n, variant.Bool(true))
	assert.Equal(t, sys.CallErrorInvalidMethod, cerr.Type, "a Node is not a Node3D")
}

func TestVarcall_PropertiesAndDefaults(t *testing.T) {
	_, host := newEngine(t)
	n := host.ClassDBConstructObject("Node3D")

	_, cerr := varcall(t, host, "Node", "set_name", n, variant.Name("Player"))
	require.True(t, cerr.OK())
	name, cerr := varcall(t, host, "Node", "get_name", n)
	require.True(t, cerr.OK())
	assert.Equal(t, variant.Name("Player"), name)

	visible, _ := varcall(t, host, "Node3D", "is_visible", n)
	assert.Equal(t, variant.Bool(true), visible)

	_, cerr = varcall(t, host, "Node3D", "set_scale_factor", n, variant.Int(2))
	require.True(t, cerr.OK(), "int widens to float")
	scale, _ := varcall(t, host, "Node3D", "get_scale_factor", n)
	assert.Equal(t, variant.Float(2), scale)

	def, cerr := varcall(t, host, "Object", "get_meta", n, variant.Name("missing"))
	require.True(t, cerr.OK())
	assert.True(t, def.IsNil())

	_, cerr = varcall(t, host, "Object", "set_meta", n, variant.Name("hp"), variant.Int(10))
	require.True(t, cerr.OK())
	hp, _ := varcall(t, host, "Object", "get_meta", n, variant.Name("hp"), variant.Int(-1))
	assert.Equal(t, variant.Int(10), hp)
	list, _ := varcall(t, host, "Object", "get_meta_list", n)
	assert.Equal(t, variant.Strings([]string{"hp"}), list)
}

func TestVarcall_CallDispatchesByName(t *testing.T) {
	_, host := newEngine(t)
	n := host.ClassDBConstructObject("Node")

	_, cerr := varcall(t, host, "Object", "call", n, variant.Name("set_process_priority"), variant.Int(7))
	require.True(t, cerr.OK())
	got, cerr := varcall(t, host, "Object", "call", n, variant.Name("get_process_priority"))
	require.True(t, cerr.OK())
	assert.Equal(t, variant.Int(7), got)

	_, cerr = varcall(t, host, "Object", "call", n, variant.Name("fly"))
	assert.Equal(t, sys.CallErrorInvalidMethod, cerr.Type)
}

func TestPtrcall_FixedLayouts(t *testing.T) {
	e, host := newEngine(t)
	n := host.ClassDBConstructObject("Node3D")

	set := host.ClassDBGetMethodBind("Node3D", "set_position", 0)
	get := host.ClassDBGetMethodBind("Node3D", "get_position", 0)
	in := variant.Vector3{X: 1, Y: 2, Z: 3}
	host.ObjectMethodBindPtrcall(set, n, []sys.TypePtr{unsafe.Pointer(&in)}, nil)
	var out variant.Vector3
	host.ObjectMethodBindPtrcall(get, n, nil, unsafe.Pointer(&out))
	assert.Equal(t, in, out)

	var visible uint8
	host.ObjectMethodBindPtrcall(host.ClassDBGetMethodBind("Node3D", "is_visible", 0), n, nil, unsafe.Pointer(&visible))
	assert.Equal(t, uint8(1), visible)

	assert.Equal(t, int64(3), e.Stats().PtrCalls)
	assert.Panics(t, func() {
		host.ObjectMethodBindPtrcall(set, n, nil, nil)
	}, "the direct convention trusts the caller")
}

func TestPtrcall_ObjectReturnTransfersReference(t *testing.T) {
	e, host := newEngine(t)
	r := host.ClassDBConstructObject("Resource")
	host.ObjectInitRef(r)

	dup := host.ClassDBGetMethodBind("Resource", "duplicate", 0)
	deep := uint8(0)
	var out sys.ObjectPtr
	host.ObjectMethodBindPtrcall(dup, r, []sys.TypePtr{unsafe.Pointer(&deep)}, unsafe.Pointer(&out))
	require.NotZero(t, out)
	assert.NotEqual(t, r, out)
	assert.Equal(t, int32(1), e.RefCount(out))
	assert.True(t, host.ObjectUnreference(out))
}

func TestNodeTree_DestroyingParentDestroysChildren(t *testing.T) {
	e, host := newEngine(t)
	root := host.ClassDBConstructObject("Node")
	child := host.ClassDBConstructObject("Node")
	grandchild := host.ClassDBConstructObject("Node3D")

	_, cerr := varcall(t, host, "Node", "add_child", root, variant.FromObjectPtr(child))
	require.True(t, cerr.OK())
	_, cerr = varcall(t, host, "Node", "add_child", child, variant.FromObjectPtr(grandchild))
	require.True(t, cerr.OK())
	_, cerr = varcall(t, host, "Node", "set_name", grandchild, variant.String("Camera"))
	require.True(t, cerr.OK())

	count, _ := varcall(t, host, "Node", "get_child_count", root)
	assert.Equal(t, variant.Int(1), count)

	found, _ := varcall(t, host, "Node", "find_child", root, variant.String("Cam*"))
	ptr, _, ok := found.ObjectPtr()
	require.True(t, ok)
	assert.Equal(t, grandchild, ptr)

	_, cerr = varcall(t, host, "Node", "add_child", child, variant.Int(1))
	assert.Equal(t, sys.CallErrorInvalidArgument, cerr.Type)
	assert.Equal(t, int32(sys.VariantObject), cerr.Expected)

	host.ObjectDestroy(root)
	assert.False(t, e.IsLive(child))
	assert.False(t, e.IsLive(grandchild))
	assert.Zero(t, e.Stats().Live)
}

func TestExtensionClass(t *testing.T) {
	e, host := newEngine(t)
	const token = sys.LibraryToken(7)
	var freed []sys.InstanceHandle

	host.ClassDBRegisterClass(token, "Player", "Node", &sys.ClassCreationInfo{
		CreateInstance: func() sys.ObjectPtr {
			ptr := host.ClassDBConstructObject("Node")
			host.ObjectSetInstance(ptr, "Player", 99)
			host.ObjectSetInstanceBinding(ptr, token, 99)
			return ptr
		},
		FreeInstance: func(h sys.InstanceHandle) { freed = append(freed, h) },
	})
	host.ClassDBRegisterMethod(token, "Player", &sys.MethodInfo{
		Name:       "score",
		ArgTypes:   []sys.VariantType{sys.VariantInt},
		ReturnType: sys.VariantInt,
		Call: func(h sys.InstanceHandle, args []sys.VariantPtr, ret sys.VariantPtr, _ *sys.CallError) {
			n, _ := variant.FromPtr(args[0]).ToInt64()
			*variant.FromPtr(ret) = variant.Int(n * 2)
		},
	})
	assert.Contains(t, e.ClassNames(), "Player")
	assert.Equal(t, []string{"score"}, host.ClassDBGetMethodList("Player"))

	p := host.ClassDBConstructObject("Player")
	assert.Equal(t, "Player", host.ObjectGetClassName(p))
	assert.Equal(t, sys.InstanceHandle(99), host.ObjectGetInstanceBinding(p, token))
	assert.Equal(t, p, host.ObjectCastTo(p, host.ClassDBGetClassTag("Node")))

	got, cerr := varcall(t, host, "Player", "score", p, variant.Int(21))
	require.True(t, cerr.OK())
	assert.Equal(t, variant.Int(42), got)

	host.ObjectDestroy(p)
	assert.Equal(t, []sys.InstanceHandle{99}, freed)

	host.ClassDBUnregisterClass(token, "Player")
	assert.NotContains(t, e.ClassNames(), "Player")
}

func TestShutdown_ReportsLeaks(t *testing.T) {
	e, host := newEngine(t)
	root := host.ClassDBConstructObject("Node")
	child := host.ClassDBConstructObject("Node")
	_, cerr := varcall(t, host, "Node", "add_child", root, variant.FromObjectPtr(child))
	require.True(t, cerr.OK())
	host.ClassDBConstructObject("Resource")

	assert.Equal(t, 3, e.Shutdown())
	assert.Zero(t, e.Stats().Live)
}
