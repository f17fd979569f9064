// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package script

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/hostbind/hostbind/pkg/classes"
	"github.com/hostbind/hostbind/pkg/meta"
	"github.com/hostbind/hostbind/pkg/obj"
	"github.com/hostbind/hostbind/pkg/variant"
)

const handleType = "hostbind.Object"

// handle is the userdata behind an object in a script. class is the type
// the script sees the object as; calls are authorized against it.
type handle struct {
	gd       obj.Gd[classes.Object]
	class    obj.ClassName
	released bool
}

func (h *handle) String() string {
	id, ok := h.gd.InstanceIDUnchecked()
	if !ok {
		return fmt.Sprintf("<%s#null>", h.class)
	}
	return fmt.Sprintf("<%s#%s>", h.class, id)
}

// newHandle hands g to the script. The run drops it when it finishes.
func (r *run) newHandle(g obj.Gd[classes.Object], class obj.ClassName) *lua.LUserData {
	h := &handle{gd: g, class: class}
	r.handles = append(r.handles, h)
	ud := r.L.NewUserData()
	ud.Value = h
	r.L.SetMetatable(ud, r.L.GetTypeMetatable(handleType))
	return ud
}

func (r *run) registerHandleType() {
	L := r.L
	mt := L.NewTypeMetatable(handleType)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"call":     r.guard(r.objCall),
		"cast":     r.guard(r.objCast),
		"free":     r.guard(r.objFree),
		"is_alive": r.guard(r.objIsAlive),
		"id":       r.guard(r.objID),
		"class":    r.guard(r.objClass),
	}))
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(checkHandle(L, 1).String()))
		return 1
	}))
	L.SetField(mt, "__eq", L.NewFunction(func(L *lua.LState) int {
		a, b := checkHandle(L, 1), checkHandle(L, 2)
		ida, oka := a.gd.InstanceIDUnchecked()
		idb, okb := b.gd.InstanceIDUnchecked()
		L.Push(lua.LBool(oka == okb && ida == idb))
		return 1
	}))

	for _, typ := range []string{vector2Type, vector3Type, colorType} {
		vt := L.NewTypeMetatable(typ)
		L.SetField(vt, "__tostring", L.NewFunction(func(L *lua.LState) int {
			v, err := r.fromLua(L.CheckTable(1))
			if err != nil {
				L.RaiseError("%v", err)
			}
			L.Push(lua.LString(v.String()))
			return 1
		}))
	}
}

func checkHandle(L *lua.LState, n int) *handle {
	ud := L.CheckUserData(n)
	h, ok := ud.Value.(*handle)
	if !ok {
		L.ArgError(n, "object expected")
	}
	return h
}

// live returns the handle at n, raising a script error if it was freed by
// this script.
func live(L *lua.LState, n int) *handle {
	h := checkHandle(L, n)
	if h.released {
		L.RaiseError("%s: use of object after free", h)
	}
	return h
}

// obj:call(method, ...) returns the result, or nil and a message when the
// engine rejects the call.
func (r *run) objCall(L *lua.LState) int {
	h := live(L, 1)
	method := L.CheckString(2)
	r.require(L, fmt.Sprintf("object.%s.%s", h.class, method))

	args := make([]variant.Variant, 0, L.GetTop()-2)
	defer func() {
		for i := range args {
			args[i].Release()
		}
	}()
	for i := 3; i <= L.GetTop(); i++ {
		v, err := r.fromLua(L.Get(i))
		if err != nil {
			L.ArgError(i, err.Error())
		}
		args = append(args, v)
	}

	res, err := meta.CallByName(h.gd.Raw(), method, args...)
	if err != nil {
		r.logger.DebugContext(r.ctx, "script call failed", "method", method, "error", err)
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	defer res.Release()
	lv, err := r.toLua(res)
	if err != nil {
		L.RaiseError("%s::%s: result: %v", h.class, method, err)
	}
	L.Push(lv)
	return 1
}

// obj:cast(class) returns a second handle seen as class, or nil and a
// message when the object is not one.
func (r *run) objCast(L *lua.LState) int {
	h := live(L, 1)
	target := obj.ClassName(L.CheckString(2))
	if obj.ClassTag(target) == 0 {
		L.Push(lua.LNil)
		L.Push(lua.LString(fmt.Sprintf("unknown class %s", target)))
		return 2
	}
	src := h.gd.Clone()
	cast, err := obj.TryCastAs(src, target)
	if err != nil {
		src.Drop()
		r.logger.DebugContext(r.ctx, "script cast failed", "target", string(target), "error", err)
		dynamic := h.class
		var castErr *obj.CastError
		if errors.As(err, &castErr) && castErr.Dynamic != "" {
			dynamic = castErr.Dynamic
		}
		L.Push(lua.LNil)
		L.Push(lua.LString(fmt.Sprintf("cannot cast %s (a %s) to %s", h, dynamic, target)))
		return 2
	}
	L.Push(r.newHandle(cast, target))
	return 1
}

func (r *run) objFree(L *lua.LState) int {
	h := live(L, 1)
	r.require(L, fmt.Sprintf("object.%s.free", h.class))
	h.gd.Free()
	h.released = true
	return 0
}

func (r *run) objIsAlive(L *lua.LState) int {
	h := checkHandle(L, 1)
	L.Push(lua.LBool(!h.released && h.gd.IsAlive()))
	return 1
}

// Instance IDs of reference-counted objects use the top bit, so they travel
// as decimal strings rather than numbers.
func (r *run) objID(L *lua.LState) int {
	L.Push(lua.LString(live(L, 1).gd.InstanceID().String()))
	return 1
}

func (r *run) objClass(L *lua.LState) int {
	L.Push(lua.LString(live(L, 1).gd.DynamicClass()))
	return 1
}
