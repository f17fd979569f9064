// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package script

import (
	"fmt"
	"strconv"

	lua "github.com/yuin/gopher-lua"

	"github.com/hostbind/hostbind/pkg/classes"
	"github.com/hostbind/hostbind/pkg/obj"
	"github.com/hostbind/hostbind/pkg/sys"
)

// registerEngine installs the global engine table.
func (r *run) registerEngine() {
	L := r.L
	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"new":       r.guard(r.engineNew),
		"get":       r.guard(r.engineGet),
		"has_class": r.engineHasClass,
		"log":       r.engineLog,
		"run_id":    r.engineRunID,
		"vector2":   r.engineValue(vector2Type, "x", "y"),
		"vector3":   r.engineValue(vector3Type, "x", "y", "z"),
		"color":     r.engineValue(colorType, "r", "g", "b", "a"),
	})
	L.SetGlobal("engine", mod)
}

// engine.new(class) constructs an object through the host.
func (r *run) engineNew(L *lua.LState) int {
	class := L.CheckString(1)
	r.require(L, "engine.new."+class)
	ptr := sys.Get().ClassDBConstructObject(class)
	if ptr == 0 {
		L.Push(lua.LNil)
		L.Push(lua.LString(fmt.Sprintf("failed to construct object of class %s", class)))
		return 2
	}
	g := obj.FromObjPtr[classes.Object](ptr)
	r.logger.DebugContext(r.ctx, "script constructed object", "class", class, "instance_id", g.InstanceID().String())
	L.Push(r.newHandle(g, obj.ClassName(class)))
	return 1
}

// engine.get(id) resolves a live object. id is the decimal string obj:id()
// returns, or a number.
func (r *run) engineGet(L *lua.LState) int {
	r.require(L, "engine.get")
	var raw uint64
	switch v := L.Get(1).(type) {
	case lua.LString:
		n, err := strconv.ParseUint(string(v), 10, 64)
		if err != nil {
			L.ArgError(1, "instance ID expected")
		}
		raw = n
	case lua.LNumber:
		raw = uint64(obj.FromInt64(int64(v)))
	default:
		L.ArgError(1, "instance ID expected")
	}
	id, ok := obj.TryFromUint64(raw)
	if !ok {
		L.ArgError(1, "instance ID cannot be zero")
	}
	g, err := obj.TryFromInstanceID[classes.Object](id)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(r.newHandle(g, "Object"))
	return 1
}

func (r *run) engineHasClass(L *lua.LState) int {
	L.Push(lua.LBool(obj.ClassTag(obj.ClassName(L.CheckString(1))) != 0))
	return 1
}

func (r *run) engineLog(L *lua.LState) int {
	level := L.CheckString(1)
	message := L.CheckString(2)
	switch level {
	case "debug":
		r.logger.DebugContext(r.ctx, message)
	case "warn":
		r.logger.WarnContext(r.ctx, message)
	case "error":
		r.logger.ErrorContext(r.ctx, message)
	default:
		r.logger.InfoContext(r.ctx, message)
	}
	return 0
}

func (r *run) engineRunID(L *lua.LState) int {
	L.Push(lua.LString(r.id.String()))
	return 1
}

// engineValue builds the constructor of a value type. Missing components
// default to zero, except the alpha of a color.
func (r *run) engineValue(typ string, fields ...string) lua.LGFunction {
	return func(L *lua.LState) int {
		t := L.CreateTable(0, len(fields))
		for i, f := range fields {
			def := lua.LNumber(0)
			if f == "a" {
				def = 1
			}
			t.RawSetString(f, L.OptNumber(i+1, def))
		}
		L.SetMetatable(t, L.GetTypeMetatable(typ))
		L.Push(t)
		return 1
	}
}
