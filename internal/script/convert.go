// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package script

import (
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/hostbind/hostbind/pkg/classes"
	"github.com/hostbind/hostbind/pkg/obj"
	"github.com/hostbind/hostbind/pkg/sys"
	"github.com/hostbind/hostbind/pkg/variant"
)

// Metatables marking tables that stand for engine value types.
const (
	vector2Type = "hostbind.Vector2"
	vector3Type = "hostbind.Vector3"
	colorType   = "hostbind.Color"
)

const maxDepth = 64

// Largest magnitude below which every integer is exact in a Lua number.
const maxExactInt = 1 << 53

// toLua converts v for the script. v is borrowed; objects come back as new
// handles owned by the run.
func (r *run) toLua(v variant.Variant) (lua.LValue, error) {
	L := r.L
	switch v.Type() {
	case sys.VariantNil:
		return lua.LNil, nil
	case sys.VariantBool:
		b, _ := v.ToBool()
		return lua.LBool(b), nil
	case sys.VariantInt:
		i, _ := v.ToInt64()
		return lua.LNumber(i), nil
	case sys.VariantFloat:
		f, _ := v.ToFloat64()
		return lua.LNumber(f), nil
	case sys.VariantString, sys.VariantStringName:
		s, _ := v.ToString()
		return lua.LString(s), nil
	case sys.VariantVector2:
		x, _ := variant.As[variant.Vector2](v)
		return r.valueTable(vector2Type, "x", x.X, "y", x.Y), nil
	case sys.VariantVector3:
		x, _ := variant.As[variant.Vector3](v)
		return r.valueTable(vector3Type, "x", x.X, "y", x.Y, "z", x.Z), nil
	case sys.VariantColor:
		c, _ := variant.As[variant.Color](v)
		return r.valueTable(colorType, "r", c.R, "g", c.G, "b", c.B, "a", c.A), nil
	case sys.VariantPackedByteArray:
		b, _ := variant.As[[]byte](v)
		return sequence(L, b, func(x byte) lua.LValue { return lua.LNumber(x) }), nil
	case sys.VariantPackedInt64Array:
		s, _ := variant.As[[]int64](v)
		return sequence(L, s, func(x int64) lua.LValue { return lua.LNumber(x) }), nil
	case sys.VariantPackedFloat64Array:
		s, _ := variant.As[[]float64](v)
		return sequence(L, s, func(x float64) lua.LValue { return lua.LNumber(x) }), nil
	case sys.VariantPackedStringArray:
		s, _ := variant.As[[]string](v)
		return sequence(L, s, func(x string) lua.LValue { return lua.LString(x) }), nil
	case sys.VariantArray:
		a, _ := v.ToArray()
		t := L.CreateTable(a.Len(), 0)
		for _, e := range a.Elements() {
			lv, err := r.toLua(e)
			if err != nil {
				return lua.LNil, err
			}
			t.Append(lv)
		}
		return t, nil
	case sys.VariantDictionary:
		d, _ := v.ToDictionary()
		t := L.CreateTable(0, d.Len())
		var err error
		d.Each(func(key, value variant.Variant) bool {
			var lk, lv lua.LValue
			if lk, err = r.toLua(key); err != nil {
				return false
			}
			if lv, err = r.toLua(value); err != nil {
				return false
			}
			if lk != lua.LNil {
				t.RawSet(lk, lv)
			}
			return true
		})
		if err != nil {
			return lua.LNil, err
		}
		return t, nil
	case sys.VariantObject:
		g, err := obj.FromVariant[classes.Object](v)
		if err != nil {
			return lua.LNil, err
		}
		if g.IsNull() {
			return lua.LNil, nil
		}
		return r.newHandle(g, "Object"), nil
	}
	return lua.LNil, fmt.Errorf("%s values cannot be passed to scripts", v.Type())
}

func sequence[E any](L *lua.LState, s []E, conv func(E) lua.LValue) *lua.LTable {
	t := L.CreateTable(len(s), 0)
	for _, x := range s {
		t.Append(conv(x))
	}
	return t
}

func (r *run) valueTable(typ string, kv ...any) *lua.LTable {
	t := r.L.CreateTable(0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		t.RawSetString(kv[i].(string), lua.LNumber(kv[i+1].(float32)))
	}
	r.L.SetMetatable(t, r.L.GetTypeMetatable(typ))
	return t
}

// fromLua converts a script value. The result is owned by the caller.
func (r *run) fromLua(lv lua.LValue) (variant.Variant, error) {
	return r.fromLuaDepth(lv, 0)
}

func (r *run) fromLuaDepth(lv lua.LValue, depth int) (variant.Variant, error) {
	switch v := lv.(type) {
	case *lua.LNilType:
		return variant.Nil(), nil
	case lua.LBool:
		return variant.Bool(bool(v)), nil
	case lua.LNumber:
		f := float64(v)
		if f == math.Trunc(f) && math.Abs(f) < maxExactInt {
			return variant.Int(int64(f)), nil
		}
		return variant.Float(f), nil
	case lua.LString:
		return variant.String(string(v)), nil
	case *lua.LUserData:
		h, ok := v.Value.(*handle)
		if !ok {
			return variant.Nil(), fmt.Errorf("foreign userdata cannot be passed to the engine")
		}
		if h.released {
			return variant.Nil(), fmt.Errorf("%s: handle has been freed", h)
		}
		return h.gd.ToVariant(), nil
	case *lua.LTable:
		if depth >= maxDepth {
			return variant.Nil(), fmt.Errorf("tables nested deeper than %d levels", maxDepth)
		}
		return r.fromTable(v, depth)
	}
	return variant.Nil(), fmt.Errorf("a Lua %s cannot be passed to the engine", lv.Type())
}

func (r *run) fromTable(t *lua.LTable, depth int) (variant.Variant, error) {
	num := func(key string) float32 { return float32(lua.LVAsNumber(t.RawGetString(key))) }
	switch r.L.GetMetatable(t) {
	case r.L.GetTypeMetatable(vector2Type):
		return variant.Vec2(num("x"), num("y")), nil
	case r.L.GetTypeMetatable(vector3Type):
		return variant.Vec3(num("x"), num("y"), num("z")), nil
	case r.L.GetTypeMetatable(colorType):
		return variant.RGBA(num("r"), num("g"), num("b"), num("a")), nil
	}

	keys := 0
	t.ForEach(func(lua.LValue, lua.LValue) { keys++ })
	if n := t.Len(); n == keys {
		arr := variant.NewArray()
		for i := 1; i <= n; i++ {
			e, err := r.fromLuaDepth(t.RawGetInt(i), depth+1)
			if err != nil {
				partial := variant.FromArray(arr)
				partial.Release()
				return variant.Nil(), fmt.Errorf("[%d]: %w", i, err)
			}
			arr.Append(e)
		}
		return variant.FromArray(arr), nil
	}

	dict := variant.NewDictionary()
	var err error
	t.ForEach(func(lk, lv lua.LValue) {
		if err != nil {
			return
		}
		var k, v variant.Variant
		if k, err = r.fromLuaDepth(lk, depth+1); err != nil {
			return
		}
		if v, err = r.fromLuaDepth(lv, depth+1); err != nil {
			k.Release()
			err = fmt.Errorf("[%s]: %w", lk, err)
			return
		}
		if err = dict.Set(k, v); err != nil {
			k.Release()
			v.Release()
		}
	})
	out := variant.FromDictionary(dict)
	if err != nil {
		out.Release()
		return variant.Nil(), err
	}
	return out, nil
}
