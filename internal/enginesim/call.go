// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package enginesim

import (
	"fmt"

	"github.com/hostbind/hostbind/pkg/sys"
	"github.com/hostbind/hostbind/pkg/variant"
)

// callCtx is what a built-in method sees. Args are borrowed: implementations
// that keep a value must clone it. The returned value is owned by the caller.
type callCtx struct {
	e    *Engine
	self *object
	m    *method
	args []variant.Variant
	err  *sys.CallError
}

type builtin func(c *callCtx) variant.Variant

func (e *Engine) methodBindCall(bind sys.MethodBind, obj sys.ObjectPtr, args []sys.VariantPtr, ret sys.VariantPtr, cerr *sys.CallError) {
	*cerr = sys.CallError{}
	e.stats.varCalls.Add(1)
	m := e.methodByBind(bind)
	if m == nil {
		cerr.Type = sys.CallErrorInvalidMethod
		return
	}
	self := e.lookup(obj)
	if self == nil {
		cerr.Type = sys.CallErrorInstanceIsNull
		return
	}
	vals := make([]variant.Variant, len(args))
	for i, p := range args {
		vals[i] = *variant.FromPtr(p)
	}
	res := e.varcall(m, self, vals, cerr)
	if !cerr.OK() || ret == nil {
		res.Release()
		return
	}
	*variant.FromPtr(ret) = res
}

// varcall validates the arguments against the declaration, fills in
// defaults and dispatches. Reports problems through cerr like the host ABI.
func (e *Engine) varcall(m *method, self *object, args []variant.Variant, cerr *sys.CallError) variant.Variant {
	if !self.cls().inherits(m.class) {
		cerr.Type = sys.CallErrorInvalidMethod
		return variant.Nil()
	}
	total, required := len(m.params), m.required()
	if len(args) > total && !m.vararg {
		cerr.Type = sys.CallErrorTooManyArguments
		cerr.Expected = int32(total)
		return variant.Nil()
	}
	if len(args) < required {
		cerr.Type = sys.CallErrorTooFewArguments
		cerr.Expected = int32(required)
		return variant.Nil()
	}

	vals := make([]variant.Variant, 0, max(len(args), total))
	for i, a := range args {
		if i >= total {
			vals = append(vals, a)
			continue
		}
		v, ok := e.coerce(a, m.params[i].typ)
		if !ok {
			cerr.Type = sys.CallErrorInvalidArgument
			cerr.Argument = int32(i)
			cerr.Expected = int32(m.params[i].typ.vt)
			return variant.Nil()
		}
		vals = append(vals, v)
	}
	for i := len(args); i < total; i++ {
		vals = append(vals, *m.params[i].def)
	}

	if m.ext != nil {
		return e.callExtension(m, self, vals, cerr)
	}
	res := m.impl(&callCtx{e: e, self: self, m: m, args: vals, err: cerr})
	if m.ret.void {
		res.Release()
		return variant.Nil()
	}
	return res
}

func (e *Engine) callExtension(m *method, self *object, args []variant.Variant, cerr *sys.CallError) variant.Variant {
	self.mu.Lock()
	inst := self.instance
	self.mu.Unlock()
	if inst == 0 || m.ext.Call == nil {
		cerr.Type = sys.CallErrorInstanceIsNull
		return variant.Nil()
	}
	ptrs := make([]sys.VariantPtr, len(args))
	for i := range args {
		ptrs[i] = variant.Ptr(&args[i])
	}
	var ret variant.Variant
	m.ext.Call(inst, ptrs, variant.Ptr(&ret), cerr)
	return ret
}

// coerce applies the implicit conversions a host performs for dynamic calls.
func (e *Engine) coerce(a variant.Variant, t typeRef) (variant.Variant, bool) {
	if t.any {
		return a, true
	}
	if t.isObject() {
		switch a.Type() {
		case sys.VariantNil:
			return variant.FromObjectPtr(0), true
		case sys.VariantObject:
			ptr, _, _ := a.ObjectPtr()
			if ptr == 0 {
				return a, true
			}
			o := e.lookup(ptr)
			target := e.classByName(t.class)
			if o == nil || target == nil || !o.cls().inherits(target) {
				return a, false
			}
			return a, true
		}
		return a, false
	}
	if a.Type() == t.vt {
		return a, true
	}
	switch {
	case t.vt == sys.VariantFloat && a.Type() == sys.VariantInt:
		i, _ := a.ToInt64()
		return variant.Float(float64(i)), true
	case t.vt == sys.VariantString && a.Type() == sys.VariantStringName:
		s, _ := a.ToString()
		return variant.String(s), true
	case t.vt == sys.VariantStringName && a.Type() == sys.VariantString:
		s, _ := a.ToString()
		return variant.Name(variant.StringName(s)), true
	}
	return a, false
}

// methodBindPtrcall runs a call in the direct convention. Like a real host it
// trusts the caller: arity, types and liveness are not checked, and breaking
// the contract crashes.
func (e *Engine) methodBindPtrcall(bind sys.MethodBind, obj sys.ObjectPtr, args []sys.TypePtr, ret sys.TypePtr) {
	e.stats.ptrCalls.Add(1)
	m := e.methodByBind(bind)
	if m == nil {
		panic(fmt.Sprintf("enginesim: ptrcall through unknown method bind %d", uintptr(bind)))
	}
	self := e.lookup(obj)
	if self == nil {
		panic(fmt.Sprintf("enginesim: %s ptrcall on invalid object %#x", m.qualified(), uintptr(obj)))
	}
	if m.ext != nil {
		self.mu.Lock()
		inst := self.instance
		self.mu.Unlock()
		if m.ext.PtrCall == nil {
			panic(fmt.Sprintf("enginesim: %s has no ptrcall entry", m.qualified()))
		}
		m.ext.PtrCall(inst, args, ret)
		return
	}
	if m.vararg {
		panic(fmt.Sprintf("enginesim: vararg method %s cannot be ptrcalled", m.qualified()))
	}
	if len(args) != len(m.params) {
		panic(fmt.Sprintf("enginesim: %s ptrcall with %d argument slots for %d parameters",
			m.qualified(), len(args), len(m.params)))
	}

	vals := make([]variant.Variant, len(args))
	for i, p := range args {
		vals[i] = decodeSlot(p, m.params[i].typ)
	}
	var cerr sys.CallError
	res := m.impl(&callCtx{e: e, self: self, m: m, args: vals, err: &cerr})
	for i := range vals {
		if m.params[i].typ.isObject() {
			vals[i].Release()
		}
	}
	if m.ret.void {
		res.Release()
		return
	}
	encodeSlot(ret, res, m.ret)
}

// decodeSlot reads an argument in its fixed layout. Object arguments come
// back holding a reference the caller must release.
func decodeSlot(p sys.TypePtr, t typeRef) variant.Variant {
	if t.any {
		return *variant.FromPtr(p)
	}
	v, err := variant.ReadSlot(p, t.vt)
	if err != nil {
		panic(fmt.Sprintf("enginesim: %s argument: %v", t.name, err))
	}
	return v
}

// encodeSlot writes a result in its fixed layout. For objects and variants
// the reference held by res moves into the slot.
func encodeSlot(p sys.TypePtr, res variant.Variant, t typeRef) {
	vt := t.vt
	if t.any {
		vt = sys.VariantNil
	}
	if err := variant.WriteSlot(p, vt, res); err != nil {
		panic(fmt.Sprintf("enginesim: built-in returned %s for %s: %v", res.Type(), t.name, err))
	}
}
