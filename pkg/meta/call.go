// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package meta

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"time"

	"github.com/hostbind/hostbind/pkg/obj"
	"github.com/hostbind/hostbind/pkg/sys"
	"github.com/hostbind/hostbind/pkg/variant"
)

// objectCall is the host's call-by-name entry point.
var objectCall = &Signature{
	Class:  "Object",
	Method: "call",
	Params: []Param{{Name: "method", Type: "StringName"}},
	Return: "Variant",
	Vararg: true,
}

// VarCall calls sig on self through the dynamic convention.
//
// extra is the variadic tail of a vararg method and is passed after all
// declared parameters; the values stay owned by the caller. Parameters the
// caller leaves out are filled in by the host from their defaults.
func VarCall[R any](self *obj.RawGd, sig *Signature, ret Ret[R], args []Arg, extra ...variant.Variant) (R, error) {
	var zero R
	call := sig.Context()
	start := time.Now()
	n := len(args) + len(extra)

	if err := CheckArgCount(sig, n); err != nil {
		emitTrace(ConventionVarcall, call, n, start, err)
		return zero, err
	}
	if len(extra) > 0 && len(args) < len(sig.Params) {
		err := newCallError(KindArity, call, nil, -1,
			fmt.Sprintf("variadic arguments require all %d declared parameter(s), but received %d", len(sig.Params), len(args)), nil)
		emitTrace(ConventionVarcall, call, n, start, err)
		return zero, err
	}
	if err := checkArgTypes(sig, args); err != nil {
		emitTrace(ConventionVarcall, call, n, start, err)
		return zero, err
	}
	ptr := self.CheckedPtr(sig.Class, sig.Method)
	bind, err := sig.MethodBind()
	if err != nil {
		emitTrace(ConventionVarcall, call, n, start, err)
		return zero, err
	}

	vals := make([]variant.Variant, len(args), n)
	for i, a := range args {
		vals[i] = a.ToVariant()
	}
	ptrs := make([]sys.VariantPtr, 0, n)
	for i := range vals {
		ptrs = append(ptrs, variant.Ptr(&vals[i]))
	}
	for i := range extra {
		ptrs = append(ptrs, variant.Ptr(&extra[i]))
	}

	var res variant.Variant
	var status sys.CallError
	sys.Get().ObjectMethodBindCall(bind, ptr, ptrs, variant.Ptr(&res), &status)

	if !status.OK() {
		all := append(vals, extra...)
		err = hostError(call, render(all), types(all), status)
	}
	for i := range vals {
		vals[i].Release()
	}
	if err != nil {
		res.Release()
		emitTrace(ConventionVarcall, call, n, start, err)
		return zero, err
	}

	out, convErr := ret.FromVariant(res)
	if convErr != nil {
		err = newCallError(KindReturnConversion, call, nil, -1,
			fmt.Sprintf("return value %s conversion", ret.TypeName()), convErr)
	}
	res.Release()
	logCall(ConventionVarcall, call, err)
	emitTrace(ConventionVarcall, call, n, start, err)
	if err != nil {
		return zero, err
	}
	return out, nil
}

// PtrCall calls sig on self through the direct convention. Every declared
// parameter gets a slot: trailing ones the caller leaves out take their
// default. Variadic methods cannot be called this way.
func PtrCall[R any](self *obj.RawGd, sig *Signature, ret Ret[R], args ...Arg) (R, error) {
	var zero R
	call := sig.Context()
	if sig.Vararg {
		panic(fmt.Sprintf("%s: variadic methods cannot use the direct convention", call))
	}
	start := time.Now()

	if err := CheckArgCount(sig, len(args)); err != nil {
		emitTrace(ConventionPtrcall, call, len(args), start, err)
		return zero, err
	}
	if err := checkArgTypes(sig, args); err != nil {
		emitTrace(ConventionPtrcall, call, len(args), start, err)
		return zero, err
	}
	ptr := self.CheckedPtr(sig.Class, sig.Method)
	bind, err := sig.MethodBind()
	if err != nil {
		emitTrace(ConventionPtrcall, call, len(args), start, err)
		return zero, err
	}

	slots := make([]sys.TypePtr, len(sig.Params))
	boxed := make([]variant.Variant, len(sig.Params))
	for i, p := range sig.Params {
		a := p.Default
		if i < len(args) {
			a = args[i]
		}
		if p.Type == "Variant" && a.TypeName() != "Variant" {
			boxed[i] = a.ToVariant()
			slots[i] = variant.Ptr(&boxed[i])
			continue
		}
		if v, ok := a.(*variantArg); ok && p.Type != "Variant" {
			slot, unboxErr := unbox(p.Type, v.value)
			if unboxErr != nil {
				for j := range boxed {
					boxed[j].Release()
				}
				err = newCallError(KindParamConversion, call, nil, i,
					fmt.Sprintf("parameter #%d (%s) -- cannot convert from %s to %s", i, p.Name, v.value.Type(), p.Type), unboxErr)
				emitTrace(ConventionPtrcall, call, len(args), start, err)
				return zero, err
			}
			slots[i] = slot
			continue
		}
		slots[i] = a.FFIPtr()
	}

	retPtr, read := ret.Slot()
	sys.Get().ObjectMethodBindPtrcall(bind, ptr, slots, retPtr)
	out := read()

	for i := range boxed {
		boxed[i].Release()
	}
	runtime.KeepAlive(args)
	logCall(ConventionPtrcall, call, nil)
	emitTrace(ConventionPtrcall, call, len(args), start, nil)
	return out, nil
}

// CallByName calls method on self through the host's call-by-name entry
// point. The method is resolved against the object's dynamic class and the
// host checks the arguments. The result is owned by the caller.
func CallByName(self *obj.RawGd, method string, args ...variant.Variant) (variant.Variant, error) {
	return VarCall(self, objectCall, RetVariant(), []Arg{Name(method)}, args...)
}

// unbox copies v into fresh storage in the fixed layout of typ. v keeps its
// reference; object slots carry the bare pointer.
func unbox(typ string, v variant.Variant) (sys.TypePtr, error) {
	t := slotType(typ)
	slot, err := variant.NewSlot(t)
	if err != nil {
		return nil, err
	}
	if err = variant.WriteSlot(slot, t, v); err != nil {
		return nil, err
	}
	return slot, nil
}

func checkArgTypes(sig *Signature, args []Arg) error {
	for i, a := range args {
		if i >= len(sig.Params) {
			break
		}
		p := sig.Params[i]
		if accepts(p.Type, a) {
			continue
		}
		return newCallError(KindParamConversion, sig.Context(), nil, i,
			fmt.Sprintf("parameter #%d (%s) -- cannot convert from %s to %s", i, p.Name, argTypeName(a), p.Type), nil)
	}
	return nil
}

func render(vals []variant.Variant) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		switch v.Type() {
		case sys.VariantString, sys.VariantStringName:
			out[i] = strconv.Quote(v.String())
		default:
			out[i] = v.String()
		}
	}
	return out
}

func types(vals []variant.Variant) []sys.VariantType {
	out := make([]sys.VariantType, len(vals))
	for i, v := range vals {
		out[i] = v.Type()
	}
	return out
}

func logCall(convention string, call CallContext, err error) {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	if err != nil {
		slog.Debug("host call failed", "convention", convention, "class", call.Class, "method", call.Method, "error", err)
		return
	}
	slog.Debug("host call", "convention", convention, "class", call.Class, "method", call.Method)
}

// CallTyped calls sig through the direct convention, or the dynamic one
// when the method is variadic.
func CallTyped[R any](self *obj.RawGd, sig *Signature, ret Ret[R], args ...Arg) (R, error) {
	if sig.Vararg {
		return VarCall(self, sig, ret, args)
	}
	return PtrCall(self, sig, ret, args...)
}
