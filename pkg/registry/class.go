// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package registry

import (
	"fmt"
	"log/slog"

	"github.com/samber/oops"

	"github.com/hostbind/hostbind/pkg/errutil"
	"github.com/hostbind/hostbind/pkg/obj"
	"github.com/hostbind/hostbind/pkg/sys"
	"github.com/hostbind/hostbind/pkg/variant"
)

// Method is an extension method with receiver T.
type Method[T any] struct {
	Name string
	// Args are the parameter types. Nil accepts any Variant.
	Args []sys.VariantType
	// Return is the result type. Nil returns a Variant.
	Return sys.VariantType
	// Vararg methods receive any arguments after Args and can only be
	// called through the dynamic convention.
	Vararg bool
	// Const methods run under a shared borrow of the instance and may be
	// reentered; others get exclusive access.
	Const bool
	// Func implements the method. args are borrowed; the result is handed
	// to the caller.
	Func func(self *T, args []variant.Variant) (variant.Variant, error)
}

// Register declares the extension class T at level. ctor builds the Go side
// of a fresh instance around its engine base object.
func Register[T obj.Class](r *Registry, level sys.InitLevel, ctor func(base obj.Base) T, methods ...Method[T]) error {
	var zero T
	name, base, mem := zero.ClassName(), zero.Inherits(), zero.Memory()
	refCounted := mem.IsRefCounted(0)
	baseMem := obj.Memory(obj.MemManual{})
	if refCounted {
		baseMem = obj.MemRefCounted{}
	}

	d := &classDesc{
		name:       name,
		base:       base,
		level:      level,
		refCounted: refCounted,
		create: func() sys.ObjectPtr {
			ptr := sys.Get().ClassDBConstructObject(string(base))
			if ptr == 0 {
				r.logger.Error("cannot construct base object", "class", name, "base", base)
				return 0
			}
			obj.AttachInstance(ptr, ctor(obj.NewBase(ptr, base, baseMem)))
			return ptr
		},
		free: func(h sys.InstanceHandle) {
			if !obj.DetachInstance(h) {
				r.logger.Warn("free of unknown instance", "class", name, "handle", uint64(h))
			}
		},
	}

	seen := make(map[string]bool, len(methods))
	for _, m := range methods {
		if m.Name == "" || m.Func == nil {
			return oops.In("registry").Code("METHOD_INVALID").With("class", string(name)).
				Errorf("method of %s needs a name and a function", name)
		}
		if seen[m.Name] {
			return oops.In("registry").Code("METHOD_INVALID").
				With("class", string(name)).With("method", m.Name).
				Errorf("method %s::%s is declared twice", name, m.Name)
		}
		seen[m.Name] = true
		info, err := methodInfo(r.logger, name, m)
		if err != nil {
			return err
		}
		d.methods = append(d.methods, info)
	}
	return r.add(d)
}

func methodInfo[T obj.Class](logger *slog.Logger, class obj.ClassName, m Method[T]) (*sys.MethodInfo, error) {
	for i, t := range append(append([]sys.VariantType(nil), m.Args...), m.Return) {
		if !variant.HasLayout(t) {
			return nil, oops.In("registry").Code("METHOD_INVALID").
				With("class", string(class)).With("method", m.Name).With("index", i).
				Errorf("method %s::%s uses %s, which has no fixed layout", class, m.Name, t)
		}
	}
	qualified := fmt.Sprintf("%s::%s", class, m.Name)

	info := &sys.MethodInfo{
		Name:       m.Name,
		ArgTypes:   m.Args,
		ReturnType: m.Return,
		IsVararg:   m.Vararg,
	}
	info.Call = func(h sys.InstanceHandle, args []sys.VariantPtr, ret sys.VariantPtr, cerr *sys.CallError) {
		vals := make([]variant.Variant, len(args))
		for i, p := range args {
			vals[i] = *variant.FromPtr(p)
		}
		res, err := invoke(h, m, vals)
		if err != nil {
			errutil.LogError(logger, "extension method failed", oops.With("method", qualified).Wrap(err))
			cerr.Type = sys.CallErrorInvalidMethod
			return
		}
		if ret == nil {
			res.Release()
			return
		}
		*variant.FromPtr(ret) = res
	}
	if m.Vararg {
		return info, nil
	}
	info.PtrCall = func(h sys.InstanceHandle, args []sys.TypePtr, ret sys.TypePtr) {
		vals := make([]variant.Variant, len(args))
		for i, p := range args {
			v, err := variant.ReadSlot(p, m.Args[i])
			if err != nil {
				panic(fmt.Sprintf("%s: argument %d: %v", qualified, i, err))
			}
			vals[i] = v
		}
		res, err := invoke(h, m, vals)
		for i := range vals {
			vals[i].Release()
		}
		if err != nil {
			errutil.LogError(logger, "extension method failed", oops.With("method", qualified).Wrap(err))
			return
		}
		if ret == nil {
			res.Release()
			return
		}
		if err := variant.WriteSlot(ret, m.Return, res); err != nil {
			res.Release()
			panic(fmt.Sprintf("%s: result: %v", qualified, err))
		}
		if m.Return != sys.VariantNil && m.Return != sys.VariantObject {
			res.Release()
		}
	}
	return info, nil
}

// invoke runs m on the instance behind h. Panics in the method are turned
// into errors so that they do not unwind through the host.
func invoke[T obj.Class](h sys.InstanceHandle, m Method[T], args []variant.Variant) (res variant.Variant, err error) {
	st, err := obj.StorageOf[T](h)
	if err != nil {
		return variant.Nil(), err
	}
	defer func() {
		if p := recover(); p != nil {
			err = oops.In("registry").Code("METHOD_PANIC").Errorf("panic: %v", p)
		}
	}()
	if m.Const {
		ref, err := st.Cell().Borrow()
		if err != nil {
			return variant.Nil(), err
		}
		defer ref.Release()
		return m.Func(ref.Get(), args)
	}
	mut, err := st.Cell().BorrowMut()
	if err != nil {
		return variant.Nil(), err
	}
	defer mut.Release()
	return m.Func(mut.Get(), args)
}
