// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package obj

import (
	"fmt"

	"github.com/samber/oops"

	"github.com/hostbind/hostbind/pkg/sys"
)

// anyObject is the root class, used where a handle of unknown type is needed.
type anyObject struct{}

func (anyObject) ClassName() ClassName { return "Object" }
func (anyObject) Inherits() ClassName  { return "" }
func (anyObject) Memory() Memory       { return MemDynamic{} }

// TryCast converts g to static type U after the host confirms the object is
// a U. On success g is consumed and its reference moves to the result. On
// failure g is left untouched and remains usable. A null handle casts to a
// null handle of any type.
func TryCast[U Class, T Class](g Gd[T]) (Gd[U], error) {
	out, err := tryCast(g.core(), infoOf[U]())
	if err != nil {
		return Gd[U]{}, err
	}
	return wrap[U](out), nil
}

// TryCastAs is TryCast for a class known only by name. The result keeps the
// static type and memory strategy of g and reports class in diagnostics.
func TryCastAs[T Class](g Gd[T], class ClassName) (Gd[T], error) {
	raw := g.core()
	out, err := tryCast(raw, staticInfo{name: class, mem: raw.info.mem})
	if err != nil {
		return Gd[T]{}, err
	}
	return wrap[T](out), nil
}

func tryCast(raw *RawGd, target staticInfo) (*RawGd, error) {
	out, castErr := raw.castTo(target)
	if castErr != nil {
		recordHandleOp("cast_failed")
		return nil, oops.In("obj").
			Code("TYPE_MISMATCH").
			With("instance_id", uint64(castErr.ID)).
			With("dynamic_class", string(castErr.Dynamic)).
			With("target_class", string(castErr.Target)).
			Wrap(castErr)
	}
	return out, nil
}

// Cast is TryCast that panics on a type mismatch.
func Cast[U Class, T Class](g Gd[T]) Gd[U] {
	out, err := TryCast[U](g)
	if err != nil {
		panic(err)
	}
	return out
}

// Upcast retypes g as its ancestor U, consuming g. U must be a base class
// of T in every build mode; a violation panics. Checked builds also have the
// host confirm the object and validate its liveness. When the host cannot
// report parent classes, the host cast decides.
func Upcast[U Class, T Class](g Gd[T]) Gd[U] {
	raw := g.core()
	raw.checkUsable("upcast")
	target := infoOf[U]()
	static := InheritsFrom(raw.info.name, target.name)
	if !static && sys.Get().ClassDBGetParentClass != nil {
		panic(fmt.Sprintf("Gd<%s>::upcast: %s is not a base class of %s", raw.info.name, target.name, raw.info.name))
	}
	if raw.rtti == nil {
		raw.dropped.Store(true)
		return Null[U]()
	}
	if static && !sys.Checked {
		out := &RawGd{ptr: raw.ptr, rtti: &ObjectRtti{id: raw.rtti.id, class: target.name}, info: target}
		out.instance.Store(raw.instance.Load())
		raw.dropped.Store(true)
		return wrap[U](out)
	}
	out, castErr := raw.castTo(target)
	if castErr != nil {
		panic(fmt.Sprintf("Gd<%s>::upcast: host rejected cast to %s: %v", raw.info.name, target.name, castErr))
	}
	if out.rtti.id != raw.rtti.id {
		panic(fmt.Sprintf("Gd<%s>::upcast: host cast changed the instance ID", raw.info.name))
	}
	return wrap[U](out)
}
