// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package variant

import (
	"github.com/samber/oops"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Array is an ordered list of variants. It owns its elements.
type Array struct {
	elems []Variant
}

// NewArray builds an array that takes ownership of elems.
func NewArray(elems ...Variant) *Array {
	return &Array{elems: append([]Variant(nil), elems...)}
}

// Len returns the element count.
func (a *Array) Len() int {
	return len(a.elems)
}

// At returns element i. The array keeps ownership.
func (a *Array) At(i int) Variant {
	return a.elems[i]
}

// Append adds v, taking ownership of it.
func (a *Array) Append(v Variant) {
	a.elems = append(a.elems, v)
}

// Elements returns the backing elements without transferring ownership.
func (a *Array) Elements() []Variant {
	return a.elems
}

func (a *Array) clone() *Array {
	out := &Array{elems: make([]Variant, len(a.elems))}
	for i, e := range a.elems {
		out.elems[i] = e.Clone()
	}
	return out
}

func (a *Array) release() {
	for i := range a.elems {
		a.elems[i].Release()
	}
	a.elems = nil
}

func (a *Array) equal(o *Array) bool {
	if len(a.elems) != len(o.elems) {
		return false
	}
	for i := range a.elems {
		if !a.elems[i].Equal(o.elems[i]) {
			return false
		}
	}
	return true
}

// Dictionary maps variants to variants, preserving insertion order.
// It owns both keys and values.
type Dictionary struct {
	m *orderedmap.OrderedMap[Variant, Variant]
}

// NewDictionary returns an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{m: orderedmap.New[Variant, Variant]()}
}

// Set stores value under key, taking ownership of both. A replaced value is
// released. Containers and packed arrays cannot be keys.
func (d *Dictionary) Set(key, value Variant) error {
	if !key.hashable() {
		return oops.In("variant").
			Code("INVALID_KEY").
			With("key_type", key.typ.String()).
			Errorf("%s cannot be used as a dictionary key", key.typ)
	}
	if old, present := d.m.Set(key, value); present {
		old.Release()
		key.Release()
	}
	return nil
}

// Get returns the value stored under key. The dictionary keeps ownership.
func (d *Dictionary) Get(key Variant) (Variant, bool) {
	if !key.hashable() {
		return Variant{}, false
	}
	return d.m.Get(key)
}

// Delete removes key and releases the stored pair.
func (d *Dictionary) Delete(key Variant) bool {
	if !key.hashable() {
		return false
	}
	pair := d.m.GetPair(key)
	if pair == nil {
		return false
	}
	k, v := pair.Key, pair.Value
	d.m.Delete(key)
	k.Release()
	v.Release()
	return true
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	return d.m.Len()
}

// Keys returns the keys in insertion order without transferring ownership.
func (d *Dictionary) Keys() []Variant {
	keys := make([]Variant, 0, d.m.Len())
	for pair := d.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Each visits entries in insertion order until fn returns false.
func (d *Dictionary) Each(fn func(key, value Variant) bool) {
	for pair := d.m.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

func (d *Dictionary) clone() *Dictionary {
	out := NewDictionary()
	for pair := d.m.Oldest(); pair != nil; pair = pair.Next() {
		out.m.Set(pair.Key.Clone(), pair.Value.Clone())
	}
	return out
}

func (d *Dictionary) release() {
	for pair := d.m.Oldest(); pair != nil; pair = pair.Next() {
		k, v := pair.Key, pair.Value
		k.Release()
		v.Release()
	}
	d.m = orderedmap.New[Variant, Variant]()
}

func (d *Dictionary) equal(o *Dictionary) bool {
	if d.m.Len() != o.m.Len() {
		return false
	}
	a, b := d.m.Oldest(), o.m.Oldest()
	for ; a != nil && b != nil; a, b = a.Next(), b.Next() {
		if !a.Key.Equal(b.Key) || !a.Value.Equal(b.Value) {
			return false
		}
	}
	return true
}
