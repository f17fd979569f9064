// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

// Package classes binds the host's built-in classes.
//
// Each class is a receiver type holding an untyped handle. Obtain one from a
// typed handle with obj.Deref:
//
//	n := obj.New[classes.Node]()
//	obj.Deref(n).SetName("Player")
//
// Methods with Variant parameters or results and variadic methods go through
// the dynamic convention; everything else uses the direct one. Method failures
// here mean the binding and the host disagree, so they panic. Use Object.Call
// for checked calls by name.
package classes

import (
	"sort"
	"sync"

	"github.com/hostbind/hostbind/pkg/meta"
)

var (
	sigMu      sync.Mutex
	signatures []*meta.Signature
)

// method declares a bound method and records its signature.
func method(class, name, ret string, params ...meta.Param) *meta.Signature {
	sig := &meta.Signature{Class: class, Method: name, Params: params, Return: ret}
	sigMu.Lock()
	signatures = append(signatures, sig)
	sigMu.Unlock()
	return sig
}

func vararg(class, name, ret string, params ...meta.Param) *meta.Signature {
	sig := method(class, name, ret, params...)
	sig.Vararg = true
	return sig
}

func param(name, typ string) meta.Param {
	return meta.Param{Name: name, Type: typ}
}

func optional(name, typ string, def meta.Arg) meta.Param {
	return meta.Param{Name: name, Type: typ, Default: def}
}

// Signatures returns every bound method, ordered by class and method name.
func Signatures() []*meta.Signature {
	sigMu.Lock()
	out := append([]*meta.Signature(nil), signatures...)
	sigMu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Class != out[j].Class {
			return out[i].Class < out[j].Class
		}
		return out[i].Method < out[j].Method
	})
	return out
}

func must[R any](r R, err error) R {
	if err != nil {
		panic(err)
	}
	return r
}
