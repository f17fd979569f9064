// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

// Package meta marshals calls into host methods.
//
// A call site describes the method with a Signature and picks one of two
// conventions. VarCall boxes every argument in a Variant and goes through the
// host's generic entry point; it supports variadic methods and reports
// structured host errors. PtrCall passes pointers to fixed layouts and trusts
// the host to agree on them; it is the fast path for statically bound
// methods. Both validate the argument count, the argument types and the
// liveness of the receiver before anything crosses into the host.
package meta

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hostbind/hostbind/pkg/sys"
)

// CallContext names the method being called.
type CallContext struct {
	Class  string
	Method string
}

func (c CallContext) String() string {
	return c.Class + "::" + c.Method
}

// Expression renders the call with its arguments, e.g. Node::set_name("a").
func (c CallContext) Expression(args []string) string {
	return fmt.Sprintf("%s(%s)", c, strings.Join(args, ", "))
}

// Param is one declared parameter.
type Param struct {
	Name string
	// Type is a variant type name, "Variant" or a class name.
	Type string
	// Default is used for a trailing argument the caller left out.
	Default Arg
}

// Signature is the call descriptor of a host method.
type Signature struct {
	Class  string
	Method string
	Params []Param
	// Return is a variant type name, "Variant", a class name or "void".
	Return string
	Vararg bool
	// Hash is passed to the host when resolving the method bind; zero skips
	// the compatibility check.
	Hash int64
}

// Context returns the call context of the signature.
func (s *Signature) Context() CallContext {
	return CallContext{Class: s.Class, Method: s.Method}
}

// Required returns the number of parameters without a default.
func (s *Signature) Required() int {
	n := 0
	for _, p := range s.Params {
		if p.Default == nil {
			n++
		}
	}
	return n
}

type bindKey struct {
	host   *sys.Interface
	class  string
	method string
}

var bindCache sync.Map

// MethodBind resolves the host method bind, caching it per loaded host.
func (s *Signature) MethodBind() (sys.MethodBind, error) {
	host := sys.Get()
	key := bindKey{host: host, class: s.Class, method: s.Method}
	if bind, ok := bindCache.Load(key); ok {
		return bind.(sys.MethodBind), nil
	}
	bind := host.ClassDBGetMethodBind(s.Class, s.Method, s.Hash)
	if bind == 0 {
		return 0, newCallError(KindForeign, s.Context(), nil, -1, "method not found", nil)
	}
	bindCache.Store(key, bind)
	return bind, nil
}

// CheckArgCount verifies that n explicit arguments fit the signature.
func CheckArgCount(sig *Signature, n int) error {
	if i := misplacedDefault(sig); i >= 0 {
		return newCallError(KindArity, sig.Context(), nil, i,
			fmt.Sprintf("parameter #%d (%s) without a default follows a parameter with one", i, sig.Params[i].Name), nil)
	}
	required, total := sig.Required(), len(sig.Params)
	if n >= required && (n <= total || sig.Vararg) {
		return nil
	}
	var want string
	switch {
	case sig.Vararg:
		want = fmt.Sprintf("at least %d", required)
	case required == total:
		want = fmt.Sprintf("%d", total)
	default:
		want = fmt.Sprintf("%d to %d", required, total)
	}
	return newCallError(KindArity, sig.Context(), nil, -1,
		fmt.Sprintf("function has %s parameter(s), but received %d argument(s)", want, n), nil)
}

// misplacedDefault returns the index of the first required parameter that
// follows a defaulted one, or -1. Defaults may only fill a trailing run.
func misplacedDefault(sig *Signature) int {
	defaulted := false
	for i, p := range sig.Params {
		switch {
		case p.Default != nil:
			defaulted = true
		case defaulted:
			return i
		}
	}
	return -1
}
