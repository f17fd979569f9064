// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package script

import (
	"context"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"
)

// library is a Lua standard library that may be opened in a sandboxed state.
type library struct {
	name string
	fn   lua.LGFunction
}

// Safe: base, table, string, math.
// Blocked: os, io, debug, package, coroutine.
func defaultLibraries() []library {
	return []library{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
}

// Base functions that reach the filesystem or compile code at run time.
var blockedGlobals = []string{"dofile", "loadfile", "loadstring", "load", "require", "module"}

// StateFactory creates sandboxed Lua states.
type StateFactory struct {
	libraries []library
	// callStackSize bounds recursion; zero keeps the gopher-lua default.
	callStackSize int
}

// NewStateFactory creates a factory that opens only the safe libraries.
func NewStateFactory() *StateFactory {
	return &StateFactory{libraries: defaultLibraries(), callStackSize: 256}
}

// NewState creates a fresh state bound to ctx. Cancelling ctx aborts any
// script running in the state.
func (f *StateFactory) NewState(ctx context.Context) (*lua.LState, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:  true,
		CallStackSize: f.callStackSize,
	})

	for _, lib := range f.libraries {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, oops.In("script").With("library", lib.name).Wrapf(err, "open library")
		}
	}
	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetContext(ctx)
	return L, nil
}
