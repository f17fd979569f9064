// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package sys

import "sync/atomic"

var library atomic.Uintptr

// SetLibrary records the token the host assigned to this extension. It is
// set by the extension entry point before any class is registered.
func SetLibrary(token LibraryToken) {
	library.Store(uintptr(token))
}

// Library returns the token recorded by SetLibrary, or zero.
func Library() LibraryToken {
	return LibraryToken(library.Load())
}
