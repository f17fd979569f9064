// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package obj

import (
	"fmt"
)

// DeadObjectError is the panic value raised when a handle is used after the
// object it names has been destroyed. It is only raised in checked builds.
type DeadObjectError struct {
	Class  ClassName
	Method string
	ID     InstanceID
}

func (e *DeadObjectError) Error() string {
	return fmt.Sprintf("%s::%s: access to instance with ID %d after it has been freed", e.Class, e.Method, uint64(e.ID))
}

// NullObjectError is the panic value raised when an operation that needs a
// live object is invoked on a null handle.
type NullObjectError struct {
	Class  ClassName
	Method string
}

func (e *NullObjectError) Error() string {
	return fmt.Sprintf("%s::%s: method call on null instance", e.Class, e.Method)
}

// CastError reports a failed dynamic type check. The handle that was being
// cast remains valid.
type CastError struct {
	ID      InstanceID
	Dynamic ClassName
	Target  ClassName
}

func (e *CastError) Error() string {
	return fmt.Sprintf("cannot cast instance %d of class %s to %s", uint64(e.ID), e.Dynamic, e.Target)
}
