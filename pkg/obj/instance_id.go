// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package obj

import (
	"strconv"

	"github.com/hostbind/hostbind/pkg/sys"
)

// refCountedBit is set by the host in the IDs of reference-counted objects.
const refCountedBit = uint64(1) << 63

// InstanceID names a host object for its whole lifetime. It is never zero,
// and the host does not reuse it while the object can still be referenced.
type InstanceID uint64

// TryFromUint64 validates a raw ID. Zero is not a valid ID.
func TryFromUint64(id uint64) (InstanceID, bool) {
	if id == 0 {
		return 0, false
	}
	return InstanceID(id), true
}

// FromInt64 converts the signed form scripts see. It panics on zero.
func FromInt64(id int64) InstanceID {
	out, ok := TryFromUint64(uint64(id))
	if !ok {
		panic("instance ID must not be zero")
	}
	return out
}

// ToInt64 returns the signed form. Reference-counted IDs are negative.
func (id InstanceID) ToInt64() int64 {
	return int64(id)
}

// IsRefCounted reports whether the host marked the object as reference-counted.
func (id InstanceID) IsRefCounted() bool {
	return uint64(id)&refCountedBit != 0
}

// Lookup returns the object the ID currently resolves to, or zero once the
// object has been destroyed.
func (id InstanceID) Lookup() sys.ObjectPtr {
	return sys.Get().ObjectGetInstanceFromID(uint64(id))
}

// LookupValidity reports whether the object is still alive.
func (id InstanceID) LookupValidity() bool {
	return id.Lookup() != 0
}

func (id InstanceID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}
