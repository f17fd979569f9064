// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

//go:build hostbind_release

package obj

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostbind/hostbind/pkg/sys"
)

// Release builds skip liveness validation. A stale handle hands out its
// cached ID and pointer, while dropped handles and class ancestry are still
// checked.
func TestRelease_StaleHandleIsNotValidated(t *testing.T) {
	require.False(t, sys.Checked)
	e := loadEngine(t)
	require.NoError(t, e.SetNextInstanceID(7))
	n := New[testNode]()
	stale := n.Clone()
	ptr := n.Ptr()
	n.Free()

	assert.False(t, stale.IsAlive())
	assert.NotPanics(t, func() {
		assert.Equal(t, InstanceID(7), stale.InstanceID())
		assert.Equal(t, ptr, stale.Raw().CheckedPtr("Node", "get_name"))
	})
	assert.Panics(t, func() { n.InstanceID() }, "consumed by free")
}

func TestRelease_UpcastStillRejectsNonAncestor(t *testing.T) {
	loadEngine(t)
	r := New[testResource]()
	defer r.Drop()
	v := panicValue(func() { Upcast[testNode](r) })
	assert.Contains(t, v, "Node is not a base class of Resource")
	assert.True(t, r.IsAlive())

	n := New[testNode3D]()
	up := Upcast[testNode](n)
	assert.Equal(t, ClassName("Node3D"), up.DynamicClass())
	up.Free()
}
