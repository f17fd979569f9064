// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassesCommand_ListsBuiltInClasses(t *testing.T) {
	out, _, err := execute(t, "classes")
	require.NoError(t, err)

	assert.Contains(t, out, "CLASS")
	assert.Contains(t, out, "Node3D")
	assert.Contains(t, out, "Node < Object")
	assert.Contains(t, out, "ref-counted")
	assert.Contains(t, out, "abstract")
}

func TestClassesCommand_Methods(t *testing.T) {
	out, _, err := execute(t, "classes", "--methods", "Node")
	require.NoError(t, err)

	assert.Contains(t, out, "set_name(name: String) -> void")
	assert.NotContains(t, out, "Node3D")
}

func TestClassesCommand_JSON(t *testing.T) {
	out, _, err := execute(t, "classes", "--json", "Resource")
	require.NoError(t, err)

	var infos []classInfo
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "Resource", infos[0].Name)
	assert.Equal(t, []string{"RefCounted", "Object"}, infos[0].Ancestors)
	assert.True(t, infos[0].RefCounted)
}

func TestClassesCommand_UnknownClass(t *testing.T) {
	_, _, err := execute(t, "classes", "Spaceship")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Spaceship")
}

func TestClassesCommand_CustomAPI(t *testing.T) {
	api := writeFile(t, "api.yaml", `header:
  name: tiny
  host_version: 4.2.0
classes:
  - name: Object
  - name: Widget
    inherits: Object
`)
	out, _, err := execute(t, "classes", "--api", api)
	require.NoError(t, err)
	assert.Contains(t, out, "Widget")
	assert.NotContains(t, out, "Node3D")
}
