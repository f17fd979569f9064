// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostbind/hostbind/internal/apidesc"
)

func TestSchemaCommand_Stdout(t *testing.T) {
	out, _, err := execute(t, "schema")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Equal(t, apidesc.SchemaID, schema["$id"])
}

func TestSchemaCommand_OutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "api.schema.json")

	out, _, err := execute(t, "schema", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Generated "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), apidesc.SchemaID)
}
