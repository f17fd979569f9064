// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package apidesc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostbind/hostbind/pkg/errutil"
	"github.com/hostbind/hostbind/pkg/sys"
)

func TestDefault(t *testing.T) {
	api := Default()

	assert.Equal(t, "hostbind-sim", api.Header.Name)
	assert.Equal(t, "Object", api.Root().Name)
	assert.Equal(t, []string{"Node3D", "Node", "Object"}, api.Ancestors("Node3D"))

	rc, ok := api.Class("RefCounted")
	require.True(t, ok)
	assert.True(t, rc.RefCounted)

	call, ok := api.Root().Method("call")
	require.True(t, ok)
	assert.True(t, call.Vararg)
	require.Len(t, call.Params, 1)
	assert.Equal(t, "StringName", call.Params[0].Type)
	assert.Equal(t, "Variant", call.Return)

	v, err := api.ParseHostVersion()
	require.NoError(t, err)
	assert.Equal(t, sys.Version{Major: 4, Minor: 3, Patch: 0, String: "hostbind-sim 4.3.0"}, v)
	require.NoError(t, api.CheckHost(v))
}

func TestParseSignature(t *testing.T) {
	tests := []struct {
		text      string
		canonical string
		required  int
	}{
		{"get_class() -> String", "get_class() -> String", 0},
		{"set_name(name: String)", "set_name(name: String) -> void", 1},
		{"const get_meta(name: StringName, default: Variant = null) -> Variant",
			"const get_meta(name: StringName, default: Variant = null) -> Variant", 1},
		{"call(method: StringName, ...) -> Variant", "call(method: StringName, ...) -> Variant", 1},
		{"emit(...)", "emit(...) -> void", 0},
		{`f(a: int = -3, b: float = 1.5, c: String = "x", d: bool = true) -> void`,
			`f(a: int = -3, b: float = 1.5, c: String = "x", d: bool = true) -> void`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			sig, err := ParseSignature(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.canonical, sig.String())
			assert.Equal(t, tt.required, sig.Required())
		})
	}
}

func TestLiteral_Text(t *testing.T) {
	sig, err := ParseSignature(`f(a: int = 7, b: String = "a b", c: bool = false, d: Variant = null)`)
	require.NoError(t, err)

	var got []string
	for _, p := range sig.Params {
		require.NotNil(t, p.Default)
		got = append(got, p.Default.Text())
	}
	assert.Equal(t, []string{"7", `"a b"`, "false", "null"}, got)
	require.NotNil(t, sig.Params[1].Default.String)
	assert.Equal(t, "a b", *sig.Params[1].Default.String)
}

func TestParseSignature_Errors(t *testing.T) {
	for _, text := range []string{
		"",
		"get_class(",
		"f(a) -> int",
		"f(..., a: int)",
		"f(a: int = ) -> void",
	} {
		t.Run(text, func(t *testing.T) {
			_, err := ParseSignature(text)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "API_INVALID")
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"empty", "", "empty"},
		{"bad yaml", "header: [", "invalid YAML"},
		{"missing name", "header: {host_version: 1.0.0}\nclasses: [{name: Object}]", "header.name"},
		{"bad version", "header: {name: x, host_version: four}\nclasses: [{name: Object}]", "semantic version"},
		{"bad constraint", "header: {name: x, host_version: 1.0.0, compatibility: '>>> 1'}\nclasses: [{name: Object}]", "constraint"},
		{"no classes", "header: {name: x, host_version: 1.0.0}", "at least one class"},
		{"bad class name", "header: {name: x, host_version: 1.0.0}\nclasses: [{name: object}]", "must start with A-Z"},
		{"duplicate class", "header: {name: x, host_version: 1.0.0}\nclasses: [{name: A}, {name: A}]", "declared twice"},
		{"unknown base", "header: {name: x, host_version: 1.0.0}\nclasses: [{name: A, inherits: B}]", "unknown class B"},
		{"two roots", "header: {name: x, host_version: 1.0.0}\nclasses: [{name: A}, {name: B}]", "exactly one root"},
		{"cycle", "header: {name: x, host_version: 1.0.0}\nclasses: [{name: R}, {name: A, inherits: B}, {name: B, inherits: A}]", "cyclic"},
		{"ref counted base", "header: {name: x, host_version: 1.0.0}\nclasses: [{name: R, ref_counted: true}, {name: A, inherits: R}]", "must be ref_counted"},
		{"unknown param type", "header: {name: x, host_version: 1.0.0}\nclasses: [{name: R, methods: ['f(a: Quux)']}]", "unknown type Quux"},
		{"void param", "header: {name: x, host_version: 1.0.0}\nclasses: [{name: R, methods: ['f(a: void)']}]", "unknown type void"},
		{"unknown return", "header: {name: x, host_version: 1.0.0}\nclasses: [{name: R, methods: ['f() -> Quux']}]", "unknown return type"},
		{"duplicate method", "header: {name: x, host_version: 1.0.0}\nclasses: [{name: R, methods: ['f()', 'f(a: int)']}]", "declared twice"},
		{"default order", "header: {name: x, host_version: 1.0.0}\nclasses: [{name: R, methods: ['f(a: int = 1, b: int)']}]", "follows a defaulted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			errutil.AssertErrorCode(t, err, "API_INVALID")
		})
	}
}

func TestCheckCompatible(t *testing.T) {
	require.NoError(t, CheckCompatible("4.3.0", ""))
	require.NoError(t, CheckCompatible("4.3.0", ">= 4.1, < 5"))

	err := CheckCompatible("5.0.0", ">= 4.1, < 5")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "API_INCOMPATIBLE")
	errutil.AssertErrorContext(t, err, "version", "5.0.0")

	assert.Error(t, CheckCompatible("banana", ">= 1"))
	assert.Error(t, CheckCompatible("1.0.0", "~~~"))
}

func TestSchema(t *testing.T) {
	data, err := GenerateSchema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(data, &schema))
	assert.Equal(t, SchemaID, schema["$id"])

	require.NoError(t, ValidateSchema(DefaultBytes()))

	err = ValidateSchema([]byte("header: {name: x, host_version: 1.0.0}\nclasses: [{name: A, bogus: 1}]"))
	require.Error(t, err)
	assert.NotEmpty(t, FormatSchemaError(err))

	assert.Error(t, ValidateSchema(nil))
	assert.Empty(t, FormatSchemaError(nil))
}
