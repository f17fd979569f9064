// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package script_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostbind/hostbind/internal/script"
	"github.com/hostbind/hostbind/pkg/errutil"
)

func TestEnforcer_Check(t *testing.T) {
	tests := []struct {
		name       string
		grants     []string
		capability string
		want       bool
	}{
		{"exact match", []string{"engine.get"}, "engine.get", true},
		{"single segment wildcard", []string{"engine.new.*"}, "engine.new.Node", true},
		{"wildcard does not cross segments", []string{"object.*"}, "object.Node.set_name", false},
		{"super wildcard crosses segments", []string{"object.**"}, "object.Node.set_name", true},
		{"wildcard inside a segment", []string{"object.*.get_*"}, "object.Node.get_name", true},
		{"prefix is not a match", []string{"engine"}, "engine.get", false},
		{"no grants", nil, "engine.get", false},
		{"empty capability", []string{"**"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := script.NewEnforcer()
			require.NoError(t, err)
			require.NoError(t, e.SetGrants("s", tt.grants))
			assert.Equal(t, tt.want, e.Check("s", tt.capability))
		})
	}
}

func TestEnforcer_DefaultGrants(t *testing.T) {
	e, err := script.NewEnforcer("engine.get")
	require.NoError(t, err)

	assert.True(t, e.Check("anyone", "engine.get"))
	assert.Equal(t, []string{"engine.get"}, e.Grants("anyone"))

	require.NoError(t, e.SetGrants("restricted", []string{}))
	assert.False(t, e.Check("restricted", "engine.get"), "own grants replace the defaults")
	assert.Empty(t, e.Grants("restricted"))

	e.RemoveGrants("restricted")
	assert.True(t, e.Check("restricted", "engine.get"))
}

func TestEnforcer_InvalidPatterns(t *testing.T) {
	e, err := script.NewEnforcer("engine.get")
	require.NoError(t, err)

	err = e.SetGrants("s", []string{"engine.get", ""})
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	errutil.AssertErrorContext(t, err, "script", "s")
	assert.Equal(t, []string{"engine.get"}, e.Grants("s"), "failed update leaves the script on defaults")

	err = e.SetDefaultGrants([]string{"object.[Node"})
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	assert.True(t, e.Check("s", "engine.get"))

	errutil.AssertErrorCode(t, e.SetGrants("", nil), "CONFIG_INVALID")

	_, err = script.NewEnforcer("")
	require.Error(t, err)
}

func TestEnforcer_ZeroValueDenies(t *testing.T) {
	var e script.Enforcer
	assert.False(t, e.Check("s", "engine.get"))
	require.NoError(t, e.SetGrants("s", []string{"**"}))
	assert.True(t, e.Check("s", "engine.get"))
}
