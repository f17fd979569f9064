// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

// Package xdg provides XDG Base Directory paths for hostbind.
package xdg

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "hostbind"

// ConfigDir returns the hostbind config directory: $XDG_CONFIG_HOME/hostbind,
// or ~/.config/hostbind when the variable is unset.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// EnsureDir creates path and its parents with 0700 permissions.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return oops.In("xdg").With("path", path).Wrapf(err, "create directory")
	}
	return nil
}
