// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

//go:build hostbind_release

package sys

// Checked is false in release builds: dead-object access is not trapped.
const Checked = false
