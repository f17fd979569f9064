// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

//go:build !hostbind_release

package sys

// Checked enables liveness and type validation before every dereference of a
// host object. Build with the hostbind_release tag to compile the checks out.
const Checked = true
