// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package errutil_test

import (
	"testing"

	"github.com/samber/oops"

	"github.com/hostbind/hostbind/pkg/errutil"
)

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("TYPE_MISMATCH").Errorf("cannot cast")
	errutil.AssertErrorCode(t, err, "TYPE_MISMATCH")
}

func TestAssertErrorCode_WrappedKeepsInnerCode(t *testing.T) {
	inner := oops.Code("PARAM_CONVERSION").Errorf("parameter #0")
	errutil.AssertErrorCode(t, oops.In("script").Wrap(inner), "PARAM_CONVERSION")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("method", "set_name").Errorf("call failed")
	errutil.AssertErrorContext(t, err, "method", "set_name")
}

func TestAssertErrorDomain(t *testing.T) {
	errutil.AssertErrorDomain(t, oops.In("registry").Errorf("duplicate class"), "registry")
}
