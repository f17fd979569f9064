// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package apidesc

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"

	"github.com/hostbind/hostbind/pkg/sys"
)

// HostVersionString renders a host version as a semantic version.
func HostVersionString(v sys.Version) string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// CheckCompatible verifies that version satisfies constraint. An empty
// constraint accepts every version.
func CheckCompatible(version, constraint string) error {
	if constraint == "" {
		return nil
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return oops.In("apidesc").
			Code("API_INCOMPATIBLE").
			With("version", version).
			Wrapf(err, "invalid host version")
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return oops.In("apidesc").
			Code("API_INCOMPATIBLE").
			With("constraint", constraint).
			Wrapf(err, "invalid version constraint")
	}
	if ok, errs := c.Validate(v); !ok {
		reason := "constraint not satisfied"
		if len(errs) > 0 {
			reason = errs[0].Error()
		}
		return oops.In("apidesc").
			Code("API_INCOMPATIBLE").
			With("version", version).
			With("constraint", constraint).
			Errorf("host version %s does not satisfy %s: %s", version, constraint, reason)
	}
	return nil
}

// CheckHost verifies a running host against the description's compatibility
// constraint.
func (a *API) CheckHost(v sys.Version) error {
	return CheckCompatible(HostVersionString(v), a.Header.Compatibility)
}

// ParseHostVersion converts the header's host_version into a sys.Version.
func (a *API) ParseHostVersion() (sys.Version, error) {
	v, err := semver.StrictNewVersion(a.Header.HostVersion)
	if err != nil {
		return sys.Version{}, oops.In("apidesc").Code("API_INVALID").Wrapf(err, "invalid host_version")
	}
	return sys.Version{
		Major:  uint32(v.Major()),
		Minor:  uint32(v.Minor()),
		Patch:  uint32(v.Patch()),
		String: a.Header.Name + " " + v.String(),
	}, nil
}
