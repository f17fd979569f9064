// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package script

import (
	"sync"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// Capabilities checked by the engine module:
//
//	engine.new.<Class>       construct an object
//	engine.get               resolve an object by instance ID
//	object.<Class>.<method>  call a method, or free, on a handle typed as Class
//
// Patterns use gobwas/glob with '.' as the separator: '*' matches one
// segment and '**' any number of them.

type compiledGrant struct {
	pattern string
	glob    glob.Glob
}

// Enforcer decides which capabilities a script holds.
//
// Scripts without grants of their own fall back to the default grants.
// Enforcer is safe for concurrent use. The zero value denies everything.
type Enforcer struct {
	mu       sync.RWMutex
	grants   map[string][]compiledGrant
	defaults []compiledGrant
}

// NewEnforcer creates an enforcer with the given default grants.
func NewEnforcer(defaults ...string) (*Enforcer, error) {
	e := &Enforcer{grants: make(map[string][]compiledGrant)}
	if err := e.SetDefaultGrants(defaults); err != nil {
		return nil, err
	}
	return e, nil
}

func compileGrants(patterns []string) ([]compiledGrant, error) {
	out := make([]compiledGrant, len(patterns))
	for i, pattern := range patterns {
		if pattern == "" {
			return nil, oops.In("script").Code("CONFIG_INVALID").With("index", i).
				Errorf("capability %d: empty pattern", i)
		}
		g, err := glob.Compile(pattern, '.')
		if err != nil {
			return nil, oops.In("script").Code("CONFIG_INVALID").With("index", i).
				With("pattern", pattern).Wrapf(err, "capability %d", i)
		}
		out[i] = compiledGrant{pattern: pattern, glob: g}
	}
	return out, nil
}

// SetDefaultGrants replaces the grants of scripts that have none of their
// own. On error nothing changes.
func (e *Enforcer) SetDefaultGrants(patterns []string) error {
	compiled, err := compileGrants(patterns)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.defaults = compiled
	return nil
}

// SetGrants replaces the grants of one script. On error nothing changes.
func (e *Enforcer) SetGrants(script string, patterns []string) error {
	if script == "" {
		return oops.In("script").Code("CONFIG_INVALID").Errorf("script name cannot be empty")
	}
	compiled, err := compileGrants(patterns)
	if err != nil {
		return oops.With("script", script).Wrap(err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.grants == nil {
		e.grants = make(map[string][]compiledGrant)
	}
	e.grants[script] = compiled
	return nil
}

// RemoveGrants puts a script back on the default grants.
func (e *Enforcer) RemoveGrants(script string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.grants, script)
}

// Grants returns the patterns that apply to script.
func (e *Enforcer) Grants(script string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	grants, ok := e.grants[script]
	if !ok {
		grants = e.defaults
	}
	patterns := make([]string, len(grants))
	for i, g := range grants {
		patterns[i] = g.pattern
	}
	return patterns
}

// Check reports whether script holds capability.
func (e *Enforcer) Check(script, capability string) bool {
	if capability == "" {
		return false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	grants, ok := e.grants[script]
	if !ok {
		grants = e.defaults
	}
	for _, g := range grants {
		if g.glob.Match(capability) {
			return true
		}
	}
	return false
}
