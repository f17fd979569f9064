// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

// Package apidesc loads the machine-readable description of the host API:
// its classes, their inheritance and ownership category, and the signatures
// of their methods.
package apidesc

import (
	_ "embed"
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/hostbind/hostbind/pkg/sys"
)

//go:embed api.yaml
var defaultAPI []byte

// API is a parsed API description.
type API struct {
	Header  Header  `yaml:"header" json:"header"`
	Classes []Class `yaml:"classes" json:"classes"`

	byName map[string]*Class
}

// Header identifies the host the description was produced from.
type Header struct {
	Name        string `yaml:"name" json:"name" jsonschema:"minLength=1"`
	HostVersion string `yaml:"host_version" json:"host_version" jsonschema:"minLength=5"`
	// Compatibility is a semver constraint describing the host versions this
	// description can be used with.
	Compatibility string `yaml:"compatibility,omitempty" json:"compatibility,omitempty"`
}

// Class describes one host class.
type Class struct {
	Name       string   `yaml:"name" json:"name" jsonschema:"pattern=^[A-Z][A-Za-z0-9]*$"`
	Inherits   string   `yaml:"inherits,omitempty" json:"inherits,omitempty"`
	RefCounted bool     `yaml:"ref_counted,omitempty" json:"ref_counted,omitempty"`
	Abstract   bool     `yaml:"abstract,omitempty" json:"abstract,omitempty"`
	Methods    []string `yaml:"methods,omitempty" json:"methods,omitempty"`

	signatures []*Signature
}

// Signatures returns the parsed method signatures, in declaration order.
func (c *Class) Signatures() []*Signature {
	return c.signatures
}

// Method returns the signature of name declared directly on c.
func (c *Class) Method(name string) (*Signature, bool) {
	for _, s := range c.signatures {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

var classNamePattern = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`)

// Default returns the API description built into the module.
func Default() *API {
	api, err := Parse(defaultAPI)
	if err != nil {
		panic(fmt.Sprintf("built-in API description is invalid: %v", err))
	}
	return api
}

// DefaultBytes returns the raw built-in description.
func DefaultBytes() []byte {
	return append([]byte(nil), defaultAPI...)
}

// Parse decodes and validates an API description.
func Parse(data []byte) (*API, error) {
	if len(data) == 0 {
		return nil, oops.In("apidesc").Code("API_INVALID").Errorf("API description is empty")
	}
	var api API
	if err := yaml.Unmarshal(data, &api); err != nil {
		return nil, oops.In("apidesc").Code("API_INVALID").Wrapf(err, "invalid YAML")
	}
	if err := api.Validate(); err != nil {
		return nil, err
	}
	return &api, nil
}

// Validate checks names, inheritance and signatures, and indexes the classes.
func (a *API) Validate() error {
	invalid := func(format string, args ...any) error {
		return oops.In("apidesc").Code("API_INVALID").Errorf(format, args...)
	}

	if a.Header.Name == "" {
		return invalid("header.name is required")
	}
	if _, err := semver.StrictNewVersion(a.Header.HostVersion); err != nil {
		return invalid("header.host_version %q is not a semantic version: %v", a.Header.HostVersion, err)
	}
	if a.Header.Compatibility != "" {
		if _, err := semver.NewConstraint(a.Header.Compatibility); err != nil {
			return invalid("header.compatibility %q is not a version constraint: %v", a.Header.Compatibility, err)
		}
	}
	if len(a.Classes) == 0 {
		return invalid("at least one class is required")
	}

	a.byName = make(map[string]*Class, len(a.Classes))
	for i := range a.Classes {
		c := &a.Classes[i]
		if !classNamePattern.MatchString(c.Name) {
			return invalid("class name %q must start with A-Z and contain only letters and digits", c.Name)
		}
		if _, dup := a.byName[c.Name]; dup {
			return invalid("class %s is declared twice", c.Name)
		}
		a.byName[c.Name] = c
	}

	roots := 0
	for i := range a.Classes {
		c := &a.Classes[i]
		if c.Inherits == "" {
			roots++
			continue
		}
		parent, ok := a.byName[c.Inherits]
		if !ok {
			return invalid("class %s inherits unknown class %s", c.Name, c.Inherits)
		}
		if parent.RefCounted && !c.RefCounted {
			return invalid("class %s must be ref_counted like its base %s", c.Name, parent.Name)
		}
		if err := a.checkAcyclic(c); err != nil {
			return err
		}
	}
	if roots != 1 {
		return invalid("exactly one root class is required, found %d", roots)
	}

	for i := range a.Classes {
		c := &a.Classes[i]
		c.signatures = c.signatures[:0]
		seen := make(map[string]bool, len(c.Methods))
		for _, text := range c.Methods {
			sig, err := ParseSignature(text)
			if err != nil {
				return oops.In("apidesc").Code("API_INVALID").With("class", c.Name).Wrap(err)
			}
			if seen[sig.Name] {
				return invalid("method %s::%s is declared twice", c.Name, sig.Name)
			}
			seen[sig.Name] = true
			if err := a.checkSignature(c, sig); err != nil {
				return err
			}
			c.signatures = append(c.signatures, sig)
		}
	}
	return nil
}

func (a *API) checkAcyclic(c *Class) error {
	seen := map[string]bool{c.Name: true}
	for p := c.Inherits; p != ""; {
		if seen[p] {
			return oops.In("apidesc").Code("API_INVALID").Errorf("class %s has cyclic inheritance", c.Name)
		}
		seen[p] = true
		next, ok := a.byName[p]
		if !ok {
			break
		}
		p = next.Inherits
	}
	return nil
}

func (a *API) checkSignature(c *Class, sig *Signature) error {
	invalid := func(format string, args ...any) error {
		return oops.In("apidesc").
			Code("API_INVALID").
			With("class", c.Name).
			With("method", sig.Name).
			Errorf(format, args...)
	}
	defaults := false
	for i, p := range sig.Params {
		if !a.knownType(p.Type) || p.Type == "void" {
			return invalid("%s::%s: parameter #%d (%s) has unknown type %s", c.Name, sig.Name, i, p.Name, p.Type)
		}
		if p.Default != nil {
			defaults = true
		} else if defaults {
			return invalid("%s::%s: parameter #%d (%s) without default follows a defaulted parameter", c.Name, sig.Name, i, p.Name)
		}
	}
	if !a.knownType(sig.Return) {
		return invalid("%s::%s: unknown return type %s", c.Name, sig.Name, sig.Return)
	}
	return nil
}

// knownType accepts variant type names, "Variant", "void" and class names.
func (a *API) knownType(name string) bool {
	if name == "Variant" || name == "void" {
		return true
	}
	if _, ok := sys.VariantTypeByName(name); ok && name != "Nil" {
		return true
	}
	_, ok := a.byName[name]
	return ok
}

// Class looks up a class by name.
func (a *API) Class(name string) (*Class, bool) {
	c, ok := a.byName[name]
	return c, ok
}

// IsClass reports whether name is a class rather than a value type.
func (a *API) IsClass(name string) bool {
	_, ok := a.byName[name]
	return ok
}

// Ancestors returns the inheritance chain of name, starting with name itself.
func (a *API) Ancestors(name string) []string {
	var out []string
	for c, ok := a.byName[name]; ok; c, ok = a.byName[c.Inherits] {
		out = append(out, c.Name)
	}
	return out
}

// Root returns the class without a base.
func (a *API) Root() *Class {
	for i := range a.Classes {
		if a.Classes[i].Inherits == "" {
			return &a.Classes[i]
		}
	}
	return nil
}
