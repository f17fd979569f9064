// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package enginesim

import (
	"sort"
	"strconv"

	"github.com/samber/oops"

	"github.com/hostbind/hostbind/internal/apidesc"
	"github.com/hostbind/hostbind/pkg/sys"
	"github.com/hostbind/hostbind/pkg/variant"
)

type class struct {
	name       string
	parent     *class
	tag        sys.ClassTag
	refCounted bool
	abstract   bool
	methods    map[string]*method

	// Set for classes registered by an extension.
	ext   *sys.ClassCreationInfo
	token sys.LibraryToken
}

func (c *class) inherits(base *class) bool {
	for p := c; p != nil; p = p.parent {
		if p == base {
			return true
		}
	}
	return false
}

func (c *class) findMethod(name string) *method {
	for p := c; p != nil; p = p.parent {
		if m, ok := p.methods[name]; ok {
			return m
		}
	}
	return nil
}

// typeRef is a resolved parameter or return type.
type typeRef struct {
	name  string
	vt    sys.VariantType
	any   bool // "Variant"
	void  bool
	class string
}

func (t typeRef) isObject() bool {
	return t.class != ""
}

type param struct {
	name string
	typ  typeRef
	def  *variant.Variant
}

type method struct {
	bind   sys.MethodBind
	class  *class
	name   string
	params []param
	ret    typeRef
	vararg bool
	impl   builtin

	// Set for methods registered by an extension.
	ext *sys.MethodInfo
}

func (m *method) required() int {
	n := 0
	for _, p := range m.params {
		if p.def == nil {
			n++
		}
	}
	return n
}

func (m *method) qualified() string {
	return m.class.name + "::" + m.name
}

func (e *Engine) resolveType(name string) typeRef {
	switch name {
	case "Variant":
		return typeRef{name: name, any: true}
	case "void":
		return typeRef{name: name, void: true}
	}
	if vt, ok := sys.VariantTypeByName(name); ok {
		return typeRef{name: name, vt: vt}
	}
	return typeRef{name: name, vt: sys.VariantObject, class: name}
}

// defaultValue converts a declared default to a value of the parameter type.
func defaultValue(lit *apidesc.Literal, t typeRef) (variant.Variant, error) {
	switch {
	case lit.Null:
		if t.isObject() {
			return variant.FromObjectPtr(0), nil
		}
		return variant.Nil(), nil
	case lit.Bool != nil:
		return variant.Bool(*lit.Bool == "true"), nil
	case lit.Number != nil:
		if t.vt == sys.VariantInt {
			i, err := strconv.ParseInt(*lit.Number, 10, 64)
			if err != nil {
				return variant.Nil(), err
			}
			return variant.Int(i), nil
		}
		f, err := strconv.ParseFloat(*lit.Number, 64)
		if err != nil {
			return variant.Nil(), err
		}
		return variant.Float(f), nil
	case lit.String != nil:
		if t.vt == sys.VariantStringName {
			return variant.Name(variant.StringName(*lit.String)), nil
		}
		return variant.String(*lit.String), nil
	}
	return variant.Nil(), nil
}

// loadClasses builds the class database from the API description. Classes
// are created in inheritance order so parents always exist first.
func (e *Engine) loadClasses() error {
	pending := make([]*apidesc.Class, 0, len(e.api.Classes))
	for i := range e.api.Classes {
		pending = append(pending, &e.api.Classes[i])
	}
	for len(pending) > 0 {
		progressed := false
		rest := pending[:0]
		for _, ac := range pending {
			var parent *class
			if ac.Inherits != "" {
				parent = e.classes[ac.Inherits]
				if parent == nil {
					rest = append(rest, ac)
					continue
				}
			}
			e.addClass(ac.Name, parent, ac.RefCounted, ac.Abstract)
			progressed = true
		}
		pending = rest
		if !progressed {
			return oops.In("enginesim").Code("API_INVALID").Errorf("class hierarchy cannot be resolved")
		}
	}

	for i := range e.api.Classes {
		ac := &e.api.Classes[i]
		c := e.classes[ac.Name]
		for _, sig := range ac.Signatures() {
			m := &method{
				class:  c,
				name:   sig.Name,
				ret:    e.resolveType(sig.Return),
				vararg: sig.Vararg,
				impl:   builtinFor(c.name, sig.Name),
			}
			for _, p := range sig.Params {
				pr := param{name: p.Name, typ: e.resolveType(p.Type)}
				if p.Default != nil {
					def, err := defaultValue(p.Default, pr.typ)
					if err != nil {
						return oops.In("enginesim").Code("API_INVALID").
							With("method", c.name+"::"+sig.Name).
							Wrapf(err, "default of parameter %s", p.Name)
					}
					pr.def = &def
				}
				m.params = append(m.params, pr)
			}
			if m.impl == nil {
				m.impl = accessorFor(m)
			}
			e.addMethod(c, m)
		}
	}
	return nil
}

func (e *Engine) addClass(name string, parent *class, refCounted, abstract bool) *class {
	e.nextTag++
	c := &class{
		name:       name,
		parent:     parent,
		tag:        sys.ClassTag(e.nextTag),
		refCounted: refCounted,
		abstract:   abstract,
		methods:    make(map[string]*method),
	}
	e.classes[name] = c
	e.byTag[c.tag] = c
	return c
}

func (e *Engine) addMethod(c *class, m *method) {
	e.nextBind++
	m.bind = sys.MethodBind(e.nextBind)
	c.methods[m.name] = m
	e.binds[m.bind] = m
}

func (e *Engine) classByName(name string) *class {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.classes[name]
}

func (e *Engine) classTag(name string) sys.ClassTag {
	if c := e.classByName(name); c != nil {
		return c.tag
	}
	return 0
}

func (e *Engine) parentClass(name string) string {
	c := e.classByName(name)
	if c == nil || c.parent == nil {
		return ""
	}
	return c.parent.name
}

// methodBind resolves a method on class or its ancestors. The hash is
// accepted for ABI compatibility and not checked.
func (e *Engine) methodBind(className, methodName string, _ int64) sys.MethodBind {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c := e.classes[className]
	if c == nil {
		return 0
	}
	if m := c.findMethod(methodName); m != nil {
		return m.bind
	}
	return 0
}

func (e *Engine) methodByBind(bind sys.MethodBind) *method {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.binds[bind]
}

// methodList returns the methods declared directly on a class, sorted.
func (e *Engine) methodList(className string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c := e.classes[className]
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.methods))
	for name := range c.methods {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (e *Engine) registerClass(token sys.LibraryToken, name, parentName string, info *sys.ClassCreationInfo) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.classes[name]; dup {
		e.logger.Error("class already registered", "component", "enginesim", "class", name)
		return
	}
	parent := e.classes[parentName]
	if parent == nil {
		e.logger.Error("cannot register class with unknown base",
			"component", "enginesim", "class", name, "base", parentName)
		return
	}
	if info != nil && info.IsRefCounted != parent.refCounted {
		e.logger.Warn("extension class disagrees with its base about reference counting",
			"component", "enginesim", "class", name, "base", parentName)
	}
	c := e.addClass(name, parent, parent.refCounted, false)
	c.ext = info
	c.token = token
	e.logger.Debug("registered extension class", "component", "enginesim", "class", name, "base", parentName)
}

func (e *Engine) registerMethod(token sys.LibraryToken, className string, info *sys.MethodInfo) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.classes[className]
	if c == nil || c.ext == nil || c.token != token {
		e.logger.Error("cannot register method on class not owned by the library",
			"component", "enginesim", "class", className, "method", info.Name)
		return
	}
	if _, dup := c.methods[info.Name]; dup {
		e.logger.Error("method already registered", "component", "enginesim", "class", className, "method", info.Name)
		return
	}
	m := &method{class: c, name: info.Name, vararg: info.IsVararg, ext: info}
	for i, vt := range info.ArgTypes {
		m.params = append(m.params, param{name: "arg" + strconv.Itoa(i), typ: extTypeRef(vt)})
	}
	m.ret = extTypeRef(info.ReturnType)
	e.addMethod(c, m)
}

// extTypeRef maps an extension method type. Nil stands for any Variant.
func extTypeRef(vt sys.VariantType) typeRef {
	switch vt {
	case sys.VariantNil:
		return typeRef{name: "Variant", any: true}
	case sys.VariantObject:
		return typeRef{name: "Object", vt: vt, class: "Object"}
	}
	return typeRef{name: vt.String(), vt: vt}
}

func (e *Engine) unregisterClass(token sys.LibraryToken, name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.classes[name]
	if c == nil || c.ext == nil || c.token != token {
		e.logger.Error("cannot unregister class not owned by the library", "component", "enginesim", "class", name)
		return
	}
	for _, other := range e.classes {
		if other.parent == c {
			e.logger.Error("cannot unregister class with subclasses",
				"component", "enginesim", "class", name, "subclass", other.name)
			return
		}
	}
	for _, m := range c.methods {
		delete(e.binds, m.bind)
	}
	delete(e.byTag, c.tag)
	delete(e.classes, name)
	e.logger.Debug("unregistered extension class", "component", "enginesim", "class", name)
}
