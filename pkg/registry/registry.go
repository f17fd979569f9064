// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

// Package registry registers extension classes with the host.
//
// A Registry is owned by the extension entry point. Classes are declared up
// front with Register, each for one initialization level; Init and Deinit
// are called by the entry point as the host walks through its levels and
// register or unregister the classes of that level.
package registry

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/samber/oops"

	"github.com/hostbind/hostbind/internal/apidesc"
	"github.com/hostbind/hostbind/pkg/obj"
	"github.com/hostbind/hostbind/pkg/sys"
)

// Registry holds the extension classes of one library.
type Registry struct {
	token      sys.LibraryToken
	constraint string
	logger     *slog.Logger

	mu      sync.Mutex
	classes []*classDesc
	byName  map[obj.ClassName]*classDesc
	levels  map[sys.InitLevel]bool
}

// Option configures the Registry.
type Option func(*Registry)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithHostConstraint requires the host version to satisfy a semver
// constraint. It is checked by the first Init.
func WithHostConstraint(constraint string) Option {
	return func(r *Registry) {
		r.constraint = constraint
	}
}

// New creates a registry for the library the host identifies by token.
func New(token sys.LibraryToken, opts ...Option) *Registry {
	r := &Registry{
		token:  token,
		logger: slog.Default(),
		byName: make(map[obj.ClassName]*classDesc),
		levels: make(map[sys.InitLevel]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// classDesc is a declared extension class.
type classDesc struct {
	name       obj.ClassName
	base       obj.ClassName
	level      sys.InitLevel
	refCounted bool
	create     func() sys.ObjectPtr
	free       func(sys.InstanceHandle)
	methods    []*sys.MethodInfo
}

func (r *Registry) add(d *classDesc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	errb := oops.In("registry").With("class", string(d.name))
	if d.name == "" {
		return errb.Code("CLASS_INVALID").Errorf("class name is empty")
	}
	if _, dup := r.byName[d.name]; dup {
		return errb.Code("CLASS_DUPLICATE").Errorf("class %s is already registered", d.name)
	}
	if _, ours := r.byName[d.base]; ours {
		return errb.Code("CLASS_INVALID").With("base", string(d.base)).
			Errorf("class %s must derive from an engine class, not %s", d.name, d.base)
	}
	if r.levels[d.level] {
		return errb.Code("CLASS_LATE").With("level", d.level.String()).
			Errorf("level %s is already initialized", d.level)
	}
	r.classes = append(r.classes, d)
	r.byName[d.name] = d
	return nil
}

// Classes lists the declared classes in registration order.
func (r *Registry) Classes() []obj.ClassName {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]obj.ClassName, len(r.classes))
	for i, d := range r.classes {
		out[i] = d.name
	}
	return out
}

// Init registers the classes declared for level with the host. The first
// call records the library token and checks the host version.
func (r *Registry) Init(level sys.InitLevel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.levels[level] {
		return oops.In("registry").Code("LEVEL_INITIALIZED").With("level", level.String()).
			Errorf("level %s is already initialized", level)
	}
	host := sys.Get()
	if len(r.levels) == 0 {
		if err := r.checkHost(host); err != nil {
			return err
		}
		sys.SetLibrary(r.token)
	}

	var done []*classDesc
	for _, d := range r.classes {
		if d.level != level {
			continue
		}
		if host.ClassDBGetClassTag(string(d.base)) == 0 {
			r.unregister(host, done)
			return oops.In("registry").Code("CLASS_INVALID").
				With("class", string(d.name)).
				With("base", string(d.base)).
				Errorf("base class %s of %s is unknown to the host", d.base, d.name)
		}
		host.ClassDBRegisterClass(r.token, string(d.name), string(d.base), &sys.ClassCreationInfo{
			IsRefCounted:   d.refCounted,
			CreateInstance: d.create,
			FreeInstance:   d.free,
		})
		for _, m := range d.methods {
			host.ClassDBRegisterMethod(r.token, string(d.name), m)
		}
		done = append(done, d)
		r.logger.Debug("registered extension class",
			"class", d.name, "base", d.base, "level", level.String(), "methods", len(d.methods))
	}
	r.levels[level] = true
	r.logger.Info("initialized level", "level", level.String(), "classes", len(done))
	return nil
}

// Deinit unregisters the classes of level, most recent first. Deinitializing
// the last level clears the library token.
func (r *Registry) Deinit(level sys.InitLevel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.levels[level] {
		return oops.In("registry").Code("LEVEL_NOT_INITIALIZED").With("level", level.String()).
			Errorf("level %s is not initialized", level)
	}
	var ours []*classDesc
	for _, d := range r.classes {
		if d.level == level {
			ours = append(ours, d)
		}
	}
	r.unregister(sys.Get(), ours)
	delete(r.levels, level)
	if len(r.levels) == 0 {
		sys.SetLibrary(0)
	}
	r.logger.Info("deinitialized level", "level", level.String(), "classes", len(ours))
	return nil
}

func (r *Registry) unregister(host *sys.Interface, classes []*classDesc) {
	for _, d := range slices.Backward(classes) {
		host.ClassDBUnregisterClass(r.token, string(d.name))
	}
}

func (r *Registry) checkHost(host *sys.Interface) error {
	if r.constraint == "" {
		return nil
	}
	v := host.GetVersion()
	if err := apidesc.CheckCompatible(apidesc.HostVersionString(v), r.constraint); err != nil {
		return oops.In("registry").With("host", v.String).Wrap(err)
	}
	return nil
}
