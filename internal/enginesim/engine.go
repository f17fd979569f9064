// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

// Package enginesim is an in-process host engine. It builds its class
// database from an API description and serves the host function table the
// binding layer expects, with instrumentation counters for tests.
//
// Objects are addressed by synthetic pointers that are never dereferenced
// and never reused. Instance IDs of reference-counted objects carry the
// high bit, like the real host.
package enginesim

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/samber/oops"

	"github.com/hostbind/hostbind/internal/apidesc"
	"github.com/hostbind/hostbind/pkg/sys"
)

const refCountedBit = uint64(1) << 63

// Stats is a snapshot of the engine's instrumentation counters.
type Stats struct {
	VarCalls     int64
	PtrCalls     int64
	Constructed  int64
	Destroyed    int64
	InitRefs     int64
	References   int64
	Unreferences int64
	Casts        int64
	Live         int
}

type counters struct {
	varCalls     atomic.Int64
	ptrCalls     atomic.Int64
	constructed  atomic.Int64
	destroyed    atomic.Int64
	initRefs     atomic.Int64
	references   atomic.Int64
	unreferences atomic.Int64
	casts        atomic.Int64
}

// Engine is a simulated host.
type Engine struct {
	api     *apidesc.API
	version sys.Version
	logger  *slog.Logger

	mu       sync.RWMutex
	classes  map[string]*class
	byTag    map[sys.ClassTag]*class
	binds    map[sys.MethodBind]*method
	objects  map[sys.ObjectPtr]*object
	byID     map[uint64]*object
	issued   map[uint64]bool
	nextPtr  uintptr
	nextID   uint64
	nextTag  uintptr
	nextBind uintptr
	forceID  uint64

	tree sync.Mutex

	stats counters
	iface *sys.Interface
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithVersion overrides the version reported to extensions.
func WithVersion(v sys.Version) Option {
	return func(e *Engine) {
		e.version = v
	}
}

// New builds an engine serving the classes of api. A nil api selects the
// built-in description.
func New(api *apidesc.API, opts ...Option) (*Engine, error) {
	if api == nil {
		api = apidesc.Default()
	}
	version, err := api.ParseHostVersion()
	if err != nil {
		return nil, err
	}
	e := &Engine{
		api:      api,
		version:  version,
		logger:   slog.Default(),
		classes:  make(map[string]*class),
		byTag:    make(map[sys.ClassTag]*class),
		binds:    make(map[sys.MethodBind]*method),
		objects:  make(map[sys.ObjectPtr]*object),
		byID:     make(map[uint64]*object),
		issued:   make(map[uint64]bool),
		nextPtr:  0x10000,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.loadClasses(); err != nil {
		return nil, err
	}
	e.iface = e.buildInterface()
	return e, nil
}

// API returns the description the engine was built from.
func (e *Engine) API() *apidesc.API {
	return e.api
}

// Version returns the version reported to extensions.
func (e *Engine) Version() sys.Version {
	return e.version
}

// Interface returns the host function table.
func (e *Engine) Interface() *sys.Interface {
	return e.iface
}

// Stats returns the instrumentation counters.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	live := len(e.objects)
	e.mu.RUnlock()
	return Stats{
		VarCalls:     e.stats.varCalls.Load(),
		PtrCalls:     e.stats.ptrCalls.Load(),
		Constructed:  e.stats.constructed.Load(),
		Destroyed:    e.stats.destroyed.Load(),
		InitRefs:     e.stats.initRefs.Load(),
		References:   e.stats.references.Load(),
		Unreferences: e.stats.unreferences.Load(),
		Casts:        e.stats.casts.Load(),
		Live:         live,
	}
}

// SetNextInstanceID makes the next constructed object use id (plus the
// reference-counted bit when applicable). IDs are never reissued; asking for
// one that was already used fails.
func (e *Engine) SetNextInstanceID(id uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id == 0 || id&refCountedBit != 0 {
		return oops.In("enginesim").With("id", id).Errorf("instance ID %d is reserved", id)
	}
	if e.issued[id] || e.issued[id|refCountedBit] {
		return oops.In("enginesim").With("id", id).Errorf("instance ID %d was already issued", id)
	}
	e.forceID = id
	return nil
}

// IsLive reports whether ptr names an existing object.
func (e *Engine) IsLive(ptr sys.ObjectPtr) bool {
	return e.lookup(ptr) != nil
}

// RefCount returns the reference count of ptr, or -1 if it is not a live
// reference-counted object.
func (e *Engine) RefCount(ptr sys.ObjectPtr) int32 {
	o := e.lookup(ptr)
	if o == nil || !o.class.refCounted {
		return -1
	}
	return o.refCount.Load()
}

// ClassOf returns the dynamic class of a live object, or "".
func (e *Engine) ClassOf(ptr sys.ObjectPtr) string {
	o := e.lookup(ptr)
	if o == nil {
		return ""
	}
	return o.className()
}

// ClassNames returns all registered classes in sorted order.
func (e *Engine) ClassNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.classes))
	for name := range e.classes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Shutdown destroys every remaining object, roots first, and reports how
// many were left.
func (e *Engine) Shutdown() int {
	e.mu.RLock()
	all := make([]*object, 0, len(e.objects))
	for _, o := range e.objects {
		all = append(all, o)
	}
	e.mu.RUnlock()
	var roots []*object
	e.tree.Lock()
	for _, o := range all {
		if o.parent == nil {
			roots = append(roots, o)
		}
	}
	e.tree.Unlock()
	sort.Slice(roots, func(i, j int) bool { return roots[i].ptr < roots[j].ptr })
	for _, o := range roots {
		if e.lookup(o.ptr) != nil {
			e.destroy(o.ptr)
		}
	}
	if len(all) > 0 {
		e.logger.Warn("engine shut down with live objects", "component", "enginesim", "count", len(all))
	}
	return len(all)
}

func (e *Engine) buildInterface() *sys.Interface {
	return &sys.Interface{
		GetVersion:               func() sys.Version { return e.version },
		ObjectGetInstanceID:      e.instanceID,
		ObjectGetInstanceFromID:  e.instanceFromID,
		ObjectCastTo:             e.castTo,
		ObjectDestroy:            e.destroy,
		ObjectGetClassName:       e.ClassOf,
		ObjectInitRef:            e.initRef,
		ObjectReference:          e.reference,
		ObjectUnreference:        e.unreference,
		ObjectGetReferenceCount:  e.RefCount,
		ObjectSetInstance:        e.setInstance,
		ObjectGetInstanceBinding: e.instanceBinding,
		ObjectSetInstanceBinding: e.setInstanceBinding,
		ObjectMethodBindCall:     e.methodBindCall,
		ObjectMethodBindPtrcall:  e.methodBindPtrcall,
		ClassDBGetClassTag:       e.classTag,
		ClassDBConstructObject:   e.construct,
		ClassDBGetMethodBind:     e.methodBind,
		ClassDBGetParentClass:    e.parentClass,
		ClassDBRegisterClass:     e.registerClass,
		ClassDBRegisterMethod:    e.registerMethod,
		ClassDBUnregisterClass:   e.unregisterClass,
		ClassDBGetMethodList:     e.methodList,
		ClassDBGetClassList:      e.ClassNames,
	}
}
