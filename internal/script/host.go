// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

// Package script runs Lua scripts against the loaded host engine.
//
// Scripts reach the engine through a global "engine" table. Objects appear
// as userdata handles whose methods are called by name through the dynamic
// calling convention:
//
//	local n = engine.new("Node3D")
//	n:call("set_name", "Camera")
//	n:call("translate", engine.vector3(1, 0, 0))
//	local node = n:cast("Node")
//	n:free()
//
// Each run gets a fresh sandboxed state. Handles a script obtains are
// dropped when the run ends; manually managed objects it creates live on
// until something frees them.
package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/hostbind/hostbind/internal/logging"
	"github.com/hostbind/hostbind/pkg/variant"
)

// DefaultTimeout bounds a run when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// Host runs scripts.
type Host struct {
	factory  *StateFactory
	enforcer *Enforcer
	timeout  time.Duration
	logger   *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// Option configures a Host.
type Option func(*Host)

// WithEnforcer sets the capability enforcer. Without one every
// capability is denied.
func WithEnforcer(e *Enforcer) Option {
	return func(h *Host) {
		h.enforcer = e
	}
}

// WithTimeout bounds each run. Zero or negative disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(h *Host) {
		h.timeout = d
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) {
		h.logger = l
	}
}

// NewHost creates a script host.
func NewHost(opts ...Option) *Host {
	h := &Host{
		factory:  NewStateFactory(),
		enforcer: &Enforcer{},
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Result is the outcome of a run.
type Result struct {
	ID      ulid.ULID
	Values  []variant.Variant
	Elapsed time.Duration
}

// Release gives back the references held by the returned values.
func (r *Result) Release() {
	for i := range r.Values {
		r.Values[i].Release()
	}
	r.Values = nil
}

// Run executes code as the script name and returns the values the chunk
// returns. The caller owns the result and must release it.
func (h *Host) Run(ctx context.Context, name, code string) (*Result, error) {
	start := time.Now()
	res, err := h.run(ctx, name, code)
	status := "success"
	if err != nil {
		status = "SCRIPT_FAILED"
		if o, ok := oops.AsOops(err); ok {
			if code, ok := o.Code().(string); ok && code != "" {
				status = code
			}
		}
	}
	recordRun(status, time.Since(start))
	return res, err
}

func (h *Host) run(ctx context.Context, name, code string) (*Result, error) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	errb := oops.In("script").With("script", name)
	if closed {
		return nil, errb.Code("SCRIPT_FAILED").Errorf("host is closed")
	}

	id := ulid.Make()
	errb = errb.With("run_id", id.String())
	ctx = logging.WithRunSpan(ctx, id)
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	L, err := h.factory.NewState(ctx)
	if err != nil {
		return nil, errb.Code("SCRIPT_FAILED").Wrap(err)
	}
	defer L.Close()

	r := &run{
		host:   h,
		name:   name,
		id:     id,
		ctx:    ctx,
		L:      L,
		logger: h.logger.With("script", name, "run_id", id.String()),
	}
	defer r.release()
	r.registerHandleType()
	r.registerEngine()

	start := time.Now()
	base := L.GetTop()
	if err := L.DoString(code); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			errCode := "SCRIPT_CANCELED"
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				errCode = "SCRIPT_TIMEOUT"
			}
			return nil, errb.Code(errCode).With("timeout", h.timeout.String()).Wrap(ctxErr)
		}
		if r.denied != "" && strings.Contains(err.Error(), deniedPrefix) {
			return nil, errb.Code("CAPABILITY_DENIED").With("capability", r.denied).Wrap(err)
		}
		return nil, errb.Code("SCRIPT_FAILED").Wrap(err)
	}

	res := &Result{ID: id, Elapsed: time.Since(start)}
	for i := base + 1; i <= L.GetTop(); i++ {
		v, err := r.fromLua(L.Get(i))
		if err != nil {
			res.Release()
			return nil, errb.Code("SCRIPT_FAILED").With("index", i-base).
				Wrapf(err, "return value %d", i-base)
		}
		res.Values = append(res.Values, v)
	}
	r.logger.InfoContext(r.ctx, "script finished",
		"elapsed", res.Elapsed, "values", len(res.Values), "handles", len(r.handles))
	return res, nil
}

// Close stops the host from starting new runs.
func (h *Host) Close(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// run is the state of one script execution.
type run struct {
	host    *Host
	name    string
	id      ulid.ULID
	ctx     context.Context
	L       *lua.LState
	logger  *slog.Logger
	handles []*handle
	// denied is the last capability refused to the script.
	denied  string
}

// release drops every handle the script still holds.
func (r *run) release() {
	for _, h := range r.handles {
		if !h.released {
			h.released = true
			h.gd.Drop()
		}
	}
	r.handles = nil
}

const deniedPrefix = "capability denied: "

// require raises a script error unless the script holds capability.
func (r *run) require(L *lua.LState, capability string) {
	if !r.host.enforcer.Check(r.name, capability) {
		r.logger.WarnContext(r.ctx, "capability denied", "capability", capability)
		r.denied = capability
		L.RaiseError(deniedPrefix+"%s requires %s", r.name, capability)
	}
}

// guard turns Go panics from the binding layer into script errors.
func (r *run) guard(fn lua.LGFunction) lua.LGFunction {
	return func(L *lua.LState) int {
		defer func() {
			if p := recover(); p != nil {
				if apiErr, ok := p.(*lua.ApiError); ok {
					panic(apiErr)
				}
				L.RaiseError("%s", panicMessage(p))
			}
		}()
		return fn(L)
	}
}

func panicMessage(p any) string {
	if err, ok := p.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(p)
}
