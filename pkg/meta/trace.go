// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package meta

import (
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// Trace describes one completed call.
type Trace struct {
	ID         ulid.ULID
	Call       CallContext
	Convention string
	Args       int
	Duration   time.Duration
	Err        error
}

// TraceFunc receives call traces. It runs on the calling goroutine after the
// host returns and must not call back into the host.
type TraceFunc func(Trace)

var tracer atomic.Pointer[TraceFunc]

// SetTracer installs fn as the call tracer; nil disables tracing.
func SetTracer(fn TraceFunc) {
	if fn == nil {
		tracer.Store(nil)
		return
	}
	tracer.Store(&fn)
}

func emitTrace(convention string, call CallContext, args int, start time.Time, err error) {
	d := time.Since(start)
	recordCall(convention, call, err, d)
	fn := tracer.Load()
	if fn == nil {
		return
	}
	(*fn)(Trace{
		ID:         ulid.Make(),
		Call:       call,
		Convention: convention,
		Args:       args,
		Duration:   d,
		Err:        err,
	})
}
