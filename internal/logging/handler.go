// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

// Package logging sets up structured logging with OpenTelemetry trace
// context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

// traceHandler stamps every record with the service identity and, when the
// context carries a span, its trace and span IDs.
type traceHandler struct {
	handler slog.Handler
	service string
	version string
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(
		slog.String("service", h.service),
		slog.String("version", h.version),
	)

	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.HasTraceID() {
		r.AddAttrs(slog.String("trace_id", spanCtx.TraceID().String()))
	}
	if spanCtx.HasSpanID() {
		r.AddAttrs(slog.String("span_id", spanCtx.SpanID().String()))
	}

	//nolint:wrapcheck // Handler interface requires unwrapped error passthrough
	return h.handler.Handle(ctx, r)
}

func (h *traceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{handler: h.handler.WithAttrs(attrs), service: h.service, version: h.version}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{handler: h.handler.WithGroup(name), service: h.service, version: h.version}
}

// Options selects the output of Setup.
type Options struct {
	// Format is "json" or "text". Anything else means JSON.
	Format string
	// Level is the minimum level written. Nil means info.
	Level slog.Leveler
	// Output defaults to os.Stderr.
	Output io.Writer
}

// Setup creates a logger for service.
func Setup(service, version string, opts Options) *slog.Logger {
	w := opts.Output
	if w == nil {
		w = os.Stderr
	}
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	if opts.Format == "text" {
		base = slog.NewTextHandler(w, handlerOpts)
	} else {
		base = slog.NewJSONHandler(w, handlerOpts)
	}
	return slog.New(&traceHandler{handler: base, service: service, version: version})
}

// SetDefault installs a logger built by Setup as the slog default and
// returns it.
func SetDefault(service, version string, opts Options) *slog.Logger {
	logger := Setup(service, version, opts)
	slog.SetDefault(logger)
	return logger
}

// WithRunSpan returns ctx carrying a span context whose trace ID is id,
// so that every record logged for one run shares a trace ID. id is
// typically a ULID.
func WithRunSpan(ctx context.Context, id [16]byte) context.Context {
	var span trace.SpanID
	copy(span[:], id[8:])
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID(id),
		SpanID:     span,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(ctx, sc)
}
