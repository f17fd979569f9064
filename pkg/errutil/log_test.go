// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package errutil_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostbind/hostbind/pkg/errutil"
)

func logEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.In("meta").Code("CALL_ARITY").
		With("class", "Node").
		Hint("check the method signature").
		Errorf("Node::add_child(): function has 2 parameters, but received 3 arguments")

	errutil.LogError(logger, "call failed", err)

	entry := logEntry(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "call failed", entry["msg"])
	assert.Equal(t, "meta", entry["domain"])
	assert.Equal(t, "CALL_ARITY", entry["code"])
	assert.Equal(t, "check the method signature", entry["hint"])
	assert.Equal(t, map[string]any{"class": "Node"}, entry["context"])
}

func TestLogError_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(logger, "operation failed", errors.New("standard error"))

	entry := logEntry(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Contains(t, entry["error"], "standard error")
	assert.NotContains(t, entry, "code")
}

type ctxKey struct{}

type recordingHandler struct {
	slog.Handler
	seen *[]any
}

func (h recordingHandler) Handle(ctx context.Context, r slog.Record) error {
	*h.seen = append(*h.seen, ctx.Value(ctxKey{}))
	return h.Handler.Handle(ctx, r)
}

func TestLogErrorContext_PassesContext(t *testing.T) {
	var buf bytes.Buffer
	var seen []any
	logger := slog.New(recordingHandler{Handler: slog.NewJSONHandler(&buf, nil), seen: &seen})
	ctx := context.WithValue(context.Background(), ctxKey{}, "run-1")

	errutil.LogErrorContext(ctx, logger, "script failed", oops.Code("SCRIPT_FAILED").Errorf("boom"))
	errutil.LogErrorContext(ctx, logger, "script failed", errors.New("boom"))

	assert.Equal(t, []any{"run-1", "run-1"}, seen)
}
