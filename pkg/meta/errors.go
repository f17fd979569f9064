// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package meta

import (
	"fmt"

	"github.com/samber/oops"

	"github.com/hostbind/hostbind/pkg/sys"
)

// ErrorKind classifies a failed call.
type ErrorKind int

// Call failure kinds.
const (
	// KindArity: the argument count does not fit the signature. Detected
	// before the host is invoked.
	KindArity ErrorKind = iota + 1
	// KindParamConversion: an argument cannot be passed as the declared type.
	KindParamConversion
	// KindReturnConversion: the host returned something that is not the
	// declared return type.
	KindReturnConversion
	// KindForeign: the host reported the failure.
	KindForeign
)

// Code returns the error code used for oops errors of this kind.
func (k ErrorKind) Code() string {
	switch k {
	case KindArity:
		return "CALL_ARITY"
	case KindParamConversion:
		return "PARAM_CONVERSION"
	case KindReturnConversion:
		return "RETURN_CONVERSION"
	case KindForeign:
		return "FOREIGN_CALL"
	default:
		return "CALL_FAILED"
	}
}

func (k ErrorKind) String() string {
	switch k {
	case KindArity:
		return "arity"
	case KindParamConversion:
		return "param_conversion"
	case KindReturnConversion:
		return "return_conversion"
	case KindForeign:
		return "foreign"
	default:
		return "unknown"
	}
}

// CallError describes a failed call.
type CallError struct {
	Kind ErrorKind
	Call CallContext
	// Args are the rendered arguments when they were available.
	Args []string
	// Index is the offending parameter for conversion errors, -1 otherwise.
	Index  int
	Reason string
	// Host is the status reported by the host for KindForeign.
	Host  sys.CallError
	cause error
}

func (e *CallError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Call.Expression(e.Args), e.Reason)
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *CallError) Unwrap() error {
	return e.cause
}

func newCallError(kind ErrorKind, call CallContext, args []string, index int, reason string, cause error) error {
	return wrapCallError(&CallError{Kind: kind, Call: call, Args: args, Index: index, Reason: reason, cause: cause})
}

func wrapCallError(ce *CallError) error {
	b := oops.In("meta").
		Code(ce.Kind.Code()).
		With("class", ce.Call.Class).
		With("method", ce.Call.Method)
	if ce.Index >= 0 {
		b = b.With("index", ce.Index)
	}
	return b.Wrap(ce)
}

// hostError decodes the host status of a failed dynamic call.
func hostError(call CallContext, args []string, argTypes []sys.VariantType, status sys.CallError) error {
	ce := &CallError{Kind: KindForeign, Call: call, Args: args, Index: -1, Host: status}
	switch status.Type {
	case sys.CallErrorInvalidMethod:
		ce.Reason = "method not found"
	case sys.CallErrorInvalidArgument:
		ce.Index = int(status.Argument)
		from := "<unknown>"
		if ce.Index >= 0 && ce.Index < len(argTypes) {
			from = argTypes[ce.Index].String()
		}
		ce.Reason = fmt.Sprintf("parameter #%d -- cannot convert from %s to %s",
			ce.Index, from, sys.VariantType(status.Expected))
	case sys.CallErrorTooManyArguments, sys.CallErrorTooFewArguments:
		ce.Reason = fmt.Sprintf("function has %d parameter(s), but received %d argument(s)",
			status.Expected, len(argTypes))
	case sys.CallErrorInstanceIsNull:
		ce.Reason = "instance is null"
	case sys.CallErrorMethodNotConst:
		ce.Reason = "method is not const"
	default:
		ce.Reason = fmt.Sprintf("host call failed with status %d", int32(status.Type))
	}
	return wrapCallError(ce)
}
