// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package sys

// CallErrorType is the status a host reports after a dynamic call.
type CallErrorType int32

// Host call status codes.
const (
	CallOK CallErrorType = iota
	CallErrorInvalidMethod
	CallErrorInvalidArgument
	CallErrorTooManyArguments
	CallErrorTooFewArguments
	CallErrorInstanceIsNull
	CallErrorMethodNotConst
)

func (t CallErrorType) String() string {
	switch t {
	case CallOK:
		return "ok"
	case CallErrorInvalidMethod:
		return "invalid_method"
	case CallErrorInvalidArgument:
		return "invalid_argument"
	case CallErrorTooManyArguments:
		return "too_many_arguments"
	case CallErrorTooFewArguments:
		return "too_few_arguments"
	case CallErrorInstanceIsNull:
		return "instance_is_null"
	case CallErrorMethodNotConst:
		return "method_not_const"
	default:
		return "unknown"
	}
}

// CallError is the out-parameter of ObjectMethodBindCall.
//
// For CallErrorInvalidArgument, Argument is the offending index and Expected
// the VariantType the host wanted. For the argument count codes, Expected is
// the parameter count.
type CallError struct {
	Type     CallErrorType
	Argument int32
	Expected int32
}

// OK reports whether the call succeeded.
func (e *CallError) OK() bool {
	return e.Type == CallOK
}
