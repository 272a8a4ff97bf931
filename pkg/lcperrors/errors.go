// Copyright 2025 The lcp-enclave-go Authors
//
// Package lcperrors provides the coded, wrappable error type shared by every
// enclave-core module, modeled on the lite client's errors package: a Kind
// string plus an optional wrapped cause, checkable with errors.As/Is.
package lcperrors

import (
	"errors"
	"fmt"
)

// Kind identifies one of the error categories enumerated in the proxy's
// error-handling design.
type Kind string

const (
	KindInputValidation         Kind = "INPUT_VALIDATION"
	KindMessageAggregationFailed Kind = "MESSAGE_AGGREGATION_FAILED"
	KindInvalidMessageHeader    Kind = "INVALID_MESSAGE_HEADER"
	KindInvalidAbi              Kind = "INVALID_ABI"
	KindUnexpectedMessageType   Kind = "UNEXPECTED_MESSAGE_TYPE"
	KindClientFrozen            Kind = "CLIENT_FROZEN"
	KindConsensusStateNotFound  Kind = "CONSENSUS_STATE_NOT_FOUND"
	KindHeaderNotWithinTrustPeriod Kind = "HEADER_NOT_WITHIN_TRUST_PERIOD"
	KindHeaderVerificationFailure  Kind = "HEADER_VERIFICATION_FAILURE"
	KindStoreError               Kind = "STORE_ERROR"
	KindAttestationFailed        Kind = "ATTESTATION_FAILED"
	KindHostBoundary             Kind = "HOST_BOUNDARY"
	KindOther                    Kind = "OTHER"
)

// Error is a coded error with an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is/errors.As to see through to the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a coded error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an existing cause.
func Wrap(cause error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Wrapf attaches a kind and formatted message to an existing cause.
func Wrapf(cause error, kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the Kind of err, or KindOther if err is not a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}
