// Package apperr defines the error taxonomy shared by repositories, use
// cases, and the HTTP surface. Kinds are stable strings, not Go types, so
// they survive serialization across the RPC boundary unchanged.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindInvalidInput        Kind = "InvalidInput"
	KindInvalidJSONFormat   Kind = "InvalidJsonFormat"
	KindEmptyInputData      Kind = "EmptyInputData"
	KindDataCorruption      Kind = "DataCorruption"
	KindMissingDataStore    Kind = "MissingDataStore"
	KindDataTableNotExist   Kind = "DataTableNotExist"
	KindAcquireLockFailure  Kind = "AcquireLockFailure"
	KindRemoteDbServerFail  Kind = "RemoteDbServerFailure"
	KindNotImplemented      Kind = "NotImplemented"
	KindPermissionDenied    Kind = "PermissionDenied"
	KindNotFound            Kind = "NotFound"
)

// Error is the concrete error value returned by repositories and use cases.
// Label identifies the function that raised it ("OrderRepo.fetch_billing"),
// Detail carries a human-readable or machine-parseable extra string.
type Error struct {
	Kind   Kind
	Label  string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Label, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Label, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, label, detail string) *Error {
	return &Error{Kind: kind, Label: label, Detail: detail}
}

func Wrap(kind Kind, label string, err error) *Error {
	return &Error{Kind: kind, Label: label, Detail: err.Error(), Err: err}
}

// Is allows errors.Is(err, apperr.KindNotFound)-style matching against a Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// KindOf extracts the Kind from err. The domain rejection types
// (CreateOrderRejected, RefundResolutionFailed, ReserveRejected) are client
// errors despite not being an *Error — they report malformed/over-claimed
// input, not a server fault — so they map to InvalidInput explicitly.
// Anything else unrecognized defaults to RemoteDbServerFailure so an
// un-mapped failure still surfaces as 5xx rather than leaking as a 200 or a
// panic.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	switch err.(type) {
	case CreateOrderRejected, RefundResolutionFailed, *ReserveRejected:
		return KindInvalidInput
	}

	return KindRemoteDbServerFail
}

// StatusCode maps an error kind to the HTTP status code per the §7 table:
// 400 for InvalidInput/EmptyInputData/InvalidJsonFormat, 403 for
// PermissionDenied, 404 for NotFound, 5xx for datastore/transport kinds.
func StatusCode(kind Kind) int {
	switch kind {
	case KindInvalidInput, KindEmptyInputData, KindInvalidJSONFormat:
		return http.StatusBadRequest
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindAcquireLockFailure:
		return http.StatusServiceUnavailable
	case KindNotImplemented:
		return http.StatusNotImplemented
	case KindDataCorruption, KindMissingDataStore, KindDataTableNotExist, KindRemoteDbServerFail:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// StatusCodeFor is a convenience wrapper combining KindOf and StatusCode.
func StatusCodeFor(err error) int {
	return StatusCode(KindOf(err))
}
