package domain

import (
	"fmt"
	"strings"
)

// Kind classifies failures so handlers can react to them.
type Kind string

const (
	KindMalformedToken      Kind = "malformed_token"
	KindMissingField        Kind = "missing_field"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindUpstreamEmpty       Kind = "upstream_empty"
	KindStorage             Kind = "storage"
	KindPermissionDenied    Kind = "permission_denied"
	KindMissingMessage      Kind = "missing_message_context"
)

// Sentinels for errors.Is. Any *Error of the same Kind matches.
var (
	ErrMalformedToken      = &Error{Kind: KindMalformedToken}
	ErrMissingField        = &Error{Kind: KindMissingField}
	ErrUpstreamUnavailable = &Error{Kind: KindUpstreamUnavailable}
	ErrUpstreamEmpty       = &Error{Kind: KindUpstreamEmpty}
	ErrStorage             = &Error{Kind: KindStorage}
	ErrPermissionDenied    = &Error{Kind: KindPermissionDenied}
	ErrMissingMessage      = &Error{Kind: KindMissingMessage}
)

// Error is the failure type returned across package boundaries.
// Status and Body are set for upstream HTTP failures.
type Error struct {
	Kind   Kind
	Op     string
	Status int
	Body   string
	Err    error
}

// E wraps err with a kind and the failing operation.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Upstream reports a non-2xx answer from the marketplace API.
func Upstream(op string, status int, body string) *Error {
	return &Error{Kind: KindUpstreamUnavailable, Op: op, Status: status, Body: body}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(strings.ReplaceAll(string(e.Kind), "_", " "))
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Code is the upper-case kind, used as err_code in handler logs.
func (e *Error) Code() string { return strings.ToUpper(string(e.Kind)) }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
