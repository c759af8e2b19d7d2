// Package apierr defines the error taxonomy shared by the query compiler, the
// upstream client and the enrichment pipeline.
package apierr

import (
	"errors"
	"fmt"
	"net/url"
)

// Kind classifies an error by how it should propagate.
type Kind string

const (
	KindValidation Kind = "validation"
	KindTransport  Kind = "transport"
	KindUpstream   Kind = "upstream_rejected"
	KindParse      Kind = "parse"
)

// Error is a classified failure. Message is safe to show to consumers; Err is
// the underlying cause and may carry more detail for logs.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports a request that was rejected before any upstream call.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Transport wraps a network or timeout failure of the upstream call op.
// A *url.Error is unwrapped first because its URL carries the API token.
func Transport(op string, err error) *Error {
	var ue *url.Error
	if errors.As(err, &ue) {
		err = ue.Err
	}
	return &Error{Kind: KindTransport, Op: op, Message: "upstream request failed", Err: err}
}

// Upstream reports a non-ok status returned by the upstream for op.
func Upstream(op, statusMessage string) *Error {
	if statusMessage == "" {
		statusMessage = "upstream returned an error status"
	}
	return &Error{Kind: KindUpstream, Op: op, Message: statusMessage}
}

// Parse reports a response body that did not match the expected envelope.
func Parse(op string, err error) *Error {
	return &Error{Kind: KindParse, Op: op, Message: "unexpected upstream response", Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage returns a consumer-facing message for err. Causes of transport
// and parse errors are left to the logs.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Op == "" || e.Kind == KindValidation {
			return e.Message
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
