// Package apperr enumerates the failure kinds of the analysis and poster
// pipelines so that transports can map them without string matching.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindUpstream      Kind = "upstream_call"
	KindExtraction    Kind = "extraction"
	KindValidation    Kind = "validation"
	KindSchema        Kind = "schema"
	KindConfiguration Kind = "configuration"
	KindBadRequest    Kind = "bad_request"
)

// Error carries a Kind, the operation that failed and the underlying cause.
type Error struct {
	Kind    Kind
	Op      string
	Err     error
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by Kind, so errors.Is(err, apperr.Extraction) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Details == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	Upstream      = &Error{Kind: KindUpstream}
	Extraction    = &Error{Kind: KindExtraction}
	Validation    = &Error{Kind: KindValidation}
	Schema        = &Error{Kind: KindSchema}
	Configuration = &Error{Kind: KindConfiguration}
	BadRequest    = &Error{Kind: KindBadRequest}
)

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// WithDetail attaches context that transports may return to the caller.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

// DetailsOf returns the details of the first *Error in err's chain.
func DetailsOf(err error) map[string]any {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}

// KindOf returns the Kind of the first *Error in err's chain, or "" when none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
