// Package apperr carries the HTTP status and user-facing detail of an error
// from the domain packages to the handlers.
package apperr

import (
	"errors"
	"net/http"
)

type Error struct {
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Detail + ": " + e.Err.Error()
	}
	return e.Detail
}

func (e *Error) Unwrap() error { return e.Err }

func BadRequest(detail string) *Error {
	return &Error{Status: http.StatusBadRequest, Detail: detail}
}

func Internal(detail string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Detail: detail, Err: err}
}

// StatusAndDetail resolves any error to the status code and message sent to
// the client. Errors that are not *Error become 500s carrying err.Error().
func StatusAndDetail(err error) (int, string) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status, ae.Detail
	}
	return http.StatusInternalServerError, err.Error()
}
