package api

import "errors"

// ErrInvalidRequest marks request-shape failures that map to HTTP 400.
var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct{ msg string }

func (e invalidRequestError) Error() string { return e.msg }
func (e invalidRequestError) Unwrap() error { return ErrInvalidRequest }

// newInvalidRequest wraps msg so errors.Is(err, ErrInvalidRequest) holds.
func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}
