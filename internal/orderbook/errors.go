package orderbook

import (
	stderrors "errors"
	"fmt"
)

// The error taxonomy drives HTTP status mapping and logging policy: all of
// these are expected control flow and must not be reported as incidents.
// Anything else bubbling out of the book is treated as internal.

type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string { return e.Msg }

type AuthError struct {
	Msg string
}

func (e AuthError) Error() string { return e.Msg }

type BusinessError struct {
	Msg string
}

func (e BusinessError) Error() string { return e.Msg }

type NotFoundError struct {
	Msg string
}

func (e NotFoundError) Error() string { return e.Msg }

func Validationf(format string, a ...interface{}) error {
	return ValidationError{Msg: fmt.Sprintf(format, a...)}
}

func Authf(format string, a ...interface{}) error {
	return AuthError{Msg: fmt.Sprintf(format, a...)}
}

func Businessf(format string, a ...interface{}) error {
	return BusinessError{Msg: fmt.Sprintf(format, a...)}
}

func NotFoundf(format string, a ...interface{}) error {
	return NotFoundError{Msg: fmt.Sprintf(format, a...)}
}

// IsExpected reports whether the error belongs to the client-caused taxonomy.
func IsExpected(err error) bool {
	var (
		v ValidationError
		a AuthError
		b BusinessError
		n NotFoundError
	)
	return stderrors.As(err, &v) || stderrors.As(err, &a) ||
		stderrors.As(err, &b) || stderrors.As(err, &n)
}
