package internal

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrFailedID            = errors.New("Failed to generate id")
	ErrMissingOwner        = errors.New("Either an account type info or a session must be provided")
	ErrUnsupportedOperator = errors.New("Unsupported operation")
)

type ErrorCode string

const (
	ErrorCodeInternal        ErrorCode = "Internal"
	ErrorCodeNotFound        ErrorCode = "NotFound"
	ErrorCodeConflict        ErrorCode = "Conflict"
	ErrorCodeForbidden       ErrorCode = "Forbidden"
	ErrorCodeUnavailable     ErrorCode = "Unavailable"
	ErrorCodeUnauthorized    ErrorCode = "Unauthorized"
	ErrorCodeInvalidArgument ErrorCode = "InvalidArgument"
)

type Error struct {
	src  error
	msg  string
	code ErrorCode
}

// WrapErrorf returns a wrapped error
func WrapErrorf(src error, code ErrorCode, format string, a ...interface{}) error {
	return &Error{
		src:  src,
		code: code,
		msg:  fmt.Sprintf(format, a...),
	}
}

// NewErrorf instantiates a new error
func NewErrorf(code ErrorCode, format string, a ...interface{}) error {
	return WrapErrorf(nil, code, format, a...)
}

// Error returns the message, when wrapping errors the wrapped error is returned
func (e *Error) Error() string {
	if e.src != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.src)
	}
	return e.msg
}

// Unwrap returns the wrapped error, if any
func (e *Error) Unwrap() error {
	return e.src
}

// Code returns the code representing this error
func (e *Error) Code() ErrorCode {
	return e.code
}

// Message returns the message of the error. Unlike Error(), this will only return the last error's message as opposed to the entire chain error
func (e *Error) Message() string {
	return e.msg
}

// CodeOf returns the code of the outermost Error in the chain or Internal
// when err carries none
func CodeOf(err error) ErrorCode {
	var ierr *Error
	if errors.As(err, &ierr) {
		return ierr.Code()
	}
	return ErrorCodeInternal
}

// IsCode reports whether err carries the given code
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
