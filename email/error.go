package email

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a mailer failure
type Kind string

const (
	KindTemplate         Kind = "template"
	KindConnection       Kind = "connection"
	KindTimeout          Kind = "timeout"
	KindInvalidRecipient Kind = "invalid_recipient"
	KindGeneric          Kind = "generic"
)

var statusByKind = map[Kind]int{
	KindTemplate:         http.StatusUnprocessableEntity,
	KindConnection:       http.StatusServiceUnavailable,
	KindTimeout:          http.StatusGatewayTimeout,
	KindInvalidRecipient: http.StatusBadRequest,
	KindGeneric:          http.StatusInternalServerError,
}

// Error is returned by every Mailer
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func newError(kind Kind, err error, format string, a ...interface{}) *Error {
	return &Error{
		Kind:   kind,
		Err:    err,
		Detail: fmt.Sprintf(format, a...),
	}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mailer %s error: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("mailer %s error: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode is the HTTP status the failure maps to
func (e *Error) StatusCode() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsError reports whether err came from a mailer
func IsError(err error) bool {
	var merr *Error
	return errors.As(err, &merr)
}

// classify turns a transport failure into an Error
func classify(err error) *Error {
	var merr *Error
	if errors.As(err, &merr) {
		return merr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, err, "send timed out")
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		if nerr.Timeout() {
			return newError(KindTimeout, err, "send timed out")
		}
		return newError(KindConnection, err, "could not reach mail server")
	}
	var oerr *net.OpError
	if errors.As(err, &oerr) {
		return newError(KindConnection, err, "could not reach mail server")
	}
	return newError(KindGeneric, err, "send failed")
}

// classifyStatus maps a provider response status to an Error. 2xx is not an
// error
func classifyStatus(status int, body string) *Error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusBadRequest:
		return newError(KindInvalidRecipient, nil, "provider rejected the message: %s", body)
	case status == http.StatusUnprocessableEntity:
		return newError(KindTemplate, nil, "provider rejected the template data: %s", body)
	case status == http.StatusTooManyRequests || status >= 500:
		return newError(KindConnection, nil, "provider unavailable (%d)", status)
	default:
		return newError(KindGeneric, nil, "provider returned %d: %s", status, body)
	}
}
