package transport

import (
	"errors"
	"net/http"
	"strings"

	"github.com/RagOfJoes/bloom/internal"
)

// ProblemContentType is the media type of Problem responses
const ProblemContentType = "application/problem+json"

// Problem is an RFC 9457 problem detail
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Status int    `json:"status"`
}

func (p *Problem) Error() string {
	return p.Detail
}

// StatusCoder is implemented by errors of external dependencies that know
// which status they map to
type StatusCoder interface {
	StatusCode() int
}

var statusByCode = map[internal.ErrorCode]int{
	internal.ErrorCodeInvalidArgument: http.StatusBadRequest,
	internal.ErrorCodeUnauthorized:    http.StatusUnauthorized,
	internal.ErrorCodeForbidden:       http.StatusForbidden,
	internal.ErrorCodeNotFound:        http.StatusNotFound,
	internal.ErrorCodeConflict:        http.StatusConflict,
	internal.ErrorCodeUnavailable:     http.StatusServiceUnavailable,
	internal.ErrorCodeInternal:        http.StatusInternalServerError,
}

// NewProblem builds a problem for status with the given detail
func NewProblem(status int, detail string) *Problem {
	title := http.StatusText(status)
	return &Problem{
		Type:   problemType(title),
		Title:  title,
		Detail: detail,
		Status: status,
	}
}

// ProblemFrom maps an error onto the problem sent to clients. Internal
// failures get a generic detail so store or driver text never leaks
func ProblemFrom(err error) *Problem {
	var p *Problem
	if errors.As(err, &p) {
		return p
	}

	var ierr *internal.Error
	if errors.As(err, &ierr) {
		status, ok := statusByCode[ierr.Code()]
		if !ok {
			status = http.StatusInternalServerError
		}
		// External dependencies may know better
		var sc StatusCoder
		if errors.As(err, &sc) && status >= http.StatusInternalServerError {
			status = sc.StatusCode()
		}
		if status >= http.StatusInternalServerError {
			return NewProblem(status, genericDetail)
		}
		return NewProblem(status, ierr.Message())
	}

	var sc StatusCoder
	if errors.As(err, &sc) && sc.StatusCode() < http.StatusInternalServerError {
		return NewProblem(sc.StatusCode(), err.Error())
	}
	if errors.As(err, &sc) {
		return NewProblem(sc.StatusCode(), genericDetail)
	}
	return NewProblem(http.StatusInternalServerError, genericDetail)
}

const genericDetail = "Oops! Something went wrong. Please try again later."

func problemType(title string) string {
	slug := strings.ToLower(strings.ReplaceAll(title, " ", "-"))
	return "https://bloom.shop/problems/" + slug
}
