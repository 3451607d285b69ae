package storage

import (
	"errors"
	"fmt"
)

// Op names the storage operation that failed
type Op string

const (
	OpUpload   Op = "upload"
	OpDownload Op = "download"
	OpDelete   Op = "delete"
	OpNotFound Op = "not_found"
	OpConfig   Op = "config"
)

// Errors
var (
	ErrInvalidKey       = errors.New("Invalid storage key")
	ErrInvalidSignature = errors.New("Invalid signature")
	ErrExpired          = errors.New("URL has expired")
	ErrMissingSecret    = errors.New("A signing secret is required")
)

// Error is returned by every Provider
type Error struct {
	Op  Op
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a missing object
func IsNotFound(err error) bool {
	var serr *Error
	return errors.As(err, &serr) && serr.Op == OpNotFound
}
