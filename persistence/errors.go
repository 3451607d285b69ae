package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Translate maps a store error onto the internal error codes. Errors that
// already carry a code are returned untouched
func Translate(err error, format string, a ...interface{}) error {
	if err == nil {
		return nil
	}
	var ierr *internal.Error
	if errors.As(err, &ierr) {
		return err
	}
	return internal.WrapErrorf(err, codeOf(err), format, a...)
}

func codeOf(err error) internal.ErrorCode {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return internal.ErrorCodeNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return internal.ErrorCodeConflict
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return internal.ErrorCodeInvalidArgument
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return internal.ErrorCodeUnavailable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		// unique_violation
		case "23505":
			return internal.ErrorCodeConflict
		// foreign_key, not_null, check, string too long, out of range, invalid text
		case "23503", "23502", "23514", "22001", "22003", "22P02":
			return internal.ErrorCodeInvalidArgument
		// serialization_failure, deadlock_detected
		case "40001", "40P01":
			return internal.ErrorCodeConflict
		}
		return internal.ErrorCodeInternal
	}

	// sqlite reports constraint failures as plain text
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return internal.ErrorCodeConflict
	case strings.Contains(msg, "CHECK constraint failed"), strings.Contains(msg, "NOT NULL constraint failed"), strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return internal.ErrorCodeInvalidArgument
	}
	return internal.ErrorCodeInternal
}

// IsNotFound reports whether err is a missing row
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || internal.IsCode(err, internal.ErrorCodeNotFound)
}

func entityName(v interface{}) string {
	name := fmt.Sprintf("%T", v)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimLeft(name, "*[]")
}
