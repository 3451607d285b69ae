package internal

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodes(t *testing.T) {
	src := errors.New("connection refused")
	err := WrapErrorf(src, ErrorCodeUnavailable, "Failed to reach %s", "redis")

	assert.Equal(t, "Failed to reach redis: connection refused", err.Error())
	assert.ErrorIs(t, err, src)
	assert.Equal(t, ErrorCodeUnavailable, CodeOf(err))

	outer := fmt.Errorf("loading cart: %w", err)
	assert.True(t, IsCode(outer, ErrorCodeUnavailable))

	assert.Equal(t, ErrorCodeInternal, CodeOf(errors.New("plain")))
	assert.False(t, IsCode(nil, ErrorCodeInternal))

	var ierr *Error
	assert.ErrorAs(t, NewErrorf(ErrorCodeNotFound, "missing"), &ierr)
	assert.Equal(t, "missing", ierr.Message())
}
