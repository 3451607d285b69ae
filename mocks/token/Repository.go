package mocks

import (
	"context"
	"time"

	"github.com/RagOfJoes/bloom/token"
	"github.com/stretchr/testify/mock"
)

// Repository is a mock type for the token.Repository type
type Repository struct {
	mock.Mock
}

func (_m *Repository) Create(ctx context.Context, newToken *token.Token) error {
	ret := _m.Called(ctx, newToken)
	return ret.Error(0)
}

func (_m *Repository) GetByToken(ctx context.Context, value string) (*token.Token, error) {
	ret := _m.Called(ctx, value)

	var r0 *token.Token
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*token.Token)
	}
	return r0, ret.Error(1)
}

func (_m *Repository) Revoke(ctx context.Context, value string, graceUntil *time.Time) (bool, error) {
	ret := _m.Called(ctx, value, graceUntil)
	return ret.Bool(0), ret.Error(1)
}

func (_m *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ret := _m.Called(ctx, now)
	return ret.Get(0).(int64), ret.Error(1)
}
