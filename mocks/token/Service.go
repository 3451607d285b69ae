package mocks

import (
	"context"
	"time"

	"github.com/RagOfJoes/bloom/token"
	"github.com/stretchr/testify/mock"
)

// Service is a mock type for the token.Service type
type Service struct {
	mock.Mock
}

func (_m *Service) Issue(ctx context.Context, payload token.Issue) (*token.Token, string, error) {
	ret := _m.Called(ctx, payload)

	var r0 *token.Token
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*token.Token)
	}
	return r0, ret.String(1), ret.Error(2)
}

func (_m *Service) Validate(ctx context.Context, value string) (*token.Token, error) {
	ret := _m.Called(ctx, value)

	var r0 *token.Token
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*token.Token)
	}
	return r0, ret.Error(1)
}

func (_m *Service) Revoke(ctx context.Context, value string, grace time.Duration) error {
	ret := _m.Called(ctx, value, grace)
	return ret.Error(0)
}

func (_m *Service) Cleanup(ctx context.Context, now time.Time) (int64, error) {
	ret := _m.Called(ctx, now)
	return ret.Get(0).(int64), ret.Error(1)
}
