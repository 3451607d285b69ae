package mocks

import (
	"context"

	"github.com/RagOfJoes/bloom/email"
	"github.com/stretchr/testify/mock"
)

// Mailer is a mock type for the email.Mailer type
type Mailer struct {
	mock.Mock
}

func (_m *Mailer) Send(ctx context.Context, req email.Request) (*email.Response, error) {
	ret := _m.Called(ctx, req)

	var r0 *email.Response
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*email.Response)
	}
	return r0, ret.Error(1)
}
