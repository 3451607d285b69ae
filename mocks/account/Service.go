package mocks

import (
	"context"

	"github.com/RagOfJoes/bloom/account"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/mock"
)

// Service is a mock type for the account.Service type
type Service struct {
	mock.Mock
}

func (_m *Service) accountResult(ret mock.Arguments) (*account.Account, error) {
	var r0 *account.Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*account.Account)
	}
	return r0, ret.Error(1)
}

func (_m *Service) Create(ctx context.Context, payload account.CreateAccount) (*account.Account, error) {
	return _m.accountResult(_m.Called(ctx, payload))
}

func (_m *Service) Find(ctx context.Context, id string) (*account.Account, error) {
	return _m.accountResult(_m.Called(ctx, id))
}

func (_m *Service) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	return _m.accountResult(_m.Called(ctx, email))
}

func (_m *Service) ChangePassword(ctx context.Context, id uuid.UUID, password string) (*account.Account, error) {
	return _m.accountResult(_m.Called(ctx, id, password))
}

func (_m *Service) Update(ctx context.Context, id uuid.UUID, payload account.UpdateAccount) (*account.Account, error) {
	return _m.accountResult(_m.Called(ctx, id, payload))
}

func (_m *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

func (_m *Service) Authenticate(ctx context.Context, email string, password string) (*account.Account, error) {
	return _m.accountResult(_m.Called(ctx, email, password))
}

func (_m *Service) CreateType(ctx context.Context, payload account.CreateAccountType) (*account.AccountType, error) {
	ret := _m.Called(ctx, payload)

	var r0 *account.AccountType
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*account.AccountType)
	}
	return r0, ret.Error(1)
}

func (_m *Service) AssignType(ctx context.Context, accountID uuid.UUID, typeKey string, assignedBy *uuid.UUID) (*account.AccountTypeInfo, error) {
	ret := _m.Called(ctx, accountID, typeKey, assignedBy)

	var r0 *account.AccountTypeInfo
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*account.AccountTypeInfo)
	}
	return r0, ret.Error(1)
}

func (_m *Service) GetInfo(ctx context.Context, id uuid.UUID) (*account.AccountTypeInfo, error) {
	ret := _m.Called(ctx, id)

	var r0 *account.AccountTypeInfo
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*account.AccountTypeInfo)
	}
	return r0, ret.Error(1)
}

func (_m *Service) ListInfos(ctx context.Context, accountID uuid.UUID) ([]account.AccountTypeInfo, error) {
	ret := _m.Called(ctx, accountID)

	var r0 []account.AccountTypeInfo
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]account.AccountTypeInfo)
	}
	return r0, ret.Error(1)
}
