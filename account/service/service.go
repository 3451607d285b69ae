package service

import (
	"context"
	"strings"

	"github.com/RagOfJoes/bloom/account"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/RagOfJoes/bloom/internal/validate"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/gofrs/uuid/v5"
	"github.com/nbutton23/zxcvbn-go"
)

type service struct {
	cfg config.Credential
	tx  persistence.Transactor
	ar  account.Repository
}

func NewAccountService(cfg config.Credential, tx persistence.Transactor, ar account.Repository) account.Service {
	return &service{
		cfg: cfg,
		tx:  tx,
		ar:  ar,
	}
}

func (s *service) Create(ctx context.Context, payload account.CreateAccount) (*account.Account, error) {
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	if err := validate.Check(payload); err != nil {
		return nil, err
	}
	hashed, err := s.hash(payload.Password, payload.Email, payload.Username, payload.FirstName, payload.LastName)
	if err != nil {
		return nil, err
	}

	newAccount := account.Account{
		Email:        payload.Email,
		Username:     payload.Username,
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		PasswordHash: hashed,
		IsActive:     true,
	}
	if err := s.ar.Create(ctx, &newAccount); err != nil {
		return nil, persistence.Translate(err, "Failed to create account %s", payload.Email)
	}
	return &newAccount, nil
}

func (s *service) Find(ctx context.Context, id string) (*account.Account, error) {
	uid, err := uuid.FromString(id)
	if err == nil {
		found, err := s.ar.Get(ctx, uid)
		if err != nil {
			return nil, persistence.Translate(err, "%v", account.ErrAccountDoesNotExist)
		}
		return found, nil
	}
	if !internal.IsFriendlyID(id) {
		return nil, internal.NewErrorf(internal.ErrorCodeNotFound, "%v", account.ErrAccountDoesNotExist)
	}
	found, err := s.ar.GetByFriendlyID(ctx, id)
	if err != nil {
		return nil, persistence.Translate(err, "%v", account.ErrAccountDoesNotExist)
	}
	return found, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, payload account.UpdateAccount) (*account.Account, error) {
	if err := validate.Check(payload); err != nil {
		return nil, err
	}
	updated, err := s.ar.Update(ctx, id, payload)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to update account %s", id)
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.ar.Delete(ctx, id); err != nil {
		return persistence.Translate(err, "Failed to delete account %s", id)
	}
	return nil
}

func (s *service) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	found, err := s.ar.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, persistence.Translate(err, "%v", account.ErrAccountDoesNotExist)
	}
	return found, nil
}

func (s *service) ChangePassword(ctx context.Context, id uuid.UUID, password string) (*account.Account, error) {
	if err := validate.Var(password, "required,min=8,max=128"); err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "Password must be between 8 and 128 characters")
	}
	found, err := s.ar.Get(ctx, id)
	if err != nil {
		return nil, persistence.Translate(err, "%v", account.ErrAccountDoesNotExist)
	}
	hashed, err := s.hash(password, found.Email, found.Username, found.FirstName, found.LastName)
	if err != nil {
		return nil, err
	}
	updated, err := s.ar.Update(ctx, id, account.UpdateAccount{PasswordHash: &hashed})
	if err != nil {
		return nil, persistence.Translate(err, "Failed to change password of %s", id)
	}
	return updated, nil
}

// hash rejects passwords below the configured zxcvbn score, penalizing ones
// built from the account's own details
func (s *service) hash(password string, inputs ...string) (string, error) {
	strength := zxcvbn.PasswordStrength(password, inputs)
	if strength.Score < s.cfg.MinimumScore {
		return "", internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v", account.ErrWeakPassword)
	}
	hashed, err := hashPassword(password, s.cfg.Argon)
	if err != nil {
		return "", internal.WrapErrorf(err, internal.ErrorCodeInternal, "Failed to hash password")
	}
	return hashed, nil
}

func (s *service) Authenticate(ctx context.Context, email string, password string) (*account.Account, error) {
	found, err := s.ar.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if persistence.IsNotFound(err) {
			return nil, internal.WrapErrorf(err, internal.ErrorCodeUnauthorized, "%v", account.ErrInvalidCredentials)
		}
		return nil, persistence.Translate(err, "Failed to retrieve account %s", email)
	}
	match, err := comparePassword(password, found.PasswordHash)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeInternal, "Failed to compare password of %s", found.ID)
	}
	if !match {
		return nil, internal.NewErrorf(internal.ErrorCodeUnauthorized, "%v", account.ErrInvalidCredentials)
	}
	if !found.IsActive || found.IsSuspended {
		return nil, internal.NewErrorf(internal.ErrorCodeForbidden, "%v", account.ErrAccountInactive)
	}
	return found, nil
}

func (s *service) CreateType(ctx context.Context, payload account.CreateAccountType) (*account.AccountType, error) {
	payload.Key = strings.ToLower(strings.TrimSpace(payload.Key))
	if err := validate.Check(payload); err != nil {
		return nil, err
	}
	newType := account.AccountType{
		Title: payload.Title,
		Key:   payload.Key,
	}
	if err := s.ar.CreateType(ctx, &newType); err != nil {
		return nil, persistence.Translate(err, "Failed to create account type %s", payload.Key)
	}
	return &newType, nil
}

func (s *service) AssignType(ctx context.Context, accountID uuid.UUID, typeKey string, assignedBy *uuid.UUID) (*account.AccountTypeInfo, error) {
	var info *account.AccountTypeInfo
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.ar.Get(ctx, accountID); err != nil {
			return persistence.Translate(err, "%v", account.ErrAccountDoesNotExist)
		}
		accountType, err := s.ar.GetTypeByKey(ctx, strings.ToLower(typeKey))
		if err != nil {
			return persistence.Translate(err, "%v: %s", account.ErrAccountTypeDoesNotExist, typeKey)
		}
		if _, _, err := s.ar.FindOrCreateGroup(ctx, accountID, accountType.ID, assignedBy); err != nil {
			return persistence.Translate(err, "Failed to assign %s to %s", typeKey, accountID)
		}
		created, _, err := s.ar.FindOrCreateInfo(ctx, accountID, accountType.ID)
		if err != nil {
			return persistence.Translate(err, "Failed to create %s profile for %s", typeKey, accountID)
		}
		info = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (s *service) GetInfo(ctx context.Context, id uuid.UUID) (*account.AccountTypeInfo, error) {
	info, err := s.ar.GetInfo(ctx, id)
	if err != nil {
		return nil, persistence.Translate(err, "%v", account.ErrInfoDoesNotExist)
	}
	return info, nil
}

func (s *service) ListInfos(ctx context.Context, accountID uuid.UUID) ([]account.AccountTypeInfo, error) {
	infos, err := s.ar.ListInfos(ctx, accountID)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to list profiles of %s", accountID)
	}
	return infos, nil
}
