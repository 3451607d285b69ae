package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/validate"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/token"
	"github.com/rs/zerolog"
)

// tokenBytes of entropy per issued token
const tokenBytes = 32

type service struct {
	log zerolog.Logger
	tr  token.Repository
	now func() time.Time
}

func NewTokenService(log zerolog.Logger, tr token.Repository) token.Service {
	return &service{
		log: log,
		tr:  tr,
		now: time.Now,
	}
}

func (s *service) Issue(ctx context.Context, payload token.Issue) (*token.Token, string, error) {
	if err := validate.Check(payload); err != nil {
		return nil, "", err
	}
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, "", internal.WrapErrorf(err, internal.ErrorCodeInternal, "Failed to generate token")
	}
	value := base64.RawURLEncoding.EncodeToString(raw)

	newToken := token.Token{
		Token:     value,
		AccountID: payload.AccountID,
		Purpose:   payload.Purpose,
	}
	if payload.TTL > 0 {
		expiresAt := s.now().UTC().Add(payload.TTL)
		newToken.DeletedAt = &expiresAt
	}
	if err := s.tr.Create(ctx, &newToken); err != nil {
		return nil, "", persistence.Translate(err, "Failed to issue token")
	}
	return &newToken, value, nil
}

func (s *service) Validate(ctx context.Context, value string) (*token.Token, error) {
	found, err := s.tr.GetByToken(ctx, value)
	if err != nil {
		if persistence.IsNotFound(err) {
			return nil, internal.WrapErrorf(err, internal.ErrorCodeUnauthorized, "%v", token.ErrTokenDoesNotExist)
		}
		return nil, persistence.Translate(err, "Failed to validate token")
	}
	if !found.Valid(s.now()) {
		return nil, internal.NewErrorf(internal.ErrorCodeUnauthorized, "%v", token.ErrTokenInvalid)
	}
	return found, nil
}

func (s *service) Revoke(ctx context.Context, value string, grace time.Duration) error {
	var until *time.Time
	if grace > 0 {
		t := s.now().UTC().Add(grace)
		until = &t
	}
	revoked, err := s.tr.Revoke(ctx, value, until)
	if err != nil {
		return persistence.Translate(err, "Failed to revoke token")
	}
	if !revoked {
		return internal.NewErrorf(internal.ErrorCodeNotFound, "%v", token.ErrTokenDoesNotExist)
	}
	return nil
}

func (s *service) Cleanup(ctx context.Context, now time.Time) (int64, error) {
	removed, err := s.tr.DeleteExpired(ctx, now)
	if err != nil {
		return 0, persistence.Translate(err, "Failed to clean up tokens")
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Msg("expired tokens removed")
	}
	return removed, nil
}
