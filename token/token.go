package token

import (
	"context"
	"errors"
	"time"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/gofrs/uuid/v5"
)

// Purpose of a token
type Purpose string

const (
	PurposeAccess       Purpose = "access"
	PurposeRefresh      Purpose = "refresh"
	PurposeVerification Purpose = "verification"
	PurposeRecovery     Purpose = "recovery"
)

// Errors
var (
	ErrTokenDoesNotExist = errors.New("Token does not exist")
	ErrTokenInvalid      = errors.New("Token is revoked or expired")
)

// Token is an opaque credential. DeletedAt is the end of its grace period:
// it may lie in the future and the row is removed by Cleanup once it passed
type Token struct {
	internal.RandomID
	internal.Timestamps

	Token     string     `json:"-" gorm:"size:128;not null;uniqueIndex"`
	AccountID *uuid.UUID `json:"account_id,omitempty" gorm:"type:uuid;index"`
	Purpose   Purpose    `json:"purpose" gorm:"size:32;not null;default:'access'"`
	Revoked   bool       `json:"revoked" gorm:"not null;default:false;index"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}

// Valid reports whether t can still be used at now. A revoked token keeps
// working until its grace period ends
func (t Token) Valid(now time.Time) bool {
	if t.DeletedAt != nil {
		return t.DeletedAt.After(now)
	}
	return !t.Revoked
}

type Issue struct {
	AccountID *uuid.UUID    `json:"account_id"`
	Purpose   Purpose       `json:"purpose" validate:"required,oneof=access refresh verification recovery"`
	TTL       time.Duration `json:"ttl" validate:"min=0"`
}

type Repository interface {
	Create(ctx context.Context, newToken *Token) error
	GetByToken(ctx context.Context, value string) (*Token, error)
	// Revoke marks the token revoked and sets its grace period end
	Revoke(ctx context.Context, value string, graceUntil *time.Time) (bool, error)
	// DeleteExpired removes tokens whose deletion time passed, plus revoked
	// ones without a grace period
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Service interface {
	// Issue creates a random token. The plain value is returned once
	Issue(ctx context.Context, payload Issue) (*Token, string, error)
	// Validate returns the token when it is neither revoked nor expired
	Validate(ctx context.Context, value string) (*Token, error)
	// Revoke invalidates value now. The row is kept for grace before
	// Cleanup removes it
	Revoke(ctx context.Context, value string, grace time.Duration) error
	Cleanup(ctx context.Context, now time.Time) (int64, error)
}
