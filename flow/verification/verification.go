package verification

import (
	"context"
	"errors"
	"time"

	"github.com/RagOfJoes/bloom/flow"
	"github.com/gofrs/uuid/v5"
)

var ErrAlreadyVerified = errors.New("Account is already verified")

// Flow is the state of an account's email verification. The link token is
// the only thing persisted, as a token with the verification purpose
type Flow struct {
	// Status defines the current state of the flow
	Status flow.Status `json:"status"`
	// AccountID defines the account that this flow belongs to
	AccountID uuid.UUID `json:"account_id"`
	// ExpiresAt defines the time when the link will no longer be valid
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type Service interface {
	// New emails a verification link to the account. Accounts that are
	// already verified are rejected
	New(ctx context.Context, accountID uuid.UUID) (*Flow, error)
	// Verify consumes the link and marks its account verified
	Verify(ctx context.Context, value string) (*Flow, error)
}
