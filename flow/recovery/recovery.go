package recovery

import (
	"context"
	"time"

	"github.com/RagOfJoes/bloom/flow"
)

// Flow is the state of a password reset. Only the link token is persisted,
// as a token with the recovery purpose
type Flow struct {
	// Status defines the current state of the flow
	Status flow.Status `json:"status"`
	// ExpiresAt defines the time when the link will no longer be valid
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// IdentifierPayload defines the payload required to receive a link
type IdentifierPayload struct {
	Email string `json:"email" validate:"required,email"`
}

// SubmitPayload defines the payload required to complete the flow
type SubmitPayload struct {
	Password        string `json:"password" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type Service interface {
	// New emails a reset link when payload names an account. Unknown emails
	// succeed as well so accounts can't be enumerated
	New(ctx context.Context, payload IdentifierPayload) error
	// Find returns the flow behind a link
	Find(ctx context.Context, value string) (*Flow, error)
	// Submit replaces the account's password and consumes the link
	Submit(ctx context.Context, value string, payload SubmitPayload) (*Flow, error)
}
