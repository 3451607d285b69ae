package persistence

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"
)

type actorKey struct{}

// Actor describes who is performing a write. It ends up in audit rows
type Actor struct {
	AccountID *uuid.UUID
	IPAddress string
	UserAgent string
}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFrom(ctx context.Context) Actor {
	a, _ := ctx.Value(actorKey{}).(Actor)
	return a
}

// Bind exposes the actor to the audit trigger for the rest of tx. Only
// PostgreSQL needs it
func (a Actor) Bind(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	account := ""
	if a.AccountID != nil {
		account = a.AccountID.String()
	}
	return tx.Exec(
		"SELECT set_config('bloom.account_id', ?, true), set_config('bloom.ip_address', ?, true), set_config('bloom.user_agent', ?, true)",
		account, a.IPAddress, a.UserAgent,
	).Error
}
