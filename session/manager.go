package session

import (
	"context"
	"time"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/alexedwards/scs/redisstore"
	"github.com/alexedwards/scs/v2"
	"github.com/gofrs/uuid/v5"
	"github.com/gomodule/redigo/redis"
)

const (
	guestKey   = "guest_id"
	accountKey = "account_id"
)

type Manager struct {
	*scs.SessionManager
}

// NewManager creates the cookie session manager. A nil store keeps sessions
// in memory
func NewManager(cfg config.Configuration, store scs.Store) *Manager {
	manager := scs.New()
	if store != nil {
		manager.Store = store
	}
	manager.Lifetime = cfg.Session.Lifetime
	manager.Cookie.Name = cfg.Session.Cookie.Name
	manager.Cookie.Path = cfg.Session.Cookie.Path
	manager.Cookie.Domain = cfg.Session.Cookie.Domain
	manager.Cookie.Persist = cfg.Session.Cookie.Persist
	manager.Cookie.HttpOnly = cfg.Session.Cookie.HttpOnly
	manager.Cookie.SameSite = cfg.Session.Cookie.SameSite
	manager.Cookie.Secure = cfg.Environment == config.Production
	return &Manager{manager}
}

// NewRedisStore keeps sessions in redis under the "session:" prefix
func NewRedisStore(pool *redis.Pool) scs.Store {
	return redisstore.NewWithPrefix(pool, "session:")
}

// GuestID returns the id of the anonymous visitor behind ctx, assigning one
// on first use. ctx must come from a request wrapped by LoadAndSave
func (m *Manager) GuestID(ctx context.Context) (string, error) {
	if id := m.GetString(ctx, guestKey); id != "" {
		return id, nil
	}
	id, err := internal.NewID()
	if err != nil {
		return "", err
	}
	m.Put(ctx, guestKey, id.String())
	return id.String(), nil
}

// SignIn binds accountID to the session and rotates its token
func (m *Manager) SignIn(ctx context.Context, accountID uuid.UUID) error {
	if err := m.RenewToken(ctx); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeInternal, "Failed to renew session")
	}
	m.Put(ctx, accountKey, accountID.String())
	m.Put(ctx, "signed_in_at", time.Now().UTC().Unix())
	return nil
}

// AccountID returns the signed in account, if any
func (m *Manager) AccountID(ctx context.Context) *uuid.UUID {
	raw := m.GetString(ctx, accountKey)
	if raw == "" {
		return nil
	}
	id, err := uuid.FromString(raw)
	if err != nil {
		return nil
	}
	return &id
}

// SignOut drops the session entirely
func (m *Manager) SignOut(ctx context.Context) error {
	if err := m.Destroy(ctx); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeInternal, "Failed to destroy session")
	}
	return nil
}
