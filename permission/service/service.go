package service

import (
	"context"
	"time"

	"github.com/RagOfJoes/bloom/account"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/validate"
	"github.com/RagOfJoes/bloom/permission"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
)

type service struct {
	tx  persistence.Transactor
	log zerolog.Logger
	as  account.Service
	pr  permission.Repository
	now func() time.Time
}

func NewPermissionService(tx persistence.Transactor, log zerolog.Logger, as account.Service, pr permission.Repository) permission.Service {
	return &service{
		tx:  tx,
		log: log,
		as:  as,
		pr:  pr,
		now: time.Now,
	}
}

func (s *service) CreatePermission(ctx context.Context, payload permission.CreatePermission) (*permission.Permission, error) {
	if err := validate.Check(payload); err != nil {
		return nil, err
	}
	resource, action, err := permission.ParseScope(payload.Scope)
	if err != nil {
		return nil, err
	}
	created, isNew, err := s.pr.FindOrCreatePermission(ctx, resource, action, payload.Description)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to create permission %s", payload.Scope)
	}
	if !isNew {
		return nil, internal.NewErrorf(internal.ErrorCodeConflict, "Permission %s already exists", created.Scope())
	}
	return created, nil
}

func (s *service) ListPermissions(ctx context.Context, page internal.Page) ([]permission.Permission, error) {
	found, err := s.pr.ListPermissions(ctx, page)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to list permissions")
	}
	return found, nil
}

func (s *service) Grant(ctx context.Context, accountTypeInfoID uuid.UUID, payload permission.GrantPermission) (*permission.Grant, error) {
	if err := validate.Check(payload); err != nil {
		return nil, err
	}
	resource, action, err := permission.ParseScope(payload.Scope)
	if err != nil {
		return nil, err
	}
	if payload.ExpiresAt != nil && !payload.ExpiresAt.After(s.now()) {
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "expires_at must be in the future")
	}

	var grant *permission.Grant
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.as.GetInfo(ctx, accountTypeInfoID); err != nil {
			return err
		}
		p, _, err := s.pr.FindOrCreatePermission(ctx, resource, action, nil)
		if err != nil {
			return err
		}
		grant, err = s.grant(ctx, accountTypeInfoID, p, payload.ResourceID, payload.ExpiresAt, payload.AssignedBy)
		return err
	})
	if err != nil {
		return nil, persistence.Translate(err, "Failed to grant %s to %s", payload.Scope, accountTypeInfoID)
	}
	return grant, nil
}

// grant creates the grant of p or renews the existing one
func (s *service) grant(ctx context.Context, accountTypeInfoID uuid.UUID, p *permission.Permission, resourceID string, expiresAt *time.Time, assignedBy *uuid.UUID) (*permission.Grant, error) {
	found, created, err := s.pr.FindOrCreateGrant(ctx, accountTypeInfoID, p.ID, resourceID, func() permission.Grant {
		return permission.Grant{
			AccountTypeInfoID: accountTypeInfoID,
			PermissionID:      p.ID,
			ResourceID:        resourceID,
			Granted:           true,
			AssignedBy:        assignedBy,
			ExpiresAt:         expiresAt,
		}
	})
	if err != nil {
		return nil, err
	}
	if created {
		found.Permission = p
		return found, nil
	}
	changes := map[string]interface{}{
		"granted":     true,
		"assigned_by": nil,
		"expires_at":  nil,
	}
	if assignedBy != nil {
		changes["assigned_by"] = *assignedBy
	}
	if expiresAt != nil {
		changes["expires_at"] = *expiresAt
	}
	return s.pr.UpdateGrant(ctx, found.ID, changes)
}

func (s *service) AssignDefaults(ctx context.Context, accountTypeInfoID uuid.UUID, assignedBy *uuid.UUID) ([]permission.Grant, error) {
	var grants []permission.Grant
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		info, err := s.as.GetInfo(ctx, accountTypeInfoID)
		if err != nil {
			return err
		}
		if info.AccountType == nil {
			return internal.NewErrorf(internal.ErrorCodeInternal, "Profile %s was loaded without its account type", accountTypeInfoID)
		}
		scopes, ok := permission.Defaults[info.AccountType.Key]
		if !ok {
			return internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v: %s", permission.ErrNoDefaults, info.AccountType.Key)
		}
		for _, scope := range scopes {
			resource, action, err := permission.ParseScope(scope)
			if err != nil {
				return err
			}
			p, _, err := s.pr.FindOrCreatePermission(ctx, resource, action, nil)
			if err != nil {
				return err
			}
			// Explicit revocations of a default scope are kept
			found, created, err := s.pr.FindOrCreateGrant(ctx, accountTypeInfoID, p.ID, "", func() permission.Grant {
				return permission.Grant{
					AccountTypeInfoID: accountTypeInfoID,
					PermissionID:      p.ID,
					Granted:           true,
					AssignedBy:        assignedBy,
				}
			})
			if err != nil {
				return err
			}
			if !created && !found.Granted {
				continue
			}
			found.Permission = p
			grants = append(grants, *found)
		}
		return nil
	})
	if err != nil {
		return nil, persistence.Translate(err, "Failed to assign default permissions to %s", accountTypeInfoID)
	}
	s.log.Info().Str("account_type_info_id", accountTypeInfoID.String()).Int("grants", len(grants)).Msg("default permissions assigned")
	return grants, nil
}

func (s *service) List(ctx context.Context, accountTypeInfoID uuid.UUID) ([]permission.Grant, error) {
	found, err := s.pr.ListGrants(ctx, accountTypeInfoID)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to list permissions of %s", accountTypeInfoID)
	}
	return found, nil
}

func (s *service) Revoke(ctx context.Context, accountTypeInfoID uuid.UUID, permissionID uuid.UUID, resourceID string) (bool, error) {
	revoked := false
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.pr.GetPermission(ctx, permissionID); err != nil {
			return persistence.Translate(err, "%v", permission.ErrPermissionDoesNotExist)
		}
		found, err := s.pr.FindGrant(ctx, accountTypeInfoID, permissionID, resourceID)
		if persistence.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if !found.Granted {
			return nil
		}
		if _, err := s.pr.UpdateGrant(ctx, found.ID, map[string]interface{}{"granted": false}); err != nil {
			return err
		}
		revoked = true
		return nil
	})
	if err != nil {
		return false, persistence.Translate(err, "Failed to revoke permission %s from %s", permissionID, accountTypeInfoID)
	}
	return revoked, nil
}

func (s *service) Can(ctx context.Context, accountTypeInfoID uuid.UUID, scope string, resourceID string) (bool, error) {
	resource, action, err := permission.ParseScope(scope)
	if err != nil {
		return false, err
	}
	grants, err := s.List(ctx, accountTypeInfoID)
	if err != nil {
		return false, err
	}

	now := s.now()
	general := false
	for _, g := range grants {
		if g.Permission == nil || !g.Permission.Covers(resource, action) {
			continue
		}
		switch {
		case g.ResourceID == "":
			general = general || g.Active(now)
		case resourceID != "" && g.ResourceID == resourceID:
			if g.Active(now) {
				return true, nil
			}
			if !g.Granted {
				return false, nil
			}
		}
	}
	return general, nil
}
