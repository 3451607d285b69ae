package permission

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/gofrs/uuid/v5"
)

// Errors
var (
	ErrPermissionDoesNotExist = errors.New("Permission does not exist")
	ErrInvalidScope           = errors.New("Scope must look like resource:action")
	ErrNoDefaults             = errors.New("Account type has no default permissions")
)

// Actions
const (
	Read   = "read"
	Write  = "write"
	Update = "update"
	Delete = "delete"
	// Manage implies every other action on its resource
	Manage = "manage"
)

// Permission is an action on a resource, written resource:action
type Permission struct {
	internal.RandomID
	internal.Timestamps

	Resource    string  `json:"resource" gorm:"size:64;not null;uniqueIndex:idx_permission_scope"`
	Action      string  `json:"action" gorm:"size:32;not null;uniqueIndex:idx_permission_scope"`
	Description *string `json:"description,omitempty"`
}

// Scope returns resource:action
func (p Permission) Scope() string {
	return p.Resource + ":" + p.Action
}

// Covers reports whether p allows action on resource
func (p Permission) Covers(resource string, action string) bool {
	return p.Resource == resource && (p.Action == action || p.Action == Manage)
}

// ParseScope splits resource:action
func ParseScope(scope string) (string, string, error) {
	resource, action, ok := strings.Cut(strings.ToLower(strings.TrimSpace(scope)), ":")
	if !ok || resource == "" || action == "" || strings.Contains(action, ":") {
		return "", "", internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v: %q", ErrInvalidScope, scope)
	}
	return resource, action, nil
}

// Grant gives a profile a permission, optionally limited to one resource id.
// Revoked grants are kept with Granted unset
type Grant struct {
	internal.RandomID
	internal.Timestamps

	AccountTypeInfoID uuid.UUID `json:"account_type_info_id" gorm:"type:uuid;not null;uniqueIndex:idx_permission_grant"`
	PermissionID      uuid.UUID `json:"permission_id" gorm:"type:uuid;not null;uniqueIndex:idx_permission_grant"`
	// ResourceID is empty when the grant covers every resource
	ResourceID string     `json:"resource_id,omitempty" gorm:"size:255;not null;default:'';uniqueIndex:idx_permission_grant"`
	Granted    bool       `json:"granted" gorm:"not null;default:true"`
	AssignedBy *uuid.UUID `json:"assigned_by,omitempty" gorm:"type:uuid"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`

	Permission *Permission `json:"permission,omitempty" gorm:"foreignKey:PermissionID"`
}

func (Grant) TableName() string {
	return "account_type_info_permissions"
}

// Active reports whether g is granted and not expired at now
func (g Grant) Active(now time.Time) bool {
	return g.Granted && (g.ExpiresAt == nil || now.Before(*g.ExpiresAt))
}

// Defaults lists the scopes each account type starts with, keyed by account
// type key
var Defaults = map[string][]string{
	"user": {
		"accounts:read", "accounts:update", "attachments:manage",
		"countries:read", "currencies:read", "categories:read",
		"carts:manage", "orders:read", "orders:write",
		"reviews:manage", "products:read", "product_items:read",
		"wishlists:manage", "notifications:read", "notifications:update",
	},
	"business": {
		"accounts:read", "accounts:update", "attachments:manage",
		"countries:read", "currencies:read", "categories:read",
		"products:read", "product_items:read", "product_items:write",
		"product_item_requests:read", "product_item_requests:write",
		"orders:read", "orders:write", "orders:update",
		"inventory:read", "inventory:write", "inventory:update",
		"kyc:read", "kyc:write", "notifications:read", "notifications:update",
	},
	"supplier": {
		"accounts:read", "accounts:update", "attachments:manage",
		"countries:read", "currencies:read", "categories:read", "categories:write",
		"products:manage", "product_items:read", "product_item_requests:manage",
		"orders:read", "orders:update", "inventory:manage",
		"kyc:read", "kyc:write", "notifications:read", "notifications:update",
	},
	"admin": {
		"accounts:manage", "account_types:manage", "permissions:manage",
		"countries:manage", "currencies:manage", "categories:manage",
		"products:manage", "product_items:manage", "product_item_requests:manage",
		"orders:manage", "inventory:manage", "carts:manage", "wishlists:manage",
		"reviews:manage", "notifications:manage", "kyc:manage",
		"attachments:manage", "audit_logs:read",
	},
}

type CreatePermission struct {
	Scope       string  `json:"scope" validate:"required,max=97"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type GrantPermission struct {
	Scope      string     `json:"scope" validate:"required,max=97"`
	ResourceID string     `json:"resource_id" validate:"omitempty,max=255"`
	ExpiresAt  *time.Time `json:"expires_at"`
	AssignedBy *uuid.UUID `json:"assigned_by"`
}

type Repository interface {
	// FindOrCreatePermission is safe to call concurrently for one scope
	FindOrCreatePermission(ctx context.Context, resource string, action string, description *string) (*Permission, bool, error)
	GetPermission(ctx context.Context, id uuid.UUID) (*Permission, error)
	ListPermissions(ctx context.Context, page internal.Page) ([]Permission, error)

	// FindOrCreateGrant returns the grant of permissionID to the profile,
	// creating it from build when missing
	FindOrCreateGrant(ctx context.Context, accountTypeInfoID uuid.UUID, permissionID uuid.UUID, resourceID string, build func() Grant) (*Grant, bool, error)
	FindGrant(ctx context.Context, accountTypeInfoID uuid.UUID, permissionID uuid.UUID, resourceID string) (*Grant, error)
	UpdateGrant(ctx context.Context, id uuid.UUID, changes map[string]interface{}) (*Grant, error)
	// ListGrants returns the grants of a profile with their permission
	ListGrants(ctx context.Context, accountTypeInfoID uuid.UUID) ([]Grant, error)
}

type Service interface {
	CreatePermission(ctx context.Context, payload CreatePermission) (*Permission, error)
	ListPermissions(ctx context.Context, page internal.Page) ([]Permission, error)

	// Grant gives the profile a permission, renewing a revoked or expired
	// grant of the same scope
	Grant(ctx context.Context, accountTypeInfoID uuid.UUID, payload GrantPermission) (*Grant, error)
	// AssignDefaults grants the default scopes of the profile's account type.
	// Calling it again does not duplicate grants
	AssignDefaults(ctx context.Context, accountTypeInfoID uuid.UUID, assignedBy *uuid.UUID) ([]Grant, error)
	List(ctx context.Context, accountTypeInfoID uuid.UUID) ([]Grant, error)
	// Revoke reports whether a grant was found and revoked
	Revoke(ctx context.Context, accountTypeInfoID uuid.UUID, permissionID uuid.UUID, resourceID string) (bool, error)
	// Can reports whether the profile holds scope, for resourceID when set.
	// A grant or revocation for the exact resource wins over a general one
	Can(ctx context.Context, accountTypeInfoID uuid.UUID, scope string, resourceID string) (bool, error)
}
