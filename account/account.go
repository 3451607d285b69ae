package account

import (
	"context"
	"errors"
	"strings"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/record"
	"github.com/gofrs/uuid/v5"
	"gorm.io/datatypes"
)

// Errors
var (
	ErrAccountDoesNotExist     = errors.New("Account does not exist")
	ErrAccountTypeDoesNotExist = errors.New("Account type does not exist")
	ErrInfoDoesNotExist        = errors.New("Account type info does not exist")
	ErrWeakPassword            = errors.New("Password provided is too weak")
	ErrInvalidCredentials      = errors.New("Invalid email or password")
	ErrAccountInactive         = errors.New("Account is inactive or suspended")
)

// Account is a person or business that signs in to the marketplace
type Account struct {
	internal.RandomID
	internal.Timestamps
	internal.SoftDelete
	internal.Friendly
	internal.Search

	Email        string `json:"email" gorm:"uniqueIndex;size:255;not null" validate:"required,email"`
	Username     string `json:"username" gorm:"uniqueIndex;size:64;not null" validate:"required,min=3,max=64,alphanum"`
	FirstName    string `json:"first_name" gorm:"size:128" validate:"max=128"`
	LastName     string `json:"last_name" gorm:"size:128" validate:"max=128"`
	PasswordHash string `json:"-" gorm:"not null"`
	IsActive     bool   `json:"is_active" gorm:"not null;default:true"`
	IsVerified   bool   `json:"is_verified" gorm:"not null;default:false"`
	IsSuspended  bool   `json:"is_suspended" gorm:"not null;default:false"`

	TypeInfos []AccountTypeInfo `json:"type_infos,omitempty" gorm:"foreignKey:AccountID"`
}

func (Account) Kind() string {
	return string(record.KindAccount)
}

func (a Account) SearchDocument() string {
	return strings.Join([]string{a.Username, a.FirstName, a.LastName, a.Email}, " ")
}

// FullName is the display name of the account
func (a Account) FullName() string {
	name := strings.TrimSpace(a.FirstName + " " + a.LastName)
	if name == "" {
		return a.Username
	}
	return name
}

// AccountType is a role an account can hold, e.g. buyer or seller
type AccountType struct {
	internal.RandomID
	internal.Timestamps

	Title string `json:"title" gorm:"size:128;not null" validate:"required,max=128"`
	Key   string `json:"key" gorm:"uniqueIndex;size:64;not null" validate:"required,max=64"`
}

// AccountTypeGroup joins Account and AccountType. It has no surrogate key
type AccountTypeGroup struct {
	AccountID     uuid.UUID  `json:"account_id" gorm:"primaryKey;type:uuid"`
	AccountTypeID uuid.UUID  `json:"account_type_id" gorm:"primaryKey;type:uuid"`
	AssignedBy    *uuid.UUID `json:"assigned_by,omitempty" gorm:"type:uuid"`
	internal.Timestamps
}

// Key returns the composite key of the group
func (g AccountTypeGroup) Key() internal.Pair[uuid.UUID, uuid.UUID] {
	return internal.NewPair(g.AccountID, g.AccountTypeID)
}

// AccountTypeInfo is the per-role profile of an account. Carts, wishlists,
// notifications and reviews hang off it
type AccountTypeInfo struct {
	internal.RandomID
	internal.Timestamps
	internal.Friendly

	AccountID     uuid.UUID         `json:"account_id" gorm:"type:uuid;not null;uniqueIndex:idx_account_type_info_pair"`
	AccountTypeID uuid.UUID         `json:"account_type_id" gorm:"type:uuid;not null;uniqueIndex:idx_account_type_info_pair"`
	AttachmentID  *uuid.UUID        `json:"attachment_id,omitempty" gorm:"type:uuid"`
	Attributes    datatypes.JSONMap `json:"attributes,omitempty"`

	AccountType *AccountType `json:"account_type,omitempty" gorm:"foreignKey:AccountTypeID"`
}

func (AccountTypeInfo) Kind() string {
	return string(record.KindAccountTypeInfo)
}

// CreateAccount is the payload used to register an account
type CreateAccount struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=3,max=64,alphanum"`
	FirstName string `json:"first_name" validate:"max=128"`
	LastName  string `json:"last_name" validate:"max=128"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
}

// UpdateAccount only touches the fields that are set
type UpdateAccount struct {
	FirstName   *string `json:"first_name" validate:"omitempty,max=128"`
	LastName    *string `json:"last_name" validate:"omitempty,max=128"`
	Username    *string `json:"username" validate:"omitempty,min=3,max=64,alphanum"`
	IsActive    *bool   `json:"is_active"`
	IsVerified  *bool   `json:"is_verified"`
	IsSuspended *bool   `json:"is_suspended"`
	// PasswordHash is only set by ChangePassword
	PasswordHash *string `json:"-"`
}

type CreateAccountType struct {
	Title string `json:"title" validate:"required,max=128"`
	Key   string `json:"key" validate:"required,max=64"`
}

type Repository interface {
	Create(ctx context.Context, newAccount *Account) error
	Get(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByFriendlyID(ctx context.Context, friendlyID string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Update(ctx context.Context, id uuid.UUID, changes UpdateAccount) (*Account, error)
	Delete(ctx context.Context, id uuid.UUID) error

	CreateType(ctx context.Context, newType *AccountType) error
	GetTypeByKey(ctx context.Context, key string) (*AccountType, error)

	// FindOrCreateGroup and FindOrCreateInfo are safe to call concurrently
	// for the same pair
	FindOrCreateGroup(ctx context.Context, accountID uuid.UUID, accountTypeID uuid.UUID, assignedBy *uuid.UUID) (*AccountTypeGroup, bool, error)
	FindOrCreateInfo(ctx context.Context, accountID uuid.UUID, accountTypeID uuid.UUID) (*AccountTypeInfo, bool, error)
	GetInfo(ctx context.Context, id uuid.UUID) (*AccountTypeInfo, error)
	ListInfos(ctx context.Context, accountID uuid.UUID) ([]AccountTypeInfo, error)
}

type Service interface {
	// Create registers a new account with a hashed password
	Create(ctx context.Context, payload CreateAccount) (*Account, error)
	// Find finds an account by id or friendly id
	Find(ctx context.Context, id string) (*Account, error)
	Update(ctx context.Context, id uuid.UUID, payload UpdateAccount) (*Account, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// FindByEmail finds a live account by its email, ignoring case
	FindByEmail(ctx context.Context, email string) (*Account, error)
	// ChangePassword checks the strength of password and replaces the stored
	// hash
	ChangePassword(ctx context.Context, id uuid.UUID, password string) (*Account, error)
	// Authenticate checks an email and password pair
	Authenticate(ctx context.Context, email string, password string) (*Account, error)

	CreateType(ctx context.Context, payload CreateAccountType) (*AccountType, error)
	// AssignType gives an account a role and returns its profile for that
	// role. Assigning the same role twice returns the existing profile
	AssignType(ctx context.Context, accountID uuid.UUID, typeKey string, assignedBy *uuid.UUID) (*AccountTypeInfo, error)
	GetInfo(ctx context.Context, id uuid.UUID) (*AccountTypeInfo, error)
	ListInfos(ctx context.Context, accountID uuid.UUID) ([]AccountTypeInfo, error)
}
