package notification

import (
	"context"
	"errors"
	"time"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/gofrs/uuid/v5"
)

// Errors
var (
	ErrNotificationDoesNotExist = errors.New("Notification does not exist")
)

// Notification is an in-app message to a profile
type Notification struct {
	internal.SortableID
	internal.Timestamps

	AccountTypeInfoID uuid.UUID  `json:"account_type_info_id" gorm:"type:uuid;not null;index:idx_notification_inbox"`
	Title             string     `json:"title" gorm:"size:255;not null"`
	Message           string     `json:"message" gorm:"not null"`
	IsRead            bool       `json:"is_read" gorm:"not null;default:false;index:idx_notification_inbox"`
	ReadAt            *time.Time `json:"read_at,omitempty"`
}

// Preference holds the delivery choices of a profile. Profiles without a
// stored preference get DefaultPreference
type Preference struct {
	internal.RandomID
	internal.Timestamps

	AccountTypeInfoID uuid.UUID `json:"account_type_info_id" gorm:"type:uuid;not null;uniqueIndex"`
	// InApp notifications land unread in the inbox. When off they are
	// stored already read
	InApp bool `json:"in_app" gorm:"not null;default:true"`
	Email bool `json:"email" gorm:"not null;default:true"`
}

func (Preference) TableName() string {
	return "notification_preferences"
}

// DefaultPreference is what a profile gets before changing anything
func DefaultPreference(accountTypeInfoID uuid.UUID) Preference {
	return Preference{
		AccountTypeInfoID: accountTypeInfoID,
		InApp:             true,
		Email:             true,
	}
}

// UpdatePreference only touches the fields that are set
type UpdatePreference struct {
	InApp *bool `json:"in_app"`
	Email *bool `json:"email"`
}

type Notify struct {
	AccountTypeInfoID uuid.UUID `json:"account_type_info_id" validate:"required"`
	Title             string    `json:"title" validate:"required,max=255"`
	Message           string    `json:"message" validate:"required,max=5000"`
	// Email also sends the notification to the account's email address
	Email bool `json:"email"`
	// Template overrides the email template
	Template string `json:"-"`
}

type Repository interface {
	Create(ctx context.Context, newNotification *Notification) error
	Get(ctx context.Context, id uuid.UUID) (*Notification, error)
	// List returns the inbox of a profile, newest first
	List(ctx context.Context, accountTypeInfoID uuid.UUID, unreadOnly bool, page internal.Page) ([]Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, at time.Time) (*Notification, error)
	CountUnread(ctx context.Context, accountTypeInfoID uuid.UUID) (int64, error)

	// GetPreference returns the stored preference of a profile
	GetPreference(ctx context.Context, accountTypeInfoID uuid.UUID) (*Preference, error)
	// FindOrCreatePreference is safe to call concurrently for one profile
	FindOrCreatePreference(ctx context.Context, accountTypeInfoID uuid.UUID) (*Preference, error)
	UpdatePreference(ctx context.Context, id uuid.UUID, changes map[string]interface{}) (*Preference, error)
}

type Service interface {
	// Notify stores a notification and, when asked to and allowed by the
	// profile's preference, queues an email once the surrounding
	// transaction commits
	Notify(ctx context.Context, payload Notify) (*Notification, error)
	List(ctx context.Context, accountTypeInfoID uuid.UUID, unreadOnly bool, page internal.Page) ([]Notification, error)
	// MarkRead keeps the first read time when called again
	MarkRead(ctx context.Context, accountTypeInfoID uuid.UUID, id uuid.UUID) (*Notification, error)
	CountUnread(ctx context.Context, accountTypeInfoID uuid.UUID) (int64, error)

	// Preference returns the delivery choices of a profile
	Preference(ctx context.Context, accountTypeInfoID uuid.UUID) (*Preference, error)
	UpdatePreference(ctx context.Context, accountTypeInfoID uuid.UUID, payload UpdatePreference) (*Preference, error)
}
