package audit

import (
	"context"
	"time"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/gofrs/uuid/v5"
	"gorm.io/datatypes"
)

// Action is the kind of write that produced a Log
type Action string

const (
	Insert Action = "INSERT"
	Update Action = "UPDATE"
	Delete Action = "DELETE"
)

// Log is an append-only record of a write against an audited table. Rows
// are produced by the store, never by services
type Log struct {
	internal.SortableID
	CreatedAt    time.Time      `json:"created_at" gorm:"index;not null;<-:create"`
	Action       Action         `json:"action" gorm:"size:16;not null;<-:create"`
	ResourceType string         `json:"resource_type" gorm:"size:64;not null;index:idx_audit_resource;<-:create"`
	ResourceID   string         `json:"resource_id" gorm:"size:64;not null;index:idx_audit_resource;<-:create"`
	AccountID    *uuid.UUID     `json:"account_id,omitempty" gorm:"type:uuid;index;<-:create"`
	Details      datatypes.JSON `json:"details" gorm:"<-:create"`
	IPAddress    *string        `json:"ip_address,omitempty" gorm:"size:64;<-:create"`
	UserAgent    *string        `json:"user_agent,omitempty" gorm:"<-:create"`
}

func (Log) TableName() string {
	return "audit_logs"
}

type Repository interface {
	// List returns the history of one resource, newest first
	List(ctx context.Context, resourceType string, resourceID string, page internal.Page) ([]Log, error)
}

type Service interface {
	History(ctx context.Context, resourceType string, resourceID string, page internal.Page) ([]Log, error)
}
