package kyc

import (
	"context"
	"errors"
	"time"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/record"
	"github.com/gofrs/uuid/v5"
)

// Errors
var (
	ErrDocumentTypeDoesNotExist = errors.New("Document type does not exist")
	ErrDocumentDoesNotExist     = errors.New("Document does not exist")
	ErrAlreadyApproved          = errors.New("Document has already been approved")
	ErrNotPending               = errors.New("Only pending documents can be reviewed")
	ErrMissingReason            = errors.New("A reason is required to reject a document")
)

// Status of a document or an attempt
type Status string

const (
	Pending  Status = "pending"
	Approved Status = "approved"
	Rejected Status = "rejected"
)

// DocumentType is a kind of document profiles may have to provide
type DocumentType struct {
	internal.RandomID
	internal.Timestamps

	Key         string  `json:"key" gorm:"size:64;not null;uniqueIndex"`
	Title       string  `json:"title" gorm:"size:255;not null"`
	Description *string `json:"description,omitempty"`
	IsRequired  bool    `json:"is_required" gorm:"not null;default:false"`
}

func (DocumentType) TableName() string {
	return "kyc_document_types"
}

// Document is the current submission of one document type by a profile
type Document struct {
	internal.RandomID
	internal.Timestamps
	internal.SoftDelete

	AccountTypeInfoID uuid.UUID  `json:"account_type_info_id" gorm:"type:uuid;not null;uniqueIndex:idx_kyc_document_owner"`
	DocumentTypeID    uuid.UUID  `json:"document_type_id" gorm:"type:uuid;not null;uniqueIndex:idx_kyc_document_owner"`
	AttachmentID      *uuid.UUID `json:"attachment_id,omitempty" gorm:"type:uuid"`
	Status            Status     `json:"status" gorm:"size:16;not null;default:'pending';index"`
	ReviewedBy        *uuid.UUID `json:"reviewed_by,omitempty" gorm:"type:uuid"`
	ReviewedAt        *time.Time `json:"reviewed_at,omitempty"`
	RejectionReason   *string    `json:"rejection_reason,omitempty"`

	DocumentType *DocumentType `json:"document_type,omitempty" gorm:"foreignKey:DocumentTypeID"`
}

func (Document) TableName() string {
	return "kyc_documents"
}

func (Document) Kind() string {
	return string(record.KindKYCDocument)
}

// Attempt is an append-only entry of a document's history
type Attempt struct {
	internal.SortableID
	internal.Timestamps

	DocumentID uuid.UUID `json:"document_id" gorm:"type:uuid;not null;index;<-:create"`
	Status     Status    `json:"status" gorm:"size:16;not null;<-:create"`
	Notes      *string   `json:"notes,omitempty" gorm:"<-:create"`
}

func (Attempt) TableName() string {
	return "kyc_attempts"
}

type CreateDocumentType struct {
	Key         string  `json:"key" validate:"required,max=64"`
	Title       string  `json:"title" validate:"required,max=255"`
	Description *string `json:"description"`
	IsRequired  bool    `json:"is_required"`
}

type Submit struct {
	AccountTypeInfoID uuid.UUID  `json:"account_type_info_id" validate:"required"`
	DocumentType      string     `json:"document_type" validate:"required"`
	AttachmentID      *uuid.UUID `json:"attachment_id"`
	Notes             *string    `json:"notes" validate:"omitempty,max=2000"`
}

type Review struct {
	Status     Status     `json:"status" validate:"required,oneof=approved rejected"`
	ReviewedBy *uuid.UUID `json:"reviewed_by"`
	Reason     *string    `json:"reason" validate:"omitempty,max=2000"`
}

type Repository interface {
	CreateDocumentType(ctx context.Context, newType *DocumentType) error
	GetDocumentTypeByKey(ctx context.Context, key string) (*DocumentType, error)
	ListDocumentTypes(ctx context.Context) ([]DocumentType, error)

	// FindOrCreateDocument is safe to call concurrently for one profile and
	// document type
	FindOrCreateDocument(ctx context.Context, accountTypeInfoID uuid.UUID, documentTypeID uuid.UUID) (*Document, bool, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*Document, error)
	UpdateDocument(ctx context.Context, id uuid.UUID, changes map[string]interface{}) (*Document, error)
	ListDocuments(ctx context.Context, accountTypeInfoID uuid.UUID) ([]Document, error)

	AppendAttempt(ctx context.Context, attempt *Attempt) error
	ListAttempts(ctx context.Context, documentID uuid.UUID) ([]Attempt, error)
}

type Service interface {
	CreateDocumentType(ctx context.Context, payload CreateDocumentType) (*DocumentType, error)
	ListDocumentTypes(ctx context.Context) ([]DocumentType, error)
	// Submit files a document for review. Resubmitting replaces a pending or
	// rejected document and records another attempt
	Submit(ctx context.Context, payload Submit) (*Document, error)
	// Review approves or rejects a pending document and notifies its owner
	Review(ctx context.Context, documentID uuid.UUID, payload Review) (*Document, error)
	List(ctx context.Context, accountTypeInfoID uuid.UUID) ([]Document, error)
	Attempts(ctx context.Context, documentID uuid.UUID) ([]Attempt, error)
}
