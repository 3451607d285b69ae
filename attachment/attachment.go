package attachment

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/record"
	"github.com/gofrs/uuid/v5"
	"gorm.io/datatypes"
)

// Errors
var (
	ErrAttachmentDoesNotExist = errors.New("Attachment does not exist")
	ErrEmptyFile              = errors.New("Empty files are not allowed")
	ErrFileTooLarge           = errors.New("File is too large")
	ErrUnsupportedType        = errors.New("Unsupported file type")
)

// Blob is one stored object. Several attachments may share a blob
type Blob struct {
	internal.RandomID
	internal.Timestamps

	Key         string            `json:"key" gorm:"size:512;not null;uniqueIndex"`
	Filename    string            `json:"filename" gorm:"size:255;not null"`
	ContentType string            `json:"content_type" gorm:"size:127;not null"`
	MetaData    datatypes.JSONMap `json:"meta_data,omitempty"`
	ServiceName string            `json:"service_name" gorm:"size:32;not null"`
	ByteSize    int64             `json:"byte_size" gorm:"not null;check:chk_blob_byte_size,byte_size >= 0"`
	Checksum    string            `json:"checksum" gorm:"size:64;not null"`
}

func (Blob) TableName() string {
	return "attachment_blobs"
}

type Attachment struct {
	internal.RandomID
	internal.Timestamps
	internal.SoftDelete
	internal.Friendly

	Name           string      `json:"name" gorm:"size:64;not null;uniqueIndex:idx_attachment_unique"`
	AttachableType record.Kind `json:"attachable_type" gorm:"size:32;not null;uniqueIndex:idx_attachment_unique;index:idx_attachment_attachable"`
	AttachableID   uuid.UUID   `json:"attachable_id" gorm:"type:uuid;not null;uniqueIndex:idx_attachment_unique;index:idx_attachment_attachable"`
	BlobID         uuid.UUID   `json:"blob_id" gorm:"type:uuid;not null;uniqueIndex:idx_attachment_unique"`

	Blob *Blob `json:"blob,omitempty" gorm:"foreignKey:BlobID"`
	// URL is the public location of the blob
	URL string `json:"url,omitempty" gorm:"-"`
}

func (Attachment) Kind() string {
	return string(record.KindAttachment)
}

func (a Attachment) Attachable() record.Ref {
	return record.Ref{Type: a.AttachableType, ID: a.AttachableID}
}

// Variant records a derived rendition of a blob, e.g. a thumbnail
type Variant struct {
	internal.RandomID
	internal.Timestamps

	BlobID          uuid.UUID `json:"blob_id" gorm:"type:uuid;not null;uniqueIndex:idx_variant_digest"`
	VariationDigest string    `json:"variation_digest" gorm:"size:64;not null;uniqueIndex:idx_variant_digest"`
}

func (Variant) TableName() string {
	return "attachment_variants"
}

// Upload describes an incoming file. Content is read once
type Upload struct {
	Name           string     `validate:"required,max=64"`
	AttachableType string     `validate:"required"`
	AttachableID   uuid.UUID  `validate:"required"`
	Filename       string     `validate:"required,max=255"`
	Content        io.Reader  `validate:"required"`
	UploadedBy     *uuid.UUID `validate:"-"`
	Tags           []string   `validate:"omitempty,max=16,dive,max=32"`
}

type Repository interface {
	CreateBlob(ctx context.Context, blob *Blob) error
	Create(ctx context.Context, newAttachment *Attachment) error
	Get(ctx context.Context, id uuid.UUID) (*Attachment, error)
	GetByFriendlyID(ctx context.Context, friendlyID string) (*Attachment, error)
	ListFor(ctx context.Context, attachable record.Ref) ([]Attachment, error)
	// MarkForDeletion soft deletes the attachment. Its blob is kept until the
	// sweep removes it
	MarkForDeletion(ctx context.Context, id uuid.UUID) error
	// ListMarked returns up to limit soft deleted attachments with their blob
	ListMarked(ctx context.Context, limit int) ([]Attachment, error)
	// Purge removes the attachment row for good
	Purge(ctx context.Context, id uuid.UUID) error
	// CountBlobReferences counts attachments, marked or not, using blobID
	CountBlobReferences(ctx context.Context, blobID uuid.UUID) (int64, error)
	// PurgeBlob removes the blob row and its variants
	PurgeBlob(ctx context.Context, blobID uuid.UUID) error
	RecordVariant(ctx context.Context, blobID uuid.UUID, digest string) (*Variant, error)
}

type Service interface {
	// Upload sniffs, checks and stores the file, then records blob and
	// attachment
	Upload(ctx context.Context, payload Upload) (*Attachment, error)
	// Get finds an attachment by id or friendly id
	Get(ctx context.Context, id string) (*Attachment, error)
	ListFor(ctx context.Context, attachable record.Ref) ([]Attachment, error)
	// URL returns a presigned URL to the blob of the attachment and when it
	// expires
	URL(ctx context.Context, id string, ttl time.Duration) (string, time.Time, error)
	MarkForDeletion(ctx context.Context, id string) error
	// DeleteMarked removes the stored objects of marked attachments, then
	// their rows, and returns how many were removed. A row whose object
	// cannot be deleted stays marked for the next run; the failures are
	// joined into the returned error
	DeleteMarked(ctx context.Context, limit int) (int, error)
	RecordVariant(ctx context.Context, blobID uuid.UUID, digest string) (*Variant, error)
}
